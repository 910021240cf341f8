// Command oscitronix mirrors a Vox Valvetronix amplifier over MIDI sysex and exposes it
// over OSC, HTTP, MCP and a terminal panel.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Houston4444/OsciTronix/config"
	"github.com/Houston4444/OsciTronix/logging"
)

var (
	version = "dev"
	commit  = "none"
)

var (
	configPath  string
	withTUI     bool
	logFile     string
	programName string
	ampFXOutput bool
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "oscitronix",
	Short: "Remote control for Vox Valvetronix amplifiers",
	Long: `oscitronix keeps a live copy of a Vox Valvetronix amplifier's programs and
settings, talking to it over MIDI system exclusive messages.

Examples:
  oscitronix run
  oscitronix run --tui
  oscitronix ports
  oscitronix decode dump.syx
  oscitronix encode clean.json -o clean.syx
  oscitronix export backup.json`,
	Version:       fmt.Sprintf("%s (commit: %s)", version, commit),
	SilenceUsage:  true,
	SilenceErrors: true,
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Connect to the amplifier and serve the configured surfaces",
	Args:  cobra.NoArgs,
	RunE:  runRun,
}

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Connect to the amplifier and serve MCP tools on stdio",
	Args:  cobra.NoArgs,
	RunE:  runMCP,
}

var portsCmd = &cobra.Command{
	Use:   "ports",
	Short: "List MIDI ports",
	Args:  cobra.NoArgs,
	RunE:  runPorts,
}

var decodeCmd = &cobra.Command{
	Use:   "decode <file.syx>",
	Short: "Print the programs found in a sysex file as JSON",
	Args:  cobra.ExactArgs(1),
	RunE:  runDecode,
}

var encodeCmd = &cobra.Command{
	Use:   "encode <program.json>",
	Short: "Write a program file as a current-program sysex dump",
	Args:  cobra.ExactArgs(1),
	RunE:  runEncode,
}

var exportCmd = &cobra.Command{
	Use:   "export <full_amp.json>",
	Short: "Read every bank from the amplifier into a full-amp file",
	Args:  cobra.ExactArgs(1),
	RunE:  runExport,
}

var importCmd = &cobra.Command{
	Use:   "import <full_amp.json>",
	Short: "Write a full-amp file into the amplifier",
	Args:  cobra.ExactArgs(1),
	RunE:  runImport,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", config.DefaultPath(), "Configuration file")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "Write logs to this file instead of stderr")

	runCmd.Flags().BoolVar(&withTUI, "tui", false, "Show the terminal panel")
	runCmd.Flags().StringVarP(&programName, "program", "p", "", "Library program to load once the amplifier is read (nsm_mode load_saved_program)")

	decodeCmd.Flags().BoolVar(&ampFXOutput, "ampfx", false, "Print AmpFX presets in their compact form")
	encodeCmd.Flags().StringVarP(&outputFile, "output", "o", "", "Output .syx file path")

	rootCmd.AddCommand(runCmd, mcpCmd, portsCmd, decodeCmd, encodeCmd, exportCmd, importCmd)
}

// loadConfig reads the configuration and applies its log settings.
func loadConfig() (config.Config, error) {
	if logFile != "" {
		f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return config.Config{}, err
		}
		logging.SetOutput(f)
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		return config.Config{}, err
	}
	if err := logging.Configure(cfg.LogLevels); err != nil {
		logging.Get(logging.META).Warn("Ignoring log levels", "err", err)
	}
	return cfg, nil
}
