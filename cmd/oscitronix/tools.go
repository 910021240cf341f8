package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	midi "gitlab.com/gomidi/midi/v2"

	"github.com/spf13/cobra"

	"github.com/Houston4444/OsciTronix/library"
	"github.com/Houston4444/OsciTronix/vox"
)

var outputFile string

func runPorts(cmd *cobra.Command, args []string) error {
	defer midi.CloseDriver()
	w := cmd.OutOrStdout()
	fmt.Fprintln(w, "inputs:")
	for _, in := range midi.GetInPorts() {
		fmt.Fprintf(w, "  %d: %s\n", in.Number(), in.String())
	}
	fmt.Fprintln(w, "outputs:")
	for _, out := range midi.GetOutPorts() {
		fmt.Fprintf(w, "  %d: %s\n", out.Number(), out.String())
	}
	return nil
}

// splitSysEx cuts data into F0 ... F7 messages. Bytes outside a message are skipped and an
// unterminated message at the end is kept.
func splitSysEx(data []byte) [][]byte {
	var out [][]byte
	for {
		start := bytes.IndexByte(data, 0xF0)
		if start < 0 {
			return out
		}
		data = data[start:]
		end := bytes.IndexByte(data, vox.SysExEnd)
		if end < 0 {
			return append(out, data)
		}
		out = append(out, data[:end+1])
		data = data[end+1:]
	}
}

type decodedDump struct {
	Kind    string          `json:"kind"`
	Mode    string          `json:"mode,omitempty"`
	Number  *int            `json:"number,omitempty"`
	Program json.RawMessage `json:"program"`
}

// decodeDumps turns every program dump found in data into JSON. Other frames are skipped.
func decodeDumps(data []byte, compactAmpFX bool) ([]decodedDump, error) {
	var out []decodedDump
	for i, msg := range splitSysEx(data) {
		f, err := vox.ParseFrame(msg)
		if errors.Is(err, vox.ErrUnknownFunctionCode) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("message %d: %w", i, err)
		}

		var (
			p     vox.Program
			d     = decodedDump{Kind: f.Code.String()}
			ampFX bool
		)
		switch f.Code {
		case vox.CurrentProgramDataDump:
			p, err = vox.DecodeProgram(f.Payload)
		case vox.ProgramDataDump:
			d.Mode = vox.Mode(f.Payload[0]).String()
			n := int(f.Payload[1])
			d.Number = &n
			p, err = vox.DecodeProgram(f.Payload[2:])
		case vox.CustomAmpFXDataDump:
			n := int(f.Payload[1])
			d.Number = &n
			ampFX = compactAmpFX
			p, err = vox.DecodeAmpFX(f.Payload[2:])
		default:
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("message %d: %w", i, err)
		}
		p.Clamp()
		if d.Program, err = vox.EncodeJSON(p, ampFX); err != nil {
			return nil, err
		}
		d.Program = bytes.TrimSpace(d.Program)
		out = append(out, d)
	}
	return out, nil
}

func runDecode(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(args[0])
	if err != nil {
		return err
	}
	dumps, err := decodeDumps(data, ampFXOutput)
	if err != nil {
		return fmt.Errorf("%s: %w", args[0], err)
	}
	if len(dumps) == 0 {
		return fmt.Errorf("%s: no program dump found", args[0])
	}
	return writeIndented(cmd.OutOrStdout(), dumps)
}

func writeIndented(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func runEncode(cmd *cobra.Command, args []string) error {
	input := args[0]
	p, err := library.ReadProgram(input)
	if err != nil {
		return err
	}
	if p.Name == "" {
		p.Name = vox.NormalizeName(strings.TrimSuffix(filepath.Base(input), filepath.Ext(input)))
	}

	output := outputFile
	if output == "" {
		output = strings.TrimSuffix(input, filepath.Ext(input)) + ".syx"
	}
	if err := os.WriteFile(output, vox.CurrentProgramDumpMsg(p).Frame(), 0o644); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Converted %s -> %s\n", input, output)
	return nil
}
