// Package config loads the YAML settings file. Loading is tolerant: a value that does not
// fit its key is reported and replaced by the default, only an unreadable file fails.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/Houston4444/OsciTronix/logging"
)

const appName = "OsciTronix"

// NSMMode decides what happens to the amplifier when a session manager opens a session.
type NSMMode string

const (
	NSMFree             NSMMode = "free"
	NSMLoadSavedProgram NSMMode = "load_saved_program"
)

type MIDI struct {
	InPort  string `yaml:"in_port"`
	OutPort string `yaml:"out_port"`
}

type Listener struct {
	Listen string `yaml:"listen"`
}

type Watchdog struct {
	Grace    time.Duration `yaml:"grace"`
	Interval time.Duration `yaml:"interval"`
}

type Config struct {
	AutoConnectDevice bool              `yaml:"auto_connect_device"`
	NSMMode           NSMMode           `yaml:"nsm_mode"`
	MIDI              MIDI              `yaml:"midi"`
	OSC               Listener          `yaml:"osc"`
	HTTP              Listener          `yaml:"http"`
	LogControl        Listener          `yaml:"log_control"`
	LogLevels         map[string]string `yaml:"log_levels,omitempty"`
	LibraryDir        string            `yaml:"library_dir"`
	Watchdog          Watchdog          `yaml:"watchdog"`
	QueueSize         int               `yaml:"queue_size"`
}

func Default() Config {
	return Config{
		AutoConnectDevice: true,
		NSMMode:           NSMLoadSavedProgram,
		MIDI:              MIDI{InPort: "Valvetronix", OutPort: "Valvetronix"},
		OSC:               Listener{Listen: "127.0.0.1:9023"},
		LibraryDir:        defaultDataDir(),
		Watchdog:          Watchdog{Grace: 100 * time.Millisecond, Interval: 20 * time.Millisecond},
		QueueSize:         256,
	}
}

// DefaultPath is config.yaml in the user configuration directory.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "config.yaml"
	}
	return filepath.Join(dir, appName, "config.yaml")
}

func defaultDataDir() string {
	if dir := os.Getenv("XDG_DATA_HOME"); dir != "" {
		return filepath.Join(dir, appName)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return appName
	}
	return filepath.Join(home, ".local", "share", appName)
}

// Load reads path over the defaults. A missing file yields the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("reading config: %w", err)
	}
	var doc map[string]yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return cfg, fmt.Errorf("parsing config %s: %w", path, err)
	}
	l := &loader{log: logging.Get(logging.META).With("file", path)}
	l.apply(&cfg, doc)
	return cfg, nil
}

// Save writes cfg to path, creating the directory.
func Save(path string, cfg Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

type loader struct {
	log *slog.Logger
}

func (l *loader) apply(cfg *Config, doc map[string]yaml.Node) {
	field(l, doc, "auto_connect_device", &cfg.AutoConnectDevice, nil)
	field(l, doc, "nsm_mode", &cfg.NSMMode, func(m NSMMode) error {
		if m != NSMFree && m != NSMLoadSavedProgram {
			return fmt.Errorf("want %q or %q", NSMFree, NSMLoadSavedProgram)
		}
		return nil
	})
	field(l, doc, "library_dir", &cfg.LibraryDir, nil)
	field(l, doc, "queue_size", &cfg.QueueSize, func(n int) error {
		if n < 1 {
			return errors.New("must be at least 1")
		}
		return nil
	})
	field(l, doc, "log_levels", &cfg.LogLevels, func(levels map[string]string) error {
		for cat, name := range levels {
			var lvl slog.Level
			if err := lvl.UnmarshalText([]byte(name)); err != nil {
				return fmt.Errorf("%s: %w", cat, err)
			}
		}
		return nil
	})

	if sub, ok := l.section(doc, "midi"); ok {
		field(l, sub, "in_port", &cfg.MIDI.InPort, nil)
		field(l, sub, "out_port", &cfg.MIDI.OutPort, nil)
	}
	for key, dst := range map[string]*Listener{"osc": &cfg.OSC, "http": &cfg.HTTP, "log_control": &cfg.LogControl} {
		if sub, ok := l.section(doc, key); ok {
			field(l, sub, "listen", &dst.Listen, nil)
		}
	}
	if sub, ok := l.section(doc, "watchdog"); ok {
		positive := func(d time.Duration) error {
			if d <= 0 {
				return errors.New("must be positive")
			}
			return nil
		}
		field(l, sub, "grace", &cfg.Watchdog.Grace, positive)
		field(l, sub, "interval", &cfg.Watchdog.Interval, positive)
	}
}

func (l *loader) section(doc map[string]yaml.Node, key string) (map[string]yaml.Node, bool) {
	node, ok := doc[key]
	if !ok {
		return nil, false
	}
	var sub map[string]yaml.Node
	if err := node.Decode(&sub); err != nil {
		l.log.Warn("config file does not contain a correct section", "key", key, "err", err)
		return nil, false
	}
	return sub, true
}

// field decodes doc[key] into dst when present and valid, and warns otherwise.
func field[T any](l *loader, doc map[string]yaml.Node, key string, dst *T, validate func(T) error) {
	node, ok := doc[key]
	if !ok {
		return
	}
	var v T
	err := node.Decode(&v)
	if err == nil && validate != nil {
		err = validate(v)
	}
	if err != nil {
		l.log.Warn("config file does not contain a correct value, keeping default", "key", key, "err", err)
		return
	}
	*dst = v
}
