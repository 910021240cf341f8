package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/hypebeast/go-osc/osc"
)

type LogCategory string

const (
	META     LogCategory = "meta" // For logs about logging
	MIDI_IN  LogCategory = "midi_in"
	MIDI_OUT LogCategory = "midi_out"
	OSC_IN   LogCategory = "osc_in"
	OSC_OUT  LogCategory = "osc_out"
	ENGINE   LogCategory = "engine" // Amplifier state and communication health
	HTTP     LogCategory = "http"
	MCP      LogCategory = "mcp"
	LIBRARY  LogCategory = "library" // Program files on disk
)

var allCategories = []LogCategory{META, MIDI_IN, MIDI_OUT, OSC_IN, OSC_OUT, ENGINE, HTTP, MCP, LIBRARY}

func strToLogCategory(s string) (LogCategory, bool) {
	for _, c := range allCategories {
		if string(c) == s {
			return c, true
		}
	}
	return "", false
}

// Dispatcher is a custom osc.Dispatcher, implementing the osc.Dispatcher interface
type Dispatcher struct{}

func NewDispatcher() *Dispatcher {
	return &Dispatcher{}
}

// Dispatch dispatches OSC packets. Implements the Dispatcher interface.
func (s *Dispatcher) Dispatch(packet osc.Packet) {
	switch p := packet.(type) {
	default:
		return

	case *osc.Message:
		HandleOSCSetCategoryLevel(p)

	case *osc.Bundle:
		for _, m := range p.Messages {
			HandleOSCSetCategoryLevel(m)
		}
	}
}

// Internal state for loggers per category
var (
	mu           sync.RWMutex
	output       io.Writer = os.Stderr
	loggers                = map[LogCategory]*slog.Logger{}
	categoryLvls           = map[LogCategory]*slog.LevelVar{}
)

var defaultLogLevels = map[LogCategory]slog.Level{
	META:     slog.LevelInfo,
	MIDI_IN:  slog.LevelWarn,
	MIDI_OUT: slog.LevelWarn,
	OSC_IN:   slog.LevelWarn,
	OSC_OUT:  slog.LevelWarn,
	ENGINE:   slog.LevelInfo,
	HTTP:     slog.LevelInfo,
	MCP:      slog.LevelInfo,
	LIBRARY:  slog.LevelInfo,
}

// sharedOutput lets SetOutput redirect loggers that were created before the call.
type sharedOutput struct{}

func (sharedOutput) Write(p []byte) (int, error) {
	mu.RLock()
	w := output
	mu.RUnlock()
	return w.Write(p)
}

// SetOutput redirects every category logger. The TUI uses it to keep the terminal clean.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	output = w
}

func levelVar(category LogCategory) *slog.LevelVar {
	lvlVar, ok := categoryLvls[category]
	if !ok {
		lvlVar = new(slog.LevelVar)
		lvlVar.Set(defaultLogLevels[category])
		categoryLvls[category] = lvlVar
	}
	return lvlVar
}

// Get returns a slog.Logger that always has the "category" attribute set.
// Each category gets its own logger instance.
func Get(category LogCategory) *slog.Logger {
	mu.RLock()
	l, ok := loggers[category]
	mu.RUnlock()
	if ok {
		return l
	}
	mu.Lock()
	defer mu.Unlock()
	// Double-check after locking
	if l, ok := loggers[category]; ok {
		return l
	}
	handler := slog.NewTextHandler(sharedOutput{}, &slog.HandlerOptions{
		Level: levelVar(category),
	})
	catLogger := slog.New(handler).With("category", category)
	loggers[category] = catLogger
	return catLogger
}

func SetCategoryLevel(category LogCategory, level slog.Level) error {
	if _, ok := strToLogCategory(string(category)); !ok {
		return fmt.Errorf("unknown log category %q", category)
	}
	mu.Lock()
	defer mu.Unlock()
	levelVar(category).Set(level)
	return nil
}

func CategoryLevel(category LogCategory) slog.Level {
	mu.Lock()
	defer mu.Unlock()
	return levelVar(category).Level()
}

// Configure applies category -> level name pairs such as "engine": "debug".
func Configure(levels map[string]string) error {
	for cat, name := range levels {
		var lvl slog.Level
		if err := lvl.UnmarshalText([]byte(name)); err != nil {
			return fmt.Errorf("log level for %s: %w", cat, err)
		}
		if err := SetCategoryLevel(LogCategory(cat), lvl); err != nil {
			return err
		}
	}
	return nil
}

// ServeLevelControl listens for level changes on addr (host:port, UDP) until the server
// fails. It blocks.
func ServeLevelControl(addr string) error {
	Get(META).Info("Starting log level control server", "addr", addr)
	server := &osc.Server{
		Addr:       addr,
		Dispatcher: NewDispatcher(),
	}
	return server.ListenAndServe()
}

func splitOscPath(path string) []string {
	return strings.Split(strings.TrimPrefix(path, "/"), "/")
}

// OSC handler for runtime config
//
// Routes:
// /meta/logging/{category}/level as int where -4 is Debug, 0 is Info, 4 is Warn, 8 is Error
func HandleOSCSetCategoryLevel(msg *osc.Message) {
	pathSegs := splitOscPath(msg.Address)

	if len(pathSegs) != 4 || pathSegs[0] != "meta" || pathSegs[1] != "logging" || pathSegs[3] != "level" {
		return
	}
	cat, ok := strToLogCategory(pathSegs[2])
	if !ok {
		Get(META).Info("Unrecognized log category in OSC message", "category", pathSegs[2])
		return
	}
	if len(msg.Arguments) != 1 {
		Get(META).Error("Invalid argument count in OSC message", "expected", 1, "got", len(msg.Arguments))
		return
	}
	level, ok := msg.Arguments[0].(int32)
	if !ok {
		Get(META).Error("Invalid level type in OSC message", "expected", "int32", "got", fmt.Sprintf("%T", msg.Arguments[0]))
		return
	}
	Get(META).Info("Setting category level via OSC",
		"category", cat,
		"level", level)
	_ = SetCategoryLevel(cat, slog.Level(level))
}
