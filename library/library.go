// Package library stores programs as JSON files on disk: a directory of named programs,
// single program exports, and full-amp snapshots of every user bank and AmpFX preset.
package library

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/Houston4444/OsciTronix/logging"
	"github.com/Houston4444/OsciTronix/vox"
)

// ErrInvalidFile wraps every failure to parse a program or full-amp file.
var ErrInvalidFile = errors.New("invalid program file")

const fileExt = ".json"

var log *slog.Logger

func init() {
	log = logging.Get(logging.LIBRARY)
}

// Library is a directory of program files named after their program.
type Library struct {
	Dir string
}

func New(dir string) *Library {
	return &Library{Dir: dir}
}

// List returns the names of the programs in the directory, sorted. Names longer than a
// program name and files that do not parse are skipped.
func (l *Library) List() ([]string, error) {
	entries, err := os.ReadDir(l.Dir)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", l.Dir, err)
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), fileExt) {
			continue
		}
		name := strings.TrimSuffix(entry.Name(), fileExt)
		if len(name) > vox.NameLength {
			continue
		}
		if _, err := ReadProgram(filepath.Join(l.Dir, entry.Name())); err != nil {
			log.Warn("Failed to load local program", "file", entry.Name(), "err", err)
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// Load reads the program saved under name. The program takes its name from the file.
func (l *Library) Load(name string) (vox.Program, error) {
	path, err := l.path(name)
	if err != nil {
		return vox.Program{}, err
	}
	p, err := ReadProgram(path)
	if err != nil {
		return vox.Program{}, err
	}
	p.Name = vox.NormalizeName(name)
	return p, nil
}

// Save writes p under name, creating the directory if needed.
func (l *Library) Save(name string, p vox.Program) error {
	path, err := l.path(name)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(l.Dir, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", l.Dir, err)
	}
	p.Name = vox.NormalizeName(name)
	if err := WriteProgram(path, p); err != nil {
		return err
	}
	log.Info("Saved local program", "name", p.Name, "path", path)
	return nil
}

func (l *Library) path(name string) (string, error) {
	if name == "" || len(name) > vox.NameLength || strings.ContainsAny(name, `/\`) || name == "." || name == ".." {
		return "", &vox.FieldError{Field: "program_name", Value: name}
	}
	return filepath.Join(l.Dir, name+fileExt), nil
}

// ReadProgram reads a single program file. Out of range values are railed.
func ReadProgram(path string) (vox.Program, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return vox.Program{}, err
	}
	p, clamped, err := vox.DecodeJSON(data, false)
	if err != nil {
		return vox.Program{}, fmt.Errorf("%w %s: %w", ErrInvalidFile, path, err)
	}
	for _, c := range clamped {
		log.Warn("Value out of range", "file", path, "field", c.Field, "from", c.From, "to", c.To)
	}
	return p, nil
}

// WriteProgram writes p as an indented JSON program file.
func WriteProgram(path string, p vox.Program) error {
	data, err := vox.EncodeJSON(p, false)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}
