package logging

import (
	"bytes"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/hypebeast/go-osc/osc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetReturnsSameLogger(t *testing.T) {
	assert.Same(t, Get(ENGINE), Get(ENGINE))
	assert.NotSame(t, Get(ENGINE), Get(HTTP))
}

func TestOSCSetCategoryLevel(t *testing.T) {
	t.Cleanup(func() { _ = SetCategoryLevel(MIDI_IN, slog.LevelWarn) })

	d := NewDispatcher()
	d.Dispatch(osc.NewMessage("/meta/logging/midi_in/level", int32(-4)))
	assert.Equal(t, slog.LevelDebug, CategoryLevel(MIDI_IN))

	// Wrong type, unknown category and foreign addresses are ignored.
	d.Dispatch(osc.NewMessage("/meta/logging/midi_in/level", "debug"))
	d.Dispatch(osc.NewMessage("/meta/logging/nope/level", int32(8)))
	d.Dispatch(osc.NewMessage("/oscitronix/sync"))
	d.Dispatch(osc.NewMessage("/meta/logging/midi_in/level"))
	assert.Equal(t, slog.LevelDebug, CategoryLevel(MIDI_IN))

	bundle := osc.NewBundle(time.Now())
	require.NoError(t, bundle.Append(osc.NewMessage("/meta/logging/midi_in/level", int32(8))))
	d.Dispatch(bundle)
	assert.Equal(t, slog.LevelError, CategoryLevel(MIDI_IN))
}

func TestConfigure(t *testing.T) {
	t.Cleanup(func() { _ = SetCategoryLevel(ENGINE, slog.LevelInfo) })

	require.NoError(t, Configure(map[string]string{"engine": "debug"}))
	assert.Equal(t, slog.LevelDebug, CategoryLevel(ENGINE))

	assert.Error(t, Configure(map[string]string{"engine": "loud"}))
	assert.Error(t, Configure(map[string]string{"gui": "info"}))
}

func TestSetOutputRedirectsExistingLoggers(t *testing.T) {
	l := Get(LIBRARY)
	var buf bytes.Buffer
	SetOutput(&buf)
	t.Cleanup(func() { SetOutput(os.Stderr) })

	l.Info("Saved program", "name", "Lead")
	assert.Contains(t, buf.String(), "category=library")
	assert.Contains(t, buf.String(), "name=Lead")
}
