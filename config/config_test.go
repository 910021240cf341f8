package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadMissingFileGivesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
auto_connect_device: false
nsm_mode: free
midi:
  in_port: "VT20X"
  out_port: "VT40X"
osc:
  listen: ""
http:
  listen: "127.0.0.1:8080"
log_levels:
  engine: debug
library_dir: /tmp/programs
watchdog:
  grace: 250ms
  interval: 50ms
queue_size: 64
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert := assert.New(t)
	assert.False(cfg.AutoConnectDevice)
	assert.Equal(NSMFree, cfg.NSMMode)
	assert.Equal(MIDI{InPort: "VT20X", OutPort: "VT40X"}, cfg.MIDI)
	assert.Equal("", cfg.OSC.Listen)
	assert.Equal("127.0.0.1:8080", cfg.HTTP.Listen)
	assert.Equal("", cfg.LogControl.Listen)
	assert.Equal(map[string]string{"engine": "debug"}, cfg.LogLevels)
	assert.Equal("/tmp/programs", cfg.LibraryDir)
	assert.Equal(250*time.Millisecond, cfg.Watchdog.Grace)
	assert.Equal(50*time.Millisecond, cfg.Watchdog.Interval)
	assert.Equal(64, cfg.QueueSize)
}

func TestLoadKeepsDefaultsForBadValues(t *testing.T) {
	path := writeConfig(t, `
auto_connect_device: [1, 2]
nsm_mode: sometimes
midi: "not a section"
watchdog:
  grace: -1s
  interval: soon
queue_size: 0
log_levels:
  engine: loud
http:
  listen: "127.0.0.1:8080"
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	def := Default()
	assert.Equal(t, def.AutoConnectDevice, cfg.AutoConnectDevice)
	assert.Equal(t, def.NSMMode, cfg.NSMMode)
	assert.Equal(t, def.MIDI, cfg.MIDI)
	assert.Equal(t, def.Watchdog, cfg.Watchdog)
	assert.Equal(t, def.QueueSize, cfg.QueueSize)
	assert.Nil(t, cfg.LogLevels)
	// Good values next to bad ones still apply.
	assert.Equal(t, "127.0.0.1:8080", cfg.HTTP.Listen)
}

func TestLoadRejectsUnparseableFile(t *testing.T) {
	_, err := Load(writeConfig(t, "- just\n- a list\n"))
	assert.Error(t, err)

	_, err = Load(writeConfig(t, "key: [unclosed"))
	assert.Error(t, err)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "config.yaml")
	cfg := Default()
	cfg.NSMMode = NSMFree
	cfg.LogLevels = map[string]string{"midi_in": "debug"}
	cfg.Watchdog.Grace = time.Second

	require.NoError(t, Save(path, cfg))
	got, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, got)
}

func TestDefaultPathHonoursXDG(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/xdg/config")
	t.Setenv("XDG_DATA_HOME", "/xdg/data")
	assert.Equal(t, filepath.Join("/xdg/config", "OsciTronix", "config.yaml"), DefaultPath())
	assert.Equal(t, filepath.Join("/xdg/data", "OsciTronix"), Default().LibraryDir)
}
