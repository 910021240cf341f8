package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/hypebeast/go-osc/osc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Houston4444/OsciTronix/library"
	"github.com/Houston4444/OsciTronix/vox"
)

func testProgram() vox.Program {
	p := vox.NewProgram()
	p.Name = "Jangle"
	p.AmpModel = vox.VoxAC30
	p.Pedal1.Type = vox.Chorus
	p.Pedal1.Values = [vox.PedalValueCount]int{200, 50, 50, 40, 0, 1}
	p.Active[vox.SlotPedal1] = true
	return p
}

func TestSplitSysEx(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want [][]byte
	}{
		{"empty", nil, nil},
		{"single", []byte{0xF0, 1, 0xF7}, [][]byte{{0xF0, 1, 0xF7}}},
		{"garbage between", []byte{9, 0xF0, 1, 0xF7, 8, 8, 0xF0, 2, 0xF7}, [][]byte{{0xF0, 1, 0xF7}, {0xF0, 2, 0xF7}}},
		{"unterminated tail", []byte{0xF0, 1, 0xF7, 0xF0, 3}, [][]byte{{0xF0, 1, 0xF7}, {0xF0, 3}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, splitSysEx(tt.data))
		})
	}
}

func TestDecodeDumps(t *testing.T) {
	p := testProgram()
	var data []byte
	data = append(data, vox.ModeRequestMsg().Frame()...)
	data = append(data, vox.CurrentProgramDumpMsg(p).Frame()...)
	data = append(data, vox.ProgramDumpMsg(6, p).Frame()...)
	data = append(data, vox.AmpFXDumpMsg(2, p).Frame()...)
	data = append(data, 0xF0, 0x42, 0x30, 0x00, 0x01, 0x34, 0x7E, 0xF7)

	dumps, err := decodeDumps(data, true)
	require.NoError(t, err)
	require.Len(t, dumps, 3)

	got, _, err := vox.DecodeJSON(dumps[0].Program, false)
	require.NoError(t, err)
	assert.Equal(t, p, got)
	assert.Nil(t, dumps[0].Number)

	assert.Equal(t, "USER", dumps[1].Mode)
	assert.Equal(t, 6, *dumps[1].Number)

	assert.Equal(t, 2, *dumps[2].Number)
	assert.NotContains(t, string(dumps[2].Program), "program_name")
}

func TestDecodeDumpsTruncated(t *testing.T) {
	frame := vox.CurrentProgramDumpMsg(testProgram()).Frame()
	_, err := decodeDumps(frame[:30], false)
	assert.ErrorIs(t, err, vox.ErrFraming)
}

func TestEncodeCommand(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "jangle.json")
	p := testProgram()
	require.NoError(t, library.WriteProgram(in, p))

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"encode", in})
	require.NoError(t, rootCmd.Execute())
	assert.Contains(t, out.String(), "jangle.syx")

	data, err := os.ReadFile(filepath.Join(dir, "jangle.syx"))
	require.NoError(t, err)
	assert.Equal(t, vox.CurrentProgramDumpMsg(p).Frame(), data)

	out.Reset()
	rootCmd.SetArgs([]string{"decode", filepath.Join(dir, "jangle.syx")})
	require.NoError(t, rootCmd.Execute())
	var dumps []decodedDump
	require.NoError(t, json.Unmarshal(out.Bytes(), &dumps))
	require.Len(t, dumps, 1)
	assert.Equal(t, vox.CurrentProgramDataDump.String(), dumps[0].Kind)
}

func TestDecodeCommandWithoutDumps(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.syx")
	require.NoError(t, os.WriteFile(path, vox.ModeRequestMsg().Frame(), 0o644))
	rootCmd.SetArgs([]string{"decode", path})
	assert.ErrorContains(t, rootCmd.Execute(), "no program dump")
}

func TestRegisterMsg(t *testing.T) {
	msg, err := registerMsg("192.168.1.20:9100")
	require.NoError(t, err)
	assert.Equal(t, "/oscitronix/register", msg.Address)
	assert.Equal(t, []any{"192.168.1.20", int32(9100)}, msg.Arguments)

	_, err = registerMsg("localhost")
	assert.Error(t, err)
	_, err = registerMsg("localhost:http")
	assert.Error(t, err)
}

func TestPrinter(t *testing.T) {
	var out bytes.Buffer
	p := printer{&out}
	p.Dispatch(osc.NewMessage("/oscitronix/reg/mode_changed", "USER"))

	b := osc.NewBundle(time.Now())
	require.NoError(t, b.Append(osc.NewMessage("/oscitronix/reg/current/nr_sens", int32(4))))
	p.Dispatch(b)
	assert.Equal(t, "/oscitronix/reg/mode_changed [USER]\n/oscitronix/reg/current/nr_sens [4]\n", out.String())
}
