package devices_test

import (
	"testing"

	"github.com/hypebeast/go-osc/osc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Houston4444/OsciTronix/devices"
)

func TestIntArg(t *testing.T) {
	tests := []struct {
		name    string
		arg     any
		want    int
		wantErr bool
	}{
		{"int32", int32(42), 42, false},
		{"int64", int64(42), 42, false},
		{"int", 42, 42, false},
		{"float64 truncates", float64(42.9), 42, false},
		{"float32", float32(7), 7, false},
		{"numeric string", "42", 42, false},
		{"bool", true, 1, false},
		{"bad string", "forty", 0, true},
		{"blob", []byte{1}, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := devices.IntArg(osc.NewMessage("/test/int", tt.arg), 0)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFloatArg(t *testing.T) {
	assert := assert.New(t)
	for _, v := range []any{float64(42.5), float32(42.5), "42.5"} {
		got, err := devices.FloatArg(osc.NewMessage("/test/float", v), 0)
		assert.NoError(err)
		assert.InDelta(42.5, got, 0.001, "incorrect float value for %T", v)
	}
	got, err := devices.FloatArg(osc.NewMessage("/test/float", int32(42)), 0)
	assert.NoError(err)
	assert.InDelta(42.0, got, 0.001)

	_, err = devices.FloatArg(osc.NewMessage("/test/float", true), 0)
	assert.Error(err)
}

func TestStringArg(t *testing.T) {
	assert := assert.New(t)
	got, err := devices.StringArg(osc.NewMessage("/test/string", "test"), 0)
	assert.NoError(err)
	assert.Equal("test", got)

	got, err = devices.StringArg(osc.NewMessage("/test/string", int32(42)), 0)
	assert.NoError(err)
	assert.Equal("42", got)

	_, err = devices.StringArg(osc.NewMessage("/test/string", nil), 0)
	assert.Error(err)
}

func TestBoolArg(t *testing.T) {
	tests := []struct {
		arg  any
		want bool
	}{
		{true, true},
		{int32(1), true},
		{int32(0), false},
		{"true", true},
		{"yes", false},
		{float64(1.0), true},
		{float64(0.0), false},
	}
	for _, tt := range tests {
		got, err := devices.BoolArg(osc.NewMessage("/test/bool", tt.arg), 0)
		assert.NoError(t, err)
		assert.Equal(t, tt.want, got, "arg %#v", tt.arg)
	}
}

func TestArgIndexOutOfRange(t *testing.T) {
	msg := osc.NewMessage("/test/multi", int32(1), "two")
	_, err := devices.IntArg(msg, 2)
	assert.ErrorContains(t, err, "missing argument 2")

	s, err := devices.StringArg(msg, 1)
	assert.NoError(t, err)
	assert.Equal(t, "two", s)
}
