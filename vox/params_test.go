package vox

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRail(t *testing.T) {
	assert.Equal(t, 0, Rail(-5, 0, 100))
	assert.Equal(t, 100, Rail(250, 0, 100))
	assert.Equal(t, 42, Rail(42, 0, 100))
	assert.Equal(t, uint8(7), Rail[uint8](9, 0, 7))

	v, changed := ParamInfo{Min: 30, Max: 1200}.Rail(5)
	assert.Equal(t, 30, v)
	assert.True(t, changed)
	v, changed = ParamInfo{Min: 30, Max: 1200}.Rail(300)
	assert.Equal(t, 300, v)
	assert.False(t, changed)
}

func TestAmpModelFacts(t *testing.T) {
	assert := assert.New(t)
	assert.True(VoxAC30.PresenceIsTone())
	assert.True(VoxAC30TB.PresenceIsTone())
	assert.False(Brit800.PresenceIsTone())

	for _, m := range []AmpModel{DeluxeClNormal, Tweed4x10Normal, Brit1959Normal, EruptIIICh2, BoutiqueMetal} {
		assert.False(m.HasBrightCap(), m.String())
	}
	assert.True(DeluxeClVibrato.HasBrightCap())
	assert.False(AmpModelCount.HasBrightCap())
	assert.Equal("AmpModel(20)", AmpModelCount.String())
}

func TestTypeParams(t *testing.T) {
	tests := []struct {
		name   string
		params []ParamInfo
		first  ParamInfo
		count  int
	}{
		{"comp", Comp.Params(), ParamInfo{"SENS", 0, 100, "%"}, 4},
		{"chorus", Chorus.Params(), ParamInfo{"SPEED", 100, 10000, "mHz"}, 6},
		{"fuzz", Fuzz.Params(), ParamInfo{"DRIVE", 0, 100, "%"}, 6},
		{"flanger", Flanger.Params(), ParamInfo{"SPEED", 100, 5000, "mHz"}, 6},
		{"phaser", OrgPhaser2.Params(), ParamInfo{"SPEED", 100, 10000, "mHz"}, 4},
		{"tremolo", Tremolo.Params(), ParamInfo{"SPEED", 1650, 10000, "mHz"}, 5},
		{"delay", AnalogDelay.Params(), ParamInfo{"TIME", 30, 1200, "ms"}, 6},
		{"reverb", Hall.Params(), ParamInfo{"MIX", 0, 100, "%"}, 5},
	}
	for _, tt := range tests {
		assert.Len(t, tt.params, tt.count, tt.name)
		assert.Equal(t, tt.first, tt.params[0], tt.name)
	}
	assert.Nil(t, Pedal1TypeCount.Params())
	assert.True(t, GoldDrive.IsOverdrive())
	assert.True(t, BritLead.IsDistortion())
	assert.True(t, TapeEcho.IsDelay())
}

func TestLookup(t *testing.T) {
	p := NewProgram()
	p.Pedal2.Type = TapeEcho

	info, ok := Lookup(&p, DomainPedal2, 0)
	assert.True(t, ok)
	assert.Equal(t, "TIME", info.Name)

	// Reinterpreted when the type changes.
	p.Pedal2.Type = BlkPhaser
	info, ok = Lookup(&p, DomainPedal2, 0)
	assert.True(t, ok)
	assert.Equal(t, 10000, info.Max)
	_, ok = Lookup(&p, DomainPedal2, 4)
	assert.False(t, ok)

	_, ok = Lookup(&p, DomainAmp, int(AmpClass))
	assert.True(t, ok)
	_, ok = Lookup(&p, DomainAmp, int(AmpParamCount))
	assert.False(t, ok)
	_, ok = Lookup(&p, DomainEffectStatus, int(SlotAmp))
	assert.False(t, ok)
	info, ok = Lookup(&p, DomainEffectModel, int(SlotAmp))
	assert.True(t, ok)
	assert.Equal(t, 19, info.Max)
	_, ok = Lookup(&p, DomainProgramName, 15)
	assert.True(t, ok)
	_, ok = Lookup(&p, Domain(0x20), 0)
	assert.False(t, ok)
}

func TestParseNames(t *testing.T) {
	m, ok := ParseAmpModel("BRIT_OR_MKII")
	assert.True(t, ok)
	assert.Equal(t, BritOrMkII, m)
	_, ok = ParseAmpModel("nope")
	assert.False(t, ok)

	mode, err := ParseMode("manual")
	assert.NoError(t, err)
	assert.Equal(t, ModeManual, mode)
	_, err = ParseMode("bank")
	assert.ErrorIs(t, err, ErrInvalidField)

	d, ok := ParseDomain("pedal1")
	assert.True(t, ok)
	assert.Equal(t, DomainPedal1, d)
}

func TestClamp(t *testing.T) {
	p := NewProgram()
	p.NoiseGate = 140
	p.Amp[AmpBiasShift] = 5
	p.Pedal2.Type = Tremolo
	p.Pedal2.Values[0] = 200
	p.Reverb.Values[2] = -3
	p.Pedal1.Values[5] = 300 // not named for COMP

	clamped := p.Clamp()
	assert.Len(t, clamped, 5)
	assert.Equal(t, 100, p.NoiseGate)
	assert.Equal(t, 2, p.Amp[AmpBiasShift])
	assert.Equal(t, 1650, p.Pedal2.Values[0])
	assert.Equal(t, 0, p.Reverb.Values[2])
	assert.Equal(t, 127, p.Pedal1.Values[5])
	assert.Empty(t, p.Clamp())
}
