package engine

import (
	"testing"

	"github.com/Houston4444/OsciTronix/vox"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetParamValue(t *testing.T) {
	f := newFixture(t)

	f.e.SetParamValue(vox.DomainAmp, int(vox.AmpTreble), 64)
	assert.Equal(t, 64, f.e.Current().Amp[vox.AmpTreble])
	require.Len(t, f.sent(), 1)
	assert.Equal(t, frame(vox.ParameterChange, byte(vox.DomainAmp), byte(vox.AmpTreble), 64, 0), f.sent()[0])

	ev := f.events[len(f.events)-1]
	assert.Equal(t, ParamChanged, ev.Kind)
	assert.Equal(t, vox.DomainAmp, ev.Domain)
	assert.Equal(t, int(vox.AmpTreble), ev.ID)
	assert.Equal(t, 64, ev.Current.Amp[vox.AmpTreble])
}

func TestSetParamValueRails(t *testing.T) {
	f := newFixture(t)

	f.e.SetParamValue(vox.DomainAmp, int(vox.AmpGain), 150)
	assert.Equal(t, 100, f.e.Current().Amp[vox.AmpGain])
	assert.Contains(t, f.logs.String(), "Value out of range")
	assert.Contains(t, f.logs.String(), "param=GAIN")

	f.e.SetParamValue(vox.DomainEffectModel, int(vox.SlotPedal2), int(vox.Tremolo))
	f.logs.Reset()
	f.e.SetParamValue(vox.DomainPedal2, 0, 10)
	assert.Equal(t, 1650, f.e.Current().Pedal2.Values[0])
	assert.Contains(t, f.logs.String(), "from=10 to=1650")

	// The railed value is what goes out: 1650 = 12*128 + 114.
	sent := f.sent()
	assert.Equal(t, frame(vox.ParameterChange, byte(vox.DomainPedal2), 0, 114, 12), sent[len(sent)-1])
}

func TestSetParamValueWide(t *testing.T) {
	f := newFixture(t)
	f.e.SetParamValue(vox.DomainEffectModel, int(vox.SlotPedal1), int(vox.Chorus))
	f.e.SetParamValue(vox.DomainPedal1, 0, 200)

	sent := f.sent()
	assert.Equal(t, frame(vox.ParameterChange, byte(vox.DomainPedal1), 0, 72, 1), sent[len(sent)-1])
	assert.Equal(t, 200, f.e.Current().Pedal1.Values[0])

	// Changing type keeps the stored values.
	f.e.SetParamValue(vox.DomainEffectModel, int(vox.SlotPedal1), int(vox.Comp))
	assert.Equal(t, 200, f.e.Current().Pedal1.Values[0])
}

func TestSetParamValueUnknown(t *testing.T) {
	f := newFixture(t)
	f.e.SetParamValue(vox.DomainAmp, 40, 1)
	f.e.SetParamValue(vox.DomainEffectStatus, int(vox.SlotAmp), 0)
	f.e.SetParamValue(vox.Domain(0x33), 0, 0)
	assert.Empty(t, f.sent())
	assert.Empty(t, f.events)
	assert.Equal(t, 0, f.e.Outstanding())
}

func TestSetProgramName(t *testing.T) {
	f := newFixture(t)
	f.e.SetProgramName("Crème Brûlée Deluxe")

	assert.Equal(t, "Creme Brulee Del", f.e.Current().Name)
	sent := f.sent()
	require.Len(t, sent, vox.NameLength)
	assert.Equal(t, frame(vox.ParameterChange, byte(vox.DomainProgramName), 0, 'C', 0), sent[0])
	assert.Equal(t, frame(vox.ParameterChange, byte(vox.DomainProgramName), 15, 'l', 0), sent[15])
	assert.Equal(t, 16, f.e.Outstanding())

	ev := f.events[len(f.events)-1]
	assert.Equal(t, ProgramNameChanged, ev.Kind)
	assert.Equal(t, "Creme Brulee Del", ev.Name)

	f.e.SetProgramName("Hi")
	sent = f.sent()
	assert.Equal(t, frame(vox.ParameterChange, byte(vox.DomainProgramName), 15, ' ', 0), sent[len(sent)-1])
	assert.Equal(t, "Hi", f.e.Current().Name)
}

func TestSetModeSearchesAmpModel(t *testing.T) {
	f := newFixture(t)
	want := sampleProgram()
	f.e.user[5] = want
	f.e.current.AmpModel = want.AmpModel

	f.e.SetMode(vox.ModeUser)
	assert.Equal(t, want, f.e.Current())
	assert.Equal(t, vox.ModeUser, f.e.Mode())
	assert.Equal(t, 5, f.e.Index())
	assert.Equal(t, vox.ModeChangeMsg(vox.ModeUser, 5).Frame(), f.sent()[0])
	assert.Equal(t, []EventKind{CurrentChanged, ModeChanged}, f.kinds())

	// No preset with that model: first preset.
	f.reset()
	f.e.SetMode(vox.ModePreset)
	assert.Equal(t, 0, f.e.Index())
	assert.Equal(t, vox.ModeChangeMsg(vox.ModePreset, 0).Frame(), f.sent()[1])
}

func TestSetModeManual(t *testing.T) {
	f := newFixture(t)
	f.e.SetMode(vox.ModeManual)
	assert.Equal(t, [][]byte{
		vox.ModeChangeMsg(vox.ModeManual, 0).Frame(),
		vox.CurrentProgramRequestMsg().Frame(),
	}, f.sent())
	assert.Equal(t, vox.ModeManual, f.e.Mode())
	assert.Equal(t, []EventKind{ModeChanged}, f.kinds())

	f.reset()
	f.e.SetMode(vox.Mode(9))
	assert.Empty(t, f.events)
	assert.Len(t, f.sent(), 2)
}

func TestSelectSlotsAreCopies(t *testing.T) {
	f := newFixture(t)
	f.e.user[7] = sampleProgram()

	f.e.SetUserBankNum(12)
	assert.Equal(t, 7, f.e.Index())
	assert.Equal(t, vox.ModeChangeMsg(vox.ModeUser, 7).Frame(), f.sent()[0])

	f.e.SetParamValue(vox.DomainNoiseGate, 0, 3)
	stored, _ := f.e.UserProgram(7)
	assert.Equal(t, 41, stored.NoiseGate)
	assert.Equal(t, 3, f.e.Current().NoiseGate)

	f.e.SetPresetNum(-4)
	assert.Equal(t, vox.ModePreset, f.e.Mode())
	assert.Equal(t, 0, f.e.Index())
}

func TestUploads(t *testing.T) {
	f := newFixture(t)
	p := sampleProgram()
	f.e.LoadProgram(p)
	f.reset()

	f.e.UploadCurrentToUserProgram(6)
	got, _ := f.e.UserProgram(6)
	assert.Equal(t, p, got)
	sent := f.sent()
	assert.Equal(t, vox.ProgramDumpMsg(6, p).Frame(), sent[len(sent)-1])

	f.e.UploadCurrentToUserAmpFX(1)
	got, _ = f.e.AmpFX(1)
	assert.Equal(t, p.AmpFX(), got)
	sent = f.sent()
	assert.Equal(t, vox.AmpFXDumpMsg(1, p).Frame(), sent[len(sent)-1])

	n := len(f.sent())
	f.e.UploadCurrentToUserProgram(8)
	f.e.UploadCurrentToUserAmpFX(-1)
	assert.Len(t, f.sent(), n)
}

func TestLoads(t *testing.T) {
	f := newFixture(t)
	p := sampleProgram()

	f.e.LoadProgram(p)
	assert.Equal(t, p, f.e.Current())
	assert.Equal(t, vox.CurrentProgramDumpMsg(p).Frame(), f.sent()[0])
	assert.Contains(t, f.kinds(), CurrentChanged)

	f.e.LoadBank(p, 3)
	got, _ := f.e.UserProgram(3)
	assert.Equal(t, p, got)

	f.e.LoadAmpFX(p, 3)
	got, _ = f.e.AmpFX(3)
	assert.Equal(t, p.AmpFX(), got)

	n := len(f.sent())
	f.e.LoadBank(p, 8)
	f.e.LoadAmpFX(p, 4)
	assert.Len(t, f.sent(), n)
}

func TestLoadRailsProgram(t *testing.T) {
	f := newFixture(t)
	p := sampleProgram()
	p.Amp[vox.AmpVolume] = 400

	f.e.LoadProgram(p)
	assert.Equal(t, 100, f.e.Current().Amp[vox.AmpVolume])
	assert.Contains(t, f.logs.String(), "Value out of range")
}

func TestLoadFullAmp(t *testing.T) {
	f := newFixture(t)
	banks := make([]vox.Program, 10)
	for i := range banks {
		banks[i] = sampleProgram()
		banks[i].NoiseGate = i
	}
	fx := []vox.Program{sampleProgram(), sampleProgram()}

	f.e.LoadFullAmp(banks, fx)
	assert.Len(t, f.sent(), vox.UserBankCount+2)
	for i := 0; i < vox.UserBankCount; i++ {
		got, _ := f.e.UserProgram(i)
		assert.Equal(t, i, got.NoiseGate)
	}
	got, _ := f.e.AmpFX(1)
	assert.Equal(t, fx[1].AmpFX(), got)
	got, _ = f.e.AmpFX(2)
	assert.Equal(t, vox.NewProgram(), got)
}
