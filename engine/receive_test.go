package engine

import (
	"testing"

	"github.com/Houston4444/OsciTronix/vox"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleProgram() vox.Program {
	p := vox.NewProgram()
	p.Name = "Chilliboumad"
	p.NoiseGate = 41
	p.Active[vox.SlotReverb] = true
	p.AmpModel = vox.VoxAC30TB
	p.Amp = [vox.AmpParamCount]int{72, 61, 51, 50, 70, 39, 58, 1, 0, 0, 0, 0}
	p.Pedal1.Type = vox.RCTurbo
	p.Pedal1.Values = [vox.PedalValueCount]int{50, 100, 64, 50, 50, 50}
	p.Pedal2.Type = vox.Tremolo
	p.Pedal2.Values = [vox.PedalValueCount]int{5200, 41, 13, 26, 50, 0}
	p.Reverb.Type = vox.Plate
	p.Reverb.Values = [vox.ReverbValueCount]int{21, 32, 0, 0, 0}
	return p
}

func TestReceiveCurrentProgram(t *testing.T) {
	f := newFixture(t)
	p := sampleProgram()

	f.e.Receive(vox.CurrentProgramDumpMsg(p).Frame())
	assert.Equal(t, p, f.e.Current())
	assert.Equal(t, []EventKind{CommunicationStateChanged, CurrentChanged}, f.kinds())
	assert.Equal(t, p, f.events[1].Current)
}

func TestReceiveRailsDecodedValues(t *testing.T) {
	f := newFixture(t)
	payload := vox.EncodeProgram(sampleProgram())
	payload[19] = 120 // noise gate above 100

	f.e.Receive(frame(vox.CurrentProgramDataDump, payload...))
	assert.Equal(t, 100, f.e.Current().NoiseGate)
	assert.Contains(t, f.logs.String(), "Value out of range")
}

func TestReceiveUndecodableProgram(t *testing.T) {
	f := newFixture(t)
	payload := vox.EncodeProgram(sampleProgram())
	payload[21] = 90 // no such amp model

	f.e.Receive(frame(vox.CurrentProgramDataDump, payload...))
	assert.Equal(t, vox.NewProgram(), f.e.Current())
	// The frame still proves the amplifier is listening.
	assert.Equal(t, Ok, f.e.CommunicationState())
	assert.Equal(t, []EventKind{CommunicationStateChanged}, f.kinds())
}

func TestReceiveBanks(t *testing.T) {
	f := newFixture(t)
	p := sampleProgram()

	dump := func(mode vox.Mode, n int) []byte {
		return frame(vox.ProgramDataDump, append([]byte{byte(mode), byte(n)}, vox.EncodeProgram(p)...)...)
	}

	f.e.Receive(dump(vox.ModeUser, 3))
	got, ok := f.e.UserProgram(3)
	require.True(t, ok)
	assert.Equal(t, p, got)
	assert.NotContains(t, f.kinds(), UserBanksRead)

	f.e.Receive(dump(vox.ModeUser, 7))
	assert.Contains(t, f.kinds(), UserBanksRead)

	f.e.Receive(dump(vox.ModePreset, 59))
	assert.Contains(t, f.kinds(), FactoryBanksRead)
	got, _ = f.e.Preset(59)
	assert.Equal(t, p, got)

	f.reset()
	f.e.Receive(dump(vox.ModeUser, 8))
	f.e.Receive(dump(vox.ModeManual, 0))
	assert.Empty(t, f.events)
	assert.Contains(t, f.logs.String(), "unknown slot")
}

func TestReceiveAmpFX(t *testing.T) {
	f := newFixture(t)
	p := sampleProgram()

	f.e.Receive(vox.AmpFXDumpMsg(2, p).Frame())
	got, ok := f.e.AmpFX(2)
	require.True(t, ok)
	assert.Equal(t, p.AmpFX(), got)

	f.e.Receive(vox.AmpFXDumpMsg(4, p).Frame())
	assert.Contains(t, f.logs.String(), "wrong number")
}

func TestReceiveParameterChange(t *testing.T) {
	f := newFixture(t)

	// 200 does not fit in 7 bits: it arrives as low 72, high 1.
	f.e.Receive(frame(vox.ParameterChange, byte(vox.DomainPedal2), 0, 72, 1))
	assert.Equal(t, 200, f.e.Current().Pedal2.Values[0])
	last := f.events[len(f.events)-1]
	assert.Equal(t, ParamChanged, last.Kind)
	assert.Equal(t, vox.DomainPedal2, last.Domain)
	assert.Equal(t, 0, last.ID)
	assert.Equal(t, 200, last.Current.Pedal2.Values[0])

	f.e.Receive(frame(vox.ParameterChange, byte(vox.DomainEffectModel), byte(vox.SlotReverb), byte(vox.Hall), 0))
	assert.Equal(t, vox.Hall, f.e.Current().Reverb.Type)

	f.e.Receive(frame(vox.ParameterChange, byte(vox.DomainEffectStatus), byte(vox.SlotPedal1), 1, 0))
	assert.True(t, f.e.Current().Active[vox.SlotPedal1])

	f.e.Receive(frame(vox.ParameterChange, byte(vox.DomainProgramName), 2, 'X', 0))
	assert.Equal(t, "  X", f.e.Current().Name)

	f.reset()
	f.e.Receive(frame(vox.ParameterChange, 0x09, 0, 1, 0))
	f.e.Receive(frame(vox.ParameterChange, byte(vox.DomainReverb), 5, 1, 0))
	assert.Empty(t, f.events)
}

func TestReceiveModeData(t *testing.T) {
	f := newFixture(t)
	f.e.Receive(frame(vox.ModeData, byte(vox.ModeUser), 4))
	assert.Equal(t, vox.ModeUser, f.e.Mode())
	assert.Equal(t, 4, f.e.Index())
	last := f.events[len(f.events)-1]
	assert.Equal(t, ModeChanged, last.Kind)
	assert.Equal(t, 4, last.Index)

	f.reset()
	f.e.Receive(frame(vox.ModeData, 7, 0))
	assert.Empty(t, f.events)
	assert.Equal(t, vox.ModeUser, f.e.Mode())
}

func TestReceiveModeChangeEcho(t *testing.T) {
	f := newFixture(t)
	p := sampleProgram()
	f.e.presets[12] = p

	f.e.Receive(frame(vox.ModeChange, byte(vox.ModePreset), 12))
	assert.Equal(t, p, f.e.Current())
	assert.Equal(t, vox.ModePreset, f.e.Mode())
	assert.Equal(t, 12, f.e.Index())
	assert.Equal(t, []EventKind{CommunicationStateChanged, CurrentChanged, ModeChanged}, f.kinds())

	// Manual asks for the current program again.
	f.reset()
	f.e.Receive(frame(vox.ModeChange, byte(vox.ModeManual), 0))
	assert.Equal(t, vox.CurrentProgramRequestMsg().Frame(), f.sent()[0])
	assert.Equal(t, vox.ModeManual, f.e.Mode())

	f.reset()
	f.e.Receive(frame(vox.ModeChange, byte(vox.ModeUser), 9))
	assert.Equal(t, vox.ModeManual, f.e.Mode())
	assert.Empty(t, f.events)
}

func TestReceiveWriteCompleted(t *testing.T) {
	f := newFixture(t)
	p := sampleProgram()
	f.e.Receive(vox.CurrentProgramDumpMsg(p).Frame())

	f.e.Receive(frame(vox.WriteCompleted, 0, 5))
	got, _ := f.e.UserProgram(5)
	assert.Equal(t, p, got)

	// Stored copies are independent of the current program.
	f.e.SetParamValue(vox.DomainAmp, int(vox.AmpGain), 3)
	got, _ = f.e.UserProgram(5)
	assert.Equal(t, 72, got.Amp[vox.AmpGain])
}

func TestDeviceReportedError(t *testing.T) {
	f := newFixture(t)
	f.e.SetUserBankNum(2)
	f.reset()

	f.e.Receive(frame(vox.DataLoadError))
	require.NotEmpty(t, f.events)
	ev := f.events[0]
	assert.Equal(t, DataError, ev.Kind)
	assert.Equal(t, vox.DataLoadError, ev.Code)
	assert.Equal(t, vox.ModeChange, ev.LastSent)
	assert.Equal(t, Ok, f.e.CommunicationState())
	assert.Contains(t, f.logs.String(), "Error received from device")

	f.reset()
	f.e.Receive(frame(vox.DataFormatError))
	assert.Equal(t, DataError, f.events[0].Kind)
	assert.Equal(t, vox.DataFormatError, f.events[0].Code)
}
