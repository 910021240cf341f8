package engine

import (
	"strings"

	"github.com/Houston4444/OsciTronix/vox"
)

// applyParam rails value and stores it in the current program. It reports false when id
// names no parameter of domain d under the currently selected types.
func (e *Engine) applyParam(d vox.Domain, id int, value int) bool {
	info, ok := vox.Lookup(&e.current, d, id)
	if !ok {
		return false
	}
	if r, changed := info.Rail(value); changed {
		e.log.Warn("Value out of range", "domain", d, "param", info.Name, "from", value, "to", r)
		value = r
	}

	p := &e.current
	switch d {
	case vox.DomainProgramName:
		name := []byte(p.Name + strings.Repeat(" ", vox.NameLength))[:vox.NameLength]
		name[id] = byte(value)
		p.Name = strings.TrimRight(string(name), " ")
	case vox.DomainNoiseGate:
		p.NoiseGate = value
	case vox.DomainEffectStatus:
		p.Active[id] = value != 0
	case vox.DomainEffectModel:
		switch vox.Slot(id) {
		case vox.SlotAmp:
			p.AmpModel = vox.AmpModel(value)
		case vox.SlotPedal1:
			p.Pedal1.Type = vox.Pedal1Type(value)
		case vox.SlotPedal2:
			p.Pedal2.Type = vox.Pedal2Type(value)
		case vox.SlotReverb:
			p.Reverb.Type = vox.ReverbType(value)
		}
	case vox.DomainAmp:
		p.Amp[id] = value
	case vox.DomainPedal1:
		p.Pedal1.Values[id] = value
	case vox.DomainPedal2:
		p.Pedal2.Values[id] = value
	case vox.DomainReverb:
		p.Reverb.Values[id] = value
	}
	return true
}

// SetParamValue changes one parameter of the current program, sends it to the amplifier
// and emits ParamChanged. Out of range values are railed. Unknown parameters are ignored.
func (e *Engine) SetParamValue(d vox.Domain, id int, value int) {
	if !e.applyParam(d, id, value) {
		e.log.Warn("Unknown parameter, operation ignored", "domain", d, "id", id)
		return
	}
	e.send(vox.ParameterChangeMsg(d, id, e.paramValue(d, id)))
	e.emit(Event{Kind: ParamChanged, Domain: d, ID: id})
}

// paramValue reads back the stored value of a parameter applyParam accepted.
func (e *Engine) paramValue(d vox.Domain, id int) int {
	p := &e.current
	switch d {
	case vox.DomainProgramName:
		b := vox.NameBytes(p.Name)
		return int(b[id])
	case vox.DomainNoiseGate:
		return p.NoiseGate
	case vox.DomainEffectStatus:
		if p.Active[id] {
			return 1
		}
		return 0
	case vox.DomainEffectModel:
		return p.ModelTag(vox.Slot(id))
	case vox.DomainAmp:
		return p.Amp[id]
	case vox.DomainPedal1:
		return p.Pedal1.Values[id]
	case vox.DomainPedal2:
		return p.Pedal2.Values[id]
	case vox.DomainReverb:
		return p.Reverb.Values[id]
	}
	return 0
}

// SetProgramName renames the current program, one PARAMETER_CHANGE per character.
func (e *Engine) SetProgramName(name string) {
	name = vox.NormalizeName(name)
	for i, c := range vox.NameBytes(name) {
		e.send(vox.ParameterChangeMsg(vox.DomainProgramName, i, int(c)))
	}
	e.current.Name = name
	e.emit(Event{Kind: ProgramNameChanged, Name: name})
}

// SetMode switches the amplifier mode. For the user and preset modes the first stored
// program with the same amp model as the current one is selected, or the first slot.
func (e *Engine) SetMode(mode vox.Mode) {
	switch mode {
	case vox.ModeManual:
		e.send(vox.ModeChangeMsg(mode, 0))
		e.send(vox.CurrentProgramRequestMsg())
		e.mode = mode
		e.emit(Event{Kind: ModeChanged, Mode: mode, Index: e.index})
	case vox.ModePreset:
		e.selectSlot(mode, sameAmpModel(e.presets[:], e.current.AmpModel))
	case vox.ModeUser:
		e.selectSlot(mode, sameAmpModel(e.user[:], e.current.AmpModel))
	default:
		e.log.Warn("Unknown mode, operation ignored", "mode", mode)
	}
}

func sameAmpModel(programs []vox.Program, m vox.AmpModel) int {
	for i := range programs {
		if programs[i].AmpModel == m {
			return i
		}
	}
	return 0
}

// SetUserBankNum selects user bank n, railed to the valid banks.
func (e *Engine) SetUserBankNum(n int) {
	e.selectSlot(vox.ModeUser, vox.Rail(n, 0, vox.UserBankCount-1))
}

// SetPresetNum selects factory preset n, railed to the valid presets.
func (e *Engine) SetPresetNum(n int) {
	e.selectSlot(vox.ModePreset, vox.Rail(n, 0, vox.PresetCount-1))
}

func (e *Engine) selectSlot(mode vox.Mode, n int) {
	e.send(vox.ModeChangeMsg(mode, n))
	if mode == vox.ModeUser {
		e.current = e.user[n]
	} else {
		e.current = e.presets[n]
	}
	e.mode, e.index = mode, n
	e.emit(Event{Kind: CurrentChanged})
	e.emit(Event{Kind: ModeChanged, Mode: mode, Index: n})
}

func validSlot(n, count int) bool { return n >= 0 && n < count }

// UploadCurrentToUserProgram writes the current program into user bank n.
func (e *Engine) UploadCurrentToUserProgram(n int) {
	if !validSlot(n, vox.UserBankCount) {
		e.log.Error("Can not upload to user bank", "num", n)
		return
	}
	e.send(vox.ProgramDumpMsg(n, e.current))
	e.user[n] = e.current
}

// UploadCurrentToUserAmpFX writes the current program into AmpFX preset n.
func (e *Engine) UploadCurrentToUserAmpFX(n int) {
	if !validSlot(n, vox.AmpFXCount) {
		e.log.Error("Can not upload to AmpFX preset", "num", n)
		return
	}
	e.send(vox.AmpFXDumpMsg(n, e.current))
	e.ampFX[n] = e.current.AmpFX()
}

// LoadProgram makes p the current program of the amplifier without storing it.
func (e *Engine) LoadProgram(p vox.Program) {
	p = e.adopt(p, "loaded")
	e.send(vox.CurrentProgramDumpMsg(p))
	e.current = p
	e.emit(Event{Kind: CurrentChanged})
}

// LoadBank writes p into user bank n.
func (e *Engine) LoadBank(p vox.Program, n int) {
	if !validSlot(n, vox.UserBankCount) {
		e.log.Error("Can not load bank", "num", n)
		return
	}
	p = e.adopt(p, "bank")
	e.send(vox.ProgramDumpMsg(n, p))
	e.user[n] = p
}

// LoadAmpFX writes p into AmpFX preset n.
func (e *Engine) LoadAmpFX(p vox.Program, n int) {
	if !validSlot(n, vox.AmpFXCount) {
		e.log.Error("Can not load AmpFX preset", "num", n)
		return
	}
	p = e.adopt(p, "ampfx")
	e.send(vox.AmpFXDumpMsg(n, p))
	e.ampFX[n] = p.AmpFX()
}

// LoadFullAmp writes up to 8 user banks and 4 AmpFX presets, in order.
func (e *Engine) LoadFullAmp(banks, ampFXs []vox.Program) {
	for n, p := range banks {
		if n >= vox.UserBankCount {
			break
		}
		e.LoadBank(p, n)
	}
	for n, p := range ampFXs {
		if n >= vox.AmpFXCount {
			break
		}
		e.LoadAmpFX(p, n)
	}
}
