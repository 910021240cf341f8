package engine

import (
	"errors"
	"fmt"

	"github.com/Houston4444/OsciTronix/vox"
)

// Receive handles one complete inbound sysex frame.
func (e *Engine) Receive(msg []byte) {
	f, err := vox.ParseFrame(msg)
	if err != nil {
		var fe *vox.FramingError
		switch {
		case errors.As(err, &fe) && fe.IsShort():
			e.log.Warn("Dropping truncated sysex", "err", err)
		case errors.As(err, &fe):
			e.log.Info("Dropping sysex not coming from the amplifier", "err", err)
		default:
			e.log.Error("Dropping sysex", "err", err)
		}
		return
	}
	e.log.Debug("Message received from device", "code", f.Code)

	if f.Code == vox.DataLoadError || f.Code == vox.DataFormatError {
		e.log.Warn("Error received from device", "code", f.Code, "last_sent", e.lastSent.Code)
		e.emit(Event{Kind: DataError, Code: f.Code, LastSent: e.lastSent.Code})
	}

	e.frameArrived()

	switch f.Code {
	case vox.CurrentProgramDataDump:
		e.receiveCurrent(f.Payload)
	case vox.ProgramDataDump:
		e.receiveProgram(f.Payload)
	case vox.CustomAmpFXDataDump:
		e.receiveAmpFX(f.Payload)
	case vox.ParameterChange:
		e.receiveParam(f.Payload)
	case vox.ModeData:
		e.receiveModeData(f.Payload)
	case vox.ModeChange:
		e.receiveModeChange(f.Payload)
	case vox.WriteCompleted:
		e.receiveWriteCompleted(f.Payload)
	}
}

func (e *Engine) receiveCurrent(payload []byte) {
	p, err := vox.DecodeProgram(payload)
	if err != nil {
		e.log.Error("Failed to read current program", "err", err)
		return
	}
	e.current = e.adopt(p, "current")
	e.emit(Event{Kind: CurrentChanged})
}

func (e *Engine) receiveProgram(payload []byte) {
	mode, n := vox.Mode(payload[0]), int(payload[1])
	p, err := vox.DecodeProgram(payload[2:])
	if err != nil {
		e.log.Error("Failed to read incoming program", "mode", mode, "num", n, "err", err)
		return
	}
	switch {
	case mode == vox.ModeUser && n < vox.UserBankCount:
		e.user[n] = e.adopt(p, fmt.Sprintf("user %d", n))
		if n == vox.UserBankCount-1 {
			e.emit(Event{Kind: UserBanksRead})
		}
	case mode == vox.ModePreset && n < vox.PresetCount:
		e.presets[n] = e.adopt(p, fmt.Sprintf("preset %d", n))
		if n == vox.PresetCount-1 {
			e.emit(Event{Kind: FactoryBanksRead})
		}
	default:
		e.log.Error("Received program dump for an unknown slot", "mode", mode, "num", n)
	}
}

func (e *Engine) receiveAmpFX(payload []byte) {
	n := int(payload[1])
	if n >= vox.AmpFXCount {
		e.log.Error("Received AmpFX dump with wrong number", "num", n)
		return
	}
	p, err := vox.DecodeAmpFX(payload[2:])
	if err != nil {
		e.log.Error("Failed to read incoming AmpFX preset", "num", n, "err", err)
		return
	}
	e.ampFX[n] = e.adopt(p, fmt.Sprintf("ampfx %d", n))
}

func (e *Engine) receiveParam(payload []byte) {
	d, id := vox.Domain(payload[0]), int(payload[1])
	value := vox.JoinParamValue(payload[2], payload[3])
	if !e.applyParam(d, id, value) {
		e.log.Error("Received parameter change for an unknown parameter", "domain", d, "id", id)
		return
	}
	e.emit(Event{Kind: ParamChanged, Domain: d, ID: id})
}

func (e *Engine) receiveModeData(payload []byte) {
	mode, n := vox.Mode(payload[0]), int(payload[1])
	if !mode.Valid() {
		e.log.Error("Received mode data with unknown mode", "mode", mode)
		return
	}
	e.mode, e.index = mode, n
	e.emit(Event{Kind: ModeChanged, Mode: mode, Index: n})
}

// receiveModeChange handles the echo of a mode change, made on the amplifier or by us.
// Adopting the stored program again is harmless after a speculative switch.
func (e *Engine) receiveModeChange(payload []byte) {
	mode, n := vox.Mode(payload[0]), int(payload[1])
	switch mode {
	case vox.ModeUser:
		if n >= vox.UserBankCount {
			e.log.Error("Received mode change with wrong bank", "num", n)
			return
		}
		e.current = e.user[n]
		e.index = n
		e.emit(Event{Kind: CurrentChanged})
	case vox.ModePreset:
		if n >= vox.PresetCount {
			e.log.Error("Received mode change with wrong preset", "num", n)
			return
		}
		e.current = e.presets[n]
		e.index = n
		e.emit(Event{Kind: CurrentChanged})
	case vox.ModeManual:
		e.send(vox.CurrentProgramRequestMsg())
	default:
		e.log.Error("Received mode change with unknown mode", "mode", mode)
		return
	}
	e.mode = mode
	e.emit(Event{Kind: ModeChanged, Mode: mode, Index: e.index})
}

func (e *Engine) receiveWriteCompleted(payload []byte) {
	n := int(payload[1])
	if n >= vox.UserBankCount {
		e.log.Error("Received write completed with wrong bank", "num", n)
		return
	}
	e.user[n] = e.current
}
