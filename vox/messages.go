package vox

// Message is an outbound request before framing. Args is everything after the function
// code. The engine keeps the last one it sent to attribute device-reported errors.
type Message struct {
	Code FunctionCode
	Args []byte
}

func (m Message) Frame() []byte { return BuildFrame(m.Code, m.Args...) }

func ModeRequestMsg() Message { return Message{Code: ModeRequest} }

func CurrentProgramRequestMsg() Message { return Message{Code: CurrentProgramDataDumpRequest} }

func ProgramRequestMsg(mode Mode, n int) Message {
	return Message{Code: ProgramDataDumpRequest, Args: []byte{byte(mode), byte(n)}}
}

func AmpFXRequestMsg(n int) Message {
	return Message{Code: CustomAmpFXDataDumpRequest, Args: []byte{0, byte(n)}}
}

func ModeChangeMsg(mode Mode, n int) Message {
	return Message{Code: ModeChange, Args: []byte{byte(mode), byte(n)}}
}

// ParameterChangeMsg carries value as a 7-bit low byte and a high byte of 128 multiples.
func ParameterChangeMsg(d Domain, id int, value int) Message {
	low, high := SplitParamValue(value)
	return Message{Code: ParameterChange, Args: []byte{byte(d), byte(id), low, high}}
}

// CurrentProgramDumpMsg replaces the amplifier's current program without storing it.
func CurrentProgramDumpMsg(p Program) Message {
	return Message{Code: CurrentProgramDataDump, Args: EncodeProgram(p)}
}

// ProgramDumpMsg writes p into user bank n.
func ProgramDumpMsg(n int, p Program) Message {
	return Message{Code: ProgramDataDump, Args: append([]byte{byte(ModeUser), byte(n)}, EncodeProgram(p)...)}
}

func AmpFXDumpMsg(n int, p Program) Message {
	return Message{Code: CustomAmpFXDataDump, Args: append([]byte{0, byte(n)}, EncodeAmpFX(p)...)}
}

// StartupRequests lists the requests sent to mirror the whole amplifier: the mode, every
// user bank, every factory preset, the current program and every AmpFX preset.
func StartupRequests() []Message {
	out := make([]Message, 0, 2+UserBankCount+PresetCount+AmpFXCount)
	out = append(out, ModeRequestMsg())
	for n := 0; n < UserBankCount; n++ {
		out = append(out, ProgramRequestMsg(ModeUser, n))
	}
	for n := 0; n < PresetCount; n++ {
		out = append(out, ProgramRequestMsg(ModePreset, n))
	}
	out = append(out, CurrentProgramRequestMsg())
	for n := 0; n < AmpFXCount; n++ {
		out = append(out, AmpFXRequestMsg(n))
	}
	return out
}
