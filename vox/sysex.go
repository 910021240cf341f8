package vox

import (
	"bytes"
	"fmt"
)

const (
	SysExStart = 0xF0
	SysExEnd   = 0xF7
)

// Header is the fixed prefix of every frame: Korg id, channel, device family.
var Header = []byte{SysExStart, 0x42, 0x30, 0x00, 0x01, 0x34}

// FunctionCode is the byte following Header.
type FunctionCode uint8

const (
	CurrentProgramDataDumpRequest FunctionCode = 0x10
	ProgramWriteRequest           FunctionCode = 0x11
	ModeRequest                   FunctionCode = 0x12
	ProgramDataDumpRequest        FunctionCode = 0x1C
	CustomAmpFXDataDumpRequest    FunctionCode = 0x31
	WriteCompleted                FunctionCode = 0x21
	WriteError                    FunctionCode = 0x22
	DataLoadCompleted             FunctionCode = 0x23
	DataLoadError                 FunctionCode = 0x24
	DataFormatError               FunctionCode = 0x26
	CurrentProgramDataDump        FunctionCode = 0x40
	ParameterChange               FunctionCode = 0x41
	ModeData                      FunctionCode = 0x42
	ProgramDataDump               FunctionCode = 0x4C
	ModeChange                    FunctionCode = 0x4E
	CustomAmpFXDataDump           FunctionCode = 0x65
)

var functionCodeNames = map[FunctionCode]string{
	CurrentProgramDataDumpRequest: "CURRENT_PROGRAM_DATA_DUMP_REQUEST",
	ProgramWriteRequest:           "PROGRAM_WRITE_REQUEST",
	ModeRequest:                   "MODE_REQUEST",
	ProgramDataDumpRequest:        "PROGRAM_DATA_DUMP_REQUEST",
	CustomAmpFXDataDumpRequest:    "CUSTOM_AMPFX_DATA_DUMP_REQUEST",
	WriteCompleted:                "WRITE_COMPLETED",
	WriteError:                    "WRITE_ERROR",
	DataLoadCompleted:             "DATA_LOAD_COMPLETED",
	DataLoadError:                 "DATA_LOAD_ERROR",
	DataFormatError:               "DATA_FORMAT_ERROR",
	CurrentProgramDataDump:        "CURRENT_PROGRAM_DATA_DUMP",
	ParameterChange:               "PARAMETER_CHANGE",
	ModeData:                      "MODE_DATA",
	ProgramDataDump:               "PROGRAM_DATA_DUMP",
	ModeChange:                    "MODE_CHANGE",
	CustomAmpFXDataDump:           "CUSTOM_AMPFX_DATA_DUMP",
}

func (f FunctionCode) Known() bool {
	_, ok := functionCodeNames[f]
	return ok
}

func (f FunctionCode) String() string {
	if n, ok := functionCodeNames[f]; ok {
		return n
	}
	return fmt.Sprintf("FunctionCode(%#02x)", uint8(f))
}

// minPayload is the shortest payload accepted for inbound function codes with a fixed shape.
var minPayload = map[FunctionCode]int{
	CurrentProgramDataDump: PayloadSize,
	ProgramDataDump:        2 + PayloadSize,
	CustomAmpFXDataDump:    2 + PayloadSize,
	ParameterChange:        4,
	ModeData:               2,
	ModeChange:             2,
	WriteCompleted:         2,
}

// Frame is a parsed sysex message.
type Frame struct {
	Code    FunctionCode
	Payload []byte
}

// BuildFrame returns a complete sysex message ending with SysExEnd.
func BuildFrame(code FunctionCode, payload ...byte) []byte {
	out := make([]byte, 0, len(Header)+len(payload)+2)
	out = append(out, Header...)
	out = append(out, byte(code))
	out = append(out, payload...)
	return append(out, SysExEnd)
}

// ParseFrame validates the header and the payload length of an inbound message. The
// trailing SysExEnd is optional. The returned payload aliases msg.
func ParseFrame(msg []byte) (Frame, error) {
	if len(msg) < len(Header)+1 {
		return Frame{}, &FramingError{Reason: "frame shorter than header", Want: len(Header) + 1, Got: len(msg)}
	}
	if !bytes.Equal(msg[:len(Header)], Header) {
		return Frame{}, &FramingError{Reason: fmt.Sprintf("header mismatch % X", msg[:len(Header)])}
	}
	code := FunctionCode(msg[len(Header)])
	payload := msg[len(Header)+1:]
	if n := len(payload); n > 0 && payload[n-1] == SysExEnd {
		payload = payload[:n-1]
	}
	if !code.Known() {
		return Frame{Code: code, Payload: payload}, &UnknownFunctionCodeError{Code: code}
	}
	if want, ok := minPayload[code]; ok && len(payload) < want {
		return Frame{}, &FramingError{Reason: code.String() + " payload truncated", Want: want, Got: len(payload)}
	}
	return Frame{Code: code, Payload: payload}, nil
}
