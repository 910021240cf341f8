package vox

// PayloadSize is the size of both program payload shapes, function code excluded.
const PayloadSize = 71

// Byte offsets inside a program payload.
const (
	offName        = 1
	offNoiseGate   = 19
	offStatus      = 20
	offAmpModel    = 21
	offPedal1Carry = 32
	offMidBoost    = 33
	offPedal1Type  = 36
	offPedal2Carry = 40
	offPedal1Tail  = 41
	offPedal2Type  = 45
	offPedal2Tail  = 49
	offReverbType  = 63
	offReverbVals  = 65
)

const (
	pedal1CarryBit = 0x10
	pedal2CarryBit = 0x20
)

// ampOffsets maps each AmpParam to its payload byte.
var ampOffsets = [AmpParamCount]int{
	AmpGain:      22,
	AmpTreble:    23,
	AmpMiddle:    25,
	AmpBass:      26,
	AmpVolume:    27,
	AmpTone:      28,
	AmpResonance: 29,
	AmpBrightCap: 30,
	AmpLowCut:    31,
	AmpMidBoost:  offMidBoost,
	AmpBiasShift: 34,
	AmpClass:     35,
}

// SplitWide splits a wide value the way program dumps carry it: a 7-bit low byte, a high
// byte counting multiples of 256, and a carry flag standing for the missing 128.
func SplitWide(v int) (low, high byte, carry bool) {
	r := v % 256
	return byte(r % 128), byte(v / 256), r > 127
}

func JoinWide(low, high byte, carry bool) int {
	v := int(low) + 256*int(high)
	if carry {
		v += 128
	}
	return v
}

// SplitParamValue splits a value the way PARAMETER_CHANGE frames carry it.
func SplitParamValue(v int) (low, high byte) {
	return byte(v % 128), byte(v / 128)
}

func JoinParamValue(low, high byte) int {
	return int(low) + 128*int(high)
}

func bytesOf(v int) byte { return byte(v) & 0x7F }

// EncodeProgram returns the full program payload for p.
func EncodeProgram(p Program) []byte {
	b := encodeCommon(p)
	encodeName(b[offName:offName+nameFieldSize], p.Name)
	for _, a := range ampFXOmitted {
		b[ampOffsets[a]] = bytesOf(p.Amp[a])
	}
	return b
}

// EncodeAmpFX returns the AmpFX preset payload for p. The name and the amp parameters
// an AmpFX preset does not carry are left at zero.
func EncodeAmpFX(p Program) []byte {
	return encodeCommon(p)
}

func encodeCommon(p Program) []byte {
	b := make([]byte, PayloadSize)
	b[offNoiseGate] = bytesOf(p.NoiseGate)
	b[offStatus] = p.StatusByte()
	b[offAmpModel] = byte(p.AmpModel)
	for a := AmpTone; a < AmpParamCount; a++ {
		b[ampOffsets[a]] = bytesOf(p.Amp[a])
	}

	low, high, carry := SplitWide(p.Pedal1.Values[0])
	if carry {
		b[offPedal1Carry] = pedal1CarryBit
	}
	b[offPedal1Type] = byte(p.Pedal1.Type)
	b[offPedal1Type+1] = low
	b[offPedal1Type+2] = high
	b[offPedal1Type+3] = bytesOf(p.Pedal1.Values[1])
	for i := 2; i < PedalValueCount; i++ {
		b[offPedal1Tail+i-2] = bytesOf(p.Pedal1.Values[i])
	}

	low, high, carry = SplitWide(p.Pedal2.Values[0])
	if carry {
		b[offPedal2Carry] = pedal2CarryBit
	}
	b[offPedal2Type] = byte(p.Pedal2.Type)
	b[offPedal2Type+1] = low
	b[offPedal2Type+2] = high
	for i := 1; i < PedalValueCount; i++ {
		b[offPedal2Tail+i-1] = bytesOf(p.Pedal2.Values[i])
	}

	b[offReverbType] = byte(p.Reverb.Type)
	for i, v := range p.Reverb.Values {
		b[offReverbVals+i] = bytesOf(v)
	}
	return b
}

// DecodeProgram parses a full program payload. Values are taken as they are; type tags
// outside the known sets are rejected.
func DecodeProgram(payload []byte) (Program, error) {
	p, err := decodeCommon(payload)
	if err != nil {
		return Program{}, err
	}
	p.Name = decodeName(payload[offName : offName+nameFieldSize])
	for _, a := range ampFXOmitted {
		p.Amp[a] = int(payload[ampOffsets[a]])
	}
	return p, nil
}

// DecodeAmpFX parses an AmpFX preset payload. The result has an empty name and the amp
// parameters the preset does not carry at zero.
func DecodeAmpFX(payload []byte) (Program, error) {
	return decodeCommon(payload)
}

func decodeCommon(b []byte) (Program, error) {
	if len(b) < PayloadSize {
		return Program{}, &FramingError{Reason: "program payload truncated", Want: PayloadSize, Got: len(b)}
	}
	p := NewProgram()
	p.NoiseGate = int(b[offNoiseGate])
	p.setStatus(b[offStatus])

	if m := AmpModel(b[offAmpModel]); m.Valid() {
		p.AmpModel = m
	} else {
		return Program{}, &FieldError{Field: "amp_model", Value: int(m)}
	}
	for a := AmpTone; a < AmpParamCount; a++ {
		p.Amp[a] = int(b[ampOffsets[a]])
	}

	if t := Pedal1Type(b[offPedal1Type]); t.Valid() {
		p.Pedal1.Type = t
	} else {
		return Program{}, &FieldError{Field: "pedal1_type", Value: int(t)}
	}
	p.Pedal1.Values[0] = JoinWide(b[offPedal1Type+1], b[offPedal1Type+2], b[offPedal1Carry]&pedal1CarryBit != 0)
	p.Pedal1.Values[1] = int(b[offPedal1Type+3])
	for i := 2; i < PedalValueCount; i++ {
		p.Pedal1.Values[i] = int(b[offPedal1Tail+i-2])
	}

	if t := Pedal2Type(b[offPedal2Type]); t.Valid() {
		p.Pedal2.Type = t
	} else {
		return Program{}, &FieldError{Field: "pedal2_type", Value: int(t)}
	}
	p.Pedal2.Values[0] = JoinWide(b[offPedal2Type+1], b[offPedal2Type+2], b[offPedal2Carry]&pedal2CarryBit != 0)
	for i := 1; i < PedalValueCount; i++ {
		p.Pedal2.Values[i] = int(b[offPedal2Tail+i-1])
	}

	if t := ReverbType(b[offReverbType]); t.Valid() {
		p.Reverb.Type = t
	} else {
		return Program{}, &FieldError{Field: "reverb_type", Value: int(t)}
	}
	for i := range p.Reverb.Values {
		p.Reverb.Values[i] = int(b[offReverbVals+i])
	}
	return p, nil
}

// AmpFX returns the part of p that an AmpFX preset stores.
func (p Program) AmpFX() Program {
	p.Name = ""
	for _, a := range ampFXOmitted {
		p.Amp[a] = 0
	}
	return p
}
