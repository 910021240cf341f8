package vox

import "fmt"

// Counts of stored programs on the amplifier.
const (
	UserBankCount  = 8
	PresetCount    = 60
	AmpFXCount     = 4
	NameLength     = 16
	MaxProgramByte = 127
)

type Pedal1Slot struct {
	Type   Pedal1Type
	Values [PedalValueCount]int
}

type Pedal2Slot struct {
	Type   Pedal2Type
	Values [PedalValueCount]int
}

type ReverbSlot struct {
	Type   ReverbType
	Values [ReverbValueCount]int
}

// Program is the complete state of one amplifier patch. It only holds values and arrays,
// so assignment is a deep copy and two Programs can be compared with ==.
type Program struct {
	Name      string
	NoiseGate int
	// Active is indexed by Slot. The amp slot is always active.
	Active   [SlotCount]bool
	AmpModel AmpModel
	Amp      [AmpParamCount]int
	Pedal1   Pedal1Slot
	Pedal2   Pedal2Slot
	Reverb   ReverbSlot
}

// NewProgram returns the program the amplifier state is initialised with before the
// first dump arrives.
func NewProgram() Program {
	var p Program
	p.Active[SlotAmp] = true
	p.AmpModel = DeluxeClVibrato
	p.Pedal1.Type = Comp
	p.Pedal2.Type = Flanger
	p.Reverb.Type = Room
	return p
}

// rawInfo covers slot positions the active type does not name. They only need to fit
// a data byte.
var rawInfo = ParamInfo{Name: "RAW", Min: 0, Max: MaxProgramByte}

// Clamped records one value changed by Program.Clamp.
type Clamped struct {
	Field string
	From  int
	To    int
}

func (c Clamped) String() string {
	return fmt.Sprintf("%s: %d railed to %d", c.Field, c.From, c.To)
}

// Clamp rails every value of p into its declared range and returns what it changed.
// Positions not named by the active effect type only need to fit a data byte.
func (p *Program) Clamp() []Clamped {
	var out []Clamped
	rail := func(field string, v *int, info ParamInfo) {
		if r, changed := info.Rail(*v); changed {
			out = append(out, Clamped{Field: field, From: *v, To: r})
			*v = r
		}
	}
	railTag := func(field string, v *int, count int) {
		rail(field, v, ParamInfo{Name: field, Min: 0, Max: count - 1})
	}
	railSlot := func(slot string, values []int, params []ParamInfo) {
		for i := range values {
			info := rawInfo
			if i < len(params) {
				info = params[i]
			}
			rail(fmt.Sprintf("%s/%d:%s", slot, i, info.Name), &values[i], info)
		}
	}

	if name := NormalizeName(p.Name); name != p.Name {
		p.Name = name
	}
	rail("nr_sens", &p.NoiseGate, noiseGateInfo)
	p.Active[SlotAmp] = true

	tag := int(p.AmpModel)
	railTag("amp_model", &tag, int(AmpModelCount))
	p.AmpModel = AmpModel(tag)
	for i := range p.Amp {
		rail("amp/"+ampParams[i].Name, &p.Amp[i], ampParams[i])
	}

	tag = int(p.Pedal1.Type)
	railTag("pedal1_type", &tag, int(Pedal1TypeCount))
	p.Pedal1.Type = Pedal1Type(tag)
	railSlot("pedal1", p.Pedal1.Values[:], p.Pedal1.Type.Params())

	tag = int(p.Pedal2.Type)
	railTag("pedal2_type", &tag, int(Pedal2TypeCount))
	p.Pedal2.Type = Pedal2Type(tag)
	railSlot("pedal2", p.Pedal2.Values[:], p.Pedal2.Type.Params())

	tag = int(p.Reverb.Type)
	railTag("reverb_type", &tag, int(ReverbTypeCount))
	p.Reverb.Type = ReverbType(tag)
	railSlot("reverb", p.Reverb.Values[:], p.Reverb.Type.Params())
	return out
}

// StatusByte returns the effect-status bitmask for the active slots.
func (p *Program) StatusByte() byte {
	var b byte
	for s, bit := range statusBits {
		if p.Active[s] {
			b |= bit
		}
	}
	return b
}

func (p *Program) setStatus(b byte) {
	p.Active[SlotAmp] = true
	for s, bit := range statusBits {
		if s != SlotAmp {
			p.Active[s] = b&bit != 0
		}
	}
}

// Effect status bits. The amp slot has no bit.
var statusBits = map[Slot]byte{
	SlotPedal1: 0x02,
	SlotPedal2: 0x04,
	SlotReverb: 0x10,
}

// ModelTag returns the raw type tag selected in slot s.
func (p *Program) ModelTag(s Slot) int {
	switch s {
	case SlotAmp:
		return int(p.AmpModel)
	case SlotPedal1:
		return int(p.Pedal1.Type)
	case SlotPedal2:
		return int(p.Pedal2.Type)
	case SlotReverb:
		return int(p.Reverb.Type)
	}
	return 0
}

// ModelName returns the name of the type selected in slot s.
func (p *Program) ModelName(s Slot) string {
	switch s {
	case SlotAmp:
		return p.AmpModel.String()
	case SlotPedal1:
		return p.Pedal1.Type.String()
	case SlotPedal2:
		return p.Pedal2.Type.String()
	case SlotReverb:
		return p.Reverb.Type.String()
	}
	return ""
}

// SlotValues returns the positional values of an effect slot. It returns nil for SlotAmp.
func (p *Program) SlotValues(s Slot) []int {
	switch s {
	case SlotPedal1:
		return p.Pedal1.Values[:]
	case SlotPedal2:
		return p.Pedal2.Values[:]
	case SlotReverb:
		return p.Reverb.Values[:]
	}
	return nil
}

// SlotParams returns the identifier set governing the slot's positional values.
func (p *Program) SlotParams(s Slot) []ParamInfo {
	switch s {
	case SlotPedal1:
		return p.Pedal1.Type.Params()
	case SlotPedal2:
		return p.Pedal2.Type.Params()
	case SlotReverb:
		return p.Reverb.Type.Params()
	}
	return nil
}
