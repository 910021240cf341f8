package vox

import (
	"bytes"
	"encoding/json"
	"fmt"
)

type programJSON struct {
	ProgramName   *string        `json:"program_name,omitempty"`
	NrSens        *int           `json:"nr_sens"`
	ActiveEffects map[string]int `json:"active_effects"`
	AmpModel      *string        `json:"amp_model"`
	AmpParams     map[string]int `json:"amp_params"`
	Pedal1Type    *string        `json:"pedal1_type"`
	Pedal1Values  []int          `json:"pedal1_values"`
	Pedal2Type    *string        `json:"pedal2_type"`
	Pedal2Values  []int          `json:"pedal2_values"`
	ReverbType    *string        `json:"reverb_type"`
	ReverbValues  []int          `json:"reverb_values"`
}

func toJSON(p Program, ampFX bool) programJSON {
	j := programJSON{
		NrSens:        &p.NoiseGate,
		ActiveEffects: make(map[string]int, SlotCount),
		AmpParams:     make(map[string]int, AmpParamCount),
		Pedal1Values:  append([]int(nil), p.Pedal1.Values[:]...),
		Pedal2Values:  append([]int(nil), p.Pedal2.Values[:]...),
		ReverbValues:  append([]int(nil), p.Reverb.Values[:]...),
	}
	if !ampFX {
		j.ProgramName = &p.Name
	}
	for s := SlotAmp; s < SlotCount; s++ {
		v := 0
		if p.Active[s] {
			v = 1
		}
		j.ActiveEffects[s.String()] = v
	}
	model, p1, p2, rev := p.AmpModel.String(), p.Pedal1.Type.String(), p.Pedal2.Type.String(), p.Reverb.Type.String()
	j.AmpModel, j.Pedal1Type, j.Pedal2Type, j.ReverbType = &model, &p1, &p2, &rev
	for a := AmpParam(0); a < AmpParamCount; a++ {
		if ampFX && isAmpFXOmitted(a) {
			continue
		}
		j.AmpParams[a.String()] = p.Amp[a]
	}
	return j
}

func isAmpFXOmitted(a AmpParam) bool {
	for _, o := range ampFXOmitted {
		if o == a {
			return true
		}
	}
	return false
}

func missing(field string) error { return &FieldError{Field: field, Value: "missing"} }

func fromJSON(j programJSON, ampFX bool) (Program, error) {
	p := NewProgram()
	if !ampFX {
		if j.ProgramName == nil {
			return Program{}, missing("program_name")
		}
		p.Name = *j.ProgramName
	}
	if j.NrSens == nil {
		return Program{}, missing("nr_sens")
	}
	p.NoiseGate = *j.NrSens

	for s := SlotAmp; s < SlotCount; s++ {
		v, ok := j.ActiveEffects[s.String()]
		switch {
		case ok:
			p.Active[s] = v != 0
		case s != SlotAmp:
			return Program{}, missing("active_effects." + s.String())
		}
	}

	var ok bool
	if j.AmpModel == nil {
		return Program{}, missing("amp_model")
	}
	if p.AmpModel, ok = ParseAmpModel(*j.AmpModel); !ok {
		return Program{}, &FieldError{Field: "amp_model", Value: *j.AmpModel}
	}
	for a := AmpParam(0); a < AmpParamCount; a++ {
		v, found := j.AmpParams[a.String()]
		if !found {
			if ampFX && isAmpFXOmitted(a) {
				continue
			}
			return Program{}, missing("amp_params." + a.String())
		}
		p.Amp[a] = v
	}

	if j.Pedal1Type == nil {
		return Program{}, missing("pedal1_type")
	}
	if p.Pedal1.Type, ok = ParsePedal1Type(*j.Pedal1Type); !ok {
		return Program{}, &FieldError{Field: "pedal1_type", Value: *j.Pedal1Type}
	}
	if j.Pedal2Type == nil {
		return Program{}, missing("pedal2_type")
	}
	if p.Pedal2.Type, ok = ParsePedal2Type(*j.Pedal2Type); !ok {
		return Program{}, &FieldError{Field: "pedal2_type", Value: *j.Pedal2Type}
	}
	if j.ReverbType == nil {
		return Program{}, missing("reverb_type")
	}
	if p.Reverb.Type, ok = ParseReverbType(*j.ReverbType); !ok {
		return Program{}, &FieldError{Field: "reverb_type", Value: *j.ReverbType}
	}

	if err := copyValues("pedal1_values", p.Pedal1.Values[:], j.Pedal1Values); err != nil {
		return Program{}, err
	}
	if err := copyValues("pedal2_values", p.Pedal2.Values[:], j.Pedal2Values); err != nil {
		return Program{}, err
	}
	if err := copyValues("reverb_values", p.Reverb.Values[:], j.ReverbValues); err != nil {
		return Program{}, err
	}
	return p, nil
}

func copyValues(field string, dst, src []int) error {
	if len(src) != len(dst) {
		return &FieldError{Field: field, Value: fmt.Sprintf("%d values, want %d", len(src), len(dst))}
	}
	copy(dst, src)
	return nil
}

// MarshalJSON writes the full program flavour.
func (p Program) MarshalJSON() ([]byte, error) {
	return json.Marshal(toJSON(p, false))
}

// UnmarshalJSON reads the full program flavour. Every key is required; values are not railed.
func (p *Program) UnmarshalJSON(data []byte) error {
	var j programJSON
	if err := json.Unmarshal(data, &j); err != nil {
		return err
	}
	q, err := fromJSON(j, false)
	if err != nil {
		return err
	}
	*p = q
	return nil
}

// EncodeJSON returns the indented persisted form of p. The AmpFX flavour omits the name and
// the amp parameters an AmpFX preset does not store.
func EncodeJSON(p Program, ampFX bool) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "  ")
	if err := enc.Encode(toJSON(p, ampFX)); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// DecodeJSON parses a persisted program and rails its values. The returned list reports
// what railing changed.
func DecodeJSON(data []byte, ampFX bool) (Program, []Clamped, error) {
	var j programJSON
	if err := json.Unmarshal(data, &j); err != nil {
		return Program{}, nil, err
	}
	p, err := fromJSON(j, ampFX)
	if err != nil {
		return Program{}, nil, err
	}
	clamped := p.Clamp()
	return p, clamped, nil
}
