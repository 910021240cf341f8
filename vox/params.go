package vox

import (
	"fmt"
	"strings"

	"golang.org/x/exp/constraints"
)

// Domain is the first byte of a PARAMETER_CHANGE payload. It selects which part of the
// program a parameter identifier refers to.
type Domain uint8

const (
	DomainProgramName  Domain = 0x00
	DomainNoiseGate    Domain = 0x01
	DomainEffectStatus Domain = 0x02
	DomainEffectModel  Domain = 0x03
	DomainAmp          Domain = 0x04
	DomainPedal1       Domain = 0x05
	DomainPedal2       Domain = 0x06
	DomainReverb       Domain = 0x07
)

var domainNames = [...]string{
	DomainProgramName:  "PROGRAM_NAME",
	DomainNoiseGate:    "NR_SENS",
	DomainEffectStatus: "EFFECT_STATUS",
	DomainEffectModel:  "EFFECT_MODEL",
	DomainAmp:          "AMP",
	DomainPedal1:       "PEDAL1",
	DomainPedal2:       "PEDAL2",
	DomainReverb:       "REVERB",
}

func (d Domain) Valid() bool { return int(d) < len(domainNames) }

func (d Domain) String() string {
	if !d.Valid() {
		return fmt.Sprintf("Domain(%#x)", uint8(d))
	}
	return domainNames[d]
}

// Slot is one of the four effect positions of a program.
type Slot uint8

const (
	SlotAmp Slot = iota
	SlotPedal1
	SlotPedal2
	SlotReverb
	SlotCount
)

var slotNames = [SlotCount]string{"AMP", "PEDAL1", "PEDAL2", "REVERB"}

func (s Slot) Valid() bool { return s < SlotCount }

func (s Slot) String() string {
	if !s.Valid() {
		return fmt.Sprintf("Slot(%d)", uint8(s))
	}
	return slotNames[s]
}

// Mode is the amplifier program selection mode.
type Mode uint8

const (
	ModePreset Mode = iota
	ModeUser
	ModeManual
	modeCount
)

var modeNames = [modeCount]string{"PRESET", "USER", "MANUAL"}

func (m Mode) Valid() bool { return m < modeCount }

func (m Mode) String() string {
	if !m.Valid() {
		return fmt.Sprintf("Mode(%d)", uint8(m))
	}
	return modeNames[m]
}

// ParseMode accepts the mode names case-insensitively.
func ParseMode(s string) (Mode, error) {
	for i, n := range modeNames {
		if strings.EqualFold(n, s) {
			return Mode(i), nil
		}
	}
	return 0, &FieldError{Field: "mode", Value: s}
}

// ParamInfo describes the valid range and display unit of one parameter.
type ParamInfo struct {
	Name string
	Min  int
	Max  int
	Unit string
}

// Rail clamps v into the parameter range. The second result reports whether v was changed.
func (p ParamInfo) Rail(v int) (int, bool) {
	r := Rail(v, p.Min, p.Max)
	return r, r != v
}

func (p ParamInfo) Contains(v int) bool { return v >= p.Min && v <= p.Max }

// Rail clamps v into [lo, hi].
func Rail[T constraints.Integer](v, lo, hi T) T {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

const (
	unitPercent = "%"
	unitOnOff   = "Off,On"
	unitMHz     = "mHz"
	unitMs      = "ms"
)

func pct(name string) ParamInfo   { return ParamInfo{name, 0, 100, unitPercent} }
func onOff(name string) ParamInfo { return ParamInfo{name, 0, 1, unitOnOff} }

// AmpModel identifies one of the 20 amplifier models.
type AmpModel uint8

const (
	DeluxeClVibrato AmpModel = iota
	DeluxeClNormal
	Tweed4x10Bright
	Tweed4x10Normal
	BoutiqueCl
	BoutiqueOd
	VoxAC30
	VoxAC30TB
	Brit1959Treble
	Brit1959Normal
	Brit800
	BritVM
	SlOd
	DoubleRec
	CaliElation
	EruptIIICh2
	EruptIIICh3
	BoutiqueMetal
	BritOrMkII
	OriginalCl
	AmpModelCount
)

type ampModelInfo struct {
	name           string
	presenceIsTone bool
	brightCap      bool
}

var ampModels = [AmpModelCount]ampModelInfo{
	DeluxeClVibrato: {"DELUXE_CL_VIBRATO", false, true},
	DeluxeClNormal:  {"DELUXE_CL_NORMAL", false, false},
	Tweed4x10Bright: {"TWEED_4X10_BRIGHT", false, true},
	Tweed4x10Normal: {"TWEED_4X10_NORMAL", false, false},
	BoutiqueCl:      {"BOUTIQUE_CL", false, true},
	BoutiqueOd:      {"BOUTIQUE_OD", false, true},
	VoxAC30:         {"VOX_AC30", true, true},
	VoxAC30TB:       {"VOX_AC30TB", true, true},
	Brit1959Treble:  {"BRIT_1959_TREBLE", false, true},
	Brit1959Normal:  {"BRIT_1959_NORMAL", false, false},
	Brit800:         {"BRIT_800", false, true},
	BritVM:          {"BRIT_VM", false, true},
	SlOd:            {"SL_OD", false, true},
	DoubleRec:       {"DOUBLE_REC", false, true},
	CaliElation:     {"CALI_ELATION", false, true},
	EruptIIICh2:     {"ERUPT_III_CH2", false, false},
	EruptIIICh3:     {"ERUPT_III_CH3", false, true},
	BoutiqueMetal:   {"BOUTIQUE_METAL", false, false},
	BritOrMkII:      {"BRIT_OR_MKII", false, true},
	OriginalCl:      {"ORIGINAL_CL", false, true},
}

func (m AmpModel) Valid() bool { return m < AmpModelCount }

func (m AmpModel) String() string {
	if !m.Valid() {
		return fmt.Sprintf("AmpModel(%d)", uint8(m))
	}
	return ampModels[m].name
}

// PresenceIsTone reports whether the presence control is labeled "tone" on this model.
func (m AmpModel) PresenceIsTone() bool { return m.Valid() && ampModels[m].presenceIsTone }

// HasBrightCap reports whether the model exposes the bright cap switch.
func (m AmpModel) HasBrightCap() bool { return m.Valid() && ampModels[m].brightCap }

// AmpParam identifies an amplifier parameter. Values follow the program dump order.
type AmpParam uint8

const (
	AmpGain AmpParam = iota
	AmpTreble
	AmpMiddle
	AmpBass
	AmpVolume
	AmpTone
	AmpResonance
	AmpBrightCap
	AmpLowCut
	AmpMidBoost
	AmpBiasShift
	AmpClass
	AmpParamCount
)

var ampParams = [AmpParamCount]ParamInfo{
	AmpGain:      pct("GAIN"),
	AmpTreble:    pct("TREBLE"),
	AmpMiddle:    pct("MIDDLE"),
	AmpBass:      pct("BASS"),
	AmpVolume:    pct("VOLUME"),
	AmpTone:      pct("TONE"),
	AmpResonance: pct("RESONANCE"),
	AmpBrightCap: onOff("BRIGHT_CAP"),
	AmpLowCut:    onOff("LOW_CUT"),
	AmpMidBoost:  onOff("MID_BOOST"),
	AmpBiasShift: {"BIAS_SHIFT", 0, 2, "Off,COLD,HOT"},
	AmpClass:     {"CLASS", 0, 1, "A,AB"},
}

// ampFXOmitted lists the amp parameters that the AmpFX preset shape does not carry.
var ampFXOmitted = [...]AmpParam{AmpGain, AmpTreble, AmpMiddle, AmpBass, AmpVolume}

func (a AmpParam) Valid() bool { return a < AmpParamCount }

func (a AmpParam) Info() ParamInfo {
	if !a.Valid() {
		return ParamInfo{}
	}
	return ampParams[a]
}

func (a AmpParam) String() string {
	if !a.Valid() {
		return fmt.Sprintf("AmpParam(%d)", uint8(a))
	}
	return ampParams[a].Name
}

const (
	PedalValueCount  = 6
	ReverbValueCount = 5
)

var (
	compParams = []ParamInfo{
		pct("SENS"), pct("LEVEL"), pct("ATTACK"), {"VOICE", 0, 2, "1,2,3"},
	}
	chorusParams = []ParamInfo{
		{"SPEED", 100, 10000, unitMHz}, pct("DEPTH"), pct("MANUAL"), pct("MIX"),
		onOff("LOW_CUT"), onOff("HIGH_CUT"),
	}
	driveParams = []ParamInfo{
		pct("DRIVE"), pct("TONE"), pct("LEVEL"), pct("TREBLE"), pct("MIDDLE"), pct("BASS"),
	}
	flangerParams = []ParamInfo{
		{"SPEED", 100, 5000, unitMHz}, pct("DEPTH"), pct("MANUAL"),
		pct("LOW_CUT"), pct("HIGH_CUT"), pct("RESONANCE"),
	}
	phaserParams = []ParamInfo{
		{"SPEED", 100, 10000, unitMHz}, pct("RESONANCE"), pct("MANUAL"), pct("DEPTH"),
	}
	tremoloParams = []ParamInfo{
		{"SPEED", 1650, 10000, unitMHz}, pct("DEPTH"), pct("DUTY"), pct("SHAPE"), pct("LEVEL"),
	}
	delayParams = []ParamInfo{
		{"TIME", 30, 1200, unitMs}, pct("LEVEL"), pct("FEEDBACK"), pct("TONE"),
		pct("MOD_SPEED"), pct("MOD_DEPTH"),
	}
	reverbParams = []ParamInfo{
		pct("MIX"), pct("TIME"), {"PRE_DELAY", 0, 70, unitMs}, pct("LOW_DAMP"), pct("HIGH_DAMP"),
	}
)

// Pedal1Type is the effect type of the first pedal slot.
type Pedal1Type uint8

const (
	Comp Pedal1Type = iota
	Chorus
	TubeOD
	GoldDrive
	TrebleBoost
	RCTurbo
	OrangeDist
	FatDist
	BritLead
	Fuzz
	Pedal1TypeCount
)

var pedal1Names = [Pedal1TypeCount]string{
	"COMP", "CHORUS", "TUBE_OD", "GOLD_DRIVE", "TREBLE_BOOST",
	"RC_TURBO", "ORANGE_DIST", "FAT_DIST", "BRIT_LEAD", "FUZZ",
}

func (t Pedal1Type) Valid() bool { return t < Pedal1TypeCount }

func (t Pedal1Type) String() string {
	if !t.Valid() {
		return fmt.Sprintf("Pedal1Type(%d)", uint8(t))
	}
	return pedal1Names[t]
}

func (t Pedal1Type) IsOverdrive() bool { return t >= TubeOD && t <= RCTurbo }

func (t Pedal1Type) IsDistortion() bool { return t >= OrangeDist && t <= Fuzz }

// Params returns the ordered identifier set giving meaning to the slot's positional values.
func (t Pedal1Type) Params() []ParamInfo {
	switch {
	case t == Comp:
		return compParams
	case t == Chorus:
		return chorusParams
	case t.IsOverdrive(), t.IsDistortion():
		return driveParams
	}
	return nil
}

// Pedal2Type is the effect type of the second pedal slot.
type Pedal2Type uint8

const (
	Flanger Pedal2Type = iota
	BlkPhaser
	OrgPhaser1
	OrgPhaser2
	Tremolo
	TapeEcho
	AnalogDelay
	Pedal2TypeCount
)

var pedal2Names = [Pedal2TypeCount]string{
	"FLANGER", "BLK_PHASER", "ORG_PHASER_1", "ORG_PHASER_2", "TREMOLO", "TAPE_ECHO", "ANALOG_DELAY",
}

func (t Pedal2Type) Valid() bool { return t < Pedal2TypeCount }

func (t Pedal2Type) String() string {
	if !t.Valid() {
		return fmt.Sprintf("Pedal2Type(%d)", uint8(t))
	}
	return pedal2Names[t]
}

func (t Pedal2Type) IsPhaser() bool { return t >= BlkPhaser && t <= OrgPhaser2 }

func (t Pedal2Type) IsDelay() bool { return t == TapeEcho || t == AnalogDelay }

func (t Pedal2Type) Params() []ParamInfo {
	switch {
	case t == Flanger:
		return flangerParams
	case t.IsPhaser():
		return phaserParams
	case t == Tremolo:
		return tremoloParams
	case t.IsDelay():
		return delayParams
	}
	return nil
}

// ReverbType is the reverb algorithm.
type ReverbType uint8

const (
	Room ReverbType = iota
	Spring
	Hall
	Plate
	ReverbTypeCount
)

var reverbNames = [ReverbTypeCount]string{"ROOM", "SPRING", "HALL", "PLATE"}

func (t ReverbType) Valid() bool { return t < ReverbTypeCount }

func (t ReverbType) String() string {
	if !t.Valid() {
		return fmt.Sprintf("ReverbType(%d)", uint8(t))
	}
	return reverbNames[t]
}

// Params is the same identifier set for every reverb type.
func (t ReverbType) Params() []ParamInfo { return reverbParams }

var (
	noiseGateInfo = pct("NR_SENS")
	// 7-bit ASCII, one character per identifier.
	nameCharInfo = ParamInfo{"CHAR", 0, 127, ""}
	modelInfos   = [SlotCount]ParamInfo{
		SlotAmp:    {"AMP", 0, int(AmpModelCount) - 1, ""},
		SlotPedal1: {"PEDAL1", 0, int(Pedal1TypeCount) - 1, ""},
		SlotPedal2: {"PEDAL2", 0, int(Pedal2TypeCount) - 1, ""},
		SlotReverb: {"REVERB", 0, int(ReverbTypeCount) - 1, ""},
	}
)

// Lookup resolves the range metadata of identifier id in domain d, given the type tags
// currently selected in p. It reports false when id is not defined in that domain.
func Lookup(p *Program, d Domain, id int) (ParamInfo, bool) {
	switch d {
	case DomainProgramName:
		if id >= 0 && id < NameLength {
			return nameCharInfo, true
		}
	case DomainNoiseGate:
		if id == 0 {
			return noiseGateInfo, true
		}
	case DomainEffectStatus:
		if id > int(SlotAmp) && id < int(SlotCount) {
			return onOff(Slot(id).String()), true
		}
	case DomainEffectModel:
		if id >= 0 && id < int(SlotCount) {
			return modelInfos[id], true
		}
	case DomainAmp:
		if id >= 0 && id < int(AmpParamCount) {
			return ampParams[id], true
		}
	case DomainPedal1:
		return index(p.Pedal1.Type.Params(), id)
	case DomainPedal2:
		return index(p.Pedal2.Type.Params(), id)
	case DomainReverb:
		return index(p.Reverb.Type.Params(), id)
	}
	return ParamInfo{}, false
}

func index(params []ParamInfo, id int) (ParamInfo, bool) {
	if id < 0 || id >= len(params) {
		return ParamInfo{}, false
	}
	return params[id], true
}

func lookupName[T ~uint8](names []string, s string) (T, bool) {
	for i, n := range names {
		if n == s {
			return T(i), true
		}
	}
	return 0, false
}

func ParseAmpModel(s string) (AmpModel, bool) {
	names := make([]string, AmpModelCount)
	for i := range ampModels {
		names[i] = ampModels[i].name
	}
	return lookupName[AmpModel](names, s)
}

func ParseAmpParam(s string) (AmpParam, bool) {
	names := make([]string, AmpParamCount)
	for i := range ampParams {
		names[i] = ampParams[i].Name
	}
	return lookupName[AmpParam](names, s)
}

func ParsePedal1Type(s string) (Pedal1Type, bool) {
	return lookupName[Pedal1Type](pedal1Names[:], s)
}

func ParsePedal2Type(s string) (Pedal2Type, bool) {
	return lookupName[Pedal2Type](pedal2Names[:], s)
}

func ParseReverbType(s string) (ReverbType, bool) {
	return lookupName[ReverbType](reverbNames[:], s)
}

func ParseSlot(s string) (Slot, bool) {
	return lookupName[Slot](slotNames[:], s)
}

// ParseDomain accepts domain names case-insensitively.
func ParseDomain(s string) (Domain, bool) {
	return lookupName[Domain](domainNames[:], strings.ToUpper(s))
}
