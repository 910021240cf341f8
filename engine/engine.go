// Package engine mirrors the amplifier state and talks to it over sysex.
//
// An Engine is not safe for concurrent use. Every operation runs on the goroutine
// draining a Runner; other goroutines submit Commands.
package engine

import (
	"log/slog"
	"time"

	"github.com/Houston4444/OsciTronix/logging"
	"github.com/Houston4444/OsciTronix/vox"
)

// Sender hands a complete sysex frame to the MIDI transport.
type Sender interface {
	Send(data []byte) error
}

type Engine struct {
	log    *slog.Logger
	now    func() time.Time
	sender Sender

	current vox.Program
	user    [vox.UserBankCount]vox.Program
	presets [vox.PresetCount]vox.Program
	ampFX   [vox.AmpFXCount]vox.Program
	mode    vox.Mode
	index   int

	comm        CommunicationState
	midi        MidiConnectState
	outstanding int
	lastSent    vox.Message
	lastSend    time.Time
	lastReceive time.Time

	subs    []subscription
	ready   []subscription
	nextSub int
}

type Option func(*Engine)

// WithLogger replaces the engine category logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.log = l }
}

func WithSender(s Sender) Option {
	return func(e *Engine) { e.sender = s }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

func New(opts ...Option) *Engine {
	e := &Engine{
		log:  logging.Get(logging.ENGINE),
		now:  time.Now,
		comm: Lost,
		midi: AbsentDevice,
	}
	e.current = vox.NewProgram()
	for i := range e.user {
		e.user[i] = vox.NewProgram()
	}
	for i := range e.presets {
		e.presets[i] = vox.NewProgram()
	}
	for i := range e.ampFX {
		e.ampFX[i] = vox.NewProgram()
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

// SetSender attaches the transport. A nil sender detaches it.
func (e *Engine) SetSender(s Sender) { e.sender = s }

// Snapshot is a copy of the whole engine state.
type Snapshot struct {
	Current       vox.Program
	User          [vox.UserBankCount]vox.Program
	Presets       [vox.PresetCount]vox.Program
	AmpFX         [vox.AmpFXCount]vox.Program
	Mode          vox.Mode
	Index         int
	Communication CommunicationState
	Midi          MidiConnectState
	Outstanding   int
	LastSent      vox.FunctionCode
}

func (e *Engine) Snapshot() Snapshot {
	return Snapshot{
		Current:       e.current,
		User:          e.user,
		Presets:       e.presets,
		AmpFX:         e.ampFX,
		Mode:          e.mode,
		Index:         e.index,
		Communication: e.comm,
		Midi:          e.midi,
		Outstanding:   e.outstanding,
		LastSent:      e.lastSent.Code,
	}
}

func (e *Engine) Current() vox.Program { return e.current }

func (e *Engine) UserProgram(n int) (vox.Program, bool) {
	if n < 0 || n >= len(e.user) {
		return vox.Program{}, false
	}
	return e.user[n], true
}

func (e *Engine) Preset(n int) (vox.Program, bool) {
	if n < 0 || n >= len(e.presets) {
		return vox.Program{}, false
	}
	return e.presets[n], true
}

func (e *Engine) AmpFX(n int) (vox.Program, bool) {
	if n < 0 || n >= len(e.ampFX) {
		return vox.Program{}, false
	}
	return e.ampFX[n], true
}

func (e *Engine) Mode() vox.Mode { return e.mode }

func (e *Engine) Index() int { return e.index }

func (e *Engine) CommunicationState() CommunicationState { return e.comm }

func (e *Engine) MidiConnectState() MidiConnectState { return e.midi }

// Outstanding is the number of requests sent since the last time every one of them was
// matched by an inbound frame.
func (e *Engine) Outstanding() int { return e.outstanding }

func (e *Engine) LastSent() vox.Message { return e.lastSent }

func (e *Engine) LastSendTime() time.Time { return e.lastSend }

func (e *Engine) LastReceiveTime() time.Time { return e.lastReceive }

func (e *Engine) setCommunicationState(s CommunicationState) {
	prev := e.comm
	e.comm = s
	if prev != s {
		e.log.Debug("Communication state", "from", prev, "to", s)
	}
	if prev.IsOk() != s.IsOk() {
		e.emit(Event{Kind: CommunicationStateChanged, Communication: s.Exported()})
	}
}

func (e *Engine) send(m vox.Message) {
	e.lastSent = m
	if e.sender == nil {
		e.log.Warn("Trying to send sysex while the MIDI port is not ready", "code", m.Code)
		return
	}
	if err := e.sender.Send(m.Frame()); err != nil {
		e.log.Error("Failed to send sysex", "code", m.Code, "err", err)
	}
	e.outstanding++
	e.lastSend = e.now()
	if e.comm.IsOk() {
		e.setCommunicationState(PendingFromOk)
	} else {
		e.setCommunicationState(PendingFromLost)
	}
}

// frameArrived counts one well-formed inbound frame.
func (e *Engine) frameArrived() {
	e.lastReceive = e.now()
	e.setCommunicationState(Ok)
	if e.outstanding == 0 {
		return
	}
	e.outstanding--
	if e.outstanding == 0 {
		e.fireReady()
	}
}

// ForceLost downgrades the state to Lost. It has no effect unless a request is pending.
func (e *Engine) ForceLost() {
	if !e.comm.IsChecking() {
		return
	}
	e.log.Info("No answer from the amplifier", "outstanding", e.outstanding, "last_sent", e.lastSent.Code)
	e.setCommunicationState(Lost)
}

// CheckTimeout forces Lost when a request has been pending for longer than grace.
func (e *Engine) CheckTimeout(grace time.Duration) {
	if e.comm.IsChecking() && e.now().Sub(e.lastSend) > grace {
		e.ForceLost()
	}
}

// StartCommunication resets the request counter and asks the amplifier for its whole
// state. Ready callbacks fire when every answer has arrived.
func (e *Engine) StartCommunication() {
	e.outstanding = 0
	for _, m := range vox.StartupRequests() {
		e.send(m)
	}
}

// SetMidiConnectState records the MIDI port state. When the link was working and the
// ports go away, a mode request probes whether the amplifier still answers.
func (e *Engine) SetMidiConnectState(s MidiConnectState) {
	if e.comm.IsOk() && e.midi == Connected && s != Connected {
		e.send(vox.ModeRequestMsg())
	}
	e.midi = s
	e.emit(Event{Kind: MidiConnectStateChanged, Midi: s})
}

// adopt rails a program read from the device or from a file before it is stored.
func (e *Engine) adopt(p vox.Program, where string) vox.Program {
	for _, c := range p.Clamp() {
		e.log.Warn("Value out of range", "program", where, "field", c.Field, "from", c.From, "to", c.To)
	}
	return p
}
