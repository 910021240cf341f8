package engine

import (
	"fmt"

	"github.com/Houston4444/OsciTronix/vox"
)

type EventKind int

const (
	// DataError: the device reported DATA_FORMAT_ERROR or DATA_LOAD_ERROR.
	DataError EventKind = iota - 1
	CommunicationStateChanged
	MidiConnectStateChanged
	CurrentChanged
	ParamChanged
	ModeChanged
	UserBanksRead
	FactoryBanksRead
	ProgramNameChanged
)

var eventKindNames = map[EventKind]string{
	DataError:                 "DATA_ERROR",
	CommunicationStateChanged: "COMMUNICATION_STATE",
	MidiConnectStateChanged:   "MIDI_CONNECT_STATE",
	CurrentChanged:            "CURRENT_CHANGED",
	ParamChanged:              "PARAM_CHANGED",
	ModeChanged:               "MODE_CHANGED",
	UserBanksRead:             "USER_BANKS_READ",
	FactoryBanksRead:          "FACTORY_BANKS_READ",
	ProgramNameChanged:        "PROGRAM_NAME_CHANGED",
}

func (k EventKind) String() string {
	if n, ok := eventKindNames[k]; ok {
		return n
	}
	return fmt.Sprintf("EventKind(%d)", int(k))
}

// Event is delivered to subscribers on the goroutine applying engine operations.
// Current is always a copy of the current program; the other fields depend on Kind.
type Event struct {
	Kind    EventKind
	Current vox.Program

	// ParamChanged
	Domain vox.Domain
	ID     int

	// ModeChanged
	Mode  vox.Mode
	Index int

	// CommunicationStateChanged, always Ok or Lost.
	Communication CommunicationState

	// MidiConnectStateChanged
	Midi MidiConnectState

	// DataError: function code of the last message sent before the error arrived.
	// The protocol has no correlation id, so this is a best guess.
	LastSent vox.FunctionCode
	Code     vox.FunctionCode

	// ProgramNameChanged
	Name string
}

type subscription struct {
	id int
	fn func(Event)
}

// Subscribe registers fn for every event. The returned function removes it.
// fn runs on the engine goroutine and must not block or call back into the runner.
func (e *Engine) Subscribe(fn func(Event)) (unsubscribe func()) {
	e.nextSub++
	id := e.nextSub
	e.subs = append(e.subs, subscription{id: id, fn: fn})
	return func() {
		for i, s := range e.subs {
			if s.id == id {
				e.subs = append(e.subs[:i:i], e.subs[i+1:]...)
				return
			}
		}
	}
}

// OnReady registers fn to run each time the outstanding request counter falls to zero.
func (e *Engine) OnReady(fn func()) (cancel func()) {
	e.nextSub++
	id := e.nextSub
	e.ready = append(e.ready, subscription{id: id, fn: func(Event) { fn() }})
	return func() {
		for i, s := range e.ready {
			if s.id == id {
				e.ready = append(e.ready[:i:i], e.ready[i+1:]...)
				return
			}
		}
	}
}

func (e *Engine) emit(ev Event) {
	ev.Current = e.current
	for _, s := range e.subs {
		s.fn(ev)
	}
}

func (e *Engine) fireReady() {
	for _, s := range e.ready {
		s.fn(Event{})
	}
}
