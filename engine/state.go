package engine

import "fmt"

// CommunicationState is the inferred health of the link with the amplifier.
type CommunicationState int

const (
	// No frame arrived within the grace period after a send.
	Lost CommunicationState = iota
	// Nothing sent since the last frame arrived.
	Ok
	// At least one request awaiting a frame, the link was Ok before.
	PendingFromOk
	// At least one request awaiting a frame, the link was Lost before.
	PendingFromLost
)

func (s CommunicationState) IsOk() bool { return s == Ok || s == PendingFromOk }

func (s CommunicationState) IsChecking() bool { return s == PendingFromOk || s == PendingFromLost }

// Exported collapses the state to Ok or Lost.
func (s CommunicationState) Exported() CommunicationState {
	if s.IsOk() {
		return Ok
	}
	return Lost
}

func (s CommunicationState) String() string {
	switch s {
	case Lost:
		return "LOST"
	case Ok:
		return "OK"
	case PendingFromOk:
		return "PENDING_FROM_OK"
	case PendingFromLost:
		return "PENDING_FROM_LOST"
	}
	return fmt.Sprintf("CommunicationState(%d)", int(s))
}

// MidiConnectState describes the MIDI ports connected to the amplifier.
type MidiConnectState int

const (
	AbsentDevice MidiConnectState = iota
	Disconnected
	InputOnly
	OutputOnly
	Connected
)

func (s MidiConnectState) String() string {
	switch s {
	case AbsentDevice:
		return "ABSENT_DEVICE"
	case Disconnected:
		return "DISCONNECTED"
	case InputOnly:
		return "INPUT_ONLY"
	case OutputOnly:
		return "OUTPUT_ONLY"
	case Connected:
		return "CONNECTED"
	}
	return fmt.Sprintf("MidiConnectState(%d)", int(s))
}

// ConnectStateOf derives the connection state from which ports are open.
func ConnectStateOf(present, in, out bool) MidiConnectState {
	switch {
	case !present:
		return AbsentDevice
	case in && out:
		return Connected
	case in:
		return InputOnly
	case out:
		return OutputOnly
	}
	return Disconnected
}
