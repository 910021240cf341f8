package devicestesting

import (
	"errors"
	"sync"
	"testing"

	midi "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"

	"github.com/Houston4444/OsciTronix/devices"
)

// MockMIDIPort implements both drivers.In and drivers.Out. It stands in for the
// amplifier in tests: everything sent is recorded, and SimulateReceive plays frames
// back to whoever listens.
type MockMIDIPort struct {
	mu sync.Mutex

	sentMessages []midi.Message

	listeners map[int]func(msg []byte, timestampms int32)
	nextID    int

	shouldError bool
	failOpen    bool

	isOpen bool
	name   string
}

func NewMockMIDIPort() *MockMIDIPort {
	return &MockMIDIPort{
		sentMessages: make([]midi.Message, 0),
		listeners:    make(map[int]func([]byte, int32)),
		name:         "MockMIDIPort",
	}
}

func (m *MockMIDIPort) Open() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failOpen {
		return errors.New("mock open error")
	}
	m.isOpen = true
	return nil
}

func (m *MockMIDIPort) Close() error {
	m.mu.Lock()
	m.isOpen = false
	m.mu.Unlock()
	return nil
}

func (m *MockMIDIPort) IsOpen() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.isOpen
}

// Number implements drivers.Out and drivers.In
func (m *MockMIDIPort) Number() int {
	return 0
}

// String implements drivers.Out and drivers.In
func (m *MockMIDIPort) String() string {
	return m.name
}

func (m *MockMIDIPort) Underlying() interface{} {
	return m
}

// Send implements drivers.Out
func (m *MockMIDIPort) Send(data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.shouldError {
		return errors.New("mock send error")
	}
	m.sentMessages = append(m.sentMessages, append(midi.Message{}, data...))
	return nil
}

// Listen implements drivers.In
func (m *MockMIDIPort) Listen(onMsg func(msg []byte, milliseconds int32), config drivers.ListenConfig) (stopFn func(), err error) {
	if !m.IsOpen() {
		return nil, errors.New("port not open")
	}

	m.mu.Lock()
	id := m.nextID
	m.nextID++
	m.listeners[id] = onMsg
	m.mu.Unlock()

	return func() {
		m.mu.Lock()
		delete(m.listeners, id)
		m.mu.Unlock()
	}, nil
}

// SimulateReceive delivers msg to every active listener.
func (m *MockMIDIPort) SimulateReceive(msg midi.Message) {
	m.mu.Lock()
	listeners := make([]func([]byte, int32), 0, len(m.listeners))
	for _, l := range m.listeners {
		listeners = append(listeners, l)
	}
	m.mu.Unlock()

	for _, listener := range listeners {
		listener(msg, 0)
	}
}

// Listening reports whether anyone is listening on the port.
func (m *MockMIDIPort) Listening() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.listeners) > 0
}

// GetSentMessages returns all messages that were sent
func (m *MockMIDIPort) GetSentMessages() []midi.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	result := make([]midi.Message, len(m.sentMessages))
	copy(result, m.sentMessages)
	return result
}

// ClearSentMessages forgets everything sent so far.
func (m *MockMIDIPort) ClearSentMessages() {
	m.mu.Lock()
	m.sentMessages = m.sentMessages[:0]
	m.mu.Unlock()
}

// SetError configures the mock to return errors
func (m *MockMIDIPort) SetError(shouldError bool) {
	m.mu.Lock()
	m.shouldError = shouldError
	m.mu.Unlock()
}

// SetOpenError makes the next calls to Open fail.
func (m *MockMIDIPort) SetOpenError(fail bool) {
	m.mu.Lock()
	m.failOpen = fail
	m.mu.Unlock()
}

// MidiDevice wraps a devices.MidiDevice so every sysex binding is counted.
type MidiDevice struct {
	*devices.MidiDevice
	Tracker *CallbackTracker
}

// NewTestMidiDevice creates a MidiDevice over a single mock port used for both directions.
func NewTestMidiDevice(t *testing.T) (*MidiDevice, *MockMIDIPort) {
	mockPort := NewMockMIDIPort()
	device := devices.NewMidiDevice(mockPort, mockPort)
	return &MidiDevice{
		MidiDevice: device,
		Tracker:    NewCallbackTracker(t),
	}, mockPort
}

// BindSysEx binds callback to messages starting with pattern, with call tracking.
func (d *MidiDevice) BindSysEx(pattern []byte, callback func([]byte) error) {
	d.MidiDevice.SysEx.Match(pattern).Bind(WrapCallback(d.Tracker, callback))
}
