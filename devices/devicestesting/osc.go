package devicestesting

import (
	"errors"
	"sync"

	"github.com/hypebeast/go-osc/osc"
)

// MockOscClient records every packet sent to it. Bundles are flattened into their
// messages.
type MockOscClient struct {
	mu           sync.Mutex
	sentMessages []*osc.Message
	shouldError  bool
}

func NewMockOscClient() *MockOscClient {
	return &MockOscClient{sentMessages: make([]*osc.Message, 0)}
}

func (m *MockOscClient) Send(packet osc.Packet) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.shouldError {
		return errors.New("mock osc send error")
	}
	m.record(packet)
	return nil
}

func (m *MockOscClient) record(packet osc.Packet) {
	switch p := packet.(type) {
	case *osc.Message:
		m.sentMessages = append(m.sentMessages, p)
	case *osc.Bundle:
		for _, msg := range p.Messages {
			m.sentMessages = append(m.sentMessages, msg)
		}
		for _, b := range p.Bundles {
			m.record(b)
		}
	}
}

func (m *MockOscClient) GetSentMessages() []*osc.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*osc.Message, len(m.sentMessages))
	copy(out, m.sentMessages)
	return out
}

// Addresses lists the address of every sent message, in order.
func (m *MockOscClient) Addresses() []string {
	msgs := m.GetSentMessages()
	out := make([]string, len(msgs))
	for i, msg := range msgs {
		out[i] = msg.Address
	}
	return out
}

func (m *MockOscClient) SetError(shouldError bool) {
	m.mu.Lock()
	m.shouldError = shouldError
	m.mu.Unlock()
}
