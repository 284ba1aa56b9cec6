package provider

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
)

// MockSender records every payload and answers with SendFunc, or with a
// generated external id when SendFunc is nil.
type MockSender struct {
	SendFunc func(p Payload) (SendResult, error)

	mu    sync.Mutex
	sent  []Payload
	count atomic.Int64
}

func NewMockSender() *MockSender {
	return &MockSender{}
}

func (m *MockSender) Name() Name       { return Mock }
func (m *MockSender) Configured() bool { return true }

func (m *MockSender) Send(ctx context.Context, p Payload) (SendResult, error) {
	m.mu.Lock()
	m.sent = append(m.sent, p)
	fn := m.SendFunc
	m.mu.Unlock()

	n := m.count.Add(1)
	if fn != nil {
		return fn(p)
	}
	return SendResult{ExternalID: fmt.Sprintf("mock-%d", n), Status: "accepted"}, nil
}

// SetSendFunc swaps the scripted answer between calls.
func (m *MockSender) SetSendFunc(fn func(p Payload) (SendResult, error)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SendFunc = fn
}

// Sent returns a copy of the payloads seen so far.
func (m *MockSender) Sent() []Payload {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Payload, len(m.sent))
	copy(out, m.sent)
	return out
}
