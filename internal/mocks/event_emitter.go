package mocks

import (
	"context"
	"sync"

	"github.com/phrazzld/taskkeeper/internal/events"
)

// MockEventEmitter records emitted events.
type MockEventEmitter struct {
	Err error

	mu     sync.Mutex
	events []*events.TaskEvent
}

// EmitEvent implements events.EventEmitter.
func (m *MockEventEmitter) EmitEvent(ctx context.Context, event *events.TaskEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, event)
	return m.Err
}

// Events returns the emitted events in order.
func (m *MockEventEmitter) Events() []*events.TaskEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*events.TaskEvent, len(m.events))
	copy(out, m.events)
	return out
}

// Types returns the type of each emitted event in order.
func (m *MockEventEmitter) Types() []events.EventType {
	evs := m.Events()
	out := make([]events.EventType, len(evs))
	for i, e := range evs {
		out[i] = e.Type
	}
	return out
}

var _ events.EventEmitter = (*MockEventEmitter)(nil)
