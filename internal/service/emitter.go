package service

import (
	"context"
	"log/slog"
	"sync"
)

// Events emitted by the services.
const (
	EventTemplateChanged = "template:changed"
	EventTemplateSaved   = "template:saved"
	EventTemplateDeleted = "template:deleted"
	EventAutosaveFailed  = "autosave:failed"
)

// EventEmitter pushes service events to whatever front end is attached.
// Services take this interface so they can be tested with MockEmitter.
type EventEmitter interface {
	Emit(ctx context.Context, event string, data any)
}

// LogEmitter writes events to the default slog logger. It is used when
// no front end is attached, such as the stdio MCP server.
type LogEmitter struct{}

func (LogEmitter) Emit(_ context.Context, event string, data any) {
	slog.Debug("event", "name", event, "data", data)
}

// MockEmitter is a test-friendly EventEmitter that records all calls.
type MockEmitter struct {
	mu     sync.Mutex
	Events []EmittedEvent
}

// EmittedEvent holds a single recorded emission for test assertions.
type EmittedEvent struct {
	Event string
	Data  any
}

func (m *MockEmitter) Emit(_ context.Context, event string, data any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Events = append(m.Events, EmittedEvent{Event: event, Data: data})
}

// Named returns the recorded events called event, in order.
func (m *MockEmitter) Named(event string) []EmittedEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []EmittedEvent
	for _, e := range m.Events {
		if e.Event == event {
			out = append(out, e)
		}
	}
	return out
}
