// Package fakeemitter records emitted events for assertions in tests.
package fakeemitter

import "sync"

// Event is one recorded emission.
type Event struct {
	Type string
	Data string
}

// Emitter implements session.Emitter, recording events in order.
type Emitter struct {
	mu     sync.Mutex
	events []Event
}

// New creates a recording emitter.
func New() *Emitter {
	return &Emitter{}
}

func (e *Emitter) record(typ, data string) {
	e.mu.Lock()
	e.events = append(e.events, Event{Type: typ, Data: data})
	e.mu.Unlock()
}

// Ready implements session.Emitter.
func (e *Emitter) Ready() { e.record("ready", "") }

// TerminalOutput implements session.Emitter.
func (e *Emitter) TerminalOutput(data string) { e.record("terminal_output", data) }

// ScreenClear implements session.Emitter.
func (e *Emitter) ScreenClear() { e.record("screen_clear", "") }

// OutputUpdate implements session.Emitter.
func (e *Emitter) OutputUpdate(data string) { e.record("output_update", data) }

// ResponseComplete implements session.Emitter.
func (e *Emitter) ResponseComplete(output string) { e.record("response_complete", output) }

// ResponseTimeout implements session.Emitter.
func (e *Emitter) ResponseTimeout(output string) { e.record("response_timeout", output) }

// Events returns a copy of everything recorded so far.
func (e *Emitter) Events() []Event {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]Event, len(e.events))
	copy(out, e.events)
	return out
}

// Types returns the recorded event types in order.
func (e *Emitter) Types() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	types := make([]string, len(e.events))
	for i, ev := range e.events {
		types[i] = ev.Type
	}
	return types
}

// Last returns the most recent event of the given type, if any.
func (e *Emitter) Last(typ string) (Event, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for i := len(e.events) - 1; i >= 0; i-- {
		if e.events[i].Type == typ {
			return e.events[i], true
		}
	}
	return Event{}, false
}
