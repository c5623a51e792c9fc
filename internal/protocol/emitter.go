package protocol

import (
	"encoding/json"
	"io"
	"log/slog"
	"sync"

	"github.com/Momentum96/AreYouJ/internal/ports"
)

// Emitter serializes events onto a single writer, one JSON object per line.
// Safe for concurrent use; line writes are never interleaved.
type Emitter struct {
	mu    sync.Mutex
	w     io.Writer
	clock ports.Clock
}

// NewEmitter creates an emitter writing to w, timestamping with clock.
func NewEmitter(w io.Writer, clock ports.Clock) *Emitter {
	return &Emitter{w: w, clock: clock}
}

// Emit writes one event line. Fills the timestamp if unset.
func (e *Emitter) Emit(ev Event) {
	if ev.Timestamp == 0 {
		ev.Timestamp = e.now()
	}

	data, err := json.Marshal(ev)
	if err != nil {
		slog.Error("marshal event", slog.String("type", ev.Type), slog.String("error", err.Error()))
		return
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if _, err := e.w.Write(append(data, '\n')); err != nil {
		slog.Error("write event", slog.String("type", ev.Type), slog.String("error", err.Error()))
	}
}

// now returns the current time as Unix seconds.
func (e *Emitter) now() float64 {
	t := e.clock.Now()
	return float64(t.UnixNano()) / 1e9
}

// Log emits a log event (in addition to the stderr diagnostic channel).
func (e *Emitter) Log(level, message string) {
	e.Emit(Event{Type: EventLog, Level: level, Message: message})
}

// Ready signals that the session reached its initial prompt.
func (e *Emitter) Ready() {
	e.Emit(Event{Type: EventReady})
}

// Pong answers a ping command.
func (e *Emitter) Pong() {
	e.Emit(Event{Type: EventPong})
}

// TerminalOutput emits one raw read from the PTY.
func (e *Emitter) TerminalOutput(data string) {
	e.Emit(Event{Type: EventTerminalOutput, Data: data, IsRaw: true})
}

// ScreenClear signals an embedded screen-clear sequence.
func (e *Emitter) ScreenClear() {
	e.Emit(Event{Type: EventScreenClear})
}

// OutputUpdate emits a debounced batch of output.
func (e *Emitter) OutputUpdate(data string) {
	e.Emit(Event{Type: EventOutputUpdate, Data: data})
}

// ResponseComplete emits the full accumulated response.
func (e *Emitter) ResponseComplete(output string) {
	e.Emit(Event{Type: EventResponseComplete, Output: output})
}

// ResponseTimeout emits the partial response gathered before the hard
// timeout elapsed.
func (e *Emitter) ResponseTimeout(output string) {
	e.Emit(Event{Type: EventResponseTimeout, Output: output})
}

// Result emits the outcome of one request, correlated by messageID.
func (e *Emitter) Result(result ProcessResult, messageID string) {
	e.Emit(Event{Type: EventResult, Data: result, MessageID: messageID})
}

// Error emits an error event.
func (e *Emitter) Error(message string) {
	e.Emit(Event{Type: EventError, Message: message})
}
