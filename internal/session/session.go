// Package session implements the interactive session engine: the lifecycle
// state machine, chunked message delivery, response streaming, and the
// retry/restart supervisor around one wrapped CLI process.
package session

import (
	"errors"
	"io"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/Momentum96/AreYouJ/internal/ports"
)

// State represents the session lifecycle state.
type State string

const (
	StateStarting   State = "starting"
	StateReady      State = "ready"
	StateBusy       State = "busy"
	StateCrashed    State = "crashed"
	StateTerminated State = "terminated"
)

// PTY is the slice of the launcher's process handle the engine needs.
// internal/pty.Process implements it; tests inject fakes.
type PTY interface {
	io.Reader
	io.Writer

	// WriteString writes a string to the PTY master.
	WriteString(s string) (int, error)

	// SetReadDeadline bounds the next Read.
	SetReadDeadline(t time.Time) error

	// Alive reports whether the subprocess is still running.
	Alive() bool

	// Terminate shuts the subprocess down and closes the master.
	Terminate(grace time.Duration) error

	// Close closes the master descriptor.
	Close() error
}

// Emitter is the event sink the engine reports through. protocol.Emitter
// implements it.
type Emitter interface {
	Ready()
	TerminalOutput(data string)
	ScreenClear()
	OutputUpdate(data string)
	ResponseComplete(output string)
	ResponseTimeout(output string)
}

// Session is the single long-lived automation unit: one subprocess, one PTY
// master, one lifecycle. Exclusively owned by the supervisor; at most one
// logical request is ever in flight.
type Session struct {
	ID              string
	State           State
	SkipPermissions bool
	LastActivity    time.Time

	pty   PTY
	clock ports.Clock
}

// New creates a session in the starting state around a launched PTY.
func New(pty PTY, clock ports.Clock, skipPermissions bool) *Session {
	return &Session{
		ID:              "sess_" + uuid.NewString()[:8],
		State:           StateStarting,
		SkipPermissions: skipPermissions,
		LastActivity:    clock.Now(),
		pty:             pty,
		clock:           clock,
	}
}

// Alive reports whether the subprocess is still running.
func (s *Session) Alive() bool {
	return s.pty != nil && s.pty.Alive()
}

// Terminate tears the session down: graceful signal, bounded wait, force
// kill, close master. Idempotent.
func (s *Session) Terminate(grace time.Duration) error {
	if s.State == StateTerminated {
		return nil
	}
	s.State = StateTerminated
	if s.pty == nil {
		return nil
	}
	return s.pty.Terminate(grace)
}

// readChunk performs one bounded-wait read of up to len(buf) bytes: the
// single suspension point of the I/O loop. A timeout or EOF ends the wait
// cycle without error; the caller detects death via Alive.
func (s *Session) readChunk(buf []byte, wait time.Duration) (int, error) {
	s.pty.SetReadDeadline(time.Now().Add(wait))
	n, err := s.pty.Read(buf)
	if err != nil {
		if errors.Is(err, io.EOF) {
			// A closed master returns EOF immediately; pace the loop so a
			// dying subprocess does not spin it.
			s.clock.Sleep(wait)
			return n, nil
		}
		if os.IsTimeout(err) {
			return n, nil
		}
		return n, err
	}
	return n, nil
}
