// Package fakepty provides a scripted PTY implementation for testing the
// session engine without real terminals or subprocesses.
package fakepty

import (
	"bytes"
	"io"
	"os"
	"sync"
	"time"

	"github.com/Momentum96/AreYouJ/internal/testing/fakes/fakeclock"
)

// step is one scripted Read outcome.
type step struct {
	data    []byte
	advance time.Duration // fake-clock advance applied when the step is consumed
	err     error
}

// PTY is a fake PTY driven by a script of read steps. Once the script is
// exhausted, reads behave as quiet timeout cycles, advancing the attached
// fake clock so timing heuristics eventually fire.
type PTY struct {
	mu    sync.Mutex
	clock *fakeclock.Clock

	steps        []step
	idx          int
	quietAdvance time.Duration

	written  bytes.Buffer
	writeErr error

	alive  bool
	closed bool
}

// New creates a fake PTY whose reads advance clock. quietAdvance is the
// time attributed to each read once the script is exhausted (typically the
// engine's poll interval).
func New(clock *fakeclock.Clock, quietAdvance time.Duration) *PTY {
	return &PTY{
		clock:        clock,
		quietAdvance: quietAdvance,
		alive:        true,
	}
}

// QueueRead scripts one read returning data, taking no fake time.
func (p *PTY) QueueRead(data string) *PTY {
	return p.QueueReadAfter(data, 0)
}

// QueueReadAfter scripts one read returning data after advancing the fake
// clock by d.
func (p *PTY) QueueReadAfter(data string, d time.Duration) *PTY {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.steps = append(p.steps, step{data: []byte(data), advance: d})
	return p
}

// QueueQuiet scripts one empty read advancing the fake clock by d.
func (p *PTY) QueueQuiet(d time.Duration) *PTY {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.steps = append(p.steps, step{advance: d})
	return p
}

// QueueErr scripts one read failing with err.
func (p *PTY) QueueErr(err error) *PTY {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.steps = append(p.steps, step{err: err})
	return p
}

// Kill marks the subprocess dead. Subsequent reads return EOF.
func (p *PTY) Kill() {
	p.mu.Lock()
	p.alive = false
	p.mu.Unlock()
}

// SetWriteErr makes all subsequent writes fail with err.
func (p *PTY) SetWriteErr(err error) {
	p.mu.Lock()
	p.writeErr = err
	p.mu.Unlock()
}

// Written returns everything written to the PTY so far.
func (p *PTY) Written() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.written.String()
}

// Read implements session.PTY. It consumes the next scripted step, or acts
// as a quiet timeout cycle once the script is exhausted.
func (p *PTY) Read(b []byte) (int, error) {
	p.mu.Lock()

	if p.closed || !p.alive {
		p.mu.Unlock()
		if p.clock != nil {
			p.clock.Advance(p.quietAdvance)
		}
		return 0, io.EOF
	}

	if p.idx >= len(p.steps) {
		p.mu.Unlock()
		if p.clock != nil {
			p.clock.Advance(p.quietAdvance)
		}
		return 0, os.ErrDeadlineExceeded
	}

	st := p.steps[p.idx]
	p.idx++
	p.mu.Unlock()

	if p.clock != nil && st.advance > 0 {
		p.clock.Advance(st.advance)
	}

	if st.err != nil {
		return 0, st.err
	}
	if len(st.data) == 0 {
		return 0, os.ErrDeadlineExceeded
	}

	return copy(b, st.data), nil
}

// Write implements session.PTY.
func (p *PTY) Write(b []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.writeErr != nil {
		return 0, p.writeErr
	}
	return p.written.Write(b)
}

// WriteString implements session.PTY.
func (p *PTY) WriteString(s string) (int, error) {
	return p.Write([]byte(s))
}

// SetReadDeadline implements session.PTY. Deadlines are meaningless for a
// scripted fake.
func (p *PTY) SetReadDeadline(t time.Time) error {
	return nil
}

// Alive implements session.PTY.
func (p *PTY) Alive() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.alive && !p.closed
}

// Terminate implements session.PTY.
func (p *PTY) Terminate(grace time.Duration) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.alive = false
	p.closed = true
	return nil
}

// Close implements session.PTY.
func (p *PTY) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	return nil
}
