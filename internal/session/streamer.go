package session

import (
	"errors"
	"strings"
	"time"

	"github.com/Momentum96/AreYouJ/internal/readiness"
)

// ErrProcessDied indicates the subprocess died while a response was being
// streamed. The accumulated output is discarded; the supervisor restarts.
var ErrProcessDied = errors.New("subprocess died mid-stream")

// Stream statuses.
const (
	StreamCompleted = "completed"
	StreamTimedOut  = "timeout"
)

// StreamOptions holds the streaming timing heuristics.
type StreamOptions struct {
	Timeout    time.Duration // hard cap on the whole response
	Inactivity time.Duration // quiet period that completes a response
	Debounce   time.Duration // output batching window
	Poll       time.Duration // bounded wait per read
	BufSize    int           // bytes per read
}

// DefaultStreamOptions returns the engine's default streaming heuristics.
func DefaultStreamOptions() StreamOptions {
	return StreamOptions{
		Timeout:    180 * time.Second,
		Inactivity: 5 * time.Second,
		Debounce:   500 * time.Millisecond,
		Poll:       100 * time.Millisecond,
		BufSize:    4096,
	}
}

// StreamResult is the outcome of one streamed response.
type StreamResult struct {
	Status string // StreamCompleted or StreamTimedOut
	Output string // full accumulated text
}

// Stream accumulates the response to the last sent message, emitting
// terminal_output per read, debounced output_update batches, and
// screen_clear markers.
//
// It ends with response_complete when det reports ready, or when no bytes
// arrive for the inactivity window while non-whitespace output has
// accumulated (not every response ends in a clean prompt match). The hard
// timeout yields response_timeout with the partial output. Subprocess death
// aborts with ErrProcessDied.
func (s *Session) Stream(opts StreamOptions, det *readiness.Detector, em Emitter) (*StreamResult, error) {
	buf := make([]byte, opts.BufSize)
	var complete strings.Builder
	var batch strings.Builder

	start := s.clock.Now()
	lastData := start

	flushBatch := func() {
		if batch.Len() > 0 {
			em.OutputUpdate(batch.String())
			batch.Reset()
		}
	}

	for {
		if !s.Alive() {
			return nil, ErrProcessDied
		}

		if s.clock.Now().Sub(start) >= opts.Timeout {
			flushBatch()
			em.ResponseTimeout(complete.String())
			return &StreamResult{Status: StreamTimedOut, Output: complete.String()}, nil
		}

		n, err := s.readChunk(buf, opts.Poll)
		if err != nil {
			if !s.Alive() {
				return nil, ErrProcessDied
			}
			// Transient read failure; treat as a quiet cycle.
			s.clock.Sleep(opts.Poll)
			continue
		}

		now := s.clock.Now()

		if n > 0 {
			chunk := string(buf[:n])
			complete.WriteString(chunk)
			batch.WriteString(chunk)
			lastData = now
			s.LastActivity = now

			em.TerminalOutput(chunk)
			if readiness.ContainsClear(chunk) {
				em.ScreenClear()
			}

			if det.Scan(complete.String()) == readiness.StatusReady {
				flushBatch()
				em.ResponseComplete(complete.String())
				return &StreamResult{Status: StreamCompleted, Output: complete.String()}, nil
			}
			continue
		}

		// Quiet cycle: flush the debounce batch once the window has passed,
		// then check the completion heuristics.
		if batch.Len() > 0 && now.Sub(lastData) >= opts.Debounce {
			flushBatch()
		}

		if det.Scan(complete.String()) == readiness.StatusReady {
			flushBatch()
			em.ResponseComplete(complete.String())
			return &StreamResult{Status: StreamCompleted, Output: complete.String()}, nil
		}

		if strings.TrimSpace(complete.String()) != "" && now.Sub(lastData) >= opts.Inactivity {
			flushBatch()
			em.ResponseComplete(complete.String())
			return &StreamResult{Status: StreamCompleted, Output: complete.String()}, nil
		}
	}
}
