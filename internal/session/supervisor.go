package session

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/Momentum96/AreYouJ/internal/adapters/realclock"
	"github.com/Momentum96/AreYouJ/internal/ports"
	"github.com/Momentum96/AreYouJ/internal/readiness"
)

// ErrRestartFailed indicates a dead session could not be relaunched. It is
// terminal for the current request; later requests may restart again.
var ErrRestartFailed = errors.New("session restart failed")

// ErrEmptyResponse indicates a stream finished with no usable output.
var ErrEmptyResponse = errors.New("empty response")

// LaunchFunc spawns the wrapped CLI and returns its PTY handle.
type LaunchFunc func() (PTY, error)

// SupervisorConfig holds the supervisor's tunables.
type SupervisorConfig struct {
	SkipPermissions bool
	StartupTimeout  time.Duration // bound on reaching initial readiness
	TerminateGrace  time.Duration // graceful shutdown bound before SIGKILL
	MaxRetries      int           // attempts per logical request
	Send            SendOptions
	Stream          StreamOptions
}

// DefaultSupervisorConfig returns the engine defaults.
func DefaultSupervisorConfig() SupervisorConfig {
	return SupervisorConfig{
		StartupTimeout: 30 * time.Second,
		TerminateGrace: 5 * time.Second,
		MaxRetries:     3,
		Send:           DefaultSendOptions(),
		Stream:         DefaultStreamOptions(),
	}
}

// Result is the outcome of one logical request, surfaced to the caller as
// the result event payload.
type Result struct {
	Status   string `json:"status"` // "completed", "timeout", or "error"
	Output   string `json:"output,omitempty"`
	Error    string `json:"error,omitempty"`
	Attempts int    `json:"attempts"`
}

// Supervisor owns the session lifecycle and drives one request at a time
// through send + stream, with bounded retries and full restart on
// subprocess death.
type Supervisor struct {
	cfg     SupervisorConfig
	launch  LaunchFunc
	emitter Emitter
	clock   ports.Clock

	sessionDet  *readiness.Detector
	responseDet *readiness.Detector

	session *Session

	// Test seams; default to Session.Send and Session.Stream.
	send   func(s *Session, message string) error
	stream func(s *Session) (*StreamResult, error)
}

// SupervisorOption configures a Supervisor.
type SupervisorOption func(*Supervisor)

// WithClock sets the clock used by the Supervisor and its sessions.
func WithClock(clock ports.Clock) SupervisorOption {
	return func(sv *Supervisor) {
		sv.clock = clock
	}
}

// WithSendFunc overrides message delivery, for tests.
func WithSendFunc(fn func(s *Session, message string) error) SupervisorOption {
	return func(sv *Supervisor) {
		sv.send = fn
	}
}

// WithStreamFunc overrides response streaming, for tests.
func WithStreamFunc(fn func(s *Session) (*StreamResult, error)) SupervisorOption {
	return func(sv *Supervisor) {
		sv.stream = fn
	}
}

// NewSupervisor creates a supervisor that launches sessions via launch and
// reports events through em.
func NewSupervisor(launch LaunchFunc, em Emitter, cfg SupervisorConfig, opts ...SupervisorOption) *Supervisor {
	sv := &Supervisor{
		cfg:         cfg,
		launch:      launch,
		emitter:     em,
		clock:       realclock.New(),
		sessionDet:  readiness.NewSessionDetector(),
		responseDet: readiness.NewResponseDetector(),
	}

	for _, opt := range opts {
		opt(sv)
	}

	if sv.send == nil {
		sv.send = func(s *Session, message string) error {
			return s.Send(message, sv.cfg.Send)
		}
	}
	if sv.stream == nil {
		sv.stream = func(s *Session) (*StreamResult, error) {
			return s.Stream(sv.cfg.Stream, sv.responseDet, sv.emitter)
		}
	}

	return sv
}

// Session returns the current session, or nil before Start.
func (sv *Supervisor) Session() *Session {
	return sv.session
}

// UpdateTunables applies hot-reloadable settings: pacing, timeouts, and the
// retry budget. Callers must invoke it from the dispatcher goroutine so it
// never races an in-flight request. SkipPermissions is session-bound and
// deliberately not touched.
func (sv *Supervisor) UpdateTunables(cfg SupervisorConfig) {
	sv.cfg.StartupTimeout = cfg.StartupTimeout
	sv.cfg.TerminateGrace = cfg.TerminateGrace
	sv.cfg.MaxRetries = cfg.MaxRetries
	sv.cfg.Send = cfg.Send
	sv.cfg.Stream = cfg.Stream
}

// Start launches the subprocess and waits for the initial prompt. Failure
// to reach readiness within the startup timeout is fatal, not retried.
func (sv *Supervisor) Start() error {
	pty, err := sv.launch()
	if err != nil {
		return fmt.Errorf("launch: %w", err)
	}

	sv.session = New(pty, sv.clock, sv.cfg.SkipPermissions)
	slog.Info("session starting", slog.String("session_id", sv.session.ID))

	if err := sv.waitForReady(); err != nil {
		sv.session.Terminate(sv.cfg.TerminateGrace)
		return err
	}

	sv.session.State = StateReady
	sv.emitter.Ready()
	slog.Info("session ready", slog.String("session_id", sv.session.ID))
	return nil
}

// waitForReady consumes startup output until the session detector declares
// the initial prompt, bounded by the startup timeout.
func (sv *Supervisor) waitForReady() error {
	buf := make([]byte, sv.cfg.Stream.BufSize)
	var out strings.Builder
	deadline := sv.clock.Now().Add(sv.cfg.StartupTimeout)

	for sv.clock.Now().Before(deadline) {
		if !sv.session.Alive() {
			return fmt.Errorf("subprocess exited during startup")
		}

		n, err := sv.session.readChunk(buf, sv.cfg.Stream.Poll)
		if err != nil {
			if !sv.session.Alive() {
				return fmt.Errorf("subprocess exited during startup")
			}
			sv.clock.Sleep(sv.cfg.Stream.Poll)
			continue
		}

		if n > 0 {
			chunk := string(buf[:n])
			out.WriteString(chunk)
			sv.emitter.TerminalOutput(chunk)
			if readiness.ContainsClear(chunk) {
				sv.emitter.ScreenClear()
			}
		}

		if sv.sessionDet.Scan(out.String()) == readiness.StatusReady {
			return nil
		}
	}

	return fmt.Errorf("initial readiness not reached within %v", sv.cfg.StartupTimeout)
}

// restart tears the dead session down and brings up a fresh one, including
// the initial readiness wait.
func (sv *Supervisor) restart() error {
	if sv.session != nil {
		sv.session.State = StateCrashed
		sv.session.Terminate(sv.cfg.TerminateGrace)
	}
	return sv.Start()
}

// Terminate shuts the current session down. Idempotent.
func (sv *Supervisor) Terminate() error {
	if sv.session == nil {
		return nil
	}
	return sv.session.Terminate(sv.cfg.TerminateGrace)
}

// Process drives one logical request: restart if the subprocess is dead,
// send the message, stream the response; retry transient failures with
// exponential backoff up to MaxRetries attempts. Restart failure ends the
// request immediately.
func (sv *Supervisor) Process(message string) Result {
	if sv.session != nil && sv.session.State == StateBusy {
		return Result{Status: "error", Error: "another request is in flight"}
	}

	attempts := 0
	var streamed *StreamResult

	op := func() error {
		attempts++

		if sv.session == nil || !sv.session.Alive() {
			slog.Warn("subprocess dead, attempting restart",
				slog.Int("attempt", attempts),
			)
			if err := sv.restart(); err != nil {
				return backoff.Permanent(fmt.Errorf("%w: %v", ErrRestartFailed, err))
			}
		}

		if err := sv.send(sv.session, message); err != nil {
			return fmt.Errorf("send: %w", err)
		}

		sv.session.State = StateBusy
		res, err := sv.stream(sv.session)
		if err != nil {
			sv.session.State = StateCrashed
			return fmt.Errorf("stream: %w", err)
		}
		sv.session.State = StateReady

		if strings.TrimSpace(res.Output) == "" {
			return ErrEmptyResponse
		}

		streamed = res
		return nil
	}

	notify := func(err error, wait time.Duration) {
		slog.Warn("request attempt failed, backing off",
			slog.Int("attempt", attempts),
			slog.String("error", err.Error()),
			slog.Duration("wait", wait),
		)
	}

	err := backoff.RetryNotifyWithTimer(op, sv.newBackOff(), notify, newClockTimer(sv.clock))
	if err != nil {
		return Result{Status: "error", Error: err.Error(), Attempts: attempts}
	}

	return Result{Status: streamed.Status, Output: streamed.Output, Attempts: attempts}
}

// newBackOff builds the per-request retry schedule: 1s, 2s, 4s, ... with no
// jitter, capped at MaxRetries total attempts.
func (sv *Supervisor) newBackOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = time.Second
	b.RandomizationFactor = 0
	b.Multiplier = 2
	b.MaxInterval = time.Minute
	b.MaxElapsedTime = 0

	retries := sv.cfg.MaxRetries - 1
	if retries < 0 {
		retries = 0
	}
	return backoff.WithMaxRetries(b, uint64(retries))
}

// clockTimer adapts ports.Clock to backoff.Timer so retry waits follow the
// injected clock.
type clockTimer struct {
	clock ports.Clock
	ch    <-chan time.Time
}

func newClockTimer(clock ports.Clock) *clockTimer {
	return &clockTimer{clock: clock}
}

func (t *clockTimer) Start(d time.Duration) {
	t.ch = t.clock.After(d)
}

func (t *clockTimer) C() <-chan time.Time {
	return t.ch
}

func (t *clockTimer) Stop() {}
