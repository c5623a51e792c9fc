// Package pty launches the wrapped CLI under a pseudo-terminal.
package pty

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"sync"
	"syscall"
	"time"

	"github.com/creack/pty"
)

// ErrCommandNotFound indicates the resolved executable could not be located
// or executed.
var ErrCommandNotFound = errors.New("command not found")

// Options configures process launch.
type Options struct {
	Argv []string // command and arguments; Argv[0] is the executable
	Dir  string   // initial working directory ("" = inherit)
	Env  []string // additional environment variables
	Term string   // terminal type (default: xterm-256color)
	Rows uint16   // terminal rows (default: 24)
	Cols uint16   // terminal columns (default: 120)
}

// DefaultOptions returns default launch options for the given argv.
func DefaultOptions(argv []string) Options {
	return Options{
		Argv: argv,
		Term: "xterm-256color",
		Rows: 24,
		Cols: 120,
	}
}

// Process is a subprocess attached to a PTY master.
//
// creack/pty places the child in its own session with the slave as its
// controlling terminal and closes the slave in the parent, so the process
// group can be terminated as a unit independent of ours.
type Process struct {
	cmd  *exec.Cmd
	ptmx *os.File

	mu      sync.Mutex
	closed  bool
	done    chan struct{}
	waitErr error
}

// Start spawns opts.Argv attached to a fresh PTY pair.
func Start(opts Options) (*Process, error) {
	if len(opts.Argv) == 0 {
		return nil, fmt.Errorf("%w: empty argv", ErrCommandNotFound)
	}
	if opts.Term == "" {
		opts.Term = "xterm-256color"
	}
	if opts.Rows == 0 {
		opts.Rows = 24
	}
	if opts.Cols == 0 {
		opts.Cols = 120
	}

	cmd := exec.Command(opts.Argv[0], opts.Argv[1:]...)
	if opts.Dir != "" {
		// The directory may have disappeared since config validation.
		// Dropping it keeps the launch alive in the inherited directory.
		if info, err := os.Stat(opts.Dir); err != nil || !info.IsDir() {
			slog.Warn("working directory unavailable at spawn, using inherited directory",
				slog.String("dir", opts.Dir),
			)
		} else {
			cmd.Dir = opts.Dir
		}
	}
	cmd.Env = append(os.Environ(), fmt.Sprintf("TERM=%s", opts.Term))
	cmd.Env = append(cmd.Env, opts.Env...)

	winSize := &pty.Winsize{
		Rows: opts.Rows,
		Cols: opts.Cols,
	}

	ptmx, err := pty.StartWithSize(cmd, winSize)
	if err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("%w: %s", ErrCommandNotFound, opts.Argv[0])
		}
		return nil, fmt.Errorf("spawn: %w", err)
	}

	p := &Process{
		cmd:  cmd,
		ptmx: ptmx,
		done: make(chan struct{}),
	}

	// Single reaper; Alive and Terminate both observe the done channel.
	go func() {
		p.waitErr = cmd.Wait()
		close(p.done)
	}()

	return p, nil
}

// isNotFound reports whether err means the executable could not be found.
func isNotFound(err error) bool {
	return errors.Is(err, exec.ErrNotFound) ||
		errors.Is(err, os.ErrNotExist) ||
		errors.Is(err, syscall.ENOENT)
}

// Pid returns the subprocess pid.
func (p *Process) Pid() int {
	if p.cmd.Process == nil {
		return 0
	}
	return p.cmd.Process.Pid
}

// Alive reports whether the subprocess is still running.
func (p *Process) Alive() bool {
	select {
	case <-p.done:
		return false
	default:
		return true
	}
}

// ExitErr returns the wait error once the subprocess has exited.
func (p *Process) ExitErr() error {
	select {
	case <-p.done:
		return p.waitErr
	default:
		return nil
	}
}

// Read reads from the PTY master.
func (p *Process) Read(b []byte) (int, error) {
	return p.ptmx.Read(b)
}

// Write writes to the PTY master.
func (p *Process) Write(b []byte) (int, error) {
	return p.ptmx.Write(b)
}

// WriteString writes a string to the PTY master.
func (p *Process) WriteString(s string) (int, error) {
	return p.ptmx.WriteString(s)
}

// SetReadDeadline bounds the next Read.
func (p *Process) SetReadDeadline(t time.Time) error {
	// Ignore error — not every platform supports deadlines on PTY fds.
	_ = p.ptmx.SetReadDeadline(t)
	return nil
}

// Resize resizes the PTY window.
func (p *Process) Resize(rows, cols uint16) error {
	return pty.Setsize(p.ptmx, &pty.Winsize{Rows: rows, Cols: cols})
}

// Terminate shuts the subprocess down: SIGTERM, a bounded wait, SIGKILL if
// still alive, then closes the master descriptor. Idempotent.
func (p *Process) Terminate(grace time.Duration) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.cmd.Process != nil && p.Alive() {
		// Signal errors mean the process is already gone.
		_ = p.cmd.Process.Signal(syscall.SIGTERM)

		select {
		case <-p.done:
		case <-time.After(grace):
			_ = p.cmd.Process.Kill()
			<-p.done
		}
	}

	return p.closeLocked()
}

// Close closes the PTY master without signaling the subprocess.
func (p *Process) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closeLocked()
}

func (p *Process) closeLocked() error {
	if p.closed {
		return nil
	}
	p.closed = true
	if err := p.ptmx.Close(); err != nil {
		return fmt.Errorf("close pty: %w", err)
	}
	return nil
}
