// Package bridge implements the process boundary of claude-bridge: the
// structured line-delimited JSON dispatcher over stdin/stdout, and the raw
// interactive passthrough mode.
package bridge

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"

	"github.com/google/uuid"

	"github.com/Momentum96/AreYouJ/internal/config"
	"github.com/Momentum96/AreYouJ/internal/logging"
	"github.com/Momentum96/AreYouJ/internal/protocol"
	"github.com/Momentum96/AreYouJ/internal/session"
)

// maxCommandLine bounds one inbound command line. Messages are free-form
// text, so this is well above the scanner default.
const maxCommandLine = 1 << 20

// Engine is the slice of the session supervisor the bridge drives.
// session.Supervisor implements it; tests inject fakes.
type Engine interface {
	Start() error
	Process(message string) session.Result
	Terminate() error
	UpdateTunables(cfg session.SupervisorConfig)
}

// Bridge runs the structured protocol: it owns the dispatcher loop that
// serializes inbound commands and config reloads onto one goroutine, so the
// engine never sees concurrent requests.
type Bridge struct {
	cfg     *config.Config
	engine  Engine
	emitter *protocol.Emitter
	in      io.Reader

	cfgCh chan *config.Config
}

// New creates a bridge reading commands from in and reporting through em.
func New(cfg *config.Config, engine Engine, em *protocol.Emitter, in io.Reader) *Bridge {
	return &Bridge{
		cfg:     cfg,
		engine:  engine,
		emitter: em,
		in:      in,
		cfgCh:   make(chan *config.Config, 1),
	}
}

// UpdateConfig hands a reloaded configuration to the dispatcher loop. Safe
// to call from the config watcher goroutine; only the latest pending update
// is kept.
func (b *Bridge) UpdateConfig(cfg *config.Config) {
	for {
		select {
		case b.cfgCh <- cfg:
			return
		default:
		}
		select {
		case <-b.cfgCh:
		default:
		}
	}
}

// Run starts the engine and dispatches commands until an exit command,
// stdin EOF, or a fatal startup failure. A startup failure emits a final
// error event before returning.
func (b *Bridge) Run() error {
	b.emitter.Log("info", "starting claude session")
	if err := b.engine.Start(); err != nil {
		b.emitter.Error(fmt.Sprintf("session startup failed: %v", err))
		return fmt.Errorf("startup: %w", err)
	}
	defer b.engine.Terminate()

	lines := readLines(b.in)

	for {
		select {
		case line, ok := <-lines:
			if !ok {
				slog.Info("stdin closed, shutting down")
				return nil
			}
			if b.dispatch(line) {
				return nil
			}
		case cfg := <-b.cfgCh:
			b.applyConfig(cfg)
		}
	}
}

// readLines pumps stdin lines into a channel from a single reader
// goroutine. The channel closes on EOF or read error; blank lines are
// dropped.
func readLines(r io.Reader) <-chan []byte {
	ch := make(chan []byte)
	go func() {
		defer close(ch)
		scanner := bufio.NewScanner(r)
		scanner.Buffer(make([]byte, 64*1024), maxCommandLine)
		for scanner.Scan() {
			line := scanner.Bytes()
			if len(line) == 0 {
				continue
			}
			// Scanner reuses its buffer across Scan calls.
			out := make([]byte, len(line))
			copy(out, line)
			ch <- out
		}
		if err := scanner.Err(); err != nil {
			slog.Warn("stdin read failed", slog.String("error", err.Error()))
		}
	}()
	return ch
}

// dispatch handles one command line. Returns true when the loop should end.
// Malformed lines are reported and skipped.
func (b *Bridge) dispatch(line []byte) bool {
	cmd, err := protocol.ParseCommand(line)
	if err != nil {
		slog.Warn("invalid command", slog.String("error", err.Error()))
		b.emitter.Error(err.Error())
		return false
	}

	switch cmd.Action {
	case protocol.ActionPing:
		b.emitter.Pong()

	case protocol.ActionExit:
		slog.Info("exit requested")
		return true

	case protocol.ActionSendMessage:
		id := cmd.MessageID
		if id == "" {
			id = "msg_" + uuid.NewString()[:8]
		}
		slog.Debug("processing message",
			slog.String("message_id", id),
			slog.Int("length", len(cmd.Message)),
		)
		res := b.engine.Process(cmd.Message)
		b.emitter.Result(protocol.ProcessResult{
			Status:   res.Status,
			Output:   res.Output,
			Error:    res.Error,
			Attempts: res.Attempts,
		}, id)
	}

	return false
}

// applyConfig applies a hot reload on the dispatcher goroutine. Tunables
// take effect immediately; mode and working directory require a restart.
func (b *Bridge) applyConfig(cfg *config.Config) {
	if cfg.Mode != b.cfg.Mode {
		slog.Warn("mode change requires restart",
			slog.String("current", b.cfg.Mode),
			slog.String("requested", cfg.Mode),
		)
		cfg.Mode = b.cfg.Mode
	}
	if cfg.WorkingDir != b.cfg.WorkingDir {
		slog.Warn("working_dir change requires restart",
			slog.String("current", b.cfg.WorkingDir),
			slog.String("requested", cfg.WorkingDir),
		)
		cfg.WorkingDir = b.cfg.WorkingDir
	}

	logging.Setup(cfg.Logging.Level, cfg.Logging.Sanitize)
	b.engine.UpdateTunables(SupervisorConfig(cfg))
	b.cfg = cfg
	slog.Info("configuration reloaded")
}

// SupervisorConfig maps the file configuration onto the engine's tunables.
func SupervisorConfig(cfg *config.Config) session.SupervisorConfig {
	return session.SupervisorConfig{
		SkipPermissions: cfg.SkipPermissions,
		StartupTimeout:  cfg.Timeouts.Startup,
		TerminateGrace:  cfg.Timeouts.Terminate,
		MaxRetries:      cfg.Retry.MaxRetries,
		Send: session.SendOptions{
			ChunkSize:       cfg.Send.ChunkSize,
			InterChunkDelay: cfg.Send.InterChunkDelay,
			SettleDelay:     cfg.Send.SettleDelay,
		},
		Stream: session.StreamOptions{
			Timeout:    cfg.Timeouts.Response,
			Inactivity: cfg.Timeouts.Inactivity,
			Debounce:   cfg.Timeouts.Debounce,
			Poll:       cfg.Timeouts.Poll,
			BufSize:    4096,
		},
	}
}
