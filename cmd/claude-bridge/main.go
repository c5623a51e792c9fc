// claude-bridge wraps the Claude CLI in a pseudo-terminal and exposes it as
// a line-delimited JSON automation protocol on stdin/stdout.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/Momentum96/AreYouJ/internal/bridge"
	"github.com/Momentum96/AreYouJ/internal/config"
	"github.com/Momentum96/AreYouJ/internal/logging"
	"github.com/Momentum96/AreYouJ/internal/protocol"
	"github.com/Momentum96/AreYouJ/internal/pty"
	"github.com/Momentum96/AreYouJ/internal/resolver"
	"github.com/Momentum96/AreYouJ/internal/session"

	"github.com/Momentum96/AreYouJ/internal/adapters/realclock"
)

// Version information - set at build time.
var (
	Version   = "0.1.0"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	var (
		configPath      string
		workingDir      string
		skipPermissions bool
		interactive     bool
		debug           bool
		showVersion     bool
	)

	flag.StringVar(&configPath, "config", "", "Path to configuration file")
	flag.StringVar(&workingDir, "working-dir", "", "Working directory for the wrapped CLI (overrides config)")
	flag.BoolVar(&skipPermissions, "skip-permissions", false, "Bypass the CLI's permission prompts")
	flag.BoolVar(&interactive, "interactive", false, "Raw passthrough mode: no JSON protocol")
	flag.BoolVar(&debug, "debug", false, "Enable debug logging")
	flag.BoolVar(&showVersion, "version", false, "Show version information")
	flag.Parse()

	if showVersion {
		fmt.Printf("claude-bridge version %s\n", Version)
		fmt.Printf("  Build time: %s\n", BuildTime)
		fmt.Printf("  Git commit: %s\n", GitCommit)
		os.Exit(0)
	}

	loadPath := configPath
	if loadPath == "" {
		loadPath = config.DefaultConfigPath()
	}

	cfg, err := config.Load(loadPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	// Command line overrides.
	if workingDir != "" {
		cfg.WorkingDir = workingDir
	}
	if skipPermissions {
		cfg.SkipPermissions = true
	}
	if interactive {
		cfg.Mode = config.ModeInteractive
	}
	if debug {
		cfg.Logging.Level = "debug"
	}

	logging.Setup(cfg.Logging.Level, cfg.Logging.Sanitize)

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
		os.Exit(1)
	}

	slog.Info("starting claude-bridge",
		slog.String("version", Version),
		slog.String("mode", cfg.Mode),
	)

	launch := launchFunc(cfg)

	if cfg.Mode == config.ModeInteractive {
		os.Exit(runInteractive(cfg, launch))
	}
	os.Exit(runStructured(cfg, launch, configPath))
}

// launchFunc builds the launcher for the wrapped CLI from the resolved
// command line and working directory.
func launchFunc(cfg *config.Config) session.LaunchFunc {
	argv := resolver.Resolve(cfg.Command.Path)
	argv = append(argv, cfg.Command.Args...)
	if cfg.SkipPermissions {
		argv = append(argv, "--dangerously-skip-permissions")
	}

	opts := pty.DefaultOptions(argv)
	opts.Dir = cfg.WorkingDir

	return func() (session.PTY, error) {
		slog.Info("spawning wrapped CLI",
			slog.String("command", argv[0]),
			slog.String("working_dir", cfg.WorkingDir),
		)
		return pty.Start(opts)
	}
}

// runStructured runs the JSON protocol: supervisor, dispatcher loop, config
// hot reload, signal handling.
func runStructured(cfg *config.Config, launch session.LaunchFunc, configPath string) int {
	emitter := protocol.NewEmitter(os.Stdout, realclock.New())
	supervisor := session.NewSupervisor(launch, emitter, bridge.SupervisorConfig(cfg))
	b := bridge.New(cfg, supervisor, emitter, os.Stdin)

	// Config hot-reload only when a file was named explicitly.
	var watcher *config.Watcher
	if configPath != "" {
		var err error
		watcher, err = config.NewWatcher(configPath, b.UpdateConfig)
		if err != nil {
			slog.Warn("config hot-reload disabled", slog.String("error", err.Error()))
		} else {
			slog.Info("config hot-reload enabled", slog.String("path", configPath))
			defer watcher.Close()
		}
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		slog.Info("received shutdown signal")
		supervisor.Terminate()
		if watcher != nil {
			watcher.Close()
		}
		os.Exit(0)
	}()

	if err := b.Run(); err != nil {
		slog.Error("bridge error", slog.String("error", err.Error()))
		return 1
	}
	return 0
}

// runInteractive runs the raw passthrough: one launch, no supervisor.
func runInteractive(cfg *config.Config, launch session.LaunchFunc) int {
	p, err := launch()
	if err != nil {
		slog.Error("launch failed", slog.String("error", err.Error()))
		return 1
	}
	defer p.Terminate(cfg.Timeouts.Terminate)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		p.Terminate(cfg.Timeouts.Terminate)
		os.Exit(0)
	}()

	if err := bridge.RunInteractive(p, os.Stdin, os.Stdout, cfg.Timeouts.Poll); err != nil {
		slog.Error("interactive bridge error", slog.String("error", err.Error()))
		return 1
	}
	return 0
}
