package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Mode != ModeStructured {
		t.Errorf("Mode = %q, want %q", cfg.Mode, ModeStructured)
	}
	if cfg.Send.ChunkSize != 1024 {
		t.Errorf("ChunkSize = %d, want 1024", cfg.Send.ChunkSize)
	}
	if cfg.Timeouts.Response != 180*time.Second {
		t.Errorf("Response timeout = %v, want 180s", cfg.Timeouts.Response)
	}
	if cfg.Retry.MaxRetries != 3 {
		t.Errorf("MaxRetries = %d, want 3", cfg.Retry.MaxRetries)
	}
}

func TestLoad_MissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Timeouts.Inactivity != 5*time.Second {
		t.Errorf("Inactivity = %v, want 5s", cfg.Timeouts.Inactivity)
	}
}

func TestLoad_EmptyPathReturnsDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Mode != ModeStructured {
		t.Errorf("Mode = %q, want %q", cfg.Mode, ModeStructured)
	}
}

func TestLoad_ParsesYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := `
mode: interactive
skip_permissions: true
command:
  path: /opt/claude/bin/claude
send:
  chunk_size: 512
  inter_chunk_delay: 50ms
timeouts:
  response: 60s
retry:
  max_retries: 5
logging:
  level: debug
`
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Mode != ModeInteractive {
		t.Errorf("Mode = %q, want interactive", cfg.Mode)
	}
	if !cfg.SkipPermissions {
		t.Error("SkipPermissions should be true")
	}
	if cfg.Command.Path != "/opt/claude/bin/claude" {
		t.Errorf("Command.Path = %q", cfg.Command.Path)
	}
	if cfg.Send.ChunkSize != 512 {
		t.Errorf("ChunkSize = %d, want 512", cfg.Send.ChunkSize)
	}
	if cfg.Send.InterChunkDelay != 50*time.Millisecond {
		t.Errorf("InterChunkDelay = %v, want 50ms", cfg.Send.InterChunkDelay)
	}
	if cfg.Timeouts.Response != 60*time.Second {
		t.Errorf("Response = %v, want 60s", cfg.Timeouts.Response)
	}
	if cfg.Retry.MaxRetries != 5 {
		t.Errorf("MaxRetries = %d, want 5", cfg.Retry.MaxRetries)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Level = %q, want debug", cfg.Logging.Level)
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("mode: [unclosed"), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := Load(path); err == nil {
		t.Error("expected parse error")
	}
}

func TestValidate_FillsZeroValues(t *testing.T) {
	cfg := &Config{}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}

	if cfg.Mode != ModeStructured {
		t.Errorf("Mode = %q, want structured", cfg.Mode)
	}
	if cfg.Send.ChunkSize != 1024 {
		t.Errorf("ChunkSize = %d, want 1024", cfg.Send.ChunkSize)
	}
	if cfg.Timeouts.Poll != 100*time.Millisecond {
		t.Errorf("Poll = %v, want 100ms", cfg.Timeouts.Poll)
	}
	if cfg.Retry.MaxRetries != 3 {
		t.Errorf("MaxRetries = %d, want 3", cfg.Retry.MaxRetries)
	}
}

func TestValidate_RejectsUnknownMode(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Mode = "raw"
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for unknown mode")
	}
}

func TestValidate_WorkingDir(t *testing.T) {
	dir := t.TempDir()
	cfg := DefaultConfig()
	cfg.WorkingDir = dir
	if err := cfg.Validate(); err != nil {
		t.Errorf("existing dir should validate: %v", err)
	}
	if cfg.WorkingDir != dir {
		t.Errorf("WorkingDir = %q, want %q", cfg.WorkingDir, dir)
	}

	// An unusable working_dir is a warning, not an error: the override is
	// dropped and the inherited directory is used.
	cfg = DefaultConfig()
	cfg.WorkingDir = filepath.Join(t.TempDir(), "missing")
	if err := cfg.Validate(); err != nil {
		t.Errorf("missing working_dir should not be fatal: %v", err)
	}
	if cfg.WorkingDir != "" {
		t.Errorf("WorkingDir = %q, want cleared", cfg.WorkingDir)
	}

	file := filepath.Join(t.TempDir(), "f")
	if err := os.WriteFile(file, []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}
	cfg = DefaultConfig()
	cfg.WorkingDir = file
	if err := cfg.Validate(); err != nil {
		t.Errorf("non-directory working_dir should not be fatal: %v", err)
	}
	if cfg.WorkingDir != "" {
		t.Errorf("WorkingDir = %q, want cleared", cfg.WorkingDir)
	}
}

func TestWatcher_ReloadOnWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("logging:\n  level: info\n"), 0644); err != nil {
		t.Fatal(err)
	}

	changed := make(chan *Config, 1)
	w, err := NewWatcher(path, func(cfg *Config) {
		select {
		case changed <- cfg:
		default:
		}
	})
	if err != nil {
		t.Fatalf("NewWatcher: %v", err)
	}
	defer w.Close()

	if err := os.WriteFile(path, []byte("logging:\n  level: debug\n"), 0644); err != nil {
		t.Fatal(err)
	}

	select {
	case cfg := <-changed:
		if cfg.Logging.Level != "debug" {
			t.Errorf("reloaded level = %q, want debug", cfg.Logging.Level)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for config reload")
	}
}
