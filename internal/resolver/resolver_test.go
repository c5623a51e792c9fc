package resolver

import (
	"os"
	"path/filepath"
	"testing"
)

func TestResolve_OverrideWins(t *testing.T) {
	got := Resolve("/custom/claude")
	if len(got) != 1 || got[0] != "/custom/claude" {
		t.Errorf("Resolve(override) = %v, want [/custom/claude]", got)
	}
}

func TestResolve_FallbackIsCommandName(t *testing.T) {
	// With an empty PATH and no known locations, the bare name comes back
	// so the launcher can report the lookup failure itself.
	t.Setenv("PATH", t.TempDir())
	t.Setenv("HOME", t.TempDir())

	got := Resolve("")
	if len(got) == 0 {
		t.Fatal("Resolve returned empty argv")
	}
	if got[len(got)-1] != DefaultCommand {
		t.Errorf("Resolve fallback = %v, want trailing %q", got, DefaultCommand)
	}
}

func TestResolve_FindsOnPath(t *testing.T) {
	dir := t.TempDir()
	bin := filepath.Join(dir, DefaultCommand)
	if err := os.WriteFile(bin, []byte("#!/bin/sh\n"), 0755); err != nil {
		t.Fatal(err)
	}
	t.Setenv("PATH", dir)

	got := Resolve("")
	if len(got) != 1 || got[0] != bin {
		t.Errorf("Resolve = %v, want [%s]", got, bin)
	}
}

func TestResolve_UserLocalInstall(t *testing.T) {
	home := t.TempDir()
	local := filepath.Join(home, ".claude", "local")
	if err := os.MkdirAll(local, 0755); err != nil {
		t.Fatal(err)
	}
	bin := filepath.Join(local, DefaultCommand)
	if err := os.WriteFile(bin, []byte("#!/bin/sh\n"), 0755); err != nil {
		t.Fatal(err)
	}
	t.Setenv("PATH", t.TempDir())
	t.Setenv("HOME", home)

	got := Resolve("")
	if len(got) != 1 || got[0] != bin {
		t.Errorf("Resolve = %v, want [%s]", got, bin)
	}
}

func TestIsExecutable(t *testing.T) {
	dir := t.TempDir()

	exe := filepath.Join(dir, "exe")
	if err := os.WriteFile(exe, []byte("x"), 0755); err != nil {
		t.Fatal(err)
	}
	if !isExecutable(exe) {
		t.Error("0755 file should be executable")
	}

	plain := filepath.Join(dir, "plain")
	if err := os.WriteFile(plain, []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}
	if isExecutable(plain) {
		t.Error("0644 file should not be executable")
	}

	if isExecutable(dir) {
		t.Error("directory should not be executable")
	}
	if isExecutable(filepath.Join(dir, "missing")) {
		t.Error("missing path should not be executable")
	}
}
