// Package resolver locates the wrapped CLI executable.
package resolver

import (
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
)

// DefaultCommand is the executable name looked up when no override is set.
const DefaultCommand = "claude"

// knownLocations are checked after $PATH, in order.
var knownLocations = []string{
	"/usr/local/bin/claude",
	"/opt/homebrew/bin/claude",
}

// Resolve returns the argv prefix used to launch the wrapped CLI.
//
// An explicit override wins. On Windows the CLI must run under WSL because
// PTY allocation needs a Unix environment. Otherwise $PATH is consulted,
// then a list of well-known install locations, and finally the bare command
// name is returned so the launcher surfaces the lookup failure.
func Resolve(override string) []string {
	if override != "" {
		return []string{override}
	}

	if runtime.GOOS == "windows" {
		return []string{"wsl", DefaultCommand}
	}

	if path, err := exec.LookPath(DefaultCommand); err == nil {
		return []string{path}
	}

	if home, err := os.UserHomeDir(); err == nil {
		local := filepath.Join(home, ".claude", "local", DefaultCommand)
		if isExecutable(local) {
			return []string{local}
		}
	}

	for _, path := range knownLocations {
		if isExecutable(path) {
			return []string{path}
		}
	}

	return []string{DefaultCommand}
}

// isExecutable reports whether path exists and is executable by the caller.
func isExecutable(path string) bool {
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return false
	}
	return info.Mode()&0111 != 0
}
