package session

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// RuntimeDir returns the per-user directory holding the session store and
// lock. XDG_RUNTIME_DIR is tmpfs and user-private, which is exactly the
// lifetime the toggle state wants; /tmp is the fallback.
func RuntimeDir() string {
	if runtimeDir := strings.TrimSpace(os.Getenv("XDG_RUNTIME_DIR")); runtimeDir != "" {
		return filepath.Join(runtimeDir, "murmur")
	}
	return filepath.Join(os.TempDir(), fmt.Sprintf("murmur-%d", os.Getuid()))
}

// WorkDir returns the directory for per-session working files (pipe, audio,
// transcript, pipeline log), named with the session base id as prefix.
func WorkDir() (string, error) {
	if xdg := strings.TrimSpace(os.Getenv("XDG_STATE_HOME")); xdg != "" {
		return filepath.Join(xdg, "murmur", "recordings"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory for recordings: %w", err)
	}
	return filepath.Join(home, ".local", "state", "murmur", "recordings"), nil
}
