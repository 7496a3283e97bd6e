package proc

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"golang.org/x/sys/unix"
)

// Handle references a pipeline child by PID. PIDs recycle, so identity checks
// go through CommandLineMatches before any signal that could hit a stranger.
type Handle struct {
	PID int
}

// IsAlive reports whether the process still exists. Signal 0 performs the
// existence check without delivering anything; EPERM still means alive.
func (h Handle) IsAlive() bool {
	if h.PID <= 0 {
		return false
	}
	err := unix.Kill(h.PID, 0)
	if err == nil {
		return true
	}
	return errors.Is(err, unix.EPERM)
}

// Terminate sends SIGTERM, asking the process to flush and exit. A process
// that is already gone is not an error.
func (h Handle) Terminate() error {
	return h.signal(unix.SIGTERM)
}

// Kill sends SIGKILL after graceful shutdown has been given its chance.
func (h Handle) Kill() error {
	return h.signal(unix.SIGKILL)
}

func (h Handle) signal(sig unix.Signal) error {
	if h.PID <= 0 {
		return nil
	}
	if err := unix.Kill(h.PID, sig); err != nil && !errors.Is(err, unix.ESRCH) {
		return fmt.Errorf("signal pid %d: %w", h.PID, err)
	}
	return nil
}

// CommandLine returns the process command line from /proc with NUL separators
// rewritten as spaces. An empty string means the process is gone or unreadable.
func (h Handle) CommandLine() string {
	if h.PID <= 0 {
		return ""
	}
	raw, err := os.ReadFile(fmt.Sprintf("/proc/%d/cmdline", h.PID))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(strings.ReplaceAll(string(raw), "\x00", " "))
}

// CommandLineMatches reports whether the live process command line contains
// needle. A recycled PID running something unrelated fails this check.
func (h Handle) CommandLineMatches(needle string) bool {
	if needle == "" {
		return false
	}
	return strings.Contains(h.CommandLine(), needle)
}
