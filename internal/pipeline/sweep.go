package pipeline

import (
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/murmur-dev/murmur/internal/proc"
)

// Sweep kills residual pipeline children left behind by an earlier crashed
// invocation. It recognizes them by their command line referencing the work
// directory, which only our capture and processor argvs do. Returns the
// number of processes signaled.
func Sweep(workDir string, logger *slog.Logger) int {
	if workDir == "" {
		return 0
	}

	entries, err := os.ReadDir("/proc")
	if err != nil {
		logger.Warn("residual sweep skipped", "error", err)
		return 0
	}

	self := os.Getpid()
	swept := 0
	for _, entry := range entries {
		pid, err := strconv.Atoi(entry.Name())
		if err != nil || pid == self {
			continue
		}

		raw, err := os.ReadFile(filepath.Join("/proc", entry.Name(), "cmdline"))
		if err != nil {
			continue
		}
		cmdline := strings.ReplaceAll(string(raw), "\x00", " ")
		if !strings.Contains(cmdline, workDir) {
			continue
		}

		handle := proc.Handle{PID: pid}
		logger.Warn("killing residual pipeline process",
			"pid", pid, "cmdline", strings.TrimSpace(cmdline))
		if err := handle.Kill(); err != nil {
			logger.Warn("residual kill failed", "pid", pid, "error", err)
			continue
		}
		swept++
	}
	return swept
}
