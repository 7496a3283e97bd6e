package proc

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/murmur-dev/murmur/internal/session"
)

const (
	drainTimeout = 5 * time.Second
	pollInterval = 100 * time.Millisecond
)

// Supervisor shuts the capture pipeline down in order: the capture process
// first so the pipe sees EOF, then a bounded wait for the processor to drain
// buffered audio and finalize its output, then escalation.
type Supervisor struct {
	logger *slog.Logger

	drain time.Duration
	poll  time.Duration
}

func NewSupervisor(logger *slog.Logger) *Supervisor {
	return &Supervisor{logger: logger, drain: drainTimeout, poll: pollInterval}
}

// Stop tears down the session's children. It keeps going past individual
// failures: the worst outcome is an orphan, not a partial stop.
func (s *Supervisor) Stop(ctx context.Context, sess session.Session) error {
	capture := Handle{PID: sess.CapturePID}
	processor := Handle{PID: sess.ProcessorPID}

	if capture.IsAlive() {
		if cmdline := capture.CommandLine(); cmdline != "" && !capture.CommandLineMatches(sess.BaseID) {
			s.logger.Warn("capture pid reused by another process, skipping signal",
				"pid", capture.PID, "cmdline", cmdline)
		} else if err := capture.Terminate(); err != nil {
			s.logger.Warn("terminate capture failed", "pid", capture.PID, "error", err)
		}
	}

	if err := s.awaitExit(ctx, processor, sess.BaseID); err != nil {
		return err
	}
	return nil
}

// awaitExit polls for the processor to exit on its own after the pipe EOF,
// then SIGTERMs, polls again, and finally SIGKILLs.
func (s *Supervisor) awaitExit(ctx context.Context, processor Handle, baseID string) error {
	if !processor.IsAlive() {
		return nil
	}
	if cmdline := processor.CommandLine(); cmdline != "" && !processor.CommandLineMatches(baseID) {
		s.logger.Warn("processor pid reused by another process, leaving it alone",
			"pid", processor.PID, "cmdline", cmdline)
		return nil
	}

	if s.pollUntilDead(ctx, processor, s.drain) {
		return nil
	}

	s.logger.Warn("processor still running after drain window, terminating", "pid", processor.PID)
	if err := processor.Terminate(); err != nil {
		s.logger.Warn("terminate processor failed", "pid", processor.PID, "error", err)
	}
	if s.pollUntilDead(ctx, processor, s.drain) {
		return nil
	}

	s.logger.Warn("processor ignored SIGTERM, killing", "pid", processor.PID)
	if err := processor.Kill(); err != nil {
		s.logger.Warn("kill processor failed", "pid", processor.PID, "error", err)
	}
	s.pollUntilDead(ctx, processor, s.drain)
	return nil
}

func (s *Supervisor) pollUntilDead(ctx context.Context, h Handle, window time.Duration) bool {
	deadline := time.Now().Add(window)
	for time.Now().Before(deadline) {
		if !h.IsAlive() {
			return true
		}
		select {
		case <-ctx.Done():
			return !h.IsAlive()
		case <-time.After(s.poll):
		}
	}
	return !h.IsAlive()
}

// Stale reports whether a persisted session is dead weight: both children
// gone and no audio ever materialized, neither the raw capture nor a
// normalized copy left behind by an earlier stop. A session with either file
// on disk is retryable, not stale. Stop-side handling clears stale sessions
// and the toggle starts fresh instead of failing.
func (s *Supervisor) Stale(sess session.Session) bool {
	capture := Handle{PID: sess.CapturePID}
	processor := Handle{PID: sess.ProcessorPID}
	if capture.IsAlive() || processor.IsAlive() {
		return false
	}
	return !hasOutput(sess.AudioPath) && !hasOutput(sess.NormalizedPath)
}

func hasOutput(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Size() > 0
}
