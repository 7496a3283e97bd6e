package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strconv"
	"syscall"
	"time"

	"golang.org/x/sys/unix"

	"github.com/murmur-dev/murmur/internal/config"
	"github.com/murmur-dev/murmur/internal/session"
)

const (
	outputWaitTimeout = 3 * time.Second
	outputWaitPoll    = 100 * time.Millisecond
)

// Pipeline launches the two-process capture chain: the capture tool streams
// raw PCM into a named pipe and ffmpeg reads the pipe, strips silence, and
// writes the compressed session audio. Both children are detached so they
// keep recording after this invocation exits.
type Pipeline struct {
	cfg    config.Config
	logger *slog.Logger

	// ProcessorBinary is the stream processor executable, ffmpeg by default.
	ProcessorBinary string

	outputWait time.Duration
	outputPoll time.Duration
}

func New(cfg config.Config, logger *slog.Logger) *Pipeline {
	return &Pipeline{
		cfg:             cfg,
		logger:          logger,
		ProcessorBinary: "ffmpeg",
		outputWait:      outputWaitTimeout,
		outputPoll:      outputWaitPoll,
	}
}

// Started describes the launched children.
type Started struct {
	CapturePID   int
	ProcessorPID int
	// OutputSeen reports whether the processor created the audio file within
	// the startup window. False does not abort the session; it is logged so a
	// silent failure is visible immediately.
	OutputSeen bool
}

// Start creates the pipe and launches processor then capture. The processor
// goes first: a FIFO reader blocks until the writer arrives, never the
// reverse, so this order cannot deadlock.
func (p *Pipeline) Start(ctx context.Context, sess session.Session) (Started, error) {
	if err := unix.Mkfifo(sess.PipePath, 0o600); err != nil {
		return Started{}, fmt.Errorf("create pipe %s: %w", sess.PipePath, err)
	}

	logFile, err := os.OpenFile(sess.LogPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return Started{}, fmt.Errorf("open pipeline log %s: %w", sess.LogPath, err)
	}
	defer logFile.Close()

	processorPID, err := p.launch(logFile, p.processorArgv(sess))
	if err != nil {
		_ = os.Remove(sess.PipePath)
		return Started{}, fmt.Errorf("start processor: %w", err)
	}

	capturePID, err := p.launch(logFile, p.captureArgv(sess))
	if err != nil {
		_ = unix.Kill(processorPID, unix.SIGKILL)
		_ = os.Remove(sess.PipePath)
		return Started{}, fmt.Errorf("start capture: %w", err)
	}

	started := Started{
		CapturePID:   capturePID,
		ProcessorPID: processorPID,
		OutputSeen:   p.waitForOutput(ctx, sess.AudioPath),
	}
	if !started.OutputSeen {
		p.logger.Warn("processor has not created output yet",
			"audio", sess.AudioPath, "waited", p.outputWait.String())
	}

	p.logger.Info("pipeline started",
		"capture_pid", started.CapturePID,
		"processor_pid", started.ProcessorPID,
		"encoding", sess.CaptureEncoding,
		"rate", sess.CaptureRate,
		"channels", sess.CaptureChannels)
	return started, nil
}

// launch starts argv detached in its own session with stderr appended to the
// pipeline log, then releases the process so no zombie waits on us. The
// children must outlive this invocation, so no context cancellation here.
func (p *Pipeline) launch(logFile *os.File, argv []string) (int, error) {
	cmd := exec.Command(argv[0], argv[1:]...)
	cmd.Stdout = logFile
	cmd.Stderr = logFile
	cmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true}

	if err := cmd.Start(); err != nil {
		return 0, err
	}
	pid := cmd.Process.Pid
	if err := cmd.Process.Release(); err != nil {
		p.logger.Warn("release child process handle", "pid", pid, "error", err)
	}
	return pid, nil
}

// captureArgv builds the raw PCM capture command writing into the pipe. The
// duration flag is a hard backstop in case the stop invocation never comes.
func (p *Pipeline) captureArgv(sess session.Session) []string {
	capture := p.cfg.Capture
	return []string{
		capture.Binary,
		"-D", capture.Device,
		"-f", sess.CaptureEncoding,
		"-r", strconv.Itoa(sess.CaptureRate),
		"-c", strconv.Itoa(sess.CaptureChannels),
		"-t", "raw",
		"-d", strconv.Itoa(capture.MaxDurationS),
		sess.PipePath,
	}
}

// processorArgv builds the ffmpeg command reading the pipe. The raw demuxer
// needs the exact sample format, rate, and channel count because a pipe
// carries no header.
func (p *Pipeline) processorArgv(sess session.Session) []string {
	argv := []string{
		p.ProcessorBinary,
		"-hide_banner", "-nostdin", "-loglevel", "warning",
		"-f", sess.Parameters().CaptureEncoding.RawFormat(),
		"-ar", strconv.Itoa(sess.CaptureRate),
		"-ac", strconv.Itoa(sess.CaptureChannels),
		"-i", sess.PipePath,
	}
	if p.cfg.Silence.Enable {
		argv = append(argv, "-af", silenceFilter(p.cfg.Silence))
	}
	argv = append(argv,
		"-sample_fmt", sess.OutputFormat,
		"-y", sess.AudioPath,
	)
	return argv
}

func (p *Pipeline) waitForOutput(ctx context.Context, path string) bool {
	deadline := time.Now().Add(p.outputWait)
	for time.Now().Before(deadline) {
		if _, err := os.Stat(path); err == nil {
			return true
		}
		select {
		case <-ctx.Done():
			return false
		case <-time.After(p.outputPoll):
		}
	}
	_, err := os.Stat(path)
	return err == nil
}
