// Package app wires configuration, logging, and the toggle controller into
// the command surface.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"strings"
	"time"

	"github.com/murmur-dev/murmur/internal/audio"
	"github.com/murmur-dev/murmur/internal/cli"
	"github.com/murmur-dev/murmur/internal/config"
	"github.com/murmur-dev/murmur/internal/doctor"
	"github.com/murmur-dev/murmur/internal/indicator"
	"github.com/murmur-dev/murmur/internal/logging"
	"github.com/murmur-dev/murmur/internal/output"
	"github.com/murmur-dev/murmur/internal/pipeline"
	"github.com/murmur-dev/murmur/internal/proc"
	"github.com/murmur-dev/murmur/internal/session"
	"github.com/murmur-dev/murmur/internal/toggle"
	"github.com/murmur-dev/murmur/internal/transcribe"
	"github.com/murmur-dev/murmur/internal/version"
)

type Runner struct {
	Stdout io.Writer
	Stderr io.Writer
	Logger *slog.Logger
}

func Execute(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	r := Runner{Stdout: stdout, Stderr: stderr}
	return r.Execute(ctx, args)
}

func (r Runner) Execute(ctx context.Context, args []string) int {
	parsed, err := cli.Parse(args)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n\n", err)
		fmt.Fprint(r.Stderr, cli.HelpText("murmur"))
		return 2
	}

	if parsed.ShowHelp {
		fmt.Fprint(r.Stdout, cli.HelpText("murmur"))
		return 0
	}

	if parsed.Command == cli.CommandVersion {
		fmt.Fprintln(r.Stdout, version.String())
		return 0
	}

	logRuntime, err := logging.New()
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: setup logging: %v\n", err)
		return 1
	}
	defer func() { _ = logRuntime.Close() }()

	logger := r.Logger
	if logger == nil {
		logger = logRuntime.Logger
	}

	cfgLoaded, err := config.Load(parsed.ConfigPath)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		logger.Error("load config failed", "error", err.Error())
		return 1
	}
	for _, w := range cfgLoaded.Warnings {
		fmt.Fprintf(r.Stderr, "warning: %s\n", w.Message)
		logger.Warn("config warning", "message", w.Message)
	}

	logger.Info("command start",
		"command", parsed.Command,
		"config", cfgLoaded.Path,
		"log", logRuntime.Path,
	)

	switch parsed.Command {
	case cli.CommandDoctor:
		report := doctor.Run(ctx, cfgLoaded)
		fmt.Fprintln(r.Stdout, report.String())
		if report.OK() {
			return 0
		}
		return 1
	case cli.CommandDevices:
		return r.commandDevices(ctx)
	case cli.CommandStatus:
		return r.commandStatus()
	case cli.CommandToggle:
		return r.commandToggle(ctx, cfgLoaded.Config, logger, false)
	case cli.CommandStop:
		return r.commandToggle(ctx, cfgLoaded.Config, logger, true)
	default:
		fmt.Fprintf(r.Stderr, "error: unsupported command %q\n", parsed.Command)
		return 2
	}
}

func (r Runner) commandDevices(ctx context.Context) int {
	devices, err := audio.ListDevices(ctx)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}
	if len(devices) == 0 {
		fmt.Fprintln(r.Stdout, "no audio devices found")
		return 1
	}

	for _, device := range devices {
		defaultMark := " "
		if device.Default {
			defaultMark = "*"
		}
		availability := "yes"
		if !device.Available {
			availability = "no"
		}
		muted := "no"
		if device.Muted {
			muted = "yes"
		}
		fmt.Fprintf(
			r.Stdout,
			"%s id=%s | description=%q | state=%s | available=%s | muted=%s\n",
			defaultMark,
			device.ID,
			device.Description,
			device.State,
			availability,
			muted,
		)
	}

	return 0
}

func (r Runner) commandStatus() int {
	store, err := session.NewStore(session.RuntimeDir())
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}
	sess, active, err := store.Load()
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}
	if active {
		fmt.Fprintf(r.Stdout, "recording (since %s)\n", sess.StartedAt.Format(time.RFC3339))
		return 0
	}
	fmt.Fprintln(r.Stdout, "idle")
	return 0
}

func (r Runner) commandToggle(ctx context.Context, cfg config.Config, logger *slog.Logger, stopOnly bool) int {
	// Preflight the external dependencies before the lock is even taken: a
	// missing tool or key must fail fast without touching session state.
	if code := r.preflight(cfg); code != 0 {
		return code
	}

	backend, err := transcribe.Resolve(cfg.Transcribe)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}

	store, err := session.NewStore(session.RuntimeDir())
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}
	workDir, err := session.WorkDir()
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}

	controller := toggle.NewController(cfg, logger, toggle.Deps{
		Store:      store,
		LockDir:    session.RuntimeDir(),
		WorkDir:    workDir,
		Prober:     audio.NewProber(cfg.Capture.Binary),
		Starter:    pipeline.New(cfg, logger),
		Normalizer: pipeline.NewNormalizer(cfg, logger),
		Supervisor: proc.NewSupervisor(logger),
		Backend:    backend,
		Clipboard:  output.NewCommitter(cfg, logger),
		Notifier:   indicator.NewNotifier(cfg.Notify, logger),
	})

	var result toggle.Result
	if stopOnly {
		result = controller.Stop(ctx)
	} else {
		result = controller.Toggle(ctx)
	}
	logToggleResult(logger, result)

	if result.Err != nil {
		switch {
		case errors.Is(result.Err, session.ErrBusy):
			fmt.Fprintln(r.Stderr, "error: another murmur invocation is in progress")
		case errors.Is(result.Err, output.ErrTranscriptMissing):
			fmt.Fprintln(r.Stderr, "error: no speech detected")
		default:
			fmt.Fprintf(r.Stderr, "error: %v\n", result.Err)
		}
		return 1
	}

	if result.Message != "" {
		fmt.Fprintln(r.Stdout, result.Message)
	}
	if strings.TrimSpace(result.Transcript) != "" {
		fmt.Fprintln(r.Stdout, result.Transcript)
	}
	return 0
}

// preflight verifies the external tools the toggle depends on.
func (r Runner) preflight(cfg config.Config) int {
	required := []string{cfg.Capture.Binary, "ffmpeg"}
	if len(cfg.Clipboard.Argv) > 0 {
		required = append(required, cfg.Clipboard.Argv[0])
	}

	for _, bin := range required {
		if _, err := exec.LookPath(bin); err != nil {
			fmt.Fprintf(r.Stderr, "error: required tool %q not found in PATH (run `murmur doctor`)\n", bin)
			return 1
		}
	}

	if !transcribe.HasCredential(cfg.Transcribe) {
		fmt.Fprintln(r.Stderr, "error: no transcription API key configured (run `murmur doctor`)")
		return 1
	}
	return 0
}

func logToggleResult(logger *slog.Logger, result toggle.Result) {
	if logger == nil {
		return
	}
	fields := []any{
		"state", result.State,
		"message", result.Message,
		"transcript_length", len(result.Transcript),
	}
	if result.Err != nil {
		logger.Error("toggle failed", append(fields, "error", result.Err.Error())...)
		return
	}
	logger.Info("toggle complete", fields...)
}
