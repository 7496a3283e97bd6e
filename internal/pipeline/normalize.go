package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"

	"github.com/murmur-dev/murmur/internal/config"
	"github.com/murmur-dev/murmur/internal/session"
)

// Normalizer applies two-pass loudness normalization to finished session
// audio. Pass one measures, pass two applies the measured gain linearly.
// Normalization is strictly best-effort: any failure falls back to the
// captured audio rather than losing the recording.
type Normalizer struct {
	cfg    config.Config
	logger *slog.Logger

	Binary string
	run    func(ctx context.Context, argv []string) (string, error)
}

func NewNormalizer(cfg config.Config, logger *slog.Logger) *Normalizer {
	n := &Normalizer{cfg: cfg, logger: logger, Binary: "ffmpeg"}
	n.run = n.runCommand
	return n
}

// Normalize returns the path of the audio to transcribe: the normalized file
// when both passes succeed, the original capture otherwise.
func (n *Normalizer) Normalize(ctx context.Context, sess session.Session) string {
	if !n.cfg.Loudness.Enable {
		return sess.AudioPath
	}

	metrics, err := n.analyze(ctx, sess)
	if err != nil {
		n.logger.Warn("loudness analysis failed, using captured audio", "error", err)
		return sess.AudioPath
	}

	if err := n.apply(ctx, sess, metrics); err != nil {
		n.logger.Warn("loudness normalization failed, using captured audio", "error", err)
		_ = os.Remove(sess.NormalizedPath)
		return sess.AudioPath
	}

	if !n.cfg.Transcribe.KeepOriginal {
		_ = os.Remove(sess.AudioPath)
	}
	return sess.NormalizedPath
}

func (n *Normalizer) analyze(ctx context.Context, sess session.Session) (LoudnessMetrics, error) {
	output, err := n.run(ctx, []string{
		n.Binary, "-hide_banner", "-nostdin",
		"-i", sess.AudioPath,
		"-af", loudnormAnalyze(n.cfg.Loudness),
		"-f", "null", "-",
	})
	if err != nil {
		return LoudnessMetrics{}, fmt.Errorf("analysis pass: %w", err)
	}
	return parseLoudnormOutput(output)
}

func (n *Normalizer) apply(ctx context.Context, sess session.Session, metrics LoudnessMetrics) error {
	if _, err := n.run(ctx, []string{
		n.Binary, "-hide_banner", "-nostdin",
		"-i", sess.AudioPath,
		"-af", loudnormApply(n.cfg.Loudness, metrics),
		"-sample_fmt", sess.OutputFormat,
		"-y", sess.NormalizedPath,
	}); err != nil {
		return fmt.Errorf("apply pass: %w", err)
	}

	info, err := os.Stat(sess.NormalizedPath)
	if err != nil {
		return fmt.Errorf("normalized output missing: %w", err)
	}
	if info.Size() == 0 {
		return fmt.Errorf("normalized output is empty")
	}
	return nil
}

// runCommand runs argv and returns combined output; loudnorm prints its
// stats on stderr, so both streams are collected.
func (n *Normalizer) runCommand(ctx context.Context, argv []string) (string, error) {
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return string(output), fmt.Errorf("%s: %w", argv[0], err)
	}
	return string(output), nil
}
