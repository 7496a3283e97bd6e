// Package output places finished transcripts on the system clipboard.
package output

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/murmur-dev/murmur/internal/config"
)

// ErrTranscriptMissing means there is no transcript text to commit: the file
// does not exist or holds only whitespace. Usually the recording was silence.
var ErrTranscriptMissing = errors.New("transcript is missing or empty")

const clipboardTimeout = 2 * time.Second

// Committer copies transcript text to the clipboard through the configured
// command (wl-copy by default), feeding the text on stdin.
type Committer struct {
	config config.Config
	logger *slog.Logger
}

func NewCommitter(cfg config.Config, logger *slog.Logger) *Committer {
	return &Committer{config: cfg, logger: logger}
}

// CommitFile reads the transcript at path and places it on the clipboard.
func (c *Committer) CommitFile(ctx context.Context, path string) error {
	content, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return ErrTranscriptMissing
		}
		return fmt.Errorf("read transcript: %w", err)
	}
	return c.Commit(ctx, string(content))
}

// Commit places text on the clipboard. Empty or whitespace-only text is
// rejected so a silent recording never clobbers clipboard contents.
func (c *Committer) Commit(ctx context.Context, text string) error {
	if strings.TrimSpace(text) == "" {
		return ErrTranscriptMissing
	}

	clipCtx, cancel := context.WithTimeout(ctx, clipboardTimeout)
	defer cancel()
	if err := runCommandWithInput(clipCtx, c.config.Clipboard.Argv, text); err != nil {
		return fmt.Errorf("set clipboard: %w", err)
	}

	c.logger.Info("transcript committed to clipboard", "chars", len(text))
	return nil
}

// runCommandWithInput executes argv with input on stdin.
func runCommandWithInput(ctx context.Context, argv []string, input string) error {
	if len(argv) == 0 {
		return fmt.Errorf("command argv cannot be empty")
	}

	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("open stdin for %s: %w", argv[0], err)
	}

	if err := cmd.Start(); err != nil {
		_ = stdin.Close()
		return fmt.Errorf("start command %s: %w", argv[0], err)
	}

	if input != "" {
		if _, err := stdin.Write([]byte(input)); err != nil {
			_ = stdin.Close()
			_ = cmd.Wait()
			return fmt.Errorf("write stdin for %s: %w", argv[0], err)
		}
	}
	_ = stdin.Close()

	if err := cmd.Wait(); err != nil {
		return fmt.Errorf("wait for %s: %w", argv[0], err)
	}
	return nil
}
