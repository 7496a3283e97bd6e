package transcribe

import (
	"fmt"
	"os"
	"strings"
)

// WriteTranscript persists text at path with trailing newlines trimmed, so
// pasting the clipboard never submits a form by accident.
func WriteTranscript(path, text string) error {
	trimmed := strings.TrimRight(text, "\n")
	if err := os.WriteFile(path, []byte(trimmed), 0o600); err != nil {
		return fmt.Errorf("write transcript: %w", err)
	}
	return nil
}
