// Package transcribe sends finished recordings to a speech-to-text service
// and writes the resulting transcript.
package transcribe

import (
	"context"
	"errors"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/murmur-dev/murmur/internal/config"
)

// ErrNoCredential means no backend has an API key configured. The caller
// surfaces this before any recording starts, not after.
var ErrNoCredential = errors.New("no transcription API key configured")

// Backend transcribes one audio file.
type Backend interface {
	Name() string
	Transcribe(ctx context.Context, audioPath string) (string, error)
}

const requestTimeout = 120 * time.Second

func newHTTPClient() *http.Client {
	return &http.Client{Timeout: requestTimeout}
}

// Resolve picks the backend by available credential. Deepgram wins when both
// are configured; the order is fixed so behavior never depends on map
// iteration or environment accidents.
func Resolve(cfg config.TranscribeConfig) (Backend, error) {
	if key := credential(cfg.DeepgramKey, "DEEPGRAM_API_KEY"); key != "" {
		return NewDeepgram(key), nil
	}
	if key := credential(cfg.OpenAIKey, "OPENAI_API_KEY"); key != "" {
		return NewOpenAI(key), nil
	}
	return nil, ErrNoCredential
}

// HasCredential reports whether Resolve would succeed, for preflight checks.
func HasCredential(cfg config.TranscribeConfig) bool {
	return credential(cfg.DeepgramKey, "DEEPGRAM_API_KEY") != "" ||
		credential(cfg.OpenAIKey, "OPENAI_API_KEY") != ""
}

func credential(configured, envVar string) string {
	if key := strings.TrimSpace(configured); key != "" {
		return key
	}
	return strings.TrimSpace(os.Getenv(envVar))
}
