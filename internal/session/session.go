// Package session persists the in-progress recording across toggle
// invocations and serializes them with an advisory file lock.
//
// The store's presence is the toggle's state machine: no file means idle,
// a file means a recording is in progress.
package session

import (
	"path/filepath"
	"time"

	"github.com/murmur-dev/murmur/internal/audio"
)

// Session is the durable record shared by the start and stop invocations.
// It is created atomically on start and read-then-deleted on stop.
type Session struct {
	BaseID    string    `json:"base_id"`
	StartedAt time.Time `json:"started_at"`

	// Zero means "not running".
	CapturePID   int `json:"capture_pid"`
	ProcessorPID int `json:"processor_pid"`

	CaptureEncoding string `json:"capture_encoding"`
	CaptureRate     int    `json:"capture_rate"`
	CaptureChannels int    `json:"capture_channels"`
	OutputFormat    string `json:"output_format"`

	PipePath       string `json:"pipe_path"`
	AudioPath      string `json:"audio_path"`
	NormalizedPath string `json:"normalized_path"`
	TranscriptPath string `json:"transcript_path"`
	LogPath        string `json:"log_path"`
}

// New derives a Session and all its per-session working paths from a base
// identifier and the negotiated parameters.
func New(baseID string, workDir string, params audio.Parameters) Session {
	prefix := filepath.Join(workDir, baseID)
	return Session{
		BaseID:          baseID,
		StartedAt:       time.Now(),
		CaptureEncoding: string(params.CaptureEncoding),
		CaptureRate:     params.CaptureRate,
		CaptureChannels: params.CaptureChannels,
		OutputFormat:    params.OutputSampleFormat,
		PipePath:        prefix + ".pipe",
		AudioPath:       prefix + ".flac",
		NormalizedPath:  prefix + "-norm.flac",
		TranscriptPath:  prefix + ".txt",
		LogPath:         prefix + ".log",
	}
}

// NewBaseID returns a timestamp-derived session identifier.
func NewBaseID(now time.Time) string {
	return now.Format("20060102-150405.000")
}

// Parameters rehydrates the negotiated parameters recorded at start time, so
// the stop invocation post-processes with identical values without re-probing.
func (s Session) Parameters() audio.Parameters {
	return audio.Parameters{
		CaptureEncoding:    audio.Encoding(s.CaptureEncoding),
		CaptureRate:        s.CaptureRate,
		CaptureChannels:    s.CaptureChannels,
		OutputSampleFormat: s.OutputFormat,
	}
}
