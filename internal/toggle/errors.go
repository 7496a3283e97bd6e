package toggle

import "errors"

// Failure classes the app layer maps to user-facing messages and exit codes.
// Lock and credential failures reuse the sentinels of the packages that
// detect them (session.ErrBusy, transcribe.ErrNoCredential).
var (
	// ErrCaptureFailed means the pipeline never produced usable audio.
	ErrCaptureFailed = errors.New("audio capture failed")

	// ErrTranscriptionFailed means the backend rejected or lost the request.
	// The recording itself is preserved on disk for retry or inspection.
	ErrTranscriptionFailed = errors.New("transcription failed")
)
