// Package config resolves, parses, validates, and defaults murmur configuration.
package config

// Config is the fully materialized runtime configuration used by murmur.
type Config struct {
	Capture    CaptureConfig
	Silence    SilenceConfig
	Loudness   LoudnessConfig
	Transcribe TranscribeConfig
	Notify     NotifyConfig
	Clipboard  CommandConfig
}

// CaptureConfig controls the capture device, tool, and format preferences.
type CaptureConfig struct {
	// Device is the ALSA/Pulse device identifier handed to the capture tool.
	Device string
	// Binary is the capture tool; it must understand -D/-f/-r/-c/-d/-t raw.
	Binary string
	// Formats is the preferred sample encoding order (e.g. S24_LE, S16_LE).
	Formats []string
	// TargetRate is clamped into the device's supported rate range.
	TargetRate int
	// Channels is the preferred channel count order; mono first by default.
	Channels []int
	// MaxDurationS is the hard safety cap after which capture self-terminates.
	MaxDurationS int
	// EncodingOverride forces the capture encoding, bypassing negotiation.
	EncodingOverride string
	// OutputOverride forces the output sample format fed to the encoder.
	OutputOverride string
}

// SilenceConfig controls the silence-compression filter in the live chain.
type SilenceConfig struct {
	Enable bool
	// ThresholdDB is the energy level below which audio counts as silence.
	ThresholdDB float64
	// KeepS is the silence length every longer run is collapsed down to.
	KeepS float64
}

// LoudnessConfig controls the post-capture loudness normalization targets.
type LoudnessConfig struct {
	Enable    bool
	TargetI   float64
	TargetLRA float64
	TargetTP  float64
}

// TranscribeConfig selects the speech-to-text backend and input artifact.
type TranscribeConfig struct {
	// DeepgramKey and OpenAIKey may also come from the environment
	// (DEEPGRAM_API_KEY, OPENAI_API_KEY). Deepgram wins when both are set.
	DeepgramKey string
	OpenAIKey   string
	// KeepOriginal retains the raw captured audio on disk after the
	// normalized copy is produced. Off by default to bound disk growth.
	KeepOriginal bool
}

// NotifyConfig controls desktop notification dispatch.
type NotifyConfig struct {
	Enable  bool
	AppName string
}

// CommandConfig stores a raw command string and its parsed argv form.
type CommandConfig struct {
	Raw  string
	Argv []string
}

// Warning is a non-fatal parse/validation message.
type Warning struct {
	Message string
}
