package config

import (
	"fmt"
	"strings"
)

// knownEncodings are the sample encodings the pipeline can express both as a
// capture tool format and as an ffmpeg raw input format.
var knownEncodings = map[string]struct{}{
	"S16_LE":  {},
	"S24_LE":  {},
	"S24_3LE": {},
	"S32_LE":  {},
	"F32_LE":  {},
}

// Validate checks a parsed configuration and returns it unchanged on success.
func Validate(cfg Config) (Config, error) {
	if strings.TrimSpace(cfg.Capture.Device) == "" {
		return Config{}, fmt.Errorf("capture.device must not be empty")
	}
	if strings.TrimSpace(cfg.Capture.Binary) == "" {
		return Config{}, fmt.Errorf("capture.binary must not be empty")
	}
	if len(cfg.Capture.Formats) == 0 {
		return Config{}, fmt.Errorf("capture.formats must list at least one encoding")
	}
	for _, f := range cfg.Capture.Formats {
		if _, ok := knownEncodings[f]; !ok {
			return Config{}, fmt.Errorf("capture.formats: unknown encoding %q", f)
		}
	}
	if cfg.Capture.TargetRate < 8000 || cfg.Capture.TargetRate > 384000 {
		return Config{}, fmt.Errorf("capture.rate %d out of range [8000, 384000]", cfg.Capture.TargetRate)
	}
	if len(cfg.Capture.Channels) == 0 {
		return Config{}, fmt.Errorf("capture.channels must list at least one channel count")
	}
	for _, c := range cfg.Capture.Channels {
		if c < 1 || c > 8 {
			return Config{}, fmt.Errorf("capture.channels: invalid channel count %d", c)
		}
	}
	if cfg.Capture.MaxDurationS <= 0 {
		return Config{}, fmt.Errorf("capture.max_duration_s must be positive")
	}
	if enc := cfg.Capture.EncodingOverride; enc != "" {
		if _, ok := knownEncodings[enc]; !ok {
			return Config{}, fmt.Errorf("capture.encoding: unknown encoding %q", enc)
		}
	}

	if cfg.Silence.ThresholdDB >= 0 {
		return Config{}, fmt.Errorf("silence.threshold_db must be negative, got %g", cfg.Silence.ThresholdDB)
	}
	if cfg.Silence.KeepS <= 0 {
		return Config{}, fmt.Errorf("silence.keep_s must be positive, got %g", cfg.Silence.KeepS)
	}

	if cfg.Loudness.TargetI > -5 || cfg.Loudness.TargetI < -70 {
		return Config{}, fmt.Errorf("loudness.target_i %g out of range [-70, -5]", cfg.Loudness.TargetI)
	}
	if cfg.Loudness.TargetLRA <= 0 {
		return Config{}, fmt.Errorf("loudness.target_lra must be positive, got %g", cfg.Loudness.TargetLRA)
	}
	if cfg.Loudness.TargetTP > 0 {
		return Config{}, fmt.Errorf("loudness.target_tp must not be positive, got %g", cfg.Loudness.TargetTP)
	}

	if len(cfg.Clipboard.Argv) == 0 {
		return Config{}, fmt.Errorf("clipboard_cmd must not be empty")
	}
	if cfg.Notify.Enable && strings.TrimSpace(cfg.Notify.AppName) == "" {
		return Config{}, fmt.Errorf("notify.app_name must not be empty when notifications are enabled")
	}

	return cfg, nil
}
