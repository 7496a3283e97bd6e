package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
)

// Loaded captures resolved config path, parsed values, and non-fatal warnings.
type Loaded struct {
	Path     string
	Config   Config
	Warnings []Warning
	Exists   bool
}

// fileConfig is the TOML wire shape. Pointer fields distinguish "absent"
// from zero so file values only override what they actually set.
type fileConfig struct {
	Capture struct {
		Device       *string  `toml:"device"`
		Binary       *string  `toml:"binary"`
		Formats      []string `toml:"formats"`
		Rate         *int     `toml:"rate"`
		Channels     []int    `toml:"channels"`
		MaxDurationS *int     `toml:"max_duration_s"`
		Encoding     *string  `toml:"encoding"`
		Output       *string  `toml:"output"`
	} `toml:"capture"`
	Silence struct {
		Enable      *bool    `toml:"enable"`
		ThresholdDB *float64 `toml:"threshold_db"`
		KeepS       *float64 `toml:"keep_s"`
	} `toml:"silence"`
	Loudness struct {
		Enable    *bool    `toml:"enable"`
		TargetI   *float64 `toml:"target_i"`
		TargetLRA *float64 `toml:"target_lra"`
		TargetTP  *float64 `toml:"target_tp"`
	} `toml:"loudness"`
	Transcribe struct {
		DeepgramKey  *string `toml:"deepgram_api_key"`
		OpenAIKey    *string `toml:"openai_api_key"`
		KeepOriginal *bool   `toml:"keep_original"`
	} `toml:"transcribe"`
	Notify struct {
		Enable  *bool   `toml:"enable"`
		AppName *string `toml:"app_name"`
	} `toml:"notify"`
	ClipboardCmd *string `toml:"clipboard_cmd"`
}

// Load resolves, reads, parses, and validates the runtime configuration.
func Load(explicitPath string) (Loaded, error) {
	resolvedPath, err := ResolvePath(explicitPath)
	if err != nil {
		return Loaded{}, err
	}

	base := Default()
	content, err := os.ReadFile(resolvedPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Loaded{
				Path:   resolvedPath,
				Config: base,
				Warnings: []Warning{{
					Message: fmt.Sprintf("config file %q not found; using defaults", resolvedPath),
				}},
				Exists: false,
			}, nil
		}
		return Loaded{}, fmt.Errorf("read config %q: %w", resolvedPath, err)
	}

	cfg, warnings, err := Parse(string(content), base)
	if err != nil {
		return Loaded{}, fmt.Errorf("parse config %q: %w", resolvedPath, err)
	}

	validated, err := Validate(cfg)
	if err != nil {
		return Loaded{}, fmt.Errorf("validate config %q: %w", resolvedPath, err)
	}

	return Loaded{
		Path:     resolvedPath,
		Config:   validated,
		Warnings: warnings,
		Exists:   true,
	}, nil
}

// Parse decodes TOML content over a base configuration. Unknown keys are
// surfaced as warnings, not errors.
func Parse(content string, base Config) (Config, []Warning, error) {
	var fc fileConfig
	meta, err := toml.Decode(content, &fc)
	if err != nil {
		return Config{}, nil, err
	}

	var warnings []Warning
	for _, key := range meta.Undecoded() {
		warnings = append(warnings, Warning{
			Message: fmt.Sprintf("unknown config key %q ignored", key.String()),
		})
	}

	cfg := base
	applyString(&cfg.Capture.Device, fc.Capture.Device)
	applyString(&cfg.Capture.Binary, fc.Capture.Binary)
	if len(fc.Capture.Formats) > 0 {
		cfg.Capture.Formats = fc.Capture.Formats
	}
	applyInt(&cfg.Capture.TargetRate, fc.Capture.Rate)
	if len(fc.Capture.Channels) > 0 {
		cfg.Capture.Channels = fc.Capture.Channels
	}
	applyInt(&cfg.Capture.MaxDurationS, fc.Capture.MaxDurationS)
	applyString(&cfg.Capture.EncodingOverride, fc.Capture.Encoding)
	applyString(&cfg.Capture.OutputOverride, fc.Capture.Output)

	applyBool(&cfg.Silence.Enable, fc.Silence.Enable)
	applyFloat(&cfg.Silence.ThresholdDB, fc.Silence.ThresholdDB)
	applyFloat(&cfg.Silence.KeepS, fc.Silence.KeepS)

	applyBool(&cfg.Loudness.Enable, fc.Loudness.Enable)
	applyFloat(&cfg.Loudness.TargetI, fc.Loudness.TargetI)
	applyFloat(&cfg.Loudness.TargetLRA, fc.Loudness.TargetLRA)
	applyFloat(&cfg.Loudness.TargetTP, fc.Loudness.TargetTP)

	applyString(&cfg.Transcribe.DeepgramKey, fc.Transcribe.DeepgramKey)
	applyString(&cfg.Transcribe.OpenAIKey, fc.Transcribe.OpenAIKey)
	applyBool(&cfg.Transcribe.KeepOriginal, fc.Transcribe.KeepOriginal)

	applyBool(&cfg.Notify.Enable, fc.Notify.Enable)
	applyString(&cfg.Notify.AppName, fc.Notify.AppName)

	if fc.ClipboardCmd != nil {
		raw := strings.TrimSpace(*fc.ClipboardCmd)
		argv, err := parseArgv(raw)
		if err != nil {
			return Config{}, warnings, fmt.Errorf("clipboard_cmd: %w", err)
		}
		cfg.Clipboard = CommandConfig{Raw: raw, Argv: argv}
	}

	return cfg, warnings, nil
}

func applyString(dst *string, src *string) {
	if src != nil {
		*dst = *src
	}
}

func applyInt(dst *int, src *int) {
	if src != nil {
		*dst = *src
	}
}

func applyBool(dst *bool, src *bool) {
	if src != nil {
		*dst = *src
	}
}

func applyFloat(dst *float64, src *float64) {
	if src != nil {
		*dst = *src
	}
}
