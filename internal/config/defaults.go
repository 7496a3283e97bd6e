package config

// Default returns the canonical runtime configuration used when no file is present.
func Default() Config {
	clipboard := "wl-copy --trim-newline"

	return Config{
		Capture: CaptureConfig{
			Device:       "default",
			Binary:       "arecord",
			Formats:      []string{"S24_LE", "S16_LE"},
			TargetRate:   44100,
			Channels:     []int{1, 2},
			MaxDurationS: 3600,
		},
		Silence: SilenceConfig{
			Enable:      true,
			ThresholdDB: -35,
			KeepS:       1.0,
		},
		Loudness: LoudnessConfig{
			Enable:    true,
			TargetI:   -16,
			TargetLRA: 7,
			TargetTP:  -1.5,
		},
		Transcribe: TranscribeConfig{},
		Notify: NotifyConfig{
			Enable:  true,
			AppName: "murmur",
		},
		Clipboard: CommandConfig{Raw: clipboard, Argv: mustParseArgv(clipboard)},
	}
}
