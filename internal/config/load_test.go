package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	loaded, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	require.NoError(t, err)
	require.False(t, loaded.Exists)
	require.Equal(t, Default(), loaded.Config)
	require.Len(t, loaded.Warnings, 1)
	require.Contains(t, loaded.Warnings[0].Message, "not found")
}

func TestLoadOverridesDefaults(t *testing.T) {
	content := `
clipboard_cmd = "xclip -selection clipboard"

[capture]
device = "hw:1,0"
rate = 48000
formats = ["S16_LE"]
max_duration_s = 600

[silence]
enable = false

[loudness]
target_i = -18.0

[transcribe]
deepgram_api_key = "dg-test"
keep_original = true

[notify]
enable = false
`
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	loaded, err := Load(path)
	require.NoError(t, err)
	require.True(t, loaded.Exists)

	cfg := loaded.Config
	require.Equal(t, "hw:1,0", cfg.Capture.Device)
	require.Equal(t, 48000, cfg.Capture.TargetRate)
	require.Equal(t, []string{"S16_LE"}, cfg.Capture.Formats)
	require.Equal(t, 600, cfg.Capture.MaxDurationS)
	require.False(t, cfg.Silence.Enable)
	require.Equal(t, -18.0, cfg.Loudness.TargetI)
	require.Equal(t, "dg-test", cfg.Transcribe.DeepgramKey)
	require.True(t, cfg.Transcribe.KeepOriginal)
	require.False(t, cfg.Notify.Enable)
	require.Equal(t, []string{"xclip", "-selection", "clipboard"}, cfg.Clipboard.Argv)

	// Untouched sections keep their defaults.
	require.Equal(t, Default().Silence.ThresholdDB, cfg.Silence.ThresholdDB)
	require.Equal(t, Default().Capture.Channels, cfg.Capture.Channels)
}

func TestParseWarnsOnUnknownKeys(t *testing.T) {
	_, warnings, err := Parse("[capture]\nbogus_key = 1\n", Default())
	require.NoError(t, err)
	require.Len(t, warnings, 1)
	require.Contains(t, warnings[0].Message, "capture.bogus_key")
}

func TestParseRejectsMalformedTOML(t *testing.T) {
	_, _, err := Parse("capture = [", Default())
	require.Error(t, err)
}

func TestLoadRejectsInvalidConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("[capture]\nrate = 100\n"), 0o600))

	_, err := Load(path)
	require.Error(t, err)
	require.Contains(t, err.Error(), "capture.rate")
}
