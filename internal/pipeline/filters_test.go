package pipeline

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/murmur-dev/murmur/internal/config"
)

func TestSilenceFilter(t *testing.T) {
	filter := silenceFilter(config.SilenceConfig{Enable: true, ThresholdDB: -35, KeepS: 1.0})
	require.Equal(t, "silenceremove=stop_periods=-1:stop_duration=1:stop_threshold=-35dB", filter)
}

func TestLoudnormAnalyze(t *testing.T) {
	filter := loudnormAnalyze(config.LoudnessConfig{TargetI: -16, TargetLRA: 7, TargetTP: -1.5})
	require.Equal(t, "loudnorm=I=-16:LRA=7:TP=-1.5:print_format=json", filter)
}

func TestLoudnormApplyCarriesMeasurements(t *testing.T) {
	filter := loudnormApply(
		config.LoudnessConfig{TargetI: -16, TargetLRA: 7, TargetTP: -1.5},
		LoudnessMetrics{
			InputI:       "-23.61",
			InputLRA:     "5.20",
			InputTP:      "-4.47",
			InputThresh:  "-34.13",
			TargetOffset: "0.58",
		})

	require.Contains(t, filter, "measured_I=-23.61")
	require.Contains(t, filter, "measured_LRA=5.20")
	require.Contains(t, filter, "measured_TP=-4.47")
	require.Contains(t, filter, "measured_thresh=-34.13")
	require.Contains(t, filter, "offset=0.58")
	require.Contains(t, filter, "linear=true")
}

const sampleLoudnormStderr = `
[Parsed_loudnorm_0 @ 0x5642] size=N/A time=00:00:07.43 bitrate=N/A speed= 142x
[Parsed_loudnorm_0 @ 0x5642]
{
	"input_i" : "-23.61",
	"input_tp" : "-4.47",
	"input_lra" : "5.20",
	"input_thresh" : "-34.13",
	"output_i" : "-16.58",
	"output_tp" : "-1.50",
	"output_lra" : "4.30",
	"output_thresh" : "-27.03",
	"normalization_type" : "dynamic",
	"target_offset" : "0.58"
}
`

func TestParseLoudnormOutput(t *testing.T) {
	metrics, err := parseLoudnormOutput(sampleLoudnormStderr)
	require.NoError(t, err)
	require.Equal(t, "-23.61", metrics.InputI)
	require.Equal(t, "5.20", metrics.InputLRA)
	require.Equal(t, "-4.47", metrics.InputTP)
	require.Equal(t, "-34.13", metrics.InputThresh)
	require.Equal(t, "0.58", metrics.TargetOffset)
}

func TestParseLoudnormOutputNoStats(t *testing.T) {
	_, err := parseLoudnormOutput("frame dropped\nconversion failed")
	require.Error(t, err)
}

func TestParseLoudnormOutputBadJSON(t *testing.T) {
	_, err := parseLoudnormOutput("prefix { not json }")
	require.Error(t, err)
}

func TestParseLoudnormOutputIncompleteStats(t *testing.T) {
	_, err := parseLoudnormOutput(`{"output_i": "-16.0"}`)
	require.Error(t, err)
}
