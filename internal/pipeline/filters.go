package pipeline

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/murmur-dev/murmur/internal/config"
)

// silenceFilter builds the ffmpeg silenceremove expression that strips pauses
// from the whole stream. stop_periods=-1 removes every silent stretch, not
// just trailing silence; stop_duration keeps short natural gaps intact.
func silenceFilter(cfg config.SilenceConfig) string {
	return fmt.Sprintf("silenceremove=stop_periods=-1:stop_duration=%g:stop_threshold=%gdB",
		cfg.KeepS, cfg.ThresholdDB)
}

// loudnormAnalyze builds the first-pass loudnorm filter that only measures.
func loudnormAnalyze(cfg config.LoudnessConfig) string {
	return fmt.Sprintf("loudnorm=I=%g:LRA=%g:TP=%g:print_format=json",
		cfg.TargetI, cfg.TargetLRA, cfg.TargetTP)
}

// loudnormApply builds the second-pass filter fed with first-pass
// measurements so the gain stays linear instead of dynamic.
func loudnormApply(cfg config.LoudnessConfig, m LoudnessMetrics) string {
	return fmt.Sprintf(
		"loudnorm=I=%g:LRA=%g:TP=%g:measured_I=%s:measured_LRA=%s:measured_TP=%s:measured_thresh=%s:offset=%s:linear=true",
		cfg.TargetI, cfg.TargetLRA, cfg.TargetTP,
		m.InputI, m.InputLRA, m.InputTP, m.InputThresh, m.TargetOffset)
}

// LoudnessMetrics is the JSON block loudnorm prints on stderr after the
// analysis pass. ffmpeg emits the numbers as strings.
type LoudnessMetrics struct {
	InputI       string `json:"input_i"`
	InputLRA     string `json:"input_lra"`
	InputTP      string `json:"input_tp"`
	InputThresh  string `json:"input_thresh"`
	TargetOffset string `json:"target_offset"`
}

// parseLoudnormOutput extracts the metrics object from ffmpeg stderr. The
// JSON block is the last {...} region because loudnorm prints it at exit.
func parseLoudnormOutput(stderr string) (LoudnessMetrics, error) {
	open := strings.LastIndex(stderr, "{")
	closing := strings.LastIndex(stderr, "}")
	if open < 0 || closing < open {
		return LoudnessMetrics{}, fmt.Errorf("no loudnorm stats in analysis output")
	}

	var metrics LoudnessMetrics
	if err := json.Unmarshal([]byte(stderr[open:closing+1]), &metrics); err != nil {
		return LoudnessMetrics{}, fmt.Errorf("decode loudnorm stats: %w", err)
	}
	if metrics.InputI == "" || metrics.InputTP == "" {
		return LoudnessMetrics{}, fmt.Errorf("loudnorm stats incomplete")
	}
	return metrics, nil
}
