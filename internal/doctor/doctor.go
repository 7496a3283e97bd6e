// Package doctor runs readiness diagnostics for tools, credentials, audio,
// and session state.
package doctor

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/murmur-dev/murmur/internal/audio"
	"github.com/murmur-dev/murmur/internal/config"
	"github.com/murmur-dev/murmur/internal/session"
	"github.com/murmur-dev/murmur/internal/transcribe"
)

// Check is one doctor assertion result.
type Check struct {
	Name    string
	Pass    bool
	Message string
}

// Report is the full doctor output contract.
type Report struct {
	Checks []Check
}

// OK returns true when all checks pass.
func (r Report) OK() bool {
	for _, check := range r.Checks {
		if !check.Pass {
			return false
		}
	}
	return true
}

// String renders the report as user-facing text output.
func (r Report) String() string {
	var b strings.Builder
	for _, check := range r.Checks {
		status := "OK"
		if !check.Pass {
			status = "FAIL"
		}
		b.WriteString(fmt.Sprintf("[%s] %s: %s\n", status, check.Name, check.Message))
	}
	return strings.TrimSuffix(b.String(), "\n")
}

// Run executes environment/config/runtime checks for a loaded config.
func Run(ctx context.Context, cfg config.Loaded) Report {
	checks := []Check{}

	checks = append(checks, Check{
		Name:    "config",
		Pass:    true,
		Message: fmt.Sprintf("loaded %q", cfg.Path),
	})

	checks = append(checks, checkBinary(cfg.Config.Capture.Binary, "capture tool"))
	checks = append(checks, checkBinary("ffmpeg", "stream processor"))
	checks = append(checks, checkCommand(cfg.Config.Clipboard.Argv, "clipboard_cmd"))
	if cfg.Config.Notify.Enable {
		checks = append(checks, checkBinary("busctl", "desktop notifications"))
	}

	checks = append(checks, checkCredential(cfg.Config.Transcribe))
	checks = append(checks, checkDeviceProbe(ctx, cfg.Config.Capture))
	checks = append(checks, checkSessionState())

	return Report{Checks: checks}
}

// checkCommand validates that argv contains a runnable command.
func checkCommand(argv []string, name string) Check {
	if len(argv) == 0 {
		return Check{Name: name, Pass: false, Message: "command is empty"}
	}
	return checkBinary(argv[0], fmt.Sprintf("%s command", name))
}

// checkBinary validates that a binary exists in PATH.
func checkBinary(bin string, okMsg string) Check {
	path, err := exec.LookPath(bin)
	if err != nil {
		return Check{Name: bin, Pass: false, Message: fmt.Sprintf("binary not found in PATH: %s", bin)}
	}
	return Check{Name: bin, Pass: true, Message: fmt.Sprintf("found at %s (%s)", path, okMsg)}
}

// checkCredential reports which transcription backend would be used.
func checkCredential(cfg config.TranscribeConfig) Check {
	backend, err := transcribe.Resolve(cfg)
	if err != nil {
		return Check{
			Name: "transcribe.credential",
			Pass: false,
			Message: "no API key found; set deepgram_api_key/openai_api_key in the " +
				"config or DEEPGRAM_API_KEY/OPENAI_API_KEY in the environment",
		}
	}
	return Check{
		Name:    "transcribe.credential",
		Pass:    true,
		Message: fmt.Sprintf("using %s", backend.Name()),
	}
}

// checkDeviceProbe runs a live capability probe so negotiation surprises
// surface here instead of mid-recording.
func checkDeviceProbe(ctx context.Context, cfg config.CaptureConfig) Check {
	prober := audio.NewProber(cfg.Binary)
	prober.Timeout = 2 * time.Second
	caps := prober.Probe(ctx, cfg.Device)

	encodings := make([]string, len(caps.Encodings))
	for i, e := range caps.Encodings {
		encodings[i] = string(e)
	}
	return Check{
		Name: "capture.device",
		Pass: true,
		Message: fmt.Sprintf("device %q offers [%s], rates %d-%d",
			cfg.Device, strings.Join(encodings, " "), caps.RateMin, caps.RateMax),
	}
}

// checkSessionState reports whether a recording is currently in progress.
func checkSessionState() Check {
	store, err := session.NewStore(session.RuntimeDir())
	if err != nil {
		return Check{Name: "session.store", Pass: false, Message: err.Error()}
	}
	sess, active, err := store.Load()
	if err != nil {
		return Check{Name: "session.store", Pass: false, Message: err.Error()}
	}
	if active {
		return Check{
			Name:    "session.store",
			Pass:    true,
			Message: fmt.Sprintf("recording in progress (base_id=%s)", sess.BaseID),
		}
	}
	return Check{Name: "session.store", Pass: true, Message: "idle"}
}
