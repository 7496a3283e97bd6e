package audio

import (
	"context"
	"fmt"
	"os/exec"
	"sort"
	"strconv"
	"strings"
	"time"
)

// probeTimeout bounds the hardware parameter query. The capture tool opening
// a dead or claimed device can hang, and the toggle must stay responsive.
const probeTimeout = 1500 * time.Millisecond

// Prober queries a capture device for its supported formats, rates, and
// channel counts by running the capture tool's hardware-parameter dump.
type Prober struct {
	Binary  string
	Timeout time.Duration

	// run is swappable for tests.
	run func(ctx context.Context, name string, args ...string) ([]byte, error)
}

// NewProber builds a prober around the configured capture tool.
func NewProber(binary string) *Prober {
	return &Prober{
		Binary:  binary,
		Timeout: probeTimeout,
		run: func(ctx context.Context, name string, args ...string) ([]byte, error) {
			// The dump goes to stderr and the tool exits non-zero after
			// printing it; the output is what matters.
			out, err := exec.CommandContext(ctx, name, args...).CombinedOutput()
			if len(out) > 0 {
				return out, nil
			}
			return out, err
		},
	}
}

// Probe returns the device's capability set, or the documented fallback when
// the query times out or its output cannot be parsed. It never fails.
func (p *Prober) Probe(ctx context.Context, device string) Capabilities {
	timeout := p.Timeout
	if timeout <= 0 {
		timeout = probeTimeout
	}
	queryCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	out, err := p.run(queryCtx, p.Binary, "-D", device, "--dump-hw-params", "-d", "1", "/dev/null")
	if err != nil {
		return FallbackCapabilities()
	}

	caps, err := parseHWParams(string(out))
	if err != nil {
		return FallbackCapabilities()
	}
	return caps
}

// parseHWParams extracts FORMAT/RATE/CHANNELS lines from a hw-params dump.
//
// Typical input:
//
//	FORMAT:  S16_LE S24_3LE S32_LE
//	RATE: [8000 192000]
//	CHANNELS: [1 2]
func parseHWParams(text string) (Capabilities, error) {
	var caps Capabilities

	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		key, value, found := strings.Cut(line, ":")
		if !found {
			continue
		}
		value = strings.TrimSpace(value)

		switch strings.TrimSpace(key) {
		case "FORMAT":
			for _, f := range strings.Fields(value) {
				caps.Encodings = append(caps.Encodings, Encoding(f))
			}
		case "RATE":
			min, max, discrete, err := parseIntSpec(value)
			if err != nil {
				return Capabilities{}, fmt.Errorf("RATE: %w", err)
			}
			caps.RateMin, caps.RateMax = min, max
			caps.Rates = discrete
		case "CHANNELS":
			min, max, discrete, err := parseIntSpec(value)
			if err != nil {
				return Capabilities{}, fmt.Errorf("CHANNELS: %w", err)
			}
			if len(discrete) > 0 {
				caps.Channels = discrete
			} else {
				for c := min; c <= max && c-min < 8; c++ {
					caps.Channels = append(caps.Channels, c)
				}
			}
		}
	}

	if len(caps.Encodings) == 0 {
		return Capabilities{}, fmt.Errorf("no FORMAT line in hw-params output")
	}
	return caps, nil
}

// parseIntSpec parses either a closed range "[8000 192000]", a single value
// "44100", or a discrete set "44100 48000". Interval endpoints may carry
// open-interval parentheses, e.g. "(8000 192000]".
func parseIntSpec(value string) (min int, max int, discrete []int, err error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, 0, nil, fmt.Errorf("empty value")
	}

	if strings.HasPrefix(value, "[") || strings.HasPrefix(value, "(") {
		trimmed := strings.Trim(value, "[]() ")
		fields := strings.Fields(trimmed)
		if len(fields) != 2 {
			return 0, 0, nil, fmt.Errorf("malformed interval %q", value)
		}
		min, err = strconv.Atoi(fields[0])
		if err != nil {
			return 0, 0, nil, fmt.Errorf("interval lower bound %q", fields[0])
		}
		max, err = strconv.Atoi(fields[1])
		if err != nil {
			return 0, 0, nil, fmt.Errorf("interval upper bound %q", fields[1])
		}
		if max < min {
			return 0, 0, nil, fmt.Errorf("inverted interval %q", value)
		}
		return min, max, nil, nil
	}

	for _, f := range strings.Fields(value) {
		n, convErr := strconv.Atoi(f)
		if convErr != nil {
			return 0, 0, nil, fmt.Errorf("discrete value %q", f)
		}
		discrete = append(discrete, n)
	}
	sort.Ints(discrete)
	return discrete[0], discrete[len(discrete)-1], discrete, nil
}
