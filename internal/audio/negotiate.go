package audio

import "sort"

// Preferences is the user-configured ordering fed to Negotiate.
type Preferences struct {
	Encodings []Encoding
	// TargetRate is clamped into the device's supported range.
	TargetRate int
	Channels   []int
	// CaptureOverride/OutputOverride bypass negotiation for that half.
	CaptureOverride Encoding
	OutputOverride  string
}

// Parameters is the negotiated capture tuple plus the derived output format.
type Parameters struct {
	CaptureEncoding Encoding
	CaptureRate     int
	CaptureChannels int
	// OutputSampleFormat is the encoder sample format ("s16" or "s32").
	OutputSampleFormat string
}

const defaultRate = 44100

// Negotiate picks a concrete capture tuple from a capability set and a
// preference ordering. It is total: any capability set, including an empty
// one, yields a usable tuple.
func Negotiate(caps Capabilities, pref Preferences) Parameters {
	params := Parameters{
		CaptureEncoding: negotiateEncoding(caps, pref),
		CaptureRate:     negotiateRate(caps, pref.TargetRate),
		CaptureChannels: negotiateChannels(caps, pref.Channels),
	}
	params.OutputSampleFormat = outputSampleFormat(params.CaptureEncoding, pref.OutputOverride)
	return params
}

func negotiateEncoding(caps Capabilities, pref Preferences) Encoding {
	if pref.CaptureOverride != "" {
		return pref.CaptureOverride
	}

	for _, want := range pref.Encodings {
		if caps.HasEncoding(want) {
			return want
		}
	}

	// Nothing preferred is available. A working capture configuration beats
	// no configuration: take a deterministic member of whatever the device
	// offers, or the fallback encoding when the set is empty.
	if len(caps.Encodings) > 0 {
		available := make([]string, len(caps.Encodings))
		for i, e := range caps.Encodings {
			available[i] = string(e)
		}
		sort.Strings(available)
		return Encoding(available[0])
	}
	return EncS16LE
}

func negotiateRate(caps Capabilities, target int) int {
	if target <= 0 {
		target = defaultRate
	}

	// Discrete set: exact match, else nearest.
	if len(caps.Rates) > 0 {
		best := caps.Rates[0]
		for _, r := range caps.Rates {
			if r == target {
				return r
			}
			if abs(r-target) < abs(best-target) {
				best = r
			}
		}
		return best
	}

	// Closed range: clamp.
	if caps.RateMin > 0 && caps.RateMax >= caps.RateMin {
		if target < caps.RateMin {
			return caps.RateMin
		}
		if target > caps.RateMax {
			return caps.RateMax
		}
		return target
	}

	return defaultRate
}

func negotiateChannels(caps Capabilities, preferred []int) int {
	if len(caps.Channels) == 0 {
		return 1
	}
	for _, want := range preferred {
		for _, have := range caps.Channels {
			if have == want {
				return want
			}
		}
	}
	return caps.Channels[0]
}

// outputSampleFormat maps the capture encoding onto the lossless output
// encoding. Higher-bit-depth captures keep a 24/32-bit output; nothing is
// silently downgraded except encodings the encoder cannot represent, which
// fall back to 16-bit.
func outputSampleFormat(capture Encoding, override string) string {
	if override != "" {
		return override
	}
	switch capture {
	case EncS24LE, EncS243LE, EncS32LE, EncF32LE:
		return "s32"
	case EncS16LE:
		return "s16"
	default:
		return "s16"
	}
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
