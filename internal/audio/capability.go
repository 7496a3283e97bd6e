// Package audio handles capture capability probing, format negotiation, and
// input device discovery.
package audio

// Encoding is a capture sample encoding in ALSA naming (S16_LE, S24_LE, ...).
type Encoding string

const (
	EncS16LE  Encoding = "S16_LE"
	EncS24LE  Encoding = "S24_LE"
	EncS243LE Encoding = "S24_3LE"
	EncS32LE  Encoding = "S32_LE"
	EncF32LE  Encoding = "F32_LE"
)

// Capabilities is what one capture device reports it can produce. Rates may
// be a closed range, a discrete set, or both degenerate (empty probe).
type Capabilities struct {
	Encodings []Encoding
	RateMin   int
	RateMax   int
	Rates     []int
	Channels  []int
}

// HasEncoding reports whether enc appears in the capability set.
func (c Capabilities) HasEncoding(enc Encoding) bool {
	for _, e := range c.Encodings {
		if e == enc {
			return true
		}
	}
	return false
}

// FallbackCapabilities is the safe default used when the device cannot be
// queried: 16-bit little-endian mono at 44.1kHz works on effectively any
// capture path.
func FallbackCapabilities() Capabilities {
	return Capabilities{
		Encodings: []Encoding{EncS16LE},
		RateMin:   44100,
		RateMax:   44100,
		Channels:  []int{1},
	}
}

// RawFormat returns the ffmpeg demuxer name for raw samples in this encoding.
func (e Encoding) RawFormat() string {
	switch e {
	case EncS16LE:
		return "s16le"
	case EncS243LE:
		return "s24le"
	// ALSA S24_LE is 24 bits LSB-justified in a 32-bit container.
	case EncS24LE, EncS32LE:
		return "s32le"
	case EncF32LE:
		return "f32le"
	default:
		return "s16le"
	}
}

// BitDepth returns the effective sample bit depth of the encoding.
func (e Encoding) BitDepth() int {
	switch e {
	case EncS16LE:
		return 16
	case EncS24LE, EncS243LE:
		return 24
	case EncS32LE, EncF32LE:
		return 32
	default:
		return 16
	}
}
