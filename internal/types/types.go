//nolint:staticcheck // too dumb on Ms vs. MS
package types

type BitDepth uint

const (
	Depth8  BitDepth = 8
	Depth16 BitDepth = 16
	Depth24 BitDepth = 24
	Depth32 BitDepth = 32
)

// PCMFormat of the original input before PCM extraction (except BitDepth, from the PCM, vs. ExpectedBitDepth,
// from the original media). EffectiveBitDepth is measured from the samples themselves and is zero when unknown.
type PCMFormat struct {
	SampleRate        int
	BitDepth          BitDepth
	Channels          uint
	ExpectedBitDepth  BitDepth
	EffectiveBitDepth BitDepth
}

// SourceBitDepth is the lowest depth the audio can be trusted to carry.
func (f PCMFormat) SourceBitDepth() BitDepth {
	depth := f.ExpectedBitDepth
	if depth == 0 {
		depth = f.BitDepth
	}

	if f.EffectiveBitDepth != 0 && f.EffectiveBitDepth < depth {
		depth = f.EffectiveBitDepth
	}

	return depth
}

// Buffer holds decoded audio, one float64 slice per channel, samples in [-1, 1].
// It is never mutated once handed to checkers.
type Buffer struct {
	Format  PCMFormat
	Samples [][]float64
	Codec   string // codec name as reported by the decoder (pcm_s16le, mp3, flac...)
	Lossy   bool
	// Tags read from the container (title, artist...), nil when there are none.
	Tags map[string]string
}

// Frames returns the number of samples per channel.
func (b *Buffer) Frames() int {
	if len(b.Samples) == 0 {
		return 0
	}

	return len(b.Samples[0])
}

// Channels returns the number of decoded channels.
func (b *Buffer) Channels() int {
	return len(b.Samples)
}

// SampleToMs converts a sample index to milliseconds, truncated.
func (b *Buffer) SampleToMs(index int) int64 {
	if b.Format.SampleRate <= 0 {
		return 0
	}

	return int64(index) * 1000 / int64(b.Format.SampleRate)
}

// DurationMs returns the duration of the buffer in milliseconds.
func (b *Buffer) DurationMs() int64 {
	return b.SampleToMs(b.Frames())
}

// DurationSeconds returns the duration as a float.
func (b *Buffer) DurationSeconds() float64 {
	if b.Format.SampleRate <= 0 {
		return 0
	}

	return float64(b.Frames()) / float64(b.Format.SampleRate)
}

// Kind identifies which class of defect an observation reports.
type Kind string

const (
	KindDigitalClipping            Kind = "digital-clipping"
	KindEditClick                  Kind = "edit-click"
	KindInstantaneousNoise         Kind = "instantaneous-noise"
	KindGroundLoopHum              Kind = "ground-loop-hum"
	KindNarrowbandNoise            Kind = "narrowband-noise"
	KindPhasing                    Kind = "phasing"
	KindNotStereo                  Kind = "not-stereo"
	KindStereoSimilarity           Kind = "stereo-similarity"
	KindStereoImbalance            Kind = "stereo-imbalance"
	KindInsufficientDynamicRange   Kind = "insufficient-dynamic-range"
	KindInsufficientDynamicVariety Kind = "insufficient-dynamics-variety"
	KindInsufficientCompression    Kind = "insufficient-compression"
	KindLongSilence                Kind = "long-silence"
	KindDCBias                     Kind = "dc-bias"
	KindEncodingQuality            Kind = "encoding-quality"
	KindDuration                   Kind = "duration"
)

func (k Kind) String() string {
	return string(k)
}

// Temporal tells whether an observation is a point in time or an interval.
type Temporal int

const (
	Instantaneous Temporal = iota
	Spanning
)

func (t Temporal) String() string {
	switch t {
	case Instantaneous:
		return "instantaneous"
	case Spanning:
		return "spanning"
	}

	return "unknown"
}

// Severity indicates how bad a detected issue is.
type Severity int

const (
	SeverityNone Severity = iota
	SeverityMild
	SeverityModerate
	SeveritySevere
)

func (s Severity) String() string {
	switch s {
	case SeverityNone:
		return "no issue"
	case SeverityMild:
		return "mild"
	case SeverityModerate:
		return "moderate"
	case SeveritySevere:
		return "severe"
	}

	return "unknown"
}

// MaxSeverity returns the worse of two severities.
func MaxSeverity(a, b Severity) Severity {
	if a > b {
		return a
	}

	return b
}

// Observation is one detected defect. Instantaneous observations have EndMs == StartMs.
type Observation struct {
	Kind     Kind
	Temporal Temporal
	StartMs  int64
	EndMs    int64
	Severity Severity
}

// DurationMs returns the covered interval, zero for instantaneous observations.
func (o Observation) DurationMs() int64 {
	if o.Temporal == Instantaneous {
		return 0
	}

	return o.EndMs - o.StartMs
}
