// Package silence finds stretches where the mixed-down signal stays below an RMS floor for longer than
// is acceptable at that position: leading, trailing, or mid-file dropouts.
package silence

import (
	"github.com/farcloser/critic/internal/audit/checker"
	"github.com/farcloser/critic/internal/features"
	"github.com/farcloser/critic/internal/types"
)

const (
	prefix        = "long_silence"
	keyWindow     = prefix + "_window_size"
	keyFloor      = prefix + "_floor"
	keyMaxStart   = prefix + "_maximum_duration_at_start"
	keyMaxDropout = prefix + "_maximum_duration_dropout"
	keyMaxEnd     = prefix + "_maximum_duration_at_end"
)

//nolint:gochecknoglobals // declarative table, effectively const
var Definition = &checker.Definition{
	Kind:     types.KindLongSilence,
	Prefix:   prefix,
	Temporal: types.Spanning,
	Usage:    "silent stretches longer than allowed at the start, in the middle or at the end",
	Enabled:  true,
	Params: []checker.Param{
		checker.WindowParam(prefix, 512),
		{
			Key:      keyFloor,
			Default:  "0.0006",
			Usage:    "window RMS below which the mixed-down signal is silent",
			Validate: checker.FloatRange(0, 1, true),
		},
		{
			Key:      keyMaxStart,
			Default:  "400",
			Usage:    "longest acceptable leading silence, in milliseconds",
			Validate: checker.IntAtLeast(1),
		},
		{
			Key:      keyMaxDropout,
			Default:  "2500",
			Usage:    "longest acceptable silence inside the file, in milliseconds",
			Validate: checker.IntAtLeast(1),
		},
		{
			Key:      keyMaxEnd,
			Default:  "1800",
			Usage:    "longest acceptable trailing silence, in milliseconds",
			Validate: checker.IntAtLeast(1),
		},
	},
	Detect: detect,
}

// Position of a silent run within the file.
type Position int

const (
	Dropout Position = iota
	Leading
	Trailing
	// Entire is a run covering every window.
	Entire
)

// Segment is a run of consecutive silent windows, end exclusive.
type Segment struct {
	StartWindow int
	EndWindow   int
	Position    Position
}

// Segments returns every run of windows whose level is below floor.
func Segments(levels []float64, floor float64) []Segment {
	var (
		segments  []Segment
		inSilence bool
		start     int
	)

	closeRun := func(end int) {
		segment := Segment{StartWindow: start, EndWindow: end, Position: Dropout}

		switch {
		case start == 0 && end == len(levels):
			segment.Position = Entire
		case start == 0:
			segment.Position = Leading
		case end == len(levels):
			segment.Position = Trailing
		}

		segments = append(segments, segment)
	}

	for index, level := range levels {
		isSilent := level < floor

		switch {
		case isSilent && !inSilence:
			inSilence = true
			start = index
		case !isSilent && inSilence:
			inSilence = false

			closeRun(index)
		}
	}

	if inSilence {
		closeRun(len(levels))
	}

	return segments
}

func detect(buffer *types.Buffer, values checker.Values) ([]types.Observation, error) {
	if buffer.Frames() == 0 {
		return nil, nil
	}

	windowSize := values.Int(keyWindow)

	windows, err := features.WindowSamples(features.MixDown(buffer.Samples), windowSize)
	if err != nil {
		return nil, err
	}

	limits := map[Position]int64{
		Dropout:  values.Int64(keyMaxDropout),
		Leading:  values.Int64(keyMaxStart),
		Trailing: values.Int64(keyMaxEnd),
		Entire:   min(values.Int64(keyMaxStart), values.Int64(keyMaxEnd)),
	}

	var found []types.Observation

	for _, segment := range Segments(features.WindowedRMS(windows), values.Float(keyFloor)) {
		span := checker.Span(
			buffer,
			types.KindLongSilence,
			segment.StartWindow*windowSize,
			min(segment.EndWindow*windowSize, buffer.Frames()),
			types.SeverityNone,
		)

		limit := float64(limits[segment.Position])

		severity, ok := checker.Scaled(limit, 2, 3).Match(float64(span.DurationMs()))
		if !ok || span.DurationMs() == 0 {
			continue
		}

		span.Severity = severity
		found = append(found, span)
	}

	return found, nil
}
