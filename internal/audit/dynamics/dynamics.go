// Package dynamics checks level and loudness movement: how loud a channel ever gets, and how much its
// windowed RMS varies over time, too little (flat, over-limited masters) or, optionally, too much.
package dynamics

import (
	"fmt"

	"gonum.org/v1/gonum/floats"

	"github.com/farcloser/critic/internal/audit/checker"
	"github.com/farcloser/critic/internal/features"
	"github.com/farcloser/critic/internal/types"
)

const (
	rangePrefix = "insufficient_dynamic_range"
	keyMinPeak  = rangePrefix + "_minimum_highest_absolute_sample_value"

	varietyPrefix      = "insufficient_variety_in_dynamics"
	keyVarietyWindow   = varietyPrefix + "_window_size"
	keyMinRMSDeviation = varietyPrefix + "_minimum_stddev"

	compressionPrefix    = "insufficient_dynamic_range_compression"
	keyCompressionWindow = compressionPrefix + "_window_size"
	keyMaxRMSDeviation   = compressionPrefix + "_maximum_stddev"
)

// Whole-file observations from each channel merge on overlap only.
const overlapOnly = -1

//nolint:gochecknoglobals // declarative tables, effectively const
var (
	Range = &checker.Definition{
		Kind:     types.KindInsufficientDynamicRange,
		Prefix:   rangePrefix,
		Temporal: types.Spanning,
		Usage:    "channels whose peak never gets loud",
		Enabled:  true,
		Params: []checker.Param{
			{
				Key:      keyMinPeak,
				Default:  "0.88",
				Usage:    "absolute peak a channel is expected to reach",
				Validate: checker.FloatRange(0, 1, false),
			},
		},
		Detect: detectRange,
	}

	Variety = &checker.Definition{
		Kind:     types.KindInsufficientDynamicVariety,
		Prefix:   varietyPrefix,
		Temporal: types.Spanning,
		Usage:    "windowed RMS that barely moves over the file",
		Enabled:  true,
		Params: []checker.Param{
			checker.WindowParam(varietyPrefix, 512),
			{
				Key:      keyMinRMSDeviation,
				Default:  "0.016",
				Usage:    "smallest acceptable standard deviation of windowed RMS",
				Validate: checker.FloatRange(0, 1, true),
			},
		},
		Detect: detectVariety,
	}

	Compression = &checker.Definition{
		Kind:     types.KindInsufficientCompression,
		Prefix:   compressionPrefix,
		Temporal: types.Spanning,
		Usage:    "windowed RMS that swings more than a compressed master would",
		Enabled:  false,
		Params: []checker.Param{
			checker.WindowParam(compressionPrefix, 512),
			{
				Key:      keyMaxRMSDeviation,
				Default:  "0.07",
				Usage:    "largest acceptable standard deviation of windowed RMS",
				Validate: checker.FloatRange(0, 1, false),
			},
		},
		Detect: detectCompression,
	}
)

// RMSDeviation is the standard deviation of RMS over the complete windows of a channel.
// The second result is false for a silent channel. At least two complete windows are required.
func RMSDeviation(samples []float64, windowSize int) (float64, bool, error) {
	windows, err := features.CompleteWindows(samples, windowSize)
	if err != nil {
		return 0, false, err
	}

	if len(windows) < 2 {
		return 0, false, fmt.Errorf("%w: %d complete windows of %d samples, need at least 2",
			checker.ErrInsufficientLength, len(windows), windowSize)
	}

	levels := features.WindowedRMS(windows)
	if floats.Max(levels) == 0 {
		return 0, false, nil
	}

	return features.StdDev(levels), true, nil
}

func detectRange(buffer *types.Buffer, values checker.Values) ([]types.Observation, error) {
	// Graded on how far the peak falls short of the expected level.
	expected := values.Float(keyMinPeak)
	bands := checker.Bands{Mild: expected, Moderate: expected - 0.15, Severe: expected - 0.3, Below: true}

	return checker.PerChannel(buffer, overlapOnly, func(_ int, samples []float64) ([]types.Observation, error) {
		peak := features.MaxAbs(samples)
		if peak == 0 {
			return nil, nil
		}

		if severity, ok := bands.Match(peak); ok {
			return []types.Observation{checker.Whole(buffer, types.KindInsufficientDynamicRange, severity)}, nil
		}

		return nil, nil
	})
}

func deviation(
	buffer *types.Buffer,
	kind types.Kind,
	windowSize int,
	bands checker.Bands,
) ([]types.Observation, error) {
	return checker.PerChannel(buffer, overlapOnly, func(_ int, samples []float64) ([]types.Observation, error) {
		spread, ok, err := RMSDeviation(samples, windowSize)
		if err != nil || !ok {
			return nil, err
		}

		if severity, found := bands.Match(spread); found {
			return []types.Observation{checker.Whole(buffer, kind, severity)}, nil
		}

		return nil, nil
	})
}

func detectVariety(buffer *types.Buffer, values checker.Values) ([]types.Observation, error) {
	return deviation(
		buffer,
		types.KindInsufficientDynamicVariety,
		values.Int(keyVarietyWindow),
		checker.Inverse(values.Float(keyMinRMSDeviation), 1.5, 3),
	)
}

func detectCompression(buffer *types.Buffer, values checker.Values) ([]types.Observation, error) {
	return deviation(
		buffer,
		types.KindInsufficientCompression,
		values.Int(keyCompressionWindow),
		checker.Scaled(values.Float(keyMaxRMSDeviation), 1.5, 3),
	)
}
