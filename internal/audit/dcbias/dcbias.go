// Package dcbias reports channels whose mean sample value sits away from zero.
package dcbias

import (
	"math"

	"github.com/farcloser/critic/internal/audit/checker"
	"github.com/farcloser/critic/internal/features"
	"github.com/farcloser/critic/internal/types"
)

const (
	prefix       = "dc_bias"
	keyMaxOffset = prefix + "_maximum_offset"
)

//nolint:gochecknoglobals // declarative table, effectively const
var Definition = &checker.Definition{
	Kind:     types.KindDCBias,
	Prefix:   prefix,
	Temporal: types.Spanning,
	Usage:    "a constant offset of the waveform from zero",
	Enabled:  true,
	Params: []checker.Param{
		{
			Key:      keyMaxOffset,
			Default:  "0.003",
			Usage:    "largest acceptable absolute mean sample value",
			Validate: checker.FloatRange(0, 1, false),
		},
	},
	Detect: detect,
}

// Offsets returns the mean sample value of every channel.
func Offsets(buffer *types.Buffer) []float64 {
	offsets := make([]float64, len(buffer.Samples))
	for channel, samples := range buffer.Samples {
		offsets[channel] = features.Mean(samples)
	}

	return offsets
}

func detect(buffer *types.Buffer, values checker.Values) ([]types.Observation, error) {
	bands := checker.Scaled(values.Float(keyMaxOffset), 2, 3)

	return checker.PerChannel(buffer, -1, func(_ int, samples []float64) ([]types.Observation, error) {
		if len(samples) == 0 {
			return nil, nil
		}

		if severity, ok := bands.Match(math.Abs(features.Mean(samples))); ok {
			return []types.Observation{checker.Whole(buffer, types.KindDCBias, severity)}, nil
		}

		return nil, nil
	})
}
