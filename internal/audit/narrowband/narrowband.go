// Package narrowband finds windows where a single frequency bin towers over the rest of the spectrum,
// as whines, feedback or interference tones do.
package narrowband

import (
	"gonum.org/v1/gonum/floats"

	"github.com/farcloser/critic/internal/audit/checker"
	"github.com/farcloser/critic/internal/features"
	"github.com/farcloser/critic/internal/types"
)

const (
	prefix       = "narrowband_noise"
	keyWindow    = prefix + "_window_size"
	keyRatio     = prefix + "_maximum_spectral_peak_ratio"
	keyProximity = prefix + "_proximity_ms"
)

//nolint:gochecknoglobals // declarative table, effectively const
var Definition = &checker.Definition{
	Kind:     types.KindNarrowbandNoise,
	Prefix:   prefix,
	Temporal: types.Spanning,
	Usage:    "a single spectral peak far above the average bin",
	Enabled:  true,
	Params: []checker.Param{
		checker.WindowParam(prefix, 16384),
		{
			Key:      keyRatio,
			Default:  "50",
			Usage:    "ratio of the strongest bin power to the average bin power",
			Validate: checker.FloatAbove(1),
		},
		checker.ProximityParam(prefix, 0),
	},
	Detect: detect,
}

// PeakRatio is the strongest bin over the mean bin, DC excluded; 0 for a silent window.
func PeakRatio(power []float64) float64 {
	if len(power) < 2 {
		return 0
	}

	bins := power[1:]

	mean := floats.Sum(bins) / float64(len(bins))
	if mean == 0 {
		return 0
	}

	return floats.Max(bins) / mean
}

func detect(buffer *types.Buffer, values checker.Values) ([]types.Observation, error) {
	windowSize := values.Int(keyWindow)
	if err := checker.RequireSamples(buffer, windowSize); err != nil {
		return nil, err
	}

	bands := checker.Scaled(values.Float(keyRatio), 2, 4)

	return checker.PerChannel(buffer, values.Int64(keyProximity), func(_ int, samples []float64) ([]types.Observation, error) {
		windows, err := features.WindowSamples(samples, windowSize)
		if err != nil {
			return nil, err
		}

		analyzer := features.NewAnalyzer(windowSize)

		var found []types.Observation

		for index, window := range windows {
			if severity, ok := bands.Match(PeakRatio(analyzer.Power(window))); ok {
				found = append(found, checker.WindowSpan(buffer, types.KindNarrowbandNoise, index, windowSize, severity))
			}
		}

		return found, nil
	})
}
