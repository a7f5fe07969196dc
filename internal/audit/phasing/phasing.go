// Package phasing detects comb filtering, the periodic notches a signal summed with a delayed copy of
// itself leaves in its spectrum, through the autocorrelation of the compressed power spectrum.
package phasing

import (
	"fmt"

	"gonum.org/v1/gonum/floats"

	"github.com/farcloser/critic/internal/audit/checker"
	"github.com/farcloser/critic/internal/features"
	"github.com/farcloser/critic/internal/types"
)

const (
	prefix       = "phasing"
	keyWindow    = prefix + "_window_size"
	keyMaxBins   = prefix + "_max_bins"
	keyMinLag    = prefix + "_minimum_lag"
	keyMaxLag    = prefix + "_maximum_lag"
	keyThreshold = prefix + "_maximum_autocorrelation"
	keyProximity = prefix + "_proximity_ms"
)

//nolint:gochecknoglobals // declarative table, effectively const
var Definition = &checker.Definition{
	Kind:     types.KindPhasing,
	Prefix:   prefix,
	Temporal: types.Spanning,
	Usage:    "comb filtering from phase cancellation",
	Enabled:  false,
	Params: []checker.Param{
		checker.WindowParam(prefix, 16384),
		{
			Key:      keyMaxBins,
			Default:  "1024",
			Usage:    "spectrum bins kept after compression",
			Validate: checker.IntAtLeast(8),
		},
		{
			Key:      keyMinLag,
			Default:  "8",
			Usage:    "smallest spectral periodicity considered, in compressed bins",
			Validate: checker.IntAtLeast(1),
		},
		{
			Key:      keyMaxLag,
			Default:  "256",
			Usage:    "largest spectral periodicity considered, in compressed bins",
			Validate: checker.IntAtLeast(1),
		},
		{
			Key:      keyThreshold,
			Default:  "0.37",
			Usage:    "normalized autocorrelation peak above which a window is comb filtered",
			Validate: checker.FloatRange(0, 1, false),
		},
		checker.ProximityParam(prefix, 0),
	},
	Constraints: func(values checker.Values) []string {
		var problems []string

		if values.Int(keyMaxLag) < values.Int(keyMinLag) {
			problems = append(problems, fmt.Sprintf("%s must not be smaller than %s", keyMaxLag, keyMinLag))
		}

		if values.Int(keyMaxLag) >= values.Int(keyMaxBins) {
			problems = append(problems, fmt.Sprintf("%s must be smaller than %s", keyMaxLag, keyMaxBins))
		}

		return problems
	},
	Detect: detect,
}

// Periodicity returns the highest autocorrelation of the mean-removed, compressed power spectrum over
// [minLag, maxLag], normalized by the zero-lag value. Flat or silent spectra yield 0.
func Periodicity(power []float64, maxBins, minLag, maxLag int) (float64, error) {
	// The Nyquist bin would break the even grouping of the remaining bins.
	if len(power) > 1 {
		power = power[:len(power)-1]
	}

	compressed := features.CompressSpectrum(power, maxBins)
	if len(compressed) == 0 {
		return 0, nil
	}

	floats.AddConst(-floats.Sum(compressed)/float64(len(compressed)), compressed)

	energy := floats.Dot(compressed, compressed)
	if energy == 0 {
		return 0, nil
	}

	corr, err := features.Autocorrelation(compressed, minLag, maxLag)
	if err != nil {
		return 0, err
	}

	return floats.Max(corr) / energy, nil
}

func detect(buffer *types.Buffer, values checker.Values) ([]types.Observation, error) {
	windowSize := values.Int(keyWindow)
	if err := checker.RequireSamples(buffer, windowSize); err != nil {
		return nil, err
	}

	maxBins := values.Int(keyMaxBins)
	minLag := values.Int(keyMinLag)
	maxLag := values.Int(keyMaxLag)
	bands := checker.Scaled(values.Float(keyThreshold), 1.3, 1.6)

	return checker.PerChannel(buffer, values.Int64(keyProximity), func(_ int, samples []float64) ([]types.Observation, error) {
		windows, err := features.WindowSamples(samples, windowSize)
		if err != nil {
			return nil, err
		}

		analyzer := features.NewAnalyzer(windowSize)

		var found []types.Observation

		for index, window := range windows {
			peak, err := Periodicity(analyzer.Power(window), maxBins, minLag, maxLag)
			if err != nil {
				return nil, err
			}

			if severity, ok := bands.Match(peak); ok {
				found = append(found, checker.WindowSpan(buffer, types.KindPhasing, index, windowSize, severity))
			}
		}

		return found, nil
	})
}
