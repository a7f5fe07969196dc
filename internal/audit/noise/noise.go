// Package noise flags short bursts of broadband energy (pops, crackle, digital glitches) through spikes
// in high-passed spectral flux.
package noise

import (
	"github.com/farcloser/critic/internal/audit/checker"
	"github.com/farcloser/critic/internal/features"
	"github.com/farcloser/critic/internal/types"
)

const (
	prefix       = "instantaneous_noise"
	keyWindow    = prefix + "_window_size"
	keyThreshold = prefix + "_flux_threshold"
	keyHighPass  = prefix + "_highpass_fraction"
	keyProximity = prefix + "_proximity_ms"
)

//nolint:gochecknoglobals // declarative table, effectively const
var Definition = &checker.Definition{
	Kind:     types.KindInstantaneousNoise,
	Prefix:   prefix,
	Temporal: types.Instantaneous,
	Usage:    "sudden broadband noise bursts",
	Enabled:  true,
	Params: []checker.Param{
		checker.WindowParam(prefix, 512),
		{
			Key:      keyThreshold,
			Default:  "0.05",
			Usage:    "spectral flux between consecutive windows above which a burst is reported",
			Validate: checker.FloatAbove(0),
		},
		{
			Key:      keyHighPass,
			Default:  "0.61",
			Usage:    "fraction of the lowest spectrum bins ignored before computing flux",
			Validate: checker.FloatRange(0, 1, true),
		},
		checker.ProximityParam(prefix, 50),
	},
	Detect: detect,
}

// Flux returns the high-passed spectral flux of every window of a channel.
func Flux(samples []float64, windowSize int, highPass float64) ([]float64, error) {
	windows, err := features.WindowSamples(samples, windowSize)
	if err != nil {
		return nil, err
	}

	analyzer := features.NewAnalyzer(windowSize)
	spectra := make([][]float64, len(windows))

	for index, window := range windows {
		spectra[index] = features.HighPassFilterSpectrum(analyzer.Magnitude(window), highPass)
	}

	return features.FluxSeries(spectra), nil
}

func detect(buffer *types.Buffer, values checker.Values) ([]types.Observation, error) {
	windowSize := values.Int(keyWindow)
	highPass := values.Float(keyHighPass)
	bands := checker.Scaled(values.Float(keyThreshold), 3, 6)

	return checker.PerChannel(buffer, values.Int64(keyProximity), func(_ int, samples []float64) ([]types.Observation, error) {
		flux, err := Flux(samples, windowSize, highPass)
		if err != nil {
			return nil, err
		}

		var found []types.Observation

		for index, value := range flux {
			if severity, ok := bands.Match(value); ok {
				found = append(found, checker.Point(buffer, types.KindInstantaneousNoise, index*windowSize, severity))
			}
		}

		return found, nil
	})
}
