// Package hum detects mains interference (ground loops) at 50 Hz and 60 Hz.
package hum

import (
	"github.com/farcloser/critic/internal/audit/checker"
	"github.com/farcloser/critic/internal/features"
	"github.com/farcloser/critic/internal/types"
)

const (
	prefix       = "ground_loop_hum"
	keyWindow    = prefix + "_window_size"
	keyThreshold = prefix + "_power_threshold"
	keyProximity = prefix + "_proximity_ms"
)

// MainsFrequencies are the hum fundamentals looked at.
//
//nolint:gochecknoglobals // effectively const
var MainsFrequencies = []float64{50, 60}

//nolint:gochecknoglobals // declarative table, effectively const
var Definition = &checker.Definition{
	Kind:     types.KindGroundLoopHum,
	Prefix:   prefix,
	Temporal: types.Spanning,
	Usage:    "50 Hz or 60 Hz mains hum",
	Enabled:  true,
	Params: []checker.Param{
		checker.WindowParam(prefix, 32768),
		{
			Key:      keyThreshold,
			Default:  "0.0001",
			Usage:    "normalized power at the mains bin above which a window hums",
			Validate: checker.FloatAbove(0),
		},
		checker.ProximityParam(prefix, 0),
	},
	Detect: detect,
}

func detect(buffer *types.Buffer, values checker.Values) ([]types.Observation, error) {
	windowSize := values.Int(keyWindow)
	if err := checker.RequireSamples(buffer, windowSize); err != nil {
		return nil, err
	}

	bands := checker.Scaled(values.Float(keyThreshold), 1.5, 2)

	return checker.PerChannel(buffer, values.Int64(keyProximity), func(_ int, samples []float64) ([]types.Observation, error) {
		var found []types.Observation

		for _, freq := range MainsFrequencies {
			power, err := features.PowerSpectrumAtFrequency([][]float64{samples}, buffer.Format.SampleRate, freq, windowSize)
			if err != nil {
				return nil, err
			}

			for index, value := range power[0] {
				if severity, ok := bands.Match(value); ok {
					found = append(found, checker.WindowSpan(buffer, types.KindGroundLoopHum, index, windowSize, severity))
				}
			}
		}

		return found, nil
	})
}
