// Package duration flags files shorter or longer than expected.
package duration

import (
	"fmt"

	"github.com/farcloser/critic/internal/audit/checker"
	"github.com/farcloser/critic/internal/types"
)

const (
	prefix = "duration"
	keyMin = prefix + "_minimum_length"
	keyMax = prefix + "_maximum_length"
)

//nolint:gochecknoglobals // declarative table, effectively const
var Definition = &checker.Definition{
	Kind:     types.KindDuration,
	Prefix:   prefix,
	Temporal: types.Spanning,
	Usage:    "total length outside the accepted range",
	Enabled:  true,
	Params: []checker.Param{
		{
			Key:      keyMin,
			Default:  "0",
			Usage:    "shortest acceptable duration in seconds",
			Validate: checker.FloatRange(0, 1e6, true),
		},
		{
			Key:      keyMax,
			Default:  "5400",
			Usage:    "longest acceptable duration in seconds",
			Validate: checker.FloatRange(0, 1e6, false),
		},
	},
	Constraints: func(values checker.Values) []string {
		if values.Float(keyMax) <= values.Float(keyMin) {
			return []string{fmt.Sprintf("%s must be greater than %s", keyMax, keyMin)}
		}

		return nil
	},
	Detect: detect,
}

// Assess grades seconds against the accepted [minimum, maximum] range. Short files escalate below
// 85% and 70% of minimum, long ones past 115% and 130% of maximum.
func Assess(seconds, minimum, maximum float64) (types.Severity, bool) {
	if seconds < minimum {
		return checker.Bands{Mild: minimum, Moderate: 0.85 * minimum, Severe: 0.7 * minimum, Below: true}.Match(seconds)
	}

	return checker.Scaled(maximum, 1.15, 1.3).Match(seconds)
}

func detect(buffer *types.Buffer, values checker.Values) ([]types.Observation, error) {
	severity, ok := Assess(buffer.DurationSeconds(), values.Float(keyMin), values.Float(keyMax))
	if !ok {
		return nil, nil
	}

	return []types.Observation{checker.Whole(buffer, types.KindDuration, severity)}, nil
}
