// Package editclick finds discontinuities left by careless edits: a single large jump
// between otherwise smooth samples, and recordings that start or stop on a non-zero sample.
package editclick

import (
	"math"

	"github.com/farcloser/critic/internal/audit/checker"
	"github.com/farcloser/critic/internal/types"
)

const (
	prefix       = "edit_click"
	keyJump      = prefix + "_window_maximum_sample_jump"
	keyFraction  = prefix + "_window_boundary_fraction"
	keyBoundary  = prefix + "_boundary_maximum_sample_jump"
	keyProximity = prefix + "_proximity_ms"
)

//nolint:gochecknoglobals // declarative table, effectively const
var Definition = &checker.Definition{
	Kind:     types.KindEditClick,
	Prefix:   prefix,
	Temporal: types.Instantaneous,
	Usage:    "sudden sample discontinuities and abrupt starts or ends",
	Enabled:  true,
	Params: []checker.Param{
		{
			Key:      keyJump,
			Default:  "0.48",
			Usage:    "difference between the middle two samples of a four-sample window that counts as a jump",
			Validate: checker.FloatRange(0, 2, false),
		},
		{
			Key:      keyFraction,
			Default:  "0.9",
			Usage:    "fraction of the jump threshold the differences on either side must stay under",
			Validate: checker.FloatRange(0, 1, false),
		},
		{
			Key:      keyBoundary,
			Default:  "0.02",
			Usage:    "absolute value of the first or last sample above which the recording starts or ends abruptly",
			Validate: checker.FloatRange(0, 1, true),
		},
		checker.ProximityParam(prefix, 50),
	},
	Detect: detect,
}

// Jumps returns the index of the sample right after each isolated jump: a difference above maxJump
// with the differences on either side below fraction*maxJump.
func Jumps(samples []float64, maxJump, fraction float64) []int {
	var found []int

	secondary := fraction * maxJump

	for index := 0; index+3 < len(samples); index++ {
		before := math.Abs(samples[index+1] - samples[index])
		jump := math.Abs(samples[index+2] - samples[index+1])
		after := math.Abs(samples[index+3] - samples[index+2])

		if jump > maxJump && before < secondary && after < secondary {
			found = append(found, index+2)
		}
	}

	return found
}

func detect(buffer *types.Buffer, values checker.Values) ([]types.Observation, error) {
	maxJump := values.Float(keyJump)
	fraction := values.Float(keyFraction)
	boundary := values.Float(keyBoundary)
	// Boundary samples are graded against the same scale as jumps.
	bands := checker.Scaled(maxJump, 1.3, 1.6)

	return checker.PerChannel(buffer, values.Int64(keyProximity), func(_ int, samples []float64) ([]types.Observation, error) {
		var found []types.Observation

		if len(samples) == 0 {
			return nil, nil
		}

		if first := math.Abs(samples[0]); first > boundary {
			found = append(found, checker.Point(buffer, types.KindEditClick, 0, bands.Grade(first)))
		}

		for _, index := range Jumps(samples, maxJump, fraction) {
			severity := bands.Grade(math.Abs(samples[index] - samples[index-1]))
			found = append(found, checker.Point(buffer, types.KindEditClick, index, severity))
		}

		last := len(samples) - 1
		if final := math.Abs(samples[last]); final > boundary && last > 0 {
			found = append(found, checker.Point(buffer, types.KindEditClick, len(samples), bands.Grade(final)))
		}

		return found, nil
	})
}
