// Package clipping finds runs of identical, near full-scale samples.
package clipping

import (
	"math"

	"github.com/farcloser/critic/internal/audit/checker"
	"github.com/farcloser/critic/internal/types"
)

const (
	prefix       = "digital_clipping"
	keyFloor     = prefix + "_signal_floor"
	keyRunLength = prefix + "_minimum_identical_samples"
	keyProximity = prefix + "_proximity_ms"
)

// Definition of the digital clipping checker.
//
//nolint:gochecknoglobals // declarative table, effectively const
var Definition = &checker.Definition{
	Kind:     types.KindDigitalClipping,
	Prefix:   prefix,
	Temporal: types.Spanning,
	Usage:    "runs of identical samples at or above a magnitude floor",
	Enabled:  true,
	Params: []checker.Param{
		{
			Key:      keyRunLength,
			Default:  "4",
			Usage:    "minimum number of identical consecutive samples",
			Validate: checker.IntAtLeast(2),
		},
		{
			Key:      keyFloor,
			Default:  "0.65",
			Usage:    "absolute sample value a run must reach to count as clipped",
			Validate: checker.FloatRange(0, 1, true),
		},
		checker.ProximityParam(prefix, 100),
	},
	Detect: detect,
}

// Run is a stretch of identical clipped samples, end inclusive.
type Run struct {
	Start  int
	End    int
	Length int
}

// Runs returns every run of at least minRun identical samples whose magnitude reaches floor.
func Runs(samples []float64, floor float64, minRun int) []Run {
	var (
		runs  []Run
		start int
	)

	flush := func(end int) {
		length := end - start + 1
		if length >= minRun && math.Abs(samples[start]) >= floor {
			runs = append(runs, Run{Start: start, End: end, Length: length})
		}
	}

	for index := 1; index < len(samples); index++ {
		if samples[index] == samples[start] {
			continue
		}

		flush(index - 1)
		start = index
	}

	if len(samples) > 0 {
		flush(len(samples) - 1)
	}

	return runs
}

func detect(buffer *types.Buffer, values checker.Values) ([]types.Observation, error) {
	floor := values.Float(keyFloor)
	minRun := values.Int(keyRunLength)
	// Any run of minRun is clipping; longer runs escalate past 1.5 and 2 times that.
	bands := checker.Scaled(float64(minRun), 1.5, 2)

	return checker.PerChannel(buffer, values.Int64(keyProximity), func(_ int, samples []float64) ([]types.Observation, error) {
		var found []types.Observation

		for _, run := range Runs(samples, floor, minRun) {
			found = append(found, checker.Span(buffer, types.KindDigitalClipping, run.Start, run.End,
				bands.Grade(float64(run.Length))))
		}

		return found, nil
	})
}
