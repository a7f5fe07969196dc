// Package encoding judges the delivery format itself: sample rate, the bit depth the samples really
// carry, and lossy compression.
package encoding

import (
	"fmt"

	"github.com/farcloser/critic/internal/audit/checker"
	"github.com/farcloser/critic/internal/types"
)

const (
	prefix        = "encoding_quality"
	keyMinRate    = prefix + "_minimum_sampling_rate"
	keyMinDepth   = prefix + "_minimum_bit_depth"
	keyAllowLossy = prefix + "_allow_lossy"
)

//nolint:gochecknoglobals // declarative table, effectively const
var Definition = &checker.Definition{
	Kind:     types.KindEncodingQuality,
	Prefix:   prefix,
	Temporal: types.Spanning,
	Usage:    "sample rate or bit depth below the minimum, or lossy encoding",
	Enabled:  true,
	Params: []checker.Param{
		{
			Key:      keyMinRate,
			Default:  "44100",
			Usage:    "lowest acceptable sample rate in Hz",
			Validate: checker.IntAtLeast(1),
		},
		{
			Key:      keyMinDepth,
			Default:  "16",
			Usage:    "lowest acceptable bit depth, as measured from the samples when possible",
			Validate: checker.IntAtLeast(1),
		},
		{
			Key:      keyAllowLossy,
			Default:  "false",
			Usage:    "accept files decoded from a lossy codec",
			Validate: checker.Boolean(),
		},
	},
	Detect: detect,
}

// Assess lists every reason the buffer's format falls short.
func Assess(buffer *types.Buffer, values checker.Values) []string {
	var reasons []string

	if minRate := values.Int(keyMinRate); buffer.Format.SampleRate < minRate {
		reasons = append(reasons, fmt.Sprintf("sample rate %d Hz is below %d Hz", buffer.Format.SampleRate, minRate))
	}

	depth := buffer.Format.SourceBitDepth()
	if minDepth := values.Int(keyMinDepth); int(depth) < minDepth {
		reasons = append(reasons, fmt.Sprintf("bit depth %d is below %d", depth, minDepth))
	}

	if buffer.Lossy && !values.Bool(keyAllowLossy) {
		reasons = append(reasons, fmt.Sprintf("lossy codec %q", buffer.Codec))
	}

	return reasons
}

// Any shortcoming is severe: the file has to be re-delivered whatever the gap.
func detect(buffer *types.Buffer, values checker.Values) ([]types.Observation, error) {
	if len(Assess(buffer, values)) == 0 {
		return nil, nil
	}

	return []types.Observation{checker.Whole(buffer, types.KindEncodingQuality, types.SeveritySevere)}, nil
}
