// Package stereo holds the whole-file channel-layout checks: a file that is not two-channel, two
// channels that carry the same signal, and two channels of noticeably different loudness.
package stereo

import (
	"math"

	"github.com/farcloser/critic/internal/audit/checker"
	"github.com/farcloser/critic/internal/features"
	"github.com/farcloser/critic/internal/types"
)

const (
	notStereoPrefix = "is_not_stereo"

	similarityPrefix = "stereo_channel_similarity"
	keyMinDistance   = similarityPrefix + "_minimum_average_distance"

	balancePrefix       = "stereo_channel_balance"
	keyMaxRMSDifference = balancePrefix + "_maximum_difference"
)

//nolint:gochecknoglobals // declarative tables, effectively const
var (
	NotStereo = &checker.Definition{
		Kind:     types.KindNotStereo,
		Prefix:   notStereoPrefix,
		Temporal: types.Spanning,
		Usage:    "files that do not have exactly two channels",
		Enabled:  true,

		// Configuration files written by older tools spell the key this way.
		ApplyAlias: "check_is_not_streo",

		Detect: func(buffer *types.Buffer, _ checker.Values) ([]types.Observation, error) {
			if buffer.Channels() == 2 {
				return nil, nil
			}

			return []types.Observation{checker.Whole(buffer, types.KindNotStereo, types.SeveritySevere)}, nil
		},
	}

	Similarity = &checker.Definition{
		Kind:     types.KindStereoSimilarity,
		Prefix:   similarityPrefix,
		Temporal: types.Spanning,
		Usage:    "two channels carrying the same signal",
		Enabled:  true,
		Params: []checker.Param{
			{
				Key:      keyMinDistance,
				Default:  "0.007",
				Usage:    "mean absolute difference of peak-normalized channels below which they count as identical",
				Validate: checker.FloatRange(0, 2, true),
			},
		},
		Detect: detectSimilarity,
	}

	Balance = &checker.Definition{
		Kind:     types.KindStereoImbalance,
		Prefix:   balancePrefix,
		Temporal: types.Spanning,
		Usage:    "channels whose overall RMS levels differ",
		Enabled:  true,
		Params: []checker.Param{
			{
				Key:      keyMaxRMSDifference,
				Default:  "0.015",
				Usage:    "largest acceptable difference between left and right RMS",
				Validate: checker.FloatRange(0, 1, false),
			},
		},
		Detect: detectBalance,
	}
)

// Difference is the mean absolute difference between left and right after each is scaled to a unit peak.
// The second result is false when either channel is silent.
func Difference(left, right []float64) (float64, bool) {
	length := min(len(left), len(right))
	if length == 0 {
		return 0, false
	}

	leftPeak := features.MaxAbs(left[:length])
	rightPeak := features.MaxAbs(right[:length])

	if leftPeak == 0 || rightPeak == 0 {
		return 0, false
	}

	var sum float64
	for index := range length {
		sum += math.Abs(left[index]/leftPeak - right[index]/rightPeak)
	}

	return sum / float64(length), true
}

func detectSimilarity(buffer *types.Buffer, values checker.Values) ([]types.Observation, error) {
	if buffer.Channels() != 2 {
		return nil, nil
	}

	difference, ok := Difference(buffer.Samples[0], buffer.Samples[1])
	if !ok {
		return nil, nil
	}

	severity, found := checker.Inverse(values.Float(keyMinDistance), 5, 10).Match(difference)
	if !found {
		return nil, nil
	}

	return []types.Observation{checker.Whole(buffer, types.KindStereoSimilarity, severity)}, nil
}

func detectBalance(buffer *types.Buffer, values checker.Values) ([]types.Observation, error) {
	if buffer.Channels() != 2 || buffer.Frames() == 0 {
		return nil, nil
	}

	imbalance := math.Abs(features.RMS(buffer.Samples[0]) - features.RMS(buffer.Samples[1]))

	severity, found := checker.Scaled(values.Float(keyMaxRMSDifference), 2, 3).Match(imbalance)
	if !found {
		return nil, nil
	}

	return []types.Observation{checker.Whole(buffer, types.KindStereoImbalance, severity)}, nil
}
