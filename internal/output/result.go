// Package output provides shared result serialization for critic's outputs.
package output

import (
	"github.com/farcloser/critic"
	"github.com/farcloser/critic/internal/loudness"
	"github.com/farcloser/critic/internal/types"
)

// ResultToMap converts an analysis result into the canonical map structure
// used for JSON and JSONL serialization.
func ResultToMap(result *critic.Result) map[string]any {
	meta := map[string]any{
		"summary": map[string]any{
			"issue_count":    result.IssueCount,
			"worst_severity": result.WorstSeverity.String(),
		},
		"format":   FormatToMap(result),
		"loudness": LoudnessToMap(result.Loudness),
	}

	observations := make([]any, 0, len(result.Observations))
	for _, obs := range result.Observations {
		observations = append(observations, ObservationToMap(obs))
	}

	meta["observations"] = observations

	checked := make([]any, 0, len(result.Checked))
	for _, kind := range result.Checked {
		checked = append(checked, kind.String())
	}

	meta["checked"] = checked

	if len(result.Failures) > 0 {
		failures := make([]any, 0, len(result.Failures))
		for _, failure := range result.Failures {
			failures = append(failures, map[string]any{
				"kind":  failure.Kind.String(),
				"error": failure.Err.Error(),
			})
		}

		meta["failures"] = failures
	}

	if len(result.Tags) > 0 {
		tags := make(map[string]any, len(result.Tags))
		for key, value := range result.Tags {
			tags[key] = value
		}

		meta["tags"] = tags
	}

	return meta
}

// ObservationToMap converts a single observation.
func ObservationToMap(obs types.Observation) map[string]any {
	return map[string]any{
		"kind":     obs.Kind.String(),
		"temporal": obs.Temporal.String(),
		"severity": obs.Severity.String(),
		"start_ms": obs.StartMs,
		"end_ms":   obs.EndMs,
	}
}

// FormatToMap describes the decoded audio.
//
//nolint:gosec // audio format values are small constants
func FormatToMap(result *critic.Result) map[string]any {
	return map[string]any{
		"codec":            result.Codec,
		"lossy":            result.Lossy,
		"sample_rate":      result.Format.SampleRate,
		"channels":         int(result.Format.Channels),
		"bit_depth":        int(result.Format.BitDepth),
		"source_bit_depth": int(result.Format.SourceBitDepth()),
		"duration_ms":      result.DurationMs,
	}
}

// LoudnessToMap converts the loudness measurement.
func LoudnessToMap(measurement loudness.Measurement) map[string]any {
	return map[string]any{
		"integrated_lufs": measurement.IntegratedLUFS,
		"loudness_range":  measurement.LoudnessRange,
		"momentary_max":   measurement.MomentaryMax,
		"short_term_max":  measurement.ShortTermMax,
		"peak_db":         measurement.PeakDb,
		"dr_score":        measurement.DRScore,
	}
}
