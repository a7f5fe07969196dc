//nolint:wrapcheck
package main

import (
	"fmt"
	"os"

	"github.com/farcloser/primordium/format"

	"github.com/farcloser/critic"
	"github.com/farcloser/critic/internal/loudness"
	"github.com/farcloser/critic/internal/output"
	"github.com/farcloser/critic/internal/types"
)

const textFormat = "text"

//nolint:gochecknoglobals // configuration data, effectively const
var kindCategory = map[types.Kind]string{
	types.KindDigitalClipping: "1. Edits & clipping",
	types.KindEditClick:       "1. Edits & clipping",

	types.KindInstantaneousNoise: "2. Noise & interference",
	types.KindGroundLoopHum:      "2. Noise & interference",
	types.KindNarrowbandNoise:    "2. Noise & interference",

	types.KindPhasing:          "3. Stereo field",
	types.KindNotStereo:        "3. Stereo field",
	types.KindStereoSimilarity: "3. Stereo field",
	types.KindStereoImbalance:  "3. Stereo field",

	types.KindInsufficientDynamicRange:   "4. Dynamics & levels",
	types.KindInsufficientDynamicVariety: "4. Dynamics & levels",
	types.KindInsufficientCompression:    "4. Dynamics & levels",
	types.KindDCBias:                     "4. Dynamics & levels",

	types.KindLongSilence:     "5. Delivery",
	types.KindDuration:        "5. Delivery",
	types.KindEncodingQuality: "5. Delivery",
}

func outputBatch(batch *critic.Batch, formatName string, raw bool) error {
	if formatName == textFormat {
		return outputText(batch)
	}

	formatter, err := format.GetFormatter(formatName)
	if err != nil {
		return err
	}

	data := make([]*format.Data, 0, len(batch.Files))

	for _, file := range batch.Files {
		var meta map[string]any

		switch {
		case file.Err != nil:
			meta = map[string]any{"error": file.Err.Error()}
		case raw:
			meta = output.ResultToMap(file.Result)
		default:
			meta = buildFriendlyOutput(file.Result)
		}

		data = append(data, &format.Data{Object: file.Path, Meta: meta})
	}

	return formatter.PrintAll(data, os.Stdout)
}

func outputText(batch *critic.Batch) error {
	for index, file := range batch.Files {
		if index > 0 {
			fmt.Fprintln(os.Stdout)
		}

		if file.Err != nil {
			fmt.Fprintf(os.Stdout, "FILE: %s\nERROR: %v\n", file.Path, file.Err)

			continue
		}

		if err := output.WriteText(os.Stdout, file.Path, file.Result); err != nil {
			return err
		}
	}

	return nil
}

// kindDigest sums up every observation of one kind.
type kindDigest struct {
	kind  types.Kind
	count int
	worst types.Severity
	first types.Observation
}

// buildFriendlyOutput summarizes the observations per check and groups the checks by category.
func buildFriendlyOutput(result *critic.Result) map[string]any {
	meta := map[string]any{
		"summary": fmt.Sprintf("%d issues found (worst: %s)", result.IssueCount, result.WorstSeverity),
	}

	var digests []*kindDigest

	byKind := map[types.Kind]*kindDigest{}

	for _, obs := range result.Observations {
		digest, ok := byKind[obs.Kind]
		if !ok {
			digest = &kindDigest{kind: obs.Kind, first: obs}
			byKind[obs.Kind] = digest
			digests = append(digests, digest)
		}

		digest.count++
		digest.worst = types.MaxSeverity(digest.worst, obs.Severity)
	}

	if len(digests) > 0 {
		issues := map[string]any{}

		for _, digest := range digests {
			category := kindCategory[digest.kind]
			lines, _ := issues[category].([]any)
			issues[category] = append(lines, describe(digest))
		}

		meta["issues"] = issues
	}

	if len(result.Failures) > 0 {
		failures := make([]any, 0, len(result.Failures))
		for _, failure := range result.Failures {
			failures = append(failures, fmt.Sprintf("%s: %v", failure.Kind, failure.Err))
		}

		meta["not_checked"] = failures
	}

	meta["properties"] = buildProperties(result)

	if len(result.Tags) > 0 {
		tags := map[string]any{}
		for key, value := range result.Tags {
			tags[key] = value
		}

		meta["tags"] = tags
	}

	return meta
}

func describe(digest *kindDigest) string {
	where := "at " + output.Timestamp(digest.first.StartMs)
	if digest.first.Temporal == types.Spanning {
		where = "from " + output.Timestamp(digest.first.StartMs) + " to " + output.Timestamp(digest.first.EndMs)
	}

	if digest.count == 1 {
		return fmt.Sprintf("!! [%s] %s %s", digest.worst, digest.kind, where)
	}

	return fmt.Sprintf("!! [%s] %s: %d occurrences, first %s", digest.worst, digest.kind, digest.count, where)
}

func buildProperties(result *critic.Result) map[string]any {
	props := map[string]any{
		"codec":    result.Codec,
		"duration": output.Timestamp(result.DurationMs),
		"rate":     fmt.Sprintf("%d Hz, %d channels", result.Format.SampleRate, result.Format.Channels),
	}

	if level := result.Loudness; level.IntegratedLUFS > loudness.Floor {
		props["loudness"] = fmt.Sprintf("%.1f LUFS (range: %.1f LU), peak %.1f dBFS", level.IntegratedLUFS, level.LoudnessRange, level.PeakDb)
	}

	if score := result.Loudness.DRScore; score > 0 {
		props["dynamic_range"] = fmt.Sprintf("DR%d", score)
	}

	claimed := result.Format.ExpectedBitDepth
	if claimed == 0 {
		claimed = result.Format.BitDepth
	}

	switch effective := result.Format.SourceBitDepth(); {
	case result.Lossy:
		props["bit_depth"] = "n/a (lossy)"
	case effective != claimed:
		props["bit_depth"] = fmt.Sprintf("%d-bit (effective: %d-bit)", claimed, effective)
	default:
		props["bit_depth"] = fmt.Sprintf("%d-bit", claimed)
	}

	return props
}
