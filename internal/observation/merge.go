// Package observation merges error observations of one kind, within a channel and across channels.
package observation

import (
	"slices"

	"github.com/farcloser/critic/internal/types"
)

// Sort orders observations by start time, keeping the input order for ties. The input is not modified.
func Sort(list []types.Observation) []types.Observation {
	sorted := slices.Clone(list)
	slices.SortStableFunc(sorted, func(a, b types.Observation) int {
		switch {
		case a.StartMs < b.StartMs:
			return -1
		case a.StartMs > b.StartMs:
			return 1
		default:
			return 0
		}
	})

	return sorted
}

// Merge folds a chronologically sorted, single-kind list of observations.
//
// Instantaneous observations join the current group while their start lies within proximityMs of the
// most recently folded one; a negative proximity disables merging. Spanning observations join when they
// overlap the current span or start within proximityMs of its end; with a negative proximity only
// overlap merges. Merged observations carry the highest severity of their members.
func Merge(list []types.Observation, proximityMs int64) []types.Observation {
	if len(list) == 0 {
		return []types.Observation{}
	}

	if list[0].Temporal == types.Instantaneous && proximityMs < 0 {
		return slices.Clone(list)
	}

	merged := make([]types.Observation, 0, len(list))
	current := list[0]
	edge := current.StartMs

	for _, next := range list[1:] {
		if joins(current, next, edge, proximityMs) {
			current.Severity = types.MaxSeverity(current.Severity, next.Severity)

			if current.Temporal == types.Instantaneous {
				edge = next.StartMs
			} else {
				current.EndMs = max(current.EndMs, next.EndMs)
			}

			continue
		}

		merged = append(merged, current)
		current = next
		edge = current.StartMs
	}

	return append(merged, current)
}

func joins(current, next types.Observation, edge, proximityMs int64) bool {
	if current.Temporal == types.Instantaneous {
		return next.StartMs-edge <= proximityMs
	}

	if next.StartMs <= current.EndMs {
		return true
	}

	return proximityMs >= 0 && next.StartMs-current.EndMs <= proximityMs
}

// MergeChannels combines per-channel observation lists into one sorted list.
//
// Zero non-empty channels yield an empty list and a single non-empty channel is returned unchanged.
// Otherwise everything is sorted by start and folded with strict overlap only: spans merge when they
// overlap, instantaneous observations only when they share a start.
func MergeChannels(perChannel [][]types.Observation) []types.Observation {
	var nonEmpty [][]types.Observation

	for _, list := range perChannel {
		if len(list) > 0 {
			nonEmpty = append(nonEmpty, list)
		}
	}

	switch len(nonEmpty) {
	case 0:
		return []types.Observation{}
	case 1:
		return slices.Clone(nonEmpty[0])
	default:
	}

	all := Sort(slices.Concat(nonEmpty...))

	if all[0].Temporal == types.Instantaneous {
		return Merge(all, 0)
	}

	return Merge(all, -1)
}
