package main

import (
	"errors"
	"testing"

	"github.com/farcloser/critic"
	"github.com/farcloser/critic/internal/types"
)

func TestFriendlyOutputGroupsByKind(t *testing.T) {
	t.Parallel()

	result := &critic.Result{
		Format: types.PCMFormat{SampleRate: 44100, BitDepth: types.Depth24, Channels: 2, EffectiveBitDepth: types.Depth16},
		Codec:  "pcm_s24le",
		Observations: []types.Observation{
			{Kind: types.KindEditClick, StartMs: 1500, EndMs: 1500, Severity: types.SeverityMild},
			{Kind: types.KindEditClick, StartMs: 9000, EndMs: 9000, Severity: types.SeveritySevere},
			{Kind: types.KindLongSilence, Temporal: types.Spanning, StartMs: 0, EndMs: 4000, Severity: types.SeverityModerate},
		},
		Failures:      []critic.Failure{{Kind: types.KindGroundLoopHum, Err: errors.New("too short")}},
		IssueCount:    3,
		WorstSeverity: types.SeveritySevere,
	}

	meta := buildFriendlyOutput(result)

	if meta["summary"] != "3 issues found (worst: severe)" {
		t.Errorf("summary = %v", meta["summary"])
	}

	issues, _ := meta["issues"].(map[string]any)

	clicks, _ := issues["1. Edits & clipping"].([]any)
	if len(clicks) != 1 || clicks[0] != "!! [severe] edit-click: 2 occurrences, first at 0:01.500" {
		t.Errorf("clicks = %v", clicks)
	}

	silence, _ := issues["5. Delivery"].([]any)
	if len(silence) != 1 || silence[0] != "!! [moderate] long-silence from 0:00.000 to 0:04.000" {
		t.Errorf("silence = %v", silence)
	}

	props, _ := meta["properties"].(map[string]any)
	if props["bit_depth"] != "24-bit (effective: 16-bit)" {
		t.Errorf("properties = %v", props)
	}

	if notChecked, _ := meta["not_checked"].([]any); len(notChecked) != 1 {
		t.Errorf("not checked = %v", meta["not_checked"])
	}
}

func TestParseLevel(t *testing.T) {
	t.Parallel()

	for name, want := range map[string]types.Severity{
		"":         types.SeverityNone,
		"mild":     types.SeverityMild,
		"Moderate": types.SeverityModerate,
		"severe":   types.SeveritySevere,
	} {
		got, err := parseLevel(name)
		if err != nil || got != want {
			t.Errorf("%q: got %v, %v", name, got, err)
		}
	}

	if _, err := parseLevel("awful"); !errors.Is(err, errUnknownLevel) {
		t.Errorf("err = %v", err)
	}
}
