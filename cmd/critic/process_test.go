package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/farcloser/critic"
	"github.com/farcloser/critic/internal/types"
)

func TestLabelName(t *testing.T) {
	t.Parallel()

	used := map[string]bool{}

	for _, test := range []struct {
		path     string
		expected string
	}{
		{"disc1/01.flac", "01.labels.txt"},
		{"disc2/01.flac", "01-2.labels.txt"},
		{"disc3/01.wav", "01-3.labels.txt"},
		{"extras/01-2.mp3", "01-2-2.labels.txt"},
		{"DISC4/Intro.wav", "Intro.labels.txt"},
		{"disc5/intro.wav", "intro-2.labels.txt"},
	} {
		if got := labelName(test.path, used); got != test.expected {
			t.Errorf("%s: %s, want %s", test.path, got, test.expected)
		}
	}
}

func TestWriteLabelTracksKeepsDuplicateBaseNames(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	batch := &critic.Batch{Files: []critic.FileResult{
		{Path: "a/take.wav", Result: &critic.Result{Observations: []types.Observation{
			{Kind: types.KindEditClick, StartMs: 1000, EndMs: 1000, Severity: types.SeverityMild},
		}}},
		{Path: "b/take.wav", Result: &critic.Result{}},
	}}

	if err := writeLabelTracks(dir, batch); err != nil {
		t.Fatal(err)
	}

	first, err := os.ReadFile(filepath.Join(dir, "take.labels.txt"))
	if err != nil || len(first) == 0 {
		t.Errorf("first track: %q, %v", first, err)
	}

	second, err := os.ReadFile(filepath.Join(dir, "take-2.labels.txt"))
	if err != nil || len(second) != 0 {
		t.Errorf("second track: %q, %v", second, err)
	}
}
