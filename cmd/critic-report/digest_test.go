package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const reportLines = `{"file":"a.flac","analysis":{"summary":{"issue_count":3,"worst_severity":"severe"},"observations":[{"kind":"edit-click","severity":"mild","start_ms":1200,"end_ms":1200},{"kind":"edit-click","severity":"severe","start_ms":4000,"end_ms":4000},{"kind":"dc-bias","severity":"moderate","start_ms":0,"end_ms":60000}]}}
{"file":"b.flac","analysis":{"summary":{"issue_count":0,"worst_severity":"no issue"},"observations":[]}}
{"file":"c.flac","analysis":{"summary":{"issue_count":1,"worst_severity":"mild"},"observations":[{"kind":"edit-click","severity":"mild","start_ms":300,"end_ms":300}]}}
{"file":"d.flac","error":"cannot decode"}
not json
`

func writeReport(t *testing.T) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), reportFile)
	if err := os.WriteFile(path, []byte(reportLines), 0o600); err != nil {
		t.Fatal(err)
	}

	return path
}

func TestDigest(t *testing.T) {
	t.Parallel()

	records, err := readRecords(writeReport(t))
	if err != nil {
		t.Fatal(err)
	}

	if len(records) != 5 {
		t.Fatalf("records = %d", len(records))
	}

	var buf bytes.Buffer

	printDigest(&buf, records)

	digest := buf.String()
	for _, want := range []string{
		"Total files:   5",
		"Failed:        2",
		"Analyzed:      3",
		"  Clean:     1",
		"  Severe:    1",
		"  edit-click\n    files: 2  total: 3  severe: 1  moderate: 0  mild: 2",
		"  dc-bias\n    files: 1  total: 1  severe: 0  moderate: 1  mild: 0",
	} {
		if !strings.Contains(digest, want) {
			t.Errorf("missing %q in:\n%s", want, digest)
		}
	}

	if strings.Index(digest, "edit-click") > strings.Index(digest, "dc-bias") {
		t.Error("kinds are not sorted by total")
	}
}

func TestKindDetail(t *testing.T) {
	t.Parallel()

	records, err := readRecords(writeReport(t))
	if err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer

	printKindDetail(&buf, records, "edit-click")

	detail := buf.String()
	if !strings.Contains(detail, "=== edit-click: 2 files ===") {
		t.Errorf("detail:\n%s", detail)
	}

	if strings.Index(detail, "a.flac") > strings.Index(detail, "c.flac") {
		t.Error("worst files should come first")
	}

	if !strings.Contains(detail, "worst: severe  occurrences: 2  first at: 0:01.200") {
		t.Errorf("detail:\n%s", detail)
	}

	buf.Reset()
	printKindDetail(&buf, records, "phasing")

	if !strings.Contains(buf.String(), "No files affected by phasing") {
		t.Errorf("detail:\n%s", buf.String())
	}
}

func TestCollectAudioFiles(t *testing.T) {
	t.Parallel()

	root := t.TempDir()

	for _, name := range []string{"b.FLAC", "a.wav", "notes.txt", filepath.Join("disc2", "c.mp3")} {
		path := filepath.Join(root, name)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}

		if err := os.WriteFile(path, nil, 0o600); err != nil {
			t.Fatal(err)
		}
	}

	files, err := collectAudioFiles(root)
	if err != nil {
		t.Fatal(err)
	}

	want := []string{filepath.Join(root, "a.wav"), filepath.Join(root, "b.FLAC"), filepath.Join(root, "disc2", "c.mp3")}
	if strings.Join(files, ",") != strings.Join(want, ",") {
		t.Errorf("files = %v", files)
	}
}
