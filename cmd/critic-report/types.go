//nolint:tagliatelle
package main

// Record is a single line in the JSONL report file.
type Record struct {
	File     string         `json:"file,omitempty"`
	Analysis map[string]any `json:"analysis,omitempty"`
	Error    string         `json:"error,omitempty"`
	Timing   *RecordTiming  `json:"timing,omitempty"`
}

// RecordTiming captures per-file decoding time in milliseconds.
type RecordTiming struct {
	DecodeMs float64 `json:"decode_ms"`
}

// digestRecord holds the typed fields needed by the digest command.
type digestRecord struct {
	File     string          `json:"file,omitempty"`
	Analysis *digestAnalysis `json:"analysis,omitempty"`
	Error    string          `json:"error,omitempty"`
}

type digestAnalysis struct {
	Summary      digestSummary       `json:"summary"`
	Observations []digestObservation `json:"observations"`
}

type digestSummary struct {
	IssueCount    int    `json:"issue_count"`
	WorstSeverity string `json:"worst_severity"`
}

type digestObservation struct {
	Kind     string `json:"kind"`
	Severity string `json:"severity"`
	StartMs  int64  `json:"start_ms"`
	EndMs    int64  `json:"end_ms"`
}

// kindBreakdown tracks per-kind severity counts for the digest.
type kindBreakdown struct {
	Kind     string
	Files    int
	Total    int
	Severe   int
	Moderate int
	Mild     int
}
