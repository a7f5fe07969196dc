package critic

import (
	"strings"

	"github.com/farcloser/critic/internal/loudness"
	"github.com/farcloser/critic/internal/types"
)

// ConfigError lists every configuration problem found by New.
type ConfigError struct {
	Problems []string
}

func (e *ConfigError) Error() string {
	return ErrInvalidConfig.Error() + ": " + strings.Join(e.Problems, "; ")
}

func (e *ConfigError) Unwrap() error {
	return ErrInvalidConfig
}

// Failure is a checker that could not run on a file.
type Failure struct {
	Kind types.Kind
	Err  error
}

// Result of analyzing one buffer.
type Result struct {
	Format     types.PCMFormat
	Codec      string
	Lossy      bool
	Tags       map[string]string
	DurationMs int64
	Loudness   loudness.Measurement

	// Checked lists the kinds that were run, including the ones that failed.
	Checked []types.Kind

	// Observations from every checker, sorted by start.
	Observations []types.Observation
	Failures     []Failure

	// Summary
	IssueCount    int
	WorstSeverity types.Severity
}

// ByKind returns the observations of a single kind.
func (r *Result) ByKind(kind types.Kind) []types.Observation {
	var out []types.Observation

	for _, obs := range r.Observations {
		if obs.Kind == kind {
			out = append(out, obs)
		}
	}

	return out
}

// FileResult is one slot of a batch. Exactly one of Result and Err is set.
type FileResult struct {
	Path   string
	Result *Result
	Err    error
}

// Batch is the outcome of Run, in input order.
type Batch struct {
	Files []FileResult
}

// Failed counts the files that could not be loaded.
func (b *Batch) Failed() int {
	count := 0

	for _, file := range b.Files {
		if file.Err != nil {
			count++
		}
	}

	return count
}

// WorstSeverity over every analyzed file.
func (b *Batch) WorstSeverity() types.Severity {
	worst := types.SeverityNone

	for _, file := range b.Files {
		if file.Result != nil {
			worst = types.MaxSeverity(worst, file.Result.WorstSeverity)
		}
	}

	return worst
}
