package output

import (
	"bufio"
	"fmt"
	"io"

	"github.com/farcloser/critic"
	"github.com/farcloser/critic/internal/types"
)

// WriteText writes a plain report of one file, one block per observation.
func WriteText(writer io.Writer, path string, result *critic.Result) error {
	buffered := bufio.NewWriter(writer)

	fmt.Fprintf(buffered, "FILE: %s\n", path)
	fmt.Fprintf(buffered, "ISSUES: %d\n", result.IssueCount)
	fmt.Fprintf(buffered, "WORST SEVERITY: %s\n", result.WorstSeverity)

	for _, obs := range result.Observations {
		fmt.Fprintln(buffered)
		fmt.Fprintf(buffered, "ERROR TYPE: %s\n", obs.Kind)

		if obs.Temporal == types.Instantaneous {
			fmt.Fprintln(buffered, "TIME TYPE: Instantaneous")
			fmt.Fprintf(buffered, "TIME: %s\n", Timestamp(obs.StartMs))
		} else {
			fmt.Fprintln(buffered, "TIME TYPE: Time Span")
			fmt.Fprintf(buffered, "START TIME: %s\n", Timestamp(obs.StartMs))
			fmt.Fprintf(buffered, "END TIME: %s\n", Timestamp(obs.EndMs))
		}

		fmt.Fprintf(buffered, "SEVERITY: %s\n", obs.Severity)
	}

	for _, failure := range result.Failures {
		fmt.Fprintln(buffered)
		fmt.Fprintf(buffered, "NOT CHECKED: %s: %v\n", failure.Kind, failure.Err)
	}

	return buffered.Flush() //nolint:wrapcheck // io errors are returned as is
}

// Timestamp formats milliseconds as m:ss.mmm.
func Timestamp(ms int64) string {
	return fmt.Sprintf("%d:%02d.%03d", ms/60000, ms/1000%60, ms%1000)
}
