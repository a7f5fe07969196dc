package output

import (
	"bufio"
	"fmt"
	"io"
	"strconv"

	"github.com/farcloser/critic/internal/types"
)

// Label is the text of an observation on a label track: "kind (severity)".
func Label(obs types.Observation) string {
	return obs.Kind.String() + " (" + obs.Severity.String() + ")"
}

// WriteLabels writes observations as an Audacity label track: one "start<TAB>end<TAB>label" line each,
// times in seconds. Instantaneous observations have identical start and end.
func WriteLabels(writer io.Writer, observations []types.Observation) error {
	buffered := bufio.NewWriter(writer)

	for _, obs := range observations {
		end := obs.EndMs
		if obs.Temporal == types.Instantaneous {
			end = obs.StartMs
		}

		if _, err := fmt.Fprintf(buffered, "%s\t%s\t%s\n", seconds(obs.StartMs), seconds(end), Label(obs)); err != nil {
			return err //nolint:wrapcheck // io errors are returned as is
		}
	}

	return buffered.Flush() //nolint:wrapcheck // io errors are returned as is
}

func seconds(ms int64) string {
	return strconv.FormatFloat(float64(ms)/1000, 'f', 6, 64)
}
