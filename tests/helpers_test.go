package tests_test

import (
	"fmt"
	"strings"

	"github.com/containerd/nerdctl/mod/tigron/test"
	"github.com/containerd/nerdctl/mod/tigron/tig"
)

// Every test reads the text format: one "ERROR TYPE: <kind>" block per observation, closed by "SEVERITY: <severity>".

// process builds the arguments of a text-format process run.
func process(file string, args ...string) []string {
	return append(append([]string{"process", "--format", "text"}, args...), file)
}

// expectObservation verifies that an observation of kind was reported with the given severity.
func expectObservation(kind, severity string) test.Comparator {
	return func(stdout string, testing tig.T) {
		testing.Helper()

		if observationBlockContains(stdout, kind, "SEVERITY: "+severity) {
			return
		}

		testing.Log(fmt.Sprintf("expected %q with severity %q not found in output:\n%s", kind, severity, stdout))
		testing.Fail()
	}
}

// expectDetected verifies that at least one observation of kind was reported.
func expectDetected(kind string) test.Comparator {
	return func(stdout string, testing tig.T) {
		testing.Helper()

		if strings.Contains(stdout, "ERROR TYPE: "+kind+"\n") {
			return
		}

		testing.Log(fmt.Sprintf("expected %q to be detected but it was not found in output:\n%s", kind, stdout))
		testing.Fail()
	}
}

// expectNone verifies that kind was not reported.
func expectNone(kind string) test.Comparator {
	return func(stdout string, testing tig.T) {
		testing.Helper()

		if strings.Contains(stdout, "ERROR TYPE: "+kind+"\n") {
			testing.Log(fmt.Sprintf("expected no %q but it was reported in output:\n%s", kind, stdout))
			testing.Fail()
		}
	}
}

// observationBlockContains scans the observation blocks of kind for the target line.
func observationBlockContains(stdout, kind, target string) bool {
	lines := strings.Split(stdout, "\n")
	header := "ERROR TYPE: " + kind

	for index, line := range lines {
		if line != header {
			continue
		}

		for next := index + 1; next < min(len(lines), index+6); next++ {
			if strings.HasPrefix(lines[next], "ERROR TYPE: ") {
				break
			}

			if lines[next] == target {
				return true
			}
		}
	}

	return false
}

// expectWorstSeverity verifies the worst severity in the summary.
func expectWorstSeverity(severity string) test.Comparator {
	return expectContains("WORST SEVERITY: " + severity + "\n")
}

// expectContains returns a comparator verifying the output contains a substring.
func expectContains(substr string) test.Comparator {
	return func(stdout string, testing tig.T) {
		testing.Helper()

		if !strings.Contains(stdout, substr) {
			testing.Log(fmt.Sprintf("expected substring %q not found in output:\n%s", substr, stdout))
			testing.Fail()
		}
	}
}
