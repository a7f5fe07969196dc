package tests_test

import (
	"testing"

	"github.com/containerd/nerdctl/mod/tigron/expect"
	"github.com/containerd/nerdctl/mod/tigron/test"

	"github.com/farcloser/agar/pkg/agar"

	"github.com/farcloser/critic/tests/testutils"
)

func TestProcessCLI(t *testing.T) {
	testCase := testutils.Setup()

	testCase.SubTests = []*test.Case{
		{
			Description: "process without arguments fails",
			Command:     test.Command("process"),
			Expected:    test.Expects(expect.ExitCodeGenericFail, nil, nil),
		},
		{
			Description: "process nonexistent file fails",
			Command:     test.Command("process", "/nonexistent/path/file.flac"),
			Expected:    test.Expects(expect.ExitCodeGenericFail, nil, nil),
		},
		{
			Description: "unknown check fails",
			Command:     test.Command("process", "--checks", "wow-and-flutter", "/nonexistent/path/file.flac"),
			Expected:    test.Expects(expect.ExitCodeGenericFail, nil, nil),
		},
		{
			Description: "out of range setting fails before any file is read",
			Command:     test.Command("process", "--set", "dc_bias_maximum_offset=2", "/nonexistent/path/file.flac"),
			Expected:    test.Expects(expect.ExitCodeGenericFail, nil, nil),
		},
		{
			Description: "single check on a clean file",
			Setup: func(data test.Data, helpers test.Helpers) {
				data.Labels().Set("file", agar.Genuine16bit44k(data, helpers))
			},
			Command: func(data test.Data, helpers test.Helpers) test.TestableCommand {
				return helpers.Command(process(data.Labels().Get("file"), "--checks", "digital-clipping")...)
			},
			Expected: func(_ test.Data, _ test.Helpers) *test.Expected {
				return &test.Expected{
					ExitCode: expect.ExitCodeSuccess,
					Output: expect.All(
						expectContains("ISSUES: 0\n"),
						expectWorstSeverity("no issue"),
					),
				}
			},
		},
		{
			Description: "vinyl source is accepted",
			Setup: func(data test.Data, helpers test.Helpers) {
				data.Labels().Set("file", agar.Genuine16bit44k(data, helpers))
			},
			Command: func(data test.Data, helpers test.Helpers) test.TestableCommand {
				return helpers.Command(process(data.Labels().Get("file"), "--source", "vinyl", "--checks", "dc-bias")...)
			},
			Expected: func(_ test.Data, _ test.Helpers) *test.Expected {
				return &test.Expected{
					ExitCode: expect.ExitCodeSuccess,
					Output:   expectNone("dc-bias"),
				}
			},
		},
		{
			Description: "json output carries the summary",
			Setup: func(data test.Data, helpers test.Helpers) {
				data.Labels().Set("file", agar.Genuine16bit44k(data, helpers))
			},
			Command: func(data test.Data, helpers test.Helpers) test.TestableCommand {
				return helpers.Command("process", "--format", "json", "--raw", "--checks", "defects", data.Labels().Get("file"))
			},
			Expected: func(_ test.Data, _ test.Helpers) *test.Expected {
				return &test.Expected{
					ExitCode: expect.ExitCodeSuccess,
					Output: expect.All(
						expectContains("worst_severity"),
						expectContains("observations"),
					),
				}
			},
		},
		{
			Description: "fail-on turns findings into a failure",
			Setup: func(data test.Data, helpers test.Helpers) {
				data.Labels().Set("file", agar.ClippedHard(data, helpers))
			},
			Command: func(data test.Data, helpers test.Helpers) test.TestableCommand {
				return helpers.Command(process(data.Labels().Get("file"), "--checks", "digital-clipping", "--fail-on", "mild")...)
			},
			Expected: func(_ test.Data, _ test.Helpers) *test.Expected {
				return &test.Expected{
					ExitCode: expect.ExitCodeGenericFail,
					Output:   expectDetected("digital-clipping"),
				}
			},
		},
	}

	testCase.Run(t)
}

func TestConfigCLI(t *testing.T) {
	testCase := testutils.Setup()

	testCase.SubTests = []*test.Case{
		{
			Description: "config prints every default",
			Command:     test.Command("config"),
			Expected: test.Expects(expect.ExitCodeSuccess, nil, expect.All(
				expectContains("check_digital_clipping\ttrue\n"),
				expectContains("dc_bias_maximum_offset\t0.003\n"),
				expectContains("check_insufficient_dynamic_range_compression\tfalse\n"),
			)),
		},
		{
			Description: "config applies the source overlay and --set",
			Command:     test.Command("config", "--source", "vinyl", "--set", "duration_maximum_length=1200"),
			Expected: test.Expects(expect.ExitCodeSuccess, nil, expect.All(
				expectContains("dc_bias_maximum_offset\t0.01\n"),
				expectContains("duration_maximum_length\t1200\n"),
			)),
		},
		{
			Description: "config lists the checks",
			Command:     test.Command("config", "--list-checks"),
			Expected: test.Expects(expect.ExitCodeSuccess, nil, expect.All(
				expectContains("edit-click\n"),
				expectContains("encoding-quality\n"),
			)),
		},
	}

	testCase.Run(t)
}
