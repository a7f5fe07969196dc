package duration_test

import (
	"testing"

	"github.com/farcloser/critic/internal/audit/duration"
	"github.com/farcloser/critic/internal/types"
)

const rate = 100

func seconds(value float64) *types.Buffer {
	return &types.Buffer{
		Format:  types.PCMFormat{SampleRate: rate, BitDepth: types.Depth16, Channels: 1},
		Samples: [][]float64{make([]float64, int(value*rate))},
	}
}

func TestDuration(t *testing.T) {
	t.Parallel()

	values, _, problems := duration.Definition.Resolve(map[string]string{"duration_minimum_length": "5"})
	if len(problems) != 0 {
		t.Fatal(problems)
	}

	tests := []struct {
		seconds  float64
		expected types.Severity
	}{
		{0, types.SeveritySevere},
		{3, types.SeveritySevere},
		{4, types.SeverityModerate},
		{4.5, types.SeverityMild},
		{5, types.SeverityNone},
		{5400, types.SeverityNone},
		{6000, types.SeverityMild},
		{6500, types.SeverityModerate},
		{7100, types.SeveritySevere},
	}

	for _, test := range tests {
		buffer := seconds(test.seconds)

		found, err := duration.Definition.Check(buffer, values)
		if err != nil {
			t.Fatal(err)
		}

		if test.expected == types.SeverityNone {
			if len(found) != 0 {
				t.Errorf("%v s: found = %+v", test.seconds, found)
			}

			continue
		}

		if len(found) != 1 || found[0].Severity != test.expected || found[0].EndMs != buffer.DurationMs() {
			t.Errorf("%v s: found = %+v, want %v", test.seconds, found, test.expected)
		}
	}
}

func TestDefaultsAcceptEmptyFile(t *testing.T) {
	t.Parallel()

	values, _, _ := duration.Definition.Resolve(nil)

	found, err := duration.Definition.Check(seconds(0), values)
	if err != nil || len(found) != 0 {
		t.Errorf("found = %+v, %v", found, err)
	}
}

func TestAssess(t *testing.T) {
	t.Parallel()

	if _, ok := duration.Assess(0, 0, 5400); ok {
		t.Error("empty file reported without a minimum")
	}

	if severity, ok := duration.Assess(0, 5, 5400); !ok || severity != types.SeveritySevere {
		t.Errorf("empty file = %v, %v", severity, ok)
	}

	if _, ok := duration.Assess(5400, 0, 5400); ok {
		t.Error("exactly the maximum reported")
	}
}

func TestMaximumMustExceedMinimum(t *testing.T) {
	t.Parallel()

	problems := duration.Definition.Validate(map[string]string{
		"duration_minimum_length": "60",
		"duration_maximum_length": "60",
	})
	if len(problems) != 1 {
		t.Errorf("problems = %v", problems)
	}
}
