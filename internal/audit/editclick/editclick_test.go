package editclick_test

import (
	"math"
	"testing"

	"github.com/farcloser/critic/internal/audit/editclick"
	"github.com/farcloser/critic/internal/types"
)

func mono(rate int, samples []float64) *types.Buffer {
	return &types.Buffer{
		Format:  types.PCMFormat{SampleRate: rate, BitDepth: types.Depth16, Channels: 1},
		Samples: [][]float64{samples},
	}
}

func TestJumps(t *testing.T) {
	t.Parallel()

	samples := []float64{0, 0.01, 0.02, 0.6, 0.61, 0.62}

	jumps := editclick.Jumps(samples, 0.48, 0.9)
	if len(jumps) != 1 || jumps[0] != 3 {
		t.Errorf("jumps = %v", jumps)
	}

	// A steep but smooth slope is not an edit.
	ramp := []float64{0, 0.45, 0.95, 1.4}
	if jumps := editclick.Jumps(ramp, 0.48, 0.9); len(jumps) != 0 {
		t.Errorf("ramp jumps = %v", jumps)
	}
}

func TestDetectJumpInMiddle(t *testing.T) {
	t.Parallel()

	samples := make([]float64, 2000)
	for index := 1000; index < len(samples)-10; index++ {
		samples[index] = 0.7
	}

	values, _, problems := editclick.Definition.Resolve(nil)
	if len(problems) != 0 {
		t.Fatal(problems)
	}

	found, err := editclick.Definition.Check(mono(1000, samples), values)
	if err != nil {
		t.Fatal(err)
	}

	// The jump up at 1000 ms and the jump down at 1990 ms.
	if len(found) != 2 {
		t.Fatalf("found = %+v", found)
	}

	if found[0].StartMs != 1000 || found[0].Temporal != types.Instantaneous || found[0].Severity != types.SeverityModerate {
		t.Errorf("first = %+v", found[0])
	}
}

func TestDetectBoundaries(t *testing.T) {
	t.Parallel()

	samples := make([]float64, 1000)
	for index := range samples {
		samples[index] = 0.5 * math.Sin(float64(index)/50)
	}

	samples[0] = 0.7

	values, _, _ := editclick.Definition.Resolve(nil)

	found, err := editclick.Definition.Check(mono(1000, samples), values)
	if err != nil {
		t.Fatal(err)
	}

	if len(found) == 0 || found[0].StartMs != 0 {
		t.Fatalf("abrupt start not reported: %+v", found)
	}

	if found[0].Severity != types.SeverityModerate {
		t.Errorf("start severity = %v", found[0].Severity)
	}
}

func TestDetectNearbyClicksMerge(t *testing.T) {
	t.Parallel()

	samples := make([]float64, 3000)
	for index := range 10 {
		samples[1000+index] = 0.8
		samples[1020+index] = 0.8
	}

	values, _, _ := editclick.Definition.Resolve(nil)

	found, err := editclick.Definition.Check(mono(1000, samples), values)
	if err != nil {
		t.Fatal(err)
	}

	// Two short bursts: four jumps chained within 50 ms collapse to one.
	if len(found) != 1 || found[0].StartMs != 1000 {
		t.Errorf("found = %+v", found)
	}
}

func TestDetectSeverityTiers(t *testing.T) {
	t.Parallel()

	values, _, _ := editclick.Definition.Resolve(nil)

	// Graded against 1.3 and 1.6 times the 0.48 jump threshold.
	for jump, want := range map[float64]types.Severity{
		0.5:  types.SeverityMild,
		0.62: types.SeverityMild,
		0.63: types.SeverityModerate,
		0.76: types.SeverityModerate,
		0.77: types.SeveritySevere,
	} {
		samples := make([]float64, 200)
		for index := 100; index < 110; index++ {
			samples[index] = jump
		}

		found, err := editclick.Definition.Check(mono(1000, samples), values)
		if err != nil {
			t.Fatal(err)
		}

		if len(found) != 1 || found[0].Severity != want {
			t.Errorf("jump %v: found = %+v, want %v", jump, found, want)
		}
	}
}

func TestDetectQuietBoundaries(t *testing.T) {
	t.Parallel()

	samples := make([]float64, 1000)
	samples[0] = 0.02
	samples[len(samples)-1] = -0.02

	values, _, _ := editclick.Definition.Resolve(nil)

	found, err := editclick.Definition.Check(mono(1000, samples), values)
	if err != nil || len(found) != 0 {
		t.Errorf("samples at the boundary threshold reported: %+v, %v", found, err)
	}
}

func TestValidate(t *testing.T) {
	t.Parallel()

	problems := editclick.Definition.Validate(map[string]string{
		"edit_click_window_maximum_sample_jump": "0",
		"edit_click_window_boundary_fraction":   "1.5",
	})
	if len(problems) != 2 {
		t.Errorf("problems = %v", problems)
	}

	if problems := editclick.Definition.Validate(map[string]string{"edit_click_boundary_maximum_sample_jump": "0"}); len(problems) != 0 {
		t.Errorf("zero boundary rejected: %v", problems)
	}
}
