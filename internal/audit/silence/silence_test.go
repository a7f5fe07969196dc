package silence_test

import (
	"math"
	"testing"

	"github.com/farcloser/critic/internal/audit/silence"
	"github.com/farcloser/critic/internal/types"
)

const rate = 44100

type part struct {
	samples int
	silent  bool
}

func build(parts ...part) *types.Buffer {
	var samples []float64

	for _, p := range parts {
		for index := range p.samples {
			if p.silent {
				samples = append(samples, 0)

				continue
			}

			samples = append(samples, 0.5*math.Sin(2*math.Pi*440*float64(index)/rate))
		}
	}

	return &types.Buffer{
		Format:  types.PCMFormat{SampleRate: rate, BitDepth: types.Depth16, Channels: 2},
		Samples: [][]float64{samples, samples},
	}
}

func check(t *testing.T, buffer *types.Buffer, overrides map[string]string) []types.Observation {
	t.Helper()

	values, _, problems := silence.Definition.Resolve(overrides)
	if len(problems) != 0 {
		t.Fatal(problems)
	}

	found, err := silence.Definition.Check(buffer, values)
	if err != nil {
		t.Fatal(err)
	}

	return found
}

func TestLeadingSilence(t *testing.T) {
	t.Parallel()

	found := check(t, build(part{rate / 2, true}, part{rate * 2, false}), nil)
	if len(found) != 1 {
		t.Fatalf("found = %+v", found)
	}

	if found[0].StartMs != 0 || found[0].EndMs < 490 || found[0].EndMs > 500 {
		t.Errorf("leading silence span = %+v", found[0])
	}

	if found[0].Severity != types.SeverityMild || found[0].Temporal != types.Spanning {
		t.Errorf("leading silence = %+v", found[0])
	}

	found = check(t, build(part{rate * 3 / 10, true}, part{rate * 2, false}), nil)
	if len(found) != 0 {
		t.Errorf("300 ms of leading silence reported: %+v", found)
	}
}

func TestDropout(t *testing.T) {
	t.Parallel()

	found := check(t, build(part{rate, false}, part{rate * 3 / 2, true}, part{rate, false}), nil)
	if len(found) != 0 {
		t.Errorf("1.5 s dropout reported: %+v", found)
	}

	found = check(t, build(part{rate, false}, part{rate * 3, true}, part{rate, false}), nil)
	if len(found) != 1 {
		t.Fatalf("found = %+v", found)
	}

	if found[0].StartMs < 1000 || found[0].EndMs > 4000 || found[0].Severity != types.SeverityMild {
		t.Errorf("dropout = %+v", found[0])
	}
}

func TestTrailingSilenceHasItsOwnLimit(t *testing.T) {
	t.Parallel()

	found := check(t, build(part{rate, false}, part{rate * 3 / 2, true}), nil)
	if len(found) != 0 {
		t.Errorf("1.5 s of trailing silence reported: %+v", found)
	}

	// Between two and three times the 1800 ms limit.
	found = check(t, build(part{rate, false}, part{rate * 5, true}), nil)
	if len(found) != 1 || found[0].Severity != types.SeverityModerate {
		t.Errorf("found = %+v", found)
	}
}

func TestEntirelySilent(t *testing.T) {
	t.Parallel()

	found := check(t, build(part{rate * 3, true}), nil)
	if len(found) != 1 || found[0].StartMs != 0 || found[0].EndMs != 3000 || found[0].Severity != types.SeveritySevere {
		t.Errorf("found = %+v", found)
	}
}

func TestSegments(t *testing.T) {
	t.Parallel()

	levels := []float64{0, 0, 1, 0, 1, 0, 0}

	segments := silence.Segments(levels, 0.5)

	expected := []silence.Segment{
		{StartWindow: 0, EndWindow: 2, Position: silence.Leading},
		{StartWindow: 3, EndWindow: 4, Position: silence.Dropout},
		{StartWindow: 5, EndWindow: 7, Position: silence.Trailing},
	}

	if len(segments) != len(expected) {
		t.Fatalf("segments = %+v", segments)
	}

	for index := range expected {
		if segments[index] != expected[index] {
			t.Errorf("segment %d = %+v, want %+v", index, segments[index], expected[index])
		}
	}

	if got := silence.Segments([]float64{0, 0}, 0.5); len(got) != 1 || got[0].Position != silence.Entire {
		t.Errorf("all silent = %+v", got)
	}
}
