package dcbias_test

import (
	"math"
	"testing"

	"github.com/farcloser/critic/internal/audit/dcbias"
	"github.com/farcloser/critic/internal/types"
)

const rate = 1000

// offsetSine is a whole number of periods, so its mean is the offset alone.
func offsetSine(offset float64) []float64 {
	out := make([]float64, rate*2)
	for index := range out {
		out[index] = offset + 0.3*math.Sin(2*math.Pi*10*float64(index)/rate)
	}

	return out
}

func stereo(left, right []float64) *types.Buffer {
	return &types.Buffer{
		Format:  types.PCMFormat{SampleRate: rate, BitDepth: types.Depth16, Channels: 2},
		Samples: [][]float64{left, right},
	}
}

func TestDetectOffset(t *testing.T) {
	t.Parallel()

	values, _, problems := dcbias.Definition.Resolve(nil)
	if len(problems) != 0 {
		t.Fatal(problems)
	}

	tests := []struct {
		name     string
		offset   float64
		expected types.Severity
	}{
		{"centered", 0, types.SeverityNone},
		{"mild", 0.004, types.SeverityMild},
		{"moderate", -0.007, types.SeverityModerate},
		{"severe", 0.01, types.SeveritySevere},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			t.Parallel()

			buffer := stereo(offsetSine(test.offset), offsetSine(0))

			found, err := dcbias.Definition.Check(buffer, values)
			if err != nil {
				t.Fatal(err)
			}

			if test.expected == types.SeverityNone {
				if len(found) != 0 {
					t.Errorf("found = %+v", found)
				}

				return
			}

			if len(found) != 1 {
				t.Fatalf("found = %+v", found)
			}

			if found[0].Severity != test.expected || found[0].StartMs != 0 || found[0].EndMs != 2000 {
				t.Errorf("observation = %+v, want %v over the whole file", found[0], test.expected)
			}
		})
	}
}

func TestOffsets(t *testing.T) {
	t.Parallel()

	offsets := dcbias.Offsets(stereo([]float64{0.5, 0.5}, []float64{-1, 0}))
	if len(offsets) != 2 || offsets[0] != 0.5 || offsets[1] != -0.5 {
		t.Errorf("offsets = %v", offsets)
	}
}
