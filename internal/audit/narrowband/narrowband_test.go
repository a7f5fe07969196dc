package narrowband_test

import (
	"errors"
	"math"
	"math/rand/v2"
	"testing"

	"github.com/farcloser/critic/internal/audit/checker"
	"github.com/farcloser/critic/internal/audit/narrowband"
	"github.com/farcloser/critic/internal/types"
)

const rate = 44100

func mono(samples []float64) *types.Buffer {
	return &types.Buffer{
		Format:  types.PCMFormat{SampleRate: rate, BitDepth: types.Depth16, Channels: 1},
		Samples: [][]float64{samples},
	}
}

func TestPeakRatio(t *testing.T) {
	t.Parallel()

	if got := narrowband.PeakRatio([]float64{5, 0, 0, 0}); got != 0 {
		t.Errorf("DC only = %v", got)
	}

	if got := narrowband.PeakRatio([]float64{0, 1, 1, 4}); got != 2 {
		t.Errorf("ratio = %v, want 2", got)
	}
}

func TestDetectWhine(t *testing.T) {
	t.Parallel()

	samples := make([]float64, 16384*2)
	for index := range samples {
		samples[index] = 0.2 * math.Sin(2*math.Pi*3000*float64(index)/rate)
	}

	values, _, problems := narrowband.Definition.Resolve(nil)
	if len(problems) != 0 {
		t.Fatal(problems)
	}

	found, err := narrowband.Definition.Check(mono(samples), values)
	if err != nil {
		t.Fatal(err)
	}

	if len(found) != 1 || found[0].Severity != types.SeveritySevere {
		t.Errorf("found = %+v", found)
	}
}

func TestDetectBroadbandNoiseIsFine(t *testing.T) {
	t.Parallel()

	random := rand.New(rand.NewPCG(7, 11)) //nolint:gosec // deterministic test signal

	samples := make([]float64, 16384*2)
	for index := range samples {
		samples[index] = random.Float64()*0.4 - 0.2
	}

	values, _, _ := narrowband.Definition.Resolve(nil)

	found, err := narrowband.Definition.Check(mono(samples), values)
	if err != nil {
		t.Fatal(err)
	}

	if len(found) != 0 {
		t.Errorf("noise reported: %+v", found)
	}
}

func TestDetectSilenceAndShortInput(t *testing.T) {
	t.Parallel()

	values, _, _ := narrowband.Definition.Resolve(nil)

	found, err := narrowband.Definition.Check(mono(make([]float64, 16384)), values)
	if err != nil || len(found) != 0 {
		t.Errorf("silence: %+v, %v", found, err)
	}

	if _, err := narrowband.Definition.Check(mono(make([]float64, 100)), values); !errors.Is(err, checker.ErrInsufficientLength) {
		t.Errorf("short input err = %v", err)
	}
}
