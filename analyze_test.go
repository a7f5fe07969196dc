package critic_test

import (
	"context"
	"errors"
	"testing"

	"github.com/farcloser/critic"
	"github.com/farcloser/critic/internal/audit/checker"
	"github.com/farcloser/critic/internal/types"
)

func offsetMono(seconds int) *types.Buffer {
	samples := make([]float64, 1000*seconds)
	for index := range samples {
		samples[index] = 0.01
	}

	return &types.Buffer{
		Format:  types.PCMFormat{SampleRate: 1000, BitDepth: types.Depth16, Channels: 1},
		Samples: [][]float64{samples},
	}
}

func TestDefaultConfigIsValid(t *testing.T) {
	t.Parallel()

	cfg := critic.DefaultConfig()

	for _, check := range critic.Checks() {
		if check.Kind() == "" || check.String() == "unknown" {
			t.Errorf("check %d has no checker", check)
		}
	}

	if cfg["check_digital_clipping"] != "true" || cfg["check_insufficient_dynamic_range_compression"] != "false" {
		t.Errorf("unexpected apply defaults: %v", cfg)
	}

	c, err := critic.New(cfg, critic.ChecksAll)
	if err != nil {
		t.Fatal(err)
	}

	// Compression and phasing are off by default.
	if got := len(c.Active()); got != len(critic.Checks())-2 {
		t.Errorf("active = %v", c.Active())
	}
}

func TestNewReportsEveryProblem(t *testing.T) {
	t.Parallel()

	_, err := critic.New(critic.Config{
		"digital_clipping_minimum_identical_samples": "1",
		"duration_maximum_length":                    "abc",
		"no_such_key":                                "1",
	}, critic.ChecksAll)

	if !errors.Is(err, critic.ErrInvalidConfig) {
		t.Fatalf("err = %v", err)
	}

	var cfgErr *critic.ConfigError
	if !errors.As(err, &cfgErr) || len(cfgErr.Problems) != 2 {
		t.Errorf("problems = %+v", cfgErr)
	}
}

func TestNewIgnoresUnknownKeys(t *testing.T) {
	t.Parallel()

	cfg := critic.DefaultConfig().With(critic.Config{
		"analysis_window_size": "512",
		"some_future_key":      "yes",
		"check_is_not_streo":   "false",
	})

	c, err := critic.New(cfg, critic.CheckNotStereo|critic.CheckDCBias)
	if err != nil {
		t.Fatal(err)
	}

	// The correctly spelled default outranks the legacy spelling.
	if active := c.Active(); len(active) != 2 {
		t.Errorf("active = %v", active)
	}

	delete(cfg, "check_is_not_stereo")

	c, err = critic.New(cfg, critic.CheckNotStereo|critic.CheckDCBias)
	if err != nil {
		t.Fatal(err)
	}

	if active := c.Active(); len(active) != 1 || active[0] != types.KindDCBias {
		t.Errorf("active = %v", active)
	}
}

func TestSourceOverlaysAreValid(t *testing.T) {
	t.Parallel()

	for _, name := range []string{"digital", "vinyl", "live", ""} {
		source, err := critic.ParseSource(name)
		if err != nil {
			t.Fatal(err)
		}

		if _, err := critic.New(critic.DefaultConfig().With(source.Overlay()), critic.ChecksAll); err != nil {
			t.Errorf("%s: %v", source, err)
		}
	}

	if _, err := critic.ParseSource("cassette"); !errors.Is(err, critic.ErrUnknownSource) {
		t.Errorf("err = %v", err)
	}
}

func TestParseChecks(t *testing.T) {
	t.Parallel()

	mask, err := critic.ParseChecks("defects, duration")
	if err != nil {
		t.Fatal(err)
	}

	if mask != critic.ChecksDefects|critic.CheckDuration {
		t.Errorf("mask = %b", mask)
	}

	if mask&critic.CheckEncodingQuality != 0 {
		t.Error("encoding quality is a policy check")
	}

	mask, err = critic.ParseChecks("dc-bias,not-stereo")
	if err != nil || mask != critic.CheckDCBias|critic.CheckNotStereo {
		t.Errorf("mask = %b, %v", mask, err)
	}

	if _, err := critic.ParseChecks("clipping,wow"); !errors.Is(err, critic.ErrUnknownCheck) {
		t.Errorf("err = %v", err)
	}
}

func TestAnalyzeOrdersByStartThenChecker(t *testing.T) {
	t.Parallel()

	c, err := critic.New(critic.DefaultConfig(), critic.CheckDCBias|critic.CheckNotStereo)
	if err != nil {
		t.Fatal(err)
	}

	result, err := c.Analyze(context.Background(), offsetMono(6))
	if err != nil {
		t.Fatal(err)
	}

	if result.IssueCount != 2 || len(result.Observations) != 2 {
		t.Fatalf("observations = %+v", result.Observations)
	}

	if result.Observations[0].Kind != types.KindNotStereo || result.Observations[1].Kind != types.KindDCBias {
		t.Errorf("order = %+v", result.Observations)
	}

	if result.WorstSeverity != types.SeveritySevere {
		t.Errorf("worst = %v", result.WorstSeverity)
	}

	if len(result.ByKind(types.KindDCBias)) != 1 {
		t.Errorf("by kind = %+v", result.ByKind(types.KindDCBias))
	}
}

func TestAnalyzeRecordsFailures(t *testing.T) {
	t.Parallel()

	c, err := critic.New(critic.DefaultConfig(), critic.CheckGroundLoopHum|critic.CheckDCBias)
	if err != nil {
		t.Fatal(err)
	}

	result, err := c.Analyze(context.Background(), offsetMono(6))
	if err != nil {
		t.Fatal(err)
	}

	if len(result.Failures) != 1 || result.Failures[0].Kind != types.KindGroundLoopHum {
		t.Fatalf("failures = %+v", result.Failures)
	}

	if !errors.Is(result.Failures[0].Err, checker.ErrInsufficientLength) {
		t.Errorf("failure = %v", result.Failures[0].Err)
	}

	if len(result.Checked) != 2 || result.IssueCount != 1 {
		t.Errorf("result = %+v", result)
	}
}

func TestAnalyzeCancelled(t *testing.T) {
	t.Parallel()

	c, err := critic.New(critic.DefaultConfig(), critic.ChecksAll)
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := c.Analyze(ctx, offsetMono(1)); !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v", err)
	}
}
