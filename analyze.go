//nolint:wrapcheck // context errors are returned as is
package critic

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/farcloser/critic/internal/audit/checker"
	"github.com/farcloser/critic/internal/audit/clipping"
	"github.com/farcloser/critic/internal/audit/dcbias"
	"github.com/farcloser/critic/internal/audit/duration"
	"github.com/farcloser/critic/internal/audit/dynamics"
	"github.com/farcloser/critic/internal/audit/editclick"
	"github.com/farcloser/critic/internal/audit/encoding"
	"github.com/farcloser/critic/internal/audit/hum"
	"github.com/farcloser/critic/internal/audit/narrowband"
	"github.com/farcloser/critic/internal/audit/noise"
	"github.com/farcloser/critic/internal/audit/phasing"
	"github.com/farcloser/critic/internal/audit/silence"
	"github.com/farcloser/critic/internal/audit/stereo"
	"github.com/farcloser/critic/internal/loudness"
	"github.com/farcloser/critic/internal/types"
)

/*
Usage:

c, err := critic.New(critic.DefaultConfig(), critic.ChecksAll)
if err != nil {
    var cfgErr *critic.ConfigError
    if errors.As(err, &cfgErr) {
        for _, problem := range cfgErr.Problems {
            fmt.Println(problem)
        }
    }
}

result, err := c.Analyze(ctx, buffer)
for _, obs := range result.Observations {
    fmt.Printf("[%s] %s %d-%d ms\n", obs.Severity, obs.Kind, obs.StartMs, obs.EndMs)
}

// Vinyl rips tolerate more clicks, noise and DC offset
cfg := critic.DefaultConfig().With(critic.SourceVinyl.Overlay())
c, err := critic.New(cfg, critic.ChecksDefects)

*/

var (
	// ErrInvalidConfig is wrapped by every configuration validation failure.
	ErrInvalidConfig = errors.New("invalid configuration")
	// ErrUnknownCheck is returned when parsing a check or preset name fails.
	ErrUnknownCheck = errors.New("unknown check")
	// ErrUnknownSource is returned when parsing a source profile name fails.
	ErrUnknownSource = errors.New("unknown source")
)

// Check selects one checker.
type Check int

const (
	CheckDigitalClipping Check = 1 << iota
	CheckEditClick
	CheckInstantaneousNoise
	CheckGroundLoopHum
	CheckNarrowbandNoise
	CheckPhasing
	CheckNotStereo
	CheckStereoSimilarity
	CheckStereoBalance
	CheckDynamicRange
	CheckDynamicsVariety
	CheckCompression
	CheckLongSilence
	CheckDCBias
	CheckEncodingQuality
	CheckDuration

	// Presets.
	ChecksPolicy = CheckNotStereo | CheckEncodingQuality | CheckDuration

	ChecksAll = CheckDigitalClipping | CheckEditClick | CheckInstantaneousNoise |
		CheckGroundLoopHum | CheckNarrowbandNoise | CheckPhasing | CheckNotStereo |
		CheckStereoSimilarity | CheckStereoBalance | CheckDynamicRange |
		CheckDynamicsVariety | CheckCompression | CheckLongSilence | CheckDCBias |
		CheckEncodingQuality | CheckDuration

	ChecksDefects = ChecksAll &^ ChecksPolicy
)

type registered struct {
	check      Check
	definition *checker.Definition
}

// Declaration order is the order checkers are reported in.
//
//nolint:gochecknoglobals // static registry
var registry = []registered{
	{CheckDigitalClipping, clipping.Definition},
	{CheckEditClick, editclick.Definition},
	{CheckInstantaneousNoise, noise.Definition},
	{CheckGroundLoopHum, hum.Definition},
	{CheckNarrowbandNoise, narrowband.Definition},
	{CheckPhasing, phasing.Definition},
	{CheckNotStereo, stereo.NotStereo},
	{CheckStereoSimilarity, stereo.Similarity},
	{CheckStereoBalance, stereo.Balance},
	{CheckDynamicRange, dynamics.Range},
	{CheckDynamicsVariety, dynamics.Variety},
	{CheckCompression, dynamics.Compression},
	{CheckLongSilence, silence.Definition},
	{CheckDCBias, dcbias.Definition},
	{CheckEncodingQuality, encoding.Definition},
	{CheckDuration, duration.Definition},
}

func lookup(c Check) *checker.Definition {
	for _, entry := range registry {
		if entry.check == c {
			return entry.definition
		}
	}

	return nil
}

// Kind is the observation kind the check reports.
func (c Check) Kind() types.Kind {
	if definition := lookup(c); definition != nil {
		return definition.Kind
	}

	return ""
}

func (c Check) String() string {
	if definition := lookup(c); definition != nil {
		return definition.Kind.String()
	}

	return "unknown"
}

// Checks lists every individual check, in reporting order.
func Checks() []Check {
	out := make([]Check, len(registry))
	for index, entry := range registry {
		out[index] = entry.check
	}

	return out
}

// ParseChecks turns a comma separated list of check names and presets (all, defects, policy) into a mask.
func ParseChecks(list string) (Check, error) {
	var mask Check

	for name := range strings.SplitSeq(list, ",") {
		name = strings.TrimSpace(name)

		switch name {
		case "":
			continue
		case "all":
			mask |= ChecksAll
		case "defects":
			mask |= ChecksDefects
		case "policy":
			mask |= ChecksPolicy
		default:
			found := false

			for _, entry := range registry {
				if entry.definition.Kind.String() == name {
					mask |= entry.check
					found = true
				}
			}

			if !found {
				return 0, fmt.Errorf("%w: %q", ErrUnknownCheck, name)
			}
		}
	}

	return mask, nil
}

// Source is the kind of material being checked. Each one adjusts thresholds for the medium.
type Source int

const (
	SourceDigital Source = iota // Clean digital recording (default).
	SourceVinyl                 // Vinyl rip. Surface noise, clicks, DC offset, long run-in grooves.
	SourceLive                  // Live recording. Ambient noise, PA hum, long applause tails.
)

func (s Source) String() string {
	switch s {
	case SourceDigital:
		return "digital"
	case SourceVinyl:
		return "vinyl"
	case SourceLive:
		return "live"
	}

	return "unknown"
}

// ParseSource converts a string to a Source value.
func ParseSource(s string) (Source, error) {
	switch s {
	case "digital", "":
		return SourceDigital, nil
	case "vinyl":
		return SourceVinyl, nil
	case "live":
		return SourceLive, nil
	default:
		return 0, fmt.Errorf("%w: %q (valid: digital, vinyl, live)", ErrUnknownSource, s)
	}
}

// Overlay returns the configuration values this source changes from the defaults.
func (s Source) Overlay() Config {
	switch s {
	case SourceVinyl:
		return Config{
			"edit_click_window_maximum_sample_jump":     "0.7",
			"instantaneous_noise_flux_threshold":        "0.1",
			"ground_loop_hum_power_threshold":           "0.0005",
			"dc_bias_maximum_offset":                    "0.01",
			"stereo_channel_balance_maximum_difference": "0.05",
			"long_silence_maximum_duration_at_start":    "5000",
			"long_silence_maximum_duration_at_end":      "10000",
		}
	case SourceLive:
		return Config{
			"instantaneous_noise_flux_threshold":     "0.1",
			"ground_loop_hum_power_threshold":        "0.0003",
			"long_silence_maximum_duration_at_start": "5000",
			"long_silence_maximum_duration_at_end":   "15000",
			"duration_maximum_length":                "10800",
		}
	default:
		return Config{}
	}
}

// Config maps configuration keys to raw values.
type Config map[string]string

// DefaultConfig returns every key of every checker with its default value.
func DefaultConfig() Config {
	cfg := Config{}

	for _, entry := range DefaultEntries() {
		cfg[entry.Key] = entry.Value
	}

	return cfg
}

// DefaultEntries lists every key in checker order, with its default and description.
func DefaultEntries() []checker.Entry {
	var entries []checker.Entry
	for _, entry := range registry {
		entries = append(entries, entry.definition.DefaultConfiguration()...)
	}

	return entries
}

// With returns a copy of c with every key of overlay applied.
func (c Config) With(overlay Config) Config {
	out := maps.Clone(c)
	if out == nil {
		out = Config{}
	}

	maps.Copy(out, overlay)

	return out
}

type active struct {
	definition *checker.Definition
	values     checker.Values
}

// Critic runs a validated set of checkers.
type Critic struct {
	active []active
}

// New validates cfg against every checker and keeps those selected by checks and enabled by their
// check_<prefix> key. All problems are reported at once in a *ConfigError. Keys no checker reads are
// logged and ignored, so configuration files from other versions still load.
func New(cfg Config, checks Check) (*Critic, error) {
	if checks == 0 {
		checks = ChecksAll
	}

	var problems []string

	known := map[string]bool{}
	for _, entry := range registry {
		for _, item := range entry.definition.DefaultConfiguration() {
			known[item.Key] = true
		}

		if entry.definition.ApplyAlias != "" {
			known[entry.definition.ApplyAlias] = true
		}
	}

	for _, key := range slices.Sorted(maps.Keys(cfg)) {
		if !known[key] {
			slog.Warn("ignoring unknown configuration key", "key", key)
		}
	}

	critic := &Critic{}

	for _, entry := range registry {
		values, enabled, found := entry.definition.Resolve(cfg)
		problems = append(problems, found...)

		if len(found) == 0 && enabled && checks&entry.check != 0 {
			critic.active = append(critic.active, active{definition: entry.definition, values: values})
		}
	}

	if len(problems) > 0 {
		return nil, &ConfigError{Problems: problems}
	}

	return critic, nil
}

// Active lists the kinds this critic will check, in reporting order.
func (c *Critic) Active() []types.Kind {
	kinds := make([]types.Kind, len(c.active))
	for index, run := range c.active {
		kinds[index] = run.definition.Kind
	}

	return kinds
}

// Analyze runs every active checker concurrently on buffer, along with the loudness measurement.
// A checker that cannot run is recorded as a Failure and does not affect the others.
// The error is only ever the context's.
func (c *Critic) Analyze(ctx context.Context, buffer *types.Buffer) (*Result, error) {
	found := make([][]types.Observation, len(c.active))
	failed := make([]error, len(c.active))

	var measured loudness.Measurement

	group, groupCtx := errgroup.WithContext(ctx)

	group.Go(func() error {
		if err := groupCtx.Err(); err != nil {
			return err
		}

		measured = loudness.Measure(buffer)

		return nil
	})

	for index, run := range c.active {
		group.Go(func() error {
			if err := groupCtx.Err(); err != nil {
				return err
			}

			observations, err := run.definition.Check(buffer, run.values)
			if err != nil {
				slog.Debug("checker failed", "kind", run.definition.Kind, "error", err)

				failed[index] = err

				return nil
			}

			found[index] = observations

			return nil
		})
	}

	if err := group.Wait(); err != nil {
		return nil, err
	}

	result := &Result{
		Format:     buffer.Format,
		Codec:      buffer.Codec,
		Lossy:      buffer.Lossy,
		Tags:       buffer.Tags,
		DurationMs: buffer.DurationMs(),
		Loudness:   measured,
		Checked:    c.Active(),
	}

	for index, run := range c.active {
		if failed[index] != nil {
			result.Failures = append(result.Failures, Failure{Kind: run.definition.Kind, Err: failed[index]})

			continue
		}

		result.Observations = append(result.Observations, found[index]...)
	}

	// Stable, so observations starting together keep checker order.
	sort.SliceStable(result.Observations, func(i, j int) bool {
		return result.Observations[i].StartMs < result.Observations[j].StartMs
	})

	result.IssueCount = len(result.Observations)
	for _, obs := range result.Observations {
		result.WorstSeverity = types.MaxSeverity(result.WorstSeverity, obs.Severity)
	}

	return result, nil
}
