// Package checker holds what every defect checker shares: a declarative parameter table,
// validation, configuration resolution and the per-channel / cross-channel merge plumbing.
package checker

import (
	"errors"
	"fmt"
	"strings"

	"github.com/farcloser/critic/internal/observation"
	"github.com/farcloser/critic/internal/types"
)

var (
	// ErrInsufficientLength is returned when the audio is too short for the configured windows.
	ErrInsufficientLength = errors.New("insufficient audio length")
	// ErrForeignObservation is returned when a detector reports a kind other than its own.
	ErrForeignObservation = errors.New("observation of another kind")
)

// ApplyPrefix is prepended to a checker prefix to form its on/off key.
const ApplyPrefix = "check_"

// Param is one tunable parameter: key, default, description and validity rule.
type Param struct {
	Key      string
	Default  string
	Usage    string
	Validate Validator
}

// Entry is a resolved key/value pair, in declaration order.
type Entry struct {
	Key   string
	Value string
	Usage string
}

// DetectFunc runs the detection algorithm on a buffer with validated values.
type DetectFunc func(buffer *types.Buffer, values Values) ([]types.Observation, error)

// Definition describes one checker.
type Definition struct {
	Kind     types.Kind
	Prefix   string
	Temporal types.Temporal
	Usage    string
	// Enabled is the default of the check_<prefix> key.
	Enabled bool
	// ApplyAlias is read in place of the on/off key when that one is absent.
	ApplyAlias string
	Params  []Param
	// Constraints checks relations between parameters once each one is individually valid.
	Constraints func(values Values) []string
	Detect      DetectFunc
}

// ApplyKey is the key toggling this checker.
func (d *Definition) ApplyKey() string {
	return ApplyPrefix + d.Prefix
}

// DefaultConfiguration lists the apply flag followed by every parameter with its default.
func (d *Definition) DefaultConfiguration() []Entry {
	entries := make([]Entry, 0, len(d.Params)+1)
	entries = append(entries, Entry{
		Key:   d.ApplyKey(),
		Value: formatBool(d.Enabled),
		Usage: "whether to run: " + d.Usage,
	})

	for _, param := range d.Params {
		entries = append(entries, Entry{Key: param.Key, Value: param.Default, Usage: param.Usage})
	}

	return entries
}

// Validate checks the configured values for this checker's keys, overlaid on defaults.
// It reports every problem instead of stopping at the first.
func (d *Definition) Validate(config map[string]string) []string {
	_, _, problems := d.Resolve(config)

	return problems
}

// Resolve overlays config on the defaults and validates the result.
func (d *Definition) Resolve(config map[string]string) (Values, bool, []string) {
	var problems []string

	values := make(Values, len(d.Params)+1)

	lookup := func(key, fallback string) string {
		if value, ok := config[key]; ok {
			return value
		}

		return fallback
	}

	check := func(key, value string, validator Validator) {
		values[key] = value

		if value == "" || strings.ContainsAny(value, " \t\r\n\v\f") {
			problems = append(problems, fmt.Sprintf("%s: value %q must not be empty or contain whitespace", key, value))

			return
		}

		if validator == nil {
			return
		}

		if err := validator(value); err != nil {
			problems = append(problems, fmt.Sprintf("%s: value %q %v", key, value, err))
		}
	}

	apply := formatBool(d.Enabled)
	if d.ApplyAlias != "" {
		apply = lookup(d.ApplyAlias, apply)
	}

	check(d.ApplyKey(), lookup(d.ApplyKey(), apply), Boolean())

	for _, param := range d.Params {
		check(param.Key, lookup(param.Key, param.Default), param.Validate)
	}

	if len(problems) == 0 && d.Constraints != nil {
		problems = d.Constraints(values)
	}

	if len(problems) > 0 {
		return values, false, problems
	}

	return values, values.Bool(d.ApplyKey()), nil
}

// Check runs the detector and returns a chronologically sorted list, all of the checker's own kind.
func (d *Definition) Check(buffer *types.Buffer, values Values) ([]types.Observation, error) {
	found, err := d.Detect(buffer, values)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", d.Kind, err)
	}

	for _, obs := range found {
		if obs.Kind != d.Kind || obs.Temporal != d.Temporal {
			return nil, fmt.Errorf("%s: %w: %s (%s)", d.Kind, ErrForeignObservation, obs.Kind, obs.Temporal)
		}
	}

	return observation.Sort(found), nil
}

// PerChannel runs detect on each channel, merges each channel's findings within proximityMs,
// then merges across channels.
func PerChannel(
	buffer *types.Buffer,
	proximityMs int64,
	detect func(channel int, samples []float64) ([]types.Observation, error),
) ([]types.Observation, error) {
	perChannel := make([][]types.Observation, len(buffer.Samples))

	for channel, samples := range buffer.Samples {
		found, err := detect(channel, samples)
		if err != nil {
			return nil, err
		}

		perChannel[channel] = observation.Merge(observation.Sort(found), proximityMs)
	}

	return observation.MergeChannels(perChannel), nil
}

// Whole returns a single observation covering the entire buffer.
func Whole(buffer *types.Buffer, kind types.Kind, severity types.Severity) types.Observation {
	return types.Observation{
		Kind:     kind,
		Temporal: types.Spanning,
		StartMs:  0,
		EndMs:    buffer.DurationMs(),
		Severity: severity,
	}
}

// Span builds a spanning observation from sample indexes, end inclusive.
func Span(buffer *types.Buffer, kind types.Kind, startSample, endSample int, severity types.Severity) types.Observation {
	return types.Observation{
		Kind:     kind,
		Temporal: types.Spanning,
		StartMs:  buffer.SampleToMs(startSample),
		EndMs:    buffer.SampleToMs(endSample),
		Severity: severity,
	}
}

// Point builds an instantaneous observation at a sample index.
func Point(buffer *types.Buffer, kind types.Kind, sample int, severity types.Severity) types.Observation {
	at := buffer.SampleToMs(sample)

	return types.Observation{
		Kind:     kind,
		Temporal: types.Instantaneous,
		StartMs:  at,
		EndMs:    at,
		Severity: severity,
	}
}

// WindowSpan builds a spanning observation for window index of windowSize samples, clamped to the buffer.
func WindowSpan(buffer *types.Buffer, kind types.Kind, index, windowSize int, severity types.Severity) types.Observation {
	start := index * windowSize
	end := min((index+1)*windowSize, buffer.Frames())

	return types.Observation{
		Kind:     kind,
		Temporal: types.Spanning,
		StartMs:  buffer.SampleToMs(start),
		EndMs:    buffer.SampleToMs(end),
		Severity: severity,
	}
}

// RequireSamples fails with ErrInsufficientLength when a channel is shorter than need.
func RequireSamples(buffer *types.Buffer, need int) error {
	if buffer.Frames() < need {
		return fmt.Errorf("%w: %d samples per channel, need at least %d", ErrInsufficientLength, buffer.Frames(), need)
	}

	return nil
}
