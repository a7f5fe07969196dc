package checker

import (
	"errors"
	"fmt"
	"strconv"
)

var (
	errNotNumber  = errors.New("is not a number")
	errNotInteger = errors.New("is not an integer")
	errNotBoolean = errors.New("is not true or false")
	errOutOfRange = errors.New("is out of range")
)

// Values holds the validated, resolved configuration of one checker.
// Accessors assume the value went through its validator and fall back to zero otherwise.
type Values map[string]string

func (v Values) Float(key string) float64 {
	parsed, _ := strconv.ParseFloat(v[key], 64)

	return parsed
}

func (v Values) Int(key string) int {
	parsed, _ := strconv.Atoi(v[key])

	return parsed
}

func (v Values) Int64(key string) int64 {
	parsed, _ := strconv.ParseInt(v[key], 10, 64)

	return parsed
}

func (v Values) Bool(key string) bool {
	parsed, _ := strconv.ParseBool(v[key])

	return parsed
}

// Validator reports why a raw value is unacceptable, or nil.
type Validator func(value string) error

// FloatRange accepts numbers in (low, high], or [low, high] when lowInclusive.
func FloatRange(low, high float64, lowInclusive bool) Validator {
	return func(value string) error {
		parsed, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return errNotNumber
		}

		if parsed > high || parsed < low || (!lowInclusive && parsed == low) {
			bracket := "("
			if lowInclusive {
				bracket = "["
			}

			return fmt.Errorf("%w: must be in %s%g, %g]", errOutOfRange, bracket, low, high)
		}

		return nil
	}
}

// FloatAbove accepts numbers strictly greater than low.
func FloatAbove(low float64) Validator {
	return func(value string) error {
		parsed, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return errNotNumber
		}

		if parsed <= low {
			return fmt.Errorf("%w: must be > %g", errOutOfRange, low)
		}

		return nil
	}
}

// IntRange accepts integers in [low, high].
func IntRange(low, high int) Validator {
	return func(value string) error {
		parsed, err := strconv.Atoi(value)
		if err != nil {
			return errNotInteger
		}

		if parsed < low || parsed > high {
			return fmt.Errorf("%w: must be in [%d, %d]", errOutOfRange, low, high)
		}

		return nil
	}
}

// IntAtLeast accepts integers >= low.
func IntAtLeast(low int) Validator {
	return func(value string) error {
		parsed, err := strconv.Atoi(value)
		if err != nil {
			return errNotInteger
		}

		if parsed < low {
			return fmt.Errorf("%w: must be >= %d", errOutOfRange, low)
		}

		return nil
	}
}

// Boolean accepts true and false.
func Boolean() Validator {
	return func(value string) error {
		if value != "true" && value != "false" {
			return errNotBoolean
		}

		return nil
	}
}

func formatBool(value bool) string {
	return strconv.FormatBool(value)
}

// ProximityParam is the shared definition of a <prefix>_proximity_ms key; -1 disables merging.
func ProximityParam(prefix string, defaultMs int) Param {
	return Param{
		Key:      prefix + "_proximity_ms",
		Default:  strconv.Itoa(defaultMs),
		Usage:    "observations closer than this many milliseconds are merged (-1: overlap only)",
		Validate: IntAtLeast(-1),
	}
}

// WindowParam is the shared definition of a <prefix>_window_size key, in samples.
func WindowParam(prefix string, defaultSize int) Param {
	return Param{
		Key:      prefix + "_window_size",
		Default:  strconv.Itoa(defaultSize),
		Usage:    "analysis window length in samples",
		Validate: IntRange(2, 1<<22),
	}
}
