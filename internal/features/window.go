// Package features derives the per-window signals checkers look at: RMS, spectra,
// spectral flux and spectral autocorrelation.
package features

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

var (
	ErrInvalidWindowSize   = errors.New("window size must be greater than 1")
	ErrFrequencyOutOfRange = errors.New("frequency out of range")
	ErrInvalidLag          = errors.New("invalid lag range")
)

// WindowSamples splits samples into contiguous windows of windowSize, zero-padding the last one.
func WindowSamples(samples []float64, windowSize int) ([][]float64, error) {
	if windowSize <= 1 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidWindowSize, windowSize)
	}

	count := (len(samples) + windowSize - 1) / windowSize
	windows := make([][]float64, count)

	for index := range windows {
		window := make([]float64, windowSize)
		copy(window, samples[index*windowSize:])
		windows[index] = window
	}

	return windows, nil
}

// CompleteWindows returns only the windows that are fully covered by samples.
func CompleteWindows(samples []float64, windowSize int) ([][]float64, error) {
	if windowSize <= 1 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidWindowSize, windowSize)
	}

	count := len(samples) / windowSize
	windows := make([][]float64, count)

	for index := range windows {
		windows[index] = samples[index*windowSize : (index+1)*windowSize]
	}

	return windows, nil
}

// MixDown averages channels sample by sample. Channels shorter than the first are treated as silent past their end.
func MixDown(channels [][]float64) []float64 {
	if len(channels) == 0 {
		return nil
	}

	if len(channels) == 1 {
		return append([]float64(nil), channels[0]...)
	}

	mixed := make([]float64, len(channels[0]))

	for _, channel := range channels {
		floats.Add(mixed[:min(len(mixed), len(channel))], channel[:min(len(mixed), len(channel))])
	}

	floats.Scale(1/float64(len(channels)), mixed)

	return mixed
}

// RMS of a window. Callers guarantee a non-empty window; empty yields 0.
func RMS(window []float64) float64 {
	if len(window) == 0 {
		return 0
	}

	return math.Sqrt(floats.Dot(window, window) / float64(len(window)))
}

// WindowedRMS computes the RMS of every window.
func WindowedRMS(windows [][]float64) []float64 {
	out := make([]float64, len(windows))
	for index, window := range windows {
		out[index] = RMS(window)
	}

	return out
}

// Mean sample value, 0 for an empty slice.
func Mean(samples []float64) float64 {
	if len(samples) == 0 {
		return 0
	}

	return stat.Mean(samples, nil)
}

// StdDev is the population standard deviation, 0 for fewer than two values.
func StdDev(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}

	return stat.PopStdDev(values, nil)
}

// MaxAbs returns the largest absolute sample value.
func MaxAbs(samples []float64) float64 {
	var peak float64

	for _, sample := range samples {
		if abs := math.Abs(sample); abs > peak {
			peak = abs
		}
	}

	return peak
}
