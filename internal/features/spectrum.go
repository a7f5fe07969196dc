package features

import (
	"fmt"
	"math"
	"math/cmplx"

	"github.com/mjibson/go-dsp/dsputils"
	"gonum.org/v1/gonum/dsp/fourier"
	"gonum.org/v1/gonum/floats"
)

// TransformSize is the FFT length used for a window: the next power of two.
func TransformSize(windowSize int) int {
	if windowSize < 2 {
		return 2
	}

	return dsputils.NextPowerOf2(windowSize)
}

// BinFrequency maps a spectrum bin to its frequency in Hz.
func BinFrequency(bin, sampleRate, transformSize int) float64 {
	return float64(bin) * float64(sampleRate) / float64(transformSize)
}

// Analyzer computes spectra for windows of one size, reusing the FFT plan.
// It is not safe for concurrent use.
type Analyzer struct {
	size   int
	fft    *fourier.FFT
	coeffs []complex128
}

// NewAnalyzer prepares an Analyzer for windows of windowSize samples.
func NewAnalyzer(windowSize int) *Analyzer {
	size := TransformSize(windowSize)

	return &Analyzer{
		size: size,
		fft:  fourier.NewFFT(size),
	}
}

// Size returns the transform size.
func (a *Analyzer) Size() int {
	return a.size
}

// Magnitude returns size/2+1 bins of |X(k)|/size.
func (a *Analyzer) Magnitude(window []float64) []float64 {
	padded := dsputils.ZeroPadF(window, a.size)
	if len(padded) > a.size {
		padded = padded[:a.size]
	}

	a.coeffs = a.fft.Coefficients(a.coeffs, padded)

	magnitudes := make([]float64, len(a.coeffs))
	for bin, coeff := range a.coeffs {
		magnitudes[bin] = cmplx.Abs(coeff)
	}

	floats.Scale(1/float64(a.size), magnitudes)

	return magnitudes
}

// Power returns the squared magnitude per bin.
func (a *Analyzer) Power(window []float64) []float64 {
	power := a.Magnitude(window)
	floats.Mul(power, power)

	return power
}

// MagnitudeSpectrum is a one-shot Analyzer.Magnitude.
func MagnitudeSpectrum(window []float64) []float64 {
	return NewAnalyzer(len(window)).Magnitude(window)
}

// PowerSpectrum is a one-shot Analyzer.Power.
func PowerSpectrum(window []float64) []float64 {
	return NewAnalyzer(len(window)).Power(window)
}

// SpectralFlux is the sum of squared per-bin differences. A nil previous spectrum counts as zeros.
func SpectralFlux(previous, current []float64) float64 {
	var flux float64

	for bin, value := range current {
		var before float64
		if bin < len(previous) {
			before = previous[bin]
		}

		diff := value - before
		flux += diff * diff
	}

	return flux
}

// FluxSeries computes the flux of every spectrum against its predecessor, the first against zero.
func FluxSeries(spectra [][]float64) []float64 {
	out := make([]float64, len(spectra))

	var previous []float64

	for index, spectrum := range spectra {
		out[index] = SpectralFlux(previous, spectrum)
		previous = spectrum
	}

	return out
}

// HighPassFilterSpectrum zeroes the lowest cutoffFraction of bins on a copy.
func HighPassFilterSpectrum(spectrum []float64, cutoffFraction float64) []float64 {
	filtered := append([]float64(nil), spectrum...)

	if cutoffFraction <= 0 || cutoffFraction >= 1 {
		return filtered
	}

	cut := int(math.Floor(cutoffFraction * float64(len(filtered))))
	for bin := range cut {
		filtered[bin] = 0
	}

	return filtered
}

// PowerSpectrumAtFrequency returns, per channel and per window, the power of the bin containing freq.
func PowerSpectrumAtFrequency(channels [][]float64, sampleRate int, freq float64, windowSize int) ([][]float64, error) {
	if freq <= 0 || freq > float64(sampleRate)/2 {
		return nil, fmt.Errorf("%w: %.2f Hz at %d Hz sampling", ErrFrequencyOutOfRange, freq, sampleRate)
	}

	if windowSize <= 1 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidWindowSize, windowSize)
	}

	analyzer := NewAnalyzer(windowSize)
	bin := FrequencyBin(freq, sampleRate, analyzer.Size())
	out := make([][]float64, len(channels))

	for channel, samples := range channels {
		windows, err := WindowSamples(samples, windowSize)
		if err != nil {
			return nil, err
		}

		out[channel] = make([]float64, len(windows))
		for index, window := range windows {
			out[channel][index] = analyzer.Power(window)[bin]
		}
	}

	return out, nil
}

// FrequencyBin returns the bin whose range [f - width/2, f + width/2) contains freq.
func FrequencyBin(freq float64, sampleRate, transformSize int) int {
	width := float64(sampleRate) / float64(transformSize)
	bin := int(math.Floor(freq/width + 0.5))

	return min(bin, transformSize/2)
}

// Autocorrelation returns r(lag) = sum x[i]*x[i+lag] for lag in [minLag, maxLag].
func Autocorrelation(signal []float64, minLag, maxLag int) ([]float64, error) {
	if minLag < 0 || maxLag < minLag {
		return nil, fmt.Errorf("%w: [%d, %d]", ErrInvalidLag, minLag, maxLag)
	}

	out := make([]float64, maxLag-minLag+1)

	for lag := minLag; lag <= maxLag; lag++ {
		if lag >= len(signal) {
			break
		}

		out[lag-minLag] = floats.Dot(signal[:len(signal)-lag], signal[lag:])
	}

	return out, nil
}

// CompressSpectrum merges groups of ceil(len/maxBins) consecutive power bins as (sum of sqrt)^2.
func CompressSpectrum(spectrum []float64, maxBins int) []float64 {
	if maxBins <= 0 || len(spectrum) <= maxBins {
		return append([]float64(nil), spectrum...)
	}

	factor := (len(spectrum) + maxBins - 1) / maxBins
	out := make([]float64, (len(spectrum)+factor-1)/factor)

	for index := range out {
		var sum float64

		for _, value := range spectrum[index*factor : min((index+1)*factor, len(spectrum))] {
			sum += math.Sqrt(value)
		}

		out[index] = sum * sum
	}

	return out
}
