// Package loudness measures programme loudness (ITU-R BS.1770 gated integrated loudness and
// loudness range) and the crest-factor dynamic range score of a decoded buffer.
//
// These are reported next to the observations; no checker depends on them.
package loudness

import (
	"math"
	"slices"

	"github.com/farcloser/critic/internal/types"
)

const (
	// Loudness of a full-scale window containing nothing, used for silence.
	Floor = -120.0

	offset        = -0.691 // BS.1770 K-weighted power to LUFS
	absoluteGate  = -70.0
	relativeGate  = -10.0
	rangeGate     = -20.0
	momentaryMs   = 400
	shortTermMs   = 3000
	hopMs         = 100
	drBlockMs     = 3000
	maxDRScore    = 20
	surroundBoost = 1.41
)

// Measurement of one buffer.
type Measurement struct {
	IntegratedLUFS float64
	LoudnessRange  float64
	MomentaryMax   float64
	ShortTermMax   float64
	PeakDb         float64
	DRScore        int
}

type biquad struct {
	b0, b1, b2 float64
	a1, a2     float64
	z1, z2     float64
}

func (b *biquad) process(in float64) float64 {
	out := b.b0*in + b.z1
	b.z1 = b.b1*in - b.a1*out + b.z2
	b.z2 = b.b2*in - b.a2*out

	return out
}

// kWeighting returns the BS.1770 pre-filter (high shelf) and RLB high pass for a sample rate.
func kWeighting(sampleRate int) (biquad, biquad) {
	rate := float64(sampleRate)

	const (
		shelfFreq = 1681.974450955533
		shelfGain = 3.999843853973347
		shelfQ    = 0.7071752369554196
		rlbFreq   = 38.13547087602444
		rlbQ      = 0.5003270373238773
	)

	k := math.Tan(math.Pi * shelfFreq / rate)
	vh := math.Pow(10, shelfGain/20)
	vb := math.Pow(vh, 0.4996667741545416)
	a0 := 1 + k/shelfQ + k*k

	shelf := biquad{
		b0: (vh + vb*k/shelfQ + k*k) / a0,
		b1: 2 * (k*k - vh) / a0,
		b2: (vh - vb*k/shelfQ + k*k) / a0,
		a1: 2 * (k*k - 1) / a0,
		a2: (1 - k/shelfQ + k*k) / a0,
	}

	k = math.Tan(math.Pi * rlbFreq / rate)
	a0 = 1 + k/rlbQ + k*k

	highPass := biquad{
		b0: 1 / a0,
		b1: -2 / a0,
		b2: 1 / a0,
		a1: 2 * (k*k - 1) / a0,
		a2: (1 - k/rlbQ + k*k) / a0,
	}

	return shelf, highPass
}

// Surround channels (4th and 5th of five or more) weigh +1.5 dB. LFE is not singled out.
func channelWeight(channel, channels int) float64 {
	if channels > 4 && (channel == 3 || channel == 4) {
		return surroundBoost
	}

	return 1
}

func toLUFS(power float64) float64 {
	if power <= 0 {
		return Floor
	}

	return offset + 10*math.Log10(power)
}

func toDb(amplitude float64) float64 {
	if amplitude <= 0 {
		return Floor
	}

	return 20 * math.Log10(amplitude)
}

// Measure computes every loudness figure of buffer in a single pass.
func Measure(buffer *types.Buffer) Measurement {
	measurement := Measurement{
		IntegratedLUFS: Floor,
		MomentaryMax:   Floor,
		ShortTermMax:   Floor,
		PeakDb:         Floor,
	}

	rate := buffer.Format.SampleRate
	channels := buffer.Channels()
	frames := buffer.Frames()

	if rate <= 0 || frames == 0 {
		return measurement
	}

	filters := make([][2]biquad, channels)
	for channel := range filters {
		shelf, highPass := kWeighting(rate)
		filters[channel] = [2]biquad{shelf, highPass}
	}

	power := make([]float64, frames)
	peaks := make([]float64, frames)

	for frame := range frames {
		for channel := range channels {
			sample := buffer.Samples[channel][frame]
			peaks[frame] = max(peaks[frame], math.Abs(sample))

			weighted := filters[channel][1].process(filters[channel][0].process(sample))
			power[frame] += channelWeight(channel, channels) * weighted * weighted
		}
	}

	momentary := windowPowers(power, rate*momentaryMs/1000, rate*hopMs/1000)
	shortTerm := windowPowers(power, rate*shortTermMs/1000, rate*hopMs/1000)

	for _, value := range momentary {
		measurement.MomentaryMax = max(measurement.MomentaryMax, toLUFS(value))
	}

	for _, value := range shortTerm {
		measurement.ShortTermMax = max(measurement.ShortTermMax, toLUFS(value))
	}

	measurement.IntegratedLUFS = integrated(momentary)
	measurement.LoudnessRange = loudnessRange(shortTerm)
	measurement.PeakDb = toDb(slices.Max(peaks))
	measurement.DRScore = dynamicRange(power, peaks, channels, rate*drBlockMs/1000)

	return measurement
}

// windowPowers returns the mean power of every complete window of size frames, advancing by hop.
func windowPowers(power []float64, size, hop int) []float64 {
	if size <= 0 || hop <= 0 || len(power) < size {
		return nil
	}

	var (
		out []float64
		sum float64
	)

	for index := range size {
		sum += power[index]
	}

	out = append(out, sum/float64(size))

	for start := hop; start+size <= len(power); start += hop {
		for index := start - hop; index < start; index++ {
			sum -= power[index]
		}

		for index := start + size - hop; index < start+size; index++ {
			sum += power[index]
		}

		out = append(out, sum/float64(size))
	}

	return out
}

// integrated applies the absolute then relative gate to momentary block powers.
func integrated(powers []float64) float64 {
	gated := func(threshold float64) (float64, int) {
		var (
			sum   float64
			count int
		)

		for _, value := range powers {
			if toLUFS(value) > threshold {
				sum += value
				count++
			}
		}

		return sum, count
	}

	sum, count := gated(absoluteGate)
	if count == 0 {
		return Floor
	}

	sum, count = gated(toLUFS(sum/float64(count)) + relativeGate)
	if count == 0 {
		return Floor
	}

	return toLUFS(sum / float64(count))
}

// loudnessRange is the spread between the 10th and 95th percentiles of gated short-term loudness.
func loudnessRange(powers []float64) float64 {
	var levels []float64

	for _, value := range powers {
		if level := toLUFS(value); level > absoluteGate {
			levels = append(levels, level)
		}
	}

	if len(levels) < 2 {
		return 0
	}

	var sum float64
	for _, level := range levels {
		sum += level
	}

	threshold := sum/float64(len(levels)) + rangeGate
	levels = slices.DeleteFunc(levels, func(level float64) bool { return level <= threshold })

	if len(levels) < 2 {
		return 0
	}

	slices.Sort(levels)

	return levels[int(float64(len(levels))*0.95)] - levels[int(float64(len(levels))*0.10)]
}

// dynamicRange scores crest factor over 3 s blocks: second highest block peak against the mean RMS of
// the loudest fifth of blocks, clamped to DR1..DR20. Zero when there is no full block or no signal.
func dynamicRange(power, peaks []float64, channels, blockSize int) int {
	if blockSize <= 0 || len(power) < blockSize || channels == 0 {
		return 0
	}

	var blockPeaks, blockRMS []float64

	for start := 0; start+blockSize <= len(power); start += blockSize {
		var sum float64
		for _, value := range power[start : start+blockSize] {
			sum += value
		}

		blockRMS = append(blockRMS, math.Sqrt(sum/float64(channels)/float64(blockSize)))
		blockPeaks = append(blockPeaks, slices.Max(peaks[start:start+blockSize]))
	}

	slices.Sort(blockPeaks)
	slices.Reverse(blockPeaks)
	slices.Sort(blockRMS)
	slices.Reverse(blockRMS)

	peak := blockPeaks[min(1, len(blockPeaks)-1)]

	top := max(len(blockRMS)/5, 1)

	var sum float64
	for _, value := range blockRMS[:top] {
		sum += value
	}

	rms := sum / float64(top)
	if rms == 0 || peak == 0 {
		return 0
	}

	return min(max(int(math.Round(20*math.Log10(peak/rms))), 1), maxDRScore)
}
