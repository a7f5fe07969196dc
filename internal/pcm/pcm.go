// Package pcm turns interleaved little-endian signed PCM into per-channel float buffers.
package pcm

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/farcloser/primordium/fault"

	"github.com/farcloser/critic/internal/types"
)

const (
	MaxValue8  = 128.0        // 2^7
	MaxValue16 = 32768.0      // 2^15, 16-bit signed PCM normalization divisor
	MaxValue24 = 8388608.0    // 2^23, 24-bit signed PCM normalization divisor
	MaxValue32 = 2147483648.0 // 2^31, 32-bit signed PCM normalization divisor

	genuineMask24 = 0xFF
	genuineMask32 = 0xFFFF
)

var (
	ErrUnsupportedBitDepth = errors.New("unsupported bit depth")
	ErrInvalidFormat       = errors.New("invalid PCM format")
)

// Scale returns the normalization divisor for a bit depth.
func Scale(depth types.BitDepth) (float64, error) {
	switch depth {
	case types.Depth8:
		return MaxValue8, nil
	case types.Depth16:
		return MaxValue16, nil
	case types.Depth24:
		return MaxValue24, nil
	case types.Depth32:
		return MaxValue32, nil
	default:
		return 0, fmt.Errorf("%w: %d", ErrUnsupportedBitDepth, depth)
	}
}

// Decode reads the whole stream. A trailing partial frame is dropped.
// The effective bit depth is measured along the way: a "24-bit" stream whose
// lower 8 bits are always zero is really 16-bit.
func Decode(reader io.Reader, format types.PCMFormat) (*types.Buffer, error) {
	if format.Channels == 0 || format.SampleRate <= 0 {
		return nil, fmt.Errorf("%w: %d channels at %d Hz", ErrInvalidFormat, format.Channels, format.SampleRate)
	}

	if format.BitDepth == types.Depth8 {
		return nil, fmt.Errorf("%w: raw 8-bit input", ErrUnsupportedBitDepth)
	}

	maxVal, err := Scale(format.BitDepth)
	if err != nil {
		return nil, err
	}

	bytesPerSample := int(format.BitDepth / 8)         //nolint:gosec // bit depth and channel count are small constants
	numChannels := int(format.Channels)                //nolint:gosec // bit depth and channel count are small constants
	frameSize := bytesPerSample * numChannels
	buf := make([]byte, frameSize*4096)
	samples := make([][]float64, numChannels)

	var (
		usedBits    uint32
		pending     []byte
		sampleIndex int
	)

	for {
		n, readErr := reader.Read(buf)
		if n > 0 {
			data := append(pending, buf[:n]...) //nolint:gocritic // pending is always a fresh slice
			completeFrames := (len(data) / frameSize) * frameSize
			pending = append([]byte(nil), data[completeFrames:]...)
			data = data[:completeFrames]

			switch format.BitDepth {
			case types.Depth16:
				for i := 0; i < len(data); i += 2 {
					channel := sampleIndex % numChannels
					sample := int16(binary.LittleEndian.Uint16(data[i:])) //nolint:gosec // two's complement conversion for signed PCM samples
					samples[channel] = append(samples[channel], float64(sample)/maxVal)
					sampleIndex++
				}
			case types.Depth24:
				for i := 0; i < len(data); i += 3 {
					channel := sampleIndex % numChannels

					raw := uint32(data[i]) | uint32(data[i+1])<<8 | uint32(data[i+2])<<16
					usedBits |= raw

					sample := int32(raw) //nolint:gosec // sign extension below
					if sample&0x800000 != 0 {
						sample |= ^0xFFFFFF
					}

					samples[channel] = append(samples[channel], float64(sample)/maxVal)
					sampleIndex++
				}
			case types.Depth32:
				for i := 0; i < len(data); i += 4 {
					channel := sampleIndex % numChannels
					raw := binary.LittleEndian.Uint32(data[i:])
					usedBits |= raw
					samples[channel] = append(samples[channel], float64(int32(raw))/maxVal) //nolint:gosec // two's complement conversion for signed PCM samples
					sampleIndex++
				}
			default:
			}
		}

		if readErr == io.EOF {
			break
		}

		if readErr != nil {
			return nil, fmt.Errorf("%w: %w", fault.ErrReadFailure, readErr)
		}
	}

	format.EffectiveBitDepth = EffectiveBitDepth(usedBits, format.BitDepth)

	return &types.Buffer{
		Format:  format,
		Samples: samples,
		Codec:   "pcm_s" + strconv.FormatUint(uint64(format.BitDepth), 10) + "le",
	}, nil
}

// FromInterleaved builds a buffer from already decoded integer samples, as
// produced by WAV and MP3 decoders.
func FromInterleaved(data []int, format types.PCMFormat) (*types.Buffer, error) {
	if format.Channels == 0 || format.SampleRate <= 0 {
		return nil, fmt.Errorf("%w: %d channels at %d Hz", ErrInvalidFormat, format.Channels, format.SampleRate)
	}

	maxVal, err := Scale(format.BitDepth)
	if err != nil {
		return nil, err
	}

	numChannels := int(format.Channels) //nolint:gosec // channel count is small
	frames := len(data) / numChannels
	samples := make([][]float64, numChannels)

	for channel := range samples {
		samples[channel] = make([]float64, frames)
	}

	var usedBits uint32

	for frame := range frames {
		for channel := range numChannels {
			value := data[frame*numChannels+channel]
			usedBits |= uint32(value) //nolint:gosec // only the low bits matter
			samples[channel][frame] = float64(value) / maxVal
		}
	}

	format.EffectiveBitDepth = EffectiveBitDepth(usedBits, format.BitDepth)

	return &types.Buffer{
		Format:  format,
		Samples: samples,
	}, nil
}

// EffectiveBitDepth inspects the OR of every raw sample for always-zero low bits.
func EffectiveBitDepth(usedBits uint32, claimed types.BitDepth) types.BitDepth {
	if usedBits == 0 {
		return claimed
	}

	switch claimed {
	case types.Depth24:
		if usedBits&genuineMask24 == 0 {
			return types.Depth16
		}
	case types.Depth32:
		if usedBits&genuineMask32 == 0 {
			return types.Depth16
		}

		if usedBits&genuineMask24 == 0 {
			return types.Depth24
		}
	default:
	}

	return claimed
}
