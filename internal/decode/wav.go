package decode

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/farcloser/primordium/fault"
	"github.com/go-audio/wav"

	"github.com/farcloser/critic/internal/pcm"
	"github.com/farcloser/critic/internal/types"
)

const wavFormatPCM = 1

func wavFile(ctx context.Context, path string) (*types.Buffer, error) {
	file, err := os.Open(path) //nolint:gosec // CLI tool opens user-specified audio files
	if err != nil {
		return nil, fmt.Errorf("%w: %w", fault.ErrReadFailure, err)
	}
	defer file.Close()

	decoder := wav.NewDecoder(file)
	if !decoder.IsValidFile() {
		return nil, invalid(path, "not a RIFF/WAVE file")
	}

	// Float and extensible WAV are left to ffmpeg.
	if decoder.WavAudioFormat != wavFormatPCM {
		return ffmpegFile(ctx, path, 0)
	}

	data, err := decoder.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", fault.ErrReadFailure, err)
	}

	depth := types.BitDepth(decoder.BitDepth)

	// 8-bit WAV is unsigned.
	if depth == types.Depth8 {
		for index := range data.Data {
			data.Data[index] -= 128
		}
	}

	buffer, err := pcm.FromInterleaved(data.Data, types.PCMFormat{
		SampleRate:       int(decoder.SampleRate),
		BitDepth:         depth,
		Channels:         uint(decoder.NumChans),
		ExpectedBitDepth: depth,
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	if depth == types.Depth8 {
		buffer.Codec = "pcm_u8"
	} else {
		buffer.Codec = "pcm_s" + strconv.Itoa(int(depth)) + "le"
	}

	return buffer, nil
}
