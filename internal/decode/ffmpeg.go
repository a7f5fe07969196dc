package decode

import (
	"bytes"
	"context"
	"fmt"

	"github.com/farcloser/critic/internal/integration/ffmpeg"
	"github.com/farcloser/critic/internal/integration/ffprobe"
	"github.com/farcloser/critic/internal/pcm"
	"github.com/farcloser/critic/internal/types"
)

// Everything extracted through ffmpeg comes out as 32-bit so that no depth is lost.
const extractDepth = types.Depth32

func ffmpegFile(ctx context.Context, path string, streamIndex int) (*types.Buffer, error) {
	info, err := ffprobe.Probe(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("reading stream info of %s: %w", path, err)
	}

	stream, err := info.AudioStream(streamIndex)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	format, err := stream.PCMFormat(extractDepth)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	var raw bytes.Buffer

	if err := ffmpeg.Extract(ctx, path, &raw, streamIndex, extractDepth); err != nil {
		return nil, fmt.Errorf("extracting %s: %w", path, err)
	}

	buffer, err := pcm.Decode(&raw, format)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	buffer.Codec = stream.CodecName
	buffer.Lossy = IsLossy(stream.CodecName)

	return buffer, nil
}
