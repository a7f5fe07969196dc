//nolint:tagliatelle
package ffprobe

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"strconv"

	"github.com/farcloser/primordium/fault"

	"github.com/farcloser/critic/internal/integration/binary"
	"github.com/farcloser/critic/internal/types"
)

var (
	ErrNoAudioStream = errors.New("audio stream not found")
	ErrInvalidStream = errors.New("invalid audio stream")
)

// Result is the part of ffprobe's JSON output critic reads.
type Result struct {
	Streams []Stream `json:"streams"`
	Format  Format   `json:"format"`
}

// Stream describes one stream of the container.
//
// Where the original depth is reported depends on the codec: FLAC and ALAC fill bits_per_raw_sample,
// WAV and AIFF fill bits_per_sample, and lossy codecs have no depth at all.
type Stream struct {
	Index            int    `json:"index"`
	CodecName        string `json:"codec_name"`
	CodecType        string `json:"codec_type"`
	SampleRate       string `json:"sample_rate,omitempty"`
	Channels         int    `json:"channels,omitempty"`
	ChannelLayout    string `json:"channel_layout,omitempty"`
	Duration         string `json:"duration,omitempty"`
	BitRate          string `json:"bit_rate,omitempty"`
	BitsPerRawSample string `json:"bits_per_raw_sample,omitempty"`
	BitsPerSample    int    `json:"bits_per_sample,omitempty"`
	SampleFmt        string `json:"sample_fmt,omitempty"`
}

// Format is the container description.
type Format struct {
	FormatName string `json:"format_name"`
	Duration   string `json:"duration,omitempty"`
	BitRate    string `json:"bit_rate,omitempty"`
	ProbeScore int    `json:"probe_score"`
}

// AudioStream returns the streamIndex-th audio stream (0-based, counting audio streams only).
func (r *Result) AudioStream(streamIndex int) (*Stream, error) {
	count := 0

	for index := range r.Streams {
		if r.Streams[index].CodecType != "audio" {
			continue
		}

		if count == streamIndex {
			return &r.Streams[index], nil
		}

		count++
	}

	return nil, fmt.Errorf("%w: index %d (file has %d audio streams)", ErrNoAudioStream, streamIndex, count)
}

// PCMFormat describes the stream once extracted to PCM at depth.
func (s *Stream) PCMFormat(depth types.BitDepth) (types.PCMFormat, error) {
	sampleRate, err := strconv.Atoi(s.SampleRate)
	if err != nil || sampleRate <= 0 {
		return types.PCMFormat{}, fmt.Errorf("%w: sample rate %q", ErrInvalidStream, s.SampleRate)
	}

	if s.Channels <= 0 {
		return types.PCMFormat{}, fmt.Errorf("%w: %d channels", ErrInvalidStream, s.Channels)
	}

	return types.PCMFormat{
		SampleRate:       sampleRate,
		BitDepth:         depth,
		Channels:         uint(s.Channels), //nolint:gosec // validated positive value
		ExpectedBitDepth: s.OriginalBitDepth(),
	}, nil
}

// OriginalBitDepth is the depth of the encoded stream, or zero when the codec has none (lossy).
func (s *Stream) OriginalBitDepth() types.BitDepth {
	if bits, err := strconv.Atoi(s.BitsPerRawSample); err == nil {
		if depth := toBitDepth(bits); depth != 0 {
			return depth
		}
	}

	return toBitDepth(s.BitsPerSample)
}

func toBitDepth(bits int) types.BitDepth {
	switch bits {
	case 8:
		return types.Depth8
	case 16:
		return types.Depth16
	case 24:
		return types.Depth24
	case 32:
		return types.Depth32
	default:
		return 0
	}
}

// Probe runs ffprobe on the given file path and returns parsed metadata.
// It requires ffprobe to be available in the system PATH.
func Probe(ctx context.Context, filePath string) (*Result, error) {
	slog.Debug("ffprobe.Probe", "file path", filePath)

	ffprobePath, err := binary.Require(name)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	//nolint:gosec // filePath is intentionally user-provided input for probing media files
	cmd := exec.CommandContext(ctx, ffprobePath,
		"-v", "quiet",
		"-print_format", "json",
		"-show_format",
		"-show_streams",
		filePath,
	)

	var stderr bytes.Buffer

	cmd.Stderr = &stderr

	output, err := cmd.Output()
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: after %v", fault.ErrTimeout, timeout)
		}

		return nil, fmt.Errorf("%w: %s: %w", fault.ErrCommandFailure, stderr.String(), err)
	}

	return Parse(output)
}

// Parse decodes ffprobe JSON output.
func Parse(output []byte) (*Result, error) {
	var result Result
	if err := json.Unmarshal(output, &result); err != nil {
		return nil, fmt.Errorf("%w: %w", fault.ErrInvalidJSON, err)
	}

	return &result, nil
}
