// Package decode turns audio files into analysis buffers.
//
// WAV and MP3 are decoded natively. Everything else (FLAC, ALAC, AAC, Ogg...) goes through ffprobe and ffmpeg,
// which must then be installed.
package decode

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/farcloser/critic/internal/types"
)

var ErrInvalidFile = errors.New("invalid audio file")

// Options for File.
type Options struct {
	// Stream is the audio stream to decode in multi-stream containers (0-based).
	Stream int
}

// File decodes the audio at path and attaches its container tags.
func File(ctx context.Context, path string, opts Options) (*types.Buffer, error) {
	if err := ctx.Err(); err != nil {
		return nil, err //nolint:wrapcheck // cancellation is returned as is
	}

	var (
		buffer *types.Buffer
		err    error
	)

	ext := strings.ToLower(filepath.Ext(path))

	switch {
	case ext == ".wav" && opts.Stream == 0:
		buffer, err = wavFile(ctx, path)
	case ext == ".mp3" && opts.Stream == 0:
		buffer, err = mp3File(path)
	default:
		buffer, err = ffmpegFile(ctx, path, opts.Stream)
	}

	if err != nil {
		return nil, err
	}

	buffer.Tags = Tags(path)

	slog.Debug("decoded",
		"path", path,
		"codec", buffer.Codec,
		"rate", buffer.Format.SampleRate,
		"channels", buffer.Channels(),
		"frames", buffer.Frames(),
	)

	return buffer, nil
}

//nolint:gochecknoglobals // static lookup
var lossyCodecs = map[string]bool{
	"aac":      true,
	"ac3":      true,
	"amr_nb":   true,
	"amr_wb":   true,
	"atrac3":   true,
	"cook":     true,
	"dts":      true,
	"eac3":     true,
	"gsm":      true,
	"mp2":      true,
	"mp3":      true,
	"mp3float": true,
	"opus":     true,
	"speex":    true,
	"vorbis":   true,
	"wmav1":    true,
	"wmav2":    true,
	"wmapro":   true,
}

// IsLossy tells whether a codec (by ffmpeg name) discards information.
func IsLossy(codec string) bool {
	codec = strings.ToLower(codec)

	return lossyCodecs[codec] || strings.HasPrefix(codec, "adpcm_")
}

func invalid(path string, reason string) error {
	return fmt.Errorf("%w: %s: %s", ErrInvalidFile, path, reason)
}
