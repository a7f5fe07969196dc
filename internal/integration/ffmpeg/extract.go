// Package ffmpeg decodes any container ffmpeg understands into raw signed little-endian PCM.
package ffmpeg

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"strconv"

	"github.com/farcloser/primordium/fault"

	"github.com/farcloser/critic/internal/integration/binary"
	"github.com/farcloser/critic/internal/types"
)

// SampleFormat is the ffmpeg raw format name for a depth (s16le, s24le, s32le).
func SampleFormat(depth types.BitDepth) string {
	return "s" + strconv.FormatUint(uint64(depth), 10) + "le"
}

// Extract decodes audio stream streamIndex (counted among audio streams only) of filePath into output.
func Extract(ctx context.Context, filePath string, output io.Writer, streamIndex int, depth types.BitDepth) error {
	slog.Debug("ffmpeg.Extract", "file path", filePath, "stream index", streamIndex, "stage", "start")

	ffmpegPath, err := binary.Require(name)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	//nolint:gosec // filePath is intentionally user-provided input
	cmd := exec.CommandContext(ctx, ffmpegPath,
		"-v", "quiet",
		"-i", filePath,
		"-map", "0:a:"+strconv.Itoa(streamIndex),
		"-f", SampleFormat(depth),
		"-acodec", "pcm_"+SampleFormat(depth),
		"-",
	)

	var stderr bytes.Buffer

	cmd.Stdout = output
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		switch {
		case errors.Is(ctx.Err(), context.DeadlineExceeded):
			slog.Debug("ffmpeg.Extract", "file path", filePath, "stage", "timeout")

			return fmt.Errorf("%w: after %v", fault.ErrTimeout, timeout)
		case ctx.Err() != nil:
			return ctx.Err() //nolint:wrapcheck // cancellation is returned as is
		}

		slog.Debug("ffmpeg.Extract", "file path", filePath, "stage", "error")

		return fmt.Errorf("%w: %s: %w", fault.ErrCommandFailure, stderr.String(), err)
	}

	slog.Debug("ffmpeg.Extract", "file path", filePath, "stage", "done")

	return nil
}
