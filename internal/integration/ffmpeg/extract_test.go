package ffmpeg_test

import (
	"testing"

	"github.com/farcloser/critic/internal/integration/ffmpeg"
	"github.com/farcloser/critic/internal/types"
)

func TestSampleFormat(t *testing.T) {
	t.Parallel()

	for depth, want := range map[types.BitDepth]string{
		types.Depth16: "s16le",
		types.Depth24: "s24le",
		types.Depth32: "s32le",
	} {
		if got := ffmpeg.SampleFormat(depth); got != want {
			t.Errorf("%d: got %s", depth, got)
		}
	}
}
