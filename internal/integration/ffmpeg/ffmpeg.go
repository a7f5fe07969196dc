package ffmpeg

import "time"

const (
	name = "ffmpeg"
	// Long recordings decoded from slow storage take a while.
	timeout = 10 * time.Minute
)
