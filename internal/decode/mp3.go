package decode

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/farcloser/primordium/fault"
	"github.com/hajimehoshi/go-mp3"

	"github.com/farcloser/critic/internal/pcm"
	"github.com/farcloser/critic/internal/types"
)

// go-mp3 always produces 16-bit little-endian stereo, duplicating single-channel streams.
const (
	mp3Channels = 2
	mp3Depth    = types.Depth16
)

const (
	id3HeaderSize = 10
	// Bytes searched for the first frame header past any ID3v2 tag.
	frameSearchSize = 64 << 10
)

var errNoFrame = errors.New("no MPEG audio frame header found")

// MP3Channels reads the channel mode of the first MPEG audio frame: 1 for single channel, 2 otherwise.
// The reader is left at an arbitrary position.
func MP3Channels(reader io.ReadSeeker) (uint, error) {
	header := make([]byte, id3HeaderSize)
	if _, err := io.ReadFull(reader, header); err != nil {
		return 0, err
	}

	offset := int64(0)

	if bytes.HasPrefix(header, []byte("ID3")) {
		// Syncsafe integer: seven bits per byte.
		size := int64(header[6])<<21 | int64(header[7])<<14 | int64(header[8])<<7 | int64(header[9])
		offset = id3HeaderSize + size

		if header[5]&0x10 != 0 {
			offset += id3HeaderSize
		}
	}

	if _, err := reader.Seek(offset, io.SeekStart); err != nil {
		return 0, err
	}

	data := make([]byte, frameSearchSize)

	read, err := io.ReadFull(reader, data)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) {
		return 0, err
	}

	data = data[:read]

	for index := 0; index+4 <= len(data); index++ {
		if !frameHeader(data[index : index+4]) {
			continue
		}

		if data[index+3]>>6 == 3 {
			return 1, nil
		}

		return 2, nil
	}

	return 0, errNoFrame
}

// frameHeader rejects sync patterns whose version, layer, bitrate or sample rate field is reserved.
func frameHeader(header []byte) bool {
	return header[0] == 0xFF &&
		header[1]&0xE0 == 0xE0 &&
		(header[1]>>3)&0x03 != 1 &&
		(header[1]>>1)&0x03 != 0 &&
		header[2]>>4 != 0x0F &&
		(header[2]>>2)&0x03 != 3
}

func mp3File(path string) (*types.Buffer, error) {
	file, err := os.Open(path) //nolint:gosec // CLI tool opens user-specified audio files
	if err != nil {
		return nil, fmt.Errorf("%w: %w", fault.ErrReadFailure, err)
	}
	defer file.Close()

	channels, err := MP3Channels(file)
	if err != nil {
		return nil, invalid(path, err.Error())
	}

	if _, err := file.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("%w: %w", fault.ErrReadFailure, err)
	}

	decoder, err := mp3.NewDecoder(file)
	if err != nil {
		return nil, invalid(path, err.Error())
	}

	buffer, err := pcm.Decode(decoder, types.PCMFormat{
		SampleRate: decoder.SampleRate(),
		BitDepth:   mp3Depth,
		Channels:   mp3Channels,
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	if channels == 1 {
		buffer.Samples = buffer.Samples[:1]
		buffer.Format.Channels = 1
	}

	buffer.Codec = "mp3"
	buffer.Lossy = true

	return buffer, nil
}
