//nolint:wrapcheck
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/farcloser/critic"
	"github.com/farcloser/critic/internal/pcm"
	"github.com/farcloser/critic/internal/settings"
	"github.com/farcloser/critic/internal/types"
)

var (
	errInvalidArgCount = errors.New("expected exactly one argument: file path or \"-\" for stdin")
	errInvalidBitDepth = errors.New("must be 16, 24, or 32")
	errInvalidChannels = errors.New("must be at least 1")
)

func analyzeCommand() *cli.Command {
	return &cli.Command{
		Name:      "analyze",
		Usage:     "Check raw signed little-endian PCM for production errors",
		ArgsUsage: "<file | ->",
		Flags: append(settings.Flags(),
			&cli.IntFlag{
				Name:     "sample-rate",
				Aliases:  []string{"s"},
				Usage:    "Sample rate in Hz (e.g., 44100, 48000, 96000)",
				Required: true,
			},
			&cli.IntFlag{
				Name:    "bit-depth",
				Aliases: []string{"b"},
				Usage:   "Bit depth (16, 24, or 32)",
				Value:   32,
			},
			&cli.IntFlag{
				Name:    "channels",
				Aliases: []string{"c"},
				Usage:   "Number of channels (1 = mono, 2 = stereo)",
				Value:   2,
			},
			&cli.IntFlag{
				Name:  "expected-bit-depth",
				Usage: "Bit depth of the original media, when the PCM was widened (defaults to --bit-depth)",
			},
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Usage:   "Output format: console, json, markdown, text",
				Value:   "console",
			},
			&cli.BoolFlag{
				Name:  "raw",
				Usage: "Print every observation instead of a per-check summary",
			},
		),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if cmd.NArg() != 1 {
				return fmt.Errorf("%w: got %d", errInvalidArgCount, cmd.NArg())
			}

			format, err := parsePCMFormat(cmd)
			if err != nil {
				return err
			}

			analyzer, err := settings.Critic(cmd)
			if err != nil {
				return err
			}

			inputPath := cmd.Args().First()

			buffer, err := readPCM(inputPath, format)
			if err != nil {
				return err
			}

			result, err := analyzer.Analyze(ctx, buffer)
			if err != nil {
				return err
			}

			batch := &critic.Batch{Files: []critic.FileResult{{Path: inputPath, Result: result}}}

			return outputBatch(batch, cmd.String("format"), cmd.Bool("raw"))
		},
	}
}

func readPCM(source string, format types.PCMFormat) (*types.Buffer, error) {
	var input io.Reader = os.Stdin

	if source != "-" {
		file, err := os.Open(source) //nolint:gosec // CLI tool opens user-specified audio files
		if err != nil {
			return nil, fmt.Errorf("cannot access %s: %w", source, err)
		}
		defer file.Close()

		input = file
	}

	return pcm.Decode(input, format)
}

func parsePCMFormat(cmd *cli.Command) (types.PCMFormat, error) {
	bitDepth, err := toBitDepth(cmd.Int("bit-depth"))
	if err != nil {
		return types.PCMFormat{}, fmt.Errorf("--bit-depth: %w", err)
	}

	expected := bitDepth
	if raw := cmd.Int("expected-bit-depth"); raw > 0 {
		expected, err = toBitDepth(raw)
		if err != nil {
			return types.PCMFormat{}, fmt.Errorf("--expected-bit-depth: %w", err)
		}
	}

	channels := cmd.Int("channels")
	if channels < 1 {
		return types.PCMFormat{}, fmt.Errorf("--channels: %w", errInvalidChannels)
	}

	return types.PCMFormat{
		SampleRate:       cmd.Int("sample-rate"),
		BitDepth:         bitDepth,
		Channels:         uint(channels), //nolint:gosec // validated positive value
		ExpectedBitDepth: expected,
	}, nil
}

func toBitDepth(v int) (types.BitDepth, error) {
	switch v {
	case 16:
		return types.Depth16, nil
	case 24:
		return types.Depth24, nil
	case 32:
		return types.Depth32, nil
	default:
		return 0, errInvalidBitDepth
	}
}
