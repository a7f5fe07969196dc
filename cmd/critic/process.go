//nolint:wrapcheck
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/farcloser/critic"
	"github.com/farcloser/critic/internal/decode"
	"github.com/farcloser/critic/internal/output"
	"github.com/farcloser/critic/internal/settings"
	"github.com/farcloser/critic/internal/types"
)

const labelsFileSuffix = ".labels.txt"

var (
	errProcessArgs  = errors.New("expected at least one argument: file path")
	errFilesFailed  = errors.New("some files could not be analyzed")
	errIssuesFound  = errors.New("issues found")
	errUnknownLevel = errors.New("unknown severity (valid: mild, moderate, severe)")
)

func processCommand() *cli.Command {
	return &cli.Command{
		Name:      "process",
		Usage:     "Decode audio files and check them for production errors",
		ArgsUsage: "<file> [file...]",
		Flags: append(settings.Flags(),
			&cli.IntFlag{
				Name:  "stream",
				Usage: "Audio stream index (0-based) in multi-stream containers",
				Value: 0,
			},
			&cli.IntFlag{
				Name:    "jobs",
				Aliases: []string{"j"},
				Usage:   "Number of files analyzed at once (default: number of CPUs)",
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
			&cli.StringFlag{
				Name:  "labels",
				Usage: "Directory receiving one Audacity label track (<name>" + labelsFileSuffix + ", numbered when names repeat) per file",
			},
			&cli.StringFlag{
				Name:  "fail-on",
				Usage: "Exit with an error when an issue at or above this severity is found: mild, moderate, severe",
			},
		),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if cmd.NArg() < 1 {
				return fmt.Errorf("%w: got %d", errProcessArgs, cmd.NArg())
			}

			failOn, err := parseLevel(cmd.String("fail-on"))
			if err != nil {
				return err
			}

			analyzer, err := settings.Critic(cmd)
			if err != nil {
				return err
			}

			stream := cmd.Int("stream")
			loader := func(ctx context.Context, path string) (*types.Buffer, error) {
				return decode.File(ctx, path, decode.Options{Stream: stream})
			}

			batch, err := critic.Run(ctx, analyzer, cmd.Args().Slice(), loader, critic.RunOptions{
				Concurrency: cmd.Int("jobs"),
			})
			if err != nil {
				return err
			}

			if dir := cmd.String("labels"); dir != "" {
				if err := writeLabelTracks(dir, batch); err != nil {
					return err
				}
			}

			if err := outputBatch(batch, cmd.String("format"), cmd.Bool("raw")); err != nil {
				return err
			}

			if failed := batch.Failed(); failed > 0 {
				return fmt.Errorf("%w: %d of %d", errFilesFailed, failed, len(batch.Files))
			}

			if failOn != types.SeverityNone && batch.WorstSeverity() >= failOn {
				return fmt.Errorf("%w: worst severity is %s", errIssuesFound, batch.WorstSeverity())
			}

			return nil
		},
	}
}

func parseLevel(name string) (types.Severity, error) {
	switch strings.ToLower(name) {
	case "", "none":
		return types.SeverityNone, nil
	case "mild":
		return types.SeverityMild, nil
	case "moderate":
		return types.SeverityModerate, nil
	case "severe":
		return types.SeveritySevere, nil
	default:
		return 0, fmt.Errorf("%w: %q", errUnknownLevel, name)
	}
}

func writeLabelTracks(dir string, batch *critic.Batch) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	used := map[string]bool{}

	for _, file := range batch.Files {
		if file.Result == nil {
			continue
		}

		track, err := os.Create(filepath.Join(dir, labelName(file.Path, used)))
		if err != nil {
			return err
		}

		err = output.WriteLabels(track, file.Result.Observations)
		closeErr := track.Close()

		if err = errors.Join(err, closeErr); err != nil {
			return err
		}
	}

	return nil
}

// labelName picks the label track name for path, numbering base names already in used. Names are
// compared without case so tracks do not overwrite each other on case-insensitive filesystems.
func labelName(path string, used map[string]bool) string {
	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	name := base + labelsFileSuffix

	for count := 2; used[strings.ToLower(name)]; count++ {
		name = fmt.Sprintf("%s-%d%s", base, count, labelsFileSuffix)
	}

	used[strings.ToLower(name)] = true

	return name
}
