//nolint:wrapcheck
package main

import (
	"compress/gzip"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/urfave/cli/v3"
	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"

	"github.com/farcloser/critic"
	"github.com/farcloser/critic/internal/decode"
	"github.com/farcloser/critic/internal/output"
	"github.com/farcloser/critic/internal/settings"
	"github.com/farcloser/critic/internal/store"
	"github.com/farcloser/critic/internal/types"
)

const (
	reportFile = "critic-report.jsonl"
	htmlFile   = "critic-report.html"
	labelsDir  = "labels"
)

var (
	errNotDirectory = errors.New("not a directory")
	errNoAudioFiles = errors.New("no audio files found")
	errFolderArgs   = errors.New("expected exactly one argument: folder path")
)

//nolint:gochecknoglobals // static lookup
var audioExtensions = []string{".aif", ".aiff", ".flac", ".m4a", ".mp3", ".ogg", ".opus", ".wav"}

func reportCommand() *cli.Command {
	return &cli.Command{
		Name:      "report",
		Usage:     "Scan a folder of audio files and write a JSONL report",
		ArgsUsage: "<folder>",
		Flags: append(settings.Flags(),
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Directory receiving the report files",
				Value:   ".",
			},
			&cli.BoolFlag{
				Name:  "redact-path",
				Usage: "Strip file paths from the report",
			},
			&cli.IntFlag{
				Name:    "jobs",
				Aliases: []string{"j"},
				Usage:   "Number of files analyzed at once (default: number of CPUs)",
			},
			&cli.BoolFlag{
				Name:  "html",
				Usage: "Also write " + htmlFile,
			},
			&cli.BoolFlag{
				Name:  "labels",
				Usage: "Also write one Audacity label track per file under " + labelsDir + "/",
			},
			&cli.StringFlag{
				Name:  "db",
				Usage: "Record the run in this SQLite database",
			},
			&cli.BoolFlag{
				Name:    "quiet",
				Aliases: []string{"q"},
				Usage:   "Do not display progress",
			},
		),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if cmd.NArg() != 1 {
				return errFolderArgs
			}

			analyzer, err := settings.Critic(cmd)
			if err != nil {
				return err
			}

			return runReport(ctx, cmd, analyzer, cmd.Args().First())
		},
	}
}

func runReport(ctx context.Context, cmd *cli.Command, analyzer *critic.Critic, folder string) error {
	info, err := os.Stat(folder)
	if err != nil || !info.IsDir() {
		return fmt.Errorf("%q: %w", folder, errNotDirectory)
	}

	files, err := collectAudioFiles(folder)
	if err != nil {
		return fmt.Errorf("scanning folder: %w", err)
	}

	if len(files) == 0 {
		return fmt.Errorf("%q: %w", folder, errNoAudioFiles)
	}

	outDir := cmd.String("output")
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return err
	}

	fmt.Fprintf(os.Stderr, "Found %d files to analyze\n", len(files))

	startTime := time.Now()

	var (
		timingMu sync.Mutex
		decodeMs = map[string]float64{}
	)

	loader := func(ctx context.Context, path string) (*types.Buffer, error) {
		decodeStart := time.Now()
		buffer, err := decode.File(ctx, path, decode.Options{})

		timingMu.Lock()
		decodeMs[path] = durationMs(time.Since(decodeStart))
		timingMu.Unlock()

		return buffer, err
	}

	progress, bar := newProgress(len(files), cmd.Bool("quiet"))

	batch, err := critic.Run(ctx, analyzer, files, loader, critic.RunOptions{
		Concurrency: cmd.Int("jobs"),
		Progress: func(file critic.FileResult) {
			bar.Increment()
			slog.Debug("report progress", "file", file.Path)
		},
	})
	if err != nil {
		bar.Abort(false)
		progress.Wait()

		return err
	}

	progress.Wait()

	reportPath := filepath.Join(outDir, reportFile)
	if err := writeRecords(reportPath, batch, decodeMs, cmd.Bool("redact-path")); err != nil {
		return err
	}

	if err := compressFile(reportPath); err != nil {
		slog.Error("compressing report", "error", err)
	}

	runID := ""

	if dbPath := cmd.String("db"); dbPath != "" {
		db, err := store.Open(dbPath)
		if err != nil {
			return err
		}

		runID, err = db.SaveRun(ctx, startTime, cmd.String("source"), cmd.String("checks"), batch)
		db.Close()

		if err != nil {
			return err
		}

		fmt.Fprintf(os.Stderr, "Run %s recorded in %s\n", runID, dbPath)
	}

	if cmd.Bool("html") {
		if err := writeHTML(filepath.Join(outDir, htmlFile), runID, startTime, batch); err != nil {
			return err
		}
	}

	if cmd.Bool("labels") {
		if err := writeLabelTracks(filepath.Join(outDir, labelsDir), folder, batch); err != nil {
			return err
		}
	}

	elapsed := time.Since(startTime)

	fmt.Fprintf(os.Stderr, "\nDone: %d files in %s (%d failed)\n",
		len(files), elapsed.Truncate(time.Millisecond), batch.Failed())
	fmt.Fprintf(os.Stderr, "Report written to %s (and %s.gz)\n\n", reportPath, reportPath)

	return runDigest(reportPath, "")
}

func newProgress(total int, quiet bool) (*mpb.Progress, *mpb.Bar) {
	var writer io.Writer = os.Stderr
	if quiet {
		writer = io.Discard
	}

	progress := mpb.New(mpb.WithWidth(40), mpb.WithOutput(writer))

	bar := progress.AddBar(int64(total),
		mpb.PrependDecorators(
			decor.Name("analyzing "),
			decor.CountersNoUnit("%d / %d"),
		),
		mpb.AppendDecorators(
			decor.Percentage(decor.WCSyncSpace),
			decor.Elapsed(decor.ET_STYLE_GO, decor.WCSyncSpace),
		),
	)

	return progress, bar
}

func writeRecords(path string, batch *critic.Batch, decodeMs map[string]float64, redact bool) error {
	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating output file: %w", err)
	}
	defer out.Close()

	enc := json.NewEncoder(out)

	for _, file := range batch.Files {
		record := Record{File: file.Path}

		if timing, ok := decodeMs[file.Path]; ok {
			record.Timing = &RecordTiming{DecodeMs: timing}
		}

		if file.Err != nil {
			record.Error = file.Err.Error()
		} else {
			record.Analysis = output.ResultToMap(file.Result)
		}

		if redact {
			record.File = ""
		}

		if err := enc.Encode(record); err != nil {
			return fmt.Errorf("writing record for %s: %w", file.Path, err)
		}
	}

	return out.Close()
}

func writeHTML(path, runID string, started time.Time, batch *critic.Batch) error {
	out, err := os.Create(path)
	if err != nil {
		return err
	}
	defer out.Close()

	err = output.WriteHTML(out, output.Report{
		Title:     "critic report",
		RunID:     runID,
		Generated: started,
		Batch:     batch,
	})
	if err != nil {
		return err
	}

	return out.Close()
}

// writeLabelTracks mirrors the scanned tree under dir, one label track per analyzed file.
func writeLabelTracks(dir, root string, batch *critic.Batch) error {
	for _, file := range batch.Files {
		if file.Result == nil {
			continue
		}

		rel, err := filepath.Rel(root, file.Path)
		if err != nil {
			rel = filepath.Base(file.Path)
		}

		target := filepath.Join(dir, strings.TrimSuffix(rel, filepath.Ext(rel))+".txt")
		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			return err
		}

		track, err := os.Create(target)
		if err != nil {
			return err
		}

		err = output.WriteLabels(track, file.Result.Observations)
		if err = errors.Join(err, track.Close()); err != nil {
			return err
		}
	}

	return nil
}

func durationMs(d time.Duration) float64 {
	return float64(d.Microseconds()) / 1000.0
}

func collectAudioFiles(root string) ([]string, error) {
	var files []string

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if d.IsDir() {
			return nil
		}

		if slices.Contains(audioExtensions, strings.ToLower(filepath.Ext(path))) {
			files = append(files, path)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	slices.Sort(files)

	return files, nil
}

func compressFile(path string) error {
	in, err := os.Open(path) //nolint:gosec // reading our own output file
	if err != nil {
		return err
	}
	defer in.Close()

	gzFile, err := os.Create(path + ".gz")
	if err != nil {
		return err
	}
	defer gzFile.Close()

	gzWriter := gzip.NewWriter(gzFile)

	if _, err := io.Copy(gzWriter, in); err != nil {
		return err
	}

	if err := gzWriter.Close(); err != nil {
		return err
	}

	return gzFile.Close()
}
