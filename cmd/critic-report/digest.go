//nolint:wrapcheck
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/farcloser/critic/internal/output"
	"github.com/farcloser/critic/internal/store"
)

var errDigestArgs = errors.New("expected either a report path or --db")

func digestCommand() *cli.Command {
	return &cli.Command{
		Name:      "digest",
		Usage:     "Produce a summary digest from a critic JSONL report, or from the latest run in a database",
		ArgsUsage: "<report.jsonl>",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "kind",
				Usage: "Show files affected by a specific kind of issue (e.g., edit-click, dc-bias)",
			},
			&cli.StringFlag{
				Name:  "db",
				Usage: "Read the latest run from this SQLite database instead of a report file",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if dbPath := cmd.String("db"); dbPath != "" {
				if cmd.NArg() != 0 {
					return errDigestArgs
				}

				return runStoreDigest(ctx, dbPath, cmd.String("kind"))
			}

			if cmd.NArg() != 1 {
				return errDigestArgs
			}

			return runDigest(cmd.Args().First(), cmd.String("kind"))
		},
	}
}

func runDigest(reportPath, kindFilter string) error {
	records, err := readRecords(reportPath)
	if err != nil {
		return err
	}

	printDigest(os.Stdout, records)

	if kindFilter != "" {
		printKindDetail(os.Stdout, records, kindFilter)
	}

	return nil
}

// runStoreDigest rebuilds digest records from the database, so both sources print the same digest.
func runStoreDigest(ctx context.Context, dbPath, kindFilter string) error {
	db, err := store.Open(dbPath)
	if err != nil {
		return err
	}
	defer db.Close()

	run, err := db.LatestRun(ctx)
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stdout, "Run %s (%s, source: %s, checks: %s)\n\n",
		run.ID, run.StartedAt.Format("2006-01-02 15:04:05"), run.Source, run.Checks)

	records := make([]digestRecord, 0, len(run.Files))

	for _, file := range run.Files {
		if file.Error != "" {
			records = append(records, digestRecord{File: file.Path, Error: file.Error})

			continue
		}

		analysis := &digestAnalysis{
			Summary: digestSummary{IssueCount: file.IssueCount, WorstSeverity: file.WorstSeverity},
		}

		for _, obs := range file.Observations {
			analysis.Observations = append(analysis.Observations, digestObservation{
				Kind:     obs.Kind,
				Severity: obs.Severity,
				StartMs:  obs.StartMs,
				EndMs:    obs.EndMs,
			})
		}

		records = append(records, digestRecord{File: file.Path, Analysis: analysis})
	}

	printDigest(os.Stdout, records)

	if kindFilter != "" {
		printKindDetail(os.Stdout, records, kindFilter)
	}

	return nil
}

func readRecords(path string) ([]digestRecord, error) {
	file, err := os.Open(path) //nolint:gosec // CLI tool opens user-specified report files
	if err != nil {
		return nil, fmt.Errorf("opening report: %w", err)
	}
	defer file.Close()

	var records []digestRecord

	scanner := bufio.NewScanner(file)

	const maxLineSize = 16 * 1024 * 1024 // files with thousands of clicks make long lines
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	for scanner.Scan() {
		var rec digestRecord
		if err := json.Unmarshal(scanner.Bytes(), &rec); err != nil {
			records = append(records, digestRecord{Error: "parse error"})

			continue
		}

		records = append(records, rec)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading report: %w", err)
	}

	return records, nil
}

func printDigest(writer io.Writer, records []digestRecord) {
	total := len(records)
	failed := 0
	sevDist := map[string]int{"severe": 0, "moderate": 0, "mild": 0, "clean": 0}
	issueDist := map[int]int{}
	kindStats := map[string]*kindBreakdown{}

	for _, rec := range records {
		if rec.Error != "" || rec.Analysis == nil {
			failed++

			continue
		}

		worst := rec.Analysis.Summary.WorstSeverity
		if worst == "" || worst == "no issue" {
			sevDist["clean"]++
		} else {
			sevDist[worst]++
		}

		issueDist[rec.Analysis.Summary.IssueCount]++

		seen := map[string]bool{}

		for _, obs := range rec.Analysis.Observations {
			breakdown, ok := kindStats[obs.Kind]
			if !ok {
				breakdown = &kindBreakdown{Kind: obs.Kind}
				kindStats[obs.Kind] = breakdown
			}

			if !seen[obs.Kind] {
				seen[obs.Kind] = true
				breakdown.Files++
			}

			breakdown.Total++

			switch obs.Severity {
			case "severe":
				breakdown.Severe++
			case "moderate":
				breakdown.Moderate++
			case "mild":
				breakdown.Mild++
			}
		}
	}

	fmt.Fprintln(writer, "=== Critic Report Digest ===")
	fmt.Fprintln(writer)
	fmt.Fprintf(writer, "Total files:   %d\n", total)
	fmt.Fprintf(writer, "Failed:        %d\n", failed)
	fmt.Fprintf(writer, "Analyzed:      %d\n", total-failed)
	fmt.Fprintln(writer)

	fmt.Fprintln(writer, "--- Worst Severity ---")
	fmt.Fprintf(writer, "  Clean:     %d\n", sevDist["clean"])
	fmt.Fprintf(writer, "  Mild:      %d\n", sevDist["mild"])
	fmt.Fprintf(writer, "  Moderate:  %d\n", sevDist["moderate"])
	fmt.Fprintf(writer, "  Severe:    %d\n", sevDist["severe"])
	fmt.Fprintln(writer)

	fmt.Fprintln(writer, "--- Issues Per File ---")

	counts := make([]int, 0, len(issueDist))
	for count := range issueDist {
		counts = append(counts, count)
	}

	slices.Sort(counts)

	for _, count := range counts {
		fmt.Fprintf(writer, "  %d issues:  %d files\n", count, issueDist[count])
	}

	fmt.Fprintln(writer)

	fmt.Fprintln(writer, "--- Issues By Kind ---")

	breakdowns := make([]*kindBreakdown, 0, len(kindStats))
	for _, bd := range kindStats {
		breakdowns = append(breakdowns, bd)
	}

	slices.SortFunc(breakdowns, func(a, b *kindBreakdown) int {
		if a.Total != b.Total {
			return b.Total - a.Total
		}

		return strings.Compare(a.Kind, b.Kind)
	})

	for _, bd := range breakdowns {
		fmt.Fprintf(writer, "  %s\n", bd.Kind)
		fmt.Fprintf(writer, "    files: %d  total: %d  severe: %d  moderate: %d  mild: %d\n",
			bd.Files, bd.Total, bd.Severe, bd.Moderate, bd.Mild)
	}
}

type kindEntry struct {
	file     string
	worst    string
	count    int
	firstMs  int64
	severity int
}

func printKindDetail(writer io.Writer, records []digestRecord, kind string) {
	fmt.Fprintln(writer)

	var entries []kindEntry

	for _, rec := range records {
		if rec.Error != "" || rec.Analysis == nil {
			continue
		}

		entry := kindEntry{file: rec.File, severity: severityRank("")}

		for _, obs := range rec.Analysis.Observations {
			if obs.Kind != kind {
				continue
			}

			if entry.count == 0 {
				entry.firstMs = obs.StartMs
			}

			entry.count++

			if rank := severityRank(obs.Severity); rank < entry.severity {
				entry.severity = rank
				entry.worst = obs.Severity
			}
		}

		if entry.count == 0 {
			continue
		}

		if entry.file == "" {
			entry.file = "(redacted)"
		}

		entries = append(entries, entry)
	}

	if len(entries) == 0 {
		fmt.Fprintf(writer, "No files affected by %s\n", kind)

		return
	}

	slices.SortStableFunc(entries, func(a, b kindEntry) int {
		return a.severity - b.severity
	})

	fmt.Fprintf(writer, "=== %s: %d files ===\n\n", kind, len(entries))

	for _, entry := range entries {
		fmt.Fprintf(writer, "  %s\n", entry.file)
		fmt.Fprintf(writer, "    worst: %s  occurrences: %d  first at: %s\n",
			entry.worst, entry.count, output.Timestamp(entry.firstMs))
		fmt.Fprintln(writer)
	}
}

func severityRank(severity string) int {
	switch severity {
	case "severe":
		return 0
	case "moderate":
		return 1
	case "mild":
		return 2
	default:
		return 3
	}
}
