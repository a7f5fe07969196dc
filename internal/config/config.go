// Package config reads and writes configuration files: one "key<TAB>value" pair per line.
package config

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/farcloser/primordium/fault"

	"github.com/farcloser/critic/internal/audit/checker"
)

// ErrWriteFailure is returned when a configuration cannot be written out.
var ErrWriteFailure = errors.New("write failure")

// Parse reads every well-formed line of reader. Blank lines and lines starting with '#' are ignored.
// Malformed lines are skipped and described in warnings; only read failures are errors.
func Parse(reader io.Reader) (map[string]string, []string, error) {
	values := map[string]string{}

	var warnings []string

	scanner := bufio.NewScanner(reader)
	line := 0

	for scanner.Scan() {
		line++

		text := strings.TrimRight(scanner.Text(), "\r")
		if strings.TrimSpace(text) == "" || strings.HasPrefix(text, "#") {
			continue
		}

		fields := strings.Split(text, "\t")
		if len(fields) != 2 || fields[0] == "" {
			warnings = append(warnings, fmt.Sprintf("line %d: expected key<TAB>value, got %q", line, text))

			continue
		}

		values[fields[0]] = fields[1]
	}

	if err := scanner.Err(); err != nil {
		return nil, warnings, fmt.Errorf("%w: %w", fault.ErrReadFailure, err)
	}

	return values, warnings, nil
}

// Load parses the file at path.
func Load(path string) (map[string]string, []string, error) {
	file, err := os.Open(path) //nolint:gosec // user provided configuration path
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %w", fault.ErrReadFailure, err)
	}

	defer file.Close()

	return Parse(file)
}

// Write emits entries in order. With comments, each entry is preceded by its description.
func Write(writer io.Writer, entries []checker.Entry, comments bool) error {
	buffered := bufio.NewWriter(writer)

	for _, entry := range entries {
		if comments && entry.Usage != "" {
			fmt.Fprintf(buffered, "# %s\n", entry.Usage)
		}

		fmt.Fprintf(buffered, "%s\t%s\n", entry.Key, entry.Value)
	}

	if err := buffered.Flush(); err != nil {
		return fmt.Errorf("%w: %w", ErrWriteFailure, err)
	}

	return nil
}
