//nolint:wrapcheck // context errors are returned as is
package critic

import (
	"context"
	"errors"
	"log/slog"
	"runtime"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/farcloser/critic/internal/types"
)

// Loader decodes the file at path.
type Loader func(ctx context.Context, path string) (*types.Buffer, error)

// RunOptions tunes a batch.
type RunOptions struct {
	// Concurrency bounds how many files are decoded and analyzed at once (default: number of CPUs).
	Concurrency int
	// Progress, when set, is called once per file as soon as it is done. Calls are serialized.
	Progress func(file FileResult)
}

// Run analyzes paths with a bounded pool of workers. Files that fail to load are recorded in their slot
// and do not stop the batch. Cancelling ctx stops the run and returns no batch.
func Run(ctx context.Context, critic *Critic, paths []string, loader Loader, opts RunOptions) (*Batch, error) {
	limit := opts.Concurrency
	if limit <= 0 {
		limit = runtime.NumCPU()
	}

	files := make([]FileResult, len(paths))

	var progress sync.Mutex

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(limit)

	for index, path := range paths {
		group.Go(func() error {
			if err := groupCtx.Err(); err != nil {
				return err
			}

			file := FileResult{Path: path}

			buffer, err := loader(groupCtx, path)

			switch {
			case errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded):
				return err
			case err != nil:
				slog.Debug("cannot load file", "path", path, "error", err)

				file.Err = err
			default:
				result, err := critic.Analyze(groupCtx, buffer)
				if err != nil {
					return err
				}

				slog.Debug("analyzed", "path", path, "issues", result.IssueCount, "worst", result.WorstSeverity)

				file.Result = result
			}

			files[index] = file

			if opts.Progress != nil {
				progress.Lock()
				opts.Progress(file)
				progress.Unlock()
			}

			return nil
		})
	}

	if err := group.Wait(); err != nil {
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return &Batch{Files: files}, nil
}
