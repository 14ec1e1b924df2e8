package sync

import (
	"context"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
)

// ItemResult reports the outcome of syncing one TransferItem.
type ItemResult struct {
	Source string
	Target string
	Err    error
}

// RunPool submits every item in items to syncer.Sync, running up to
// maxWorkers at a time, and streams each completion on the returned
// channel, closing it once every item has completed or ctx is canceled.
// Canceling ctx stops further submissions and causes in-flight workers to
// finish their current item before exiting; already-streamed results are
// not rolled back.
func RunPool(ctx context.Context, items []TransferItem, syncer *SingleItemSyncer, maxWorkers int64) <-chan ItemResult {
	if maxWorkers < 1 {
		maxWorkers = 1
	}

	results := make(chan ItemResult, len(items))
	sem := semaphore.NewWeighted(maxWorkers)
	g, gctx := errgroup.WithContext(ctx)

	go func() {
		for _, item := range items {
			item := item
			if err := sem.Acquire(gctx, 1); err != nil {
				// Context was canceled while waiting for a slot; record it
				// and stop handing out further work.
				results <- ItemResult{Source: item.Source, Target: item.Target, Err: err}
				break
			}
			g.Go(func() error {
				defer sem.Release(1)
				err := syncer.Sync(item.Source, item.Target, item.Path)
				if err != nil {
					err = &TranscodeFailure{Source: item.Source, Target: item.Target, Err: err}
				}
				results <- ItemResult{Source: item.Source, Target: item.Target, Err: err}
				return nil
			})
		}
		_ = g.Wait()
		close(results)
	}()

	return results
}
