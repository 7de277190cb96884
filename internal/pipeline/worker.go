package pipeline

import (
	"context"
	"sync"

	"github.com/rs/zerolog/log"
)

// ForEach processes jobs on a bounded worker pool. Jobs are independent: fn
// handles and reports its own failures, so one bad job never stops the rest.
// Cancelling ctx stops handing out jobs and ForEach returns ctx.Err(). Jobs
// already handed out run to completion on a context that keeps ctx's values
// but not its cancellation.
func ForEach[T any](ctx context.Context, cfg PoolConfig, jobs []T, fn func(ctx context.Context, workerID int, job T)) error {
	if len(jobs) == 0 {
		return nil
	}

	workerCount := cfg.WorkerCount
	if workerCount < 1 {
		workerCount = 1
	}
	if workerCount > len(jobs) {
		workerCount = len(jobs)
	}

	jobCtx := context.WithoutCancel(ctx)
	jobChan := make(chan T)
	var wg sync.WaitGroup

	// Start workers
	for i := 0; i < workerCount; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			for job := range jobChan {
				fn(jobCtx, workerID, job)
			}
		}(i)
	}

	log.Debug().
		Str("pool", cfg.Name).
		Int("workers", workerCount).
		Int("jobs", len(jobs)).
		Msg("worker pool started")

	// Enqueue jobs
	var enqueueErr error
enqueue:
	for _, job := range jobs {
		if err := ctx.Err(); err != nil {
			enqueueErr = err
			break
		}
		select {
		case <-ctx.Done():
			enqueueErr = ctx.Err()
			break enqueue
		case jobChan <- job:
		}
	}
	close(jobChan)

	// Wait for all workers
	wg.Wait()

	return enqueueErr
}
