// Package worker provides a goroutine pool for concurrent job execution.
//
// The load generator uses a Pool to issue requests against a bootstrap node
// from a fixed number of goroutines.
//
// # Basic Usage
//
//	pool := worker.NewPool(4) // 4 workers
//	pool.Start(ctx)
//	defer pool.Stop()
//
//	pool.Submit(func(ctx context.Context) {
//	    _ = c.Store(ctx, "alpha", "1")
//	})
//
// Submit blocks while the queue is full; TrySubmit never blocks.
//
// # Graceful Shutdown
//
// Stop cancels the context handed to jobs and waits for running jobs to
// return. Queued jobs that have not started are dropped. A stopped pool
// cannot be restarted.
package worker
