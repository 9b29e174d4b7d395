package main

import (
	"context"
	"time"

	"openentropy/internal/entropy/pool"
)

// startBackgroundCollect runs a collection cycle every interval until
// ctx is canceled, so long-lived commands (server, monitor) keep
// fresh bytes flowing into the pool without the caller driving
// collection itself. The returned stop function blocks until the
// background goroutine has exited.
func startBackgroundCollect(ctx context.Context, p *pool.Pool) func() {
	const interval = 500 * time.Millisecond
	done := make(chan struct{})
	go func() {
		defer close(done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				p.CollectAllParallel(pool.DefaultTimeout)
			}
		}
	}()
	return func() { <-done }
}
