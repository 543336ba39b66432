package worker

import (
	"context"
	"sync"
)

// Map runs fn over items with at most workers goroutines and returns
// the results in input order. A cancelled context leaves the zero value
// in the remaining slots.
func Map[T any, R any](ctx context.Context, workers int, items []T, fn func(context.Context, T) R) []R {
	if workers <= 0 {
		workers = 1
	}
	if workers > len(items) {
		workers = len(items)
	}

	results := make([]R, len(items))
	jobs := make(chan int)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				if ctx.Err() != nil {
					return
				}
				results[i] = fn(ctx, items[i])
			}
		}()
	}

	for i := range items {
		select {
		case <-ctx.Done():
		case jobs <- i:
			continue
		}
		break
	}
	close(jobs)
	wg.Wait()

	return results
}
