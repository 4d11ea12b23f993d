package selection

import (
	"context"
	"sync"
	"sync/atomic"
)

// CaptureConcurrency is the fixed worker-pool limit used by Finalize.
const CaptureConcurrency = 2

// BoundedMap applies fn to every item with at most limit concurrent
// workers. Results and errors are positional: results[i] and errs[i]
// belong to items[i] no matter which worker finished first. A limit below
// 1 is treated as 1. Workers claim the next unclaimed index and run a
// claimed item to completion; ctx gates claiming new work, never items
// already in flight.
func BoundedMap[T, R any](ctx context.Context, items []T, limit int, fn func(context.Context, T) (R, error)) ([]R, []error) {
	results := make([]R, len(items))
	errs := make([]error, len(items))
	if len(items) == 0 {
		return results, errs
	}
	if limit < 1 {
		limit = 1
	}

	var next atomic.Int64
	var wg sync.WaitGroup
	for w := 0; w < min(limit, len(items)); w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				i := int(next.Add(1)) - 1
				if i >= len(items) {
					return
				}
				if err := ctx.Err(); err != nil {
					errs[i] = err
					continue
				}
				results[i], errs[i] = fn(ctx, items[i])
			}
		}()
	}
	wg.Wait()
	return results, errs
}
