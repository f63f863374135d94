package dynamo

import (
	"runtime"

	"golang.org/x/sync/errgroup"
)

// ParallelFor executes fn in parallel over contiguous chunks of [0, n).
// Chunks never overlap, so fn may write to per-index storage without
// locking. The first error returned by any chunk is returned.
func ParallelFor(n, minChunk int, fn func(start, end int) error) error {
	if n <= 0 {
		return nil
	}
	if minChunk < 1 {
		minChunk = 1
	}

	workers := runtime.GOMAXPROCS(0)
	if n/minChunk < workers {
		workers = n / minChunk
	}
	if n <= minChunk || workers <= 1 {
		return fn(0, n)
	}

	chunkSize := (n + workers - 1) / workers

	var g errgroup.Group
	g.SetLimit(workers)
	for start := 0; start < n; start += chunkSize {
		end := start + chunkSize
		if end > n {
			end = n
		}
		start := start
		g.Go(func() error {
			return fn(start, end)
		})
	}

	return g.Wait()
}
