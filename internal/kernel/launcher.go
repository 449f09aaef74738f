// Package kernel implements dtype-polymorphic elementwise compute kernels
// driven by the core indexer, dispatched per device.
package kernel

import (
	"runtime"

	"golang.org/x/sync/errgroup"
)

// SmallOpGrainSize is the serial/parallel threshold for elementwise ops.
// When the number of workloads is at or below the grain size, the dispatch
// and synchronization overhead of fanning out to worker goroutines outweighs
// the benefit, so the workloads run in the invoking goroutine.
const SmallOpGrainSize = 32767

// ParallelFor runs fn(i) for i in [0, n). Workloads above grainSize are
// fanned out across up to GOMAXPROCS workers; the call blocks until every
// worker finishes.
func ParallelFor(n, grainSize int, fn func(i int)) {
	if n <= 0 {
		return
	}
	workers := runtime.GOMAXPROCS(0)
	if n <= grainSize || workers <= 1 {
		for i := 0; i < n; i++ {
			fn(i)
		}
		return
	}

	chunk := (n + workers - 1) / workers
	var eg errgroup.Group
	eg.SetLimit(workers)
	for start := 0; start < n; start += chunk {
		s, e := start, min(start+chunk, n)
		eg.Go(func() error {
			for i := s; i < e; i++ {
				fn(i)
			}
			return nil
		})
	}
	// Workers never return errors; Wait only rejoins the fan-out.
	_ = eg.Wait()
}
