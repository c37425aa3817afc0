package field

import (
	"runtime"
	"sync"
)

// parallelThreshold is the point count below which ForEachPoint runs inline.
// Spawning goroutines for a handful of columns costs more than it saves.
const parallelThreshold = 4096

// ForEachPoint applies fn to every horizontal point of the space, optionally
// including the halo region. Points are independent, so the iteration is
// chunked across goroutines when the space is large enough. fn receives the
// point index and must not touch any other point's slot.
//
// Vertical recurrences must not use this: level ordering inside a column is
// the recipe's responsibility.
func ForEachPoint(space Space, includeHalo bool, fn func(jn int)) {
	n := space.Points
	if includeHalo {
		n = space.Size()
	}

	if n < parallelThreshold {
		for jn := 0; jn < n; jn++ {
			fn(jn)
		}
		return
	}

	workers := runtime.GOMAXPROCS(0)
	chunk := (n + workers - 1) / workers

	var wg sync.WaitGroup
	for start := 0; start < n; start += chunk {
		end := start + chunk
		if end > n {
			end = n
		}
		wg.Add(1)
		go func(lo, hi int) {
			defer wg.Done()
			for jn := lo; jn < hi; jn++ {
				fn(jn)
			}
		}(start, end)
	}
	wg.Wait()
}
