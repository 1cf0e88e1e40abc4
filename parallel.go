package gravity

import (
	"fmt"
	"runtime"
	"sync"
)

/*

parallel execution harness.
a shared cursor hands out FIFO index chunks; workers drain them until
the range is exhausted. execution order across indices is unspecified.

*/

// ParallelFor runs fn exactly once for every index in [lo, hi), spread
// across workers goroutines. workers <= 0 selects twice the CPU count
// (the usual hyperthreading heuristic). the chunk size is a tenth of an
// even split so late-finishing workers can steal remaining work.
//
// ParallelFor returns only after every claimed index has completed. if
// fn panics, the first panic is returned as an error after the join;
// indices remaining in that worker's chunk are skipped.
func ParallelFor(lo, hi, workers int, fn func(i int)) error {
	if hi <= lo {
		return nil
	}
	if workers <= 0 {
		workers = 2 * runtime.NumCPU()
	}
	chunk := (hi - lo) / (10 * workers)
	if chunk < 1 {
		chunk = 1
	}

	var (
		mu     sync.Mutex
		cursor = lo
		wg     sync.WaitGroup
		once   sync.Once
		err    error
	)

	next := func() (start, end int, ok bool) {
		mu.Lock()
		defer mu.Unlock()
		if cursor >= hi {
			return 0, 0, false
		}
		start = cursor
		end = start + chunk
		if end > hi {
			end = hi
		}
		cursor = end
		return start, end, true
	}

	run := func(start, end int) {
		defer func() {
			if r := recover(); r != nil {
				once.Do(func() {
					err = fmt.Errorf("parallel: worker panic on [%d,%d): %v", start, end, r)
				})
			}
		}()
		for i := start; i < end; i++ {
			fn(i)
		}
	}

	wg.Add(workers)
	for w := 0; w < workers; w++ {
		go func() {
			defer wg.Done()
			for {
				start, end, ok := next()
				if !ok {
					return
				}
				run(start, end)
			}
		}()
	}
	wg.Wait()

	return err
}
