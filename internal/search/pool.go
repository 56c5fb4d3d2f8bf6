package search

import (
	"sync"
	"sync/atomic"
)

// pool runs indexed jobs on a fixed number of goroutines and stops handing
// out work after the first failure.
type pool struct {
	workers int
	aborted *atomic.Bool
}

func newPool(workers int, aborted *atomic.Bool) *pool {
	if workers < 1 {
		workers = 1
	}
	return &pool{workers: workers, aborted: aborted}
}

// run calls fn for every index in [0, count). It returns the first error
// observed. Jobs already running when an error occurs are allowed to finish.
func (p *pool) run(count int, fn func(i int) error) error {
	var (
		wg    sync.WaitGroup
		once  sync.Once
		first error
	)
	jobs := make(chan int)

	workers := p.workers
	if workers > count {
		workers = count
	}
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				if err := fn(i); err != nil {
					once.Do(func() { first = err })
					p.aborted.Store(true)
				}
			}
		}()
	}

	for i := 0; i < count; i++ {
		if p.aborted.Load() {
			break
		}
		jobs <- i
	}
	close(jobs)
	wg.Wait()
	return first
}

// budget is a counting semaphore shared by every fit in a search.
type budget chan struct{}

func newBudget(n int) budget {
	if n < 1 {
		n = 1
	}
	return make(budget, n)
}

func (b budget) acquire() { b <- struct{}{} }
func (b budget) release() { <-b }
