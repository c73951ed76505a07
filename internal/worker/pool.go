package worker

import (
	"context"
	"sync"

	"github.com/rs/zerolog/log"
)

// Task is one input of a pool run together with its outcome.
type Task[T any, R any] struct {
	Input  T
	Result R
	Err    error
	// Done is false when the task was never started because the context was
	// cancelled.
	Done bool
}

// ProcessFunc processes a single input.
type ProcessFunc[T any, R any] func(ctx context.Context, input T) (R, error)

// Pool runs a ProcessFunc over many inputs with bounded concurrency. A failing
// input does not stop the others.
type Pool[T any, R any] struct {
	workers int
	process ProcessFunc[T, R]
}

// NewPool creates a new worker pool.
func NewPool[T any, R any](workers int, fn ProcessFunc[T, R]) *Pool[T, R] {
	if workers < 1 {
		workers = 1
	}
	return &Pool[T, R]{
		workers: workers,
		process: fn,
	}
}

// Execute runs all inputs through the pool and returns one Task per input, in
// input order.
func (p *Pool[T, R]) Execute(ctx context.Context, inputs []T) []Task[T, R] {
	results := make([]Task[T, R], len(inputs))
	for i := range inputs {
		results[i].Input = inputs[i]
	}
	inputCh := make(chan int)

	var wg sync.WaitGroup

	for w := 0; w < min(p.workers, len(inputs)); w++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			for idx := range inputCh {
				result, err := p.process(ctx, inputs[idx])
				results[idx].Result = result
				results[idx].Err = err
				results[idx].Done = true
				if err != nil {
					log.Debug().Err(err).Int("worker", workerID).Int("index", idx).Msg("Task failed")
				}
			}
		}(w)
	}

send:
	for i := range inputs {
		select {
		case <-ctx.Done():
			break send
		case inputCh <- i:
		}
	}
	close(inputCh)

	wg.Wait()
	return results
}

// Failed returns the tasks that ended with an error.
func Failed[T any, R any](tasks []Task[T, R]) []Task[T, R] {
	var failed []Task[T, R]
	for _, t := range tasks {
		if t.Err != nil {
			failed = append(failed, t)
		}
	}
	return failed
}

// Skipped returns the tasks that never ran.
func Skipped[T any, R any](tasks []Task[T, R]) []Task[T, R] {
	var skipped []Task[T, R]
	for _, t := range tasks {
		if !t.Done {
			skipped = append(skipped, t)
		}
	}
	return skipped
}

// Batch splits items into consecutive chunks of at most batchSize.
func Batch[T any](items []T, batchSize int) [][]T {
	if batchSize <= 0 {
		batchSize = 1
	}
	var batches [][]T
	for i := 0; i < len(items); i += batchSize {
		end := min(i+batchSize, len(items))
		batches = append(batches, items[i:end])
	}
	return batches
}
