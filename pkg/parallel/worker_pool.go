package parallel

import (
	"errors"
	"fmt"
	"math"
	"sync"
	"sync/atomic"
)

// WorkerPool manages a fixed set of worker goroutines fed from a bounded queue
type WorkerPool struct {
	workers   int
	taskQueue chan func()
	wg        sync.WaitGroup
	once      sync.Once
	mu        sync.RWMutex // Protects taskQueue from concurrent close during send
	closed    bool         // Protected by mu
	panics    atomic.Int64
}

var (
	// ErrTooManyWorkers is returned when the worker count exceeds the maximum allowed.
	ErrTooManyWorkers = errors.New("worker count exceeds maximum")
	// ErrPoolClosed is returned by Sweep when the pool no longer accepts tasks.
	ErrPoolClosed = errors.New("worker pool is closed")
	// ErrTaskPanicked is returned by Sweep when a chunk function panicked.
	ErrTaskPanicked = errors.New("task panicked")
)

// MaxWorkers is the maximum number of workers allowed in a pool.
const MaxWorkers = math.MaxInt / 2

// NewWorkerPool creates a new worker pool with specified number of workers.
// Non-positive counts fall back to a single worker.
func NewWorkerPool(workers int) (*WorkerPool, error) {
	if workers <= 0 {
		workers = 1
	}

	// Prevent overflow in buffer size calculation
	if workers > MaxWorkers {
		return nil, fmt.Errorf("%w: %d exceeds %d", ErrTooManyWorkers, workers, MaxWorkers)
	}

	pool := &WorkerPool{
		workers:   workers,
		taskQueue: make(chan func(), workers*2),
	}

	pool.start()
	return pool, nil
}

// Workers returns the number of worker goroutines
func (wp *WorkerPool) Workers() int {
	return wp.workers
}

// Panics returns how many tasks have panicked since the pool started
func (wp *WorkerPool) Panics() int64 {
	return wp.panics.Load()
}

func (wp *WorkerPool) start() {
	for i := 0; i < wp.workers; i++ {
		wp.wg.Add(1)
		go wp.worker()
	}
}

func (wp *WorkerPool) worker() {
	defer wp.wg.Done()

	for task := range wp.taskQueue {
		// A panicking task must not take the worker down with it
		func() {
			defer func() {
				if r := recover(); r != nil {
					wp.panics.Add(1)
				}
			}()
			task()
		}()
	}
}

// Submit adds a task to the worker pool.
// Returns false if the pool is closed, true if task was submitted.
func (wp *WorkerPool) Submit(task func()) bool {
	wp.mu.RLock()
	defer wp.mu.RUnlock()

	if wp.closed {
		return false
	}

	wp.taskQueue <- task
	return true
}

// Sweep partitions the index range [0,n) into one contiguous chunk per worker,
// runs fn on every chunk and returns only after all chunks have finished.
// The return is a barrier: no chunk of a later Sweep can start before every
// chunk of this one is done.
func (wp *WorkerPool) Sweep(n int, fn func(lo, hi int)) error {
	if n <= 0 {
		return nil
	}

	// Overflow-safe ceiling division
	chunkSize := int((int64(n) + int64(wp.workers) - 1) / int64(wp.workers))
	if chunkSize < 1 {
		chunkSize = 1
	}

	var (
		wg       sync.WaitGroup
		panicked atomic.Value
	)

	for lo := 0; lo < n; lo += chunkSize {
		hi := lo + chunkSize
		if hi > n {
			hi = n
		}

		wg.Add(1)
		chunkLo, chunkHi := lo, hi
		ok := wp.Submit(func() {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					panicked.CompareAndSwap(nil, fmt.Sprint(r))
				}
			}()
			fn(chunkLo, chunkHi)
		})
		if !ok {
			wg.Done()
			wg.Wait()
			return ErrPoolClosed
		}
	}

	wg.Wait()

	if r := panicked.Load(); r != nil {
		return fmt.Errorf("%w: %v", ErrTaskPanicked, r)
	}
	return nil
}

// Close shuts down the worker pool after queued tasks have run
func (wp *WorkerPool) Close() {
	wp.once.Do(func() {
		wp.mu.Lock()
		wp.closed = true
		close(wp.taskQueue)
		wp.mu.Unlock()
	})
	wp.wg.Wait()
}
