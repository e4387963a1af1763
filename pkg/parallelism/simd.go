// Package parallelism provides a reusable array of worker Goroutines for
// data-parallel workloads such as block hashing.
package parallelism

import (
	"runtime"
	"sync"
)

// Work is the interface for data-parallel workloads.
type Work interface {
	// Do is invoked once by each worker Goroutine. It provides the index of
	// the Goroutine in the worker array and the size of the array.
	Do(index, size int) error
}

// WorkFunc adapts an ordinary function to the Work interface.
type WorkFunc func(index, size int) error

// Do implements Work.Do.
func (f WorkFunc) Do(index, size int) error {
	return f(index, size)
}

// WorkerArray encapsulates an array of worker Goroutines that each process one
// slice of a shared workload.
type WorkerArray struct {
	// lock serializes access to the worker array.
	lock sync.Mutex
	// size is the array size.
	size int
	// terminated tracks whether or not the array has been terminated.
	terminated bool
	// submit holds one channel per worker for submitting workloads. The
	// channels are closed to signal termination.
	submit []chan Work
	// results holds one channel per worker for reporting workload completion.
	// The channels are closed once worker Goroutines have exited.
	results []chan error
}

// NewWorkerArray creates a new worker array. If size is zero or negative, an
// array with one worker per CPU is created.
func NewWorkerArray(size int) *WorkerArray {
	// Handle the case of a default size.
	if size < 1 {
		size = runtime.NumCPU()
	}

	// Create the array.
	array := &WorkerArray{
		size:    size,
		submit:  make([]chan Work, size),
		results: make([]chan error, size),
	}

	// Create the communication channels and start the worker Goroutines.
	for i := 0; i < size; i++ {
		array.submit[i] = make(chan Work)
		array.results[i] = make(chan error)
		go array.work(i)
	}

	// Done.
	return array
}

// Size returns the number of workers in the array.
func (a *WorkerArray) Size() int {
	return a.size
}

// work is the work loop for worker Goroutines.
func (a *WorkerArray) work(index int) {
	for work := range a.submit[index] {
		a.results[index] <- work.Do(index, a.size)
	}
	close(a.results[index])
}

// Do runs a workload on every worker and waits for all of them to finish. It
// is safe for concurrent use, though workloads are serialized. It must not be
// called after Terminate. It returns the first non-nil error reported by a
// worker, if any.
func (a *WorkerArray) Do(work Work) error {
	// Lock the array and defer its release.
	a.lock.Lock()
	defer a.lock.Unlock()

	// If the array has been terminated, then the caller is in error.
	if a.terminated {
		panic("work submitted to terminated array")
	}

	// Submit the work to the worker Goroutines.
	for i := 0; i < a.size; i++ {
		a.submit[i] <- work
	}

	// Wait for the worker Goroutines to complete their work.
	var firstErr error
	for i := 0; i < a.size; i++ {
		if err := <-a.results[i]; err != nil && firstErr == nil {
			firstErr = err
		}
	}

	// Done.
	return firstErr
}

// Terminate stops the array's workers. It is idempotent.
func (a *WorkerArray) Terminate() {
	// Lock the array and defer its release.
	a.lock.Lock()
	defer a.lock.Unlock()

	// Check for previous termination.
	if a.terminated {
		return
	}

	// Terminate the array's workers and wait for them to exit.
	for i := 0; i < a.size; i++ {
		close(a.submit[i])
		<-a.results[i]
	}

	// Mark the array as terminated.
	a.terminated = true
}

// Stripe computes the contiguous half-open range [start, end) of count items
// assigned to worker index in an array of the given size. Ranges for all
// workers are disjoint, cover [0, count), and differ in length by at most one.
func Stripe(index, size, count int) (int, int) {
	quotient, remainder := count/size, count%size
	start := index*quotient + min(index, remainder)
	end := start + quotient
	if index < remainder {
		end++
	}
	return start, end
}

// min implements simple minimum finding for int values.
func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
