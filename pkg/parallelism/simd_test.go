package parallelism

import (
	"errors"
	"sync/atomic"
	"testing"
)

// TestStripeCoverage tests that stripes are disjoint, contiguous, and cover
// the full item range.
func TestStripeCoverage(t *testing.T) {
	for _, size := range []int{1, 2, 3, 8} {
		for _, count := range []int{0, 1, 2, 7, 8, 9, 100} {
			next := 0
			for index := 0; index < size; index++ {
				start, end := Stripe(index, size, count)
				if start != next {
					t.Fatalf("stripe %d/%d for %d items starts at %d, expected %d", index, size, count, start, next)
				} else if end < start {
					t.Fatalf("stripe %d/%d for %d items is inverted", index, size, count)
				} else if end-start > count/size+1 {
					t.Fatalf("stripe %d/%d for %d items is unbalanced", index, size, count)
				}
				next = end
			}
			if next != count {
				t.Fatalf("stripes of size %d cover %d items, expected %d", size, next, count)
			}
		}
	}
}

// TestWorkerArrayDo tests that every worker processes its stripe exactly once.
func TestWorkerArrayDo(t *testing.T) {
	array := NewWorkerArray(4)
	defer array.Terminate()

	const count = 1000
	var visits [count]int32
	err := array.Do(WorkFunc(func(index, size int) error {
		start, end := Stripe(index, size, count)
		for i := start; i < end; i++ {
			atomic.AddInt32(&visits[i], 1)
		}
		return nil
	}))
	if err != nil {
		t.Fatal("unexpected workload error:", err)
	}
	for i, v := range visits {
		if v != 1 {
			t.Fatalf("item %d visited %d times", i, v)
		}
	}
}

// TestWorkerArrayError tests that worker errors are propagated.
func TestWorkerArrayError(t *testing.T) {
	array := NewWorkerArray(3)
	defer array.Terminate()

	failure := errors.New("failure")
	err := array.Do(WorkFunc(func(index, _ int) error {
		if index == 1 {
			return failure
		}
		return nil
	}))
	if err != failure {
		t.Error("workload error not propagated:", err)
	}
}

// TestWorkerArrayDefaultSize tests that a non-positive size selects a non-zero
// number of workers.
func TestWorkerArrayDefaultSize(t *testing.T) {
	array := NewWorkerArray(0)
	defer array.Terminate()
	if array.Size() < 1 {
		t.Error("default worker array has no workers")
	}
}

// TestWorkerArrayTerminatedPanics tests that submitting work after
// termination panics.
func TestWorkerArrayTerminatedPanics(t *testing.T) {
	array := NewWorkerArray(1)
	array.Terminate()
	array.Terminate()
	defer func() {
		if recover() == nil {
			t.Error("work submission to terminated array did not panic")
		}
	}()
	array.Do(WorkFunc(func(_, _ int) error { return nil }))
}
