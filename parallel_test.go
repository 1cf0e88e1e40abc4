package gravity

import (
	"strings"
	"sync/atomic"
	"testing"
)

// every index in [lo, hi) runs exactly once, and the call returns only
// after all of them have.
func TestParallelForTotality(t *testing.T) {
	const n = 10000
	counts := make([]int32, n)

	err := ParallelFor(0, n, 0, func(i int) {
		atomic.AddInt32(&counts[i], 1)
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for i, c := range counts {
		if c != 1 {
			t.Fatalf("index %d ran %d times", i, c)
		}
	}
}

func TestParallelForOffsetRange(t *testing.T) {
	counts := make([]int32, 100)
	err := ParallelFor(40, 60, 4, func(i int) {
		atomic.AddInt32(&counts[i], 1)
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i, c := range counts {
		want := int32(0)
		if i >= 40 && i < 60 {
			want = 1
		}
		if c != want {
			t.Fatalf("index %d ran %d times, want %d", i, c, want)
		}
	}
}

func TestParallelForEmptyRange(t *testing.T) {
	called := int32(0)
	if err := ParallelFor(5, 5, 0, func(int) { atomic.AddInt32(&called, 1) }); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := ParallelFor(9, 3, 0, func(int) { atomic.AddInt32(&called, 1) }); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if called != 0 {
		t.Errorf("empty range invoked the callable %d times", called)
	}
}

// more workers than indices must not double-run anything.
func TestParallelForTinyRange(t *testing.T) {
	counts := make([]int32, 3)
	if err := ParallelFor(0, 3, 64, func(i int) { atomic.AddInt32(&counts[i], 1) }); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i, c := range counts {
		if c != 1 {
			t.Fatalf("index %d ran %d times", i, c)
		}
	}
}

func TestParallelForSurfacesPanic(t *testing.T) {
	err := ParallelFor(0, 100, 4, func(i int) {
		if i == 42 {
			panic("boom")
		}
	})
	if err == nil {
		t.Fatal("panic was swallowed")
	}
	if !strings.Contains(err.Error(), "boom") {
		t.Errorf("error %q does not carry the panic value", err)
	}
}

// a panic in one chunk must not stop other chunks from completing.
func TestParallelForContinuesAfterPanic(t *testing.T) {
	const n = 1000
	var ran int32
	err := ParallelFor(0, n, 4, func(i int) {
		if i == 0 {
			panic("first chunk dies")
		}
		atomic.AddInt32(&ran, 1)
	})
	if err == nil {
		t.Fatal("expected an error")
	}
	// everything outside the dead chunk still ran
	chunk := n / (10 * 4)
	if int(ran) < n-chunk {
		t.Errorf("only %d indices ran; the panic stopped more than its own chunk", ran)
	}
}
