package parallel

import (
	"errors"
	"sync/atomic"
	"testing"
)

func TestParallelizeCoversEveryIndexOnce(t *testing.T) {
	tests := []struct {
		name    string
		items   int
		workers int
	}{
		{"more items than workers", 103, 4},
		{"more workers than items", 3, 16},
		{"single worker", 10, 1},
		{"zero workers", 7, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hits := make([]int32, tt.items)
			ParallelizeN(tt.items, tt.workers, func(start, end int) {
				for i := start; i < end; i++ {
					atomic.AddInt32(&hits[i], 1)
				}
			})
			for i, h := range hits {
				if h != 1 {
					t.Fatalf("index %d visited %d times", i, h)
				}
			}
		})
	}
}

func TestParallelizeWithThreshold(t *testing.T) {
	var calls int32
	ParallelizeWithThreshold(5, 10, func(start, end int) {
		atomic.AddInt32(&calls, 1)
		if start != 0 || end != 5 {
			t.Errorf("sequential range = [%d, %d), want [0, 5)", start, end)
		}
	})
	if calls != 1 {
		t.Errorf("expected a single sequential call, got %d", calls)
	}

	ParallelizeWithThreshold(0, 10, func(start, end int) {
		t.Error("fn must not be called for zero items")
	})
}

func TestEach(t *testing.T) {
	var sum int64
	if err := Each(4, func(i int) error {
		atomic.AddInt64(&sum, int64(i))
		return nil
	}); err != nil {
		t.Fatal(err)
	}
	if sum != 6 {
		t.Errorf("sum = %d, want 6", sum)
	}

	first := errors.New("axis 1")
	err := Each(3, func(i int) error {
		switch i {
		case 1:
			return first
		case 2:
			return errors.New("axis 2")
		}
		return nil
	})
	if err != first {
		t.Errorf("Each() = %v, want the lowest-index error", err)
	}
}
