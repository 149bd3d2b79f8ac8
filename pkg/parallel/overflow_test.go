package parallel

import (
	"errors"
	"math"
	"testing"
)

func TestWorkerPoolOverflow(t *testing.T) {
	// Extremely large worker counts are rejected with an error
	_, err := NewWorkerPool(math.MaxInt)
	if !errors.Is(err, ErrTooManyWorkers) {
		t.Errorf("Expected ErrTooManyWorkers, got %v", err)
	}
}

func TestWorkerPoolWorkerCounts(t *testing.T) {
	tests := []struct {
		name string
		in   int
		want int
	}{
		{"one", 1, 1},
		{"ten", 10, 10},
		{"thousand", 1000, 1000},
		{"zero defaults to one", 0, 1},
		{"negative defaults to one", -5, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pool, err := NewWorkerPool(tt.in)
			if err != nil {
				t.Fatalf("NewWorkerPool(%d) failed: %v", tt.in, err)
			}
			defer pool.Close()

			if pool.Workers() != tt.want {
				t.Errorf("Expected %d workers, got %d", tt.want, pool.Workers())
			}
			if cap(pool.taskQueue) != tt.want*2 {
				t.Errorf("Expected queue buffer %d, got %d", tt.want*2, cap(pool.taskQueue))
			}
		})
	}
}
