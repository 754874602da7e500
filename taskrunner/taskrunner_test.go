package taskrunner

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
)

func TestRunPreservesOrder(t *testing.T) {
	tasks := []int{5, 1, 9, 3, 7}
	results, err := Run(context.Background(), tasks, 2, func(_ context.Context, t int) (int, error) {
		return t * t, nil
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	for i, task := range tasks {
		if results[i] != task*task {
			t.Fatalf("result[%d] = %d, want %d", i, results[i], task*task)
		}
	}
}

func TestRunRespectsParallelismCap(t *testing.T) {
	const cap = 3
	var inFlight, maxSeen int32

	tasks := make([]int, 20)
	_, err := Run(context.Background(), tasks, cap, func(_ context.Context, _ int) (struct{}, error) {
		n := atomic.AddInt32(&inFlight, 1)
		for {
			seen := atomic.LoadInt32(&maxSeen)
			if n <= seen || atomic.CompareAndSwapInt32(&maxSeen, seen, n) {
				break
			}
		}
		atomic.AddInt32(&inFlight, -1)
		return struct{}{}, nil
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if maxSeen > cap {
		t.Fatalf("observed %d concurrent calls, cap was %d", maxSeen, cap)
	}
}

func TestRunPropagatesFirstError(t *testing.T) {
	tasks := []int{1, 2, 3}
	_, err := Run(context.Background(), tasks, 0, func(_ context.Context, t int) (int, error) {
		if t == 2 {
			return 0, fmt.Errorf("task %d failed", t)
		}
		return t, nil
	})
	if err == nil {
		t.Fatalf("expected error")
	}
}
