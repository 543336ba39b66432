package worker

import (
	"context"
	"sync/atomic"
	"testing"
)

func TestMap_PreservesOrder(t *testing.T) {
	items := []int{5, 3, 8, 1, 9, 2}

	results := Map(context.Background(), 3, items, func(_ context.Context, n int) int {
		return n * 2
	})

	if len(results) != len(items) {
		t.Fatalf("Expected %d results, got %d", len(items), len(results))
	}
	for i, n := range items {
		if results[i] != n*2 {
			t.Errorf("results[%d] = %d, want %d", i, results[i], n*2)
		}
	}
}

func TestMap_BoundsConcurrency(t *testing.T) {
	var active, peak int64

	items := make([]int, 50)
	Map(context.Background(), 4, items, func(_ context.Context, _ int) int {
		cur := atomic.AddInt64(&active, 1)
		for {
			p := atomic.LoadInt64(&peak)
			if cur <= p || atomic.CompareAndSwapInt64(&peak, p, cur) {
				break
			}
		}
		atomic.AddInt64(&active, -1)
		return 0
	})

	if peak > 4 {
		t.Errorf("Expected at most 4 concurrent workers, observed %d", peak)
	}
}

func TestMap_EmptyInput(t *testing.T) {
	results := Map(context.Background(), 4, nil, func(_ context.Context, _ int) int { return 1 })
	if len(results) != 0 {
		t.Errorf("Expected no results, got %d", len(results))
	}
}
