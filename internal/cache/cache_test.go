package cache

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
)

func TestCacheGetOrCompute(t *testing.T) {
	c := New[string, int](4)

	calls := 0
	compute := func() (int, error) {
		calls++
		return 42, nil
	}
	for range 3 {
		v, err := c.GetOrCompute("k", compute)
		if err != nil || v != 42 {
			t.Fatalf("GetOrCompute() = (%d, %v), want (42, nil)", v, err)
		}
	}
	if calls != 1 {
		t.Errorf("compute called %d times, want 1", calls)
	}
	if hits, misses := c.Stats(); hits != 2 || misses != 1 {
		t.Errorf("Stats() = (%d, %d), want (2, 1)", hits, misses)
	}
}

func TestCacheErrorsNotCached(t *testing.T) {
	c := New[string, int](4)
	errBoom := errors.New("boom")

	if _, err := c.GetOrCompute("k", func() (int, error) { return 0, errBoom }); !errors.Is(err, errBoom) {
		t.Fatalf("GetOrCompute() error = %v, want boom", err)
	}
	if c.Len() != 0 {
		t.Errorf("Len() = %d after failed compute, want 0", c.Len())
	}
	if _, ok := c.Get("k"); ok {
		t.Error("failed computation was cached")
	}
}

func TestCacheEvictsLeastRecentlyUsed(t *testing.T) {
	c := New[int, int](2)
	value := func(v int) func() (int, error) {
		return func() (int, error) { return v, nil }
	}

	_, _ = c.GetOrCompute(1, value(1))
	_, _ = c.GetOrCompute(2, value(2))
	_, _ = c.Get(1) // 2 is now the oldest
	_, _ = c.GetOrCompute(3, value(3))

	if c.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", c.Len())
	}
	if _, ok := c.Get(2); ok {
		t.Error("least recently used entry survived eviction")
	}
	if _, ok := c.Get(1); !ok {
		t.Error("recently used entry was evicted")
	}
}

func TestCacheConcurrentSingleCompute(t *testing.T) {
	c := New[string, int](0)
	var calls atomic.Int32
	var wg sync.WaitGroup
	for range 32 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = c.GetOrCompute("shared", func() (int, error) {
				calls.Add(1)
				return 1, nil
			})
		}()
	}
	wg.Wait()
	if got := calls.Load(); got != 1 {
		t.Errorf("compute ran %d times, want 1", got)
	}
}

func TestCacheClear(t *testing.T) {
	c := New[string, int](0)
	_, _ = c.GetOrCompute("a", func() (int, error) { return 1, nil })
	c.Clear()
	if c.Len() != 0 {
		t.Errorf("Len() = %d after Clear, want 0", c.Len())
	}
	if hits, misses := c.Stats(); hits != 0 || misses != 0 {
		t.Errorf("Stats() = (%d, %d) after Clear, want zeros", hits, misses)
	}
}
