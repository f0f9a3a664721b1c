package cache

import (
	"errors"
	"reflect"
	"sync"
	"testing"
)

func TestLRU_GetAdd(t *testing.T) {
	c := New[string, int](3)
	c.Add("a", 1)
	c.Add("b", 2)

	if v, ok := c.Get("a"); !ok || v != 1 {
		t.Errorf("Get(a) = %d, %v; want 1, true", v, ok)
	}
	if _, ok := c.Get("z"); ok {
		t.Error("Get(z) should miss")
	}

	c.Add("a", 10)
	if v, _ := c.Get("a"); v != 10 {
		t.Errorf("Get(a) after update = %d; want 10", v)
	}
	if c.Len() != 2 {
		t.Errorf("Len() = %d; want 2", c.Len())
	}
}

func TestLRU_EvictsLeastRecentlyUsed(t *testing.T) {
	c := New[string, int](2)
	c.Add("a", 1)
	c.Add("b", 2)
	c.Get("a")
	c.Add("c", 3)

	if _, ok := c.Get("b"); ok {
		t.Error("b should have been evicted")
	}
	if got, want := c.Keys(), []string{"c", "a"}; !reflect.DeepEqual(got, want) {
		t.Errorf("Keys() = %v; want %v", got, want)
	}
	if s := c.Stats(); s.Evictions != 1 {
		t.Errorf("Evictions = %d; want 1", s.Evictions)
	}
}

func TestLRU_RemovePurge(t *testing.T) {
	c := New[string, int](3)
	c.Add("a", 1)
	c.Add("b", 2)

	if !c.Remove("a") {
		t.Error("Remove(a) = false; want true")
	}
	if c.Remove("a") {
		t.Error("second Remove(a) = true; want false")
	}
	c.Purge()
	if c.Len() != 0 {
		t.Errorf("Len() after Purge = %d; want 0", c.Len())
	}
}

func TestLRU_GetOrLoad(t *testing.T) {
	c := New[string, int](2)
	calls := 0
	load := func() (int, error) {
		calls++
		return 42, nil
	}

	for i := 0; i < 3; i++ {
		v, err := c.GetOrLoad("k", load)
		if err != nil || v != 42 {
			t.Fatalf("GetOrLoad() = %d, %v; want 42, nil", v, err)
		}
	}
	if calls != 1 {
		t.Errorf("load called %d times; want 1", calls)
	}

	boom := errors.New("boom")
	if _, err := c.GetOrLoad("bad", func() (int, error) { return 0, boom }); !errors.Is(err, boom) {
		t.Errorf("GetOrLoad() error = %v; want boom", err)
	}
	if _, ok := c.Get("bad"); ok {
		t.Error("failed loads must not be cached")
	}
}

func TestLRU_Stats(t *testing.T) {
	c := New[string, int](2)
	c.Add("a", 1)
	c.Get("a")
	c.Get("a")
	c.Get("x")

	s := c.Stats()
	if s.Hits != 2 || s.Misses != 1 || s.Size != 1 || s.Capacity != 2 {
		t.Errorf("Stats() = %+v", s)
	}
	if s.HitRate < 0.66 || s.HitRate > 0.67 {
		t.Errorf("HitRate = %f; want ~0.667", s.HitRate)
	}
}

func TestLRU_DefaultCapacity(t *testing.T) {
	if got := New[int, int](0).Stats().Capacity; got != DefaultCapacity {
		t.Errorf("Capacity = %d; want %d", got, DefaultCapacity)
	}
}

func TestLRU_Concurrent(t *testing.T) {
	c := New[int, int](50)
	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			c.Add(i%60, i)
		}(i)
		go func(i int) {
			defer wg.Done()
			c.Get(i % 60)
		}(i)
	}
	wg.Wait()
	if c.Len() > 50 {
		t.Errorf("Len() = %d; exceeds capacity", c.Len())
	}
}

func BenchmarkLRU_Get(b *testing.B) {
	c := New[int, int](1000)
	for i := 0; i < 1000; i++ {
		c.Add(i, i)
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		c.Get(i % 1000)
	}
}
