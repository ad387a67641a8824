package cache

import (
	"testing"
	"time"
)

type testClock struct{ t time.Time }

func (c *testClock) now() time.Time { return c.t }

func newTestCache(size int, ttl time.Duration) (*LRUCache[[]int], *testClock) {
	clk := &testClock{t: time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)}
	return NewLRUCache[[]int](size, ttl).WithClock(clk.now), clk
}

func TestLRUCache_GetSet(t *testing.T) {
	c, _ := newTestCache(10, time.Minute)

	if _, ok := c.Get("u1|budgets"); ok {
		t.Fatal("empty cache returned a value")
	}
	c.Set("u1|budgets", []int{1, 2})
	got, ok := c.Get("u1|budgets")
	if !ok || len(got) != 2 {
		t.Fatalf("Get() = %v, %v", got, ok)
	}

	hits, misses := c.Stats()
	if hits != 1 || misses != 1 {
		t.Errorf("Stats() = %d hits, %d misses; want 1, 1", hits, misses)
	}
}

func TestLRUCache_TTL(t *testing.T) {
	c, clk := newTestCache(10, 30*time.Second)
	c.Set("k", []int{1})

	clk.t = clk.t.Add(29 * time.Second)
	if _, ok := c.Get("k"); !ok {
		t.Error("entry expired too early")
	}
	clk.t = clk.t.Add(2 * time.Second)
	if _, ok := c.Get("k"); ok {
		t.Error("entry should have expired")
	}
	if c.Size() != 0 {
		t.Errorf("expired entry not removed, size = %d", c.Size())
	}
}

func TestLRUCache_ZeroTTLDisables(t *testing.T) {
	c, _ := newTestCache(10, 0)
	c.Set("k", []int{1})
	if _, ok := c.Get("k"); ok {
		t.Error("zero TTL cache should not store values")
	}
}

func TestLRUCache_Eviction(t *testing.T) {
	c, _ := newTestCache(2, time.Minute)
	c.Set("a", nil)
	c.Set("b", nil)
	c.Get("a") // a is now most recent
	c.Set("c", nil)

	if _, ok := c.Get("b"); ok {
		t.Error("least recently used entry should be evicted")
	}
	if _, ok := c.Get("a"); !ok {
		t.Error("recently used entry should survive")
	}
}

func TestLRUCache_DeletePrefix(t *testing.T) {
	c, _ := newTestCache(10, time.Minute)
	c.Set("u1|budgets", nil)
	c.Set("u1|savings", nil)
	c.Set("u10|budgets", nil)
	c.Set("u2|budgets", nil)

	if n := c.DeletePrefix("u1|"); n != 2 {
		t.Errorf("DeletePrefix() = %d, want 2", n)
	}
	if _, ok := c.Get("u10|budgets"); !ok {
		t.Error("prefix delete must not cross user boundaries")
	}
	if c.Size() != 2 {
		t.Errorf("Size() = %d, want 2", c.Size())
	}
}

func TestManager_Sweep(t *testing.T) {
	c, clk := newTestCache(10, time.Second)
	c.Set("a", nil)
	c.Set("b", nil)

	m := NewManager()
	m.Register(c)
	if n := m.Sweep(); n != 0 {
		t.Errorf("Sweep() before expiry = %d", n)
	}
	clk.t = clk.t.Add(2 * time.Second)
	if n := m.Sweep(); n != 2 {
		t.Errorf("Sweep() = %d, want 2", n)
	}

	m.StartCleanup(time.Hour)
	m.Stop()
	m.Stop()
}
