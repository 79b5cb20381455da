package cache

import (
	"testing"
	"time"
)

func TestTTLCacheSetGet(t *testing.T) {
	c := NewTTLCache[string, int]()
	c.Set("a", 1, time.Minute)

	got, ok := c.Get("a")
	if !ok || got != 1 {
		t.Fatalf("get = (%d, %v), want (1, true)", got, ok)
	}
}

func TestTTLCacheExpiry(t *testing.T) {
	c := NewTTLCache[string, int]()
	c.Set("a", 1, time.Nanosecond)
	time.Sleep(5 * time.Millisecond)

	if _, ok := c.Get("a"); ok {
		t.Fatal("expired entry should miss")
	}
}

func TestTTLCacheDelete(t *testing.T) {
	c := NewTTLCache[string, int]()
	c.Set("a", 1, time.Minute)
	c.Delete("a")

	if _, ok := c.Get("a"); ok {
		t.Fatal("deleted entry should miss")
	}
}

func TestTTLCacheZeroTTLNeverExpires(t *testing.T) {
	c := NewTTLCache[string, int]()
	c.Set("a", 1, 0)

	if _, ok := c.Get("a"); !ok {
		t.Fatal("zero ttl entry should not expire")
	}
}

func TestNoopCacheAlwaysMisses(t *testing.T) {
	var c NoopCache[string, int]
	c.Set("a", 1, time.Minute)

	if _, ok := c.Get("a"); ok {
		t.Fatal("noop cache should always miss")
	}
}
