package server

import (
	"testing"
	"time"
)

func TestRateLimiterAllowsUpToLimit(t *testing.T) {
	rl := newRateLimiter(3, time.Minute)

	for i := 0; i < 3; i++ {
		if !rl.Allow("10.0.0.1") {
			t.Fatalf("request %d should be allowed", i+1)
		}
	}
	if rl.Allow("10.0.0.1") {
		t.Fatal("request over the limit should be rejected")
	}
}

func TestRateLimiterKeysAreIndependent(t *testing.T) {
	rl := newRateLimiter(1, time.Minute)

	if !rl.Allow("10.0.0.1") {
		t.Fatal("first key should be allowed")
	}
	if !rl.Allow("10.0.0.2") {
		t.Fatal("second key should not share the first key's window")
	}
}

func TestRateLimiterRejectsEmptyKey(t *testing.T) {
	rl := newRateLimiter(10, time.Minute)

	if rl.Allow("") {
		t.Fatal("empty key should be rejected")
	}
}

func TestRateLimiterWindowResets(t *testing.T) {
	rl := newRateLimiter(1, time.Nanosecond)

	if !rl.Allow("10.0.0.1") {
		t.Fatal("first request should be allowed")
	}
	time.Sleep(5 * time.Millisecond)
	if !rl.Allow("10.0.0.1") {
		t.Fatal("request in a fresh window should be allowed")
	}
}
