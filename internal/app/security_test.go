package app

import (
	"testing"
	"time"
)

func TestIPRateLimiterAllowsUpToMax(t *testing.T) {
	l := NewIPRateLimiter(3, time.Minute)
	for i := 0; i < 3; i++ {
		if !l.Allow("1.2.3.4|POST|/api/v1/auth/login") {
			t.Fatalf("request %d should be allowed", i+1)
		}
	}
	if l.Allow("1.2.3.4|POST|/api/v1/auth/login") {
		t.Fatalf("request over limit should be rejected")
	}
}

func TestIPRateLimiterKeysAreIndependent(t *testing.T) {
	l := NewIPRateLimiter(1, time.Minute)
	if !l.Allow("a") {
		t.Fatalf("first key should be allowed")
	}
	if !l.Allow("b") {
		t.Fatalf("second key should not share the first key's bucket")
	}
	if l.Allow("a") {
		t.Fatalf("first key should now be over limit")
	}
}

func TestIPRateLimiterWindowReset(t *testing.T) {
	l := NewIPRateLimiter(1, 10*time.Millisecond)
	if !l.Allow("k") {
		t.Fatalf("first request should pass")
	}
	if l.Allow("k") {
		t.Fatalf("second request inside window should fail")
	}
	time.Sleep(15 * time.Millisecond)
	if !l.Allow("k") {
		t.Fatalf("request after window reset should pass")
	}
}
