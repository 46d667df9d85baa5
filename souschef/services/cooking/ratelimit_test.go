package cooking

import (
	"testing"
	"time"
)

func TestLimiterHardBound(t *testing.T) {
	l := NewLimiter(3, 10*time.Second)

	allowed, denied := 0, 0
	for i := 0; i < 4; i++ {
		if l.Allow("alice") {
			allowed++
		} else {
			denied++
		}
	}
	if allowed != 3 || denied != 1 {
		t.Errorf("expected 3 allowed / 1 denied, got %d / %d", allowed, denied)
	}
}

func TestLimiterKeysIndependent(t *testing.T) {
	l := NewLimiter(1, time.Minute)

	if !l.Allow("alice") {
		t.Errorf("first request for alice should pass")
	}
	if !l.Allow("bob") {
		t.Errorf("bob should not share alice's window")
	}
	if l.Allow("alice") {
		t.Errorf("second request for alice should be denied")
	}
}

func TestLimiterWindowExpiry(t *testing.T) {
	l := NewLimiter(2, time.Minute)
	now := time.Unix(1000, 0)
	l.now = func() time.Time { return now }

	if !l.Allow("alice") || !l.Allow("alice") {
		t.Fatalf("requests inside the budget should pass")
	}
	if l.Allow("alice") {
		t.Fatalf("third request inside the window should be denied")
	}

	now = now.Add(61 * time.Second)
	if !l.Allow("alice") {
		t.Errorf("request after the window slides should pass")
	}
}

func TestLimiterDeniedLeavesNoTrace(t *testing.T) {
	l := NewLimiter(1, time.Minute)
	now := time.Unix(1000, 0)
	l.now = func() time.Time { return now }

	l.Allow("alice")
	for i := 0; i < 5; i++ {
		l.Allow("alice") // all denied
	}
	if got := len(l.history["alice"]); got != 1 {
		t.Errorf("denied requests should not be recorded, window has %d entries", got)
	}
}
