// README: Circuit breaker unit tests.
package location

import (
	"testing"
	"time"
)

func TestBreakerOpensAtThreshold(t *testing.T) {
	var b breaker
	now := time.Now()

	if opened := b.fail(now); opened {
		t.Fatalf("breaker opened after 1 failure")
	}
	if opened := b.fail(now); opened {
		t.Fatalf("breaker opened after 2 failures")
	}
	if opened := b.fail(now); !opened {
		t.Fatalf("breaker did not open after 3 failures")
	}
	if !b.open {
		t.Fatalf("breaker should be open")
	}

	// Further failures while open must not re-report the transition.
	if opened := b.fail(now); opened {
		t.Fatalf("breaker reported opening twice")
	}
}

func TestBreakerBackoffGrowsWithFailures(t *testing.T) {
	cases := []struct {
		failures int
		want     time.Duration
	}{
		{1, time.Minute},
		{3, time.Minute},
		{4, 5 * time.Minute},
		{5, 5 * time.Minute},
		{6, 15 * time.Minute},
		{10, 15 * time.Minute},
	}
	for _, tc := range cases {
		b := breaker{failures: tc.failures}
		if got := b.backoff(); got != tc.want {
			t.Errorf("backoff with %d failures = %v, want %v", tc.failures, got, tc.want)
		}
	}
}

func TestBreakerAllow(t *testing.T) {
	now := time.Now()
	var b breaker
	if !b.allow(now) {
		t.Fatalf("closed breaker must allow")
	}

	b.fail(now)
	b.fail(now)
	b.fail(now)
	if b.allow(now.Add(30 * time.Second)) {
		t.Fatalf("open breaker allowed inside the backoff window")
	}
	if !b.allow(now.Add(61 * time.Second)) {
		t.Fatalf("open breaker did not allow a probe after the backoff window")
	}
}

func TestBreakerProbeSuccessDecrements(t *testing.T) {
	now := time.Now()
	var b breaker
	for i := 0; i < 4; i++ {
		b.fail(now)
	}

	b.succeed(true)
	if b.open {
		t.Fatalf("probe success should close the breaker")
	}
	if b.failures != 3 {
		t.Fatalf("probe success should decrement failures to 3, got %d", b.failures)
	}

	// A second success while closed fully resets.
	b.succeed(false)
	if b.failures != 0 || b.open {
		t.Fatalf("direct success should fully reset, got failures=%d open=%v", b.failures, b.open)
	}
}

func TestBreakerDirectSuccessResets(t *testing.T) {
	now := time.Now()
	var b breaker
	for i := 0; i < 5; i++ {
		b.fail(now)
	}

	b.succeed(false)
	if b.failures != 0 || b.open {
		t.Fatalf("direct success while open should fully reset, got failures=%d open=%v", b.failures, b.open)
	}
}
