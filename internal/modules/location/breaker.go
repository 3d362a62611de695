// README: Circuit breaker guarding the position provider against repeated failures.
package location

import "time"

// breakerThreshold is the consecutive-failure count that opens the breaker.
const breakerThreshold = 3

// breaker suppresses poll attempts after repeated fix failures. It is not
// goroutine-safe; the owning service calls it under its own lock.
type breaker struct {
	failures    int
	open        bool
	lastFailure time.Time
}

// fail records a failed fix. It returns true on the closed→open transition,
// which is the only moment the user is warned.
func (b *breaker) fail(now time.Time) (opened bool) {
	b.failures++
	b.lastFailure = now
	if !b.open && b.failures >= breakerThreshold {
		b.open = true
		return true
	}
	return false
}

// backoff grows with accumulated failures so a flapping provider is probed
// less and less often.
func (b *breaker) backoff() time.Duration {
	switch {
	case b.failures > 5:
		return 15 * time.Minute
	case b.failures > breakerThreshold:
		return 5 * time.Minute
	default:
		return time.Minute
	}
}

// allow reports whether a poll may contact the provider. While open it only
// permits a probe once the backoff window has elapsed.
func (b *breaker) allow(now time.Time) bool {
	if !b.open {
		return true
	}
	return now.Sub(b.lastFailure) >= b.backoff()
}

// succeed records a successful fix. A probe success (a scheduled poll let
// through while open) only decrements the failure count, so one good fix
// after a long outage does not immediately re-arm full-frequency polling.
// Any direct success fully resets the breaker.
func (b *breaker) succeed(probe bool) {
	if probe && b.open {
		b.open = false
		if b.failures > 0 {
			b.failures--
		}
		return
	}
	b.open = false
	b.failures = 0
}
