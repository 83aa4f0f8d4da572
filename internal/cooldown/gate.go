package cooldown

import (
	"fmt"
	"time"
)

// Gate tracks, per client identity, the timestamp of the last accepted
// write and decides whether a new attempt may proceed. Check and Commit
// are split on purpose: a write that passes the cooldown check but fails a
// later validation step (bounds, color) must not burn the client's
// cooldown, so the hub only commits after the full chain succeeds.
//
// The gate performs no locking of its own; the hub serializes all access.
type Gate struct {
	period time.Duration
	last   map[string]time.Time
}

// NewGate constructs a gate enforcing the given period between accepted
// writes. The period is identical for every identity.
func NewGate(period time.Duration) *Gate {
	if period < 0 {
		period = 0
	}
	return &Gate{
		period: period,
		last:   make(map[string]time.Time),
	}
}

// Period reports the configured cooldown window.
func (g *Gate) Period() time.Duration { return g.period }

// Check reports whether an identity may write at the given instant. When
// the identity is still cooling down it returns the remaining wait and
// false. Check never mutates the gate.
func (g *Gate) Check(identity string, now time.Time) (time.Duration, bool) {
	last, ok := g.last[identity]
	if !ok {
		return 0, true
	}
	elapsed := now.Sub(last)
	if elapsed >= g.period {
		return 0, true
	}
	return g.period - elapsed, false
}

// Commit records an accepted write for the identity.
func (g *Gate) Commit(identity string, now time.Time) {
	g.last[identity] = now
}

// Forget removes the identity's entry. Called on disconnect so stale
// entries never outlive the session; reconnecting under a fresh identity
// legitimately starts with a clean cooldown.
func (g *Gate) Forget(identity string) {
	delete(g.last, identity)
}

// Len reports the number of tracked identities.
func (g *Gate) Len() int { return len(g.last) }

// Error is the rejection returned when an identity writes inside its
// cooldown window. Remaining carries the precise wait; the client-facing
// message rounds up to whole seconds to avoid countdown flicker.
type Error struct {
	Remaining time.Duration
}

func (e *Error) Error() string {
	return fmt.Sprintf("wait %d seconds before placing another pixel", RemainingSeconds(e.Remaining))
}

// RemainingSeconds rounds a remaining wait up to whole seconds.
func RemainingSeconds(remaining time.Duration) int {
	if remaining <= 0 {
		return 0
	}
	return int((remaining + time.Second - 1) / time.Second)
}
