package cooldown

import (
	"testing"
	"time"
)

func TestGateAllowsFirstWrite(t *testing.T) {
	g := NewGate(5 * time.Second)
	now := time.Unix(1000, 0)

	remaining, ok := g.Check("client-1", now)
	if !ok {
		t.Fatalf("expected first write to pass, remaining %s", remaining)
	}
}

func TestGateBlocksInsideWindow(t *testing.T) {
	g := NewGate(5 * time.Second)
	start := time.Unix(1000, 0)
	g.Commit("client-1", start)

	remaining, ok := g.Check("client-1", start.Add(time.Second))
	if ok {
		t.Fatalf("expected rejection inside cooldown window")
	}
	if remaining != 4*time.Second {
		t.Fatalf("expected 4s remaining, got %s", remaining)
	}

	if _, ok := g.Check("client-1", start.Add(5*time.Second)); !ok {
		t.Fatalf("expected write exactly at window boundary to pass")
	}
}

func TestGateIsolatesIdentities(t *testing.T) {
	g := NewGate(5 * time.Second)
	now := time.Unix(1000, 0)
	g.Commit("client-1", now)

	if _, ok := g.Check("client-2", now); !ok {
		t.Fatalf("expected unrelated identity to pass")
	}
}

func TestCheckDoesNotConsume(t *testing.T) {
	g := NewGate(5 * time.Second)
	now := time.Unix(1000, 0)

	// Repeated checks without a commit must all pass: a write that fails a
	// later validation step never burns the cooldown.
	for i := 0; i < 3; i++ {
		if _, ok := g.Check("client-1", now); !ok {
			t.Fatalf("check %d unexpectedly consumed cooldown", i)
		}
	}
	if g.Len() != 0 {
		t.Fatalf("expected no tracked identities, got %d", g.Len())
	}
}

func TestForgetClearsIdentity(t *testing.T) {
	g := NewGate(5 * time.Second)
	now := time.Unix(1000, 0)
	g.Commit("client-1", now)
	g.Forget("client-1")

	if _, ok := g.Check("client-1", now); !ok {
		t.Fatalf("expected forgotten identity to pass immediately")
	}
	if g.Len() != 0 {
		t.Fatalf("expected empty gate, got %d entries", g.Len())
	}
}

func TestRemainingSeconds(t *testing.T) {
	cases := []struct {
		remaining time.Duration
		want      int
	}{
		{0, 0},
		{-time.Second, 0},
		{time.Millisecond, 1},
		{4 * time.Second, 4},
		{4*time.Second + time.Millisecond, 5},
	}
	for _, tc := range cases {
		if got := RemainingSeconds(tc.remaining); got != tc.want {
			t.Fatalf("RemainingSeconds(%s) = %d, want %d", tc.remaining, got, tc.want)
		}
	}
}

func TestErrorMessage(t *testing.T) {
	err := &Error{Remaining: 4 * time.Second}
	want := "wait 4 seconds before placing another pixel"
	if err.Error() != want {
		t.Fatalf("unexpected message %q", err.Error())
	}
}
