package stats

import (
	"testing"
	"time"
)

func TestFormatUptime(t *testing.T) {
	cases := []struct {
		d    time.Duration
		want string
	}{
		{0, "00:00:00"},
		{-time.Second, "00:00:00"},
		{59 * time.Second, "00:00:59"},
		{61 * time.Second, "00:01:01"},
		{3661 * time.Second, "01:01:01"},
		{100 * time.Hour, "100:00:00"},
	}
	for _, tc := range cases {
		if got := FormatUptime(tc.d); got != tc.want {
			t.Fatalf("FormatUptime(%s) = %q, want %q", tc.d, got, tc.want)
		}
	}
}

func TestSnapshotFields(t *testing.T) {
	start := time.UnixMilli(1_700_000_000_000)
	a := NewAggregator(start)

	now := start.Add(90 * time.Second)
	snap := a.Snapshot(now, 42, 3)

	if snap.TotalPixels != 42 {
		t.Fatalf("expected 42 total pixels, got %d", snap.TotalPixels)
	}
	if snap.UserCount != 3 {
		t.Fatalf("expected 3 users, got %d", snap.UserCount)
	}
	if snap.StartTime != start.UnixMilli() {
		t.Fatalf("unexpected start time %d", snap.StartTime)
	}
	if snap.ServerTime != now.UnixMilli() {
		t.Fatalf("unexpected server time %d", snap.ServerTime)
	}
	if snap.Uptime != "00:01:30" {
		t.Fatalf("unexpected uptime %q", snap.Uptime)
	}
}

func TestRestartRewindsAnchor(t *testing.T) {
	a := NewAggregator(time.Unix(2000, 0))
	earlier := time.Unix(1000, 0)

	a.Restart(earlier)
	if !a.Start().Equal(earlier) {
		t.Fatalf("expected anchor rewound to %s, got %s", earlier, a.Start())
	}

	a.Restart(time.Time{})
	if !a.Start().Equal(earlier) {
		t.Fatalf("zero restart must be ignored, got %s", a.Start())
	}
}
