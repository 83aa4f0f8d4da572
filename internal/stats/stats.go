package stats

import (
	"fmt"
	"time"
)

// Snapshot is a derived, point-in-time read of aggregate state. It is
// recomputed on demand and never stored independently.
type Snapshot struct {
	TotalPixels int64  `json:"totalPixels"`
	UserCount   int    `json:"userCount"`
	StartTime   int64  `json:"startTime"`
	Uptime      string `json:"uptime"`
	ServerTime  int64  `json:"serverTime"`
}

// Aggregator derives live counters from the hub's state. Its only owned
// field is the process start time, which persistence may rewind so uptime
// survives restarts the way the total pixel counter does.
type Aggregator struct {
	start time.Time
}

// NewAggregator constructs an aggregator anchored at the given start time.
func NewAggregator(start time.Time) *Aggregator {
	return &Aggregator{start: start}
}

// Start reports the anchor time used for uptime computation.
func (a *Aggregator) Start() time.Time { return a.start }

// Restart rewinds the anchor, used when a persisted snapshot carries the
// original process start.
func (a *Aggregator) Restart(start time.Time) {
	if start.IsZero() {
		return
	}
	a.start = start
}

// Snapshot computes the stats view. totalPixels is the hub's running
// write counter: it counts every accepted write including recolors of an
// already painted cell, and is not re-derived from the trimmed history
// log, which would undercount.
func (a *Aggregator) Snapshot(now time.Time, totalPixels int64, connected int) Snapshot {
	return Snapshot{
		TotalPixels: totalPixels,
		UserCount:   connected,
		StartTime:   a.start.UnixMilli(),
		Uptime:      FormatUptime(now.Sub(a.start)),
		ServerTime:  now.UnixMilli(),
	}
}

// FormatUptime renders a duration as zero-padded HH:MM:SS for display.
func FormatUptime(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	total := int64(d / time.Second)
	hours := total / 3600
	minutes := (total % 3600) / 60
	seconds := total % 60
	return fmt.Sprintf("%02d:%02d:%02d", hours, minutes, seconds)
}
