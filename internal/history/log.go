package history

// Event is an immutable record of one accepted pixel write. JSON field
// names match the wire protocol so the same value serves broadcasts,
// recent-activity queries, and the persisted snapshot tail.
type Event struct {
	X         int    `json:"x"`
	Y         int    `json:"y"`
	Color     string `json:"color"`
	OldColor  string `json:"oldColor"`
	UserID    string `json:"userId"`
	Timestamp int64  `json:"timestamp"`
}

const (
	// DefaultHighWater is the log length that triggers compaction.
	DefaultHighWater = 5000
	// DefaultLowWater is the length the log is cut back to.
	DefaultLowWater = 2000
)

// Log is a bounded, append-only ordered record of applied pixel changes.
// Compaction is periodic rather than per-append: the hub's trim tick calls
// Trim, which only acts once the log has grown past the high watermark and
// then cuts it down to the low watermark, retaining the most recent
// entries. The log performs no locking; the hub serializes access.
type Log struct {
	events    []Event
	highWater int
	lowWater  int
}

// TrimResult reports the outcome of one compaction pass.
type TrimResult struct {
	Evicted  int
	Retained int
}

// NewLog constructs a log with the given watermarks. Non-positive or
// inverted values fall back to the defaults.
func NewLog(highWater, lowWater int) *Log {
	if highWater <= 0 {
		highWater = DefaultHighWater
	}
	if lowWater <= 0 || lowWater > highWater {
		lowWater = DefaultLowWater
		if lowWater > highWater {
			lowWater = highWater
		}
	}
	return &Log{
		events:    make([]Event, 0),
		highWater: highWater,
		lowWater:  lowWater,
	}
}

// Append records an applied pixel change. Ordering is append order.
func (l *Log) Append(event Event) {
	l.events = append(l.events, event)
}

// Len reports the current number of retained events.
func (l *Log) Len() int { return len(l.events) }

// Recent returns the last n events in original order, most-recent-last.
// Callers receive a copy.
func (l *Log) Recent(n int) []Event {
	if n <= 0 || len(l.events) == 0 {
		return nil
	}
	if n > len(l.events) {
		n = len(l.events)
	}
	recent := make([]Event, n)
	copy(recent, l.events[len(l.events)-n:])
	return recent
}

// Tail returns the persistence view of the log: the most recent events
// capped at capacity, in original order.
func (l *Log) Tail(capacity int) []Event {
	return l.Recent(capacity)
}

// Trim applies the watermark policy. Below the high watermark it is a
// no-op; above it the log is cut to the low watermark's most recent
// entries.
func (l *Log) Trim() TrimResult {
	if len(l.events) <= l.highWater {
		return TrimResult{Retained: len(l.events)}
	}
	evicted := len(l.events) - l.lowWater
	retained := make([]Event, l.lowWater)
	copy(retained, l.events[evicted:])
	l.events = retained
	return TrimResult{Evicted: evicted, Retained: l.lowWater}
}

// Restore replaces the log contents with a persisted tail.
func (l *Log) Restore(events []Event) {
	l.events = make([]Event, len(events))
	copy(l.events, events)
}
