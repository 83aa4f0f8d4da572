package canvas

import (
	"context"

	"openplace/server/logging"
)

const (
	// EventPixelPlaced is emitted once per accepted write.
	EventPixelPlaced logging.EventType = "canvas.pixel_placed"
	// EventPixelRejected is emitted when a write fails validation.
	EventPixelRejected logging.EventType = "canvas.pixel_rejected"
	// EventHistoryTrimmed is emitted when the periodic compaction evicts
	// entries.
	EventHistoryTrimmed logging.EventType = "canvas.history_trimmed"
)

// PixelPlacedPayload captures one applied write.
type PixelPlacedPayload struct {
	X        int    `json:"x"`
	Y        int    `json:"y"`
	Color    string `json:"color"`
	OldColor string `json:"oldColor,omitempty"`
}

// PixelRejectedPayload captures the failing check.
type PixelRejectedPayload struct {
	X      int    `json:"x"`
	Y      int    `json:"y"`
	Color  string `json:"color,omitempty"`
	Reason string `json:"reason"`
}

// HistoryTrimmedPayload captures one compaction pass.
type HistoryTrimmedPayload struct {
	Evicted  int `json:"evicted"`
	Retained int `json:"retained"`
}

// PixelPlaced publishes an accepted-write event.
func PixelPlaced(ctx context.Context, pub logging.Publisher, actor logging.EntityRef, payload PixelPlacedPayload) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventPixelPlaced,
		Actor:    actor,
		Severity: logging.SeverityInfo,
		Category: logging.CategoryCanvas,
		Payload:  payload,
	})
}

// PixelRejected publishes a rejected-write event.
func PixelRejected(ctx context.Context, pub logging.Publisher, actor logging.EntityRef, payload PixelRejectedPayload) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventPixelRejected,
		Actor:    actor,
		Severity: logging.SeverityDebug,
		Category: logging.CategoryCanvas,
		Payload:  payload,
	})
}

// HistoryTrimmed publishes a compaction event.
func HistoryTrimmed(ctx context.Context, pub logging.Publisher, payload HistoryTrimmedPayload) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventHistoryTrimmed,
		Actor:    logging.EntityRef{Kind: logging.EntityKindCanvas},
		Severity: logging.SeverityInfo,
		Category: logging.CategoryCanvas,
		Payload:  payload,
	})
}
