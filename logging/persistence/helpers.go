package persistence

import (
	"context"

	"openplace/server/logging"
)

const (
	// EventSnapshotSaved is emitted after a successful save.
	EventSnapshotSaved logging.EventType = "persistence.snapshot_saved"
	// EventSnapshotSaveFailed is emitted when a save cycle is skipped.
	EventSnapshotSaveFailed logging.EventType = "persistence.snapshot_save_failed"
	// EventSnapshotLoaded is emitted when startup rehydrates state.
	EventSnapshotLoaded logging.EventType = "persistence.snapshot_loaded"
	// EventSnapshotLoadFailed is emitted when startup falls back to an
	// empty canvas.
	EventSnapshotLoadFailed logging.EventType = "persistence.snapshot_load_failed"
)

// SnapshotSavedPayload captures one completed save.
type SnapshotSavedPayload struct {
	TotalPixels int64 `json:"totalPixels"`
	HistoryTail int   `json:"historyTail"`
	SavedAt     int64 `json:"savedAt"`
}

// SnapshotFailedPayload carries the error text for a failed load or save.
type SnapshotFailedPayload struct {
	Error string `json:"error"`
}

// SnapshotLoadedPayload captures what a restart recovered.
type SnapshotLoadedPayload struct {
	TotalPixels int64 `json:"totalPixels"`
	HistoryTail int   `json:"historyTail"`
	SavedAt     int64 `json:"savedAt"`
}

func systemEvent(eventType logging.EventType, severity logging.Severity, payload any) logging.Event {
	return logging.Event{
		Type:     eventType,
		Actor:    logging.EntityRef{Kind: logging.EntityKindSystem},
		Severity: severity,
		Category: logging.CategoryPersistence,
		Payload:  payload,
	}
}

// SnapshotSaved publishes a successful save event.
func SnapshotSaved(ctx context.Context, pub logging.Publisher, payload SnapshotSavedPayload) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, systemEvent(EventSnapshotSaved, logging.SeverityInfo, payload))
}

// SnapshotSaveFailed publishes a skipped save cycle.
func SnapshotSaveFailed(ctx context.Context, pub logging.Publisher, payload SnapshotFailedPayload) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, systemEvent(EventSnapshotSaveFailed, logging.SeverityError, payload))
}

// SnapshotLoaded publishes a successful startup rehydration.
func SnapshotLoaded(ctx context.Context, pub logging.Publisher, payload SnapshotLoadedPayload) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, systemEvent(EventSnapshotLoaded, logging.SeverityInfo, payload))
}

// SnapshotLoadFailed publishes a fallback-to-empty start.
func SnapshotLoadFailed(ctx context.Context, pub logging.Publisher, payload SnapshotFailedPayload) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, systemEvent(EventSnapshotLoadFailed, logging.SeverityWarn, payload))
}
