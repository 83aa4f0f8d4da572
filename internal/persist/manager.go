package persist

import (
	"context"
	"errors"
	"log"
	"time"

	"openplace/server/internal/observability"
	"openplace/server/logging"
	persistlog "openplace/server/logging/persistence"
)

// Source supplies a consistent snapshot of the live canvas. The hub
// implements it by copying state under its lock and letting the manager
// serialize off the hot path.
type Source interface {
	PersistedState() State
}

// Manager drives the periodic save loop and the one-shot startup load.
// Save failures are logged and skipped; the next tick proceeds
// independently. Nothing here is ever fatal to the process.
type Manager struct {
	store     Store
	source    Source
	interval  time.Duration
	logger    *log.Logger
	publisher logging.Publisher
}

// NewManager wires a store to a state source. A nil logger falls back to
// the stdlib default; a nil publisher disables event emission.
func NewManager(store Store, source Source, interval time.Duration, logger *log.Logger, publisher logging.Publisher) *Manager {
	if logger == nil {
		logger = log.Default()
	}
	if publisher == nil {
		publisher = logging.NopPublisher()
	}
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &Manager{
		store:     store,
		source:    source,
		interval:  interval,
		logger:    logger,
		publisher: publisher,
	}
}

// Load fetches the persisted snapshot. It is called exactly once, before
// the server accepts connections. Any failure degrades to (zero State,
// false): missing files, parse errors, and schema mismatches all mean
// "start empty".
func (m *Manager) Load() (State, bool) {
	state, err := m.store.Load()
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			m.logger.Printf("no persisted canvas found, starting empty")
		} else {
			m.logger.Printf("failed to load persisted canvas, starting empty: %v", err)
			persistlog.SnapshotLoadFailed(context.Background(), m.publisher, persistlog.SnapshotFailedPayload{Error: err.Error()})
		}
		return State{}, false
	}
	m.logger.Printf("canvas restored from snapshot (pixels=%d, history=%d)", state.TotalPixels, len(state.PixelHistory))
	persistlog.SnapshotLoaded(context.Background(), m.publisher, persistlog.SnapshotLoadedPayload{
		TotalPixels: state.TotalPixels,
		HistoryTail: len(state.PixelHistory),
		SavedAt:     state.SavedAt,
	})
	return state, true
}

// SaveNow takes a snapshot from the source and writes it through the
// store. Used by the periodic loop and once more at graceful shutdown.
func (m *Manager) SaveNow() error {
	state := m.source.PersistedState()
	if err := m.store.Save(state); err != nil {
		m.logger.Printf("failed to save canvas snapshot: %v", err)
		observability.RecordSnapshotSave(observability.SaveFailed)
		persistlog.SnapshotSaveFailed(context.Background(), m.publisher, persistlog.SnapshotFailedPayload{Error: err.Error()})
		return err
	}
	observability.RecordSnapshotSave(observability.SaveOK)
	persistlog.SnapshotSaved(context.Background(), m.publisher, persistlog.SnapshotSavedPayload{
		TotalPixels: state.TotalPixels,
		HistoryTail: len(state.PixelHistory),
		SavedAt:     state.SavedAt,
	})
	return nil
}

// Run drives the fixed-interval save loop until the stop channel closes.
// A failed save never stops the ticker.
func (m *Manager) Run(stop <-chan struct{}) {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			m.SaveNow()
		}
	}
}
