// Package server implements the authoritative state and fan-out core of
// the collaborative canvas. The Hub owns the grid, the per-client cooldown
// gate, the bounded pixel history, and the set of connected sessions; the
// transport layer in internal/net feeds it decoded client messages and
// relays its broadcasts.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"openplace/server/internal/cooldown"
	"openplace/server/internal/grid"
	"openplace/server/internal/history"
	"openplace/server/internal/observability"
	"openplace/server/internal/persist"
	"openplace/server/internal/session"
	"openplace/server/internal/stats"
	"openplace/server/logging"
	canvaslog "openplace/server/logging/canvas"
	"openplace/server/logging/lifecycle"
)

// Hub is the single authority over canvas state. All mutations flow
// through it under one mutex; reads copy state out under the lock and
// serialize outside it so JSON encoding never blocks writers.
type Hub struct {
	cfg HubConfig

	mu          sync.Mutex
	grid        *grid.Grid
	gate        *cooldown.Gate
	history     *history.Log
	aggregator  *stats.Aggregator
	totalPixels int64

	registry *session.Registry
	nextID   atomic.Uint64

	clock     logging.Clock
	logger    *log.Logger
	publisher logging.Publisher
}

// NewHub constructs a hub from the given config. A nil clock uses the
// wall clock, a nil logger the stdlib default, a nil publisher discards
// events.
func NewHub(cfg HubConfig, clock logging.Clock, logger *log.Logger, publisher logging.Publisher) *Hub {
	cfg = cfg.Normalized()
	if clock == nil {
		clock = logging.SystemClock{}
	}
	if logger == nil {
		logger = log.Default()
	}
	if publisher == nil {
		publisher = logging.NopPublisher()
	}
	return &Hub{
		cfg:        cfg,
		grid:       grid.New(cfg.Width, cfg.Height),
		gate:       cooldown.NewGate(cfg.Cooldown),
		history:    history.NewLog(cfg.HistoryHighWater, cfg.HistoryLowWater),
		aggregator: stats.NewAggregator(clock.Now()),
		registry:   session.NewRegistry(),
		clock:      clock,
		logger:     logger,
		publisher:  publisher,
	}
}

// Config reports the normalized hub configuration.
func (h *Hub) Config() HubConfig { return h.cfg }

// Connect registers a new client connection under a fresh identity. The
// new client receives the init message with the full canvas; everyone then
// gets refreshed stats and the new user count.
func (h *Hub) Connect(conn session.Conn) (*session.Session, error) {
	id := fmt.Sprintf("client-%d", h.nextID.Add(1))
	sess := session.New(id, conn, writeWait)

	// The canvas read, the init delivery, and the registration share one
	// critical section. Any write accepted afterwards broadcasts to a
	// session whose init already covers everything accepted before it.
	h.mu.Lock()
	init := initMessage{
		Ver:    ProtocolVersion,
		Type:   TypeInit,
		Canvas: h.grid.Rows(),
		Width:  h.cfg.Width,
		Height: h.cfg.Height,
	}
	payload, err := json.Marshal(init)
	if err != nil {
		h.mu.Unlock()
		return nil, fmt.Errorf("marshal init message: %w", err)
	}
	if err := sess.Write(payload); err != nil {
		h.mu.Unlock()
		sess.Close()
		return nil, fmt.Errorf("deliver init message: %w", err)
	}
	h.registry.Add(sess)
	h.mu.Unlock()

	observability.RecordSessionOpen()
	lifecycle.ClientConnected(context.Background(), h.publisher,
		logging.EntityRef{ID: id, Kind: logging.EntityKindClient},
		lifecycle.ClientConnectedPayload{ConnectedClients: h.registry.Len()})

	h.broadcastPresence()
	return sess, nil
}

// Disconnect removes a client session, releases its cooldown entry, and
// announces refreshed stats to the remaining clients. Safe to call more
// than once per identity.
func (h *Hub) Disconnect(id, reason string) {
	sess, ok := h.registry.Remove(id)
	if !ok {
		return
	}
	sess.Close()

	h.mu.Lock()
	h.gate.Forget(id)
	h.mu.Unlock()

	observability.RecordSessionClose()
	lifecycle.ClientDisconnected(context.Background(), h.publisher,
		logging.EntityRef{ID: id, Kind: logging.EntityKindClient},
		lifecycle.ClientDisconnectedPayload{Reason: reason, ConnectedClients: h.registry.Len()})

	h.broadcastPresence()
}

// PlacePixel validates and applies one pixel write for the given identity.
// Checks run in a fixed order: cooldown, then bounds, then color. A write
// rejected by bounds or color does not consume the client's cooldown.
// Accepted writes are broadcast to every connected client.
func (h *Hub) PlacePixel(identity string, x, y int, color string) (history.Event, error) {
	now := h.clock.Now()

	h.mu.Lock()
	if remaining, ok := h.gate.Check(identity, now); !ok {
		h.mu.Unlock()
		observability.RecordRejection(observability.ReasonCooldown)
		canvaslog.PixelRejected(context.Background(), h.publisher,
			logging.EntityRef{ID: identity, Kind: logging.EntityKindClient},
			canvaslog.PixelRejectedPayload{X: x, Y: y, Color: color, Reason: observability.ReasonCooldown})
		return history.Event{}, &cooldown.Error{Remaining: remaining}
	}
	if !h.grid.InBounds(x, y) {
		h.mu.Unlock()
		observability.RecordRejection(observability.ReasonBounds)
		canvaslog.PixelRejected(context.Background(), h.publisher,
			logging.EntityRef{ID: identity, Kind: logging.EntityKindClient},
			canvaslog.PixelRejectedPayload{X: x, Y: y, Color: color, Reason: observability.ReasonBounds})
		return history.Event{}, &grid.OutOfBoundsError{X: x, Y: y, Width: h.cfg.Width, Height: h.cfg.Height}
	}
	if !ValidColor(color) {
		h.mu.Unlock()
		observability.RecordRejection(observability.ReasonColor)
		canvaslog.PixelRejected(context.Background(), h.publisher,
			logging.EntityRef{ID: identity, Kind: logging.EntityKindClient},
			canvaslog.PixelRejectedPayload{X: x, Y: y, Color: color, Reason: observability.ReasonColor})
		return history.Event{}, ErrInvalidColor
	}

	previous, err := h.grid.Set(x, y, grid.Cell(color))
	if err != nil {
		h.mu.Unlock()
		return history.Event{}, err
	}
	h.gate.Commit(identity, now)
	h.totalPixels++
	total := h.totalPixels

	event := history.Event{
		X:         x,
		Y:         y,
		Color:     color,
		OldColor:  string(previous),
		UserID:    identity,
		Timestamp: now.UnixMilli(),
	}
	h.history.Append(event)
	h.mu.Unlock()

	observability.RecordPixelPlaced()
	canvaslog.PixelPlaced(context.Background(), h.publisher,
		logging.EntityRef{ID: identity, Kind: logging.EntityKindClient},
		canvaslog.PixelPlacedPayload{X: x, Y: y, Color: color, OldColor: string(previous)})

	update := updatePixelMessage{
		Ver:       ProtocolVersion,
		Type:      TypeUpdatePixel,
		X:         x,
		Y:         y,
		Color:     color,
		UserID:    identity,
		Timestamp: event.Timestamp,
	}
	if payload, err := json.Marshal(update); err != nil {
		h.logger.Printf("failed to marshal pixel update: %v", err)
	} else {
		h.broadcast(payload)
	}
	h.BroadcastStats()
	h.broadcastPixelCount(total)

	return event, nil
}

// Stats computes the current aggregate snapshot.
func (h *Hub) Stats() stats.Snapshot {
	now := h.clock.Now()
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.aggregator.Snapshot(now, h.totalPixels, h.registry.Len())
}

// RecentEvents returns up to n of the most recent accepted writes, oldest
// first. Non-positive n falls back to the configured default page size; n
// is capped at the history retention.
func (h *Hub) RecentEvents(n int) []history.Event {
	if n <= 0 {
		n = h.cfg.RecentLimit
	} else if n > h.cfg.HistoryHighWater {
		n = h.cfg.HistoryHighWater
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.history.Recent(n)
}

// CanvasSnapshot deep-copies the current canvas for read endpoints.
func (h *Hub) CanvasSnapshot() ([][]grid.Cell, int, int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.grid.Snapshot(), h.cfg.Width, h.cfg.Height
}

// PersistedState assembles the snapshot the persistence layer writes. The
// copy happens under the hub lock; serialization is the caller's job.
func (h *Hub) PersistedState() persist.State {
	now := h.clock.Now()
	h.mu.Lock()
	defer h.mu.Unlock()
	return persist.State{
		Version:      persist.CurrentVersion,
		Width:        h.cfg.Width,
		Height:       h.cfg.Height,
		Canvas:       h.grid.Snapshot(),
		TotalPixels:  h.totalPixels,
		StartTime:    h.aggregator.Start().UnixMilli(),
		PixelHistory: h.history.Tail(h.cfg.PersistedHistory),
		SavedAt:      now.UnixMilli(),
	}
}

// RestoreState rehydrates the hub from a persisted snapshot. Dimension
// mismatches leave the canvas empty; the counter, start time, and history
// tail are restored independently of the grid.
func (h *Hub) RestoreState(state persist.State) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if err := h.grid.Restore(state.Canvas); err != nil {
		h.logger.Printf("snapshot canvas does not fit configured grid, starting empty: %v", err)
		return
	}
	h.totalPixels = state.TotalPixels
	if state.StartTime > 0 {
		h.aggregator.Restart(time.UnixMilli(state.StartTime))
	}
	h.history.Restore(state.PixelHistory)
}

// TrimHistory runs one compaction pass over the pixel history.
func (h *Hub) TrimHistory() history.TrimResult {
	h.mu.Lock()
	result := h.history.Trim()
	h.mu.Unlock()

	if result.Evicted > 0 {
		h.logger.Printf("trimmed pixel history: evicted=%d retained=%d", result.Evicted, result.Retained)
		canvaslog.HistoryTrimmed(context.Background(), h.publisher, canvaslog.HistoryTrimmedPayload{
			Evicted:  result.Evicted,
			Retained: result.Retained,
		})
	}
	return result
}

// Run drives the periodic stats broadcast and history compaction until
// the stop channel closes.
func (h *Hub) Run(stop <-chan struct{}) {
	statsTicker := time.NewTicker(h.cfg.StatsInterval)
	defer statsTicker.Stop()
	trimTicker := time.NewTicker(h.cfg.TrimInterval)
	defer trimTicker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-statsTicker.C:
			h.BroadcastStats()
		case <-trimTicker.C:
			h.TrimHistory()
		}
	}
}

// BroadcastStats pushes a stats_update to every connected client.
func (h *Hub) BroadcastStats() {
	snapshot := h.Stats()
	payload, err := json.Marshal(statsUpdateMessage{
		Ver:      ProtocolVersion,
		Type:     TypeStatsUpdate,
		Snapshot: snapshot,
	})
	if err != nil {
		h.logger.Printf("failed to marshal stats update: %v", err)
		return
	}
	h.broadcast(payload)
}

// broadcastPresence refreshes stats for everyone after a membership
// change.
func (h *Hub) broadcastPresence() {
	h.BroadcastStats()
	h.broadcastUserCount()
}

func (h *Hub) broadcastUserCount() {
	payload, err := json.Marshal(countMessage{
		Ver:   ProtocolVersion,
		Type:  TypeUserCount,
		Count: int64(h.registry.Len()),
	})
	if err != nil {
		h.logger.Printf("failed to marshal user count: %v", err)
		return
	}
	h.broadcast(payload)
}

func (h *Hub) broadcastPixelCount(total int64) {
	payload, err := json.Marshal(countMessage{
		Ver:   ProtocolVersion,
		Type:  TypePixelCount,
		Count: total,
	})
	if err != nil {
		h.logger.Printf("failed to marshal pixel count: %v", err)
		return
	}
	h.broadcast(payload)
}

// broadcast writes one pre-serialized payload to every connected session.
// Fan-out runs outside the hub lock, so two writes accepted back to back
// may reach clients in either order; a client that needs strict ordering
// reconciles on its next init. A failed write disconnects that client in
// the background; the remaining recipients are unaffected.
func (h *Hub) broadcast(payload []byte) {
	for _, sess := range h.registry.Snapshot() {
		if err := sess.Write(payload); err != nil {
			h.logger.Printf("dropping client %s after failed write: %v", sess.ID(), err)
			observability.RecordWebSocketError("write")
			go h.Disconnect(sess.ID(), "write_error")
			continue
		}
		observability.RecordBroadcast(len(payload))
	}
}
