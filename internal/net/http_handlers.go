// Package net exposes the canvas over HTTP and WebSocket. It decodes
// client messages, feeds them to the hub, and writes requester-scoped
// replies; broadcasts are the hub's job.
package net

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	server "openplace/server"
	"openplace/server/internal/cooldown"
	"openplace/server/internal/grid"
	"openplace/server/internal/history"
	"openplace/server/internal/observability"
	"openplace/server/internal/session"
	"openplace/server/internal/stats"
)

// Core is the hub surface the transport needs. *server.Hub satisfies it;
// tests substitute lighter fakes.
type Core interface {
	Connect(conn session.Conn) (*session.Session, error)
	Disconnect(id, reason string)
	PlacePixel(identity string, x, y int, color string) (history.Event, error)
	Stats() stats.Snapshot
	RecentEvents(n int) []history.Event
	CanvasSnapshot() ([][]grid.Cell, int, int)
}

// Config tunes the HTTP surface.
type Config struct {
	// ClientDir, when set, serves static files at the root path.
	ClientDir string
	// MaxRecentLimit caps the recent-activity page size. Zero keeps the
	// hub's default.
	MaxRecentLimit int
}

// Handler serves the REST and WebSocket endpoints.
type Handler struct {
	core     Core
	cfg      Config
	logger   *log.Logger
	upgrader websocket.Upgrader
}

// NewHandler wires the hub to the HTTP surface.
func NewHandler(core Core, cfg Config, logger *log.Logger) *Handler {
	if logger == nil {
		logger = log.Default()
	}
	return &Handler{
		core:   core,
		cfg:    cfg,
		logger: logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
	}
}

// Router assembles the chi routing tree.
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(allowAllOrigins)

	r.Get("/ws", h.handleWebSocket)
	r.Get("/api/stats", h.handleStats)
	r.Get("/api/canvas", h.handleCanvas)
	r.Get("/api/recent", h.handleRecent)
	r.Get("/healthz", h.handleHealth)
	r.Handle("/metrics", promhttp.Handler())

	if h.cfg.ClientDir != "" {
		r.Handle("/*", http.FileServer(http.Dir(h.cfg.ClientDir)))
	}
	return r
}

func allowAllOrigins(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		next.ServeHTTP(w, r)
	})
}

// Inbound message envelope. Unknown types are ignored after a log line.
type clientMessage struct {
	Ver   int    `json:"ver"`
	Type  string `json:"type"`
	X     int    `json:"x"`
	Y     int    `json:"y"`
	Color string `json:"color"`
	Limit int    `json:"limit"`
}

type errorMessage struct {
	Ver     int    `json:"ver"`
	Type    string `json:"type"`
	Message string `json:"message"`
}

type pongMessage struct {
	Ver        int    `json:"ver"`
	Type       string `json:"type"`
	ServerTime int64  `json:"serverTime"`
}

type statsReply struct {
	Ver  int    `json:"ver"`
	Type string `json:"type"`
	stats.Snapshot
}

type recentReply struct {
	Ver    int             `json:"ver"`
	Type   string          `json:"type"`
	Pixels []history.Event `json:"pixels"`
}

func (h *Handler) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Printf("websocket upgrade failed: %v", err)
		observability.RecordWebSocketError("upgrade")
		return
	}

	sess, err := h.core.Connect(conn)
	if err != nil {
		h.logger.Printf("failed to initialize session: %v", err)
		conn.Close()
		return
	}

	h.readLoop(conn, sess)
}

// readLoop drains one client connection until it closes or errors. Each
// decoded message dispatches to the hub; malformed frames are skipped.
func (h *Handler) readLoop(conn *websocket.Conn, sess *session.Session) {
	id := sess.ID()
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			reason := "read_error"
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				reason = "client_closed"
			} else {
				observability.RecordWebSocketError("read")
			}
			h.core.Disconnect(id, reason)
			return
		}

		var msg clientMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			h.logger.Printf("skipping malformed message from %s: %v", id, err)
			observability.RecordRejection(observability.ReasonMalformed)
			continue
		}

		switch msg.Type {
		case "place_pixel":
			h.handlePlacePixel(sess, msg)
		case "get_stats":
			h.reply(sess, statsReply{Ver: server.ProtocolVersion, Type: server.TypeStatsUpdate, Snapshot: h.core.Stats()})
		case "get_recent_pixels":
			pixels := h.core.RecentEvents(msg.Limit)
			if pixels == nil {
				pixels = []history.Event{}
			}
			h.reply(sess, recentReply{Ver: server.ProtocolVersion, Type: server.TypeRecentPixels, Pixels: pixels})
		case "ping":
			h.reply(sess, pongMessage{Ver: server.ProtocolVersion, Type: server.TypePong, ServerTime: h.core.Stats().ServerTime})
		default:
			h.logger.Printf("ignoring unknown message type %q from %s", msg.Type, id)
		}
	}
}

func (h *Handler) handlePlacePixel(sess *session.Session, msg clientMessage) {
	_, err := h.core.PlacePixel(sess.ID(), msg.X, msg.Y, msg.Color)
	if err == nil {
		return
	}
	h.reply(sess, errorMessage{
		Ver:     server.ProtocolVersion,
		Type:    server.TypeError,
		Message: rejectionMessage(err),
	})
}

// rejectionMessage maps a hub rejection to the client-facing text. The
// cooldown message carries the rounded remaining wait; the rest are fixed
// strings so clients can match on them.
func rejectionMessage(err error) string {
	var cooldownErr *cooldown.Error
	switch {
	case errors.As(err, &cooldownErr):
		return cooldownErr.Error()
	case errors.Is(err, grid.ErrOutOfBounds):
		return "invalid coordinates"
	case errors.Is(err, server.ErrInvalidColor):
		return "invalid color"
	default:
		return "pixel placement failed"
	}
}

func (h *Handler) reply(sess *session.Session, msg any) {
	payload, err := json.Marshal(msg)
	if err != nil {
		h.logger.Printf("failed to marshal reply for %s: %v", sess.ID(), err)
		return
	}
	if err := sess.Write(payload); err != nil {
		h.logger.Printf("dropping client %s after failed reply: %v", sess.ID(), err)
		observability.RecordWebSocketError("write")
		h.core.Disconnect(sess.ID(), "write_error")
	}
}

func (h *Handler) handleStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.core.Stats())
}

func (h *Handler) handleCanvas(w http.ResponseWriter, r *http.Request) {
	canvas, width, height := h.core.CanvasSnapshot()
	writeJSON(w, http.StatusOK, map[string]any{
		"canvas": canvas,
		"width":  width,
		"height": height,
	})
}

func (h *Handler) handleRecent(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid limit"})
			return
		}
		limit = parsed
	}
	if h.cfg.MaxRecentLimit > 0 && limit > h.cfg.MaxRecentLimit {
		limit = h.cfg.MaxRecentLimit
	}
	pixels := h.core.RecentEvents(limit)
	if pixels == nil {
		pixels = []history.Event{}
	}
	writeJSON(w, http.StatusOK, pixels)
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("failed to encode response: %v", err)
	}
}
