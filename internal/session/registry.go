package session

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Conn is the subset of *websocket.Conn the session layer needs. Tests
// substitute recording fakes.
type Conn interface {
	WriteMessage(messageType int, data []byte) error
	SetWriteDeadline(t time.Time) error
	Close() error
}

// Session associates one client identity with its connection. Writes are
// serialized through a per-session mutex and bounded by a write deadline
// so one slow client cannot wedge a broadcast.
type Session struct {
	id        string
	conn      Conn
	writeWait time.Duration
	mu        sync.Mutex
}

// New wraps a connection for the given identity.
func New(id string, conn Conn, writeWait time.Duration) *Session {
	if writeWait <= 0 {
		writeWait = 10 * time.Second
	}
	return &Session{id: id, conn: conn, writeWait: writeWait}
}

// ID reports the connection-scoped client identity.
func (s *Session) ID() string { return s.id }

// Write sends one text frame, applying the write deadline.
func (s *Session) Write(data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.conn.SetWriteDeadline(time.Now().Add(s.writeWait))
	return s.conn.WriteMessage(websocket.TextMessage, data)
}

// Close tears down the underlying connection.
func (s *Session) Close() error {
	return s.conn.Close()
}

// Registry tracks currently connected sessions. Broadcast fan-out iterates
// a stable snapshot so a client disconnecting mid-broadcast cannot mutate
// the set under the iteration.
type Registry struct {
	mu       sync.Mutex
	sessions map[string]*Session
}

// NewRegistry constructs an empty registry.
func NewRegistry() *Registry {
	return &Registry{sessions: make(map[string]*Session)}
}

// Add registers a session under its identity.
func (r *Registry) Add(s *Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[s.ID()] = s
}

// Remove unregisters the identity and returns the session if present.
func (r *Registry) Remove(id string) (*Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if ok {
		delete(r.sessions, id)
	}
	return s, ok
}

// Get looks up a live session.
func (r *Registry) Get(id string) (*Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	return s, ok
}

// Len reports current membership.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Snapshot returns a stable copy of the current membership for fan-out.
func (r *Registry) Snapshot() []*Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	sessions := make([]*Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		sessions = append(sessions, s)
	}
	return sessions
}
