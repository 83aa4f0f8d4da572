package session

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

type fakeConn struct {
	mu       sync.Mutex
	frames   [][]byte
	writeErr error
	closed   bool
	deadline time.Time
}

func (c *fakeConn) WriteMessage(messageType int, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.writeErr != nil {
		return c.writeErr
	}
	if messageType != websocket.TextMessage {
		return errors.New("unexpected message type")
	}
	frame := make([]byte, len(data))
	copy(frame, data)
	c.frames = append(c.frames, frame)
	return nil
}

func (c *fakeConn) SetWriteDeadline(t time.Time) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.deadline = t
	return nil
}

func (c *fakeConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

func (c *fakeConn) frameCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.frames)
}

func TestSessionWriteSetsDeadline(t *testing.T) {
	conn := &fakeConn{}
	s := New("client-1", conn, 10*time.Second)

	if err := s.Write([]byte("hello")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if conn.frameCount() != 1 {
		t.Fatalf("expected 1 frame, got %d", conn.frameCount())
	}
	if conn.deadline.IsZero() {
		t.Fatalf("expected a write deadline to be set")
	}
}

func TestSessionWritePropagatesError(t *testing.T) {
	conn := &fakeConn{writeErr: errors.New("broken pipe")}
	s := New("client-1", conn, time.Second)

	if err := s.Write([]byte("x")); err == nil {
		t.Fatalf("expected write error")
	}
}

func TestRegistryMembership(t *testing.T) {
	r := NewRegistry()
	a := New("client-1", &fakeConn{}, time.Second)
	b := New("client-2", &fakeConn{}, time.Second)

	r.Add(a)
	r.Add(b)
	if r.Len() != 2 {
		t.Fatalf("expected 2 sessions, got %d", r.Len())
	}

	got, ok := r.Get("client-1")
	if !ok || got != a {
		t.Fatalf("expected to find client-1")
	}

	removed, ok := r.Remove("client-1")
	if !ok || removed != a {
		t.Fatalf("expected to remove client-1")
	}
	if _, ok := r.Remove("client-1"); ok {
		t.Fatalf("second remove must report absence")
	}
	if r.Len() != 1 {
		t.Fatalf("expected 1 session, got %d", r.Len())
	}
}

func TestSnapshotIsStable(t *testing.T) {
	r := NewRegistry()
	r.Add(New("client-1", &fakeConn{}, time.Second))
	r.Add(New("client-2", &fakeConn{}, time.Second))

	snap := r.Snapshot()
	r.Remove("client-1")

	if len(snap) != 2 {
		t.Fatalf("expected snapshot of 2, got %d", len(snap))
	}
}
