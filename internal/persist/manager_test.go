package persist

import (
	"errors"
	"sync"
	"testing"
	"time"
)

type fakeStore struct {
	mu      sync.Mutex
	state   State
	hasSave bool
	loadErr error
	saveErr error
	saves   int
}

func (s *fakeStore) Load() (State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.loadErr != nil {
		return State{}, s.loadErr
	}
	return s.state, nil
}

func (s *fakeStore) Save(state State) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.saveErr != nil {
		return s.saveErr
	}
	s.state = state
	s.hasSave = true
	s.saves++
	return nil
}

func (s *fakeStore) Close() error { return nil }

func (s *fakeStore) saveCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saves
}

type fakeSource struct {
	state State
}

func (s *fakeSource) PersistedState() State { return s.state }

func TestManagerLoadSuccess(t *testing.T) {
	store := &fakeStore{state: State{Version: CurrentVersion, TotalPixels: 9}}
	m := NewManager(store, &fakeSource{}, time.Second, nil, nil)

	state, ok := m.Load()
	if !ok {
		t.Fatalf("expected successful load")
	}
	if state.TotalPixels != 9 {
		t.Fatalf("unexpected state: %+v", state)
	}
}

func TestManagerLoadDegradesToEmpty(t *testing.T) {
	for name, loadErr := range map[string]error{
		"not found": ErrNotFound,
		"io error":  errors.New("disk on fire"),
	} {
		store := &fakeStore{loadErr: loadErr}
		m := NewManager(store, &fakeSource{}, time.Second, nil, nil)

		if _, ok := m.Load(); ok {
			t.Fatalf("%s: expected degraded load", name)
		}
	}
}

func TestManagerSaveNow(t *testing.T) {
	store := &fakeStore{}
	source := &fakeSource{state: State{Version: CurrentVersion, TotalPixels: 3}}
	m := NewManager(store, source, time.Second, nil, nil)

	if err := m.SaveNow(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !store.hasSave || store.state.TotalPixels != 3 {
		t.Fatalf("state not written: %+v", store.state)
	}
}

func TestManagerSaveFailureIsNotFatal(t *testing.T) {
	store := &fakeStore{saveErr: errors.New("disk full")}
	m := NewManager(store, &fakeSource{}, time.Second, nil, nil)

	if err := m.SaveNow(); err == nil {
		t.Fatalf("expected save error to surface")
	}
}

func TestManagerRunTicksAndStops(t *testing.T) {
	store := &fakeStore{}
	m := NewManager(store, &fakeSource{state: State{Version: CurrentVersion}}, 10*time.Millisecond, nil, nil)

	stop := make(chan struct{})
	done := make(chan struct{})
	go func() {
		m.Run(stop)
		close(done)
	}()

	deadline := time.Now().Add(2 * time.Second)
	for store.saveCount() < 2 {
		if time.Now().After(deadline) {
			t.Fatalf("periodic saves never happened")
		}
		time.Sleep(5 * time.Millisecond)
	}

	close(stop)
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("Run did not stop")
	}
}
