package persist

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"openplace/server/internal/grid"
	"openplace/server/internal/history"
)

func sampleState() State {
	canvas := [][]grid.Cell{
		{"#FF0000", ""},
		{"", "#00FF00"},
	}
	return State{
		Version:     CurrentVersion,
		Width:       2,
		Height:      2,
		Canvas:      canvas,
		TotalPixels: 7,
		StartTime:   1_700_000_000_000,
		PixelHistory: []history.Event{
			{X: 0, Y: 0, Color: "#FF0000", UserID: "client-1", Timestamp: 1_700_000_000_500},
		},
		SavedAt: 1_700_000_030_000,
	}
}

func TestFileStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state", "canvas-state.json")
	store := NewFileStore(path)

	if err := store.Save(sampleState()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	loaded, err := store.Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if loaded.TotalPixels != 7 {
		t.Fatalf("expected 7 total pixels, got %d", loaded.TotalPixels)
	}
	if loaded.Canvas[0][0] != "#FF0000" || loaded.Canvas[0][1] != "" {
		t.Fatalf("unexpected canvas contents: %#v", loaded.Canvas)
	}
	if len(loaded.PixelHistory) != 1 || loaded.PixelHistory[0].Color != "#FF0000" {
		t.Fatalf("unexpected history: %#v", loaded.PixelHistory)
	}
}

func TestFileStoreLoadMissing(t *testing.T) {
	store := NewFileStore(filepath.Join(t.TempDir(), "absent.json"))

	if _, err := store.Load(); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestFileStoreLoadMalformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "corrupt.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	store := NewFileStore(path)
	if _, err := store.Load(); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestFileStoreLoadVersionMismatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "old.json")
	if err := os.WriteFile(path, []byte(`{"version":99}`), 0o644); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	store := NewFileStore(path)
	if _, err := store.Load(); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestFileStoreSaveOverwrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "canvas-state.json")
	store := NewFileStore(path)

	first := sampleState()
	if err := store.Save(first); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	second := first
	second.TotalPixels = 8
	if err := store.Save(second); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	loaded, err := store.Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if loaded.TotalPixels != 8 {
		t.Fatalf("expected overwritten counter 8, got %d", loaded.TotalPixels)
	}

	// No temp files left behind.
	entries, err := os.ReadDir(filepath.Dir(path))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected only the snapshot file, found %d entries", len(entries))
	}
}
