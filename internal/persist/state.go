package persist

import (
	"errors"

	"openplace/server/internal/grid"
	"openplace/server/internal/history"
)

// CurrentVersion tags snapshots written by this build. Load rejects other
// versions so schema drift degrades to an empty start instead of a
// half-understood canvas.
const CurrentVersion = 1

// ErrNotFound reports that no usable snapshot exists. Callers treat it as
// "start empty", never as a fatal condition.
var ErrNotFound = errors.New("no persisted snapshot")

// State is the durable snapshot of the canvas: grid contents, the running
// write counter, the original process start time, a bounded tail of the
// pixel history, and the moment the snapshot was taken.
type State struct {
	Version      int             `json:"version"`
	Width        int             `json:"width"`
	Height       int             `json:"height"`
	Canvas       [][]grid.Cell   `json:"canvas"`
	TotalPixels  int64           `json:"totalPixels"`
	StartTime    int64           `json:"startTime"`
	PixelHistory []history.Event `json:"pixelHistory"`
	SavedAt      int64           `json:"savedAt"`
}

// Store abstracts the snapshot backend. Both drivers overwrite the
// previous snapshot atomically: the file store via rename, the sqlite
// store inside a transaction.
type Store interface {
	// Load returns the most recent snapshot, or ErrNotFound when none
	// exists or the stored content is unusable.
	Load() (State, error)
	// Save overwrites the snapshot.
	Save(State) error
	// Close releases backend resources.
	Close() error
}
