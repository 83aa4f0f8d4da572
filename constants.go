package server

import "time"

const (
	ProtocolVersion = 1

	writeWait = 10 * time.Second

	defaultCanvasWidth  = 3840
	defaultCanvasHeight = 1902

	defaultCooldown      = 5 * time.Second
	defaultStatsInterval = 5 * time.Second
	defaultTrimInterval  = time.Hour

	defaultHistoryHighWater = 5000
	defaultHistoryLowWater  = 2000

	// defaultPersistedTail bounds the pixel history carried into each
	// snapshot; the full in-memory log is never persisted.
	defaultPersistedTail = 1000

	defaultRecentLimit = 50
)
