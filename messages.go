package server

import (
	"openplace/server/internal/grid"
	"openplace/server/internal/stats"
)

// Outbound message type identifiers. Inbound types are handled by the
// transport layer in internal/net.
const (
	TypeInit         = "init"
	TypeUpdatePixel  = "update_pixel"
	TypeStatsUpdate  = "stats_update"
	TypeUserCount    = "user_count"
	TypePixelCount   = "pixel_count"
	TypeRecentPixels = "recent_pixels"
	TypeError        = "error"
	TypePong         = "pong"
)

type initMessage struct {
	Ver    int           `json:"ver"`
	Type   string        `json:"type"`
	Canvas [][]grid.Cell `json:"canvas"`
	Width  int           `json:"width"`
	Height int           `json:"height"`
}

type updatePixelMessage struct {
	Ver       int    `json:"ver"`
	Type      string `json:"type"`
	X         int    `json:"x"`
	Y         int    `json:"y"`
	Color     string `json:"color"`
	UserID    string `json:"userId"`
	Timestamp int64  `json:"timestamp"`
}

type statsUpdateMessage struct {
	Ver  int    `json:"ver"`
	Type string `json:"type"`
	stats.Snapshot
}

type countMessage struct {
	Ver   int    `json:"ver"`
	Type  string `json:"type"`
	Count int64  `json:"count"`
}
