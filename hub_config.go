package server

import "time"

// HubConfig carries the tunable parameters of the canvas hub. Zero values
// are normalized to the defaults, so an empty config yields a working hub.
type HubConfig struct {
	Width  int
	Height int

	Cooldown      time.Duration
	StatsInterval time.Duration
	TrimInterval  time.Duration

	HistoryHighWater int
	HistoryLowWater  int

	// PersistedHistory bounds the history tail written into snapshots.
	PersistedHistory int

	// RecentLimit is the default page size for recent-activity queries.
	// Explicit limits are capped at HistoryHighWater instead.
	RecentLimit int
}

// DefaultHubConfig returns the production defaults.
func DefaultHubConfig() HubConfig {
	return HubConfig{
		Width:            defaultCanvasWidth,
		Height:           defaultCanvasHeight,
		Cooldown:         defaultCooldown,
		StatsInterval:    defaultStatsInterval,
		TrimInterval:     defaultTrimInterval,
		HistoryHighWater: defaultHistoryHighWater,
		HistoryLowWater:  defaultHistoryLowWater,
		PersistedHistory: defaultPersistedTail,
		RecentLimit:      defaultRecentLimit,
	}
}

// Normalized fills in defaults for unset or invalid fields.
func (c HubConfig) Normalized() HubConfig {
	defaults := DefaultHubConfig()
	if c.Width <= 0 {
		c.Width = defaults.Width
	}
	if c.Height <= 0 {
		c.Height = defaults.Height
	}
	if c.Cooldown < 0 {
		c.Cooldown = 0
	} else if c.Cooldown == 0 {
		c.Cooldown = defaults.Cooldown
	}
	if c.StatsInterval <= 0 {
		c.StatsInterval = defaults.StatsInterval
	}
	if c.TrimInterval <= 0 {
		c.TrimInterval = defaults.TrimInterval
	}
	if c.HistoryHighWater <= 0 {
		c.HistoryHighWater = defaults.HistoryHighWater
	}
	if c.HistoryLowWater <= 0 || c.HistoryLowWater > c.HistoryHighWater {
		c.HistoryLowWater = defaults.HistoryLowWater
		if c.HistoryLowWater > c.HistoryHighWater {
			c.HistoryLowWater = c.HistoryHighWater
		}
	}
	if c.PersistedHistory <= 0 {
		c.PersistedHistory = defaults.PersistedHistory
	}
	if c.RecentLimit <= 0 {
		c.RecentLimit = defaults.RecentLimit
	}
	return c
}
