package app

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	server "openplace/server"
	"openplace/server/logging"
)

// Duration wraps time.Duration so YAML configs can use "5s" style values.
type Duration time.Duration

// UnmarshalYAML parses a Go duration string.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", raw, err)
	}
	*d = Duration(parsed)
	return nil
}

// Std converts to the standard library type.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// Config is the full server configuration. Every field has a working
// default so an absent config file yields a runnable server.
type Config struct {
	Addr      string `yaml:"addr"`
	ClientDir string `yaml:"client_dir"`

	Canvas   CanvasConfig   `yaml:"canvas"`
	Snapshot SnapshotConfig `yaml:"snapshot"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// CanvasConfig tunes the hub.
type CanvasConfig struct {
	Width            int      `yaml:"width"`
	Height           int      `yaml:"height"`
	Cooldown         Duration `yaml:"cooldown"`
	StatsInterval    Duration `yaml:"stats_interval"`
	TrimInterval     Duration `yaml:"trim_interval"`
	HistoryHighWater int      `yaml:"history_high_water"`
	HistoryLowWater  int      `yaml:"history_low_water"`
	PersistedHistory int      `yaml:"persisted_history"`
	RecentLimit      int      `yaml:"recent_limit"`
}

// SnapshotConfig selects and tunes the persistence backend.
type SnapshotConfig struct {
	// Driver is "file" or "sqlite".
	Driver   string   `yaml:"driver"`
	Path     string   `yaml:"path"`
	Interval Duration `yaml:"interval"`
}

// LoggingConfig tunes the event router.
type LoggingConfig struct {
	Sinks       []string `yaml:"sinks"`
	MinSeverity string   `yaml:"min_severity"`
	BufferSize  int      `yaml:"buffer_size"`
	JSONPath    string   `yaml:"json_path"`
}

// DefaultConfig returns the production defaults.
func DefaultConfig() Config {
	return Config{
		Addr: ":3000",
		Snapshot: SnapshotConfig{
			Driver:   "file",
			Path:     "canvas_data.json",
			Interval: Duration(30 * time.Second),
		},
		Logging: LoggingConfig{
			Sinks:       []string{"console"},
			MinSeverity: "info",
		},
	}
}

// LoadConfig reads a YAML config file and applies environment overrides.
// An empty path yields the defaults plus overrides.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	cfg.applyEnv()
	return cfg.Normalized(), nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("OPENPLACE_ADDR"); v != "" {
		c.Addr = v
	}
	if v := os.Getenv("OPENPLACE_CLIENT_DIR"); v != "" {
		c.ClientDir = v
	}
	if v := os.Getenv("OPENPLACE_SNAPSHOT_DRIVER"); v != "" {
		c.Snapshot.Driver = v
	}
	if v := os.Getenv("OPENPLACE_SNAPSHOT_PATH"); v != "" {
		c.Snapshot.Path = v
	}
}

// Normalized fills in defaults for unset fields.
func (c Config) Normalized() Config {
	defaults := DefaultConfig()
	if c.Addr == "" {
		c.Addr = defaults.Addr
	}
	if c.Snapshot.Driver == "" {
		c.Snapshot.Driver = defaults.Snapshot.Driver
	}
	if c.Snapshot.Path == "" {
		c.Snapshot.Path = defaults.Snapshot.Path
	}
	if c.Snapshot.Interval <= 0 {
		c.Snapshot.Interval = defaults.Snapshot.Interval
	}
	if len(c.Logging.Sinks) == 0 {
		c.Logging.Sinks = defaults.Logging.Sinks
	}
	if c.Logging.MinSeverity == "" {
		c.Logging.MinSeverity = defaults.Logging.MinSeverity
	}
	return c
}

// Validate rejects configurations the server cannot run with.
func (c Config) Validate() error {
	switch c.Snapshot.Driver {
	case "file", "sqlite":
	default:
		return fmt.Errorf("unknown snapshot driver %q", c.Snapshot.Driver)
	}
	if _, err := parseSeverity(c.Logging.MinSeverity); err != nil {
		return err
	}
	return nil
}

// HubConfig converts the canvas section into hub parameters.
func (c Config) HubConfig() server.HubConfig {
	return server.HubConfig{
		Width:            c.Canvas.Width,
		Height:           c.Canvas.Height,
		Cooldown:         c.Canvas.Cooldown.Std(),
		StatsInterval:    c.Canvas.StatsInterval.Std(),
		TrimInterval:     c.Canvas.TrimInterval.Std(),
		HistoryHighWater: c.Canvas.HistoryHighWater,
		HistoryLowWater:  c.Canvas.HistoryLowWater,
		PersistedHistory: c.Canvas.PersistedHistory,
		RecentLimit:      c.Canvas.RecentLimit,
	}
}

func parseSeverity(name string) (logging.Severity, error) {
	switch name {
	case "debug":
		return logging.SeverityDebug, nil
	case "", "info":
		return logging.SeverityInfo, nil
	case "warn", "warning":
		return logging.SeverityWarn, nil
	case "error":
		return logging.SeverityError, nil
	default:
		return 0, fmt.Errorf("unknown severity %q", name)
	}
}
