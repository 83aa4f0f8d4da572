package app

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return path
}

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Addr != ":3000" {
		t.Fatalf("unexpected addr %q", cfg.Addr)
	}
	if cfg.Snapshot.Driver != "file" || cfg.Snapshot.Path != "canvas_data.json" {
		t.Fatalf("unexpected snapshot config: %+v", cfg.Snapshot)
	}
	if cfg.Snapshot.Interval.Std() != 30*time.Second {
		t.Fatalf("unexpected interval %s", cfg.Snapshot.Interval.Std())
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults must validate: %v", err)
	}
}

func TestLoadConfigFile(t *testing.T) {
	path := writeConfig(t, `
addr: ":8080"
canvas:
  width: 100
  height: 50
  cooldown: 2s
snapshot:
  driver: sqlite
  path: canvas.db
  interval: 1m
logging:
  sinks: [console, json]
  min_severity: warn
  json_path: events.ndjson
`)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Addr != ":8080" {
		t.Fatalf("unexpected addr %q", cfg.Addr)
	}
	if cfg.Canvas.Width != 100 || cfg.Canvas.Height != 50 {
		t.Fatalf("unexpected canvas: %+v", cfg.Canvas)
	}
	if cfg.Canvas.Cooldown.Std() != 2*time.Second {
		t.Fatalf("unexpected cooldown %s", cfg.Canvas.Cooldown.Std())
	}
	if cfg.Snapshot.Driver != "sqlite" || cfg.Snapshot.Interval.Std() != time.Minute {
		t.Fatalf("unexpected snapshot: %+v", cfg.Snapshot)
	}
	if len(cfg.Logging.Sinks) != 2 || cfg.Logging.MinSeverity != "warn" {
		t.Fatalf("unexpected logging: %+v", cfg.Logging)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	hubCfg := cfg.HubConfig()
	if hubCfg.Width != 100 || hubCfg.Cooldown != 2*time.Second {
		t.Fatalf("unexpected hub config: %+v", hubCfg)
	}
}

func TestLoadConfigInvalidDuration(t *testing.T) {
	path := writeConfig(t, "canvas:\n  cooldown: soon\n")

	if _, err := LoadConfig(path); err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("OPENPLACE_ADDR", ":9999")
	t.Setenv("OPENPLACE_SNAPSHOT_DRIVER", "sqlite")
	t.Setenv("OPENPLACE_SNAPSHOT_PATH", "/tmp/canvas.db")
	t.Setenv("OPENPLACE_CLIENT_DIR", "/srv/client")

	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Addr != ":9999" {
		t.Fatalf("unexpected addr %q", cfg.Addr)
	}
	if cfg.Snapshot.Driver != "sqlite" || cfg.Snapshot.Path != "/tmp/canvas.db" {
		t.Fatalf("unexpected snapshot: %+v", cfg.Snapshot)
	}
	if cfg.ClientDir != "/srv/client" {
		t.Fatalf("unexpected client dir %q", cfg.ClientDir)
	}
}

func TestValidateRejectsUnknownDriver(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Snapshot.Driver = "redis"
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected error for unknown driver")
	}
}

func TestValidateRejectsUnknownSeverity(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Logging.MinSeverity = "loud"
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected error for unknown severity")
	}
}
