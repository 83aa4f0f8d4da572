// Package app wires the canvas server together: logging, metrics,
// persistence, the hub, and the HTTP surface, with a graceful shutdown
// path that flushes a final snapshot.
package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	server "openplace/server"
	httpnet "openplace/server/internal/net"
	"openplace/server/internal/observability"
	"openplace/server/internal/persist"
	"openplace/server/logging"
	"openplace/server/logging/sinks"
)

const shutdownTimeout = 10 * time.Second

// Run starts the server and blocks until the context is canceled or the
// listener fails. Shutdown order: stop accepting connections, stop the
// background loops, write a final snapshot, close the store and the log
// router.
func Run(ctx context.Context, cfg Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	logger := log.New(os.Stdout, "", log.LstdFlags)

	router, err := buildRouter(cfg.Logging)
	if err != nil {
		return fmt.Errorf("initialize logging: %w", err)
	}

	observability.Init(nil)

	store, err := openStore(cfg.Snapshot)
	if err != nil {
		return fmt.Errorf("open snapshot store: %w", err)
	}

	hub := server.NewHub(cfg.HubConfig(), logging.SystemClock{}, logger, router)
	manager := persist.NewManager(store, hub, cfg.Snapshot.Interval.Std(), logger, router)
	if state, ok := manager.Load(); ok {
		hub.RestoreState(state)
	}

	stop := make(chan struct{})
	go hub.Run(stop)
	go manager.Run(stop)

	handler := httpnet.NewHandler(hub, httpnet.Config{ClientDir: cfg.ClientDir}, logger)
	// No read/write timeouts: WebSocket connections are long-lived and
	// writes are already bounded per session.
	srv := &http.Server{
		Addr:    cfg.Addr,
		Handler: handler.Router(),
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Printf("canvas server listening on %s", cfg.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		close(stop)
		router.Close(context.Background())
		store.Close()
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	logger.Printf("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Printf("http shutdown: %v", err)
	}
	close(stop)

	if err := manager.SaveNow(); err != nil {
		logger.Printf("final snapshot failed: %v", err)
	}
	if err := store.Close(); err != nil {
		logger.Printf("closing snapshot store: %v", err)
	}
	if err := router.Close(shutdownCtx); err != nil {
		logger.Printf("closing log router: %v", err)
	}
	return nil
}

func buildRouter(cfg LoggingConfig) (*logging.Router, error) {
	minSeverity, err := parseSeverity(cfg.MinSeverity)
	if err != nil {
		return nil, err
	}

	routerCfg := logging.DefaultConfig()
	routerCfg.EnabledSinks = cfg.Sinks
	routerCfg.MinimumSeverity = minSeverity
	if cfg.BufferSize > 0 {
		routerCfg.BufferSize = cfg.BufferSize
	}
	routerCfg.JSON.FilePath = cfg.JSONPath

	var named []logging.NamedSink
	if routerCfg.HasSink("console") {
		named = append(named, logging.NamedSink{Name: "console", Sink: sinks.NewConsoleSink(os.Stdout)})
	}
	if routerCfg.HasSink("json") && cfg.JSONPath != "" {
		f, err := os.OpenFile(cfg.JSONPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, fmt.Errorf("open json log %s: %w", cfg.JSONPath, err)
		}
		named = append(named, logging.NamedSink{Name: "json", Sink: sinks.NewJSON(f, routerCfg.JSON.FlushInterval)})
	}

	return logging.NewRouter(logging.SystemClock{}, routerCfg, named)
}

func openStore(cfg SnapshotConfig) (persist.Store, error) {
	switch cfg.Driver {
	case "sqlite":
		return persist.OpenSQLiteStore(cfg.Path)
	default:
		return persist.NewFileStore(cfg.Path), nil
	}
}
