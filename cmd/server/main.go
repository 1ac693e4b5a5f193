// Newsync - Newsletter Subscription Sync Service
// Copyright 2026 Hyunwoo P. (hyunwoo-dev)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/hyunwoo-dev/newsync

// Package main is the entry point for the Newsync server.
//
// Newsync sits between browser clients and a newsletter backend and
// keeps each user's category subscriptions consistent: it enforces the
// subscription cap locally, applies toggles optimistically with
// rollback, reconciles backend reads with fetch fencing, and keeps
// serving from persisted snapshots when the backend is down.
//
// # Startup Order
//
//  1. Configuration: Koanf v2 layered load (env > YAML > defaults)
//  2. Logging: zerolog global logger
//  3. Snapshot store: BadgerDB (in-memory when no path is configured)
//  4. Event bus: Watermill gochannel pub/sub
//  5. Upstream client: newsletter backend with retry + circuit breaker
//  6. Subscription manager, JWT auth, WebSocket hub, HTTP router
//  7. Supervision tree: suture runs the hub, bus consumer, background
//     refresh, store GC, and HTTP server
//
// # Signal Handling
//
// SIGINT and SIGTERM cancel the supervision tree, which shuts the HTTP
// server down gracefully and stops the background services.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/hyunwoo-dev/newsync/internal/api"
	"github.com/hyunwoo-dev/newsync/internal/auth"
	"github.com/hyunwoo-dev/newsync/internal/config"
	"github.com/hyunwoo-dev/newsync/internal/logging"
	"github.com/hyunwoo-dev/newsync/internal/session"
	"github.com/hyunwoo-dev/newsync/internal/store"
	"github.com/hyunwoo-dev/newsync/internal/subscription"
	"github.com/hyunwoo-dev/newsync/internal/supervisor"
	"github.com/hyunwoo-dev/newsync/internal/supervisor/services"
	"github.com/hyunwoo-dev/newsync/internal/upstream"
	"github.com/hyunwoo-dev/newsync/internal/websocket"
)

// version is set at build time via -ldflags.
var version = "dev"

func main() {
	if err := run(); err != nil {
		logging.Error().Err(err).Msg("Newsync failed")
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})
	logging.Info().
		Str("version", version).
		Str("upstream", cfg.Upstream.URL).
		Msg("Starting Newsync")

	snapshots, err := store.Open(cfg.Store.Path, cfg.Store.SnapshotTTL)
	if err != nil {
		return fmt.Errorf("failed to open snapshot store: %w", err)
	}
	defer func() {
		if err := snapshots.Close(); err != nil {
			logging.Warn().Err(err).Msg("Snapshot store close failed")
		}
	}()

	bus := session.NewBus()
	defer func() {
		if err := bus.Close(); err != nil {
			logging.Warn().Err(err).Msg("Event bus close failed")
		}
	}()

	client := upstream.NewClient(&cfg.Upstream)
	breaker := upstream.NewCircuitBreakerClient(client)

	manager := subscription.NewManager(breaker, snapshots, bus, cfg.Sync)
	defer manager.Close()

	jwt, err := auth.NewJWTManager(&cfg.Security)
	if err != nil {
		return fmt.Errorf("failed to initialize session auth: %w", err)
	}
	creds := auth.NewCredentialChecker(&cfg.Security)
	if creds == nil {
		logging.Warn().Msg("No admin account configured; login endpoint is disabled")
	}

	hub := websocket.NewHub()
	handler := api.NewHandler(manager, jwt, creds, bus, client, breaker)
	router := api.NewRouter(cfg, handler, jwt, hub)

	server := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: cfg.Server.Timeout,
		ReadTimeout:       cfg.Server.Timeout,
		WriteTimeout:      cfg.Server.Timeout,
	}

	treeConfig := supervisor.DefaultTreeConfig()
	treeConfig.ShutdownTimeout = cfg.Server.ShutdownTimeout
	tree := supervisor.NewTree(logging.NewSlogLogger(), treeConfig)

	tree.AddEventService(services.NewHubService(hub))
	tree.AddEventService(services.NewBusConsumerService(bus, hub))
	tree.AddEventService(services.NewRefreshService(manager, cfg.Sync.RefreshInterval))
	tree.AddEventService(services.NewStoreGCService(snapshots))
	tree.AddAPIService(services.NewHTTPServerService(server, cfg.Server.ShutdownTimeout))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logging.Info().Str("addr", server.Addr).Msg("Listening")
	if err := tree.Serve(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("supervision tree failed: %w", err)
	}

	if unstopped, err := tree.UnstoppedServiceReport(); err == nil && len(unstopped) > 0 {
		for _, svc := range unstopped {
			logging.Warn().Str("service", svc.Name).Msg("Service did not stop in time")
		}
	}

	logging.Info().Msg("Shutdown complete")
	return nil
}
