// Newsync - Newsletter Subscription Sync Service
// Copyright 2026 Hyunwoo P. (hyunwoo-dev)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/hyunwoo-dev/newsync

package services

import (
	"context"

	"github.com/hyunwoo-dev/newsync/internal/session"
	"github.com/hyunwoo-dev/newsync/internal/websocket"
)

// ContextRunner matches the hub's RunWithContext method.
type ContextRunner interface {
	RunWithContext(ctx context.Context) error
}

// HubService runs the WebSocket hub under supervision. The hub already
// follows the suture service pattern, so this only adds a name.
type HubService struct {
	hub ContextRunner
}

// NewHubService wraps the hub as a supervised service.
func NewHubService(hub ContextRunner) *HubService {
	return &HubService{hub: hub}
}

// Serve implements suture.Service.
func (s *HubService) Serve(ctx context.Context) error {
	return s.hub.RunWithContext(ctx)
}

// String identifies the service in suture logs.
func (s *HubService) String() string {
	return "websocket-hub"
}

// BusConsumerService forwards session bus events to the hub. Kept as
// its own service so a consumer crash restarts independently of the
// hub's client bookkeeping.
type BusConsumerService struct {
	bus *session.Bus
	hub *websocket.Hub
}

// NewBusConsumerService wraps the bus-to-hub forwarder as a service.
func NewBusConsumerService(bus *session.Bus, hub *websocket.Hub) *BusConsumerService {
	return &BusConsumerService{bus: bus, hub: hub}
}

// Serve implements suture.Service.
func (s *BusConsumerService) Serve(ctx context.Context) error {
	return websocket.RunBusConsumer(ctx, s.bus, s.hub)
}

// String identifies the service in suture logs.
func (s *BusConsumerService) String() string {
	return "bus-consumer"
}
