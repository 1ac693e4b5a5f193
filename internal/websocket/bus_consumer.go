// Newsync - Newsletter Subscription Sync Service
// Copyright 2026 Hyunwoo P. (hyunwoo-dev)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/hyunwoo-dev/newsync

package websocket

import (
	"context"

	"github.com/hyunwoo-dev/newsync/internal/logging"
	"github.com/hyunwoo-dev/newsync/internal/session"
)

// RunBusConsumer forwards session bus events to the hub until the
// context is canceled. Runs as a supervised service next to the hub.
func RunBusConsumer(ctx context.Context, bus *session.Bus, hub *Hub) error {
	subEvents, err := bus.SubscribeSubscriptions(ctx)
	if err != nil {
		return err
	}
	authEvents, err := bus.SubscribeAuth(ctx)
	if err != nil {
		return err
	}

	logging.Debug().Msg("websocket bus consumer started")
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-subEvents:
			if !ok {
				return ctx.Err()
			}
			hub.SendSubscriptions(event.UserID, event.Subscriptions)
		case event, ok := <-authEvents:
			if !ok {
				return ctx.Err()
			}
			hub.SendAuthChange(event.UserID, event.SignedIn)
		}
	}
}
