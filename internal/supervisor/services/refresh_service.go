// Newsync - Newsletter Subscription Sync Service
// Copyright 2026 Hyunwoo P. (hyunwoo-dev)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/hyunwoo-dev/newsync

package services

import (
	"context"
	"time"

	"github.com/hyunwoo-dev/newsync/internal/logging"
)

// Refresher matches the subscription manager's background refresh
// surface.
type Refresher interface {
	ActiveUsers() []string
	Refresh(ctx context.Context, userID string)
}

// refreshCallTimeout bounds a single user's refresh.
const refreshCallTimeout = 10 * time.Second

// RefreshService periodically re-fetches subscriptions for every user
// with live manager state, so local sets and persisted snapshots track
// backend-side changes made outside Newsync. The manager's per-user
// rate limiter keeps this from stacking onto toggle-driven refreshes.
type RefreshService struct {
	manager  Refresher
	interval time.Duration
}

// NewRefreshService creates the background refresh service.
func NewRefreshService(manager Refresher, interval time.Duration) *RefreshService {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	return &RefreshService{manager: manager, interval: interval}
}

// Serve implements suture.Service.
func (s *RefreshService) Serve(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s.refreshAll(ctx)
		}
	}
}

// refreshAll refreshes each active user, bounded per user.
func (s *RefreshService) refreshAll(ctx context.Context) {
	users := s.manager.ActiveUsers()
	if len(users) == 0 {
		return
	}
	logging.Debug().Int("users", len(users)).Msg("Background refresh sweep")

	for _, userID := range users {
		if ctx.Err() != nil {
			return
		}
		callCtx, cancel := context.WithTimeout(ctx, refreshCallTimeout)
		s.manager.Refresh(callCtx, userID)
		cancel()
	}
}

// String identifies the service in suture logs.
func (s *RefreshService) String() string {
	return "subscription-refresh"
}
