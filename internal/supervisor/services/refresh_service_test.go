// Newsync - Newsletter Subscription Sync Service
// Copyright 2026 Hyunwoo P. (hyunwoo-dev)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/hyunwoo-dev/newsync

package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

// fakeRefresher records which users were refreshed.
type fakeRefresher struct {
	mu      sync.Mutex
	users   []string
	touched map[string]int
}

func newFakeRefresher(users ...string) *fakeRefresher {
	return &fakeRefresher{users: users, touched: make(map[string]int)}
}

func (f *fakeRefresher) ActiveUsers() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.users...)
}

func (f *fakeRefresher) Refresh(_ context.Context, userID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.touched[userID]++
}

func (f *fakeRefresher) count(userID string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.touched[userID]
}

func TestRefreshServiceSweepsActiveUsers(t *testing.T) {
	refresher := newFakeRefresher("u1", "u2")
	svc := NewRefreshService(refresher, 5*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- svc.Serve(ctx) }()

	deadline := time.After(2 * time.Second)
	for refresher.count("u1") == 0 || refresher.count("u2") == 0 {
		select {
		case <-deadline:
			t.Fatal("Users were not refreshed in time")
		case <-time.After(5 * time.Millisecond):
		}
	}

	cancel()
	select {
	case err := <-errCh:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Expected context.Canceled, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Serve did not return after cancel")
	}
}

func TestRefreshServiceDefaultsInterval(t *testing.T) {
	svc := NewRefreshService(newFakeRefresher(), 0)
	if svc.interval != 5*time.Minute {
		t.Errorf("Expected 5m default interval, got %s", svc.interval)
	}
}
