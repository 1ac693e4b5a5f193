// Newsync - Newsletter Subscription Sync Service
// Copyright 2026 Hyunwoo P. (hyunwoo-dev)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/hyunwoo-dev/newsync

package services

import (
	"context"
	"time"
)

// GarbageCollector matches the snapshot store's value-log GC method.
type GarbageCollector interface {
	RunGC()
}

// gcInterval is how often Badger value-log GC runs. Badger recommends
// periodic GC from exactly one goroutine.
const gcInterval = 10 * time.Minute

// StoreGCService periodically reclaims space in the snapshot store.
type StoreGCService struct {
	store GarbageCollector
}

// NewStoreGCService wraps snapshot store GC as a supervised service.
func NewStoreGCService(store GarbageCollector) *StoreGCService {
	return &StoreGCService{store: store}
}

// Serve implements suture.Service.
func (s *StoreGCService) Serve(ctx context.Context) error {
	ticker := time.NewTicker(gcInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s.store.RunGC()
		}
	}
}

// String identifies the service in suture logs.
func (s *StoreGCService) String() string {
	return "snapshot-store-gc"
}
