// Newsync - Newsletter Subscription Sync Service
// Copyright 2026 Hyunwoo P. (hyunwoo-dev)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/hyunwoo-dev/newsync

// Package subscription implements the per-user subscription state machine:
// the local subscription set, the reconciler that folds backend snapshots
// into it, and the manager that drives toggles and refreshes.
package subscription

import (
	"sync"

	"github.com/hyunwoo-dev/newsync/internal/models"
)

// Set is the local view of a user's newsletter subscriptions, keyed by
// category label and kept in insertion order. The category cap is
// enforced by the manager, not here; Set is pure state.
//
// Thread Safety: all methods are safe for concurrent use.
type Set struct {
	mu   sync.RWMutex
	subs []models.Subscription
}

// NewSet creates an empty subscription set.
func NewSet() *Set {
	return &Set{}
}

// Contains reports whether the category is currently subscribed.
func (s *Set) Contains(label models.CategoryLabel) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.indexOf(label) >= 0
}

// Add inserts a subscription. Returns false without modifying the set if
// the category is already present.
func (s *Set) Add(sub models.Subscription) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.indexOf(sub.Category) >= 0 {
		return false
	}
	s.subs = append(s.subs, sub)
	return true
}

// Remove deletes the subscription for the category. Returns the removed
// subscription and true, or a zero value and false if absent.
func (s *Set) Remove(label models.CategoryLabel) (models.Subscription, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexOf(label)
	if i < 0 {
		return models.Subscription{}, false
	}
	removed := s.subs[i]
	s.subs = append(s.subs[:i], s.subs[i+1:]...)
	return removed, true
}

// Replace swaps the entire set for the given snapshot. The snapshot is
// copied; the caller keeps ownership of its slice.
func (s *Set) Replace(subs []models.Subscription) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subs = make([]models.Subscription, len(subs))
	copy(s.subs, subs)
}

// Snapshot returns a copy of the current subscriptions in insertion order.
func (s *Set) Snapshot() []models.Subscription {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Subscription, len(s.subs))
	copy(out, s.subs)
	return out
}

// Labels returns the subscribed category labels in insertion order.
func (s *Set) Labels() []models.CategoryLabel {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.CategoryLabel, len(s.subs))
	for i, sub := range s.subs {
		out[i] = sub.Category
	}
	return out
}

// Len returns the number of subscribed categories.
func (s *Set) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.subs)
}

// indexOf returns the index of the category or -1. Caller holds the lock.
func (s *Set) indexOf(label models.CategoryLabel) int {
	for i, sub := range s.subs {
		if sub.Category == label {
			return i
		}
	}
	return -1
}
