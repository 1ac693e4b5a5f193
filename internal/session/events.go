// Newsync - Newsletter Subscription Sync Service
// Copyright 2026 Hyunwoo P. (hyunwoo-dev)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/hyunwoo-dev/newsync

// Package session carries cross-cutting state changes (sign-in state,
// subscription changes) over an in-process pub-sub bus so independent
// consumers react to one event without knowing about each other.
package session

import (
	"time"

	"github.com/hyunwoo-dev/newsync/internal/models"
)

// Topic names on the bus.
const (
	TopicAuthChanged          = "session.auth.changed"
	TopicSubscriptionsChanged = "session.subscriptions.changed"
)

// AuthEvent announces a sign-in state change for a user.
type AuthEvent struct {
	UserID    string    `json:"user_id"`
	SignedIn  bool      `json:"signed_in"`
	Timestamp time.Time `json:"timestamp"`
}

// SubscriptionEvent announces the user's current subscription list after
// a change. It carries the whole list, not a delta, so consumers never
// have to replay history.
type SubscriptionEvent struct {
	UserID        string                `json:"user_id"`
	Subscriptions []models.Subscription `json:"subscriptions"`
	Timestamp     time.Time             `json:"timestamp"`
}
