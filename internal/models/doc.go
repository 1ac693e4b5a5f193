// Newsync - Newsletter Subscription Sync Service
// Copyright 2026 Hyunwoo P. (hyunwoo-dev)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/hyunwoo-dev/newsync

// Package models provides data structures shared across the Newsync application:
// the category vocabulary and its backend code mapping, the canonical
// Subscription entity with wire-shape normalization, and the standardized
// API response envelope.
package models
