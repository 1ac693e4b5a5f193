// Newsync - Newsletter Subscription Sync Service
// Copyright 2026 Hyunwoo P. (hyunwoo-dev)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/hyunwoo-dev/newsync

// Package metrics provides Prometheus instrumentation for Newsync.
//
// All metrics are registered at package initialization via promauto and
// exposed on GET /metrics by the HTTP router.
package metrics
