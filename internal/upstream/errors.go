// Newsync - Newsletter Subscription Sync Service
// Copyright 2026 Hyunwoo P. (hyunwoo-dev)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/hyunwoo-dev/newsync

package upstream

import "errors"

// Error taxonomy for newsletter backend calls. Callers branch on these
// with errors.Is; everything else wraps one of them or is a programming
// error.
var (
	// ErrAuthRequired means the backend rejected the session (HTTP 401
	// or 403). Not retryable; the user has to sign in again.
	ErrAuthRequired = errors.New("upstream: authentication required")

	// ErrServiceUnavailable means the backend answered but is unhealthy
	// (HTTP 5xx) or the circuit breaker is open. Retryable later.
	ErrServiceUnavailable = errors.New("upstream: service unavailable")

	// ErrNetwork means the request never produced an HTTP response
	// (DNS failure, connection refused, timeout). Retried once before
	// being surfaced.
	ErrNetwork = errors.New("upstream: network error")
)
