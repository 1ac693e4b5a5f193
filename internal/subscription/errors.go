// Newsync - Newsletter Subscription Sync Service
// Copyright 2026 Hyunwoo P. (hyunwoo-dev)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/hyunwoo-dev/newsync

package subscription

import "errors"

// Toggle guard errors. These fire locally, before any backend call, so a
// doomed request never leaves the process.
var (
	// ErrAlreadySubscribed means a subscribe was attempted for a category
	// already in the set.
	ErrAlreadySubscribed = errors.New("subscription: already subscribed")

	// ErrNotSubscribed means an unsubscribe was attempted for a category
	// not in the set.
	ErrNotSubscribed = errors.New("subscription: not subscribed")

	// ErrCategoryLimitExceeded means a subscribe would push the set past
	// the per-user category cap.
	ErrCategoryLimitExceeded = errors.New("subscription: category limit exceeded")

	// ErrInvalidCategory means the category label is not one of the
	// known newsletter categories.
	ErrInvalidCategory = errors.New("subscription: invalid category")
)
