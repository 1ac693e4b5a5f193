// Newsync - Newsletter Subscription Sync Service
// Copyright 2026 Hyunwoo P. (hyunwoo-dev)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/hyunwoo-dev/newsync

/*
manager.go - Per-User Subscription Manager

The manager owns all per-user subscription state and drives the two
operations the API exposes: reading the subscription list and toggling a
category. It composes the Set (local state), the Reconciler (snapshot
folding with fetch fencing), the backend client, and the snapshot store.

Toggle flow:
 1. Guard locally (already subscribed, not subscribed, category cap)
 2. Apply the change optimistically to the local set
 3. Call the backend
 4. On failure or denial, roll the local change back
 5. On success, publish a change event and schedule two refreshes:
    one immediately, one after the settle delay so the backend's
    eventually-consistent read path has caught up

Read flow:
 1. Fetch from the backend and reconcile into the local set
 2. On backend unavailability, serve the last persisted snapshot with
    the fallback flag set
*/

package subscription

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/hyunwoo-dev/newsync/internal/config"
	"github.com/hyunwoo-dev/newsync/internal/logging"
	"github.com/hyunwoo-dev/newsync/internal/metrics"
	"github.com/hyunwoo-dev/newsync/internal/models"
	"github.com/hyunwoo-dev/newsync/internal/upstream"
)

// User identifies the caller of a manager operation. Token is the bearer
// token forwarded to the backend; Email is optional and passed through on
// toggles for backends that key subscriptions by address.
type User struct {
	ID    string
	Email string
	Token string
}

// SnapshotStore persists the last known good subscription list per user
// so reads can degrade gracefully when the backend is down.
type SnapshotStore interface {
	Save(userID string, subs []models.Subscription) error
	Load(userID string) ([]models.Subscription, time.Time, error)
}

// EventPublisher receives subscription change notifications. Implemented
// by the session event bus; a nil publisher disables events.
type EventPublisher interface {
	SubscriptionsChanged(userID string, subs []models.Subscription)
}

// ListResult is the outcome of a subscription list read.
type ListResult struct {
	Subscriptions []models.Subscription

	// Fallback is true when the data is degraded: either the backend
	// flagged its own payload, or the list was served from the local
	// snapshot because the backend was unreachable.
	Fallback bool
}

// ToggleOutcome is the outcome of a successful toggle.
type ToggleOutcome struct {
	Subscriptions []models.Subscription
	Fallback      bool
	Message       string
}

// refreshTimeout bounds the background refreshes a toggle schedules.
const refreshTimeout = 10 * time.Second

// Manager owns per-user subscription state.
//
// Thread Safety: safe for concurrent use. Toggles for the same user are
// serialized; operations for different users proceed independently.
type Manager struct {
	backend upstream.Backend
	store   SnapshotStore
	events  EventPublisher
	cfg     config.SyncConfig

	mu       sync.Mutex
	sessions map[string]*userState

	wg   sync.WaitGroup
	done chan struct{}
}

// userState is the per-user slice of manager state.
type userState struct {
	// mu serializes toggles and snapshot applies: two concurrent toggles
	// must not interleave their guard checks and optimistic updates, and
	// a fetched snapshot must not land inside a toggle's guard-to-fence
	// window.
	mu sync.Mutex

	set *Set
	rec *Reconciler

	// limiter throttles background refreshes for this user.
	limiter *rate.Limiter

	// Latest credentials, for refreshes that run outside a request.
	email string
	token string
}

// NewManager creates a subscription manager. store and events may be nil.
func NewManager(backend upstream.Backend, store SnapshotStore, events EventPublisher, cfg config.SyncConfig) *Manager {
	return &Manager{
		backend:  backend,
		store:    store,
		events:   events,
		cfg:      cfg,
		sessions: make(map[string]*userState),
		done:     make(chan struct{}),
	}
}

// Close stops scheduled refreshes and waits for in-flight ones.
func (m *Manager) Close() {
	close(m.done)
	m.wg.Wait()
}

// state returns the per-user state, creating it on first use and
// refreshing the stored credentials.
func (m *Manager) state(user User) *userState {
	m.mu.Lock()
	defer m.mu.Unlock()

	st, ok := m.sessions[user.ID]
	if !ok {
		set := NewSet()
		st = &userState{
			set:     set,
			rec:     NewReconciler(set),
			limiter: rate.NewLimiter(rate.Every(time.Second), m.cfg.RefreshBurst),
		}
		m.sessions[user.ID] = st
	}
	st.email = user.Email
	st.token = user.Token
	return st
}

// Subscriptions fetches the user's subscription list, reconciles it into
// the local set, and returns the result.
//
// When the backend is unavailable the last persisted snapshot is served
// with Fallback set. Authentication errors always propagate; stale data
// is no substitute for a session.
func (m *Manager) Subscriptions(ctx context.Context, user User) (*ListResult, error) {
	st := m.state(user)

	seq := st.rec.Begin()
	result, err := m.backend.FetchSubscriptions(ctx, user.Token)
	if err != nil {
		if errors.Is(err, upstream.ErrAuthRequired) {
			return nil, err
		}
		return m.serveSnapshot(user, err)
	}

	// The apply must hold the toggle lock: a snapshot landing inside a
	// toggle's guard-to-fence window would bypass the cap check or wipe
	// the optimistic edit before the fence covers it.
	st.mu.Lock()
	defer st.mu.Unlock()

	if outcome := st.rec.Apply(seq, result.Subscriptions); outcome == OutcomeApplied {
		m.persist(user.ID, st)
		m.publish(user.ID, st)
	}

	return &ListResult{
		Subscriptions: st.set.Snapshot(),
		Fallback:      result.Fallback,
	}, nil
}

// serveSnapshot answers a failed read from the persisted snapshot, or
// propagates the fetch error when no snapshot exists.
func (m *Manager) serveSnapshot(user User, fetchErr error) (*ListResult, error) {
	if m.store == nil {
		return nil, fetchErr
	}

	subs, savedAt, err := m.store.Load(user.ID)
	if err != nil {
		logging.Warn().
			Str("user_id", user.ID).
			AnErr("fetch_error", fetchErr).
			AnErr("snapshot_error", err).
			Msg("Backend unavailable and no snapshot to serve")
		return nil, fetchErr
	}

	reason := "upstream_unavailable"
	if errors.Is(fetchErr, upstream.ErrNetwork) {
		reason = "upstream_unreachable"
	}
	metrics.SnapshotServedTotal.WithLabelValues(reason).Inc()

	logging.Info().
		Str("user_id", user.ID).
		Time("snapshot_saved_at", savedAt).
		AnErr("fetch_error", fetchErr).
		Msg("Serving subscriptions from persisted snapshot")

	return &ListResult{Subscriptions: subs, Fallback: true}, nil
}

// Toggle subscribes or unsubscribes a category for the user.
func (m *Manager) Toggle(ctx context.Context, user User, label models.CategoryLabel, isActive bool) (*ToggleOutcome, error) {
	if !models.IsValidCategoryLabel(label) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidCategory, label)
	}

	action := "unsubscribe"
	if isActive {
		action = "subscribe"
	}

	st := m.state(user)
	st.mu.Lock()
	defer st.mu.Unlock()

	// Local guards.
	if isActive {
		if st.set.Contains(label) {
			metrics.ToggleTotal.WithLabelValues(action, "rejected").Inc()
			return nil, fmt.Errorf("%w: %s", ErrAlreadySubscribed, label)
		}
		if st.set.Len() >= m.cfg.MaxSubscriptions {
			metrics.ToggleTotal.WithLabelValues(action, "rejected").Inc()
			return nil, fmt.Errorf("%w: cap is %d", ErrCategoryLimitExceeded, m.cfg.MaxSubscriptions)
		}
	} else if !st.set.Contains(label) {
		metrics.ToggleTotal.WithLabelValues(action, "rejected").Inc()
		return nil, fmt.Errorf("%w: %s", ErrNotSubscribed, label)
	}

	// Optimistic local apply.
	var removed models.Subscription
	if isActive {
		st.set.Add(models.Subscription{
			Category:     label,
			Frequency:    models.FrequencyDaily,
			SubscribedAt: time.Now().UTC(),
		})
	} else {
		removed, _ = st.set.Remove(label)
	}
	// Any fetch already in flight predates this local intent and must
	// not be allowed to overwrite it.
	st.rec.Fence()

	rollback := func() {
		if isActive {
			st.set.Remove(label)
		} else {
			st.set.Add(removed)
		}
		metrics.ToggleRollbacksTotal.Inc()
	}

	result, err := m.backend.Toggle(ctx, user.Token, models.ToBackendCode(label), isActive, user.Email)
	if err != nil {
		rollback()
		metrics.ToggleTotal.WithLabelValues(action, "error").Inc()
		return nil, err
	}
	if !result.Success {
		rollback()
		metrics.ToggleTotal.WithLabelValues(action, "denied").Inc()
		return nil, denialError(result)
	}

	metrics.ToggleTotal.WithLabelValues(action, "success").Inc()
	logging.Ctx(ctx).Info().
		Str("action", action).
		Str("category", string(label)).
		Bool("fallback", result.Fallback).
		Msg("Toggle applied")

	m.persist(user.ID, st)
	m.publish(user.ID, st)

	// Two refreshes: one now to pick up the authoritative state, one
	// after the settle delay for the backend's lagging read path. On a
	// fallback soft-success these are what eventually correct the
	// optimistic guess.
	m.scheduleRefresh(user, 0)
	m.scheduleRefresh(user, m.cfg.SettleDelay)

	return &ToggleOutcome{
		Subscriptions: st.set.Snapshot(),
		Fallback:      result.Fallback,
		Message:       result.Message,
	}, nil
}

// denialError maps a backend denial code onto the local guard errors so
// callers have a single taxonomy to branch on.
func denialError(result *upstream.ToggleResult) error {
	msg := result.Message
	if msg == "" {
		msg = "toggle rejected"
	}
	switch result.Code {
	case "CATEGORY_LIMIT_EXCEEDED":
		return fmt.Errorf("%w: %s", ErrCategoryLimitExceeded, msg)
	case "ALREADY_SUBSCRIBED":
		return fmt.Errorf("%w: %s", ErrAlreadySubscribed, msg)
	case "NOT_SUBSCRIBED":
		return fmt.Errorf("%w: %s", ErrNotSubscribed, msg)
	default:
		return fmt.Errorf("backend rejected toggle (%s): %s", result.Code, msg)
	}
}

// Refresh re-fetches and reconciles one user's subscriptions, subject to
// the per-user rate limit. Used by the background refresh service.
func (m *Manager) Refresh(ctx context.Context, userID string) {
	m.mu.Lock()
	st, ok := m.sessions[userID]
	m.mu.Unlock()
	if !ok {
		return
	}
	m.refresh(ctx, userID, st)
}

// ActiveUsers lists users with manager state, for the refresh service.
func (m *Manager) ActiveUsers() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	users := make([]string, 0, len(m.sessions))
	for id := range m.sessions {
		users = append(users, id)
	}
	return users
}

// scheduleRefresh runs a rate-limited refresh after the given delay.
func (m *Manager) scheduleRefresh(user User, delay time.Duration) {
	userID := user.ID
	m.wg.Add(1)
	go func() {
		defer m.wg.Done()

		if delay > 0 {
			timer := time.NewTimer(delay)
			defer timer.Stop()
			select {
			case <-m.done:
				return
			case <-timer.C:
			}
		}

		ctx, cancel := context.WithTimeout(context.Background(), refreshTimeout)
		defer cancel()
		m.Refresh(ctx, userID)
	}()
}

// refresh performs one rate-limited fetch and reconcile.
func (m *Manager) refresh(ctx context.Context, userID string, st *userState) {
	if !st.limiter.Allow() {
		logging.Debug().Str("user_id", userID).Msg("Refresh suppressed by rate limiter")
		return
	}

	seq := st.rec.Begin()
	result, err := m.backend.FetchSubscriptions(ctx, st.token)
	if err != nil {
		logging.Warn().Str("user_id", userID).Err(err).Msg("Background refresh failed")
		return
	}

	// Same locking rule as Subscriptions: never apply a snapshot while a
	// toggle is between its guard checks and its fence.
	st.mu.Lock()
	defer st.mu.Unlock()

	if outcome := st.rec.Apply(seq, result.Subscriptions); outcome == OutcomeApplied {
		m.persist(userID, st)
		m.publish(userID, st)
	}
}

// persist saves the current set to the snapshot store, best effort.
func (m *Manager) persist(userID string, st *userState) {
	if m.store == nil {
		return
	}
	if err := m.store.Save(userID, st.set.Snapshot()); err != nil {
		logging.Warn().Str("user_id", userID).Err(err).Msg("Failed to persist subscription snapshot")
	}
}

// publish notifies listeners of the current set, best effort.
func (m *Manager) publish(userID string, st *userState) {
	if m.events == nil {
		return
	}
	m.events.SubscriptionsChanged(userID, st.set.Snapshot())
}
