// Newsync - Newsletter Subscription Sync Service
// Copyright 2026 Hyunwoo P. (hyunwoo-dev)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/hyunwoo-dev/newsync

package subscription

import (
	"hash/fnv"
	"sort"
	"sync"

	"github.com/hyunwoo-dev/newsync/internal/logging"
	"github.com/hyunwoo-dev/newsync/internal/metrics"
	"github.com/hyunwoo-dev/newsync/internal/models"
)

// Outcome classifies what a reconciliation attempt did.
type Outcome string

const (
	// OutcomeApplied means the snapshot replaced the local set.
	OutcomeApplied Outcome = "applied"

	// OutcomeUnchanged means the snapshot fingerprint matched the last
	// applied one, so the local set was left alone.
	OutcomeUnchanged Outcome = "unchanged"

	// OutcomeFenced means a newer fetch already applied, so this stale
	// result was discarded.
	OutcomeFenced Outcome = "fenced"
)

// Reconciler folds backend subscription snapshots into a Set.
//
// Each fetch must call Begin before issuing the request and pass the
// returned sequence number to Apply with the result. Sequence numbers
// fence out-of-order completions: a result whose sequence is at or below
// the last applied one is discarded, so a slow early fetch can never
// clobber the outcome of a later one.
//
// Snapshots are compared by an order-independent fingerprint of the
// category labels. A matching fingerprint skips the replace entirely,
// which keeps a steady-state refresh from churning the set (and anything
// watching it) every interval.
type Reconciler struct {
	mu sync.Mutex

	set *Set

	nextSeq    uint64
	appliedSeq uint64

	lastFingerprint uint64
	hasApplied      bool
}

// NewReconciler creates a reconciler writing into the given set.
func NewReconciler(set *Set) *Reconciler {
	return &Reconciler{set: set}
}

// Begin allocates the sequence number for a fetch about to be issued.
func (r *Reconciler) Begin() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextSeq++
	return r.nextSeq
}

// Apply reconciles a fetched snapshot into the set.
func (r *Reconciler) Apply(seq uint64, subs []models.Subscription) Outcome {
	r.mu.Lock()
	defer r.mu.Unlock()

	if seq <= r.appliedSeq {
		metrics.ReconcileTotal.WithLabelValues(string(OutcomeFenced)).Inc()
		logging.Debug().
			Uint64("seq", seq).
			Uint64("applied_seq", r.appliedSeq).
			Msg("Discarding stale fetch result")
		return OutcomeFenced
	}

	fp := Fingerprint(subs)
	if r.hasApplied && fp == r.lastFingerprint {
		// Same remote state as last time. Record the sequence so an even
		// older in-flight fetch still gets fenced, but keep the set as is.
		r.appliedSeq = seq
		metrics.ReconcileTotal.WithLabelValues(string(OutcomeUnchanged)).Inc()
		return OutcomeUnchanged
	}

	r.set.Replace(subs)
	r.appliedSeq = seq
	r.lastFingerprint = fp
	r.hasApplied = true

	metrics.ReconcileTotal.WithLabelValues(string(OutcomeApplied)).Inc()
	logging.Debug().
		Uint64("seq", seq).
		Int("categories", len(subs)).
		Msg("Applied subscription snapshot")
	return OutcomeApplied
}

// Fence marks every fetch issued so far as stale. Called on a local
// optimistic mutation: results of fetches that started before the
// mutation describe pre-toggle state and must not overwrite it, no
// matter when they arrive. Also forgets the fingerprint, since it no
// longer describes the set's contents.
func (r *Reconciler) Fence() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.appliedSeq = r.nextSeq
	r.hasApplied = false
}

// Fingerprint computes an order-independent hash of a snapshot's
// category labels. Two snapshots with the same categories in any order
// produce the same fingerprint.
func Fingerprint(subs []models.Subscription) uint64 {
	labels := make([]string, len(subs))
	for i, sub := range subs {
		labels[i] = string(sub.Category)
	}
	sort.Strings(labels)

	h := fnv.New64a()
	for _, label := range labels {
		h.Write([]byte(label)) //nolint:errcheck // fnv Write never fails
		h.Write([]byte{0})     //nolint:errcheck // separator guards against joins colliding
	}
	return h.Sum64()
}
