// Newsync - Newsletter Subscription Sync Service
// Copyright 2026 Hyunwoo P. (hyunwoo-dev)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/hyunwoo-dev/newsync

// Package store persists last-known-good subscription snapshots in
// BadgerDB so reads can degrade gracefully while the newsletter backend
// is down.
package store

import (
	"errors"
	"fmt"
	"time"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"

	"github.com/hyunwoo-dev/newsync/internal/logging"
	"github.com/hyunwoo-dev/newsync/internal/models"
)

// ErrNoSnapshot means no snapshot exists for the user (never saved, or
// expired past the TTL).
var ErrNoSnapshot = errors.New("store: no snapshot")

// snapshotPrefix namespaces snapshot keys in the shared Badger keyspace.
const snapshotPrefix = "snapshot:"

// snapshotRecord is the persisted envelope.
type snapshotRecord struct {
	Subscriptions []models.Subscription `json:"subscriptions"`
	SavedAt       time.Time             `json:"saved_at"`
}

// SnapshotStore stores one subscription snapshot per user.
//
// Thread Safety: safe for concurrent use; Badger transactions provide
// isolation.
type SnapshotStore struct {
	db  *badger.DB
	ttl time.Duration
}

// Open opens a snapshot store at the given path. An empty path opens an
// in-memory store, used by tests and ephemeral deployments.
func Open(path string, ttl time.Duration) (*SnapshotStore, error) {
	opts := badger.DefaultOptions(path)
	if path == "" {
		opts = opts.WithInMemory(true)
	}
	// Badger's default logger writes unstructured lines to stderr.
	opts = opts.WithLogger(badgerLogger{})

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open snapshot store: %w", err)
	}
	return &SnapshotStore{db: db, ttl: ttl}, nil
}

// Close closes the underlying database.
func (s *SnapshotStore) Close() error {
	return s.db.Close()
}

// Save persists the user's subscription snapshot, replacing any previous
// one. Snapshots expire after the configured TTL.
func (s *SnapshotStore) Save(userID string, subs []models.Subscription) error {
	record := snapshotRecord{
		Subscriptions: subs,
		SavedAt:       time.Now().UTC(),
	}
	value, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}

	return s.db.Update(func(txn *badger.Txn) error {
		entry := badger.NewEntry([]byte(snapshotPrefix+userID), value)
		if s.ttl > 0 {
			entry = entry.WithTTL(s.ttl)
		}
		return txn.SetEntry(entry)
	})
}

// Load returns the user's snapshot and when it was saved.
func (s *SnapshotStore) Load(userID string) ([]models.Subscription, time.Time, error) {
	var record snapshotRecord

	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(snapshotPrefix + userID))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &record)
		})
	})
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, time.Time{}, ErrNoSnapshot
		}
		return nil, time.Time{}, fmt.Errorf("failed to load snapshot: %w", err)
	}

	return record.Subscriptions, record.SavedAt, nil
}

// Delete removes the user's snapshot, if any.
func (s *SnapshotStore) Delete(userID string) error {
	return s.db.Update(func(txn *badger.Txn) error {
		err := txn.Delete([]byte(snapshotPrefix + userID))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		return err
	})
}

// RunGC runs one round of Badger value log garbage collection. Callers
// run this periodically; ErrNoRewrite is normal and swallowed.
func (s *SnapshotStore) RunGC() {
	if s.db.Opts().InMemory {
		return
	}
	if err := s.db.RunValueLogGC(0.5); err != nil && !errors.Is(err, badger.ErrNoRewrite) {
		logging.Warn().Err(err).Msg("Badger value log GC failed")
	}
}

// badgerLogger routes Badger's internal logging into zerolog.
type badgerLogger struct{}

func (badgerLogger) Errorf(format string, args ...interface{}) {
	logging.Error().Msgf("badger: "+format, args...)
}

func (badgerLogger) Warningf(format string, args ...interface{}) {
	logging.Warn().Msgf("badger: "+format, args...)
}

func (badgerLogger) Infof(format string, args ...interface{}) {
	logging.Debug().Msgf("badger: "+format, args...)
}

func (badgerLogger) Debugf(format string, args ...interface{}) {
	logging.Debug().Msgf("badger: "+format, args...)
}
