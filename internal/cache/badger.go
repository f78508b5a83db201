// Figura - Deterministic Visual Generation Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/figura

package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"

	"github.com/tomtom215/figura/internal/logging"
)

// Key prefix for artifact entries in BadgerDB.
const artifactKeyPrefix = "artifact:"

// BadgerStore implements Store using BadgerDB for durable storage. Suitable
// for production use with persistence across restarts.
type BadgerStore struct {
	db *badger.DB
}

// NewBadgerStore creates a BadgerDB-backed artifact store over an already
// opened database handle. The caller owns db lifecycle unless Close is used.
func NewBadgerStore(db *badger.DB) *BadgerStore {
	return &BadgerStore{db: db}
}

// OpenBadgerStore opens (or creates) a BadgerDB at dir and wraps it in a
// store. Badger's own logger is silenced in favor of zerolog.
func OpenBadgerStore(dir string) (*BadgerStore, error) {
	opts := badger.DefaultOptions(dir).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open artifact cache at %s: %w", dir, err)
	}
	return &BadgerStore{db: db}, nil
}

// Get retrieves the live entry for key. Expired entries are treated as a
// miss. Hit-count and last-access updates run in a follow-up transaction;
// a failure there is logged and swallowed.
func (s *BadgerStore) Get(ctx context.Context, key string) (*Entry, error) {
	var entry Entry

	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(artifactKeyPrefix + key))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("get artifact: %w", err)
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &entry)
		})
	})
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	if entry.Expired(time.Now()) {
		return nil, ErrNotFound
	}

	// Best-effort bookkeeping: a conflict or write error must not fail the hit.
	entry.HitCount++
	entry.LastAccessedAt = time.Now().UTC()
	if err := s.writeEntry(key, &entry); err != nil {
		logging.Warn().Err(err).Str("cache_key", key).Msg("cache hit bookkeeping failed")
	}

	return &entry, nil
}

// Put stores entry under key. Overwriting an existing key is an idempotent
// no-op from the caller's perspective (racing writers both succeed).
func (s *BadgerStore) Put(ctx context.Context, key string, entry *Entry, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	now := time.Now().UTC()
	entry.CacheKey = key
	entry.CreatedAt = now
	entry.LastAccessedAt = now
	entry.ExpiresAt = now.Add(ttl)

	if err := s.writeEntry(key, entry); err != nil {
		return fmt.Errorf("put artifact %s: %w", key, err)
	}
	return nil
}

// writeEntry marshals and stores one entry.
func (s *BadgerStore) writeEntry(key string, entry *Entry) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshal entry: %w", err)
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(artifactKeyPrefix+key), data)
	})
}

// DeleteExpired scans the artifact prefix and removes entries past their
// expiry. Returns the number purged.
func (s *BadgerStore) DeleteExpired(ctx context.Context) (int, error) {
	now := time.Now()
	var expired [][]byte

	err := s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefix := []byte(artifactKeyPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			item := it.Item()
			var entry Entry
			if err := item.Value(func(val []byte) error {
				return json.Unmarshal(val, &entry)
			}); err != nil {
				// Undecodable rows are purged with the expired set.
				expired = append(expired, item.KeyCopy(nil))
				continue
			}
			if entry.Expired(now) {
				expired = append(expired, item.KeyCopy(nil))
			}
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("scan expired artifacts: %w", err)
	}

	for _, key := range expired {
		key := key
		if err := s.db.Update(func(txn *badger.Txn) error {
			return txn.Delete(key)
		}); err != nil {
			return 0, fmt.Errorf("delete expired artifact: %w", err)
		}
	}

	if len(expired) > 0 {
		logging.Info().Int("count", len(expired)).Msg("purged expired cache entries")
	}
	return len(expired), nil
}

// Close closes the underlying BadgerDB.
func (s *BadgerStore) Close() error {
	return s.db.Close()
}
