// Figura - Deterministic Visual Generation Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/figura

package cache

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is a thread-safe in-memory Store with TTL support. Used in
// tests and by embedders that do not want an on-disk cache directory.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]*Entry
	stats   MemoryStats
}

// MemoryStats tracks cache performance counters.
type MemoryStats struct {
	Hits      int64
	Misses    int64
	Evictions int64
}

// NewMemoryStore creates an empty in-memory artifact store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]*Entry)}
}

// Get returns the live entry for key or ErrNotFound. Hit bookkeeping is
// in-process and cannot fail.
func (s *MemoryStore) Get(ctx context.Context, key string) (*Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[key]
	if !ok || entry.Expired(time.Now()) {
		s.stats.Misses++
		return nil, ErrNotFound
	}

	entry.HitCount++
	entry.LastAccessedAt = time.Now().UTC()
	s.stats.Hits++

	cp := *entry
	return &cp, nil
}

// Put stores entry under key with the given TTL (DefaultTTL if zero).
func (s *MemoryStore) Put(ctx context.Context, key string, entry *Entry, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	now := time.Now().UTC()
	entry.CacheKey = key
	entry.CreatedAt = now
	entry.LastAccessedAt = now
	entry.ExpiresAt = now.Add(ttl)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[key] = entry
	return nil
}

// DeleteExpired removes expired entries and returns the count.
func (s *MemoryStore) DeleteExpired(ctx context.Context) (int, error) {
	now := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for key, entry := range s.entries {
		if entry.Expired(now) {
			delete(s.entries, key)
			removed++
		}
	}
	s.stats.Evictions += int64(removed)
	return removed, nil
}

// Stats returns a snapshot of the hit/miss counters.
func (s *MemoryStore) Stats() MemoryStats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.stats
}

// Len returns the number of stored entries, expired included.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Close is a no-op for the in-memory store.
func (s *MemoryStore) Close() error { return nil }
