// Figura - Deterministic Visual Generation Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/figura

package cache

import (
	"context"
	"errors"
	"time"
)

// DefaultTTL is the retention window applied when Put is called with a zero
// TTL. Expiry is computed at write time.
const DefaultTTL = 30 * 24 * time.Hour

// ErrNotFound is returned by Get when no live entry exists for a key.
// Expired entries are reported as ErrNotFound, never returned stale.
var ErrNotFound = errors.New("cache entry not found")

// Entry is one cached generation artifact.
type Entry struct {
	CacheKey            string    `json:"cache_key"`
	ContentHash         string    `json:"content_hash"`
	InstructionsJSON    []byte    `json:"canvas_instructions_json,omitempty"`
	RenderedImage       []byte    `json:"rendered_image,omitempty"`
	RenderedImagePath   string    `json:"rendered_image_path,omitempty"`
	GenerationTimeMs    int64     `json:"generation_time_ms"`
	HitCount            int64     `json:"hit_count"`
	ValidationPassed    bool      `json:"validation_passed"`
	CreatedAt           time.Time `json:"created_at"`
	LastAccessedAt      time.Time `json:"last_accessed_at"`
	ExpiresAt           time.Time `json:"expires_at"`
}

// Expired reports whether the entry's retention window has passed.
func (e *Entry) Expired(now time.Time) bool {
	return !e.ExpiresAt.IsZero() && now.After(e.ExpiresAt)
}

// Store is the persistence collaborator for generation artifacts.
//
// Implementations must treat a Put over an existing key as an idempotent
// overwrite (a racing request populated it first; last write wins), and must
// never fail a Get because hit bookkeeping failed.
type Store interface {
	// Get returns the live entry for key, or ErrNotFound. A successful Get
	// increments the entry's hit counter and refreshes last-access time as a
	// best-effort side effect.
	Get(ctx context.Context, key string) (*Entry, error)

	// Put stores the entry under key with the given TTL (DefaultTTL if zero).
	Put(ctx context.Context, key string, entry *Entry, ttl time.Duration) error

	// DeleteExpired purges expired entries and returns how many were removed.
	DeleteExpired(ctx context.Context) (int, error)

	// Close releases underlying resources.
	Close() error
}
