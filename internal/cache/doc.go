// Figura - Deterministic Visual Generation Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/figura

// Package cache implements the content-hash keyed artifact cache consulted
// before any generation strategy runs.
//
// The hashing contract is the load-bearing part: ContentHash covers only the
// normalized semantic projection of a VisualSpec (intent, label-sorted data
// points, theme, title, canvas bounds) and excludes caller identity fields
// (scene_id, created_at, employee_context, learning_objectives, priority).
// Two requests that differ only in identity fields therefore share one cache
// entry regardless of who asked.
//
// Two Store implementations are provided: a BadgerDB-backed store for
// persistence across restarts, and an in-memory TTL map for tests and
// short-lived embedding. Both filter expired entries as misses and treat hit
// bookkeeping as best-effort (a failed hit-count update never fails the
// lookup).
package cache
