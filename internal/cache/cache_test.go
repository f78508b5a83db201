// Figura - Deterministic Visual Generation Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/figura

package cache

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/tomtom215/figura/internal/schema"
)

func newSpec(t *testing.T, opts ...schema.SpecOption) *schema.VisualSpec {
	t.Helper()
	ds, err := schema.NewDataSpec(schema.DataCategorical, []schema.DataPoint{
		{Label: "Q1", Value: 120},
		{Label: "Q2", Value: 150},
	})
	if err != nil {
		t.Fatalf("NewDataSpec failed: %v", err)
	}
	spec, err := schema.NewVisualSpec("scene-1", schema.IntentBarChart, *ds, opts...)
	if err != nil {
		t.Fatalf("NewVisualSpec failed: %v", err)
	}
	return spec
}

func TestContentHash_StableAcrossIdentityFields(t *testing.T) {
	a := newSpec(t)
	b := newSpec(t, schema.WithPriority(9))
	b.SceneID = "totally-different-scene"
	b.CreatedAt = b.CreatedAt.Add(48 * time.Hour)
	b.EmployeeContext = map[string]interface{}{"role": "analyst"}
	b.LearningObjectives = []string{"read charts"}

	if ContentHash(a) != ContentHash(b) {
		t.Error("Hash must ignore scene_id, created_at, employee_context, learning_objectives, priority")
	}
}

func TestContentHash_StableAcrossPointOrder(t *testing.T) {
	a := newSpec(t)
	b := newSpec(t)
	b.DataSpec.DataPoints = []schema.DataPoint{
		b.DataSpec.DataPoints[1],
		b.DataSpec.DataPoints[0],
	}

	if ContentHash(a) != ContentHash(b) {
		t.Error("Hash must be independent of data point order")
	}
}

func TestContentHash_SensitiveFields(t *testing.T) {
	base := ContentHash(newSpec(t))

	tests := []struct {
		name   string
		mutate func(*schema.VisualSpec)
	}{
		{"intent", func(s *schema.VisualSpec) { s.Intent = schema.IntentLineChart }},
		{"label", func(s *schema.VisualSpec) { s.DataSpec.DataPoints[0].Label = "Q9" }},
		{"value", func(s *schema.VisualSpec) { s.DataSpec.DataPoints[0].Value = 999 }},
		{"theme", func(s *schema.VisualSpec) { s.Theme = schema.ThemeMinimal }},
		{"title", func(s *schema.VisualSpec) { s.Title = "Quarterly Revenue" }},
		{"max_width", func(s *schema.VisualSpec) { s.Constraints.MaxWidth = 1200 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newSpec(t)
			tt.mutate(s)
			if ContentHash(s) == base {
				t.Errorf("Hash must change when %s changes", tt.name)
			}
		})
	}
}

func TestKey_Shape(t *testing.T) {
	spec := newSpec(t)
	key := Key(spec)

	if !strings.HasSuffix(key, "_bar_chart_professional") {
		t.Errorf("Expected intent/theme suffix, got %s", key)
	}
	if len(strings.Split(key, "_")[0]) != 64 {
		t.Errorf("Expected 64-char sha256 hex prefix, got %s", key)
	}
}

func TestMemoryStore_PutGetHitBookkeeping(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	err := store.Put(ctx, "k1", &Entry{InstructionsJSON: []byte(`{}`), ValidationPassed: true}, 0)
	if err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	first, err := store.Get(ctx, "k1")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if first.HitCount != 1 {
		t.Errorf("Expected hit count 1, got %d", first.HitCount)
	}

	second, err := store.Get(ctx, "k1")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if second.HitCount != 2 {
		t.Errorf("Expected hit count 2, got %d", second.HitCount)
	}
	if second.ExpiresAt.Sub(second.CreatedAt) != DefaultTTL {
		t.Errorf("Expected default 30-day retention, got %v", second.ExpiresAt.Sub(second.CreatedAt))
	}
}

func TestMemoryStore_ExpiredIsMiss(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	if err := store.Put(ctx, "k1", &Entry{}, time.Millisecond); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	time.Sleep(5 * time.Millisecond)

	if _, err := store.Get(ctx, "k1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound for expired entry, got %v", err)
	}
}

func TestMemoryStore_DeleteExpired(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	_ = store.Put(ctx, "live", &Entry{}, time.Hour)
	_ = store.Put(ctx, "dead1", &Entry{}, time.Millisecond)
	_ = store.Put(ctx, "dead2", &Entry{}, time.Millisecond)
	time.Sleep(5 * time.Millisecond)

	purged, err := store.DeleteExpired(ctx)
	if err != nil {
		t.Fatalf("DeleteExpired failed: %v", err)
	}
	if purged != 2 {
		t.Errorf("Expected 2 purged entries, got %d", purged)
	}
	if store.Len() != 1 {
		t.Errorf("Expected 1 remaining entry, got %d", store.Len())
	}
}

func TestMemoryStore_OverwriteIsIdempotent(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	_ = store.Put(ctx, "k1", &Entry{GenerationTimeMs: 10}, time.Hour)
	if err := store.Put(ctx, "k1", &Entry{GenerationTimeMs: 20}, time.Hour); err != nil {
		t.Fatalf("Duplicate Put must succeed, got %v", err)
	}

	entry, err := store.Get(ctx, "k1")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if entry.GenerationTimeMs != 20 {
		t.Errorf("Expected last write to win, got %d", entry.GenerationTimeMs)
	}
}

func TestBadgerStore_RoundTrip(t *testing.T) {
	store, err := OpenBadgerStore(t.TempDir())
	if err != nil {
		t.Fatalf("OpenBadgerStore failed: %v", err)
	}
	defer store.Close()

	ctx := context.Background()
	entry := &Entry{
		ContentHash:      "abc123",
		InstructionsJSON: []byte(`{"canvas_id":"c1"}`),
		ValidationPassed: true,
		GenerationTimeMs: 42,
	}
	if err := store.Put(ctx, "k1", entry, time.Hour); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	got, err := store.Get(ctx, "k1")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if string(got.InstructionsJSON) != `{"canvas_id":"c1"}` {
		t.Errorf("Instructions JSON mismatch: %s", got.InstructionsJSON)
	}
	if got.HitCount != 1 {
		t.Errorf("Expected hit count 1, got %d", got.HitCount)
	}

	if _, err := store.Get(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound for missing key, got %v", err)
	}
}

func TestBadgerStore_DeleteExpired(t *testing.T) {
	store, err := OpenBadgerStore(t.TempDir())
	if err != nil {
		t.Fatalf("OpenBadgerStore failed: %v", err)
	}
	defer store.Close()

	ctx := context.Background()
	_ = store.Put(ctx, "live", &Entry{}, time.Hour)
	_ = store.Put(ctx, "dead", &Entry{}, time.Millisecond)
	time.Sleep(5 * time.Millisecond)

	purged, err := store.DeleteExpired(ctx)
	if err != nil {
		t.Fatalf("DeleteExpired failed: %v", err)
	}
	if purged != 1 {
		t.Errorf("Expected 1 purged entry, got %d", purged)
	}

	if _, err := store.Get(ctx, "live"); err != nil {
		t.Errorf("Live entry must survive cleanup, got %v", err)
	}
}
