// Figura - Deterministic Visual Generation Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/figura

package telemetry

import (
	"testing"
	"time"

	"github.com/tomtom215/figura/internal/schema"
)

func sampleRecord(id string, ts time.Time) UsageRecord {
	return UsageRecord{
		RequestID:        id,
		VisualIntent:     schema.IntentBarChart,
		RenderingPath:    schema.PathDeterministicRegistry,
		GenerationTimeMs: 3,
		Success:          true,
		RecordedAt:       ts,
	}
}

func TestBadgerUsageRecorder_RoundTrip(t *testing.T) {
	recorder, err := OpenBadgerUsageRecorder(t.TempDir())
	if err != nil {
		t.Fatalf("Open recorder failed: %v", err)
	}
	defer recorder.Close()

	base := time.Now().UTC()
	for i, id := range []string{"req-1", "req-2", "req-3"} {
		if err := recorder.Record(sampleRecord(id, base.Add(time.Duration(i)*time.Second))); err != nil {
			t.Fatalf("Record %s failed: %v", id, err)
		}
	}

	rows, err := recorder.Recent(2)
	if err != nil {
		t.Fatalf("Recent failed: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("Expected 2 rows, got %d", len(rows))
	}
	if rows[0].RequestID != "req-3" || rows[1].RequestID != "req-2" {
		t.Errorf("Expected newest-first ordering, got %s, %s", rows[0].RequestID, rows[1].RequestID)
	}
	if rows[0].VisualIntent != schema.IntentBarChart {
		t.Errorf("Intent not preserved, got %s", rows[0].VisualIntent)
	}
}

func TestMemoryUsageRecorder(t *testing.T) {
	recorder := NewMemoryUsageRecorder()
	for _, id := range []string{"a", "b", "c"} {
		if err := recorder.Record(sampleRecord(id, time.Time{})); err != nil {
			t.Fatalf("Record failed: %v", err)
		}
	}

	rows, err := recorder.Recent(10)
	if err != nil {
		t.Fatalf("Recent failed: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("Expected 3 rows, got %d", len(rows))
	}
	if rows[0].RequestID != "c" {
		t.Errorf("Expected newest-first, got %s", rows[0].RequestID)
	}
	if rows[0].RecordedAt.IsZero() {
		t.Error("Record must stamp RecordedAt when unset")
	}
}

func TestNewUsageRecord_ProjectsResult(t *testing.T) {
	spec := &schema.VisualSpec{Intent: schema.IntentPieChart}
	result := &schema.GenerationResult{
		Success:          true,
		VisualSpec:       spec,
		RenderingPath:    schema.PathCanvasInstructions,
		GenerationTimeMs: 420,
		ModelUsed:        "gpt-4o",
		TokensUsed:       1234,
		RetryCount:       1,
	}

	rec := NewUsageRecord("req-9", result, 0.0123)
	if rec.VisualIntent != schema.IntentPieChart {
		t.Errorf("Expected intent from spec, got %s", rec.VisualIntent)
	}
	if rec.ModelUsed != "gpt-4o" || rec.TokensUsed != 1234 || rec.CostUSD != 0.0123 {
		t.Error("Model accounting fields not projected")
	}
	if rec.RecordedAt.IsZero() {
		t.Error("Expected RecordedAt to be stamped")
	}
}
