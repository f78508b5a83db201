// Figura - Deterministic Visual Generation Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/figura

package registry

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/tomtom215/figura/internal/render"
	"github.com/tomtom215/figura/internal/schema"
)

func specWithIntent(t *testing.T, intent schema.VisualIntent, pointCount int, opts ...schema.SpecOption) *schema.VisualSpec {
	t.Helper()
	points := make([]schema.DataPoint, pointCount)
	for i := range points {
		points[i] = schema.DataPoint{Label: string(rune('A' + i%26)), Value: float64((i + 1) * 10)}
	}
	ds, err := schema.NewDataSpec(schema.DataCategorical, points)
	if err != nil {
		t.Fatalf("NewDataSpec failed: %v", err)
	}
	spec, err := schema.NewVisualSpec("scene-reg", intent, *ds, opts...)
	if err != nil {
		t.Fatalf("NewVisualSpec failed: %v", err)
	}
	return spec
}

func TestFindMatchingTemplates_IntentExclusive(t *testing.T) {
	r := New()
	spec := specWithIntent(t, schema.IntentBarChart, 4)

	matches := r.FindMatchingTemplates(spec, 0)
	if len(matches) == 0 {
		t.Fatal("Expected bar chart matches")
	}
	for _, m := range matches {
		if m.Template.Intent != schema.IntentBarChart {
			t.Errorf("Template %s has intent %s; matching must be intent-exclusive",
				m.Template.ID, m.Template.Intent)
		}
	}
}

func TestFindMatchingTemplates_DescendingScoreStableTies(t *testing.T) {
	r := NewEmpty()
	build := func(spec *schema.VisualSpec, tuning Tuning) (*schema.CanvasInstructions, error) {
		return render.BuildBarChart(spec.SceneID, []render.ChartPoint{{Label: "a", Value: 1}}, spec.Theme, render.ChartOptions{})
	}
	// Identical scoring profiles: tie broken by registration order.
	r.Register(&Template{ID: "first", Intent: schema.IntentBarChart, Build: build})
	r.Register(&Template{ID: "second", Intent: schema.IntentBarChart, Build: build})
	r.Register(&Template{
		ID: "better", Intent: schema.IntentBarChart,
		DataTypes:  []schema.DataType{schema.DataCategorical},
		PointRange: [2]int{1, 12},
		Build:      build,
	})

	matches := r.FindMatchingTemplates(specWithIntent(t, schema.IntentBarChart, 4), 0)
	if len(matches) != 3 {
		t.Fatalf("Expected 3 matches, got %d", len(matches))
	}
	if matches[0].Template.ID != "better" {
		t.Errorf("Expected highest-scoring template first, got %s", matches[0].Template.ID)
	}
	if matches[1].Template.ID != "first" || matches[2].Template.ID != "second" {
		t.Errorf("Tie must keep registration order, got %s, %s",
			matches[1].Template.ID, matches[2].Template.ID)
	}
	if matches[0].Score <= matches[1].Score {
		t.Error("Expected strictly higher score for the specialized template")
	}
}

func TestFindMatchingTemplates_MaxResults(t *testing.T) {
	r := New()
	matches := r.FindMatchingTemplates(specWithIntent(t, schema.IntentBarChart, 4), 1)
	if len(matches) != 1 {
		t.Errorf("Expected 1 match with maxResults=1, got %d", len(matches))
	}
}

func TestGenerateDeterministicVisual_BarChart(t *testing.T) {
	r := New()
	spec := specWithIntent(t, schema.IntentBarChart, 4, schema.WithTitle("Quarterly", ""))

	start := time.Now()
	ci, err := r.GenerateDeterministicVisual(spec)
	elapsed := time.Since(start)

	if err != nil {
		t.Fatalf("GenerateDeterministicVisual failed: %v", err)
	}
	if ci == nil {
		t.Fatal("Expected a template hit for bar_chart")
	}
	if elapsed > 50*time.Millisecond {
		t.Errorf("Template path took %v; must be single-digit milliseconds", elapsed)
	}

	if _, err := render.NewRenderer().RenderPNG(ci); err != nil {
		t.Errorf("Template output must render: %v", err)
	}
}

func TestGenerateDeterministicVisual_ExplicitMiss(t *testing.T) {
	r := New()
	spec := specWithIntent(t, schema.IntentCustomDiagram, 4)

	ci, err := r.GenerateDeterministicVisual(spec)
	if err != nil {
		t.Fatalf("A miss must not be an error, got %v", err)
	}
	if ci != nil {
		t.Error("custom_diagram has no template; expected explicit miss")
	}
}

func TestGenerateDeterministicVisual_ThresholdMiss(t *testing.T) {
	tuning := DefaultTuning()
	tuning.AcceptanceThreshold = 0.99
	r := New(WithTuning(tuning))

	ci, err := r.GenerateDeterministicVisual(specWithIntent(t, schema.IntentBarChart, 4))
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if ci != nil {
		t.Error("Expected miss when no template clears a 0.99 threshold")
	}
}

func TestGenerateDeterministicVisual_AllBuiltinsRender(t *testing.T) {
	r := New()
	renderer := render.NewRenderer()

	intents := []struct {
		intent schema.VisualIntent
		points int
	}{
		{schema.IntentBarChart, 4},
		{schema.IntentLineChart, 6},
		{schema.IntentPieChart, 4},
		{schema.IntentScatterPlot, 10},
		{schema.IntentTimeline, 5},
		{schema.IntentProcessFlow, 4},
	}

	for _, tc := range intents {
		t.Run(string(tc.intent), func(t *testing.T) {
			spec := specWithIntent(t, tc.intent, tc.points, schema.WithTitle("Demo", ""))
			ci, err := r.GenerateDeterministicVisual(spec)
			if err != nil {
				t.Fatalf("Build failed: %v", err)
			}
			if ci == nil {
				t.Fatal("Expected a builtin template hit")
			}
			if _, err := renderer.RenderPNG(ci); err != nil {
				t.Errorf("Render failed: %v", err)
			}
		})
	}
}

func TestGenerateDeterministicVisual_RespectsConstraints(t *testing.T) {
	c := schema.DefaultConstraints()
	c.MaxWidth = 400
	c.MaxHeight = 300
	spec := specWithIntent(t, schema.IntentBarChart, 3, schema.WithConstraints(c))

	ci, err := New().GenerateDeterministicVisual(spec)
	if err != nil || ci == nil {
		t.Fatalf("Expected template hit, got ci=%v err=%v", ci, err)
	}
	if ci.Width > 400 || ci.Height > 300 {
		t.Errorf("Canvas %dx%d exceeds constraint bounds 400x300", ci.Width, ci.Height)
	}
}

func TestLoadTuning_OverridesAndDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tuning.yaml")
	content := "acceptance_threshold: 0.8\npie_segments: 96\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write tuning file: %v", err)
	}

	tuning, err := LoadTuning(path)
	if err != nil {
		t.Fatalf("LoadTuning failed: %v", err)
	}
	if tuning.AcceptanceThreshold != 0.8 {
		t.Errorf("Expected overridden threshold 0.8, got %g", tuning.AcceptanceThreshold)
	}
	if tuning.PieSegments != 96 {
		t.Errorf("Expected overridden pie_segments 96, got %d", tuning.PieSegments)
	}
	if tuning.CanvasWidth != DefaultTuning().CanvasWidth {
		t.Errorf("Unset fields must keep defaults, got width %d", tuning.CanvasWidth)
	}
}

func TestLoadTuning_InvalidValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tuning.yaml")
	if err := os.WriteFile(path, []byte("bar_width_ratio: 3.0\n"), 0o600); err != nil {
		t.Fatalf("write tuning file: %v", err)
	}

	if _, err := LoadTuning(path); err == nil {
		t.Error("Expected validation error for bar_width_ratio > 1")
	}
}

func TestLoadTuning_MissingFile(t *testing.T) {
	if _, err := LoadTuning("/nonexistent/tuning.yaml"); err == nil {
		t.Error("Expected error for missing tuning file")
	}
}
