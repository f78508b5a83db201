// Figura - Deterministic Visual Generation Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/figura

package schema

import (
	"errors"
	"strings"
	"testing"
)

func mustDataSpec(t *testing.T, points []DataPoint) DataSpec {
	t.Helper()
	ds, err := NewDataSpec(DataCategorical, points)
	if err != nil {
		t.Fatalf("NewDataSpec failed: %v", err)
	}
	return *ds
}

func quarterPoints() []DataPoint {
	return []DataPoint{
		{Label: "Q1", Value: 120},
		{Label: "Q2", Value: 150},
		{Label: "Q3", Value: 180},
		{Label: "Q4", Value: 200},
	}
}

func TestNewDataSpec_EmptyPoints(t *testing.T) {
	_, err := NewDataSpec(DataCategorical, nil)
	if err == nil {
		t.Fatal("Expected error for empty data points")
	}
	if !errors.Is(err, ErrValidation) {
		t.Errorf("Expected ErrValidation, got %v", err)
	}
}

func TestNewDataSpec_UnknownDataType(t *testing.T) {
	_, err := NewDataSpec(DataType("fractal"), quarterPoints())
	if err == nil {
		t.Fatal("Expected error for unknown data type")
	}
}

func TestDataPoint_NumericValue(t *testing.T) {
	tests := []struct {
		value   interface{}
		want    float64
		numeric bool
	}{
		{120, 120, true},
		{int64(7), 7, true},
		{3.5, 3.5, true},
		{float32(2), 2, true},
		{"high", 0, false},
		{nil, 0, false},
	}

	for _, tt := range tests {
		p := DataPoint{Label: "x", Value: tt.value}
		got, ok := p.NumericValue()
		if ok != tt.numeric || got != tt.want {
			t.Errorf("NumericValue(%v) = (%g,%v), want (%g,%v)", tt.value, got, ok, tt.want, tt.numeric)
		}
	}
}

func TestDataSpec_SortedByLabel_DoesNotMutate(t *testing.T) {
	ds := mustDataSpec(t, []DataPoint{
		{Label: "b", Value: 2},
		{Label: "a", Value: 1},
	})

	sorted := ds.SortedByLabel()
	if sorted[0].Label != "a" || sorted[1].Label != "b" {
		t.Errorf("Expected sorted order [a b], got [%s %s]", sorted[0].Label, sorted[1].Label)
	}
	if ds.DataPoints[0].Label != "b" {
		t.Error("SortedByLabel must not mutate the receiver")
	}
}

func TestNewConstraints_RangeViolations(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Constraints)
	}{
		{"width too small", func(c *Constraints) { c.MaxWidth = 100 }},
		{"width too large", func(c *Constraints) { c.MaxWidth = 4000 }},
		{"height too large", func(c *Constraints) { c.MaxHeight = 2000 }},
		{"font floor too small", func(c *Constraints) { c.MinFontSize = 4 }},
		{"timeout too small", func(c *Constraints) { c.RenderTimeoutMs = 100 }},
		{"memory too large", func(c *Constraints) { c.MemoryLimitMb = 4096 }},
		{"text length too small", func(c *Constraints) { c.MaxTextLength = 5 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := DefaultConstraints()
			tt.mutate(&c)
			if _, err := NewConstraints(c); err == nil {
				t.Error("Expected fail-fast validation error, got nil")
			}
		})
	}
}

func TestNewConstraints_DefaultsValid(t *testing.T) {
	if _, err := NewConstraints(DefaultConstraints()); err != nil {
		t.Errorf("Default constraints must validate, got %v", err)
	}
}

func TestNewVisualSpec_Defaults(t *testing.T) {
	spec, err := NewVisualSpec("scene-1", IntentBarChart, mustDataSpec(t, quarterPoints()))
	if err != nil {
		t.Fatalf("NewVisualSpec failed: %v", err)
	}

	if spec.Theme != ThemeProfessional {
		t.Errorf("Expected professional default theme, got %s", spec.Theme)
	}
	if spec.Priority != 5 {
		t.Errorf("Expected default priority 5, got %d", spec.Priority)
	}
	if len(spec.PathPreferences) != 4 || spec.PathPreferences[0] != PathDeterministicRegistry {
		t.Errorf("Unexpected default path preferences: %v", spec.PathPreferences)
	}
	if spec.ContentHash != "" {
		t.Error("ContentHash must not be set at construction")
	}
}

func TestNewVisualSpec_EmptyPathPreferences(t *testing.T) {
	_, err := NewVisualSpec("scene-1", IntentBarChart, mustDataSpec(t, quarterPoints()),
		WithPathPreferences())
	if err == nil {
		t.Fatal("Expected error for empty path preferences")
	}
}

func TestNewVisualSpec_UnknownIntent(t *testing.T) {
	_, err := NewVisualSpec("scene-1", VisualIntent("word_cloud"), mustDataSpec(t, quarterPoints()))
	if err == nil {
		t.Fatal("Expected error for unknown intent")
	}
}

func TestCanvasElement_ColorValidation(t *testing.T) {
	bad := []string{"red", "#FFF", "#GGGGGG", "#FFFFFFFF", "FFFFFF", ""}
	for _, color := range bad {
		if _, err := NewRect(0, 0, 10, 10, color); err == nil {
			t.Errorf("Expected construction error for fill color %q", color)
		}
	}
	if _, err := NewRect(0, 0, 10, 10, "#3366CC"); err != nil {
		t.Errorf("Valid hex color rejected: %v", err)
	}
}

func TestCanvasElement_VariantInvariants(t *testing.T) {
	if _, err := NewRect(0, 0, -5, 10, "#FFFFFF"); err == nil {
		t.Error("Expected error for non-positive rect width")
	}
	if _, err := NewCircle(10, 10, 0, "#FFFFFF"); err == nil {
		t.Error("Expected error for non-positive circle radius")
	}
	if _, err := NewText(0, 0, "", 12, "#000000"); err == nil {
		t.Error("Expected error for empty text")
	}
	if _, err := NewText(0, 0, strings.Repeat("x", MaxTextLen+1), 12, "#000000"); err == nil {
		t.Error("Expected error for over-long text")
	}
	if _, err := NewText(0, 0, "label", 80, "#000000"); err == nil {
		t.Error("Expected error for font size above 72")
	}
	if _, err := NewLine(0, 0, 10, 10, "#000000", 0); err == nil {
		t.Error("Expected error for zero-width line stroke")
	}
	if _, err := NewPath(0, 0, "", "#000000"); err == nil {
		t.Error("Expected error for empty path data")
	}
}

func TestNewCanvasInstructions_OriginInvariant(t *testing.T) {
	inBounds, err := NewRect(100, 100, 700, 700, "#3366CC")
	if err != nil {
		t.Fatalf("NewRect failed: %v", err)
	}

	// Origin inside, extent past bounds: construction succeeds.
	ci, err := NewCanvasInstructions("c1", 400, 300, ThemeProfessional, []CanvasElement{inBounds})
	if err != nil {
		t.Fatalf("Expected construction success for in-bounds origin, got %v", err)
	}
	if ci.BackgroundColor != "#FFFFFF" {
		t.Errorf("Expected default white background, got %s", ci.BackgroundColor)
	}

	// Origin outside: construction fails.
	outOfBounds, err := NewRect(500, 100, 10, 10, "#3366CC")
	if err != nil {
		t.Fatalf("NewRect failed: %v", err)
	}
	if _, err := NewCanvasInstructions("c2", 400, 300, ThemeProfessional, []CanvasElement{outOfBounds}); err == nil {
		t.Fatal("Expected construction error for origin past canvas width")
	}
}

func TestNewCanvasInstructions_EmptyElements(t *testing.T) {
	if _, err := NewCanvasInstructions("c1", 400, 300, ThemeProfessional, nil); err == nil {
		t.Fatal("Expected error for empty element list")
	}
}

func TestNewCanvasInstructions_DimensionBounds(t *testing.T) {
	el, _ := NewRect(0, 0, 10, 10, "#3366CC")
	if _, err := NewCanvasInstructions("c1", 100, 300, ThemeProfessional, []CanvasElement{el}); err == nil {
		t.Error("Expected error for width below 200")
	}
	if _, err := NewCanvasInstructions("c1", 400, 1600, ThemeProfessional, []CanvasElement{el}); err == nil {
		t.Error("Expected error for height above 1500")
	}
}

func TestUnmarshalCanvasInstructions_RoundTrip(t *testing.T) {
	el, _ := NewText(20, 40, "Revenue", 14, "#1A1A2E")
	ci, err := NewCanvasInstructions("c1", 800, 600, ThemeModern, []CanvasElement{el})
	if err != nil {
		t.Fatalf("NewCanvasInstructions failed: %v", err)
	}

	raw, err := ci.MarshalJSONBytes()
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}

	decoded, err := UnmarshalCanvasInstructions(raw)
	if err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if decoded.Elements[0].Type != ElementText || decoded.Elements[0].Text != "Revenue" {
		t.Errorf("Union round-trip lost variant data: %+v", decoded.Elements[0])
	}
}

func TestUnmarshalCanvasInstructions_RejectsInvalid(t *testing.T) {
	cases := map[string]string{
		"not json":       `{"canvas_id": `,
		"no elements":    `{"canvas_id":"c","width":400,"height":300,"elements":[]}`,
		"bad color":      `{"canvas_id":"c","width":400,"height":300,"elements":[{"type":"rect","x":0,"y":0,"width":10,"height":10,"fill_color":"blue"}]}`,
		"origin outside": `{"canvas_id":"c","width":400,"height":300,"elements":[{"type":"rect","x":900,"y":0,"width":10,"height":10,"fill_color":"#336699"}]}`,
	}

	for name, raw := range cases {
		if _, err := UnmarshalCanvasInstructions([]byte(raw)); err == nil {
			t.Errorf("%s: expected rejection", name)
		}
	}
}
