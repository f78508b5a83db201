// Figura - Deterministic Visual Generation Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/figura

package schema

import (
	"fmt"
	"time"

	"github.com/goccy/go-json"
)

// CanvasInstructions is a complete, concrete drawing program: a sized canvas
// plus a non-empty list of positioned elements. Construction enforces the
// origin-containment invariant: every element's x must be <= width and y <=
// height. Elements may extend past the bounds via width/height/radius; the
// validator reports that as a warning, never a construction failure.
type CanvasInstructions struct {
	CanvasID        string          `json:"canvas_id" validate:"required"`
	Width           int             `json:"width" validate:"min=200,max=2000"`
	Height          int             `json:"height" validate:"min=200,max=1500"`
	BackgroundColor string          `json:"background_color" validate:"hexcolor6"`
	Elements        []CanvasElement `json:"elements" validate:"required,min=1"`
	Theme           Theme           `json:"theme" validate:"required,theme"`
	GeneratedAt     time.Time       `json:"generated_at"`

	EstimatedRenderTimeMs int      `json:"estimated_render_time_ms,omitempty"`
	ValidationPassed      bool     `json:"validation_passed"`
	ValidationErrors      []string `json:"validation_errors,omitempty"`
}

// NewCanvasInstructions constructs a validated drawing program. Every element
// is validated individually and checked against the origin-containment
// invariant; the first violation aborts construction.
func NewCanvasInstructions(canvasID string, width, height int, theme Theme, elements []CanvasElement) (*CanvasInstructions, error) {
	ci := &CanvasInstructions{
		CanvasID:        canvasID,
		Width:           width,
		Height:          height,
		BackgroundColor: "#FFFFFF",
		Elements:        elements,
		Theme:           theme,
		GeneratedAt:     time.Now().UTC(),
	}
	if err := ValidateStruct(ci); err != nil {
		return nil, fmt.Errorf("canvas %q: %w", canvasID, err)
	}
	for i := range ci.Elements {
		if err := ci.Elements[i].Validate(); err != nil {
			return nil, fmt.Errorf("canvas %q element %d: %w", canvasID, i, err)
		}
		if ci.Elements[i].X > float64(width) || ci.Elements[i].Y > float64(height) {
			return nil, fmt.Errorf("%w: canvas %q element %d origin (%g,%g) outside %dx%d canvas",
				ErrValidation, canvasID, i, ci.Elements[i].X, ci.Elements[i].Y, width, height)
		}
	}
	return ci, nil
}

// UnmarshalCanvasInstructions decodes and fully validates a raw JSON drawing
// program. This is the entry point for model-generated output; it applies the
// same construction invariants as NewCanvasInstructions.
func UnmarshalCanvasInstructions(raw []byte) (*CanvasInstructions, error) {
	var ci CanvasInstructions
	if err := json.Unmarshal(raw, &ci); err != nil {
		return nil, fmt.Errorf("%w: decode canvas instructions: %v", ErrValidation, err)
	}
	if ci.BackgroundColor == "" {
		ci.BackgroundColor = "#FFFFFF"
	}
	if ci.Theme == "" {
		ci.Theme = ThemeProfessional
	}
	// Model output routinely omits text styling fields; fill the same
	// defaults NewText applies before the element invariants run.
	for i := range ci.Elements {
		if ci.Elements[i].Type != ElementText {
			continue
		}
		if ci.Elements[i].TextAlign == "" {
			ci.Elements[i].TextAlign = AlignLeft
		}
		if ci.Elements[i].FontWeight == "" {
			ci.Elements[i].FontWeight = WeightNormal
		}
		if ci.Elements[i].FontFamily == "" {
			ci.Elements[i].FontFamily = "sans-serif"
		}
	}
	rebuilt, err := NewCanvasInstructions(ci.CanvasID, ci.Width, ci.Height, ci.Theme, ci.Elements)
	if err != nil {
		return nil, err
	}
	rebuilt.BackgroundColor = ci.BackgroundColor
	if !IsHexColor(rebuilt.BackgroundColor) {
		return nil, fmt.Errorf("%w: background_color %q must be #RRGGBB", ErrValidation, ci.BackgroundColor)
	}
	return rebuilt, nil
}

// MarshalJSONBytes encodes the instructions with goccy/go-json.
func (ci *CanvasInstructions) MarshalJSONBytes() ([]byte, error) {
	return json.Marshal(ci)
}
