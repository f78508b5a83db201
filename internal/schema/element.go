// Figura - Deterministic Visual Generation Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/figura

package schema

import (
	"fmt"
)

// ElementType discriminates the CanvasElement union.
type ElementType string

// Canvas element variants. The set is closed: renderer and validator switch
// over it exhaustively.
const (
	ElementRect   ElementType = "rect"
	ElementCircle ElementType = "circle"
	ElementText   ElementType = "text"
	ElementLine   ElementType = "line"
	ElementPath   ElementType = "path"
)

var elementTypes = map[ElementType]bool{
	ElementRect:   true,
	ElementCircle: true,
	ElementText:   true,
	ElementLine:   true,
	ElementPath:   true,
}

// Valid reports whether the element type is a member of the closed set.
func (e ElementType) Valid() bool { return elementTypes[e] }

// TextAlign controls horizontal anchoring of text elements.
type TextAlign string

// Text alignments.
const (
	AlignLeft   TextAlign = "left"
	AlignCenter TextAlign = "center"
	AlignRight  TextAlign = "right"
)

// FontWeight is the requested weight of a text element.
type FontWeight string

// Font weights.
const (
	WeightNormal FontWeight = "normal"
	WeightBold   FontWeight = "bold"
)

// CanvasElement is one positioned primitive in a drawing program. It is a
// tagged union discriminated by Type; which fields are meaningful depends on
// the variant. Use the NewRect/NewCircle/NewText/NewLine/NewPath constructors
// rather than building literals so variant invariants hold.
type CanvasElement struct {
	Type   ElementType `json:"type" validate:"required"`
	X      float64     `json:"x" validate:"gte=0"`
	Y      float64     `json:"y" validate:"gte=0"`
	ZIndex int         `json:"z_index"`

	// rect
	Width        float64 `json:"width,omitempty"`
	Height       float64 `json:"height,omitempty"`
	BorderRadius float64 `json:"border_radius,omitempty"`

	// circle
	Radius float64 `json:"radius,omitempty"`

	// shared paint
	FillColor   string  `json:"fill_color,omitempty"`
	StrokeColor string  `json:"stroke_color,omitempty"`
	StrokeWidth float64 `json:"stroke_width,omitempty"`

	// text
	Text       string     `json:"text,omitempty"`
	FontSize   float64    `json:"font_size,omitempty"`
	FontFamily string     `json:"font_family,omitempty"`
	Color      string     `json:"color,omitempty"`
	TextAlign  TextAlign  `json:"text_align,omitempty"`
	FontWeight FontWeight `json:"font_weight,omitempty"`

	// line
	X2         float64   `json:"x2,omitempty"`
	Y2         float64   `json:"y2,omitempty"`
	StrokeDash []float64 `json:"stroke_dash,omitempty"`

	// path
	PathData string `json:"path_data,omitempty"`
}

// MaxTextLen is the hard ceiling on text element content length.
const MaxTextLen = 500

// Validate checks base and variant-specific invariants. Colors must be
// #RRGGBB; sizes must be positive where the variant requires them.
func (e *CanvasElement) Validate() error {
	if !e.Type.Valid() {
		return fmt.Errorf("%w: unknown element type %q", ErrValidation, e.Type)
	}
	if e.X < 0 || e.Y < 0 {
		return fmt.Errorf("%w: %s position (%g,%g) must be non-negative", ErrValidation, e.Type, e.X, e.Y)
	}

	switch e.Type {
	case ElementRect:
		if e.Width <= 0 || e.Height <= 0 {
			return fmt.Errorf("%w: rect dimensions %gx%g must be positive", ErrValidation, e.Width, e.Height)
		}
		if !IsHexColor(e.FillColor) {
			return fmt.Errorf("%w: rect fill_color %q must be #RRGGBB", ErrValidation, e.FillColor)
		}
		if e.StrokeColor != "" && !IsHexColor(e.StrokeColor) {
			return fmt.Errorf("%w: rect stroke_color %q must be #RRGGBB", ErrValidation, e.StrokeColor)
		}
		if e.StrokeWidth < 0 || e.BorderRadius < 0 {
			return fmt.Errorf("%w: rect stroke_width and border_radius must be non-negative", ErrValidation)
		}

	case ElementCircle:
		if e.Radius <= 0 {
			return fmt.Errorf("%w: circle radius %g must be positive", ErrValidation, e.Radius)
		}
		if !IsHexColor(e.FillColor) {
			return fmt.Errorf("%w: circle fill_color %q must be #RRGGBB", ErrValidation, e.FillColor)
		}
		if e.StrokeColor != "" && !IsHexColor(e.StrokeColor) {
			return fmt.Errorf("%w: circle stroke_color %q must be #RRGGBB", ErrValidation, e.StrokeColor)
		}
		if e.StrokeWidth < 0 {
			return fmt.Errorf("%w: circle stroke_width must be non-negative", ErrValidation)
		}

	case ElementText:
		if e.Text == "" || len(e.Text) > MaxTextLen {
			return fmt.Errorf("%w: text content length %d outside [1,%d]", ErrValidation, len(e.Text), MaxTextLen)
		}
		if e.FontSize < 8 || e.FontSize > 72 {
			return fmt.Errorf("%w: font_size %g outside [8,72]", ErrValidation, e.FontSize)
		}
		if !IsHexColor(e.Color) {
			return fmt.Errorf("%w: text color %q must be #RRGGBB", ErrValidation, e.Color)
		}
		switch e.TextAlign {
		case AlignLeft, AlignCenter, AlignRight:
		default:
			return fmt.Errorf("%w: text_align %q must be left|center|right", ErrValidation, e.TextAlign)
		}
		switch e.FontWeight {
		case WeightNormal, WeightBold:
		default:
			return fmt.Errorf("%w: font_weight %q must be normal|bold", ErrValidation, e.FontWeight)
		}

	case ElementLine:
		if !IsHexColor(e.StrokeColor) {
			return fmt.Errorf("%w: line stroke_color %q must be #RRGGBB", ErrValidation, e.StrokeColor)
		}
		if e.StrokeWidth <= 0 {
			return fmt.Errorf("%w: line stroke_width %g must be positive", ErrValidation, e.StrokeWidth)
		}

	case ElementPath:
		if e.PathData == "" {
			return fmt.Errorf("%w: path requires path_data", ErrValidation)
		}
		if !IsHexColor(e.StrokeColor) {
			return fmt.Errorf("%w: path stroke_color %q must be #RRGGBB", ErrValidation, e.StrokeColor)
		}
		if e.FillColor != "" && !IsHexColor(e.FillColor) {
			return fmt.Errorf("%w: path fill_color %q must be #RRGGBB", ErrValidation, e.FillColor)
		}
		if e.StrokeWidth < 0 {
			return fmt.Errorf("%w: path stroke_width must be non-negative", ErrValidation)
		}
	}

	return nil
}

// NewRect constructs a validated rectangle element.
func NewRect(x, y, width, height float64, fill string) (CanvasElement, error) {
	e := CanvasElement{Type: ElementRect, X: x, Y: y, Width: width, Height: height, FillColor: fill}
	if err := e.Validate(); err != nil {
		return CanvasElement{}, err
	}
	return e, nil
}

// NewCircle constructs a validated circle element.
func NewCircle(x, y, radius float64, fill string) (CanvasElement, error) {
	e := CanvasElement{Type: ElementCircle, X: x, Y: y, Radius: radius, FillColor: fill}
	if err := e.Validate(); err != nil {
		return CanvasElement{}, err
	}
	return e, nil
}

// NewText constructs a validated text element with left alignment and normal
// weight unless changed afterwards (re-validate after mutation).
func NewText(x, y float64, text string, fontSize float64, color string) (CanvasElement, error) {
	e := CanvasElement{
		Type:       ElementText,
		X:          x,
		Y:          y,
		Text:       text,
		FontSize:   fontSize,
		FontFamily: "sans-serif",
		Color:      color,
		TextAlign:  AlignLeft,
		FontWeight: WeightNormal,
	}
	if err := e.Validate(); err != nil {
		return CanvasElement{}, err
	}
	return e, nil
}

// NewLine constructs a validated line element.
func NewLine(x, y, x2, y2 float64, stroke string, strokeWidth float64) (CanvasElement, error) {
	e := CanvasElement{Type: ElementLine, X: x, Y: y, X2: x2, Y2: y2, StrokeColor: stroke, StrokeWidth: strokeWidth}
	if err := e.Validate(); err != nil {
		return CanvasElement{}, err
	}
	return e, nil
}

// NewPath constructs a validated path element from an SVG path data string.
func NewPath(x, y float64, pathData, stroke string) (CanvasElement, error) {
	e := CanvasElement{Type: ElementPath, X: x, Y: y, PathData: pathData, StrokeColor: stroke, StrokeWidth: 1}
	if err := e.Validate(); err != nil {
		return CanvasElement{}, err
	}
	return e, nil
}
