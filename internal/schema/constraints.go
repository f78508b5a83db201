// Figura - Deterministic Visual Generation Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/figura

package schema

import "fmt"

// Constraints bounds what a generation strategy may produce. Every field has
// a default; a value outside its declared range fails construction outright
// rather than being clamped.
type Constraints struct {
	MaxWidth             int  `json:"max_width" validate:"min=200,max=2000"`
	MaxHeight            int  `json:"max_height" validate:"min=200,max=1500"`
	MinFontSize          int  `json:"min_font_size" validate:"min=8,max=20"`
	MaxElements          int  `json:"max_elements" validate:"min=5,max=200"`
	RenderTimeoutMs      int  `json:"render_timeout_ms" validate:"min=1000,max=30000"`
	MemoryLimitMb        int  `json:"memory_limit_mb" validate:"min=64,max=1024"`
	MaxTextLength        int  `json:"max_text_length" validate:"min=10,max=2000"`
	AllowAnimations      bool `json:"allow_animations"`
	RequireAccessibility bool `json:"require_accessibility"`
}

// DefaultConstraints returns the default generation limits.
func DefaultConstraints() Constraints {
	return Constraints{
		MaxWidth:             800,
		MaxHeight:            600,
		MinFontSize:          12,
		MaxElements:          50,
		RenderTimeoutMs:      5000,
		MemoryLimitMb:        256,
		MaxTextLength:        500,
		AllowAnimations:      false,
		RequireAccessibility: true,
	}
}

// NewConstraints validates and returns the given constraints.
func NewConstraints(c Constraints) (*Constraints, error) {
	if err := ValidateStruct(&c); err != nil {
		return nil, fmt.Errorf("constraints: %w", err)
	}
	return &c, nil
}
