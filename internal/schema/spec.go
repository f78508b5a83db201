// Figura - Deterministic Visual Generation Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/figura

package schema

import (
	"fmt"
	"time"
)

// VisualSpec is the caller's declarative request for one visualization.
// It is immutable after construction. ContentHash is derived by the cache
// package, never supplied by callers; it excludes SceneID and other identity
// fields so semantically identical requests share a cache entry.
type VisualSpec struct {
	SceneID         string                 `json:"scene_id" validate:"required"`
	Intent          VisualIntent           `json:"intent" validate:"required,visualintent"`
	DataSpec        DataSpec               `json:"dataspec" validate:"required"`
	Title           string                 `json:"title,omitempty"`
	Subtitle        string                 `json:"subtitle,omitempty"`
	Theme           Theme                  `json:"theme" validate:"required,theme"`
	Constraints     Constraints            `json:"constraints"`
	PathPreferences []RenderingPath        `json:"path_preferences" validate:"required,min=1,dive,renderpath"`
	EmployeeContext map[string]interface{} `json:"employee_context,omitempty"`
	LearningObjectives []string            `json:"learning_objectives,omitempty"`
	CacheKey        string                 `json:"cache_key,omitempty"`
	Priority        int                    `json:"priority" validate:"min=1,max=10"`
	CreatedAt       time.Time              `json:"created_at"`
	ContentHash     string                 `json:"content_hash,omitempty"`
}

// SpecOption customizes a VisualSpec during construction.
type SpecOption func(*VisualSpec)

// WithTitle sets the title and optional subtitle.
func WithTitle(title, subtitle string) SpecOption {
	return func(s *VisualSpec) {
		s.Title = title
		s.Subtitle = subtitle
	}
}

// WithTheme overrides the default professional theme.
func WithTheme(theme Theme) SpecOption {
	return func(s *VisualSpec) { s.Theme = theme }
}

// WithConstraints overrides the default constraints.
func WithConstraints(c Constraints) SpecOption {
	return func(s *VisualSpec) { s.Constraints = c }
}

// WithPathPreferences overrides the default strategy priority order.
func WithPathPreferences(paths ...RenderingPath) SpecOption {
	return func(s *VisualSpec) { s.PathPreferences = paths }
}

// WithPriority sets the request priority (1 lowest, 10 highest).
func WithPriority(p int) SpecOption {
	return func(s *VisualSpec) { s.Priority = p }
}

// NewVisualSpec constructs a validated VisualSpec. PathPreferences must end
// up non-empty (the default order applies unless overridden); validation of
// the embedded DataSpec and Constraints runs through the same pass.
func NewVisualSpec(sceneID string, intent VisualIntent, data DataSpec, opts ...SpecOption) (*VisualSpec, error) {
	s := &VisualSpec{
		SceneID:         sceneID,
		Intent:          intent,
		DataSpec:        data,
		Theme:           ThemeProfessional,
		Constraints:     DefaultConstraints(),
		PathPreferences: DefaultPathPreferences(),
		Priority:        5,
		CreatedAt:       time.Now().UTC(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if err := ValidateStruct(s); err != nil {
		return nil, fmt.Errorf("visual spec %q: %w", sceneID, err)
	}
	return s, nil
}
