// Figura - Deterministic Visual Generation Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/figura

// Package registry matches a VisualSpec against pre-authored templates and
// instantiates the best one at zero model cost.
//
// Matching is intent-exclusive: a bar-chart spec can only ever match
// bar-chart templates. This is a correctness invariant, not an optimization —
// it prevents a line-chart template from silently answering a bar-chart
// request. Within an intent, templates are ranked by a weighted score over
// theme affinity, data-point-count closeness, and data-type compatibility;
// ties keep registration order. The whole path is synchronous, allocation-
// light, and completes in single-digit milliseconds.
package registry

import (
	"fmt"
	"math"
	"sort"

	"github.com/tomtom215/figura/internal/logging"
	"github.com/tomtom215/figura/internal/schema"
)

// Score weights. Intent equality is a hard filter, not a weight; every
// surviving candidate starts from the intent base.
const (
	intentBaseScore = 0.50
	themeWeight     = 0.20
	countWeight     = 0.20
	dataTypeWeight  = 0.10
)

// Template is a parametrized instruction generator registered under exactly
// one intent. Build receives the spec and the effective tuning and must
// return a complete drawing program.
type Template struct {
	ID     string
	Intent schema.VisualIntent

	// DataTypes lists compatible data shapes; empty means any.
	DataTypes []schema.DataType

	// Themes lists preferred themes; empty means theme-neutral.
	Themes []schema.Theme

	// PointRange is the preferred [min,max] data point count.
	PointRange [2]int

	Build func(spec *schema.VisualSpec, tuning Tuning) (*schema.CanvasInstructions, error)
}

// Match pairs a template with its similarity score in [0,1].
type Match struct {
	Template *Template
	Score    float64
}

// Registry holds templates in registration order, which doubles as the
// tie-break order for equal scores.
type Registry struct {
	templates []*Template
	tuning    Tuning
}

// New creates a registry pre-loaded with the built-in template library.
func New(opts ...RegistryOption) *Registry {
	r := &Registry{tuning: DefaultTuning()}
	for _, opt := range opts {
		opt(r)
	}
	registerBuiltins(r)
	return r
}

// NewEmpty creates a registry with no templates, for tests and custom sets.
func NewEmpty(opts ...RegistryOption) *Registry {
	r := &Registry{tuning: DefaultTuning()}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// RegistryOption configures a Registry.
type RegistryOption func(*Registry)

// WithTuning overrides the default tuning (thresholds, geometry, palettes).
func WithTuning(t Tuning) RegistryOption {
	return func(r *Registry) { r.tuning = t }
}

// Register appends a template. Registration order is stable and observable
// through tie-breaking.
func (r *Registry) Register(t *Template) {
	r.templates = append(r.templates, t)
}

// Len returns the number of registered templates.
func (r *Registry) Len() int { return len(r.templates) }

// FindMatchingTemplates returns up to maxResults templates compatible with
// the spec, ranked by descending score. Templates whose intent differs from
// the spec's are excluded outright.
func (r *Registry) FindMatchingTemplates(spec *schema.VisualSpec, maxResults int) []Match {
	if maxResults <= 0 {
		maxResults = len(r.templates)
	}

	var matches []Match
	for _, t := range r.templates {
		if t.Intent != spec.Intent {
			continue
		}
		matches = append(matches, Match{Template: t, Score: r.score(t, spec)})
	}

	// Descending score; SliceStable keeps registration order for ties.
	sort.SliceStable(matches, func(i, j int) bool { return matches[i].Score > matches[j].Score })

	if len(matches) > maxResults {
		matches = matches[:maxResults]
	}
	return matches
}

// GenerateDeterministicVisual instantiates the best-matching template when
// its score clears the acceptance threshold. A nil, nil return is an explicit
// miss: the caller falls through to the next strategy, it is not an error.
func (r *Registry) GenerateDeterministicVisual(spec *schema.VisualSpec) (*schema.CanvasInstructions, error) {
	matches := r.FindMatchingTemplates(spec, 1)
	if len(matches) == 0 {
		return nil, nil
	}
	best := matches[0]
	if best.Score < r.tuning.AcceptanceThreshold {
		logging.Debug().Str("template", best.Template.ID).Float64("score", best.Score).
			Float64("threshold", r.tuning.AcceptanceThreshold).
			Msg("best template below acceptance threshold")
		return nil, nil
	}

	ci, err := best.Template.Build(spec, r.tuning)
	if err != nil {
		return nil, fmt.Errorf("template %s: %w", best.Template.ID, err)
	}
	logging.Debug().Str("template", best.Template.ID).Float64("score", best.Score).
		Str("scene_id", spec.SceneID).Msg("deterministic template instantiated")
	return ci, nil
}

// score computes the weighted similarity of one intent-matched template.
func (r *Registry) score(t *Template, spec *schema.VisualSpec) float64 {
	score := intentBaseScore

	// Theme affinity: declared match scores full weight, theme-neutral
	// templates score half.
	if len(t.Themes) == 0 {
		score += themeWeight * 0.5
	} else {
		for _, th := range t.Themes {
			if th == spec.Theme {
				score += themeWeight
				break
			}
		}
	}

	// Point-count closeness: inside the preferred range scores full weight,
	// outside decays with distance from the nearer bound.
	n := len(spec.DataSpec.DataPoints)
	min, max := t.PointRange[0], t.PointRange[1]
	switch {
	case min == 0 && max == 0:
		score += countWeight * 0.5
	case n >= min && n <= max:
		score += countWeight
	default:
		dist := float64(min - n)
		if n > max {
			dist = float64(n - max)
		}
		score += countWeight / (1 + math.Abs(dist))
	}

	// Data-type compatibility.
	if len(t.DataTypes) == 0 {
		score += dataTypeWeight * 0.5
	} else {
		for _, dt := range t.DataTypes {
			if dt == spec.DataSpec.DataType {
				score += dataTypeWeight
				break
			}
		}
	}

	return score
}
