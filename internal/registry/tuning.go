// Figura - Deterministic Visual Generation Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/figura

package registry

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Tuning holds the data-driven knobs for template instantiation. Defaults
// are compiled in; a YAML file can override any subset for deployments that
// want house styling without code changes.
type Tuning struct {
	// AcceptanceThreshold is the minimum match score for a template to be
	// used. Below it the registry reports an explicit miss.
	AcceptanceThreshold float64 `yaml:"acceptance_threshold"`

	// CanvasWidth and CanvasHeight size template-generated canvases when the
	// spec's constraints allow them; otherwise the constraint bound wins.
	CanvasWidth  int `yaml:"canvas_width"`
	CanvasHeight int `yaml:"canvas_height"`

	// BarWidthRatio is the bar thickness as a fraction of its slot.
	BarWidthRatio float64 `yaml:"bar_width_ratio"`

	// PieSegments is the arc resolution per full circle for pie wedges.
	PieSegments int `yaml:"pie_segments"`

	// MarkerRadius is the point marker radius for line/scatter templates.
	MarkerRadius float64 `yaml:"marker_radius"`
}

// DefaultTuning returns the compiled-in tuning values.
func DefaultTuning() Tuning {
	return Tuning{
		AcceptanceThreshold: 0.65,
		CanvasWidth:         800,
		CanvasHeight:        600,
		BarWidthRatio:       0.7,
		PieSegments:         48,
		MarkerRadius:        4,
	}
}

// LoadTuning reads a YAML tuning file over the defaults. Unset fields keep
// their default values.
func LoadTuning(path string) (Tuning, error) {
	t := DefaultTuning()

	data, err := os.ReadFile(path)
	if err != nil {
		return t, fmt.Errorf("read tuning file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &t); err != nil {
		return t, fmt.Errorf("parse tuning file %s: %w", path, err)
	}
	if err := t.Validate(); err != nil {
		return DefaultTuning(), err
	}
	return t, nil
}

// Validate rejects tuning values that would produce degenerate output.
func (t Tuning) Validate() error {
	if t.AcceptanceThreshold < 0 || t.AcceptanceThreshold > 1 {
		return fmt.Errorf("acceptance_threshold %g outside [0,1]", t.AcceptanceThreshold)
	}
	if t.CanvasWidth < 200 || t.CanvasWidth > 2000 {
		return fmt.Errorf("canvas_width %d outside [200,2000]", t.CanvasWidth)
	}
	if t.CanvasHeight < 200 || t.CanvasHeight > 1500 {
		return fmt.Errorf("canvas_height %d outside [200,1500]", t.CanvasHeight)
	}
	if t.BarWidthRatio <= 0 || t.BarWidthRatio > 1 {
		return fmt.Errorf("bar_width_ratio %g outside (0,1]", t.BarWidthRatio)
	}
	if t.PieSegments < 8 {
		return fmt.Errorf("pie_segments %d below minimum 8", t.PieSegments)
	}
	if t.MarkerRadius <= 0 {
		return fmt.Errorf("marker_radius %g must be positive", t.MarkerRadius)
	}
	return nil
}

// canvasSize clamps the tuned canvas size to the spec's constraints.
func (t Tuning) canvasSize(maxW, maxH int) (int, int) {
	w, h := t.CanvasWidth, t.CanvasHeight
	if w > maxW {
		w = maxW
	}
	if h > maxH {
		h = maxH
	}
	return w, h
}
