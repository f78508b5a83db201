// Figura - Deterministic Visual Generation Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/figura

// Package validation is the strategy-agnostic quality gate applied to any
// CanvasInstructions before it is trusted, regardless of which generator
// produced it.
//
// The pass runs in two stages. Stage one re-checks the schema contracts
// (types, ranges, required fields, color formats, the origin-containment
// invariant); any finding there is fatal and nothing is auto-fixed. Stage two
// applies business rules — canvas bounds, element extents, text readability,
// layout proximity, a coarse light/dark contrast heuristic, and a complexity
// ceiling — which produce warnings that never block acceptance.
//
// The one documented auto-fix is the font-size floor clamp: sizes below the
// readability floor are raised to it, the fix count is reported, and nothing
// else (type, position, content) is ever changed. Fixing is deterministic and
// idempotent, not cumulative.
//
// The overlap and contrast checks are deliberately coarse heuristics
// (Euclidean distance between text origins, a 20px occupancy grid for text
// occlusion, brightness-binned color classes), not exact geometry or WCAG
// contrast math.
package validation

import (
	"fmt"
	"math"
	"strconv"

	"github.com/goccy/go-json"

	"github.com/tomtom215/figura/internal/render"
	"github.com/tomtom215/figura/internal/schema"
)

// Tunable thresholds for the business-rule stage.
const (
	// softMaxElements is the element-count warning ceiling.
	softMaxElements = 100

	// fontFloor is the readability floor auto-fix target.
	fontFloor = 10.0

	// fontSanityCeiling triggers a warning (never auto-fixed).
	fontSanityCeiling = 48.0

	// minTextDistance is the Euclidean proximity floor between text origins.
	minTextDistance = 20.0

	// maxComplexElements bounds path elements before a performance warning.
	maxComplexElements = 10
)

// Options configures one validation pass.
type Options struct {
	// AutoFix enables the font-size floor clamp.
	AutoFix bool
}

// DefaultOptions enables auto-fix.
func DefaultOptions() Options {
	return Options{AutoFix: true}
}

// Validate decodes and checks a raw JSON drawing program. It never returns a
// Go error: undecodable input yields an invalid Report with a single fatal
// schema issue, mirroring how model-generated JSON failures are consumed.
func Validate(raw []byte, opts Options) *Report {
	var ci schema.CanvasInstructions
	if err := json.Unmarshal(raw, &ci); err != nil {
		return &Report{
			IsValid: false,
			Issues: []Issue{{
				Severity: SeverityError,
				Category: CategorySchema,
				Message:  fmt.Sprintf("instructions are not valid JSON: %v", err),
			}},
		}
	}
	if ci.BackgroundColor == "" {
		ci.BackgroundColor = "#FFFFFF"
	}
	if ci.Theme == "" {
		ci.Theme = schema.ThemeProfessional
	}
	return ValidateInstructions(&ci, opts)
}

// ValidateInstructions checks an already-decoded drawing program. The input
// is not mutated; auto-fixes apply to the copy in Report.FixedInstructions.
func ValidateInstructions(ci *schema.CanvasInstructions, opts Options) *Report {
	report := &Report{}

	schemaStage(ci, report)
	if len(report.Errors()) > 0 {
		// Schema failures are fatal; no auto-fix is possible.
		report.IsValid = false
		return report
	}

	businessStage(ci, report)

	if opts.AutoFix {
		report.FixedInstructions, report.AutoFixesApplied = applyFixes(ci)
	}

	report.IsValid = len(report.Errors()) == 0
	return report
}

// schemaStage re-checks construction contracts. Independent of whether the
// instructions came out of a constructor or raw model output.
func schemaStage(ci *schema.CanvasInstructions, report *Report) {
	if ci.CanvasID == "" {
		report.add(SeverityError, CategorySchema, "canvas_id is required", nil, "")
	}
	if ci.Width < 200 || ci.Width > 2000 {
		report.add(SeverityError, CategoryCanvas,
			fmt.Sprintf("width %d outside [200,2000]", ci.Width), nil, "")
	}
	if ci.Height < 200 || ci.Height > 1500 {
		report.add(SeverityError, CategoryCanvas,
			fmt.Sprintf("height %d outside [200,1500]", ci.Height), nil, "")
	}
	if !schema.IsHexColor(ci.BackgroundColor) {
		report.add(SeverityError, CategorySchema,
			fmt.Sprintf("background_color %q must be #RRGGBB", ci.BackgroundColor), nil, "")
	}
	if len(ci.Elements) == 0 {
		report.add(SeverityError, CategoryCanvas, "canvas has zero elements", nil, "")
		return
	}

	for i := range ci.Elements {
		el := &ci.Elements[i]

		// Empty text demotes to a warning in the business stage; every other
		// variant violation is fatal here.
		if el.Type == schema.ElementText && el.Text == "" {
			continue
		}
		if err := el.Validate(); err != nil {
			report.add(SeverityError, CategorySchema, err.Error(), idx(i), "")
			continue
		}
		if el.X > float64(ci.Width) || el.Y > float64(ci.Height) {
			report.add(SeverityError, CategorySchema,
				fmt.Sprintf("element origin (%g,%g) outside %dx%d canvas", el.X, el.Y, ci.Width, ci.Height),
				idx(i), "move the element origin inside the canvas")
		}
	}
}

// businessStage applies the warning-level quality rules.
func businessStage(ci *schema.CanvasInstructions, report *Report) {
	if len(ci.Elements) > softMaxElements {
		report.add(SeverityWarning, CategoryCanvas,
			fmt.Sprintf("element count %d exceeds soft ceiling %d", len(ci.Elements), softMaxElements),
			nil, "split the visual or reduce detail")
	}

	// Non-text geometry marked on the occupancy grid; text elements are then
	// checked against it for occlusion.
	grid := render.NewOccupancyGrid(ci.Width, ci.Height, 0)
	for i := range ci.Elements {
		if ci.Elements[i].Type != schema.ElementText {
			grid.MarkElement(&ci.Elements[i])
		}
	}

	complexCount := 0
	var textIdx []int

	for i := range ci.Elements {
		el := &ci.Elements[i]

		switch el.Type {
		case schema.ElementRect:
			if el.X+el.Width > float64(ci.Width) || el.Y+el.Height > float64(ci.Height) {
				report.add(SeverityWarning, CategoryElement,
					fmt.Sprintf("rect extent (%g,%g) exceeds canvas bounds", el.X+el.Width, el.Y+el.Height),
					idx(i), "")
			}
		case schema.ElementCircle:
			if el.X+el.Radius > float64(ci.Width) || el.Y+el.Radius > float64(ci.Height) ||
				el.X-el.Radius < 0 || el.Y-el.Radius < 0 {
				report.add(SeverityWarning, CategoryElement, "circle extent exceeds canvas bounds", idx(i), "")
			}
		case schema.ElementText:
			textIdx = append(textIdx, i)
			if el.Text == "" {
				report.add(SeverityWarning, CategoryElement, "text element has empty content", idx(i),
					"remove the element or supply content")
				continue
			}
			if el.FontSize < fontFloor {
				report.add(SeverityWarning, CategoryElement,
					fmt.Sprintf("font size %g below readability floor %g", el.FontSize, fontFloor),
					idx(i), fmt.Sprintf("raise to %g", fontFloor))
			}
			if el.FontSize > fontSanityCeiling {
				report.add(SeverityWarning, CategoryElement,
					fmt.Sprintf("font size %g above sanity ceiling %g", el.FontSize, fontSanityCeiling),
					idx(i), "")
			}
			if brightnessClass(el.Color) == brightnessClass(ci.BackgroundColor) {
				report.add(SeverityWarning, CategoryAccessibility,
					fmt.Sprintf("text color %s and background %s share a brightness class", el.Color, ci.BackgroundColor),
					idx(i), "pick a darker or lighter text color")
			}
			if grid.Occupied(render.ElementBounds(el)) {
				report.add(SeverityWarning, CategoryLayout,
					fmt.Sprintf("text %q overlaps drawn geometry", el.Text),
					idx(i), "move the label clear of chart shapes")
			}
		case schema.ElementLine:
		case schema.ElementPath:
			complexCount++
		}
	}

	// Pairwise proximity over text elements only; O(n²) on that subset.
	for a := 0; a < len(textIdx); a++ {
		for b := a + 1; b < len(textIdx); b++ {
			ea := &ci.Elements[textIdx[a]]
			eb := &ci.Elements[textIdx[b]]
			dist := math.Hypot(ea.X-eb.X, ea.Y-eb.Y)
			if dist < minTextDistance {
				report.add(SeverityWarning, CategoryLayout,
					fmt.Sprintf("text elements %d and %d are %.1fpx apart (min %g)",
						textIdx[a], textIdx[b], dist, minTextDistance),
					idx(textIdx[a]), "increase spacing between labels")
			}
		}
	}

	if complexCount > maxComplexElements {
		report.add(SeverityWarning, CategoryPerformance,
			fmt.Sprintf("%d path elements exceed complexity threshold %d", complexCount, maxComplexElements),
			nil, "simplify or pre-render complex geometry")
	}
}

// applyFixes clamps sub-floor font sizes up to the floor on a deep copy.
// Only size is touched; never type, position, or content.
func applyFixes(ci *schema.CanvasInstructions) (*schema.CanvasInstructions, int) {
	fixed := *ci
	fixed.Elements = make([]schema.CanvasElement, len(ci.Elements))
	copy(fixed.Elements, ci.Elements)

	fixes := 0
	for i := range fixed.Elements {
		el := &fixed.Elements[i]
		if el.Type == schema.ElementText && el.FontSize < fontFloor {
			el.FontSize = fontFloor
			fixes++
		}
	}
	if fixes == 0 {
		return nil, 0
	}
	return &fixed, fixes
}

// brightnessClass bins a hex color into "light" or "dark" by perceived
// brightness. Coarse by design; not a WCAG contrast computation.
func brightnessClass(hex string) string {
	if !schema.IsHexColor(hex) {
		return "dark"
	}
	r, _ := strconv.ParseUint(hex[1:3], 16, 8)
	g, _ := strconv.ParseUint(hex[3:5], 16, 8)
	b, _ := strconv.ParseUint(hex[5:7], 16, 8)
	brightness := (299*float64(r) + 587*float64(g) + 114*float64(b)) / 1000
	if brightness >= 128 {
		return "light"
	}
	return "dark"
}

// add appends one issue to the report.
func (r *Report) add(sev Severity, cat Category, msg string, elementIndex *int, fix string) {
	r.Issues = append(r.Issues, Issue{
		Severity:     sev,
		Category:     cat,
		Message:      msg,
		ElementIndex: elementIndex,
		SuggestedFix: fix,
	})
}
