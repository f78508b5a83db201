// Figura - Deterministic Visual Generation Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/figura

package validation

import "github.com/tomtom215/figura/internal/schema"

// Severity ranks a validation issue.
type Severity string

// Issue severities. Only error-severity issues block acceptance.
const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
	SeverityInfo    Severity = "info"
)

// Category groups issues by the check family that produced them.
type Category string

// Issue categories.
const (
	CategorySchema        Category = "schema"
	CategoryCanvas        Category = "canvas"
	CategoryElement       Category = "element"
	CategoryLayout        Category = "layout"
	CategoryAccessibility Category = "accessibility"
	CategoryPerformance   Category = "performance"
)

// Issue is one finding from the validator.
type Issue struct {
	Severity     Severity `json:"severity"`
	Category     Category `json:"category"`
	Message      string   `json:"message"`
	ElementIndex *int     `json:"element_index,omitempty"`
	SuggestedFix string   `json:"suggested_fix,omitempty"`
}

// Report is the outcome of one validation pass. IsValid is true exactly when
// no error-severity issue is present; warnings and infos never block.
type Report struct {
	IsValid           bool                       `json:"is_valid"`
	Issues            []Issue                    `json:"issues"`
	FixedInstructions *schema.CanvasInstructions `json:"fixed_instructions,omitempty"`
	AutoFixesApplied  int                        `json:"auto_fixes_applied"`
}

// Errors returns only the error-severity issues.
func (r *Report) Errors() []Issue {
	var out []Issue
	for _, issue := range r.Issues {
		if issue.Severity == SeverityError {
			out = append(out, issue)
		}
	}
	return out
}

// Warnings returns only the warning-severity issues.
func (r *Report) Warnings() []Issue {
	var out []Issue
	for _, issue := range r.Issues {
		if issue.Severity == SeverityWarning {
			out = append(out, issue)
		}
	}
	return out
}

func idx(i int) *int { return &i }
