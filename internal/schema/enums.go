// Figura - Deterministic Visual Generation Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/figura

package schema

// VisualIntent is the categorical tag of the desired chart or diagram shape.
// It is immutable once a VisualSpec is created.
type VisualIntent string

// Supported visual intents.
const (
	IntentBarChart        VisualIntent = "bar_chart"
	IntentLineChart       VisualIntent = "line_chart"
	IntentPieChart        VisualIntent = "pie_chart"
	IntentScatterPlot     VisualIntent = "scatter_plot"
	IntentProcessFlow     VisualIntent = "process_flow"
	IntentTimeline        VisualIntent = "timeline"
	IntentHeatmap         VisualIntent = "heatmap"
	IntentComparisonTable VisualIntent = "comparison_table"
	IntentCustomDiagram   VisualIntent = "custom_diagram"
)

// visualIntents is the closed set of valid intents.
var visualIntents = map[VisualIntent]bool{
	IntentBarChart:        true,
	IntentLineChart:       true,
	IntentPieChart:        true,
	IntentScatterPlot:     true,
	IntentProcessFlow:     true,
	IntentTimeline:        true,
	IntentHeatmap:         true,
	IntentComparisonTable: true,
	IntentCustomDiagram:   true,
}

// Valid reports whether the intent is a member of the closed intent set.
func (v VisualIntent) Valid() bool { return visualIntents[v] }

// IsDiagram reports whether the intent describes a free-form diagram rather
// than a data chart. Diagram intents always estimate as high complexity for
// model selection.
func (v VisualIntent) IsDiagram() bool {
	switch v {
	case IntentProcessFlow, IntentTimeline, IntentCustomDiagram:
		return true
	default:
		return false
	}
}

// DataType classifies the shape of the data points in a DataSpec.
type DataType string

// Supported data types.
const (
	DataCategorical DataType = "categorical"
	DataNumerical   DataType = "numerical"
	DataTimeSeries  DataType = "time_series"
	DataHierarchical DataType = "hierarchical"
	DataRelational  DataType = "relational"
	DataText        DataType = "text"
)

var dataTypes = map[DataType]bool{
	DataCategorical:  true,
	DataNumerical:    true,
	DataTimeSeries:   true,
	DataHierarchical: true,
	DataRelational:   true,
	DataText:         true,
}

// Valid reports whether the data type is a member of the closed set.
func (d DataType) Valid() bool { return dataTypes[d] }

// Theme selects the visual styling family applied by templates and renderers.
type Theme string

// Supported themes.
const (
	ThemeProfessional Theme = "professional"
	ThemeEducational  Theme = "educational"
	ThemeCorporate    Theme = "corporate"
	ThemeModern       Theme = "modern"
	ThemeMinimal      Theme = "minimal"
)

var themes = map[Theme]bool{
	ThemeProfessional: true,
	ThemeEducational:  true,
	ThemeCorporate:    true,
	ThemeModern:       true,
	ThemeMinimal:      true,
}

// Valid reports whether the theme is a member of the closed set.
func (t Theme) Valid() bool { return themes[t] }

// SortOrder controls data point ordering within a DataSpec.
type SortOrder string

// Sort orders.
const (
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

// RenderingPath identifies which strategy produced (or may produce) a result.
type RenderingPath string

// Rendering paths in default priority order. CachedResult and SimpleFallback
// are outcome markers only; they cannot be requested via path preferences.
const (
	PathCachedResult          RenderingPath = "cached_result"
	PathDeterministicRegistry RenderingPath = "deterministic_registry"
	PathCanvasInstructions    RenderingPath = "canvas_instructions"
	PathSVGGeneration         RenderingPath = "svg_generation"
	PathCodeExecution         RenderingPath = "code_execution"
	PathSimpleFallback        RenderingPath = "simple_fallback"
)

var renderingPaths = map[RenderingPath]bool{
	PathCachedResult:          true,
	PathDeterministicRegistry: true,
	PathCanvasInstructions:    true,
	PathSVGGeneration:         true,
	PathCodeExecution:         true,
	PathSimpleFallback:        true,
}

// Valid reports whether the rendering path is a member of the closed set.
func (p RenderingPath) Valid() bool { return renderingPaths[p] }

// DefaultPathPreferences returns the standard strategy priority order used
// when a caller does not supply one.
func DefaultPathPreferences() []RenderingPath {
	return []RenderingPath{
		PathDeterministicRegistry,
		PathCanvasInstructions,
		PathSVGGeneration,
		PathCodeExecution,
	}
}
