// Figura - Deterministic Visual Generation Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/figura

package registry

import (
	"fmt"
	"math"

	"github.com/tomtom215/figura/internal/render"
	"github.com/tomtom215/figura/internal/schema"
)

// registerBuiltins loads the standard template library. Order matters: it is
// the tie-break order for equal match scores.
func registerBuiltins(r *Registry) {
	r.Register(&Template{
		ID:         "bar_vertical_v1",
		Intent:     schema.IntentBarChart,
		DataTypes:  []schema.DataType{schema.DataCategorical, schema.DataNumerical},
		PointRange: [2]int{1, 12},
		Build:      buildVerticalBar,
	})
	r.Register(&Template{
		ID:         "bar_horizontal_v1",
		Intent:     schema.IntentBarChart,
		DataTypes:  []schema.DataType{schema.DataCategorical, schema.DataNumerical},
		PointRange: [2]int{8, 30},
		Build:      buildHorizontalBar,
	})
	r.Register(&Template{
		ID:         "line_basic_v1",
		Intent:     schema.IntentLineChart,
		DataTypes:  []schema.DataType{schema.DataTimeSeries, schema.DataNumerical, schema.DataCategorical},
		PointRange: [2]int{2, 60},
		Build:      buildLine,
	})
	r.Register(&Template{
		ID:         "pie_basic_v1",
		Intent:     schema.IntentPieChart,
		DataTypes:  []schema.DataType{schema.DataCategorical},
		PointRange: [2]int{2, 8},
		Build:      buildPie,
	})
	r.Register(&Template{
		ID:         "scatter_basic_v1",
		Intent:     schema.IntentScatterPlot,
		DataTypes:  []schema.DataType{schema.DataNumerical, schema.DataTimeSeries},
		PointRange: [2]int{3, 100},
		Build:      buildScatter,
	})
	r.Register(&Template{
		ID:         "timeline_horizontal_v1",
		Intent:     schema.IntentTimeline,
		DataTypes:  []schema.DataType{schema.DataTimeSeries, schema.DataCategorical},
		PointRange: [2]int{2, 10},
		Build:      buildTimeline,
	})
	r.Register(&Template{
		ID:         "process_flow_horizontal_v1",
		Intent:     schema.IntentProcessFlow,
		PointRange: [2]int{2, 8},
		Build:      buildProcessFlow,
	})
}

// chartPoints extracts labeled numeric values honoring the spec's limit.
// Non-numeric points chart as zero-height entries rather than being dropped,
// keeping label positions aligned with the caller's data.
func chartPoints(spec *schema.VisualSpec) []render.ChartPoint {
	points := spec.DataSpec.DataPoints
	if spec.DataSpec.Limit > 0 && len(points) > spec.DataSpec.Limit {
		points = points[:spec.DataSpec.Limit]
	}
	out := make([]render.ChartPoint, 0, len(points))
	for _, p := range points {
		v, _ := p.NumericValue()
		out = append(out, render.ChartPoint{Label: p.Label, Value: v})
	}
	return out
}

func buildVerticalBar(spec *schema.VisualSpec, tuning Tuning) (*schema.CanvasInstructions, error) {
	w, h := tuning.canvasSize(spec.Constraints.MaxWidth, spec.Constraints.MaxHeight)
	return render.BuildBarChart(spec.SceneID, chartPoints(spec), spec.Theme,
		render.ChartOptions{Width: w, Height: h, Title: spec.Title})
}

func buildHorizontalBar(spec *schema.VisualSpec, tuning Tuning) (*schema.CanvasInstructions, error) {
	w, h := tuning.canvasSize(spec.Constraints.MaxWidth, spec.Constraints.MaxHeight)
	return render.BuildBarChart(spec.SceneID, chartPoints(spec), spec.Theme,
		render.ChartOptions{Width: w, Height: h, Title: spec.Title, Horizontal: true})
}

func buildLine(spec *schema.VisualSpec, tuning Tuning) (*schema.CanvasInstructions, error) {
	w, h := tuning.canvasSize(spec.Constraints.MaxWidth, spec.Constraints.MaxHeight)
	return render.BuildLineChart(spec.SceneID, chartPoints(spec), spec.Theme,
		render.ChartOptions{Width: w, Height: h, Title: spec.Title})
}

// buildPie emits one filled polygon wedge per data point, arc-approximated at
// the tuned segment resolution, plus exterior labels at wedge mid-angles.
func buildPie(spec *schema.VisualSpec, tuning Tuning) (*schema.CanvasInstructions, error) {
	points := chartPoints(spec)
	total := 0.0
	for _, p := range points {
		total += p.Value
	}
	if total <= 0 {
		return nil, fmt.Errorf("pie chart requires a positive value total")
	}

	w, h := tuning.canvasSize(spec.Constraints.MaxWidth, spec.Constraints.MaxHeight)
	palette := spec.Theme.Colors()
	cx, cy := float64(w)/2, float64(h)/2+10
	radius := math.Min(float64(w), float64(h))*0.32

	elements := []schema.CanvasElement{{
		Type: schema.ElementRect, X: 0, Y: 0,
		Width: float64(w), Height: float64(h),
		FillColor: palette.Background, ZIndex: 0,
	}}

	angle := -math.Pi / 2 // start at 12 o'clock
	for i, p := range points {
		sweep := 2 * math.Pi * (p.Value / total)
		segs := int(float64(tuning.PieSegments) * (sweep / (2 * math.Pi)))
		if segs < 2 {
			segs = 2
		}

		// Wedge polygon relative to the center origin.
		data := "M 0 0"
		for s := 0; s <= segs; s++ {
			a := angle + sweep*float64(s)/float64(segs)
			data += fmt.Sprintf(" L %.2f %.2f", radius*math.Cos(a), radius*math.Sin(a))
		}
		data += " Z"

		color := palette.SeriesColor(i)
		elements = append(elements, schema.CanvasElement{
			Type: schema.ElementPath, X: cx, Y: cy,
			PathData: data, FillColor: color,
			StrokeColor: palette.Background, StrokeWidth: 1, ZIndex: 1,
		})

		// Label at the wedge mid-angle, pushed past the rim.
		mid := angle + sweep/2
		lx := cx + (radius+28)*math.Cos(mid)
		ly := cy + (radius+28)*math.Sin(mid)
		align := schema.AlignLeft
		if math.Cos(mid) < -0.1 {
			align = schema.AlignRight
		} else if math.Abs(math.Cos(mid)) <= 0.1 {
			align = schema.AlignCenter
		}
		pct := 100 * p.Value / total
		elements = append(elements, schema.CanvasElement{
			Type: schema.ElementText, X: lx, Y: ly,
			Text:     fmt.Sprintf("%s (%.0f%%)", p.Label, pct),
			FontSize: 12, FontFamily: "sans-serif",
			Color: palette.Text, TextAlign: align,
			FontWeight: schema.WeightNormal, ZIndex: 2,
		})

		angle += sweep
	}

	if spec.Title != "" {
		elements = append(elements, titleElement(spec.Title, w, palette))
	}
	return schema.NewCanvasInstructions(spec.SceneID, w, h, spec.Theme, elements)
}

// buildScatter plots labeled values as markers over an index axis.
func buildScatter(spec *schema.VisualSpec, tuning Tuning) (*schema.CanvasInstructions, error) {
	points := chartPoints(spec)
	w, h := tuning.canvasSize(spec.Constraints.MaxWidth, spec.Constraints.MaxHeight)
	palette := spec.Theme.Colors()

	const top, right, bottom, left = 60.0, 40.0, 60.0, 70.0
	plotW := float64(w) - left - right
	plotH := float64(h) - top - bottom

	maxVal := 0.0
	for _, p := range points {
		if p.Value > maxVal {
			maxVal = p.Value
		}
	}
	if maxVal <= 0 {
		maxVal = 1
	}

	elements := []schema.CanvasElement{
		{
			Type: schema.ElementRect, X: 0, Y: 0,
			Width: float64(w), Height: float64(h),
			FillColor: palette.Background, ZIndex: 0,
		},
		{
			Type: schema.ElementLine, X: left, Y: top, X2: left, Y2: top + plotH,
			StrokeColor: palette.SubtleText, StrokeWidth: 1, ZIndex: 1,
		},
		{
			Type: schema.ElementLine, X: left, Y: top + plotH, X2: left + plotW, Y2: top + plotH,
			StrokeColor: palette.SubtleText, StrokeWidth: 1, ZIndex: 1,
		},
	}

	step := plotW
	if len(points) > 1 {
		step = plotW / float64(len(points)-1)
	}
	for i, p := range points {
		elements = append(elements, schema.CanvasElement{
			Type: schema.ElementCircle,
			X:    left + float64(i)*step,
			Y:    top + plotH - plotH*(p.Value/maxVal),
			Radius: tuning.MarkerRadius,
			FillColor: palette.SeriesColor(0), ZIndex: 2,
		})
	}

	if spec.Title != "" {
		elements = append(elements, titleElement(spec.Title, w, palette))
	}
	return schema.NewCanvasInstructions(spec.SceneID, w, h, spec.Theme, elements)
}

// buildTimeline lays events along a horizontal spine with alternating labels.
func buildTimeline(spec *schema.VisualSpec, tuning Tuning) (*schema.CanvasInstructions, error) {
	points := chartPoints(spec)
	w, h := tuning.canvasSize(spec.Constraints.MaxWidth, spec.Constraints.MaxHeight)
	palette := spec.Theme.Colors()

	const margin = 80.0
	spineY := float64(h) / 2
	span := float64(w) - 2*margin

	elements := []schema.CanvasElement{
		{
			Type: schema.ElementRect, X: 0, Y: 0,
			Width: float64(w), Height: float64(h),
			FillColor: palette.Background, ZIndex: 0,
		},
		{
			Type: schema.ElementLine, X: margin, Y: spineY, X2: margin + span, Y2: spineY,
			StrokeColor: palette.SubtleText, StrokeWidth: 2, ZIndex: 1,
		},
	}

	step := span
	if len(points) > 1 {
		step = span / float64(len(points)-1)
	}
	for i, p := range points {
		x := margin + float64(i)*step
		elements = append(elements, schema.CanvasElement{
			Type: schema.ElementCircle, X: x, Y: spineY, Radius: 7,
			FillColor: palette.SeriesColor(i), ZIndex: 2,
		})

		// Alternate labels above and below the spine.
		ly := spineY - 24
		if i%2 == 1 {
			ly = spineY + 36
		}
		elements = append(elements, schema.CanvasElement{
			Type: schema.ElementText, X: x, Y: ly,
			Text: p.Label, FontSize: 12, FontFamily: "sans-serif",
			Color: palette.Text, TextAlign: schema.AlignCenter,
			FontWeight: schema.WeightNormal, ZIndex: 3,
		})
	}

	if spec.Title != "" {
		elements = append(elements, titleElement(spec.Title, w, palette))
	}
	return schema.NewCanvasInstructions(spec.SceneID, w, h, spec.Theme, elements)
}

// buildProcessFlow draws labeled step boxes connected by arrows.
func buildProcessFlow(spec *schema.VisualSpec, tuning Tuning) (*schema.CanvasInstructions, error) {
	points := chartPoints(spec)
	w, h := tuning.canvasSize(spec.Constraints.MaxWidth, spec.Constraints.MaxHeight)
	palette := spec.Theme.Colors()

	n := len(points)
	const margin = 40.0
	const gap = 30.0
	boxW := (float64(w) - 2*margin - gap*float64(n-1)) / float64(n)
	boxH := 70.0
	boxY := float64(h)/2 - boxH/2

	elements := []schema.CanvasElement{{
		Type: schema.ElementRect, X: 0, Y: 0,
		Width: float64(w), Height: float64(h),
		FillColor: palette.Background, ZIndex: 0,
	}}

	for i, p := range points {
		x := margin + float64(i)*(boxW+gap)
		elements = append(elements, schema.CanvasElement{
			Type: schema.ElementRect, X: x, Y: boxY,
			Width: boxW, Height: boxH, BorderRadius: 8,
			FillColor: palette.Surface, StrokeColor: palette.SeriesColor(i), StrokeWidth: 2,
			ZIndex: 1,
		})
		elements = append(elements, schema.CanvasElement{
			Type: schema.ElementText, X: x + boxW/2, Y: boxY + boxH/2 + 5,
			Text: p.Label, FontSize: 13, FontFamily: "sans-serif",
			Color: palette.Text, TextAlign: schema.AlignCenter,
			FontWeight: schema.WeightBold, ZIndex: 2,
		})

		if i < n-1 {
			ax := x + boxW
			ay := float64(h) / 2
			elements = append(elements, schema.CanvasElement{
				Type: schema.ElementLine, X: ax + 4, Y: ay, X2: ax + gap - 8, Y2: ay,
				StrokeColor: palette.SubtleText, StrokeWidth: 2, ZIndex: 1,
			})
			// Arrowhead as a small filled triangle.
			elements = append(elements, schema.CanvasElement{
				Type: schema.ElementPath, X: ax + gap - 8, Y: ay,
				PathData:    "M 0 -5 L 8 0 L 0 5 Z",
				FillColor:   palette.SubtleText,
				StrokeColor: palette.SubtleText, StrokeWidth: 1, ZIndex: 1,
			})
		}
	}

	if spec.Title != "" {
		elements = append(elements, titleElement(spec.Title, w, palette))
	}
	return schema.NewCanvasInstructions(spec.SceneID, w, h, spec.Theme, elements)
}

// titleElement renders the shared centered title bar.
func titleElement(title string, width int, palette schema.ThemePalette) schema.CanvasElement {
	return schema.CanvasElement{
		Type: schema.ElementText, X: float64(width) / 2, Y: 30,
		Text: title, FontSize: 18, FontFamily: "sans-serif",
		Color: palette.Text, TextAlign: schema.AlignCenter,
		FontWeight: schema.WeightBold, ZIndex: 4,
	}
}
