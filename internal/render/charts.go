// Figura - Deterministic Visual Generation Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/figura

package render

import (
	"fmt"

	"github.com/tomtom215/figura/internal/schema"
)

// ChartPoint is one labeled value for the convenience chart builders.
type ChartPoint struct {
	Label string
	Value float64
}

// ChartOptions sizes a built chart.
type ChartOptions struct {
	Width      int
	Height     int
	Title      string
	Horizontal bool
}

// DefaultChartOptions returns the standard 800x600 vertical layout.
func DefaultChartOptions() ChartOptions {
	return ChartOptions{Width: 800, Height: 600}
}

// chartMargins in pixels: top, right, bottom, left.
var chartMargins = [4]float64{60, 40, 70, 70}

// BuildBarChart synthesizes a CanvasInstructions bar chart from raw points.
// It is a pure function over its inputs; the result goes through the same
// render path as any other drawing program.
func BuildBarChart(canvasID string, points []ChartPoint, theme schema.Theme, opts ChartOptions) (*schema.CanvasInstructions, error) {
	if len(points) == 0 {
		return nil, fmt.Errorf("%w: bar chart needs at least one point", ErrRender)
	}
	if opts.Width == 0 || opts.Height == 0 {
		o := DefaultChartOptions()
		o.Title = opts.Title
		o.Horizontal = opts.Horizontal
		opts = o
	}

	palette := theme.Colors()
	elements := chartFrame(points, palette, opts)

	top, right, bottom, left := chartMargins[0], chartMargins[1], chartMargins[2], chartMargins[3]
	plotW := float64(opts.Width) - left - right
	plotH := float64(opts.Height) - top - bottom
	maxVal := maxValue(points)

	n := float64(len(points))
	if opts.Horizontal {
		slot := plotH / n
		barH := slot * 0.7
		for i, p := range points {
			w := plotW * (p.Value / maxVal)
			if w < 1 {
				w = 1
			}
			y := top + float64(i)*slot + (slot-barH)/2
			elements = append(elements, schema.CanvasElement{
				Type: schema.ElementRect, X: left, Y: y,
				Width: w, Height: barH,
				FillColor: palette.SeriesColor(i), ZIndex: 2,
			})
			elements = append(elements, schema.CanvasElement{
				Type: schema.ElementText, X: left - 8, Y: y + barH/2 + 4,
				Text: p.Label, FontSize: 12, FontFamily: "sans-serif",
				Color: palette.Text, TextAlign: schema.AlignRight,
				FontWeight: schema.WeightNormal, ZIndex: 3,
			})
		}
	} else {
		slot := plotW / n
		barW := slot * 0.7
		for i, p := range points {
			h := plotH * (p.Value / maxVal)
			if h < 1 {
				h = 1
			}
			x := left + float64(i)*slot + (slot-barW)/2
			elements = append(elements, schema.CanvasElement{
				Type: schema.ElementRect, X: x, Y: top + plotH - h,
				Width: barW, Height: h,
				FillColor: palette.SeriesColor(i), ZIndex: 2,
			})
			elements = append(elements, schema.CanvasElement{
				Type: schema.ElementText, X: x + barW/2, Y: top + plotH + 20,
				Text: p.Label, FontSize: 12, FontFamily: "sans-serif",
				Color: palette.Text, TextAlign: schema.AlignCenter,
				FontWeight: schema.WeightNormal, ZIndex: 3,
			})
		}
	}

	return schema.NewCanvasInstructions(canvasID, opts.Width, opts.Height, theme, elements)
}

// BuildLineChart synthesizes a line chart with point markers.
func BuildLineChart(canvasID string, points []ChartPoint, theme schema.Theme, opts ChartOptions) (*schema.CanvasInstructions, error) {
	if len(points) == 0 {
		return nil, fmt.Errorf("%w: line chart needs at least one point", ErrRender)
	}
	if opts.Width == 0 || opts.Height == 0 {
		o := DefaultChartOptions()
		o.Title = opts.Title
		opts = o
	}

	palette := theme.Colors()
	elements := chartFrame(points, palette, opts)

	top, right, bottom, left := chartMargins[0], chartMargins[1], chartMargins[2], chartMargins[3]
	plotW := float64(opts.Width) - left - right
	plotH := float64(opts.Height) - top - bottom
	maxVal := maxValue(points)

	step := plotW
	if len(points) > 1 {
		step = plotW / float64(len(points)-1)
	}

	lineColor := palette.SeriesColor(0)
	var prevX, prevY float64
	for i, p := range points {
		x := left + float64(i)*step
		y := top + plotH - plotH*(p.Value/maxVal)

		if i > 0 {
			elements = append(elements, schema.CanvasElement{
				Type: schema.ElementLine, X: prevX, Y: prevY, X2: x, Y2: y,
				StrokeColor: lineColor, StrokeWidth: 2, ZIndex: 2,
			})
		}
		elements = append(elements, schema.CanvasElement{
			Type: schema.ElementCircle, X: x, Y: y, Radius: 4,
			FillColor: lineColor, ZIndex: 3,
		})
		elements = append(elements, schema.CanvasElement{
			Type: schema.ElementText, X: x, Y: top + plotH + 20,
			Text: p.Label, FontSize: 12, FontFamily: "sans-serif",
			Color: palette.Text, TextAlign: schema.AlignCenter,
			FontWeight: schema.WeightNormal, ZIndex: 3,
		})
		prevX, prevY = x, y
	}

	return schema.NewCanvasInstructions(canvasID, opts.Width, opts.Height, theme, elements)
}

// chartFrame emits the shared background, axes, gridlines, and title.
func chartFrame(points []ChartPoint, palette schema.ThemePalette, opts ChartOptions) []schema.CanvasElement {
	top, right, bottom, left := chartMargins[0], chartMargins[1], chartMargins[2], chartMargins[3]
	plotW := float64(opts.Width) - left - right
	plotH := float64(opts.Height) - top - bottom

	elements := []schema.CanvasElement{
		{
			Type: schema.ElementRect, X: 0, Y: 0,
			Width: float64(opts.Width), Height: float64(opts.Height),
			FillColor: palette.Background, ZIndex: 0,
		},
	}

	// Horizontal gridlines at quarter intervals.
	for i := 0; i <= 4; i++ {
		y := top + plotH*float64(i)/4
		elements = append(elements, schema.CanvasElement{
			Type: schema.ElementLine, X: left, Y: y, X2: left + plotW, Y2: y,
			StrokeColor: palette.Grid, StrokeWidth: 1, ZIndex: 1,
		})
	}

	// Axes.
	elements = append(elements,
		schema.CanvasElement{
			Type: schema.ElementLine, X: left, Y: top, X2: left, Y2: top + plotH,
			StrokeColor: palette.SubtleText, StrokeWidth: 1, ZIndex: 1,
		},
		schema.CanvasElement{
			Type: schema.ElementLine, X: left, Y: top + plotH, X2: left + plotW, Y2: top + plotH,
			StrokeColor: palette.SubtleText, StrokeWidth: 1, ZIndex: 1,
		},
	)

	if opts.Title != "" {
		elements = append(elements, schema.CanvasElement{
			Type: schema.ElementText, X: float64(opts.Width) / 2, Y: top / 2,
			Text: opts.Title, FontSize: 18, FontFamily: "sans-serif",
			Color: palette.Text, TextAlign: schema.AlignCenter,
			FontWeight: schema.WeightBold, ZIndex: 4,
		})
	}
	return elements
}

// maxValue returns the largest value, or 1 so scaling never divides by zero.
func maxValue(points []ChartPoint) float64 {
	max := 0.0
	for _, p := range points {
		if p.Value > max {
			max = p.Value
		}
	}
	if max <= 0 {
		return 1
	}
	return max
}
