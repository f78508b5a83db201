// Figura - Deterministic Visual Generation Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/figura

// Package render executes a validated CanvasInstructions program against a
// raster surface and encodes the result as PNG.
//
// Rendering is deterministic: elements are drawn in ascending z-index order
// (stable for equal indices), colors come from the #RRGGBB fields verbatim,
// and font resolution falls back to an embedded face when the requested
// family is unavailable. Per-element problems degrade gracefully — an
// undrawable element is logged and skipped, never aborting the canvas.
package render

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"math"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"

	"github.com/tomtom215/figura/internal/logging"
	"github.com/tomtom215/figura/internal/schema"
)

// Soft canvas size ceiling. Larger canvases render with a warning.
const (
	softMaxWidth  = 4000
	softMaxHeight = 3000
)

// Renderer rasterizes CanvasInstructions into PNG bytes. Safe for concurrent
// use; the only shared state is the append-only font cache.
type Renderer struct {
	fonts    *FontCache
	cellSize int
}

// Option configures a Renderer.
type Option func(*Renderer)

// WithCellSize overrides the occupancy grid resolution.
func WithCellSize(px int) Option {
	return func(r *Renderer) { r.cellSize = px }
}

// NewRenderer creates a renderer with an empty font cache.
func NewRenderer(opts ...Option) *Renderer {
	r := &Renderer{
		fonts:    NewFontCache(),
		cellSize: DefaultCellSize,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// RenderPNG executes the drawing program and returns PNG-encoded bytes.
//
// Pre-render validation is independent of construction-time validation:
// non-positive dimensions or an empty element list fail with ErrRender even
// if the instructions were built by hand; out-of-range origins and extents
// past the canvas bounds are warnings only — the element is drawn clipped.
func (r *Renderer) RenderPNG(ci *schema.CanvasInstructions) ([]byte, error) {
	if ci == nil {
		return nil, fmt.Errorf("%w: nil instructions", ErrRender)
	}
	if ci.Width <= 0 || ci.Height <= 0 {
		return nil, fmt.Errorf("%w: canvas %q has non-positive dimensions %dx%d",
			ErrRender, ci.CanvasID, ci.Width, ci.Height)
	}
	if len(ci.Elements) == 0 {
		return nil, fmt.Errorf("%w: canvas %q has no elements", ErrRender, ci.CanvasID)
	}
	if ci.Width > softMaxWidth || ci.Height > softMaxHeight {
		logging.Warn().Str("canvas_id", ci.CanvasID).
			Int("width", ci.Width).Int("height", ci.Height).
			Msg("canvas exceeds soft size ceiling")
	}

	img := image.NewRGBA(image.Rect(0, 0, ci.Width, ci.Height))
	fillBackground(img, parseHex(ci.BackgroundColor, color.RGBA{255, 255, 255, 255}))

	grid := NewOccupancyGrid(ci.Width, ci.Height, r.cellSize)

	// Ascending z-index, input order preserved within a tier. This is the
	// sole layering rule.
	ordered := make([]*schema.CanvasElement, len(ci.Elements))
	for i := range ci.Elements {
		ordered[i] = &ci.Elements[i]
	}
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].ZIndex < ordered[j].ZIndex })

	for idx, el := range ordered {
		r.warnBounds(ci, idx, el)
		if r.drawElement(img, ci, el) {
			grid.MarkElement(el)
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("%w: encode png: %v", ErrRender, err)
	}
	return buf.Bytes(), nil
}

// Occupancy builds the collision grid for a drawing program without
// rasterizing it. The validator queries this before rendering.
func (r *Renderer) Occupancy(ci *schema.CanvasInstructions) *OccupancyGrid {
	grid := NewOccupancyGrid(ci.Width, ci.Height, r.cellSize)
	for i := range ci.Elements {
		grid.MarkElement(&ci.Elements[i])
	}
	return grid
}

// warnBounds logs (but never fails) positional anomalies.
func (r *Renderer) warnBounds(ci *schema.CanvasInstructions, idx int, el *schema.CanvasElement) {
	if el.X < 0 || el.Y < 0 || el.X > float64(ci.Width) || el.Y > float64(ci.Height) {
		logging.Warn().Str("canvas_id", ci.CanvasID).Int("element", idx).
			Str("type", string(el.Type)).Float64("x", el.X).Float64("y", el.Y).
			Msg("element origin outside canvas; drawing clipped")
	}
	switch el.Type {
	case schema.ElementRect:
		if el.X+el.Width > float64(ci.Width) || el.Y+el.Height > float64(ci.Height) {
			logging.Warn().Str("canvas_id", ci.CanvasID).Int("element", idx).
				Msg("rect extent exceeds canvas bounds")
		}
	case schema.ElementCircle:
		if el.X+el.Radius > float64(ci.Width) || el.Y+el.Radius > float64(ci.Height) ||
			el.X-el.Radius < 0 || el.Y-el.Radius < 0 {
			logging.Warn().Str("canvas_id", ci.CanvasID).Int("element", idx).
				Msg("circle extent exceeds canvas bounds")
		}
	case schema.ElementText, schema.ElementLine, schema.ElementPath:
	}
}

// drawElement dispatches over the closed element union. Returns false when
// the element was skipped (degraded), true when something was drawn.
func (r *Renderer) drawElement(img *image.RGBA, ci *schema.CanvasInstructions, el *schema.CanvasElement) bool {
	switch el.Type {
	case schema.ElementRect:
		r.drawRect(img, el)
	case schema.ElementCircle:
		r.drawCircle(img, el)
	case schema.ElementText:
		r.drawText(img, el)
	case schema.ElementLine:
		r.drawLine(img, el)
	case schema.ElementPath:
		if !r.drawPath(img, el) {
			logging.Warn().Str("canvas_id", ci.CanvasID).
				Str("path_data", truncate(el.PathData, 60)).
				Msg("unsupported path commands; element skipped")
			return false
		}
	}
	return true
}

func (r *Renderer) drawRect(img *image.RGBA, el *schema.CanvasElement) {
	fill := parseHex(el.FillColor, color.RGBA{0, 0, 0, 255})
	x0, y0 := int(el.X), int(el.Y)
	x1, y1 := int(el.X+el.Width), int(el.Y+el.Height)
	radius := el.BorderRadius

	for y := y0; y < y1; y++ {
		for x := x0; x < x1; x++ {
			if radius > 0 && outsideRoundedCorner(float64(x), float64(y), el.X, el.Y, el.Width, el.Height, radius) {
				continue
			}
			setClipped(img, x, y, fill)
		}
	}

	if el.StrokeColor != "" && el.StrokeWidth > 0 {
		stroke := parseHex(el.StrokeColor, color.RGBA{0, 0, 0, 255})
		sw := int(math.Max(1, el.StrokeWidth))
		for s := 0; s < sw; s++ {
			strokeRect(img, x0+s, y0+s, x1-1-s, y1-1-s, stroke)
		}
	}
}

func (r *Renderer) drawCircle(img *image.RGBA, el *schema.CanvasElement) {
	fill := parseHex(el.FillColor, color.RGBA{0, 0, 0, 255})
	cx, cy, rad := el.X, el.Y, el.Radius

	for y := int(cy - rad); y <= int(cy+rad); y++ {
		dy := float64(y) - cy
		half := math.Sqrt(rad*rad - math.Min(dy*dy, rad*rad))
		for x := int(cx - half); x <= int(cx+half); x++ {
			setClipped(img, x, y, fill)
		}
	}

	if el.StrokeColor != "" && el.StrokeWidth > 0 {
		stroke := parseHex(el.StrokeColor, color.RGBA{0, 0, 0, 255})
		steps := int(2 * math.Pi * rad)
		if steps < 16 {
			steps = 16
		}
		for w := 0.0; w < el.StrokeWidth; w++ {
			rr := rad - w
			for i := 0; i < steps; i++ {
				theta := 2 * math.Pi * float64(i) / float64(steps)
				setClipped(img, int(cx+rr*math.Cos(theta)), int(cy+rr*math.Sin(theta)), stroke)
			}
		}
	}
}

func (r *Renderer) drawText(img *image.RGBA, el *schema.CanvasElement) {
	face := r.fonts.Face(el.FontFamily, el.FontSize)
	col := parseHex(el.Color, color.RGBA{0, 0, 0, 255})

	// Alignment shifts the draw origin by the measured width of the text at
	// the resolved face: center by half, right by the full width.
	width := font.MeasureString(face, el.Text).Ceil()
	x := int(el.X)
	switch el.TextAlign {
	case schema.AlignCenter:
		x -= width / 2
	case schema.AlignRight:
		x -= width
	case schema.AlignLeft:
	}

	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(col),
		Face: face,
		Dot:  fixed.Point26_6{X: fixed.I(x), Y: fixed.I(int(el.Y))},
	}
	d.DrawString(el.Text)

	// Faux bold: second pass offset one pixel. Real weight selection would
	// need per-family bold files in the font search paths.
	if el.FontWeight == schema.WeightBold {
		d.Dot = fixed.Point26_6{X: fixed.I(x + 1), Y: fixed.I(int(el.Y))}
		d.DrawString(el.Text)
	}
}

func (r *Renderer) drawLine(img *image.RGBA, el *schema.CanvasElement) {
	stroke := parseHex(el.StrokeColor, color.RGBA{0, 0, 0, 255})

	dx := el.X2 - el.X
	dy := el.Y2 - el.Y
	length := math.Hypot(dx, dy)
	if length == 0 {
		setClipped(img, int(el.X), int(el.Y), stroke)
		return
	}

	// Dash pattern state carried along the line in pixels.
	dash := el.StrokeDash
	dashIdx, dashRun := 0, 0.0
	penDown := true

	steps := int(length) + 1
	halfW := math.Max(el.StrokeWidth/2, 0.5)
	for i := 0; i <= steps; i++ {
		t := float64(i) / float64(steps)
		px := el.X + dx*t
		py := el.Y + dy*t

		if len(dash) > 0 {
			if dashRun >= dash[dashIdx%len(dash)] {
				dashRun = 0
				dashIdx++
				penDown = dashIdx%2 == 0
			}
			dashRun += length / float64(steps)
		}
		if !penDown {
			continue
		}

		for oy := -halfW; oy <= halfW; oy++ {
			for ox := -halfW; ox <= halfW; ox++ {
				if ox*ox+oy*oy <= halfW*halfW {
					setClipped(img, int(px+ox), int(py+oy), stroke)
				}
			}
		}
	}
}

// drawPath supports the M/L/H/V/Z subset of SVG path data, interpreted
// relative to the element origin. Closed paths with a fill color are filled
// as polygons. Returns false for any other command so the caller can degrade
// gracefully.
func (r *Renderer) drawPath(img *image.RGBA, el *schema.CanvasElement) bool {
	segments, ok := parsePathData(el.PathData)
	if !ok || len(segments) < 2 {
		return false
	}

	if el.FillColor != "" && len(segments) >= 3 {
		fillPolygon(img, segments, el.X, el.Y, parseHex(el.FillColor, color.RGBA{0, 0, 0, 255}))
	}

	stroke := el.StrokeColor
	width := el.StrokeWidth
	if width <= 0 {
		width = 1
	}
	for i := 1; i < len(segments); i++ {
		line := schema.CanvasElement{
			Type:        schema.ElementLine,
			X:           el.X + segments[i-1][0],
			Y:           el.Y + segments[i-1][1],
			X2:          el.X + segments[i][0],
			Y2:          el.Y + segments[i][1],
			StrokeColor: stroke,
			StrokeWidth: width,
		}
		r.drawLine(img, &line)
	}
	return true
}

// parsePathData tokenizes an M/L/H/V/Z-only path into absolute points.
func parsePathData(data string) ([][2]float64, bool) {
	fields := strings.Fields(strings.NewReplacer(",", " ").Replace(data))
	var points [][2]float64
	var cur [2]float64
	i := 0

	readFloat := func() (float64, bool) {
		if i >= len(fields) {
			return 0, false
		}
		v, err := strconv.ParseFloat(fields[i], 64)
		if err != nil {
			return 0, false
		}
		i++
		return v, true
	}

	for i < len(fields) {
		cmd := fields[i]
		i++
		switch cmd {
		case "M", "L":
			x, ok := readFloat()
			if !ok {
				return nil, false
			}
			y, ok := readFloat()
			if !ok {
				return nil, false
			}
			cur = [2]float64{x, y}
			points = append(points, cur)
		case "H":
			x, ok := readFloat()
			if !ok {
				return nil, false
			}
			cur[0] = x
			points = append(points, cur)
		case "V":
			y, ok := readFloat()
			if !ok {
				return nil, false
			}
			cur[1] = y
			points = append(points, cur)
		case "Z", "z":
			if len(points) > 0 {
				points = append(points, points[0])
			}
		default:
			// Curves (C/Q/A/...) and relative commands are unsupported.
			return nil, false
		}
	}
	return points, true
}

// fillPolygon rasterizes a polygon with even-odd scanline filling. Points are
// relative to the (ox,oy) element origin.
func fillPolygon(img *image.RGBA, points [][2]float64, ox, oy float64, c color.RGBA) {
	minY, maxY := math.Inf(1), math.Inf(-1)
	for _, p := range points {
		y := oy + p[1]
		if y < minY {
			minY = y
		}
		if y > maxY {
			maxY = y
		}
	}

	for y := int(minY); y <= int(maxY); y++ {
		fy := float64(y) + 0.5
		var xs []float64
		for i := 0; i < len(points); i++ {
			j := (i + 1) % len(points)
			y1 := oy + points[i][1]
			y2 := oy + points[j][1]
			if (y1 <= fy && y2 > fy) || (y2 <= fy && y1 > fy) {
				x1 := ox + points[i][0]
				x2 := ox + points[j][0]
				t := (fy - y1) / (y2 - y1)
				xs = append(xs, x1+t*(x2-x1))
			}
		}
		sort.Float64s(xs)
		for k := 0; k+1 < len(xs); k += 2 {
			for x := int(xs[k]); x <= int(xs[k+1]); x++ {
				setClipped(img, x, y, c)
			}
		}
	}
}

// fillBackground floods the image with c.
func fillBackground(img *image.RGBA, c color.RGBA) {
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			img.SetRGBA(x, y, c)
		}
	}
}

// setClipped sets a pixel if it lies inside the image bounds.
func setClipped(img *image.RGBA, x, y int, c color.RGBA) {
	if image.Pt(x, y).In(img.Bounds()) {
		img.SetRGBA(x, y, c)
	}
}

// strokeRect outlines the rectangle [x0,y0]..[x1,y1] inclusive.
func strokeRect(img *image.RGBA, x0, y0, x1, y1 int, c color.RGBA) {
	for x := x0; x <= x1; x++ {
		setClipped(img, x, y0, c)
		setClipped(img, x, y1, c)
	}
	for y := y0; y <= y1; y++ {
		setClipped(img, x0, y, c)
		setClipped(img, x1, y, c)
	}
}

// outsideRoundedCorner reports whether pixel (px,py) falls outside a rounded
// corner of the rect at (x,y,w,h) with the given corner radius.
func outsideRoundedCorner(px, py, x, y, w, h, radius float64) bool {
	corners := [4][2]float64{
		{x + radius, y + radius},
		{x + w - radius, y + radius},
		{x + radius, y + h - radius},
		{x + w - radius, y + h - radius},
	}
	inCornerZone := [4]bool{
		px < corners[0][0] && py < corners[0][1],
		px > corners[1][0] && py < corners[1][1],
		px < corners[2][0] && py > corners[2][1],
		px > corners[3][0] && py > corners[3][1],
	}
	for i, in := range inCornerZone {
		if in {
			dx := px - corners[i][0]
			dy := py - corners[i][1]
			return dx*dx+dy*dy > radius*radius
		}
	}
	return false
}

// parseHex converts #RRGGBB to color.RGBA, returning fallback on malformed
// input. Schema validation makes malformed colors unreachable in practice;
// the fallback keeps the renderer total.
func parseHex(s string, fallback color.RGBA) color.RGBA {
	if !schema.IsHexColor(s) {
		return fallback
	}
	r, _ := strconv.ParseUint(s[1:3], 16, 8)
	g, _ := strconv.ParseUint(s[3:5], 16, 8)
	b, _ := strconv.ParseUint(s[5:7], 16, 8)
	return color.RGBA{uint8(r), uint8(g), uint8(b), 255}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
