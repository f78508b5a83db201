// Figura - Deterministic Visual Generation Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/figura

package render

import "github.com/tomtom215/figura/internal/schema"

// DefaultCellSize is the default occupancy grid resolution in pixels.
const DefaultCellSize = 20

// OccupancyGrid is a coarse collision-tracking grid over the canvas. The
// renderer marks every drawn element's bounding box; the grid never rejects
// or repositions elements — it exists so the validator can query overlap
// before rendering.
type OccupancyGrid struct {
	cellSize int
	cols     int
	rows     int
	cells    []uint16
}

// NewOccupancyGrid creates a grid for a width x height canvas. A cellSize of
// zero or below uses DefaultCellSize.
func NewOccupancyGrid(width, height, cellSize int) *OccupancyGrid {
	if cellSize <= 0 {
		cellSize = DefaultCellSize
	}
	cols := (width + cellSize - 1) / cellSize
	rows := (height + cellSize - 1) / cellSize
	if cols < 1 {
		cols = 1
	}
	if rows < 1 {
		rows = 1
	}
	return &OccupancyGrid{
		cellSize: cellSize,
		cols:     cols,
		rows:     rows,
		cells:    make([]uint16, cols*rows),
	}
}

// MarkRect records the rectangle [x,y,w,h] as occupied. Out-of-grid portions
// are clipped silently.
func (g *OccupancyGrid) MarkRect(x, y, w, h float64) {
	c0, r0 := g.cellAt(x, y)
	c1, r1 := g.cellAt(x+w, y+h)
	for r := r0; r <= r1 && r < g.rows; r++ {
		for c := c0; c <= c1 && c < g.cols; c++ {
			if r >= 0 && c >= 0 {
				g.cells[r*g.cols+c]++
			}
		}
	}
}

// OverlapCount returns the number of cells under the rectangle already marked
// more than once, i.e. shared by at least two elements.
func (g *OccupancyGrid) OverlapCount(x, y, w, h float64) int {
	c0, r0 := g.cellAt(x, y)
	c1, r1 := g.cellAt(x+w, y+h)
	count := 0
	for r := r0; r <= r1 && r < g.rows; r++ {
		for c := c0; c <= c1 && c < g.cols; c++ {
			if r >= 0 && c >= 0 && g.cells[r*g.cols+c] > 1 {
				count++
			}
		}
	}
	return count
}

// Occupied reports whether any cell under the rectangle is marked.
func (g *OccupancyGrid) Occupied(x, y, w, h float64) bool {
	c0, r0 := g.cellAt(x, y)
	c1, r1 := g.cellAt(x+w, y+h)
	for r := r0; r <= r1 && r < g.rows; r++ {
		for c := c0; c <= c1 && c < g.cols; c++ {
			if r >= 0 && c >= 0 && g.cells[r*g.cols+c] > 0 {
				return true
			}
		}
	}
	return false
}

func (g *OccupancyGrid) cellAt(x, y float64) (col, row int) {
	col = int(x) / g.cellSize
	row = int(y) / g.cellSize
	if col < 0 {
		col = 0
	}
	if row < 0 {
		row = 0
	}
	return col, row
}

// MarkElement records the element's bounding box on the grid.
func (g *OccupancyGrid) MarkElement(e *schema.CanvasElement) {
	x, y, w, h := ElementBounds(e)
	g.MarkRect(x, y, w, h)
}

// ElementBounds computes the axis-aligned bounding box of an element. Text
// extent is approximated from font size and content length; exact measurement
// happens only inside the renderer where faces are resolved.
func ElementBounds(e *schema.CanvasElement) (x, y, w, h float64) {
	switch e.Type {
	case schema.ElementRect:
		return e.X, e.Y, e.Width, e.Height
	case schema.ElementCircle:
		return e.X - e.Radius, e.Y - e.Radius, e.Radius * 2, e.Radius * 2
	case schema.ElementText:
		// Rough advance estimate: 0.6em per glyph.
		w = float64(len(e.Text)) * e.FontSize * 0.6
		h = e.FontSize * 1.2
		switch e.TextAlign {
		case schema.AlignCenter:
			return e.X - w/2, e.Y - h, w, h
		case schema.AlignRight:
			return e.X - w, e.Y - h, w, h
		default:
			return e.X, e.Y - h, w, h
		}
	case schema.ElementLine:
		x0, x1 := e.X, e.X2
		if x1 < x0 {
			x0, x1 = x1, x0
		}
		y0, y1 := e.Y, e.Y2
		if y1 < y0 {
			y0, y1 = y1, y0
		}
		return x0, y0, x1 - x0, y1 - y0
	case schema.ElementPath:
		// Paths are bounded by their origin; data extents are not parsed here.
		return e.X, e.Y, 0, 0
	}
	return e.X, e.Y, 0, 0
}
