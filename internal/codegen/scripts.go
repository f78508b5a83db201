// Figura - Deterministic Visual Generation Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/figura

package codegen

import (
	"fmt"

	json "github.com/goccy/go-json"

	"github.com/tomtom215/figura/internal/schema"
)

// scriptParams is the literal data a template script is parameterized with.
// Everything is embedded as JSON so labels and colors survive verbatim and
// the emitted script stays scan-clean.
type scriptParams struct {
	CanvasID string   `json:"canvas_id"`
	Width    int      `json:"width"`
	Height   int      `json:"height"`
	Theme    string   `json:"theme"`
	Title    string   `json:"title"`
	Labels   []string `json:"labels"`
	Values   []float64 `json:"values"`

	Background string   `json:"background"`
	TextColor  string   `json:"text_color"`
	GridColor  string   `json:"grid_color"`
	Series     []string `json:"series"`
}

func paramsFor(spec *schema.VisualSpec) scriptParams {
	palette := spec.Theme.Colors()
	p := scriptParams{
		CanvasID:   spec.SceneID,
		Width:      spec.Constraints.MaxWidth,
		Height:     spec.Constraints.MaxHeight,
		Theme:      string(spec.Theme),
		Title:      spec.Title,
		Background: palette.Background,
		TextColor:  palette.Text,
		GridColor:  palette.Grid,
		Series:     palette.Series,
	}
	for _, point := range spec.DataSpec.DataPoints {
		v, _ := point.NumericValue()
		p.Labels = append(p.Labels, point.Label)
		p.Values = append(p.Values, v)
	}
	return p
}

func (p scriptParams) encode() string {
	raw, err := json.Marshal(p)
	if err != nil {
		// scriptParams contains only plain values; keep the script runnable.
		return "{}"
	}
	return string(raw)
}

// scriptPrelude declares the shared helpers every template script uses:
// element accumulation, the title block and the axis frame.
const scriptPrelude = `
var p = %s;
var elements = [];
var margins = {top: 60, right: 40, bottom: 70, left: 70};
var plotW = p.width - margins.left - margins.right;
var plotH = p.height - margins.top - margins.bottom;

function maxValue() {
	var m = 0;
	for (var i = 0; i < p.values.length; i++) {
		if (p.values[i] > m) { m = p.values[i]; }
	}
	return m > 0 ? m : 1;
}

function addTitle() {
	if (p.title !== "") {
		elements.push({type: "text", x: p.width / 2, y: margins.top - 24, text: p.title,
			font_size: 18, color: p.text_color, text_align: "center", font_weight: "bold",
			z_index: 10});
	}
}

function addFrame() {
	elements.push({type: "line", x: margins.left, y: margins.top,
		x2: margins.left, y2: p.height - margins.bottom,
		stroke_color: p.text_color, stroke_width: 2, z_index: 5});
	elements.push({type: "line", x: margins.left, y: p.height - margins.bottom,
		x2: p.width - margins.right, y2: p.height - margins.bottom,
		stroke_color: p.text_color, stroke_width: 2, z_index: 5});
}

function finish() {
	figura.render({canvas_id: p.canvas_id, width: p.width, height: p.height,
		background_color: p.background, theme: p.theme, elements: elements}, "chart");
}
`

const barScriptBody = `
addTitle();
addFrame();
var max = maxValue();
var n = p.values.length;
var slot = plotW / n;
var barW = Math.max(1, Math.floor(slot * 0.7));
for (var i = 0; i < n; i++) {
	var h = Math.max(1, Math.round(p.values[i] / max * plotH));
	var x = margins.left + Math.round(i * slot + (slot - barW) / 2);
	var y = p.height - margins.bottom - h;
	elements.push({type: "rect", x: x, y: y, width: barW, height: h,
		fill_color: p.series[i % p.series.length], z_index: 2});
	elements.push({type: "text", x: x + barW / 2, y: p.height - margins.bottom + 18,
		text: p.labels[i], font_size: 11, color: p.text_color, text_align: "center",
		font_weight: "normal", z_index: 3});
}
finish();
`

const lineScriptBody = `
addTitle();
addFrame();
var max = maxValue();
var n = p.values.length;
var step = n > 1 ? plotW / (n - 1) : 0;
var prevX = 0, prevY = 0;
for (var i = 0; i < n; i++) {
	var x = Math.round(margins.left + i * step);
	var y = Math.round(p.height - margins.bottom - p.values[i] / max * plotH);
	if (i > 0) {
		elements.push({type: "line", x: prevX, y: prevY, x2: x, y2: y,
			stroke_color: p.series[0], stroke_width: 2, z_index: 2});
	}
	elements.push({type: "circle", x: x, y: y, radius: 4,
		fill_color: p.series[0], z_index: 3});
	elements.push({type: "text", x: x, y: p.height - margins.bottom + 18,
		text: p.labels[i], font_size: 11, color: p.text_color, text_align: "center",
		font_weight: "normal", z_index: 3});
	prevX = x;
	prevY = y;
}
finish();
`

const pieScriptBody = `
addTitle();
var total = 0;
for (var i = 0; i < p.values.length; i++) {
	if (p.values[i] > 0) { total += p.values[i]; }
}
if (total <= 0) { total = 1; }
var cx = Math.round(p.width / 2);
var cy = Math.round((p.height + margins.top) / 2);
var radius = Math.round(Math.min(plotW, plotH) * 0.4);
var angle = -Math.PI / 2;
var segments = 48;
for (var i = 0; i < p.values.length; i++) {
	var share = (p.values[i] > 0 ? p.values[i] : 0) / total;
	var sweep = share * 2 * Math.PI;
	var steps = Math.max(2, Math.ceil(segments * share));
	var d = "M 0 0";
	for (var s = 0; s <= steps; s++) {
		var a = angle + sweep * s / steps;
		d += " L " + Math.round(Math.cos(a) * radius) + " " + Math.round(Math.sin(a) * radius);
	}
	d += " Z";
	elements.push({type: "path", x: cx, y: cy, path_data: d,
		stroke_color: p.background, stroke_width: 1,
		fill_color: p.series[i % p.series.length], z_index: 2});
	var mid = angle + sweep / 2;
	var lx = Math.round(cx + Math.cos(mid) * (radius + 24));
	var ly = Math.round(cy + Math.sin(mid) * (radius + 24));
	elements.push({type: "text", x: lx, y: ly,
		text: p.labels[i] + " " + Math.round(share * 100) + "%",
		font_size: 11, color: p.text_color, text_align: "center",
		font_weight: "normal", z_index: 3});
	angle += sweep;
}
finish();
`

// simpleFallbackScript draws an unstyled bar chart and must succeed for any
// input, including zero data points.
const simpleFallbackScript = `
var n = p.values.length;
if (n === 0) {
	elements.push({type: "text", x: p.width / 2, y: p.height / 2, text: "No data",
		font_size: 16, color: p.text_color, text_align: "center",
		font_weight: "normal", z_index: 1});
} else {
	addFrame();
	var max = maxValue();
	var slot = plotW / n;
	var barW = Math.max(1, Math.floor(slot * 0.6));
	for (var i = 0; i < n; i++) {
		var v = p.values[i] > 0 ? p.values[i] : 0;
		var h = Math.max(1, Math.round(v / max * plotH));
		elements.push({type: "rect",
			x: margins.left + Math.round(i * slot + (slot - barW) / 2),
			y: p.height - margins.bottom - h,
			width: barW, height: h, fill_color: p.series[0], z_index: 2});
	}
}
finish();
`

// buildTemplateScript returns the known-good script for the spec's intent.
// Only the three chart families with template coverage report ok=true.
func buildTemplateScript(spec *schema.VisualSpec) (string, bool) {
	var body string
	switch spec.Intent {
	case schema.IntentBarChart:
		body = barScriptBody
	case schema.IntentLineChart:
		body = lineScriptBody
	case schema.IntentPieChart:
		body = pieScriptBody
	default:
		return "", false
	}
	return fmt.Sprintf(scriptPrelude, paramsFor(spec).encode()) + body, true
}

// buildSimpleFallbackScript returns the last-resort script. It has no intent
// requirements and tolerates empty or non-numeric data.
func buildSimpleFallbackScript(spec *schema.VisualSpec) string {
	return fmt.Sprintf(scriptPrelude, paramsFor(spec).encode()) + simpleFallbackScript
}
