// Figura - Deterministic Visual Generation Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/figura

package llmgen

import (
	"fmt"
	"strings"

	json "github.com/goccy/go-json"

	"github.com/tomtom215/figura/internal/schema"
)

// canvasSystemPrompt is the fixed output contract. It is intentionally
// prescriptive: the decoder downstream accepts exactly one JSON object and
// nothing else.
const canvasSystemPrompt = `You are a visualization compiler. You convert a data specification into a canvas drawing program.

Respond with only the JSON object, no markdown, no commentary. The object must have this shape:

{
  "canvas_id": "<string>",
  "width": <int, 200-2000>,
  "height": <int, 200-1500>,
  "background_color": "<#RRGGBB>",
  "theme": "<theme name>",
  "elements": [
    {"type": "rect", "x": <int>, "y": <int>, "width": <int>, "height": <int>, "fill_color": "<#RRGGBB>", "z_index": <int>},
    {"type": "circle", "x": <int>, "y": <int>, "radius": <int>, "fill_color": "<#RRGGBB>", "z_index": <int>},
    {"type": "text", "x": <int>, "y": <int>, "text": "<string>", "font_size": <int, >=10>, "color": "<#RRGGBB>", "text_align": "left|center|right", "z_index": <int>},
    {"type": "line", "x": <int>, "y": <int>, "x2": <int>, "y2": <int>, "stroke_color": "<#RRGGBB>", "stroke_width": <int>, "z_index": <int>},
    {"type": "path", "x": <int>, "y": <int>, "path_data": "<M/L/H/V/Z commands>", "stroke_color": "<#RRGGBB>", "z_index": <int>}
  ]
}

Rules:
- Every element origin must lie inside the canvas.
- Every color is a 6-digit hex string with a leading #.
- Font sizes below 10 are rejected.
- Draw axes, labels and the title; leave margins so text does not overlap.`

// buildUserPrompt renders the spec into the templated request. Data points
// are embedded as JSON so labels survive verbatim.
func buildUserPrompt(spec *schema.VisualSpec) string {
	points, err := json.Marshal(spec.DataSpec.DataPoints)
	if err != nil {
		// DataPoints marshal cleanly by construction; keep the prompt usable
		// if a caller smuggled in an unmarshalable metadata value.
		points = []byte("[]")
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Create a %s visualization.\n", spec.Intent)
	fmt.Fprintf(&b, "Canvas: %dx%d pixels, theme %q.\n",
		spec.Constraints.MaxWidth, spec.Constraints.MaxHeight, spec.Theme)
	if spec.Title != "" {
		fmt.Fprintf(&b, "Title: %q.\n", spec.Title)
	}
	if spec.Subtitle != "" {
		fmt.Fprintf(&b, "Subtitle: %q.\n", spec.Subtitle)
	}
	fmt.Fprintf(&b, "Data type: %s.\nData points:\n%s\n", spec.DataSpec.DataType, points)
	fmt.Fprintf(&b, "Use canvas_id %q.", spec.SceneID)
	return b.String()
}

// StripCodeFences removes a surrounding markdown code fence from model
// output. Models are told not to emit fences; some do anyway. Input without
// fences is returned trimmed.
func StripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}

	// Drop the opening fence line, including any language tag.
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[i+1:]
	} else {
		return strings.TrimSpace(strings.TrimPrefix(s, "```"))
	}

	if i := strings.LastIndex(s, "```"); i >= 0 {
		s = s[:i]
	}
	return strings.TrimSpace(s)
}
