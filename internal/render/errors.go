// Figura - Deterministic Visual Generation Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/figura

package render

import "errors"

// ErrRender is returned when a canvas cannot be rasterized at all:
// non-positive dimensions, zero elements, or an encoding failure. Individual
// undrawable elements never produce this error; they degrade per-element.
var ErrRender = errors.New("render failed")
