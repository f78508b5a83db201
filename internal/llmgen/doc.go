// Figura - Deterministic Visual Generation Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/figura

// Package llmgen asks a language model to emit a complete CanvasInstructions
// JSON document when no deterministic template matches a VisualSpec.
//
// Model selection is a fixed, configuration-driven fallback sequence per
// complexity tier. Every attempt is recorded with token counts, duration and
// outcome so cost accounting never depends on which model finally succeeded.
// A per-model circuit breaker keeps a flapping provider from absorbing the
// whole chain's latency budget, and an optional rate limiter bounds aggregate
// request volume across concurrent generations.
package llmgen
