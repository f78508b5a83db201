// Figura - Deterministic Visual Generation Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/figura

// Package schema defines the typed contracts shared by every generation
// strategy: VisualSpec (what the caller wants), CanvasInstructions (a concrete
// drawing program), and GenerationResult (the uniform outcome envelope).
//
// All invariants declared here are enforced at construction time via
// go-playground/validator v10 struct tags plus variant-specific checks for the
// canvas element union. Constructors fail fast; nothing is clamped or coerced.
// A value that survives its constructor can be handed to any downstream
// component without re-checking ranges.
//
// Design rules:
//
//   - VisualSpec is immutable after construction; its content hash is derived
//     once (see the cache package) and excludes caller-assigned identity
//     fields so semantically identical requests collide in cache.
//   - CanvasElement is a closed tagged union discriminated by ElementType.
//     The renderer's dispatch over it is exhaustive; there is no open
//     "unknown element" escape hatch at the type level.
//   - GenerationResult is the single return shape for every strategy.
//     Callers never branch on strategy-specific result types.
package schema
