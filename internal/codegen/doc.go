// Figura - Deterministic Visual Generation Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/figura

// Package codegen produces visualizations by writing plotting scripts and
// running them in the sandbox. Three strategies apply in fixed priority
// order: model-authored code (only when a chat client is configured),
// parameterized template scripts built from the caller's literal data, and a
// minimal hard-coded fallback that cannot fail even on empty data. Every
// strategy wraps its outcome in the same GenerationResult envelope with
// fixed per-strategy accuracy and quality constants.
package codegen
