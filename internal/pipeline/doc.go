// Figura - Deterministic Visual Generation Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/figura

// Package pipeline orchestrates the generation strategies for one
// VisualSpec: cache lookup by content hash, then each strategy in the spec's
// declared preference order (deterministic registry, LLM canvas generation,
// code execution) until one produces a validated, rendered artifact.
//
// Per-strategy failures are control flow, not errors: they are logged with
// the strategy identity and the orchestrator advances. The caller always
// receives a GenerationResult; a failure envelope with STRATEGIES_EXHAUSTED
// appears only after every configured strategy declined.
package pipeline
