// Figura - Deterministic Visual Generation Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/figura

// Package sandbox executes model-authored JavaScript plotting snippets under
// restriction. A static scan rejects forbidden constructs before any virtual
// machine is constructed; accepted snippets run in a fresh goja runtime whose
// only capabilities are the injected bindings (console capture, a chart
// builder, and a save function confined to a per-execution temp directory).
// Execution is wall-clock bounded and every snippet failure is reported as a
// status, never propagated as a Go panic or unhandled error.
package sandbox
