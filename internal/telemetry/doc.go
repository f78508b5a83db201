// Figura - Deterministic Visual Generation Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/figura

// Package telemetry provides Prometheus instrumentation and per-attempt
// usage accounting for the generation pipeline: strategy outcomes and
// latency, cache efficiency, model token and cost totals, sandbox execution
// statuses and validation issue counts.
package telemetry
