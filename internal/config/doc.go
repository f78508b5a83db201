// Figura - Deterministic Visual Generation Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/figura

// Package config loads the pipeline configuration with Koanf v2 from three
// layered sources: built-in defaults, an optional YAML file and environment
// variables, in ascending precedence. Environment variables map through an
// explicit table so unrelated variables never leak into the configuration.
package config
