// Figura - Deterministic Visual Generation Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/figura

package schema

import "time"

// Error codes carried by GenerationResult.ErrorCode. These distinguish
// failure families in telemetry; fallback handling treats transport and
// generation failures identically.
const (
	ErrCodeValidation        = "VALIDATION_ERROR"
	ErrCodeSecurityViolation = "SECURITY_VIOLATION"
	ErrCodeGeneration        = "GENERATION_FAILED"
	ErrCodeTransport         = "TRANSPORT_ERROR"
	ErrCodeRender            = "RENDER_FAILED"
	ErrCodeExhausted         = "STRATEGIES_EXHAUSTED"
)

// GenerationResult is the single outcome envelope returned by every
// generation strategy. Callers never branch on strategy-specific shapes.
// A pipeline may produce several internally (one per attempted strategy) but
// returns only the first successful one; failed attempts survive solely in
// logs and telemetry.
type GenerationResult struct {
	Success       bool           `json:"success"`
	VisualSpec    *VisualSpec    `json:"visual_spec,omitempty"`
	RenderingPath RenderingPath  `json:"rendering_path"`

	// OutputData holds the rendered artifact (PNG bytes) when produced in
	// memory; FilePath points at an on-disk artifact from sandbox execution.
	OutputData  []byte `json:"output_data,omitempty"`
	FilePath    string `json:"file_path,omitempty"`
	ContentType string `json:"content_type,omitempty"`

	GenerationTimeMs int64 `json:"generation_time_ms"`
	CacheHit         bool  `json:"cache_hit"`
	RetryCount       int   `json:"retry_count"`

	// Fixed per-strategy telemetry placeholders, not measured quality.
	AccuracyScore      *float64 `json:"accuracy_score,omitempty"`
	VisualQualityScore *float64 `json:"visual_quality_score,omitempty"`

	ErrorMessage string `json:"error_message,omitempty"`
	ErrorCode    string `json:"error_code,omitempty"`
	FallbackUsed bool   `json:"fallback_used"`

	GeneratedAt time.Time `json:"generated_at"`
	ModelUsed   string    `json:"model_used,omitempty"`
	TokensUsed  int       `json:"tokens_used,omitempty"`
}

// NewSuccessResult builds a success envelope for the given spec and path.
func NewSuccessResult(spec *VisualSpec, path RenderingPath, elapsed time.Duration) *GenerationResult {
	return &GenerationResult{
		Success:          true,
		VisualSpec:       spec,
		RenderingPath:    path,
		GenerationTimeMs: elapsed.Milliseconds(),
		GeneratedAt:      time.Now().UTC(),
	}
}

// NewFailureResult builds a failure envelope for the given spec and path.
func NewFailureResult(spec *VisualSpec, path RenderingPath, code, message string) *GenerationResult {
	return &GenerationResult{
		Success:       false,
		VisualSpec:    spec,
		RenderingPath: path,
		ErrorCode:     code,
		ErrorMessage:  message,
		GeneratedAt:   time.Now().UTC(),
	}
}

// Score returns a pointer to v; convenience for the fixed per-strategy
// accuracy and quality constants.
func Score(v float64) *float64 { return &v }
