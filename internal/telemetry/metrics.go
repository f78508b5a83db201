// Figura - Deterministic Visual Generation Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/figura

package telemetry

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/tomtom215/figura/internal/schema"
	"github.com/tomtom215/figura/internal/validation"
)

var (
	// Generation Pipeline Metrics
	GenerationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "figura_generations_total",
			Help: "Total number of generation attempts by strategy and outcome",
		},
		[]string{"rendering_path", "outcome"}, // outcome: "success", "failure"
	)

	GenerationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "figura_generation_duration_seconds",
			Help:    "End-to-end generation duration in seconds by strategy",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"rendering_path"},
	)

	GenerationFallbacks = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "figura_generation_fallbacks_total",
			Help: "Total number of results produced by a non-primary strategy",
		},
	)

	// Artifact Cache Metrics
	CacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "figura_cache_hits_total",
			Help: "Total number of artifact cache hits",
		},
	)

	CacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "figura_cache_misses_total",
			Help: "Total number of artifact cache misses",
		},
	)

	CacheExpiredPurges = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "figura_cache_expired_purges_total",
			Help: "Total number of expired cache entries purged",
		},
	)

	// Model Metrics
	ModelAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "figura_model_attempts_total",
			Help: "Total number of model calls by model and result",
		},
		[]string{"model", "result"}, // result: "success", "failure"
	)

	ModelTokens = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "figura_model_tokens_total",
			Help: "Total tokens consumed by model and kind",
		},
		[]string{"model", "kind"}, // kind: "prompt", "completion"
	)

	ModelCostUSD = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "figura_model_cost_usd_total",
			Help: "Accumulated model spend in USD from the fixed price table",
		},
		[]string{"model"},
	)

	// Sandbox Metrics
	SandboxExecutions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "figura_sandbox_executions_total",
			Help: "Total sandbox executions by status",
		},
		[]string{"status"}, // SUCCESS, SECURITY_VIOLATION, TIMEOUT, RUNTIME_ERROR
	)

	SandboxDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "figura_sandbox_duration_seconds",
			Help:    "Sandbox execution duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	// Validation Metrics
	ValidationIssues = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "figura_validation_issues_total",
			Help: "Total validation issues by severity and category",
		},
		[]string{"severity", "category"},
	)

	ValidationAutoFixes = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "figura_validation_auto_fixes_total",
			Help: "Total auto-fixes applied by the validator",
		},
	)
)

// RecordGeneration records the outcome of one generation attempt.
func RecordGeneration(result *schema.GenerationResult) {
	outcome := "failure"
	if result.Success {
		outcome = "success"
	}
	GenerationsTotal.WithLabelValues(string(result.RenderingPath), outcome).Inc()
	GenerationDuration.WithLabelValues(string(result.RenderingPath)).
		Observe(float64(result.GenerationTimeMs) / 1000)
	if result.FallbackUsed {
		GenerationFallbacks.Inc()
	}
}

// RecordCacheLookup records one cache consultation.
func RecordCacheLookup(hit bool) {
	if hit {
		CacheHits.Inc()
	} else {
		CacheMisses.Inc()
	}
}

// RecordModelAttempt records one model call with its token and cost totals.
func RecordModelAttempt(model string, success bool, promptTokens, completionTokens int, costUSD float64) {
	result := "failure"
	if success {
		result = "success"
	}
	ModelAttempts.WithLabelValues(model, result).Inc()
	ModelTokens.WithLabelValues(model, "prompt").Add(float64(promptTokens))
	ModelTokens.WithLabelValues(model, "completion").Add(float64(completionTokens))
	ModelCostUSD.WithLabelValues(model).Add(costUSD)
}

// RecordSandboxExecution records one sandbox run.
func RecordSandboxExecution(status string, duration time.Duration) {
	SandboxExecutions.WithLabelValues(status).Inc()
	SandboxDuration.Observe(duration.Seconds())
}

// RecordValidation records the issues and fixes from one validation pass.
func RecordValidation(report *validation.Report) {
	for _, issue := range report.Issues {
		ValidationIssues.WithLabelValues(string(issue.Severity), string(issue.Category)).Inc()
	}
	if report.AutoFixesApplied > 0 {
		ValidationAutoFixes.Add(float64(report.AutoFixesApplied))
	}
}
