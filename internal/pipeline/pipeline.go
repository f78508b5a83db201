// Figura - Deterministic Visual Generation Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/figura

package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/tomtom215/figura/internal/cache"
	"github.com/tomtom215/figura/internal/codegen"
	"github.com/tomtom215/figura/internal/llmgen"
	"github.com/tomtom215/figura/internal/logging"
	"github.com/tomtom215/figura/internal/registry"
	"github.com/tomtom215/figura/internal/render"
	"github.com/tomtom215/figura/internal/schema"
	"github.com/tomtom215/figura/internal/telemetry"
	"github.com/tomtom215/figura/internal/validation"
)

// Pipeline coordinates the strategies for one generation request. All
// collaborators are injected; a zero-configuration Pipeline still works with
// an in-memory cache and the builtin template registry.
type Pipeline struct {
	store        cache.Store
	cacheTTL     time.Duration
	registry     *registry.Registry
	generator    *llmgen.Generator
	code         *codegen.Pipeline
	renderer     *render.Renderer
	recorder     telemetry.UsageRecorder
	validateOpts validation.Options
}

// Option customizes a Pipeline.
type Option func(*Pipeline)

// WithCache uses the given store and TTL for artifact caching. A nil store
// disables caching entirely.
func WithCache(store cache.Store, ttl time.Duration) Option {
	return func(p *Pipeline) {
		p.store = store
		if ttl > 0 {
			p.cacheTTL = ttl
		}
	}
}

// WithRegistry overrides the builtin template registry.
func WithRegistry(r *registry.Registry) Option {
	return func(p *Pipeline) { p.registry = r }
}

// WithCanvasGenerator enables the LLM canvas instruction strategy.
func WithCanvasGenerator(g *llmgen.Generator) Option {
	return func(p *Pipeline) { p.generator = g }
}

// WithCodePipeline enables the code execution strategy.
func WithCodePipeline(cp *codegen.Pipeline) Option {
	return func(p *Pipeline) { p.code = cp }
}

// WithUsageRecorder persists per-request accounting rows.
func WithUsageRecorder(r telemetry.UsageRecorder) Option {
	return func(p *Pipeline) { p.recorder = r }
}

// WithValidationOptions overrides the quality gate applied to generated
// instructions.
func WithValidationOptions(opts validation.Options) Option {
	return func(p *Pipeline) { p.validateOpts = opts }
}

// New builds a Pipeline. Without options it serves the deterministic paths
// only: memory cache, builtin registry, no model strategies.
func New(opts ...Option) *Pipeline {
	p := &Pipeline{
		store:        cache.NewMemoryStore(),
		cacheTTL:     cache.DefaultTTL,
		registry:     registry.New(),
		renderer:     render.NewRenderer(),
		validateOpts: validation.DefaultOptions(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Generate resolves one VisualSpec into a rendered artifact. The cache is
// consulted first; on a miss, strategies run strictly in the spec's declared
// path preference order, never speculatively in parallel. Expected failures
// of any strategy are absorbed and logged; the returned envelope is a
// failure only when every configured strategy was exhausted.
func (p *Pipeline) Generate(ctx context.Context, spec *schema.VisualSpec) *schema.GenerationResult {
	start := time.Now()
	requestID := logging.RequestIDFromContext(ctx)
	if requestID == "" {
		requestID = logging.GenerateRequestID()
	}

	if result := p.lookupCache(ctx, spec, start); result != nil {
		p.finish(requestID, result, 0)
		return result
	}

	var attempted []string
	var costUSD float64

	for _, path := range spec.PathPreferences {
		if err := ctx.Err(); err != nil {
			break
		}

		var result *schema.GenerationResult
		switch path {
		case schema.PathDeterministicRegistry:
			result = p.tryRegistry(ctx, spec, start)
		case schema.PathCanvasInstructions:
			if p.generator == nil {
				logging.Debug().Str("scene_id", spec.SceneID).
					Msg("LLM canvas strategy not configured, skipping")
				continue
			}
			var cost float64
			result, cost = p.tryCanvasGenerator(ctx, spec, start)
			costUSD += cost
		case schema.PathSVGGeneration:
			// Recognized but not served by any strategy; declared
			// preferences may still list it for forward compatibility.
			logging.Debug().Str("scene_id", spec.SceneID).
				Msg("SVG generation has no backing strategy, skipping")
			continue
		case schema.PathCodeExecution:
			if p.code == nil {
				logging.Debug().Str("scene_id", spec.SceneID).
					Msg("Code execution strategy not configured, skipping")
				continue
			}
			result = p.tryCodeExecution(ctx, spec, start)
		default:
			continue
		}

		attempted = append(attempted, string(path))
		if result == nil {
			continue
		}

		result.RetryCount = len(attempted) - 1
		result.FallbackUsed = len(attempted) > 1
		p.finish(requestID, result, costUSD)
		return result
	}

	failure := schema.NewFailureResult(spec, "", schema.ErrCodeExhausted,
		exhaustionMessage(attempted))
	failure.GenerationTimeMs = time.Since(start).Milliseconds()
	failure.RetryCount = len(attempted)
	failure.FallbackUsed = len(attempted) > 0
	p.finish(requestID, failure, costUSD)
	return failure
}

// RenderCanvas rasterizes already-validated instructions through the shared
// renderer.
func (p *Pipeline) RenderCanvas(ci *schema.CanvasInstructions) ([]byte, error) {
	return p.renderer.RenderPNG(ci)
}

// Validate applies the quality gate to raw instruction JSON.
func (p *Pipeline) Validate(raw []byte) *validation.Report {
	report := validation.Validate(raw, p.validateOpts)
	telemetry.RecordValidation(report)
	return report
}

// PurgeExpired removes expired cache entries.
func (p *Pipeline) PurgeExpired(ctx context.Context) (int, error) {
	if p.store == nil {
		return 0, nil
	}
	n, err := p.store.DeleteExpired(ctx)
	if n > 0 {
		telemetry.CacheExpiredPurges.Add(float64(n))
	}
	return n, err
}

// lookupCache serves a hit when one exists. Lookup failures other than a
// plain miss degrade to a miss.
func (p *Pipeline) lookupCache(ctx context.Context, spec *schema.VisualSpec, start time.Time) *schema.GenerationResult {
	if p.store == nil {
		return nil
	}
	key := cache.Key(spec)
	entry, err := p.store.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, cache.ErrNotFound) {
			logging.Warn().Str("cache_key", key).Err(err).Msg("Cache lookup failed, treating as miss")
		}
		telemetry.RecordCacheLookup(false)
		return nil
	}
	telemetry.RecordCacheLookup(true)

	result := schema.NewSuccessResult(spec, schema.PathCachedResult, time.Since(start))
	result.CacheHit = true
	result.ContentType = "image/png"
	result.OutputData = entry.RenderedImage
	if len(result.OutputData) == 0 && len(entry.InstructionsJSON) > 0 {
		// Older entries carry instructions only; rendering is deterministic
		// so the replay is byte-identical to the original artifact.
		ci, err := schema.UnmarshalCanvasInstructions(entry.InstructionsJSON)
		if err == nil {
			if png, renderErr := p.renderer.RenderPNG(ci); renderErr == nil {
				result.OutputData = png
			}
		}
	}
	if len(result.OutputData) == 0 {
		logging.Warn().Str("cache_key", key).Msg("Cache entry unusable, treating as miss")
		return nil
	}

	logging.Info().
		Str("scene_id", spec.SceneID).
		Str("cache_key", key).
		Msg("Cache hit")
	return result
}

// tryRegistry is the cheapest generation strategy: zero external calls.
func (p *Pipeline) tryRegistry(ctx context.Context, spec *schema.VisualSpec, start time.Time) *schema.GenerationResult {
	ci, err := p.registry.GenerateDeterministicVisual(spec)
	if err != nil {
		logging.Warn().Str("scene_id", spec.SceneID).Err(err).Msg("Template build failed")
		return nil
	}
	if ci == nil {
		logging.Debug().Str("scene_id", spec.SceneID).Msg("No template match, falling through")
		return nil
	}
	return p.finalizeInstructions(ctx, spec, ci, schema.PathDeterministicRegistry, start)
}

// tryCanvasGenerator runs the model fallback chain and returns the accrued
// cost regardless of outcome.
func (p *Pipeline) tryCanvasGenerator(ctx context.Context, spec *schema.VisualSpec, start time.Time) (*schema.GenerationResult, float64) {
	genResult, err := p.generator.Generate(ctx, spec)
	if genResult != nil {
		for _, attempt := range genResult.Attempts {
			telemetry.RecordModelAttempt(attempt.Model, attempt.Success,
				attempt.PromptTokens, attempt.CompletionTokens, 0)
		}
		if genResult.CostUSD > 0 {
			model := genResult.ModelUsed
			if model == "" {
				model = genResult.Attempts[len(genResult.Attempts)-1].Model
			}
			telemetry.ModelCostUSD.WithLabelValues(model).Add(genResult.CostUSD)
		}
	}
	if err != nil {
		logging.Warn().Str("scene_id", spec.SceneID).Err(err).Msg("LLM canvas strategy failed")
		if genResult == nil {
			return nil, 0
		}
		return nil, genResult.CostUSD
	}

	result := p.finalizeInstructions(ctx, spec, genResult.Instructions, schema.PathCanvasInstructions, start)
	if result != nil {
		result.ModelUsed = genResult.ModelUsed
		result.TokensUsed = genResult.TokensUsed()
	}
	return result, genResult.CostUSD
}

// tryCodeExecution delegates to the code pipeline, which has its own
// internal strategy ladder and returns an envelope directly.
func (p *Pipeline) tryCodeExecution(ctx context.Context, spec *schema.VisualSpec, start time.Time) *schema.GenerationResult {
	result := p.code.Generate(ctx, spec)
	if !result.Success {
		logging.Warn().
			Str("scene_id", spec.SceneID).
			Str("error_code", result.ErrorCode).
			Str("error", result.ErrorMessage).
			Msg("Code execution strategy failed")
		return nil
	}
	result.GenerationTimeMs = time.Since(start).Milliseconds()
	return result
}

// finalizeInstructions runs the quality gate, renders and caches one
// instruction-producing strategy's output. nil means the strategy failed.
func (p *Pipeline) finalizeInstructions(ctx context.Context, spec *schema.VisualSpec, ci *schema.CanvasInstructions, path schema.RenderingPath, start time.Time) *schema.GenerationResult {
	report := validation.ValidateInstructions(ci, p.validateOpts)
	telemetry.RecordValidation(report)
	if !report.IsValid {
		logging.Warn().
			Str("scene_id", spec.SceneID).
			Str("rendering_path", string(path)).
			Int("errors", len(report.Errors())).
			Msg("Generated instructions failed validation")
		return nil
	}
	if report.FixedInstructions != nil {
		ci = report.FixedInstructions
	}
	ci.ValidationPassed = true

	png, err := p.renderer.RenderPNG(ci)
	if err != nil {
		logging.Warn().
			Str("scene_id", spec.SceneID).
			Str("rendering_path", string(path)).
			Err(err).
			Msg("Render failed for validated instructions")
		return nil
	}

	result := schema.NewSuccessResult(spec, path, time.Since(start))
	result.OutputData = png
	result.ContentType = "image/png"
	p.cachePut(ctx, spec, ci, png, result)
	return result
}

// cachePut persists a fresh artifact. Failures are logged, never surfaced.
func (p *Pipeline) cachePut(ctx context.Context, spec *schema.VisualSpec, ci *schema.CanvasInstructions, png []byte, result *schema.GenerationResult) {
	if p.store == nil {
		return
	}
	raw, err := ci.MarshalJSONBytes()
	if err != nil {
		logging.Warn().Str("scene_id", spec.SceneID).Err(err).Msg("Encode instructions for cache failed")
		return
	}
	key := cache.Key(spec)
	entry := &cache.Entry{
		CacheKey:         key,
		ContentHash:      cache.ContentHash(spec),
		InstructionsJSON: raw,
		RenderedImage:    png,
		GenerationTimeMs: result.GenerationTimeMs,
		ValidationPassed: true,
	}
	if err := p.store.Put(ctx, key, entry, p.cacheTTL); err != nil {
		logging.Warn().Str("cache_key", key).Err(err).Msg("Cache write failed")
	}
}

// finish records telemetry and the usage row for one request outcome.
func (p *Pipeline) finish(requestID string, result *schema.GenerationResult, costUSD float64) {
	telemetry.RecordGeneration(result)
	if p.recorder != nil {
		if err := p.recorder.Record(telemetry.NewUsageRecord(requestID, result, costUSD)); err != nil {
			logging.Warn().Str("request_id", requestID).Err(err).Msg("Usage record write failed")
		}
	}
}

func exhaustionMessage(attempted []string) string {
	if len(attempted) == 0 {
		return "no generation strategy is configured for the requested path preferences"
	}
	return fmt.Sprintf("all generation strategies exhausted: %s", strings.Join(attempted, ", "))
}
