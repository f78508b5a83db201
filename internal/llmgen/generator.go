// Figura - Deterministic Visual Generation Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/figura

package llmgen

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"github.com/tomtom215/figura/internal/logging"
	"github.com/tomtom215/figura/internal/schema"
	"github.com/tomtom215/figura/internal/validation"
)

// ErrModelsExhausted indicates every model in the fallback chain failed. The
// Result returned alongside it still carries the full attempt log.
var ErrModelsExhausted = errors.New("llmgen: all models in fallback chain failed")

// ErrNoModels indicates the chain for the estimated tier is empty.
var ErrNoModels = errors.New("llmgen: no models configured for complexity tier")

// Attempt records one model call, successful or not. The log is returned in
// chain order for cost and latency accounting.
type Attempt struct {
	Model            string        `json:"model"`
	PromptTokens     int           `json:"prompt_tokens"`
	CompletionTokens int           `json:"completion_tokens"`
	Duration         time.Duration `json:"duration"`
	Success          bool          `json:"success"`
	Error            string        `json:"error,omitempty"`
	ErrorCode        string        `json:"error_code,omitempty"`

	// instructions carries a successful attempt's decoded output to the
	// Result; it stays out of the serialized log.
	instructions *schema.CanvasInstructions
}

// Result is the outcome of one generation: the first valid instructions
// produced plus the complete attempt log. On exhaustion Instructions is nil
// and Attempts covers the whole chain.
type Result struct {
	Instructions     *schema.CanvasInstructions
	ModelUsed        string
	Complexity       Complexity
	Attempts         []Attempt
	PromptTokens     int
	CompletionTokens int
	CostUSD          float64
}

// TokensUsed returns the total token count across all attempts.
func (r *Result) TokensUsed() int { return r.PromptTokens + r.CompletionTokens }

// Generator turns a VisualSpec into CanvasInstructions via a model fallback
// chain. It is safe for concurrent use.
type Generator struct {
	client   ChatClient
	chains   ModelChains
	prices   PriceTable
	limiter  *rate.Limiter
	validate validation.Options

	mu       sync.Mutex
	breakers map[string]*gobreaker.CircuitBreaker[Completion]
}

// GeneratorOption customizes a Generator.
type GeneratorOption func(*Generator)

// WithModelChains overrides the default per-tier fallback sequences.
func WithModelChains(chains ModelChains) GeneratorOption {
	return func(g *Generator) { g.chains = chains }
}

// WithPriceTable overrides the default per-model price table.
func WithPriceTable(t PriceTable) GeneratorOption {
	return func(g *Generator) { g.prices = t }
}

// WithRateLimit bounds aggregate model calls per second across concurrent
// generations. Zero or negative rps disables limiting.
func WithRateLimit(rps float64, burst int) GeneratorOption {
	return func(g *Generator) {
		if rps > 0 {
			g.limiter = rate.NewLimiter(rate.Limit(rps), burst)
		}
	}
}

// WithValidationOptions overrides the validation pass applied to decoded
// instructions.
func WithValidationOptions(opts validation.Options) GeneratorOption {
	return func(g *Generator) { g.validate = opts }
}

// NewGenerator builds a Generator around an injected ChatClient.
func NewGenerator(client ChatClient, opts ...GeneratorOption) *Generator {
	g := &Generator{
		client:   client,
		chains:   DefaultModelChains(),
		prices:   DefaultPriceTable(),
		validate: validation.DefaultOptions(),
		breakers: make(map[string]*gobreaker.CircuitBreaker[Completion]),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Generate tries each model in the tier's chain until one produces
// instructions that decode and pass validation. A validation failure counts
// the same as a transport failure: the next model is tried, never aborted.
// On exhaustion the partial Result (attempt log, token totals) is returned
// together with ErrModelsExhausted.
func (g *Generator) Generate(ctx context.Context, spec *schema.VisualSpec) (*Result, error) {
	tier := EstimateComplexity(spec)
	chain := g.chains.ForTier(tier)
	if len(chain) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoModels, tier)
	}

	system := canvasSystemPrompt
	user := buildUserPrompt(spec)
	result := &Result{Complexity: tier}

	for _, model := range chain {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		if g.limiter != nil {
			if err := g.limiter.Wait(ctx); err != nil {
				return result, err
			}
		}

		attempt := g.tryModel(ctx, model, system, user)
		result.Attempts = append(result.Attempts, attempt)
		result.PromptTokens += attempt.PromptTokens
		result.CompletionTokens += attempt.CompletionTokens
		result.CostUSD += g.prices.CostUSD(model, attempt.PromptTokens, attempt.CompletionTokens)

		if !attempt.Success {
			logging.Warn().
				Str("scene_id", spec.SceneID).
				Str("model", model).
				Str("error_code", attempt.ErrorCode).
				Str("error", attempt.Error).
				Msg("Model attempt failed, advancing fallback chain")
			continue
		}

		result.Instructions = attempt.instructions
		result.ModelUsed = model
		logging.Info().
			Str("scene_id", spec.SceneID).
			Str("model", model).
			Int("attempts", len(result.Attempts)).
			Int("tokens", result.TokensUsed()).
			Float64("cost_usd", result.CostUSD).
			Msg("Canvas instructions generated")
		return result, nil
	}

	return result, fmt.Errorf("%w: %d attempts for tier %s", ErrModelsExhausted, len(result.Attempts), tier)
}

func (g *Generator) tryModel(ctx context.Context, model, system, user string) Attempt {
	start := time.Now()
	comp, err := g.breakerFor(model).Execute(func() (Completion, error) {
		return g.client.Complete(ctx, model, system, user)
	})
	attempt := Attempt{
		Model:            model,
		Duration:         time.Since(start),
		PromptTokens:     comp.PromptTokens,
		CompletionTokens: comp.CompletionTokens,
	}
	if err != nil {
		attempt.Error = err.Error()
		attempt.ErrorCode = schema.ErrCodeTransport
		return attempt
	}

	ci, err := schema.UnmarshalCanvasInstructions([]byte(StripCodeFences(comp.Content)))
	if err != nil {
		attempt.Error = fmt.Sprintf("decode model output: %v", err)
		attempt.ErrorCode = schema.ErrCodeGeneration
		return attempt
	}

	report := validation.ValidateInstructions(ci, g.validate)
	if !report.IsValid {
		attempt.Error = summarizeIssues(report)
		attempt.ErrorCode = schema.ErrCodeValidation
		return attempt
	}
	if report.FixedInstructions != nil {
		ci = report.FixedInstructions
	}

	attempt.Success = true
	attempt.instructions = ci
	return attempt
}

// breakerFor returns the circuit breaker for a model, creating it on first
// use. Each model gets its own breaker so one degraded provider does not trip
// the rest of the chain.
func (g *Generator) breakerFor(model string) *gobreaker.CircuitBreaker[Completion] {
	g.mu.Lock()
	defer g.mu.Unlock()
	if cb, ok := g.breakers[model]; ok {
		return cb
	}
	cb := gobreaker.NewCircuitBreaker[Completion](gobreaker.Settings{
		Name:        "llmgen-" + model,
		MaxRequests: 1,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	})
	g.breakers[model] = cb
	return cb
}

func summarizeIssues(report *validation.Report) string {
	errs := report.Errors()
	msgs := make([]string, 0, len(errs))
	for _, issue := range errs {
		msgs = append(msgs, issue.Message)
	}
	return "instructions failed validation: " + strings.Join(msgs, "; ")
}
