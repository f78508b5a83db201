// Figura - Deterministic Visual Generation Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/figura

package codegen

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/tomtom215/figura/internal/llmgen"
	"github.com/tomtom215/figura/internal/logging"
	"github.com/tomtom215/figura/internal/sandbox"
	"github.com/tomtom215/figura/internal/schema"
)

// Strategy identifies one code-generation approach.
type Strategy string

// Strategies in priority order.
const (
	StrategyDynamicAI      Strategy = "dynamic_ai"
	StrategyTemplate       Strategy = "template"
	StrategySimpleFallback Strategy = "simple_fallback"
)

// Fixed per-strategy score constants. These are telemetry placeholders, not
// measured quality: model-authored code scores highest on visual quality,
// template code highest on accuracy, the fallback lowest on both.
var strategyScores = map[Strategy]struct{ accuracy, quality float64 }{
	StrategyDynamicAI:      {accuracy: 0.85, quality: 0.90},
	StrategyTemplate:       {accuracy: 0.95, quality: 0.75},
	StrategySimpleFallback: {accuracy: 0.90, quality: 0.40},
}

// DefaultMaxCodeLength is the pre-execution ceiling on model-authored code.
const DefaultMaxCodeLength = 20000

// codeSystemPrompt is the fixed security contract for model-authored
// plotting scripts.
const codeSystemPrompt = `You write JavaScript plotting scripts. The runtime exposes exactly two APIs:

  figura.render(instructions, filename) - renders a canvas-instructions object to a PNG
  console.log(...) - diagnostic output

The instructions object shape: {canvas_id, width, height, background_color, theme,
elements: [{type: rect|circle|text|line|path, ...}]}. Colors are #RRGGBB strings,
text elements need text, font_size >= 10, color, text_align and font_weight.

Forbidden, enforced by a static scan before execution: require, import, eval,
the Function constructor, process, child_process, fetch, XMLHttpRequest,
WebSocket, fs, timers, Reflect, Proxy, globalThis. Plain loops, Math and the
two APIs above are all you need.

Respond with only the script, no markdown, no commentary.`

// Pipeline runs the three strategies in priority order. A Pipeline without a
// chat client skips the dynamic strategy entirely and still always produces
// output via the template and fallback strategies.
type Pipeline struct {
	executor    *sandbox.Executor
	client      llmgen.ChatClient
	model       string
	maxCodeLen  int
	artifactDir string
}

// PipelineOption customizes a Pipeline.
type PipelineOption func(*Pipeline)

// WithChatClient enables the dynamic strategy using the given client and
// model identifier.
func WithChatClient(client llmgen.ChatClient, model string) PipelineOption {
	return func(p *Pipeline) {
		p.client = client
		p.model = model
	}
}

// WithMaxCodeLength overrides the pre-execution code length ceiling.
func WithMaxCodeLength(n int) PipelineOption {
	return func(p *Pipeline) {
		if n > 0 {
			p.maxCodeLen = n
		}
	}
}

// WithArtifactDir overrides where rendered PNGs are persisted. Every
// successful result reports an on-disk path; without this option artifacts
// land under DefaultArtifactDir().
func WithArtifactDir(dir string) PipelineOption {
	return func(p *Pipeline) {
		if dir != "" {
			p.artifactDir = dir
		}
	}
}

// DefaultArtifactDir is where artifacts are persisted when no directory is
// configured. The sandbox work dir is removed after every run, so this is
// the artifact's only on-disk home.
func DefaultArtifactDir() string {
	return filepath.Join(os.TempDir(), "figura-artifacts")
}

// NewPipeline builds a Pipeline around a sandbox executor.
func NewPipeline(executor *sandbox.Executor, opts ...PipelineOption) *Pipeline {
	p := &Pipeline{
		executor:    executor,
		maxCodeLen:  DefaultMaxCodeLength,
		artifactDir: DefaultArtifactDir(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Generate tries dynamic, template, then fallback code until one produces an
// artifact. The returned envelope always reflects the winning strategy; the
// final fallback cannot fail on any valid spec, so a failure envelope only
// occurs when the sandbox itself is broken.
func (p *Pipeline) Generate(ctx context.Context, spec *schema.VisualSpec) *schema.GenerationResult {
	start := time.Now()
	var attempts int

	if p.client != nil {
		attempts++
		if result := p.tryDynamic(ctx, spec, start); result != nil {
			result.RetryCount = attempts - 1
			return result
		}
	}

	if script, ok := buildTemplateScript(spec); ok {
		attempts++
		if result := p.runScript(ctx, spec, script, StrategyTemplate, start); result != nil {
			result.RetryCount = attempts - 1
			result.FallbackUsed = attempts > 1
			return result
		}
	}

	attempts++
	if result := p.runScript(ctx, spec, buildSimpleFallbackScript(spec), StrategySimpleFallback, start); result != nil {
		result.RetryCount = attempts - 1
		result.FallbackUsed = true
		return result
	}

	failure := schema.NewFailureResult(spec, schema.PathCodeExecution,
		schema.ErrCodeGeneration, "all code generation strategies failed")
	failure.RetryCount = attempts
	failure.FallbackUsed = true
	return failure
}

// tryDynamic asks the model for a script, applies the length pre-check and
// runs it. nil means advance to the next strategy.
func (p *Pipeline) tryDynamic(ctx context.Context, spec *schema.VisualSpec, start time.Time) *schema.GenerationResult {
	comp, err := p.client.Complete(ctx, p.model, codeSystemPrompt, buildCodePrompt(spec))
	if err != nil {
		logging.Warn().
			Str("scene_id", spec.SceneID).
			Str("model", p.model).
			Err(err).
			Msg("Dynamic code generation failed, falling back to template script")
		return nil
	}

	code := llmgen.StripCodeFences(comp.Content)
	if len(code) > p.maxCodeLen {
		logging.Warn().
			Str("scene_id", spec.SceneID).
			Int("code_length", len(code)).
			Int("max_length", p.maxCodeLen).
			Msg("Model-authored code exceeds length ceiling, rejecting before execution")
		return nil
	}

	result := p.runScript(ctx, spec, code, StrategyDynamicAI, start)
	if result != nil {
		result.ModelUsed = p.model
		result.TokensUsed = comp.PromptTokens + comp.CompletionTokens
	}
	return result
}

// runScript executes one script and wraps a successful PNG artifact in the
// result envelope. nil means the strategy failed and the next one applies.
func (p *Pipeline) runScript(ctx context.Context, spec *schema.VisualSpec, script string, strategy Strategy, start time.Time) *schema.GenerationResult {
	execResult, err := p.executor.Execute(ctx, script)
	if err != nil {
		logging.Error().Str("scene_id", spec.SceneID).Err(err).Msg("Sandbox infrastructure failure")
		return nil
	}
	defer execResult.Cleanup()

	if execResult.Status != sandbox.StatusSuccess {
		logging.Warn().
			Str("scene_id", spec.SceneID).
			Str("strategy", string(strategy)).
			Str("status", string(execResult.Status)).
			Str("error", execResult.ErrorMessage).
			Msg("Code execution strategy failed")
		return nil
	}

	png := firstPNG(execResult.GeneratedFiles)
	if png == "" {
		logging.Warn().
			Str("scene_id", spec.SceneID).
			Str("strategy", string(strategy)).
			Msg("Script completed without producing a PNG artifact")
		return nil
	}
	data, err := os.ReadFile(png)
	if err != nil {
		logging.Error().Str("scene_id", spec.SceneID).Err(err).Msg("Read sandbox artifact")
		return nil
	}

	result := schema.NewSuccessResult(spec, schema.PathCodeExecution, time.Since(start))
	result.OutputData = data
	result.ContentType = "image/png"
	scores := strategyScores[strategy]
	result.AccuracyScore = schema.Score(scores.accuracy)
	result.VisualQualityScore = schema.Score(scores.quality)

	// The sandbox work dir is cleaned up above, so the artifact must be
	// persisted here for the reported path to outlive the call.
	path := filepath.Join(p.artifactDir, fmt.Sprintf("%s-%s.png", spec.SceneID, strategy))
	if err := os.MkdirAll(p.artifactDir, 0o700); err != nil {
		logging.Warn().Str("dir", p.artifactDir).Err(err).Msg("Create artifact dir failed")
	} else if err := os.WriteFile(path, data, 0o600); err != nil {
		logging.Warn().Str("path", path).Err(err).Msg("Persist artifact failed")
	} else {
		result.FilePath = path
	}

	logging.Info().
		Str("scene_id", spec.SceneID).
		Str("strategy", string(strategy)).
		Int("artifact_bytes", len(data)).
		Dur("elapsed", time.Since(start)).
		Msg("Code execution strategy produced artifact")
	return result
}

func buildCodePrompt(spec *schema.VisualSpec) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Write a script that draws a %s for this data.\n", spec.Intent)
	fmt.Fprintf(&b, "Canvas: %dx%d, theme %q, canvas_id %q.\n",
		spec.Constraints.MaxWidth, spec.Constraints.MaxHeight, spec.Theme, spec.SceneID)
	if spec.Title != "" {
		fmt.Fprintf(&b, "Title: %q.\n", spec.Title)
	}
	b.WriteString("Data points (label: value):\n")
	for _, point := range spec.DataSpec.DataPoints {
		v, _ := point.NumericValue()
		fmt.Fprintf(&b, "  %s: %g\n", point.Label, v)
	}
	b.WriteString(`Call figura.render(instructions, "chart") exactly once.`)
	return b.String()
}

func firstPNG(files []string) string {
	for _, f := range files {
		if strings.EqualFold(filepath.Ext(f), ".png") {
			return f
		}
	}
	return ""
}
