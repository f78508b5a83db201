// Figura - Deterministic Visual Generation Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/figura

package codegen

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/tomtom215/figura/internal/llmgen"
	"github.com/tomtom215/figura/internal/sandbox"
	"github.com/tomtom215/figura/internal/schema"
)

type stubClient struct {
	content string
	err     error
	calls   int
}

func (c *stubClient) Complete(context.Context, string, string, string) (llmgen.Completion, error) {
	c.calls++
	if c.err != nil {
		return llmgen.Completion{}, c.err
	}
	return llmgen.Completion{Content: c.content, PromptTokens: 80, CompletionTokens: 150}, nil
}

const dynamicScript = `
figura.render({canvas_id: "dyn", width: 800, height: 600,
	background_color: "#FFFFFF", theme: "professional",
	elements: [{type: "rect", x: 50, y: 50, width: 300, height: 200,
		fill_color: "#2563EB", z_index: 1}]}, "chart");
`

func chartSpec(t *testing.T, intent schema.VisualIntent) *schema.VisualSpec {
	t.Helper()
	ds, err := schema.NewDataSpec(schema.DataCategorical, []schema.DataPoint{
		{Label: "Q1", Value: 40.0},
		{Label: "Q2", Value: 65.0},
		{Label: "Q3", Value: 30.0},
	})
	if err != nil {
		t.Fatalf("NewDataSpec failed: %v", err)
	}
	spec, err := schema.NewVisualSpec("scene-code", intent, *ds, schema.WithTitle("Results", ""))
	if err != nil {
		t.Fatalf("NewVisualSpec failed: %v", err)
	}
	return spec
}

func newTestPipeline(t *testing.T, opts ...PipelineOption) *Pipeline {
	t.Helper()
	executor := sandbox.NewExecutor(sandbox.WithBaseDir(t.TempDir()))
	return NewPipeline(executor, opts...)
}

func isPNG(data []byte) bool {
	return len(data) > 8 && string(data[1:4]) == "PNG"
}

func TestGenerate_TemplateStrategyWithoutClient(t *testing.T) {
	p := newTestPipeline(t)

	result := p.Generate(context.Background(), chartSpec(t, schema.IntentBarChart))
	if !result.Success {
		t.Fatalf("Expected success, got %s: %s", result.ErrorCode, result.ErrorMessage)
	}
	if result.RenderingPath != schema.PathCodeExecution {
		t.Errorf("Expected code_execution path, got %s", result.RenderingPath)
	}
	if !isPNG(result.OutputData) {
		t.Error("Expected PNG bytes in OutputData")
	}
	if result.AccuracyScore == nil || *result.AccuracyScore != 0.95 {
		t.Errorf("Expected template accuracy score 0.95, got %v", result.AccuracyScore)
	}
	if result.ModelUsed != "" {
		t.Errorf("No model involved, got ModelUsed=%q", result.ModelUsed)
	}
	if result.FallbackUsed {
		t.Error("Template as first attempted strategy is not a fallback")
	}
}

func TestGenerate_DynamicStrategy(t *testing.T) {
	client := &stubClient{content: "```javascript\n" + dynamicScript + "\n```"}
	p := newTestPipeline(t, WithChatClient(client, "gpt-4o"))

	result := p.Generate(context.Background(), chartSpec(t, schema.IntentBarChart))
	if !result.Success {
		t.Fatalf("Expected success, got %s: %s", result.ErrorCode, result.ErrorMessage)
	}
	if result.ModelUsed != "gpt-4o" {
		t.Errorf("Expected ModelUsed gpt-4o, got %q", result.ModelUsed)
	}
	if result.TokensUsed != 230 {
		t.Errorf("Expected 230 tokens, got %d", result.TokensUsed)
	}
	if result.VisualQualityScore == nil || *result.VisualQualityScore != 0.90 {
		t.Errorf("Expected dynamic quality score 0.90, got %v", result.VisualQualityScore)
	}
}

func TestGenerate_ForbiddenDynamicCodeFallsBack(t *testing.T) {
	client := &stubClient{content: `eval("figura.render({}, 'x')");`}
	p := newTestPipeline(t, WithChatClient(client, "gpt-4o"))

	result := p.Generate(context.Background(), chartSpec(t, schema.IntentBarChart))
	if !result.Success {
		t.Fatalf("Expected template fallback to succeed, got %s", result.ErrorMessage)
	}
	if client.calls != 1 {
		t.Errorf("Expected exactly one model call, got %d", client.calls)
	}
	if !result.FallbackUsed {
		t.Error("Expected FallbackUsed after the dynamic strategy failed")
	}
	if result.RetryCount != 1 {
		t.Errorf("Expected RetryCount 1, got %d", result.RetryCount)
	}
	if result.AccuracyScore == nil || *result.AccuracyScore != 0.95 {
		t.Error("Expected the template strategy's score on the fallback result")
	}
}

func TestGenerate_OverlongDynamicCodeRejectedBeforeExecution(t *testing.T) {
	client := &stubClient{content: strings.Repeat("console.log(1);\n", 100)}
	p := newTestPipeline(t, WithChatClient(client, "gpt-4o"), WithMaxCodeLength(50))

	result := p.Generate(context.Background(), chartSpec(t, schema.IntentBarChart))
	if !result.Success {
		t.Fatalf("Expected template fallback to succeed, got %s", result.ErrorMessage)
	}
	if result.ModelUsed != "" {
		t.Error("Rejected dynamic code must not be credited to a model")
	}
}

func TestGenerate_SimpleFallbackForUnsupportedIntent(t *testing.T) {
	p := newTestPipeline(t)

	result := p.Generate(context.Background(), chartSpec(t, schema.IntentCustomDiagram))
	if !result.Success {
		t.Fatalf("Expected simple fallback to succeed, got %s", result.ErrorMessage)
	}
	if !result.FallbackUsed {
		t.Error("Simple fallback must be flagged as a fallback")
	}
	if result.VisualQualityScore == nil || *result.VisualQualityScore != 0.40 {
		t.Errorf("Expected fallback quality score 0.40, got %v", result.VisualQualityScore)
	}
	if !isPNG(result.OutputData) {
		t.Error("Expected PNG bytes from the fallback")
	}
}

func TestSimpleFallback_EmptyData(t *testing.T) {
	// Bypass the constructor: the fallback contract covers specs that never
	// could have been built with data, e.g. retried partial requests.
	spec := &schema.VisualSpec{
		SceneID:     "scene-empty",
		Intent:      schema.IntentBarChart,
		DataSpec:    schema.DataSpec{DataType: schema.DataCategorical},
		Theme:       schema.ThemeProfessional,
		Constraints: schema.DefaultConstraints(),
	}
	executor := sandbox.NewExecutor(sandbox.WithBaseDir(t.TempDir()))

	execResult, err := executor.Execute(context.Background(), buildSimpleFallbackScript(spec))
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	defer execResult.Cleanup()

	if execResult.Status != sandbox.StatusSuccess {
		t.Errorf("Empty data must still produce a chart, got %s: %s",
			execResult.Status, execResult.ErrorMessage)
	}
	if len(execResult.GeneratedFiles) == 0 {
		t.Error("Expected an artifact even with empty data")
	}
}

func TestTemplateScripts_PassStrictScan(t *testing.T) {
	intents := []schema.VisualIntent{
		schema.IntentBarChart,
		schema.IntentLineChart,
		schema.IntentPieChart,
	}
	for _, intent := range intents {
		t.Run(string(intent), func(t *testing.T) {
			script, ok := buildTemplateScript(chartSpec(t, intent))
			if !ok {
				t.Fatalf("Expected a template script for %s", intent)
			}
			if violations := sandbox.Scan(script, sandbox.LevelStrict); len(violations) != 0 {
				t.Errorf("Template script trips the strict scan: %v", violations)
			}
		})
	}
}

func TestTemplateScripts_RenderEndToEnd(t *testing.T) {
	executor := sandbox.NewExecutor(sandbox.WithBaseDir(t.TempDir()))
	intents := []schema.VisualIntent{
		schema.IntentBarChart,
		schema.IntentLineChart,
		schema.IntentPieChart,
	}
	for _, intent := range intents {
		t.Run(string(intent), func(t *testing.T) {
			script, ok := buildTemplateScript(chartSpec(t, intent))
			if !ok {
				t.Fatalf("Expected a template script for %s", intent)
			}
			result, err := executor.Execute(context.Background(), script)
			if err != nil {
				t.Fatalf("Execute failed: %v", err)
			}
			defer result.Cleanup()
			if result.Status != sandbox.StatusSuccess {
				t.Fatalf("Expected SUCCESS, got %s: %s", result.Status, result.ErrorMessage)
			}
			if len(result.GeneratedFiles) != 1 {
				t.Errorf("Expected exactly one artifact, got %d", len(result.GeneratedFiles))
			}
		})
	}
}

func TestGenerate_PersistsArtifactByDefault(t *testing.T) {
	p := newTestPipeline(t)

	result := p.Generate(context.Background(), chartSpec(t, schema.IntentBarChart))
	if !result.Success {
		t.Fatalf("Expected success, got %s: %s", result.ErrorCode, result.ErrorMessage)
	}
	if result.FilePath == "" {
		t.Fatal("Successful code execution must report an on-disk artifact path")
	}
	t.Cleanup(func() { _ = os.Remove(result.FilePath) })

	if filepath.Dir(result.FilePath) != DefaultArtifactDir() {
		t.Errorf("Expected artifact under %s, got %s", DefaultArtifactDir(), result.FilePath)
	}
	info, err := os.Stat(result.FilePath)
	if err != nil {
		t.Fatalf("Artifact missing on disk: %v", err)
	}
	if info.Size() == 0 {
		t.Error("Artifact file is empty")
	}
	data, err := os.ReadFile(result.FilePath)
	if err != nil {
		t.Fatalf("Read artifact: %v", err)
	}
	if !bytes.Equal(data, result.OutputData) {
		t.Error("On-disk artifact must match the in-memory copy")
	}
}

func TestGenerate_ArtifactDirOverride(t *testing.T) {
	dir := t.TempDir()
	p := newTestPipeline(t, WithArtifactDir(dir))

	result := p.Generate(context.Background(), chartSpec(t, schema.IntentBarChart))
	if !result.Success {
		t.Fatalf("Expected success, got %s", result.ErrorMessage)
	}
	if filepath.Dir(result.FilePath) != dir {
		t.Errorf("Expected artifact under %s, got %s", dir, result.FilePath)
	}
	data, err := os.ReadFile(result.FilePath)
	if err != nil {
		t.Fatalf("Read artifact: %v", err)
	}
	if !isPNG(data) {
		t.Error("Persisted artifact is not a PNG")
	}
}

func TestBuildTemplateScript_UnsupportedIntent(t *testing.T) {
	if _, ok := buildTemplateScript(chartSpec(t, schema.IntentTimeline)); ok {
		t.Error("Timeline has no template script coverage")
	}
}
