// Figura - Deterministic Visual Generation Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/figura

package sandbox

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/tomtom215/figura/internal/telemetry"
)

const chartSnippet = `
var instructions = {
	canvas_id: "sandbox-bar",
	width: 800,
	height: 600,
	background_color: "#FFFFFF",
	theme: "professional",
	elements: [
		{type: "rect", x: 100, y: 200, width: 120, height: 300, fill_color: "#2E5090", z_index: 1},
		{type: "rect", x: 260, y: 300, width: 120, height: 200, fill_color: "#6B8CC4", z_index: 1},
		{type: "text", x: 400, y: 40, text: "Output", font_size: 18, color: "#212121",
			text_align: "center", font_weight: "bold", z_index: 2}
	]
};
var path = figura.render(instructions, "chart");
console.log("rendered", path);
`

func TestExecute_RendersChartArtifact(t *testing.T) {
	e := NewExecutor(WithBaseDir(t.TempDir()))

	result, err := e.Execute(context.Background(), chartSnippet)
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	defer result.Cleanup()

	if result.Status != StatusSuccess {
		t.Fatalf("Expected SUCCESS, got %s: %s", result.Status, result.ErrorMessage)
	}
	if len(result.GeneratedFiles) != 1 {
		t.Fatalf("Expected 1 generated file, got %d", len(result.GeneratedFiles))
	}
	if filepath.Ext(result.GeneratedFiles[0]) != ".png" {
		t.Errorf("Expected a .png artifact, got %s", result.GeneratedFiles[0])
	}
	data, err := os.ReadFile(result.GeneratedFiles[0])
	if err != nil {
		t.Fatalf("Read artifact: %v", err)
	}
	if len(data) < 8 || string(data[1:4]) != "PNG" {
		t.Error("Artifact is not a PNG")
	}
	if !strings.Contains(result.Stdout, "rendered") {
		t.Errorf("Expected console output captured, got %q", result.Stdout)
	}
}

func TestExecute_SecurityViolations(t *testing.T) {
	tests := []struct {
		name string
		code string
	}{
		{"require", `var fs = require("fs");`},
		{"dynamic import", `import("mod").then(function(m) {});`},
		{"eval", `eval("1+1");`},
		{"function constructor", `new Function("return 1")();`},
		{"process access", `var env = process.env;`},
		{"child process", `child_process.spawn("ls");`},
		{"fetch", `fetch("http://example.com");`},
		{"websocket", `new WebSocket("ws://example.com");`},
		{"filesystem", `fs.readFileSync("/etc/passwd");`},
		{"proto pollution", `obj.__proto__.x = 1;`},
	}

	base := t.TempDir()
	e := NewExecutor(WithBaseDir(base))

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			result, err := e.Execute(context.Background(), tc.code)
			if err != nil {
				t.Fatalf("Execute failed: %v", err)
			}
			if result.Status != StatusSecurityViolation {
				t.Errorf("Expected SECURITY_VIOLATION, got %s", result.Status)
			}
			if result.ErrorMessage == "" {
				t.Error("Expected a violation message")
			}
			if result.WorkDir != "" {
				t.Error("Rejected snippet must not get a work dir")
			}
		})
	}

	// Rejection happens before execution: nothing may touch the filesystem.
	entries, err := os.ReadDir(base)
	if err != nil {
		t.Fatalf("ReadDir failed: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("Expected no side effects from rejected snippets, found %d entries", len(entries))
	}
}

func TestExecute_StrictLevelBlocksReflection(t *testing.T) {
	code := `Reflect.get({a: 1}, "a");`

	strict := NewExecutor(WithBaseDir(t.TempDir()), WithSecurityLevel(LevelStrict))
	result, err := strict.Execute(context.Background(), code)
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if result.Status != StatusSecurityViolation {
		t.Errorf("Strict level: expected SECURITY_VIOLATION, got %s", result.Status)
	}

	standard := NewExecutor(WithBaseDir(t.TempDir()), WithSecurityLevel(LevelStandard))
	result, err = standard.Execute(context.Background(), code)
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	defer result.Cleanup()
	if result.Status == StatusSecurityViolation {
		t.Error("Standard level should pass the scan for Reflect usage")
	}
}

func TestExecute_Timeout(t *testing.T) {
	e := NewExecutor(WithBaseDir(t.TempDir()), WithTimeout(100*time.Millisecond))

	start := time.Now()
	result, err := e.Execute(context.Background(), `for (;;) {}`)
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	defer result.Cleanup()

	if result.Status != StatusTimeout {
		t.Errorf("Expected TIMEOUT, got %s", result.Status)
	}
	if elapsed := time.Since(start); elapsed > 5*time.Second {
		t.Errorf("Runaway snippet not terminated promptly, took %v", elapsed)
	}
}

func TestExecute_RuntimeError(t *testing.T) {
	e := NewExecutor(WithBaseDir(t.TempDir()))

	result, err := e.Execute(context.Background(), `throw new Error("boom");`)
	if err != nil {
		t.Fatalf("Runtime exceptions must not surface as Go errors: %v", err)
	}
	defer result.Cleanup()

	if result.Status != StatusRuntimeError {
		t.Errorf("Expected RUNTIME_ERROR, got %s", result.Status)
	}
	if !strings.Contains(result.ErrorMessage, "boom") {
		t.Errorf("Expected exception text preserved, got %q", result.ErrorMessage)
	}
}

func TestExecute_InvalidInstructionsThrow(t *testing.T) {
	e := NewExecutor(WithBaseDir(t.TempDir()))

	// Width below canvas minimum; the render binding throws, snippet fails.
	code := `figura.render({canvas_id: "x", width: 10, height: 10, theme: "professional",
		elements: [{type: "rect", x: 0, y: 0, width: 5, height: 5, fill_color: "#FFFFFF"}]}, "bad");`
	result, err := e.Execute(context.Background(), code)
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	defer result.Cleanup()

	if result.Status != StatusRuntimeError {
		t.Errorf("Expected RUNTIME_ERROR for invalid instructions, got %s", result.Status)
	}
	if len(result.GeneratedFiles) != 0 {
		t.Error("Failed render must not leave artifacts")
	}
}

func TestExecute_ArtifactNameConfinement(t *testing.T) {
	e := NewExecutor(WithBaseDir(t.TempDir()))

	result, err := e.Execute(context.Background(), `figura.save("../escape.txt", "x");`)
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	defer result.Cleanup()

	if result.Status != StatusRuntimeError {
		t.Errorf("Expected RUNTIME_ERROR for traversal name, got %s", result.Status)
	}
}

func TestExecute_EmptySnippet(t *testing.T) {
	e := NewExecutor(WithBaseDir(t.TempDir()))
	result, err := e.Execute(context.Background(), "   \n ")
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if result.Status != StatusRuntimeError {
		t.Errorf("Expected RUNTIME_ERROR for empty snippet, got %s", result.Status)
	}
}

func TestScan_CleanSnippet(t *testing.T) {
	if v := Scan(`var x = Math.max(1, 2); console.log(x);`, LevelStrict); len(v) != 0 {
		t.Errorf("Clean snippet flagged: %v", v)
	}
}

func TestExecute_RecordsExecutionMetrics(t *testing.T) {
	e := NewExecutor(WithBaseDir(t.TempDir()))

	successCounter := telemetry.SandboxExecutions.WithLabelValues(string(StatusSuccess))
	violationCounter := telemetry.SandboxExecutions.WithLabelValues(string(StatusSecurityViolation))
	successBefore := testutil.ToFloat64(successCounter)
	violationBefore := testutil.ToFloat64(violationCounter)

	result, err := e.Execute(context.Background(), `console.log("ok");`)
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	defer result.Cleanup()
	if result.Status != StatusSuccess {
		t.Fatalf("Expected SUCCESS, got %s", result.Status)
	}
	if got := testutil.ToFloat64(successCounter) - successBefore; got != 1 {
		t.Errorf("Expected success counter +1, got +%g", got)
	}

	if _, err := e.Execute(context.Background(), `eval("1+1");`); err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if got := testutil.ToFloat64(violationCounter) - violationBefore; got != 1 {
		t.Errorf("Expected security violation counter +1, got +%g", got)
	}
}
