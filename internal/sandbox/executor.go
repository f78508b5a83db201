// Figura - Deterministic Visual Generation Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/figura

package sandbox

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/dop251/goja"
	json "github.com/goccy/go-json"

	"github.com/tomtom215/figura/internal/logging"
	"github.com/tomtom215/figura/internal/render"
	"github.com/tomtom215/figura/internal/schema"
	"github.com/tomtom215/figura/internal/telemetry"
)

// ExecutionStatus classifies the outcome of one snippet execution.
type ExecutionStatus string

// Execution statuses.
const (
	StatusSuccess           ExecutionStatus = "SUCCESS"
	StatusSecurityViolation ExecutionStatus = "SECURITY_VIOLATION"
	StatusTimeout           ExecutionStatus = "TIMEOUT"
	StatusRuntimeError      ExecutionStatus = "RUNTIME_ERROR"
)

// Result reports one execution. GeneratedFiles holds absolute paths inside
// WorkDir; the caller owns the directory and removes it via Cleanup once the
// artifacts have been consumed.
type Result struct {
	Status         ExecutionStatus `json:"status"`
	Stdout         string          `json:"stdout"`
	ErrorMessage   string          `json:"error_message,omitempty"`
	GeneratedFiles []string        `json:"generated_files"`
	WorkDir        string          `json:"-"`
	Duration       time.Duration   `json:"duration"`
}

// Cleanup removes the execution's temp directory and everything in it.
func (r *Result) Cleanup() error {
	if r.WorkDir == "" {
		return nil
	}
	return os.RemoveAll(r.WorkDir)
}

// DefaultTimeout is the wall-clock budget applied when none is configured.
const DefaultTimeout = 5 * time.Second

// Executor runs vetted snippets in isolated goja runtimes. Each execution
// gets a fresh runtime and a fresh temp directory; the Executor itself holds
// no per-execution state and is safe for concurrent use.
type Executor struct {
	timeout  time.Duration
	level    SecurityLevel
	baseDir  string
	renderer *render.Renderer
}

// ExecutorOption customizes an Executor.
type ExecutorOption func(*Executor)

// WithTimeout overrides the wall-clock budget.
func WithTimeout(d time.Duration) ExecutorOption {
	return func(e *Executor) {
		if d > 0 {
			e.timeout = d
		}
	}
}

// WithSecurityLevel selects the static scan strictness.
func WithSecurityLevel(l SecurityLevel) ExecutorOption {
	return func(e *Executor) {
		if l.Valid() {
			e.level = l
		}
	}
}

// WithBaseDir places per-execution temp directories under dir instead of the
// system temp directory.
func WithBaseDir(dir string) ExecutorOption {
	return func(e *Executor) { e.baseDir = dir }
}

// NewExecutor builds an Executor with the strict scan level and the default
// time budget.
func NewExecutor(opts ...ExecutorOption) *Executor {
	e := &Executor{
		timeout:  DefaultTimeout,
		level:    LevelStrict,
		renderer: render.NewRenderer(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Execute scans and runs one snippet. Snippet failures of every kind come
// back as a Result status; the Go error is reserved for infrastructure
// problems such as temp directory creation.
func (e *Executor) Execute(ctx context.Context, code string) (*Result, error) {
	if strings.TrimSpace(code) == "" {
		telemetry.RecordSandboxExecution(string(StatusRuntimeError), 0)
		return &Result{Status: StatusRuntimeError, ErrorMessage: "empty snippet"}, nil
	}

	if violations := Scan(code, e.level); len(violations) > 0 {
		msgs := make([]string, len(violations))
		for i, v := range violations {
			msgs[i] = v.String()
		}
		logging.Warn().
			Str("security_level", string(e.level)).
			Strs("violations", msgs).
			Msg("Snippet rejected by static scan")
		telemetry.RecordSandboxExecution(string(StatusSecurityViolation), 0)
		return &Result{
			Status:       StatusSecurityViolation,
			ErrorMessage: "forbidden constructs: " + strings.Join(msgs, ", "),
		}, nil
	}

	workDir, err := os.MkdirTemp(e.baseDir, "figura-sandbox-*")
	if err != nil {
		return nil, fmt.Errorf("create sandbox work dir: %w", err)
	}

	result := &Result{WorkDir: workDir}
	vm := goja.New()

	var stdout strings.Builder
	e.installConsole(vm, &stdout)
	if err := e.installBindings(vm, workDir); err != nil {
		_ = os.RemoveAll(workDir)
		return nil, fmt.Errorf("install sandbox bindings: %w", err)
	}

	// Interrupt on either the time budget or caller cancellation.
	done := make(chan struct{})
	defer close(done)
	timer := time.AfterFunc(e.timeout, func() { vm.Interrupt("execution time budget exceeded") })
	defer timer.Stop()
	go func() {
		select {
		case <-ctx.Done():
			vm.Interrupt("execution cancelled")
		case <-done:
		}
	}()

	start := time.Now()
	_, runErr := vm.RunString(code)
	result.Duration = time.Since(start)
	result.Stdout = stdout.String()

	if runErr != nil {
		result.Status, result.ErrorMessage = classifyRunError(runErr)
		telemetry.RecordSandboxExecution(string(result.Status), result.Duration)
		return result, nil
	}

	files, err := listGeneratedFiles(workDir)
	if err != nil {
		_ = os.RemoveAll(workDir)
		return nil, fmt.Errorf("enumerate sandbox artifacts: %w", err)
	}
	result.Status = StatusSuccess
	result.GeneratedFiles = files
	telemetry.RecordSandboxExecution(string(result.Status), result.Duration)
	return result, nil
}

// installConsole wires console.log/warn/error into a capture buffer. The
// snippet sees a familiar console; nothing reaches the host's stdio.
func (e *Executor) installConsole(vm *goja.Runtime, out *strings.Builder) {
	write := func(call goja.FunctionCall) goja.Value {
		parts := make([]string, len(call.Arguments))
		for i, arg := range call.Arguments {
			parts[i] = arg.String()
		}
		out.WriteString(strings.Join(parts, " "))
		out.WriteByte('\n')
		return goja.Undefined()
	}
	console := vm.NewObject()
	_ = console.Set("log", write)
	_ = console.Set("warn", write)
	_ = console.Set("error", write)
	_ = vm.Set("console", console)
}

// installBindings exposes the figura object: render turns an instructions
// object into a PNG inside the work dir, save writes a text artifact. These
// are the snippet's only routes to the filesystem.
func (e *Executor) installBindings(vm *goja.Runtime, workDir string) error {
	figura := vm.NewObject()

	renderFn := func(instructions goja.Value, filename string) (string, error) {
		name, err := safeArtifactName(filename, ".png")
		if err != nil {
			return "", err
		}
		raw, err := json.Marshal(instructions.Export())
		if err != nil {
			return "", fmt.Errorf("encode instructions: %w", err)
		}
		ci, err := schema.UnmarshalCanvasInstructions(raw)
		if err != nil {
			return "", err
		}
		png, err := e.renderer.RenderPNG(ci)
		if err != nil {
			return "", err
		}
		path := filepath.Join(workDir, name)
		if err := os.WriteFile(path, png, 0o600); err != nil {
			return "", fmt.Errorf("write artifact: %w", err)
		}
		return path, nil
	}

	saveFn := func(filename, content string) (string, error) {
		name, err := safeArtifactName(filename, "")
		if err != nil {
			return "", err
		}
		path := filepath.Join(workDir, name)
		if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
			return "", fmt.Errorf("write artifact: %w", err)
		}
		return path, nil
	}

	if err := figura.Set("render", renderFn); err != nil {
		return err
	}
	if err := figura.Set("save", saveFn); err != nil {
		return err
	}
	return vm.Set("figura", figura)
}

var artifactNameRe = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]*$`)

// safeArtifactName confines artifact writes to the work dir: plain file
// names only, no separators, no dot-prefixed names. A non-empty ext is
// appended when missing.
func safeArtifactName(name, ext string) (string, error) {
	if !artifactNameRe.MatchString(name) || strings.Contains(name, "..") {
		return "", fmt.Errorf("invalid artifact name %q", name)
	}
	if ext != "" && !strings.HasSuffix(strings.ToLower(name), ext) {
		name += ext
	}
	return name, nil
}

func listGeneratedFiles(workDir string) ([]string, error) {
	entries, err := os.ReadDir(workDir)
	if err != nil {
		return nil, err
	}
	files := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		files = append(files, filepath.Join(workDir, entry.Name()))
	}
	return files, nil
}

// classifyRunError maps a goja run error onto the status taxonomy. Interrupts
// are timeouts or cancellations; everything a snippet throws is a runtime
// error with the exception text preserved.
func classifyRunError(err error) (ExecutionStatus, string) {
	var interrupted *goja.InterruptedError
	if errors.As(err, &interrupted) {
		return StatusTimeout, fmt.Sprintf("execution interrupted: %v", interrupted.Value())
	}
	var exception *goja.Exception
	if errors.As(err, &exception) {
		return StatusRuntimeError, exception.Error()
	}
	return StatusRuntimeError, err.Error()
}
