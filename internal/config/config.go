// Figura - Deterministic Visual Generation Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/figura

package config

import (
	"fmt"
	"time"

	"github.com/tomtom215/figura/internal/sandbox"
)

// Config is the full pipeline configuration tree.
type Config struct {
	Models   ModelsConfig   `koanf:"models"`
	Sandbox  SandboxConfig  `koanf:"sandbox"`
	Cache    CacheConfig    `koanf:"cache"`
	Registry RegistryConfig `koanf:"registry"`
	Pipeline PipelineConfig `koanf:"pipeline"`
	Logging  LoggingConfig  `koanf:"logging"`
}

// ModelsConfig configures the chat provider and the per-tier fallback
// chains. Chains are plain ordered lists so deployments can reorder or swap
// models without code changes.
type ModelsConfig struct {
	APIKey      string  `koanf:"api_key"`
	BaseURL     string  `koanf:"base_url"`
	Temperature float32 `koanf:"temperature"`
	MaxTokens   int     `koanf:"max_tokens"`

	ChainLow    []string `koanf:"chain_low"`
	ChainMedium []string `koanf:"chain_medium"`
	ChainHigh   []string `koanf:"chain_high"`

	// CodeModel is used by the dynamic code-execution strategy.
	CodeModel string `koanf:"code_model"`

	// Prices maps model identifiers to USD per million tokens.
	Prices map[string]PriceConfig `koanf:"prices"`

	RateLimitRPS   float64 `koanf:"rate_limit_rps"`
	RateLimitBurst int     `koanf:"rate_limit_burst"`
}

// PriceConfig is the per-model price pair.
type PriceConfig struct {
	PromptPerMTokUSD     float64 `koanf:"prompt_per_mtok_usd"`
	CompletionPerMTokUSD float64 `koanf:"completion_per_mtok_usd"`
}

// SandboxConfig configures code execution.
type SandboxConfig struct {
	Timeout       time.Duration `koanf:"timeout"`
	SecurityLevel string        `koanf:"security_level"`
	BaseDir       string        `koanf:"base_dir"`
	MaxCodeLength int           `koanf:"max_code_length"`
}

// CacheConfig configures the artifact cache.
type CacheConfig struct {
	Backend string        `koanf:"backend"` // "badger" or "memory"
	Path    string        `koanf:"path"`
	TTL     time.Duration `koanf:"ttl"`
}

// RegistryConfig configures the deterministic template registry.
type RegistryConfig struct {
	// TuningPath optionally points at a YAML tuning override file.
	TuningPath string `koanf:"tuning_path"`
}

// PipelineConfig toggles generation strategies and artifact persistence.
type PipelineConfig struct {
	EnableLLMCanvas     bool   `koanf:"enable_llm_canvas"`
	EnableCodeExecution bool   `koanf:"enable_code_execution"`
	EnableDynamicCode   bool   `koanf:"enable_dynamic_code"`
	ArtifactDir         string `koanf:"artifact_dir"`
}

// LoggingConfig configures structured logging output.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// defaultConfig returns the built-in defaults, applied before file and
// environment layers.
func defaultConfig() *Config {
	return &Config{
		Models: ModelsConfig{
			Temperature: 0.2,
			MaxTokens:   4096,
			ChainLow:    []string{"gpt-4o-mini", "gpt-4o"},
			ChainMedium: []string{"gpt-4o-mini", "gpt-4o", "gpt-4-turbo"},
			ChainHigh:   []string{"gpt-4o", "gpt-4-turbo", "gpt-4o-mini"},
			CodeModel:   "gpt-4o",
			Prices: map[string]PriceConfig{
				"gpt-4o":      {PromptPerMTokUSD: 2.50, CompletionPerMTokUSD: 10.00},
				"gpt-4o-mini": {PromptPerMTokUSD: 0.15, CompletionPerMTokUSD: 0.60},
				"gpt-4-turbo": {PromptPerMTokUSD: 10.00, CompletionPerMTokUSD: 30.00},
			},
			RateLimitRPS:   2,
			RateLimitBurst: 4,
		},
		Sandbox: SandboxConfig{
			Timeout:       5 * time.Second,
			SecurityLevel: string(sandbox.LevelStrict),
			BaseDir:       "",
			MaxCodeLength: 20000,
		},
		Cache: CacheConfig{
			Backend: "badger",
			Path:    "/data/figura/cache",
			TTL:     30 * 24 * time.Hour,
		},
		Registry: RegistryConfig{
			TuningPath: "",
		},
		Pipeline: PipelineConfig{
			EnableLLMCanvas:     true,
			EnableCodeExecution: true,
			EnableDynamicCode:   false, // Opt-in: model-authored code is the most expensive strategy
			ArtifactDir:         "",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
	}
}

// Validate checks cross-field constraints after loading.
func (c *Config) Validate() error {
	if !sandbox.SecurityLevel(c.Sandbox.SecurityLevel).Valid() {
		return fmt.Errorf("sandbox.security_level %q must be strict or standard", c.Sandbox.SecurityLevel)
	}
	if c.Sandbox.Timeout <= 0 {
		return fmt.Errorf("sandbox.timeout must be positive, got %v", c.Sandbox.Timeout)
	}
	if c.Sandbox.MaxCodeLength <= 0 {
		return fmt.Errorf("sandbox.max_code_length must be positive, got %d", c.Sandbox.MaxCodeLength)
	}
	switch c.Cache.Backend {
	case "badger", "memory":
	default:
		return fmt.Errorf("cache.backend %q must be badger or memory", c.Cache.Backend)
	}
	if c.Cache.Backend == "badger" && c.Cache.Path == "" {
		return fmt.Errorf("cache.path is required for the badger backend")
	}
	if c.Cache.TTL <= 0 {
		return fmt.Errorf("cache.ttl must be positive, got %v", c.Cache.TTL)
	}
	if c.Models.Temperature < 0 || c.Models.Temperature > 2 {
		return fmt.Errorf("models.temperature %g outside [0,2]", c.Models.Temperature)
	}
	if c.Pipeline.EnableDynamicCode && c.Models.CodeModel == "" {
		return fmt.Errorf("models.code_model required when pipeline.enable_dynamic_code is set")
	}
	return nil
}

// HasModelCredentials reports whether a chat client can be constructed. A
// base URL without a key is valid for local OpenAI-compatible servers.
func (c *Config) HasModelCredentials() bool {
	return c.Models.APIKey != "" || c.Models.BaseURL != ""
}

// normalize disables model-backed strategies when no provider is reachable.
// The pipeline degrades to the deterministic and template strategies rather
// than failing to start.
func (c *Config) normalize() {
	if !c.HasModelCredentials() {
		c.Pipeline.EnableLLMCanvas = false
		c.Pipeline.EnableDynamicCode = false
	}
}
