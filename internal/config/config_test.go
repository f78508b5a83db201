// Figura - Deterministic Visual Generation Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/figura

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "figura.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config file: %v", err)
	}
	return path
}

func TestLoadFile_DefaultsSurviveUnsetSections(t *testing.T) {
	path := writeConfigFile(t, `
models:
  api_key: test-key
`)
	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}

	if cfg.Models.APIKey != "test-key" {
		t.Errorf("Expected api_key from file, got %q", cfg.Models.APIKey)
	}
	if cfg.Cache.TTL != 30*24*time.Hour {
		t.Errorf("Expected default cache TTL, got %v", cfg.Cache.TTL)
	}
	if cfg.Sandbox.SecurityLevel != "strict" {
		t.Errorf("Expected default strict security level, got %q", cfg.Sandbox.SecurityLevel)
	}
	if len(cfg.Models.ChainHigh) != 3 {
		t.Errorf("Expected default high chain, got %v", cfg.Models.ChainHigh)
	}
	if cfg.Pipeline.EnableDynamicCode {
		t.Error("Dynamic code must default to disabled")
	}
}

func TestLoadFile_Overrides(t *testing.T) {
	path := writeConfigFile(t, `
models:
  api_key: k
  chain_low: [small-model]
  prices:
    small-model:
      prompt_per_mtok_usd: 0.1
      completion_per_mtok_usd: 0.4
sandbox:
  timeout: 2s
  security_level: standard
cache:
  backend: memory
`)
	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}

	if len(cfg.Models.ChainLow) != 1 || cfg.Models.ChainLow[0] != "small-model" {
		t.Errorf("Chain override not applied, got %v", cfg.Models.ChainLow)
	}
	if cfg.Sandbox.Timeout != 2*time.Second {
		t.Errorf("Expected 2s timeout, got %v", cfg.Sandbox.Timeout)
	}
	if cfg.Sandbox.SecurityLevel != "standard" {
		t.Errorf("Expected standard level, got %q", cfg.Sandbox.SecurityLevel)
	}
	if cfg.Cache.Backend != "memory" {
		t.Errorf("Expected memory backend, got %q", cfg.Cache.Backend)
	}
	price, ok := cfg.Models.Prices["small-model"]
	if !ok || price.CompletionPerMTokUSD != 0.4 {
		t.Errorf("Price table override not applied, got %+v", cfg.Models.Prices)
	}
}

func TestLoadFile_ValidationFailures(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"bad security level", "models: {api_key: k}\nsandbox: {security_level: permissive}"},
		{"bad cache backend", "models: {api_key: k}\ncache: {backend: redis}"},
		{"zero timeout", "models: {api_key: k}\nsandbox: {timeout: 0s}"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := LoadFile(writeConfigFile(t, tc.yaml)); err == nil {
				t.Error("Expected validation error")
			}
		})
	}
}

func TestLoadFile_NoCredentialsDisablesModelStrategies(t *testing.T) {
	cfg, err := LoadFile(writeConfigFile(t, "pipeline: {enable_llm_canvas: true, enable_dynamic_code: true}\n"))
	if err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}
	if cfg.Pipeline.EnableLLMCanvas || cfg.Pipeline.EnableDynamicCode {
		t.Error("Model strategies must auto-disable without provider credentials")
	}
}

func TestEnvTransform(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"FIGURA_API_KEY", "models.api_key"},
		{"FIGURA_SANDBOX_TIMEOUT", "sandbox.timeout"},
		{"FIGURA_CACHE_PATH", "cache.path"},
		{"LOG_LEVEL", "logging.level"},
		{"HOME", ""},
		{"PATH", ""},
	}
	for _, tc := range tests {
		if got := envTransformFunc(tc.in); got != tc.want {
			t.Errorf("envTransformFunc(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
