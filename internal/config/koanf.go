// Figura - Deterministic Visual Generation Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/figura

package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists where config files are searched, in priority
// order. The first file found wins.
var DefaultConfigPaths = []string{
	"figura.yaml",
	"figura.yml",
	"/etc/figura/config.yaml",
	"/etc/figura/config.yml",
}

// ConfigPathEnvVar overrides the config file search entirely.
const ConfigPathEnvVar = "FIGURA_CONFIG_PATH"

// Load builds the configuration from layered sources:
//  1. Built-in defaults
//  2. Optional YAML config file
//  3. Environment variables (highest priority)
func Load() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}

	if path := findConfigFile(); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshal configuration: %w", err)
	}
	cfg.normalize()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

// LoadFile builds the configuration from defaults plus one explicit YAML
// file, skipping the environment layer. Intended for tests and tooling.
func LoadFile(path string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}
	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return nil, fmt.Errorf("load config file %s: %w", path, err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshal configuration: %w", err)
	}
	cfg.normalize()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}
	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// sliceConfigPaths are parsed from comma-separated strings when supplied via
// environment variables.
var sliceConfigPaths = []string{
	"models.chain_low",
	"models.chain_medium",
	"models.chain_high",
}

func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		val := k.Get(path)
		if val == nil {
			continue
		}
		if _, ok := val.([]interface{}); ok {
			continue
		}
		if _, ok := val.([]string); ok {
			continue
		}
		strVal, ok := val.(string)
		if !ok || strVal == "" {
			continue
		}
		parts := strings.Split(strVal, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if len(trimmed) > 0 {
			if err := k.Set(path, trimmed); err != nil {
				return fmt.Errorf("set %s: %w", path, err)
			}
		}
	}
	return nil
}

// envTransformFunc maps environment variable names to koanf paths. Unmapped
// variables return empty and are skipped, so arbitrary environment state
// never pollutes the configuration.
//
// Examples:
//   - FIGURA_API_KEY -> models.api_key
//   - FIGURA_SANDBOX_TIMEOUT -> sandbox.timeout
//   - FIGURA_CACHE_PATH -> cache.path
func envTransformFunc(key string) string {
	key = strings.ToLower(key)

	envMappings := map[string]string{
		// Model provider mappings
		"figura_api_key":          "models.api_key",
		"figura_base_url":         "models.base_url",
		"figura_temperature":      "models.temperature",
		"figura_max_tokens":       "models.max_tokens",
		"figura_chain_low":        "models.chain_low",
		"figura_chain_medium":     "models.chain_medium",
		"figura_chain_high":       "models.chain_high",
		"figura_code_model":       "models.code_model",
		"figura_rate_limit_rps":   "models.rate_limit_rps",
		"figura_rate_limit_burst": "models.rate_limit_burst",

		// Sandbox mappings
		"figura_sandbox_timeout":         "sandbox.timeout",
		"figura_sandbox_security_level":  "sandbox.security_level",
		"figura_sandbox_base_dir":        "sandbox.base_dir",
		"figura_sandbox_max_code_length": "sandbox.max_code_length",

		// Cache mappings
		"figura_cache_backend": "cache.backend",
		"figura_cache_path":    "cache.path",
		"figura_cache_ttl":     "cache.ttl",

		// Registry mappings
		"figura_tuning_path": "registry.tuning_path",

		// Pipeline mappings
		"figura_enable_llm_canvas":     "pipeline.enable_llm_canvas",
		"figura_enable_code_execution": "pipeline.enable_code_execution",
		"figura_enable_dynamic_code":   "pipeline.enable_dynamic_code",
		"figura_artifact_dir":          "pipeline.artifact_dir",

		// Logging mappings
		"log_level":  "logging.level",
		"log_format": "logging.format",
		"log_caller": "logging.caller",
	}

	if mapped, ok := envMappings[key]; ok {
		return mapped
	}
	return ""
}
