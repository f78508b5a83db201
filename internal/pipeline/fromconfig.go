// Figura - Deterministic Visual Generation Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/figura

package pipeline

import (
	"fmt"

	"github.com/tomtom215/figura/internal/cache"
	"github.com/tomtom215/figura/internal/codegen"
	"github.com/tomtom215/figura/internal/config"
	"github.com/tomtom215/figura/internal/llmgen"
	"github.com/tomtom215/figura/internal/logging"
	"github.com/tomtom215/figura/internal/registry"
	"github.com/tomtom215/figura/internal/sandbox"
	"github.com/tomtom215/figura/internal/telemetry"
)

// FromConfig assembles a fully wired Pipeline from a validated Config. The
// returned closer releases the cache and usage stores; it is safe to call on
// a nil return path because construction errors close what was opened.
func FromConfig(cfg *config.Config) (*Pipeline, func() error, error) {
	logging.Init(logging.Config{
		Level:     cfg.Logging.Level,
		Format:    cfg.Logging.Format,
		Caller:    cfg.Logging.Caller,
		Timestamp: true,
	})

	var closers []func() error
	closeAll := func() error {
		var first error
		for i := len(closers) - 1; i >= 0; i-- {
			if err := closers[i](); err != nil && first == nil {
				first = err
			}
		}
		return first
	}

	opts, err := buildOptions(cfg, &closers)
	if err != nil {
		_ = closeAll()
		return nil, nil, err
	}
	return New(opts...), closeAll, nil
}

func buildOptions(cfg *config.Config, closers *[]func() error) ([]Option, error) {
	var opts []Option

	store, err := buildStore(cfg)
	if err != nil {
		return nil, err
	}
	*closers = append(*closers, store.Close)
	opts = append(opts, WithCache(store, cfg.Cache.TTL))

	reg, err := buildRegistry(cfg)
	if err != nil {
		return nil, err
	}
	opts = append(opts, WithRegistry(reg))

	if cfg.Pipeline.EnableLLMCanvas {
		gen, err := buildGenerator(cfg)
		if err != nil {
			return nil, err
		}
		opts = append(opts, WithCanvasGenerator(gen))
	}

	if cfg.Pipeline.EnableCodeExecution {
		cp, err := buildCodePipeline(cfg)
		if err != nil {
			return nil, err
		}
		opts = append(opts, WithCodePipeline(cp))
	}

	recorder, err := buildRecorder(cfg)
	if err != nil {
		return nil, err
	}
	*closers = append(*closers, recorder.Close)
	opts = append(opts, WithUsageRecorder(recorder))

	return opts, nil
}

func buildStore(cfg *config.Config) (cache.Store, error) {
	switch cfg.Cache.Backend {
	case "badger":
		store, err := cache.OpenBadgerStore(cfg.Cache.Path)
		if err != nil {
			return nil, fmt.Errorf("open cache store: %w", err)
		}
		return store, nil
	case "memory":
		return cache.NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown cache backend %q", cfg.Cache.Backend)
	}
}

func buildRegistry(cfg *config.Config) (*registry.Registry, error) {
	if cfg.Registry.TuningPath == "" {
		return registry.New(), nil
	}
	tuning, err := registry.LoadTuning(cfg.Registry.TuningPath)
	if err != nil {
		return nil, fmt.Errorf("load registry tuning: %w", err)
	}
	return registry.New(registry.WithTuning(tuning)), nil
}

func buildGenerator(cfg *config.Config) (*llmgen.Generator, error) {
	client, err := buildChatClient(cfg)
	if err != nil {
		return nil, err
	}

	genOpts := []llmgen.GeneratorOption{
		llmgen.WithRateLimit(cfg.Models.RateLimitRPS, cfg.Models.RateLimitBurst),
	}
	if chains := chainsFromConfig(cfg); chains != nil {
		genOpts = append(genOpts, llmgen.WithModelChains(chains))
	}
	if prices := pricesFromConfig(cfg); prices != nil {
		genOpts = append(genOpts, llmgen.WithPriceTable(prices))
	}
	return llmgen.NewGenerator(client, genOpts...), nil
}

func buildChatClient(cfg *config.Config) (llmgen.ChatClient, error) {
	clientOpts := []llmgen.ClientOption{
		llmgen.WithTemperature(cfg.Models.Temperature),
		llmgen.WithMaxTokens(cfg.Models.MaxTokens),
	}
	if cfg.Models.BaseURL != "" {
		clientOpts = append(clientOpts, llmgen.WithBaseURL(cfg.Models.BaseURL))
	}
	client, err := llmgen.NewOpenAIClient(cfg.Models.APIKey, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("build chat client: %w", err)
	}
	return client, nil
}

func buildCodePipeline(cfg *config.Config) (*codegen.Pipeline, error) {
	executor := sandbox.NewExecutor(
		sandbox.WithTimeout(cfg.Sandbox.Timeout),
		sandbox.WithSecurityLevel(sandbox.SecurityLevel(cfg.Sandbox.SecurityLevel)),
		sandbox.WithBaseDir(cfg.Sandbox.BaseDir),
	)

	codeOpts := []codegen.PipelineOption{
		codegen.WithMaxCodeLength(cfg.Sandbox.MaxCodeLength),
	}
	if cfg.Pipeline.ArtifactDir != "" {
		codeOpts = append(codeOpts, codegen.WithArtifactDir(cfg.Pipeline.ArtifactDir))
	}
	if cfg.Pipeline.EnableDynamicCode {
		client, err := buildChatClient(cfg)
		if err != nil {
			return nil, err
		}
		codeOpts = append(codeOpts, codegen.WithChatClient(client, cfg.Models.CodeModel))
	}
	return codegen.NewPipeline(executor, codeOpts...), nil
}

func buildRecorder(cfg *config.Config) (telemetry.UsageRecorder, error) {
	if cfg.Cache.Backend == "badger" && cfg.Cache.Path != "" {
		recorder, err := telemetry.OpenBadgerUsageRecorder(cfg.Cache.Path + "-usage")
		if err != nil {
			return nil, fmt.Errorf("open usage recorder: %w", err)
		}
		return recorder, nil
	}
	return telemetry.NewMemoryUsageRecorder(), nil
}

func chainsFromConfig(cfg *config.Config) llmgen.ModelChains {
	chains := llmgen.ModelChains{}
	if len(cfg.Models.ChainLow) > 0 {
		chains[llmgen.ComplexityLow] = cfg.Models.ChainLow
	}
	if len(cfg.Models.ChainMedium) > 0 {
		chains[llmgen.ComplexityMedium] = cfg.Models.ChainMedium
	}
	if len(cfg.Models.ChainHigh) > 0 {
		chains[llmgen.ComplexityHigh] = cfg.Models.ChainHigh
	}
	if len(chains) == 0 {
		return nil
	}
	return chains
}

func pricesFromConfig(cfg *config.Config) llmgen.PriceTable {
	if len(cfg.Models.Prices) == 0 {
		return nil
	}
	table := llmgen.PriceTable{}
	for model, price := range cfg.Models.Prices {
		table[model] = llmgen.ModelPrice{
			PromptPerMTokUSD:     price.PromptPerMTokUSD,
			CompletionPerMTokUSD: price.CompletionPerMTokUSD,
		}
	}
	return table
}
