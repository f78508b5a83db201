// Figura - Deterministic Visual Generation Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/figura

package llmgen

import (
	"context"
	"errors"
	"fmt"

	openai "github.com/sashabaranov/go-openai"

	"github.com/tomtom215/figura/internal/logging"
)

// ErrAPIKeyMissing indicates no provider API key was supplied.
var ErrAPIKeyMissing = errors.New("llmgen: provider API key is required")

// ErrEmptyResponse indicates the provider answered without usable content.
var ErrEmptyResponse = errors.New("llmgen: model returned an empty response")

// Completion is one model answer plus its token accounting.
type Completion struct {
	Content          string
	PromptTokens     int
	CompletionTokens int
}

// ChatClient abstracts a chat-completion provider. Generators take a
// ChatClient as a constructor parameter so tests can substitute scripted
// responses without touching the environment.
type ChatClient interface {
	// Complete sends one system+user exchange to the named model and returns
	// the raw completion text. Transport and provider errors are returned
	// unwrapped apart from a descriptive prefix.
	Complete(ctx context.Context, model, system, user string) (Completion, error)
}

// OpenAIClient implements ChatClient against the OpenAI-compatible chat
// completions API. Alternate providers with compatible APIs are reached by
// overriding the base URL.
type OpenAIClient struct {
	client      *openai.Client
	temperature float32
	maxTokens   int
}

// ClientOption customizes an OpenAIClient.
type ClientOption func(*clientConfig)

type clientConfig struct {
	baseURL     string
	temperature float32
	maxTokens   int
}

// WithBaseURL points the client at an OpenAI-compatible endpoint.
func WithBaseURL(url string) ClientOption {
	return func(c *clientConfig) { c.baseURL = url }
}

// WithTemperature overrides the default sampling temperature.
func WithTemperature(t float32) ClientOption {
	return func(c *clientConfig) { c.temperature = t }
}

// WithMaxTokens caps the completion length.
func WithMaxTokens(n int) ClientOption {
	return func(c *clientConfig) { c.maxTokens = n }
}

// NewOpenAIClient builds a chat client. The API key is required; low default
// temperature keeps JSON output stable across retries.
func NewOpenAIClient(apiKey string, opts ...ClientOption) (*OpenAIClient, error) {
	if apiKey == "" {
		return nil, ErrAPIKeyMissing
	}

	cfg := clientConfig{temperature: 0.2, maxTokens: 4096}
	for _, opt := range opts {
		opt(&cfg)
	}

	apiCfg := openai.DefaultConfig(apiKey)
	if cfg.baseURL != "" {
		apiCfg.BaseURL = cfg.baseURL
	}

	return &OpenAIClient{
		client:      openai.NewClientWithConfig(apiCfg),
		temperature: cfg.temperature,
		maxTokens:   cfg.maxTokens,
	}, nil
}

// Complete implements ChatClient.
func (c *OpenAIClient) Complete(ctx context.Context, model, system, user string) (Completion, error) {
	logging.Debug().
		Str("model", model).
		Int("prompt_length", len(system)+len(user)).
		Msg("Sending chat completion request")

	req := openai.ChatCompletionRequest{
		Model:       model,
		Temperature: c.temperature,
		MaxTokens:   c.maxTokens,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
	}

	resp, err := c.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return Completion{}, fmt.Errorf("chat completion request: %w", err)
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return Completion{}, ErrEmptyResponse
	}

	return Completion{
		Content:          resp.Choices[0].Message.Content,
		PromptTokens:     resp.Usage.PromptTokens,
		CompletionTokens: resp.Usage.CompletionTokens,
	}, nil
}
