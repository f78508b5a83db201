// Figura - Deterministic Visual Generation Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/figura

package llmgen

import "github.com/tomtom215/figura/internal/schema"

// Complexity is the estimated generation difficulty of one VisualSpec. It
// selects which model fallback chain is used.
type Complexity string

// Complexity tiers.
const (
	ComplexityLow    Complexity = "low"
	ComplexityMedium Complexity = "medium"
	ComplexityHigh   Complexity = "high"
)

// Complexity thresholds on the data point count. Diagram intents are always
// high regardless of count.
const (
	highPointThreshold   = 50
	mediumPointThreshold = 15
)

// EstimateComplexity maps a spec to a tier using fixed thresholds. The result
// is deterministic for a given spec.
func EstimateComplexity(spec *schema.VisualSpec) Complexity {
	if spec.Intent.IsDiagram() {
		return ComplexityHigh
	}
	n := len(spec.DataSpec.DataPoints)
	switch {
	case n > highPointThreshold:
		return ComplexityHigh
	case n > mediumPointThreshold:
		return ComplexityMedium
	default:
		return ComplexityLow
	}
}

// ModelChains is the ordered fallback sequence per complexity tier. The
// sequence is plain configuration data so it can be swapped in tests and
// deployments without touching control flow.
type ModelChains map[Complexity][]string

// DefaultModelChains returns the standard chains: cheap-first for simple
// requests, capable-first for complex ones.
func DefaultModelChains() ModelChains {
	return ModelChains{
		ComplexityLow:    {"gpt-4o-mini", "gpt-4o"},
		ComplexityMedium: {"gpt-4o-mini", "gpt-4o", "gpt-4-turbo"},
		ComplexityHigh:   {"gpt-4o", "gpt-4-turbo", "gpt-4o-mini"},
	}
}

// ForTier returns the configured chain for a tier, falling back to the high
// tier when the requested one is absent. A copy is returned so callers cannot
// reorder the configured sequence.
func (m ModelChains) ForTier(c Complexity) []string {
	chain, ok := m[c]
	if !ok {
		chain = m[ComplexityHigh]
	}
	out := make([]string, len(chain))
	copy(out, chain)
	return out
}

// ModelPrice is the fixed USD price per million tokens for one model.
type ModelPrice struct {
	PromptPerMTokUSD     float64
	CompletionPerMTokUSD float64
}

// PriceTable maps model identifiers to their prices. Unknown models cost
// zero, which keeps accounting additive when a deployment introduces a model
// before updating the table.
type PriceTable map[string]ModelPrice

// DefaultPriceTable returns list prices for the default chains.
func DefaultPriceTable() PriceTable {
	return PriceTable{
		"gpt-4o":      {PromptPerMTokUSD: 2.50, CompletionPerMTokUSD: 10.00},
		"gpt-4o-mini": {PromptPerMTokUSD: 0.15, CompletionPerMTokUSD: 0.60},
		"gpt-4-turbo": {PromptPerMTokUSD: 10.00, CompletionPerMTokUSD: 30.00},
	}
}

// CostUSD computes the cost of one attempt from its token counts.
func (t PriceTable) CostUSD(model string, promptTokens, completionTokens int) float64 {
	p, ok := t[model]
	if !ok {
		return 0
	}
	const mtok = 1_000_000
	return float64(promptTokens)/mtok*p.PromptPerMTokUSD +
		float64(completionTokens)/mtok*p.CompletionPerMTokUSD
}
