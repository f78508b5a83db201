// Figura - Deterministic Visual Generation Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/figura

package schema

// ThemePalette is the canonical color set for one theme. Series colors cycle
// when a dataset has more points than the palette.
type ThemePalette struct {
	Background string
	Surface    string
	Text       string
	SubtleText string
	Grid       string
	Series     []string
}

// palettes holds the fixed styling for each theme.
var palettes = map[Theme]ThemePalette{
	ThemeProfessional: {
		Background: "#FFFFFF",
		Surface:    "#F5F7FA",
		Text:       "#1A1A2E",
		SubtleText: "#6B7280",
		Grid:       "#E5E7EB",
		Series:     []string{"#2563EB", "#059669", "#D97706", "#DC2626", "#7C3AED", "#0891B2"},
	},
	ThemeEducational: {
		Background: "#FFFDF7",
		Surface:    "#FFF7E6",
		Text:       "#3D2C00",
		SubtleText: "#8A6D1A",
		Grid:       "#F0E6C8",
		Series:     []string{"#F59E0B", "#10B981", "#3B82F6", "#EF4444", "#8B5CF6", "#14B8A6"},
	},
	ThemeCorporate: {
		Background: "#FFFFFF",
		Surface:    "#EEF2F6",
		Text:       "#0F172A",
		SubtleText: "#475569",
		Grid:       "#CBD5E1",
		Series:     []string{"#1E3A8A", "#334155", "#0E7490", "#166534", "#7F1D1D", "#4C1D95"},
	},
	ThemeModern: {
		Background: "#0F172A",
		Surface:    "#1E293B",
		Text:       "#F8FAFC",
		SubtleText: "#94A3B8",
		Grid:       "#334155",
		Series:     []string{"#38BDF8", "#34D399", "#FBBF24", "#F87171", "#A78BFA", "#F472B6"},
	},
	ThemeMinimal: {
		Background: "#FFFFFF",
		Surface:    "#FAFAFA",
		Text:       "#111111",
		SubtleText: "#777777",
		Grid:       "#EEEEEE",
		Series:     []string{"#111111", "#555555", "#999999", "#BBBBBB", "#333333", "#777777"},
	},
}

// Colors returns the palette for the theme. Unknown themes get the
// professional palette.
func (t Theme) Colors() ThemePalette {
	if p, ok := palettes[t]; ok {
		return p
	}
	return palettes[ThemeProfessional]
}

// SeriesColor returns the i-th series color, cycling past the palette end.
func (p ThemePalette) SeriesColor(i int) string {
	return p.Series[i%len(p.Series)]
}
