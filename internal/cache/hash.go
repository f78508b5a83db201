// Figura - Deterministic Visual Generation Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/figura

package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/tomtom215/figura/internal/schema"
)

// ContentHash computes the stable cache identity of a spec. The projection
// is deliberately narrow:
//
//	intent | (label,value) pairs sorted by label | theme | title | max_width | max_height
//
// SceneID, CreatedAt, EmployeeContext, LearningObjectives and Priority are
// excluded so that semantically identical requests collide in cache no matter
// what identity the caller assigned.
func ContentHash(spec *schema.VisualSpec) string {
	var b strings.Builder
	b.WriteString(string(spec.Intent))
	b.WriteByte('|')
	for _, p := range spec.DataSpec.SortedByLabel() {
		fmt.Fprintf(&b, "%s=%v;", p.Label, p.Value)
	}
	b.WriteByte('|')
	b.WriteString(string(spec.Theme))
	b.WriteByte('|')
	b.WriteString(spec.Title)
	b.WriteByte('|')
	fmt.Fprintf(&b, "%dx%d", spec.Constraints.MaxWidth, spec.Constraints.MaxHeight)

	sum := sha256.Sum256([]byte(b.String()))
	return hex.EncodeToString(sum[:])
}

// Key builds the human-inspectable cache key: "{hash}_{intent}_{theme}".
// Collision resistance comes from the hash; the intent and theme suffix make
// stored keys greppable during operations work.
func Key(spec *schema.VisualSpec) string {
	return fmt.Sprintf("%s_%s_%s", ContentHash(spec), spec.Intent, spec.Theme)
}
