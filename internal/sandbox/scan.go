// Figura - Deterministic Visual Generation Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/figura

package sandbox

import (
	"fmt"
	"regexp"
)

// SecurityLevel selects the strictness of the static scan. The scan itself
// can never be disabled; levels only change which construct set applies.
type SecurityLevel string

// Security levels.
const (
	LevelStrict   SecurityLevel = "strict"
	LevelStandard SecurityLevel = "standard"
)

// Valid reports whether the level is a member of the closed set.
func (l SecurityLevel) Valid() bool {
	return l == LevelStrict || l == LevelStandard
}

// Violation is one forbidden construct found by the static scan.
type Violation struct {
	Construct string `json:"construct"`
	Reason    string `json:"reason"`
}

func (v Violation) String() string {
	return fmt.Sprintf("%s (%s)", v.Construct, v.Reason)
}

// forbiddenPattern pairs a detection regex with its report label. Patterns
// match call-shaped usages so identifiers in string literals still trip the
// scan; false positives are acceptable, false negatives are not.
type forbiddenPattern struct {
	re        *regexp.Regexp
	construct string
	reason    string
}

// standardPatterns block module loading, code-from-string evaluation,
// process/network primitives and direct filesystem access. The runtime does
// not expose these either; the scan guarantees rejection happens before any
// VM is constructed.
var standardPatterns = []forbiddenPattern{
	{regexp.MustCompile(`\brequire\s*\(`), "require", "module loading is not permitted"},
	{regexp.MustCompile(`\bimport\s*[\(\s"']`), "import", "module loading is not permitted"},
	{regexp.MustCompile(`\beval\s*\(`), "eval", "code evaluation from strings is not permitted"},
	{regexp.MustCompile(`\bnew\s+Function\b|\bFunction\s*\(`), "Function constructor", "code evaluation from strings is not permitted"},
	{regexp.MustCompile(`\bprocess\s*[.\[]`), "process", "process access is not permitted"},
	{regexp.MustCompile(`\bchild_process\b`), "child_process", "subprocess spawning is not permitted"},
	{regexp.MustCompile(`\bfetch\s*\(`), "fetch", "network access is not permitted"},
	{regexp.MustCompile(`\bXMLHttpRequest\b`), "XMLHttpRequest", "network access is not permitted"},
	{regexp.MustCompile(`\bWebSocket\b`), "WebSocket", "network access is not permitted"},
	{regexp.MustCompile(`\bfs\s*\.`), "fs", "direct filesystem access is not permitted"},
	{regexp.MustCompile(`\b__proto__\b`), "__proto__", "prototype manipulation is not permitted"},
}

// strictPatterns additionally block reflection and timer-based evaluation
// surfaces that standard mode tolerates.
var strictPatterns = append([]forbiddenPattern{
	{regexp.MustCompile(`\bProxy\s*\(`), "Proxy", "reflection is not permitted in strict mode"},
	{regexp.MustCompile(`\bReflect\s*\.`), "Reflect", "reflection is not permitted in strict mode"},
	{regexp.MustCompile(`\bglobalThis\b`), "globalThis", "global object access is not permitted in strict mode"},
	{regexp.MustCompile(`\bsetTimeout\s*\(|\bsetInterval\s*\(`), "timers", "timers are not permitted in strict mode"},
}, standardPatterns...)

// Scan checks a snippet against the level's forbidden construct set. An empty
// result means the snippet may be executed. Scan never executes anything.
func Scan(code string, level SecurityLevel) []Violation {
	patterns := standardPatterns
	if level == LevelStrict {
		patterns = strictPatterns
	}

	var out []Violation
	for _, p := range patterns {
		if p.re.MatchString(code) {
			out = append(out, Violation{Construct: p.construct, Reason: p.reason})
		}
	}
	return out
}
