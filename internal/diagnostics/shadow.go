// Package diagnostics produces non-fatal, advisory warnings about a
// grammar that do not affect the emitted DFA — only a generator user
// reading the warnings. Today it holds a single check: literal rule
// shadowing.
package diagnostics

import (
	"fmt"

	"github.com/coregx/ahocorasick"
)

// Severity classifies a Warning.
type Severity int

const (
	Info Severity = iota
	Warn
)

// Warning is one advisory finding attached to a specific rule line.
type Warning struct {
	Line     int
	Severity Severity
	Message  string
}

func (w Warning) String() string {
	return fmt.Sprintf("%d: %s", w.Line, w.Message)
}

// LiteralRule is one grammar rule whose pattern is a plain sequence of
// literal bytes (no operators, classes, or anchors) — the only shape
// CheckShadowing reasons about.
type LiteralRule struct {
	Line    int
	Pattern []byte
}

// CheckShadowing flags literal rules whose exact text is also matched
// by some earlier-declared literal rule. Since the
// rule-priority tie-break always resolves a shared accept state in
// favor of the lowest-numbered (earliest) NFA node, a later rule whose
// literal text is identical to — or fully contained as a match within
// — an earlier one can never win that tie and is dead code in the
// grammar. This never changes the DFA that gets built; it is purely
// advisory, surfaced for the grammar author.
//
// Each rule is checked against an Aho-Corasick automaton built from
// every earlier literal rule's text, giving a single multi-pattern
// scan per rule instead of a quadratic string-compare loop.
func CheckShadowing(rules []LiteralRule) ([]Warning, error) {
	var warnings []Warning

	for i, rule := range rules {
		if len(rule.Pattern) == 0 {
			continue
		}

		builder := ahocorasick.NewBuilder()
		any := false
		for j, other := range rules {
			if j == i || other.Line >= rule.Line || len(other.Pattern) == 0 {
				continue
			}
			builder.AddPattern(other.Pattern)
			any = true
		}
		if !any {
			continue
		}
		automaton, err := builder.Build()
		if err != nil {
			return nil, fmt.Errorf("diagnostics: building shadow automaton for rule at line %d: %w", rule.Line, err)
		}

		if automaton.IsMatch(rule.Pattern) {
			warnings = append(warnings, Warning{
				Line:     rule.Line,
				Severity: Warn,
				Message:  fmt.Sprintf("rule %q is shadowed by an earlier literal rule and can never match", rule.Pattern),
			})
		}
	}

	return warnings, nil
}
