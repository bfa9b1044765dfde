// Package klex implements the core of a lexical-analyzer generator: it
// reads a grammar file, builds an NFA from its rules via Thompson's
// construction, and performs subset construction to produce a
// minimized-by-identity DFA transition table ready for an external
// emitter to render into source code.
package klex

import (
	"fmt"
	"io"
	"strings"

	"github.com/klex/klex/dfa"
	"github.com/klex/klex/internal/diagnostics"
	"github.com/klex/klex/lexer"
	"github.com/klex/klex/macro"
	"github.com/klex/klex/nfa"
	"github.com/klex/klex/parser"
	"github.com/klex/klex/source"
)

// Config bounds and parameterizes one Generate run.
type Config struct {
	// NFAMax caps the NFA arena, matching the historical NFA_MAX.
	NFAMax int
	// DFAMax caps the number of DFA states subset construction may
	// produce, matching the historical DFA_MAX.
	DFAMax int
	// AlphabetSize is 128 for a 7-bit grammar or 256 for an 8-bit one.
	AlphabetSize int
	// UnixNewlines, when true, treats "\n" as the sole line terminator
	// for `^`/`$` anchors. When false, `$` matches "\r" as well as
	// "\n" as the byte ending the line, and `.` and negated classes
	// exclude it. The line-ending convention is an explicit choice,
	// never a silent platform assumption.
	UnixNewlines bool
}

// DefaultConfig returns the historical limits: a 512-node NFA arena, a
// 254-state DFA, a 128-byte alphabet, and Unix newline conventions.
func DefaultConfig() Config {
	return Config{NFAMax: 512, DFAMax: 254, AlphabetSize: 128, UnixNewlines: true}
}

// WithNFAMax returns a copy of c with NFAMax set.
func (c Config) WithNFAMax(n int) Config {
	c.NFAMax = n
	return c
}

// WithDFAMax returns a copy of c with DFAMax set.
func (c Config) WithDFAMax(n int) Config {
	c.DFAMax = n
	return c
}

// WithAlphabetSize returns a copy of c with AlphabetSize set.
func (c Config) WithAlphabetSize(n int) Config {
	c.AlphabetSize = n
	return c
}

// WithUnixNewlines returns a copy of c with UnixNewlines set.
func (c Config) WithUnixNewlines(b bool) Config {
	c.UnixNewlines = b
	return c
}

// Validate reports whether c describes a usable Generate run.
func (c Config) Validate() error {
	if c.NFAMax <= 0 {
		return fmt.Errorf("klex: NFAMax must be positive, got %d", c.NFAMax)
	}
	if c.DFAMax <= 0 {
		return fmt.Errorf("klex: DFAMax must be positive, got %d", c.DFAMax)
	}
	if c.AlphabetSize <= 0 || c.AlphabetSize > 256 {
		return fmt.Errorf("klex: AlphabetSize must be in (0, 256], got %d", c.AlphabetSize)
	}
	return nil
}

// Diagnostic wraps a rule-zone failure with the position context the
// generator reports before aborting: the 1-based source line the rule
// began on, the column offset the lexer had reached within that rule's
// text, and the rule text itself.
type Diagnostic struct {
	Line int
	Col  int
	Text string
	Err  error
}

func (d *Diagnostic) Error() string {
	return fmt.Sprintf("line %d, col %d: %v\n\t%s", d.Line, d.Col, d.Err, d.Text)
}

func (d *Diagnostic) Unwrap() error {
	return d.Err
}

// Output is the artifact Generate produces: the emitted DFA plus the
// verbatim header/trailer text an emitter splices around it.
type Output struct {
	Header  string
	Trailer string
	DFA     *dfa.DFA
	Accept  []*nfa.Accept
}

// Generate reads a complete grammar file from r and builds its DFA.
// Diagnostics are advisory warnings (e.g. shadowed literal rules) that
// never change the returned Output; a non-nil error means the grammar
// itself could not be turned into a DFA.
func Generate(r io.Reader, cfg Config) (*Output, []diagnostics.Warning, error) {
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}

	macros := macro.New()
	scanner, err := source.New(r, macros)
	if err != nil {
		return nil, nil, err
	}
	if err := scanner.ProcessHeader(); err != nil {
		return nil, nil, err
	}

	arena := nfa.NewArena(cfg.NFAMax)
	lex := lexer.New(macros)

	var ruleStarts []nfa.NodeID
	var literals []diagnostics.LiteralRule
	var prevAction string
	var warnings []diagnostics.Warning

	for {
		line, ok, err := scanner.ReadRuleLine()
		if err != nil {
			return nil, nil, err
		}
		if !ok {
			break
		}

		ruleLine := scanner.Line()
		lex.SetLine(line, ruleLine)

		p := parser.NewWithNewlineMode(arena, lex, cfg.AlphabetSize, cfg.UnixNewlines)
		if err := p.Prime(); err != nil {
			return nil, nil, &Diagnostic{Line: ruleLine, Col: lex.Pos(), Text: line, Err: err}
		}
		frag, anchor, err := p.ParseRule()
		if err != nil {
			return nil, nil, &Diagnostic{Line: ruleLine, Col: lex.Pos(), Text: line, Err: err}
		}

		action := strings.TrimRight(lex.RestOfLine(), " \t")
		if strings.HasPrefix(action, "|") {
			// A rule whose action begins with '|' inherits the
			// previous rule's action text verbatim.
			action = prevAction
		}
		prevAction = action
		if err := arena.SetAccept(frag.End, &nfa.Accept{Action: action, Anchor: anchor}); err != nil {
			return nil, nil, err
		}

		for _, dashLine := range p.DashWarnings() {
			warnings = append(warnings, diagnostics.Warning{
				Line:     dashLine,
				Severity: diagnostics.Warn,
				Message:  "dash at start or end of character class treated as a literal '-'",
			})
		}

		ruleStarts = append(ruleStarts, frag.Start)
		if literal, ok := literalText(line); ok {
			literals = append(literals, diagnostics.LiteralRule{Line: ruleLine, Pattern: literal})
		}
	}

	start, err := fanIn(arena, ruleStarts)
	if err != nil {
		return nil, nil, err
	}
	arena.SetStart(start)

	built, err := dfa.Build(arena, dfa.DefaultConfig().WithMaxStates(cfg.DFAMax).WithAlphabetSize(cfg.AlphabetSize))
	if err != nil {
		return nil, nil, err
	}

	shadowWarnings, err := diagnostics.CheckShadowing(literals)
	if err != nil {
		return nil, nil, err
	}
	warnings = append(warnings, shadowWarnings...)

	var headerBuf, trailerBuf strings.Builder
	if err := scanner.CopyHeader(&headerBuf); err != nil {
		return nil, nil, err
	}
	if err := scanner.CopyTrailer(&trailerBuf); err != nil {
		return nil, nil, err
	}

	out := &Output{
		Header:  headerBuf.String(),
		Trailer: trailerBuf.String(),
		DFA:     built,
		Accept:  built.AcceptTable(),
	}
	return out, warnings, nil
}

// fanIn builds a chain of epsilon nodes, each branching into one rule's
// fragment start and into the rest of the chain, and returns its head,
// so the whole grammar is one NFA whose subset construction yields one
// DFA covering all rules at once. A single rule's start is returned
// as is, and an empty grammar gets a lone Empty node.
func fanIn(arena *nfa.Arena, starts []nfa.NodeID) (nfa.NodeID, error) {
	if len(starts) == 0 {
		return arena.New(nfa.Empty)
	}
	if len(starts) == 1 {
		return starts[0], nil
	}

	cur := starts[len(starts)-1]
	for i := len(starts) - 2; i >= 0; i-- {
		next, err := arena.NewEpsilon(starts[i], cur)
		if err != nil {
			return nfa.InvalidNode, err
		}
		cur = next
	}
	return cur, nil
}

// literalText reports whether a rule's pattern (the portion of line
// before the first run of whitespace) contains no regex metacharacters
// and no escapes worth decoding specially, in which case the pattern
// text itself is its own literal bytes. Quoted patterns ("foo") have
// their quotes stripped and then pass the same metacharacter check.
func literalText(line string) ([]byte, bool) {
	end := 0
	for end < len(line) && line[end] != ' ' && line[end] != '\t' {
		end++
	}
	pattern := line[:end]
	if len(pattern) >= 2 && pattern[0] == '"' && pattern[len(pattern)-1] == '"' {
		pattern = pattern[1 : len(pattern)-1]
	}
	for i := 0; i < len(pattern); i++ {
		switch pattern[i] {
		case '.', '*', '+', '?', '|', '(', ')', '[', ']', '^', '$', '\\', '{', '}':
			return nil, false
		}
	}
	if pattern == "" {
		return nil, false
	}
	return []byte(pattern), true
}
