// Package parser recursive-descent parses one rule's pattern into a
// Thompson-construction NFA fragment, driving an nfa.Arena as it goes.
//
// Grammar:
//
//	rule     -> [^] expr [$]
//	expr     -> cat_expr ('|' cat_expr)*
//	cat_expr -> factor+
//	factor   -> term ('*' | '+' | '?')?
//	term     -> '(' expr ')' | '.' | '[' ['^'] dash_list ']' | literal
package parser

import (
	"fmt"

	"github.com/klex/klex/bitset"
	"github.com/klex/klex/lexer"
	"github.com/klex/klex/nfa"
)

// BadParenError reports a `(` left without a matching `)`.
type BadParenError struct{ Line int }

func (e *BadParenError) Error() string {
	return fmt.Sprintf("parser:%d: unmatched '('", e.Line)
}

// BadClosureError reports a closure operator (`*`, `+`, `?`) with no
// preceding term to apply it to.
type BadClosureError struct{ Line int }

func (e *BadClosureError) Error() string {
	return fmt.Sprintf("parser:%d: '*', '+' or '?' with nothing to repeat", e.Line)
}

// BadBracketError reports a malformed or unterminated `[...]` class.
type BadBracketError struct{ Line int }

func (e *BadBracketError) Error() string {
	return fmt.Sprintf("parser:%d: malformed character class", e.Line)
}

// BadAnchorError reports a stray `^` appearing where only a term is
// valid (it is only meaningful at the very start of a rule).
type BadAnchorError struct{ Line int }

func (e *BadAnchorError) Error() string {
	return fmt.Sprintf("parser:%d: '^' is only valid at the start of a rule", e.Line)
}

// UnexpectedTokenError reports any other token appearing where a term
// was expected.
type UnexpectedTokenError struct {
	Line  int
	Token lexer.Token
}

func (e *UnexpectedTokenError) Error() string {
	return fmt.Sprintf("parser:%d: unexpected %s", e.Line, e.Token)
}

// Frag is a Thompson fragment: Start is its entry node, End is its
// still-dangling exit node (an Empty placeholder, ready to be
// concatenated, merged, or patched into something else).
type Frag struct {
	Start nfa.NodeID
	End   nfa.NodeID
}

// Parser holds the one-token lookahead state for parsing a single rule
// line. A Parser is not reused across rules; callers construct one per
// line alongside a freshly primed lexer.Lexer.
type Parser struct {
	arena        *nfa.Arena
	lex          *lexer.Lexer
	alphabetSize int
	unixNewlines bool
	tok          lexer.Token
	dashWarnings []int
}

// DashWarnings returns the source line numbers of every `[...]` class
// this parser has built so far that had a leading or trailing dash
// treated as a literal '-', so the caller can report the convention as
// a warning. Cleared by nothing; a Parser is one-per-rule, so at most
// one line number can ever appear.
func (p *Parser) DashWarnings() []int {
	return p.dashWarnings
}

// New creates a parser that builds fragments into arena, reading
// tokens from lex, treating class complements (`.`, `[^...]`) as sets
// over [0, alphabetSize). Line endings are Unix-style ("\n" alone);
// use NewWithNewlineMode to also treat "\r" as a line terminator.
func New(arena *nfa.Arena, lex *lexer.Lexer, alphabetSize int) *Parser {
	return NewWithNewlineMode(arena, lex, alphabetSize, true)
}

// NewWithNewlineMode is New with explicit control over unixNewlines:
// when false, "\r" is treated as part of the line terminator alongside
// "\n" — `.` and negated classes exclude it, and `$` matches it as well
// as "\n" — making the line-ending convention an explicit
// per-run choice rather than a hidden global.
func NewWithNewlineMode(arena *nfa.Arena, lex *lexer.Lexer, alphabetSize int, unixNewlines bool) *Parser {
	return &Parser{arena: arena, lex: lex, alphabetSize: alphabetSize, unixNewlines: unixNewlines}
}

// Prime reads the first token of the line. Callers must call this once
// before ParseRule.
func (p *Parser) Prime() error {
	return p.advance()
}

func (p *Parser) advance() error {
	tok, err := p.lex.Advance()
	if err != nil {
		return err
	}
	p.tok = tok
	return nil
}

func (p *Parser) line() int { return p.lex.Line() }

// ParseRule parses `[^] expr [$]` and returns the assembled fragment
// together with the anchor flags to stamp onto the rule's accept
// node. It stops at EndOfString without consuming it; the
// caller is responsible for reading the trailing action text (e.g. via
// lexer.RestOfLine) and stamping nfa.Accept onto frag.End.
func (p *Parser) ParseRule() (Frag, nfa.Anchor, error) {
	anchor := nfa.AnchorNone

	var frag Frag
	if p.tok == lexer.AtBeginLine {
		if err := p.advance(); err != nil {
			return Frag{}, anchor, err
		}
		inner, err := p.expr()
		if err != nil {
			return Frag{}, anchor, err
		}
		start, err := p.arena.NewChar('\n', inner.Start)
		if err != nil {
			return Frag{}, anchor, err
		}
		frag = Frag{Start: start, End: inner.End}
		anchor |= nfa.AnchorStart
	} else {
		var err error
		frag, err = p.expr()
		if err != nil {
			return Frag{}, anchor, err
		}
	}

	if p.tok == lexer.AtEndLine {
		if err := p.advance(); err != nil {
			return Frag{}, anchor, err
		}
		set := bitset.New(p.alphabetSize)
		set.Add('\n')
		if !p.unixNewlines {
			set.Add('\r')
		}
		newEnd, err := p.arena.New(nfa.Empty)
		if err != nil {
			return Frag{}, anchor, err
		}
		if err := p.arena.SetCharClass(frag.End, set, newEnd); err != nil {
			return Frag{}, anchor, err
		}
		frag.End = newEnd
		anchor |= nfa.AnchorEnd
	}

	return frag, anchor, nil
}

// expr -> cat_expr ('|' cat_expr)*
func (p *Parser) expr() (Frag, error) {
	left, err := p.catExpr()
	if err != nil {
		return Frag{}, err
	}

	for p.tok == lexer.Or {
		if err := p.advance(); err != nil {
			return Frag{}, err
		}
		right, err := p.catExpr()
		if err != nil {
			return Frag{}, err
		}

		start, err := p.arena.New(nfa.Empty)
		if err != nil {
			return Frag{}, err
		}
		if err := p.arena.SetEpsilon(start, left.Start, right.Start); err != nil {
			return Frag{}, err
		}

		end, err := p.arena.New(nfa.Empty)
		if err != nil {
			return Frag{}, err
		}
		if err := p.arena.SetEpsilon(left.End, end, nfa.InvalidNode); err != nil {
			return Frag{}, err
		}
		if err := p.arena.SetEpsilon(right.End, end, nfa.InvalidNode); err != nil {
			return Frag{}, err
		}

		left = Frag{Start: start, End: end}
	}
	return left, nil
}

// startsFactor reports whether tok can begin a factor, and surfaces an
// error for tokens that can only appear attached to a preceding term.
func (p *Parser) startsFactor(tok lexer.Token) (bool, error) {
	switch tok {
	case lexer.CloseParen, lexer.AtEndLine, lexer.Or, lexer.EndOfString, lexer.EndOfInput:
		return false, nil
	case lexer.Closure, lexer.PlusClose, lexer.Optional:
		return false, &BadClosureError{Line: p.line()}
	case lexer.ClassEnd:
		return false, &BadBracketError{Line: p.line()}
	case lexer.AtBeginLine:
		return false, &BadAnchorError{Line: p.line()}
	default:
		return true, nil
	}
}

// catExpr -> factor+
func (p *Parser) catExpr() (Frag, error) {
	ok, err := p.startsFactor(p.tok)
	if err != nil {
		return Frag{}, err
	}
	if !ok {
		return Frag{}, &UnexpectedTokenError{Line: p.line(), Token: p.tok}
	}
	left, err := p.factor()
	if err != nil {
		return Frag{}, err
	}

	for {
		ok, err := p.startsFactor(p.tok)
		if err != nil {
			return Frag{}, err
		}
		if !ok {
			break
		}
		right, err := p.factor()
		if err != nil {
			return Frag{}, err
		}
		if err := p.arena.Merge(left.End, right.Start); err != nil {
			return Frag{}, err
		}
		left.End = right.End
	}
	return left, nil
}

// factor -> term ('*' | '+' | '?')?
func (p *Parser) factor() (Frag, error) {
	inner, err := p.term()
	if err != nil {
		return Frag{}, err
	}

	switch p.tok {
	case lexer.Closure, lexer.PlusClose, lexer.Optional:
		op := p.tok
		start, err := p.arena.New(nfa.Empty)
		if err != nil {
			return Frag{}, err
		}
		end, err := p.arena.New(nfa.Empty)
		if err != nil {
			return Frag{}, err
		}

		startNext2 := nfa.InvalidNode
		if op == lexer.Closure || op == lexer.Optional {
			startNext2 = end
		}
		if err := p.arena.SetEpsilon(start, inner.Start, startNext2); err != nil {
			return Frag{}, err
		}

		endNext2 := nfa.InvalidNode
		if op == lexer.Closure || op == lexer.PlusClose {
			endNext2 = inner.Start
		}
		if err := p.arena.SetEpsilon(inner.End, end, endNext2); err != nil {
			return Frag{}, err
		}

		if err := p.advance(); err != nil {
			return Frag{}, err
		}
		return Frag{Start: start, End: end}, nil
	default:
		return inner, nil
	}
}

// term -> '(' expr ')' | '.' | '[' ['^'] dash_list ']' | literal
func (p *Parser) term() (Frag, error) {
	if p.tok == lexer.OpenParen {
		if err := p.advance(); err != nil {
			return Frag{}, err
		}
		inner, err := p.expr()
		if err != nil {
			return Frag{}, err
		}
		if p.tok != lexer.CloseParen {
			return Frag{}, &BadParenError{Line: p.line()}
		}
		if err := p.advance(); err != nil {
			return Frag{}, err
		}
		return inner, nil
	}

	if p.tok == lexer.Any {
		set := bitset.New(p.alphabetSize)
		set.Add('\n')
		if !p.unixNewlines {
			set.Add('\r')
		}
		set.Complement()
		if err := p.advance(); err != nil {
			return Frag{}, err
		}
		return p.newClassFrag(set)
	}

	if p.tok == lexer.ClassStart {
		return p.classTerm()
	}

	if p.tok != lexer.Literal {
		return Frag{}, &UnexpectedTokenError{Line: p.line(), Token: p.tok}
	}
	c := p.lex.Lexeme()
	if err := p.advance(); err != nil {
		return Frag{}, err
	}
	end, err := p.arena.New(nfa.Empty)
	if err != nil {
		return Frag{}, err
	}
	start, err := p.arena.NewChar(c, end)
	if err != nil {
		return Frag{}, err
	}
	return Frag{Start: start, End: end}, nil
}

// classTerm parses the body of a `[...]` bracket expression, already
// positioned on ClassStart.
func (p *Parser) classTerm() (Frag, error) {
	if err := p.advance(); err != nil {
		return Frag{}, err
	}

	negate := false
	if p.tok == lexer.AtBeginLine {
		negate = true
		if err := p.advance(); err != nil {
			return Frag{}, err
		}
	}

	set := bitset.New(p.alphabetSize)
	if p.tok == lexer.ClassEnd {
		// `[]` / `[^]`: the historical non-standard class of
		// whitespace-or-control bytes 0x00-0x20.
		for c := 0; c <= ' '; c++ {
			set.Add(c)
		}
	} else if err := p.dodash(set); err != nil {
		return Frag{}, err
	}

	if p.tok != lexer.ClassEnd {
		return Frag{}, &BadBracketError{Line: p.line()}
	}
	if err := p.advance(); err != nil {
		return Frag{}, err
	}

	if negate {
		set.Complement()
		set.Remove('\n')
		if !p.unixNewlines {
			set.Remove('\r')
		}
	}

	return p.newClassFrag(set)
}

// dodash consumes a dash-separated list of bytes and ranges up to (but
// not including) the closing ClassEnd, adding each to set. A dash
// appearing first or immediately before ']' is treated as a literal
// '-', matching the historical convention.
func (p *Parser) dodash(set *bitset.BitSet) error {
	var first byte
	if p.tok == lexer.Dash {
		set.Add(int(p.lex.Lexeme()))
		p.dashWarnings = append(p.dashWarnings, p.line())
		if err := p.advance(); err != nil {
			return err
		}
	}

	for p.tok != lexer.EndOfString && p.tok != lexer.EndOfInput && p.tok != lexer.ClassEnd {
		if p.tok != lexer.Dash {
			first = p.lex.Lexeme()
			set.Add(int(first))
			if err := p.advance(); err != nil {
				return err
			}
			continue
		}

		if err := p.advance(); err != nil {
			return err
		}
		if p.tok == lexer.ClassEnd {
			set.Add('-')
			p.dashWarnings = append(p.dashWarnings, p.line())
			break
		}
		last := p.lex.Lexeme()
		for c := int(first); c <= int(last); c++ {
			set.Add(c)
		}
		if err := p.advance(); err != nil {
			return err
		}
	}
	return nil
}

func (p *Parser) newClassFrag(set *bitset.BitSet) (Frag, error) {
	end, err := p.arena.New(nfa.Empty)
	if err != nil {
		return Frag{}, err
	}
	start, err := p.arena.NewCharClass(set, end)
	if err != nil {
		return Frag{}, err
	}
	return Frag{Start: start, End: end}, nil
}
