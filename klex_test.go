package klex

import (
	"errors"
	"strings"
	"testing"

	"github.com/klex/klex/parser"
)

func TestGenerateSimpleGrammar(t *testing.T) {
	grammar := "DIGIT [0-9]\n" +
		"%%\n" +
		"if      { KW_IF }\n" +
		"{DIGIT}+ { NUMBER }\n" +
		"%%\n"

	out, warnings, err := Generate(strings.NewReader(grammar), DefaultConfig())
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if len(warnings) != 0 {
		t.Fatalf("warnings = %v, want none", warnings)
	}
	if out.DFA == nil || len(out.DFA.States) == 0 {
		t.Fatal("expected a non-empty DFA")
	}

	s := out.DFA.Start
	for _, c := range []byte("if") {
		next := out.DFA.Trans[s][c]
		if next < 0 {
			t.Fatalf("no transition on %q", c)
		}
		s = next
	}
	if !out.DFA.States[s].IsAccepting() {
		t.Fatal("\"if\" should be accepted")
	}
	if strings.TrimSpace(out.DFA.States[s].Accept.Action) != "{ KW_IF }" {
		t.Fatalf("action = %q", out.DFA.States[s].Accept.Action)
	}

	s = out.DFA.Start
	for _, c := range []byte("123") {
		next := out.DFA.Trans[s][c]
		if next < 0 {
			t.Fatalf("no transition on digit %q", c)
		}
		s = next
	}
	if !out.DFA.States[s].IsAccepting() {
		t.Fatal("\"123\" should be accepted as NUMBER")
	}
}

func TestGenerateDetectsShadowedLiteral(t *testing.T) {
	grammar := "%%\n" +
		"begin { A }\n" +
		"begin { B }\n" +
		"%%\n"

	_, warnings, err := Generate(strings.NewReader(grammar), DefaultConfig())
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if len(warnings) != 1 {
		t.Fatalf("warnings = %v, want exactly one", warnings)
	}
}

func TestGenerateHeaderAndTrailerPassthrough(t *testing.T) {
	grammar := "%{\n#include <stdio.h>\n%}\n%%\na { A }\n%%\nint main(void) {}\n"
	out, _, err := Generate(strings.NewReader(grammar), DefaultConfig())
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if !strings.Contains(out.Header, "#include <stdio.h>") {
		t.Fatalf("header = %q", out.Header)
	}
	if !strings.Contains(out.Trailer, "int main(void) {}") {
		t.Fatalf("trailer = %q", out.Trailer)
	}
}

func TestGenerateActionInheritance(t *testing.T) {
	grammar := "%%\n" +
		"foo { ACTION_A }\n" +
		"bar |\n" +
		"%%\n"

	out, _, err := Generate(strings.NewReader(grammar), DefaultConfig())
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	s := out.DFA.Start
	for _, c := range []byte("bar") {
		next := out.DFA.Trans[s][c]
		if next < 0 {
			t.Fatalf("no transition on %q", c)
		}
		s = next
	}
	if !out.DFA.States[s].IsAccepting() {
		t.Fatal("\"bar\" should be accepted")
	}
	if got := out.DFA.States[s].Accept.Action; got != "{ ACTION_A }" {
		t.Fatalf("inherited action = %q, want %q", got, "{ ACTION_A }")
	}
}

func TestGenerateWarnsOnEdgeDashInClass(t *testing.T) {
	grammar := "%%\n" +
		"[a-] { A }\n" +
		"%%\n"

	_, warnings, err := Generate(strings.NewReader(grammar), DefaultConfig())
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if len(warnings) != 1 {
		t.Fatalf("warnings = %v, want exactly one", warnings)
	}
	if !strings.Contains(warnings[0].Message, "literal '-'") {
		t.Fatalf("warning message = %q, want mention of literal dash", warnings[0].Message)
	}
}

func TestGenerateReportsPositionOnParseFailure(t *testing.T) {
	grammar := "%%\n" +
		"a { A }\n" +
		"(b { B }\n" +
		"%%\n"

	_, _, err := Generate(strings.NewReader(grammar), DefaultConfig())
	if err == nil {
		t.Fatal("expected parse error for unmatched '('")
	}
	var diag *Diagnostic
	if !errors.As(err, &diag) {
		t.Fatalf("got %T, want *Diagnostic", err)
	}
	if diag.Line != 3 {
		t.Fatalf("diagnostic line = %d, want 3", diag.Line)
	}
	if !strings.Contains(diag.Text, "(b") {
		t.Fatalf("diagnostic text = %q, want the offending rule", diag.Text)
	}
	var paren *parser.BadParenError
	if !errors.As(err, &paren) {
		t.Fatalf("underlying error = %v, want *parser.BadParenError", diag.Err)
	}
}

func TestGenerateInvalidConfig(t *testing.T) {
	_, _, err := Generate(strings.NewReader("%%\na { A }\n%%\n"), DefaultConfig().WithNFAMax(0))
	if err == nil {
		t.Fatal("expected validation error for zero NFAMax")
	}
}
