package source

import (
	"strings"
	"testing"

	"github.com/klex/klex/macro"
)

func newScanner(t *testing.T, text string) *Scanner {
	t.Helper()
	sc, err := New(strings.NewReader(text), macro.New())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return sc
}

func TestProcessHeaderDefinesMacros(t *testing.T) {
	sc := newScanner(t, "DIGIT [0-9]\nWORD [a-z]+\n%%\na { A }\n%%\n")
	if err := sc.ProcessHeader(); err != nil {
		t.Fatalf("ProcessHeader: %v", err)
	}
	text, err := sc.Macros().Lookup("DIGIT")
	if err != nil || text != "[0-9]" {
		t.Fatalf("Lookup(DIGIT) = %q, %v", text, err)
	}
}

func TestProcessHeaderPassthrough(t *testing.T) {
	sc := newScanner(t, "%{\n#include <stdio.h>\n%}\n%%\na { A }\n%%\n")
	if err := sc.ProcessHeader(); err != nil {
		t.Fatalf("ProcessHeader: %v", err)
	}
	var buf strings.Builder
	if err := sc.CopyHeader(&buf); err != nil {
		t.Fatalf("CopyHeader: %v", err)
	}
	if !strings.Contains(buf.String(), "#include <stdio.h>") {
		t.Fatalf("header missing passthrough text: %q", buf.String())
	}
}

func TestProcessHeaderStripsComments(t *testing.T) {
	sc := newScanner(t, "FOO bar /* a comment */\n%%\na { A }\n%%\n")
	if err := sc.ProcessHeader(); err != nil {
		t.Fatalf("ProcessHeader: %v", err)
	}
	text, err := sc.Macros().Lookup("FOO")
	if err != nil {
		t.Fatalf("Lookup(FOO): %v", err)
	}
	if text != "bar" {
		t.Fatalf("text = %q, want %q", text, "bar")
	}
}

func TestProcessHeaderBadDirective(t *testing.T) {
	sc := newScanner(t, "%bogus\n%%\n")
	err := sc.ProcessHeader()
	if err == nil {
		t.Fatal("expected error for bad directive")
	}
	if _, ok := err.(*BadDirectiveError); !ok {
		t.Fatalf("got %T, want *BadDirectiveError", err)
	}
}

func TestReadRuleLineContinuation(t *testing.T) {
	sc := newScanner(t, "%%\na|\n  b { ACTION }\nc { OTHER }\n%%\n")
	if err := sc.ProcessHeader(); err != nil {
		t.Fatalf("ProcessHeader: %v", err)
	}

	rule, ok, err := sc.ReadRuleLine()
	if err != nil || !ok {
		t.Fatalf("ReadRuleLine: %q %v %v", rule, ok, err)
	}
	if rule != "a| b { ACTION }" {
		t.Fatalf("rule = %q, want %q", rule, "a| b { ACTION }")
	}

	rule2, ok, err := sc.ReadRuleLine()
	if err != nil || !ok {
		t.Fatalf("ReadRuleLine: %q %v %v", rule2, ok, err)
	}
	if rule2 != "c { OTHER }" {
		t.Fatalf("rule2 = %q, want %q", rule2, "c { OTHER }")
	}

	_, ok, err = sc.ReadRuleLine()
	if err != nil {
		t.Fatalf("ReadRuleLine at end: %v", err)
	}
	if ok {
		t.Fatal("expected end of rule zone")
	}
}

func TestReadRuleLineSkipsBlankLines(t *testing.T) {
	sc := newScanner(t, "%%\n\na { A }\n\n\nb { B }\n%%\n")
	if err := sc.ProcessHeader(); err != nil {
		t.Fatalf("ProcessHeader: %v", err)
	}
	rule, _, _ := sc.ReadRuleLine()
	if rule != "a { A }" {
		t.Fatalf("rule = %q", rule)
	}
	rule2, _, _ := sc.ReadRuleLine()
	if rule2 != "b { B }" {
		t.Fatalf("rule2 = %q", rule2)
	}
}

func TestReadRuleLineReportsStartLine(t *testing.T) {
	sc := newScanner(t, "%%\na|\n  b { ACTION }\nc { OTHER }\n%%\n")
	if err := sc.ProcessHeader(); err != nil {
		t.Fatalf("ProcessHeader: %v", err)
	}
	if _, _, err := sc.ReadRuleLine(); err != nil {
		t.Fatalf("ReadRuleLine: %v", err)
	}
	if sc.Line() != 2 {
		t.Fatalf("Line() = %d, want 2 (continuation rule's first physical line)", sc.Line())
	}
	if _, _, err := sc.ReadRuleLine(); err != nil {
		t.Fatalf("ReadRuleLine: %v", err)
	}
	if sc.Line() != 4 {
		t.Fatalf("Line() = %d, want 4", sc.Line())
	}
}

func TestCopyTrailerVerbatim(t *testing.T) {
	sc := newScanner(t, "%%\na { A }\n%%\ntrailer line one\ntrailer line two\n")
	if err := sc.ProcessHeader(); err != nil {
		t.Fatalf("ProcessHeader: %v", err)
	}
	for {
		_, ok, err := sc.ReadRuleLine()
		if err != nil {
			t.Fatalf("ReadRuleLine: %v", err)
		}
		if !ok {
			break
		}
	}
	var buf strings.Builder
	if err := sc.CopyTrailer(&buf); err != nil {
		t.Fatalf("CopyTrailer: %v", err)
	}
	want := "trailer line one\ntrailer line two\n"
	if buf.String() != want {
		t.Fatalf("trailer = %q, want %q", buf.String(), want)
	}
}
