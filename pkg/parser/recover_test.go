package parser

import (
	"testing"

	"github.com/tarn-cc/tarn-cc/pkg/lexer"
)

func TestSkipUntilImmediateTargetIsSilent(t *testing.T) {
	p, c := testParser(t, "; next")
	if !p.skipUntil(lexer.TokenSemicolon, "expected ';'") {
		t.Fatal("skipUntil failed")
	}
	if len(c.All()) != 0 {
		t.Fatalf("immediate target still reported: %v", c.All())
	}
	if got := p.cur().Literal; got != "next" {
		t.Fatalf("positioned at %q, want next", got)
	}
}

func TestSkipUntilRespectsNesting(t *testing.T) {
	p, c := testParser(t, "garbage (a; b) [c;] ; after")
	if !p.skipUntil(lexer.TokenSemicolon, "expected ';'") {
		t.Fatal("skipUntil failed")
	}
	if len(c.Errors()) != 1 {
		t.Fatalf("want exactly one diagnostic, got %d", len(c.Errors()))
	}
	if got := p.cur().Literal; got != "after" {
		t.Fatalf("positioned at %q, want after", got)
	}
	if p.errSticky {
		t.Fatal("sticky flag not cleared by successful skip")
	}
}

func TestStickyFlagSuppressesCascade(t *testing.T) {
	p, c := testParser(t, "bad bad bad; fresh!")
	p.errorf(p.cur().Pos, "first problem")
	p.errorf(p.cur().Pos, "cascade noise")
	if len(c.Errors()) != 1 {
		t.Fatalf("sticky flag leaked a cascade: %d errors", len(c.Errors()))
	}

	if !p.skipToStmtEnd() {
		t.Fatal("recovery failed")
	}
	if p.errSticky {
		t.Fatal("sticky flag survived a successful skip")
	}

	// An independent construct reports again.
	p.errorf(p.cur().Pos, "second independent problem")
	if len(c.Errors()) != 2 {
		t.Fatalf("want 2 errors after resync, got %d", len(c.Errors()))
	}
}

func TestSkipToStmtEndConsumesTerminator(t *testing.T) {
	p, _ := testParser(t, "junk (;;) more; tail")
	p.errSticky = true
	if !p.skipToStmtEnd() {
		t.Fatal("skip failed")
	}
	if got := p.cur().Literal; got != "tail" {
		t.Fatalf("positioned at %q, want token after ';'", got)
	}
}

func TestSkipToStmtEndStopsAtBlockEnd(t *testing.T) {
	p, _ := testParser(t, "junk junk } rest")
	if !p.skipToStmtEnd() {
		t.Fatal("skip failed")
	}
	// The closing brace is consumed and ends the skip.
	if got := p.cur().Literal; got != "rest" {
		t.Fatalf("positioned at %q, want rest", got)
	}
}

func TestSkipToParamEndLeavesDelimiter(t *testing.T) {
	p, _ := testParser(t, "bad stuff (x, y), good)")
	if !p.skipToParamEnd() {
		t.Fatal("skip failed")
	}
	if p.cur().Type != lexer.TokenComma {
		t.Fatalf("stopped at %q, want unconsumed ','", p.cur().Literal)
	}

	p.consume()
	if !p.skipToParamEnd() {
		t.Fatal("second skip failed")
	}
	if p.cur().Type != lexer.TokenRParen {
		t.Fatalf("stopped at %q, want unconsumed ')'", p.cur().Literal)
	}
}

func TestSkipToCloseBraceDoesNotConsume(t *testing.T) {
	p, _ := testParser(t, "a b {c;} d } tail")
	if !p.skipToCloseBrace() {
		t.Fatal("skip failed")
	}
	if p.cur().Type != lexer.TokenRBrace {
		t.Fatalf("stopped at %q, want unconsumed '}'", p.cur().Literal)
	}
}

func TestSkipConsumesEmbeddedDirectiveAsUnit(t *testing.T) {
	// The pragma's unbalanced parens must not perturb the nesting count.
	input := "junk\n#pragma omp weird ((( [\nmore; tail"
	p, _ := testParser(t, input)
	if !p.skipToStmtEnd() {
		t.Fatal("skip failed")
	}
	if got := p.cur().Literal; got != "tail" {
		t.Fatalf("positioned at %q, want tail", got)
	}
}

func TestSkipStopsAtDirectiveEndInsidePragma(t *testing.T) {
	p, _ := testParser(t, "#pragma omp bad stuff\nint x;")
	p.consume() // marker
	p.inPragma = true
	if p.skipToStmtEnd() {
		t.Fatal("skip inside a directive must stop at end-of-directive")
	}
	if p.cur().Type != lexer.TokenEOD {
		t.Fatalf("stopped at %s, want EOD", p.cur().Type)
	}
}
