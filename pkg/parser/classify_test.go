package parser

import (
	"testing"

	"github.com/tarn-cc/tarn-cc/pkg/lexer"
	"github.com/tarn-cc/tarn-cc/pkg/symtab"
)

func TestClassificationCachedOnToken(t *testing.T) {
	p, _ := testParser(t, "vec_t x;")
	p.Symbols().Declare("vec_t", symtab.Typedef)

	tok := p.cur()
	if !tok.ClassKnown || tok.Class != lexer.ClassTypeName {
		t.Fatalf("vec_t classified as (%v, known=%v), want known type name",
			tok.Class, tok.ClassKnown)
	}

	// The result is stamped on the token; repeated peeks answer from the
	// cache without touching the table again.
	if p.cur() != tok {
		t.Fatal("classification not stable across peeks")
	}
}

func TestKnownBindingOverridesPolicy(t *testing.T) {
	p, _ := testParser(t, "n")
	p.Symbols().Declare("n", symtab.Ordinary)
	tok := p.cur()
	if p.isTypeNameToken(tok, preferType) {
		t.Fatal("known ordinary binding overridden by preferType")
	}
}

func TestUnknownNameFollowsPolicy(t *testing.T) {
	p, _ := testParser(t, "mystery")
	tok := p.cur()
	if tok.ClassKnown {
		t.Fatalf("unbound name marked known: %+v", tok)
	}
	if p.isTypeNameToken(tok, preferIdent) {
		t.Fatal("preferIdent treated an unknown name as a type")
	}
	if !p.isTypeNameToken(tok, preferType) {
		t.Fatal("preferType refused an unknown name")
	}
}

func TestReclassifyRefreshesStaleWindow(t *testing.T) {
	p, _ := testParser(t, "vec_t y;")

	// Pull the identifier into the window before any binding exists.
	if tok := p.cur(); tok.ClassKnown {
		t.Fatalf("premature classification: %+v", tok)
	}

	p.Symbols().Declare("vec_t", symtab.Typedef)

	// The cached answer is stale until reclassification is requested.
	if tok := p.cur(); tok.ClassKnown {
		t.Fatal("cached classification changed without reclassify")
	}
	p.reclassify()
	tok := p.cur()
	if !tok.ClassKnown || tok.Class != lexer.ClassTypeName {
		t.Fatalf("reclassify left stale entry: (%v, known=%v)", tok.Class, tok.ClassKnown)
	}
}

func TestReclassifySkipsFreshEntries(t *testing.T) {
	p, _ := testParser(t, "a b")
	p.cur()
	version := p.Symbols().Version()
	p.reclassify()
	if p.cur().ClassVersion != version {
		t.Fatal("reclassify rewrote an entry that was already current")
	}
}

func TestStartsDeclaration(t *testing.T) {
	cases := []struct {
		name    string
		input   string
		typedef string
		want    bool
	}{
		{"type keyword", "int x;", "", true},
		{"storage keyword alone", "static x;", "", true},
		{"typedef then declarator", "vec_t v;", "vec_t", true},
		{"typedef then star", "vec_t *v;", "vec_t", true},
		{"typedef then paren", "vec_t (*f)(void);", "vec_t", true},
		{"typedef in expression", "vec_t + 1;", "vec_t", false},
		{"unknown name", "foo(x);", "", false},
		{"struct keyword", "struct s v;", "", true},
	}
	for _, tc := range cases {
		p, _ := testParser(t, tc.input)
		if tc.typedef != "" {
			p.Symbols().Declare(tc.typedef, symtab.Typedef)
		}
		if got := p.startsDeclaration(); got != tc.want {
			t.Errorf("%s: startsDeclaration(%q) = %v, want %v",
				tc.name, tc.input, got, tc.want)
		}
	}
}

func TestTagNameClassification(t *testing.T) {
	p, _ := testParser(t, "node v;")
	p.Symbols().Declare("node", symtab.Tag)
	tok := p.cur()
	if !tok.ClassKnown || tok.Class != lexer.ClassTagName {
		t.Fatalf("tag classified as (%v, known=%v), want known tag name",
			tok.Class, tok.ClassKnown)
	}
	// A bare tag never names a type: it needs its struct/union/enum
	// keyword. Known bindings beat the policy here as everywhere.
	if p.isTypeNameToken(tok, preferType) {
		t.Fatal("bare tag accepted as a type name")
	}
	if p.startsDeclaration() {
		t.Fatal("bare tag started a declaration")
	}
}

func TestOrdinaryBindingShadowsTag(t *testing.T) {
	p, _ := testParser(t, "node")
	p.Symbols().Declare("node", symtab.Tag)
	p.Symbols().Declare("node", symtab.Ordinary)
	tok := p.cur()
	if !tok.ClassKnown || tok.Class != lexer.ClassIdent {
		t.Fatalf("got (%v, known=%v), want ordinary identifier", tok.Class, tok.ClassKnown)
	}
}

func TestAddrSpaceStartsTypeName(t *testing.T) {
	p, _ := testParser(t, "__shared int *p;")
	p.Symbols().Declare("__shared", symtab.AddrSpace)
	if !p.startsTypeName(1, preferIdent) {
		t.Fatal("address-space qualifier did not start a type name")
	}
}
