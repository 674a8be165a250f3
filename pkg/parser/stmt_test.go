package parser

import (
	"strings"
	"testing"

	"github.com/tarn-cc/tarn-cc/pkg/cabs"
	"github.com/tarn-cc/tarn-cc/pkg/diag"
	"github.com/tarn-cc/tarn-cc/pkg/lexer"
)

// parseBody wraps input in a function definition and returns the body
// items of the parsed function.
func parseBody(t *testing.T, dialect Dialect, body string) ([]cabs.Stmt, *diag.Collector) {
	t.Helper()
	p, c := testParser(t, "void f(void) {\n"+body+"\n}\n")
	p.SetDialect(dialect)
	prog := p.ParseProgram()
	if len(prog.Decls) != 1 {
		t.Fatalf("got %d decls, want 1 (diags: %v)", len(prog.Decls), c.All())
	}
	fd, ok := prog.Decls[0].(*cabs.FunDef)
	if !ok {
		t.Fatalf("got %T, want *cabs.FunDef", prog.Decls[0])
	}
	return fd.Body.Items, c
}

func TestStandalonePragmaCapture(t *testing.T) {
	p, c := testParser(t, "#pragma omp barrier\nint x;\n")
	prog := p.ParseProgram()
	if len(c.All()) != 0 {
		t.Fatalf("diags: %v", c.All())
	}
	if len(prog.Decls) != 2 {
		t.Fatalf("got %d decls, want pragma plus declaration", len(prog.Decls))
	}
	ps, ok := prog.Decls[0].(cabs.PragmaStmt)
	if !ok {
		t.Fatalf("got %T, want PragmaStmt", prog.Decls[0])
	}
	if ps.Capture.Name != "omp" {
		t.Fatalf("capture name = %q, want omp", ps.Capture.Name)
	}
	if len(ps.Capture.Tokens) != 1 || ps.Capture.Tokens[0].Literal != "barrier" {
		t.Fatalf("capture tokens = %#v", ps.Capture.Tokens)
	}
	if ps.Stmt != nil {
		t.Fatalf("standalone directive claimed a statement: %#v", ps.Stmt)
	}
}

func TestPragmaGovernsFollowingLoop(t *testing.T) {
	items, c := parseBody(t, DialectStrict, `
#pragma omp parallel for
for (i = 0; i < n; i++)
	x++;
`)
	if len(c.All()) != 0 {
		t.Fatalf("diags: %v", c.All())
	}
	ps := items[0].(cabs.PragmaStmt)
	if _, ok := ps.Stmt.(cabs.For); !ok {
		t.Fatalf("governed statement = %T, want For", ps.Stmt)
	}
}

func TestAttrDirectiveSplice(t *testing.T) {
	items, c := parseBody(t, DialectStrict, `
[[omp::directive(parallel for)]]
for (i = 0; i < n; i++)
	x++;
y = 1;
`)
	if len(c.All()) != 0 {
		t.Fatalf("diags: %v", c.All())
	}
	if len(items) != 2 {
		t.Fatalf("got %d items, want directive plus trailing statement", len(items))
	}

	ps, ok := items[0].(cabs.PragmaStmt)
	if !ok {
		t.Fatalf("got %T, want PragmaStmt", items[0])
	}
	// The replay reconstructs the pragma form of the same directive.
	if ps.Capture.Kind != cabs.DirectiveAttrStmt {
		t.Fatalf("kind = %v, want attr-stmt", ps.Capture.Kind)
	}
	if ps.Capture.Name != "omp" {
		t.Fatalf("name = %q, want omp", ps.Capture.Name)
	}
	var words []string
	for _, tok := range ps.Capture.Tokens {
		words = append(words, tok.Literal)
	}
	if strings.Join(words, " ") != "parallel for" {
		t.Fatalf("tokens = %v, want [parallel for]", words)
	}
	if _, ok := ps.Stmt.(cabs.For); !ok {
		t.Fatalf("governed statement = %T, want For", ps.Stmt)
	}

	// Parsing resumed cleanly on the real input after the replay.
	if _, ok := items[1].(cabs.Computation); !ok {
		t.Fatalf("trailing item = %T, want Computation", items[1])
	}
}

func TestAttrDirectiveStandalone(t *testing.T) {
	items, c := parseBody(t, DialectStrict, `
[[omp::directive(barrier)]]
x = 1;
`)
	if len(c.All()) != 0 {
		t.Fatalf("diags: %v", c.All())
	}
	if len(items) != 2 {
		t.Fatalf("got %d items, want 2", len(items))
	}
	ps := items[0].(cabs.PragmaStmt)
	if ps.Stmt != nil {
		t.Fatalf("barrier directive claimed a statement: %#v", ps.Stmt)
	}
	if _, ok := items[1].(cabs.Computation); !ok {
		t.Fatalf("following item = %T, want Computation", items[1])
	}
}

func TestAttrDirectiveOnDeclaration(t *testing.T) {
	items, c := parseBody(t, DialectStrict, `
[[omp::directive(threadprivate(x))]]
int x;
`)
	if len(c.All()) != 0 {
		t.Fatalf("diags: %v", c.All())
	}
	ds, ok := items[0].(cabs.DeclStmt)
	if !ok {
		t.Fatalf("got %T, want DeclStmt", items[0])
	}
	if len(ds.Decl.Directives) != 1 {
		t.Fatalf("directives = %d, want 1", len(ds.Decl.Directives))
	}
	capture := ds.Decl.Directives[0]
	if capture.Kind != cabs.DirectiveAttrDecl || capture.Name != "omp" {
		t.Fatalf("capture = %+v", capture)
	}
}

func TestPlainBracketAttrPrefixesDeclaration(t *testing.T) {
	items, c := parseBody(t, DialectStrict, `
[[maybe_unused]] int x;
`)
	if len(c.All()) != 0 {
		t.Fatalf("diags: %v", c.All())
	}
	ds := items[0].(cabs.DeclStmt)
	if len(ds.Decl.Spec.Attrs) == 0 || ds.Decl.Spec.Attrs[0].Name != "maybe_unused" {
		t.Fatalf("spec attrs = %#v", ds.Decl.Spec.Attrs)
	}
}

func TestAtomicDirectiveMinMaxCapture(t *testing.T) {
	items, c := parseBody(t, DialectStrict, `
#pragma omp atomic
v = v > 0 ? v : -v;
w = w > 0 ? w : -w;
`)
	if len(c.All()) != 0 {
		t.Fatalf("diags: %v", c.All())
	}
	ps := items[0].(cabs.PragmaStmt)
	comp, ok := ps.Stmt.(cabs.Computation)
	if !ok {
		t.Fatalf("governed statement = %T, want Computation", ps.Stmt)
	}
	assign := comp.Expr.(cabs.Assign)
	if _, ok := assign.Right.(cabs.MinMax); !ok {
		t.Fatalf("atomic right side = %T, want MinMax", assign.Right)
	}

	// The probe is scoped to the directive's statement: the next
	// statement parses as a plain conditional.
	comp2 := items[1].(cabs.Computation)
	assign2 := comp2.Expr.(cabs.Assign)
	if _, ok := assign2.Right.(cabs.Conditional); !ok {
		t.Fatalf("later conditional = %T, want plain Conditional", assign2.Right)
	}
}

func TestCollapseFlattening(t *testing.T) {
	items, c := parseBody(t, DialectStrict, `
#pragma omp parallel for collapse(2)
for (int i = 0; i < 4; i++)
	for (int j = 0; j < 4; j++)
		s += i + j;
`)
	if len(c.All()) != 0 {
		t.Fatalf("diags: %v", c.All())
	}
	ps := items[0].(cabs.PragmaStmt)
	cl, ok := ps.Stmt.(cabs.CollapsedLoop)
	if !ok {
		t.Fatalf("governed statement = %T, want CollapsedLoop", ps.Stmt)
	}
	if cl.Depth != 2 || len(cl.Levels) != 2 {
		t.Fatalf("depth %d with %d levels, want 2/2", cl.Depth, len(cl.Levels))
	}
	for i, level := range cl.Levels {
		if level.Decl == nil {
			t.Fatalf("level %d lost its hoisted declaration", i)
		}
		if len(level.Pre) != 0 {
			t.Fatalf("level %d has intervening code: %#v", i, level.Pre)
		}
	}
	if _, ok := cl.Body.(cabs.Computation); !ok {
		t.Fatalf("innermost body = %T, want Computation", cl.Body)
	}
}

func TestCollapseFlatteningWithBraces(t *testing.T) {
	items, c := parseBody(t, DialectStrict, `
#pragma omp parallel for collapse(2)
for (int i = 0; i < 4; i++) {
	for (int j = 0; j < 4; j++) {
		s += i + j;
	}
}
done = 1;
`)
	if len(c.All()) != 0 {
		t.Fatalf("diags: %v", c.All())
	}
	ps := items[0].(cabs.PragmaStmt)
	cl := ps.Stmt.(cabs.CollapsedLoop)
	if len(cl.Levels) != 2 {
		t.Fatalf("levels = %d, want 2", len(cl.Levels))
	}
	// Parsing continues cleanly after the braced nest.
	if _, ok := items[1].(cabs.Computation); !ok {
		t.Fatalf("trailing item = %T, want Computation", items[1])
	}
}

func TestCollapseInterveningStrict(t *testing.T) {
	items, c := parseBody(t, DialectStrict, `
#pragma acc loop collapse(2)
for (int i = 0; i < n; i++) {
	s = 0;
	for (int j = 0; j < n; j++)
		s += j;
	t = s;
}
`)
	errs := c.Errors()
	if len(errs) != 1 {
		t.Fatalf("want exactly one nesting diagnostic, got %v", c.All())
	}
	if !strings.Contains(errs[0].Message, "perfectly nested") {
		t.Fatalf("unexpected diagnostic: %s", errs[0].Message)
	}
	ps := items[0].(cabs.PragmaStmt)
	if !ps.Capture.Failed {
		t.Fatal("strict violation did not mark the capture failed")
	}
}

func TestCollapseInterveningRelaxed(t *testing.T) {
	items, c := parseBody(t, DialectRelaxed, `
#pragma acc loop collapse(2)
for (int i = 0; i < n; i++) {
	s = 0;
	for (int j = 0; j < n; j++)
		s += j;
	t = s;
}
`)
	if len(c.All()) != 0 {
		t.Fatalf("relaxed dialect diagnosed: %v", c.All())
	}
	ps := items[0].(cabs.PragmaStmt)
	cl := ps.Stmt.(cabs.CollapsedLoop)
	if ps.Capture.Failed {
		t.Fatal("relaxed capture marked failed")
	}
	// The intervening statement before the inner loop is carried on
	// its level; the trailing one wraps around the body.
	if len(cl.Levels[1].Pre) != 1 {
		t.Fatalf("inner level pre = %#v, want the s = 0 statement", cl.Levels[1].Pre)
	}
	block, ok := cl.Body.(cabs.Block)
	if !ok || len(block.Items) != 2 {
		t.Fatalf("body = %#v, want block of inner body plus trailing statement", cl.Body)
	}
}

func TestCollapseClosedBlockIsInterveningRelaxed(t *testing.T) {
	items, c := parseBody(t, DialectRelaxed, `
#pragma acc loop collapse(2)
for (int i = 0; i < n; i++) {
	{
		s = 0;
	}
	for (int j = 0; j < n; j++)
		s += j;
}
`)
	if len(c.All()) != 0 {
		t.Fatalf("relaxed dialect diagnosed: %v", c.All())
	}
	ps := items[0].(cabs.PragmaStmt)
	cl, ok := ps.Stmt.(cabs.CollapsedLoop)
	if !ok {
		t.Fatalf("governed statement = %T, want CollapsedLoop", ps.Stmt)
	}
	if len(cl.Levels) != 2 {
		t.Fatalf("levels = %d, want 2", len(cl.Levels))
	}
	// The block that closed without yielding the inner loop folds back
	// into one intervening statement before that loop.
	if len(cl.Levels[1].Pre) != 1 {
		t.Fatalf("inner level pre = %#v, want one folded block", cl.Levels[1].Pre)
	}
	block, ok := cl.Levels[1].Pre[0].(cabs.Block)
	if !ok || len(block.Items) != 1 {
		t.Fatalf("intervening statement = %#v, want the braced s = 0", cl.Levels[1].Pre[0])
	}
	if _, ok := cl.Body.(cabs.Computation); !ok {
		t.Fatalf("innermost body = %T, want Computation", cl.Body)
	}
}

func TestCollapseClosedBlockIsInterveningStrict(t *testing.T) {
	items, c := parseBody(t, DialectStrict, `
#pragma acc loop collapse(2)
for (int i = 0; i < n; i++) {
	{
		s = 0;
	}
	for (int j = 0; j < n; j++)
		s += j;
}
`)
	errs := c.Errors()
	if len(errs) != 1 {
		t.Fatalf("want exactly one nesting diagnostic, got %v", c.All())
	}
	if !strings.Contains(errs[0].Message, "perfectly nested") {
		t.Fatalf("unexpected diagnostic: %s", errs[0].Message)
	}
	ps := items[0].(cabs.PragmaStmt)
	if !ps.Capture.Failed {
		t.Fatal("strict violation did not mark the capture failed")
	}
}

func TestDirectiveWordMatchesKeywordToken(t *testing.T) {
	// "for" spells a keyword token even on a directive line.
	capture := &cabs.DirectiveCapture{
		Name: "omp",
		Tokens: []lexer.Token{
			{Type: lexer.TokenIdent, Literal: "parallel"},
			{Type: lexer.TokenFor, Literal: "for"},
		},
	}
	if !directiveHasWord(capture, "for") {
		t.Fatal("keyword-spelled argument word not matched")
	}
	if !directiveGovernsLoop(capture) {
		t.Fatal("parallel for not recognized as loop-governing")
	}
	if directiveHasWord(capture, "simd") {
		t.Fatal("matched a word the directive does not carry")
	}
}

func TestAttrDirectiveStackedCaptures(t *testing.T) {
	items, c := parseBody(t, DialectStrict, `
[[acc::directive(loop), omp::directive(simd)]]
for (i = 0; i < n; i++)
	x++;
`)
	if len(c.All()) != 0 {
		t.Fatalf("diags: %v", c.All())
	}
	// Both directives replay, nested like stacked pragma lines: the one
	// written last sits closest to the loop and governs it.
	outer, ok := items[0].(cabs.PragmaStmt)
	if !ok || outer.Capture.Name != "acc" {
		t.Fatalf("outer = %#v, want acc directive", items[0])
	}
	inner, ok := outer.Stmt.(cabs.PragmaStmt)
	if !ok || inner.Capture.Name != "omp" {
		t.Fatalf("outer governs %#v, want nested omp directive", outer.Stmt)
	}
	if _, ok := inner.Stmt.(cabs.For); !ok {
		t.Fatalf("inner governs %T, want For", inner.Stmt)
	}
}

func TestCollapseMissingLoopFails(t *testing.T) {
	items, c := parseBody(t, DialectStrict, `
#pragma omp parallel for collapse(2)
for (int i = 0; i < n; i++)
	s += i;
`)
	if len(c.Errors()) == 0 {
		t.Fatal("shallow nest accepted")
	}
	ps := items[0].(cabs.PragmaStmt)
	if !ps.Capture.Failed {
		t.Fatal("failed flattening did not mark the capture")
	}
	if ps.Stmt != nil {
		t.Fatalf("failed flattening still produced %T", ps.Stmt)
	}
}

func TestLabelThenDeclarationDiagnosed(t *testing.T) {
	items, c := parseBody(t, DialectStrict, `
out:
	int x = 0;
	y = 2;
`)
	errs := c.Errors()
	if len(errs) != 1 {
		t.Fatalf("want 1 error, got %v", c.All())
	}
	if !strings.Contains(errs[0].Message, "label") {
		t.Fatalf("unexpected diagnostic: %s", errs[0].Message)
	}
	// The declaration is parsed anyway so its binding exists.
	label, ok := items[0].(cabs.Label)
	if !ok || label.Name != "out" {
		t.Fatalf("got %#v, want labeled statement", items[0])
	}
	if _, ok := label.Stmt.(cabs.DeclStmt); !ok {
		t.Fatalf("label statement = %T, want DeclStmt", label.Stmt)
	}
	// Parsing continued normally.
	if _, ok := items[1].(cabs.Computation); !ok {
		t.Fatalf("following item = %T, want Computation", items[1])
	}
}

func TestLabelChain(t *testing.T) {
	items, c := parseBody(t, DialectStrict, `
a: b:
	x = 1;
`)
	if len(c.All()) != 0 {
		t.Fatalf("diags: %v", c.All())
	}
	outer := items[0].(cabs.Label)
	inner, ok := outer.Stmt.(cabs.Label)
	if !ok || inner.Name != "b" {
		t.Fatalf("nested label = %#v", outer.Stmt)
	}
}

func TestIfElseAndLoops(t *testing.T) {
	items, c := parseBody(t, DialectStrict, `
if (a)
	x = 1;
else
	x = 2;
while (x)
	x--;
do
	x++;
while (x < 10);
for (i = 0; i < 3; i++)
	;
`)
	if len(c.All()) != 0 {
		t.Fatalf("diags: %v", c.All())
	}
	if len(items) != 4 {
		t.Fatalf("got %d items, want 4", len(items))
	}
	ifs := items[0].(cabs.If)
	if ifs.Else == nil {
		t.Fatal("else branch missing")
	}
	if _, ok := items[1].(cabs.While); !ok {
		t.Fatalf("items[1] = %T", items[1])
	}
	if _, ok := items[2].(cabs.DoWhile); !ok {
		t.Fatalf("items[2] = %T", items[2])
	}
	forStmt, ok := items[3].(cabs.For)
	if !ok {
		t.Fatalf("items[3] = %T", items[3])
	}
	if _, ok := forStmt.Body.(cabs.Null); !ok {
		t.Fatalf("for body = %T, want Null", forStmt.Body)
	}
}

func TestSwitchCaseDefault(t *testing.T) {
	items, c := parseBody(t, DialectStrict, `
switch (x) {
case 1:
	y = 1;
	break;
default:
	y = 0;
}
`)
	if len(c.All()) != 0 {
		t.Fatalf("diags: %v", c.All())
	}
	sw := items[0].(cabs.Switch)
	block := sw.Body.(cabs.Block)
	if _, ok := block.Items[0].(cabs.Case); !ok {
		t.Fatalf("first item = %T, want Case", block.Items[0])
	}
	if _, ok := block.Items[2].(cabs.Default); !ok {
		t.Fatalf("third item = %T, want Default", block.Items[2])
	}
}

func TestForInitDeclScoped(t *testing.T) {
	items, c := parseBody(t, DialectStrict, `
for (int i = 0; i < 4; i++)
	s += i;
i = 7;
`)
	if len(c.All()) != 0 {
		t.Fatalf("diags: %v", c.All())
	}
	forStmt := items[0].(cabs.For)
	if forStmt.InitDecl == nil {
		t.Fatal("loop-control declaration lost")
	}
	// After the loop, i is unbound again and reads as a plain
	// assignment target.
	if _, ok := items[1].(cabs.Computation); !ok {
		t.Fatalf("items[1] = %T, want Computation", items[1])
	}
}
