// Package parser implements the recursive-descent C parser: bounded
// regular lookahead with an unbounded raw scanning queue, token
// classification with symbol-table feedback, nesting-aware error
// recovery, and directive capture with splice/replay.
package parser

import (
	"fmt"

	"github.com/tarn-cc/tarn-cc/pkg/cabs"
	"github.com/tarn-cc/tarn-cc/pkg/diag"
	"github.com/tarn-cc/tarn-cc/pkg/lexer"
	"github.com/tarn-cc/tarn-cc/pkg/sema"
	"github.com/tarn-cc/tarn-cc/pkg/symtab"
)

// Dialect selects how strictly directive constructs are checked
type Dialect int

const (
	DialectStrict  Dialect = iota // intervening code in loop nests is an error
	DialectRelaxed                // intervening code is carried through
)

// Parser holds the state of one translation-unit parse. One instance
// per unit; never shared.
type Parser struct {
	src   TokenSource
	diags diag.Reporter
	syms  *symtab.Table
	sema  *sema.Committer

	buf    [lookaheadCap]lexer.Token
	bufLen int
	raw    []lexer.Token

	// errSticky suppresses repeat syntax diagnostics until a recovery
	// skip succeeds.
	errSticky bool

	// inPragma means end-of-directive must stop skips instead of being
	// crossed.
	inPragma bool

	// suppressDepth counts enclosing statically-not-evaluated contexts
	// (the untaken arm of && and ||); diagnostics about side effects are
	// muted while it is nonzero.
	suppressDepth int

	// atomicCapture asks the conditional reducer to probe for
	// min/max-shaped expressions while an atomic-update directive's
	// statement is being parsed.
	atomicCapture bool

	// collapse, when non-nil, is the auxiliary state of an in-progress
	// collapsed-loop-nest flattening.
	collapse *collapseState

	// pendingDirectives are declaration-attached attribute captures
	// waiting for their declaration node.
	pendingDirectives []*cabs.DirectiveCapture

	// params names the current function definition's parameters; the
	// sizeof-division warning consults it for its decay suppression.
	params map[string]bool

	// opStackPeak is the high-water mark of the binary-operator frame
	// stack across the whole parse; it can never exceed the number of
	// distinct precedence levels.
	opStackPeak int

	dialect Dialect
}

// New creates a Parser reading from src, reporting into diags
func New(src TokenSource, diags diag.Reporter) *Parser {
	syms := symtab.New()
	return &Parser{
		src:   src,
		diags: diags,
		syms:  syms,
		sema:  sema.NewCommitter(syms, diags),
	}
}

// SetDialect selects strict or relaxed directive checking
func (p *Parser) SetDialect(d Dialect) {
	p.dialect = d
}

// Symbols exposes the binding table, mainly for tests that pre-bind
// names before parsing a fragment.
func (p *Parser) Symbols() *symtab.Table {
	return p.syms
}

// errorf reports a syntax error unless one is already pending for the
// current construct, and sets the sticky flag either way.
func (p *Parser) errorf(pos lexer.Position, format string, args ...interface{}) {
	if !p.errSticky {
		p.diags.Report(pos, diag.Error, fmt.Sprintf(format, args...))
	}
	p.errSticky = true
}

// warnf reports a warning. Warnings are never suppressed by the sticky
// flag, only by suppressed-evaluation contexts.
func (p *Parser) warnf(pos lexer.Position, format string, args ...interface{}) {
	if p.suppressDepth > 0 {
		return
	}
	p.diags.Report(pos, diag.Warning, fmt.Sprintf(format, args...))
}

// expect consumes a token of the wanted type or reports and recovers.
// Returns false when the token was absent.
func (p *Parser) expect(want lexer.TokenType) bool {
	if p.cur().Type == want {
		p.consume()
		return true
	}
	p.errorf(p.cur().Pos, "expected '%s', found '%s'", want, p.describe(p.cur()))
	return false
}

func (p *Parser) describe(tok lexer.Token) string {
	switch tok.Type {
	case lexer.TokenEOF:
		return "end of input"
	case lexer.TokenEOD:
		return "end of directive"
	case lexer.TokenIdent, lexer.TokenInt, lexer.TokenFloat,
		lexer.TokenChar, lexer.TokenString:
		return tok.Literal
	}
	return tok.Type.String()
}

// ParseProgram parses a whole translation unit. It never gives up
// before end of input; failed constructs are skipped past.
func (p *Parser) ParseProgram() *cabs.Program {
	prog := &cabs.Program{}
	for p.cur().Type != lexer.TokenEOF {
		decl := p.parseExternalDecl()
		if decl != nil {
			prog.Decls = append(prog.Decls, decl)
		}
	}
	return prog
}

// parseExternalDecl parses one top-level construct: a directive, a
// function definition, or a declaration.
func (p *Parser) parseExternalDecl() cabs.ExternalDecl {
	switch p.cur().Type {
	case lexer.TokenPragma:
		capture := p.capturePragma()
		stmt := p.applyDirective(capture)
		return cabs.PragmaStmt{Capture: capture, Stmt: stmt}
	case lexer.TokenSemicolon:
		p.consume()
		return nil
	}

	pos := p.cur().Pos
	spec, ok := p.parseDeclSpec(specGates{storage: true})
	if !ok {
		p.errorf(pos, "expected declaration, found '%s'", p.describe(p.cur()))
		p.skipToStmtEnd()
		return nil
	}

	if p.cur().Type == lexer.TokenSemicolon {
		// tag declaration or stray specifiers
		p.consume()
		return &cabs.Declaration{Spec: spec, Pos: pos, Directives: p.takePendingDirectives()}
	}

	decl, ok := p.parseDeclarator(false)
	if !ok {
		p.skipToStmtEnd()
		return nil
	}

	if fn, ok := coreFunc(decl); ok && len(fn.OldStyle) > 0 && p.startsDeclaration() {
		return p.parseOldStyleFunDef(spec, decl, pos)
	}
	if p.cur().Type == lexer.TokenLBrace {
		return p.parseFunDef(spec, decl, pos)
	}
	return p.finishDeclaration(spec, decl, pos)
}

// parseOldStyleFunDef handles the K&R form: parameter-type declarations
// between the declarator and the body. The declarations are parsed
// inside the function scope so the body sees the parameter types.
func (p *Parser) parseOldStyleFunDef(spec cabs.DeclSpec, decl cabs.Declarator, pos lexer.Position) *cabs.FunDef {
	p.sema.Commit(spec, decl, pos)

	p.syms.EnterScope()
	savedParams := p.params
	p.params = make(map[string]bool)
	p.bindParams(decl)
	for p.startsDeclaration() {
		if _, ok := p.parseLocalDecl(); !ok {
			p.skipToStmtEnd()
		}
	}
	body := p.parseBlockBody()
	p.params = savedParams
	p.syms.LeaveScope()

	return &cabs.FunDef{Spec: spec, Decl: decl, Body: body, Pos: pos}
}

// parseFunDef parses a function body after its declarator. Parameter
// names are bound inside the function scope.
func (p *Parser) parseFunDef(spec cabs.DeclSpec, decl cabs.Declarator, pos lexer.Position) *cabs.FunDef {
	p.sema.Commit(spec, decl, pos)

	p.syms.EnterScope()
	savedParams := p.params
	p.params = make(map[string]bool)
	p.bindParams(decl)
	body := p.parseBlockBody()
	p.params = savedParams
	p.syms.LeaveScope()

	return &cabs.FunDef{Spec: spec, Decl: decl, Body: body, Pos: pos}
}

// bindParams declares the parameter names of the innermost function
// wrapper in the current scope.
func (p *Parser) bindParams(d cabs.Declarator) {
	fn, ok := coreFunc(d)
	if !ok {
		return
	}
	for _, name := range fn.OldStyle {
		p.syms.Declare(name, symtab.Ordinary)
		p.params[name] = true
	}
	for _, param := range fn.Params {
		p.sema.Commit(param.Spec, param.Decl, lexer.Position{})
		if name := cabs.DeclaratorName(param.Decl); name != "" {
			p.params[name] = true
		}
	}
}

// coreFunc finds the function wrapper closest to the core name, the one
// whose parameters belong to a definition's body.
func coreFunc(d cabs.Declarator) (cabs.FuncDeclarator, bool) {
	var found cabs.FuncDeclarator
	ok := false
	for d != nil {
		switch dd := d.(type) {
		case cabs.FuncDeclarator:
			found, ok = dd, true
			d = dd.Inner
		case cabs.PointerDeclarator:
			d = dd.Inner
		case cabs.ArrayDeclarator:
			d = dd.Inner
		case cabs.AttrDeclarator:
			d = dd.Inner
		default:
			return found, ok
		}
	}
	return found, ok
}

// finishDeclaration parses the rest of an init-declarator list after
// its first declarator, committing each name as it completes so later
// declarators and initializers see the binding.
func (p *Parser) finishDeclaration(spec cabs.DeclSpec, first cabs.Declarator, pos lexer.Position) *cabs.Declaration {
	decl := &cabs.Declaration{Spec: spec, Pos: pos, Directives: p.takePendingDirectives()}

	d := first
	for {
		var attrs []cabs.Attribute
		if p.cur().Type == lexer.TokenAttribute {
			attrs = p.parseGNUAttrs()
		}
		init := cabs.InitDeclarator{Decl: d, Attrs: attrs}
		p.sema.Commit(spec, d, pos)
		if p.cur().Type == lexer.TokenAssign {
			p.consume()
			ini, ok := p.parseInitializer()
			if !ok {
				p.skipToStmtEnd()
				decl.Inits = append(decl.Inits, init)
				return decl
			}
			init.Init = ini
		}
		decl.Inits = append(decl.Inits, init)

		if p.cur().Type != lexer.TokenComma {
			break
		}
		p.consume()
		var ok bool
		d, ok = p.parseDeclarator(false)
		if !ok {
			p.skipToStmtEnd()
			return decl
		}
	}

	p.expectSemi()
	return decl
}

// takePendingDirectives hands over declaration-attached captures
func (p *Parser) takePendingDirectives() []*cabs.DirectiveCapture {
	d := p.pendingDirectives
	p.pendingDirectives = nil
	return d
}

// expectSemi consumes a terminating semicolon or recovers to one
func (p *Parser) expectSemi() {
	if p.cur().Type == lexer.TokenSemicolon {
		p.consume()
		return
	}
	p.errorf(p.cur().Pos, "expected ';', found '%s'", p.describe(p.cur()))
	p.skipToStmtEnd()
}
