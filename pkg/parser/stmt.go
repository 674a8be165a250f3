package parser

import (
	"strconv"

	"github.com/tarn-cc/tarn-cc/pkg/cabs"
	"github.com/tarn-cc/tarn-cc/pkg/diag"
	"github.com/tarn-cc/tarn-cc/pkg/lexer"
)

// parseBlockBody parses '{' block-item* '}' without opening a scope;
// the caller decides what scope the block lives in.
func (p *Parser) parseBlockBody() *cabs.Block {
	block := &cabs.Block{}
	if !p.expect(lexer.TokenLBrace) {
		p.skipToStmtEnd()
		return block
	}
	for p.cur().Type != lexer.TokenRBrace && p.cur().Type != lexer.TokenEOF {
		stmt, ok := p.parseBlockItem()
		if !ok {
			p.skipToStmtEnd()
			continue
		}
		if stmt != nil {
			block.Items = append(block.Items, stmt)
		}
	}
	if p.cur().Type == lexer.TokenRBrace {
		p.consume()
	} else {
		p.errorf(p.cur().Pos, "expected '}', found '%s'", p.describe(p.cur()))
	}
	return block
}

// parseBlockItem parses one declaration or statement inside a block.
// A nil statement with ok == true means the item produced nothing to
// keep (e.g. a stray semicolon already reported).
func (p *Parser) parseBlockItem() (cabs.Stmt, bool) {
	switch p.cur().Type {
	case lexer.TokenPragma:
		capture := p.capturePragma()
		stmt := p.applyDirective(capture)
		return cabs.PragmaStmt{Capture: capture, Stmt: stmt}, true

	case lexer.TokenLBracket:
		if p.isBracketAttr(1) {
			return p.parseAttrPrefixed()
		}
	}

	if p.startsDeclaration() {
		decl, ok := p.parseLocalDecl()
		if !ok {
			return nil, false
		}
		return cabs.DeclStmt{Decl: decl}, true
	}
	return p.parseStmt()
}

// parseAttrPrefixed handles a [[...]] sequence opening a block item.
// Directive captures inside it are spliced back as synthetic pragmas;
// plain attributes prefix whatever declaration or statement follows.
func (p *Parser) parseAttrPrefixed() (cabs.Stmt, bool) {
	attrs, captures := p.parseBracketAttrs(cabs.DirectiveAttrStmt)

	if len(captures) > 0 {
		if p.startsDeclaration() {
			// Declaration-attached: carried on the declaration for the
			// directive layer to expand later, not spliced now.
			for _, c := range captures {
				c.Kind = cabs.DirectiveAttrDecl
			}
			p.pendingDirectives = append(p.pendingDirectives, captures...)
			decl, ok := p.parseLocalDecl()
			if !ok {
				return nil, false
			}
			return cabs.DeclStmt{Decl: decl}, true
		}
		// Several directives in one specifier behave like stacked pragma
		// lines: the last one sits closest to the statement and governs
		// it, each earlier one governs what follows it.
		replayed := make([]*cabs.DirectiveCapture, len(captures))
		for i, c := range captures {
			replayed[i] = p.spliceDirective(c)
		}
		last := len(replayed) - 1
		stmt := cabs.Stmt(cabs.PragmaStmt{
			Capture: replayed[last],
			Stmt:    p.applyDirective(replayed[last]),
		})
		for i := last - 1; i >= 0; i-- {
			stmt = cabs.PragmaStmt{Capture: replayed[i], Stmt: stmt}
		}
		return stmt, true
	}

	if p.startsDeclaration() {
		decl, ok := p.parseLocalDecl()
		if !ok {
			return nil, false
		}
		decl.Spec.Attrs = append(attrs, decl.Spec.Attrs...)
		return cabs.DeclStmt{Decl: decl}, true
	}
	return p.parseStmt()
}

// parseLocalDecl parses a declaration in statement position
func (p *Parser) parseLocalDecl() (*cabs.Declaration, bool) {
	pos := p.cur().Pos
	spec, ok := p.parseDeclSpec(specGates{storage: true})
	if !ok {
		p.errorf(pos, "expected declaration")
		return nil, false
	}
	if p.cur().Type == lexer.TokenSemicolon {
		p.consume()
		return &cabs.Declaration{Spec: spec, Pos: pos, Directives: p.takePendingDirectives()}, true
	}
	d, ok := p.parseDeclarator(false)
	if !ok {
		return nil, false
	}
	return p.finishDeclaration(spec, d, pos), true
}

// parseStmt parses one statement, consuming any label prefix first.
// A label may be followed by another label or a statement, never by a
// declaration.
func (p *Parser) parseStmt() (cabs.Stmt, bool) {
	switch p.cur().Type {
	case lexer.TokenCase:
		p.consume()
		expr, ok := p.parseCondExpr()
		if !ok {
			return nil, false
		}
		if !p.expect(lexer.TokenColon) {
			return nil, false
		}
		stmt, ok := p.parseLabeledTail()
		if !ok {
			return nil, false
		}
		return cabs.Case{Expr: expr, Stmt: stmt}, true

	case lexer.TokenDefault:
		p.consume()
		if !p.expect(lexer.TokenColon) {
			return nil, false
		}
		stmt, ok := p.parseLabeledTail()
		if !ok {
			return nil, false
		}
		return cabs.Default{Stmt: stmt}, true

	case lexer.TokenIdent:
		if p.peek(2).Type == lexer.TokenColon {
			name := p.consume().Literal
			p.consume() // ':'
			stmt, ok := p.parseLabeledTail()
			if !ok {
				return nil, false
			}
			return cabs.Label{Name: name, Stmt: stmt}, true
		}
	}
	return p.parseUnlabeledStmt()
}

// parseLabeledTail parses what follows a label, enforcing the
// label-then-declaration prohibition.
func (p *Parser) parseLabeledTail() (cabs.Stmt, bool) {
	if p.startsDeclaration() {
		// Reported directly: the declaration parses fine afterwards, so
		// the sticky recovery flag must stay clear.
		p.diags.Report(p.cur().Pos, diag.Error,
			"a label can only be followed by a statement, not a declaration")
		decl, ok := p.parseLocalDecl()
		if !ok {
			return nil, false
		}
		return cabs.DeclStmt{Decl: decl}, true
	}
	return p.parseStmt()
}

func (p *Parser) parseUnlabeledStmt() (cabs.Stmt, bool) {
	switch p.cur().Type {
	case lexer.TokenLBrace:
		p.syms.EnterScope()
		block := p.parseBlockBody()
		p.syms.LeaveScope()
		return *block, true

	case lexer.TokenSemicolon:
		p.consume()
		return cabs.Null{}, true

	case lexer.TokenIf:
		return p.parseIf()

	case lexer.TokenWhile:
		return p.parseWhile()

	case lexer.TokenDo:
		return p.parseDoWhile()

	case lexer.TokenFor:
		return p.parseFor()

	case lexer.TokenSwitch:
		return p.parseSwitch()

	case lexer.TokenReturn:
		p.consume()
		ret := cabs.Return{}
		if p.cur().Type != lexer.TokenSemicolon {
			expr, ok := p.parseExprFull()
			if !ok {
				return nil, false
			}
			ret.Expr = expr
		}
		p.expectSemi()
		return ret, true

	case lexer.TokenBreak:
		p.consume()
		p.expectSemi()
		return cabs.Break{}, true

	case lexer.TokenContinue:
		p.consume()
		p.expectSemi()
		return cabs.Continue{}, true

	case lexer.TokenGoto:
		p.consume()
		if p.cur().Type != lexer.TokenIdent {
			p.errorf(p.cur().Pos, "expected label after 'goto'")
			return nil, false
		}
		label := p.consume().Literal
		p.expectSemi()
		return cabs.Goto{Label: label}, true
	}

	expr, ok := p.parseExprFull()
	if !ok {
		return nil, false
	}
	p.expectSemi()
	return cabs.Computation{Expr: expr}, true
}

// parseControlled parses the body of a control statement in its own
// scope, then refreshes any window classifications the body's bindings
// may have invalidated.
func (p *Parser) parseControlled() (cabs.Stmt, bool) {
	p.syms.EnterScope()
	stmt, ok := p.parseStmt()
	p.syms.LeaveScope()
	p.reclassify()
	return stmt, ok
}

func (p *Parser) parseIf() (cabs.Stmt, bool) {
	p.consume() // if
	if !p.expect(lexer.TokenLParen) {
		return nil, false
	}
	cond, ok := p.parseExprFull()
	if !ok {
		p.skipUntil(lexer.TokenRParen, "expected ')' after if condition")
		return nil, false
	}
	if !p.expect(lexer.TokenRParen) {
		return nil, false
	}
	then, ok := p.parseControlled()
	if !ok {
		return nil, false
	}
	node := cabs.If{Cond: cond, Then: then}
	if p.cur().Type == lexer.TokenElse {
		p.consume()
		els, ok := p.parseControlled()
		if !ok {
			return nil, false
		}
		node.Else = els
	}
	return node, true
}

func (p *Parser) parseWhile() (cabs.Stmt, bool) {
	p.consume() // while
	if !p.expect(lexer.TokenLParen) {
		return nil, false
	}
	cond, ok := p.parseExprFull()
	if !ok {
		return nil, false
	}
	if !p.expect(lexer.TokenRParen) {
		return nil, false
	}
	body, ok := p.parseControlled()
	if !ok {
		return nil, false
	}
	return cabs.While{Cond: cond, Body: body}, true
}

func (p *Parser) parseDoWhile() (cabs.Stmt, bool) {
	p.consume() // do
	body, ok := p.parseControlled()
	if !ok {
		return nil, false
	}
	if !p.expect(lexer.TokenWhile) || !p.expect(lexer.TokenLParen) {
		return nil, false
	}
	cond, ok := p.parseExprFull()
	if !ok {
		return nil, false
	}
	if !p.expect(lexer.TokenRParen) {
		return nil, false
	}
	p.expectSemi()
	return cabs.DoWhile{Body: body, Cond: cond}, true
}

func (p *Parser) parseFor() (cabs.Stmt, bool) {
	p.consume() // for
	if !p.expect(lexer.TokenLParen) {
		return nil, false
	}
	p.syms.EnterScope()
	defer func() {
		p.syms.LeaveScope()
		p.reclassify()
	}()

	node := cabs.For{}
	switch {
	case p.cur().Type == lexer.TokenSemicolon:
		p.consume()
	case p.startsDeclaration():
		decl, ok := p.parseLocalDecl()
		if !ok {
			return nil, false
		}
		node.InitDecl = decl
	default:
		init, ok := p.parseExprFull()
		if !ok {
			return nil, false
		}
		node.Init = init
		p.expectSemi()
	}

	if p.cur().Type != lexer.TokenSemicolon {
		cond, ok := p.parseExprFull()
		if !ok {
			return nil, false
		}
		node.Cond = cond
	}
	p.expectSemi()

	if p.cur().Type != lexer.TokenRParen {
		step, ok := p.parseExprFull()
		if !ok {
			return nil, false
		}
		node.Step = step
	}
	if !p.expect(lexer.TokenRParen) {
		return nil, false
	}

	body, ok := p.parseStmt()
	if !ok {
		return nil, false
	}
	node.Body = body
	return node, true
}

func (p *Parser) parseSwitch() (cabs.Stmt, bool) {
	p.consume() // switch
	if !p.expect(lexer.TokenLParen) {
		return nil, false
	}
	expr, ok := p.parseExprFull()
	if !ok {
		return nil, false
	}
	if !p.expect(lexer.TokenRParen) {
		return nil, false
	}
	body, ok := p.parseControlled()
	if !ok {
		return nil, false
	}
	return cabs.Switch{Expr: expr, Body: body}, true
}

// capturePragma consumes a directive line into a flat token capture:
// introducer, optional name, argument tokens through end-of-directive.
// No interpretation happens here.
func (p *Parser) capturePragma() *cabs.DirectiveCapture {
	start := p.consume() // pragma marker
	p.inPragma = true
	capture := &cabs.DirectiveCapture{Kind: cabs.DirectivePragma, Pos: start.Pos}
	if p.cur().Type == lexer.TokenIdent {
		capture.Name = p.consume().Literal
	}
	for {
		switch p.cur().Type {
		case lexer.TokenEOF:
			p.inPragma = false
			return capture
		case lexer.TokenEOD:
			p.consumeEOD()
			p.inPragma = false
			return capture
		}
		capture.Tokens = append(capture.Tokens, p.consume())
	}
}

// spliceDirective replays an attribute-embedded capture as a synthetic
// pragma line: the capture is bracketed with synthetic introducer and
// terminator tokens and the buffer temporarily reads from it, so the
// pragma path runs unaware its input is a replay. The guard restores
// the real input on every exit path.
func (p *Parser) spliceDirective(capture *cabs.DirectiveCapture) *cabs.DirectiveCapture {
	tokens := make([]lexer.Token, 0, len(capture.Tokens)+2)
	tokens = append(tokens, lexer.Token{Type: lexer.TokenPragma, Literal: "#pragma", Pos: capture.Pos})
	tokens = append(tokens, capture.Tokens...)
	tokens = append(tokens, lexer.Token{Type: lexer.TokenEOD, Pos: capture.Pos})

	guard := p.pushReplay(tokens)
	defer guard.release()

	replayed := p.capturePragma()
	replayed.Kind = capture.Kind
	replayed.Pos = capture.Pos
	return replayed
}

// applyDirective parses whatever statement a captured directive
// governs. The directive's semantics stay out of scope; only the two
// syntactic obligations are handled here: collapsed-loop flattening and
// the atomic-update expression probe. Anything else is standalone.
func (p *Parser) applyDirective(capture *cabs.DirectiveCapture) cabs.Stmt {
	switch {
	case directiveHasWord(capture, "atomic"):
		p.atomicCapture = true
		stmt, ok := p.parseStmt()
		p.atomicCapture = false
		if !ok {
			capture.Failed = true
			p.skipToStmtEnd()
			return nil
		}
		return stmt

	case directiveCollapseDepth(capture) > 0 && p.cur().Type == lexer.TokenFor:
		return p.parseCollapsedLoop(capture)

	case directiveGovernsLoop(capture) && p.cur().Type == lexer.TokenFor:
		stmt, ok := p.parseStmt()
		if !ok {
			capture.Failed = true
			p.skipToStmtEnd()
			return nil
		}
		return stmt
	}
	return nil
}

// directiveHasWord reports whether the capture's name or any argument
// token spells word. Directive vocabulary overlaps C keywords ("for"
// lexes as a keyword even on a directive line), so keyword tokens match
// by literal too.
func directiveHasWord(capture *cabs.DirectiveCapture, word string) bool {
	if capture.Name == word {
		return true
	}
	for _, tok := range capture.Tokens {
		if tok.Literal != word {
			continue
		}
		if tok.Type == lexer.TokenIdent || lexer.IsKeyword(tok.Type) {
			return true
		}
	}
	return false
}

// directiveGovernsLoop reports whether the directive's arguments name a
// loop construct.
func directiveGovernsLoop(capture *cabs.DirectiveCapture) bool {
	return directiveHasWord(capture, "for") || directiveHasWord(capture, "loop") ||
		directiveHasWord(capture, "simd")
}

// directiveCollapseDepth extracts the collapse(N) clause argument, or
// zero when absent or malformed.
func directiveCollapseDepth(capture *cabs.DirectiveCapture) int {
	for i, tok := range capture.Tokens {
		if tok.Type != lexer.TokenIdent || tok.Literal != "collapse" {
			continue
		}
		if i+2 >= len(capture.Tokens) {
			return 0
		}
		if capture.Tokens[i+1].Type != lexer.TokenLParen ||
			capture.Tokens[i+2].Type != lexer.TokenInt {
			return 0
		}
		n, err := strconv.Atoi(capture.Tokens[i+2].Literal)
		if err != nil || n < 1 {
			return 0
		}
		return n
	}
	return 0
}

// collapseState is the auxiliary record for one collapsed-loop-nest
// flattening. It is separate from the main parser state so a nested
// directive cannot corrupt an outer flattening in progress.
type collapseState struct {
	target int // required nesting depth from collapse(N)
	depth  int // levels entered so far
	levels []cabs.LoopLevel

	// violationReported caps perfect-nesting diagnostics at one per
	// directive even when the violation recurs at several depths.
	violationReported bool
}

// parseCollapsedLoop flattens N syntactically nested for-loops into one
// construct. Loop-control declarations from every level are committed
// into a single scope enclosing the whole construct, in declaration
// order, so the flattened representation sees them at one level.
func (p *Parser) parseCollapsedLoop(capture *cabs.DirectiveCapture) cabs.Stmt {
	cs := &collapseState{target: directiveCollapseDepth(capture)}
	saved := p.collapse
	p.collapse = cs
	defer func() { p.collapse = saved }()

	p.syms.EnterScope()
	body, ok := p.collapseLevel(cs, capture)
	p.syms.LeaveScope()
	p.reclassify()

	if !ok {
		capture.Failed = true
		return nil
	}
	return cabs.CollapsedLoop{
		Directive: capture,
		Depth:     cs.target,
		Levels:    cs.levels,
		Body:      body,
	}
}

// collapseLevel finds and consumes the loop required at the current
// depth, then recurses for the next one. Statements encountered before
// the loop are intervening code: carried through in the relaxed
// dialect, diagnosed in the strict one. Returns the innermost body.
func (p *Parser) collapseLevel(cs *collapseState, capture *cabs.DirectiveCapture) (cabs.Stmt, bool) {
	var pre []cabs.Stmt
	openBraces := 0

	// braceMarks records len(pre) at each open brace so a block that
	// closes without yielding the loop can be refolded into one
	// intervening statement.
	var braceMarks []int

	closeBraces := func(trailing *[]cabs.Stmt) bool {
		for openBraces > 0 {
			for p.cur().Type != lexer.TokenRBrace {
				if p.cur().Type == lexer.TokenEOF {
					return false
				}
				p.collapseViolation(cs, capture, p.cur().Pos)
				stmt, ok := p.parseBlockItem()
				if !ok {
					p.skipToStmtEnd()
					continue
				}
				if stmt != nil {
					*trailing = append(*trailing, stmt)
				}
			}
			p.consume()
			openBraces--
		}
		return true
	}

	for {
		switch p.cur().Type {
		case lexer.TokenFor:
			if len(pre) > 0 {
				p.collapseViolation(cs, capture, p.cur().Pos)
			}
			level, ok := p.parseCollapseHeader()
			if !ok {
				return nil, false
			}
			level.Pre = pre
			cs.levels = append(cs.levels, level)
			cs.depth++

			var body cabs.Stmt
			if cs.depth == cs.target {
				body, ok = p.parseStmt()
			} else {
				body, ok = p.collapseLevel(cs, capture)
			}
			if !ok {
				return nil, false
			}

			var trailing []cabs.Stmt
			if !closeBraces(&trailing) {
				p.errorf(p.cur().Pos, "unexpected end of input in collapsed loop nest")
				return nil, false
			}
			if len(trailing) > 0 {
				body = cabs.Block{Items: append([]cabs.Stmt{body}, trailing...)}
			}
			return body, true

		case lexer.TokenLBrace:
			p.consume()
			openBraces++
			braceMarks = append(braceMarks, len(pre))

		case lexer.TokenRBrace:
			if openBraces == 0 {
				p.errorf(p.cur().Pos, "expected %d nested for loops, found %d",
					cs.target, cs.depth)
				return nil, false
			}
			// The block closed without the required loop: the whole block
			// is intervening code, and the search continues at this depth
			// with the next sibling statement.
			p.consume()
			openBraces--
			mark := braceMarks[len(braceMarks)-1]
			braceMarks = braceMarks[:len(braceMarks)-1]
			folded := cabs.Block{Items: append([]cabs.Stmt(nil), pre[mark:]...)}
			pre = append(pre[:mark], folded)

		case lexer.TokenEOF:
			p.errorf(p.cur().Pos, "expected %d nested for loops, found %d",
				cs.target, cs.depth)
			return nil, false

		default:
			if openBraces == 0 {
				p.errorf(p.cur().Pos, "expected 'for' after collapse directive, found '%s'",
					p.describe(p.cur()))
				return nil, false
			}
			stmt, ok := p.parseBlockItem()
			if !ok {
				p.skipToStmtEnd()
				continue
			}
			if stmt != nil {
				pre = append(pre, stmt)
			}
		}
	}
}

// collapseViolation diagnoses intervening code inside a nest that the
// strict dialect requires to be perfectly nested, at most once per
// directive.
func (p *Parser) collapseViolation(cs *collapseState, capture *cabs.DirectiveCapture, pos lexer.Position) {
	if p.dialect != DialectStrict || cs.violationReported {
		return
	}
	cs.violationReported = true
	p.diags.Report(pos, diag.Error, "loop nest is not perfectly nested")
	capture.Failed = true
}

// parseCollapseHeader parses one for-loop header of a collapsed nest.
// Unlike an ordinary for, no per-loop scope is opened: the init
// declaration's bindings are hoisted into the construct scope the
// caller established.
func (p *Parser) parseCollapseHeader() (cabs.LoopLevel, bool) {
	level := cabs.LoopLevel{}
	p.consume() // for
	if !p.expect(lexer.TokenLParen) {
		return level, false
	}

	switch {
	case p.cur().Type == lexer.TokenSemicolon:
		p.consume()
	case p.startsDeclaration():
		decl, ok := p.parseLocalDecl()
		if !ok {
			return level, false
		}
		level.Decl = decl
	default:
		init, ok := p.parseExprFull()
		if !ok {
			return level, false
		}
		level.Init = init
		p.expectSemi()
	}

	if p.cur().Type != lexer.TokenSemicolon {
		cond, ok := p.parseExprFull()
		if !ok {
			return level, false
		}
		level.Cond = cond
	}
	p.expectSemi()

	if p.cur().Type != lexer.TokenRParen {
		step, ok := p.parseExprFull()
		if !ok {
			return level, false
		}
		level.Step = step
	}
	if !p.expect(lexer.TokenRParen) {
		return level, false
	}
	return level, true
}

// parseBracketAttrs consumes one [[...]] specifier, separating plain
// attributes from directive captures spelled through the
// namespace::directive(...) form.
func (p *Parser) parseBracketAttrs(kind cabs.DirectiveKind) ([]cabs.Attribute, []*cabs.DirectiveCapture) {
	pos := p.cur().Pos
	p.consume() // '['
	p.consume() // '['

	var attrs []cabs.Attribute
	var captures []*cabs.DirectiveCapture

	for p.cur().Type != lexer.TokenRBracket && p.cur().Type != lexer.TokenEOF {
		tok := p.cur()
		if tok.Type != lexer.TokenIdent && !lexer.IsKeyword(tok.Type) {
			p.errorf(tok.Pos, "expected attribute name, found '%s'", p.describe(tok))
			p.skipToCloseBracketPair()
			return attrs, captures
		}
		name := p.consume().Literal

		if p.cur().Type == lexer.TokenScope {
			p.consume()
			if p.cur().Type != lexer.TokenIdent {
				p.errorf(p.cur().Pos, "expected name after '::'")
				p.skipToCloseBracketPair()
				return attrs, captures
			}
			member := p.consume().Literal
			if member == "directive" && p.cur().Type == lexer.TokenLParen {
				args := p.captureParenArgs()
				intro := lexer.Token{Type: lexer.TokenIdent, Literal: name, Pos: pos}
				captures = append(captures, &cabs.DirectiveCapture{
					Kind:   kind,
					Name:   name,
					Tokens: append([]lexer.Token{intro}, args...),
					Pos:    pos,
				})
			} else {
				attr := cabs.Attribute{Name: name + "::" + member, Bracketed: true}
				if p.cur().Type == lexer.TokenLParen {
					attr.Args = p.captureParenArgs()
				}
				attrs = append(attrs, attr)
			}
		} else {
			attr := cabs.Attribute{Name: name, Bracketed: true}
			if p.cur().Type == lexer.TokenLParen {
				attr.Args = p.captureParenArgs()
			}
			attrs = append(attrs, attr)
		}

		if p.cur().Type != lexer.TokenComma {
			break
		}
		p.consume()
	}

	if !p.expect(lexer.TokenRBracket) || !p.expect(lexer.TokenRBracket) {
		p.skipToCloseBracketPair()
	}
	return attrs, captures
}

// skipToCloseBracketPair recovers past a malformed [[...]] region
func (p *Parser) skipToCloseBracketPair() {
	p.skipUntil(lexer.TokenRBracket, "malformed attribute specifier")
	if p.cur().Type == lexer.TokenRBracket {
		p.consume()
	}
}
