package parser

import (
	"github.com/tarn-cc/tarn-cc/pkg/cabs"
	"github.com/tarn-cc/tarn-cc/pkg/lexer"
	"github.com/tarn-cc/tarn-cc/pkg/symtab"
)

// specGates tells parseDeclSpec which specifier categories the caller's
// context permits. The same loop serves top-level declarations,
// parameter declarations, and type names.
type specGates struct {
	storage bool // storage-class specifiers allowed

	// typeNames is the classification policy for an unknown identifier in
	// type-specifier position. Declarations leave it at preferIdent;
	// type-requiring contexts pass preferType through parseTypeName.
	typeNames lookaheadPolicy
}

// declMode selects how the declarator core resolves
type declMode int

const (
	declNamed    declMode = iota // an identifier core is required
	declAbstract                 // no identifier core (type names)
	declParam                    // identifier core optional (parameters)
)

// parseDeclSpec consumes one declaration-specifier sequence. Bracketed
// [[...]] attributes are legal only before the first specifier and
// after the last one, never in the middle; GNU __attribute__ may appear
// anywhere. Returns ok == false when nothing specifier-like was found.
func (p *Parser) parseDeclSpec(g specGates) (cabs.DeclSpec, bool) {
	var spec cabs.DeclSpec
	seen := false
	seenType := false

	if p.cur().Type == lexer.TokenLBracket && p.isBracketAttr(1) {
		attrs, captures := p.parseBracketAttrs(cabs.DirectiveAttrDecl)
		spec.Attrs = append(spec.Attrs, attrs...)
		p.pendingDirectives = append(p.pendingDirectives, captures...)
		seen = len(attrs) > 0 || len(captures) > 0
	}

	for {
		tok := p.cur()
		switch tok.Type {
		case lexer.TokenTypedef, lexer.TokenExtern, lexer.TokenStatic,
			lexer.TokenAuto, lexer.TokenRegister:
			if !g.storage && tok.Type != lexer.TokenRegister {
				p.errorf(tok.Pos, "storage class '%s' not allowed here", tok.Type)
			}
			if spec.Storage != cabs.StorageNone {
				p.errorf(tok.Pos, "multiple storage classes")
			}
			spec.Storage = storageOf(tok.Type)
			p.consume()

		case lexer.TokenInline:
			spec.Inline = true
			p.consume()

		case lexer.TokenConst, lexer.TokenVolatile, lexer.TokenRestrict,
			lexer.TokenAtomic:
			spec.Qualifiers = append(spec.Qualifiers, tok.Type.String())
			p.consume()

		case lexer.TokenAlignas:
			p.consume()
			spec.Align = p.parseAlignas()

		case lexer.TokenAttribute:
			spec.Attrs = append(spec.Attrs, p.parseGNUAttrs()...)

		case lexer.TokenVoid, lexer.TokenChar_, lexer.TokenShort, lexer.TokenInt_,
			lexer.TokenLong, lexer.TokenFloat_, lexer.TokenDouble,
			lexer.TokenSigned, lexer.TokenUnsigned, lexer.TokenBool,
			lexer.TokenComplex:
			spec.TypeWords = append(spec.TypeWords, tok.Type.String())
			seenType = true
			p.consume()

		case lexer.TokenStruct, lexer.TokenUnion, lexer.TokenEnum:
			p.parseTagSpec(&spec)
			seenType = true

		case lexer.TokenTypeof:
			spec.TypeWords = append(spec.TypeWords, p.parseTypeof())
			seenType = true

		case lexer.TokenIdent:
			if tok.ClassKnown && tok.Class == lexer.ClassAddrSpace {
				spec.Qualifiers = append(spec.Qualifiers, tok.Literal)
				p.consume()
				break
			}
			// A second type-name identifier after a type has been seen
			// starts the declarator, never a second type specifier.
			if seenType || !p.isTypeNameToken(tok, g.typeNames) {
				return p.finishDeclSpec(spec, seen)
			}
			spec.TypeWords = append(spec.TypeWords, tok.Literal)
			seenType = true
			p.consume()

		default:
			return p.finishDeclSpec(spec, seen)
		}
		seen = true
	}
}

// finishDeclSpec applies trailing bracket attributes and reports
// whether any specifier was consumed.
func (p *Parser) finishDeclSpec(spec cabs.DeclSpec, seen bool) (cabs.DeclSpec, bool) {
	if seen && p.cur().Type == lexer.TokenLBracket && p.isBracketAttr(1) {
		attrs, captures := p.parseBracketAttrs(cabs.DirectiveAttrDecl)
		spec.Attrs = append(spec.Attrs, attrs...)
		p.pendingDirectives = append(p.pendingDirectives, captures...)
	}
	return spec, seen
}

func storageOf(t lexer.TokenType) cabs.StorageClass {
	switch t {
	case lexer.TokenTypedef:
		return cabs.StorageTypedef
	case lexer.TokenExtern:
		return cabs.StorageExtern
	case lexer.TokenStatic:
		return cabs.StorageStatic
	case lexer.TokenAuto:
		return cabs.StorageAuto
	case lexer.TokenRegister:
		return cabs.StorageRegister
	}
	return cabs.StorageNone
}

// parseAlignas parses the parenthesized _Alignas argument, which is
// either a type name or a constant expression.
func (p *Parser) parseAlignas() cabs.Expr {
	if !p.expect(lexer.TokenLParen) {
		return nil
	}
	var align cabs.Expr
	if p.startsTypeName(1, preferType) {
		tn := p.parseTypeName(preferType)
		align = cabs.AlignofType{Type: tn}
	} else {
		e, ok := p.parseCondExpr()
		if !ok {
			p.skipToParamEnd()
			p.skipUntil(lexer.TokenRParen, "expected ')' after _Alignas")
			return nil
		}
		align = e
	}
	p.skipUntil(lexer.TokenRParen, "expected ')' after _Alignas")
	return align
}

// parseTagSpec consumes a struct/union/enum specifier. Member layout is
// the semantic layer's business; the parser records the tag words,
// binds the tag, and for enums binds each enumerator as an ordinary
// name so later classification sees it.
func (p *Parser) parseTagSpec(spec *cabs.DeclSpec) {
	kw := p.consume()
	spec.TypeWords = append(spec.TypeWords, kw.Type.String())

	if p.cur().Type == lexer.TokenAttribute {
		spec.Attrs = append(spec.Attrs, p.parseGNUAttrs()...)
	}

	named := false
	if p.cur().Type == lexer.TokenIdent {
		name := p.consume()
		spec.TypeWords = append(spec.TypeWords, name.Literal)
		p.syms.Declare(name.Literal, symtab.Tag)
		named = true
	}

	if p.cur().Type != lexer.TokenLBrace {
		if !named {
			p.errorf(p.cur().Pos, "expected tag name or '{' after '%s'", kw.Type)
		}
		return
	}
	p.consume()
	if kw.Type == lexer.TokenEnum {
		p.parseEnumBody()
	} else {
		p.parseMemberList()
	}
}

// parseEnumBody binds enumerators until the closing brace
func (p *Parser) parseEnumBody() {
	for p.cur().Type != lexer.TokenRBrace && p.cur().Type != lexer.TokenEOF {
		if p.cur().Type != lexer.TokenIdent {
			p.errorf(p.cur().Pos, "expected enumerator name")
			p.skipToCloseBrace()
			break
		}
		name := p.consume()
		p.syms.Declare(name.Literal, symtab.Ordinary)
		if p.cur().Type == lexer.TokenAssign {
			p.consume()
			if _, ok := p.parseCondExpr(); !ok {
				p.skipToParamEnd()
			}
		}
		if p.cur().Type != lexer.TokenComma {
			break
		}
		p.consume()
	}
	p.skipUntil(lexer.TokenRBrace, "expected '}' after enumerators")
}

// parseMemberList consumes struct/union member declarations. Members do
// not enter any scope the classifier consults, so the declarations are
// parsed for well-formedness and dropped.
func (p *Parser) parseMemberList() {
	for p.cur().Type != lexer.TokenRBrace && p.cur().Type != lexer.TokenEOF {
		spec, ok := p.parseDeclSpec(specGates{typeNames: requireDecl})
		if !ok {
			p.errorf(p.cur().Pos, "expected member declaration")
			p.skipToStmtEnd()
			continue
		}
		_ = spec
		for {
			if p.cur().Type != lexer.TokenColon {
				if _, ok := p.parseDeclaratorMode(declParam); !ok {
					p.skipToStmtEnd()
					break
				}
			}
			if p.cur().Type == lexer.TokenColon {
				p.consume()
				if _, ok := p.parseCondExpr(); !ok {
					p.skipToStmtEnd()
					break
				}
			}
			if p.cur().Type != lexer.TokenComma {
				p.expectSemi()
				break
			}
			p.consume()
		}
	}
	p.skipUntil(lexer.TokenRBrace, "expected '}' after members")
}

// parseTypeof consumes typeof(...) and renders it back to a single
// specifier word.
func (p *Parser) parseTypeof() string {
	p.consume()
	if !p.expect(lexer.TokenLParen) {
		return "typeof(int)"
	}
	var inner string
	if p.startsTypeName(1, preferType) {
		inner = cabs.TypeNameString(p.parseTypeName(preferType))
	} else if e, ok := p.parseExprFull(); ok {
		inner = cabs.ExprString(e)
	}
	p.skipUntil(lexer.TokenRParen, "expected ')' after typeof")
	return "typeof(" + inner + ")"
}

// parseTypeName parses specifiers plus an abstract declarator. The
// policy decides how an unknown leading identifier reads; callers whose
// syntax requires a type pass preferType.
func (p *Parser) parseTypeName(policy lookaheadPolicy) *cabs.TypeName {
	spec, _ := p.parseDeclSpec(specGates{typeNames: policy})
	decl, _ := p.parseDeclaratorMode(declAbstract)
	return &cabs.TypeName{Spec: spec, Decl: decl}
}

// parseDeclarator parses one declarator; abstract selects the type-name
// form with no identifier core.
func (p *Parser) parseDeclarator(abstract bool) (cabs.Declarator, bool) {
	mode := declNamed
	if abstract {
		mode = declAbstract
	}
	return p.parseDeclaratorMode(mode)
}

// parseDeclaratorMode handles the pointer prefix, then the direct
// declarator with its suffixes. The tree is built leaf-out: the
// identifier core first, wrapped by array/function suffixes, wrapped by
// the pointer last, so folding inside-out recovers source meaning.
func (p *Parser) parseDeclaratorMode(mode declMode) (cabs.Declarator, bool) {
	if p.cur().Type == lexer.TokenStar {
		p.consume()
		quals := p.parsePointerQuals()
		inner, ok := p.parseDeclaratorMode(mode)
		if !ok {
			return nil, false
		}
		return cabs.PointerDeclarator{Quals: quals, Inner: inner}, true
	}
	return p.parseDirectDeclarator(mode)
}

func (p *Parser) parsePointerQuals() []string {
	var quals []string
	for {
		tok := p.cur()
		switch tok.Type {
		case lexer.TokenConst, lexer.TokenVolatile, lexer.TokenRestrict,
			lexer.TokenAtomic:
			quals = append(quals, tok.Type.String())
			p.consume()
		case lexer.TokenIdent:
			if tok.ClassKnown && tok.Class == lexer.ClassAddrSpace {
				quals = append(quals, tok.Literal)
				p.consume()
				continue
			}
			return quals
		default:
			return quals
		}
	}
}

// parseDirectDeclarator distinguishes the three direct-declarator
// shapes: bare identifier, parenthesized sub-declarator, and an
// immediate parameter list around an absent core.
func (p *Parser) parseDirectDeclarator(mode declMode) (cabs.Declarator, bool) {
	var attrs []cabs.Attribute
	if p.cur().Type == lexer.TokenAttribute {
		attrs = p.parseGNUAttrs()
	}

	var core cabs.Declarator
	switch p.cur().Type {
	case lexer.TokenIdent:
		if mode == declAbstract {
			core = cabs.IdentDeclarator{}
		} else {
			core = cabs.IdentDeclarator{Name: p.consume().Literal}
		}

	case lexer.TokenLParen:
		if p.parenStartsParams() {
			// Parameter list applied directly to an absent core, e.g.
			// the abstract declarator in sizeof(int (*)(void)).
			core = cabs.IdentDeclarator{}
		} else {
			p.consume()
			inner, ok := p.parseDeclaratorMode(mode)
			if !ok {
				return nil, false
			}
			if !p.expect(lexer.TokenRParen) {
				p.skipToParamEnd()
				if p.cur().Type == lexer.TokenRParen {
					p.consume()
				}
			}
			core = inner
		}

	default:
		if mode == declNamed {
			p.errorf(p.cur().Pos, "expected declarator, found '%s'", p.describe(p.cur()))
			return nil, false
		}
		core = cabs.IdentDeclarator{}
	}

	d, ok := p.parseDeclSuffixes(core)
	if !ok {
		return nil, false
	}
	if len(attrs) > 0 {
		d = cabs.AttrDeclarator{Inner: d, Attrs: attrs}
	}
	return d, true
}

// parenStartsParams decides whether a '(' at the current position opens
// a parameter list rather than a grouped sub-declarator: it does when
// what follows (past any attribute list) is ')' or starts a type.
func (p *Parser) parenStartsParams() bool {
	at := 2
	if p.peekRaw(at).Type == lexer.TokenAttribute {
		if end, ok := p.scanBalanced(at + 1); ok {
			at = end
		}
	}
	if at <= lookaheadCap {
		tok := p.peek(at)
		if tok.Type == lexer.TokenRParen {
			return true
		}
		return p.startsTypeName(at, preferIdent)
	}
	tok := p.peekRaw(at)
	if tok.Type == lexer.TokenRParen {
		return true
	}
	return startsTypeNameRaw(tok)
}

// startsTypeNameRaw is the classification-free approximation used when
// the decision point lies beyond the regular window.
func startsTypeNameRaw(tok lexer.Token) bool {
	switch tok.Type {
	case lexer.TokenVoid, lexer.TokenChar_, lexer.TokenShort, lexer.TokenInt_,
		lexer.TokenLong, lexer.TokenFloat_, lexer.TokenDouble, lexer.TokenSigned,
		lexer.TokenUnsigned, lexer.TokenBool, lexer.TokenComplex,
		lexer.TokenStruct, lexer.TokenUnion, lexer.TokenEnum,
		lexer.TokenConst, lexer.TokenVolatile, lexer.TokenRestrict,
		lexer.TokenAtomic, lexer.TokenTypeof:
		return true
	}
	return false
}

// parseDeclSuffixes accumulates array and function wrappers around the
// core, innermost suffix first.
func (p *Parser) parseDeclSuffixes(core cabs.Declarator) (cabs.Declarator, bool) {
	d := core
	for {
		switch p.cur().Type {
		case lexer.TokenLBracket:
			arr, ok := p.parseArraySuffix(d)
			if !ok {
				return nil, false
			}
			d = arr

		case lexer.TokenLParen:
			fn, ok := p.parseFuncSuffix(d)
			if !ok {
				return nil, false
			}
			d = fn

		case lexer.TokenAttribute:
			d = cabs.AttrDeclarator{Inner: d, Attrs: p.parseGNUAttrs()}

		default:
			return d, true
		}
	}
}

func (p *Parser) parseArraySuffix(inner cabs.Declarator) (cabs.Declarator, bool) {
	p.consume() // '['
	arr := cabs.ArrayDeclarator{Inner: inner}
	if p.cur().Type == lexer.TokenStatic {
		arr.Static = true
		p.consume()
	}
	for {
		tok := p.cur()
		if tok.Type == lexer.TokenConst || tok.Type == lexer.TokenVolatile ||
			tok.Type == lexer.TokenRestrict {
			arr.Quals = append(arr.Quals, tok.Type.String())
			p.consume()
			continue
		}
		break
	}
	switch p.cur().Type {
	case lexer.TokenRBracket:
	case lexer.TokenStar:
		if p.peek(2).Type == lexer.TokenRBracket {
			arr.VLA = true
			p.consume()
			break
		}
		fallthrough
	default:
		size, ok := p.parseAssignExpr()
		if !ok {
			p.skipToParamEnd()
			if p.cur().Type == lexer.TokenRBracket {
				p.consume()
			}
			return arr, true
		}
		arr.Size = size
	}
	if !p.expect(lexer.TokenRBracket) {
		p.skipUntil(lexer.TokenRBracket, "expected ']'")
	}
	return arr, true
}

// parseFuncSuffix parses a parameter list. Old-style identifier lists
// are selected by lookahead: the next token must be a plain (non-type)
// identifier, and the check repeats after every identifier so a typo
// that names a type is caught rather than swallowed.
func (p *Parser) parseFuncSuffix(inner cabs.Declarator) (cabs.Declarator, bool) {
	p.consume() // '('
	fn := cabs.FuncDeclarator{Inner: inner}

	if p.cur().Type == lexer.TokenRParen {
		p.consume()
		fn.Unspecified = true
		return fn, true
	}

	if p.oldStyleAhead() {
		for {
			tok := p.cur()
			if tok.Type != lexer.TokenIdent ||
				(tok.ClassKnown && tok.Class == lexer.ClassTypeName) {
				p.errorf(tok.Pos, "expected parameter name, found '%s'", p.describe(tok))
				p.skipToParamEnd()
			} else {
				fn.OldStyle = append(fn.OldStyle, p.consume().Literal)
			}
			if p.cur().Type != lexer.TokenComma {
				break
			}
			p.consume()
		}
		if len(fn.OldStyle) == 0 {
			fn.Unspecified = true
		}
		if !p.expect(lexer.TokenRParen) {
			p.skipUntil(lexer.TokenRParen, "expected ')'")
		}
		return fn, true
	}

	for {
		if p.cur().Type == lexer.TokenEllipsis {
			fn.Variadic = true
			p.consume()
			break
		}
		param, ok := p.parseParamDecl()
		if !ok {
			p.skipToParamEnd()
		} else {
			fn.Params = append(fn.Params, param)
		}
		if p.cur().Type != lexer.TokenComma {
			break
		}
		p.consume()
	}
	if !p.expect(lexer.TokenRParen) {
		p.skipUntil(lexer.TokenRParen, "expected ')'")
	}
	return fn, true
}

// oldStyleAhead reports whether the parameter position starts an
// old-style identifier list: a plain identifier not followed by
// anything that starts a type.
func (p *Parser) oldStyleAhead() bool {
	tok := p.cur()
	if tok.Type != lexer.TokenIdent || (tok.ClassKnown && tok.Class == lexer.ClassTypeName) {
		return false
	}
	switch p.peek(2).Type {
	case lexer.TokenComma, lexer.TokenRParen:
		return true
	}
	return false
}

// parseParamDecl parses one parameter declaration. The position demands
// a declaration, so an unknown leading name reads as its type; the
// misspelled-typedef case surfaces from the semantic layer instead of
// derailing the parameter list.
func (p *Parser) parseParamDecl() (cabs.ParamDecl, bool) {
	spec, ok := p.parseDeclSpec(specGates{typeNames: requireDecl})
	if !ok {
		p.errorf(p.cur().Pos, "expected parameter declaration")
		return cabs.ParamDecl{}, false
	}
	decl, ok := p.parseDeclaratorMode(declParam)
	if !ok {
		return cabs.ParamDecl{}, false
	}
	return cabs.ParamDecl{Spec: spec, Decl: decl}, true
}

// parseGNUAttrs consumes one __attribute__((...)) specifier into a
// flat attribute list, argument tokens kept raw.
func (p *Parser) parseGNUAttrs() []cabs.Attribute {
	p.consume() // __attribute__
	if !p.expect(lexer.TokenLParen) || !p.expect(lexer.TokenLParen) {
		p.skipToParamEnd()
		return nil
	}
	var attrs []cabs.Attribute
	for p.cur().Type != lexer.TokenRParen && p.cur().Type != lexer.TokenEOF {
		tok := p.cur()
		if tok.Type != lexer.TokenIdent && !lexer.IsKeyword(tok.Type) {
			p.errorf(tok.Pos, "expected attribute name")
			p.skipToParamEnd()
			break
		}
		attr := cabs.Attribute{Name: tok.Literal}
		p.consume()
		if p.cur().Type == lexer.TokenLParen {
			attr.Args = p.captureParenArgs()
		}
		attrs = append(attrs, attr)
		if p.cur().Type != lexer.TokenComma {
			break
		}
		p.consume()
	}
	p.skipUntil(lexer.TokenRParen, "expected ')' after attributes")
	p.skipUntil(lexer.TokenRParen, "expected '))' after attributes")
	return attrs
}

// captureParenArgs consumes a balanced parenthesized region, returning
// the tokens strictly inside the outer parens.
func (p *Parser) captureParenArgs() []lexer.Token {
	end, ok := p.scanBalanced(1)
	if !ok {
		p.errorf(p.cur().Pos, "unbalanced attribute arguments")
		p.skipToParamEnd()
		return nil
	}
	p.consume() // '('
	var args []lexer.Token
	for i := 2; i < end-1; i++ {
		args = append(args, p.consume())
	}
	p.consume() // ')'
	return args
}

// parseInitializer parses an initializer: an assignment expression or a
// braced (possibly designated) list.
func (p *Parser) parseInitializer() (cabs.Initializer, bool) {
	if p.cur().Type != lexer.TokenLBrace {
		e, ok := p.parseAssignExpr()
		if !ok {
			return nil, false
		}
		return cabs.InitExpr{Expr: e}, true
	}
	return p.parseInitList()
}

func (p *Parser) parseInitList() (cabs.Initializer, bool) {
	p.consume() // '{'
	var list cabs.InitList
	for p.cur().Type != lexer.TokenRBrace && p.cur().Type != lexer.TokenEOF {
		var item cabs.InitItem
		for {
			if p.cur().Type == lexer.TokenDot {
				p.consume()
				if p.cur().Type != lexer.TokenIdent {
					p.errorf(p.cur().Pos, "expected field name after '.'")
					p.skipToParamEnd()
					break
				}
				item.Designators = append(item.Designators,
					cabs.Designator{Field: p.consume().Literal})
				continue
			}
			if p.cur().Type == lexer.TokenLBracket {
				p.consume()
				idx, ok := p.parseCondExpr()
				if !ok {
					p.skipUntil(lexer.TokenRBracket, "expected ']' in designator")
					break
				}
				p.skipUntil(lexer.TokenRBracket, "expected ']' in designator")
				item.Designators = append(item.Designators, cabs.Designator{Index: idx})
				continue
			}
			break
		}
		if len(item.Designators) > 0 {
			if !p.expect(lexer.TokenAssign) {
				p.skipToParamEnd()
			}
		}
		ini, ok := p.parseInitializer()
		if !ok {
			p.skipToParamEnd()
		} else {
			item.Init = ini
			list.Items = append(list.Items, item)
		}
		if p.cur().Type != lexer.TokenComma {
			break
		}
		p.consume()
	}
	if !p.expect(lexer.TokenRBrace) {
		p.skipUntil(lexer.TokenRBrace, "expected '}'")
		return list, true
	}
	return list, true
}
