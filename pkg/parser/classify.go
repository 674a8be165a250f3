package parser

import (
	"github.com/tarn-cc/tarn-cc/pkg/lexer"
	"github.com/tarn-cc/tarn-cc/pkg/symtab"
)

// lookaheadPolicy controls how classification resolves a name with no
// visible binding. Known bindings are authoritative in every mode.
type lookaheadPolicy int

const (
	// preferIdent treats an unknown name as an ordinary identifier
	// (expression contexts).
	preferIdent lookaheadPolicy = iota
	// preferType treats an unknown name as a type name (contexts that
	// syntactically require a type, e.g. inside a cast).
	preferType
	// requireDecl treats the position as demanding a declared name, not
	// an abstract type (parameter-like forward declarations).
	requireDecl
)

// refine attaches a classification to a name token entering the regular
// window. Classification never fails: a name that denotes nothing
// recognizable is a plain identifier until a caller decides otherwise.
func (p *Parser) refine(tok *lexer.Token) {
	if tok.Type != lexer.TokenIdent {
		return
	}
	tok.Class, tok.ClassKnown = p.classify(tok.Literal)
	tok.ClassVersion = p.syms.Version()
}

func (p *Parser) classify(name string) (lexer.IdentClass, bool) {
	kind, ok := p.syms.Lookup(name)
	if !ok {
		// Tags live in their own namespace; a name bound only as a tag
		// is still a known name, just never a type on its own.
		if _, tagged := p.syms.LookupTag(name); tagged {
			return lexer.ClassTagName, true
		}
		return lexer.ClassIdent, false
	}
	switch kind {
	case symtab.Typedef:
		return lexer.ClassTypeName, true
	case symtab.AddrSpace:
		return lexer.ClassAddrSpace, true
	}
	return lexer.ClassIdent, true
}

// reclassify refreshes stale classifications in the regular window.
// Used when control flow re-enters a scope whose bindings may have
// changed since the tokens were first classified, classically after an
// unbraced if body without an else.
func (p *Parser) reclassify() {
	version := p.syms.Version()
	for i := 0; i < p.bufLen; i++ {
		if p.buf[i].Type != lexer.TokenIdent || p.buf[i].ClassVersion == version {
			continue
		}
		p.refine(&p.buf[i])
	}
}

// isTypeNameToken reports whether tok names a type under the policy.
// An unknown name reads as a type under both type-requiring policies: a
// cast operand must be a type, and a parameter declaration must start
// with one.
func (p *Parser) isTypeNameToken(tok lexer.Token, policy lookaheadPolicy) bool {
	if tok.Type != lexer.TokenIdent {
		return false
	}
	if tok.ClassKnown {
		return tok.Class == lexer.ClassTypeName
	}
	return policy == preferType || policy == requireDecl
}

// startsTypeName reports whether the token at position n can begin a
// type, consulting classification for names.
func (p *Parser) startsTypeName(n int, policy lookaheadPolicy) bool {
	tok := p.peek(n)
	switch tok.Type {
	case lexer.TokenVoid, lexer.TokenChar_, lexer.TokenShort, lexer.TokenInt_,
		lexer.TokenLong, lexer.TokenFloat_, lexer.TokenDouble, lexer.TokenSigned,
		lexer.TokenUnsigned, lexer.TokenBool, lexer.TokenComplex,
		lexer.TokenStruct, lexer.TokenUnion, lexer.TokenEnum,
		lexer.TokenConst, lexer.TokenVolatile, lexer.TokenRestrict,
		lexer.TokenAtomic, lexer.TokenTypeof:
		return true
	case lexer.TokenIdent:
		if tok.ClassKnown && tok.Class == lexer.ClassAddrSpace {
			return true
		}
		return p.isTypeNameToken(tok, policy)
	}
	return false
}

// startsDeclaration reports whether the current position begins a
// declaration in statement context. A type-name-classified identifier
// counts only when what follows could continue a declaration, so that
// an expression mentioning a shadowed name is not misread.
func (p *Parser) startsDeclaration() bool {
	tok := p.peek(1)
	switch tok.Type {
	case lexer.TokenTypedef, lexer.TokenExtern, lexer.TokenStatic,
		lexer.TokenAuto, lexer.TokenRegister, lexer.TokenInline,
		lexer.TokenAlignas:
		return true
	case lexer.TokenIdent:
		if !tok.ClassKnown || tok.Class != lexer.ClassTypeName {
			return false
		}
		switch p.peek(2).Type {
		case lexer.TokenIdent, lexer.TokenStar, lexer.TokenSemicolon,
			lexer.TokenLParen, lexer.TokenConst, lexer.TokenVolatile,
			lexer.TokenRestrict:
			return true
		}
		return false
	}
	return p.startsTypeName(1, preferIdent)
}
