package parser

import (
	"github.com/tarn-cc/tarn-cc/pkg/lexer"
)

// The recovery skippers consume tokens while tracking nesting depth,
// stopping at a target seen at depth zero. End of input, and end of
// directive when parsing inside one, stop every skip without being
// consumed. A successful skip clears the sticky error flag: the next
// construct starts with a clean slate.

// skipUntil consumes through the next depth-zero occurrence of want.
// If the very next token already matches, it is consumed silently;
// otherwise msg is reported (subject to the sticky flag) first.
func (p *Parser) skipUntil(want lexer.TokenType, msg string) bool {
	if p.cur().Type == want {
		p.consume()
		return true
	}
	p.errorf(p.cur().Pos, "%s", msg)
	depth := 0
	for {
		tok := p.cur()
		switch tok.Type {
		case lexer.TokenEOF:
			return false
		case lexer.TokenEOD:
			if p.inPragma {
				return false
			}
			p.consumeEOD()
			continue
		case lexer.TokenPragma:
			p.skipEmbeddedDirective()
			continue
		case lexer.TokenLParen, lexer.TokenLBracket, lexer.TokenLBrace:
			depth++
		case lexer.TokenRParen, lexer.TokenRBracket, lexer.TokenRBrace:
			if depth > 0 {
				depth--
			}
		}
		if depth == 0 && tok.Type == want {
			p.consume()
			p.errSticky = false
			return true
		}
		p.consume()
	}
}

// skipToStmtEnd recovers past a failed statement or declaration:
// consume through a depth-zero semicolon or closing brace.
func (p *Parser) skipToStmtEnd() bool {
	depth := 0
	for {
		tok := p.cur()
		switch tok.Type {
		case lexer.TokenEOF:
			return false
		case lexer.TokenEOD:
			if p.inPragma {
				return false
			}
			p.consumeEOD()
			continue
		case lexer.TokenPragma:
			p.skipEmbeddedDirective()
			continue
		case lexer.TokenLParen, lexer.TokenLBracket, lexer.TokenLBrace:
			depth++
		case lexer.TokenRParen, lexer.TokenRBracket:
			if depth > 0 {
				depth--
			}
		case lexer.TokenRBrace:
			if depth == 0 {
				p.consume()
				p.errSticky = false
				return true
			}
			depth--
		case lexer.TokenSemicolon:
			if depth == 0 {
				p.consume()
				p.errSticky = false
				return true
			}
		}
		p.consume()
	}
}

// skipToParamEnd recovers past a failed parameter: stop at a
// depth-zero comma or closing paren WITHOUT consuming it, leaving the
// caller to decide whether the list continues.
func (p *Parser) skipToParamEnd() bool {
	depth := 0
	for {
		tok := p.cur()
		switch tok.Type {
		case lexer.TokenEOF:
			return false
		case lexer.TokenEOD:
			if p.inPragma {
				return false
			}
			p.consumeEOD()
			continue
		case lexer.TokenPragma:
			p.skipEmbeddedDirective()
			continue
		case lexer.TokenLParen, lexer.TokenLBracket, lexer.TokenLBrace:
			depth++
		case lexer.TokenRParen:
			if depth == 0 {
				p.errSticky = false
				return true
			}
			depth--
		case lexer.TokenRBracket, lexer.TokenRBrace:
			if depth > 0 {
				depth--
			}
		case lexer.TokenComma:
			if depth == 0 {
				p.errSticky = false
				return true
			}
		}
		p.consume()
	}
}

// skipToCloseBrace stops before a depth-zero closing brace without
// consuming it, bounding a search without ending the block.
func (p *Parser) skipToCloseBrace() bool {
	depth := 0
	for {
		tok := p.cur()
		switch tok.Type {
		case lexer.TokenEOF:
			return false
		case lexer.TokenEOD:
			if p.inPragma {
				return false
			}
			p.consumeEOD()
			continue
		case lexer.TokenPragma:
			p.skipEmbeddedDirective()
			continue
		case lexer.TokenLParen, lexer.TokenLBracket, lexer.TokenLBrace:
			depth++
		case lexer.TokenRParen, lexer.TokenRBracket:
			if depth > 0 {
				depth--
			}
		case lexer.TokenRBrace:
			if depth == 0 {
				p.errSticky = false
				return true
			}
			depth--
		}
		p.consume()
	}
}

// skipEmbeddedDirective consumes a whole directive line found mid-skip
// as one unit, introducer through its end-of-directive, so the
// directive's internal punctuation never perturbs the nesting count.
func (p *Parser) skipEmbeddedDirective() {
	p.consume() // the pragma marker
	for {
		switch p.cur().Type {
		case lexer.TokenEOF:
			return
		case lexer.TokenEOD:
			p.consumeEOD()
			return
		}
		p.consume()
	}
}
