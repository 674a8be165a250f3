package parser

import (
	"github.com/tarn-cc/tarn-cc/pkg/lexer"
)

// scanBalanced scans forward from the 1-based raw position start,
// which must sit on an opening paren, bracket, or brace, and returns
// the position just past the token that closes it. It reads only
// through peekRaw: nothing is consumed, classified, or committed, so a
// speculative scan can simply be discarded.
//
// Failure (unmatched closer, end of input, or end of directive while
// inside one) returns ok == false.
func (p *Parser) scanBalanced(start int) (end int, ok bool) {
	switch p.peekRaw(start).Type {
	case lexer.TokenLParen, lexer.TokenLBracket, lexer.TokenLBrace:
	default:
		return 0, false
	}
	depth := 0
	for i := start; ; i++ {
		tok := p.peekRaw(i)
		switch tok.Type {
		case lexer.TokenEOF:
			return 0, false
		case lexer.TokenEOD:
			if p.inPragma {
				return 0, false
			}
		case lexer.TokenLParen, lexer.TokenLBracket, lexer.TokenLBrace:
			depth++
		case lexer.TokenRParen, lexer.TokenRBracket, lexer.TokenRBrace:
			depth--
			if depth < 0 {
				return 0, false
			}
			if depth == 0 {
				return i + 1, true
			}
		}
	}
}

// isBracketAttr reports whether the raw position start begins a genuine
// [[...]] attribute specifier, as opposed to a nested index expression
// like a[b[0]]. The test is that the region starting at the first '['
// balances and its last two tokens are ']' ']'.
func (p *Parser) isBracketAttr(start int) bool {
	if p.peekRaw(start).Type != lexer.TokenLBracket ||
		p.peekRaw(start+1).Type != lexer.TokenLBracket {
		return false
	}
	end, ok := p.scanBalanced(start)
	if !ok || end < start+4 {
		return false
	}
	return p.peekRaw(end - 2).Type == lexer.TokenRBracket
}

// skipBalanced consumes a balanced region the scanner has already
// validated, from the current position through its closer.
func (p *Parser) skipBalanced() bool {
	end, ok := p.scanBalanced(1)
	if !ok {
		return false
	}
	for i := 1; i < end; i++ {
		p.consume()
	}
	return true
}
