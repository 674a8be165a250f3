package parser

import (
	"github.com/tarn-cc/tarn-cc/pkg/lexer"
)

// lookaheadCap is the size of the regular lookahead window. Every
// committed parsing decision needs at most this many tokens; anything
// beyond goes through the raw queue.
const lookaheadCap = 4

// TokenSource produces tokens. *lexer.Lexer implements it, and the
// directive replay machinery substitutes its own source.
type TokenSource interface {
	NextToken() lexer.Token
}

// sliceSource replays a captured token sequence, then reports EOF
type sliceSource struct {
	tokens []lexer.Token
	next   int
}

func (s *sliceSource) NextToken() lexer.Token {
	if s.next >= len(s.tokens) {
		return lexer.Token{Type: lexer.TokenEOF}
	}
	tok := s.tokens[s.next]
	s.next++
	return tok
}

// fill extends the regular window to hold at least n tokens, promoting
// raw-queue entries before asking the source for fresh ones. Tokens are
// classified as they enter the regular window.
func (p *Parser) fill(n int) {
	if n > lookaheadCap {
		panic("parser: lookahead past window capacity")
	}
	for p.bufLen < n {
		var tok lexer.Token
		if len(p.raw) > 0 {
			tok = p.raw[0]
			p.raw = p.raw[1:]
		} else {
			tok = p.src.NextToken()
		}
		p.refine(&tok)
		p.buf[p.bufLen] = tok
		p.bufLen++
	}
}

// peek returns the nth (1-based) not-yet-consumed token
func (p *Parser) peek(n int) lexer.Token {
	p.fill(n)
	return p.buf[n-1]
}

// cur returns the first not-yet-consumed token
func (p *Parser) cur() lexer.Token {
	return p.peek(1)
}

// peekRaw returns the nth (1-based) not-yet-consumed token without
// classifying it or disturbing the regular window. Positions inside the
// regular window are answered from it; positions beyond are fetched
// into the raw queue.
func (p *Parser) peekRaw(n int) lexer.Token {
	if n <= p.bufLen {
		return p.buf[n-1]
	}
	need := n - p.bufLen
	for len(p.raw) < need {
		p.raw = append(p.raw, p.src.NextToken())
	}
	return p.raw[need-1]
}

// consume discards the first buffered token. Consuming end markers
// without acknowledgment is an internal error, not an input error.
func (p *Parser) consume() lexer.Token {
	tok := p.peek(1)
	switch tok.Type {
	case lexer.TokenEOF:
		panic("parser: consuming EOF")
	case lexer.TokenEOD:
		panic("parser: consuming end-of-directive without acknowledgment")
	}
	p.drop()
	return tok
}

// consumeEOD acknowledges and discards an end-of-directive token
func (p *Parser) consumeEOD() {
	tok := p.peek(1)
	if tok.Type != lexer.TokenEOD {
		panic("parser: consumeEOD on " + tok.Type.String())
	}
	p.drop()
}

func (p *Parser) drop() {
	if p.bufLen == 0 {
		panic("parser: consuming from empty buffer")
	}
	copy(p.buf[:], p.buf[1:p.bufLen])
	p.bufLen--
}

// occupancy reports how many fetched-but-unconsumed tokens exist across
// both views; the splice/restore tests check it returns to its
// pre-capture value.
func (p *Parser) occupancy() int {
	return p.bufLen + len(p.raw)
}

// bufState is a saved snapshot of the token buffer and its source
type bufState struct {
	buf    [lookaheadCap]lexer.Token
	bufLen int
	raw    []lexer.Token
	src    TokenSource
}

// replayGuard redirects the parser to read from a synthetic token
// sequence and restores the real input when released. Release is
// idempotent so error paths can defer it unconditionally.
type replayGuard struct {
	p        *Parser
	saved    bufState
	released bool
}

// pushReplay installs tokens as the parser's input. The caller is
// expected to have bracketed the sequence with its synthetic introducer
// and terminator tokens.
func (p *Parser) pushReplay(tokens []lexer.Token) *replayGuard {
	g := &replayGuard{
		p: p,
		saved: bufState{
			buf:    p.buf,
			bufLen: p.bufLen,
			raw:    p.raw,
			src:    p.src,
		},
	}
	p.buf = [lookaheadCap]lexer.Token{}
	p.bufLen = 0
	p.raw = nil
	p.src = &sliceSource{tokens: tokens}
	return g
}

// release restores the saved buffer state exactly once
func (g *replayGuard) release() {
	if g.released {
		return
	}
	g.released = true
	g.p.buf = g.saved.buf
	g.p.bufLen = g.saved.bufLen
	g.p.raw = g.saved.raw
	g.p.src = g.saved.src
}
