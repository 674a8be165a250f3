package parser

import (
	"strconv"
	"strings"

	"github.com/tarn-cc/tarn-cc/pkg/cabs"
	"github.com/tarn-cc/tarn-cc/pkg/lexer"
)

// binPrec maps a binary operator token to its precedence level; higher
// binds tighter. Zero means "not a binary operator".
func binPrec(t lexer.TokenType) (int, cabs.BinaryOp) {
	switch t {
	case lexer.TokenOr:
		return 1, cabs.OpOr
	case lexer.TokenAnd:
		return 2, cabs.OpAnd
	case lexer.TokenPipe:
		return 3, cabs.OpBitOr
	case lexer.TokenCaret:
		return 4, cabs.OpBitXor
	case lexer.TokenAmpersand:
		return 5, cabs.OpBitAnd
	case lexer.TokenEq:
		return 6, cabs.OpEq
	case lexer.TokenNe:
		return 6, cabs.OpNe
	case lexer.TokenLt:
		return 7, cabs.OpLt
	case lexer.TokenLe:
		return 7, cabs.OpLe
	case lexer.TokenGt:
		return 7, cabs.OpGt
	case lexer.TokenGe:
		return 7, cabs.OpGe
	case lexer.TokenShl:
		return 8, cabs.OpShl
	case lexer.TokenShr:
		return 8, cabs.OpShr
	case lexer.TokenPlus:
		return 9, cabs.OpAdd
	case lexer.TokenMinus:
		return 9, cabs.OpSub
	case lexer.TokenStar:
		return 10, cabs.OpMul
	case lexer.TokenSlash:
		return 10, cabs.OpDiv
	case lexer.TokenPercent:
		return 10, cabs.OpMod
	}
	return 0, 0
}

// numPrecLevels bounds the operator stack: frames carry strictly
// increasing precedence, so the stack can never outgrow the number of
// distinct levels plus one in flight.
const numPrecLevels = 10

// opFrame is one suspended left operand on the operator stack
type opFrame struct {
	expr cabs.Expr
	prec int
	op   cabs.BinaryOp
	pos  lexer.Position

	// sizeofOperand tags operands spelled as sizeof(...), read by the
	// division warning heuristic at reduction time.
	sizeofOperand bool

	// suppress is non-nil when this frame's operator statically decides
	// the result and the right operand is therefore not evaluated.
	suppress *suppressGuard
}

// suppressGuard scopes the suppressed-evaluation counter so error paths
// cannot leak an increment.
type suppressGuard struct {
	p        *Parser
	released bool
}

func (p *Parser) pushSuppress() *suppressGuard {
	p.suppressDepth++
	return &suppressGuard{p: p}
}

func (g *suppressGuard) release() {
	if g == nil || g.released {
		return
	}
	g.released = true
	g.p.suppressDepth--
}

// parseBinaryExpr climbs binary-operator precedence with an explicit
// frame stack instead of one recursive call per operator: a
// left-associative chain reduces in place, and the reduction step can
// inspect both operands for the narrow semantic probes.
func (p *Parser) parseBinaryExpr() (cabs.Expr, bool) {
	var stack [numPrecLevels + 1]opFrame
	sp := 0

	fail := func() (cabs.Expr, bool) {
		for sp > 0 {
			sp--
			stack[sp].suppress.release()
		}
		return nil, false
	}

	current, ok := p.parseCastExpr()
	if !ok {
		return fail()
	}

	for {
		tok := p.cur()
		prec, op := binPrec(tok.Type)
		if prec == 0 {
			break
		}

		// Reduce every frame that binds at least as tightly: C binary
		// operators are all left-associative.
		for sp > 0 && stack[sp-1].prec >= prec {
			sp--
			current = p.reduce(stack[sp], current)
		}

		frame := opFrame{
			expr:          current,
			prec:          prec,
			op:            op,
			pos:           tok.Pos,
			sizeofOperand: isSizeofSpelling(current),
		}
		p.consume()
		if shortCircuitDecided(op, current) {
			frame.suppress = p.pushSuppress()
		}
		stack[sp] = frame
		sp++
		if sp > p.opStackPeak {
			p.opStackPeak = sp
		}

		current, ok = p.parseCastExpr()
		if !ok {
			return fail()
		}
	}

	for sp > 0 {
		sp--
		current = p.reduce(stack[sp], current)
	}
	return current, true
}

// reduce combines a suspended frame with the finished right operand,
// applying the reduction-step heuristics before building the node.
func (p *Parser) reduce(f opFrame, right cabs.Expr) cabs.Expr {
	f.suppress.release()
	if f.op == cabs.OpDiv && f.sizeofOperand && isSizeofSpelling(right) {
		p.checkSizeofDiv(f.expr, right, f.pos)
	}
	return cabs.Binary{Op: f.op, Left: f.expr, Right: right}
}

// shortCircuitDecided reports whether a short-circuit operator's left
// operand statically decides the outcome, making the right operand
// unevaluated.
func shortCircuitDecided(op cabs.BinaryOp, left cabs.Expr) bool {
	c, ok := stripParens(left).(cabs.Constant)
	if !ok {
		return false
	}
	switch op {
	case cabs.OpAnd:
		return c.Value == 0
	case cabs.OpOr:
		return c.Value != 0
	}
	return false
}

func stripParens(e cabs.Expr) cabs.Expr {
	for {
		paren, ok := e.(cabs.Paren)
		if !ok {
			return e
		}
		e = paren.Expr
	}
}

// isSizeofSpelling reports whether an operand was written as a
// sizeof-family expression, possibly parenthesized.
func isSizeofSpelling(e cabs.Expr) bool {
	switch stripParens(e).(type) {
	case cabs.SizeofExpr, cabs.SizeofType:
		return true
	}
	return false
}

// checkSizeofDiv fires the pointer/element size-mismatch warning for
// sizeof(a) / sizeof(b) where the two renderings name different bases.
// Suppressed when the dividend takes the size of a bare identifier
// bound as a function parameter: array parameters decay to pointers,
// and that case is a known-noisy false positive.
func (p *Parser) checkSizeofDiv(left, right cabs.Expr, pos lexer.Position) {
	lb := sizeofBase(left)
	rb := sizeofBase(right)
	if lb == "" || rb == "" || lb == rb {
		return
	}
	if name, ok := sizeofBareVar(left); ok && p.params[name] {
		return
	}
	p.warnf(pos, "division of sizeof(%s) by sizeof(%s) may not compute an element count", lb, rb)
}

func sizeofBase(e cabs.Expr) string {
	switch s := stripParens(e).(type) {
	case cabs.SizeofType:
		return cabs.TypeNameString(s.Type)
	case cabs.SizeofExpr:
		return cabs.ExprString(stripParens(s.Expr))
	}
	return ""
}

func sizeofBareVar(e cabs.Expr) (string, bool) {
	s, ok := stripParens(e).(cabs.SizeofExpr)
	if !ok {
		return "", false
	}
	v, ok := stripParens(s.Expr).(cabs.Variable)
	if !ok {
		return "", false
	}
	return v.Name, true
}

// parseExprFull parses a full expression including the comma operator
func (p *Parser) parseExprFull() (cabs.Expr, bool) {
	first, ok := p.parseAssignExpr()
	if !ok {
		return nil, false
	}
	if p.cur().Type != lexer.TokenComma {
		return first, true
	}
	comma := cabs.Comma{Exprs: []cabs.Expr{first}}
	for p.cur().Type == lexer.TokenComma {
		p.consume()
		next, ok := p.parseAssignExpr()
		if !ok {
			return nil, false
		}
		comma.Exprs = append(comma.Exprs, next)
	}
	return comma, true
}

// parseAssignExpr parses an assignment expression. The grammar's
// unary-expression restriction on the left side is deferred to the
// semantic layer; syntactically any conditional expression may appear.
func (p *Parser) parseAssignExpr() (cabs.Expr, bool) {
	left, ok := p.parseCondExpr()
	if !ok {
		return nil, false
	}
	op, isAssign := assignOpOf(p.cur().Type)
	if !isAssign {
		return left, true
	}
	p.consume()
	right, ok := p.parseAssignExpr()
	if !ok {
		return nil, false
	}
	return cabs.Assign{Op: op, Left: left, Right: right}, true
}

func assignOpOf(t lexer.TokenType) (cabs.AssignOp, bool) {
	switch t {
	case lexer.TokenAssign:
		return cabs.AssignSimple, true
	case lexer.TokenPlusAssign:
		return cabs.AssignAdd, true
	case lexer.TokenMinusAssign:
		return cabs.AssignSub, true
	case lexer.TokenStarAssign:
		return cabs.AssignMul, true
	case lexer.TokenSlashAssign:
		return cabs.AssignDiv, true
	case lexer.TokenPercentAssign:
		return cabs.AssignMod, true
	case lexer.TokenAndAssign:
		return cabs.AssignAnd, true
	case lexer.TokenOrAssign:
		return cabs.AssignOr, true
	case lexer.TokenXorAssign:
		return cabs.AssignXor, true
	case lexer.TokenShlAssign:
		return cabs.AssignShl, true
	case lexer.TokenShrAssign:
		return cabs.AssignShr, true
	}
	return 0, false
}

// parseCondExpr parses a conditional expression, running the
// atomic-update min/max probe on the finished node when that capture
// mode is active.
func (p *Parser) parseCondExpr() (cabs.Expr, bool) {
	cond, ok := p.parseBinaryExpr()
	if !ok {
		return nil, false
	}
	if p.cur().Type != lexer.TokenQuestion {
		return cond, true
	}
	p.consume()
	then, ok := p.parseExprFull()
	if !ok {
		return nil, false
	}
	if !p.expect(lexer.TokenColon) {
		return nil, false
	}
	els, ok := p.parseCondExpr()
	if !ok {
		return nil, false
	}
	if p.atomicCapture {
		if mm, ok := probeMinMax(cond, then, els); ok {
			return mm, true
		}
	}
	return cabs.Conditional{Cond: cond, Then: then, Else: els}, true
}

// probeMinMax recognizes the conditional shape "v REL const ? v : -v"
// (in either branch order) and produces the specialized min/max node.
// Anything short of an exact structural match falls back to the
// generic conditional.
func probeMinMax(cond, then, els cabs.Expr) (cabs.Expr, bool) {
	cmp, ok := stripParens(cond).(cabs.Binary)
	if !ok {
		return nil, false
	}
	switch cmp.Op {
	case cabs.OpLt, cabs.OpLe, cabs.OpGt, cabs.OpGe:
	default:
		return nil, false
	}
	v, ok := stripParens(cmp.Left).(cabs.Variable)
	if !ok {
		return nil, false
	}
	threshold, ok := stripParens(cmp.Right).(cabs.Constant)
	if !ok {
		return nil, false
	}

	plainThen := sameVar(then, v)
	plainElse := sameVar(els, v)
	negThen := negatedVar(then, v)
	negElse := negatedVar(els, v)
	if !(plainThen && negElse) && !(negThen && plainElse) {
		return nil, false
	}

	greater := cmp.Op == cabs.OpGt || cmp.Op == cabs.OpGe
	isMax := greater == plainThen
	return cabs.MinMax{IsMax: isMax, Arg: v, Threshold: threshold}, true
}

func sameVar(e cabs.Expr, v cabs.Variable) bool {
	other, ok := stripParens(e).(cabs.Variable)
	return ok && other.Name == v.Name
}

func negatedVar(e cabs.Expr, v cabs.Variable) bool {
	u, ok := stripParens(e).(cabs.Unary)
	if !ok || u.Op != cabs.OpNeg {
		return false
	}
	return sameVar(u.Expr, v)
}

// parseCastExpr resolves the cast-vs-parenthesized-expression
// ambiguity: a '(' followed by something classified as starting a type
// is a cast, unless the matching ')' is immediately followed by '{', in
// which case it is a compound literal.
func (p *Parser) parseCastExpr() (cabs.Expr, bool) {
	if p.cur().Type == lexer.TokenLParen && p.startsTypeName(2, preferIdent) {
		end, balanced := p.scanBalanced(1)
		if balanced && p.peekRaw(end).Type == lexer.TokenLBrace {
			return p.parseCompoundLiteral()
		}
		p.consume()
		tn := p.parseTypeName(preferIdent)
		if !p.expect(lexer.TokenRParen) {
			return nil, false
		}
		operand, ok := p.parseCastExpr()
		if !ok {
			return nil, false
		}
		return cabs.Cast{Type: tn, Expr: operand}, true
	}
	return p.parseUnaryExpr()
}

// parseCompoundLiteral parses (type-name){...} and resumes at the
// postfix layer, since a compound literal is a primary expression that
// can take ., [], etc. suffixes.
func (p *Parser) parseCompoundLiteral() (cabs.Expr, bool) {
	p.consume() // '('
	tn := p.parseTypeName(preferIdent)
	if !p.expect(lexer.TokenRParen) {
		return nil, false
	}
	ini, ok := p.parseInitList()
	if !ok {
		return nil, false
	}
	list, _ := ini.(cabs.InitList)
	return p.parsePostfixSuffixes(cabs.CompoundLiteral{Type: tn, Init: list})
}

func (p *Parser) parseUnaryExpr() (cabs.Expr, bool) {
	tok := p.cur()
	switch tok.Type {
	case lexer.TokenIncrement, lexer.TokenDecrement:
		p.consume()
		operand, ok := p.parseUnaryExpr()
		if !ok {
			return nil, false
		}
		op := cabs.OpPreInc
		if tok.Type == lexer.TokenDecrement {
			op = cabs.OpPreDec
		}
		return cabs.Unary{Op: op, Expr: operand}, true

	case lexer.TokenAmpersand, lexer.TokenStar, lexer.TokenPlus,
		lexer.TokenMinus, lexer.TokenNot, lexer.TokenTilde:
		p.consume()
		operand, ok := p.parseCastExpr()
		if !ok {
			return nil, false
		}
		return cabs.Unary{Op: unaryOpOf(tok.Type), Expr: operand}, true

	case lexer.TokenSizeof:
		return p.parseSizeof()

	case lexer.TokenAlignof:
		p.consume()
		if !p.expect(lexer.TokenLParen) {
			return nil, false
		}
		tn := p.parseTypeName(preferType)
		if !p.expect(lexer.TokenRParen) {
			return nil, false
		}
		return cabs.AlignofType{Type: tn}, true
	}
	return p.parsePostfixExpr()
}

func unaryOpOf(t lexer.TokenType) cabs.UnaryOp {
	switch t {
	case lexer.TokenAmpersand:
		return cabs.OpAddrOf
	case lexer.TokenStar:
		return cabs.OpDeref
	case lexer.TokenPlus:
		return cabs.OpPlus
	case lexer.TokenMinus:
		return cabs.OpNeg
	case lexer.TokenNot:
		return cabs.OpNot
	}
	return cabs.OpBitNot
}

// parseSizeof distinguishes sizeof(type-name) from sizeof expr, with
// the same compound-literal escape as casts: sizeof (T){...} takes the
// size of the literal. An unknown parenthesized name reads as an
// expression, same as the cast ambiguity.
func (p *Parser) parseSizeof() (cabs.Expr, bool) {
	p.consume() // sizeof
	if p.cur().Type == lexer.TokenLParen && p.startsTypeName(2, preferIdent) {
		end, balanced := p.scanBalanced(1)
		if !balanced || p.peekRaw(end).Type != lexer.TokenLBrace {
			p.consume()
			tn := p.parseTypeName(preferIdent)
			if !p.expect(lexer.TokenRParen) {
				return nil, false
			}
			return cabs.SizeofType{Type: tn}, true
		}
	}
	operand, ok := p.parseUnaryExpr()
	if !ok {
		return nil, false
	}
	return cabs.SizeofExpr{Expr: operand}, true
}

func (p *Parser) parsePostfixExpr() (cabs.Expr, bool) {
	// Compound literals are postfix expressions in their own right, so
	// paths that bypass the cast layer (sizeof, unary operators) still
	// need the check.
	if p.cur().Type == lexer.TokenLParen && p.startsTypeName(2, preferIdent) {
		if end, ok := p.scanBalanced(1); ok && p.peekRaw(end).Type == lexer.TokenLBrace {
			return p.parseCompoundLiteral()
		}
	}
	primary, ok := p.parsePrimaryExpr()
	if !ok {
		return nil, false
	}
	return p.parsePostfixSuffixes(primary)
}

func (p *Parser) parsePostfixSuffixes(e cabs.Expr) (cabs.Expr, bool) {
	for {
		switch p.cur().Type {
		case lexer.TokenLParen:
			p.consume()
			call := cabs.Call{Func: e}
			for p.cur().Type != lexer.TokenRParen {
				arg, ok := p.parseAssignExpr()
				if !ok {
					p.skipToParamEnd()
					if p.cur().Type == lexer.TokenComma {
						p.consume()
						continue
					}
					break
				}
				call.Args = append(call.Args, arg)
				if p.cur().Type != lexer.TokenComma {
					break
				}
				p.consume()
			}
			if !p.expect(lexer.TokenRParen) {
				return nil, false
			}
			e = call

		case lexer.TokenLBracket:
			p.consume()
			idx, ok := p.parseExprFull()
			if !ok {
				return nil, false
			}
			if !p.expect(lexer.TokenRBracket) {
				return nil, false
			}
			e = cabs.Index{Array: e, Index: idx}

		case lexer.TokenDot, lexer.TokenArrow:
			arrow := p.cur().Type == lexer.TokenArrow
			p.consume()
			if p.cur().Type != lexer.TokenIdent {
				p.errorf(p.cur().Pos, "expected member name, found '%s'", p.describe(p.cur()))
				return nil, false
			}
			e = cabs.Member{Expr: e, Name: p.consume().Literal, IsArrow: arrow}

		case lexer.TokenIncrement:
			p.consume()
			e = cabs.Unary{Op: cabs.OpPostInc, Expr: e}

		case lexer.TokenDecrement:
			p.consume()
			e = cabs.Unary{Op: cabs.OpPostDec, Expr: e}

		default:
			return e, true
		}
	}
}

func (p *Parser) parsePrimaryExpr() (cabs.Expr, bool) {
	tok := p.cur()
	switch tok.Type {
	case lexer.TokenIdent:
		p.consume()
		return cabs.Variable{Name: tok.Literal}, true

	case lexer.TokenInt:
		p.consume()
		return cabs.Constant{Value: intValue(tok.Literal), Num: tok.Num}, true

	case lexer.TokenFloat:
		p.consume()
		return cabs.FloatConstant{Text: tok.Literal, Num: tok.Num}, true

	case lexer.TokenChar:
		p.consume()
		return cabs.CharLiteral{Value: tok.Literal}, true

	case lexer.TokenString:
		p.consume()
		// Adjacent string literals concatenate.
		value := tok.Literal
		for p.cur().Type == lexer.TokenString {
			value += p.consume().Literal
		}
		return cabs.StringLiteral{Value: value}, true

	case lexer.TokenLParen:
		p.consume()
		inner, ok := p.parseExprFull()
		if !ok {
			return nil, false
		}
		if !p.expect(lexer.TokenRParen) {
			return nil, false
		}
		return cabs.Paren{Expr: inner}, true
	}

	p.errorf(tok.Pos, "expected expression, found '%s'", p.describe(tok))
	return nil, false
}

// intValue decodes an integer literal, ignoring its suffix letters;
// the token's own kind tag carries what the suffix selected.
func intValue(lit string) int64 {
	trimmed := strings.TrimRight(lit, "uUlL")
	if v, err := strconv.ParseInt(trimmed, 0, 64); err == nil {
		return v
	}
	if v, err := strconv.ParseUint(trimmed, 0, 64); err == nil {
		return int64(v)
	}
	return 0
}
