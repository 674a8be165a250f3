// Package lexer tokenizes preprocessed C source. Macro expansion and
// #include resolution happen upstream; the only directive this layer
// understands is #pragma, which it turns into a pragma-marker token
// followed by the directive's own tokens and an end-of-directive token.
package lexer

import (
	"unicode"
)

// Lexer tokenizes C source code
type Lexer struct {
	input   string
	pos     int  // current position in input
	readPos int  // next reading position
	ch      byte // current character
	line    int
	column  int

	atLineStart bool // only whitespace seen since the last newline
	inDirective bool // between a #pragma marker and its end-of-line
}

// New creates a new Lexer for the given input
func New(input string) *Lexer {
	l := &Lexer{input: input, line: 1, column: 0, atLineStart: true}
	l.readChar()
	return l
}

func (l *Lexer) readChar() {
	if l.readPos >= len(l.input) {
		l.ch = 0 // EOF
	} else {
		l.ch = l.input[l.readPos]
	}
	l.pos = l.readPos
	l.readPos++
	l.column++

	if l.ch == '\n' {
		l.line++
		l.column = 0
	}
}

func (l *Lexer) peekChar() byte {
	if l.readPos >= len(l.input) {
		return 0
	}
	return l.input[l.readPos]
}

func (l *Lexer) peekChar2() byte {
	if l.readPos+1 >= len(l.input) {
		return 0
	}
	return l.input[l.readPos+1]
}

func (l *Lexer) position() Position {
	return Position{Line: l.line, Column: l.column, Offset: l.pos}
}

// NextToken returns the next token from the input
func (l *Lexer) NextToken() Token {
	if l.inDirective {
		l.skipHorizontalSpace()
		if l.ch == '\n' || l.ch == 0 {
			tok := Token{Type: TokenEOD, Pos: l.position(), End: l.position()}
			l.inDirective = false
			if l.ch == '\n' {
				l.readChar()
				l.atLineStart = true
			}
			return tok
		}
	} else {
		l.skipWhitespaceAndComments()
		for l.ch == '#' && l.atLineStart {
			if tok, ok := l.readLineDirective(); ok {
				return tok
			}
			l.skipWhitespaceAndComments()
		}
	}
	l.atLineStart = false

	tok := Token{Pos: l.position()}

	switch l.ch {
	case 0:
		tok.Type = TokenEOF
		tok.Literal = ""
	case '+':
		switch l.peekChar() {
		case '+':
			tok = l.twoCharToken(TokenIncrement, "++")
		case '=':
			tok = l.twoCharToken(TokenPlusAssign, "+=")
		default:
			tok = l.newToken(TokenPlus, l.ch)
		}
	case '-':
		switch l.peekChar() {
		case '-':
			tok = l.twoCharToken(TokenDecrement, "--")
		case '=':
			tok = l.twoCharToken(TokenMinusAssign, "-=")
		case '>':
			tok = l.twoCharToken(TokenArrow, "->")
		default:
			tok = l.newToken(TokenMinus, l.ch)
		}
	case '*':
		if l.peekChar() == '=' {
			tok = l.twoCharToken(TokenStarAssign, "*=")
		} else {
			tok = l.newToken(TokenStar, l.ch)
		}
	case '/':
		if l.peekChar() == '=' {
			tok = l.twoCharToken(TokenSlashAssign, "/=")
		} else {
			tok = l.newToken(TokenSlash, l.ch)
		}
	case '%':
		if l.peekChar() == '=' {
			tok = l.twoCharToken(TokenPercentAssign, "%=")
		} else {
			tok = l.newToken(TokenPercent, l.ch)
		}
	case '=':
		if l.peekChar() == '=' {
			tok = l.twoCharToken(TokenEq, "==")
		} else {
			tok = l.newToken(TokenAssign, l.ch)
		}
	case '!':
		if l.peekChar() == '=' {
			tok = l.twoCharToken(TokenNe, "!=")
		} else {
			tok = l.newToken(TokenNot, l.ch)
		}
	case '<':
		switch l.peekChar() {
		case '=':
			tok = l.twoCharToken(TokenLe, "<=")
		case '<':
			if l.peekChar2() == '=' {
				tok = l.threeCharToken(TokenShlAssign, "<<=")
			} else {
				tok = l.twoCharToken(TokenShl, "<<")
			}
		default:
			tok = l.newToken(TokenLt, l.ch)
		}
	case '>':
		switch l.peekChar() {
		case '=':
			tok = l.twoCharToken(TokenGe, ">=")
		case '>':
			if l.peekChar2() == '=' {
				tok = l.threeCharToken(TokenShrAssign, ">>=")
			} else {
				tok = l.twoCharToken(TokenShr, ">>")
			}
		default:
			tok = l.newToken(TokenGt, l.ch)
		}
	case '&':
		switch l.peekChar() {
		case '&':
			tok = l.twoCharToken(TokenAnd, "&&")
		case '=':
			tok = l.twoCharToken(TokenAndAssign, "&=")
		default:
			tok = l.newToken(TokenAmpersand, l.ch)
		}
	case '|':
		switch l.peekChar() {
		case '|':
			tok = l.twoCharToken(TokenOr, "||")
		case '=':
			tok = l.twoCharToken(TokenOrAssign, "|=")
		default:
			tok = l.newToken(TokenPipe, l.ch)
		}
	case '^':
		if l.peekChar() == '=' {
			tok = l.twoCharToken(TokenXorAssign, "^=")
		} else {
			tok = l.newToken(TokenCaret, l.ch)
		}
	case '~':
		tok = l.newToken(TokenTilde, l.ch)
	case '?':
		tok = l.newToken(TokenQuestion, l.ch)
	case ':':
		if l.peekChar() == ':' {
			tok = l.twoCharToken(TokenScope, "::")
		} else {
			tok = l.newToken(TokenColon, l.ch)
		}
	case '(':
		tok = l.newToken(TokenLParen, l.ch)
	case ')':
		tok = l.newToken(TokenRParen, l.ch)
	case '{':
		tok = l.newToken(TokenLBrace, l.ch)
	case '}':
		tok = l.newToken(TokenRBrace, l.ch)
	case '[':
		tok = l.newToken(TokenLBracket, l.ch)
	case ']':
		tok = l.newToken(TokenRBracket, l.ch)
	case ';':
		tok = l.newToken(TokenSemicolon, l.ch)
	case ',':
		tok = l.newToken(TokenComma, l.ch)
	case '.':
		if l.peekChar() == '.' && l.peekChar2() == '.' {
			tok = l.threeCharToken(TokenEllipsis, "...")
		} else if isDigit(l.peekChar()) {
			return l.readNumber()
		} else {
			tok = l.newToken(TokenDot, l.ch)
		}
	case '"':
		tok.Type = TokenString
		tok.Literal = l.readString()
		tok.End = l.position()
		return tok
	case '\'':
		tok.Type = TokenChar
		tok.Literal = l.readCharLit()
		tok.End = l.position()
		return tok
	default:
		if isLetter(l.ch) {
			tok.Literal = l.readIdentifier()
			tok.Type = LookupIdent(tok.Literal)
			tok.End = l.position()
			return tok
		} else if isDigit(l.ch) {
			return l.readNumber()
		}
		tok = l.newToken(TokenIllegal, l.ch)
	}

	l.readChar()
	tok.End = l.position()
	return tok
}

// readLineDirective handles a '#' at the start of a line. #pragma becomes
// a pragma-marker token and switches the lexer into directive mode; any
// other directive (preprocessor line markers, mostly) is skipped whole.
func (l *Lexer) readLineDirective() (Token, bool) {
	start := l.position()
	l.readChar() // consume '#'
	l.skipHorizontalSpace()

	name := ""
	if isLetter(l.ch) {
		name = l.readIdentifier()
	}
	if name == "pragma" {
		l.inDirective = true
		l.atLineStart = false
		return Token{Type: TokenPragma, Literal: "#pragma", Pos: start, End: l.position()}, true
	}

	// Not a pragma: discard the rest of the line.
	for l.ch != '\n' && l.ch != 0 {
		l.readChar()
	}
	if l.ch == '\n' {
		l.readChar()
	}
	l.atLineStart = true
	return Token{}, false
}

func (l *Lexer) newToken(tokenType TokenType, ch byte) Token {
	return Token{Type: tokenType, Literal: string(ch), Pos: l.position()}
}

func (l *Lexer) twoCharToken(tokenType TokenType, literal string) Token {
	tok := Token{Type: tokenType, Literal: literal, Pos: l.position()}
	l.readChar()
	return tok
}

func (l *Lexer) threeCharToken(tokenType TokenType, literal string) Token {
	tok := Token{Type: tokenType, Literal: literal, Pos: l.position()}
	l.readChar()
	l.readChar()
	return tok
}

func (l *Lexer) skipHorizontalSpace() {
	for l.ch == ' ' || l.ch == '\t' || l.ch == '\r' {
		l.readChar()
	}
}

func (l *Lexer) skipWhitespaceAndComments() {
	for {
		switch {
		case l.ch == ' ' || l.ch == '\t' || l.ch == '\r':
			l.readChar()
		case l.ch == '\n':
			l.atLineStart = true
			l.readChar()
		case l.ch == '/' && l.peekChar() == '/':
			for l.ch != '\n' && l.ch != 0 {
				l.readChar()
			}
		case l.ch == '/' && l.peekChar() == '*':
			l.readChar() // consume /
			l.readChar() // consume *
			for {
				if l.ch == 0 {
					return
				}
				if l.ch == '*' && l.peekChar() == '/' {
					l.readChar() // consume *
					l.readChar() // consume /
					break
				}
				l.readChar()
			}
		default:
			return
		}
	}
}

func (l *Lexer) readIdentifier() string {
	pos := l.pos
	for isLetter(l.ch) || isDigit(l.ch) {
		l.readChar()
	}
	return l.input[pos:l.pos]
}

// readNumber reads an integer or floating literal including its suffix,
// and tags the token with the type the suffix selects.
func (l *Lexer) readNumber() Token {
	tok := Token{Pos: l.position()}
	pos := l.pos
	isFloat := false
	isHex := false

	if l.ch == '0' && (l.peekChar() == 'x' || l.peekChar() == 'X') {
		isHex = true
		l.readChar()
		l.readChar()
		for isHexDigit(l.ch) {
			l.readChar()
		}
	} else {
		for isDigit(l.ch) {
			l.readChar()
		}
	}

	if !isHex && l.ch == '.' {
		isFloat = true
		l.readChar()
		for isDigit(l.ch) {
			l.readChar()
		}
	}
	if !isHex && (l.ch == 'e' || l.ch == 'E') &&
		(isDigit(l.peekChar()) || ((l.peekChar() == '+' || l.peekChar() == '-') && isDigit(l.peekChar2()))) {
		isFloat = true
		l.readChar()
		if l.ch == '+' || l.ch == '-' {
			l.readChar()
		}
		for isDigit(l.ch) {
			l.readChar()
		}
	}

	digits := l.input[pos:l.pos]

	// Suffixes: u/U, l/L (possibly doubled), f/F, i/I (imaginary).
	unsigned := false
	longs := 0
	floatSuffix := false
	imaginary := false
	for {
		switch l.ch {
		case 'u', 'U':
			unsigned = true
		case 'l', 'L':
			longs++
		case 'f', 'F':
			floatSuffix = true
			isFloat = true
		case 'i', 'I', 'j', 'J':
			imaginary = true
		default:
			goto done
		}
		l.readChar()
	}
done:
	tok.Literal = digits
	tok.End = l.position()
	if isFloat || floatSuffix {
		tok.Type = TokenFloat
		switch {
		case imaginary:
			tok.Num = NumImaginary
		case floatSuffix:
			tok.Num = NumFloat
		case longs > 0:
			tok.Num = NumLongDouble
		default:
			tok.Num = NumDouble
		}
		return tok
	}
	tok.Type = TokenInt
	switch {
	case imaginary:
		tok.Num = NumImaginary
	case unsigned && longs >= 2:
		tok.Num = NumULongLong
	case longs >= 2:
		tok.Num = NumLongLong
	case unsigned && longs == 1:
		tok.Num = NumULong
	case longs == 1:
		tok.Num = NumLong
	case unsigned:
		tok.Num = NumUnsigned
	default:
		tok.Num = NumInt
	}
	return tok
}

func (l *Lexer) readString() string {
	l.readChar() // consume opening quote
	pos := l.pos
	for l.ch != '"' && l.ch != 0 {
		if l.ch == '\\' {
			l.readChar() // skip escape char
		}
		l.readChar()
	}
	str := l.input[pos:l.pos]
	l.readChar() // consume closing quote
	return str
}

func (l *Lexer) readCharLit() string {
	l.readChar() // consume opening quote
	pos := l.pos
	for l.ch != '\'' && l.ch != 0 {
		if l.ch == '\\' {
			l.readChar()
		}
		l.readChar()
	}
	str := l.input[pos:l.pos]
	l.readChar() // consume closing quote
	return str
}

func isLetter(ch byte) bool {
	return unicode.IsLetter(rune(ch)) || ch == '_'
}

func isDigit(ch byte) bool {
	return '0' <= ch && ch <= '9'
}

func isHexDigit(ch byte) bool {
	return isDigit(ch) || ('a' <= ch && ch <= 'f') || ('A' <= ch && ch <= 'F')
}
