package lexer

import "testing"

func TestNextToken(t *testing.T) {
	input := `int main() { return 42; }`

	tests := []struct {
		expectedType    TokenType
		expectedLiteral string
	}{
		{TokenInt_, "int"},
		{TokenIdent, "main"},
		{TokenLParen, "("},
		{TokenRParen, ")"},
		{TokenLBrace, "{"},
		{TokenReturn, "return"},
		{TokenInt, "42"},
		{TokenSemicolon, ";"},
		{TokenRBrace, "}"},
		{TokenEOF, ""},
	}

	l := New(input)

	for i, tt := range tests {
		tok := l.NextToken()

		if tok.Type != tt.expectedType {
			t.Fatalf("tests[%d] - tokentype wrong. expected=%q, got=%q",
				i, tt.expectedType, tok.Type)
		}

		if tok.Literal != tt.expectedLiteral {
			t.Fatalf("tests[%d] - literal wrong. expected=%q, got=%q",
				i, tt.expectedLiteral, tok.Literal)
		}
	}
}

func TestOperators(t *testing.T) {
	input := `+ - * / % = == != < <= > >= && || ! & | ^ ~`

	tests := []struct {
		expectedType    TokenType
		expectedLiteral string
	}{
		{TokenPlus, "+"},
		{TokenMinus, "-"},
		{TokenStar, "*"},
		{TokenSlash, "/"},
		{TokenPercent, "%"},
		{TokenAssign, "="},
		{TokenEq, "=="},
		{TokenNe, "!="},
		{TokenLt, "<"},
		{TokenLe, "<="},
		{TokenGt, ">"},
		{TokenGe, ">="},
		{TokenAnd, "&&"},
		{TokenOr, "||"},
		{TokenNot, "!"},
		{TokenAmpersand, "&"},
		{TokenPipe, "|"},
		{TokenCaret, "^"},
		{TokenTilde, "~"},
		{TokenEOF, ""},
	}

	l := New(input)

	for i, tt := range tests {
		tok := l.NextToken()

		if tok.Type != tt.expectedType {
			t.Fatalf("tests[%d] - tokentype wrong. expected=%q, got=%q",
				i, tt.expectedType, tok.Type)
		}

		if tok.Literal != tt.expectedLiteral {
			t.Fatalf("tests[%d] - literal wrong. expected=%q, got=%q",
				i, tt.expectedLiteral, tok.Literal)
		}
	}
}

func TestComments(t *testing.T) {
	input := `int // comment
main /* block
comment */ ()`

	tests := []struct {
		expectedType    TokenType
		expectedLiteral string
	}{
		{TokenInt_, "int"},
		{TokenIdent, "main"},
		{TokenLParen, "("},
		{TokenRParen, ")"},
		{TokenEOF, ""},
	}

	l := New(input)

	for i, tt := range tests {
		tok := l.NextToken()

		if tok.Type != tt.expectedType {
			t.Fatalf("tests[%d] - tokentype wrong. expected=%q, got=%q",
				i, tt.expectedType, tok.Type)
		}

		if tok.Literal != tt.expectedLiteral {
			t.Fatalf("tests[%d] - literal wrong. expected=%q, got=%q",
				i, tt.expectedLiteral, tok.Literal)
		}
	}
}

func TestPragmaDirective(t *testing.T) {
	input := `int x;
#pragma omp parallel for
int y;`

	tests := []struct {
		expectedType    TokenType
		expectedLiteral string
	}{
		{TokenInt_, "int"},
		{TokenIdent, "x"},
		{TokenSemicolon, ";"},
		{TokenPragma, "#pragma"},
		{TokenIdent, "omp"},
		{TokenIdent, "parallel"},
		{TokenFor, "for"},
		{TokenEOD, ""},
		{TokenInt_, "int"},
		{TokenIdent, "y"},
		{TokenSemicolon, ";"},
		{TokenEOF, ""},
	}

	l := New(input)

	for i, tt := range tests {
		tok := l.NextToken()

		if tok.Type != tt.expectedType {
			t.Fatalf("tests[%d] - tokentype wrong. expected=%q, got=%q",
				i, tt.expectedType, tok.Type)
		}

		if tok.Literal != tt.expectedLiteral {
			t.Fatalf("tests[%d] - literal wrong. expected=%q, got=%q",
				i, tt.expectedLiteral, tok.Literal)
		}
	}
}

func TestPragmaAtEOFGetsEOD(t *testing.T) {
	l := New(`#pragma once`)

	types := []TokenType{TokenPragma, TokenIdent, TokenEOD, TokenEOF}
	for i, want := range types {
		tok := l.NextToken()
		if tok.Type != want {
			t.Fatalf("token %d: expected=%q, got=%q", i, want, tok.Type)
		}
	}
}

func TestNonPragmaDirectivesSkipped(t *testing.T) {
	input := `# 1 "file.c"
#define FOO 1
int x;`

	l := New(input)

	tok := l.NextToken()
	if tok.Type != TokenInt_ {
		t.Fatalf("expected int after skipped directives, got %q (%q)", tok.Type, tok.Literal)
	}
}

func TestHashMidLineIsNotDirective(t *testing.T) {
	// Only a '#' at line start opens a directive.
	l := New(`x # y`)

	types := []TokenType{TokenIdent, TokenIllegal, TokenIdent, TokenEOF}
	for i, want := range types {
		tok := l.NextToken()
		if tok.Type != want {
			t.Fatalf("token %d: expected=%q, got=%q", i, want, tok.Type)
		}
	}
}

func TestPunctuation(t *testing.T) {
	input := `... :: -> . ? : << >> <<= >>= += -= *= /= %= &= |= ^= ++ --`

	tests := []struct {
		expectedType    TokenType
		expectedLiteral string
	}{
		{TokenEllipsis, "..."},
		{TokenScope, "::"},
		{TokenArrow, "->"},
		{TokenDot, "."},
		{TokenQuestion, "?"},
		{TokenColon, ":"},
		{TokenShl, "<<"},
		{TokenShr, ">>"},
		{TokenShlAssign, "<<="},
		{TokenShrAssign, ">>="},
		{TokenPlusAssign, "+="},
		{TokenMinusAssign, "-="},
		{TokenStarAssign, "*="},
		{TokenSlashAssign, "/="},
		{TokenPercentAssign, "%="},
		{TokenAndAssign, "&="},
		{TokenOrAssign, "|="},
		{TokenXorAssign, "^="},
		{TokenIncrement, "++"},
		{TokenDecrement, "--"},
		{TokenEOF, ""},
	}

	l := New(input)

	for i, tt := range tests {
		tok := l.NextToken()

		if tok.Type != tt.expectedType {
			t.Fatalf("tests[%d] - tokentype wrong. expected=%q, got=%q",
				i, tt.expectedType, tok.Type)
		}

		if tok.Literal != tt.expectedLiteral {
			t.Fatalf("tests[%d] - literal wrong. expected=%q, got=%q",
				i, tt.expectedLiteral, tok.Literal)
		}
	}
}

func TestNumberSuffixes(t *testing.T) {
	// The literal excludes the suffix; the Num tag carries what it meant.
	tests := []struct {
		input           string
		expectedType    TokenType
		expectedLiteral string
		expectedNum     NumKind
	}{
		{"42", TokenInt, "42", NumInt},
		{"42u", TokenInt, "42", NumUnsigned},
		{"42U", TokenInt, "42", NumUnsigned},
		{"42l", TokenInt, "42", NumLong},
		{"42ul", TokenInt, "42", NumULong},
		{"42ll", TokenInt, "42", NumLongLong},
		{"42ull", TokenInt, "42", NumULongLong},
		{"0x2a", TokenInt, "0x2a", NumInt},
		{"3.14", TokenFloat, "3.14", NumDouble},
		{"3.14f", TokenFloat, "3.14", NumFloat},
		{"3.14l", TokenFloat, "3.14", NumLongDouble},
		{"1e9", TokenFloat, "1e9", NumDouble},
		{"1.5e-3", TokenFloat, "1.5e-3", NumDouble},
		{"2f", TokenFloat, "2", NumFloat},
		{"4i", TokenInt, "4", NumImaginary},
		{".5", TokenFloat, ".5", NumDouble},
	}

	for _, tt := range tests {
		l := New(tt.input)
		tok := l.NextToken()

		if tok.Type != tt.expectedType {
			t.Errorf("%q - tokentype wrong. expected=%q, got=%q",
				tt.input, tt.expectedType, tok.Type)
		}
		if tok.Literal != tt.expectedLiteral {
			t.Errorf("%q - literal wrong. expected=%q, got=%q",
				tt.input, tt.expectedLiteral, tok.Literal)
		}
		if tok.Num != tt.expectedNum {
			t.Errorf("%q - num kind wrong. expected=%v, got=%v",
				tt.input, tt.expectedNum, tok.Num)
		}
	}
}

func TestStringAndCharLiterals(t *testing.T) {
	l := New(`"hello" "a\"b" 'x' '\n'`)

	tests := []struct {
		expectedType    TokenType
		expectedLiteral string
	}{
		{TokenString, "hello"},
		{TokenString, `a\"b`},
		{TokenChar, "x"},
		{TokenChar, `\n`},
		{TokenEOF, ""},
	}

	for i, tt := range tests {
		tok := l.NextToken()

		if tok.Type != tt.expectedType {
			t.Fatalf("tests[%d] - tokentype wrong. expected=%q, got=%q",
				i, tt.expectedType, tok.Type)
		}

		if tok.Literal != tt.expectedLiteral {
			t.Fatalf("tests[%d] - literal wrong. expected=%q, got=%q",
				i, tt.expectedLiteral, tok.Literal)
		}
	}
}

func TestKeywordAliases(t *testing.T) {
	tests := []struct {
		input        string
		expectedType TokenType
	}{
		{"__restrict", TokenRestrict},
		{"__restrict__", TokenRestrict},
		{"__inline", TokenInline},
		{"__typeof__", TokenTypeof},
		{"__attribute__", TokenAttribute},
		{"_Alignof", TokenAlignof},
		{"_Bool", TokenBool},
	}

	for _, tt := range tests {
		l := New(tt.input)
		tok := l.NextToken()
		if tok.Type != tt.expectedType {
			t.Errorf("%q - tokentype wrong. expected=%q, got=%q",
				tt.input, tt.expectedType, tok.Type)
		}
	}
}

func TestPositions(t *testing.T) {
	l := New("int x;\nint y;")

	l.NextToken() // int
	x := l.NextToken()
	if x.Pos.Line != 1 || x.Pos.Column != 5 {
		t.Errorf("x position = %d:%d, want 1:5", x.Pos.Line, x.Pos.Column)
	}

	l.NextToken() // ;
	l.NextToken() // int
	y := l.NextToken()
	if y.Pos.Line != 2 {
		t.Errorf("y line = %d, want 2", y.Pos.Line)
	}
}
