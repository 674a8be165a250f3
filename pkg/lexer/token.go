package lexer

// TokenType represents the type of a token
type TokenType int

const (
	// Special tokens
	TokenEOF TokenType = iota
	TokenIllegal
	TokenPragma // pragma-marker introducing a directive line
	TokenEOD    // end of a directive line

	// Literals
	TokenIdent  // main, foo, x
	TokenInt    // 42, 0x2a, 42ul
	TokenFloat  // 3.14, 1e9, 2.0f
	TokenChar   // 'a'
	TokenString // "hello"

	// Keywords
	TokenInt_      // int
	TokenVoid      // void
	TokenChar_     // char
	TokenShort     // short
	TokenLong      // long
	TokenFloat_    // float
	TokenDouble    // double
	TokenSigned    // signed
	TokenUnsigned  // unsigned
	TokenBool      // _Bool
	TokenComplex   // _Complex
	TokenReturn    // return
	TokenIf        // if
	TokenElse      // else
	TokenWhile     // while
	TokenDo        // do
	TokenFor       // for
	TokenBreak     // break
	TokenContinue  // continue
	TokenSwitch    // switch
	TokenCase      // case
	TokenDefault   // default
	TokenGoto      // goto
	TokenTypedef   // typedef
	TokenStruct    // struct
	TokenUnion     // union
	TokenEnum      // enum
	TokenSizeof    // sizeof
	TokenStatic    // static
	TokenExtern    // extern
	TokenAuto      // auto
	TokenRegister  // register
	TokenConst     // const
	TokenVolatile  // volatile
	TokenRestrict  // restrict
	TokenInline    // inline
	TokenAlignas   // _Alignas
	TokenAlignof   // _Alignof
	TokenAtomic    // _Atomic
	TokenTypeof    // typeof (GNU)
	TokenAttribute // __attribute__ (GNU)

	// Operators
	TokenPlus      // +
	TokenMinus     // -
	TokenStar      // *
	TokenSlash     // /
	TokenPercent   // %
	TokenAssign    // =
	TokenEq        // ==
	TokenNe        // !=
	TokenLt        // <
	TokenLe        // <=
	TokenGt        // >
	TokenGe        // >=
	TokenAnd       // &&
	TokenOr        // ||
	TokenNot       // !
	TokenAmpersand // &
	TokenPipe      // |
	TokenCaret     // ^
	TokenTilde     // ~
	TokenShl       // <<
	TokenShr       // >>
	TokenQuestion  // ?
	TokenColon     // :

	// Compound assignment operators
	TokenPlusAssign    // +=
	TokenMinusAssign   // -=
	TokenStarAssign    // *=
	TokenSlashAssign   // /=
	TokenPercentAssign // %=
	TokenAndAssign     // &=
	TokenOrAssign      // |=
	TokenXorAssign     // ^=
	TokenShlAssign     // <<=
	TokenShrAssign     // >>=

	// Increment/decrement
	TokenIncrement // ++
	TokenDecrement // --

	// Delimiters
	TokenLParen    // (
	TokenRParen    // )
	TokenLBrace    // {
	TokenRBrace    // }
	TokenLBracket  // [
	TokenRBracket  // ]
	TokenSemicolon // ;
	TokenComma     // ,
	TokenDot       // .
	TokenArrow     // ->
	TokenEllipsis  // ...
	TokenScope     // :: (attribute namespaces)
)

var tokenNames = map[TokenType]string{
	TokenEOF:           "EOF",
	TokenIllegal:       "ILLEGAL",
	TokenPragma:        "PRAGMA",
	TokenEOD:           "EOD",
	TokenIdent:         "IDENT",
	TokenInt:           "INT",
	TokenFloat:         "FLOAT",
	TokenChar:          "CHAR",
	TokenString:        "STRING",
	TokenInt_:          "int",
	TokenVoid:          "void",
	TokenChar_:         "char",
	TokenShort:         "short",
	TokenLong:          "long",
	TokenFloat_:        "float",
	TokenDouble:        "double",
	TokenSigned:        "signed",
	TokenUnsigned:      "unsigned",
	TokenBool:          "_Bool",
	TokenComplex:       "_Complex",
	TokenReturn:        "return",
	TokenIf:            "if",
	TokenElse:          "else",
	TokenWhile:         "while",
	TokenDo:            "do",
	TokenFor:           "for",
	TokenBreak:         "break",
	TokenContinue:      "continue",
	TokenSwitch:        "switch",
	TokenCase:          "case",
	TokenDefault:       "default",
	TokenGoto:          "goto",
	TokenTypedef:       "typedef",
	TokenStruct:        "struct",
	TokenUnion:         "union",
	TokenEnum:          "enum",
	TokenSizeof:        "sizeof",
	TokenStatic:        "static",
	TokenExtern:        "extern",
	TokenAuto:          "auto",
	TokenRegister:      "register",
	TokenConst:         "const",
	TokenVolatile:      "volatile",
	TokenRestrict:      "restrict",
	TokenInline:        "inline",
	TokenAlignas:       "_Alignas",
	TokenAlignof:       "_Alignof",
	TokenAtomic:        "_Atomic",
	TokenTypeof:        "typeof",
	TokenAttribute:     "__attribute__",
	TokenPlus:          "+",
	TokenMinus:         "-",
	TokenStar:          "*",
	TokenSlash:         "/",
	TokenPercent:       "%",
	TokenAssign:        "=",
	TokenEq:            "==",
	TokenNe:            "!=",
	TokenLt:            "<",
	TokenLe:            "<=",
	TokenGt:            ">",
	TokenGe:            ">=",
	TokenAnd:           "&&",
	TokenOr:            "||",
	TokenNot:           "!",
	TokenAmpersand:     "&",
	TokenPipe:          "|",
	TokenCaret:         "^",
	TokenTilde:         "~",
	TokenShl:           "<<",
	TokenShr:           ">>",
	TokenQuestion:      "?",
	TokenColon:         ":",
	TokenPlusAssign:    "+=",
	TokenMinusAssign:   "-=",
	TokenStarAssign:    "*=",
	TokenSlashAssign:   "/=",
	TokenPercentAssign: "%=",
	TokenAndAssign:     "&=",
	TokenOrAssign:      "|=",
	TokenXorAssign:     "^=",
	TokenShlAssign:     "<<=",
	TokenShrAssign:     ">>=",
	TokenIncrement:     "++",
	TokenDecrement:     "--",
	TokenLParen:        "(",
	TokenRParen:        ")",
	TokenLBrace:        "{",
	TokenRBrace:        "}",
	TokenLBracket:      "[",
	TokenRBracket:      "]",
	TokenSemicolon:     ";",
	TokenComma:         ",",
	TokenDot:           ".",
	TokenArrow:         "->",
	TokenEllipsis:      "...",
	TokenScope:         "::",
}

func (t TokenType) String() string {
	if name, ok := tokenNames[t]; ok {
		return name
	}
	return "UNKNOWN"
}

// NumKind tags a numeric literal with the type its suffix selects.
// The parser reads the tag and never re-derives it from the spelling.
type NumKind int

const (
	NumInt NumKind = iota
	NumUnsigned
	NumLong
	NumULong
	NumLongLong
	NumULongLong
	NumFloat
	NumDouble
	NumLongDouble
	NumImaginary
)

func (k NumKind) String() string {
	names := []string{"int", "unsigned", "long", "ulong", "llong", "ullong",
		"float", "double", "ldouble", "imaginary"}
	if int(k) < len(names) {
		return names[k]
	}
	return "?"
}

// IdentClass is the parser-assigned classification of a name token.
// It is cached on the token together with the binding-table version that
// produced it; stale entries are refreshed only by an explicit
// reclassify step.
type IdentClass int

const (
	ClassUnknown IdentClass = iota
	ClassIdent             // ordinary identifier
	ClassTypeName          // typedef name
	ClassTagName           // struct/union/enum tag
	ClassAddrSpace         // address-space qualifier name
)

func (c IdentClass) String() string {
	switch c {
	case ClassIdent:
		return "ident"
	case ClassTypeName:
		return "typename"
	case ClassTagName:
		return "tagname"
	case ClassAddrSpace:
		return "addrspace"
	}
	return "unclassified"
}

// Position is a location in the source text
type Position struct {
	Line   int
	Column int
	Offset int
}

// Token represents a lexical token
type Token struct {
	Type    TokenType
	Literal string
	Pos     Position
	End     Position
	Num     NumKind // valid for TokenInt and TokenFloat only

	// Classification of name tokens, filled by the parser's refine pass.
	// ClassVersion records the binding-table version the answer was
	// computed against; ClassKnown distinguishes a name classified from
	// an actual binding from an unbound name given the default class.
	Class        IdentClass
	ClassVersion uint64
	ClassKnown   bool
}

// Line returns the 1-based source line, for diagnostics
func (t Token) Line() int { return t.Pos.Line }

// Column returns the source column, for diagnostics
func (t Token) Column() int { return t.Pos.Column }

// keywords maps keyword strings to token types
var keywords = map[string]TokenType{
	"int":           TokenInt_,
	"void":          TokenVoid,
	"char":          TokenChar_,
	"short":         TokenShort,
	"long":          TokenLong,
	"float":         TokenFloat_,
	"double":        TokenDouble,
	"signed":        TokenSigned,
	"unsigned":      TokenUnsigned,
	"_Bool":         TokenBool,
	"_Complex":      TokenComplex,
	"return":        TokenReturn,
	"if":            TokenIf,
	"else":          TokenElse,
	"while":         TokenWhile,
	"do":            TokenDo,
	"for":           TokenFor,
	"break":         TokenBreak,
	"continue":      TokenContinue,
	"switch":        TokenSwitch,
	"case":          TokenCase,
	"default":       TokenDefault,
	"goto":          TokenGoto,
	"typedef":       TokenTypedef,
	"struct":        TokenStruct,
	"union":         TokenUnion,
	"enum":          TokenEnum,
	"sizeof":        TokenSizeof,
	"static":        TokenStatic,
	"extern":        TokenExtern,
	"auto":          TokenAuto,
	"register":      TokenRegister,
	"const":         TokenConst,
	"volatile":      TokenVolatile,
	"restrict":      TokenRestrict,
	"__restrict":    TokenRestrict,
	"__restrict__":  TokenRestrict,
	"inline":        TokenInline,
	"__inline":      TokenInline,
	"_Alignas":      TokenAlignas,
	"_Alignof":      TokenAlignof,
	"_Atomic":       TokenAtomic,
	"typeof":        TokenTypeof,
	"__typeof__":    TokenTypeof,
	"__attribute__": TokenAttribute,
	"__attribute":   TokenAttribute,
}

// LookupIdent returns the token type for an identifier (keyword or IDENT)
func LookupIdent(ident string) TokenType {
	if tok, ok := keywords[ident]; ok {
		return tok
	}
	return TokenIdent
}

// IsKeyword reports whether the token type is a reserved word
func IsKeyword(t TokenType) bool {
	return t >= TokenInt_ && t <= TokenAttribute
}
