// Package cabs defines the abstract syntax tree for C, mirroring CompCert's Cabs.v
package cabs

import (
	"github.com/tarn-cc/tarn-cc/pkg/lexer"
)

// Node is the base interface for all AST nodes
type Node interface {
	implCabsNode()
}

// Expr is the interface for all expression nodes
type Expr interface {
	Node
	implCabsExpr()
}

// Stmt is the interface for all statement nodes
type Stmt interface {
	Node
	implCabsStmt()
}

// ExternalDecl is the interface for top-level declarations
type ExternalDecl interface {
	Node
	implExternalDecl()
}

// BinaryOp represents binary operators
type BinaryOp int

const (
	OpAdd BinaryOp = iota
	OpSub
	OpMul
	OpDiv
	OpMod
	OpShl // <<
	OpShr // >>
	OpLt
	OpLe
	OpGt
	OpGe
	OpEq
	OpNe
	OpBitAnd
	OpBitOr
	OpBitXor
	OpAnd // &&
	OpOr  // ||
)

func (op BinaryOp) String() string {
	names := []string{"+", "-", "*", "/", "%", "<<", ">>", "<", "<=", ">", ">=",
		"==", "!=", "&", "|", "^", "&&", "||"}
	if int(op) < len(names) {
		return names[op]
	}
	return "?"
}

// AssignOp represents the assignment operator family
type AssignOp int

const (
	AssignSimple AssignOp = iota // =
	AssignAdd                    // +=
	AssignSub                    // -=
	AssignMul                    // *=
	AssignDiv                    // /=
	AssignMod                    // %=
	AssignAnd                    // &=
	AssignOr                     // |=
	AssignXor                    // ^=
	AssignShl                    // <<=
	AssignShr                    // >>=
)

func (op AssignOp) String() string {
	names := []string{"=", "+=", "-=", "*=", "/=", "%=", "&=", "|=", "^=", "<<=", ">>="}
	if int(op) < len(names) {
		return names[op]
	}
	return "?"
}

// UnaryOp represents unary operators
type UnaryOp int

const (
	OpNeg     UnaryOp = iota // -
	OpPlus                   // +
	OpNot                    // !
	OpBitNot                 // ~
	OpAddrOf                 // &
	OpDeref                  // *
	OpPreInc                 // ++x
	OpPreDec                 // --x
	OpPostInc                // x++
	OpPostDec                // x--
)

func (op UnaryOp) String() string {
	names := []string{"-", "+", "!", "~", "&", "*", "++", "--", "++", "--"}
	if int(op) < len(names) {
		return names[op]
	}
	return "?"
}

// Constant represents an integer constant
type Constant struct {
	Value int64
	Num   lexer.NumKind
}

// FloatConstant represents a floating constant, kept as spelled
type FloatConstant struct {
	Text string
	Num  lexer.NumKind
}

// CharLiteral represents a character constant
type CharLiteral struct {
	Value string
}

// StringLiteral represents a string literal
type StringLiteral struct {
	Value string
}

// Variable represents an identifier expression
type Variable struct {
	Name string
}

// Unary represents a unary expression, including pre/post inc/dec
type Unary struct {
	Op   UnaryOp
	Expr Expr
}

// Binary represents a binary expression
type Binary struct {
	Op    BinaryOp
	Left  Expr
	Right Expr
}

// Assign represents simple and compound assignment
type Assign struct {
	Op    AssignOp
	Left  Expr
	Right Expr
}

// Paren represents a parenthesized expression
type Paren struct {
	Expr Expr
}

// Conditional represents the ternary operator: cond ? then : else
type Conditional struct {
	Cond Expr
	Then Expr
	Else Expr
}

// MinMax is the specialized node produced by the atomic-update capture
// probe when a conditional selects between a variable and its negation
// based on a comparison of that variable against a constant.
type MinMax struct {
	IsMax     bool
	Arg       Expr // the selected variable
	Threshold Expr // the constant compared against
}

// Comma represents the comma operator
type Comma struct {
	Exprs []Expr
}

// Cast represents (type-name)expr
type Cast struct {
	Type *TypeName
	Expr Expr
}

// CompoundLiteral represents (type-name){init-list}
type CompoundLiteral struct {
	Type *TypeName
	Init InitList
}

// SizeofExpr represents sizeof expr
type SizeofExpr struct {
	Expr Expr
}

// SizeofType represents sizeof(type-name)
type SizeofType struct {
	Type *TypeName
}

// AlignofType represents _Alignof(type-name)
type AlignofType struct {
	Type *TypeName
}

// Call represents a function call
type Call struct {
	Func Expr
	Args []Expr
}

// Index represents array subscript access: arr[idx]
type Index struct {
	Array Expr
	Index Expr
}

// Member represents member access: e.name or e->name
type Member struct {
	Expr    Expr
	Name    string
	IsArrow bool
}

// Return represents a return statement
type Return struct {
	Expr Expr // nil for bare return
}

// Computation represents an expression statement
type Computation struct {
	Expr Expr
}

// Null represents the empty statement
type Null struct{}

// Block represents a compound statement (block)
type Block struct {
	Items []Stmt
}

// If represents an if statement
type If struct {
	Cond Expr
	Then Stmt
	Else Stmt // nil when absent
}

// While represents a while loop
type While struct {
	Cond Expr
	Body Stmt
}

// DoWhile represents a do-while loop
type DoWhile struct {
	Body Stmt
	Cond Expr
}

// For represents a for loop. Init and InitDecl are mutually exclusive.
type For struct {
	Init     Expr
	InitDecl *Declaration
	Cond     Expr
	Step     Expr
	Body     Stmt
}

// Switch represents a switch statement
type Switch struct {
	Expr Expr
	Body Stmt
}

// Case represents a case label and its statement
type Case struct {
	Expr Expr
	Stmt Stmt
}

// Default represents a default label and its statement
type Default struct {
	Stmt Stmt
}

// Label represents a named label and its statement
type Label struct {
	Name string
	Stmt Stmt
}

// Goto represents a goto statement
type Goto struct {
	Label string
}

// Break represents a break statement
type Break struct{}

// Continue represents a continue statement
type Continue struct{}

// DeclStmt wraps a declaration appearing in statement position
type DeclStmt struct {
	Decl *Declaration
}

// DirectiveKind distinguishes how a directive entered the token stream
type DirectiveKind int

const (
	DirectivePragma   DirectiveKind = iota // out-of-band #pragma line
	DirectiveAttrDecl                      // [[...]] attached to a declaration
	DirectiveAttrStmt                      // [[...]] attached to a statement
)

func (k DirectiveKind) String() string {
	switch k {
	case DirectiveAttrDecl:
		return "attr-decl"
	case DirectiveAttrStmt:
		return "attr-stmt"
	}
	return "pragma"
}

// DirectiveCapture holds the uninterpreted argument tokens of a captured
// directive for deferred replay.
type DirectiveCapture struct {
	Kind   DirectiveKind
	Name   string // introducer spelling, e.g. "omp"
	Tokens []lexer.Token
	Pos    lexer.Position

	// Failed is set when syntactic processing of the directive (e.g.
	// collapsed-loop flattening) gave up; semantic finalization must be
	// skipped but surrounding parsing continues.
	Failed bool
}

// PragmaStmt is a captured directive in statement position, with the
// statement it governs (nil for standalone directives).
type PragmaStmt struct {
	Capture *DirectiveCapture
	Stmt    Stmt
}

// LoopLevel is one level of a collapsed loop nest
type LoopLevel struct {
	Pre  []Stmt       // intervening statements before this level's loop
	Decl *Declaration // loop-control declaration, hoisted; nil if Init used
	Init Expr         // init expression when no declaration
	Cond Expr
	Step Expr
}

// CollapsedLoop is a flattened perfectly-nested loop construct produced
// for directives that treat K nested for-loops as one logical unit. The
// loop-control declarations of every level live at the construct's own
// scope, in declaration order.
type CollapsedLoop struct {
	Directive *DirectiveCapture
	Depth     int
	Levels    []LoopLevel
	Body      Stmt
}

// Program is a parsed translation unit
type Program struct {
	Decls []ExternalDecl
}

// Marker methods for interface implementation
func (Constant) implCabsNode()      {}
func (Constant) implCabsExpr()      {}
func (FloatConstant) implCabsNode() {}
func (FloatConstant) implCabsExpr() {}
func (CharLiteral) implCabsNode()   {}
func (CharLiteral) implCabsExpr()   {}
func (StringLiteral) implCabsNode() {}
func (StringLiteral) implCabsExpr() {}

func (Variable) implCabsNode() {}
func (Variable) implCabsExpr() {}

func (Unary) implCabsNode() {}
func (Unary) implCabsExpr() {}

func (Binary) implCabsNode() {}
func (Binary) implCabsExpr() {}

func (Assign) implCabsNode() {}
func (Assign) implCabsExpr() {}

func (Paren) implCabsNode() {}
func (Paren) implCabsExpr() {}

func (Conditional) implCabsNode() {}
func (Conditional) implCabsExpr() {}

func (MinMax) implCabsNode() {}
func (MinMax) implCabsExpr() {}

func (Comma) implCabsNode() {}
func (Comma) implCabsExpr() {}

func (Cast) implCabsNode() {}
func (Cast) implCabsExpr() {}

func (CompoundLiteral) implCabsNode() {}
func (CompoundLiteral) implCabsExpr() {}

func (SizeofExpr) implCabsNode()  {}
func (SizeofExpr) implCabsExpr()  {}
func (SizeofType) implCabsNode()  {}
func (SizeofType) implCabsExpr()  {}
func (AlignofType) implCabsNode() {}
func (AlignofType) implCabsExpr() {}

func (Call) implCabsNode() {}
func (Call) implCabsExpr() {}

func (Index) implCabsNode() {}
func (Index) implCabsExpr() {}

func (Member) implCabsNode() {}
func (Member) implCabsExpr() {}

func (Return) implCabsNode() {}
func (Return) implCabsStmt() {}

func (Computation) implCabsNode() {}
func (Computation) implCabsStmt() {}

func (Null) implCabsNode() {}
func (Null) implCabsStmt() {}

func (Block) implCabsNode() {}
func (Block) implCabsStmt() {}

func (If) implCabsNode() {}
func (If) implCabsStmt() {}

func (While) implCabsNode() {}
func (While) implCabsStmt() {}

func (DoWhile) implCabsNode() {}
func (DoWhile) implCabsStmt() {}

func (For) implCabsNode() {}
func (For) implCabsStmt() {}

func (Switch) implCabsNode() {}
func (Switch) implCabsStmt() {}

func (Case) implCabsNode() {}
func (Case) implCabsStmt() {}

func (Default) implCabsNode() {}
func (Default) implCabsStmt() {}

func (Label) implCabsNode() {}
func (Label) implCabsStmt() {}

func (Goto) implCabsNode() {}
func (Goto) implCabsStmt() {}

func (Break) implCabsNode() {}
func (Break) implCabsStmt() {}

func (Continue) implCabsNode() {}
func (Continue) implCabsStmt() {}

func (DeclStmt) implCabsNode() {}
func (DeclStmt) implCabsStmt() {}

func (PragmaStmt) implCabsNode()     {}
func (PragmaStmt) implCabsStmt()     {}
func (PragmaStmt) implExternalDecl() {}

func (CollapsedLoop) implCabsNode() {}
func (CollapsedLoop) implCabsStmt() {}
