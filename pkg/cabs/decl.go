package cabs

import (
	"strings"

	"github.com/tarn-cc/tarn-cc/pkg/lexer"
)

// StorageClass represents the storage-class specifier of a declaration
type StorageClass int

const (
	StorageNone StorageClass = iota
	StorageTypedef
	StorageExtern
	StorageStatic
	StorageAuto
	StorageRegister
)

func (s StorageClass) String() string {
	names := []string{"", "typedef", "extern", "static", "auto", "register"}
	if int(s) < len(names) {
		return names[s]
	}
	return "?"
}

// Attribute is one attribute from a GNU __attribute__((...)) list or a
// bracketed [[...]] specifier. Argument tokens are kept raw.
type Attribute struct {
	Name      string
	Args      []lexer.Token
	Bracketed bool // [[...]] spelling
}

// DeclSpec is the specifier half of a declaration: storage class,
// qualifiers, base type words, alignment, attributes.
type DeclSpec struct {
	Storage    StorageClass
	Inline     bool
	Qualifiers []string // const, volatile, restrict, _Atomic, address-space names
	TypeWords  []string // base type spelling in source order, e.g. "unsigned", "int"
	Align      Expr     // _Alignas argument, nil when absent
	Attrs      []Attribute
}

// TypeString renders the base type spelling
func (d DeclSpec) TypeString() string {
	return strings.Join(d.TypeWords, " ")
}

// Declarator is the recursive structure relating a declared name to its
// base type. The identifier sits at the core; array, function, and
// pointer wrappers are applied outward.
type Declarator interface {
	Node
	implDeclarator()
}

// IdentDeclarator is the core of a declarator. An empty name makes the
// whole declarator abstract.
type IdentDeclarator struct {
	Name string
}

// PointerDeclarator wraps an inner declarator as "pointer to"
type PointerDeclarator struct {
	Quals []string
	Inner Declarator
}

// ArrayDeclarator wraps an inner declarator as "array of"
type ArrayDeclarator struct {
	Inner  Declarator
	Size   Expr // nil for incomplete arrays
	Static bool // [static n] parameter form
	Quals  []string
	VLA    bool // [*] form
}

// ParamDecl is one parameter declaration in a function declarator
type ParamDecl struct {
	Spec DeclSpec
	Decl Declarator
}

// FuncDeclarator wraps an inner declarator as "function returning".
// Unspecified marks the empty-parens K&R form "()"; OldStyle holds an
// identifier-list parameter declaration when one was used.
type FuncDeclarator struct {
	Inner       Declarator
	Params      []ParamDecl
	Variadic    bool
	OldStyle    []string
	Unspecified bool
}

// AttrDeclarator attaches an attribute list to an inner declarator
type AttrDeclarator struct {
	Inner Declarator
	Attrs []Attribute
}

func (IdentDeclarator) implCabsNode()      {}
func (IdentDeclarator) implDeclarator()    {}
func (PointerDeclarator) implCabsNode()    {}
func (PointerDeclarator) implDeclarator()  {}
func (ArrayDeclarator) implCabsNode()      {}
func (ArrayDeclarator) implDeclarator()    {}
func (FuncDeclarator) implCabsNode()       {}
func (FuncDeclarator) implDeclarator()     {}
func (AttrDeclarator) implCabsNode()       {}
func (AttrDeclarator) implDeclarator()     {}

// DeclaratorName returns the identifier at the core of a declarator, or
// "" for abstract declarators.
func DeclaratorName(d Declarator) string {
	for d != nil {
		switch inner := d.(type) {
		case IdentDeclarator:
			return inner.Name
		case PointerDeclarator:
			d = inner.Inner
		case ArrayDeclarator:
			d = inner.Inner
		case FuncDeclarator:
			d = inner.Inner
		case AttrDeclarator:
			d = inner.Inner
		default:
			return ""
		}
	}
	return ""
}

// TypeName is a type in expression position: specifiers plus an
// abstract declarator, as in casts and sizeof.
type TypeName struct {
	Spec DeclSpec
	Decl Declarator
}

// Initializer is either a single expression or a braced list
type Initializer interface {
	Node
	implInitializer()
}

// InitExpr is a plain expression initializer
type InitExpr struct {
	Expr Expr
}

// Designator selects a field or an index inside a braced initializer.
// Exactly one of Field and Index is set.
type Designator struct {
	Field string
	Index Expr
}

// InitItem is one (possibly designated) entry of a braced list
type InitItem struct {
	Designators []Designator
	Init        Initializer
}

// InitList is a braced initializer list
type InitList struct {
	Items []InitItem
}

func (InitExpr) implCabsNode()     {}
func (InitExpr) implInitializer()  {}
func (InitList) implCabsNode()     {}
func (InitList) implInitializer()  {}

// InitDeclarator is one declarator with its optional initializer
type InitDeclarator struct {
	Decl  Declarator
	Init  Initializer
	Attrs []Attribute
}

// Declaration is a full declaration: specifiers plus declarator list
type Declaration struct {
	Spec  DeclSpec
	Inits []InitDeclarator
	Pos   lexer.Position

	// Directives captured from declaration-attached attribute syntax,
	// carried for later expansion by the directive layer.
	Directives []*DirectiveCapture
}

// FunDef is a function definition
type FunDef struct {
	Spec DeclSpec
	Decl Declarator
	Body *Block
	Pos  lexer.Position
}

func (Declaration) implCabsNode()      {}
func (Declaration) implExternalDecl()  {}
func (FunDef) implCabsNode()           {}
func (FunDef) implExternalDecl()       {}

func (Program) implCabsNode() {}
