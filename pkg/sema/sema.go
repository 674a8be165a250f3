// Package sema is the semantic collaborator the parser commits finished
// declarations to. It folds specifiers and declarators into ctypes
// values and maintains the binding table the token classifier reads.
// Full type checking is a separate concern; this layer does just enough
// for classification feedback to work mid-parse.
package sema

import (
	"fmt"
	"strings"

	"github.com/tarn-cc/tarn-cc/pkg/cabs"
	"github.com/tarn-cc/tarn-cc/pkg/ctypes"
	"github.com/tarn-cc/tarn-cc/pkg/diag"
	"github.com/tarn-cc/tarn-cc/pkg/lexer"
	"github.com/tarn-cc/tarn-cc/pkg/symtab"
)

// Decl is the opaque handle returned for a committed declaration
type Decl struct {
	Name    string
	Type    ctypes.Type
	Storage cabs.StorageClass
}

// Committer binds finished declarations into the symbol table
type Committer struct {
	syms  *symtab.Table
	diags diag.Reporter
}

// NewCommitter creates a Committer over the given table and sink
func NewCommitter(syms *symtab.Table, diags diag.Reporter) *Committer {
	return &Committer{syms: syms, diags: diags}
}

// Symbols returns the binding table this Committer mutates
func (c *Committer) Symbols() *symtab.Table {
	return c.syms
}

// Commit folds one declarator against its specifiers, binds the declared
// name, and returns the declaration handle. Abstract declarators fold
// but bind nothing.
func (c *Committer) Commit(spec cabs.DeclSpec, d cabs.Declarator, pos lexer.Position) *Decl {
	ty := c.TypeOf(spec, d, pos)
	name := cabs.DeclaratorName(d)
	decl := &Decl{Name: name, Type: ty, Storage: spec.Storage}
	if name == "" {
		return decl
	}
	kind := symtab.Ordinary
	if spec.Storage == cabs.StorageTypedef {
		kind = symtab.Typedef
	}
	c.syms.Declare(name, kind)
	return decl
}

// TypeOf folds specifiers plus declarator into a type without binding
func (c *Committer) TypeOf(spec cabs.DeclSpec, d cabs.Declarator, pos lexer.Position) ctypes.Type {
	base := c.BaseType(spec, pos)
	if len(spec.Qualifiers) > 0 {
		base = ctypes.Tqualified{Quals: append([]string(nil), spec.Qualifiers...), Elem: base}
	}
	return c.fold(d, base, pos)
}

// fold applies declarator wrappers inside-out: each wrapper rebases the
// inner declarator on the wrapped type.
func (c *Committer) fold(d cabs.Declarator, base ctypes.Type, pos lexer.Position) ctypes.Type {
	switch dd := d.(type) {
	case nil:
		return base
	case cabs.IdentDeclarator:
		return base
	case cabs.PointerDeclarator:
		ptr := ctypes.Type(ctypes.Tpointer{Elem: base})
		if len(dd.Quals) > 0 {
			ptr = ctypes.Tqualified{Quals: append([]string(nil), dd.Quals...), Elem: ptr}
		}
		return c.fold(dd.Inner, ptr, pos)
	case cabs.ArrayDeclarator:
		size := int64(-1)
		if konst, ok := dd.Size.(cabs.Constant); ok {
			size = konst.Value
		}
		return c.fold(dd.Inner, ctypes.Tarray{Elem: base, Size: size}, pos)
	case cabs.FuncDeclarator:
		fn := ctypes.Tfunction{
			Return:      base,
			VarArg:      dd.Variadic,
			Unspecified: dd.Unspecified || len(dd.OldStyle) > 0,
		}
		for _, param := range dd.Params {
			fn.Params = append(fn.Params, c.TypeOf(param.Spec, param.Decl, pos))
		}
		// A single void parameter is the explicit no-parameters spelling.
		if len(fn.Params) == 1 && !fn.VarArg {
			if _, isVoid := fn.Params[0].(ctypes.Tvoid); isVoid {
				fn.Params = nil
			}
		}
		return c.fold(dd.Inner, fn, pos)
	case cabs.AttrDeclarator:
		return c.fold(dd.Inner, base, pos)
	}
	return base
}

// BaseType maps specifier type words to a ctypes value. An unknown
// single word that the binding table knows as a typedef folds to a
// named reference; anything unrecognized reports and substitutes int so
// parsing can continue.
func (c *Committer) BaseType(spec cabs.DeclSpec, pos lexer.Position) ctypes.Type {
	words := spec.TypeWords
	if len(words) == 0 {
		// implicit int
		return ctypes.Int()
	}

	if len(words) >= 1 {
		switch words[0] {
		case "struct":
			return ctypes.Tstruct{Name: tagName(words)}
		case "union":
			return ctypes.Tunion{Name: tagName(words)}
		case "enum":
			return ctypes.Int()
		}
	}

	if len(words) == 1 {
		if ty, ok := builtinType(words[0]); ok {
			return ty
		}
		if c.syms.IsType(words[0]) {
			return ctypes.Tnamed{Name: words[0]}
		}
		c.diags.Report(pos, diag.Error, fmt.Sprintf("unknown type name '%s'", words[0]))
		return ctypes.Int()
	}

	return multiWordType(words, c.diags, pos)
}

func tagName(words []string) string {
	if len(words) > 1 {
		return words[1]
	}
	return ""
}

func builtinType(word string) (ctypes.Type, bool) {
	switch word {
	case "void":
		return ctypes.Void(), true
	case "char":
		return ctypes.Char(), true
	case "short":
		return ctypes.Short(), true
	case "int", "signed":
		return ctypes.Int(), true
	case "unsigned":
		return ctypes.UInt(), true
	case "long":
		return ctypes.Long(), true
	case "float":
		return ctypes.Float(), true
	case "double":
		return ctypes.Double(), true
	case "_Bool":
		return ctypes.Tint{Size: ctypes.IBool, Sign: ctypes.Unsigned}, true
	}
	return nil, false
}

// multiWordType resolves specifier sequences like "unsigned long" or
// "long long int" by counting the sign and width words.
func multiWordType(words []string, diags diag.Reporter, pos lexer.Position) ctypes.Type {
	sign := ctypes.Signed
	signedSeen := false
	unsignedSeen := false
	longs := 0
	shorts := 0
	base := ""
	bad := func() ctypes.Type {
		diags.Report(pos, diag.Error,
			fmt.Sprintf("cannot combine type specifiers '%s'", strings.Join(words, " ")))
		return ctypes.Int()
	}
	for _, w := range words {
		switch w {
		case "signed":
			signedSeen = true
		case "unsigned":
			sign = ctypes.Unsigned
			unsignedSeen = true
		case "long":
			longs++
		case "short":
			shorts++
		case "int", "char", "float", "double", "_Bool":
			base = w
		default:
			return bad()
		}
	}
	switch {
	case base == "char":
		if longs > 0 || shorts > 0 {
			return bad()
		}
		return ctypes.Tint{Size: ctypes.I8, Sign: sign}
	case base == "float" || base == "double":
		// "long double" is the only length or sign word a floating base
		// accepts.
		if signedSeen || unsignedSeen || shorts > 0 || longs > 1 ||
			(longs > 0 && base == "float") {
			return bad()
		}
		if base == "float" {
			return ctypes.Float()
		}
		return ctypes.Double()
	case base == "_Bool":
		return bad()
	case longs > 0 && shorts > 0:
		return bad()
	case longs > 0:
		return ctypes.Tlong{Sign: sign}
	case shorts > 0:
		return ctypes.Tint{Size: ctypes.I16, Sign: sign}
	case unsignedSeen:
		return ctypes.UInt()
	default:
		return ctypes.Int()
	}
}
