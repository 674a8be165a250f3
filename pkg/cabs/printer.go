// AST printing. Output is compilable C for everything the parser can
// produce, which is what the declarator round-trip tests depend on.
package cabs

import (
	"fmt"
	"io"
	"strings"
)

// Printer outputs the AST in a human-readable format
type Printer struct {
	w      io.Writer
	indent int
}

// NewPrinter creates a new AST printer
func NewPrinter(w io.Writer) *Printer {
	return &Printer{w: w, indent: 0}
}

// PrintProgram prints a complete translation unit
func (p *Printer) PrintProgram(prog *Program) {
	for _, decl := range prog.Decls {
		p.PrintExternalDecl(decl)
		fmt.Fprintln(p.w)
	}
}

// PrintExternalDecl prints one top-level declaration
func (p *Printer) PrintExternalDecl(decl ExternalDecl) {
	switch d := decl.(type) {
	case FunDef:
		p.printFunDef(d)
	case *FunDef:
		p.printFunDef(*d)
	case *Declaration:
		p.printDeclaration(d)
	case Declaration:
		p.printDeclaration(&d)
	case PragmaStmt:
		p.printStmt(d)
	default:
		fmt.Fprintf(p.w, "/* unknown external decl %T */\n", decl)
	}
}

func (p *Printer) writeIndent() {
	fmt.Fprint(p.w, strings.Repeat("  ", p.indent))
}

func (p *Printer) printFunDef(f FunDef) {
	fmt.Fprintf(p.w, "%s", DeclarationString(f.Spec, f.Decl))
	fmt.Fprintln(p.w)
	p.printBlock(f.Body)
}

func (p *Printer) printDeclaration(d *Declaration) {
	fmt.Fprint(p.w, declarationText(d))
	fmt.Fprintln(p.w, ";")
}

func declarationText(d *Declaration) string {
	var sb strings.Builder
	sb.WriteString(specText(d.Spec))
	for i, init := range d.Inits {
		if i > 0 {
			sb.WriteString(",")
		}
		sb.WriteString(" ")
		sb.WriteString(declaratorText(init.Decl))
		if init.Init != nil {
			sb.WriteString(" = ")
			sb.WriteString(initializerText(init.Init))
		}
	}
	return sb.String()
}

// DeclarationString renders specifiers plus one declarator, without the
// trailing semicolon.
func DeclarationString(spec DeclSpec, d Declarator) string {
	text := specText(spec)
	if dt := declaratorText(d); dt != "" {
		text += " " + dt
	}
	return text
}

// TypeNameString renders a type-name (specifiers + abstract declarator)
func TypeNameString(t *TypeName) string {
	if t == nil {
		return ""
	}
	text := specText(t.Spec)
	if dt := declaratorText(t.Decl); dt != "" {
		text += " " + dt
	}
	return text
}

func specText(spec DeclSpec) string {
	var parts []string
	for _, a := range spec.Attrs {
		parts = append(parts, attrText(a))
	}
	if spec.Storage != StorageNone {
		parts = append(parts, spec.Storage.String())
	}
	if spec.Inline {
		parts = append(parts, "inline")
	}
	parts = append(parts, spec.Qualifiers...)
	if spec.Align != nil {
		parts = append(parts, "_Alignas("+ExprString(spec.Align)+")")
	}
	parts = append(parts, spec.TypeWords...)
	return strings.Join(parts, " ")
}

func attrText(a Attribute) string {
	var sb strings.Builder
	if a.Bracketed {
		sb.WriteString("[[")
		sb.WriteString(a.Name)
	} else {
		sb.WriteString("__attribute__((")
		sb.WriteString(a.Name)
	}
	if len(a.Args) > 0 {
		sb.WriteString("(")
		for i, tok := range a.Args {
			if i > 0 {
				sb.WriteString(" ")
			}
			sb.WriteString(tok.Literal)
		}
		sb.WriteString(")")
	}
	if a.Bracketed {
		sb.WriteString("]]")
	} else {
		sb.WriteString("))")
	}
	return sb.String()
}

// declaratorText renders a declarator around its core identifier,
// parenthesizing pointer declarators wrapped by array or function
// suffixes.
func declaratorText(d Declarator) string {
	switch dd := d.(type) {
	case nil:
		return ""
	case IdentDeclarator:
		return dd.Name
	case PointerDeclarator:
		var sb strings.Builder
		sb.WriteString("*")
		for _, q := range dd.Quals {
			sb.WriteString(q)
			sb.WriteString(" ")
		}
		sb.WriteString(declaratorText(dd.Inner))
		return sb.String()
	case ArrayDeclarator:
		inner := declaratorText(dd.Inner)
		if needsGrouping(dd.Inner) {
			inner = "(" + inner + ")"
		}
		var sb strings.Builder
		sb.WriteString(inner)
		sb.WriteString("[")
		if dd.Static {
			sb.WriteString("static ")
		}
		for _, q := range dd.Quals {
			sb.WriteString(q)
			sb.WriteString(" ")
		}
		if dd.VLA {
			sb.WriteString("*")
		} else if dd.Size != nil {
			sb.WriteString(ExprString(dd.Size))
		}
		sb.WriteString("]")
		return sb.String()
	case FuncDeclarator:
		inner := declaratorText(dd.Inner)
		if needsGrouping(dd.Inner) {
			inner = "(" + inner + ")"
		}
		var sb strings.Builder
		sb.WriteString(inner)
		sb.WriteString("(")
		switch {
		case len(dd.OldStyle) > 0:
			sb.WriteString(strings.Join(dd.OldStyle, ", "))
		case dd.Unspecified:
			// K&R empty parens
		case len(dd.Params) == 0 && !dd.Variadic:
			sb.WriteString("void")
		default:
			for i, param := range dd.Params {
				if i > 0 {
					sb.WriteString(", ")
				}
				sb.WriteString(DeclarationString(param.Spec, param.Decl))
			}
			if dd.Variadic {
				sb.WriteString(", ...")
			}
		}
		sb.WriteString(")")
		return sb.String()
	case AttrDeclarator:
		var sb strings.Builder
		for _, a := range dd.Attrs {
			sb.WriteString(attrText(a))
			sb.WriteString(" ")
		}
		sb.WriteString(declaratorText(dd.Inner))
		return sb.String()
	}
	return "/* unknown declarator */"
}

// needsGrouping reports whether a declarator must be parenthesized when
// an array or function suffix is applied around it.
func needsGrouping(d Declarator) bool {
	switch dd := d.(type) {
	case PointerDeclarator:
		return true
	case AttrDeclarator:
		return needsGrouping(dd.Inner)
	}
	return false
}

func initializerText(init Initializer) string {
	switch i := init.(type) {
	case InitExpr:
		return ExprString(i.Expr)
	case InitList:
		var sb strings.Builder
		sb.WriteString("{")
		for n, item := range i.Items {
			if n > 0 {
				sb.WriteString(", ")
			}
			for _, desg := range item.Designators {
				if desg.Field != "" {
					sb.WriteString(".")
					sb.WriteString(desg.Field)
				} else {
					sb.WriteString("[")
					sb.WriteString(ExprString(desg.Index))
					sb.WriteString("]")
				}
			}
			if len(item.Designators) > 0 {
				sb.WriteString(" = ")
			}
			sb.WriteString(initializerText(item.Init))
		}
		sb.WriteString("}")
		return sb.String()
	}
	return "/* unknown initializer */"
}

func (p *Printer) printBlock(b *Block) {
	p.writeIndent()
	fmt.Fprintln(p.w, "{")
	p.indent++
	for _, stmt := range b.Items {
		p.printStmt(stmt)
	}
	p.indent--
	p.writeIndent()
	fmt.Fprintln(p.w, "}")
}

func (p *Printer) printStmt(stmt Stmt) {
	p.writeIndent()
	switch s := stmt.(type) {
	case Return:
		fmt.Fprint(p.w, "return")
		if s.Expr != nil {
			fmt.Fprint(p.w, " ")
			fmt.Fprint(p.w, ExprString(s.Expr))
		}
		fmt.Fprintln(p.w, ";")
	case Computation:
		fmt.Fprint(p.w, ExprString(s.Expr))
		fmt.Fprintln(p.w, ";")
	case Null:
		fmt.Fprintln(p.w, ";")
	case If:
		fmt.Fprintf(p.w, "if (%s)\n", ExprString(s.Cond))
		p.indent++
		p.printStmt(s.Then)
		p.indent--
		if s.Else != nil {
			p.writeIndent()
			fmt.Fprintln(p.w, "else")
			p.indent++
			p.printStmt(s.Else)
			p.indent--
		}
	case While:
		fmt.Fprintf(p.w, "while (%s)\n", ExprString(s.Cond))
		p.indent++
		p.printStmt(s.Body)
		p.indent--
	case DoWhile:
		fmt.Fprintln(p.w, "do")
		p.indent++
		p.printStmt(s.Body)
		p.indent--
		p.writeIndent()
		fmt.Fprintf(p.w, "while (%s);\n", ExprString(s.Cond))
	case For:
		fmt.Fprint(p.w, "for (")
		if s.InitDecl != nil {
			fmt.Fprint(p.w, declarationText(s.InitDecl))
		} else if s.Init != nil {
			fmt.Fprint(p.w, ExprString(s.Init))
		}
		fmt.Fprint(p.w, "; ")
		if s.Cond != nil {
			fmt.Fprint(p.w, ExprString(s.Cond))
		}
		fmt.Fprint(p.w, "; ")
		if s.Step != nil {
			fmt.Fprint(p.w, ExprString(s.Step))
		}
		fmt.Fprintln(p.w, ")")
		p.indent++
		p.printStmt(s.Body)
		p.indent--
	case Switch:
		fmt.Fprintf(p.w, "switch (%s)\n", ExprString(s.Expr))
		p.indent++
		p.printStmt(s.Body)
		p.indent--
	case Case:
		fmt.Fprintf(p.w, "case %s:\n", ExprString(s.Expr))
		p.indent++
		p.printStmt(s.Stmt)
		p.indent--
	case Default:
		fmt.Fprintln(p.w, "default:")
		p.indent++
		p.printStmt(s.Stmt)
		p.indent--
	case Label:
		fmt.Fprintf(p.w, "%s:\n", s.Name)
		p.printStmt(s.Stmt)
	case Goto:
		fmt.Fprintf(p.w, "goto %s;\n", s.Label)
	case Break:
		fmt.Fprintln(p.w, "break;")
	case Continue:
		fmt.Fprintln(p.w, "continue;")
	case Block:
		p.indent--
		p.printBlock(&s)
		p.indent++
	case *Block:
		p.indent--
		p.printBlock(s)
		p.indent++
	case DeclStmt:
		fmt.Fprint(p.w, declarationText(s.Decl))
		fmt.Fprintln(p.w, ";")
	case PragmaStmt:
		// A collapsed nest carries the same capture and prints its own
		// directive line.
		if cl, ok := s.Stmt.(CollapsedLoop); ok {
			p.printCollapsedLoop(cl)
			break
		}
		fmt.Fprintf(p.w, "#pragma %s", s.Capture.Name)
		for _, tok := range s.Capture.Tokens {
			fmt.Fprintf(p.w, " %s", tok.Literal)
		}
		fmt.Fprintln(p.w)
		if s.Stmt != nil {
			p.printStmt(s.Stmt)
		}
	case CollapsedLoop:
		p.printCollapsedLoop(s)
	default:
		fmt.Fprintf(p.w, "/* unknown stmt %T */;\n", stmt)
	}
}

// printCollapsedLoop renders the flattened nest back as nested loops,
// interleaving any intervening statements where they were found.
func (p *Printer) printCollapsedLoop(c CollapsedLoop) {
	fmt.Fprintf(p.w, "#pragma %s", c.Directive.Name)
	for _, tok := range c.Directive.Tokens {
		fmt.Fprintf(p.w, " %s", tok.Literal)
	}
	fmt.Fprintln(p.w)
	closes := 0
	for _, level := range c.Levels {
		for _, pre := range level.Pre {
			p.printStmt(pre)
		}
		p.writeIndent()
		fmt.Fprint(p.w, "for (")
		if level.Decl != nil {
			fmt.Fprint(p.w, declarationText(level.Decl))
		} else if level.Init != nil {
			fmt.Fprint(p.w, ExprString(level.Init))
		}
		fmt.Fprint(p.w, "; ")
		if level.Cond != nil {
			fmt.Fprint(p.w, ExprString(level.Cond))
		}
		fmt.Fprint(p.w, "; ")
		if level.Step != nil {
			fmt.Fprint(p.w, ExprString(level.Step))
		}
		fmt.Fprintln(p.w, ")")
		p.indent++
		closes++
	}
	p.printStmt(c.Body)
	p.indent -= closes
}

// ExprString renders an expression to C source text
func ExprString(expr Expr) string {
	var sb strings.Builder
	writeExpr(&sb, expr)
	return sb.String()
}

func writeExpr(sb *strings.Builder, expr Expr) {
	switch e := expr.(type) {
	case Constant:
		fmt.Fprintf(sb, "%d", e.Value)
	case FloatConstant:
		sb.WriteString(e.Text)
	case StringLiteral:
		fmt.Fprintf(sb, "\"%s\"", e.Value)
	case CharLiteral:
		fmt.Fprintf(sb, "'%s'", e.Value)
	case Variable:
		sb.WriteString(e.Name)
	case Unary:
		switch e.Op {
		case OpPostInc, OpPostDec:
			writeExpr(sb, e.Expr)
			sb.WriteString(e.Op.String())
		default:
			sb.WriteString(e.Op.String())
			writeExpr(sb, e.Expr)
		}
	case Binary:
		writeExpr(sb, e.Left)
		fmt.Fprintf(sb, " %s ", e.Op)
		writeExpr(sb, e.Right)
	case Assign:
		writeExpr(sb, e.Left)
		fmt.Fprintf(sb, " %s ", e.Op)
		writeExpr(sb, e.Right)
	case Paren:
		sb.WriteString("(")
		writeExpr(sb, e.Expr)
		sb.WriteString(")")
	case Conditional:
		writeExpr(sb, e.Cond)
		sb.WriteString(" ? ")
		writeExpr(sb, e.Then)
		sb.WriteString(" : ")
		writeExpr(sb, e.Else)
	case MinMax:
		if e.IsMax {
			sb.WriteString("/*max*/ ")
		} else {
			sb.WriteString("/*min*/ ")
		}
		writeExpr(sb, e.Arg)
	case Comma:
		for i, sub := range e.Exprs {
			if i > 0 {
				sb.WriteString(", ")
			}
			writeExpr(sb, sub)
		}
	case Cast:
		fmt.Fprintf(sb, "(%s)", TypeNameString(e.Type))
		writeExpr(sb, e.Expr)
	case CompoundLiteral:
		fmt.Fprintf(sb, "(%s)", TypeNameString(e.Type))
		sb.WriteString(initializerText(e.Init))
	case SizeofExpr:
		sb.WriteString("sizeof ")
		writeExpr(sb, e.Expr)
	case SizeofType:
		fmt.Fprintf(sb, "sizeof(%s)", TypeNameString(e.Type))
	case AlignofType:
		fmt.Fprintf(sb, "_Alignof(%s)", TypeNameString(e.Type))
	case Call:
		writeExpr(sb, e.Func)
		sb.WriteString("(")
		for i, arg := range e.Args {
			if i > 0 {
				sb.WriteString(", ")
			}
			writeExpr(sb, arg)
		}
		sb.WriteString(")")
	case Index:
		writeExpr(sb, e.Array)
		sb.WriteString("[")
		writeExpr(sb, e.Index)
		sb.WriteString("]")
	case Member:
		writeExpr(sb, e.Expr)
		if e.IsArrow {
			sb.WriteString("->")
		} else {
			sb.WriteString(".")
		}
		sb.WriteString(e.Name)
	default:
		fmt.Fprintf(sb, "/* unknown expr %T */", expr)
	}
}
