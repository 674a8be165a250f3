// Package symtab tracks name bindings across lexical scopes. The parser
// only reads it while classifying tokens; mutation happens when the
// semantic layer commits a finished declaration.
package symtab

// BindingKind distinguishes what a bound name denotes
type BindingKind int

const (
	Ordinary BindingKind = iota // variable, function, enum constant
	Typedef                     // typedef name
	Tag                         // struct/union/enum tag
	AddrSpace                   // named address-space qualifier
)

func (k BindingKind) String() string {
	switch k {
	case Typedef:
		return "typedef"
	case Tag:
		return "tag"
	case AddrSpace:
		return "addrspace"
	}
	return "ordinary"
}

type scope struct {
	names map[string]BindingKind
	tags  map[string]BindingKind
}

// Table is a stack of scopes. Version increases on every mutation so
// cached classification answers can be checked for staleness.
type Table struct {
	scopes  []scope
	version uint64
}

// New creates a Table with the file scope already entered
func New() *Table {
	t := &Table{}
	t.EnterScope()
	return t
}

// Version returns the mutation counter
func (t *Table) Version() uint64 {
	return t.version
}

// EnterScope pushes a fresh innermost scope
func (t *Table) EnterScope() {
	t.scopes = append(t.scopes, scope{
		names: make(map[string]BindingKind),
		tags:  make(map[string]BindingKind),
	})
	t.version++
}

// LeaveScope pops the innermost scope. Popping the file scope is an
// internal error.
func (t *Table) LeaveScope() {
	if len(t.scopes) <= 1 {
		panic("symtab: leaving file scope")
	}
	t.scopes = t.scopes[:len(t.scopes)-1]
	t.version++
}

// Depth returns the number of open scopes
func (t *Table) Depth() int {
	return len(t.scopes)
}

// Declare binds name in the innermost scope, shadowing any outer binding
func (t *Table) Declare(name string, kind BindingKind) {
	if name == "" {
		return
	}
	cur := t.scopes[len(t.scopes)-1]
	if kind == Tag {
		cur.tags[name] = kind
	} else {
		cur.names[name] = kind
	}
	t.version++
}

// Lookup resolves name against the ordinary namespace, innermost first
func (t *Table) Lookup(name string) (BindingKind, bool) {
	for i := len(t.scopes) - 1; i >= 0; i-- {
		if kind, ok := t.scopes[i].names[name]; ok {
			return kind, true
		}
	}
	return Ordinary, false
}

// LookupTag resolves name against the tag namespace
func (t *Table) LookupTag(name string) (BindingKind, bool) {
	for i := len(t.scopes) - 1; i >= 0; i-- {
		if kind, ok := t.scopes[i].tags[name]; ok {
			return kind, true
		}
	}
	return Tag, false
}

// IsType reports whether name currently denotes a typedef name
func (t *Table) IsType(name string) bool {
	kind, ok := t.Lookup(name)
	return ok && kind == Typedef
}
