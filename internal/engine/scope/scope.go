// Package scope builds an explicit lexical-scope arena for one module.
// Reference substitution during rewriting walks these scope chains instead of
// guessing from identifier text.
package scope

import (
	sitter "github.com/tree-sitter/go-tree-sitter"
)

// Span is a half-open byte range in the module source.
type Span struct {
	Start uint
	End   uint
}

func SpanOf(node *sitter.Node) Span {
	if node == nil {
		return Span{}
	}
	return Span{Start: node.StartByte(), End: node.EndByte()}
}

func (s Span) Contains(offset uint) bool {
	return offset >= s.Start && offset < s.End
}

func (s Span) Encloses(other Span) bool {
	return other.Start >= s.Start && other.End <= s.End
}

func (s Span) IsZero() bool {
	return s.Start == 0 && s.End == 0
}

type Kind uint8

const (
	KindModule Kind = iota
	KindFunction
	KindBlock
	KindCatch
	KindClass
)

type DeclKind uint8

const (
	DeclVar DeclKind = iota
	DeclLet
	DeclConst
	DeclFunction
	DeclClass
	DeclParam
	DeclCatch
)

// Decl is one declaration site of a binding.
type Decl struct {
	Kind DeclKind
	// Span covers the declared identifier.
	Span Span
	// Node covers the declaring construct: the function or class
	// declaration, the variable declarator, or the identifier itself for
	// parameters.
	Node Span
	// Value is the declarator initializer; zero when there is none.
	Value Span
	// Single is set when the declarator is the only one of its statement.
	Single bool
	// Shorthand marks `{name}` destructuring patterns.
	Shorthand bool
	Stmt      Span
	StmtIndex int
}

func (d Decl) HasValue() bool {
	return !d.Value.IsZero()
}

// Ref is one identifier occurrence that resolved to a binding (or to
// nothing, for free names).
type Ref struct {
	Span Span
	// Shorthand marks `{name}` object literal properties.
	Shorthand  bool
	Write      bool
	InFunction bool
	Stmt       Span
	StmtIndex  int
}

type Binding struct {
	Name       string
	Kind       DeclKind
	Scope      *Scope
	Decls      []Decl
	Refs       []Ref
	Reassigned bool
}

// DeclaredOnce reports a binding with a single declaration site.
func (b *Binding) DeclaredOnce() bool {
	return len(b.Decls) == 1
}

type Scope struct {
	ID       int
	Kind     Kind
	Span     Span
	Parent   *Scope
	Children []*Scope
	Bindings map[string]*Binding
	order    []string
}

// Lookup walks the scope chain outwards and returns the nearest binding for
// name, or nil when the name is free.
func (s *Scope) Lookup(name string) *Binding {
	for cur := s; cur != nil; cur = cur.Parent {
		if b, ok := cur.Bindings[name]; ok {
			return b
		}
	}
	return nil
}

// Names lists the scope's bindings in first-declaration order.
func (s *Scope) Names() []string {
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}

func (s *Scope) InFunction() bool {
	for cur := s; cur != nil; cur = cur.Parent {
		if cur.Kind == KindFunction {
			return true
		}
	}
	return false
}

// Unresolved is a reference to a name no scope declares.
type Unresolved struct {
	Name string
	Ref  Ref
}

// Arena holds every scope of one module, rooted at the module scope.
type Arena struct {
	Scopes []*Scope
	Root   *Scope

	refs       map[uint]*Binding
	decls      map[uint]*Binding
	unresolved []Unresolved
}

// ResolveAt returns the binding the identifier starting at offset refers to
// or declares.
func (a *Arena) ResolveAt(offset uint) *Binding {
	if b, ok := a.refs[offset]; ok {
		return b
	}
	return a.decls[offset]
}

// DeclaredAt returns the binding declared by the identifier at offset.
func (a *Arena) DeclaredAt(offset uint) *Binding {
	return a.decls[offset]
}

// IsFree reports whether the identifier starting at offset is a reference to
// an undeclared name.
func (a *Arena) IsFree(offset uint) bool {
	_, bound := a.refs[offset]
	_, declared := a.decls[offset]
	return !bound && !declared
}

// ScopeAt returns the innermost scope whose span contains offset.
func (a *Arena) ScopeAt(offset uint) *Scope {
	cur := a.Root
	for {
		var next *Scope
		for _, child := range cur.Children {
			if child.Span.Contains(offset) {
				next = child
				break
			}
		}
		if next == nil {
			return cur
		}
		cur = next
	}
}

func (a *Arena) Unresolved() []Unresolved {
	out := make([]Unresolved, len(a.unresolved))
	copy(out, a.unresolved)
	return out
}

func (a *Arena) newScope(kind Kind, span Span, parent *Scope) *Scope {
	s := &Scope{
		ID:       len(a.Scopes),
		Kind:     kind,
		Span:     span,
		Parent:   parent,
		Bindings: make(map[string]*Binding),
	}
	a.Scopes = append(a.Scopes, s)
	if parent != nil {
		parent.Children = append(parent.Children, s)
	}
	return s
}

func (s *Scope) declare(name string, kind DeclKind, decl Decl) *Binding {
	b, ok := s.Bindings[name]
	if !ok {
		b = &Binding{Name: name, Kind: kind, Scope: s}
		s.Bindings[name] = b
		s.order = append(s.order, name)
	}
	b.Decls = append(b.Decls, decl)
	return b
}
