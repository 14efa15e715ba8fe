package scope

import (
	"cjsflat/internal/engine/parser"

	sitter "github.com/tree-sitter/go-tree-sitter"
)

type scopeKey struct {
	start, end uint
	kind       string
}

func keyOf(node *sitter.Node) scopeKey {
	return scopeKey{start: node.StartByte(), end: node.EndByte(), kind: node.Kind()}
}

// builder runs two passes: declare builds scopes and hoists declarations,
// resolve binds every identifier reference through the finished chains.
type builder struct {
	file    *parser.SourceFile
	arena   *Arena
	scopeOf map[scopeKey]*Scope

	stmt      Span
	stmtIndex int
}

// Build constructs the scope arena for a parsed module.
func Build(file *parser.SourceFile) *Arena {
	root := file.Root()
	a := &Arena{
		refs:  make(map[uint]*Binding),
		decls: make(map[uint]*Binding),
	}
	a.Root = a.newScope(KindModule, SpanOf(root), nil)
	if root == nil {
		return a
	}

	b := &builder{file: file, arena: a, scopeOf: make(map[scopeKey]*Scope)}
	b.scopeOf[keyOf(root)] = a.Root

	for i := uint(0); i < root.NamedChildCount(); i++ {
		child := root.NamedChild(i)
		b.stmt, b.stmtIndex = SpanOf(child), int(i)
		b.declare(child, a.Root, a.Root)
	}
	for i := uint(0); i < root.NamedChildCount(); i++ {
		child := root.NamedChild(i)
		b.stmt, b.stmtIndex = SpanOf(child), int(i)
		b.resolve(child, a.Root)
	}
	return a
}

func (b *builder) text(node *sitter.Node) string {
	return b.file.Text(node)
}

func (b *builder) enter(kind Kind, node *sitter.Node, parent *Scope) *Scope {
	s := b.arena.newScope(kind, SpanOf(node), parent)
	b.scopeOf[keyOf(node)] = s
	return s
}

func (b *builder) bind(s *Scope, ident *sitter.Node, kind DeclKind, decl Decl) {
	decl.Kind = kind
	decl.Span = SpanOf(ident)
	decl.Stmt = b.stmt
	decl.StmtIndex = b.stmtIndex
	if decl.Node.IsZero() {
		decl.Node = decl.Span
	}
	binding := s.declare(b.text(ident), kind, decl)
	b.arena.decls[ident.StartByte()] = binding
}

func (b *builder) declareChildren(node *sitter.Node, cur, fn *Scope) {
	for i := uint(0); i < node.NamedChildCount(); i++ {
		b.declare(node.NamedChild(i), cur, fn)
	}
}

// declare is the first pass. cur is the innermost scope, fn the nearest
// function (or module) scope that var declarations hoist to.
func (b *builder) declare(node *sitter.Node, cur, fn *Scope) {
	if node == nil {
		return
	}
	switch node.Kind() {
	case "function_declaration", "generator_function_declaration":
		if name := node.ChildByFieldName("name"); name != nil {
			b.bind(cur, name, DeclFunction, Decl{Node: SpanOf(node)})
		}
		b.function(node, cur)

	case "function_expression", "function", "generator_function", "arrow_function", "method_definition":
		b.function(node, cur)

	case "class_declaration":
		if name := node.ChildByFieldName("name"); name != nil {
			b.bind(cur, name, DeclClass, Decl{Node: SpanOf(node)})
		}
		b.declareExcept(node, cur, fn, node.ChildByFieldName("name"))

	case "class":
		name := node.ChildByFieldName("name")
		if name == nil {
			b.declareChildren(node, cur, fn)
			return
		}
		s := b.enter(KindClass, node, cur)
		b.bind(s, name, DeclClass, Decl{Node: SpanOf(node)})
		b.declareExcept(node, s, fn, name)

	case "variable_declaration":
		b.declarators(node, cur, fn, DeclVar)

	case "lexical_declaration":
		kind := DeclLet
		if k := node.ChildByFieldName("kind"); k != nil && b.text(k) == "const" {
			kind = DeclConst
		}
		b.declarators(node, cur, cur, kind)

	case "statement_block", "switch_body", "class_static_block":
		s := b.enter(KindBlock, node, cur)
		b.declareChildren(node, s, fn)

	case "for_statement":
		s := b.enter(KindBlock, node, cur)
		b.declareChildren(node, s, fn)

	case "for_in_statement":
		s := b.enter(KindBlock, node, cur)
		left := node.ChildByFieldName("left")
		if kind := node.ChildByFieldName("kind"); kind != nil && left != nil {
			switch b.text(kind) {
			case "var":
				b.pattern(left, fn, DeclVar, Decl{}, cur, fn)
			case "const":
				b.pattern(left, s, DeclConst, Decl{}, s, fn)
			default:
				b.pattern(left, s, DeclLet, Decl{}, s, fn)
			}
			b.declareExcept(node, s, fn, left)
			return
		}
		b.declareChildren(node, s, fn)

	case "catch_clause":
		s := b.enter(KindCatch, node, cur)
		if param := node.ChildByFieldName("parameter"); param != nil {
			b.pattern(param, s, DeclCatch, Decl{}, s, fn)
		}
		if body := node.ChildByFieldName("body"); body != nil {
			b.declareChildren(body, s, fn)
		}

	default:
		b.declareChildren(node, cur, fn)
	}
}

func (b *builder) declareExcept(node *sitter.Node, cur, fn *Scope, skip *sitter.Node) {
	for i := uint(0); i < node.NamedChildCount(); i++ {
		child := node.NamedChild(i)
		if skip != nil && child.StartByte() == skip.StartByte() && child.EndByte() == skip.EndByte() {
			continue
		}
		b.declare(child, cur, fn)
	}
}

func (b *builder) declarators(node *sitter.Node, cur, target *Scope, kind DeclKind) {
	count := 0
	for i := uint(0); i < node.NamedChildCount(); i++ {
		if node.NamedChild(i).Kind() == "variable_declarator" {
			count++
		}
	}
	fn := target
	for i := uint(0); i < node.NamedChildCount(); i++ {
		decl := node.NamedChild(i)
		if decl.Kind() != "variable_declarator" {
			continue
		}
		info := Decl{Node: SpanOf(decl), Single: count == 1}
		value := decl.ChildByFieldName("value")
		if value != nil {
			info.Value = SpanOf(value)
		}
		if name := decl.ChildByFieldName("name"); name != nil {
			b.pattern(name, target, kind, info, cur, fn)
		}
		if value != nil {
			b.declare(value, cur, fn)
		}
	}
}

// pattern declares every identifier bound by a (possibly destructuring)
// pattern into target. Default-value expressions are walked in cur.
func (b *builder) pattern(node *sitter.Node, target *Scope, kind DeclKind, info Decl, cur, fn *Scope) {
	if node == nil {
		return
	}
	switch node.Kind() {
	case "identifier":
		b.bind(target, node, kind, info)
	case "shorthand_property_identifier_pattern":
		info.Shorthand = true
		b.bind(target, node, kind, info)
	case "object_pattern", "array_pattern":
		for i := uint(0); i < node.NamedChildCount(); i++ {
			b.pattern(node.NamedChild(i), target, kind, info, cur, fn)
		}
	case "pair_pattern":
		if key := node.ChildByFieldName("key"); key != nil && key.Kind() == "computed_property_name" {
			b.declare(key, cur, fn)
		}
		b.pattern(node.ChildByFieldName("value"), target, kind, info, cur, fn)
	case "assignment_pattern", "object_assignment_pattern":
		b.pattern(node.ChildByFieldName("left"), target, kind, info, cur, fn)
		b.declare(node.ChildByFieldName("right"), cur, fn)
	case "rest_pattern":
		for i := uint(0); i < node.NamedChildCount(); i++ {
			b.pattern(node.NamedChild(i), target, kind, info, cur, fn)
		}
	}
}

func (b *builder) function(node *sitter.Node, cur *Scope) {
	s := b.enter(KindFunction, node, cur)
	if node.Kind() == "function_expression" || node.Kind() == "function" || node.Kind() == "generator_function" {
		if name := node.ChildByFieldName("name"); name != nil {
			b.bind(s, name, DeclFunction, Decl{Node: SpanOf(node)})
		}
	}
	if name := node.ChildByFieldName("name"); name != nil && name.Kind() == "computed_property_name" {
		b.declare(name, cur, cur)
	}
	if param := node.ChildByFieldName("parameter"); param != nil {
		b.pattern(param, s, DeclParam, Decl{}, s, s)
	}
	if params := node.ChildByFieldName("parameters"); params != nil {
		for i := uint(0); i < params.NamedChildCount(); i++ {
			b.pattern(params.NamedChild(i), s, DeclParam, Decl{}, s, s)
		}
	}
	body := node.ChildByFieldName("body")
	if body == nil {
		return
	}
	if body.Kind() == "statement_block" {
		// The body block shares the function scope.
		b.declareChildren(body, s, s)
		return
	}
	b.declare(body, s, s)
}

// resolve is the second pass. It switches scopes at every node the first
// pass opened a scope for.
func (b *builder) resolve(node *sitter.Node, cur *Scope) {
	if node == nil {
		return
	}
	if s, ok := b.scopeOf[keyOf(node)]; ok && s != cur && node.Kind() != "program" {
		cur = s
	}
	switch node.Kind() {
	case "identifier":
		b.reference(node, cur, false)
		return
	case "shorthand_property_identifier", "shorthand_property_identifier_pattern":
		b.reference(node, cur, true)
		return
	}
	for i := uint(0); i < node.NamedChildCount(); i++ {
		b.resolve(node.NamedChild(i), cur)
	}
}

func (b *builder) reference(ident *sitter.Node, cur *Scope, shorthand bool) {
	if _, declared := b.arena.decls[ident.StartByte()]; declared {
		return
	}
	ref := Ref{
		Span:       SpanOf(ident),
		Shorthand:  shorthand,
		Write:      isWriteTarget(ident),
		InFunction: cur.InFunction(),
		Stmt:       b.stmt,
		StmtIndex:  b.stmtIndex,
	}
	name := b.text(ident)
	binding := cur.Lookup(name)
	if binding == nil {
		b.arena.unresolved = append(b.arena.unresolved, Unresolved{Name: name, Ref: ref})
		return
	}
	binding.Refs = append(binding.Refs, ref)
	if ref.Write {
		binding.Reassigned = true
	}
	b.arena.refs[ident.StartByte()] = binding
}

// isWriteTarget reports whether node is assigned to, climbing through
// destructuring patterns.
func isWriteTarget(node *sitter.Node) bool {
	child := node
	for parent := node.Parent(); parent != nil; child, parent = parent, parent.Parent() {
		switch parent.Kind() {
		case "assignment_expression", "augmented_assignment_expression", "for_in_statement":
			return sameNode(parent.ChildByFieldName("left"), child)
		case "update_expression":
			return true
		case "assignment_pattern", "object_assignment_pattern":
			if sameNode(parent.ChildByFieldName("right"), child) {
				return false
			}
		case "pair_pattern":
			if sameNode(parent.ChildByFieldName("key"), child) {
				return false
			}
		case "object_pattern", "array_pattern", "rest_pattern", "parenthesized_expression":
		default:
			return false
		}
	}
	return false
}

func sameNode(a, b *sitter.Node) bool {
	if a == nil || b == nil {
		return false
	}
	return a.StartByte() == b.StartByte() && a.EndByte() == b.EndByte() && a.Kind() == b.Kind()
}
