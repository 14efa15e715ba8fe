package rewrite

import (
	"strings"

	"cjsflat/internal/core/diag"
	"cjsflat/internal/engine/exports"
	"cjsflat/internal/engine/jsdoc"
	"cjsflat/internal/engine/scope"

	sitter "github.com/tree-sitter/go-tree-sitter"
)

// inlining turns the declaration of an exported local into the export
// itself, e.g. `function Hello(){}` into `var module$i0 = function(){};`.
type inlining struct {
	record exports.Record
	target string
	// assign is the text that replaces the declaration head, such as
	// "var module$i0 = " or "module$i0.Hello = ".
	assign string
	decl   scope.Decl
	stmt   *sitter.Node
}

type emitter struct {
	c        *Context
	m        *Module
	root     *sitter.Node
	info     *exports.Info
	commonJS bool

	inlined  map[*scope.Binding]*inlining
	ordered  []*inlining
	consumed map[int]bool
	renames  map[*scope.Binding]string
	docs     map[uint]string
}

func (c *Context) emit(m *Module) Segment {
	e := &emitter{
		c:        c,
		m:        m,
		root:     m.file.Root(),
		info:     m.exports,
		commonJS: m.IsCommonJS(c.graph.IsRequired(string(m.ID))),
		inlined:  make(map[*scope.Binding]*inlining),
		consumed: make(map[int]bool),
		renames:  make(map[*scope.Binding]string),
		docs:     make(map[uint]string),
	}
	m.commonJS = e.commonJS
	e.planInlining()
	e.planRenames()
	e.rewriteDocs()
	return Segment{
		ID:        m.ID,
		Path:      m.Path,
		Name:      m.Name,
		Program:   e.render(false),
		Annotated: e.render(true),
	}
}

// singleRoot reports a module whose only root export can declare the
// binding with an initializer.
func (e *emitter) singleRoot() bool {
	return e.info.RootAssignments == 1 && !e.info.LeadingProperty
}

func (e *emitter) recordTarget(r exports.Record) string {
	return e.m.Name + propAccess(r.Path)
}

// valueBinding returns the top-level binding an export value names, if the
// value is a plain identifier.
func (e *emitter) valueBinding(r exports.Record) *scope.Binding {
	if r.Value == nil {
		return nil
	}
	switch r.Value.Kind() {
	case "identifier", "shorthand_property_identifier":
	default:
		return nil
	}
	b := e.m.arena.ResolveAt(r.Value.StartByte())
	if b == nil || b.Scope != e.m.arena.Root {
		return nil
	}
	return b
}

func (e *emitter) planInlining() {
	records := e.info.Records
	counts := make(map[*scope.Binding]int)
	for _, r := range records {
		if b := e.valueBinding(r); b != nil {
			counts[b]++
		}
	}

	for i, r := range records {
		b := e.valueBinding(r)
		if b == nil || counts[b] != 1 || !b.DeclaredOnce() || b.Reassigned {
			continue
		}
		if r.IsRoot() && e.info.LeadingProperty {
			continue
		}
		if !r.IsRoot() && e.info.Shape.Kind != exports.Namespace {
			continue
		}
		decl := b.Decls[0]
		stmt, ok := e.inlinableDecl(decl)
		if !ok || decl.StmtIndex >= r.StmtIndex {
			continue
		}

		key := r.PathKey()
		next := -1
		blocked := false
		for j, other := range records {
			if j == i || other.PathKey() != key {
				continue
			}
			if other.StmtIndex >= decl.StmtIndex && other.StmtIndex <= r.StmtIndex {
				blocked = true
			}
			if j > i && next < 0 {
				next = other.StmtIndex
			}
		}
		if blocked || !e.refsAllowInlining(b, r, decl, next) {
			continue
		}

		in := &inlining{record: r, target: e.recordTarget(r), decl: decl, stmt: stmt}
		switch {
		case r.IsRoot() && e.singleRoot():
			in.assign = "var " + in.target + " = "
		default:
			in.assign = in.target + " = "
		}
		e.inlined[b] = in
		e.ordered = append(e.ordered, in)
		e.consumed[r.Index] = true
	}
}

// inlinableDecl accepts a top-level function or class declaration, or a
// statement declaring exactly one plain identifier with an initializer.
func (e *emitter) inlinableDecl(decl scope.Decl) (*sitter.Node, bool) {
	stmt := e.root.NamedChild(uint(decl.StmtIndex))
	if stmt == nil {
		return nil, false
	}
	switch decl.Kind {
	case scope.DeclFunction, scope.DeclClass:
		return stmt, scope.SpanOf(stmt) == decl.Node
	case scope.DeclVar, scope.DeclLet, scope.DeclConst:
		switch stmt.Kind() {
		case "variable_declaration", "lexical_declaration":
		default:
			return nil, false
		}
		return stmt, decl.Single && decl.HasValue() && decl.Node.Start == decl.Span.Start
	}
	return nil, false
}

// refsAllowInlining checks that every other use of the local sees the same
// value after the declaration becomes the export. next is the statement
// index of the following export to the same target, or -1.
func (e *emitter) refsAllowInlining(b *scope.Binding, r exports.Record, decl scope.Decl, next int) bool {
	exportRef := scope.SpanOf(r.Value)
	for _, ref := range b.Refs {
		if ref.Span == exportRef {
			continue
		}
		if ref.InFunction {
			if next >= 0 {
				return false
			}
			// An inlined function declaration is no longer hoisted: a call
			// made before its statement runs must not reach this reference.
			if decl.Kind == scope.DeclFunction && !within(ref.Span, decl.Node) && e.runsCodeBefore(decl.StmtIndex) {
				return false
			}
			continue
		}
		if ref.StmtIndex < decl.StmtIndex {
			return false
		}
		if next >= 0 && ref.StmtIndex >= next {
			return false
		}
	}
	return true
}

// runsCodeBefore reports whether any top-level statement ahead of index
// executes when the module loads.
func (e *emitter) runsCodeBefore(index int) bool {
	for i := 0; i < index; i++ {
		stmt := e.root.NamedChild(uint(i))
		if stmt == nil {
			continue
		}
		switch stmt.Kind() {
		case "function_declaration", "generator_function_declaration", "comment", "empty_statement":
		default:
			return true
		}
	}
	return false
}

func within(inner, outer scope.Span) bool {
	return inner.Start >= outer.Start && inner.End <= outer.End
}

func (e *emitter) planRenames() {
	names := e.c.names
	owner := string(e.m.ID)
	for _, name := range e.m.arena.Root.Names() {
		b := e.m.arena.Root.Bindings[name]
		if _, ok := e.inlined[b]; ok {
			continue
		}
		if e.commonJS || names.IsSynthesized(name) || !names.Claim(name, owner) {
			e.renames[b] = names.Disambiguate(name, owner)
		}
	}
}

// refText is what a reference to a top-level binding becomes.
func (e *emitter) refText(b *scope.Binding) (string, bool) {
	if in, ok := e.inlined[b]; ok {
		return in.target, true
	}
	if target, ok := e.m.aliases[b]; ok {
		return target, true
	}
	if name, ok := e.renames[b]; ok {
		return name, true
	}
	return "", false
}

type docLookup struct {
	e     *emitter
	scope *scope.Scope
}

func (l docLookup) Name(head string) (string, bool) {
	b := l.scope.Lookup(head)
	if b == nil || b.Scope != l.e.m.arena.Root {
		return "", false
	}
	return l.e.refText(b)
}

func (l docLookup) Module(specifier string) (string, bool) {
	id, err := l.e.c.resolver.Resolve(specifier, l.e.m.Path)
	if err != nil {
		return "", false
	}
	return l.e.c.names.NameFor(string(id)), true
}

func (e *emitter) rewriteDocs() {
	src := e.m.file.Source
	for _, span := range e.m.comments {
		text := string(src[span.Start:span.End])
		if !jsdoc.IsDoc(text) {
			continue
		}
		out, unresolved := jsdoc.Rewrite(text, docLookup{e: e, scope: e.m.arena.ScopeAt(span.Start)})
		e.docs[span.Start] = out
		for _, u := range unresolved {
			loc := e.m.file.LocationAt(span.Start + uint(u.Offset))
			e.c.diags.Add(e.c.opts.Level.New(diag.KindUnresolvedSpecifier, loc, "cannot resolve type path %q from %s", u.Specifier, e.m.Path))
		}
	}
}

func (e *emitter) render(keepDocs bool) string {
	ed := newEditor(e.m.file.Source)
	e.identifierEdits(ed)
	for _, span := range e.m.comments {
		doc, ok := e.docs[span.Start]
		if !ok {
			continue
		}
		if keepDocs {
			ed.replace(span, doc)
		} else {
			ed.remove(span)
		}
	}
	e.statementEdits(ed)
	if header := e.header(keepDocs); header != "" {
		ed.insert(0, header)
	}
	return ed.renderAll()
}

// identifierEdits rewrites require calls, export object reads and every
// reference to a renamed, aliased or inlined top-level binding.
func (e *emitter) identifierEdits(ed *editor) {
	for _, site := range e.m.requires {
		if site.Resolved {
			ed.replace(scope.SpanOf(site.Call), e.c.names.NameFor(string(site.Target)))
		}
	}
	for _, ref := range e.m.moduleRefs {
		ed.replace(ref.Span, e.m.Name)
	}
	for _, name := range e.m.arena.Root.Names() {
		b := e.m.arena.Root.Bindings[name]
		if renamed, ok := e.renames[b]; ok {
			for _, d := range b.Decls {
				ed.replace(d.Span, shorthand(d.Shorthand, name, renamed))
			}
		}
		text, ok := e.refText(b)
		if !ok {
			continue
		}
		for _, ref := range b.Refs {
			ed.replace(ref.Span, shorthand(ref.Shorthand, name, text))
		}
	}
}

func shorthand(isShorthand bool, name, text string) string {
	if isShorthand {
		return name + ": " + text
	}
	return text
}

// statementEdits rewrites export statements and inlined declarations.
func (e *emitter) statementEdits(ed *editor) {
	src := e.m.file.Source
	for _, in := range e.ordered {
		switch in.decl.Kind {
		case scope.DeclFunction, scope.DeclClass:
			keyword := strings.TrimSpace(string(src[in.decl.Node.Start:in.decl.Span.Start]))
			ed.replace(scope.Span{Start: in.decl.Node.Start, End: in.decl.Span.End}, in.assign+keyword)
			ed.insert(in.decl.Node.End, ";")
		default:
			ed.replace(scope.Span{Start: in.stmt.StartByte(), End: in.decl.Value.Start}, in.assign)
		}
	}

	literals := make(map[uint][]exports.Record)
	var literalOrder []uint
	for _, r := range e.info.Records {
		if r.FromLiteral {
			start := r.Stmt.StartByte()
			if _, seen := literals[start]; !seen {
				literalOrder = append(literalOrder, start)
			}
			literals[start] = append(literals[start], r)
			continue
		}
		if e.consumed[r.Index] {
			ed.remove(scope.SpanOf(r.Stmt))
			continue
		}
		target := e.recordTarget(r)
		if r.IsRoot() && e.singleRoot() {
			target = "var " + target
		}
		ed.replace(scope.SpanOf(r.Left), target)
		for _, alias := range r.Aliases {
			ed.replace(alias, "")
		}
	}

	for _, start := range literalOrder {
		recs := literals[start]
		var lines []string
		for _, r := range recs {
			if e.consumed[r.Index] {
				continue
			}
			lines = append(lines, e.recordTarget(r)+" = "+e.literalValue(ed, r)+";")
		}
		span := scope.SpanOf(recs[0].Stmt)
		if len(lines) == 0 {
			ed.remove(span)
			continue
		}
		ed.replace(span, strings.Join(lines, "\n"))
	}
}

// literalValue renders the value of an expanded `{key: value}` pair with the
// identifier edits already applied, keeping comments after the colon.
func (e *emitter) literalValue(ed *editor, r exports.Record) string {
	if r.Value.Kind() == "shorthand_property_identifier" {
		if b := e.m.arena.ResolveAt(r.Value.StartByte()); b != nil {
			if text, ok := e.refText(b); ok {
				return text
			}
		}
		return e.m.file.Text(r.Value)
	}
	start, end := r.Value.StartByte(), r.Value.EndByte()
	if pair := r.Value.Parent(); pair != nil && pair.Kind() == "pair" {
		for i := uint(0); i < pair.ChildCount(); i++ {
			if child := pair.Child(i); child.Kind() == ":" {
				start = child.EndByte()
				break
			}
		}
	}
	return strings.TrimSpace(ed.render(start, end))
}

// header declares the module binding up front unless a single root export
// declares it in place.
func (e *emitter) header(keepDocs bool) string {
	name := e.m.Name
	constDoc := ""
	if keepDocs {
		constDoc = "/** @const */ "
	}
	switch {
	case e.info.Shape.Kind == exports.Namespace && e.info.HasExports():
		return constDoc + "var " + name + " = {};\n"
	case e.info.Shape.Kind == exports.Bare && e.info.LeadingProperty:
		return "var " + name + " = {};\n"
	case e.info.ReassignedRoot:
		return "var " + name + ";\n"
	case !e.info.HasExports() && e.commonJS:
		return constDoc + "var " + name + " = {};\n"
	}
	return ""
}
