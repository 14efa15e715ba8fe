// Package typecheck runs the constructor checks that depend on rewritten
// names over a flattened program: call arity of `new`, `@type` initializers
// and `@extends` targets.
package typecheck

import (
	"fmt"
	"strings"

	"cjsflat/internal/core/diag"
	"cjsflat/internal/engine/jsdoc"
	"cjsflat/internal/engine/parser"

	sitter "github.com/tree-sitter/go-tree-sitter"
)

// constructor is the call signature of a `@constructor` function.
type constructor struct {
	Name string
	Min  int
	// Max is -1 when a rest parameter accepts any number of arguments.
	Max int
}

type Checker struct {
	parser *parser.Parser
	level  diag.Level
}

func New(p *parser.Parser, level diag.Level) *Checker {
	return &Checker{parser: p, level: level}
}

// Check parses program as the file name and reports its diagnostics in
// document order.
func (c *Checker) Check(name, program string) ([]diag.Diagnostic, error) {
	file, err := c.parser.ParseFile(name, []byte(program))
	if err != nil {
		return nil, err
	}
	defer file.Close()

	run := &check{file: file, level: c.level, ctors: make(map[string]*constructor)}
	run.collect()
	run.verify()
	diag.Sort(run.diags)
	return run.diags, nil
}

type check struct {
	file  *parser.SourceFile
	level diag.Level
	ctors map[string]*constructor
	diags []diag.Diagnostic
}

func (k *check) report(kind diag.Kind, node *sitter.Node, format string, args ...any) {
	k.diags = append(k.diags, k.level.New(kind, k.file.Location(node), format, args...))
}

// collect records constructors and their aliases in document order, so an
// alias sees the constructors defined before it.
func (k *check) collect() {
	parser.NewWalker(map[string]parser.NodeHandler{
		"function_declaration": func(f *parser.SourceFile, node *sitter.Node) bool {
			if doc := k.docBefore(node); jsdoc.Has(doc, "constructor") {
				k.define(f.Text(node.ChildByFieldName("name")), node, doc)
			}
			return false
		},
		"variable_declarator": func(f *parser.SourceFile, node *sitter.Node) bool {
			name, value := node.ChildByFieldName("name"), node.ChildByFieldName("value")
			if name == nil || name.Kind() != "identifier" || value == nil {
				return false
			}
			k.bind(f.Text(name), value, k.docBefore(statementOf(node)))
			return false
		},
		"assignment_expression": func(f *parser.SourceFile, node *sitter.Node) bool {
			left, right := node.ChildByFieldName("left"), node.ChildByFieldName("right")
			if left == nil || right == nil || !isNamePath(left) {
				return false
			}
			var doc string
			if stmt := node.Parent(); stmt != nil && stmt.Kind() == "expression_statement" {
				doc = k.docBefore(stmt)
			}
			k.bind(f.Text(left), right, doc)
			return false
		},
	}).Walk(k.file, k.file.Root())
}

// bind handles `name = value` where doc is the comment in front of the
// whole statement.
func (k *check) bind(name string, value *sitter.Node, doc string) {
	if inline := k.docBefore(value); inline != "" {
		doc = inline
	}
	switch {
	case isFunction(value) && jsdoc.Has(doc, "constructor"):
		k.define(name, value, doc)
	case isNamePath(value):
		if target, ok := k.ctors[k.file.Text(value)]; ok {
			k.ctors[name] = target
		}
	}
}

func (k *check) define(name string, fn *sitter.Node, doc string) {
	if name == "" {
		return
	}
	ctor := &constructor{Name: name}
	ctor.Min, ctor.Max = arity(k.file, fn.ChildByFieldName("parameters"), doc)
	k.ctors[name] = ctor
}

// arity counts the required and accepted arguments of a parameter list.
// A parameter is optional when it has a default, an opt_ prefix, a `{T=}`
// type or a `[name]` tag; optional parameters end the required prefix.
func arity(f *parser.SourceFile, params *sitter.Node, doc string) (int, int) {
	optional := make(map[string]bool)
	rest := make(map[string]bool)
	for _, tag := range jsdoc.Tags(doc) {
		if tag.Name != "param" {
			continue
		}
		name := strings.Trim(tag.Arg, "[]")
		if i := strings.IndexByte(name, '='); i >= 0 {
			name = name[:i]
		}
		switch {
		case strings.HasPrefix(tag.Type, "..."):
			rest[name] = true
		case strings.HasSuffix(tag.Type, "=") || strings.HasPrefix(tag.Arg, "["):
			optional[name] = true
		}
	}

	if params == nil {
		return 0, 0
	}
	required, accepted := 0, 0
	seenOptional := false
	for i := uint(0); i < params.NamedChildCount(); i++ {
		p := params.NamedChild(i)
		name := ""
		switch p.Kind() {
		case "comment":
			continue
		case "rest_pattern":
			return required, -1
		case "assignment_pattern":
			seenOptional = true
			accepted++
			continue
		case "identifier":
			name = f.Text(p)
		}
		if rest[name] {
			return required, -1
		}
		accepted++
		if seenOptional || optional[name] || strings.HasPrefix(name, "opt_") {
			seenOptional = true
			continue
		}
		required++
	}
	return required, accepted
}

func (k *check) verify() {
	parser.NewWalker(map[string]parser.NodeHandler{
		"new_expression": func(f *parser.SourceFile, node *sitter.Node) bool {
			k.checkNew(node)
			return false
		},
		"comment": func(f *parser.SourceFile, node *sitter.Node) bool {
			k.checkExtends(node)
			return true
		},
		"variable_declarator": func(f *parser.SourceFile, node *sitter.Node) bool {
			k.checkInitializer(node)
			return false
		},
	}).Walk(k.file, k.file.Root())
}

func (k *check) checkNew(node *sitter.Node) {
	callee := node.ChildByFieldName("constructor")
	if callee == nil || !isNamePath(callee) {
		return
	}
	ctor, ok := k.ctors[k.file.Text(callee)]
	if !ok {
		return
	}
	n := 0
	if args := node.ChildByFieldName("arguments"); args != nil {
		for i := uint(0); i < args.NamedChildCount(); i++ {
			switch args.NamedChild(i).Kind() {
			case "comment":
			case "spread_element":
				return
			default:
				n++
			}
		}
	}
	if n >= ctor.Min && (ctor.Max < 0 || n <= ctor.Max) {
		return
	}
	k.report(diag.KindArgumentArityMismatch, node, "Function %s: called with %d argument(s). %s",
		ctor.Name, n, requirement(ctor))
}

func requirement(ctor *constructor) string {
	switch {
	case ctor.Max < 0:
		return fmt.Sprintf("Function requires at least %d argument(s).", ctor.Min)
	case ctor.Min == ctor.Max:
		return fmt.Sprintf("Function requires exactly %d argument(s).", ctor.Min)
	}
	return fmt.Sprintf("Function requires at least %d argument(s) and no more than %d argument(s).", ctor.Min, ctor.Max)
}

func (k *check) checkExtends(comment *sitter.Node) {
	text := k.file.Text(comment)
	for _, tag := range jsdoc.Tags(text) {
		if tag.Name != "extends" && tag.Name != "augments" {
			continue
		}
		name := strings.TrimPrefix(tag.Type, "!")
		if name == "" || isBuiltinClass(name) {
			continue
		}
		if _, ok := k.ctors[name]; ok {
			continue
		}
		if sub := k.documentedName(comment); sub != "" {
			k.report(diag.KindInheritanceResolutionFailure, comment, "Could not resolve type %q in @extends tag of %s", name, sub)
		} else {
			k.report(diag.KindInheritanceResolutionFailure, comment, "Could not resolve type %q in @extends tag", name)
		}
	}
}

// documentedName names the declaration a doc comment belongs to, or "".
func (k *check) documentedName(comment *sitter.Node) string {
	if parent := comment.Parent(); parent != nil {
		switch parent.Kind() {
		case "variable_declarator":
			return k.file.Text(parent.ChildByFieldName("name"))
		case "assignment_expression":
			return k.file.Text(parent.ChildByFieldName("left"))
		}
	}
	next := comment.NextNamedSibling()
	for next != nil && next.Kind() == "comment" {
		next = next.NextNamedSibling()
	}
	if next == nil {
		return ""
	}
	switch next.Kind() {
	case "function_declaration", "generator_function_declaration", "class_declaration":
		return k.file.Text(next.ChildByFieldName("name"))
	case "variable_declaration", "lexical_declaration":
		if d := next.NamedChild(0); d != nil && d.Kind() == "variable_declarator" {
			return k.file.Text(d.ChildByFieldName("name"))
		}
	case "expression_statement":
		if expr := next.NamedChild(0); expr != nil && expr.Kind() == "assignment_expression" {
			return k.file.Text(expr.ChildByFieldName("left"))
		}
	}
	return ""
}

// checkInitializer flags `@type {!C}` declarations initialized with a
// primitive literal.
func (k *check) checkInitializer(node *sitter.Node) {
	value := node.ChildByFieldName("value")
	if value == nil {
		return
	}
	found := literalType(value)
	if found == "" {
		return
	}
	for _, tag := range jsdoc.Tags(k.docBefore(statementOf(node))) {
		if tag.Name != "type" {
			continue
		}
		required := tag.Type
		nonNull := strings.HasPrefix(required, "!")
		name := strings.TrimPrefix(required, "!")
		if _, ok := k.ctors[name]; !ok {
			continue
		}
		if found == "null" && !nonNull {
			continue
		}
		k.report(diag.KindTypeMismatch, value, "initializing variable found: %s required: %s", found, required)
	}
}

func literalType(node *sitter.Node) string {
	switch node.Kind() {
	case "number":
		return "number"
	case "string", "template_string":
		return "string"
	case "true", "false":
		return "boolean"
	case "null":
		return "null"
	case "undefined":
		return "undefined"
	}
	return ""
}

// docBefore returns the JSDoc comment directly preceding node, or "".
func (k *check) docBefore(node *sitter.Node) string {
	if node == nil {
		return ""
	}
	prev := node.PrevSibling()
	if prev == nil || prev.Kind() != "comment" {
		return ""
	}
	text := k.file.Text(prev)
	if !jsdoc.IsDoc(text) {
		return ""
	}
	return text
}

// statementOf climbs from a declarator to its declaration statement.
func statementOf(node *sitter.Node) *sitter.Node {
	if parent := node.Parent(); parent != nil {
		switch parent.Kind() {
		case "variable_declaration", "lexical_declaration":
			return parent
		}
	}
	return node
}

func isFunction(node *sitter.Node) bool {
	switch node.Kind() {
	case "function_expression", "function":
		return true
	}
	return false
}

// isNamePath accepts `a` and `a.b.c`.
func isNamePath(node *sitter.Node) bool {
	switch node.Kind() {
	case "identifier":
		return true
	case "member_expression":
		obj, prop := node.ChildByFieldName("object"), node.ChildByFieldName("property")
		return obj != nil && prop != nil && prop.Kind() == "property_identifier" && isNamePath(obj)
	}
	return false
}

func isBuiltinClass(name string) bool {
	switch name {
	case "Object", "Error", "Array", "Function", "Date", "RegExp", "Map", "Set", "Promise":
		return true
	}
	return false
}
