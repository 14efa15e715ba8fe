// Package exports scans a module's top-level statements for CommonJS export
// assignments.
package exports

import (
	"strings"

	"cjsflat/internal/engine/parser"
	"cjsflat/internal/engine/scope"

	sitter "github.com/tree-sitter/go-tree-sitter"
)

type ShapeKind uint8

const (
	// Namespace modules only ever assign properties of the export object.
	Namespace ShapeKind = iota
	// Bare modules assign module.exports itself at least once.
	Bare
)

func (k ShapeKind) String() string {
	if k == Bare {
		return "bare"
	}
	return "namespace"
}

// Shape is the tagged export surface of a module.
type Shape struct {
	Kind ShapeKind
	// Root is the value of the first root assignment of a Bare module.
	Root *sitter.Node
	// Properties lists the first path segment of every property export of a
	// Namespace module, in first-assignment order.
	Properties []string
}

// Record is one export assignment.
type Record struct {
	Index int
	// Path is empty for `module.exports = v`.
	Path []string
	// Stmt is the expression statement holding the assignment.
	Stmt *sitter.Node
	// Left is the assignment target; nil for records expanded from an
	// object literal.
	Left  *sitter.Node
	Value *sitter.Node
	// StmtIndex is the statement's position among the program's children.
	StmtIndex int
	// FromLiteral marks records expanded from `module.exports = {k: v}`;
	// Value is then the pair value (or the shorthand identifier).
	FromLiteral bool
	ViaExports  bool
	// Aliases are the `exports = ` links of a chained root assignment such
	// as `module.exports = exports = v`; Value is then the innermost value.
	Aliases []scope.Span
}

func (r Record) IsRoot() bool {
	return len(r.Path) == 0
}

// PathKey joins the record path with dots.
func (r Record) PathKey() string {
	return strings.Join(r.Path, ".")
}

type Info struct {
	Records         []Record
	RootAssignments int
	ReassignedRoot  bool
	// LeadingProperty is set when a property export precedes the first root
	// export.
	LeadingProperty bool
	Shape           Shape
}

func (i *Info) HasExports() bool {
	return len(i.Records) > 0
}

type scanner struct {
	file  *parser.SourceFile
	arena *scope.Arena
}

// Scan collects the export records of one module in source order.
func Scan(file *parser.SourceFile, arena *scope.Arena) *Info {
	s := &scanner{file: file, arena: arena}
	info := &Info{}
	root := file.Root()
	if root == nil {
		return info
	}

	type candidate struct {
		stmt, left, value *sitter.Node
		index             int
		path              []string
		viaExports        bool
		aliases           []scope.Span
	}
	var found []candidate
	for i := uint(0); i < root.NamedChildCount(); i++ {
		stmt := root.NamedChild(i)
		if stmt.Kind() != "expression_statement" || stmt.NamedChildCount() == 0 {
			continue
		}
		expr := stmt.NamedChild(0)
		if expr.Kind() != "assignment_expression" {
			continue
		}
		left := expr.ChildByFieldName("left")
		path, via, ok := s.targetPath(left)
		if !ok {
			continue
		}
		value, aliases := s.unwrapAliases(expr.ChildByFieldName("right"))
		found = append(found, candidate{
			stmt: stmt, left: left, value: value,
			index: int(i), path: path, viaExports: via, aliases: aliases,
		})
	}

	roots := 0
	for _, c := range found {
		if len(c.path) == 0 {
			roots++
		}
	}

	for n, c := range found {
		if len(c.path) == 0 && roots == 1 && n == 0 {
			if pairs, ok := s.literalPairs(c.value); ok {
				for _, p := range pairs {
					info.Records = append(info.Records, Record{
						Index: len(info.Records), Path: []string{p.key}, Stmt: c.stmt,
						Value: p.value, StmtIndex: c.index, FromLiteral: true,
					})
				}
				roots--
				continue
			}
		}
		info.Records = append(info.Records, Record{
			Index: len(info.Records), Path: c.path, Stmt: c.stmt, Left: c.left,
			Value: c.value, StmtIndex: c.index, ViaExports: c.viaExports,
			Aliases: c.aliases,
		})
	}

	seenProps := make(map[string]bool)
	for _, r := range info.Records {
		if r.IsRoot() {
			if info.RootAssignments == 0 {
				info.Shape.Root = r.Value
			}
			info.RootAssignments++
			continue
		}
		if info.RootAssignments == 0 {
			info.LeadingProperty = true
		}
		if !seenProps[r.Path[0]] {
			seenProps[r.Path[0]] = true
			info.Shape.Properties = append(info.Shape.Properties, r.Path[0])
		}
	}
	info.ReassignedRoot = info.RootAssignments > 1
	if info.RootAssignments > 0 {
		info.Shape.Kind = Bare
		info.Shape.Properties = nil
	} else {
		info.LeadingProperty = false
	}
	return info
}

// targetPath decodes an assignment target rooted at module.exports or a free
// `exports`. A bare `exports = v` is not an export.
func (s *scanner) targetPath(node *sitter.Node) ([]string, bool, bool) {
	if node == nil {
		return nil, false, false
	}
	var rev []string
	cur := node
	for {
		switch cur.Kind() {
		case "member_expression":
			obj := cur.ChildByFieldName("object")
			prop := cur.ChildByFieldName("property")
			if obj == nil || prop == nil {
				return nil, false, false
			}
			if s.isModuleExports(cur) {
				return reverse(rev), false, true
			}
			rev = append(rev, s.file.Text(prop))
			cur = obj
		case "subscript_expression":
			key, ok := parser.StringValue(s.file, cur.ChildByFieldName("index"))
			if !ok {
				return nil, false, false
			}
			if s.isModuleExports(cur) {
				return reverse(rev), false, true
			}
			rev = append(rev, key)
			cur = cur.ChildByFieldName("object")
			if cur == nil {
				return nil, false, false
			}
		case "identifier":
			if s.file.Text(cur) == "exports" && s.arena.IsFree(cur.StartByte()) && len(rev) > 0 {
				return reverse(rev), true, true
			}
			return nil, false, false
		default:
			return nil, false, false
		}
	}
}

// unwrapAliases strips free `exports = ` links from an assigned value. Left
// in place they would assign an implicit global once the module is flattened.
func (s *scanner) unwrapAliases(value *sitter.Node) (*sitter.Node, []scope.Span) {
	var aliases []scope.Span
	for value != nil && value.Kind() == "assignment_expression" {
		left := value.ChildByFieldName("left")
		right := value.ChildByFieldName("right")
		if left == nil || right == nil || left.Kind() != "identifier" ||
			s.file.Text(left) != "exports" || !s.arena.IsFree(left.StartByte()) {
			break
		}
		aliases = append(aliases, scope.Span{Start: value.StartByte(), End: right.StartByte()})
		value = right
	}
	return value, aliases
}

// isModuleExports matches `module.exports` and `module['exports']` with a
// free `module`.
func (s *scanner) isModuleExports(node *sitter.Node) bool {
	return IsModuleExports(s.file, s.arena, node)
}

func IsModuleExports(file *parser.SourceFile, arena *scope.Arena, node *sitter.Node) bool {
	if node == nil {
		return false
	}
	obj := node.ChildByFieldName("object")
	if obj == nil || obj.Kind() != "identifier" || file.Text(obj) != "module" || !arena.IsFree(obj.StartByte()) {
		return false
	}
	switch node.Kind() {
	case "member_expression":
		return file.Text(node.ChildByFieldName("property")) == "exports"
	case "subscript_expression":
		key, ok := parser.StringValue(file, node.ChildByFieldName("index"))
		return ok && key == "exports"
	}
	return false
}

type pair struct {
	key   string
	value *sitter.Node
}

// literalPairs accepts object literals made only of `key: expr` pairs and
// shorthand properties with static keys.
func (s *scanner) literalPairs(node *sitter.Node) ([]pair, bool) {
	if node == nil || node.Kind() != "object" {
		return nil, false
	}
	var out []pair
	for i := uint(0); i < node.NamedChildCount(); i++ {
		child := node.NamedChild(i)
		switch child.Kind() {
		case "comment":
		case "pair":
			key := child.ChildByFieldName("key")
			var name string
			switch key.Kind() {
			case "property_identifier":
				name = s.file.Text(key)
			case "string":
				v, ok := parser.StringValue(s.file, key)
				if !ok {
					return nil, false
				}
				name = v
			default:
				return nil, false
			}
			out = append(out, pair{key: name, value: child.ChildByFieldName("value")})
		case "shorthand_property_identifier":
			out = append(out, pair{key: s.file.Text(child), value: child})
		default:
			return nil, false
		}
	}
	if len(out) == 0 {
		return nil, false
	}
	return out, true
}

func reverse(in []string) []string {
	out := make([]string, len(in))
	for i, v := range in {
		out[len(in)-1-i] = v
	}
	return out
}
