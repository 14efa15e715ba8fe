package rewrite

import (
	"strconv"
	"strings"

	"cjsflat/internal/engine/exports"
	"cjsflat/internal/engine/parser"
	"cjsflat/internal/engine/resolver"
	"cjsflat/internal/engine/scope"

	sitter "github.com/tree-sitter/go-tree-sitter"
)

// requireSite is one `require(...)` call with a free `require`.
type requireSite struct {
	Call *sitter.Node
	// Outer is the call plus any directly following static property path,
	// e.g. `require('./m').a.b`.
	Outer     *sitter.Node
	Props     []string
	Specifier string
	Static    bool

	Target   resolver.ModuleID
	Resolved bool
}

// moduleRef is a read of `module.exports` or a free `exports` outside any
// export target.
type moduleRef struct {
	Span scope.Span
	// ViaModule is set when Span covers `module.exports` rather than a bare
	// `exports` identifier.
	ViaModule bool
}

type Module struct {
	Path resolver.ModulePath
	ID   resolver.ModuleID
	Name string

	source  []byte
	file    *parser.SourceFile
	arena   *scope.Arena
	exports *exports.Info

	requires   []*requireSite
	comments   []scope.Span
	moduleRefs []moduleRef

	// aliases maps `var X = require(...)` bindings to their target text.
	aliases  map[*scope.Binding]string
	commonJS bool
	state    State
}

func (m *Module) State() State {
	return m.state
}

// Exports returns the module's export records and shape.
func (m *Module) Exports() *exports.Info {
	return m.exports
}

// IsCommonJS reports whether the module takes part in the module system
// rather than being a plain script: it exports, reads its export object, or
// is required by another module.
func (m *Module) IsCommonJS(required bool) bool {
	return required || m.exports.HasExports() || len(m.moduleRefs) > 0
}

func (m *Module) scanRequires() {
	parser.NewWalker(map[string]parser.NodeHandler{
		"call_expression": func(f *parser.SourceFile, node *sitter.Node) bool {
			fn := node.ChildByFieldName("function")
			if fn == nil || fn.Kind() != "identifier" || f.Text(fn) != "require" || !m.arena.IsFree(fn.StartByte()) {
				return false
			}
			args := node.ChildByFieldName("arguments")
			if args == nil || args.Kind() != "arguments" {
				return false
			}
			site := &requireSite{Call: node, Outer: node}
			arg := firstArgument(args)
			if value, ok := parser.StringValue(f, arg); ok {
				site.Specifier, site.Static = value, true
			} else {
				site.Specifier = f.Text(arg)
			}
			site.Outer, site.Props = staticChain(f, node)
			m.requires = append(m.requires, site)
			return false
		},
	}).Walk(m.file, m.file.Root())
}

func firstArgument(args *sitter.Node) *sitter.Node {
	for i := uint(0); i < args.NamedChildCount(); i++ {
		if child := args.NamedChild(i); child.Kind() != "comment" {
			return child
		}
	}
	return nil
}

// staticChain climbs `.name` and `['name']` accesses applied to node.
func staticChain(f *parser.SourceFile, node *sitter.Node) (*sitter.Node, []string) {
	outer := node
	var props []string
	for {
		parent := outer.Parent()
		if parent == nil {
			return outer, props
		}
		obj := parent.ChildByFieldName("object")
		if obj == nil || !sameNode(obj, outer) {
			return outer, props
		}
		switch parent.Kind() {
		case "member_expression":
			prop := parent.ChildByFieldName("property")
			if prop == nil || prop.Kind() != "property_identifier" {
				return outer, props
			}
			props = append(props, f.Text(prop))
		case "subscript_expression":
			key, ok := parser.StringValue(f, parent.ChildByFieldName("index"))
			if !ok {
				return outer, props
			}
			props = append(props, key)
		default:
			return outer, props
		}
		outer = parent
	}
}

func (m *Module) scanComments() {
	parser.NewWalker(map[string]parser.NodeHandler{
		"comment": func(f *parser.SourceFile, node *sitter.Node) bool {
			m.comments = append(m.comments, scope.SpanOf(node))
			return true
		},
	}).Walk(m.file, m.file.Root())
}

// scanModuleRefs records free `module.exports` and `exports` reads that are
// not themselves export targets.
func (m *Module) scanModuleRefs() {
	var targets []scope.Span
	for _, r := range m.exports.Records {
		if r.Left != nil {
			targets = append(targets, scope.SpanOf(r.Left))
		}
	}
	inTarget := func(s scope.Span) bool {
		for _, t := range targets {
			if t.Encloses(s) {
				return true
			}
		}
		return false
	}

	for _, u := range m.arena.Unresolved() {
		switch u.Name {
		case "module":
			ident := m.file.Root().DescendantForByteRange(u.Ref.Span.Start, u.Ref.Span.End)
			if ident == nil {
				continue
			}
			parent := ident.Parent()
			if parent == nil || !exports.IsModuleExports(m.file, m.arena, parent) {
				continue
			}
			span := scope.SpanOf(parent)
			if inTarget(span) {
				continue
			}
			m.moduleRefs = append(m.moduleRefs, moduleRef{Span: span, ViaModule: true})
		case "exports":
			if u.Ref.Write || u.Ref.Shorthand || inTarget(u.Ref.Span) {
				continue
			}
			m.moduleRefs = append(m.moduleRefs, moduleRef{Span: u.Ref.Span})
		}
	}
}

func sameNode(a, b *sitter.Node) bool {
	if a == nil || b == nil {
		return false
	}
	return a.StartByte() == b.StartByte() && a.EndByte() == b.EndByte() && a.Kind() == b.Kind()
}

// propAccess renders a property path as member accesses, quoting names that
// are not identifiers.
func propAccess(props []string) string {
	var sb strings.Builder
	for _, p := range props {
		if isIdentifierName(p) {
			sb.WriteByte('.')
			sb.WriteString(p)
			continue
		}
		sb.WriteByte('[')
		sb.WriteString(strconv.Quote(p))
		sb.WriteByte(']')
	}
	return sb.String()
}

func isIdentifierName(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		switch {
		case r == '_' || r == '$' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z'):
		case i > 0 && r >= '0' && r <= '9':
		default:
			return false
		}
	}
	return true
}
