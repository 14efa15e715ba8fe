package rewrite

import (
	stderrors "errors"

	"cjsflat/internal/core/diag"
	"cjsflat/internal/engine/graph"
	"cjsflat/internal/engine/resolver"
	"cjsflat/internal/engine/scope"
)

// resolveModule resolves the module's require sites, records require edges
// and builds its alias table.
func (c *Context) resolveModule(m *Module) {
	for _, site := range m.requires {
		loc := m.file.Location(site.Call)
		if !site.Static {
			err := resolver.Dynamic(site.Specifier, m.Path)
			c.diags.Add(c.opts.Level.New(diag.KindUnresolvedSpecifier, loc, "%v", err))
			continue
		}
		id, err := c.resolver.Resolve(site.Specifier, m.Path)
		if err != nil {
			var unresolved *resolver.UnresolvedSpecifierError
			if !stderrors.As(err, &unresolved) {
				unresolved = &resolver.UnresolvedSpecifierError{Specifier: site.Specifier, From: m.Path, Reason: err.Error()}
			}
			c.diags.Add(c.opts.Level.New(diag.KindUnresolvedSpecifier, loc, "%v", unresolved))
			continue
		}
		site.Target, site.Resolved = id, true
		c.graph.AddEdge(graph.Edge{From: string(m.ID), To: string(id), Location: loc})
	}

	m.aliases = make(map[*scope.Binding]string)
	byValue := make(map[scope.Span]*requireSite, len(m.requires))
	for _, site := range m.requires {
		if site.Resolved {
			byValue[scope.SpanOf(site.Outer)] = site
		}
	}
	for _, name := range m.arena.Root.Names() {
		b := m.arena.Root.Bindings[name]
		if !b.DeclaredOnce() || b.Reassigned {
			continue
		}
		decl := b.Decls[0]
		switch decl.Kind {
		case scope.DeclVar, scope.DeclLet, scope.DeclConst:
		default:
			continue
		}
		// Only plain `X = require(...)` declarators; destructuring binds parts.
		if !decl.HasValue() || decl.Shorthand || decl.Node.Start != decl.Span.Start {
			continue
		}
		site, ok := byValue[decl.Value]
		if !ok {
			continue
		}
		m.aliases[b] = c.names.NameFor(string(site.Target)) + propAccess(site.Props)
	}
}
