// # internal/engine/graph/graph.go
package graph

import (
	"cjsflat/internal/core/diag"
	"sync"
)

// Edge is one static require from a module to another.
type Edge struct {
	From     string
	To       string
	Location diag.Location
}

// Graph is the require graph of one compilation unit. Modules and edges keep
// insertion order so linearization is deterministic.
type Graph struct {
	mu sync.RWMutex

	modules    []string
	known      map[string]bool
	imports    map[string][]Edge
	importedBy map[string]map[string]bool
}

func NewGraph() *Graph {
	return &Graph{
		known:      make(map[string]bool),
		imports:    make(map[string][]Edge),
		importedBy: make(map[string]map[string]bool),
	}
}

func (g *Graph) AddModule(id string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.known[id] {
		return
	}
	g.known[id] = true
	g.modules = append(g.modules, id)
}

// AddEdge records a require. Repeated requires of the same target keep the
// first location.
func (g *Graph) AddEdge(e Edge) {
	g.mu.Lock()
	defer g.mu.Unlock()
	for _, existing := range g.imports[e.From] {
		if existing.To == e.To {
			return
		}
	}
	g.imports[e.From] = append(g.imports[e.From], e)
	if g.importedBy[e.To] == nil {
		g.importedBy[e.To] = make(map[string]bool)
	}
	g.importedBy[e.To][e.From] = true
}

func (g *Graph) Modules() []string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make([]string, len(g.modules))
	copy(out, g.modules)
	return out
}

func (g *Graph) Imports(id string) []Edge {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make([]Edge, len(g.imports[id]))
	copy(out, g.imports[id])
	return out
}

// IsRequired reports whether any module requires id.
func (g *Graph) IsRequired(id string) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.importedBy[id]) > 0
}

// EdgeBetween returns the edge from -> to, if any.
func (g *Graph) EdgeBetween(from, to string) (Edge, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	for _, e := range g.imports[from] {
		if e.To == to {
			return e, true
		}
	}
	return Edge{}, false
}
