// # internal/engine/graph/detect.go
package graph

import "sort"

// Order linearizes the graph by depth-first post-order over modules in
// insertion order, so every module follows the modules it requires. When
// the graph is cyclic the first cycle found is returned instead, as a path
// whose last element requires the first.
func (g *Graph) Order() ([]string, []string) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	order := make([]string, 0, len(g.modules))
	visited := make(map[string]bool)
	onStack := make(map[string]bool)
	var cycle []string

	var visit func(curr string, path []string) bool
	visit = func(curr string, path []string) bool {
		visited[curr] = true
		onStack[curr] = true
		path = append(path, curr)
		for _, e := range g.imports[curr] {
			if onStack[e.To] {
				cycle = cycleFrom(path, e.To)
				return false
			}
			if !visited[e.To] && g.known[e.To] {
				if !visit(e.To, path) {
					return false
				}
			}
		}
		onStack[curr] = false
		order = append(order, curr)
		return true
	}

	for _, id := range g.modules {
		if visited[id] {
			continue
		}
		if !visit(id, nil) {
			return nil, cycle
		}
	}
	return order, nil
}

// DetectCycles returns every elementary cycle reachable by depth-first
// search, each starting at its first-visited module.
func (g *Graph) DetectCycles() [][]string {
	g.mu.RLock()
	defer g.mu.RUnlock()

	var cycles [][]string
	visited := make(map[string]bool)
	onStack := make(map[string]bool)
	for _, id := range g.modules {
		if !visited[id] {
			g.findCycles(id, visited, onStack, nil, &cycles)
		}
	}
	return cycles
}

func (g *Graph) findCycles(curr string, visited, onStack map[string]bool, path []string, cycles *[][]string) {
	visited[curr] = true
	onStack[curr] = true
	path = append(path, curr)

	for _, e := range g.imports[curr] {
		if onStack[e.To] {
			if c := cycleFrom(path, e.To); c != nil {
				*cycles = append(*cycles, c)
			}
		} else if !visited[e.To] && g.known[e.To] {
			g.findCycles(e.To, visited, onStack, path, cycles)
		}
	}
	onStack[curr] = false
}

func cycleFrom(path []string, start string) []string {
	for i, id := range path {
		if id == start {
			out := make([]string, len(path)-i)
			copy(out, path[i:])
			return out
		}
	}
	return nil
}

// Dependents returns id and every module that transitively requires it,
// sorted. Watch mode uses it to report which modules a change affects.
func (g *Graph) Dependents(id string) []string {
	g.mu.RLock()
	defer g.mu.RUnlock()

	if !g.known[id] {
		return nil
	}
	seen := map[string]bool{id: true}
	queue := []string{id}
	for len(queue) > 0 {
		mod := queue[0]
		queue = queue[1:]
		for importer := range g.importedBy[mod] {
			if seen[importer] {
				continue
			}
			seen[importer] = true
			queue = append(queue, importer)
		}
	}
	out := make([]string, 0, len(seen))
	for mod := range seen {
		out = append(out, mod)
	}
	sort.Strings(out)
	return out
}
