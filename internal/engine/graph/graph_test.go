package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func build(modules []string, edges ...[2]string) *Graph {
	g := NewGraph()
	for _, m := range modules {
		g.AddModule(m)
	}
	for _, e := range edges {
		g.AddEdge(Edge{From: e[0], To: e[1]})
	}
	return g
}

func TestOrderPutsDependenciesFirst(t *testing.T) {
	g := build([]string{"main", "a", "b", "c"},
		[2]string{"main", "b"},
		[2]string{"main", "a"},
		[2]string{"b", "c"},
		[2]string{"a", "c"},
	)
	order, cycle := g.Order()
	require.Nil(t, cycle)
	assert.Equal(t, []string{"c", "b", "a", "main"}, order)
}

func TestOrderKeepsInputOrderForIndependentModules(t *testing.T) {
	g := build([]string{"i0", "i1"}, [2]string{"i1", "i0"})
	order, cycle := g.Order()
	require.Nil(t, cycle)
	assert.Equal(t, []string{"i0", "i1"}, order)

	g = build([]string{"x", "y", "z"})
	order, _ = g.Order()
	assert.Equal(t, []string{"x", "y", "z"}, order)
}

func TestOrderReportsCycle(t *testing.T) {
	g := build([]string{"a", "b", "c"},
		[2]string{"a", "b"},
		[2]string{"b", "c"},
		[2]string{"c", "b"},
	)
	order, cycle := g.Order()
	assert.Nil(t, order)
	assert.Equal(t, []string{"b", "c"}, cycle)

	self := build([]string{"s"}, [2]string{"s", "s"})
	_, cycle = self.Order()
	assert.Equal(t, []string{"s"}, cycle)
}

func TestDetectCycles(t *testing.T) {
	g := build([]string{"a", "b", "c", "d"},
		[2]string{"a", "b"},
		[2]string{"b", "a"},
		[2]string{"c", "d"},
		[2]string{"d", "c"},
	)
	assert.Equal(t, [][]string{{"a", "b"}, {"c", "d"}}, g.DetectCycles())
}

func TestDependents(t *testing.T) {
	g := build([]string{"app", "svc", "util", "other"},
		[2]string{"app", "svc"},
		[2]string{"svc", "util"},
		[2]string{"other", "util"},
	)
	assert.Equal(t, []string{"app", "other", "svc", "util"}, g.Dependents("util"))
	assert.True(t, g.IsRequired("svc"))
	assert.False(t, g.IsRequired("app"))
}

func TestAddEdgeDeduplicates(t *testing.T) {
	g := build([]string{"a", "b"})
	g.AddEdge(Edge{From: "a", To: "b"})
	g.AddEdge(Edge{From: "a", To: "b"})
	assert.Len(t, g.Imports("a"), 1)
	_, ok := g.EdgeBetween("a", "b")
	assert.True(t, ok)
}
