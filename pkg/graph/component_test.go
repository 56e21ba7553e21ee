package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"route_finder/pkg/geo"
)

func TestUnionFind(t *testing.T) {
	uf := NewUnionFind(5)

	// Initially all separate.
	for i := range uint32(5) {
		assert.Equal(t, i, uf.Find(i))
	}

	assert.True(t, uf.Union(0, 1))
	assert.Equal(t, uf.Find(0), uf.Find(1), "0 and 1 should be in same set")

	assert.True(t, uf.Union(2, 3))
	assert.NotEqual(t, uf.Find(0), uf.Find(2), "0 and 2 should be in different sets")

	assert.True(t, uf.Union(1, 3))
	assert.False(t, uf.Union(0, 2), "already joined")
	assert.Equal(t, uint32(4), uf.Size(3))
	assert.Equal(t, uint32(1), uf.Size(4))
}

// twoComponents has {a, b, cc} joined through a one-directional edge into
// the leaf cc, and a separate pair {d, e}.
func twoComponents() *Graph {
	g := New()
	g.SetNeighbors(c(0, 0), c(0, 1))
	g.SetNeighbors(c(0, 1), c(0, 0), c(0, 2))
	g.SetNeighbors(c(5, 5), c(5, 6))
	g.SetNeighbors(c(5, 6), c(5, 5))
	return g
}

func TestComponentCount(t *testing.T) {
	assert.Equal(t, 2, ComponentCount(twoComponents()))
	assert.Equal(t, 0, ComponentCount(New()))

	g := New()
	g.SetNeighbors(c(1, 1))
	assert.Equal(t, 1, ComponentCount(g))
}

func TestLargestComponent(t *testing.T) {
	nodes := LargestComponent(twoComponents())
	assert.Equal(t, []geo.Coordinate{c(0, 0), c(0, 1), c(0, 2)}, nodes)

	assert.Nil(t, LargestComponent(New()))
}

func TestFilterToComponent(t *testing.T) {
	g := twoComponents()
	filtered := FilterToComponent(g, LargestComponent(g))

	assert.Equal(t, []geo.Coordinate{c(0, 0), c(0, 1)}, filtered.Keys())
	assert.Equal(t, []geo.Coordinate{c(0, 0), c(0, 2)}, filtered.Neighbors(c(0, 1)))
	assert.False(t, filtered.HasKey(c(5, 5)))
	assert.Equal(t, 1, ComponentCount(filtered))
}
