package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"route_finder/pkg/geo"
)

func c(lon, lat float64) geo.Coordinate { return geo.Coordinate{Lon: lon, Lat: lat} }

func TestGraphUniverseOrder(t *testing.T) {
	g := New()
	g.SetNeighbors(c(0, 0), c(0, 1), c(5, 5))
	g.SetNeighbors(c(0, 1), c(0, 0), c(1, 1))
	g.SetNeighbors(c(1, 1))

	assert.Equal(t, []geo.Coordinate{c(0, 0), c(0, 1), c(1, 1)}, g.Keys())
	assert.Equal(t, []geo.Coordinate{c(0, 0), c(0, 1), c(5, 5), c(1, 1)}, g.Universe())
	assert.Equal(t, 3, g.NumKeys())
	assert.Equal(t, 4, g.NumEdges())
}

func TestGraphSetNeighborsReplacesInPlace(t *testing.T) {
	g := New()
	g.SetNeighbors(c(0, 0), c(1, 1))
	g.SetNeighbors(c(2, 2))
	g.SetNeighbors(c(0, 0), c(3, 3))

	assert.Equal(t, []geo.Coordinate{c(0, 0), c(2, 2)}, g.Keys())
	assert.Equal(t, []geo.Coordinate{c(3, 3)}, g.Neighbors(c(0, 0)))
}

func TestGraphSetNeighborsCopies(t *testing.T) {
	nbrs := []geo.Coordinate{c(1, 1)}
	g := New()
	g.SetNeighbors(c(0, 0), nbrs...)
	nbrs[0] = c(9, 9)

	assert.Equal(t, []geo.Coordinate{c(1, 1)}, g.Neighbors(c(0, 0)))
}

func TestGraphLeafNeighbor(t *testing.T) {
	g := New()
	g.AddEdge(c(0, 0), c(1, 0))
	g.AddEdge(c(0, 0), c(2, 0))

	assert.True(t, g.HasKey(c(0, 0)))
	assert.False(t, g.HasKey(c(1, 0)))
	assert.Nil(t, g.Neighbors(c(1, 0)))
	assert.Equal(t, []geo.Coordinate{c(1, 0), c(2, 0)}, g.Neighbors(c(0, 0)))
	assert.Len(t, g.Universe(), 3)
}

func TestGraphEmpty(t *testing.T) {
	g := New()
	assert.Empty(t, g.Universe())
	assert.Zero(t, g.NumEdges())
}
