package graph

import "route_finder/pkg/geo"

// UnionFind implements a disjoint-set data structure with path compression
// and union by rank.
type UnionFind struct {
	parent []uint32
	rank   []byte // max rank stays near 30 for realistic graphs
	size   []uint32
}

// NewUnionFind creates a UnionFind for n elements.
func NewUnionFind(n uint32) *UnionFind {
	parent := make([]uint32, n)
	size := make([]uint32, n)
	for i := range n {
		parent[i] = i
		size[i] = 1
	}
	return &UnionFind{
		parent: parent,
		rank:   make([]byte, n),
		size:   size,
	}
}

// Find returns the representative of the set containing x, with path halving.
func (uf *UnionFind) Find(x uint32) uint32 {
	for uf.parent[x] != x {
		uf.parent[x] = uf.parent[uf.parent[x]] // path halving
		x = uf.parent[x]
	}
	return x
}

// Union merges the sets containing x and y. Returns false if already same set.
func (uf *UnionFind) Union(x, y uint32) bool {
	rx := uf.Find(x)
	ry := uf.Find(y)
	if rx == ry {
		return false
	}

	// Union by rank.
	if uf.rank[rx] < uf.rank[ry] {
		rx, ry = ry, rx
	}
	uf.parent[ry] = rx
	uf.size[rx] += uf.size[ry]
	if uf.rank[rx] == uf.rank[ry] {
		uf.rank[rx]++
	}
	return true
}

// Size returns the number of elements in the set containing x.
func (uf *UnionFind) Size(x uint32) uint32 {
	return uf.size[uf.Find(x)]
}

// components unions every edge of g (treated as undirected) over the
// universe and returns the universe alongside the populated UnionFind.
func components(g *Graph) ([]geo.Coordinate, *UnionFind) {
	universe := g.Universe()
	index := make(map[geo.Coordinate]uint32, len(universe))
	for i, c := range universe {
		index[c] = uint32(i)
	}

	uf := NewUnionFind(uint32(len(universe)))
	for _, k := range g.Keys() {
		for _, n := range g.Neighbors(k) {
			uf.Union(index[k], index[n])
		}
	}
	return universe, uf
}

// ComponentCount returns the number of weakly connected components.
func ComponentCount(g *Graph) int {
	universe, uf := components(g)
	count := 0
	for i := range universe {
		if uf.Find(uint32(i)) == uint32(i) {
			count++
		}
	}
	return count
}

// LargestComponent returns the nodes of the largest weakly connected
// component (treating the directed graph as undirected), in universe order.
// Ties go to the component whose first node comes first.
func LargestComponent(g *Graph) []geo.Coordinate {
	universe, uf := components(g)
	if len(universe) == 0 {
		return nil
	}

	// Find the representative with the largest size.
	bestRoot := uf.Find(0)
	bestSize := uint32(0)
	for i := range universe {
		root := uf.Find(uint32(i))
		if uf.size[root] > bestSize {
			bestRoot = root
			bestSize = uf.size[root]
		}
	}

	// Collect all nodes in the largest component.
	nodes := make([]geo.Coordinate, 0, bestSize)
	for i, c := range universe {
		if uf.Find(uint32(i)) == bestRoot {
			nodes = append(nodes, c)
		}
	}

	return nodes
}

// FilterToComponent creates a new graph containing only the specified nodes.
// Keys and neighbors outside nodes are dropped; order is preserved.
func FilterToComponent(g *Graph, nodes []geo.Coordinate) *Graph {
	keep := make(map[geo.Coordinate]struct{}, len(nodes))
	for _, c := range nodes {
		keep[c] = struct{}{}
	}

	out := New()
	for _, k := range g.Keys() {
		if _, ok := keep[k]; !ok {
			continue
		}
		var nbrs []geo.Coordinate
		for _, n := range g.Neighbors(k) {
			if _, ok := keep[n]; ok {
				nbrs = append(nbrs, n)
			}
		}
		out.SetNeighbors(k, nbrs...)
	}
	return out
}
