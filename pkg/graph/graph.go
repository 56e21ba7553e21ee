// Package graph holds the in-memory road/trail graph and its storage formats.
package graph

import (
	"route_finder/pkg/geo"
)

// Graph is a directed adjacency list keyed by coordinate. Key insertion order
// is kept because nearest-node tie-breaking depends on it. Neighbors need not
// be keys themselves; such nodes are leaves with no outgoing edges.
//
// A Graph is not safe for concurrent mutation but may be shared read-only once
// built.
type Graph struct {
	keys []geo.Coordinate
	adj  map[geo.Coordinate][]geo.Coordinate
}

// New returns an empty graph.
func New() *Graph {
	return &Graph{adj: make(map[geo.Coordinate][]geo.Coordinate)}
}

// SetNeighbors makes node a key with the given outgoing neighbors. If node is
// already a key its neighbor list is replaced and it keeps its position.
func (g *Graph) SetNeighbors(node geo.Coordinate, neighbors ...geo.Coordinate) {
	if _, ok := g.adj[node]; !ok {
		g.keys = append(g.keys, node)
	}
	g.adj[node] = append(make([]geo.Coordinate, 0, len(neighbors)), neighbors...)
}

// AddEdge appends the directed edge from→to, making from a key if needed.
func (g *Graph) AddEdge(from, to geo.Coordinate) {
	nbrs, ok := g.adj[from]
	if !ok {
		g.keys = append(g.keys, from)
	}
	g.adj[from] = append(nbrs, to)
}

// Keys returns the key nodes in insertion order. The slice must not be modified.
func (g *Graph) Keys() []geo.Coordinate { return g.keys }

// Neighbors returns the outgoing neighbors of node, or nil if node is not a key.
func (g *Graph) Neighbors(node geo.Coordinate) []geo.Coordinate { return g.adj[node] }

// HasKey reports whether node has an entry in the adjacency list.
func (g *Graph) HasKey(node geo.Coordinate) bool {
	_, ok := g.adj[node]
	return ok
}

// NumKeys returns the number of key nodes.
func (g *Graph) NumKeys() int { return len(g.keys) }

// NumEdges returns the number of directed edges.
func (g *Graph) NumEdges() int {
	n := 0
	for _, nbrs := range g.adj {
		n += len(nbrs)
	}
	return n
}

// Universe returns every node appearing as a key or a neighbor, without
// duplicates, in first-encountered order: each key followed by its neighbors.
func (g *Graph) Universe() []geo.Coordinate {
	seen := make(map[geo.Coordinate]struct{}, len(g.keys))
	nodes := make([]geo.Coordinate, 0, len(g.keys))
	visit := func(c geo.Coordinate) {
		if _, ok := seen[c]; ok {
			return
		}
		seen[c] = struct{}{}
		nodes = append(nodes, c)
	}
	for _, k := range g.keys {
		visit(k)
		for _, n := range g.adj[k] {
			visit(n)
		}
	}
	return nodes
}
