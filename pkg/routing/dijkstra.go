package routing

import (
	"context"
	"math"

	"route_finder/pkg/geo"
	"route_finder/pkg/graph"
)

// Route is an ordered node sequence from a resolved start node to a resolved
// end node. An empty Route means no path exists.
type Route []geo.Coordinate

// MinHeap is a concrete-typed min-heap for the Dijkstra frontier.
// Avoids interface boxing overhead of container/heap.
type MinHeap struct {
	items []PQItem
}

// PQItem is a frontier entry. Entries are ordered by cost, then by node
// (longitude first), then by the route leading to the node compared
// element-wise.
type PQItem struct {
	Cost float64
	Node geo.Coordinate
	Via  *Trail // settled route ending at the predecessor; nil for the start
}

// Trail is a settled route stored as a linked list from its last node back to
// the start. Trails share their prefixes.
type Trail struct {
	Node geo.Coordinate
	Prev *Trail
	Len  int
}

// Extend returns the trail t followed by node.
func (t *Trail) Extend(node geo.Coordinate) *Trail {
	n := 1
	if t != nil {
		n = t.Len + 1
	}
	return &Trail{Node: node, Prev: t, Len: n}
}

// Route returns the nodes of t from start to end. A nil trail is empty.
func (t *Trail) Route() Route {
	if t == nil {
		return Route{}
	}
	route := make(Route, t.Len)
	for i, cur := t.Len-1, t; cur != nil; i, cur = i-1, cur.Prev {
		route[i] = cur.Node
	}
	return route
}

func compareCoordinates(a, b geo.Coordinate) int {
	if a.Lon != b.Lon {
		if a.Lon < b.Lon {
			return -1
		}
		return 1
	}
	if a.Lat != b.Lat {
		if a.Lat < b.Lat {
			return -1
		}
		return 1
	}
	return 0
}

// compareTrails orders trails element-wise from the start. A proper prefix
// sorts first.
func compareTrails(a, b *Trail) int {
	if a == b {
		return 0
	}
	ra, rb := a.Route(), b.Route()
	for i := 0; i < len(ra) && i < len(rb); i++ {
		if c := compareCoordinates(ra[i], rb[i]); c != 0 {
			return c
		}
	}
	switch {
	case len(ra) < len(rb):
		return -1
	case len(ra) > len(rb):
		return 1
	}
	return 0
}

func (h *MinHeap) Len() int { return len(h.items) }

func (h *MinHeap) Push(item PQItem) {
	h.items = append(h.items, item)
	h.siftUp(len(h.items) - 1)
}

func (h *MinHeap) Pop() PQItem {
	n := len(h.items)
	item := h.items[0]
	h.items[0] = h.items[n-1]
	h.items = h.items[:n-1]
	if len(h.items) > 0 {
		h.siftDown(0)
	}
	return item
}

func (h *MinHeap) PeekCost() float64 {
	if len(h.items) == 0 {
		return math.Inf(1)
	}
	return h.items[0].Cost
}

func (h *MinHeap) Reset() {
	h.items = h.items[:0]
}

func (h *MinHeap) less(i, j int) bool {
	a, b := &h.items[i], &h.items[j]
	if a.Cost != b.Cost {
		return a.Cost < b.Cost
	}
	if c := compareCoordinates(a.Node, b.Node); c != 0 {
		return c < 0
	}
	// Only reached on exact ties, so materializing both trails is rare.
	return compareTrails(a.Via, b.Via) < 0
}

func (h *MinHeap) siftUp(i int) {
	for i > 0 {
		parent := (i - 1) / 2
		if !h.less(i, parent) {
			break
		}
		h.items[i], h.items[parent] = h.items[parent], h.items[i]
		i = parent
	}
}

func (h *MinHeap) siftDown(i int) {
	n := len(h.items)
	for {
		smallest := i
		left := 2*i + 1
		right := 2*i + 2
		if left < n && h.less(left, smallest) {
			smallest = left
		}
		if right < n && h.less(right, smallest) {
			smallest = right
		}
		if smallest == i {
			break
		}
		h.items[i], h.items[smallest] = h.items[smallest], h.items[i]
		i = smallest
	}
}

// Search returns the minimum-distance route from start to end over g, using
// great-circle distance as edge weight. A missing path yields an empty Route
// and a nil error; only out-of-range endpoints are errors.
func Search(g *graph.Graph, start, end geo.Coordinate) (Route, error) {
	return SearchContext(context.Background(), g, start, end)
}

// SearchContext is Search with cancellation. The context is polled every
// 100 frontier pops.
func SearchContext(ctx context.Context, g *graph.Graph, start, end geo.Coordinate) (Route, error) {
	if err := validate("routing.Search", start); err != nil {
		return nil, err
	}
	if err := validate("routing.Search", end); err != nil {
		return nil, err
	}

	var pq MinHeap
	settled := make(map[geo.Coordinate]*Trail)
	pq.Push(PQItem{Cost: 0, Node: start})

	iterations := 0
	for pq.Len() > 0 {
		// Check context cancellation periodically.
		iterations++
		if iterations%100 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}

		item := pq.Pop()
		if _, ok := settled[item.Node]; ok {
			continue // stale entry
		}
		trail := item.Via.Extend(item.Node)
		settled[item.Node] = trail

		if item.Node == end {
			return trail.Route(), nil
		}

		for _, next := range g.Neighbors(item.Node) {
			if _, ok := settled[next]; ok {
				continue
			}
			pq.Push(PQItem{
				Cost: item.Cost + geo.Haversine(item.Node, next),
				Node: next,
				Via:  trail,
			})
		}
	}

	return Route{}, nil
}

// RouteDistance returns the total great-circle length of route in kilometers.
func RouteDistance(route Route) float64 {
	var km float64
	for i := 1; i < len(route); i++ {
		km += geo.Haversine(route[i-1], route[i])
	}
	return km
}
