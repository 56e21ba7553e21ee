package graph

import (
	"route_finder/pkg/geo"
	osmparser "route_finder/pkg/osm"
)

// FromOSM builds a Graph from parsed OSM edges. Nodes are identified by their
// coordinates, so distinct OSM nodes sharing a position collapse into one.
// Keys appear in the order their first outgoing edge was parsed, and
// duplicate edges between the same pair of nodes are dropped.
func FromOSM(result *osmparser.ParseResult) *Graph {
	g := New()
	seen := make(map[[2]geo.Coordinate]struct{}, len(result.Edges))

	for _, e := range result.Edges {
		from := geo.Coordinate{Lon: result.NodeLon[e.FromNodeID], Lat: result.NodeLat[e.FromNodeID]}
		to := geo.Coordinate{Lon: result.NodeLon[e.ToNodeID], Lat: result.NodeLat[e.ToNodeID]}
		if from == to {
			continue
		}

		pair := [2]geo.Coordinate{from, to}
		if _, dup := seen[pair]; dup {
			continue
		}
		seen[pair] = struct{}{}

		g.AddEdge(from, to)
	}

	return g
}
