package graph

import (
	"testing"

	"github.com/paulmach/osm"
	"github.com/stretchr/testify/assert"

	"route_finder/pkg/geo"
	osmparser "route_finder/pkg/osm"
)

func TestFromOSM(t *testing.T) {
	// Triangle 100 -> 200 -> 300 -> 100 plus a oneway spur 300 -> 400.
	result := &osmparser.ParseResult{
		Edges: []osmparser.RawEdge{
			{FromNodeID: 100, ToNodeID: 200},
			{FromNodeID: 200, ToNodeID: 300},
			{FromNodeID: 300, ToNodeID: 100},
			{FromNodeID: 300, ToNodeID: 400},
		},
		NodeLat: map[osm.NodeID]float64{100: 1.0, 200: 1.1, 300: 1.0, 400: 1.2},
		NodeLon: map[osm.NodeID]float64{100: 103.0, 200: 103.0, 300: 103.1, 400: 103.2},
	}

	g := FromOSM(result)

	assert.Equal(t, []geo.Coordinate{c(103.0, 1.0), c(103.0, 1.1), c(103.1, 1.0)}, g.Keys())
	assert.Equal(t, []geo.Coordinate{c(103.0, 1.0), c(103.2, 1.2)}, g.Neighbors(c(103.1, 1.0)))
	assert.False(t, g.HasKey(c(103.2, 1.2)), "oneway end is a leaf")
	assert.Equal(t, 4, g.NumEdges())
}

func TestFromOSMEmpty(t *testing.T) {
	g := FromOSM(&osmparser.ParseResult{
		NodeLat: map[osm.NodeID]float64{},
		NodeLon: map[osm.NodeID]float64{},
	})
	assert.Zero(t, g.NumKeys())
}

func TestFromOSMCollapsesDuplicates(t *testing.T) {
	// Nodes 1 and 2 share a position; two ways overlap on 2 -> 3.
	result := &osmparser.ParseResult{
		Edges: []osmparser.RawEdge{
			{FromNodeID: 1, ToNodeID: 2},
			{FromNodeID: 2, ToNodeID: 3},
			{FromNodeID: 2, ToNodeID: 3},
			{FromNodeID: 1, ToNodeID: 3},
		},
		NodeLat: map[osm.NodeID]float64{1: 1.0, 2: 1.0, 3: 1.1},
		NodeLon: map[osm.NodeID]float64{1: 103.0, 2: 103.0, 3: 103.1},
	}

	g := FromOSM(result)

	assert.Equal(t, 1, g.NumKeys())
	assert.Equal(t, []geo.Coordinate{c(103.1, 1.1)}, g.Neighbors(c(103.0, 1.0)))
}
