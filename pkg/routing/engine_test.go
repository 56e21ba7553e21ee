package routing

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"route_finder/pkg/geo"
	"route_finder/pkg/graph"
	"route_finder/pkg/routeerr"
)

func testRaw() *graph.RawGraph {
	raw := &graph.RawGraph{}
	raw.Add("[0, 0]", []float64{0, 1})
	raw.Add("[0, 1]", []float64{0, 0}, []float64{1, 1})
	raw.Add("[1, 1]")
	return raw
}

func TestShortestPathEndToEnd(t *testing.T) {
	route, err := ShortestPath(c(0.01, 0.01), c(1.0, 1.0), testRaw())
	require.NoError(t, err)
	assert.Equal(t, Route{c(0, 0), c(0, 1), c(1, 1)}, route)
}

func TestShortestPathNoRoute(t *testing.T) {
	raw := &graph.RawGraph{}
	raw.Add("[0, 0]")
	raw.Add("[10, 10]")

	route, err := ShortestPath(c(0, 0), c(10, 10), raw)
	require.NoError(t, err)
	assert.Empty(t, route)
}

func TestShortestPathSameResolvedNode(t *testing.T) {
	route, err := ShortestPath(c(0.01, 0.01), c(-0.01, -0.01), testRaw())
	require.NoError(t, err)
	assert.Equal(t, Route{c(0, 0)}, route)
}

func TestShortestPathNeighborOnlyStart(t *testing.T) {
	raw := &graph.RawGraph{}
	raw.Add("[0, 0]", []float64{3, 3})
	raw.Add("[3, 3.5]", []float64{0, 0})

	// (3,3) resolves as the start but has no outgoing edges.
	route, err := ShortestPath(c(3, 3), c(0, 0), raw)
	require.NoError(t, err)
	assert.Empty(t, route)

	route, err = ShortestPath(c(0, 0), c(3, 3), raw)
	require.NoError(t, err)
	assert.Equal(t, Route{c(0, 0), c(3, 3)}, route)
}

func TestShortestPathEqualCostTie(t *testing.T) {
	raw, err := graph.DecodeRaw([]byte(`{"[0, 0]": [[1, 1], [1, -1]], "[1, 1]": [[2, 0]], "[1, -1]": [[2, 0]]}`))
	require.NoError(t, err)

	route, err := ShortestPath(c(0, 0), c(2, 0), raw)
	require.NoError(t, err)
	assert.Equal(t, Route{c(0, 0), c(1, -1), c(2, 0)}, route)
}

func TestShortestPathErrors(t *testing.T) {
	tests := []struct {
		name  string
		start geo.Coordinate
		end   geo.Coordinate
		raw   func() *graph.RawGraph
		want  error
	}{
		{
			name:  "malformed key",
			start: c(0, 0), end: c(1, 1),
			raw: func() *graph.RawGraph {
				r := testRaw()
				r.Add("not a coordinate", []float64{0, 0})
				return r
			},
			want: routeerr.ErrMalformedGraph,
		},
		{
			name:  "malformed neighbor",
			start: c(0, 0), end: c(1, 1),
			raw: func() *graph.RawGraph {
				r := testRaw()
				r.Add("[2, 2]", []float64{1, 2, 3})
				return r
			},
			want: routeerr.ErrMalformedGraph,
		},
		{
			name:  "malformed key with invalid query",
			start: c(500, 0), end: c(1, 1),
			raw: func() *graph.RawGraph {
				r := testRaw()
				r.Add("[1]")
				return r
			},
			want: routeerr.ErrMalformedGraph,
		},
		{
			name:  "out of range node",
			start: c(0, 0), end: c(1, 1),
			raw: func() *graph.RawGraph {
				r := testRaw()
				r.Add("[0, 100]")
				return r
			},
			want: routeerr.ErrInvalidCoordinate,
		},
		{
			name:  "invalid start",
			start: c(-181, 0), end: c(1, 1),
			raw:   testRaw,
			want:  routeerr.ErrInvalidCoordinate,
		},
		{
			name:  "invalid end",
			start: c(0, 0), end: c(0, 90.5),
			raw:   testRaw,
			want:  routeerr.ErrInvalidCoordinate,
		},
		{
			name:  "empty graph",
			start: c(0, 0), end: c(1, 1),
			raw:   func() *graph.RawGraph { return &graph.RawGraph{} },
			want:  routeerr.ErrEmptyGraph,
		},
		{
			name:  "nil graph",
			start: c(0, 0), end: c(1, 1),
			raw:   func() *graph.RawGraph { return nil },
			want:  routeerr.ErrEmptyGraph,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			route, err := ShortestPath(tt.start, tt.end, tt.raw())
			assert.ErrorIs(t, err, tt.want)
			assert.Nil(t, route)
		})
	}
}

func TestEngineRoute(t *testing.T) {
	g, err := graph.Parse(testRaw())
	require.NoError(t, err)

	for name, opts := range map[string][]Option{
		"scan":    nil,
		"indexed": {WithIndexedResolver()},
	} {
		t.Run(name, func(t *testing.T) {
			e := NewEngine(g, opts...)
			assert.Same(t, g, e.Graph())

			res, err := e.Route(context.Background(), c(0.01, 0.01), c(1.0, 1.0))
			require.NoError(t, err)
			assert.True(t, res.Found())
			assert.Equal(t, c(0, 0), res.StartNode)
			assert.Equal(t, c(1, 1), res.EndNode)
			assert.Equal(t, Route{c(0, 0), c(0, 1), c(1, 1)}, res.Route)
			assert.InDelta(t, RouteDistance(res.Route), res.DistanceKm, 1e-12)

			res, err = e.Route(context.Background(), c(1.0, 1.0), c(0, 0))
			require.NoError(t, err)
			assert.False(t, res.Found())
			assert.Zero(t, res.DistanceKm)
		})
	}
}

func TestEngineRouteErrors(t *testing.T) {
	e := NewEngine(graph.New())
	_, err := e.Route(context.Background(), c(0, 0), c(1, 1))
	assert.ErrorIs(t, err, routeerr.ErrEmptyGraph)

	g, err := graph.Parse(testRaw())
	require.NoError(t, err)
	e = NewEngine(g)
	_, err = e.Route(context.Background(), c(0, 0), c(200, 1))
	assert.ErrorIs(t, err, routeerr.ErrInvalidCoordinate)
}

func TestEngineLogsRoute(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	g, err := graph.Parse(testRaw())
	require.NoError(t, err)

	e := NewEngine(g, WithLogger(zap.New(core)))
	_, err = e.Route(context.Background(), c(0, 0), c(1, 1))
	require.NoError(t, err)

	entries := logs.FilterMessage("route computed").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, int64(3), fields["hops"])
	assert.Equal(t, "(0.0, 0.0)", fields["start_node"])
}

func TestEngineConcurrent(t *testing.T) {
	g, err := graph.Parse(testRaw())
	require.NoError(t, err)
	e := NewEngine(g, WithIndexedResolver())

	var wg sync.WaitGroup
	for range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 50 {
				res, err := e.Route(context.Background(), c(0.01, 0.01), c(1.0, 1.0))
				if assert.NoError(t, err) {
					assert.Len(t, res.Route, 3)
				}
			}
		}()
	}
	wg.Wait()
}
