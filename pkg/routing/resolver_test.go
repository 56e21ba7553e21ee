package routing

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"route_finder/pkg/geo"
	"route_finder/pkg/graph"
	"route_finder/pkg/routeerr"
)

func TestNearestBasic(t *testing.T) {
	g := buildTestGraph()

	tests := []struct {
		query geo.Coordinate
		want  geo.Coordinate
	}{
		{c(0.01, 0.01), c(0, 0)},
		{c(1.0, 1.0), c(1, 1)},
		{c(0.1, 0.9), c(0, 1)},
		{c(-50, -50), c(0, 0)},
	}
	for _, tt := range tests {
		t.Run(tt.query.String(), func(t *testing.T) {
			got, err := Nearest(tt.query, g)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNearestConsidersNeighborOnlyNodes(t *testing.T) {
	g := graph.New()
	g.SetNeighbors(c(0, 0), c(5, 5))

	got, err := Nearest(c(5.1, 5.1), g)
	require.NoError(t, err)
	assert.Equal(t, c(5, 5), got)
}

func TestNearestTieGoesToFirstEncountered(t *testing.T) {
	// Both candidates are exactly 1° of longitude away along the equator.
	g := graph.New()
	g.SetNeighbors(c(10, 0), c(12, 0))
	g.SetNeighbors(c(12, 0))

	got, err := Nearest(c(11, 0), g)
	require.NoError(t, err)
	assert.Equal(t, c(10, 0), got)

	// Reversing key order reverses the winner.
	g = graph.New()
	g.SetNeighbors(c(12, 0))
	g.SetNeighbors(c(10, 0))

	got, err = Nearest(c(11, 0), g)
	require.NoError(t, err)
	assert.Equal(t, c(12, 0), got)
}

func TestNearestEmptyGraph(t *testing.T) {
	_, err := Nearest(c(0, 0), graph.New())
	assert.ErrorIs(t, err, routeerr.ErrEmptyGraph)

	_, err = NewScanResolver(graph.New()).Nearest(c(0, 0))
	assert.ErrorIs(t, err, routeerr.ErrEmptyGraph)

	_, err = NewIndexedResolver(graph.New()).Nearest(c(0, 0))
	assert.ErrorIs(t, err, routeerr.ErrEmptyGraph)
}

func TestNearestInvalidQuery(t *testing.T) {
	g := buildTestGraph()
	resolvers := map[string]Resolver{
		"scan":    NewScanResolver(g),
		"indexed": NewIndexedResolver(g),
	}

	_, err := Nearest(c(181, 0), g)
	assert.ErrorIs(t, err, routeerr.ErrInvalidCoordinate)
	for name, r := range resolvers {
		_, err := r.Nearest(c(0, 95))
		assert.ErrorIs(t, err, routeerr.ErrInvalidCoordinate, name)
	}
}

// assertResolversAgree checks that both resolvers return what Nearest returns.
func assertResolversAgree(t *testing.T, g *graph.Graph, queries []geo.Coordinate) {
	t.Helper()
	scan := NewScanResolver(g)
	indexed := NewIndexedResolver(g)
	for _, q := range queries {
		want, err := Nearest(q, g)
		require.NoError(t, err)

		got, err := scan.Nearest(q)
		require.NoError(t, err)
		assert.Equal(t, want, got, "scan resolver for %v", q)

		got, err = indexed.Nearest(q)
		require.NoError(t, err)
		assert.Equal(t, want, got, "indexed resolver for %v", q)
	}
}

func TestResolversMatchNearestRandom(t *testing.T) {
	rng := rand.New(rand.NewPCG(3, 4))
	for range 10 {
		g := randomGraph(rng, 200, 3)
		queries := make([]geo.Coordinate, 100)
		for i := range queries {
			queries[i] = c(103.5+rng.Float64()*0.6, 1.1+rng.Float64()*0.5)
		}
		assertResolversAgree(t, g, queries)
	}
}

func TestResolversMatchNearestGlobal(t *testing.T) {
	rng := rand.New(rand.NewPCG(5, 6))
	g := graph.New()
	for range 300 {
		g.SetNeighbors(c(rng.Float64()*360-180, rng.Float64()*180-90))
	}
	queries := make([]geo.Coordinate, 300)
	for i := range queries {
		queries[i] = c(rng.Float64()*360-180, rng.Float64()*180-90)
	}
	assertResolversAgree(t, g, queries)
}

func TestResolversMatchNearestTies(t *testing.T) {
	// A lattice puts many nodes at identical distances from lattice midpoints.
	g := graph.New()
	for x := 4; x >= 0; x-- {
		for y := range 5 {
			node := c(float64(x), float64(y))
			g.SetNeighbors(node, c(float64(x)+1, float64(y)))
		}
	}
	var queries []geo.Coordinate
	for x := range 6 {
		for y := range 6 {
			queries = append(queries, c(float64(x)+0.5, float64(y)+0.5), c(float64(x)+0.5, float64(y)))
		}
	}
	assertResolversAgree(t, g, queries)
}

func TestResolversMatchNearestAntimeridianAndPoles(t *testing.T) {
	g := graph.New()
	g.SetNeighbors(c(179.9, 10), c(-179.95, 10.05))
	g.SetNeighbors(c(-170, -10))
	g.SetNeighbors(c(0, 89.9), c(180, 89.95))
	g.SetNeighbors(c(90, -89.99))

	queries := []geo.Coordinate{
		c(-179.99, 10),
		c(179.99, 10.04),
		c(180, 0),
		c(-180, 0),
		c(-90, 89.99),
		c(45, 90),
		c(-135, -90),
		c(0, 0),
	}
	assertResolversAgree(t, g, queries)

	got, err := NewIndexedResolver(g).Nearest(c(-179.99, 10))
	require.NoError(t, err)
	assert.Equal(t, c(-179.95, 10.05), got)
}

func TestCapBoundsContainsCap(t *testing.T) {
	rng := rand.New(rand.NewPCG(11, 12))
	centers := []geo.Coordinate{c(10, 45), c(103.8, 1.35), c(-70, -60), c(179.5, 0)}
	const km = 100.0

	for _, center := range centers {
		minLon, minLat, maxLon, maxLat := capBounds(center, km)
		for range 2000 {
			p := c(center.Lon+rng.Float64()*6-3, center.Lat+rng.Float64()*2-1)
			if p.Lon > 180 {
				p.Lon -= 360
			}
			if geo.Haversine(center, p) > km {
				continue
			}
			assert.True(t, p.Lat >= minLat && p.Lat <= maxLat, "lat of %v outside cap box of %v", p, center)
			inLon := (p.Lon >= minLon && p.Lon <= maxLon) ||
				(minLon < -180 && p.Lon >= minLon+360) ||
				(maxLon > 180 && p.Lon <= maxLon-360)
			assert.True(t, inLon, "lon of %v outside cap box of %v", p, center)
		}
	}

	minLon, _, maxLon, _ := capBounds(c(0, 89.5), 200)
	assert.Equal(t, -180.0, minLon)
	assert.Equal(t, 180.0, maxLon)
}

func BenchmarkNearestScan(b *testing.B) {
	rng := rand.New(rand.NewPCG(9, 9))
	g := randomGraph(rng, 5000, 3)
	r := NewScanResolver(g)
	q := c(103.8, 1.35)
	for b.Loop() {
		_, _ = r.Nearest(q)
	}
}

func BenchmarkNearestIndexed(b *testing.B) {
	rng := rand.New(rand.NewPCG(9, 9))
	g := randomGraph(rng, 5000, 3)
	r := NewIndexedResolver(g)
	q := c(103.8, 1.35)
	for b.Loop() {
		_, _ = r.Nearest(q)
	}
}
