package routing

import (
	"math"

	"github.com/tidwall/rtree"

	"route_finder/pkg/geo"
	"route_finder/pkg/graph"
	"route_finder/pkg/routeerr"
)

// Resolver maps an arbitrary coordinate to the closest node of a graph.
type Resolver interface {
	Nearest(query geo.Coordinate) (geo.Coordinate, error)
}

// Nearest returns the node of g closest to query, scanning every key and every
// neighbor. Ties go to the first node encountered: keys in insertion order,
// each followed by its neighbors in order.
//
// This is O(V+E) per call, which is fine for the small graphs it serves.
// IndexedResolver gives the same answers faster on large graphs.
func Nearest(query geo.Coordinate, g *graph.Graph) (geo.Coordinate, error) {
	if err := validate("routing.Nearest", query); err != nil {
		return geo.Coordinate{}, err
	}

	var best geo.Coordinate
	bestDist := math.Inf(1)
	found := false
	consider := func(c geo.Coordinate) {
		if d := geo.Haversine(query, c); !found || d < bestDist {
			best, bestDist, found = c, d, true
		}
	}

	for _, k := range g.Keys() {
		consider(k)
		for _, n := range g.Neighbors(k) {
			consider(n)
		}
	}

	if !found {
		return geo.Coordinate{}, routeerr.New(routeerr.ErrEmptyGraph, "routing.Nearest", "graph has no nodes")
	}
	return best, nil
}

// ScanResolver runs the linear scan of Nearest over a graph universe computed
// once up front.
type ScanResolver struct {
	nodes []geo.Coordinate
}

// NewScanResolver snapshots the universe of g.
func NewScanResolver(g *graph.Graph) *ScanResolver {
	return &ScanResolver{nodes: g.Universe()}
}

// Nearest implements Resolver.
func (s *ScanResolver) Nearest(query geo.Coordinate) (geo.Coordinate, error) {
	if err := validate("routing.Nearest", query); err != nil {
		return geo.Coordinate{}, err
	}
	if len(s.nodes) == 0 {
		return geo.Coordinate{}, routeerr.New(routeerr.ErrEmptyGraph, "routing.Nearest", "graph has no nodes")
	}

	best := 0
	bestDist := geo.Haversine(query, s.nodes[0])
	for i := 1; i < len(s.nodes); i++ {
		if d := geo.Haversine(query, s.nodes[i]); d < bestDist {
			best, bestDist = i, d
		}
	}
	return s.nodes[best], nil
}

// seedHalfWidthDeg is the half-width of the first box probed for a seed
// candidate. 0.01° ≈ 1.1 km at the equator.
const seedHalfWidthDeg = 0.01

// boxPadDeg widens the final query box to absorb floating-point error at the
// cap boundary, so exact ties are never missed.
const boxPadDeg = 1e-9

// IndexedResolver answers nearest-node queries through an R-tree over the
// graph universe. It returns exactly what Nearest returns, including the
// first-encountered tie-break.
type IndexedResolver struct {
	nodes []geo.Coordinate // universe order; R-tree items carry the index
	tr    rtree.RTreeG[int]
}

// NewIndexedResolver indexes the universe of g.
func NewIndexedResolver(g *graph.Graph) *IndexedResolver {
	r := &IndexedResolver{nodes: g.Universe()}
	for i, n := range r.nodes {
		p := [2]float64{n.Lon, n.Lat}
		r.tr.Insert(p, p, i)
	}
	return r
}

// Nearest implements Resolver.
func (r *IndexedResolver) Nearest(query geo.Coordinate) (geo.Coordinate, error) {
	if err := validate("routing.Nearest", query); err != nil {
		return geo.Coordinate{}, err
	}
	if len(r.nodes) == 0 {
		return geo.Coordinate{}, routeerr.New(routeerr.ErrEmptyGraph, "routing.Nearest", "graph has no nodes")
	}

	bestIdx := -1
	bestDist := math.Inf(1)
	consider := func(_, _ [2]float64, i int) bool {
		d := geo.Haversine(query, r.nodes[i])
		if d < bestDist || (d == bestDist && i < bestIdx) {
			bestIdx, bestDist = i, d
		}
		return true
	}

	// Step 1: grow a box around the query until it holds any node. Once the
	// half-width passes 360° the box covers the whole world, so this ends.
	for half := seedHalfWidthDeg; bestIdx < 0; half *= 4 {
		r.tr.Search(
			[2]float64{query.Lon - half, query.Lat - half},
			[2]float64{query.Lon + half, query.Lat + half},
			consider)
	}

	// Step 2: every node at least as close as the seed lies inside the
	// bounding box of the spherical cap of radius bestDist around the query.
	minLon, minLat, maxLon, maxLat := capBounds(query, bestDist)
	r.tr.Search([2]float64{minLon, minLat}, [2]float64{maxLon, maxLat}, consider)
	// The cap may wrap across the antimeridian.
	if minLon < -180 {
		r.tr.Search([2]float64{minLon + 360, minLat}, [2]float64{180, maxLat}, consider)
	}
	if maxLon > 180 {
		r.tr.Search([2]float64{-180, minLat}, [2]float64{maxLon - 360, maxLat}, consider)
	}

	return r.nodes[bestIdx], nil
}

// capBounds returns a lon/lat box enclosing every point within km of center.
func capBounds(center geo.Coordinate, km float64) (minLon, minLat, maxLon, maxLat float64) {
	delta := km / geo.EarthRadiusKm // angular radius
	deltaDeg := delta*180/math.Pi*(1+1e-9) + boxPadDeg

	minLat = center.Lat - deltaDeg
	maxLat = center.Lat + deltaDeg
	if minLat <= -90 || maxLat >= 90 {
		// A pole is inside the cap, so every longitude is.
		return -180, math.Max(minLat, -90), 180, math.Min(maxLat, 90)
	}

	ratio := math.Sin(delta) / math.Cos(center.Lat*math.Pi/180)
	if ratio >= 1 {
		return -180, minLat, 180, maxLat
	}
	dLonDeg := math.Asin(ratio)*180/math.Pi*(1+1e-9) + boxPadDeg
	return center.Lon - dLonDeg, minLat, center.Lon + dLonDeg, maxLat
}

func validate(op string, c geo.Coordinate) error {
	if err := c.Validate(); err != nil {
		return routeerr.New(routeerr.ErrInvalidCoordinate, op, "%s", routeerr.Detail(err))
	}
	return nil
}
