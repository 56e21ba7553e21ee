package routing

import (
	"context"
	"time"

	"go.uber.org/zap"

	"route_finder/pkg/geo"
	"route_finder/pkg/graph"
)

// Result is the output of a route query.
type Result struct {
	StartNode  geo.Coordinate // graph node resolved from the start query
	EndNode    geo.Coordinate // graph node resolved from the end query
	Route      Route
	DistanceKm float64
}

// Found reports whether a path was found.
func (r *Result) Found() bool { return len(r.Route) > 0 }

// Router is the interface for route queries.
type Router interface {
	Route(ctx context.Context, start, end geo.Coordinate) (*Result, error)
}

// Engine implements Router over a graph loaded once and shared read-only.
// It is safe for concurrent use.
type Engine struct {
	g        *graph.Graph
	resolver Resolver
	logger   *zap.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithIndexedResolver resolves endpoints through an R-tree instead of a
// linear scan. Results are identical.
func WithIndexedResolver() Option {
	return func(e *Engine) { e.resolver = NewIndexedResolver(e.g) }
}

// WithLogger sets the logger used for per-query debug output.
func WithLogger(logger *zap.Logger) Option {
	return func(e *Engine) { e.logger = logger }
}

// NewEngine creates a routing engine for g.
func NewEngine(g *graph.Graph, opts ...Option) *Engine {
	e := &Engine{g: g, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(e)
	}
	if e.resolver == nil {
		e.resolver = NewScanResolver(g)
	}
	return e
}

// Graph returns the engine's graph. Callers must not modify it.
func (e *Engine) Graph() *graph.Graph { return e.g }

// Route resolves start and end to their nearest graph nodes and computes the
// shortest path between them. An empty Result.Route means no path exists.
func (e *Engine) Route(ctx context.Context, start, end geo.Coordinate) (*Result, error) {
	began := time.Now()

	// Step 1: Resolve query points to graph nodes.
	startNode, err := e.resolver.Nearest(start)
	if err != nil {
		return nil, err
	}
	endNode, err := e.resolver.Nearest(end)
	if err != nil {
		return nil, err
	}

	// Step 2: Run Dijkstra between the resolved nodes.
	route, err := SearchContext(ctx, e.g, startNode, endNode)
	if err != nil {
		return nil, err
	}

	result := &Result{
		StartNode:  startNode,
		EndNode:    endNode,
		Route:      route,
		DistanceKm: RouteDistance(route),
	}

	e.logger.Debug("route computed",
		zap.Stringer("start_node", startNode),
		zap.Stringer("end_node", endNode),
		zap.Int("hops", len(route)),
		zap.Float64("distance_km", result.DistanceKm),
		zap.Duration("elapsed", time.Since(began)))

	return result, nil
}

// ShortestPath normalizes raw, resolves both queries against it and returns
// the shortest route between the resolved nodes. Malformed graph input is
// reported before any search runs.
func ShortestPath(startQuery, endQuery geo.Coordinate, raw *graph.RawGraph) (Route, error) {
	g, err := graph.Parse(raw)
	if err != nil {
		return nil, err
	}

	startNode, err := Nearest(startQuery, g)
	if err != nil {
		return nil, err
	}
	endNode, err := Nearest(endQuery, g)
	if err != nil {
		return nil, err
	}

	return Search(g, startNode, endNode)
}
