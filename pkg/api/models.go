package api

import (
	"route_finder/pkg/geo"
	"route_finder/pkg/graph"
)

// RouteRequest is the JSON body for POST /api/v1/route.
type RouteRequest struct {
	Start  *CoordinateJSON `json:"start"`
	End    *CoordinateJSON `json:"end"`
	Format string          `json:"format,omitempty"` // kml or geojson; empty means the server default
}

// CoordinateJSON is a lon/lat pair in JSON. Both fields are required.
type CoordinateJSON struct {
	Lon *float64 `json:"lon"`
	Lat *float64 `json:"lat"`
}

// RouteResponse is the JSON response for a route query. Points are
// [lon, lat] pairs.
type RouteResponse struct {
	Found       bool         `json:"found"`
	StartNode   [2]float64   `json:"start_node"`
	EndNode     [2]float64   `json:"end_node"`
	Route       [][2]float64 `json:"route"`
	DistanceKm  float64      `json:"distance_km"`
	OverlayPath string       `json:"overlay_path,omitempty"`
	OverlayURL  string       `json:"overlay_url,omitempty"`
}

// ErrorResponse is the JSON response for errors.
type ErrorResponse struct {
	Error   string `json:"error"`
	Field   string `json:"field,omitempty"`
	Message string `json:"message,omitempty"`
}

// StatsResponse is the JSON response for GET /api/v1/stats.
type StatsResponse struct {
	NumKeys       int `json:"num_keys"`
	NumNodes      int `json:"num_nodes"`
	NumEdges      int `json:"num_edges"`
	NumComponents int `json:"num_components"`
}

// HealthResponse is the JSON response for GET /api/v1/health.
type HealthResponse struct {
	Status string `json:"status"`
}

// StatsFor summarizes g.
func StatsFor(g *graph.Graph) StatsResponse {
	return StatsResponse{
		NumKeys:       g.NumKeys(),
		NumNodes:      len(g.Universe()),
		NumEdges:      g.NumEdges(),
		NumComponents: graph.ComponentCount(g),
	}
}

func pair(c geo.Coordinate) [2]float64 { return [2]float64{c.Lon, c.Lat} }
