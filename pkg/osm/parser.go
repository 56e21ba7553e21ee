// Package osm extracts a road/trail edge list from OpenStreetMap extracts.
package osm

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/paulmach/orb"
	"github.com/paulmach/osm"
	"github.com/paulmach/osm/osmpbf"
	"github.com/paulmach/osm/osmxml"
	"go.uber.org/zap"
)

// RawEdge represents a directed edge parsed from OSM data.
type RawEdge struct {
	FromNodeID osm.NodeID
	ToNodeID   osm.NodeID
}

// ParseResult holds the output of parsing an OSM file. Edges are in way
// order, then node order within each way.
type ParseResult struct {
	Edges   []RawEdge
	NodeLat map[osm.NodeID]float64
	NodeLon map[osm.NodeID]float64
}

// Format is the encoding of an OSM extract.
type Format int

const (
	FormatPBF Format = iota
	FormatXML
)

// FormatFromPath guesses the format from a file name: ".osm" and ".xml"
// are XML, anything else is PBF.
func FormatFromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".osm", ".xml":
		return FormatXML
	}
	return FormatPBF
}

// routableHighways lists highway tag values that make up the road and trail
// network.
var routableHighways = map[string]bool{
	"motorway":       true,
	"motorway_link":  true,
	"trunk":          true,
	"trunk_link":     true,
	"primary":        true,
	"primary_link":   true,
	"secondary":      true,
	"secondary_link": true,
	"tertiary":       true,
	"tertiary_link":  true,
	"unclassified":   true,
	"residential":    true,
	"living_street":  true,
	"service":        true,
	"track":          true,
	"path":           true,
	"footway":        true,
	"bridleway":      true,
	"cycleway":       true,
	"pedestrian":     true,
	"steps":          true,
}

// isRoutable returns true if the way belongs to the road/trail network.
func isRoutable(tags osm.Tags) bool {
	hw := tags.Find("highway")
	if !routableHighways[hw] {
		return false
	}

	// Skip area highways (pedestrian plazas).
	if tags.Find("area") == "yes" {
		return false
	}

	// Skip restricted access.
	access := tags.Find("access")
	if access == "no" || access == "private" {
		return false
	}

	return true
}

// directionFlags returns (forward, backward) based on highway type and oneway tags.
func directionFlags(tags osm.Tags) (forward, backward bool) {
	// Default: bidirectional.
	forward = true
	backward = true

	hw := tags.Find("highway")

	// Implied oneway for motorways and roundabouts.
	if hw == "motorway" || hw == "motorway_link" || tags.Find("junction") == "roundabout" {
		backward = false
	}

	// Explicit oneway tag overrides.
	switch tags.Find("oneway") {
	case "yes", "true", "1":
		forward = true
		backward = false
	case "-1", "reverse":
		forward = false
		backward = true
	case "no":
		forward = true
		backward = true
	case "reversible":
		// Time-dependent: skip entirely.
		forward = false
		backward = false
	}

	return forward, backward
}

// wayInfo holds parsed way data collected during Pass 1.
type wayInfo struct {
	NodeIDs  []osm.NodeID
	Forward  bool
	Backward bool
}

// ParseOptions configures the OSM parser.
type ParseOptions struct {
	Format Format
	// BBox, if non-zero, keeps only edges with both endpoints inside it.
	BBox   orb.Bound
	Logger *zap.Logger
}

// newScanner opens a scanner over r. The skip flags only apply to PBF; XML
// scanners yield every object and the caller filters by type.
func newScanner(ctx context.Context, r io.Reader, format Format, skipNodes, skipWays bool) osm.Scanner {
	if format == FormatXML {
		return osmxml.New(ctx, r)
	}
	s := osmpbf.New(ctx, r, 1)
	s.SkipNodes = skipNodes
	s.SkipWays = skipWays
	s.SkipRelations = true
	return s
}

// Parse reads an OSM file and returns directed road/trail edges.
// The reader is consumed twice (seeks back to start for the second pass),
// so it must implement io.ReadSeeker.
func Parse(ctx context.Context, rs io.ReadSeeker, opts ...ParseOptions) (*ParseResult, error) {
	var opt ParseOptions
	if len(opts) > 0 {
		opt = opts[0]
	}
	logger := opt.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	useBBox := !opt.BBox.IsZero()

	// Pass 1: Scan ways to collect referenced node IDs and way info.
	referencedNodes := make(map[osm.NodeID]struct{})
	var ways []wayInfo

	scanner := newScanner(ctx, rs, opt.Format, true, false)
	for scanner.Scan() {
		w, ok := scanner.Object().(*osm.Way)
		if !ok {
			continue
		}

		if !isRoutable(w.Tags) {
			continue
		}

		if len(w.Nodes) < 2 {
			continue
		}

		fwd, bwd := directionFlags(w.Tags)
		if !fwd && !bwd {
			continue
		}

		nodeIDs := make([]osm.NodeID, len(w.Nodes))
		for i, wn := range w.Nodes {
			nodeIDs[i] = wn.ID
			referencedNodes[wn.ID] = struct{}{}
		}

		ways = append(ways, wayInfo{
			NodeIDs:  nodeIDs,
			Forward:  fwd,
			Backward: bwd,
		})
	}
	if err := scanner.Err(); err != nil {
		scanner.Close()
		return nil, fmt.Errorf("pass 1 (ways): %w", err)
	}
	scanner.Close()

	logger.Info("pass 1 complete",
		zap.Int("ways", len(ways)),
		zap.Int("referenced_nodes", len(referencedNodes)))

	// Pass 2: Scan nodes to collect coordinates for referenced nodes only.
	if _, err := rs.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("seek for pass 2: %w", err)
	}

	nodeLat := make(map[osm.NodeID]float64, len(referencedNodes))
	nodeLon := make(map[osm.NodeID]float64, len(referencedNodes))

	scanner = newScanner(ctx, rs, opt.Format, false, true)
	for scanner.Scan() {
		n, ok := scanner.Object().(*osm.Node)
		if !ok {
			continue
		}

		if _, needed := referencedNodes[n.ID]; !needed {
			continue
		}

		nodeLat[n.ID] = n.Lat
		nodeLon[n.ID] = n.Lon
	}
	if err := scanner.Err(); err != nil {
		scanner.Close()
		return nil, fmt.Errorf("pass 2 (nodes): %w", err)
	}
	scanner.Close()

	logger.Info("pass 2 complete", zap.Int("node_coordinates", len(nodeLat)))

	// Build edges from ways.
	var edges []RawEdge
	var skippedEdges int
	var bboxFiltered int

	for _, w := range ways {
		for i := 0; i < len(w.NodeIDs)-1; i++ {
			fromID := w.NodeIDs[i]
			toID := w.NodeIDs[i+1]

			fromLat, fromOk := nodeLat[fromID]
			toLat, toOk := nodeLat[toID]
			if !fromOk || !toOk {
				skippedEdges++
				continue
			}

			// Bounding box filter: skip edges with any endpoint outside.
			if useBBox && (!opt.BBox.Contains(orb.Point{nodeLon[fromID], fromLat}) ||
				!opt.BBox.Contains(orb.Point{nodeLon[toID], toLat})) {
				bboxFiltered++
				continue
			}

			if w.Forward {
				edges = append(edges, RawEdge{FromNodeID: fromID, ToNodeID: toID})
			}
			if w.Backward {
				edges = append(edges, RawEdge{FromNodeID: toID, ToNodeID: fromID})
			}
		}
	}

	if skippedEdges > 0 {
		logger.Warn("skipped edges due to missing node coordinates", zap.Int("edges", skippedEdges))
	}
	if bboxFiltered > 0 {
		logger.Info("filtered edges outside bounding box", zap.Int("edges", bboxFiltered))
	}
	logger.Info("built directed edges", zap.Int("edges", len(edges)))

	return &ParseResult{
		Edges:   edges,
		NodeLat: nodeLat,
		NodeLon: nodeLon,
	}, nil
}
