package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/paulmach/orb"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"route_finder/pkg/graph"
	"route_finder/pkg/logger"
	osmparser "route_finder/pkg/osm"
)

func main() {
	input := pflag.String("input", "", "Path to .osm.pbf or .osm/.xml file")
	output := pflag.String("output", "graph.json", "Output graph file (.json raw adjacency or .bin snapshot)")
	bbox := pflag.String("bbox", "", "Bounding box filter: minLon,minLat,maxLon,maxLat (e.g. 103.6,1.15,104.1,1.48)")
	largest := pflag.Bool("largest-component", true, "Keep only the largest connected component")
	logLevel := pflag.String("log-level", "info", "Log level: debug, info, warn, error")
	pflag.Parse()

	if *input == "" {
		fmt.Fprintln(os.Stderr, "Usage: preprocess --input <file.osm.pbf> [--output graph.json|graph.bin] [--bbox minLon,minLat,maxLon,maxLat] [--largest-component=false]")
		os.Exit(1)
	}

	log, _, err := logger.New(*logLevel, true)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer log.Sync()

	opts := osmparser.ParseOptions{
		Format: osmparser.FormatFromPath(*input),
		Logger: log.Named("osm"),
	}
	if *bbox != "" {
		bound, err := parseBBox(*bbox)
		if err != nil {
			log.Fatal("invalid bbox", zap.Error(err))
		}
		opts.BBox = bound
		log.Info("using bounding box filter",
			zap.Float64s("min", bound.Min[:]),
			zap.Float64s("max", bound.Max[:]))
	}

	if err := run(*input, *output, *largest, opts, log); err != nil {
		log.Fatal("preprocess failed", zap.Error(err))
	}
}

func run(input, output string, largest bool, opts osmparser.ParseOptions, log *zap.Logger) error {
	start := time.Now()

	// Step 1: Parse OSM data.
	f, err := os.Open(input)
	if err != nil {
		return fmt.Errorf("open input: %w", err)
	}
	defer f.Close()

	log.Info("parsing OSM data", zap.String("input", input))
	parseResult, err := osmparser.Parse(context.Background(), f, opts)
	if err != nil {
		return fmt.Errorf("parse OSM: %w", err)
	}
	log.Info("parsed", zap.Int("edges", len(parseResult.Edges)), zap.Int("nodes", len(parseResult.NodeLat)))

	// Step 2: Build graph.
	g := graph.FromOSM(parseResult)
	log.Info("graph built", zap.Int("keys", g.NumKeys()), zap.Int("edges", g.NumEdges()))

	// Step 3: Extract largest connected component.
	if largest {
		total := len(g.Universe())
		nodes := graph.LargestComponent(g)
		pct := 0.0
		if total > 0 {
			pct = float64(len(nodes)) / float64(total) * 100
		}
		log.Info("largest component", zap.Int("nodes", len(nodes)), zap.Float64("percent", pct))
		g = graph.FilterToComponent(g, nodes)
		log.Info("filtered graph", zap.Int("keys", g.NumKeys()), zap.Int("edges", g.NumEdges()))
	}

	// Step 4: Serialize.
	log.Info("writing graph", zap.String("output", output))
	if strings.EqualFold(filepath.Ext(output), ".bin") {
		err = graph.WriteBinary(output, g)
	} else {
		err = graph.WriteRawFile(output, graph.ToRaw(g))
	}
	if err != nil {
		return fmt.Errorf("write graph: %w", err)
	}

	info, err := os.Stat(output)
	if err != nil {
		return err
	}
	log.Info("done",
		zap.Duration("elapsed", time.Since(start).Round(time.Millisecond)),
		zap.String("output", output),
		zap.Float64("size_mb", float64(info.Size())/(1024*1024)))
	return nil
}

// parseBBox parses "minLon,minLat,maxLon,maxLat".
func parseBBox(s string) (orb.Bound, error) {
	var minLon, minLat, maxLon, maxLat float64
	if _, err := fmt.Sscanf(s, "%f,%f,%f,%f", &minLon, &minLat, &maxLon, &maxLat); err != nil {
		return orb.Bound{}, fmt.Errorf("expected minLon,minLat,maxLon,maxLat: %w", err)
	}
	if minLon > maxLon || minLat > maxLat {
		return orb.Bound{}, fmt.Errorf("min corner (%v, %v) exceeds max corner (%v, %v)", minLon, minLat, maxLon, maxLat)
	}
	return orb.Bound{Min: orb.Point{minLon, minLat}, Max: orb.Point{maxLon, maxLat}}, nil
}
