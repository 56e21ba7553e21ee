package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"route_finder/pkg/api"
	"route_finder/pkg/config"
	"route_finder/pkg/export"
	"route_finder/pkg/graph"
	"route_finder/pkg/logger"
	"route_finder/pkg/routing"
)

func main() {
	configPath := pflag.String("config", "", "Path to YAML config file (optional)")
	pflag.String("graph", "graph.json", "Path to graph file (.json raw adjacency or .bin snapshot)")
	pflag.String("addr", ":8080", "HTTP listen address")
	pflag.String("cors-origin", "", "CORS allowed origin (empty = same-origin)")
	pflag.String("overlay-dir", "overlays", "Directory for exported overlay files")
	pflag.String("format", "kml", "Default overlay format: kml or geojson")
	pflag.Bool("indexed", false, "Resolve nearest nodes through an R-tree")
	pflag.String("log-level", "info", "Log level: debug, info, warn, error")
	pflag.Parse()

	loader := config.NewLoader()
	err := loader.BindFlags(map[string]*pflag.Flag{
		"graph.path":         pflag.Lookup("graph"),
		"server.addr":        pflag.Lookup("addr"),
		"server.cors_origin": pflag.Lookup("cors-origin"),
		"export.dir":         pflag.Lookup("overlay-dir"),
		"export.format":      pflag.Lookup("format"),
		"resolver.indexed":   pflag.Lookup("indexed"),
		"log.level":          pflag.Lookup("log-level"),
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	cfg, err := loader.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(2)
	}

	log, level, err := logger.New(cfg.Log.Level, cfg.Log.Development)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(2)
	}
	defer log.Sync()

	if *configPath != "" {
		loader.Watch(func(next *config.Config) {
			lvl, err := logger.ParseLevel(next.Log.Level)
			if err != nil {
				log.Warn("ignoring log level change", zap.Error(err))
				return
			}
			if lvl != level.Level() {
				level.SetLevel(lvl)
				log.Info("log level changed", zap.Stringer("level", lvl))
			}
		}, func(err error) {
			log.Warn("config reload rejected", zap.Error(err))
		})
	}

	if err := run(cfg, log); err != nil {
		log.Error("server stopped", zap.Error(err))
		os.Exit(1)
	}
}

func run(cfg *config.Config, log *zap.Logger) error {
	start := time.Now()

	// Load graph.
	log.Info("loading graph", zap.String("path", cfg.Graph.Path))
	g, err := graph.Load(cfg.Graph.Path)
	if err != nil {
		return fmt.Errorf("load graph: %w", err)
	}
	stats := api.StatsFor(g)
	log.Info("graph loaded",
		zap.Int("keys", stats.NumKeys),
		zap.Int("nodes", stats.NumNodes),
		zap.Int("edges", stats.NumEdges),
		zap.Int("components", stats.NumComponents))

	// Build routing engine.
	opts := []routing.Option{routing.WithLogger(log.Named("routing"))}
	if cfg.Resolver.Indexed {
		log.Info("building R-tree spatial index")
		opts = append(opts, routing.WithIndexedResolver())
	}
	engine := routing.NewEngine(g, opts...)

	format, err := export.ParseFormat(cfg.Export.Format)
	if err != nil {
		return err
	}
	overlays, err := api.NewOverlays(cfg.Export.Dir, format, log.Named("export"))
	if err != nil {
		return err
	}

	log.Info("ready", zap.Duration("elapsed", time.Since(start).Round(time.Millisecond)))

	// Setup HTTP server.
	srvCfg := api.ServerConfig{
		Addr:           cfg.Server.Addr,
		ReadTimeout:    cfg.Server.ReadTimeout,
		WriteTimeout:   cfg.Server.WriteTimeout,
		RequestTimeout: cfg.Server.RequestTimeout,
		MaxConcurrent:  cfg.Server.MaxConcurrent,
		CORSOrigin:     cfg.Server.CORSOrigin,
	}
	handlers := api.NewHandlers(engine, overlays, stats, log.Named("api"))
	srv := api.NewServer(srvCfg, handlers, log.Named("http"))

	return api.ListenAndServe(srv, log)
}
