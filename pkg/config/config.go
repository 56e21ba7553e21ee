// Package config loads server settings from an optional YAML file,
// ROUTE_FINDER_* environment variables and command-line flags.
package config

import (
	"errors"
	"fmt"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. ROUTE_FINDER_SERVER_ADDR.
const EnvPrefix = "ROUTE_FINDER"

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Addr           string        `mapstructure:"addr"`
	ReadTimeout    time.Duration `mapstructure:"read_timeout"`
	WriteTimeout   time.Duration `mapstructure:"write_timeout"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	MaxConcurrent  int           `mapstructure:"max_concurrent"`
	CORSOrigin     string        `mapstructure:"cors_origin"`
}

// GraphConfig locates the graph file.
type GraphConfig struct {
	Path string `mapstructure:"path"` // ".bin" snapshot or raw JSON
}

// ResolverConfig selects the nearest-node strategy.
type ResolverConfig struct {
	Indexed bool `mapstructure:"indexed"`
}

// ExportConfig controls overlay output.
type ExportConfig struct {
	Dir    string `mapstructure:"dir"`
	Format string `mapstructure:"format"` // kml or geojson
}

// LogConfig controls logging.
type LogConfig struct {
	Level       string `mapstructure:"level"`
	Development bool   `mapstructure:"development"`
}

// Config holds the entire configuration.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Graph    GraphConfig    `mapstructure:"graph"`
	Resolver ResolverConfig `mapstructure:"resolver"`
	Export   ExportConfig   `mapstructure:"export"`
	Log      LogConfig      `mapstructure:"log"`
}

// Loader reads configuration through its own viper instance.
type Loader struct {
	v  *viper.Viper
	mu sync.Mutex
}

// NewLoader returns a loader with defaults and environment overrides set up.
func NewLoader() *Loader {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return &Loader{v: v}
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.read_timeout", 5*time.Second)
	v.SetDefault("server.write_timeout", 10*time.Second)
	v.SetDefault("server.request_timeout", 5*time.Second)
	v.SetDefault("server.max_concurrent", 2*runtime.NumCPU())
	v.SetDefault("server.cors_origin", "")
	v.SetDefault("graph.path", "graph.json")
	v.SetDefault("resolver.indexed", false)
	v.SetDefault("export.dir", "overlays")
	v.SetDefault("export.format", "kml")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.development", false)
}

// BindFlags binds command-line flags to config keys. Only flags the user set
// override file and environment values.
func (l *Loader) BindFlags(bindings map[string]*pflag.Flag) error {
	for key, flag := range bindings {
		if flag == nil {
			continue
		}
		if err := l.v.BindPFlag(key, flag); err != nil {
			return fmt.Errorf("bind flag %s: %w", flag.Name, err)
		}
	}
	return nil
}

// Load reads the YAML file at path, if path is non-empty, and returns the
// merged configuration.
func (l *Loader) Load(path string) (*Config, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if path != "" {
		l.v.SetConfigFile(path)
		l.v.SetConfigType("yaml")
		if err := l.v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}
	return l.unmarshal()
}

func (l *Loader) unmarshal() (*Config, error) {
	var cfg Config
	if err := l.v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Watch calls onChange with the reloaded configuration whenever the config
// file changes. Invalid edits are passed to onError and otherwise ignored.
func (l *Loader) Watch(onChange func(*Config), onError func(error)) {
	l.v.OnConfigChange(func(fsnotify.Event) {
		l.mu.Lock()
		cfg, err := l.unmarshal()
		l.mu.Unlock()
		if err != nil {
			if onError != nil {
				onError(err)
			}
			return
		}
		onChange(cfg)
	})
	l.v.WatchConfig()
}

// Load is shorthand for NewLoader().Load(path).
func Load(path string) (*Config, error) {
	return NewLoader().Load(path)
}

// Validate checks settings that would otherwise fail late.
func (c *Config) Validate() error {
	var errs []error
	if c.Server.Addr == "" {
		errs = append(errs, errors.New("server.addr is empty"))
	}
	if c.Server.MaxConcurrent < 1 {
		errs = append(errs, fmt.Errorf("server.max_concurrent must be positive, got %d", c.Server.MaxConcurrent))
	}
	if c.Server.RequestTimeout <= 0 {
		errs = append(errs, fmt.Errorf("server.request_timeout must be positive, got %s", c.Server.RequestTimeout))
	}
	if c.Graph.Path == "" {
		errs = append(errs, errors.New("graph.path is empty"))
	}
	switch strings.ToLower(c.Export.Format) {
	case "kml", "geojson", "json":
	default:
		errs = append(errs, fmt.Errorf("export.format must be kml or geojson, got %q", c.Export.Format))
	}
	return errors.Join(errs...)
}
