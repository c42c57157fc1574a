package main

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/syssam/graft/schema"
)

// Config is the graft.yaml file.
type Config struct {
	Driver string `yaml:"driver"`
	DSN    string `yaml:"dsn"`
	Format string `yaml:"format,omitempty"`
	// Slow is the slow query threshold used with -stats.
	Slow  time.Duration `yaml:"slow,omitempty"`
	Cache CacheConfig   `yaml:"cache,omitempty"`

	schema.File `yaml:",inline"`
}

// CacheConfig configures the result cache. Without a Redis address results
// are cached in memory for the duration of the run. Redis entries outlive
// the run and always expire, after DefaultRedisTTL unless TTL is set.
type CacheConfig struct {
	Redis  string        `yaml:"redis,omitempty"`
	Prefix string        `yaml:"prefix,omitempty"`
	TTL    time.Duration `yaml:"ttl,omitempty"`
}

// DefaultRedisTTL is the lifetime of Redis cache entries when no ttl is
// configured.
const DefaultRedisTTL = 5 * time.Minute

// drivers maps configured driver names to registered database/sql drivers.
var drivers = map[string]string{
	"sqlite":     "sqlite",
	"sqlite3":    "sqlite",
	"mysql":      "mysql",
	"postgres":   "postgres",
	"postgresql": "postgres",
}

// loadConfig reads the config at path. GRAFT_DRIVER and GRAFT_DSN, looked up
// with getenv, override the file.
func loadConfig(path string, getenv func(string) string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if v := getenv("GRAFT_DRIVER"); v != "" {
		cfg.Driver = v
	}
	if v := getenv("GRAFT_DSN"); v != "" {
		cfg.DSN = v
	}
	if cfg.Driver == "" {
		cfg.Driver = "sqlite"
	}
	if _, ok := drivers[cfg.Driver]; !ok {
		return nil, fmt.Errorf("config %s: unknown driver %q", path, cfg.Driver)
	}
	if cfg.DSN == "" {
		return nil, fmt.Errorf("config %s: dsn is required", path)
	}
	if len(cfg.Associations) == 0 {
		return nil, fmt.Errorf("config %s: no associations", path)
	}
	if cfg.Cache.TTL < 0 {
		return nil, fmt.Errorf("config %s: negative cache ttl %s", path, cfg.Cache.TTL)
	}
	if cfg.Cache.Redis != "" && cfg.Cache.TTL == 0 {
		cfg.Cache.TTL = DefaultRedisTTL
	}
	if err := cfg.Normalize(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// driverName returns the database/sql driver of the configured dialect.
func (c *Config) driverName() string {
	return drivers[c.Driver]
}
