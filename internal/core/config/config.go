package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/aevon-lab/poolstats/internal/core/aggregation"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Config represents the top-level application config.
type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Database  DatabaseConfig  `koanf:"database"`
	Stats     StatsConfig     `koanf:"stats"`
	Retention RetentionConfig `koanf:"retention"`
	Cache     CacheConfig     `koanf:"cache"`
}

type ServerConfig struct {
	Port          int    `koanf:"port"`
	Host          string `koanf:"host"`
	MaxBodySizeMB int    `koanf:"max_body_size_mb"`
	Mode          string `koanf:"mode"` // debug | release
}

type DatabaseConfig struct {
	Type         string `koanf:"type"` // postgres | memory
	DSN          string `koanf:"dsn"`
	MaxOpenConns int    `koanf:"max_open_conns"`
	MaxIdleConns int    `koanf:"max_idle_conns"`
	AutoMigrate  bool   `koanf:"auto_migrate"`
}

type StatsConfig struct {
	StalenessWindow   string `koanf:"staleness_window"`   // parsed and validated on startup
	LeaderboardWindow string `koanf:"leaderboard_window"` // parsed and validated on startup
	DefaultPageSize   int    `koanf:"default_page_size"`
	MaxPageSize       int    `koanf:"max_page_size"`

	// Populated by Validate.
	Staleness   time.Duration `koanf:"-"`
	Leaderboard time.Duration `koanf:"-"`
}

type RetentionConfig struct {
	Enabled  bool   `koanf:"enabled"`
	Interval string `koanf:"interval"`
	MaxAge   string `koanf:"max_age"` // Go duration or "Xd"

	// Populated by Validate.
	IntervalDuration time.Duration `koanf:"-"`
	MaxAgeDuration   time.Duration `koanf:"-"`
}

type CacheConfig struct {
	Enabled  bool   `koanf:"enabled"`
	Addr     string `koanf:"addr"`
	Password string `koanf:"password"`
	DB       int    `koanf:"db"`
	TTL      string `koanf:"ttl"`

	// Populated by Validate.
	TTLDuration time.Duration `koanf:"-"`
}

func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server.port %d (must be 1-65535)", c.Server.Port)
	}
	if strings.TrimSpace(c.Server.Host) == "" {
		return fmt.Errorf("server.host is required")
	}
	if c.Server.MaxBodySizeMB <= 0 {
		return fmt.Errorf("server.max_body_size_mb must be > 0")
	}
	if c.Server.Mode != "debug" && c.Server.Mode != "release" {
		return fmt.Errorf("invalid server.mode %q (must be debug or release)", c.Server.Mode)
	}

	switch c.Database.Type {
	case "postgres":
		if strings.TrimSpace(c.Database.DSN) == "" {
			return fmt.Errorf("database.dsn is required")
		}
		if c.Database.MaxOpenConns <= 0 {
			return fmt.Errorf("database.max_open_conns must be > 0")
		}
		if c.Database.MaxIdleConns <= 0 {
			return fmt.Errorf("database.max_idle_conns must be > 0")
		}
	case "memory":
	default:
		return fmt.Errorf("unsupported database.type %q (must be postgres or memory)", c.Database.Type)
	}

	var err error
	if c.Stats.Staleness, err = aggregation.ParseWindowSize(c.Stats.StalenessWindow); err != nil {
		return fmt.Errorf("invalid stats.staleness_window: %w", err)
	}
	if c.Stats.Leaderboard, err = aggregation.ParseWindowSize(c.Stats.LeaderboardWindow); err != nil {
		return fmt.Errorf("invalid stats.leaderboard_window: %w", err)
	}
	if c.Stats.DefaultPageSize <= 0 {
		return fmt.Errorf("stats.default_page_size must be > 0")
	}
	if c.Stats.MaxPageSize < c.Stats.DefaultPageSize {
		return fmt.Errorf("stats.max_page_size must be >= stats.default_page_size")
	}

	if c.Retention.Enabled {
		if c.Retention.IntervalDuration, err = aggregation.ParseWindowSize(c.Retention.Interval); err != nil {
			return fmt.Errorf("invalid retention.interval: %w", err)
		}
		if c.Retention.MaxAgeDuration, err = aggregation.ParseWindowSize(c.Retention.MaxAge); err != nil {
			return fmt.Errorf("invalid retention.max_age: %w", err)
		}
		if c.Retention.MaxAgeDuration <= c.Stats.Staleness {
			return fmt.Errorf("retention.max_age must exceed stats.staleness_window")
		}
	}

	if c.Cache.Enabled {
		if strings.TrimSpace(c.Cache.Addr) == "" {
			return fmt.Errorf("cache.addr is required when the cache is enabled")
		}
		if c.Cache.TTLDuration, err = aggregation.ParseWindowSize(c.Cache.TTL); err != nil {
			return fmt.Errorf("invalid cache.ttl: %w", err)
		}
	}

	return nil
}

// Load parses config from defaults, an optional YAML file and POOLSTATS_* env
// vars (POOLSTATS_SECTION__KEY), then validates it.
func Load(configPath string) (*Config, error) {
	k := koanf.New(".")

	defaults := map[string]interface{}{
		"server.port":              8080,
		"server.host":              "0.0.0.0",
		"server.max_body_size_mb":  1,
		"server.mode":              "release",
		"database.type":            "postgres",
		"database.dsn":             "postgres://localhost:5432/poolstats?sslmode=disable",
		"database.max_open_conns":  25,
		"database.max_idle_conns":  25,
		"database.auto_migrate":    true,
		"stats.staleness_window":   "20m",
		"stats.leaderboard_window": "24h",
		"stats.default_page_size":  15,
		"stats.max_page_size":      100,
		"retention.enabled":        true,
		"retention.interval":       "1h",
		"retention.max_age":        "30d",
		"cache.enabled":            false,
		"cache.addr":               "localhost:6379",
		"cache.password":           "",
		"cache.db":                 0,
		"cache.ttl":                "30s",
	}
	for key, value := range defaults {
		k.Set(key, value)
	}

	if configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file: %w", err)
		}
	}

	if err := k.Load(env.Provider("POOLSTATS_", ".", func(s string) string {
		return strings.Replace(strings.ToLower(strings.TrimPrefix(s, "POOLSTATS_")), "__", ".", -1)
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}
