// Package config loads server configuration from a YAML file with
// environment variable overrides.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the full server configuration.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Catalog  CatalogConfig  `mapstructure:"catalog"`
	Match    MatchConfig    `mapstructure:"match"`
	Database DatabaseConfig `mapstructure:"database"`
	Replay   ReplayConfig   `mapstructure:"replay"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// ServerConfig covers the websocket listener.
type ServerConfig struct {
	Addr            string        `mapstructure:"addr"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	// WriteBuffer is the per-client outbound message buffer; a client
	// that falls this far behind is disconnected.
	WriteBuffer int `mapstructure:"write_buffer"`
}

// CatalogConfig locates the card definition file.
type CatalogConfig struct {
	Path string `mapstructure:"path"`
	// StrictClauses fails startup when any card clause compiled to a
	// no-op instead of merely logging it.
	StrictClauses bool `mapstructure:"strict_clauses"`
}

// MatchConfig holds the default match parameters for new lobbies.
type MatchConfig struct {
	VictoryScore int `mapstructure:"victory_score"`
	BestOf       int `mapstructure:"best_of"`
}

// DatabaseConfig configures the optional Postgres store. An empty DSN
// disables persistence.
type DatabaseConfig struct {
	DSN         string        `mapstructure:"dsn"`
	MaxConns    int32         `mapstructure:"max_conns"`
	ConnTimeout time.Duration `mapstructure:"conn_timeout"`
}

// ReplayConfig configures replay recording.
type ReplayConfig struct {
	// Dir is where finished-game replays are written; empty disables
	// recording.
	Dir string `mapstructure:"dir"`
}

// LoggingConfig configures the zap logger.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load reads configuration from the given YAML file. A missing path is
// not an error: defaults plus RIFT_* environment overrides apply.
// Environment variables use underscores for nesting, e.g.
// RIFT_SERVER_ADDR or RIFT_DATABASE_DSN.
func Load(path string) (*Config, error) {
	v := viper.New()

	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.shutdown_timeout", 10*time.Second)
	v.SetDefault("server.write_buffer", 64)
	v.SetDefault("catalog.path", "config/cards.yaml")
	v.SetDefault("catalog.strict_clauses", false)
	v.SetDefault("match.victory_score", 8)
	v.SetDefault("match.best_of", 3)
	v.SetDefault("database.dsn", "")
	v.SetDefault("database.max_conns", 4)
	v.SetDefault("database.conn_timeout", 5*time.Second)
	v.SetDefault("replay.dir", "")
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")

	v.SetEnvPrefix("RIFT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.Server.Addr == "" {
		return fmt.Errorf("server.addr must not be empty")
	}
	if c.Match.VictoryScore < 1 {
		return fmt.Errorf("match.victory_score must be positive, got %d", c.Match.VictoryScore)
	}
	if c.Match.BestOf != 1 && c.Match.BestOf != 3 {
		return fmt.Errorf("match.best_of must be 1 or 3, got %d", c.Match.BestOf)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level %q is not one of debug, info, warn, error", c.Logging.Level)
	}
	return nil
}
