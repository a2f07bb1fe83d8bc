// Package config loads the respd configuration file
package config

import (
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/raniellyferreira/respkit"
	"github.com/raniellyferreira/respkit/protocol"
	"github.com/raniellyferreira/respkit/server"
	"github.com/raniellyferreira/respkit/storage"
)

// Config is the complete respd configuration
type Config struct {
	Addr          string
	Password      string
	ReadTimeout   time.Duration
	ScriptTimeout time.Duration
	Limits        protocol.Limits

	Shards          int
	CleanupInterval time.Duration

	Log LogConfig

	// AdminAddr is the listen address of the HTTP admin endpoint. Empty
	// disables it.
	AdminAddr string
}

// LogConfig configures the process logger
type LogConfig struct {
	Level  string // debug, info, warn or error
	Format string // console or json
	File   string // empty logs to stdout
}

type fileConfig struct {
	Server struct {
		Addr          string `toml:"addr"`
		Password      string `toml:"password"`
		ReadTimeout   string `toml:"read_timeout"`
		ScriptTimeout string `toml:"script_timeout"`
	} `toml:"server"`

	Limits struct {
		MaxDepth        int   `toml:"max_depth"`
		MaxBulkLen      int64 `toml:"max_bulk_len"`
		MaxAggregateLen int64 `toml:"max_aggregate_len"`
	} `toml:"limits"`

	Storage struct {
		Shards          int    `toml:"shards"`
		CleanupInterval string `toml:"cleanup_interval"`
	} `toml:"storage"`

	Log struct {
		Level  string `toml:"level"`
		Format string `toml:"format"`
		File   string `toml:"file"`
	} `toml:"log"`

	Admin struct {
		Addr string `toml:"addr"`
	} `toml:"admin"`
}

// Default returns the configuration used when no file is given
func Default() Config {
	return Config{
		Addr:            ":6379",
		ReadTimeout:     server.DefaultReadTimeout,
		ScriptTimeout:   server.DefaultScriptTimeout,
		Limits:          protocol.DefaultLimits(),
		Shards:          storage.DefaultShardCount,
		CleanupInterval: storage.DefaultCleanupInterval,
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// Load reads a TOML file over the defaults. Keys absent from the file keep
// their default values.
func Load(path string) (Config, error) {
	cfg := Default()

	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return Config{}, fmt.Errorf("load config %s: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return Config{}, fmt.Errorf("load config %s: unknown key %q", path, undecoded[0].String())
	}

	if meta.IsDefined("server", "addr") {
		cfg.Addr = strings.TrimSpace(raw.Server.Addr)
	}
	if meta.IsDefined("server", "password") {
		cfg.Password = raw.Server.Password
	}
	if meta.IsDefined("server", "read_timeout") {
		if cfg.ReadTimeout, err = parseDuration("server.read_timeout", raw.Server.ReadTimeout); err != nil {
			return Config{}, err
		}
	}
	if meta.IsDefined("server", "script_timeout") {
		if cfg.ScriptTimeout, err = parseDuration("server.script_timeout", raw.Server.ScriptTimeout); err != nil {
			return Config{}, err
		}
	}

	if meta.IsDefined("limits", "max_depth") {
		cfg.Limits.MaxDepth = raw.Limits.MaxDepth
	}
	if meta.IsDefined("limits", "max_bulk_len") {
		cfg.Limits.MaxBulkLen = raw.Limits.MaxBulkLen
	}
	if meta.IsDefined("limits", "max_aggregate_len") {
		cfg.Limits.MaxAggregateLen = raw.Limits.MaxAggregateLen
	}

	if meta.IsDefined("storage", "shards") {
		cfg.Shards = raw.Storage.Shards
	}
	if meta.IsDefined("storage", "cleanup_interval") {
		if cfg.CleanupInterval, err = parseDuration("storage.cleanup_interval", raw.Storage.CleanupInterval); err != nil {
			return Config{}, err
		}
	}

	if meta.IsDefined("log", "level") {
		cfg.Log.Level = strings.ToLower(strings.TrimSpace(raw.Log.Level))
	}
	if meta.IsDefined("log", "format") {
		cfg.Log.Format = strings.ToLower(strings.TrimSpace(raw.Log.Format))
	}
	if meta.IsDefined("log", "file") {
		cfg.Log.File = strings.TrimSpace(raw.Log.File)
	}

	if meta.IsDefined("admin", "addr") {
		cfg.AdminAddr = strings.TrimSpace(raw.Admin.Addr)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

func parseDuration(key, value string) (time.Duration, error) {
	d, err := time.ParseDuration(strings.TrimSpace(value))
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	return d, nil
}

// Validate reports the first invalid setting
func (c Config) Validate() error {
	if strings.TrimSpace(c.Addr) == "" {
		return fmt.Errorf("server addr is required")
	}
	if c.ReadTimeout < 0 {
		return fmt.Errorf("read_timeout cannot be negative: %v", c.ReadTimeout)
	}
	if c.ScriptTimeout < 0 {
		return fmt.Errorf("script_timeout cannot be negative: %v", c.ScriptTimeout)
	}
	if c.Limits.MaxDepth < 0 || c.Limits.MaxBulkLen < 0 || c.Limits.MaxAggregateLen < 0 {
		return fmt.Errorf("limits cannot be negative")
	}
	if c.Shards <= 0 {
		return fmt.Errorf("storage shards must be positive: %d", c.Shards)
	}
	if c.CleanupInterval < 0 {
		return fmt.Errorf("cleanup_interval cannot be negative: %v", c.CleanupInterval)
	}

	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log level %q", c.Log.Level)
	}
	switch c.Log.Format {
	case "console", "json":
	default:
		return fmt.Errorf("invalid log format %q", c.Log.Format)
	}

	if c.AdminAddr != "" && c.AdminAddr == c.Addr {
		if _, port, err := net.SplitHostPort(c.Addr); err != nil || port != "0" {
			return fmt.Errorf("admin addr must differ from server addr")
		}
	}
	return nil
}

// NodeOptions translates the configuration into Node options
func (c Config) NodeOptions() []respkit.Option {
	return []respkit.Option{
		respkit.WithAddr(c.Addr),
		respkit.WithPassword(c.Password),
		respkit.WithReadTimeout(c.ReadTimeout),
		respkit.WithScriptTimeout(c.ScriptTimeout),
		respkit.WithLimits(c.Limits),
		respkit.WithShardCount(c.Shards),
		respkit.WithCleanupInterval(c.CleanupInterval),
	}
}
