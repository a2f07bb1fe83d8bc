package respkit

import (
	"time"

	"github.com/raniellyferreira/respkit/protocol"
	"github.com/raniellyferreira/respkit/server"
	"github.com/raniellyferreira/respkit/storage"
)

// config holds the configuration for a Node
type config struct {
	// Server settings
	addr         string
	password     string
	enableServer bool

	// Timeouts and limits
	readTimeout   time.Duration
	scriptTimeout time.Duration
	limits        protocol.Limits

	// Storage settings
	shardCount      int
	cleanupInterval time.Duration
	cleanupConfig   storage.CleanupConfig

	// Observability
	logger  Logger
	metrics MetricsCollector
}

// defaultConfig returns a configuration with sensible defaults
func defaultConfig() *config {
	return &config{
		addr:            ":6379",
		enableServer:    true,
		readTimeout:     server.DefaultReadTimeout,
		scriptTimeout:   server.DefaultScriptTimeout,
		limits:          protocol.DefaultLimits(),
		shardCount:      storage.DefaultShardCount,
		cleanupInterval: storage.DefaultCleanupInterval,
		cleanupConfig:   storage.CleanupConfigDefault,
		logger:          &defaultLogger{},
	}
}

// Option represents a configuration option for a Node
type Option func(*config) error

// WithAddr sets the address the server listens on
//
// Example:
//
//	WithAddr(":6380")
//	WithAddr("127.0.0.1:0")
func WithAddr(addr string) Option {
	return func(c *config) error {
		if addr == "" {
			return &ConnectionError{
				Addr: addr,
				Err:  ErrInvalidConfig,
			}
		}
		c.addr = addr
		return nil
	}
}

// WithPassword requires clients to authenticate with AUTH or HELLO
func WithPassword(password string) Option {
	return func(c *config) error {
		c.password = password
		return nil
	}
}

// WithReadTimeout sets how long a client connection may stay idle. Zero
// disables the timeout.
func WithReadTimeout(timeout time.Duration) Option {
	return func(c *config) error {
		if timeout < 0 {
			return ErrInvalidConfig
		}
		c.readTimeout = timeout
		return nil
	}
}

// WithScriptTimeout bounds the run time of a single Lua script. Zero
// disables the bound.
func WithScriptTimeout(timeout time.Duration) Option {
	return func(c *config) error {
		if timeout < 0 {
			return ErrInvalidConfig
		}
		c.scriptTimeout = timeout
		return nil
	}
}

// WithLimits sets the decode limits applied to client requests. Zero fields
// keep their defaults.
func WithLimits(limits protocol.Limits) Option {
	return func(c *config) error {
		if limits.MaxDepth < 0 || limits.MaxBulkLen < 0 || limits.MaxAggregateLen < 0 {
			return ErrInvalidConfig
		}
		c.limits = limits
		return nil
	}
}

// WithShardCount sets the number of storage shards, rounded up to a power
// of two
func WithShardCount(count int) Option {
	return func(c *config) error {
		if count <= 0 {
			return ErrInvalidConfig
		}
		c.shardCount = count
		return nil
	}
}

// WithCleanupInterval sets how often expired keys are collected in the
// background. Zero disables background collection, expired keys are still
// removed when accessed.
func WithCleanupInterval(interval time.Duration) Option {
	return func(c *config) error {
		if interval < 0 {
			return ErrInvalidConfig
		}
		c.cleanupInterval = interval
		return nil
	}
}

// WithCleanupConfig tunes the background expiry sampler
func WithCleanupConfig(cfg storage.CleanupConfig) Option {
	return func(c *config) error {
		if cfg.SampleSize <= 0 || cfg.MaxRounds <= 0 || cfg.ExpiredThreshold <= 0 || cfg.ExpiredThreshold > 1 {
			return ErrInvalidConfig
		}
		c.cleanupConfig = cfg
		return nil
	}
}

// WithLogger sets a custom logger
func WithLogger(logger Logger) Option {
	return func(c *config) error {
		if logger == nil {
			return ErrInvalidConfig
		}
		c.logger = logger
		return nil
	}
}

// WithMetrics enables metrics collection with the provided collector
//
// Example:
//
//	WithMetrics(myMetricsCollector)
func WithMetrics(collector MetricsCollector) Option {
	return func(c *config) error {
		c.metrics = collector
		return nil
	}
}

// WithServerEnabled controls whether Start opens a listener. A node without
// server is an embedded store reached through Storage.
func WithServerEnabled(enabled bool) Option {
	return func(c *config) error {
		c.enableServer = enabled
		return nil
	}
}
