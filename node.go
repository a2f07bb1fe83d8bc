package respkit

import (
	"context"
	"sync"

	"github.com/raniellyferreira/respkit/server"
	"github.com/raniellyferreira/respkit/storage"
)

// Node is an in-memory store served over RESP
type Node struct {
	// Configuration
	config *config

	// Components
	storage *storage.MemoryStorage
	server  *server.Server

	// State
	mu      sync.RWMutex
	started bool
	closed  bool

	// Statistics (exported for monitoring)
	Stats KeyspaceStats
}

// New creates a new Node with the given options
//
// The node is created but not started. Use Start() to begin serving.
//
// Example:
//
//	node, err := respkit.New(
//		respkit.WithAddr(":6380"),
//	)
//	if err != nil {
//		log.Fatal(err)
//	}
func New(opts ...Option) (*Node, error) {
	cfg := defaultConfig()

	// Apply options
	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, err
		}
	}

	stor := storage.NewMemory(
		storage.WithShardCount(cfg.shardCount),
		storage.WithCleanupConfig(cfg.cleanupConfig),
		storage.WithCleanupInterval(cfg.cleanupInterval),
	)

	node := &Node{
		config:  cfg,
		storage: stor,
		Stats: KeyspaceStats{
			SetsByType: make(map[string]int64),
		},
	}
	stor.AddObserver(&node.Stats)

	if cfg.enableServer {
		serverOpts := []server.Option{
			server.WithLogger(&loggerAdapter{logger: cfg.logger}),
			server.WithPassword(cfg.password),
			server.WithReadTimeout(cfg.readTimeout),
			server.WithScriptTimeout(cfg.scriptTimeout),
			server.WithLimits(cfg.limits),
			server.WithVersion(Version),
		}
		if cfg.metrics != nil {
			serverOpts = append(serverOpts, server.WithMetrics(&metricsAdapter{metrics: cfg.metrics}))
		}
		node.server = server.NewServer(cfg.addr, stor, serverOpts...)
	}

	return node, nil
}

// Start starts the server. It returns once the listener is open.
//
// Example:
//
//	if err := node.Start(context.Background()); err != nil {
//		log.Fatal(err)
//	}
func (n *Node) Start(ctx context.Context) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.closed {
		return ErrClosed
	}
	if n.started {
		return ErrAlreadyStarted
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	if n.server != nil {
		if err := n.server.Start(); err != nil {
			n.config.logger.Error("Failed to start server", Field{Key: "error", Value: err}, Field{Key: "addr", Value: n.config.addr})
			return &ConnectionError{Addr: n.config.addr, Err: err}
		}
		n.config.logger.Info("Node listening", Field{Key: "addr", Value: n.server.Addr()})
	}

	n.started = true
	return nil
}

// Close gracefully shuts down the node
//
// The server stops accepting clients, open connections are closed and the
// storage stops its background cleanup. Close is idempotent.
func (n *Node) Close() error {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.closed {
		return nil
	}
	n.closed = true

	// Stop server first
	if n.server != nil && n.started {
		if err := n.server.Stop(); err != nil {
			n.config.logger.Error("Error stopping server", Field{Key: "error", Value: err})
		}
	}

	return n.storage.Close()
}

// Addr returns the address the server listens on, or the configured address
// before Start
func (n *Node) Addr() string {
	if n.server == nil {
		return ""
	}
	return n.server.Addr()
}

// Storage returns the underlying storage for direct access
//
// Example:
//
//	value, exists := node.Storage().Get("mykey")
//	if exists {
//		fmt.Printf("Value: %s\n", value)
//	}
func (n *Node) Storage() storage.Storage {
	return n.storage
}

// Info returns storage statistics, keyspace event counts, server statistics
// and version information
//
// Example:
//
//	info := node.Info()
//	fmt.Printf("Key count: %v\n", info["keys"])
func (n *Node) Info() map[string]interface{} {
	info := n.storage.Info()
	info["keyspace"] = n.Stats.snapshot()

	if n.server != nil {
		info["server"] = n.server.Stats()
	}

	n.mu.RLock()
	info["started"] = n.started && !n.closed
	n.mu.RUnlock()

	info["version"] = VersionInfo()
	return info
}
