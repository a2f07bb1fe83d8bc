package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/raniellyferreira/respkit"
	"github.com/raniellyferreira/respkit/internal/admin"
	"github.com/raniellyferreira/respkit/internal/config"
	"github.com/raniellyferreira/respkit/internal/logging"
)

// shutdownTimeout bounds the admin endpoint drain on exit
const shutdownTimeout = 5 * time.Second

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve an in-memory keyspace over RESP",
		Long: `Serve an in-memory keyspace over RESP2 and RESP3.

Settings are read from the TOML file given with --config, flags override
the file. The process stops on SIGINT or SIGTERM.

Examples:
  respd serve --addr :6380
  respd serve --config respd.toml --log-format json --admin-addr :9121`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			logger, err := logging.Setup(cfg.Log)
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return serve(ctx, cfg, logger, nil)
		},
	}

	cmd.Flags().StringP("config", "c", "", "Path to a TOML configuration file")
	cmd.Flags().StringP("addr", "a", "", "Address to listen on (default \":6379\")")
	cmd.Flags().String("password", "", "Require clients to authenticate with this password")
	cmd.Flags().String("log-level", "", "Log level: debug, info, warn or error")
	cmd.Flags().String("log-format", "", "Log format: console or json")
	cmd.Flags().String("log-file", "", "Append logs to this file instead of stdout")
	cmd.Flags().String("admin-addr", "", "Serve /metrics, /healthz and /info on this address")
	return cmd
}

// loadConfig reads the configuration file and applies the flags that were
// set explicitly
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	cfg := config.Default()

	if path, _ := cmd.Flags().GetString("config"); path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return config.Config{}, err
		}
		cfg = loaded
	}

	flags := cmd.Flags()
	override := func(name string, dst *string) {
		if flags.Changed(name) {
			*dst, _ = flags.GetString(name)
		}
	}
	override("addr", &cfg.Addr)
	override("password", &cfg.Password)
	override("log-level", &cfg.Log.Level)
	override("log-format", &cfg.Log.Format)
	override("log-file", &cfg.Log.File)
	override("admin-addr", &cfg.AdminAddr)

	if err := cfg.Validate(); err != nil {
		return config.Config{}, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// serve runs a node and the optional admin endpoint until ctx is done.
// ready, when set, is called once both are listening.
func serve(ctx context.Context, cfg config.Config, logger *zap.Logger, ready func(*respkit.Node, *admin.Server)) error {
	adapter := logging.NewAdapter(logger)
	metrics := admin.NewMetrics()

	opts := append(cfg.NodeOptions(),
		respkit.WithLogger(adapter),
		respkit.WithMetrics(metrics),
	)
	node, err := respkit.New(opts...)
	if err != nil {
		return fmt.Errorf("failed to create node: %w", err)
	}
	defer node.Close()
	metrics.WatchNode(node)

	if err := node.Start(ctx); err != nil {
		return fmt.Errorf("failed to start node: %w", err)
	}

	var adminServer *admin.Server
	if cfg.AdminAddr != "" {
		adminServer = admin.NewServer(cfg.AdminAddr, admin.NewRouter(node, metrics), adapter)
		if err := adminServer.Start(); err != nil {
			return err
		}
	}

	logger.Info("respd started",
		zap.String("addr", node.Addr()),
		zap.String("version", respkit.Version))
	if ready != nil {
		ready(node, adminServer)
	}

	<-ctx.Done()
	logger.Info("Shutting down")

	if adminServer != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := adminServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("Admin endpoint shutdown failed", zap.Error(err))
		}
	}
	return node.Close()
}
