package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd builds the respd command tree
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "respd",
		Short: "respd - RESP2/RESP3 toolkit",
		Long: `respd serves an in-memory keyspace over RESP2 and RESP3, and
decodes, encodes and sends RESP frames from the command line.`,
		SilenceUsage: true,
	}

	root.AddCommand(
		newServeCmd(),
		newDecodeCmd(),
		newEncodeCmd(),
		newCallCmd(),
		newVersionCmd(),
	)
	return root
}

// Execute runs the root command. This is called by main.main().
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
