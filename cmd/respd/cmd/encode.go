package cmd

import (
	"github.com/spf13/cobra"

	"github.com/raniellyferreira/respkit/protocol"
)

func newEncodeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "encode CMD [ARG...]",
		Short: "Write the RESP encoding of a command",
		Long: `Write the RESP encoding of a command to stdout: an array of bulk
strings, as sent by clients.

Examples:
  respd encode SET key value | nc localhost 6379
  respd encode HELLO 3 | respd decode`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := protocol.Encode(protocol.NewCommand(args[0], args[1:]...))
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}
}
