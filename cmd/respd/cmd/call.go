package cmd

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/raniellyferreira/respkit/client"
	"github.com/raniellyferreira/respkit/protocol"
)

func newCallCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "call CMD [ARG...]",
		Short: "Send one command to a RESP server and print the reply",
		Long: `Send one command to a RESP server and print the reply.

Error replies are printed and make the command exit non-zero.

Examples:
  respd call PING
  respd call --resp 3 --addr localhost:6380 HELLO 3
  respd call --password secret SET key value`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			addr, _ := cmd.Flags().GetString("addr")
			password, _ := cmd.Flags().GetString("password")
			version, _ := cmd.Flags().GetInt("resp")
			timeout, _ := cmd.Flags().GetDuration("timeout")

			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()

			c, err := client.Dial(ctx, addr,
				client.WithProtocol(version),
				client.WithPassword(password),
			)
			if err != nil {
				return err
			}
			defer c.Close()

			reply, err := c.Do(ctx, args...)
			var replyErr *client.ReplyError
			if err != nil && !errors.As(err, &replyErr) {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), formatReply(reply))
			return err
		},
	}

	cmd.Flags().StringP("addr", "a", "127.0.0.1:6379", "Server address")
	cmd.Flags().String("password", "", "Password for the default user")
	cmd.Flags().Int("resp", protocol.RESP2, "Protocol version to negotiate (2 or 3)")
	cmd.Flags().Duration("timeout", 5*time.Second, "Timeout for connecting and the reply")
	return cmd
}

// formatReply renders a reply with its kind, one line per frame
func formatReply(f protocol.Frame) string {
	if f == nil {
		return "(nil)"
	}
	return f.Kind().String() + " " + f.String()
}
