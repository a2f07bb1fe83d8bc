package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/raniellyferreira/respkit/protocol"
)

func newDecodeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "decode",
		Short: "Decode a RESP stream",
		Long: `Read RESP frames from stdin or a file and print one frame per line.

Malformed or truncated input stops decoding with an error.

Examples:
  printf '*2\r\n:1\r\n%%3\r\n' | respd decode
  respd decode --file capture.resp --resp2`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, _ := cmd.Flags().GetString("file")
			downgrade, _ := cmd.Flags().GetBool("resp2")
			maxDepth, _ := cmd.Flags().GetInt("max-depth")

			in := cmd.InOrStdin()
			if path != "" {
				f, err := os.Open(path)
				if err != nil {
					return fmt.Errorf("failed to open input: %w", err)
				}
				defer f.Close()
				in = f
			}

			limits := protocol.DefaultLimits()
			limits.MaxDepth = maxDepth
			return decodeStream(in, cmd.OutOrStdout(), limits, downgrade)
		},
	}

	cmd.Flags().StringP("file", "f", "", "Read frames from this file instead of stdin")
	cmd.Flags().Bool("resp2", false, "Print frames as a RESP2 client receives them")
	cmd.Flags().Int("max-depth", protocol.DefaultMaxDepth, "Maximum aggregate nesting")
	return cmd
}

// decodeStream prints every frame of in and returns the first decode error
func decodeStream(in io.Reader, out io.Writer, limits protocol.Limits, downgrade bool) error {
	r := protocol.NewReader(in)
	r.SetLimits(limits)

	for n := 0; ; n++ {
		f, err := r.ReadFrame()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("frame %d: %w", n+1, err)
		}

		if downgrade {
			f = protocol.Downgrade(f)
		}
		if _, err := fmt.Fprintf(out, "%s %v\n", f.Kind(), f); err != nil {
			return err
		}
	}
}
