package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/cboone/clifford"
	"github.com/cboone/clifford/internal/script"
)

func newRunCmd(root *rootFlags) *cobra.Command {
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:   "run SCRIPT",
		Short: "Run a YAML expect-script",
		Long: `Run a YAML expect-script against the command it names.

Each completed step is reported on stdout. The first failing step stops the
script and the command exits non-zero.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			s, err := script.Load(f)
			if err != nil {
				return fmt.Errorf("%s: %w", args[0], err)
			}

			opts := root.sessionOptions(cmd)
			if cmd.Flags().Changed("timeout") {
				opts = append(opts, clifford.WithReadTimeout(timeout))
			}
			return s.Run(cmd.Context(), cmd.OutOrStdout(), opts...)
		},
	}
	cmd.Flags().DurationVar(&timeout, "timeout", 0, "override the script's read timeout (0 waits forever)")
	return cmd
}
