package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/cboone/clifford"
)

type renderFlags struct {
	pty     bool
	cols    int
	rows    int
	timeout time.Duration
	raw     bool
}

func newRenderCmd(root *rootFlags) *cobra.Command {
	flags := &renderFlags{}

	cmd := &cobra.Command{
		Use:   "render [flags] -- COMMAND [ARGS...]",
		Short: "Print the final rendered screen of a command",
		Long: `Run a command to completion and print its screen as a terminal would
show it, with cursor movement and redraws applied. With --raw the undecoded
output is printed instead.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := root.sessionOptions(cmd)
			opts = append(opts, clifford.WithArgs(args[1:]...), clifford.WithSize(flags.cols, flags.rows))
			if flags.pty {
				opts = append(opts, clifford.WithPTY())
			}

			s, err := clifford.Start(cmd.Context(), args[0], opts...)
			if err != nil {
				return err
			}
			defer s.Close()

			ctx := cmd.Context()
			if flags.timeout > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, flags.timeout)
				defer cancel()
			}
			if err := s.UntilClose(ctx); err != nil {
				return fmt.Errorf("%s did not exit: %w", args[0], err)
			}

			if flags.raw {
				fmt.Fprint(cmd.OutOrStdout(), s.Output())
			} else {
				fmt.Fprintln(cmd.OutOrStdout(), s.ReadScreen())
			}
			if code := s.ExitCode(); code != 0 {
				return fmt.Errorf("%s exited with status %d", args[0], code)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&flags.pty, "pty", false, "run the command on a pseudo-terminal")
	cmd.Flags().IntVar(&flags.cols, "cols", 120, "terminal width")
	cmd.Flags().IntVar(&flags.rows, "rows", 24, "terminal height")
	cmd.Flags().DurationVar(&flags.timeout, "timeout", 30*time.Second, "give up if the command has not exited by then (0 waits forever)")
	cmd.Flags().BoolVar(&flags.raw, "raw", false, "print the undecoded output instead of the screen")
	return cmd
}
