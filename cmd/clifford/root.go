package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/cboone/clifford"
)

type rootFlags struct {
	debug bool
}

func newRootCmd() *cobra.Command {
	flags := &rootFlags{}

	cmd := &cobra.Command{
		Use:           "clifford",
		Short:         "Drive interactive command-line programs",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().BoolVar(&flags.debug, "debug", false, "log every output chunk and rendered frame to stderr")

	cmd.AddCommand(newRunCmd(flags), newRenderCmd(flags))
	return cmd
}

// sessionOptions returns the logging options for a command invocation.
// Warnings are always logged; --debug adds frames.
func (f *rootFlags) sessionOptions(cmd *cobra.Command) []clifford.Option {
	level := zapcore.WarnLevel
	if f.debug {
		level = zapcore.DebugLevel
	}
	encCfg := zap.NewDevelopmentEncoderConfig()
	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(encCfg),
		zapcore.Lock(zapcore.AddSync(cmd.ErrOrStderr())),
		level,
	)
	return []clifford.Option{
		clifford.WithDebug(f.debug),
		clifford.WithLogger(zap.New(core)),
	}
}
