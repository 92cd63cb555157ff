package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/fyerfyer/fault-diag/internal/config"
	"github.com/fyerfyer/fault-diag/pkg/utils"
)

var (
	logLevel string
	logFile  string
	logger   *utils.Logger
)

func main() {
	if err := config.Load(); err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root := newRootCmd()
	if err := root.ExecuteContext(ctx); err != nil {
		if logger != nil {
			logger.Error("command failed", zap.Error(err))
			_ = logger.Sync()
		}
		stop()
		os.Exit(1)
	}
	if logger != nil {
		_ = logger.Sync()
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "diag",
		Short:         "Simulate combinational circuits with injected gate faults",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			if logFile != "" {
				logger, err = utils.NewFileLogger(logLevel, logFile)
			} else {
				logger, err = utils.NewLogger(logLevel)
			}
			return err
		},
	}

	root.PersistentFlags().StringVar(&logLevel, "log-level", config.LogLevel(), "Log level (debug, info, warn, error)")
	root.PersistentFlags().StringVar(&logFile, "log", config.LogFile(), "Log file (default: stderr)")

	root.AddCommand(
		newSimulateCmd(),
		newObserveCmd(),
		newProbabilitiesCmd(),
		newDescribeCmd(),
	)
	return root
}
