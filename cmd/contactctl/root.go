package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/JonMunkholm/contacts/internal/config"
	"github.com/JonMunkholm/contacts/internal/logging"
	"github.com/spf13/cobra"
)

type rootOptions struct {
	Driver   string
	LogLevel string
}

func newRootCmd() *cobra.Command {
	var opts rootOptions

	cmd := &cobra.Command{
		Use:           "contactctl",
		Short:         "Import contact CSV files and manage the contacts database",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVar(&opts.Driver, "driver", "", "contact store driver (postgres or memory), overrides STORE_DRIVER")
	cmd.PersistentFlags().StringVar(&opts.LogLevel, "log-level", "warn", "log level written to stderr")

	cmd.AddCommand(newImportCmd(&opts))
	cmd.AddCommand(newMigrateCmd(&opts))
	return cmd
}

// loadConfig reads the environment and applies the global flags.
func loadConfig(cmd *cobra.Command, opts *rootOptions) (*config.Config, error) {
	environ := config.Environ()
	if opts.Driver != "" {
		environ["STORE_DRIVER"] = opts.Driver
	}
	cfg, err := config.LoadFrom(environ)
	if err != nil {
		return nil, err
	}
	// stdout is reserved for command output.
	slog.SetDefault(logging.New(cmd.ErrOrStderr(), opts.LogLevel, cfg.Logging.Format))
	return cfg, nil
}

func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		stop()
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}
}
