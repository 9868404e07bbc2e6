package main

import (
	"errors"
	"fmt"

	"github.com/JonMunkholm/contacts/internal/config"
	"github.com/JonMunkholm/contacts/internal/database"
	"github.com/spf13/cobra"
)

var errNotPostgres = errors.New("migrate requires the postgres store driver")

func newMigrateCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending contacts schema migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd, root)
			if err != nil {
				return err
			}
			if cfg.Database.Driver != config.DriverPostgres {
				return errNotPostgres
			}

			pool, err := database.Open(cmd.Context(), cfg.Database)
			if err != nil {
				return err
			}
			defer pool.Close()

			if err := database.Migrate(pool); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "migrations up to date")
			return nil
		},
	}
}
