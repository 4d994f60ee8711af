package main

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/iho/periodledger/internal/infrastructure/logger"
	"github.com/iho/periodledger/internal/infrastructure/postgres"
)

var errMissingDatabaseURL = errors.New("--database-url or DATABASE_URL is required")

type dbOptions struct {
	databaseURL    string
	migrationsPath string
}

func dbCmd() *cobra.Command {
	opts := &dbOptions{}

	cmd := &cobra.Command{
		Use:   "db",
		Short: "Database schema operations (postgres store only)",
	}
	cmd.PersistentFlags().StringVar(&opts.databaseURL, "database-url", envOr("DATABASE_URL", ""), "Postgres connection URL")
	cmd.PersistentFlags().StringVar(&opts.migrationsPath, "migrations", envOr("MIGRATIONS_PATH", "migrations"), "Migrations directory")

	upCmd := &cobra.Command{
		Use:   "migrate-up",
		Short: "Apply every pending migration",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := opts.validate(); err != nil {
				return err
			}
			log := logger.New(logger.Config{Level: "info", Format: "console", Output: cmd.ErrOrStderr()})
			return postgres.RunMigrations(opts.databaseURL, opts.migrationsPath, log)
		},
	}

	downCmd := &cobra.Command{
		Use:   "migrate-down",
		Short: "Roll back the most recent migration",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := opts.validate(); err != nil {
				return err
			}
			log := logger.New(logger.Config{Level: "info", Format: "console", Output: cmd.ErrOrStderr()})
			return postgres.RunMigrationsDown(opts.databaseURL, opts.migrationsPath, log)
		},
	}

	cmd.AddCommand(upCmd, downCmd)
	return cmd
}

func (o *dbOptions) validate() error {
	if o.databaseURL == "" {
		return errMissingDatabaseURL
	}
	return nil
}
