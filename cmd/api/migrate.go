package main

import (
	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/99minutos/business-units/internal/infrastructure/db/postgres"
	"github.com/99minutos/business-units/internal/pkg/config"
)

// schemaMigrator is the part of *postgres.Migrator the migrate commands use.
type schemaMigrator interface {
	Up() error
	Down() error
	Version() (uint, bool, error)
	Close() error
}

// openMigrator is swapped out in tests.
var openMigrator = func(databaseURL string) (schemaMigrator, error) {
	return postgres.NewMigrator(databaseURL)
}

// NewMigrateCmd creates the migrate subcommand and its up/down/version children.
func NewMigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage database schema migrations",
		Long:  `Apply, roll back, or inspect the embedded PostgreSQL migrations. Uses DATABASE_URL.`,
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		Args:  cobra.NoArgs,
		RunE: withMigrator(func(cmd *cobra.Command, m schemaMigrator) error {
			cmd.Println("Running migrations...")
			if err := m.Up(); err != nil {
				return oops.Code("MIGRATION_FAILED").With("operation", "run migrations").Wrap(err)
			}
			return printVersion(cmd, m)
		}),
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "down",
		Short: "Roll back all migrations (drops every table)",
		Args:  cobra.NoArgs,
		RunE: withMigrator(func(cmd *cobra.Command, m schemaMigrator) error {
			cmd.Println("Rolling back migrations...")
			if err := m.Down(); err != nil {
				return oops.Code("MIGRATION_FAILED").With("operation", "roll back migrations").Wrap(err)
			}
			return printVersion(cmd, m)
		}),
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the applied schema version",
		Args:  cobra.NoArgs,
		RunE:  withMigrator(printVersion),
	})

	return cmd
}

func withMigrator(fn func(cmd *cobra.Command, m schemaMigrator) error) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, _ []string) error {
		dbCfg, err := config.LoadDatabase(cmd.Context())
		if err != nil {
			return oops.Code("CONFIG_INVALID").Wrap(err)
		}

		m, err := openMigrator(dbCfg.URL)
		if err != nil {
			return oops.Code("DB_CONNECT_FAILED").With("operation", "open migrator").Wrap(err)
		}
		defer m.Close()

		return fn(cmd, m)
	}
}

func printVersion(cmd *cobra.Command, m schemaMigrator) error {
	version, dirty, err := m.Version()
	if err != nil {
		return err
	}
	if dirty {
		cmd.Printf("Schema version: %d (dirty)\n", version)
		return nil
	}
	cmd.Printf("Schema version: %d\n", version)
	return nil
}
