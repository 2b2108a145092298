package commands

import (
	"database/sql"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/leapstore/internal/config"
	"github.com/leapstack-labs/leapstore/internal/sqlengine"
	"github.com/leapstack-labs/leapstore/pkg/driver"
)

// NewMigrateCommand creates the migrate command and its subcommands.
func NewMigrateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage schema migrations",
		Long:  `Apply and inspect goose schema migrations against the configured database.`,
	}

	var dir string
	up := &cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			env := Environment(cmd.Context())
			migrationsDir := dir
			if migrationsDir == "" {
				migrationsDir = env.Migrations.Dir
			}
			if migrationsDir == "" {
				return fmt.Errorf("no migrations directory: set --dir or migrations.dir")
			}

			db, drv, err := openDatabase(cmd, env)
			if err != nil {
				return err
			}
			defer func() { _ = db.Close() }()

			if err := sqlengine.Migrate(db, drv, migrationsDir); err != nil {
				return err
			}
			version, err := sqlengine.MigrationVersion(db, drv)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "migrations applied, now at version %d\n", version)
			return nil
		},
	}
	up.Flags().StringVar(&dir, "dir", "", "Migrations directory (default: migrations.dir from config)")

	version := &cobra.Command{
		Use:   "version",
		Short: "Show the current migration version",
		RunE: func(cmd *cobra.Command, _ []string) error {
			env := Environment(cmd.Context())
			db, drv, err := openDatabase(cmd, env)
			if err != nil {
				return err
			}
			defer func() { _ = db.Close() }()

			v, err := sqlengine.MigrationVersion(db, drv)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "version %d\n", v)
			return nil
		},
	}

	cmd.AddCommand(up)
	cmd.AddCommand(version)
	return cmd
}

func openDatabase(cmd *cobra.Command, env *config.Environment) (*sql.DB, driver.Driver, error) {
	if err := env.Validate(); err != nil {
		return nil, nil, err
	}
	drv, err := driver.New(env.Driver, newLogger(env))
	if err != nil {
		return nil, nil, err
	}
	db, err := drv.Open(cmd.Context(), env.DriverConfig())
	if err != nil {
		return nil, nil, err
	}
	return db, drv, nil
}
