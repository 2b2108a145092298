package sqlengine

import (
	"database/sql"
	"fmt"

	"github.com/leapstack-labs/leapstore/pkg/driver"
	"github.com/pressly/goose/v3"
)

// Migrate applies all pending goose migrations from dir against db,
// using the driver's migration dialect. Drivers without a dialect
// (duckdb) reject managed migrations.
func Migrate(db *sql.DB, drv driver.Driver, dir string) error {
	dialect, ok := drv.MigrationDialect()
	if !ok {
		return fmt.Errorf("driver %s does not support managed migrations", drv.Name())
	}

	goose.SetBaseFS(nil)
	if err := goose.SetDialect(dialect); err != nil {
		return fmt.Errorf("failed to set migration dialect: %w", err)
	}
	if err := goose.Up(db, dir); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}

// MigrationVersion returns the current migration version of db.
func MigrationVersion(db *sql.DB, drv driver.Driver) (int64, error) {
	dialect, ok := drv.MigrationDialect()
	if !ok {
		return 0, fmt.Errorf("driver %s does not support managed migrations", drv.Name())
	}

	goose.SetBaseFS(nil)
	if err := goose.SetDialect(dialect); err != nil {
		return 0, fmt.Errorf("failed to set migration dialect: %w", err)
	}
	return goose.GetDBVersion(db)
}
