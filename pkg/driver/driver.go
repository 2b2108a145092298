// Package driver defines the database driver contract for leapstore's
// SQL engine and a process-wide factory registry.
//
// Concrete drivers live in pkg/drivers/ subdirectories and register
// themselves in their init() functions; importing a driver package for
// side effects makes it available by name.
package driver

import (
	"context"
	"database/sql"
	"reflect"
)

// Config carries the connection settings for a driver. Which fields
// apply depends on the driver: file-based databases use DSN, network
// databases use Host/Port/Database credentials.
type Config struct {
	// DSN is the full data source name. When set it is used verbatim
	// and the remaining fields are ignored.
	DSN string

	Database string
	Host     string
	Port     int
	User     string
	Password string

	// Options holds driver-specific settings (e.g. sslmode).
	Options map[string]string
}

// Driver opens connections for one database kind and describes its
// SQL dialect to the engine.
type Driver interface {
	// Name returns the registry name of the driver.
	Name() string

	// Open establishes a connection pool and verifies it with a ping.
	Open(ctx context.Context, cfg Config) (*sql.DB, error)

	// Placeholder renders the n-th (1-based) statement placeholder.
	Placeholder(n int) string

	// QuoteIdent quotes a table or column identifier.
	QuoteIdent(name string) string

	// LimitOffset renders the LIMIT/OFFSET clause for the dialect,
	// without a leading space. Non-positive values mean unset; both
	// unset renders the empty string.
	LimitOffset(limit, offset int) string

	// SQLType maps a Go kind to the column type used by schema export.
	SQLType(k reflect.Kind) string

	// MigrationDialect returns the goose dialect name, or false when
	// the driver does not support managed migrations.
	MigrationDialect() (string, bool)
}
