// Package duckdb provides a DuckDB driver for leapstore.
package duckdb

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"reflect"

	"github.com/leapstack-labs/leapstore/pkg/driver"
	_ "github.com/marcboeker/go-duckdb" // duckdb driver
)

func init() {
	driver.Register("duckdb", func(logger *slog.Logger) driver.Driver { return New(logger) })
}

// Driver implements driver.Driver for DuckDB.
type Driver struct {
	log *slog.Logger
}

// New creates a new DuckDB driver instance.
// If logger is nil, a discard logger is used.
func New(logger *slog.Logger) *Driver {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Driver{log: logger}
}

// Name returns the registry name of the driver.
func (d *Driver) Name() string { return "duckdb" }

// Open opens the DuckDB database. An empty path opens an in-memory
// database.
func (d *Driver) Open(ctx context.Context, cfg driver.Config) (*sql.DB, error) {
	path := cfg.DSN
	if path == "" {
		path = cfg.Database
	}

	d.log.Debug("opening duckdb database", slog.String("path", path))

	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open duckdb connection: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping duckdb: %w", err)
	}
	return db, nil
}

// Placeholder renders the n-th statement placeholder.
func (d *Driver) Placeholder(int) string { return "?" }

// QuoteIdent quotes an identifier.
func (d *Driver) QuoteIdent(name string) string { return `"` + name + `"` }

// LimitOffset renders the LIMIT/OFFSET clause. DuckDB accepts an
// OFFSET without a LIMIT.
func (d *Driver) LimitOffset(limit, offset int) string {
	switch {
	case limit <= 0 && offset <= 0:
		return ""
	case offset <= 0:
		return fmt.Sprintf("LIMIT %d", limit)
	case limit <= 0:
		return fmt.Sprintf("OFFSET %d", offset)
	default:
		return fmt.Sprintf("LIMIT %d OFFSET %d", limit, offset)
	}
}

// SQLType maps a Go kind to a DuckDB column type.
func (d *Driver) SQLType(k reflect.Kind) string {
	switch k {
	case reflect.String:
		return "VARCHAR"
	case reflect.Bool:
		return "BOOLEAN"
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return "BIGINT"
	case reflect.Float32, reflect.Float64:
		return "DOUBLE"
	case reflect.Struct:
		return "TIMESTAMP"
	default:
		return "BLOB"
	}
}

// MigrationDialect reports that DuckDB has no managed-migration
// support; goose has no duckdb dialect.
func (d *Driver) MigrationDialect() (string, bool) { return "", false }

// Ensure Driver implements the driver.Driver interface
var _ driver.Driver = (*Driver)(nil)
