// Package sqlite provides a SQLite driver for leapstore backed by the
// pure-Go modernc.org/sqlite implementation.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"reflect"

	"github.com/leapstack-labs/leapstore/pkg/driver"
	_ "modernc.org/sqlite" // sqlite driver
)

func init() {
	driver.Register("sqlite", func(logger *slog.Logger) driver.Driver { return New(logger) })
}

// Driver implements driver.Driver for SQLite.
type Driver struct {
	log *slog.Logger
}

// New creates a new SQLite driver instance.
// If logger is nil, a discard logger is used.
func New(logger *slog.Logger) *Driver {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Driver{log: logger}
}

// Name returns the registry name of the driver.
func (d *Driver) Name() string { return "sqlite" }

// Open opens the SQLite database. Use ":memory:" for an in-memory
// database; note that every pooled connection to ":memory:" sees its
// own database, so file paths are required when sessions must share
// data.
func (d *Driver) Open(ctx context.Context, cfg driver.Config) (*sql.DB, error) {
	dsn := BuildDSN(cfg)

	d.log.Debug("opening sqlite database", slog.String("dsn", dsn))

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping sqlite database: %w", err)
	}
	return db, nil
}

// BuildDSN constructs the SQLite data source name, enabling foreign
// keys and, for file databases, WAL journaling.
func BuildDSN(cfg driver.Config) string {
	path := cfg.DSN
	if path == "" {
		path = cfg.Database
	}
	if path == "" || path == ":memory:" {
		return ":memory:?_pragma=foreign_keys(1)"
	}
	return fmt.Sprintf("%s?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)", path)
}

// Placeholder renders the n-th statement placeholder.
func (d *Driver) Placeholder(int) string { return "?" }

// QuoteIdent quotes an identifier.
func (d *Driver) QuoteIdent(name string) string { return `"` + name + `"` }

// LimitOffset renders the LIMIT/OFFSET clause. SQLite requires a
// LIMIT before OFFSET; -1 means unbounded.
func (d *Driver) LimitOffset(limit, offset int) string {
	switch {
	case limit <= 0 && offset <= 0:
		return ""
	case offset <= 0:
		return fmt.Sprintf("LIMIT %d", limit)
	case limit <= 0:
		return fmt.Sprintf("LIMIT -1 OFFSET %d", offset)
	default:
		return fmt.Sprintf("LIMIT %d OFFSET %d", limit, offset)
	}
}

// SQLType maps a Go kind to a SQLite column type.
func (d *Driver) SQLType(k reflect.Kind) string {
	switch k {
	case reflect.String:
		return "TEXT"
	case reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return "INTEGER"
	case reflect.Float32, reflect.Float64:
		return "REAL"
	case reflect.Struct:
		// time.Time is the only struct the engine persists.
		return "TIMESTAMP"
	default:
		return "BLOB"
	}
}

// MigrationDialect returns the goose dialect for SQLite.
func (d *Driver) MigrationDialect() (string, bool) { return "sqlite", true }

// Ensure Driver implements the driver.Driver interface
var _ driver.Driver = (*Driver)(nil)
