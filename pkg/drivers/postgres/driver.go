// Package postgres provides a PostgreSQL driver for leapstore on top
// of the pgx stdlib adapter.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"reflect"

	_ "github.com/jackc/pgx/v5/stdlib" // pgx database/sql driver
	"github.com/leapstack-labs/leapstore/pkg/driver"
)

func init() {
	driver.Register("postgres", func(logger *slog.Logger) driver.Driver { return New(logger) })
}

// Driver implements driver.Driver for PostgreSQL.
type Driver struct {
	log *slog.Logger
}

// New creates a new PostgreSQL driver instance.
// If logger is nil, a discard logger is used.
func New(logger *slog.Logger) *Driver {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Driver{log: logger}
}

// Name returns the registry name of the driver.
func (d *Driver) Name() string { return "postgres" }

// Open establishes a connection pool to PostgreSQL.
func (d *Driver) Open(ctx context.Context, cfg driver.Config) (*sql.DB, error) {
	dsn := BuildDSN(cfg)

	d.log.Debug("connecting to postgres",
		slog.String("host", cfg.Host), slog.String("database", cfg.Database))

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres connection: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}
	return db, nil
}

// BuildDSN constructs a PostgreSQL key=value connection string.
func BuildDSN(cfg driver.Config) string {
	if cfg.DSN != "" {
		return cfg.DSN
	}

	host := cfg.Host
	if host == "" {
		host = "localhost"
	}
	port := cfg.Port
	if port == 0 {
		port = 5432
	}
	sslmode := "disable"
	if cfg.Options != nil {
		if mode, ok := cfg.Options["sslmode"]; ok {
			sslmode = mode
		}
	}

	dsn := fmt.Sprintf("host=%s port=%d dbname=%s sslmode=%s",
		host, port, cfg.Database, sslmode)
	if cfg.User != "" {
		dsn += fmt.Sprintf(" user=%s", cfg.User)
	}
	if cfg.Password != "" {
		dsn += fmt.Sprintf(" password=%s", cfg.Password)
	}
	return dsn
}

// Placeholder renders the n-th (1-based) statement placeholder.
func (d *Driver) Placeholder(n int) string { return fmt.Sprintf("$%d", n) }

// QuoteIdent quotes an identifier.
func (d *Driver) QuoteIdent(name string) string { return `"` + name + `"` }

// LimitOffset renders the LIMIT/OFFSET clause. PostgreSQL accepts an
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

// SQLType maps a Go kind to a PostgreSQL column type.
func (d *Driver) SQLType(k reflect.Kind) string {
	switch k {
	case reflect.String:
		return "TEXT"
	case reflect.Bool:
		return "BOOLEAN"
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return "BIGINT"
	case reflect.Float32, reflect.Float64:
		return "DOUBLE PRECISION"
	case reflect.Struct:
		return "TIMESTAMPTZ"
	default:
		return "BYTEA"
	}
}

// MigrationDialect returns the goose dialect for PostgreSQL.
func (d *Driver) MigrationDialect() (string, bool) { return "postgres", true }

// Ensure Driver implements the driver.Driver interface
var _ driver.Driver = (*Driver)(nil)
