package sqlengine

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"reflect"

	"github.com/leapstack-labs/leapstore/pkg/driver"
	"github.com/leapstack-labs/leapstore/pkg/engine"
	"github.com/leapstack-labs/leapstore/pkg/mapping"
)

// Factory hands out sessions against one shared *sql.DB pool.
// It implements engine.SessionFactory.
type Factory struct {
	db  *sql.DB
	drv driver.Driver
	cfg *mapping.Configuration
	log *slog.Logger
}

// NewFactory wraps an open database handle. Most callers go through
// Builder.Build; NewFactory exists for tests and pre-wired pools.
func NewFactory(db *sql.DB, drv driver.Driver, cfg *mapping.Configuration, logger *slog.Logger) *Factory {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Factory{db: db, drv: drv, cfg: cfg, log: logger}
}

// OpenSession pins a dedicated connection from the pool and returns a
// fresh session around it.
func (f *Factory) OpenSession(ctx context.Context) (engine.Session, error) {
	conn, err := f.db.Conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to open session connection: %w", err)
	}
	return &session{
		conn:  conn,
		drv:   f.drv,
		cfg:   f.cfg,
		log:   f.log,
		cache: make(map[cacheKey]any),
	}, nil
}

// Close releases the shared pool. Open sessions become invalid.
func (f *Factory) Close() error {
	if f.db != nil {
		f.log.Debug("closing session factory")
		return f.db.Close()
	}
	return nil
}

// ExportSchema creates the tables for every mapped entity, skipping
// ones that already exist. Intended for bootstrap paths and tests;
// production schemas belong to managed migrations.
func (f *Factory) ExportSchema(ctx context.Context) error {
	for _, em := range f.cfg.Entities() {
		ddl, err := buildCreateTable(f.drv, em)
		if err != nil {
			return err
		}
		if _, err := f.db.ExecContext(ctx, ddl); err != nil {
			return fmt.Errorf("failed to create table %s: %w", em.Table, err)
		}
	}
	return nil
}

// buildCreateTable renders CREATE TABLE IF NOT EXISTS DDL from a
// mapping, using the driver's dialect types.
func buildCreateTable(drv driver.Driver, em *mapping.EntityMapping) (string, error) {
	ddl := "CREATE TABLE IF NOT EXISTS " + drv.QuoteIdent(em.Table) + " ("
	for i, fm := range em.Fields {
		if i > 0 {
			ddl += ", "
		}
		ft := em.Type.FieldByIndex(fm.Index).Type
		for ft.Kind() == reflect.Pointer {
			ft = ft.Elem()
		}
		ddl += drv.QuoteIdent(fm.Column) + " " + drv.SQLType(ft.Kind())
		if fm.IsID {
			ddl += " PRIMARY KEY"
		}
	}
	ddl += ")"
	return ddl, nil
}

// Ensure Factory implements the engine.SessionFactory interface
var _ engine.SessionFactory = (*Factory)(nil)
