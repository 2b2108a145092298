// Package sqlengine implements the engine boundary on top of
// database/sql. A factory owns one shared connection pool; every
// session pins its own connection and queues changes until its
// transaction commits.
package sqlengine

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/leapstack-labs/leapstore/internal/config"
	"github.com/leapstack-labs/leapstore/pkg/driver"
	"github.com/leapstack-labs/leapstore/pkg/engine"
	"github.com/leapstack-labs/leapstore/pkg/mapping"
)

// Builder builds session factories from the engine environment.
// It implements engine.Builder.
type Builder struct {
	env *config.Environment
	log *slog.Logger
}

// NewBuilder creates a builder for the given environment.
// If logger is nil, a discard logger is used.
func NewBuilder(env *config.Environment, logger *slog.Logger) *Builder {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Builder{env: env, log: logger}
}

// Build resolves the configured driver, opens the database, applies
// pending migrations when configured, and returns the factory.
func (b *Builder) Build(ctx context.Context, cfg *mapping.Configuration) (engine.SessionFactory, error) {
	if err := b.env.Validate(); err != nil {
		return nil, fmt.Errorf("invalid engine environment: %w", err)
	}

	drv, err := driver.New(b.env.Driver, b.log)
	if err != nil {
		return nil, err
	}

	db, err := drv.Open(ctx, b.env.DriverConfig())
	if err != nil {
		return nil, err
	}

	if b.env.Migrations.Auto {
		b.log.Debug("applying migrations", slog.String("dir", b.env.Migrations.Dir))
		if err := Migrate(db, drv, b.env.Migrations.Dir); err != nil {
			_ = db.Close()
			return nil, err
		}
	}

	b.log.Debug("session factory built",
		slog.String("driver", drv.Name()), slog.String("module", cfg.ModuleName()))

	return NewFactory(db, drv, cfg, b.log), nil
}

// Ensure Builder implements the engine.Builder interface
var _ engine.Builder = (*Builder)(nil)
