// Package leapstore binds one logical unit of work to one database
// session. The exported surface lives in pkg/uow (contexts and the
// registry), pkg/mapping (entity mappings), and pkg/engine (the
// persistence-engine boundary); this package wires them to the
// bundled SQL engine and the leapstore.yaml / LEAPSTORE_ environment.
//
// Typical use:
//
//	ctx := context.Background()
//	dc, err := leapstore.NewContext(ctx, shopModule{})
//	if err != nil { ... }
//	defer dc.Close()
//
//	if err := dc.Save(ctx, &Customer{Name: "Ada"}); err != nil { ... }
//	if err := dc.Commit(ctx); err != nil { ... }
package leapstore

import (
	"context"
	"log/slog"
	"sync"

	"github.com/leapstack-labs/leapstore/internal/config"
	"github.com/leapstack-labs/leapstore/internal/sqlengine"
	"github.com/leapstack-labs/leapstore/pkg/mapping"
	"github.com/leapstack-labs/leapstore/pkg/uow"

	// The default environment uses the sqlite driver; postgres and
	// duckdb are opt-in imports.
	_ "github.com/leapstack-labs/leapstore/pkg/drivers/sqlite"
)

var (
	defaultOnce sync.Once
	defaultReg  *uow.Registry
	defaultErr  error
)

// DefaultRegistry returns the process-wide registry backed by the SQL
// engine and the environment loaded from leapstore.yaml and
// LEAPSTORE_ variables. The registry is created on first call; a load
// failure is returned from every call.
func DefaultRegistry() (*uow.Registry, error) {
	defaultOnce.Do(func() {
		env, err := config.Load("", nil)
		if err != nil {
			defaultErr = err
			return
		}
		logger := slog.Default()
		defaultReg = uow.NewRegistry(sqlengine.NewBuilder(env, logger), logger)
	})
	return defaultReg, defaultErr
}

// NewRegistryFromConfig builds a registry from an explicit config
// file, bypassing the default environment. Intended for programs that
// manage several stores.
func NewRegistryFromConfig(cfgFile string, logger *slog.Logger) (*uow.Registry, error) {
	env, err := config.Load(cfgFile, nil)
	if err != nil {
		return nil, err
	}
	return uow.NewRegistry(sqlengine.NewBuilder(env, logger), logger), nil
}

// NewContext opens a data context for the module against the default
// registry. The first module used fixes the process-wide mappings.
func NewContext(ctx context.Context, module mapping.Module) (*uow.DataContext, error) {
	reg, err := DefaultRegistry()
	if err != nil {
		return nil, err
	}
	return uow.NewContext(ctx, reg, module)
}
