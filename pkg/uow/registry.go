package uow

import (
	"context"
	"log/slog"
	"sync"

	"github.com/leapstack-labs/leapstore/pkg/engine"
	"github.com/leapstack-labs/leapstore/pkg/mapping"
	"golang.org/x/sync/singleflight"
)

// Registry owns the process-wide mapping configuration and session
// factory. The factory is expensive and is built at most once: the
// first context constructed fixes the module whose mappings are used
// for the registry's lifetime, and concurrent constructors share a
// single build via singleflight.
//
// Registries are injected into contexts rather than reached through
// ambient globals, so tests can substitute builders and reset state.
type Registry struct {
	builder engine.Builder
	log     *slog.Logger

	mu      sync.RWMutex
	cfg     *mapping.Configuration
	factory engine.SessionFactory

	group singleflight.Group
}

// NewRegistry creates a registry around the given factory builder.
// If logger is nil, a discard logger is used.
func NewRegistry(builder engine.Builder, logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Registry{builder: builder, log: logger}
}

// Configuration returns the shared mapping configuration, creating an
// empty one on first call. Creation never fails; mappings are bound
// when the first SessionFactory call registers a module.
func (r *Registry) Configuration() *mapping.Configuration {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cfg == nil {
		r.cfg = mapping.NewConfiguration()
	}
	return r.cfg
}

// SessionFactory returns the shared session factory, building it on
// first call from the configuration plus the module's mappings.
//
// The first module wins permanently: a later call naming a different
// module fails with a *ConfigError rather than silently reusing the
// cached factory. A failed build is not cached; the next call
// retries.
func (r *Registry) SessionFactory(ctx context.Context, module mapping.Module) (engine.SessionFactory, error) {
	r.mu.RLock()
	factory := r.factory
	r.mu.RUnlock()

	if factory == nil {
		v, err, _ := r.group.Do("build", func() (any, error) {
			// Re-check: a previous flight may have finished between
			// the fast path and joining this one.
			r.mu.RLock()
			built := r.factory
			r.mu.RUnlock()
			if built != nil {
				return built, nil
			}

			cfg := r.Configuration()
			if err := cfg.RegisterModule(module); err != nil {
				return nil, &ConfigError{Module: module.Name(), Err: err}
			}

			r.log.Debug("building session factory", slog.String("module", module.Name()))
			built, err := r.builder.Build(ctx, cfg)
			if err != nil {
				return nil, &ConfigError{Module: module.Name(), Err: err}
			}

			r.mu.Lock()
			r.factory = built
			r.mu.Unlock()
			return built, nil
		})
		if err != nil {
			return nil, err
		}
		factory = v.(engine.SessionFactory)
	}

	// Callers that joined or followed a build for another module must
	// not receive its factory.
	if bound := r.Configuration().ModuleName(); bound != module.Name() {
		return nil, &ConfigError{
			Module: module.Name(),
			Err:    &mapping.Error{Module: module.Name(), Reason: "registry already bound to module " + bound},
		}
	}
	return factory, nil
}

// Close releases the built factory, if any. Intended for shutdown and
// tests; contexts created from the registry become invalid.
func (r *Registry) Close() error {
	r.mu.Lock()
	factory := r.factory
	r.factory = nil
	r.cfg = nil
	r.mu.Unlock()

	if factory != nil {
		return factory.Close()
	}
	return nil
}
