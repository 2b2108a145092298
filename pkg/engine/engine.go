// Package engine defines the boundary contract between the unit-of-work
// layer and a persistence engine implementation.
//
// This package contains interfaces only. The database/sql-backed engine
// lives in internal/sqlengine; tests substitute fakes.
package engine

import (
	"context"

	"github.com/leapstack-labs/leapstore/pkg/mapping"
)

// Builder constructs a SessionFactory from a mapping configuration.
// Building is expected to be expensive (connection setup, migrations)
// and is performed at most once per process by the uow registry.
type Builder interface {
	// Build opens the underlying store and returns a ready factory.
	Build(ctx context.Context, cfg *mapping.Configuration) (SessionFactory, error)
}

// SessionFactory hands out sessions against a shared underlying store.
// A factory is safe for concurrent use; the sessions it returns are not.
type SessionFactory interface {
	// OpenSession returns a fresh session bound to its own connection.
	OpenSession(ctx context.Context) (Session, error)

	// Close releases the shared store. Open sessions become invalid.
	Close() error
}

// Session is a unit-of-work handle: it tracks loaded entities in an
// identity cache and queues pending changes until a transaction commits.
// A session is owned by exactly one caller and is not goroutine-safe.
type Session interface {
	// Begin starts a transaction on this session's connection.
	Begin(ctx context.Context) (Transaction, error)

	// Get loads the entity with the given identifier into entity,
	// consulting the identity cache first. It reports whether a row
	// (or cached instance) was found.
	Get(ctx context.Context, entity any, id any) (bool, error)

	// SaveOrUpdate marks the entity for insert-or-update at commit.
	SaveOrUpdate(entity any) error

	// Delete marks the entity for deletion at commit.
	Delete(entity any) error

	// Evict removes the entity from the identity cache. Pending
	// changes and the open transaction are unaffected.
	Evict(entity any)

	// Select executes a query for entities shaped like prototype and
	// returns a cursor over the results.
	Select(ctx context.Context, prototype any, q Query) (Cursor, error)

	// Count returns the number of rows matching the query.
	Count(ctx context.Context, prototype any, q Query) (int64, error)

	// Close releases the session's connection. An active transaction
	// is rolled back first.
	Close() error
}

// Transaction bounds a set of changes committed or discarded together.
// Commit and Rollback finish the transaction; a finished transaction
// must not be used again.
type Transaction interface {
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// Cursor iterates over the results of a Select. It follows the
// sql.Rows shape: Next, Scan, then Err after iteration.
type Cursor interface {
	Next() bool

	// Scan decodes the current row into entity, which must be a
	// pointer to a mapped struct.
	Scan(entity any) error

	Err() error
	Close() error
}
