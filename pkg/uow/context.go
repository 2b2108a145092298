// Package uow provides the transaction-scoped unit-of-work façade:
// one DataContext binds one logical unit of work to one persistence
// session and enforces a strict state machine over transaction
// boundaries, with deterministic release on Close.
//
// A context is single-owner: per-instance operations are not
// goroutine-safe and concurrent calls into one context are
// unsupported. The shared Registry, by contrast, is safe for
// concurrent use.
package uow

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"

	"github.com/leapstack-labs/leapstore/pkg/engine"
	"github.com/leapstack-labs/leapstore/pkg/mapping"
)

// resources holds everything a context must release. It is kept apart
// from DataContext so the runtime cleanup can reach it after the
// context itself becomes unreachable.
type resources struct {
	factory engine.SessionFactory
	session engine.Session
	tx      engine.Transaction
	txOpen  bool
	closed  bool
	log     *slog.Logger
}

// release rolls back an open transaction best-effort and closes the
// session. It never returns or panics: it also runs on the
// finalization path.
func (r *resources) release() {
	defer func() { _ = recover() }()

	if r.closed {
		return
	}
	r.closed = true

	if r.txOpen && r.tx != nil {
		if err := r.tx.Rollback(context.Background()); err != nil {
			r.log.Warn("rollback during release failed", slog.Any("error", err))
		}
	}
	r.tx = nil
	r.txOpen = false

	if r.session != nil {
		if err := r.session.Close(); err != nil {
			r.log.Warn("session close during release failed", slog.Any("error", err))
		}
		r.session = nil
	}
}

// activeSession returns the session reads go through. A failed Begin
// can leave an open context without a session until the next Begin
// succeeds; reads in that window fail with ErrNoSession.
func (r *resources) activeSession() (engine.Session, error) {
	if r.closed {
		return nil, ErrClosed
	}
	if r.session == nil {
		return nil, ErrNoSession
	}
	return r.session, nil
}

// DataContext is a single-session, transaction-scoped data-access
// context. Constructing one triggers (at most once per registry) the
// session factory build, then opens its own session.
type DataContext struct {
	log     *slog.Logger
	res     *resources
	cleanup runtime.Cleanup
}

// NewContext builds a context for the given module using the
// registry's shared factory. The first module used with a registry
// fixes its mappings; see Registry.SessionFactory.
//
// Callers own the returned context and must Close it. A runtime
// cleanup releases leaked contexts eventually, but that path is not
// deterministic and correctness must not depend on it.
func NewContext(ctx context.Context, reg *Registry, module mapping.Module) (*DataContext, error) {
	factory, err := reg.SessionFactory(ctx, module)
	if err != nil {
		return nil, err
	}

	session, err := factory.OpenSession(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to open session: %w", err)
	}

	res := &resources{factory: factory, session: session, log: reg.log}
	c := &DataContext{log: reg.log, res: res}
	c.cleanup = runtime.AddCleanup(c, func(r *resources) { r.release() }, res)
	return c, nil
}

// Begin opens a transaction. While one is already open, Begin is an
// idempotent no-op returning the existing handle. Otherwise the
// current session is released and replaced with a fresh one, so every
// transaction starts on a clean unit-of-work boundary, and a
// transaction is begun on it.
func (c *DataContext) Begin(ctx context.Context) (engine.Transaction, error) {
	r := c.res
	if r.closed {
		return nil, ErrClosed
	}
	if r.txOpen {
		return r.tx, nil
	}

	if r.session != nil {
		err := r.session.Close()
		r.session = nil
		if err != nil {
			return nil, fmt.Errorf("failed to release session: %w", err)
		}
	}

	session, err := r.factory.OpenSession(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to open session: %w", err)
	}
	r.session = session

	tx, err := session.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	r.tx = tx
	r.txOpen = true

	c.log.Debug("transaction opened")
	return tx, nil
}

// Commit commits the open transaction. It fails with ErrNoTransaction
// when none is open. The transaction handle is cleared and the flag
// lowered even when the underlying commit fails; the commit error
// still reaches the caller.
func (c *DataContext) Commit(ctx context.Context) error {
	r := c.res
	if r.closed {
		return ErrClosed
	}
	if !r.txOpen {
		return ErrNoTransaction
	}

	tx := r.tx
	defer func() {
		r.tx = nil
		r.txOpen = false
	}()

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit failed: %w", err)
	}
	c.log.Debug("transaction committed")
	return nil
}

// Rollback rolls back the open transaction. It fails with
// ErrNoTransaction when none is open. Cleanup is guaranteed exactly
// as for Commit: the handle is cleared even when rollback fails.
func (c *DataContext) Rollback(ctx context.Context) error {
	r := c.res
	if r.closed {
		return ErrClosed
	}
	if !r.txOpen {
		return ErrNoTransaction
	}

	tx := r.tx
	defer func() {
		r.tx = nil
		r.txOpen = false
	}()

	if err := tx.Rollback(ctx); err != nil {
		return fmt.Errorf("rollback failed: %w", err)
	}
	c.log.Debug("transaction rolled back")
	return nil
}

// SaveChanges commits the open transaction. It is an alias for Commit
// and fails identically when no transaction is open.
func (c *DataContext) SaveChanges(ctx context.Context) error {
	return c.Commit(ctx)
}

// Save marks the entity for insert-or-update in the current session,
// opening a transaction first if none is open. Nothing is flushed to
// storage until a successful Commit.
func (c *DataContext) Save(ctx context.Context, entity any) error {
	if _, err := c.Begin(ctx); err != nil {
		return err
	}
	return c.res.session.SaveOrUpdate(entity)
}

// Delete marks the entity for deletion in the current session,
// opening a transaction first if none is open. The deletion reaches
// storage only on a successful Commit.
func (c *DataContext) Delete(ctx context.Context, entity any) error {
	if _, err := c.Begin(ctx); err != nil {
		return err
	}
	return c.res.session.Delete(entity)
}

// Evict detaches the entity from the session's identity cache without
// touching storage or the open transaction.
func (c *DataContext) Evict(entity any) {
	if c.res.closed || c.res.session == nil {
		return
	}
	c.res.session.Evict(entity)
}

// InTransaction reports whether a transaction is open. The report is
// true exactly when a live transaction handle exists.
func (c *DataContext) InTransaction() bool {
	return c.res.txOpen
}

// Close releases the context: an open transaction is rolled back
// best-effort, then the session is closed. Close is idempotent and
// never returns an error; release failures are logged. It also stops
// the fallback runtime cleanup.
func (c *DataContext) Close() error {
	c.cleanup.Stop()
	c.res.release()
	return nil
}

// Get fetches the entity of type T with the given identifier through
// the context's session, consulting the session's identity cache
// first. It returns (nil, nil) when no such entity exists.
func Get[T any](ctx context.Context, c *DataContext, id any) (*T, error) {
	session, err := c.res.activeSession()
	if err != nil {
		return nil, err
	}

	var entity T
	found, err := session.Get(ctx, &entity, id)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, nil
	}
	return &entity, nil
}

// DeleteByID opens a transaction if needed, fetches the entity of
// type T by identifier, and marks it for deletion. It returns the
// fetched entity, or (nil, nil) when no such entity exists.
func DeleteByID[T any](ctx context.Context, c *DataContext, id any) (*T, error) {
	if _, err := c.Begin(ctx); err != nil {
		return nil, err
	}

	entity, err := Get[T](ctx, c, id)
	if err != nil || entity == nil {
		return nil, err
	}
	if err := c.res.session.Delete(entity); err != nil {
		return nil, err
	}
	return entity, nil
}
