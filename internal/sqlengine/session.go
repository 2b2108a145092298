package sqlengine

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"reflect"

	"github.com/google/uuid"
	"github.com/leapstack-labs/leapstore/pkg/driver"
	"github.com/leapstack-labs/leapstore/pkg/engine"
	"github.com/leapstack-labs/leapstore/pkg/mapping"
)

type opKind int

const (
	opSave opKind = iota
	opDelete
)

// pendingOp is one queued change, flushed at commit in queue order.
type pendingOp struct {
	kind   opKind
	entity any
	em     *mapping.EntityMapping
}

// cacheKey identifies one entity instance in the identity cache.
type cacheKey struct {
	typ reflect.Type
	id  any
}

// querier is the subset of sql.Conn / sql.Tx the session reads through.
type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// session is a unit-of-work handle over one pinned connection.
// It implements engine.Session and is not goroutine-safe.
type session struct {
	conn *sql.Conn
	drv  driver.Driver
	cfg  *mapping.Configuration
	log  *slog.Logger

	tx      *sql.Tx
	pending []pendingOp
	cache   map[cacheKey]any
	closed  bool
}

// querier returns the open transaction when present, the pinned
// connection otherwise.
func (s *session) querier() querier {
	if s.tx != nil {
		return s.tx
	}
	return s.conn
}

// Begin starts a transaction on the session's connection.
func (s *session) Begin(ctx context.Context) (engine.Transaction, error) {
	if s.closed {
		return nil, fmt.Errorf("session is closed")
	}
	if s.tx != nil {
		return nil, fmt.Errorf("session already has an open transaction")
	}

	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	s.tx = tx
	return &transaction{s: s}, nil
}

// Get loads the entity with the given identifier, consulting the
// identity cache first.
func (s *session) Get(ctx context.Context, entity any, id any) (bool, error) {
	if s.closed {
		return false, fmt.Errorf("session is closed")
	}
	em, err := s.cfg.Lookup(entity)
	if err != nil {
		return false, err
	}

	rv := reflect.ValueOf(entity)
	if rv.Kind() != reflect.Pointer || rv.IsNil() {
		return false, fmt.Errorf("entity must be a non-nil pointer to %s", em.Type.Name())
	}

	key := cacheKey{typ: em.Type, id: normalizeID(id)}
	if cached, ok := s.cache[key]; ok {
		rv.Elem().Set(reflect.ValueOf(cached).Elem())
		return true, nil
	}

	query := buildGet(s.drv, em)
	ptrs, err := fieldPtrs(entity, em)
	if err != nil {
		return false, err
	}

	err = s.querier().QueryRowContext(ctx, query, id).Scan(ptrs...)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to get %s: %w", em.Type.Name(), err)
	}

	s.cache[key] = entity
	return true, nil
}

// SaveOrUpdate marks the entity for insert-or-update at commit. A zero
// string identifier is assigned a fresh UUID; any other zero
// identifier is rejected.
func (s *session) SaveOrUpdate(entity any) error {
	if s.closed {
		return fmt.Errorf("session is closed")
	}
	em, err := s.cfg.Lookup(entity)
	if err != nil {
		return err
	}

	rv := reflect.ValueOf(entity)
	if rv.Kind() != reflect.Pointer || rv.IsNil() {
		return fmt.Errorf("entity must be a non-nil pointer to %s", em.Type.Name())
	}

	idField := rv.Elem().FieldByIndex(em.ID.Index)
	if idField.IsZero() {
		if idField.Kind() != reflect.String {
			return fmt.Errorf("entity %s has a zero identifier", em.Type.Name())
		}
		idField.SetString(uuid.New().String())
	}

	s.pending = append(s.pending, pendingOp{kind: opSave, entity: entity, em: em})
	s.cache[cacheKey{typ: em.Type, id: normalizeID(idField.Interface())}] = entity
	return nil
}

// Delete marks the entity for deletion at commit and drops it from the
// identity cache.
func (s *session) Delete(entity any) error {
	if s.closed {
		return fmt.Errorf("session is closed")
	}
	em, err := s.cfg.Lookup(entity)
	if err != nil {
		return err
	}

	id, err := idValue(entity, em)
	if err != nil {
		return err
	}

	s.pending = append(s.pending, pendingOp{kind: opDelete, entity: entity, em: em})
	delete(s.cache, cacheKey{typ: em.Type, id: normalizeID(id)})
	return nil
}

// Evict removes the entity from the identity cache without touching
// pending changes or the open transaction.
func (s *session) Evict(entity any) {
	em, err := s.cfg.Lookup(entity)
	if err != nil {
		return
	}
	id, err := idValue(entity, em)
	if err != nil {
		return
	}
	delete(s.cache, cacheKey{typ: em.Type, id: normalizeID(id)})
}

// Select executes a query for entities shaped like prototype.
func (s *session) Select(ctx context.Context, prototype any, q engine.Query) (engine.Cursor, error) {
	if s.closed {
		return nil, fmt.Errorf("session is closed")
	}
	em, err := s.cfg.Lookup(prototype)
	if err != nil {
		return nil, err
	}

	query, args, err := buildSelect(s.drv, em, q)
	if err != nil {
		return nil, err
	}

	//nolint:rowserrcheck // the cursor surfaces rows.Err via Err()
	rows, err := s.querier().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", em.Table, err)
	}
	return &cursor{rows: rows, em: em}, nil
}

// Count returns the number of rows matching the query.
func (s *session) Count(ctx context.Context, prototype any, q engine.Query) (int64, error) {
	if s.closed {
		return 0, fmt.Errorf("session is closed")
	}
	em, err := s.cfg.Lookup(prototype)
	if err != nil {
		return 0, err
	}

	query, args, err := buildCount(s.drv, em, q)
	if err != nil {
		return 0, err
	}

	var n int64
	if err := s.querier().QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count %s: %w", em.Table, err)
	}
	return n, nil
}

// flush applies the pending queue in order inside tx.
func (s *session) flush(ctx context.Context, tx *sql.Tx) error {
	for _, op := range s.pending {
		var (
			query string
			args  []any
			err   error
		)
		switch op.kind {
		case opSave:
			query, args, err = buildUpsert(s.drv, op.em, op.entity)
		case opDelete:
			query, args, err = buildDeleteByID(s.drv, op.em, op.entity)
		}
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("failed to flush %s change: %w", op.em.Table, err)
		}
	}
	return nil
}

// Close releases the session's connection. An active transaction is
// rolled back first; rollback errors are logged, not returned.
func (s *session) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true

	if s.tx != nil {
		if err := s.tx.Rollback(); err != nil && err != sql.ErrTxDone {
			s.log.Warn("rollback during session close failed", slog.Any("error", err))
		}
		s.tx = nil
	}
	s.pending = nil
	s.cache = nil
	return s.conn.Close()
}

// normalizeID widens integer identifiers and unwraps named string
// types so cache keys compare across equivalent representations.
func normalizeID(id any) any {
	rv := reflect.ValueOf(id)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int()
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return rv.Uint()
	case reflect.String:
		return rv.String()
	default:
		return id
	}
}

// Ensure session implements the engine.Session interface
var _ engine.Session = (*session)(nil)
