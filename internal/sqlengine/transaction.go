package sqlengine

import (
	"context"
	"fmt"

	"github.com/leapstack-labs/leapstore/pkg/engine"
)

// transaction bounds the session's pending queue. Commit flushes the
// queue inside the underlying sql.Tx; Rollback discards it. Either way
// the transaction is finished and the session's handle cleared.
type transaction struct {
	s    *session
	done bool
}

// Commit flushes pending changes and commits the underlying
// transaction. A flush failure rolls the underlying transaction back
// and propagates.
func (t *transaction) Commit(ctx context.Context) error {
	if t.done {
		return fmt.Errorf("transaction already finished")
	}
	t.done = true

	s := t.s
	tx := s.tx
	s.tx = nil
	defer func() { s.pending = nil }()

	if err := s.flush(ctx, tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// Rollback discards pending changes and rolls the underlying
// transaction back.
func (t *transaction) Rollback(ctx context.Context) error {
	if t.done {
		return fmt.Errorf("transaction already finished")
	}
	t.done = true

	s := t.s
	tx := s.tx
	s.tx = nil
	s.pending = nil

	if err := tx.Rollback(); err != nil {
		return fmt.Errorf("failed to roll back transaction: %w", err)
	}
	return nil
}

// Ensure transaction implements the engine.Transaction interface
var _ engine.Transaction = (*transaction)(nil)
