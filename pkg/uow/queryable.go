package uow

import (
	"context"

	"github.com/leapstack-labs/leapstore/pkg/engine"
)

// Query starts a lazy, composable query over entities of type T bound
// to the context's current session. The query only executes when a
// terminal (All, First, Count, Each) is called, and re-executes on
// every terminal call.
func Query[T any](c *DataContext) *Queryable[T] {
	return &Queryable[T]{c: c}
}

// Queryable is a restartable query handle. Refinement methods return
// a new handle and leave the receiver untouched, so partially built
// queries can be shared and extended independently.
type Queryable[T any] struct {
	c *DataContext
	q engine.Query
}

func (q *Queryable[T]) clone() *Queryable[T] {
	next := &Queryable[T]{c: q.c, q: q.q}
	next.q.Conds = append([]engine.Cond(nil), q.q.Conds...)
	next.q.Order = append([]engine.Ordering(nil), q.q.Order...)
	return next
}

// Where adds a field comparison, combined with AND.
func (q *Queryable[T]) Where(field string, op engine.Op, value any) *Queryable[T] {
	next := q.clone()
	next.q.Conds = append(next.q.Conds, engine.Cond{Field: field, Op: op, Value: value})
	return next
}

// OrderBy sorts results ascending by the given entity field.
func (q *Queryable[T]) OrderBy(field string) *Queryable[T] {
	next := q.clone()
	next.q.Order = append(next.q.Order, engine.Ordering{Field: field})
	return next
}

// OrderByDesc sorts results descending by the given entity field.
func (q *Queryable[T]) OrderByDesc(field string) *Queryable[T] {
	next := q.clone()
	next.q.Order = append(next.q.Order, engine.Ordering{Field: field, Desc: true})
	return next
}

// Limit caps the number of results.
func (q *Queryable[T]) Limit(n int) *Queryable[T] {
	next := q.clone()
	next.q.Limit = n
	return next
}

// Offset skips the first n results.
func (q *Queryable[T]) Offset(n int) *Queryable[T] {
	next := q.clone()
	next.q.Offset = n
	return next
}

// All executes the query and returns every matching entity.
func (q *Queryable[T]) All(ctx context.Context) ([]*T, error) {
	var out []*T
	err := q.Each(ctx, func(e *T) error {
		out = append(out, e)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// First executes the query and returns the first matching entity, or
// (nil, nil) when nothing matches.
func (q *Queryable[T]) First(ctx context.Context) (*T, error) {
	results, err := q.clone().Limit(1).All(ctx)
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, nil
	}
	return results[0], nil
}

// Count executes the counting variant of the query.
func (q *Queryable[T]) Count(ctx context.Context) (int64, error) {
	session, err := q.c.res.activeSession()
	if err != nil {
		return 0, err
	}
	var proto T
	return session.Count(ctx, &proto, q.q)
}

// Each executes the query and streams results to fn, stopping on the
// first error fn returns.
func (q *Queryable[T]) Each(ctx context.Context, fn func(*T) error) error {
	session, err := q.c.res.activeSession()
	if err != nil {
		return err
	}

	var proto T
	cur, err := session.Select(ctx, &proto, q.q)
	if err != nil {
		return err
	}
	defer func() { _ = cur.Close() }()

	for cur.Next() {
		entity := new(T)
		if err := cur.Scan(entity); err != nil {
			return err
		}
		if err := fn(entity); err != nil {
			return err
		}
	}
	return cur.Err()
}
