package uow

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"sync/atomic"
	"time"

	"github.com/leapstack-labs/leapstore/pkg/engine"
	"github.com/leapstack-labs/leapstore/pkg/mapping"
)

var errBuildFailed = errors.New("build failed")

// fakeBuilder counts factory builds so tests can assert the
// exactly-once guarantee.
type fakeBuilder struct {
	builds     atomic.Int32
	buildDelay time.Duration
	failNext   atomic.Int32

	mu      sync.Mutex
	factory *fakeFactory
}

func (b *fakeBuilder) Build(_ context.Context, _ *mapping.Configuration) (engine.SessionFactory, error) {
	b.builds.Add(1)
	if b.buildDelay > 0 {
		time.Sleep(b.buildDelay)
	}
	if b.failNext.Load() > 0 {
		b.failNext.Add(-1)
		return nil, errBuildFailed
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.factory = &fakeFactory{}
	return b.factory, nil
}

type fakeFactory struct {
	mu       sync.Mutex
	sessions []*fakeSession
	closed   bool

	// Injected into transactions of sessions opened after the change.
	commitErr   error
	rollbackErr error

	// openErr fails the next OpenSession, once.
	openErr error
}

func (f *fakeFactory) OpenSession(context.Context) (engine.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.openErr != nil {
		err := f.openErr
		f.openErr = nil
		return nil, err
	}
	s := &fakeSession{f: f, store: map[any]any{}}
	f.sessions = append(f.sessions, s)
	return s, nil
}

func (f *fakeFactory) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

// openSessions returns the sessions opened so far and how many of
// them are still open.
func (f *fakeFactory) openSessions() (total, open int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, s := range f.sessions {
		if !s.closed {
			open++
		}
	}
	return len(f.sessions), open
}

type fakeSession struct {
	f        *fakeFactory
	tx       *fakeTx
	closed   bool
	closeErr error

	saved   []any
	deleted []any
	evicted []any

	// store backs Get; tests preload it with pointers keyed by id.
	store map[any]any

	selectCalls int
	lastQuery   engine.Query
	results     []any
	count       int64
}

func (s *fakeSession) Begin(context.Context) (engine.Transaction, error) {
	s.f.mu.Lock()
	tx := &fakeTx{commitErr: s.f.commitErr, rollbackErr: s.f.rollbackErr}
	s.f.mu.Unlock()
	s.tx = tx
	return tx, nil
}

func (s *fakeSession) Get(_ context.Context, entity any, id any) (bool, error) {
	v, ok := s.store[id]
	if !ok {
		return false, nil
	}
	reflect.ValueOf(entity).Elem().Set(reflect.ValueOf(v).Elem())
	return true, nil
}

func (s *fakeSession) SaveOrUpdate(entity any) error {
	s.saved = append(s.saved, entity)
	return nil
}

func (s *fakeSession) Delete(entity any) error {
	s.deleted = append(s.deleted, entity)
	return nil
}

func (s *fakeSession) Evict(entity any) {
	s.evicted = append(s.evicted, entity)
}

func (s *fakeSession) Select(_ context.Context, _ any, q engine.Query) (engine.Cursor, error) {
	s.selectCalls++
	s.lastQuery = q
	return &fakeCursor{results: s.results}, nil
}

func (s *fakeSession) Count(_ context.Context, _ any, q engine.Query) (int64, error) {
	s.lastQuery = q
	return s.count, nil
}

func (s *fakeSession) Close() error {
	s.closed = true
	if s.tx != nil && !s.tx.finished() {
		s.tx.rolledBack = true
	}
	return s.closeErr
}

type fakeTx struct {
	committed   bool
	rolledBack  bool
	commitErr   error
	rollbackErr error
}

func (t *fakeTx) finished() bool { return t.committed || t.rolledBack }

func (t *fakeTx) Commit(context.Context) error {
	t.committed = true
	return t.commitErr
}

func (t *fakeTx) Rollback(context.Context) error {
	t.rolledBack = true
	return t.rollbackErr
}

type fakeCursor struct {
	results []any
	pos     int
}

func (c *fakeCursor) Next() bool {
	if c.pos >= len(c.results) {
		return false
	}
	c.pos++
	return true
}

func (c *fakeCursor) Scan(entity any) error {
	v := c.results[c.pos-1]
	reflect.ValueOf(entity).Elem().Set(reflect.ValueOf(v).Elem())
	return nil
}

func (c *fakeCursor) Err() error   { return nil }
func (c *fakeCursor) Close() error { return nil }

// fakeModule satisfies mapping.Module for state-machine tests; the
// fake engine never consults the harvested mappings.
type fakeModule struct {
	name string
}

func (m fakeModule) Name() string                { return m.name }
func (m fakeModule) Entities() []any             { return []any{&widget{}} }
func (m fakeModule) Mappings() []mapping.Mapping { return nil }

type widget struct {
	ID   string
	Name string
}

var (
	_ engine.Builder        = (*fakeBuilder)(nil)
	_ engine.SessionFactory = (*fakeFactory)(nil)
	_ engine.Session        = (*fakeSession)(nil)
	_ engine.Transaction    = (*fakeTx)(nil)
	_ engine.Cursor         = (*fakeCursor)(nil)
)
