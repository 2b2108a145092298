package uow

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/leapstore/pkg/engine"
)

func TestQueryable_LazyAndRestartable(t *testing.T) {
	c, b := newTestContext(t)
	ctx := context.Background()

	sess := lastSession(t, b)
	sess.results = []any{
		&widget{ID: "1", Name: "bolt"},
		&widget{ID: "2", Name: "nut"},
	}

	q := Query[widget](c).Where("Name", engine.OpLike, "b%").OrderBy("Name")
	assert.Zero(t, sess.selectCalls, "building a query must not execute it")

	all, err := q.All(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "bolt", all[0].Name)
	assert.Equal(t, 1, sess.selectCalls)

	// A terminal call re-executes; the handle is not consumed.
	again, err := q.All(ctx)
	require.NoError(t, err)
	assert.Len(t, again, 2)
	assert.Equal(t, 2, sess.selectCalls)
}

func TestQueryable_RefinementDoesNotMutateReceiver(t *testing.T) {
	c, b := newTestContext(t)
	ctx := context.Background()
	sess := lastSession(t, b)

	base := Query[widget](c).Where("Name", engine.OpEq, "bolt")
	narrowed := base.Where("ID", engine.OpGt, "5").Limit(3)

	_, err := base.All(ctx)
	require.NoError(t, err)
	assert.Len(t, sess.lastQuery.Conds, 1)
	assert.Zero(t, sess.lastQuery.Limit)

	_, err = narrowed.All(ctx)
	require.NoError(t, err)
	assert.Len(t, sess.lastQuery.Conds, 2)
	assert.Equal(t, 3, sess.lastQuery.Limit)
}

func TestQueryable_First(t *testing.T) {
	c, b := newTestContext(t)
	ctx := context.Background()
	sess := lastSession(t, b)

	got, err := Query[widget](c).First(ctx)
	require.NoError(t, err)
	assert.Nil(t, got, "empty result yields nil, not an error")
	assert.Equal(t, 1, sess.lastQuery.Limit, "First must cap the query at one row")

	sess.results = []any{&widget{ID: "1", Name: "bolt"}}
	got, err = Query[widget](c).First(ctx)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "bolt", got.Name)
}

func TestQueryable_Count(t *testing.T) {
	c, b := newTestContext(t)
	sess := lastSession(t, b)
	sess.count = 7

	n, err := Query[widget](c).Where("Name", engine.OpNe, "scrap").Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(7), n)
	assert.Len(t, sess.lastQuery.Conds, 1)
}

func TestQueryable_EachStopsOnCallbackError(t *testing.T) {
	c, b := newTestContext(t)
	sess := lastSession(t, b)
	sess.results = []any{
		&widget{ID: "1"},
		&widget{ID: "2"},
		&widget{ID: "3"},
	}

	var seen int
	err := Query[widget](c).Each(context.Background(), func(*widget) error {
		seen++
		if seen == 2 {
			return errBuildFailed
		}
		return nil
	})
	require.ErrorIs(t, err, errBuildFailed)
	assert.Equal(t, 2, seen)
}
