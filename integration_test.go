package leapstore_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/leapstore/internal/config"
	"github.com/leapstack-labs/leapstore/internal/sqlengine"
	"github.com/leapstack-labs/leapstore/pkg/engine"
	"github.com/leapstack-labs/leapstore/pkg/mapping"
	"github.com/leapstack-labs/leapstore/pkg/uow"

	_ "github.com/leapstack-labs/leapstore/pkg/drivers/sqlite"
)

type customer struct {
	ID    string
	Name  string
	Tier  int64
	Email string
}

type shopModule struct{}

func (shopModule) Name() string                { return "shop" }
func (shopModule) Entities() []any             { return []any{&customer{}} }
func (shopModule) Mappings() []mapping.Mapping { return nil }

// newSQLiteRegistry wires the real SQL engine to a file-backed
// sqlite database and exports the schema, so every context in a test
// shares one database.
func newSQLiteRegistry(t *testing.T) *uow.Registry {
	t.Helper()

	env := &config.Environment{
		Driver: "sqlite",
		DSN:    filepath.Join(t.TempDir(), "shop.db"),
	}
	reg := uow.NewRegistry(sqlengine.NewBuilder(env, nil), nil)
	t.Cleanup(func() { _ = reg.Close() })

	ctx := context.Background()
	factory, err := reg.SessionFactory(ctx, shopModule{})
	require.NoError(t, err)
	require.NoError(t, factory.(*sqlengine.Factory).ExportSchema(ctx))
	return reg
}

func TestCommitPersistsAcrossContexts(t *testing.T) {
	reg := newSQLiteRegistry(t)
	ctx := context.Background()

	dc, err := uow.NewContext(ctx, reg, shopModule{})
	require.NoError(t, err)

	require.NoError(t, dc.Save(ctx, &customer{ID: "c1", Name: "Ada", Tier: 2, Email: "ada@example.com"}))
	require.NoError(t, dc.Save(ctx, &customer{ID: "c2", Name: "Grace", Tier: 1, Email: "grace@example.com"}))
	require.NoError(t, dc.Commit(ctx))
	require.NoError(t, dc.Close())

	other, err := uow.NewContext(ctx, reg, shopModule{})
	require.NoError(t, err)
	defer func() { _ = other.Close() }()

	got, err := uow.Get[customer](ctx, other, "c1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Ada", got.Name)
	assert.Equal(t, int64(2), got.Tier)
}

func TestRollbackDiscardsChanges(t *testing.T) {
	reg := newSQLiteRegistry(t)
	ctx := context.Background()

	dc, err := uow.NewContext(ctx, reg, shopModule{})
	require.NoError(t, err)
	require.NoError(t, dc.Save(ctx, &customer{ID: "c1", Name: "Ada"}))
	require.NoError(t, dc.Rollback(ctx))
	require.NoError(t, dc.Close())

	other, err := uow.NewContext(ctx, reg, shopModule{})
	require.NoError(t, err)
	defer func() { _ = other.Close() }()

	got, err := uow.Get[customer](ctx, other, "c1")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestSaveUpdatesExistingRow(t *testing.T) {
	reg := newSQLiteRegistry(t)
	ctx := context.Background()

	dc, err := uow.NewContext(ctx, reg, shopModule{})
	require.NoError(t, err)
	defer func() { _ = dc.Close() }()

	require.NoError(t, dc.Save(ctx, &customer{ID: "c1", Name: "Ada", Tier: 1}))
	require.NoError(t, dc.Commit(ctx))

	require.NoError(t, dc.Save(ctx, &customer{ID: "c1", Name: "Ada", Tier: 3}))
	require.NoError(t, dc.Commit(ctx))

	got, err := uow.Get[customer](ctx, dc, "c1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, int64(3), got.Tier)
}

func TestDeleteByIDRoundTrip(t *testing.T) {
	reg := newSQLiteRegistry(t)
	ctx := context.Background()

	dc, err := uow.NewContext(ctx, reg, shopModule{})
	require.NoError(t, err)
	defer func() { _ = dc.Close() }()

	require.NoError(t, dc.Save(ctx, &customer{ID: "c1", Name: "Ada"}))
	require.NoError(t, dc.Commit(ctx))

	deleted, err := uow.DeleteByID[customer](ctx, dc, "c1")
	require.NoError(t, err)
	require.NotNil(t, deleted)
	assert.Equal(t, "Ada", deleted.Name)
	require.NoError(t, dc.Commit(ctx))

	got, err := uow.Get[customer](ctx, dc, "c1")
	require.NoError(t, err)
	assert.Nil(t, got)

	// Deleting an id that is already gone is a quiet no-op.
	deleted, err = uow.DeleteByID[customer](ctx, dc, "c1")
	require.NoError(t, err)
	assert.Nil(t, deleted)
	require.NoError(t, dc.Rollback(ctx))
}

func TestQueryFiltersAndOrders(t *testing.T) {
	reg := newSQLiteRegistry(t)
	ctx := context.Background()

	dc, err := uow.NewContext(ctx, reg, shopModule{})
	require.NoError(t, err)
	defer func() { _ = dc.Close() }()

	seed := []*customer{
		{ID: "c1", Name: "Ada", Tier: 2},
		{ID: "c2", Name: "Grace", Tier: 1},
		{ID: "c3", Name: "Edsger", Tier: 2},
	}
	for _, c := range seed {
		require.NoError(t, dc.Save(ctx, c))
	}
	require.NoError(t, dc.Commit(ctx))

	tier2, err := uow.Query[customer](dc).
		Where("Tier", engine.OpEq, int64(2)).
		OrderBy("Name").
		All(ctx)
	require.NoError(t, err)
	require.Len(t, tier2, 2)
	assert.Equal(t, "Ada", tier2[0].Name)
	assert.Equal(t, "Edsger", tier2[1].Name)

	n, err := uow.Query[customer](dc).Where("Tier", engine.OpGe, int64(1)).Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)

	first, err := uow.Query[customer](dc).OrderByDesc("Name").First(ctx)
	require.NoError(t, err)
	require.NotNil(t, first)
	assert.Equal(t, "Grace", first.Name)

	// Offset without a limit must page past the first row.
	rest, err := uow.Query[customer](dc).OrderBy("Name").Offset(1).All(ctx)
	require.NoError(t, err)
	require.Len(t, rest, 2)
	assert.Equal(t, "Edsger", rest[0].Name)
	assert.Equal(t, "Grace", rest[1].Name)
}

func TestGeneratedIdentifier(t *testing.T) {
	reg := newSQLiteRegistry(t)
	ctx := context.Background()

	dc, err := uow.NewContext(ctx, reg, shopModule{})
	require.NoError(t, err)
	defer func() { _ = dc.Close() }()

	fresh := &customer{Name: "NoID"}
	require.NoError(t, dc.Save(ctx, fresh))
	require.NotEmpty(t, fresh.ID, "a zero string identifier must be generated on save")
	require.NoError(t, dc.Commit(ctx))

	got, err := uow.Get[customer](ctx, dc, fresh.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "NoID", got.Name)
}
