package driver

import (
	"context"
	"database/sql"
	"log/slog"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubDriver struct{ name string }

func (d *stubDriver) Name() string                                  { return d.name }
func (d *stubDriver) Open(context.Context, Config) (*sql.DB, error) { return nil, nil }
func (d *stubDriver) Placeholder(int) string                        { return "?" }
func (d *stubDriver) QuoteIdent(name string) string                 { return name }
func (d *stubDriver) LimitOffset(int, int) string                   { return "" }
func (d *stubDriver) SQLType(reflect.Kind) string                   { return "TEXT" }
func (d *stubDriver) MigrationDialect() (string, bool)              { return "", false }

func TestRegistry(t *testing.T) {
	Register("stub", func(*slog.Logger) Driver { return &stubDriver{name: "stub"} })

	assert.True(t, IsRegistered("stub"))
	assert.Contains(t, List(), "stub")

	d, err := New("stub", nil)
	require.NoError(t, err)
	assert.Equal(t, "stub", d.Name())
}

func TestNew_Unknown(t *testing.T) {
	_, err := New("no-such-driver", nil)
	require.Error(t, err)

	var unknown *UnknownDriverError
	require.ErrorAs(t, err, &unknown)
	assert.Equal(t, "no-such-driver", unknown.Name)
	assert.Contains(t, err.Error(), "unknown driver")
}

func TestNew_EmptyName(t *testing.T) {
	_, err := New("", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not specified")
}
