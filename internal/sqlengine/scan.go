package sqlengine

import (
	"database/sql"
	"fmt"
	"reflect"

	"github.com/leapstack-labs/leapstore/pkg/engine"
	"github.com/leapstack-labs/leapstore/pkg/mapping"
)

// cursor adapts sql.Rows to the engine.Cursor contract, decoding rows
// into mapped entities.
type cursor struct {
	rows *sql.Rows
	em   *mapping.EntityMapping
}

func (c *cursor) Next() bool { return c.rows.Next() }

// Scan decodes the current row into entity, which must be a pointer
// to the cursor's entity type.
func (c *cursor) Scan(entity any) error {
	ptrs, err := fieldPtrs(entity, c.em)
	if err != nil {
		return err
	}
	if err := c.rows.Scan(ptrs...); err != nil {
		return fmt.Errorf("failed to scan %s row: %w", c.em.Table, err)
	}
	return nil
}

func (c *cursor) Err() error   { return c.rows.Err() }
func (c *cursor) Close() error { return c.rows.Close() }

// fieldPtrs returns scan destinations for every mapped field of
// entity, in column order.
func fieldPtrs(entity any, em *mapping.EntityMapping) ([]any, error) {
	rv := reflect.ValueOf(entity)
	if rv.Kind() != reflect.Pointer || rv.IsNil() {
		return nil, fmt.Errorf("scan target must be a non-nil pointer to %s", em.Type.Name())
	}
	rv = rv.Elem()
	if rv.Type() != em.Type {
		return nil, fmt.Errorf("scan target type %s does not match mapping %s", rv.Type(), em.Type.Name())
	}

	ptrs := make([]any, len(em.Fields))
	for i, fm := range em.Fields {
		ptrs[i] = rv.FieldByIndex(fm.Index).Addr().Interface()
	}
	return ptrs, nil
}

// idValue extracts the identifier field value and rejects zero
// identifiers, which cannot address a row.
func idValue(entity any, em *mapping.EntityMapping) (any, error) {
	rv := reflect.ValueOf(entity)
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return nil, fmt.Errorf("nil %s entity", em.Type.Name())
		}
		rv = rv.Elem()
	}
	if rv.Type() != em.Type {
		return nil, fmt.Errorf("entity type %s does not match mapping %s", rv.Type(), em.Type.Name())
	}

	idField := rv.FieldByIndex(em.ID.Index)
	if idField.IsZero() {
		return nil, fmt.Errorf("entity %s has a zero identifier", em.Type.Name())
	}
	return idField.Interface(), nil
}

// Ensure cursor implements the engine.Cursor interface
var _ engine.Cursor = (*cursor)(nil)
