package sqlengine

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/leapstack-labs/leapstore/pkg/driver"
	"github.com/leapstack-labs/leapstore/pkg/engine"
	"github.com/leapstack-labs/leapstore/pkg/mapping"
)

// buildGet renders the single-row fetch by identifier.
func buildGet(drv driver.Driver, em *mapping.EntityMapping) string {
	return fmt.Sprintf("SELECT %s FROM %s WHERE %s = %s",
		columnList(drv, em), drv.QuoteIdent(em.Table),
		drv.QuoteIdent(em.ID.Column), drv.Placeholder(1))
}

// buildSelect renders an entity query.
func buildSelect(drv driver.Driver, em *mapping.EntityMapping, q engine.Query) (string, []any, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "SELECT %s FROM %s", columnList(drv, em), drv.QuoteIdent(em.Table))

	args, err := appendWhere(&b, drv, em, q.Conds)
	if err != nil {
		return "", nil, err
	}

	if len(q.Order) > 0 {
		b.WriteString(" ORDER BY ")
		for i, o := range q.Order {
			fm, ok := em.Field(o.Field)
			if !ok {
				return "", nil, fmt.Errorf("order by unknown field %s.%s", em.Type.Name(), o.Field)
			}
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(drv.QuoteIdent(fm.Column))
			if o.Desc {
				b.WriteString(" DESC")
			}
		}
	}
	if clause := drv.LimitOffset(q.Limit, q.Offset); clause != "" {
		b.WriteString(" ")
		b.WriteString(clause)
	}
	return b.String(), args, nil
}

// buildCount renders the counting variant of an entity query.
func buildCount(drv driver.Driver, em *mapping.EntityMapping, q engine.Query) (string, []any, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "SELECT COUNT(*) FROM %s", drv.QuoteIdent(em.Table))
	args, err := appendWhere(&b, drv, em, q.Conds)
	if err != nil {
		return "", nil, err
	}
	return b.String(), args, nil
}

// buildUpsert renders insert-or-update by primary key.
func buildUpsert(drv driver.Driver, em *mapping.EntityMapping, entity any) (string, []any, error) {
	rv := reflect.ValueOf(entity)
	for rv.Kind() == reflect.Pointer {
		rv = rv.Elem()
	}
	if rv.Type() != em.Type {
		return "", nil, fmt.Errorf("entity type %s does not match mapping %s", rv.Type(), em.Type.Name())
	}

	var b strings.Builder
	fmt.Fprintf(&b, "INSERT INTO %s (%s) VALUES (", drv.QuoteIdent(em.Table), columnList(drv, em))

	args := make([]any, 0, len(em.Fields))
	for i, fm := range em.Fields {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(drv.Placeholder(i + 1))
		args = append(args, rv.FieldByIndex(fm.Index).Interface())
	}
	fmt.Fprintf(&b, ") ON CONFLICT (%s) DO ", drv.QuoteIdent(em.ID.Column))

	var sets []string
	for _, fm := range em.Fields {
		if fm.IsID {
			continue
		}
		col := drv.QuoteIdent(fm.Column)
		sets = append(sets, fmt.Sprintf("%s = excluded.%s", col, col))
	}
	if len(sets) == 0 {
		b.WriteString("NOTHING")
	} else {
		b.WriteString("UPDATE SET ")
		b.WriteString(strings.Join(sets, ", "))
	}
	return b.String(), args, nil
}

// buildDeleteByID renders deletion by primary key.
func buildDeleteByID(drv driver.Driver, em *mapping.EntityMapping, entity any) (string, []any, error) {
	id, err := idValue(entity, em)
	if err != nil {
		return "", nil, err
	}
	query := fmt.Sprintf("DELETE FROM %s WHERE %s = %s",
		drv.QuoteIdent(em.Table), drv.QuoteIdent(em.ID.Column), drv.Placeholder(1))
	return query, []any{id}, nil
}

// appendWhere renders the WHERE clause for the given conditions and
// returns the bound arguments.
func appendWhere(b *strings.Builder, drv driver.Driver, em *mapping.EntityMapping, conds []engine.Cond) ([]any, error) {
	if len(conds) == 0 {
		return nil, nil
	}
	b.WriteString(" WHERE ")

	var args []any
	for i, c := range conds {
		fm, ok := em.Field(c.Field)
		if !ok {
			return nil, fmt.Errorf("condition on unknown field %s.%s", em.Type.Name(), c.Field)
		}
		if i > 0 {
			b.WriteString(" AND ")
		}

		if c.Op == engine.OpIn {
			vals := reflect.ValueOf(c.Value)
			if vals.Kind() != reflect.Slice && vals.Kind() != reflect.Array {
				return nil, fmt.Errorf("IN condition on %s.%s requires a slice value", em.Type.Name(), c.Field)
			}
			b.WriteString(drv.QuoteIdent(fm.Column))
			b.WriteString(" IN (")
			for j := 0; j < vals.Len(); j++ {
				if j > 0 {
					b.WriteString(", ")
				}
				b.WriteString(drv.Placeholder(len(args) + 1))
				args = append(args, vals.Index(j).Interface())
			}
			b.WriteString(")")
			continue
		}

		fmt.Fprintf(b, "%s %s %s", drv.QuoteIdent(fm.Column), c.Op, drv.Placeholder(len(args)+1))
		args = append(args, c.Value)
	}
	return args, nil
}

// columnList renders the quoted, comma-separated column list in field
// declaration order.
func columnList(drv driver.Driver, em *mapping.EntityMapping) string {
	cols := make([]string, len(em.Fields))
	for i, fm := range em.Fields {
		cols[i] = drv.QuoteIdent(fm.Column)
	}
	return strings.Join(cols, ", ")
}
