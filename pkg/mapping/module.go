// Package mapping builds the entity-mapping configuration that drives
// the persistence engine: which struct types are persisted, in which
// tables, and how fields correspond to columns.
//
// Mappings are harvested from a Module by convention (exported fields,
// snake_case columns, `db` struct tags) and merged with the module's
// explicit Mapping declarations, which win per field.
package mapping

// Module designates the code unit scanned for entity mappings. The
// first module registered with a configuration fixes the mapping set
// for the process lifetime.
type Module interface {
	// Name identifies the module. Two modules with different names
	// cannot be registered against the same configuration.
	Name() string

	// Entities returns one prototype value (struct or pointer to
	// struct) per persisted entity type.
	Entities() []any

	// Mappings returns explicit mapping declarations overriding the
	// convention-based results. May be empty.
	Mappings() []Mapping
}

// Mapping is an explicit mapping declaration for a single entity type.
// Zero fields leave the convention-based result untouched.
type Mapping struct {
	// Entity is a prototype of the struct this mapping applies to.
	Entity any

	// Table overrides the table name.
	Table string

	// ID names the identifier field, overriding the `ID` convention.
	ID string

	// Columns overrides column names, keyed by struct field name.
	Columns map[string]string

	// Ignore lists struct fields excluded from persistence.
	Ignore []string
}
