package mapping

import (
	"reflect"
	"sort"
	"strings"
	"sync"
)

// FieldMapping maps one struct field to one storage column.
type FieldMapping struct {
	Field  string
	Column string
	Index  []int // reflect field index within the struct
	IsID   bool
}

// EntityMapping is the complete mapping for one entity type.
type EntityMapping struct {
	Type  reflect.Type // struct type, never a pointer
	Table string
	ID    *FieldMapping
	// Fields holds all persisted fields in declaration order,
	// identifier included.
	Fields []*FieldMapping

	byField  map[string]*FieldMapping
	byColumn map[string]*FieldMapping
}

// Field resolves a struct field name to its mapping.
func (em *EntityMapping) Field(name string) (*FieldMapping, bool) {
	fm, ok := em.byField[name]
	return fm, ok
}

// Columns returns the mapped column names in field declaration order.
func (em *EntityMapping) Columns() []string {
	cols := make([]string, len(em.Fields))
	for i, fm := range em.Fields {
		cols[i] = fm.Column
	}
	return cols
}

// Configuration is the assembled set of entity mappings for one
// module. It is built once, then read-only; lookups are safe for
// concurrent use.
type Configuration struct {
	mu      sync.RWMutex
	module  string
	byType  map[reflect.Type]*EntityMapping
	byTable map[string]*EntityMapping
}

// NewConfiguration returns an empty configuration. Creating one never
// fails; mappings arrive via RegisterModule.
func NewConfiguration() *Configuration {
	return &Configuration{
		byType:  make(map[reflect.Type]*EntityMapping),
		byTable: make(map[string]*EntityMapping),
	}
}

// ModuleName returns the name of the registered module, or "" if no
// module has been registered yet.
func (c *Configuration) ModuleName() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.module
}

// RegisterModule harvests convention-based mappings from the module's
// entities, merges the module's explicit mappings over them, and
// installs the result. Registering the same module again is a no-op;
// registering a different module is an error.
func (c *Configuration) RegisterModule(m Module) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.module != "" {
		if c.module == m.Name() {
			return nil
		}
		return &Error{Module: m.Name(), Reason: "configuration already bound to module " + c.module}
	}

	entities := m.Entities()
	if len(entities) == 0 {
		return &Error{Module: m.Name(), Reason: "module declares no entities"}
	}

	explicit := make(map[reflect.Type]Mapping)
	for _, em := range m.Mappings() {
		t, err := structType(em.Entity)
		if err != nil {
			return &Error{Module: m.Name(), Reason: "explicit mapping: " + err.Error()}
		}
		explicit[t] = em
	}

	byType := make(map[reflect.Type]*EntityMapping, len(entities))
	byTable := make(map[string]*EntityMapping, len(entities))

	for _, proto := range entities {
		t, err := structType(proto)
		if err != nil {
			return &Error{Module: m.Name(), Reason: err.Error()}
		}
		if _, dup := byType[t]; dup {
			return &Error{Module: m.Name(), Entity: t.Name(), Reason: "entity registered twice"}
		}

		em, err := harvest(t, explicit[t])
		if err != nil {
			return &Error{Module: m.Name(), Entity: t.Name(), Reason: err.Error()}
		}
		if prev, dup := byTable[em.Table]; dup {
			return &Error{Module: m.Name(), Entity: t.Name(),
				Reason: "table " + em.Table + " already mapped to " + prev.Type.Name()}
		}
		byType[t] = em
		byTable[em.Table] = em
	}

	for t := range explicit {
		if _, ok := byType[t]; !ok {
			return &Error{Module: m.Name(), Entity: t.Name(),
				Reason: "explicit mapping for type not listed in Entities"}
		}
	}

	c.module = m.Name()
	c.byType = byType
	c.byTable = byTable
	return nil
}

// Lookup resolves an entity value, pointer, or reflect-able prototype
// to its mapping.
func (c *Configuration) Lookup(entity any) (*EntityMapping, error) {
	t, err := structType(entity)
	if err != nil {
		return nil, &Error{Reason: err.Error()}
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	em, ok := c.byType[t]
	if !ok {
		return nil, &Error{Entity: t.Name(), Reason: "type is not mapped"}
	}
	return em, nil
}

// Entities returns all entity mappings, ordered by table name.
func (c *Configuration) Entities() []*EntityMapping {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]*EntityMapping, 0, len(c.byTable))
	for _, em := range c.byTable {
		out = append(out, em)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Table < out[j].Table })
	return out
}

// structType normalizes a prototype to its underlying struct type.
func structType(v any) (reflect.Type, error) {
	if v == nil {
		return nil, errNilEntity
	}
	t := reflect.TypeOf(v)
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return nil, &Error{Entity: t.String(), Reason: "entity must be a struct or pointer to struct"}
	}
	return t, nil
}

// harvest builds the mapping for one struct type from conventions,
// struct tags, and an optional explicit override.
func harvest(t reflect.Type, override Mapping) (*EntityMapping, error) {
	ignored := make(map[string]bool, len(override.Ignore))
	for _, f := range override.Ignore {
		ignored[f] = true
	}

	em := &EntityMapping{
		Type:     t,
		Table:    snakeCase(t.Name()),
		byField:  make(map[string]*FieldMapping),
		byColumn: make(map[string]*FieldMapping),
	}
	if override.Table != "" {
		em.Table = override.Table
	}

	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		if !sf.IsExported() || ignored[sf.Name] {
			continue
		}

		tag := sf.Tag.Get("db")
		if tag == "-" {
			continue
		}
		col, opts, _ := strings.Cut(tag, ",")
		if col == "" {
			col = snakeCase(sf.Name)
		}
		if c, ok := override.Columns[sf.Name]; ok {
			col = c
		}

		fm := &FieldMapping{
			Field:  sf.Name,
			Column: col,
			Index:  sf.Index,
		}
		switch {
		case override.ID != "":
			fm.IsID = sf.Name == override.ID
		case hasOpt(opts, "pk"):
			fm.IsID = true
		default:
			fm.IsID = sf.Name == "ID"
		}

		if prev, dup := em.byColumn[col]; dup {
			return nil, &Error{Entity: t.Name(),
				Reason: "column " + col + " mapped by both " + prev.Field + " and " + sf.Name}
		}
		if fm.IsID {
			if em.ID != nil {
				return nil, &Error{Entity: t.Name(),
					Reason: "multiple identifier fields: " + em.ID.Field + " and " + sf.Name}
			}
			em.ID = fm
		}
		em.Fields = append(em.Fields, fm)
		em.byField[sf.Name] = fm
		em.byColumn[col] = fm
	}

	if em.ID == nil {
		return nil, &Error{Entity: t.Name(), Reason: "no identifier field (expected ID, a `db:\",pk\"` tag, or an explicit mapping)"}
	}
	if override.ID != "" {
		if _, ok := em.byField[override.ID]; !ok {
			return nil, &Error{Entity: t.Name(), Reason: "explicit identifier field " + override.ID + " not found"}
		}
	}
	for f := range override.Columns {
		if _, ok := em.byField[f]; !ok && !ignored[f] {
			return nil, &Error{Entity: t.Name(), Reason: "explicit column override for unknown field " + f}
		}
	}
	return em, nil
}

func hasOpt(opts, want string) bool {
	for opts != "" {
		var o string
		o, opts, _ = strings.Cut(opts, ",")
		if o == want {
			return true
		}
	}
	return false
}

// snakeCase converts CamelCase names to snake_case, keeping acronym
// runs intact (UserID -> user_id, HTTPCode -> http_code).
func snakeCase(s string) string {
	var b strings.Builder
	runes := []rune(s)
	for i, r := range runes {
		if r >= 'A' && r <= 'Z' {
			prevLower := i > 0 && isLower(runes[i-1])
			nextLower := i+1 < len(runes) && isLower(runes[i+1])
			if i > 0 && (prevLower || nextLower) {
				b.WriteByte('_')
			}
			r += 'a' - 'A'
		}
		b.WriteRune(r)
	}
	return b.String()
}

func isLower(r rune) bool { return r >= 'a' && r <= 'z' }
