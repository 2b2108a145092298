package engine

// Op is a comparison operator in a query condition.
type Op string

// Supported condition operators.
const (
	OpEq   Op = "="
	OpNe   Op = "<>"
	OpLt   Op = "<"
	OpLe   Op = "<="
	OpGt   Op = ">"
	OpGe   Op = ">="
	OpLike Op = "LIKE"
	OpIn   Op = "IN"
)

// Cond is a single field comparison. Field names the entity struct
// field, not the storage column; the engine resolves the column via
// the mapping configuration.
type Cond struct {
	Field string
	Op    Op
	Value any
}

// Ordering sorts results by an entity field.
type Ordering struct {
	Field string
	Desc  bool
}

// Query is a declarative entity query. The zero value selects all
// rows of the prototype's table.
type Query struct {
	Conds  []Cond
	Order  []Ordering
	Limit  int
	Offset int
}
