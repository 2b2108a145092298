package mapping

import (
	"errors"
	"strings"
)

var errNilEntity = errors.New("nil entity prototype")

// Error reports an invalid module or mapping declaration.
type Error struct {
	Module string
	Entity string
	Reason string
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString("mapping")
	if e.Module != "" {
		b.WriteString(" module ")
		b.WriteString(e.Module)
	}
	if e.Entity != "" {
		b.WriteString(" entity ")
		b.WriteString(e.Entity)
	}
	b.WriteString(": ")
	b.WriteString(e.Reason)
	return b.String()
}
