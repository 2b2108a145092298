package uow

import (
	"errors"
	"fmt"
)

// ErrNoTransaction is returned by Commit, Rollback, and SaveChanges
// when no transaction is open. It signals a caller programming error
// and is never retried internally.
var ErrNoTransaction = errors.New("no open transaction")

// ErrClosed is returned by operations on a closed context.
var ErrClosed = errors.New("data context is closed")

// ErrNoSession is returned by reads on a context whose session was
// released by a failed Begin. The next successful Begin opens a fresh
// session and recovers the context.
var ErrNoSession = errors.New("no open session")

// ConfigError reports a failure to build the shared mapping
// configuration or session factory for a module.
type ConfigError struct {
	Module string
	Err    error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("configuration for module %s: %v", e.Module, e.Err)
}

func (e *ConfigError) Unwrap() error { return e.Err }
