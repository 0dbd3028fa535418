package repository

import (
	"errors"
	"fmt"
)

// Sentinel kinds for Query Layer errors.
var (
	// ErrQuery is the single fault kind for failed statements: connectivity,
	// syntax and constraint errors alike.
	ErrQuery             = errors.New("query execution fault")
	ErrUnsupportedDriver = errors.New("unsupported database driver")
	ErrNotConfigured     = errors.New("database not configured")
)

// QueryError records which operation faulted. errors.Is(err, ErrQuery) holds
// for every QueryError.
type QueryError struct {
	Op  string
	Err error
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Op, ErrQuery, e.Err)
}

// Unwrap exposes both the fault kind and the driver error.
func (e *QueryError) Unwrap() []error {
	return []error{ErrQuery, e.Err}
}
