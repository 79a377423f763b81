package queries

import (
	"errors"
	"fmt"

	"github.com/jward/treehugger/internal/lang"
)

var (
	// ErrMissingQuery matches a *MissingQueryError.
	ErrMissingQuery = errors.New("missing query")
	// ErrMissingVendorQuery matches a *MissingVendorQueryError.
	ErrMissingVendorQuery = errors.New("missing vendor query")
	// ErrCachePoisoned is returned by every lookup after a compile panicked.
	ErrCachePoisoned = errors.New("query cache poisoned")
)

// MissingQueryError reports that no query of Kind is registered for
// Language.
type MissingQueryError struct {
	Language lang.Language
	Kind     Kind
}

func (e *MissingQueryError) Error() string {
	return fmt.Sprintf("no %s query registered for %s", e.Kind, e.Language)
}

func (e *MissingQueryError) Is(target error) bool { return target == ErrMissingQuery }

// MissingVendorQueryError reports an absent definitions query, either the
// language's own or a base it inherits from.
type MissingVendorQueryError struct {
	Name string
}

func (e *MissingVendorQueryError) Error() string {
	return fmt.Sprintf("no definitions query found for %q", e.Name)
}

func (e *MissingVendorQueryError) Is(target error) bool { return target == ErrMissingVendorQuery }

// QueryError wraps a tree-sitter compile failure.
type QueryError struct {
	Language lang.Language
	Kind     Kind
	Err      error
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("compiling %s query for %s: %v", e.Kind, e.Language, e.Err)
}

func (e *QueryError) Unwrap() error { return e.Err }

// IsConfigError reports whether err is one of the configuration-class
// failures that must be surfaced to the caller rather than degraded.
func IsConfigError(err error) bool {
	var qe *QueryError
	return errors.As(err, &qe) ||
		errors.Is(err, ErrMissingVendorQuery) ||
		errors.Is(err, ErrCachePoisoned)
}
