package resolver

import (
	"fmt"
	"strings"

	"chain-oracle/internal/domain"
)

// ValidationError reports malformed input: a bad date format, an
// unsupported network, an empty symbol. It always fails before any I/O.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// ResolutionError reports that every adapter in a category's chain
// failed. It names the category and each attempted provider so the
// caller can see exactly what was tried.
type ResolutionError struct {
	Category  domain.Category
	Attempted []string
	Errs      []error
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("resolve %s: all providers failed (tried %s)",
		e.Category, strings.Join(e.Attempted, ", "))
}

// Unwrap exposes the individual adapter failures to errors.Is/As.
func (e *ResolutionError) Unwrap() []error {
	return e.Errs
}

// TimeoutError reports that the caller's deadline expired mid-resolution.
// The cache is never written on this path.
type TimeoutError struct {
	Category domain.Category
	Err      error
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("resolve %s: deadline exceeded", e.Category)
}

func (e *TimeoutError) Unwrap() error {
	return e.Err
}
