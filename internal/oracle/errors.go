package oracle

import "fmt"

// UpstreamError reports a single adapter's failed upstream call: a
// non-success status, a structurally unexpected payload, or an entity
// the upstream does not know about. It always carries the provider name.
type UpstreamError struct {
	Provider string
	Err      error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("upstream %s: %v", e.Provider, e.Err)
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

// upstreamErrf builds an UpstreamError from a format string.
func upstreamErrf(provider, format string, args ...any) *UpstreamError {
	return &UpstreamError{Provider: provider, Err: fmt.Errorf(format, args...)}
}
