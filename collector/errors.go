package collector

import (
	"errors"
	"fmt"
)

// Error taxonomy of the fetch / validate / normalize path. The orchestrator
// catches all of these per source; none of them aborts a run.
var (
	// ErrUnreachable is a network level fetch failure.
	ErrUnreachable = errors.New("source unreachable")

	// ErrTimeout is a fetch that exceeded its deadline.
	ErrTimeout = errors.New("fetch timed out")

	// ErrInvalidFormat is a payload that is neither recognizable RSS nor Atom.
	ErrInvalidFormat = errors.New("payload is not a recognizable RSS or Atom document")

	// ErrSkipEntry marks an entry lacking required fields. It is a deliberate
	// drop, not a failure.
	ErrSkipEntry = errors.New("entry lacks required fields")
)

// SourceError is a non-2xx HTTP response from the source.
type SourceError struct {
	StatusCode int
}

func (e *SourceError) Error() string {
	return fmt.Sprintf("source returned http status %d", e.StatusCode)
}
