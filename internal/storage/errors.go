package storage

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned when a referenced record id does not exist.
var ErrNotFound = errors.New("record not found")

// ErrDuplicateEvent is returned when an import would create a second event
// with the same (user, source, externalId) triple. Sync callers log and skip.
var ErrDuplicateEvent = errors.New("event already imported")

// ValidationError reports malformed or missing required input.
// Handlers map it to HTTP 400.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}
