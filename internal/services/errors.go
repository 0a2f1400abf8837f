package services

import (
	"errors"
	"fmt"
)

// ErrResolutionRequired rejects ordinary Update/Delete calls against a
// record that is sitting in conflict. The conflict must be resolved
// explicitly before any other writer may touch the record; otherwise a
// third, unrelated write could silently bury the unresolved state.
var ErrResolutionRequired = errors.New("record has an unresolved conflict; resolution is required before further mutation")

// errStaleResolution aborts the resolution transaction without side
// effects; the service translates it into a StaleResolution result.
var errStaleResolution = errors.New("stale resolution")

// ValidationError rejects a malformed request before any mutation. No
// audit entry is written for rejected requests.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// IsValidationError reports whether err is a ValidationError.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
