// internal/booking/errors.go
package booking

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned by stores when a court, format, occupancy or
// suggestion does not exist.
var ErrNotFound = errors.New("not found")

// ValidationError reports malformed input. It is recovered at the API
// boundary and never reaches the storage layer.
type ValidationError struct {
	Field  string
	Reason string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s %s", e.Field, e.Reason)
}

// ConflictError reports that admitting the candidate window would exceed
// the unit's capacity, either at probe time or because a competing
// admission committed first. It is always user-visible and distinct from
// server failures; callers should re-query slots and retry with a
// different window.
type ConflictError struct {
	CourtID int64
	Window  TimeWindow
}

func (e ConflictError) Error() string {
	return fmt.Sprintf("court %d is no longer available for %s", e.CourtID, e.Window)
}

// IsConflict reports whether err is (or wraps) a ConflictError.
func IsConflict(err error) bool {
	var conflict ConflictError
	return errors.As(err, &conflict)
}

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var invalid ValidationError
	return errors.As(err, &invalid)
}
