package widget

import (
	"errors"
	"fmt"
)

var (
	ErrGeolocationUnavailable = errors.New("location services not available")
	ErrGeolocationDenied      = errors.New("location permission denied")
	// ErrSuperseded is returned by an Update whose result arrived after a newer
	// Update started. Nothing from it was applied.
	ErrSuperseded = errors.New("update superseded by a newer one")
)

// InvalidCoordinateInputError reports a coordinate text field that does not
// hold a finite number.
type InvalidCoordinateInputError struct {
	Field string
	Value string
}

func (e *InvalidCoordinateInputError) Error() string {
	return fmt.Sprintf("%s %q is not a valid number", e.Field, e.Value)
}
