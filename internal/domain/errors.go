package domain

import "fmt"

// LoadError indicates that one location's source file could not be fetched or parsed.
type LoadError struct {
	Location Location
	Err      error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load %s (%s): %v", e.Location.Code, e.Location.File, e.Err)
}

// Unwrap allows errors.Is / errors.As to reach the cause.
func (e *LoadError) Unwrap() error {
	return e.Err
}
