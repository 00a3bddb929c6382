// Package store provides persistent backends for the forecast dataset.
package store

import "fmt"

// ReadError wraps a failure to load the existing dataset. The dataset being
// absent is not a ReadError; it is an empty first-run store.
type ReadError struct {
	Target string
	Err    error
}

func (e *ReadError) Error() string {
	return fmt.Sprintf("reading store %s: %v", e.Target, e.Err)
}

func (e *ReadError) Unwrap() error { return e.Err }

// WriteError wraps a failure to persist the dataset. A WriteError guarantees
// the previously stored content was not modified.
type WriteError struct {
	Target string
	Err    error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("writing store %s: %v", e.Target, e.Err)
}

func (e *WriteError) Unwrap() error { return e.Err }
