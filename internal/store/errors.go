package store

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyPath is returned when a path is the empty string.
	ErrEmptyPath = errors.New("store: empty path")

	// ErrComputedPath is returned when a raw write targets a computed path.
	ErrComputedPath = errors.New("store: path is computed")

	// ErrPathExists is returned when a computed path collides with an existing
	// raw or computed path.
	ErrPathExists = errors.New("store: path already registered")

	// ErrNilGetter is returned when RegisterComputed is given no getter.
	ErrNilGetter = errors.New("store: nil getter")
)

// ComputationError reports a computed getter that returned an error or panicked.
type ComputationError struct {
	Path string
	Err  error
}

func (e *ComputationError) Error() string {
	return fmt.Sprintf("computing %q: %v", e.Path, e.Err)
}

func (e *ComputationError) Unwrap() error { return e.Err }

// PersistenceError reports a failed Save, Load or Clear call.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// ObserverError reports a subscriber callback that panicked.
type ObserverError struct {
	Path      string
	Recovered any
}

func (e *ObserverError) Error() string {
	return fmt.Sprintf("observer for %q panicked: %v", e.Path, e.Recovered)
}

// recoveredError turns a recovered panic value into an error.
func recoveredError(r any) error {
	if err, ok := r.(error); ok {
		return fmt.Errorf("panic: %w", err)
	}
	return fmt.Errorf("panic: %v", r)
}
