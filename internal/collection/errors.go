package collection

import (
	"errors"
	"fmt"
)

var ErrNotInCollection = errors.New("manga is not in the collection")

// ValidationError rejects user input before anything is stored.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

// StorageError means the local write did not happen.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("failed to %s collection: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }
