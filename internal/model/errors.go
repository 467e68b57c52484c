package model

import (
	"errors"
	"fmt"
)

var (
	ErrValidation    = errors.New("invalid task")
	ErrNotFound      = errors.New("task not found")
	ErrStorage       = errors.New("storage unavailable")
	ErrDataIntegrity = errors.New("stored task is corrupt")
)

// ValidationError reports malformed task input.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// NotFoundError is returned when an update targets an unknown id.
type NotFoundError struct {
	ID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("task %s not found", e.ID)
}

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// StorageError wraps a failure of the underlying database.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: storage unavailable", e.Op)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

func (e *StorageError) Is(target error) bool { return target == ErrStorage }

// DataIntegrityError reports a stored record that violates the schema rules on read.
type DataIntegrityError struct {
	ID     string
	Reason string
}

func (e *DataIntegrityError) Error() string {
	return fmt.Sprintf("task %s: %s", e.ID, e.Reason)
}

func (e *DataIntegrityError) Is(target error) bool { return target == ErrDataIntegrity }
