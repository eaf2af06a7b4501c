package service

import (
	"errors"
	"fmt"

	"todo-keeper/internal/model"
)

var (
	// ErrNotFound is returned when an operation references an unknown task id.
	ErrNotFound = errors.New("task not found")
	// ErrEmptyText marks an attempt to create a task without text.
	ErrEmptyText = errors.New("task text is empty")
	// ErrInvalidCategory marks a category outside Work and Travel.
	ErrInvalidCategory = model.ErrInvalidCategory
)

// ValidationError reports rejected input.
type ValidationError struct {
	Field string
	Err   error
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s", e.Field, e.Err)
	}
	return e.Err.Error()
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// PersistenceError wraps a failed read, write or clear of the key-value store.
// The in-memory state is unchanged when it is returned.
type PersistenceError struct {
	Op  string
	Key string
	Err error
}

func (e *PersistenceError) Error() string {
	if e.Key != "" {
		return fmt.Sprintf("persistence %s %s: %v", e.Op, e.Key, e.Err)
	}
	return fmt.Sprintf("persistence %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// IsPersistence reports whether err carries a PersistenceError.
func IsPersistence(err error) bool {
	var pe *PersistenceError
	return errors.As(err, &pe)
}

// ParseCategory is model.ParseCategory with failures reported as a ValidationError.
func ParseCategory(raw string) (model.Category, error) {
	category, err := model.ParseCategory(raw)
	if err != nil {
		return "", &ValidationError{Field: "category", Err: err}
	}
	return category, nil
}
