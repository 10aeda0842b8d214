package core

import (
	"errors"
	"fmt"
)

// Domain errors - centralized error definitions
var (
	// Not found errors
	ErrNotFound       = errors.New("resource not found")
	ErrColumnNotFound = fmt.Errorf("%w: column", ErrNotFound)
	ErrFlagNotFound   = fmt.Errorf("%w: flag column", ErrNotFound)
	ErrTaskNotFound   = fmt.Errorf("%w: task template", ErrNotFound)

	// Dataset shape errors
	ErrEmptyDataset   = errors.New("dataset has no rows")
	ErrColumnMismatch = errors.New("column lengths do not match")

	// Tree parsing errors
	ErrUnknownAlgorithm = errors.New("unknown tree algorithm")
)

// Error constructors with context
func NewColumnNotFoundError(name string) error {
	return fmt.Errorf("%w: %q", ErrColumnNotFound, name)
}

func NewColumnMismatchError(name string, got, want int) error {
	return fmt.Errorf("%w: %q has %d values, expected %d", ErrColumnMismatch, name, got, want)
}

func NewUnknownAlgorithmError(name string) error {
	return fmt.Errorf("%w: %q", ErrUnknownAlgorithm, name)
}

// Error checking helpers
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound)
}

func IsDatasetError(err error) bool {
	return errors.Is(err, ErrEmptyDataset) ||
		errors.Is(err, ErrColumnMismatch)
}
