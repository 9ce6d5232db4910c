package repository

import "errors"

var (
	// ErrNotFound is returned when a requested entity does not exist.
	ErrNotFound = errors.New("entity not found")

	// ErrStatusConflict is returned when a conditional status update finds
	// the record in a different status than expected.
	ErrStatusConflict = errors.New("status changed concurrently")
)
