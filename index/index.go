package index

import (
	"errors"
	"fmt"
)

// ErrInvalidK is returned when k is not positive.
var ErrInvalidK = errors.New("k must be positive")

// ErrDimensionMismatch indicates a vector/query dimensionality mismatch.
type ErrDimensionMismatch struct {
	Expected int // Expected dimensions
	Actual   int // Actual dimensions
}

// Error returns the error message for dimension mismatch.
func (e *ErrDimensionMismatch) Error() string {
	return fmt.Sprintf("dimension mismatch: expected %d, got %d", e.Expected, e.Actual)
}

// ErrDuplicateID indicates an insert under an id that is already present.
type ErrDuplicateID struct {
	ID string
}

func (e *ErrDuplicateID) Error() string {
	return fmt.Sprintf("duplicate id: %s", e.ID)
}

// ErrNotFound indicates an operation on an id that is not in the index.
type ErrNotFound struct {
	ID string
}

func (e *ErrNotFound) Error() string {
	return fmt.Sprintf("id not found: %s", e.ID)
}

// SearchResult represents a single search hit.
type SearchResult struct {
	// ID is the identifier of the matched vector.
	ID string

	// Distance is the cosine distance between the query and the match
	// (lower = more similar).
	Distance float32
}

// SearchOptions controls the execution of a search query.
type SearchOptions struct {
	// Owners restricts candidates to vectors inserted under one of the
	// given owners. Nil means no restriction. The restriction is applied
	// before truncation to k, never after.
	Owners []string
}
