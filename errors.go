package resumevec

import (
	"errors"
	"fmt"

	"github.com/hupe1980/resumevec/embedding"
	"github.com/hupe1980/resumevec/index"
	"github.com/hupe1980/resumevec/pipeline"
	"github.com/hupe1980/resumevec/record"
	"github.com/hupe1980/resumevec/search"
)

var (
	// ErrInvalidK is returned when k is not positive.
	ErrInvalidK = errors.New("k must be positive")

	// ErrNotFound is returned when no resume exists for the given id.
	ErrNotFound = errors.New("resume not found")

	// ErrNotOwner is returned when a caller tries to delete a resume
	// owned by someone else.
	ErrNotOwner = errors.New("not the owner of this resume")

	// ErrInvalidDocument is returned when an upload is rejected during
	// validation (wrong type, bad signature, too large).
	ErrInvalidDocument = errors.New("invalid document")

	// ErrEmptyContent is returned when a document yields no extractable
	// text.
	ErrEmptyContent = errors.New("document has no extractable text")

	// ErrDuplicateID is returned when a resume id already exists.
	ErrDuplicateID = errors.New("duplicate resume id")
)

// ErrDimensionMismatch indicates a vector/query dimensionality mismatch.
//
// The original underlying error (if any) can be accessed via errors.Unwrap.
type ErrDimensionMismatch struct {
	Expected int
	Actual   int
	cause    error
}

func (e *ErrDimensionMismatch) Error() string {
	return fmt.Sprintf("dimension mismatch: expected %d, got %d", e.Expected, e.Actual)
}

func (e *ErrDimensionMismatch) Unwrap() error { return e.cause }

// translateError maps internal package errors onto the unified sentinels of
// this package so callers only match against one error surface.
func translateError(err error) error {
	if err == nil {
		return nil
	}

	// Not found unification.
	if errors.Is(err, record.ErrNotFound) {
		return fmt.Errorf("%w: %w", ErrNotFound, err)
	}
	var inf *index.ErrNotFound
	if errors.As(err, &inf) {
		return fmt.Errorf("%w: %w", ErrNotFound, err)
	}

	// Ownership.
	if errors.Is(err, record.ErrNotOwner) {
		return fmt.Errorf("%w: %w", ErrNotOwner, err)
	}

	// Ingestion failures keep their stage context; the sentinel is added
	// alongside so errors.Is works against this package.
	if errors.Is(err, pipeline.ErrInvalidDocument) {
		return fmt.Errorf("%w: %w", ErrInvalidDocument, err)
	}
	if errors.Is(err, pipeline.ErrEmptyContent) || errors.Is(err, embedding.ErrEmptyText) {
		return fmt.Errorf("%w: %w", ErrEmptyContent, err)
	}

	// Duplicates.
	if errors.Is(err, record.ErrDuplicateID) {
		return fmt.Errorf("%w: %w", ErrDuplicateID, err)
	}
	var dup *index.ErrDuplicateID
	if errors.As(err, &dup) {
		return fmt.Errorf("%w: %w", ErrDuplicateID, err)
	}

	// Dimension and argument normalization.
	var rdm *record.ErrDimensionMismatch
	if errors.As(err, &rdm) {
		return &ErrDimensionMismatch{Expected: rdm.Expected, Actual: rdm.Actual, cause: err}
	}
	var idm *index.ErrDimensionMismatch
	if errors.As(err, &idm) {
		return &ErrDimensionMismatch{Expected: idm.Expected, Actual: idm.Actual, cause: err}
	}
	if errors.Is(err, search.ErrInvalidK) || errors.Is(err, index.ErrInvalidK) {
		return fmt.Errorf("%w: %w", ErrInvalidK, err)
	}

	return err
}
