// Package record provides durable storage of resume vector records.
//
// A record pairs an uploaded resume's embedding vector with its owner and
// display metadata. The package defines the Store contract plus an in-memory
// and a Postgres/pgvector implementation. Vector dimensionality is enforced
// at this boundary: a vector of the wrong length is rejected, never stored.
package record

import (
	"context"
	"errors"
	"fmt"
	"time"
)

var (
	// ErrNotFound is returned when no record exists for an id.
	ErrNotFound = errors.New("record not found")

	// ErrDuplicateID is returned when a record id is already taken.
	ErrDuplicateID = errors.New("duplicate record id")

	// ErrNotOwner is returned when a delete is attempted by a principal
	// that does not own the record.
	ErrNotOwner = errors.New("not the record owner")
)

// ErrDimensionMismatch indicates a vector of the wrong dimensionality at the
// store boundary.
type ErrDimensionMismatch struct {
	Expected int
	Actual   int
}

func (e *ErrDimensionMismatch) Error() string {
	return fmt.Sprintf("dimension mismatch: expected %d, got %d", e.Expected, e.Actual)
}

// Record is one stored resume vector.
type Record struct {
	// ID is the opaque unique identifier, generated at creation.
	ID string

	// OwnerID identifies the principal who uploaded the source document.
	OwnerID string

	// Vector is the embedding of the extracted resume text.
	Vector []float32

	// SourceName is the original filename, for display.
	SourceName string

	// SourceLocation points at the raw bytes in object storage.
	SourceLocation string

	// CreatedAt is set once at creation.
	CreatedAt time.Time
}

// Clone returns a deep copy of the record.
func (r *Record) Clone() *Record {
	if r == nil {
		return nil
	}
	c := *r
	c.Vector = make([]float32, len(r.Vector))
	copy(c.Vector, r.Vector)
	return &c
}

// Store is durable, queryable storage of records keyed by id with a
// secondary lookup by owner.
//
// Implementations must be safe for concurrent use. Reads may run
// concurrently; mutations are mutually exclusive with each other.
type Store interface {
	// Put inserts a new record. It fails with ErrDuplicateID if the id
	// exists and with ErrDimensionMismatch if the vector has the wrong
	// dimensionality.
	Put(ctx context.Context, r *Record) error

	// Get returns the record for id or ErrNotFound.
	Get(ctx context.Context, id string) (*Record, error)

	// Delete removes the record for id. It fails with ErrNotFound if no
	// record exists and with ErrNotOwner if ownerID does not match the
	// stored owner.
	Delete(ctx context.Context, id, ownerID string) error

	// ListByOwner returns all records for the owner in insertion order.
	ListByOwner(ctx context.Context, ownerID string) ([]*Record, error)

	// Hydrate batch-fetches records. Ids with no matching record are
	// silently omitted; callers must check the result count.
	Hydrate(ctx context.Context, ids []string) ([]*Record, error)

	// ForEach visits every record in insertion order. The similarity
	// index is rebuilt at startup by replaying the store through it.
	ForEach(ctx context.Context, fn func(*Record) error) error

	// Len returns the number of stored records.
	Len(ctx context.Context) (int, error)
}
