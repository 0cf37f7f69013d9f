// Package blobstore provides object storage for raw uploaded resume bytes.
//
// The vector core never reads the raw bytes back; it only needs to put them
// somewhere durable at ingestion, reference that place in the record's
// source location, and clean up on delete. Implementations exist for S3,
// MinIO (S3-compatible) and in-memory (tests).
package blobstore

import (
	"context"
	"errors"
	"io"
)

// ErrNotFound is returned when a blob does not exist.
//
// Implementations should return an error that satisfies
// `errors.Is(err, ErrNotFound)`.
var ErrNotFound = errors.New("blob not found")

// Store is an abstraction for storing immutable uploaded documents.
type Store interface {
	// Put writes a blob and returns its stable location (a URL or URI
	// suitable for a record's source location).
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) (string, error)

	// Delete removes a blob. Deleting an absent blob is not an error.
	Delete(ctx context.Context, key string) error
}
