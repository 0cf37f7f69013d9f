// Package embedding provides text embedding backends.
//
// An Embedder maps text to a fixed-length vector and is treated as a
// deterministic oracle: identical input yields identical output. Remote
// backends (OpenAI, Gemini) wrap hosted models; the hashing embedder is a
// local, dependency-free stand-in for development and tests.
package embedding

import (
	"context"
	"errors"
	"fmt"
)

// ErrEmptyText is returned when there is nothing to embed.
var ErrEmptyText = errors.New("cannot embed empty text")

// ErrEmbedding wraps a backend failure while producing an embedding.
type ErrEmbedding struct {
	Backend string
	cause   error
}

// NewErrEmbedding creates a new ErrEmbedding for the given backend
// wrapping cause.
func NewErrEmbedding(backend string, cause error) *ErrEmbedding {
	return &ErrEmbedding{Backend: backend, cause: cause}
}

func (e *ErrEmbedding) Error() string {
	return fmt.Sprintf("embedding failed (%s): %v", e.Backend, e.cause)
}

func (e *ErrEmbedding) Unwrap() error { return e.cause }

// Embedder generates embedding vectors for text.
type Embedder interface {
	// Embed returns the embedding of text. It fails with ErrEmptyText for
	// empty or whitespace-only input and with ErrEmbedding on backend
	// failures.
	Embed(ctx context.Context, text string) ([]float32, error)

	// Dimension returns the fixed embedding dimensionality.
	Dimension() int
}
