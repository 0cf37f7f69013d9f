// Package extract provides text extraction from uploaded document bytes.
package extract

import (
	"context"
	"fmt"
)

// ErrExtraction wraps a failure to extract text from document bytes,
// typically because the bytes are not a well-formed document.
type ErrExtraction struct {
	cause error
}

// NewErrExtraction creates a new ErrExtraction wrapping cause.
func NewErrExtraction(cause error) *ErrExtraction {
	return &ErrExtraction{cause: cause}
}

func (e *ErrExtraction) Error() string {
	return fmt.Sprintf("text extraction failed: %v", e.cause)
}

func (e *ErrExtraction) Unwrap() error { return e.cause }

// Extractor turns raw document bytes into plain text.
type Extractor interface {
	// Extract returns the text content of data. It fails with
	// ErrExtraction if data is not a well-formed document.
	Extract(ctx context.Context, data []byte) (string, error)
}

// Func adapts a plain function to the Extractor interface.
type Func func(ctx context.Context, data []byte) (string, error)

// Extract implements the Extractor interface.
func (f Func) Extract(ctx context.Context, data []byte) (string, error) {
	return f(ctx, data)
}
