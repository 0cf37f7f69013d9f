package embedding

import (
	"context"
	"hash/fnv"
	"strings"
	"unicode"

	"github.com/hupe1980/resumevec/distance"
)

// Compile-time check to ensure HashEmbedder satisfies the Embedder interface.
var _ Embedder = (*HashEmbedder)(nil)

// HashEmbedder is a local, deterministic bag-of-words embedder using feature
// hashing. Texts sharing vocabulary land close together under cosine
// distance, which is enough for development and tests; it is not a
// substitute for a trained model in production.
type HashEmbedder struct {
	dim int
}

// NewHashEmbedder creates a hashing embedder with the given dimensionality.
func NewHashEmbedder(dimension int) *HashEmbedder {
	return &HashEmbedder{dim: dimension}
}

// Embed generates an L2-normalized term-frequency vector for text.
func (e *HashEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyText
	}

	vec := make([]float32, e.dim)
	for _, token := range tokenize(text) {
		h := fnv.New32a()
		_, _ = h.Write([]byte(token))
		vec[h.Sum32()%uint32(e.dim)]++
	}

	// Tokenize can still come up empty (e.g. punctuation-only input);
	// normalization fails only in that case.
	if !distance.NormalizeL2InPlace(vec) {
		return nil, ErrEmptyText
	}

	return vec, nil
}

// Dimension returns the embedding dimensionality.
func (e *HashEmbedder) Dimension() int {
	return e.dim
}

func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
}
