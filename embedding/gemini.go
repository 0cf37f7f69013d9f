package embedding

import (
	"context"
	"errors"
	"strings"

	"google.golang.org/genai"
)

// Compile-time check to ensure GeminiEmbedder satisfies the Embedder interface.
var _ Embedder = (*GeminiEmbedder)(nil)

// GeminiOptions contains configuration options for the Gemini embedder.
type GeminiOptions struct {
	// Model is the embedding model name.
	Model string

	// Dimension is the requested output dimensionality.
	Dimension int
}

// DefaultGeminiOptions contains the default configuration options for the
// Gemini embedder.
var DefaultGeminiOptions = GeminiOptions{
	Model:     "gemini-embedding-001",
	Dimension: 384,
}

// GeminiEmbedder produces embeddings via the Gemini API.
type GeminiEmbedder struct {
	client *genai.Client
	opts   GeminiOptions
}

// NewGeminiEmbedder creates a Gemini-backed embedder.
func NewGeminiEmbedder(ctx context.Context, apiKey string, optFns ...func(o *GeminiOptions)) (*GeminiEmbedder, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, errors.New("gemini api key is required")
	}

	opts := DefaultGeminiOptions

	for _, fn := range optFns {
		fn(&opts)
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, &ErrEmbedding{Backend: "gemini", cause: err}
	}

	return &GeminiEmbedder{client: client, opts: opts}, nil
}

// Embed generates an embedding for a single text.
func (e *GeminiEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyText
	}

	dim := int32(e.opts.Dimension)
	resp, err := e.client.Models.EmbedContent(ctx, e.opts.Model, genai.Text(text), &genai.EmbedContentConfig{
		OutputDimensionality: &dim,
	})
	if err != nil {
		return nil, &ErrEmbedding{Backend: "gemini", cause: err}
	}

	if len(resp.Embeddings) == 0 || len(resp.Embeddings[0].Values) == 0 {
		return nil, &ErrEmbedding{Backend: "gemini", cause: errors.New("no embedding data returned")}
	}

	vec := make([]float32, len(resp.Embeddings[0].Values))
	copy(vec, resp.Embeddings[0].Values)

	return vec, nil
}

// Dimension returns the embedding dimensionality.
func (e *GeminiEmbedder) Dimension() int {
	return e.opts.Dimension
}
