package embedding

import (
	"context"
	"errors"
	"strings"

	openai "github.com/sashabaranov/go-openai"
	"golang.org/x/time/rate"
)

// Compile-time check to ensure OpenAIEmbedder satisfies the Embedder interface.
var _ Embedder = (*OpenAIEmbedder)(nil)

// OpenAIOptions contains configuration options for the OpenAI embedder.
type OpenAIOptions struct {
	// Model is the embedding model name.
	Model string

	// Dimension is the expected embedding dimensionality. For models that
	// support shortening (text-embedding-3-*), it is also requested from
	// the API.
	Dimension int

	// RequestsPerSecond rate-limits calls to the API. 0 disables limiting.
	RequestsPerSecond float64
}

// DefaultOpenAIOptions contains the default configuration options for the
// OpenAI embedder.
var DefaultOpenAIOptions = OpenAIOptions{
	Model:             string(openai.SmallEmbedding3),
	Dimension:         384,
	RequestsPerSecond: 10,
}

// OpenAIEmbedder produces embeddings via the OpenAI API.
type OpenAIEmbedder struct {
	client  *openai.Client
	limiter *rate.Limiter
	opts    OpenAIOptions
}

// NewOpenAIEmbedder creates an OpenAI-backed embedder.
func NewOpenAIEmbedder(apiKey string, optFns ...func(o *OpenAIOptions)) *OpenAIEmbedder {
	opts := DefaultOpenAIOptions

	for _, fn := range optFns {
		fn(&opts)
	}

	var limiter *rate.Limiter
	if opts.RequestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), 1)
	}

	return &OpenAIEmbedder{
		client:  openai.NewClient(apiKey),
		limiter: limiter,
		opts:    opts,
	}
}

// Embed generates an embedding for a single text.
func (e *OpenAIEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyText
	}

	if e.limiter != nil {
		if err := e.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	resp, err := e.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Model:      openai.EmbeddingModel(e.opts.Model),
		Input:      []string{text},
		Dimensions: e.opts.Dimension,
	})
	if err != nil {
		return nil, &ErrEmbedding{Backend: "openai", cause: err}
	}

	if len(resp.Data) == 0 {
		return nil, &ErrEmbedding{Backend: "openai", cause: errors.New("no embedding data returned")}
	}

	vec := make([]float32, len(resp.Data[0].Embedding))
	copy(vec, resp.Data[0].Embedding)

	return vec, nil
}

// Dimension returns the embedding dimensionality.
func (e *OpenAIEmbedder) Dimension() int {
	return e.opts.Dimension
}
