// Package search provides similarity search over indexed resumes, either
// from free text or from an already stored resume.
package search

import (
	"context"
	"errors"
	"fmt"

	"github.com/hupe1980/resumevec/embedding"
	"github.com/hupe1980/resumevec/index"
	"github.com/hupe1980/resumevec/record"
)

var (
	// ErrInvalidK is returned when a search is requested with k < 1.
	ErrInvalidK = errors.New("k must be >= 1")

	// ErrNoEmbedding is returned when a stored resume unexpectedly has
	// no embedding vector and cannot be used as a query.
	ErrNoEmbedding = errors.New("record has no embedding")
)

// Index is the query surface of the similarity index needed by the
// search service.
type Index interface {
	Search(ctx context.Context, q []float32, k int, opts *index.SearchOptions) ([]index.SearchResult, error)
}

// Match is a single search hit hydrated with its record.
type Match struct {
	// Record is the matched resume record.
	Record *record.Record

	// Distance is the cosine distance between the query and the match
	// (lower = more similar).
	Distance float32
}

// Options control the scope of a search.
type Options struct {
	// OwnerID restricts results to resumes of one owner. Empty searches
	// across all owners.
	OwnerID string

	// IncludeSelf keeps the source resume in BySimilar results instead
	// of excluding it. Ignored by ByText.
	IncludeSelf bool
}

// Service answers similarity queries by embedding the query, running it
// against the index and hydrating the hits from the record store.
type Service struct {
	embedder embedding.Embedder
	store    record.Store
	index    Index
}

// New creates a new search service.
func New(embedder embedding.Embedder, store record.Store, index Index) *Service {
	return &Service{
		embedder: embedder,
		store:    store,
		index:    index,
	}
}

// ByText embeds the query text and returns the up to k nearest resumes.
func (s *Service) ByText(ctx context.Context, text string, k int, optFns ...func(o *Options)) ([]Match, error) {
	if k < 1 {
		return nil, ErrInvalidK
	}

	opts := Options{}

	for _, fn := range optFns {
		fn(&opts)
	}

	vector, err := s.embedder.Embed(ctx, text)
	if err != nil {
		return nil, err
	}

	return s.query(ctx, vector, k, opts, "")
}

// BySimilar returns the up to k resumes nearest to the stored resume id.
// The source resume itself is excluded from the results.
func (s *Service) BySimilar(ctx context.Context, id string, k int, optFns ...func(o *Options)) ([]Match, error) {
	if k < 1 {
		return nil, ErrInvalidK
	}

	opts := Options{}

	for _, fn := range optFns {
		fn(&opts)
	}

	rec, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if len(rec.Vector) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoEmbedding, id)
	}

	excludeID := rec.ID
	if opts.IncludeSelf {
		excludeID = ""
	}

	return s.query(ctx, rec.Vector, k, opts, excludeID)
}

// query runs the index search and hydrates the results. A non-empty
// excludeID is filtered out of the hits; one extra candidate is requested
// to keep k results available after the filter.
func (s *Service) query(ctx context.Context, vector []float32, k int, opts Options, excludeID string) ([]Match, error) {
	var searchOpts *index.SearchOptions
	if opts.OwnerID != "" {
		searchOpts = &index.SearchOptions{Owners: []string{opts.OwnerID}}
	}

	want := k
	if excludeID != "" {
		want = k + 1
	}

	hits, err := s.index.Search(ctx, vector, want, searchOpts)
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(hits))
	distances := make(map[string]float32, len(hits))

	for _, hit := range hits {
		if hit.ID == excludeID {
			continue
		}

		ids = append(ids, hit.ID)
		distances[hit.ID] = hit.Distance
	}

	if len(ids) > k {
		ids = ids[:k]
	}

	// Hydrate silently omits ids with no record; a hit can go stale when a
	// delete lands between the index read and the store read. Stale hits
	// are dropped, not errors.
	records, err := s.store.Hydrate(ctx, ids)
	if err != nil {
		return nil, err
	}

	matches := make([]Match, 0, len(records))
	for _, rec := range records {
		matches = append(matches, Match{
			Record:   rec,
			Distance: distances[rec.ID],
		})
	}

	return matches, nil
}
