// Package resumevec provides resume ingestion and semantic similarity
// search backed by an exact in-memory vector index.
//
// Uploaded resumes run through a validation, text extraction and embedding
// pipeline, are persisted in a record store and indexed for cosine
// similarity search. Search works from free query text or from an already
// stored resume.
//
// # Quick Start
//
//	ctx := context.Background()
//
//	embedder, _ := embedding.NewOpenAIEmbedder(apiKey)
//	store := record.NewMemoryStore(embedder.Dimension())
//
//	svc, _ := resumevec.New(embedder, extract.NewPDFExtractor(), store)
//
//	summary, _ := svc.Ingest(ctx, resumevec.IngestRequest{
//	    Content:  pdfBytes,
//	    Filename: "resume.pdf",
//	    OwnerID:  "u1",
//	})
//
//	matches, _ := svc.SearchByText(ctx, "golang distributed systems", 10)
//	similar, _ := svc.SearchBySimilar(ctx, summary.ID, 5)
package resumevec

import (
	"context"
	"io"
	"time"

	"github.com/hupe1980/resumevec/embedding"
	"github.com/hupe1980/resumevec/extract"
	"github.com/hupe1980/resumevec/index"
	"github.com/hupe1980/resumevec/pipeline"
	"github.com/hupe1980/resumevec/record"
	"github.com/hupe1980/resumevec/search"
)

// IngestRequest carries one uploaded document.
type IngestRequest = pipeline.IngestRequest

// Summary describes a successfully ingested resume.
type Summary = pipeline.Summary

// Match is a single search hit hydrated with its record.
type Match = search.Match

// Service is the resume search service facade. It owns the similarity
// index and coordinates the ingestion pipeline, the record store and the
// search service.
//
// All methods are safe for concurrent use. Searches never block behind
// ingestion; the index serves reads from immutable snapshots.
type Service struct {
	embedder  embedding.Embedder
	extractor extract.Extractor
	store     record.Store
	index     *index.Flat
	pipeline  *pipeline.Pipeline
	searcher  *search.Service
	opts      options
}

// New creates a new Service. The index dimensionality follows the
// embedder; the record store must be configured with the same dimension.
// Any records already present in the store are replayed into the index, so
// a Service over a durable store comes up searchable.
func New(embedder embedding.Embedder, extractor extract.Extractor, store record.Store, optFns ...Option) (*Service, error) {
	opts := applyOptions(optFns)

	idx, err := index.New(func(o *index.Options) {
		o.Dimension = embedder.Dimension()
	})
	if err != nil {
		return nil, translateError(err)
	}

	s := &Service{
		embedder:  embedder,
		extractor: extractor,
		store:     store,
		index:     idx,
		searcher:  search.New(embedder, store, idx),
		opts:      opts,
	}

	s.pipeline = pipeline.New(extractor, embedder, store, idx, func(o *pipeline.Options) {
		o.Logger = opts.logger.Logger
		o.Blobs = opts.blobs
		if opts.maxFileSize > 0 {
			o.MaxFileSize = opts.maxFileSize
		}
		if opts.newID != nil {
			o.NewID = opts.newID
		}
		if opts.now != nil {
			o.Now = opts.now
		}
	})

	if err := s.Rebuild(context.Background()); err != nil {
		return nil, err
	}

	return s, nil
}

// Ingest validates, extracts, embeds, stores and indexes one uploaded
// resume. On failure no partial resume remains queryable.
func (s *Service) Ingest(ctx context.Context, req IngestRequest) (*Summary, error) {
	start := time.Now()

	summary, err := s.pipeline.Ingest(ctx, req)
	err = translateError(err)

	s.opts.metricsCollector.RecordIngest(time.Since(start), err)

	id := ""
	if summary != nil {
		id = summary.ID
	}
	s.opts.logger.LogIngest(ctx, req.OwnerID, req.Filename, id, err)

	return summary, err
}

// Delete removes a resume from store and index after verifying the caller
// owns it. Fails with ErrNotFound for unknown ids and ErrNotOwner for
// foreign ones; a rejected delete changes nothing.
func (s *Service) Delete(ctx context.Context, id, ownerID string) error {
	start := time.Now()

	err := translateError(s.pipeline.Delete(ctx, id, ownerID))

	s.opts.metricsCollector.RecordDelete(time.Since(start), err)
	s.opts.logger.LogDelete(ctx, id, ownerID, err)

	return err
}

// Get returns the resume for id, restricted to its owner. Foreign ids fail
// with ErrNotOwner.
func (s *Service) Get(ctx context.Context, id, ownerID string) (*record.Record, error) {
	rec, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, translateError(err)
	}
	if rec.OwnerID != ownerID {
		return nil, translateError(record.ErrNotOwner)
	}
	return rec, nil
}

// ListByOwner returns all resumes of the owner in upload order.
func (s *Service) ListByOwner(ctx context.Context, ownerID string) ([]*record.Record, error) {
	records, err := s.store.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, translateError(err)
	}
	return records, nil
}

// SearchByText embeds the query text and returns the up to k nearest
// resumes by cosine distance, most similar first.
func (s *Service) SearchByText(ctx context.Context, text string, k int, optFns ...func(o *search.Options)) ([]Match, error) {
	start := time.Now()

	matches, err := s.searcher.ByText(ctx, text, k, optFns...)
	err = translateError(err)

	s.opts.metricsCollector.RecordSearch(k, time.Since(start), err)
	s.opts.logger.LogSearch(ctx, "text", k, len(matches), err)

	return matches, err
}

// SearchBySimilar returns the up to k resumes nearest to the stored
// resume id. The source resume is excluded unless
// search.Options.IncludeSelf is set.
func (s *Service) SearchBySimilar(ctx context.Context, id string, k int, optFns ...func(o *search.Options)) ([]Match, error) {
	start := time.Now()

	matches, err := s.searcher.BySimilar(ctx, id, k, optFns...)
	err = translateError(err)

	s.opts.metricsCollector.RecordSearch(k, time.Since(start), err)
	s.opts.logger.LogSearch(ctx, "similar", k, len(matches), err)

	return matches, err
}

// Rebuild discards the similarity index and replays every stored record
// into a fresh one. Used at startup over durable stores and as a repair
// path after an integrity violation.
func (s *Service) Rebuild(ctx context.Context) error {
	idx, err := index.New(func(o *index.Options) {
		o.Dimension = s.embedder.Dimension()
	})
	if err != nil {
		return translateError(err)
	}

	replayed := 0
	err = s.store.ForEach(ctx, func(rec *record.Record) error {
		if err := idx.Insert(ctx, rec.ID, rec.OwnerID, rec.Vector); err != nil {
			return err
		}
		replayed++
		return nil
	})

	s.opts.logger.LogRebuild(ctx, replayed, err)

	if err != nil {
		return translateError(err)
	}

	s.index.LoadFrom(idx)

	return nil
}

// Snapshot serializes every stored record to w. A snapshot restored via
// record.ReadSnapshot plus a Rebuild recreates the full service state.
func (s *Service) Snapshot(ctx context.Context, w io.Writer, compression record.CompressionType) error {
	count, err := s.store.Len(ctx)
	if err != nil {
		return translateError(err)
	}

	err = record.WriteSnapshot(ctx, w, s.store, compression)
	s.opts.logger.LogSnapshot(ctx, "writer", count, err)

	return translateError(err)
}

// Len returns the number of searchable resumes.
func (s *Service) Len() int {
	return s.index.Len()
}

// Close releases resources held by the service.
func (s *Service) Close() error {
	if closer, ok := s.store.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}
