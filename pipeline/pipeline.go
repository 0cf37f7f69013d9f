// Package pipeline implements the resume ingestion and deletion write path.
//
// Ingestion runs validate → extract → embed → store → index. The slow steps
// (extraction, embedding) run without holding any lock; only the paired
// store put and index insert form a critical section, so readers never
// observe a record that is in one structure but not the other. If the index
// insert fails after the store put succeeded, the put is compensated with a
// delete before the failure is reported.
package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hupe1980/resumevec/blobstore"
	"github.com/hupe1980/resumevec/embedding"
	"github.com/hupe1980/resumevec/extract"
	"github.com/hupe1980/resumevec/record"
)

var (
	// ErrInvalidDocument is the failure reason for uploads that are not
	// the expected document type or exceed the size ceiling.
	ErrInvalidDocument = errors.New("invalid document")

	// ErrEmptyContent is the failure reason for documents with no
	// extractable text. An embedding of nothing is not meaningful.
	ErrEmptyContent = errors.New("empty content")

	// ErrIndexWrite is the failure reason when the index insert of the
	// paired store+index write fails; the store put is rolled back.
	ErrIndexWrite = errors.New("index write failure")
)

// Index is the mutation surface of the similarity index needed by the
// write path.
type Index interface {
	Insert(ctx context.Context, id, owner string, v []float32) error
	Remove(ctx context.Context, id string) error
}

// DocumentType describes an accepted upload format. The Signature check on
// the leading content bytes is deliberately stronger than trusting the
// filename extension or the declared content type.
type DocumentType struct {
	Name         string
	Extensions   []string
	ContentTypes []string
	Signature    []byte
}

// DocumentTypePDF accepts PDF uploads.
var DocumentTypePDF = DocumentType{
	Name:         "pdf",
	Extensions:   []string{".pdf"},
	ContentTypes: []string{"application/pdf"},
	Signature:    []byte("%PDF-"),
}

// Options contains configuration options for the pipeline.
type Options struct {
	// Document is the accepted upload format.
	Document DocumentType

	// MaxFileSize is the upload size ceiling in bytes.
	MaxFileSize int64

	// Blobs, if set, receives the raw uploaded bytes before the record is
	// created; the blob location becomes the record's source location.
	Blobs blobstore.Store

	// Logger receives integrity events. Defaults to discard.
	Logger *slog.Logger

	// NewID generates record ids. Defaults to random UUIDs.
	NewID func() string

	// Now provides record timestamps. Defaults to time.Now in UTC.
	Now func() time.Time
}

// DefaultOptions contains the default configuration options for the pipeline.
var DefaultOptions = Options{
	Document:    DocumentTypePDF,
	MaxFileSize: 10 << 20, // 10 MiB
}

// IngestRequest carries one uploaded document.
type IngestRequest struct {
	// Content is the raw file bytes.
	Content []byte

	// Filename is the client-declared name of the upload.
	Filename string

	// ContentType is the client-declared MIME type. Empty means
	// undeclared; a non-empty value must match the accepted type.
	ContentType string

	// OwnerID is the authenticated principal uploading the document.
	OwnerID string
}

// Summary describes a successfully ingested resume.
type Summary struct {
	ID             string
	OwnerID        string
	SourceName     string
	SourceLocation string
	CreatedAt      time.Time
}

// Pipeline orchestrates resume ingestion and deletion.
type Pipeline struct {
	extractor extract.Extractor
	embedder  embedding.Embedder
	store     record.Store
	index     Index
	opts      Options

	// writeMu spans the paired store+index mutation of both Ingest and
	// Delete, keeping the two structures in lockstep.
	writeMu sync.Mutex
}

// New creates a new ingestion pipeline.
func New(extractor extract.Extractor, embedder embedding.Embedder, store record.Store, index Index, optFns ...func(o *Options)) *Pipeline {
	opts := DefaultOptions

	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.Logger == nil {
		opts.Logger = slog.New(slog.DiscardHandler)
	}
	if opts.NewID == nil {
		opts.NewID = uuid.NewString
	}
	if opts.Now == nil {
		opts.Now = func() time.Time { return time.Now().UTC() }
	}

	return &Pipeline{
		extractor: extractor,
		embedder:  embedder,
		store:     store,
		index:     index,
		opts:      opts,
	}
}

// Ingest runs the full ingestion state machine for one upload. On success
// it returns the created record's summary; on failure it returns a
// *StageError naming the failed stage, and no partial record remains
// queryable.
func (p *Pipeline) Ingest(ctx context.Context, req IngestRequest) (*Summary, error) {
	if req.OwnerID == "" {
		return nil, failf(StageReceived, ErrInvalidDocument, "missing owner")
	}

	if err := p.validate(req); err != nil {
		return nil, err
	}

	text, err := p.extractor.Extract(ctx, req.Content)
	if err != nil {
		return nil, failf(StageTextExtracted, err, "cannot extract text: %v", err)
	}
	if strings.TrimSpace(text) == "" {
		return nil, failf(StageTextExtracted, ErrEmptyContent, "document contains no extractable text")
	}

	vector, err := p.embedder.Embed(ctx, text)
	if err != nil {
		return nil, failf(StageEmbedded, err, "cannot embed text: %v", err)
	}

	id := p.opts.NewID()

	location := ""
	blobKey := ""
	if p.opts.Blobs != nil {
		blobKey = p.blobKey(req.OwnerID, id, req.Filename)
		location, err = p.opts.Blobs.Put(ctx, blobKey, bytes.NewReader(req.Content), int64(len(req.Content)), req.ContentType)
		if err != nil {
			return nil, failf(StageStored, err, "cannot store raw document: %v", err)
		}
	}

	rec := &record.Record{
		ID:             id,
		OwnerID:        req.OwnerID,
		Vector:         vector,
		SourceName:     req.Filename,
		SourceLocation: location,
		CreatedAt:      p.opts.Now(),
	}

	if err := p.commit(ctx, rec); err != nil {
		if blobKey != "" {
			if delErr := p.opts.Blobs.Delete(ctx, blobKey); delErr != nil {
				p.opts.Logger.WarnContext(ctx, "orphaned raw document blob",
					"id", id,
					"blob_key", blobKey,
					"error", delErr,
				)
			}
		}
		return nil, err
	}

	return &Summary{
		ID:             rec.ID,
		OwnerID:        rec.OwnerID,
		SourceName:     rec.SourceName,
		SourceLocation: rec.SourceLocation,
		CreatedAt:      rec.CreatedAt,
	}, nil
}

// commit performs the paired store put + index insert as one unit of work.
func (p *Pipeline) commit(ctx context.Context, rec *record.Record) error {
	p.writeMu.Lock()
	defer p.writeMu.Unlock()

	// An in-flight commit must complete or fully roll back even when the
	// request context is cancelled mid-pair; a ctx-aware store would
	// otherwise refuse the compensating delete and leave an orphan.
	ctx = context.WithoutCancel(ctx)

	if err := p.store.Put(ctx, rec); err != nil {
		return failf(StageStored, err, "cannot store record: %v", err)
	}

	if err := p.index.Insert(ctx, rec.ID, rec.OwnerID, rec.Vector); err != nil {
		// Compensate the store put so no orphaned record exists.
		if delErr := p.store.Delete(ctx, rec.ID, rec.OwnerID); delErr != nil {
			p.opts.Logger.ErrorContext(ctx, "integrity violation: store/index diverged after failed compensation",
				"id", rec.ID,
				"owner_id", rec.OwnerID,
				"insert_error", err,
				"rollback_error", delErr,
			)
		}
		return failf(StageIndexed, fmt.Errorf("%w: %w", ErrIndexWrite, err), "cannot index vector: %v", err)
	}

	return nil
}

// Delete removes a resume after verifying the caller owns it. The paired
// store delete + index remove run under the same critical section as
// ingestion commits.
func (p *Pipeline) Delete(ctx context.Context, id, ownerID string) error {
	rec, err := p.store.Get(ctx, id)
	if err != nil {
		return err
	}
	if rec.OwnerID != ownerID {
		return record.ErrNotOwner
	}

	p.writeMu.Lock()
	// Like commit, the paired removal runs detached from request
	// cancellation so both structures move together.
	dctx := context.WithoutCancel(ctx)
	// The store re-verifies ownership under the lock; the pre-check above
	// just avoids taking the lock for doomed requests.
	if err := p.store.Delete(dctx, id, ownerID); err != nil {
		p.writeMu.Unlock()
		return err
	}
	if err := p.index.Remove(dctx, id); err != nil {
		// Compensate by restoring the record so the store does not drop
		// a resume the index still serves.
		if putErr := p.store.Put(dctx, rec); putErr != nil {
			p.opts.Logger.ErrorContext(ctx, "integrity violation: record deleted but index entry remains",
				"id", id,
				"owner_id", ownerID,
				"remove_error", err,
				"rollback_error", putErr,
			)
		}
		p.writeMu.Unlock()
		return fmt.Errorf("%w: %w", ErrIndexWrite, err)
	}
	p.writeMu.Unlock()

	if p.opts.Blobs != nil && rec.SourceLocation != "" {
		blobKey := p.blobKey(rec.OwnerID, rec.ID, rec.SourceName)
		if err := p.opts.Blobs.Delete(ctx, blobKey); err != nil {
			p.opts.Logger.WarnContext(ctx, "orphaned raw document blob",
				"id", id,
				"blob_key", blobKey,
				"error", err,
			)
		}
	}

	return nil
}

func (p *Pipeline) blobKey(ownerID, id, filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	if ext == "" {
		ext = "." + p.opts.Document.Name
	}
	return fmt.Sprintf("%s/%s%s", ownerID, id, ext)
}

// validate enforces the declared type, the size ceiling and the binary
// signature of the accepted document type.
func (p *Pipeline) validate(req IngestRequest) *StageError {
	doc := p.opts.Document

	ext := strings.ToLower(filepath.Ext(req.Filename))
	if len(doc.Extensions) > 0 && !contains(doc.Extensions, ext) {
		return failf(StageValidated, ErrInvalidDocument, "unexpected file extension %q, only %s files are allowed", ext, doc.Name)
	}

	if req.ContentType != "" && len(doc.ContentTypes) > 0 {
		mediaType := strings.TrimSpace(strings.Split(req.ContentType, ";")[0])
		if !contains(doc.ContentTypes, strings.ToLower(mediaType)) {
			return failf(StageValidated, ErrInvalidDocument, "unexpected content type %q", mediaType)
		}
	}

	if p.opts.MaxFileSize > 0 && int64(len(req.Content)) > p.opts.MaxFileSize {
		return failf(StageValidated, ErrInvalidDocument, "file exceeds size ceiling of %d bytes", p.opts.MaxFileSize)
	}

	if !bytes.HasPrefix(req.Content, doc.Signature) {
		return failf(StageValidated, ErrInvalidDocument, "content does not match the %s signature", doc.Name)
	}

	return nil
}

func contains(values []string, v string) bool {
	for _, val := range values {
		if val == v {
			return true
		}
	}
	return false
}
