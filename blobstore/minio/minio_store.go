// Package minio provides a MinIO (S3-compatible) implementation of
// blobstore.Store.
package minio

import (
	"context"
	"fmt"
	"io"
	"path"

	"github.com/hupe1980/resumevec/blobstore"
	"github.com/minio/minio-go/v7"
)

// Compile-time check to ensure Store satisfies the blobstore.Store interface.
var _ blobstore.Store = (*Store)(nil)

// Store implements blobstore.Store for MinIO and S3-compatible storage.
type Store struct {
	client *minio.Client
	bucket string
	prefix string
}

// NewStore creates a new MinIO blob store.
// rootPrefix is prepended to all keys (e.g. "resumes/").
func NewStore(client *minio.Client, bucket, rootPrefix string) *Store {
	return &Store{
		client: client,
		bucket: bucket,
		prefix: rootPrefix,
	}
}

func (s *Store) key(name string) string {
	return path.Join(s.prefix, name)
}

// Put uploads a blob and returns its s3:// location.
func (s *Store) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) (string, error) {
	fullKey := s.key(key)

	_, err := s.client.PutObject(ctx, s.bucket, fullKey, r, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", fmt.Errorf("upload blob: %w", err)
	}

	return fmt.Sprintf("s3://%s/%s", s.bucket, fullKey), nil
}

// Delete removes a blob. Removal of an absent blob succeeds.
func (s *Store) Delete(ctx context.Context, key string) error {
	err := s.client.RemoveObject(ctx, s.bucket, s.key(key), minio.RemoveObjectOptions{})
	if err != nil {
		return fmt.Errorf("delete blob: %w", err)
	}

	return nil
}
