// Package storage defines the interface for object storage operations.
// Swap implementations by changing the driver selected at startup:
// AWS S3, any S3-compatible provider through MinIO, Google Cloud Storage,
// or the in-memory store used in development and tests.
package storage

import (
	"context"
	"io"
	"time"
)

// Object describes one entry returned by List.
type Object struct {
	Key          string
	Size         int64
	ContentType  string
	LastModified time.Time
}

// Storage is the interface for uploading, listing and retrieving objects in one bucket.
type Storage interface {
	// Bucket returns the configured bucket name. It may be empty.
	Bucket() string
	// Upload streams data to the store under the given key, replacing any existing object.
	Upload(ctx context.Context, key string, reader io.Reader, size int64, contentType string) error
	// Download opens the object at key. The caller must close the reader.
	Download(ctx context.Context, key string) (io.ReadCloser, error)
	// List returns objects whose key starts with prefix in ascending key order.
	// Only a single page is fetched.
	List(ctx context.Context, prefix string) ([]Object, error)
	// PublicURL constructs the browser-accessible URL for a given key.
	PublicURL(key string) string
}
