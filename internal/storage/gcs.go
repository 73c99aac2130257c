package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	gcs "cloud.google.com/go/storage"
	"google.golang.org/api/iterator"
)

// GCSStorage implements Storage using Google Cloud Storage.
type GCSStorage struct {
	client     *gcs.Client
	bucket     string
	publicBase string
	listLimit  int
}

// GCSConfig holds configuration for GCSStorage.
type GCSConfig struct {
	Bucket     string
	PublicBase string // Optional; defaults to https://storage.googleapis.com/{bucket}
	ListLimit  int
}

// NewGCSStorage creates a GCS client using application default credentials.
func NewGCSStorage(ctx context.Context, cfg GCSConfig) (*GCSStorage, error) {
	client, err := gcs.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("create GCS client: %w", err)
	}

	publicBase := cfg.PublicBase
	if publicBase == "" {
		publicBase = "https://storage.googleapis.com/" + cfg.Bucket
	}

	return &GCSStorage{
		client:     client,
		bucket:     cfg.Bucket,
		publicBase: strings.TrimRight(publicBase, "/"),
		listLimit:  listLimitOrDefault(cfg.ListLimit),
	}, nil
}

// Bucket returns the bucket name.
func (s *GCSStorage) Bucket() string { return s.bucket }

// Upload streams reader into a new object generation.
func (s *GCSStorage) Upload(ctx context.Context, key string, reader io.Reader, _ int64, contentType string) error {
	w := s.client.Bucket(s.bucket).Object(key).NewWriter(ctx)
	w.ContentType = contentType

	if _, err := io.Copy(w, reader); err != nil {
		_ = w.Close()
		return wrap("upload", key, classifyGCS(err), err)
	}
	if err := w.Close(); err != nil {
		return wrap("upload", key, classifyGCS(err), err)
	}
	return nil
}

// Download opens a reader on the object.
func (s *GCSStorage) Download(ctx context.Context, key string) (io.ReadCloser, error) {
	r, err := s.client.Bucket(s.bucket).Object(key).NewReader(ctx)
	if err != nil {
		return nil, wrap("download", key, classifyGCS(err), err)
	}
	return r, nil
}

// List walks the object iterator until listLimit entries have been read.
// GCS returns names in lexicographic order.
func (s *GCSStorage) List(ctx context.Context, prefix string) ([]Object, error) {
	it := s.client.Bucket(s.bucket).Objects(ctx, &gcs.Query{Prefix: prefix})

	var out []Object
	for len(out) < s.listLimit {
		attrs, err := it.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, wrap("list", prefix, classifyGCS(err), err)
		}
		out = append(out, Object{
			Key:          attrs.Name,
			Size:         attrs.Size,
			ContentType:  attrs.ContentType,
			LastModified: attrs.Updated,
		})
	}
	return out, nil
}

// PublicURL returns https://storage.googleapis.com/{bucket}/{key} unless a public base was configured.
func (s *GCSStorage) PublicURL(key string) string {
	return s.publicBase + "/" + key
}

// Close closes the GCS client.
func (s *GCSStorage) Close() error {
	return s.client.Close()
}

func classifyGCS(err error) Kind {
	if errors.Is(err, gcs.ErrObjectNotExist) || errors.Is(err, gcs.ErrBucketNotExist) {
		return KindNotFound
	}
	return KindTransient
}
