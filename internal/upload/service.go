// Package upload stores client images under images/ and returns their public URL.
package upload

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/google/uuid"

	"github.com/flipbook/service/internal/media"
	"github.com/flipbook/service/internal/storage"
)

// KeyPrefix is the namespace for uploaded source images.
const KeyPrefix = "images/"

var (
	// ErrInvalidExtension is returned for filenames not ending in .jpg, .jpeg or .png.
	ErrInvalidExtension = errors.New("only .jpg, .jpeg, .png files allowed")
	// ErrBucketNotConfigured is returned when the storage bucket name is empty.
	ErrBucketNotConfigured = errors.New("bucket name not configured")
)

// Result describes a stored image.
type Result struct {
	ID       string `json:"id"        example:"0b6a3c1e-8f6d-4c1e-9a57-2f0d7a4b1c9e"`
	ImageURL string `json:"image_url" example:"https://my-bucket.s3.amazonaws.com/images/0b6a3c1e-8f6d-4c1e-9a57-2f0d7a4b1c9e.jpg"`
	Key      string `json:"-"`
}

// Options tunes key naming.
type Options struct {
	// LegacyJPGKeys names every object images/{id}.jpg regardless of content.
	LegacyJPGKeys bool
}

// Service writes uploads to the object store.
type Service struct {
	store storage.Storage
	opts  Options
	newID func() string
}

// NewService creates a new upload Service.
func NewService(store storage.Storage, opts Options) *Service {
	return &Service{store: store, opts: opts, newID: uuid.NewString}
}

// Upload validates filename, reads body fully and writes it to images/{id}{ext}.
// Nothing is written when validation fails.
func (s *Service) Upload(ctx context.Context, filename, contentType string, body io.Reader) (*Result, error) {
	if !media.HasImageExtension(filename) {
		return nil, ErrInvalidExtension
	}
	if s.store.Bucket() == "" {
		return nil, ErrBucketNotConfigured
	}

	data, err := io.ReadAll(body)
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}

	ext := ".jpg"
	if !s.opts.LegacyJPGKeys {
		ext = media.DetectExtension(data)
	}
	if contentType == "" {
		contentType = media.ContentType(media.DetectExtension(data))
	}

	id := s.newID()
	key := KeyPrefix + id + ext
	if err := s.store.Upload(ctx, key, bytes.NewReader(data), int64(len(data)), contentType); err != nil {
		return nil, fmt.Errorf("store upload: %w", err)
	}

	return &Result{ID: id, ImageURL: s.store.PublicURL(key), Key: key}, nil
}
