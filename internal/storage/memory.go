package storage

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sort"
	"strings"
	"sync"
	"time"
)

type memObject struct {
	data        []byte
	contentType string
	modified    time.Time
}

// MemoryStorage keeps objects in process memory. It backs the "memory" driver
// and is the substitutable fake used by handler and service tests.
type MemoryStorage struct {
	mu         sync.RWMutex
	bucket     string
	publicBase string
	listLimit  int
	objects    map[string]memObject
}

// NewMemoryStorage returns an empty store. publicBase defaults to the S3 URL pattern.
func NewMemoryStorage(bucket, publicBase string, listLimit int) *MemoryStorage {
	if publicBase == "" {
		publicBase = "https://" + bucket + ".s3.amazonaws.com"
	}
	return &MemoryStorage{
		bucket:     bucket,
		publicBase: strings.TrimRight(publicBase, "/"),
		listLimit:  listLimitOrDefault(listLimit),
		objects:    make(map[string]memObject),
	}
}

// Bucket returns the bucket name.
func (s *MemoryStorage) Bucket() string { return s.bucket }

// Upload copies reader into memory.
func (s *MemoryStorage) Upload(ctx context.Context, key string, reader io.Reader, _ int64, contentType string) error {
	if err := ctx.Err(); err != nil {
		return wrap("upload", key, KindTransient, err)
	}
	data, err := io.ReadAll(reader)
	if err != nil {
		return wrap("upload", key, KindTransient, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[key] = memObject{data: data, contentType: contentType, modified: time.Now().UTC()}
	return nil
}

// Download returns a reader over a copy of the stored bytes.
func (s *MemoryStorage) Download(ctx context.Context, key string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, wrap("download", key, KindTransient, err)
	}

	s.mu.RLock()
	obj, ok := s.objects[key]
	s.mu.RUnlock()
	if !ok {
		return nil, wrap("download", key, KindNotFound, errors.New("no such key"))
	}
	return io.NopCloser(bytes.NewReader(bytes.Clone(obj.data))), nil
}

// List returns up to listLimit objects under prefix in key order.
func (s *MemoryStorage) List(ctx context.Context, prefix string) ([]Object, error) {
	if err := ctx.Err(); err != nil {
		return nil, wrap("list", prefix, KindTransient, err)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Object, 0, len(s.objects))
	for k, o := range s.objects {
		if !strings.HasPrefix(k, prefix) {
			continue
		}
		out = append(out, Object{
			Key:          k,
			Size:         int64(len(o.data)),
			ContentType:  o.contentType,
			LastModified: o.modified,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	if len(out) > s.listLimit {
		out = out[:s.listLimit]
	}
	return out, nil
}

// PublicURL returns publicBase/key.
func (s *MemoryStorage) PublicURL(key string) string {
	return s.publicBase + "/" + key
}
