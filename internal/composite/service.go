// Package composite assembles every stored source image into one animated GIF.
package composite

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"log/slog"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/flipbook/service/internal/media"
	"github.com/flipbook/service/internal/storage"
)

const (
	// SourcePrefix is listed to find frames.
	SourcePrefix = "images/"
	// OutputKey is overwritten on every successful generation.
	OutputKey = "output/output.gif"
	// NoImagesMessage is returned when nothing under SourcePrefix qualifies.
	NoImagesMessage = "No images found"
)

// ErrBucketNotConfigured is returned when the storage bucket name is empty.
var ErrBucketNotConfigured = errors.New("bucket name not configured")

// Result is either a GIF URL or an informational message, never both.
type Result struct {
	GIFURL  string `json:"gif_url,omitempty" example:"https://my-bucket.s3.amazonaws.com/output/output.gif"`
	Message string `json:"message,omitempty" example:"No images found"`
	Frames  int    `json:"-"`
}

// Recorder observes finished generations. result is "ok", "empty" or an ErrorKind.
type Recorder interface {
	ObserveGeneration(result string, frames int, dur time.Duration)
}

// Options tunes generation.
type Options struct {
	FrameDelay  time.Duration
	Concurrency int
	Recorder    Recorder
}

// Service builds the composite artifact.
type Service struct {
	store storage.Storage
	opts  Options
}

// NewService creates a composite Service. Zero options fall back to a 5s frame
// delay and sequential fetching.
func NewService(store storage.Storage, opts Options) *Service {
	if opts.FrameDelay <= 0 {
		opts.FrameDelay = 5 * time.Second
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = 1
	}
	return &Service{store: store, opts: opts}
}

// Generate lists images/, decodes every .jpg/.jpeg/.png object in key order,
// stretches them to the size of the first, and writes output/output.gif.
// Any failure aborts the batch before the write.
func (s *Service) Generate(ctx context.Context) (res *Result, err error) {
	start := time.Now()
	defer func() { s.record(res, err, time.Since(start)) }()

	if s.store.Bucket() == "" {
		return nil, ErrBucketNotConfigured
	}

	objs, err := s.store.List(ctx, SourcePrefix)
	if err != nil {
		return nil, storageError(SourcePrefix, err)
	}

	keys := imageKeys(objs)
	if len(keys) == 0 {
		return &Result{Message: NoImagesMessage}, nil
	}

	frames, err := s.fetchAll(ctx, keys)
	if err != nil {
		return nil, err
	}

	size := frames[0].Bounds().Size()
	for i := 1; i < len(frames); i++ {
		frames[i] = media.Resize(frames[i], size)
	}

	var buf bytes.Buffer
	if err := media.EncodeGIF(&buf, frames, s.opts.FrameDelay); err != nil {
		return nil, &Error{Kind: KindEncode, Key: OutputKey, Err: err}
	}

	if err := s.store.Upload(ctx, OutputKey, bytes.NewReader(buf.Bytes()), int64(buf.Len()), "image/gif"); err != nil {
		return nil, storageError(OutputKey, err)
	}

	slog.Info("composite written",
		slog.String("key", OutputKey),
		slog.Int("frames", len(frames)),
		slog.Int("width", size.X),
		slog.Int("height", size.Y),
		slog.Int("bytes", buf.Len()),
	)
	return &Result{GIFURL: s.store.PublicURL(OutputKey), Frames: len(frames)}, nil
}

func imageKeys(objs []storage.Object) []string {
	keys := make([]string, 0, len(objs))
	for _, o := range objs {
		if media.HasImageExtension(o.Key) {
			keys = append(keys, o.Key)
		}
	}
	sort.Strings(keys)
	return keys
}

// fetchAll downloads and decodes keys with bounded concurrency. Frames keep
// the order of keys; the first failure cancels the remaining fetches.
func (s *Service) fetchAll(ctx context.Context, keys []string) ([]*image.RGBA, error) {
	frames := make([]*image.RGBA, len(keys))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.opts.Concurrency)
	for i, key := range keys {
		g.Go(func() error {
			img, err := s.fetch(gctx, key)
			if err != nil {
				return err
			}
			frames[i] = img
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return frames, nil
}

func (s *Service) fetch(ctx context.Context, key string) (*image.RGBA, error) {
	rc, err := s.store.Download(ctx, key)
	if err != nil {
		return nil, storageError(key, err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, &Error{Kind: KindTransientIO, Key: key, Err: fmt.Errorf("read object: %w", err)}
	}

	img, err := media.Decode(data)
	if err != nil {
		return nil, &Error{Kind: KindDecode, Key: key, Err: err}
	}
	return img, nil
}

func (s *Service) record(res *Result, err error, dur time.Duration) {
	if s.opts.Recorder == nil {
		return
	}
	var ce *Error
	switch {
	case err == nil && res.Message != "":
		s.opts.Recorder.ObserveGeneration("empty", 0, dur)
	case err == nil:
		s.opts.Recorder.ObserveGeneration("ok", res.Frames, dur)
	case errors.As(err, &ce):
		s.opts.Recorder.ObserveGeneration(string(ce.Kind), 0, dur)
	default:
		s.opts.Recorder.ObserveGeneration("config", 0, dur)
	}
}
