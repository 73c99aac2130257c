package storage

import (
	"context"
	"io"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Observer receives one callback per storage operation.
type Observer interface {
	Observe(op string, bytes int64, err error, dur time.Duration)
}

// Observed decorates a Storage with metrics and tracing.
type Observed struct {
	next Storage
	obs  Observer
}

// NewObserved wraps next. A nil obs disables metrics but keeps spans.
func NewObserved(next Storage, obs Observer) *Observed {
	return &Observed{next: next, obs: obs}
}

var tracer = otel.Tracer("flipbook/storage")

func (o *Observed) start(ctx context.Context, op, key string) (context.Context, trace.Span) {
	return tracer.Start(ctx, "storage."+op, trace.WithAttributes(
		attribute.String("storage.bucket", o.next.Bucket()),
		attribute.String("storage.key", key),
	))
}

func (o *Observed) finish(span trace.Span, op string, n int64, err error, start time.Time) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, KindOf(err).String())
	}
	span.End()
	if o.obs != nil {
		o.obs.Observe(op, n, err, time.Since(start))
	}
}

// Bucket returns the wrapped store's bucket.
func (o *Observed) Bucket() string { return o.next.Bucket() }

// Upload delegates and records size and latency.
func (o *Observed) Upload(ctx context.Context, key string, reader io.Reader, size int64, contentType string) error {
	start := time.Now()
	ctx, span := o.start(ctx, "upload", key)
	span.SetAttributes(attribute.Int64("storage.size", size))
	err := o.next.Upload(ctx, key, reader, size, contentType)
	n := size
	if err != nil || n < 0 {
		n = 0
	}
	o.finish(span, "upload", n, err, start)
	return err
}

// Download delegates; bytes are recorded when the returned reader is closed.
func (o *Observed) Download(ctx context.Context, key string) (io.ReadCloser, error) {
	start := time.Now()
	ctx, span := o.start(ctx, "download", key)
	rc, err := o.next.Download(ctx, key)
	if err != nil {
		o.finish(span, "download", 0, err, start)
		return nil, err
	}
	return &countingReadCloser{ReadCloser: rc, done: func(n int64, rerr error) {
		o.finish(span, "download", n, rerr, start)
	}}, nil
}

// List delegates and records the number of returned keys on the span.
func (o *Observed) List(ctx context.Context, prefix string) ([]Object, error) {
	start := time.Now()
	ctx, span := o.start(ctx, "list", prefix)
	objs, err := o.next.List(ctx, prefix)
	span.SetAttributes(attribute.Int("storage.list.count", len(objs)))
	o.finish(span, "list", 0, err, start)
	return objs, err
}

// PublicURL delegates.
func (o *Observed) PublicURL(key string) string { return o.next.PublicURL(key) }

type countingReadCloser struct {
	io.ReadCloser
	n      int64
	err    error
	closed bool
	done   func(int64, error)
}

func (c *countingReadCloser) Read(p []byte) (int, error) {
	n, err := c.ReadCloser.Read(p)
	c.n += int64(n)
	if err != nil && err != io.EOF {
		c.err = err
	}
	return n, err
}

func (c *countingReadCloser) Close() error {
	err := c.ReadCloser.Close()
	if !c.closed {
		c.closed = true
		c.done(c.n, c.err)
	}
	return err
}
