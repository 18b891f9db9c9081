package storage

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/radif/media/internal/metrics"
)

// Instrumented decorates a Gateway with latency metrics per operation.
type Instrumented struct {
	next    Gateway
	metrics *metrics.Metrics
}

// NewInstrumented wraps next. A nil m disables recording.
func NewInstrumented(next Gateway, m *metrics.Metrics) *Instrumented {
	return &Instrumented{next: next, metrics: m}
}

func (g *Instrumented) BucketExists(ctx context.Context, bucket string) (bool, error) {
	start := time.Now()
	ok, err := g.next.BucketExists(ctx, bucket)
	g.observe("bucket_exists", start, err)
	return ok, err
}

func (g *Instrumented) EnsureBucket(ctx context.Context, bucket string) error {
	start := time.Now()
	err := g.next.EnsureBucket(ctx, bucket)
	g.observe("ensure_bucket", start, err)
	return err
}

func (g *Instrumented) PutObjectFromPath(ctx context.Context, bucket, key, localPath, contentType string) error {
	start := time.Now()
	err := g.next.PutObjectFromPath(ctx, bucket, key, localPath, contentType)
	g.observe("put_object", start, err)
	return err
}

func (g *Instrumented) GetObject(ctx context.Context, bucket, key string) (io.ReadCloser, ObjectInfo, error) {
	start := time.Now()
	rc, info, err := g.next.GetObject(ctx, bucket, key)
	g.observe("get_object", start, err)
	return rc, info, err
}

func (g *Instrumented) StatObject(ctx context.Context, bucket, key string) (ObjectInfo, error) {
	start := time.Now()
	info, err := g.next.StatObject(ctx, bucket, key)
	g.observe("stat_object", start, err)
	return info, err
}

func (g *Instrumented) RemoveObject(ctx context.Context, bucket, key string) error {
	start := time.Now()
	err := g.next.RemoveObject(ctx, bucket, key)
	g.observe("remove_object", start, err)
	return err
}

func (g *Instrumented) observe(op string, start time.Time, err error) {
	result := metrics.ResultOK
	switch {
	case errors.Is(err, ErrNotFound):
		result = metrics.ResultNotFound
	case err != nil:
		result = metrics.ResultError
	}
	g.metrics.ObserveStorage(op, result, time.Since(start))
}
