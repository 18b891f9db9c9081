// Package storage defines the object storage gateway used by the media service.
// MinioStorage talks to any S3-compatible provider; MemoryStorage keeps
// objects in process for local runs and tests.
package storage

import (
	"context"
	"errors"
	"io"
	"time"
)

// ErrNotFound is returned when the addressed object does not exist.
var ErrNotFound = errors.New("object not found")

// ErrStorage wraps every other backend failure.
var ErrStorage = errors.New("storage failure")

// ObjectInfo is the metadata the backend keeps for an object.
type ObjectInfo struct {
	Size         int64
	ContentType  string
	ETag         string
	LastModified time.Time
}

// Gateway is the set of object operations the media service needs.
// Every operation is addressed by bucket and key.
type Gateway interface {
	// BucketExists reports whether bucket is present.
	BucketExists(ctx context.Context, bucket string) (bool, error)
	// EnsureBucket creates bucket if it is absent. Safe to call repeatedly.
	EnsureBucket(ctx context.Context, bucket string) error
	// PutObjectFromPath streams the file at localPath into bucket/key.
	PutObjectFromPath(ctx context.Context, bucket, key, localPath, contentType string) error
	// GetObject opens the object body for reading together with its
	// metadata. Callers must close the body.
	GetObject(ctx context.Context, bucket, key string) (io.ReadCloser, ObjectInfo, error)
	// StatObject returns the object's metadata.
	StatObject(ctx context.Context, bucket, key string) (ObjectInfo, error)
	// RemoveObject deletes the object; a missing key is ErrNotFound.
	RemoveObject(ctx context.Context, bucket, key string) error
}
