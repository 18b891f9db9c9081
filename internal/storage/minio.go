package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/rs/zerolog"
)

// MinioStorage implements Gateway using a MinIO (or any S3-compatible) backend.
type MinioStorage struct {
	client *minio.Client
}

// NewMinioStorage creates a MinIO client for the endpoint (host:port).
// No network call is made until the first operation.
func NewMinioStorage(endpoint, accessKey, secretKey string, useSSL bool) (*MinioStorage, error) {
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}
	return &MinioStorage{client: client}, nil
}

// BucketExists reports whether bucket is present on the backend.
func (s *MinioStorage) BucketExists(ctx context.Context, bucket string) (bool, error) {
	exists, err := s.client.BucketExists(ctx, bucket)
	if err != nil {
		return false, fmt.Errorf("%w: check bucket %q: %w", ErrStorage, bucket, err)
	}
	return exists, nil
}

// EnsureBucket creates bucket if it does not exist yet.
func (s *MinioStorage) EnsureBucket(ctx context.Context, bucket string) error {
	exists, err := s.BucketExists(ctx, bucket)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}
	if err := s.client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}); err != nil {
		// another instance may have won the race
		if minio.ToErrorResponse(err).Code == "BucketAlreadyOwnedByYou" {
			return nil
		}
		return fmt.Errorf("%w: create bucket %q: %w", ErrStorage, bucket, err)
	}
	zerolog.Ctx(ctx).Info().Str("bucket", bucket).Msg("storage: created bucket")
	return nil
}

// PutObjectFromPath uploads the file at localPath. The client streams the
// file in parts; it is never fully buffered.
func (s *MinioStorage) PutObjectFromPath(ctx context.Context, bucket, key, localPath, contentType string) error {
	_, err := s.client.FPutObject(ctx, bucket, key, localPath, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return fmt.Errorf("%w: put object %q: %w", ErrStorage, key, err)
	}
	return nil
}

// GetObject opens a stream over the object body. The client is lazy, so the
// metadata read doubles as the existence check and a missing key fails here
// rather than on the first Read.
func (s *MinioStorage) GetObject(ctx context.Context, bucket, key string) (io.ReadCloser, ObjectInfo, error) {
	obj, err := s.client.GetObject(ctx, bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, ObjectInfo{}, classify("get object", key, err)
	}
	info, err := obj.Stat()
	if err != nil {
		_ = obj.Close()
		return nil, ObjectInfo{}, classify("get object", key, err)
	}
	return obj, objectInfo(info), nil
}

// StatObject returns the object's metadata.
func (s *MinioStorage) StatObject(ctx context.Context, bucket, key string) (ObjectInfo, error) {
	info, err := s.client.StatObject(ctx, bucket, key, minio.StatObjectOptions{})
	if err != nil {
		return ObjectInfo{}, classify("stat object", key, err)
	}
	return objectInfo(info), nil
}

func objectInfo(info minio.ObjectInfo) ObjectInfo {
	return ObjectInfo{
		Size:         info.Size,
		ContentType:  info.ContentType,
		ETag:         info.ETag,
		LastModified: info.LastModified,
	}
}

// RemoveObject deletes the object at key. S3 reports success for missing keys,
// so the object is stat'ed first to honour ErrNotFound.
func (s *MinioStorage) RemoveObject(ctx context.Context, bucket, key string) error {
	if _, err := s.StatObject(ctx, bucket, key); err != nil {
		return err
	}
	if err := s.client.RemoveObject(ctx, bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return classify("remove object", key, err)
	}
	return nil
}

// classify maps a MinIO error to ErrNotFound or ErrStorage.
func classify(op, key string, err error) error {
	if isNotFound(err) {
		return fmt.Errorf("%w: %s %q: %w", ErrNotFound, op, key, err)
	}
	return fmt.Errorf("%w: %s %q: %w", ErrStorage, op, key, err)
}

func isNotFound(err error) bool {
	var resp minio.ErrorResponse
	if !errors.As(err, &resp) {
		resp = minio.ToErrorResponse(err)
	}
	switch resp.Code {
	case "NoSuchKey", "NoSuchBucket", "NoSuchObject":
		return true
	}
	return resp.StatusCode == http.StatusNotFound
}
