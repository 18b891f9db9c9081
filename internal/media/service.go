// Package media implements the image lifecycle: upload with thumbnail
// derivation, retrieval of either variant, and paired deletion.
package media

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/radif/media/internal/config"
	"github.com/radif/media/internal/metrics"
	"github.com/radif/media/internal/storage"
)

const defaultContentType = "application/octet-stream"

// Variant selects which object of an image pair to fetch.
type Variant string

const (
	VariantOriginal  Variant = "original"
	VariantThumbnail Variant = "thumbnail"
)

// Thumbnailer writes a resized copy of src to dst.
type Thumbnailer interface {
	Generate(src, dst string, maxWidth, maxHeight int) error
}

// UploadInput describes an image already written to local disk by the caller.
// ContentType must be an image/* type; the handler enforces this.
type UploadInput struct {
	Path         string
	OriginalName string
	ContentType  string
	Size         int64
}

// UploadDescriptor is returned once per upload. Clients keep ImageID to
// fetch or delete the image later; nothing else indexes it.
type UploadDescriptor struct {
	ImageID      string `json:"imageId"      example:"1b4e28ba-2fa1-4d3b-8e5a-9c2b1f0e7a11.png"`
	OriginalName string `json:"originalName" example:"cat.png"`
	ContentType  string `json:"contentType"  example:"image/png"`
	Size         int64  `json:"size"         example:"2048"`
}

// Asset is an open object stream plus the metadata read from storage.
// Callers must close Body.
type Asset struct {
	Body         io.ReadCloser
	ContentType  string
	Size         int64
	ETag         string
	LastModified time.Time
}

// Service contains the media lifecycle logic.
type Service struct {
	store   storage.Gateway
	thumbs  Thumbnailer
	metrics *metrics.Metrics

	bucket      string
	thumbWidth  int
	thumbHeight int

	newID func() string
}

// NewService creates a media Service bound to the configured bucket and thumbnail box.
func NewService(store storage.Gateway, thumbs Thumbnailer, cfg *config.Config, m *metrics.Metrics) *Service {
	return &Service{
		store:       store,
		thumbs:      thumbs,
		metrics:     m,
		bucket:      cfg.StorageBucket,
		thumbWidth:  cfg.ThumbnailWidth,
		thumbHeight: cfg.ThumbnailHeight,
		newID:       uuid.NewString,
	}
}

// Upload stores the original at a fresh image id, derives and stores its
// thumbnail, and removes both local files whatever the outcome.
// A failure after the original is stored leaves it without a thumbnail;
// there is no rollback.
func (s *Service) Upload(ctx context.Context, in UploadInput) (*UploadDescriptor, error) {
	thumbPath := in.Path + "_thumb"
	defer removeLocal(ctx, in.Path, thumbPath)

	imageID := newImageID(s.newID(), in.OriginalName)
	logger := zerolog.Ctx(ctx).With().Str("image_id", imageID).Logger()

	if err := s.store.PutObjectFromPath(ctx, s.bucket, imageID, in.Path, in.ContentType); err != nil {
		s.metrics.Upload(metrics.ResultError)
		return nil, fmt.Errorf("%w: store original: %w", ErrUpload, err)
	}

	start := time.Now()
	err := s.thumbs.Generate(in.Path, thumbPath, s.thumbWidth, s.thumbHeight)
	s.metrics.ObserveThumbnail(time.Since(start))
	if err != nil {
		s.metrics.Upload(metrics.ResultError)
		logger.Warn().Err(err).Msg("original stored without thumbnail")
		return nil, fmt.Errorf("%w: generate thumbnail: %w", ErrUpload, err)
	}

	if err := s.store.PutObjectFromPath(ctx, s.bucket, ThumbnailKey(imageID), thumbPath, in.ContentType); err != nil {
		s.metrics.Upload(metrics.ResultError)
		logger.Warn().Err(err).Msg("original stored without thumbnail")
		return nil, fmt.Errorf("%w: store thumbnail: %w", ErrUpload, err)
	}

	s.metrics.Upload(metrics.ResultOK)
	logger.Info().Str("original_name", in.OriginalName).Int64("size", in.Size).Msg("image uploaded")

	return &UploadDescriptor{
		ImageID:      imageID,
		OriginalName: in.OriginalName,
		ContentType:  in.ContentType,
		Size:         in.Size,
	}, nil
}

// Fetch opens the requested variant of imageID. Any open failure is reported
// as ErrNotFound.
func (s *Service) Fetch(ctx context.Context, imageID string, v Variant) (*Asset, error) {
	key := imageID
	if v == VariantThumbnail {
		key = ThumbnailKey(imageID)
	}

	body, info, err := s.store.GetObject(ctx, s.bucket, key)
	if err != nil {
		s.metrics.Fetch(string(v), metrics.ResultNotFound)
		return nil, fmt.Errorf("%w: open %q: %w", ErrNotFound, key, err)
	}

	contentType := info.ContentType
	if contentType == "" {
		contentType = defaultContentType
	}

	s.metrics.Fetch(string(v), metrics.ResultOK)
	return &Asset{
		Body:         body,
		ContentType:  contentType,
		Size:         info.Size,
		ETag:         info.ETag,
		LastModified: info.LastModified,
	}, nil
}

// Delete removes the original and then, best effort, its thumbnail. If the
// original cannot be removed the thumbnail is left alone and ErrNotFound is
// returned.
func (s *Service) Delete(ctx context.Context, imageID string) error {
	logger := zerolog.Ctx(ctx).With().Str("image_id", imageID).Logger()

	if err := s.store.RemoveObject(ctx, s.bucket, imageID); err != nil {
		s.metrics.Delete(metrics.ResultNotFound)
		if !errors.Is(err, storage.ErrNotFound) {
			logger.Error().Err(err).Msg("remove original failed")
		}
		return fmt.Errorf("%w: remove %q: %w", ErrNotFound, imageID, err)
	}

	thumbKey := ThumbnailKeyFromOriginal(imageID)
	if err := s.store.RemoveObject(ctx, s.bucket, thumbKey); err != nil {
		s.metrics.ThumbnailRemoveFailed()
		logger.Info().Err(err).Str("key", thumbKey).Msg("thumbnail not found for deletion")
	}

	s.metrics.Delete(metrics.ResultOK)
	logger.Info().Msg("image deleted")
	return nil
}

// Ready reports whether the configured bucket is reachable.
func (s *Service) Ready(ctx context.Context) error {
	ok, err := s.store.BucketExists(ctx, s.bucket)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("bucket %q does not exist", s.bucket)
	}
	return nil
}

func removeLocal(ctx context.Context, paths ...string) {
	for _, p := range paths {
		if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
			zerolog.Ctx(ctx).Warn().Err(err).Str("path", p).Msg("remove temp file failed")
		}
	}
}
