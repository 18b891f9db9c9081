package media

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"os"
	"strconv"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/radif/media/internal/config"
	"github.com/radif/media/internal/response"
)

// formField is the multipart field that carries the image.
const formField = "image"

// multipartOverhead is extra body allowance for boundaries and part headers.
const multipartOverhead = 1 << 20

var (
	errNoFile   = fmt.Errorf("%w: no image file provided", ErrValidation)
	errNotImage = fmt.Errorf("%w: only image files are allowed", ErrValidation)
	errTooLarge = fmt.Errorf("%w: file too large", ErrValidation)
	errBadBody  = fmt.Errorf("%w: malformed multipart body", ErrValidation)
)

var validationMessages = map[error]string{
	errNoFile:   "No image file provided",
	errNotImage: "Only image files are allowed",
	errTooLarge: "Image file too large",
	errBadBody:  "Invalid upload request",
}

// Handler holds HTTP handlers for media endpoints.
type Handler struct {
	svc            *Service
	uploadDir      string
	maxUploadBytes int64
}

// NewHandler creates a new media Handler.
func NewHandler(svc *Service, cfg *config.Config) *Handler {
	return &Handler{
		svc:            svc,
		uploadDir:      cfg.UploadDir,
		maxUploadBytes: cfg.MaxUploadBytes,
	}
}

// Routes returns the media router, to be mounted under /media.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/upload", h.Upload)
	r.Get("/{imageId}", h.GetImage)
	r.Get("/{imageId}/thumbnail", h.GetThumbnail)
	r.Delete("/{imageId}", h.DeleteImage)
	return r
}

// Upload godoc
//
//	@Summary		Upload image
//	@Description	Store an image and a thumbnail fitted into the configured box (200x200 by default). Keep the returned imageId; there is no listing.
//	@Tags			media
//	@Accept			multipart/form-data
//	@Produce		json
//	@Param			image	formData	file	true	"Image file (image/*, at most 10MB)"
//	@Success		201		{object}	UploadDescriptor
//	@Failure		400		{object}	response.ErrorBody
//	@Failure		500		{object}	response.ErrorBody
//	@Router			/media/upload [post]
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	logger := zerolog.Ctx(r.Context())

	in, err := h.receive(w, r)
	if err != nil {
		if errors.Is(err, ErrValidation) {
			logger.Info().Err(err).Msg("upload rejected")
			response.BadRequest(w, validationMessage(err))
			return
		}
		logger.Error().Err(err).Msg("error receiving upload")
		response.InternalError(w, "Failed to upload image")
		return
	}

	desc, err := h.svc.Upload(r.Context(), *in)
	if err != nil {
		logger.Error().Err(err).Str("original_name", in.OriginalName).Msg("error uploading file")
		response.InternalError(w, "Failed to upload image")
		return
	}

	response.Created(w, desc)
}

// GetImage godoc
//
//	@Summary		Get image
//	@Description	Stream the original image.
//	@Tags			media
//	@Produce		octet-stream
//	@Param			imageId	path		string	true	"Image id returned by upload"
//	@Success		200		{file}		binary
//	@Failure		404		{object}	response.ErrorBody
//	@Router			/media/{imageId} [get]
func (h *Handler) GetImage(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, VariantOriginal, "Image not found")
}

// GetThumbnail godoc
//
//	@Summary		Get thumbnail
//	@Description	Stream the thumbnail derived from the image at upload time.
//	@Tags			media
//	@Produce		octet-stream
//	@Param			imageId	path		string	true	"Image id returned by upload"
//	@Success		200		{file}		binary
//	@Failure		404		{object}	response.ErrorBody
//	@Router			/media/{imageId}/thumbnail [get]
func (h *Handler) GetThumbnail(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, VariantThumbnail, "Thumbnail not found")
}

// DeleteImage godoc
//
//	@Summary		Delete image
//	@Description	Delete the image and, best effort, its thumbnail.
//	@Tags			media
//	@Produce		json
//	@Param			imageId	path		string	true	"Image id returned by upload"
//	@Success		200		{object}	response.MessageBody
//	@Failure		404		{object}	response.ErrorBody
//	@Router			/media/{imageId} [delete]
func (h *Handler) DeleteImage(w http.ResponseWriter, r *http.Request) {
	imageID := chi.URLParam(r, "imageId")

	// Service.Delete reports every failure as ErrNotFound.
	if err := h.svc.Delete(r.Context(), imageID); err != nil {
		zerolog.Ctx(r.Context()).Info().Err(err).Str("image_id", imageID).Msg("error deleting object")
		response.NotFound(w, "Image not found")
		return
	}

	response.Message(w, "Image deleted successfully")
}

func (h *Handler) serve(w http.ResponseWriter, r *http.Request, v Variant, notFound string) {
	imageID := chi.URLParam(r, "imageId")
	logger := zerolog.Ctx(r.Context()).With().Str("image_id", imageID).Str("variant", string(v)).Logger()

	// Service.Fetch reports every failure as ErrNotFound.
	asset, err := h.svc.Fetch(r.Context(), imageID, v)
	if err != nil {
		logger.Info().Err(err).Msg("error retrieving object")
		response.NotFound(w, notFound)
		return
	}
	defer asset.Body.Close()

	hdr := w.Header()
	hdr.Set("Content-Type", asset.ContentType)
	hdr.Set("Content-Length", strconv.FormatInt(asset.Size, 10))
	if asset.ETag != "" {
		hdr.Set("ETag", quoteETag(asset.ETag))
	}
	if !asset.LastModified.IsZero() {
		hdr.Set("Last-Modified", asset.LastModified.UTC().Format(http.TimeFormat))
	}
	w.WriteHeader(http.StatusOK)

	if _, err := io.Copy(w, asset.Body); err != nil {
		logger.Warn().Err(err).Msg("stream interrupted")
	}
}

// receive streams the image part of a multipart request into a temp file
// under uploadDir. On error no file is left behind.
func (h *Handler) receive(w http.ResponseWriter, r *http.Request) (*UploadInput, error) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes+multipartOverhead)

	mr, err := r.MultipartReader()
	if err != nil {
		return nil, errNoFile
	}

	for {
		part, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			return nil, errNoFile
		}
		if err != nil {
			return nil, bodyError(err)
		}
		if part.FormName() != formField || part.FileName() == "" {
			continue
		}
		return h.store(part)
	}
}

func (h *Handler) store(part *multipart.Part) (*UploadInput, error) {
	declared := mediaType(part.Header.Get("Content-Type"))
	if declared != "" && declared != "application/octet-stream" && !isImage(declared) {
		return nil, errNotImage
	}

	f, err := os.CreateTemp(h.uploadDir, "upload-*")
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}
	path := f.Name()

	n, copyErr := io.Copy(f, io.LimitReader(part, h.maxUploadBytes+1))
	closeErr := f.Close()
	switch {
	case copyErr != nil:
		err = bodyError(copyErr)
	case closeErr != nil:
		err = fmt.Errorf("close temp file: %w", closeErr)
	case n > h.maxUploadBytes:
		err = errTooLarge
	}

	contentType := declared
	if err == nil && !isImage(contentType) {
		contentType, err = sniff(path)
	}
	if err != nil {
		_ = os.Remove(path)
		return nil, err
	}

	return &UploadInput{
		Path:         path,
		OriginalName: part.FileName(),
		ContentType:  contentType,
		Size:         n,
	}, nil
}

// sniff detects the content type of an upload that did not declare one.
func sniff(path string) (string, error) {
	mt, err := mimetype.DetectFile(path)
	if err != nil {
		return "", fmt.Errorf("detect content type: %w", err)
	}
	ct := mediaType(mt.String())
	if !isImage(ct) {
		return "", errNotImage
	}
	return ct, nil
}

func bodyError(err error) error {
	var maxErr *http.MaxBytesError
	switch {
	case errors.Is(err, ErrValidation):
		return err
	case errors.As(err, &maxErr):
		return errTooLarge
	default:
		return fmt.Errorf("%w: %w", errBadBody, err)
	}
}

func validationMessage(err error) string {
	for sentinel, msg := range validationMessages {
		if errors.Is(err, sentinel) {
			return msg
		}
	}
	return "Invalid upload request"
}

func mediaType(v string) string {
	if v == "" {
		return ""
	}
	mt, _, err := mime.ParseMediaType(v)
	if err != nil {
		return strings.ToLower(strings.TrimSpace(v))
	}
	return mt
}

func isImage(contentType string) bool {
	return strings.HasPrefix(contentType, "image/")
}

func quoteETag(etag string) string {
	if strings.HasPrefix(etag, `"`) || strings.HasPrefix(etag, `W/"`) {
		return etag
	}
	return `"` + etag + `"`
}
