package upload

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/flipbook/service/internal/response"
	"github.com/flipbook/service/internal/storage"
)

// Handler holds the HTTP handler for image uploads.
type Handler struct {
	svc      *Service
	maxBytes int64
}

// NewHandler creates a new upload Handler. maxBytes <= 0 disables the body limit.
func NewHandler(svc *Service, maxBytes int64) *Handler {
	return &Handler{svc: svc, maxBytes: maxBytes}
}

// Upload godoc
//
//	@Summary		Upload an image
//	@Description	Stores a .jpg, .jpeg or .png file under images/ and returns its public URL.
//	@Tags			images
//	@Accept			multipart/form-data
//	@Produce		json
//	@Param			file	formData	file	true	"Image file"
//	@Success		200		{object}	Result
//	@Failure		400		{object}	response.ErrorBody
//	@Failure		413		{object}	response.ErrorBody
//	@Failure		500		{object}	response.ErrorBody
//	@Router			/upload [post]
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	if h.maxBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.maxBytes)
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		if isTooLarge(err) {
			response.TooLarge(w, "file too large")
			return
		}
		response.BadRequest(w, "file is required")
		return
	}
	defer func() {
		if err := file.Close(); err != nil {
			slog.Warn("failed to close upload", slog.String("error", err.Error()))
		}
	}()

	res, err := h.svc.Upload(r.Context(), header.Filename, header.Header.Get("Content-Type"), file)
	switch {
	case err == nil:
		slog.Info("image uploaded",
			slog.String("id", res.ID),
			slog.String("key", res.Key),
			slog.Int64("size", header.Size),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)
		response.OK(w, res)
	case errors.Is(err, ErrInvalidExtension):
		response.BadRequest(w, "Only .jpg, .jpeg, .png files allowed")
	case errors.Is(err, ErrBucketNotConfigured):
		response.InternalError(w, "Bucket name not configured")
	case isTooLarge(err):
		response.TooLarge(w, "file too large")
	default:
		slog.Error("upload failed",
			slog.String("filename", header.Filename),
			slog.String("error", err.Error()),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)
		response.ErrorKind(w, http.StatusInternalServerError, "failed to store image", storage.KindOf(err).String())
	}
}

func isTooLarge(err error) bool {
	var mbe *http.MaxBytesError
	return errors.As(err, &mbe)
}
