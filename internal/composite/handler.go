package composite

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/flipbook/service/internal/response"
)

// Handler holds the HTTP handler for GIF generation.
type Handler struct {
	svc *Service
}

// NewHandler creates a new composite Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// GenerateGIF godoc
//
//	@Summary		Generate the composite GIF
//	@Description	Combines every image under images/ into output/output.gif. Frames use the size of the first image in key order.
//	@Tags			images
//	@Produce		json
//	@Success		200	{object}	Result
//	@Failure		500	{object}	response.ErrorBody
//	@Router			/generate-gif [post]
func (h *Handler) GenerateGIF(w http.ResponseWriter, r *http.Request) {
	res, err := h.svc.Generate(r.Context())
	if err == nil {
		response.OK(w, res)
		return
	}

	if errors.Is(err, ErrBucketNotConfigured) {
		response.InternalError(w, "Bucket name not configured")
		return
	}

	var ce *Error
	if !errors.As(err, &ce) {
		slog.Error("composite failed", slog.String("error", err.Error()))
		response.InternalError(w, "")
		return
	}

	slog.Error("composite aborted",
		slog.String("kind", string(ce.Kind)),
		slog.String("key", ce.Key),
		slog.String("error", ce.Err.Error()),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)
	response.ErrorKind(w, http.StatusInternalServerError, ce.Describe(), string(ce.Kind))
}
