package handlers

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/iudanet/readshare/internal/apperr"
	"github.com/iudanet/readshare/pkg/api"
)

// multipartOverhead запас на заголовки multipart поверх размера файла
const multipartOverhead = 64 << 10

// MediaUploader stores an uploaded image and returns its URL
type MediaUploader interface {
	Upload(ctx context.Context, r io.Reader) (string, error)
	MaxBytes() int64
}

// MediaHandler обрабатывает загрузку изображений
type MediaHandler struct {
	responder
	media MediaUploader
}

// NewMediaHandler создает handler загрузки
func NewMediaHandler(logger *slog.Logger, media MediaUploader) *MediaHandler {
	return &MediaHandler{
		responder: responder{logger: logger},
		media:     media,
	}
}

// Upload обрабатывает POST /api/v1/media (multipart, поле "file")
func (h *MediaHandler) Upload(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.currentUser(w, r); !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.media.MaxBytes()+multipartOverhead)

	file, _, err := r.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.sendAppError(w, r, apperr.New(apperr.ErrValidation, "file too large (max %d bytes)", h.media.MaxBytes()))
			return
		}
		h.sendAppError(w, r, apperr.New(apperr.ErrValidation, "multipart field \"file\" is required"))
		return
	}
	defer file.Close()

	url, err := h.media.Upload(r.Context(), file)
	if err != nil {
		h.sendAppError(w, r, err)
		return
	}

	h.sendJSON(w, api.MediaResponse{URL: url}, http.StatusCreated)
}
