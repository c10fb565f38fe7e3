package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/iudanet/readshare/internal/apperr"
	"github.com/iudanet/readshare/pkg/api"
)

// maxBodyBytes ограничивает размер JSON тела запроса
const maxBodyBytes = 1 << 20

// WriteJSON writes v as a JSON response with the given status
func WriteJSON(w http.ResponseWriter, status int, v any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(v)
}

// WriteError writes api.ErrorResponse with the status text as error
func WriteError(w http.ResponseWriter, status int, message string) error {
	return WriteJSON(w, status, api.ErrorResponse{
		Error:   http.StatusText(status),
		Message: message,
	})
}

// responder содержит общие helper'ы ответа для всех handler'ов
type responder struct {
	logger *slog.Logger
}

// sendJSON отправляет JSON ответ
func (h responder) sendJSON(w http.ResponseWriter, data any, statusCode int) {
	if err := WriteJSON(w, statusCode, data); err != nil {
		h.logger.Error("failed to encode JSON response", slog.Any("error", err))
	}
}

// sendError отправляет JSON ответ с ошибкой
func (h responder) sendError(w http.ResponseWriter, message string, statusCode int) {
	if err := WriteError(w, statusCode, message); err != nil {
		h.logger.Error("failed to encode JSON response", slog.Any("error", err))
	}
}

// sendAppError переводит ошибку сервиса в HTTP статус.
// Внутренние ошибки логируются, клиент получает общее сообщение.
func (h responder) sendAppError(w http.ResponseWriter, r *http.Request, err error) {
	h.sendAppErrorStatus(w, r, err, apperr.StatusFor(err))
}

func (h responder) sendAppErrorStatus(w http.ResponseWriter, r *http.Request, err error, status int) {
	if status >= http.StatusInternalServerError {
		h.logger.ErrorContext(r.Context(), "request failed",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Any("error", err))
	}
	h.sendError(w, apperr.Message(err), status)
}

// decodeJSON читает JSON тело запроса в dst
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return apperr.New(apperr.ErrValidation, "request body is empty")
		}
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return apperr.New(apperr.ErrValidation, "request body too large")
		}
		return apperr.New(apperr.ErrValidation, "invalid request body")
	}
	return nil
}

// currentUser возвращает principal, установленный Gate
func (h responder) currentUser(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID, ok := GetUserID(r.Context())
	if !ok {
		h.sendError(w, "authentication required", http.StatusUnauthorized)
		return "", false
	}
	return userID, true
}
