// Package apperr defines the error kinds shared by the session authority and
// the HTTP layer. Services return them (optionally wrapped with a message via
// New), handlers map them to status codes with StatusFor.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Error kinds.
var (
	ErrValidation         = errors.New("validation error")
	ErrConflict           = errors.New("conflict")
	ErrUnauthenticated    = errors.New("unauthenticated")
	ErrInvalidToken       = errors.New("invalid token")
	ErrNotFound           = errors.New("not found")
	ErrForbiddenAction    = errors.New("action not allowed")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// ErrRefreshReuse сигнализирует о предъявлении отозванного refresh токена.
// Это частный случай ErrInvalidToken.
var ErrRefreshReuse = fmt.Errorf("%w: refresh token is not registered", ErrInvalidToken)

// Error carries a client-facing message alongside its kind.
type Error struct {
	Kind    error
	Message string
}

func (e *Error) Error() string {
	return e.Kind.Error() + ": " + e.Message
}

func (e *Error) Unwrap() error {
	return e.Kind
}

// New returns an error of the given kind with a client-facing message.
func New(kind error, format string, args ...any) error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Message returns the client-facing text for err.
// Unknown errors yield a generic message so internals never leak.
func Message(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	if StatusFor(err) == http.StatusInternalServerError {
		return "internal server error"
	}
	for _, kind := range kinds {
		if errors.Is(err, kind) {
			return kind.Error()
		}
	}
	return err.Error()
}

var kinds = []error{
	ErrValidation,
	ErrConflict,
	ErrUnauthenticated,
	ErrInvalidToken,
	ErrNotFound,
	ErrForbiddenAction,
	ErrInvalidCredentials,
}

// StatusFor maps an error kind to an HTTP status.
// ErrInvalidToken maps to 401 here; the refresh and logout endpoints
// answer 403 for the same kind.
func StatusFor(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrValidation),
		errors.Is(err, ErrConflict),
		errors.Is(err, ErrForbiddenAction),
		errors.Is(err, ErrInvalidCredentials):
		return http.StatusBadRequest
	case errors.Is(err, ErrUnauthenticated), errors.Is(err, ErrInvalidToken):
		return http.StatusUnauthorized
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
