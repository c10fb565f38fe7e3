package handlers

import (
	"context"
	"net/http"
	"strings"
)

// contextKey тип для ключей контекста
type contextKey string

// UserIDKey ключ для хранения user_id в контексте
const UserIDKey contextKey = "user_id"

// WithUserID returns a copy of ctx carrying the authenticated principal ID
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, UserIDKey, userID)
}

// GetUserID извлекает user_id из контекста запроса
func GetUserID(ctx context.Context) (string, bool) {
	userID, ok := ctx.Value(UserIDKey).(string)
	return userID, ok && userID != ""
}

// ExtractToken returns the token from "Authorization: <scheme> <token>".
// The scheme is matched case-insensitively against schemes.
// An absent header, an unknown scheme or an empty token yield "".
func ExtractToken(r *http.Request, schemes []string) string {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if header == "" {
		return ""
	}

	scheme, token, found := strings.Cut(header, " ")
	if !found {
		return ""
	}

	for _, s := range schemes {
		if strings.EqualFold(scheme, s) {
			return strings.TrimSpace(token)
		}
	}
	return ""
}
