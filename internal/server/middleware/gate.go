package middleware

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/iudanet/readshare/internal/apperr"
	"github.com/iudanet/readshare/internal/server/handlers"
)

// Authenticator verifies an access token and returns the principal ID
type Authenticator interface {
	Authenticate(accessToken string) (string, error)
}

// GateConfig задает параметры проверки access токена
type GateConfig struct {
	Schemes        []string // допустимые префиксы Authorization, сравниваются без учета регистра
	PublicPrefixes []string // пути, пропускаемые без токена
}

// Gate создает middleware, которое пропускает запросы к публичным префиксам,
// а для остальных требует валидный access токен.
// Отсутствие токена и невалидный токен дают 401. Хранилище не используется.
func Gate(logger *slog.Logger, auth Authenticator, cfg GateConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if isPublic(r.URL.Path, cfg.PublicPrefixes) {
				next.ServeHTTP(w, r)
				return
			}

			userID, err := auth.Authenticate(handlers.ExtractToken(r, cfg.Schemes))
			if err != nil {
				logger.DebugContext(r.Context(), "request rejected by gate",
					slog.String("path", r.URL.Path),
					slog.Any("error", err))
				_ = handlers.WriteError(w, http.StatusUnauthorized, apperr.Message(err))
				return
			}

			next.ServeHTTP(w, r.WithContext(handlers.WithUserID(r.Context(), userID)))
		})
	}
}

// isPublic: префикс, оканчивающийся на "/", совпадает с поддеревом,
// без "/" на конце только с точным путем
func isPublic(path string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasSuffix(p, "/") {
			if strings.HasPrefix(path, p) {
				return true
			}
			continue
		}
		if path == p {
			return true
		}
	}
	return false
}
