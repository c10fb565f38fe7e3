package middleware

import (
	"net/http"
	"time"
)

// RequestObserver records finished requests
type RequestObserver interface {
	ObserveRequest(method, path string, status int, elapsed time.Duration)
}

// Metrics передает метод, путь, статус и длительность каждого запроса в observer
func Metrics(observer RequestObserver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := newStatusRecorder(w)

			next.ServeHTTP(rec, r)

			observer.ObserveRequest(r.Method, r.URL.Path, rec.statusCode, time.Since(start))
		})
	}
}
