package middleware

import (
	"log/slog"
	"math"
	"net"
	"net/http"
	"net/netip"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/iudanet/readshare/internal/server/handlers"
)

// RateLimiter ограничивает число запросов с одного ключа (IP) за окно.
// Бакет пополняется целиком, когда с последнего пополнения прошло окно.
type RateLimiter struct {
	buckets map[string]*bucket
	logger  *slog.Logger
	now     func() time.Time
	stopC   chan struct{}
	trusted []netip.Prefix
	rate    int
	window  time.Duration
	mu      sync.Mutex
	stop    sync.Once
}

type bucket struct {
	lastRefill time.Time
	tokens     int
}

// NewRateLimiter создает rate limiter и запускает очистку неактивных бакетов.
// rate - число запросов за окно window. Заголовкам X-Forwarded-For и X-Real-IP
// верим только если запрос пришел с адреса из trusted.
func NewRateLimiter(rate int, window time.Duration, logger *slog.Logger, trusted ...netip.Prefix) *RateLimiter {
	rl := &RateLimiter{
		buckets: make(map[string]*bucket),
		logger:  logger,
		now:     time.Now,
		stopC:   make(chan struct{}),
		trusted: trusted,
		rate:    rate,
		window:  window,
	}

	go rl.cleanupLoop()

	return rl
}

func (rl *RateLimiter) cleanupLoop() {
	ticker := time.NewTicker(rl.window * 2)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.cleanup()
		case <-rl.stopC:
			return
		}
	}
}

// cleanup удаляет бакеты, не пополнявшиеся дольше двух окон
func (rl *RateLimiter) cleanup() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	for key, b := range rl.buckets {
		if now.Sub(b.lastRefill) > rl.window*2 {
			delete(rl.buckets, key)
		}
	}
}

// Stop останавливает goroutine очистки; повторный вызов безопасен
func (rl *RateLimiter) Stop() {
	rl.stop.Do(func() { close(rl.stopC) })
}

// Allow списывает токен для key. Если токенов нет, возвращает false и
// время до следующего пополнения.
func (rl *RateLimiter) Allow(key string) (bool, time.Duration) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	b, ok := rl.buckets[key]
	if !ok {
		b = &bucket{tokens: rl.rate, lastRefill: now}
		rl.buckets[key] = b
	}

	if elapsed := now.Sub(b.lastRefill); elapsed >= rl.window {
		b.tokens = rl.rate
		b.lastRefill = now
	}

	if b.tokens > 0 {
		b.tokens--
		return true, 0
	}

	return false, rl.window - now.Sub(b.lastRefill)
}

// Middleware отвечает 429 с Retry-After, когда лимит для IP клиента исчерпан
func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := clientIP(r, rl.trusted)

		allowed, retryAfter := rl.Allow(key)
		if !allowed {
			rl.logger.WarnContext(r.Context(), "rate limit exceeded",
				slog.String("ip", key),
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path))

			w.Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(retryAfter.Seconds()))))
			_ = handlers.WriteError(w, http.StatusTooManyRequests, "rate limit exceeded, please try again later")
			return
		}

		next.ServeHTTP(w, r)
	})
}

// clientIP извлекает IP адрес клиента из запроса.
// Без доверенного прокси в RemoteAddr заголовки игнорируются. За доверенным прокси
// X-Forwarded-For читается справа налево до первого недоверенного адреса.
func clientIP(r *http.Request, trusted []netip.Prefix) string {
	remote := remoteHost(r.RemoteAddr)
	if !isTrusted(remote, trusted) {
		return remote
	}

	if xff := r.Header.Values("X-Forwarded-For"); len(xff) > 0 {
		hops := strings.Split(strings.Join(xff, ","), ",")
		for i := len(hops) - 1; i >= 0; i-- {
			hop := strings.TrimSpace(hops[i])
			if hop == "" {
				continue
			}
			if !isTrusted(hop, trusted) || i == 0 {
				return hop
			}
		}
	}

	if xri := strings.TrimSpace(r.Header.Get("X-Real-IP")); xri != "" {
		return xri
	}

	return remote
}

func remoteHost(addr string) string {
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		return addr
	}
	return host
}

func isTrusted(ip string, trusted []netip.Prefix) bool {
	if len(trusted) == 0 {
		return false
	}
	addr, err := netip.ParseAddr(ip)
	if err != nil {
		return false
	}
	addr = addr.Unmap()
	for _, p := range trusted {
		if p.Contains(addr) {
			return true
		}
	}
	return false
}
