// Package middleware содержит middleware компоненты.
package middleware

import (
	"fmt"
	"net"
	"net/http"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

// Middleware объединяет ограничитель запросов и debouncer для бота
type Middleware struct {
	rateLimiter RateLimiterInterface
	debouncer   DebouncerInterface
	logger      *zap.Logger
}

// New создает новый middleware
func New(rateLimiter RateLimiterInterface, logger *zap.Logger) *Middleware {
	return &Middleware{
		rateLimiter: rateLimiter,
		debouncer:   NewDebouncer(1*time.Second, logger),
		logger:      logger,
	}
}

// Process применяет rate limiting к обновлению
func (m *Middleware) Process(update tgbotapi.Update) bool {
	from := update.SentFrom()
	if from == nil {
		return true
	}
	key := fmt.Sprintf("tg:%d", from.ID)
	if !m.rateLimiter.Allow(key) {
		m.logger.Warn("Rate limit exceeded", zap.Int64("user_id", from.ID))
		return false
	}
	return true
}

// ProcessWithMiddleware применяет все middleware к обновлению
func (m *Middleware) ProcessWithMiddleware(update tgbotapi.Update, handler func(tgbotapi.Update)) {
	RecoveryMiddlewareWithUpdate(m.logger)(update, func(update tgbotapi.Update) {
		LoggingMiddleware(m.logger)(update, func(update tgbotapi.Update) {
			DebounceMiddleware(m.debouncer, m.logger)(update, func(update tgbotapi.Update) {
				DebounceCallbackMiddleware(m.debouncer, m.logger)(update, func(update tgbotapi.Update) {
					if m.Process(update) {
						handler(update)
					}
				})
			})
		})
	})
}

// Cleanup очищает устаревшие записи в middleware
func (m *Middleware) Cleanup() {
	m.rateLimiter.Cleanup()
	m.debouncer.Cleanup()
}

// RateLimit ограничивает HTTP-запросы по ключам клиента; при превышении любого отвечает 429
func RateLimit(limiter RateLimiterInterface, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			for _, key := range ClientKeys(r) {
				if limiter.Allow(key) {
					continue
				}
				logger.Warn("HTTP rate limit exceeded",
					zap.String("request_id", RequestIDFromContext(r.Context())),
					zap.String("key", key))
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusTooManyRequests)
				_, _ = w.Write([]byte(`{"error":"too many requests"}`))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// ClientKeys возвращает ключи клиента. Адрес соединения есть всегда,
// имя Telegram из заголовка добавляется вторым ключом: сменой заголовка лимит не обойти.
func ClientKeys(r *http.Request) []string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	keys := []string{"ip:" + host}
	if username := UsernameFromRequest(r); username != "" {
		keys = append(keys, "user:"+username)
	}
	return keys
}

// Chain применяет HTTP middleware в порядке перечисления (первый - внешний)
func Chain(h http.Handler, middlewares ...func(http.Handler) http.Handler) http.Handler {
	for i := len(middlewares) - 1; i >= 0; i-- {
		h = middlewares[i](h)
	}
	return h
}
