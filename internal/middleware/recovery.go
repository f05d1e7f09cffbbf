// Package middleware содержит middleware для recovery и обработки ошибок.
package middleware

import (
	"net/http"
	"runtime/debug"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

// RecoveryMiddlewareWithUpdate обрабатывает панику с контекстом обновления
func RecoveryMiddlewareWithUpdate(logger *zap.Logger) func(update tgbotapi.Update, next func(tgbotapi.Update)) {
	return func(update tgbotapi.Update, next func(tgbotapi.Update)) {
		defer func() {
			if panicErr := recover(); panicErr != nil {
				fields := []zap.Field{
					zap.Int("update_id", update.UpdateID),
					zap.Any("panic", panicErr),
					zap.String("stack", string(debug.Stack())),
				}
				if update.Message != nil {
					fields = append(fields,
						zap.String("command", update.Message.Command()),
						zap.Int64("chat_id", update.Message.Chat.ID),
						zap.String("user", getUserIdentifier(update.Message.From)))
				}
				logger.Error("Panic recovered in recovery middleware", fields...)
			}
		}()
		next(update)
	}
}

// Recovery перехватывает панику в HTTP-обработчике и отвечает 500
func Recovery(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if panicErr := recover(); panicErr != nil {
					logger.Error("Panic recovered in HTTP handler",
						zap.String("request_id", RequestIDFromContext(r.Context())),
						zap.String("method", r.Method),
						zap.String("path", r.URL.Path),
						zap.Any("panic", panicErr),
						zap.String("stack", string(debug.Stack())))
					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					_, _ = w.Write([]byte(`{"error":"internal server error"}`))
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}
