// Package middleware содержит middleware для проверки прав администратора.
package middleware

import (
	"net/http"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

// UsernameHeader - заголовок с именем пользователя Telegram, переданным мини-приложением
const UsernameHeader = "X-Telegram-Username"

// AdminChecker проверяет принадлежность к whitelist
type AdminChecker interface {
	IsAdmin(username string) bool
}

// UsernameFromRequest возвращает имя пользователя из заголовка
func UsernameFromRequest(r *http.Request) string {
	return strings.TrimPrefix(strings.TrimSpace(r.Header.Get(UsernameHeader)), "@")
}

// AdminOnlyMiddleware пропускает обновление только от администраторов whitelist
func AdminOnlyMiddleware(checker AdminChecker, logger *zap.Logger, deny func(update tgbotapi.Update)) func(update tgbotapi.Update, next func(tgbotapi.Update)) {
	return func(update tgbotapi.Update, next func(tgbotapi.Update)) {
		from := update.SentFrom()
		if from == nil {
			logger.Warn("No user information in update", zap.Int("update_id", update.UpdateID))
			return
		}

		if !checker.IsAdmin(from.UserName) {
			logger.Warn("Unauthorized access attempt",
				zap.String("user", getUserIdentifier(from)),
				zap.Int("update_id", update.UpdateID))
			if deny != nil {
				deny(update)
			}
			return
		}

		next(update)
	}
}

// AdminOnly отклоняет HTTP-запрос с 403, если пользователь не в whitelist.
// Сервисный слой повторяет проверку для каждой операции.
func AdminOnly(checker AdminChecker, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			username := UsernameFromRequest(r)
			if username == "" || !checker.IsAdmin(username) {
				logger.Warn("Unauthorized access attempt",
					zap.String("request_id", RequestIDFromContext(r.Context())),
					zap.String("user", username),
					zap.String("path", r.URL.Path))
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusForbidden)
				_, _ = w.Write([]byte(`{"error":"forbidden: admin access required"}`))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
