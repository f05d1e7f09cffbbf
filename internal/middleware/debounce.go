// Package middleware содержит middleware для debounce.
package middleware

import (
	"fmt"
	"strings"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

// Команды с особыми таймаутами дебаунса
var commandDebounceTimeouts = map[string]time.Duration{
	"export": 5 * time.Second,
}

// Кнопки модерации дебаунсятся, чтобы двойное нажатие не давало ошибку "не найдено"
var callbackDebouncePrefixes = []string{"approve:", "reject:", "delreview:", "delplug:"}

const callbackDebounceTimeout = 3 * time.Second

// DebouncerInterface определяет интерфейс для debouncer
type DebouncerInterface interface {
	// CanProcessRequest проверяет, можно ли обработать запрос
	CanProcessRequest(key string) bool
	// CanProcessRequestWithTimeout проверяет, можно ли обработать запрос с кастомным таймаутом
	CanProcessRequestWithTimeout(key string, timeout time.Duration) bool
	// Cleanup очищает устаревшие записи
	Cleanup()
}

// Debouncer предотвращает двойные клики
type Debouncer struct {
	requests map[string]time.Time
	mu       sync.Mutex
	timeout  time.Duration
	logger   *zap.Logger
}

var _ DebouncerInterface = (*Debouncer)(nil)

// NewDebouncer создает новый debouncer
func NewDebouncer(timeout time.Duration, logger *zap.Logger) *Debouncer {
	return &Debouncer{
		requests: make(map[string]time.Time),
		timeout:  timeout,
		logger:   logger,
	}
}

// CanProcessRequest проверяет, можно ли обработать запрос
func (d *Debouncer) CanProcessRequest(key string) bool {
	return d.CanProcessRequestWithTimeout(key, d.timeout)
}

// CanProcessRequestWithTimeout проверяет, можно ли обработать запрос с кастомным таймаутом
func (d *Debouncer) CanProcessRequestWithTimeout(key string, timeout time.Duration) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	now := time.Now()
	lastRequest, exists := d.requests[key]

	if !exists || now.Sub(lastRequest) > timeout {
		d.requests[key] = now
		return true
	}

	return false
}

// Cleanup очищает устаревшие записи
func (d *Debouncer) Cleanup() {
	d.mu.Lock()
	defer d.mu.Unlock()

	now := time.Now()
	maxTimeout := d.timeout
	for _, timeout := range commandDebounceTimeouts {
		if timeout > maxTimeout {
			maxTimeout = timeout
		}
	}
	if callbackDebounceTimeout > maxTimeout {
		maxTimeout = callbackDebounceTimeout
	}

	for key, lastRequest := range d.requests {
		if now.Sub(lastRequest) > maxTimeout {
			delete(d.requests, key)
		}
	}
}

// DebounceMiddleware предотвращает повторную отправку одной команды
func DebounceMiddleware(debouncer DebouncerInterface, logger *zap.Logger) func(update tgbotapi.Update, next func(tgbotapi.Update)) {
	return func(update tgbotapi.Update, next func(tgbotapi.Update)) {
		if update.Message == nil || !update.Message.IsCommand() {
			next(update)
			return
		}

		command := update.Message.Command()
		key := fmt.Sprintf("%d:%s", update.Message.Chat.ID, command)

		// Проверяем, есть ли кастомный таймаут для команды
		timeout, hasCustomTimeout := commandDebounceTimeouts[command]
		var canProcess bool

		if hasCustomTimeout {
			canProcess = debouncer.CanProcessRequestWithTimeout(key, timeout)
		} else {
			canProcess = debouncer.CanProcessRequest(key)
		}

		if !canProcess {
			logger.Info("Command debounced",
				zap.String("command", command),
				zap.Int64("chat_id", update.Message.Chat.ID),
				zap.String("user", getUserIdentifier(update.Message.From)),
				zap.Int("update_id", update.UpdateID))
			return
		}

		next(update)
	}
}

// DebounceCallbackMiddleware предотвращает двойные нажатия на кнопки модерации
func DebounceCallbackMiddleware(debouncer DebouncerInterface, logger *zap.Logger) func(update tgbotapi.Update, next func(tgbotapi.Update)) {
	return func(update tgbotapi.Update, next func(tgbotapi.Update)) {
		if update.CallbackQuery == nil || update.CallbackQuery.Message == nil {
			next(update)
			return
		}

		callbackData := update.CallbackQuery.Data
		shouldDebounce := false
		for _, prefix := range callbackDebouncePrefixes {
			if strings.HasPrefix(callbackData, prefix) {
				shouldDebounce = true
				break
			}
		}
		if !shouldDebounce {
			next(update)
			return
		}

		key := fmt.Sprintf("%d:%s", update.CallbackQuery.Message.Chat.ID, callbackData)
		if !debouncer.CanProcessRequestWithTimeout(key, callbackDebounceTimeout) {
			logger.Info("Callback debounced",
				zap.String("callback_data", callbackData),
				zap.Int64("chat_id", update.CallbackQuery.Message.Chat.ID),
				zap.String("user", getUserIdentifier(update.CallbackQuery.From)),
				zap.Int("update_id", update.UpdateID))
			return
		}

		next(update)
	}
}
