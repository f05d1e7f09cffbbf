package bot

import (
	"context"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"lemiel/internal/middleware"
)

// Время на обработку одного обновления, включая сохранение состояния
const updateTimeout = 15 * time.Second

// CommandRecorder учитывает выполненные команды
type CommandRecorder interface {
	RecordUserCommand(command, userKey string)
	RecordResponseTime(duration time.Duration)
}

// Команды только для администраторов whitelist
var adminCommands = map[string]bool{
	"admin": true, "addplug": true, "delplug": true, "adddept": true, "deldept": true,
	"pending": true, "approve": true, "reject": true, "delreview": true,
	"logs": true, "clearlogs": true, "addadmin": true, "deladmin": true, "export": true,
}

// Кнопки модерации
var adminCallbacks = map[string]bool{
	callbackApprove:      true,
	callbackReject:       true,
	callbackDeleteReview: true,
	callbackDeletePlug:   true,
}

// Router обрабатывает маршрутизацию команд
type Router struct {
	handlers   *Handlers
	middleware *middleware.Middleware
	adminOnly  func(update tgbotapi.Update, next func(tgbotapi.Update))
	recorder   CommandRecorder
	logger     *zap.Logger
}

var _ UpdateHandler = (*Router)(nil)

// NewRouter создает новый роутер
func NewRouter(handlers *Handlers, mw *middleware.Middleware, logger *zap.Logger) *Router {
	return &Router{
		handlers:   handlers,
		middleware: mw,
		adminOnly:  middleware.AdminOnlyMiddleware(handlers.state, logger, handlers.deny),
		logger:     logger,
	}
}

// SetMetrics подключает учет команд
func (r *Router) SetMetrics(recorder CommandRecorder) {
	r.recorder = recorder
}

// HandleUpdate обрабатывает обновление от Telegram
func (r *Router) HandleUpdate(update tgbotapi.Update) {
	// Применяем все middleware
	r.middleware.ProcessWithMiddleware(update, func(update tgbotapi.Update) {
		if requiresAdmin(update) {
			r.adminOnly(update, r.dispatch)
			return
		}
		r.dispatch(update)
	})
}

func (r *Router) dispatch(update tgbotapi.Update) {
	ctx, cancel := context.WithTimeout(context.Background(), updateTimeout)
	defer cancel()

	// Обработка сообщений
	if update.Message != nil {
		r.handleMessage(ctx, update.Message)
	}

	// Обработка callback query
	if update.CallbackQuery != nil {
		r.handlers.CallbackQuery(ctx, update.CallbackQuery)
	}
}

// requiresAdmin определяет админ-команды и кнопки модерации
func requiresAdmin(update tgbotapi.Update) bool {
	if message := update.Message; message != nil && message.IsCommand() {
		return adminCommands[strings.ToLower(message.Command())]
	}
	if query := update.CallbackQuery; query != nil {
		prefix, _ := parseCallback(query.Data)
		return adminCallbacks[prefix]
	}
	return false
}

// handleMessage обрабатывает текстовые сообщения
func (r *Router) handleMessage(ctx context.Context, message *tgbotapi.Message) {
	if !message.IsCommand() || message.From == nil {
		return
	}

	command := strings.ToLower(message.Command())
	if r.recorder != nil {
		start := time.Now()
		defer func() {
			r.recorder.RecordUserCommand(command, "tg:"+strconv.FormatInt(message.From.ID, 10))
			r.recorder.RecordResponseTime(time.Since(start))
		}()
	}

	h := r.handlers
	switch command {
	case "start":
		h.Start(message)
	case "help":
		h.Help(message)
	case "plugs":
		h.Plugs(message)
	case "plug":
		h.Plug(message)
	case "review":
		h.Review(ctx, message)
	case "admin":
		h.Admin(message)
	case "addplug":
		h.AddPlug(ctx, message)
	case "delplug":
		h.DeletePlug(ctx, message)
	case "adddept":
		h.AddDepartment(ctx, message)
	case "deldept":
		h.DeleteDepartment(ctx, message)
	case "pending":
		h.Pending(message)
	case "approve":
		h.Approve(ctx, message)
	case "reject":
		h.Reject(ctx, message)
	case "delreview":
		h.DeleteReview(ctx, message)
	case "logs":
		h.Logs(message)
	case "clearlogs":
		h.ClearLogs(ctx, message)
	case "addadmin":
		h.AddAdmin(ctx, message)
	case "deladmin":
		h.RemoveAdmin(ctx, message)
	case "export":
		h.Export(message)
	default:
		h.Unknown(message)
	}
}

// RegisterBotCommands регистрирует команды бота
func (r *Router) RegisterBotCommands() []tgbotapi.BotCommand {
	return r.handlers.RegisterBotCommands()
}

// Cleanup очищает устаревшие записи rate limiter и debouncer
func (r *Router) Cleanup() {
	r.middleware.Cleanup()
}
