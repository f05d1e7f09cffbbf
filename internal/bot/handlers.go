package bot

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"lemiel/internal/links"
	"lemiel/internal/model"
	"lemiel/internal/service"
)

// Лимит Telegram - 4096 символов, оставляем запас под HTML
const maxMessageLength = 4000

// Handlers содержит все обработчики команд
type Handlers struct {
	state  *service.State
	sender Sender
	links  *links.AllowList
	logger *zap.Logger
}

// New создает новый экземпляр обработчиков
func New(state *service.State, sender Sender, allow *links.AllowList, logger *zap.Logger) *Handlers {
	return &Handlers{
		state:  state,
		sender: sender,
		links:  allow,
		logger: logger,
	}
}

// username возвращает имя пользователя Telegram без "@"
func username(user *tgbotapi.User) string {
	if user == nil {
		return ""
	}
	return user.UserName
}

// isAdmin проверяет, является ли пользователь администратором
func (h *Handlers) isAdmin(user *tgbotapi.User) bool {
	name := username(user)
	if name == "" {
		return false
	}
	return h.state.IsAdmin(name)
}

// sendMessage отправляет сообщение, разбивая длинный текст на части
func (h *Handlers) sendMessage(chatID int64, text string) {
	for _, part := range splitMessage(text, maxMessageLength) {
		if err := h.sender.SendMessage(chatID, part); err != nil {
			h.logger.Error("Failed to send message", zap.Int64("chat_id", chatID), zap.Error(err))
			return
		}
	}
}

// sendMessageWithMarkup отправляет сообщение с клавиатурой
func (h *Handlers) sendMessageWithMarkup(chatID int64, text string, markup any) {
	if err := h.sender.SendMessageWithMarkup(chatID, text, markup); err != nil {
		h.logger.Error("Failed to send message with markup", zap.Int64("chat_id", chatID), zap.Error(err))
	}
}

// sendError сообщает пользователю об ошибке; внутренние ошибки только логируются
func (h *Handlers) sendError(chatID int64, action string, err error) {
	text := userMessage(err)
	if text == msgInternalError {
		h.logger.Error("Command failed", zap.String("action", action), zap.Int64("chat_id", chatID), zap.Error(err))
	} else {
		h.logger.Debug("Command rejected", zap.String("action", action), zap.Error(err))
	}
	h.sendMessage(chatID, text)
}

const (
	msgForbidden     = "⛔ Vous n'avez pas les droits pour exécuter cette commande."
	msgInternalError = "❌ Une erreur interne est survenue, réessayez plus tard."
)

// userMessage переводит ошибку предметной области в текст для пользователя
func userMessage(err error) string {
	var notFound model.NotFoundError
	var dup model.DuplicateError

	switch {
	case errors.Is(err, model.ErrForbidden):
		return msgForbidden
	case errors.As(err, &notFound):
		return fmt.Sprintf("🔍 Introuvable : %s %s.", entityLabel(notFound.Entity), html(notFound.Key))
	case errors.Is(err, model.ErrNotFound):
		return "🔍 Élément introuvable."
	case errors.As(err, &dup):
		return fmt.Sprintf("⚠️ Existe déjà : %s %s.", entityLabel(dup.Entity), html(dup.Key))
	case errors.Is(err, model.ErrSelfRemoval):
		return "⚠️ Vous ne pouvez pas vous retirer vous-même des administrateurs."
	case model.IsValidation(err):
		return "⚠️ Données invalides : " + html(err.Error())
	default:
		return msgInternalError
	}
}

func entityLabel(entity string) string {
	switch entity {
	case "plug":
		return "plug"
	case "department":
		return "département"
	case "pending review":
		return "avis en attente"
	case "approved review":
		return "avis publié"
	case "admin":
		return "administrateur"
	default:
		return entity
	}
}

// html экранирует пользовательский текст для режима HTML
func html(s string) string {
	return tgEscaper.Replace(s)
}

var tgEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;", `"`, "&quot;")

// splitMessage делит текст по границам абзацев так, чтобы каждая часть
// не превышала limit байт
func splitMessage(text string, limit int) []string {
	if len(text) <= limit {
		return []string{text}
	}

	var parts []string
	var current strings.Builder
	for _, block := range strings.Split(text, "\n\n") {
		if current.Len() > 0 && current.Len()+2+len(block) > limit {
			parts = append(parts, current.String())
			current.Reset()
		}
		for len(block) > limit {
			cut := strings.LastIndex(block[:limit], "\n")
			if cut <= 0 {
				cut = limit
				for cut > 0 && !utf8.RuneStart(block[cut]) {
					cut--
				}
			}
			parts = append(parts, block[:cut])
			block = strings.TrimPrefix(block[cut:], "\n")
		}
		if current.Len() > 0 {
			current.WriteString("\n\n")
		}
		current.WriteString(block)
	}
	if current.Len() > 0 {
		parts = append(parts, current.String())
	}
	return parts
}

var tgUnescaper = strings.NewReplacer("&amp;", "&", "&lt;", "<", "&gt;", ">", "&quot;", `"`)

// plain возвращает текст без HTML-сущностей для ответов на callback
func plain(s string) string {
	return tgUnescaper.Replace(s)
}
