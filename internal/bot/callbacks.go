package bot

import (
	"context"
	"fmt"
	"strconv"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

// CallbackQuery обрабатывает нажатия inline-кнопок
func (h *Handlers) CallbackQuery(ctx context.Context, query *tgbotapi.CallbackQuery) {
	if query.Message == nil {
		h.answer(query, "")
		return
	}
	chatID := query.Message.Chat.ID
	prefix, value := parseCallback(query.Data)

	switch prefix {
	case callbackDepartment:
		h.answer(query, "")
		h.sendDepartment(chatID, value)
	case callbackApprove, callbackReject, callbackDeleteReview:
		h.moderateFromButton(ctx, query, prefix, value)
	case callbackDeletePlug:
		h.deletePlugFromButton(ctx, query, value)
	default:
		h.logger.Warn("Unknown callback", zap.String("data", query.Data))
		h.answer(query, "Action inconnue")
	}
}

// deny отвечает пользователю вне whitelist на админ-команду или кнопку
func (h *Handlers) deny(update tgbotapi.Update) {
	switch {
	case update.CallbackQuery != nil:
		h.answer(update.CallbackQuery, plain(msgForbidden))
	case update.Message != nil:
		h.sendMessage(update.Message.Chat.ID, msgForbidden)
	}
}

func (h *Handlers) answer(query *tgbotapi.CallbackQuery, text string) {
	if err := h.sender.AnswerCallbackQuery(query.ID, text); err != nil {
		h.logger.Warn("Failed to answer callback", zap.String("data", query.Data), zap.Error(err))
	}
}

func (h *Handlers) moderateFromButton(ctx context.Context, query *tgbotapi.CallbackQuery, prefix, value string) {
	id, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		h.answer(query, "Identifiant invalide")
		return
	}

	admin := username(query.From)
	var done string
	switch prefix {
	case callbackApprove:
		_, err = h.state.ApproveReview(ctx, admin, id)
		done = fmt.Sprintf("✅ Avis #%d approuvé par @%s", id, html(admin))
	case callbackReject:
		_, err = h.state.RejectReview(ctx, admin, id)
		done = fmt.Sprintf("❌ Avis #%d rejeté par @%s", id, html(admin))
	default:
		_, err = h.state.DeleteReview(ctx, admin, id)
		done = fmt.Sprintf("🗑 Avis #%d supprimé par @%s", id, html(admin))
	}

	h.finishButton(query, done, err)
}

func (h *Handlers) deletePlugFromButton(ctx context.Context, query *tgbotapi.CallbackQuery, value string) {
	id, err := strconv.Atoi(value)
	if err != nil {
		h.answer(query, "Identifiant invalide")
		return
	}

	admin := username(query.From)
	plug, err := h.state.DeletePlug(ctx, admin, id)
	h.finishButton(query, fmt.Sprintf("🗑 Plug #%d %s supprimé par @%s", id, html(plug.Name), html(admin)), err)
}

// finishButton отвечает на нажатие и заменяет сообщение результатом
func (h *Handlers) finishButton(query *tgbotapi.CallbackQuery, done string, err error) {
	if err != nil {
		text := userMessage(err)
		if text == msgInternalError {
			h.logger.Error("Callback failed", zap.String("data", query.Data), zap.Error(err))
		}
		h.answer(query, plain(text))
		return
	}

	h.answer(query, "OK")
	if editErr := h.sender.EditMessage(query.Message.Chat.ID, query.Message.MessageID, done); editErr != nil {
		h.logger.Warn("Failed to edit moderated message", zap.Error(editErr))
	}
}
