// Package bot содержит Telegram-бота каталога.
package bot

import (
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

// Sender определяет интерфейс для отправки сообщений в Telegram
type Sender interface {
	SendMessage(chatID int64, text string) error
	SendMessageWithMarkup(chatID int64, text string, markup any) error
	EditMessage(chatID int64, messageID int, text string) error
	AnswerCallbackQuery(callbackID, text string) error
	SendDocument(chatID int64, name string, data []byte, caption string) error
	SetBotCommands(commands []tgbotapi.BotCommand) error
}

// TelegramSender оборачивает tgbotapi.BotAPI
type TelegramSender struct {
	api    *tgbotapi.BotAPI
	logger *zap.Logger
}

var _ Sender = (*TelegramSender)(nil)

// NewTelegramSender создает новый TelegramSender
func NewTelegramSender(api *tgbotapi.BotAPI, logger *zap.Logger) *TelegramSender {
	return &TelegramSender{
		api:    api,
		logger: logger,
	}
}

// SendMessage отправляет сообщение в режиме HTML
func (t *TelegramSender) SendMessage(chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.DisableWebPagePreview = true

	if _, err := t.api.Send(msg); err != nil {
		t.logger.Error("Failed to send message", zap.Int64("chat_id", chatID), zap.Error(err))
		return fmt.Errorf("failed to send message: %w", err)
	}
	return nil
}

// SendMessageWithMarkup отправляет сообщение с клавиатурой
func (t *TelegramSender) SendMessageWithMarkup(chatID int64, text string, markup any) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.DisableWebPagePreview = true
	msg.ReplyMarkup = markup

	if _, err := t.api.Send(msg); err != nil {
		t.logger.Error("Failed to send message with markup", zap.Int64("chat_id", chatID), zap.Error(err))
		return fmt.Errorf("failed to send message with keyboard: %w", err)
	}
	return nil
}

// EditMessage заменяет текст сообщения и убирает клавиатуру
func (t *TelegramSender) EditMessage(chatID int64, messageID int, text string) error {
	edit := tgbotapi.NewEditMessageText(chatID, messageID, text)
	edit.ParseMode = tgbotapi.ModeHTML

	if _, err := t.api.Send(edit); err != nil {
		t.logger.Error("Failed to edit message",
			zap.Int64("chat_id", chatID),
			zap.Int("message_id", messageID),
			zap.Error(err))
		return fmt.Errorf("failed to edit message: %w", err)
	}
	return nil
}

// AnswerCallbackQuery отвечает на callback query
func (t *TelegramSender) AnswerCallbackQuery(callbackID, text string) error {
	if _, err := t.api.Request(tgbotapi.NewCallback(callbackID, text)); err != nil {
		return fmt.Errorf("failed to answer callback query: %w", err)
	}
	return nil
}

// SendDocument отправляет файл
func (t *TelegramSender) SendDocument(chatID int64, name string, data []byte, caption string) error {
	doc := tgbotapi.NewDocument(chatID, tgbotapi.FileBytes{Name: name, Bytes: data})
	doc.Caption = caption

	if _, err := t.api.Send(doc); err != nil {
		t.logger.Error("Failed to send document", zap.Int64("chat_id", chatID), zap.String("name", name), zap.Error(err))
		return fmt.Errorf("failed to send document: %w", err)
	}
	return nil
}

// SetBotCommands устанавливает меню команд
func (t *TelegramSender) SetBotCommands(commands []tgbotapi.BotCommand) error {
	if _, err := t.api.Request(tgbotapi.NewSetMyCommands(commands...)); err != nil {
		return fmt.Errorf("failed to set bot commands: %w", err)
	}
	return nil
}
