package bot

import (
	"context"
	"fmt"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

// UpdateHandler обрабатывает обновления и отдает меню команд
type UpdateHandler interface {
	HandleUpdate(update tgbotapi.Update)
	RegisterBotCommands() []tgbotapi.BotCommand
}

// Client представляет клиент Telegram Bot API
type Client struct {
	bot    *tgbotapi.BotAPI
	sender *TelegramSender
	logger *zap.Logger
}

// NewClient создает новый клиент Telegram
func NewClient(botToken string, logger *zap.Logger) (*Client, error) {
	bot, err := tgbotapi.NewBotAPI(botToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot API: %w", err)
	}

	bot.Debug = false
	logger.Info("Telegram bot created", zap.String("username", bot.Self.UserName))

	return &Client{
		bot:    bot,
		sender: NewTelegramSender(bot, logger),
		logger: logger,
	}, nil
}

// Sender возвращает отправитель сообщений
func (c *Client) Sender() Sender {
	return c.sender
}

// Start запускает long polling и передает обновления обработчику
func (c *Client) Start(ctx context.Context, handler UpdateHandler) error {
	c.logger.Info("Bot started", zap.String("username", c.bot.Self.UserName))

	// Удаляем webhook если есть
	if _, err := c.bot.Request(tgbotapi.DeleteWebhookConfig{DropPendingUpdates: true}); err != nil {
		c.logger.Error("Failed to delete webhook", zap.Error(err))
		return fmt.Errorf("failed to delete webhook: %w", err)
	}

	if err := c.sender.SetBotCommands(handler.RegisterBotCommands()); err != nil {
		c.logger.Error("Failed to set bot commands", zap.Error(err))
		return err
	}

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	u.AllowedUpdates = []string{"message", "callback_query"}

	c.logger.Info("Starting to fetch updates")
	updatesChan := c.bot.GetUpdatesChan(u)
	defer c.bot.StopReceivingUpdates()

	reconnectDelay := 10 * time.Second // Задержка между попытками реконнекта

	for {
		select {
		case <-ctx.Done():
			c.logger.Info("Update loop cancelled by context")
			return ctx.Err()
		case update, ok := <-updatesChan:
			if !ok {
				c.logger.Warn("Update channel closed, will try to reconnect after delay")
				select {
				case <-ctx.Done():
					return ctx.Err()
				case <-time.After(reconnectDelay):
					return fmt.Errorf("update channel closed, reconnecting")
				}
			}

			c.logger.Debug("Processing update",
				zap.Int("update_id", update.UpdateID),
				zap.String("update_type", updateType(update)))

			handler.HandleUpdate(update)
		}
	}
}

// updateType определяет тип обновления
func updateType(update tgbotapi.Update) string {
	if update.Message != nil {
		if update.Message.IsCommand() {
			return "command"
		}
		return "message"
	}
	if update.CallbackQuery != nil {
		return "callback"
	}
	return "unknown"
}
