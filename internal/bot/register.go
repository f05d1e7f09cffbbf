package bot

import tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

// RegisterBotCommands возвращает публичное меню команд.
// Административные команды в меню не попадают.
func (h *Handlers) RegisterBotCommands() []tgbotapi.BotCommand {
	return []tgbotapi.BotCommand{
		{Command: "start", Description: "Démarrer"},
		{Command: "help", Description: "Afficher l'aide"},
		{Command: "plugs", Description: "Plugs par département"},
		{Command: "plug", Description: "Fiche d'un plug"},
		{Command: "review", Description: "Laisser un avis"},
	}
}
