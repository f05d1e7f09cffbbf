package bot

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"lemiel/internal/model"
	"lemiel/internal/render"
)

// Start обрабатывает команду /start
func (h *Handlers) Start(message *tgbotapi.Message) {
	text := "👋 <b>Bienvenue sur Lemiel !</b>\n\n" +
		"L'annuaire des plugs par département. Choisissez une zone :"
	h.sendDepartmentPicker(message.Chat.ID, text)
}

// Help обрабатывает команду /help
func (h *Handlers) Help(message *tgbotapi.Message) {
	text := "📖 <b>Commandes disponibles</b>\n\n" +
		"/start - Démarrer\n" +
		"/help - Afficher cette aide\n" +
		"/plugs - Choisir un département\n" +
		"/plugs [département] - Plugs d'un département, ex. /plugs 54\n" +
		"/plug &lt;id&gt; - Fiche d'un plug\n" +
		"/review &lt;id&gt; &lt;1-5&gt; &lt;commentaire&gt; - Laisser un avis"

	if h.isAdmin(message.From) {
		text += "\n\n/admin - Commandes d'administration"
	}
	h.sendMessage(message.Chat.ID, text)
}

// Plugs обрабатывает команду /plugs [департамент]
func (h *Handlers) Plugs(message *tgbotapi.Message) {
	code := strings.TrimSpace(message.CommandArguments())
	if code == "" {
		h.sendDepartmentPicker(message.Chat.ID, "📍 Choisissez un département :")
		return
	}
	h.sendDepartment(message.Chat.ID, code)
}

// sendDepartmentPicker отправляет клавиатуру департаментов
func (h *Handlers) sendDepartmentPicker(chatID int64, text string) {
	departments, counts := h.state.DepartmentList()
	total := len(h.state.UniquePlugs())
	h.sendMessageWithMarkup(chatID, text, departmentKeyboard(departments, counts, total))
}

// sendDepartment отправляет список плагов департамента или всех плагов
func (h *Handlers) sendDepartment(chatID int64, code string) {
	if strings.EqualFold(code, render.FilterAll) {
		h.sendMessage(chatID, formatPlugList("🌍 <b>Tous les plugs</b>", h.state.UniquePlugs()))
		return
	}

	dept, ok := h.state.Departments()[code]
	if !ok {
		h.sendError(chatID, "department", model.NewNotFound("department", code))
		return
	}
	title := fmt.Sprintf("%s <b>%s</b>", emojiOr(dept.Emoji), html(render.DepartmentLabel(dept)))
	h.sendMessage(chatID, formatPlugList(title, h.state.DepartmentPlugs(code)))
}

// Plug обрабатывает команду /plug <id>
func (h *Handlers) Plug(message *tgbotapi.Message) {
	chatID := message.Chat.ID
	id, err := strconv.Atoi(strings.TrimSpace(message.CommandArguments()))
	if err != nil {
		h.sendMessage(chatID, "Utilisation : /plug &lt;id&gt;\nExemple : /plug 1")
		return
	}

	plug, err := h.state.Plug(id)
	if err != nil {
		h.sendError(chatID, "plug", err)
		return
	}

	text := h.formatPlug(plug, h.state.Departments(), h.state.Reviews().Approved)
	if h.isAdmin(message.From) {
		h.sendMessageWithMarkup(chatID, text, plugAdminKeyboard(plug.ID))
		return
	}
	h.sendMessage(chatID, text)
}

// Review обрабатывает команду /review <id> <1-5> <комментарий>
func (h *Handlers) Review(ctx context.Context, message *tgbotapi.Message) {
	chatID := message.Chat.ID
	usage := "Utilisation : /review &lt;id&gt; &lt;1-5&gt; &lt;commentaire&gt;\nExemple : /review 1 5 Très pro, livraison rapide"

	args := strings.Fields(message.CommandArguments())
	if len(args) < 3 {
		h.sendMessage(chatID, usage)
		return
	}
	plugID, err := strconv.Atoi(args[0])
	if err != nil {
		h.sendMessage(chatID, usage)
		return
	}
	rating, err := strconv.Atoi(args[1])
	if err != nil {
		h.sendMessage(chatID, "⚠️ La note doit être un nombre entre 1 et 5.")
		return
	}

	review, err := h.state.SubmitReview(ctx, model.ReviewInput{
		PlugID:   plugID,
		Username: username(message.From),
		Rating:   rating,
		Comment:  strings.Join(args[2:], " "),
	})
	if err != nil {
		h.sendError(chatID, "review", err)
		return
	}

	h.logger.Info("Review submitted via bot",
		zap.Int64("review_id", review.ID),
		zap.Int("plug_id", plugID),
		zap.Int64("user_id", message.From.ID))
	h.sendMessage(chatID, fmt.Sprintf("🙏 Merci ! Votre avis #%d est en attente de modération.", review.ID))
}

// Unknown обрабатывает неизвестные команды
func (h *Handlers) Unknown(message *tgbotapi.Message) {
	h.sendMessage(message.Chat.ID, "Commande inconnue. Utilisez /help")
}
