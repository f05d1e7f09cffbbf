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

const maxApprovedListed = 10

// requireAdmin отвечает отказом, если пользователь не администратор
func (h *Handlers) requireAdmin(message *tgbotapi.Message) bool {
	if h.isAdmin(message.From) {
		return true
	}
	h.logger.Warn("Admin command denied",
		zap.String("command", message.Command()),
		zap.String("username", username(message.From)))
	h.sendMessage(message.Chat.ID, msgForbidden)
	return false
}

// splitArgs делит аргументы команды по "|"
func splitArgs(args string) []string {
	parts := strings.Split(args, "|")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}

// Admin показывает список административных команд
func (h *Handlers) Admin(message *tgbotapi.Message) {
	if !h.requireAdmin(message) {
		return
	}

	pending := len(h.state.Reviews().Pending)
	text := "🛠 <b>Administration</b>\n\n" +
		"/addplug nom | 54,57 | description | https://t.me/contact [| emoji | image]\n" +
		"/delplug &lt;id&gt;\n" +
		"/adddept code | nom [| emoji]\n" +
		"/deldept &lt;code&gt;\n" +
		fmt.Sprintf("/pending - Avis en attente (%d)\n", pending) +
		"/approve &lt;id&gt;\n" +
		"/reject &lt;id&gt;\n" +
		"/delreview [id] - Supprimer un avis publié\n" +
		"/logs [plug|department|review|admin]\n" +
		"/clearlogs - Vider le journal\n" +
		"/addadmin &lt;username&gt;\n" +
		"/deladmin &lt;username&gt;\n" +
		"/export - Télécharger config.json\n\n" +
		"👥 Administrateurs : " + html(strings.Join(prefixed(h.state.Admins()), ", "))
	h.sendMessage(message.Chat.ID, text)
}

func prefixed(names []string) []string {
	out := make([]string, len(names))
	for i, name := range names {
		out[i] = "@" + name
	}
	return out
}

// AddPlug обрабатывает /addplug nom | départements | description | contact [| emoji | image]
func (h *Handlers) AddPlug(ctx context.Context, message *tgbotapi.Message) {
	if !h.requireAdmin(message) {
		return
	}
	chatID := message.Chat.ID

	parts := splitArgs(message.CommandArguments())
	if len(parts) < 4 {
		h.sendMessage(chatID, "Utilisation : /addplug nom | 54,57 | description | https://t.me/contact [| emoji | image]\n"+
			"Exemple : /addplug Atelier | 54 | Vélos et réparations | https://t.me/atelier | 🚲")
		return
	}

	input := model.PlugInput{
		Name:        parts[0],
		Department:  parts[1],
		Description: parts[2],
		Telegram:    parts[3],
	}
	if len(parts) > 4 {
		input.Emoji = parts[4]
	}
	if len(parts) > 5 {
		input.Image = parts[5]
	}

	plug, err := h.state.AddPlug(ctx, username(message.From), input)
	if err != nil {
		h.sendError(chatID, "addplug", err)
		return
	}
	h.sendMessage(chatID, fmt.Sprintf("✅ Plug ajouté : %s <b>%s</b> #%d", emojiOr(plug.Emoji), html(plug.Name), plug.ID))
}

// DeletePlug обрабатывает /delplug <id>
func (h *Handlers) DeletePlug(ctx context.Context, message *tgbotapi.Message) {
	if !h.requireAdmin(message) {
		return
	}
	chatID := message.Chat.ID

	id, err := strconv.Atoi(strings.TrimSpace(message.CommandArguments()))
	if err != nil {
		h.sendMessage(chatID, "Utilisation : /delplug &lt;id&gt;")
		return
	}

	plug, err := h.state.DeletePlug(ctx, username(message.From), id)
	if err != nil {
		h.sendError(chatID, "delplug", err)
		return
	}
	h.sendMessage(chatID, fmt.Sprintf("🗑 Plug supprimé : <b>%s</b> #%d", html(plug.Name), plug.ID))
}

// AddDepartment обрабатывает /adddept code | nom [| emoji]
func (h *Handlers) AddDepartment(ctx context.Context, message *tgbotapi.Message) {
	if !h.requireAdmin(message) {
		return
	}
	chatID := message.Chat.ID

	parts := splitArgs(message.CommandArguments())
	if len(parts) == 1 {
		// Допускаем форму "/adddept 67 Bas-Rhin"
		fields := strings.Fields(parts[0])
		if len(fields) >= 2 {
			parts = []string{fields[0], strings.Join(fields[1:], " ")}
		}
	}
	if len(parts) < 2 {
		h.sendMessage(chatID, "Utilisation : /adddept code | nom [| emoji]\nExemple : /adddept 67 | Bas-Rhin | 🥨")
		return
	}
	emoji := ""
	if len(parts) > 2 {
		emoji = parts[2]
	}

	dept, err := h.state.AddDepartment(ctx, username(message.From), parts[0], parts[1], emoji)
	if err != nil {
		h.sendError(chatID, "adddept", err)
		return
	}
	h.sendMessage(chatID, fmt.Sprintf("✅ Département ajouté : %s %s - %s", emojiOr(dept.Emoji), html(dept.Code), html(dept.Name)))
}

// DeleteDepartment обрабатывает /deldept <code>
func (h *Handlers) DeleteDepartment(ctx context.Context, message *tgbotapi.Message) {
	if !h.requireAdmin(message) {
		return
	}
	chatID := message.Chat.ID

	code := strings.TrimSpace(message.CommandArguments())
	if code == "" {
		h.sendMessage(chatID, "Utilisation : /deldept &lt;code&gt;")
		return
	}

	dept, err := h.state.DeleteDepartment(ctx, username(message.From), code)
	if err != nil {
		h.sendError(chatID, "deldept", err)
		return
	}
	h.sendMessage(chatID, fmt.Sprintf("🗑 Département supprimé : %s - %s", html(dept.Code), html(dept.Name)))
}

// Pending показывает отзывы на модерации с кнопками
func (h *Handlers) Pending(message *tgbotapi.Message) {
	if !h.requireAdmin(message) {
		return
	}
	chatID := message.Chat.ID

	pending := h.state.Reviews().Pending
	if len(pending) == 0 {
		h.sendMessage(chatID, "✨ Aucun avis en attente.")
		return
	}

	h.sendMessage(chatID, fmt.Sprintf("🕐 <b>%d avis en attente</b>", len(pending)))
	for _, r := range pending {
		h.sendMessageWithMarkup(chatID, formatPendingReview(r, h.plugName(r.PlugID)), moderationKeyboard(r.ID))
	}
}

func (h *Handlers) plugName(id int) string {
	plug, err := h.state.Plug(id)
	if err != nil {
		return "plug supprimé"
	}
	return plug.Name
}

// reviewID разбирает id отзыва из аргументов; при ошибке отправляет подсказку
func (h *Handlers) reviewID(message *tgbotapi.Message, usage string) (int64, bool) {
	id, err := strconv.ParseInt(strings.TrimSpace(message.CommandArguments()), 10, 64)
	if err != nil {
		h.sendMessage(message.Chat.ID, usage)
		return 0, false
	}
	return id, true
}

// Approve обрабатывает /approve <id>
func (h *Handlers) Approve(ctx context.Context, message *tgbotapi.Message) {
	if !h.requireAdmin(message) {
		return
	}
	id, ok := h.reviewID(message, "Utilisation : /approve &lt;id&gt;")
	if !ok {
		return
	}

	review, err := h.state.ApproveReview(ctx, username(message.From), id)
	if err != nil {
		h.sendError(message.Chat.ID, "approve", err)
		return
	}
	plug, _ := h.state.Plug(review.PlugID)
	h.sendMessage(message.Chat.ID, fmt.Sprintf("✅ Avis #%d approuvé. Nouvelle note de %s : %s",
		review.ID, html(plug.Name), formatRatingOrDash(plug.Rating)))
}

// Reject обрабатывает /reject <id>
func (h *Handlers) Reject(ctx context.Context, message *tgbotapi.Message) {
	if !h.requireAdmin(message) {
		return
	}
	id, ok := h.reviewID(message, "Utilisation : /reject &lt;id&gt;")
	if !ok {
		return
	}

	if _, err := h.state.RejectReview(ctx, username(message.From), id); err != nil {
		h.sendError(message.Chat.ID, "reject", err)
		return
	}
	h.sendMessage(message.Chat.ID, fmt.Sprintf("❌ Avis #%d rejeté.", id))
}

// DeleteReview обрабатывает /delreview [id]; без аргумента показывает
// последние опубликованные отзывы с кнопками удаления
func (h *Handlers) DeleteReview(ctx context.Context, message *tgbotapi.Message) {
	if !h.requireAdmin(message) {
		return
	}
	chatID := message.Chat.ID

	if strings.TrimSpace(message.CommandArguments()) == "" {
		approved := h.state.Reviews().Approved
		if len(approved) == 0 {
			h.sendMessage(chatID, "Aucun avis publié.")
			return
		}
		start := len(approved) - maxApprovedListed
		if start < 0 {
			start = 0
		}
		for i := len(approved) - 1; i >= start; i-- {
			r := approved[i]
			text := fmt.Sprintf("💬 <b>Avis #%d</b> pour %s\n%s", r.ID, html(h.plugName(r.PlugID)), formatReview(r))
			h.sendMessageWithMarkup(chatID, text, approvedReviewKeyboard(r.ID))
		}
		return
	}

	id, ok := h.reviewID(message, "Utilisation : /delreview [id]")
	if !ok {
		return
	}
	if _, err := h.state.DeleteReview(ctx, username(message.From), id); err != nil {
		h.sendError(chatID, "delreview", err)
		return
	}
	h.sendMessage(chatID, fmt.Sprintf("🗑 Avis #%d supprimé.", id))
}

// Logs обрабатывает /logs [catégorie]
func (h *Handlers) Logs(message *tgbotapi.Message) {
	if !h.requireAdmin(message) {
		return
	}
	category := strings.ToLower(strings.TrimSpace(message.CommandArguments()))
	if category != "" && category != "all" && !knownCategory(category) {
		h.sendMessage(message.Chat.ID, "Catégories : "+strings.Join(model.LogCategories, ", "))
		return
	}

	entries, err := h.state.Logs(username(message.From), category)
	if err != nil {
		h.sendError(message.Chat.ID, "logs", err)
		return
	}
	h.sendMessage(message.Chat.ID, formatLogs(entries, category))
}

func knownCategory(category string) bool {
	for _, c := range model.LogCategories {
		if c == category {
			return true
		}
	}
	return false
}

// ClearLogs обрабатывает /clearlogs
func (h *Handlers) ClearLogs(ctx context.Context, message *tgbotapi.Message) {
	if !h.requireAdmin(message) {
		return
	}
	if err := h.state.ClearLogs(ctx, username(message.From)); err != nil {
		h.sendError(message.Chat.ID, "clearlogs", err)
		return
	}
	h.sendMessage(message.Chat.ID, "🧹 Journal vidé.")
}

// AddAdmin обрабатывает /addadmin <username>
func (h *Handlers) AddAdmin(ctx context.Context, message *tgbotapi.Message) {
	if !h.requireAdmin(message) {
		return
	}
	name := strings.TrimSpace(message.CommandArguments())
	if name == "" {
		h.sendMessage(message.Chat.ID, "Utilisation : /addadmin &lt;username&gt;")
		return
	}

	added, err := h.state.AddAdmin(ctx, username(message.From), name)
	if err != nil {
		h.sendError(message.Chat.ID, "addadmin", err)
		return
	}
	h.sendMessage(message.Chat.ID, fmt.Sprintf("✅ @%s est maintenant administrateur.", html(added)))
}

// RemoveAdmin обрабатывает /deladmin <username>
func (h *Handlers) RemoveAdmin(ctx context.Context, message *tgbotapi.Message) {
	if !h.requireAdmin(message) {
		return
	}
	name := strings.TrimSpace(message.CommandArguments())
	if name == "" {
		h.sendMessage(message.Chat.ID, "Utilisation : /deladmin &lt;username&gt;")
		return
	}

	removed, err := h.state.RemoveAdmin(ctx, username(message.From), name)
	if err != nil {
		h.sendError(message.Chat.ID, "deladmin", err)
		return
	}
	h.sendMessage(message.Chat.ID, fmt.Sprintf("🗑 @%s n'est plus administrateur.", html(removed)))
}

// Export отправляет config.json документом
func (h *Handlers) Export(message *tgbotapi.Message) {
	if !h.requireAdmin(message) {
		return
	}

	data, err := h.state.Export(username(message.From))
	if err != nil {
		h.sendError(message.Chat.ID, "export", err)
		return
	}
	if err := h.sender.SendDocument(message.Chat.ID, "config.json", data, "📦 Export de la configuration"); err != nil {
		h.logger.Error("Failed to send export", zap.Error(err))
		h.sendMessage(message.Chat.ID, msgInternalError)
	}
}

func formatRatingOrDash(rating float64) string {
	if rating <= 0 {
		return "-"
	}
	return render.FormatRating(rating) + "/5"
}
