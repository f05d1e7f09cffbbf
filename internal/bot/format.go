package bot

import (
	"fmt"
	"sort"
	"strings"

	"lemiel/internal/model"
	"lemiel/internal/render"
)

const (
	maxPlugReviews = 5
	maxLogEntries  = 20
)

// formatPlugLine - короткая строка плага для списков
func formatPlugLine(plug model.Plug) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s <b>%s</b>", emojiOr(plug.Emoji), html(plug.Name))
	if stars := render.Stars(plug.Rating); stars != "" {
		fmt.Fprintf(&b, " %s %s", stars, render.FormatRating(plug.Rating))
	}
	if plug.Description != "" {
		fmt.Fprintf(&b, "\n<i>%s</i>", html(plug.Description))
	}
	fmt.Fprintf(&b, "\n👉 /plug %d", plug.ID)
	return b.String()
}

// formatPlugList собирает список плагов с заголовком
func formatPlugList(title string, plugs []model.Plug) string {
	if len(plugs) == 0 {
		return title + "\n\nAucun plug trouvé dans cette zone."
	}
	blocks := make([]string, 0, len(plugs)+1)
	blocks = append(blocks, fmt.Sprintf("%s (%d)", title, len(plugs)))
	for _, plug := range plugs {
		blocks = append(blocks, formatPlugLine(plug))
	}
	return strings.Join(blocks, "\n\n")
}

// formatPlug - карточка плага с департаментами, контактом и последними отзывами
func (h *Handlers) formatPlug(plug model.Plug, departments map[string]model.Department, reviews []model.Review) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s <b>%s</b> #%d\n", emojiOr(plug.Emoji), html(plug.Name), plug.ID)
	if stars := render.Stars(plug.Rating); stars != "" {
		fmt.Fprintf(&b, "%s %s/5\n", stars, render.FormatRating(plug.Rating))
	}
	if plug.Description != "" {
		fmt.Fprintf(&b, "\n%s\n", html(plug.Description))
	}

	codes := plug.DepartmentCodes()
	if len(codes) > 0 {
		labels := make([]string, 0, len(codes))
		for _, code := range codes {
			if dept, ok := departments[code]; ok {
				labels = append(labels, html(render.DepartmentLabel(dept)))
			} else {
				labels = append(labels, html(code))
			}
		}
		fmt.Fprintf(&b, "\n📍 %s\n", strings.Join(labels, ", "))
	}

	if u, err := h.links.Check(plug.Telegram); err == nil {
		fmt.Fprintf(&b, "📱 <a href=\"%s\">@%s</a>\n", html(u.String()), html(plug.TelegramHandle()))
	} else if plug.Telegram != "" {
		fmt.Fprintf(&b, "📱 %s (lien non vérifié)\n", html(plug.TelegramHandle()))
	}

	own := reviewsForPlug(reviews, plug.ID)
	if len(own) > 0 {
		fmt.Fprintf(&b, "\n💬 <b>Avis</b> (%d)\n", len(own))
		if len(own) > maxPlugReviews {
			own = own[:maxPlugReviews]
		}
		for _, r := range own {
			b.WriteString(formatReview(r))
			b.WriteString("\n")
		}
	}
	fmt.Fprintf(&b, "\n✍️ /review %d &lt;1-5&gt; &lt;commentaire&gt;", plug.ID)
	return b.String()
}

// reviewsForPlug возвращает отзывы плага, новые первыми
func reviewsForPlug(reviews []model.Review, plugID int) []model.Review {
	var result []model.Review
	for _, r := range reviews {
		if r.PlugID == plugID {
			result = append(result, r)
		}
	}
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].ID > result[j].ID
	})
	return result
}

// formatReview - одна строка отзыва
func formatReview(r model.Review) string {
	author := r.Username
	if author == "" {
		author = "anonyme"
	}
	return fmt.Sprintf("%s @%s, %s\n%s",
		strings.Repeat("⭐", r.Rating), html(author), r.Date.UTC().Format("02/01/2006"), html(r.Comment))
}

// formatPendingReview - отзыв в очереди модерации
func formatPendingReview(r model.Review, plugName string) string {
	return fmt.Sprintf("🕐 <b>Avis #%d</b> pour %s (#%d)\n%s",
		r.ID, html(plugName), r.PlugID, formatReview(r))
}

// formatLogs - последние записи журнала, новые первыми
func formatLogs(entries []model.AdminLogEntry, category string) string {
	title := "📜 <b>Journal</b>"
	if category != "" {
		title += " · " + html(category)
	}
	if len(entries) == 0 {
		return title + "\n\nAucune entrée."
	}

	lines := []string{fmt.Sprintf("%s (%d)", title, len(entries))}
	for i := len(entries) - 1; i >= 0 && len(entries)-i <= maxLogEntries; i-- {
		e := entries[i]
		lines = append(lines, fmt.Sprintf("🕒 %s @%s <code>%s</code>\n%s",
			e.Timestamp.UTC().Format("2006-01-02 15:04"), html(e.Admin), html(string(e.Action)), html(e.Details)))
	}
	return strings.Join(lines, "\n\n")
}

func emojiOr(emoji string) string {
	if emoji == "" {
		return model.DefaultEmoji
	}
	return emoji
}
