package bot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lemiel/internal/model"
)

func TestStart_SendsDepartmentKeyboard(t *testing.T) {
	h, sender, _ := newTestHandlers(t)

	h.Start(commandMessage(userChat, userName, "/start"))

	msg := sender.last(t)
	assert.Contains(t, msg.text, "Bienvenue")
	markup, ok := msg.markup.(tgbotapi.InlineKeyboardMarkup)
	require.True(t, ok)
	require.NotEmpty(t, markup.InlineKeyboard)

	first := markup.InlineKeyboard[0][0]
	require.NotNil(t, first.CallbackData)
	assert.Equal(t, "dept:all", *first.CallbackData)
	assert.Equal(t, "🌍 Tous (4)", first.Text)

	var labels []string
	for _, row := range markup.InlineKeyboard[1:] {
		assert.LessOrEqual(t, len(row), departmentsPerRow)
		for _, button := range row {
			labels = append(labels, button.Text)
		}
	}
	require.Len(t, labels, 4)
	assert.True(t, strings.HasPrefix(labels[0], "🏰 54 - Meurthe"), labels[0])
	assert.True(t, strings.HasSuffix(labels[0], "(2)"), labels[0])
	assert.Contains(t, labels, "🌲 55 - Meuse (0)")
}

func TestHelp_AdminSeesAdminHint(t *testing.T) {
	h, sender, _ := newTestHandlers(t)

	h.Help(commandMessage(userChat, userName, "/help"))
	assert.NotContains(t, sender.last(t).text, "/admin")

	h.Help(commandMessage(adminChat, adminName, "/help"))
	assert.Contains(t, sender.last(t).text, "/admin")
}

func TestPlugs(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		contains []string
		excludes []string
		once     string
	}{
		{
			name:     "департамент 54",
			text:     "/plugs 54",
			contains: []string{"Atelier Stanislas", "Fournil de la Place", "(2)", "/plug 1"},
			excludes: []string{"Scierie du Ballon"},
		},
		{
			name:     "все плаги без дублей",
			text:     "/plugs all",
			contains: []string{"Tous les plugs", "(4)", "Scierie du Ballon"},
			once:     "Atelier Stanislas",
		},
		{
			name:     "пустой департамент",
			text:     "/plugs 55",
			contains: []string{"Aucun plug trouvé"},
		},
		{
			name:     "неизвестный департамент",
			text:     "/plugs 99",
			contains: []string{"Introuvable", "département 99"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, sender, _ := newTestHandlers(t)
			h.Plugs(commandMessage(userChat, userName, tt.text))

			text := sender.last(t).text
			for _, want := range tt.contains {
				assert.Contains(t, text, want)
			}
			for _, unwanted := range tt.excludes {
				assert.NotContains(t, text, unwanted)
			}
			if tt.once != "" {
				assert.Equal(t, 1, strings.Count(text, tt.once))
			}
		})
	}
}

func TestPlugs_NoArgumentShowsPicker(t *testing.T) {
	h, sender, _ := newTestHandlers(t)

	h.Plugs(commandMessage(userChat, userName, "/plugs"))

	_, ok := sender.last(t).markup.(tgbotapi.InlineKeyboardMarkup)
	assert.True(t, ok)
}

func TestPlug_Card(t *testing.T) {
	h, sender, _ := newTestHandlers(t)

	h.Plug(commandMessage(userChat, userName, "/plug 1"))
	msg := sender.last(t)
	assert.Contains(t, msg.text, "<b>Atelier Stanislas</b> #1")
	assert.Contains(t, msg.text, "⭐⭐⭐⭐✨ 4.5/5")
	assert.Contains(t, msg.text, "📍 54 - Meurthe")
	assert.Contains(t, msg.text, ", 57 - Moselle")
	assert.Contains(t, msg.text, `<a href="https://t.me/atelier_stanislas">@atelier_stanislas</a>`)
	assert.Nil(t, msg.markup)

	h.Plug(commandMessage(adminChat, adminName, "/plug 1"))
	markup, ok := sender.last(t).markup.(tgbotapi.InlineKeyboardMarkup)
	require.True(t, ok)
	assert.Equal(t, "delplug:1", *markup.InlineKeyboard[0][0].CallbackData)
}

func TestPlug_Errors(t *testing.T) {
	h, sender, _ := newTestHandlers(t)

	h.Plug(commandMessage(userChat, userName, "/plug abc"))
	assert.Contains(t, sender.last(t).text, "Utilisation")

	h.Plug(commandMessage(userChat, userName, "/plug 999"))
	assert.Contains(t, sender.last(t).text, "Introuvable : plug 999")
}

func TestPlug_EscapesUserContent(t *testing.T) {
	h, sender, state := newTestHandlers(t)

	plug, err := state.AddPlug(context.Background(), adminName, model.PlugInput{
		Name:        "<script>x</script>",
		Department:  "54",
		Description: "a & b",
		Telegram:    "https://evil.example/contact",
	})
	require.NoError(t, err)

	h.Plug(commandMessage(userChat, userName, fmt.Sprintf("/plug %d", plug.ID)))
	text := sender.last(t).text
	assert.NotContains(t, text, "<script>")
	assert.Contains(t, text, "&lt;script&gt;x&lt;/script&gt;")
	assert.Contains(t, text, "a &amp; b")
	assert.Contains(t, text, "lien non vérifié")
	assert.NotContains(t, text, `<a href="https://evil.example`)
}

func TestReview_SubmitAndModerate(t *testing.T) {
	h, sender, state := newTestHandlers(t)
	ctx := context.Background()

	h.Review(ctx, commandMessage(userChat, userName, "/review 1 5 Très pro, livraison rapide"))
	assert.Contains(t, sender.last(t).text, "en attente de modération")

	pending := state.Reviews().Pending
	require.Len(t, pending, 1)
	assert.Equal(t, userName, pending[0].Username)
	assert.Equal(t, "Très pro, livraison rapide", pending[0].Comment)

	// Обычный пользователь не может модерировать
	h.Approve(ctx, commandMessage(userChat, userName, fmt.Sprintf("/approve %d", pending[0].ID)))
	assert.Equal(t, msgForbidden, sender.last(t).text)
	require.Len(t, state.Reviews().Pending, 1)

	sender.reset()
	h.Pending(commandMessage(adminChat, adminName, "/pending"))
	require.Len(t, sender.messages, 2)
	markup, ok := sender.messages[1].markup.(tgbotapi.InlineKeyboardMarkup)
	require.True(t, ok)
	approveData := *markup.InlineKeyboard[0][0].CallbackData
	assert.Equal(t, fmt.Sprintf("approve:%d", pending[0].ID), approveData)

	h.CallbackQuery(ctx, callbackQuery(adminChat, adminName, approveData))
	require.Len(t, sender.edits, 1)
	assert.Contains(t, sender.edits[0].text, "approuvé par @lemiel_admin")
	assert.Equal(t, 42, sender.edits[0].messageID)
	assert.Equal(t, []string{"OK"}, sender.answers)

	plug, err := state.Plug(1)
	require.NoError(t, err)
	assert.Equal(t, 5.0, plug.Rating)
	assert.Empty(t, state.Reviews().Pending)
	require.Len(t, state.Reviews().Approved, 1)

	// Повторное нажатие уже не находит отзыв
	h.CallbackQuery(ctx, callbackQuery(adminChat, adminName, approveData))
	assert.Contains(t, sender.answers[len(sender.answers)-1], "Introuvable")
	assert.Len(t, sender.edits, 1)
}

func TestReview_Validation(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{name: "мало аргументов", text: "/review 1 5", want: "Utilisation"},
		{name: "нечисловой id", text: "/review abc 5 super", want: "Utilisation"},
		{name: "нечисловая оценка", text: "/review 1 five super", want: "entre 1 et 5"},
		{name: "оценка вне диапазона", text: "/review 1 7 super", want: "Données invalides"},
		{name: "несуществующий плаг", text: "/review 999 5 super", want: "Introuvable : plug 999"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, sender, state := newTestHandlers(t)
			h.Review(context.Background(), commandMessage(userChat, userName, tt.text))
			assert.Contains(t, sender.last(t).text, tt.want)
			assert.Empty(t, state.Reviews().Pending)
		})
	}
}

func TestRejectAndDeleteReview(t *testing.T) {
	h, sender, state := newTestHandlers(t)
	ctx := context.Background()

	first, err := state.SubmitReview(ctx, model.ReviewInput{PlugID: 2, Username: "a", Rating: 4, Comment: "bien"})
	require.NoError(t, err)
	second, err := state.SubmitReview(ctx, model.ReviewInput{PlugID: 2, Username: "b", Rating: 2, Comment: "bof"})
	require.NoError(t, err)

	h.Reject(ctx, commandMessage(adminChat, adminName, fmt.Sprintf("/reject %d", second.ID)))
	assert.Contains(t, sender.last(t).text, "rejeté")

	h.Approve(ctx, commandMessage(adminChat, adminName, fmt.Sprintf("/approve %d", first.ID)))
	assert.Contains(t, sender.last(t).text, "Nouvelle note de Fournil de la Place : 4/5")

	sender.reset()
	h.DeleteReview(ctx, commandMessage(adminChat, adminName, "/delreview"))
	require.Len(t, sender.messages, 1)
	markup, ok := sender.messages[0].markup.(tgbotapi.InlineKeyboardMarkup)
	require.True(t, ok)
	assert.Equal(t, fmt.Sprintf("delreview:%d", first.ID), *markup.InlineKeyboard[0][0].CallbackData)

	h.DeleteReview(ctx, commandMessage(adminChat, adminName, fmt.Sprintf("/delreview %d", first.ID)))
	assert.Contains(t, sender.last(t).text, "supprimé")
	assert.Empty(t, state.Reviews().Approved)

	h.DeleteReview(ctx, commandMessage(adminChat, adminName, "/delreview"))
	assert.Equal(t, "Aucun avis publié.", sender.last(t).text)
}

func TestAddPlug(t *testing.T) {
	h, sender, state := newTestHandlers(t)
	ctx := context.Background()

	h.AddPlug(ctx, commandMessage(adminChat, adminName, "/addplug Atelier"))
	assert.Contains(t, sender.last(t).text, "Utilisation")

	h.AddPlug(ctx, commandMessage(adminChat, adminName,
		"/addplug Cave Lorraine | 54, 88 | Vins et bières locales | https://t.me/cave_lorraine | 🍷"))
	assert.Contains(t, sender.last(t).text, "✅ Plug ajouté : 🍷 <b>Cave Lorraine</b>")

	plugs := state.DepartmentPlugs("88")
	require.Len(t, plugs, 2)
	added := plugs[len(plugs)-1]
	assert.Equal(t, "Cave Lorraine", added.Name)
	assert.Equal(t, []string{"54", "88"}, added.Departments)
	assert.Equal(t, model.DefaultImage, added.Image)

	h.AddPlug(ctx, commandMessage(userChat, userName,
		"/addplug X | 54 | desc | https://t.me/x"))
	assert.Equal(t, msgForbidden, sender.last(t).text)
}

func TestDeletePlug_Button(t *testing.T) {
	h, sender, state := newTestHandlers(t)
	ctx := context.Background()

	h.CallbackQuery(ctx, callbackQuery(userChat, userName, "delplug:4"))
	assert.Contains(t, sender.answers[0], "droits")
	_, err := state.Plug(4)
	require.NoError(t, err)

	h.CallbackQuery(ctx, callbackQuery(adminChat, adminName, "delplug:4"))
	require.Len(t, sender.edits, 1)
	assert.Contains(t, sender.edits[0].text, "Scierie du Ballon")
	_, err = state.Plug(4)
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestDepartments(t *testing.T) {
	h, sender, state := newTestHandlers(t)
	ctx := context.Background()

	h.AddDepartment(ctx, commandMessage(adminChat, adminName, "/adddept 67 Bas-Rhin"))
	assert.Contains(t, sender.last(t).text, "Département ajouté")
	assert.Equal(t, "Bas-Rhin", state.Departments()["67"].Name)

	h.AddDepartment(ctx, commandMessage(adminChat, adminName, "/adddept 68 | Haut-Rhin | 🍇"))
	assert.Equal(t, "🍇", state.Departments()["68"].Emoji)

	h.AddDepartment(ctx, commandMessage(adminChat, adminName, "/adddept 67 | Bas-Rhin"))
	assert.Contains(t, sender.last(t).text, "Existe déjà : département 67")

	h.DeleteDepartment(ctx, commandMessage(adminChat, adminName, "/deldept 68"))
	assert.Contains(t, sender.last(t).text, "Département supprimé : 68 - Haut-Rhin")

	h.DeleteDepartment(ctx, commandMessage(adminChat, adminName, "/deldept"))
	assert.Contains(t, sender.last(t).text, "Utilisation")
}

func TestAdmins(t *testing.T) {
	h, sender, state := newTestHandlers(t)
	ctx := context.Background()

	h.AddAdmin(ctx, commandMessage(adminChat, adminName, "/addadmin @Moderatrice"))
	assert.Contains(t, sender.last(t).text, "@Moderatrice est maintenant administrateur")
	assert.True(t, state.IsAdmin("moderatrice"))

	h.RemoveAdmin(ctx, commandMessage(adminChat, adminName, "/deladmin lemiel_admin"))
	assert.Contains(t, sender.last(t).text, "vous retirer vous-même")
	assert.True(t, state.IsAdmin(adminName))

	h.RemoveAdmin(ctx, commandMessage(adminChat, adminName, "/deladmin moderatrice"))
	assert.Contains(t, sender.last(t).text, "n'est plus administrateur")
	assert.False(t, state.IsAdmin("moderatrice"))

	h.Admin(commandMessage(adminChat, adminName, "/admin"))
	assert.Contains(t, sender.last(t).text, "@lemiel_admin")
}

func TestLogs(t *testing.T) {
	h, sender, state := newTestHandlers(t)
	ctx := context.Background()

	_, err := state.AddDepartment(ctx, adminName, "67", "Bas-Rhin", "")
	require.NoError(t, err)
	_, err = state.AddAdmin(ctx, adminName, "second")
	require.NoError(t, err)

	h.Logs(commandMessage(adminChat, adminName, "/logs"))
	text := sender.last(t).text
	assert.Contains(t, text, "(2)")
	assert.Contains(t, text, "add_department")
	assert.Contains(t, text, "add_admin")
	assert.Less(t, strings.Index(text, "add_admin"), strings.Index(text, "add_department"))

	h.Logs(commandMessage(adminChat, adminName, "/logs department"))
	text = sender.last(t).text
	assert.Contains(t, text, "add_department")
	assert.NotContains(t, text, "add_admin")

	h.Logs(commandMessage(adminChat, adminName, "/logs nope"))
	assert.Contains(t, sender.last(t).text, "Catégories")

	h.ClearLogs(ctx, commandMessage(adminChat, adminName, "/clearlogs"))
	h.Logs(commandMessage(adminChat, adminName, "/logs"))
	text = sender.last(t).text
	assert.Contains(t, text, "(1)")
	assert.Contains(t, text, "clear_logs")
	assert.NotContains(t, text, "add_department")
}

func TestExport(t *testing.T) {
	h, sender, _ := newTestHandlers(t)

	h.Export(commandMessage(userChat, userName, "/export"))
	assert.Empty(t, sender.documents)

	h.Export(commandMessage(adminChat, adminName, "/export"))
	require.Len(t, sender.documents, 1)
	doc := sender.documents[0]
	assert.Equal(t, "config.json", doc.name)
	assert.Equal(t, adminChat, doc.chatID)

	var exported map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(doc.data, &exported))
	assert.Contains(t, exported, "plugs")
	assert.Contains(t, exported, "departments")
}

func TestUserMessage(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{name: "forbidden", err: model.ErrForbidden, want: msgForbidden},
		{name: "not found", err: model.NewNotFound("department", "99"), want: "🔍 Introuvable : département 99."},
		{name: "wrapped not found", err: fmt.Errorf("op: %w", model.NewNotFound("pending review", 7)), want: "🔍 Introuvable : avis en attente 7."},
		{name: "duplicate", err: model.DuplicateError{Entity: "admin", Key: "bob"}, want: "⚠️ Existe déjà : administrateur bob."},
		{name: "self removal", err: model.ErrSelfRemoval, want: "vous-même"},
		{name: "validation", err: model.ValidationError{Field: "name", Message: "is required"}, want: "Données invalides"},
		{name: "internal", err: errors.New("disk full"), want: msgInternalError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Contains(t, userMessage(tt.err), tt.want)
		})
	}
}

func TestSplitMessage(t *testing.T) {
	t.Run("короткий текст", func(t *testing.T) {
		assert.Equal(t, []string{"abc"}, splitMessage("abc", 10))
	})

	t.Run("по абзацам", func(t *testing.T) {
		text := strings.Repeat("a", 6) + "\n\n" + strings.Repeat("b", 6) + "\n\n" + strings.Repeat("c", 6)
		parts := splitMessage(text, 15)
		assert.Equal(t, []string{"aaaaaa\n\nbbbbbb", "cccccc"}, parts)
	})

	t.Run("длинный абзац", func(t *testing.T) {
		text := strings.Repeat("é", 10)
		parts := splitMessage(text, 5)
		for _, part := range parts {
			assert.LessOrEqual(t, len(part), 5)
			assert.True(t, strings.Count(part, "é")*2 == len(part))
		}
		assert.Equal(t, text, strings.Join(parts, ""))
	})
}
