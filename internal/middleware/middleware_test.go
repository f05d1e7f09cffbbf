package middleware

import (
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func commandUpdate(id int, userID int64, username, text string) tgbotapi.Update {
	return tgbotapi.Update{
		UpdateID: id,
		Message: &tgbotapi.Message{
			From: &tgbotapi.User{ID: userID, UserName: username},
			Chat: &tgbotapi.Chat{ID: userID},
			Text: text,
			Entities: []tgbotapi.MessageEntity{
				{Type: "bot_command", Offset: 0, Length: len(firstWord(text))},
			},
		},
	}
}

func firstWord(text string) string {
	for i, r := range text {
		if r == ' ' {
			return text[:i]
		}
	}
	return text
}

func callbackUpdate(id int, userID int64, data string) tgbotapi.Update {
	return tgbotapi.Update{
		UpdateID: id,
		CallbackQuery: &tgbotapi.CallbackQuery{
			ID:      "cb",
			From:    &tgbotapi.User{ID: userID},
			Message: &tgbotapi.Message{Chat: &tgbotapi.Chat{ID: userID}},
			Data:    data,
		},
	}
}

func TestMiddleware_RecoversPanic(t *testing.T) {
	m := New(NewRateLimiter(10, time.Minute, zap.NewNop()), zap.NewNop())

	assert.NotPanics(t, func() {
		m.ProcessWithMiddleware(commandUpdate(1, 1, "a", "/plugs"), func(tgbotapi.Update) {
			panic("boom")
		})
	})
}

func TestMiddleware_DebouncesRepeatedCommand(t *testing.T) {
	m := New(NewRateLimiter(10, time.Minute, zap.NewNop()), zap.NewNop())

	calls := 0
	handler := func(tgbotapi.Update) { calls++ }

	m.ProcessWithMiddleware(commandUpdate(1, 1, "a", "/plugs"), handler)
	m.ProcessWithMiddleware(commandUpdate(2, 1, "a", "/plugs"), handler)
	m.ProcessWithMiddleware(commandUpdate(3, 1, "a", "/help"), handler)

	assert.Equal(t, 2, calls)
}

func TestMiddleware_DebouncesModerationCallbacks(t *testing.T) {
	m := New(NewRateLimiter(10, time.Minute, zap.NewNop()), zap.NewNop())

	calls := 0
	handler := func(tgbotapi.Update) { calls++ }

	m.ProcessWithMiddleware(callbackUpdate(1, 1, "approve:17"), handler)
	m.ProcessWithMiddleware(callbackUpdate(2, 1, "approve:17"), handler)
	// Выбор департамента не дебаунсится
	m.ProcessWithMiddleware(callbackUpdate(3, 1, "dept:54"), handler)
	m.ProcessWithMiddleware(callbackUpdate(4, 1, "dept:54"), handler)

	assert.Equal(t, 3, calls)
}

func TestMiddleware_RateLimit(t *testing.T) {
	m := New(NewRateLimiter(1, time.Minute, zap.NewNop()), zap.NewNop())

	calls := 0
	handler := func(tgbotapi.Update) { calls++ }

	m.ProcessWithMiddleware(commandUpdate(1, 7, "a", "/plugs"), handler)
	m.ProcessWithMiddleware(commandUpdate(2, 7, "a", "/help"), handler)

	assert.Equal(t, 1, calls)
}

func TestAdminOnlyMiddleware(t *testing.T) {
	checker := staticChecker{"lemiel_admin": true}
	denied := 0
	mw := AdminOnlyMiddleware(checker, zap.NewNop(), func(tgbotapi.Update) { denied++ })

	calls := 0
	next := func(tgbotapi.Update) { calls++ }

	mw(commandUpdate(1, 1, "lemiel_admin", "/admin"), next)
	mw(commandUpdate(2, 2, "stranger", "/admin"), next)
	mw(tgbotapi.Update{UpdateID: 3}, next)

	assert.Equal(t, 1, calls)
	assert.Equal(t, 1, denied)
}
