package bot

import (
	"context"
	"strings"
	"sync"
	"testing"
	"unicode/utf16"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"lemiel/internal/links"
	"lemiel/internal/seed"
	"lemiel/internal/service"
	"lemiel/internal/storage"
)

type sentMessage struct {
	chatID int64
	text   string
	markup any
}

type sentDocument struct {
	chatID  int64
	name    string
	data    []byte
	caption string
}

type editedMessage struct {
	chatID    int64
	messageID int
	text      string
}

// fakeSender записывает все исходящие вызовы
type fakeSender struct {
	mu        sync.Mutex
	messages  []sentMessage
	documents []sentDocument
	edits     []editedMessage
	answers   []string
	commands  []tgbotapi.BotCommand
}

var _ Sender = (*fakeSender)(nil)

func (f *fakeSender) SendMessage(chatID int64, text string) error {
	return f.SendMessageWithMarkup(chatID, text, nil)
}

func (f *fakeSender) SendMessageWithMarkup(chatID int64, text string, markup any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.messages = append(f.messages, sentMessage{chatID: chatID, text: text, markup: markup})
	return nil
}

func (f *fakeSender) EditMessage(chatID int64, messageID int, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.edits = append(f.edits, editedMessage{chatID: chatID, messageID: messageID, text: text})
	return nil
}

func (f *fakeSender) AnswerCallbackQuery(_ string, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.answers = append(f.answers, text)
	return nil
}

func (f *fakeSender) SendDocument(chatID int64, name string, data []byte, caption string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.documents = append(f.documents, sentDocument{chatID: chatID, name: name, data: data, caption: caption})
	return nil
}

func (f *fakeSender) SetBotCommands(commands []tgbotapi.BotCommand) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.commands = commands
	return nil
}

// last возвращает последнее отправленное сообщение
func (f *fakeSender) last(t *testing.T) sentMessage {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	require.NotEmpty(t, f.messages, "no messages sent")
	return f.messages[len(f.messages)-1]
}

func (f *fakeSender) reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.messages = nil
	f.documents = nil
	f.edits = nil
	f.answers = nil
}

const (
	adminName = "lemiel_admin"
	adminChat = int64(100)
	userName  = "visiteur"
	userChat  = int64(200)
)

func newTestState(t *testing.T) *service.State {
	t.Helper()
	snap, err := seed.Parse(seed.Bundled())
	require.NoError(t, err)
	state, err := service.LoadState(context.Background(), snap, storage.NewMemory(zap.NewNop()), zap.NewNop())
	require.NoError(t, err)
	return state
}

func newTestHandlers(t *testing.T) (*Handlers, *fakeSender, *service.State) {
	t.Helper()
	state := newTestState(t)
	sender := &fakeSender{}
	return New(state, sender, links.NewAllowList(nil), zap.NewNop()), sender, state
}

// commandMessage собирает сообщение-команду, как его присылает Telegram
func commandMessage(chatID int64, user, text string) *tgbotapi.Message {
	command := strings.Fields(text)[0]
	return &tgbotapi.Message{
		MessageID: 1,
		From:      &tgbotapi.User{ID: chatID, UserName: user},
		Chat:      &tgbotapi.Chat{ID: chatID},
		Text:      text,
		Entities: []tgbotapi.MessageEntity{
			{Type: "bot_command", Offset: 0, Length: len(utf16.Encode([]rune(command)))},
		},
	}
}

func callbackQuery(chatID int64, user, data string) *tgbotapi.CallbackQuery {
	return &tgbotapi.CallbackQuery{
		ID:   "cb-" + data,
		From: &tgbotapi.User{ID: chatID, UserName: user},
		Message: &tgbotapi.Message{
			MessageID: 42,
			Chat:      &tgbotapi.Chat{ID: chatID},
		},
		Data: data,
	}
}
