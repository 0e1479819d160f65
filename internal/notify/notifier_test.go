package notify

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	tgbot "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sentMessage struct {
	chatID string
	text   string
}

type fakeTelegramAPI struct {
	mu   sync.Mutex
	sent []sentMessage
}

func (f *fakeTelegramAPI) messages() []sentMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]sentMessage, len(f.sent))
	copy(out, f.sent)
	return out
}

func newTestTelegram(t *testing.T, chatID int64) (*Telegram, *fakeTelegramAPI) {
	t.Helper()
	api := &fakeTelegramAPI{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch {
		case strings.HasSuffix(r.URL.Path, "/getMe"):
			_, _ = w.Write([]byte(`{"ok":true,"result":{"id":1,"is_bot":true,"first_name":"monitor","username":"monitor_bot"}}`))
		case strings.HasSuffix(r.URL.Path, "/sendMessage"):
			assert.NoError(t, r.ParseForm())
			api.mu.Lock()
			api.sent = append(api.sent, sentMessage{chatID: r.PostForm.Get("chat_id"), text: r.PostForm.Get("text")})
			api.mu.Unlock()
			_, _ = w.Write([]byte(`{"ok":true,"result":{"message_id":1,"date":0,"chat":{"id":42,"type":"private"}}}`))
		default:
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"ok":false,"error_code":404,"description":"not found"}`))
		}
	}))
	t.Cleanup(srv.Close)

	bot, err := tgbot.NewBotAPIWithClient("test-token", srv.URL+"/bot%s/%s", srv.Client())
	require.NoError(t, err)
	return newTelegram(bot, chatID), api
}

func command(chatID int64, text string) *tgbot.Message {
	length := len(text)
	if i := strings.IndexByte(text, ' '); i >= 0 {
		length = i
	}
	return &tgbot.Message{
		Text:     text,
		Chat:     &tgbot.Chat{ID: chatID},
		Entities: []tgbot.MessageEntity{{Type: "bot_command", Offset: 0, Length: length}},
	}
}

func TestTelegram_SendService(t *testing.T) {
	tg, api := newTestTelegram(t, 42)

	tg.SendService(context.Background(), "stream lost: %v", "eof")

	msgs := api.messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, "42", msgs[0].chatID)
	assert.Equal(t, "stream lost: eof", msgs[0].text)
}

func TestTelegram_NoChatIsSilent(t *testing.T) {
	tg, api := newTestTelegram(t, 0)
	tg.SendService(context.Background(), "hello")
	assert.Empty(t, api.messages())
}

func TestTelegram_HandleMessage(t *testing.T) {
	tg, api := newTestTelegram(t, 42)

	var gotArgs string
	tg.Handle("status", func(_ context.Context, args string) string {
		gotArgs = args
		return "ok"
	})
	tg.Handle("price", func(context.Context, string) string { return "1.0823" })

	tg.HandleMessage(context.Background(), command(42, "/status full"))
	tg.HandleMessage(context.Background(), command(7, "/status")) // чужой чат
	tg.HandleMessage(context.Background(), &tgbot.Message{Text: "status", Chat: &tgbot.Chat{ID: 42}})
	tg.HandleMessage(context.Background(), command(42, "/nope"))

	assert.Equal(t, "full", gotArgs)
	msgs := api.messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, "ok", msgs[0].text)
	assert.Contains(t, msgs[1].text, "/nope")
	assert.Contains(t, msgs[1].text, "/price /status")
}

func TestNilTelegramIsNoop(t *testing.T) {
	var tg *Telegram
	tg.Send("x")
	tg.Start(context.Background())
	tg.Stop()
	NewLog().SendService(context.Background(), "fallback %d", 1)
}
