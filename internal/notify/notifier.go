package notify

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	tgbot "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/pkg/errors"

	"rate_monitor/pkg/logger"
)

// Notifier шлёт служебные сообщения оператору: потеря стрима, неудачный логин и т.п.
type Notifier interface {
	SendService(ctx context.Context, format string, args ...any)
}

// CommandFunc отвечает на команду бота текстом.
type CommandFunc func(ctx context.Context, args string) string

// Telegram: пассивный нотифайер плюс несколько команд оператора (/status, /price ...).
type Telegram struct {
	bot    *tgbot.BotAPI
	chatID int64

	mu       sync.RWMutex
	commands map[string]CommandFunc
}

func NewTelegram(token string, chatID int64) (*Telegram, error) {
	b, err := tgbot.NewBotAPI(token)
	if err != nil {
		return nil, errors.Wrap(err, "telegram bot")
	}
	return newTelegram(b, chatID), nil
}

func newTelegram(b *tgbot.BotAPI, chatID int64) *Telegram {
	return &Telegram{
		bot:      b,
		chatID:   chatID,
		commands: make(map[string]CommandFunc),
	}
}

func (t *Telegram) Send(msg string) {
	if t == nil || t.bot == nil || t.chatID == 0 {
		return
	}
	if _, err := t.bot.Send(tgbot.NewMessage(t.chatID, msg)); err != nil {
		logger.Error("[TG] send: %v", err)
	}
}

func (t *Telegram) SendService(_ context.Context, format string, args ...any) {
	t.Send(fmt.Sprintf(format, args...))
}

// Handle регистрирует команду без слэша: Handle("status", ...).
func (t *Telegram) Handle(command string, fn CommandFunc) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.commands[command] = fn
}

func (t *Telegram) command(name string) (CommandFunc, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	fn, ok := t.commands[name]
	return fn, ok
}

// HandleMessage отвечает на команды только из своего чата.
func (t *Telegram) HandleMessage(ctx context.Context, m *tgbot.Message) {
	if m == nil || m.Chat == nil || m.Chat.ID != t.chatID || !m.IsCommand() {
		return
	}
	fn, ok := t.command(m.Command())
	if !ok {
		t.Send("🤷 неизвестная команда /" + m.Command() + "\n" + t.help())
		return
	}
	t.Send(fn(ctx, strings.TrimSpace(m.CommandArguments())))
}

func (t *Telegram) help() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	names := make([]string, 0, len(t.commands))
	for name := range t.commands {
		names = append(names, "/"+name)
	}
	sort.Strings(names)
	return "доступно: " + strings.Join(names, " ")
}

// Start: long-polling сообщений до отмены ctx.
func (t *Telegram) Start(ctx context.Context) {
	if t == nil || t.bot == nil {
		return
	}

	u := tgbot.NewUpdate(0)
	u.Timeout = 30
	u.AllowedUpdates = []string{"message"}

	updates := t.bot.GetUpdatesChan(u)
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case upd, ok := <-updates:
				if !ok {
					return
				}
				if upd.Message != nil {
					t.HandleMessage(ctx, upd.Message)
				}
			}
		}
	}()
}

func (t *Telegram) Stop() {
	if t == nil || t.bot == nil {
		return
	}
	t.bot.StopReceivingUpdates()
}

// Log: нотифайер без телеграма, всё уходит в лог.
type Log struct{}

func NewLog() *Log { return &Log{} }

func (Log) SendService(_ context.Context, format string, args ...any) {
	logger.Warn("[NOTIFY] "+format, args...)
}
