package service

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/bytedance/sonic"
	"github.com/pkg/errors"

	"rate_monitor/internal/models"
	"rate_monitor/internal/modules/config"
	"rate_monitor/pkg/logger"
	"rate_monitor/pkg/tracing"
)

type ServiceNotifier interface {
	SendService(ctx context.Context, format string, args ...any)
}

type tokenResponseDto struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

type listener struct {
	id int
	fn func(loggedIn bool)
}

// Manager владеет токеном и признаком логина. Остальные компоненты только читают Token()
// и подписываются на переходы логина.
type Manager struct {
	cfg  *config.Config
	n    ServiceNotifier
	http *http.Client

	mu        sync.RWMutex
	token     string
	loggedIn  bool
	changed   chan struct{} // закрывается и пересоздаётся на каждой публикации
	listeners []listener
	nextID    int
}

func NewManager(cfg *config.Config, n ServiceNotifier) *Manager {
	return &Manager{
		cfg: cfg,
		n:   n,
		http: &http.Client{
			Timeout:   cfg.API.HTTPTimeout,
			Transport: tracing.NewTransport(nil),
		},
		changed: make(chan struct{}),
	}
}

func (m *Manager) Token() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.token
}

func (m *Manager) LoggedIn() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.loggedIn
}

// Login обменивает логин/пароль на access token (password grant).
// Успех публикует true даже если сессия уже была: зависимые переоткрывают стрим с новым токеном.
// Ошибка оборачивает models.ErrAuth и состояние не меняет.
func (m *Manager) Login(ctx context.Context) error {
	token, err := m.requestToken(ctx)
	if err != nil {
		logger.Error("[AUTH] login failed: %v", err)
		if m.n != nil {
			m.n.SendService(ctx, "⚠️ login failed: %v", err)
		}
		return err
	}

	m.mu.Lock()
	m.token = token
	m.loggedIn = true
	m.mu.Unlock()

	logger.Info("[AUTH] logged in as %s", m.cfg.API.Username)
	m.publish(true)
	return nil
}

// Logout синхронно сбрасывает токен, сети не трогает.
func (m *Manager) Logout() {
	m.mu.Lock()
	m.token = ""
	m.loggedIn = false
	m.mu.Unlock()

	logger.Info("[AUTH] logged out")
	m.publish(false)
}

func (m *Manager) requestToken(ctx context.Context) (string, error) {
	body := url.Values{}
	body.Set("grant_type", "password")
	body.Set("client_id", m.cfg.API.ClientID)
	body.Set("username", m.cfg.API.Username)
	body.Set("password", m.cfg.API.Password)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.cfg.LoginURL(), strings.NewReader(body.Encode()))
	if err != nil {
		return "", errors.Wrapf(models.ErrAuth, "build token request: %v", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "*/*")

	resp, err := m.http.Do(req)
	if err != nil {
		return "", errors.Wrapf(models.ErrAuth, "token request: %v", err)
	}
	defer resp.Body.Close()

	b, _ := io.ReadAll(resp.Body)
	if resp.StatusCode/100 != 2 {
		return "", errors.Wrapf(models.ErrAuth, "http %d: %s", resp.StatusCode, string(b))
	}

	var dto tokenResponseDto
	if err := sonic.Unmarshal(b, &dto); err != nil {
		return "", errors.Wrapf(models.ErrAuth, "decode token response: %v", err)
	}
	if dto.AccessToken == "" {
		return "", errors.Wrap(models.ErrAuth, "empty access_token")
	}
	return dto.AccessToken, nil
}

// Subscribe регистрирует слушателя переходов логина; вызовы синхронные, в порядке регистрации.
func (m *Manager) Subscribe(fn func(loggedIn bool)) (unsubscribe func()) {
	m.mu.Lock()
	m.nextID++
	id := m.nextID
	m.listeners = append(m.listeners, listener{id: id, fn: fn})
	m.mu.Unlock()

	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		for i, l := range m.listeners {
			if l.id == id {
				m.listeners = append(m.listeners[:i:i], m.listeners[i+1:]...)
				return
			}
		}
	}
}

// WaitLoggedIn блокируется до логина или отмены ctx.
func (m *Manager) WaitLoggedIn(ctx context.Context) error {
	for {
		m.mu.RLock()
		if m.loggedIn {
			m.mu.RUnlock()
			return nil
		}
		ch := m.changed
		m.mu.RUnlock()

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ch:
		}
	}
}

func (m *Manager) publish(loggedIn bool) {
	m.mu.Lock()
	close(m.changed)
	m.changed = make(chan struct{})
	ls := make([]listener, len(m.listeners))
	copy(ls, m.listeners)
	m.mu.Unlock()

	for _, l := range ls {
		l.fn(loggedIn)
	}
}
