package service

import (
	"context"
	"io"
	"net/http"
	"net/url"

	"github.com/bytedance/sonic"
	"github.com/pkg/errors"
	"golang.org/x/sync/singleflight"

	"rate_monitor/internal/models"
	"rate_monitor/internal/modules/config"
	session "rate_monitor/internal/modules/session/service"
	"rate_monitor/pkg/logger"
)

// Session: то, что клиенту нужно от менеджера сессии.
type Session interface {
	Token() string
	LoggedIn() bool
	Login(ctx context.Context) error
	Logout()
	WaitLoggedIn(ctx context.Context) error
	Subscribe(fn func(loggedIn bool)) (unsubscribe func())
}

// Client ходит в REST вендора: каталог инструментов и исторические бары.
type Client struct {
	cfg  *config.Config
	sess Session
	http *http.Client

	logins singleflight.Group
}

func NewClient(cfg *config.Config, sess Session) *Client {
	return &Client{
		cfg:  cfg,
		sess: sess,
		http: session.NewAuthorizedClient(sess, cfg.API.HTTPTimeout),
	}
}

// getJSON: одиночный GET под политикой авторизации.
func (c *Client) getJSON(ctx context.Context, endpoint string, params url.Values, out any) error {
	return c.withRelogin(ctx, endpoint, func(ctx context.Context) error {
		return c.fetch(ctx, endpoint, params, out)
	})
}

// withRelogin применяет политику авторизации ко всей операции целиком. На 401 ровно один
// перелогин и один повтор всей op; если и это не удалось: logout. Прочие ошибки не повторяются.
func (c *Client) withRelogin(ctx context.Context, name string, op func(ctx context.Context) error) error {
	err := op(ctx)
	if err == nil || !errors.Is(err, models.ErrUnauthorized) {
		return err
	}

	logger.Warn("[MARKETS] %s: unauthorized, trying to re-login", name)
	if err := c.relogin(ctx); err != nil {
		c.logoutUnlessCancelled(ctx)
		return err
	}
	if err := op(ctx); err != nil {
		c.logoutUnlessCancelled(ctx)
		return err
	}
	return nil
}

// relogin схлопывает одновременные перелогины разных операций в один запрос токена.
func (c *Client) relogin(ctx context.Context) error {
	_, err, _ := c.logins.Do("login", func() (any, error) {
		return nil, c.sess.Login(ctx)
	})
	return err
}

// отменённый вызывающим запрос: не повод рвать сессию
func (c *Client) logoutUnlessCancelled(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	c.sess.Logout()
}

func (c *Client) fetch(ctx context.Context, endpoint string, params url.Values, out any) error {
	u := endpoint
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return errors.Wrapf(models.ErrRequest, "build request %s: %v", endpoint, err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return errors.Wrapf(models.ErrRequest, "GET %s: %v", endpoint, err)
	}
	defer resp.Body.Close()

	b, _ := io.ReadAll(resp.Body)
	if resp.StatusCode == http.StatusUnauthorized {
		return errors.Wrapf(models.ErrUnauthorized, "GET %s", endpoint)
	}
	if resp.StatusCode/100 != 2 {
		return errors.Wrapf(models.ErrRequest, "http %d: %s", resp.StatusCode, string(b))
	}

	if err := sonic.Unmarshal(b, out); err != nil {
		return errors.Wrapf(models.ErrRequest, "decode %s: %v", endpoint, err)
	}
	return nil
}
