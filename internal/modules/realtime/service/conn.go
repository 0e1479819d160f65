package service

import (
	"context"
	"net/url"
	"time"

	"github.com/gorilla/websocket"
	"github.com/pkg/errors"
)

// Conn: минимум websocket-соединения, который нужен координатору.
// *websocket.Conn удовлетворяет ему как есть.
type Conn interface {
	ReadMessage() (messageType int, p []byte, err error)
	WriteMessage(messageType int, data []byte) error
	Close() error
}

type Dialer interface {
	Dial(ctx context.Context, rawURL string) (Conn, error)
}

// WSDialer: Dialer поверх gorilla/websocket.
type WSDialer struct {
	d *websocket.Dialer
}

func NewWSDialer(handshakeTimeout time.Duration) *WSDialer {
	return &WSDialer{
		d: &websocket.Dialer{
			Proxy:            websocket.DefaultDialer.Proxy,
			HandshakeTimeout: handshakeTimeout,
		},
	}
}

func (w *WSDialer) Dial(ctx context.Context, rawURL string) (Conn, error) {
	conn, _, err := w.d.DialContext(ctx, rawURL, nil)
	if err != nil {
		return nil, errors.Wrap(err, "dial realtime ws")
	}
	return conn, nil
}

// streamURL добавляет токен в query: {stream}?token=...
func streamURL(base, token string) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", errors.Wrapf(err, "parse stream url %q", base)
	}
	q := u.Query()
	q.Set("token", token)
	u.RawQuery = q.Encode()
	return u.String(), nil
}
