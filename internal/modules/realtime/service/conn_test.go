package service

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStreamURL(t *testing.T) {
	u, err := streamURL("wss://platform.test/api/streaming/ws/v1/realtime", "a b+c")
	require.NoError(t, err)
	assert.Equal(t, "wss://platform.test/api/streaming/ws/v1/realtime?token=a+b%2Bc", u)

	u, err = streamURL("ws://host/ws?x=1&token=old", "new")
	require.NoError(t, err)
	assert.Equal(t, "ws://host/ws?token=new&x=1", u)

	_, err = streamURL("://bad", "t")
	assert.Error(t, err)
}

func TestWSDialer_RoundTrip(t *testing.T) {
	upgrader := websocket.Upgrader{}
	gotToken := make(chan string, 1)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotToken <- r.URL.Query().Get("token")
		conn, err := upgrader.Upgrade(w, r, nil)
		if !assert.NoError(t, err) {
			return
		}
		defer conn.Close()

		_, msg, err := conn.ReadMessage()
		if !assert.NoError(t, err) {
			return
		}
		assert.JSONEq(t, `{"id":"1","type":"l1-subscription","instrumentId":"i1","provider":"simulation","subscribe":true,"kinds":["last"]}`, string(msg))
		_ = conn.WriteMessage(websocket.TextMessage,
			[]byte(`{"type":"l1-update","instrumentId":"i1","provider":"simulation","last":{"timestamp":"2024-01-01T10:00:00Z","price":1.0823}}`))
	}))
	defer srv.Close()

	wsURL, err := streamURL("ws"+strings.TrimPrefix(srv.URL, "http"), "tok-1")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	conn, err := NewWSDialer(time.Second).Dial(ctx, wsURL)
	require.NoError(t, err)
	defer conn.Close()

	assert.Equal(t, "tok-1", <-gotToken)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage,
		[]byte(`{"id":"1","type":"l1-subscription","instrumentId":"i1","provider":"simulation","subscribe":true,"kinds":["last"]}`)))
	_, b, err := conn.ReadMessage()
	require.NoError(t, err)

	f := DecodeFrame(b)
	require.Equal(t, FrameTick, f.Kind)
	assert.Equal(t, 1.0823, f.Tick.Last.Price)
}

func TestWSDialer_HandshakeFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	_, err := NewWSDialer(time.Second).Dial(context.Background(), "ws"+strings.TrimPrefix(srv.URL, "http"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "dial realtime ws")
}
