package service

import (
	"net/http"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"rate_monitor/internal/models"
	"rate_monitor/pkg/logger"
)

const (
	pushBuffer   = 16
	writeTimeout = 5 * time.Second
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// realtimeWS пушит клиенту каждое изменение наблюдаемой цены, начиная с текущего значения.
// null: ждём свежий тик или стрим закрыт.
func (s *Server) realtimeWS(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.Warn("[API] ws upgrade: %v", err)
		return
	}
	defer conn.Close()

	updates := make(chan *models.RealtimeData, pushBuffer)
	unsubscribe := s.stream.Subscribe(func(d *models.RealtimeData) {
		select {
		case updates <- d:
		default:
			// слушатель вызывается из цикла стрима, блокировать его нельзя
			logger.Warn("[API] ws client is slow, update dropped")
		}
	})
	defer unsubscribe()

	// читаем только ради close-кадров
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	if err := writeData(conn, s.stream.Latest()); err != nil {
		return
	}
	for {
		select {
		case <-closed:
			return
		case <-c.Request.Context().Done():
			return
		case d := <-updates:
			if err := writeData(conn, d); err != nil {
				logger.Debug("[API] ws write: %v", err)
				return
			}
		}
	}
}

func writeData(conn *websocket.Conn, d *models.RealtimeData) error {
	b, err := sonic.Marshal(d)
	if err != nil {
		return err
	}
	_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return conn.WriteMessage(websocket.TextMessage, b)
}
