package api

import (
	"context"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/fx"

	"rate_monitor/internal/modules/api/service"
	"rate_monitor/internal/modules/config"
	health "rate_monitor/internal/modules/health/service"
	realtime "rate_monitor/internal/modules/realtime/service"
	session "rate_monitor/internal/modules/session/service"
	widget "rate_monitor/internal/modules/widget/service"
	"rate_monitor/pkg/logger"
)

func RunHTTP(lc fx.Lifecycle, cfg *config.Config, s *service.Server) {
	addr := net.JoinHostPort(cfg.Service.Host, strconv.Itoa(cfg.Service.Port))
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			ln, err := net.Listen("tcp", addr)
			if err != nil {
				return err
			}
			logger.Info("[API] listening on %s", addr)
			go func() {
				if err := srv.Serve(ln); err != nil && err != http.ErrServerClosed {
					logger.Error("[API] serve: %v", err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return srv.Shutdown(ctx)
		},
	})
}

func Module() fx.Option {
	return fx.Module("api",
		fx.Provide(
			func(w *widget.Widget, m *session.Manager, c *realtime.Coordinator, state *health.State) *service.Server {
				gin.SetMode(gin.ReleaseMode)
				return service.NewServer(w, m, c, state)
			},
		),
		fx.Invoke(RunHTTP),
	)
}
