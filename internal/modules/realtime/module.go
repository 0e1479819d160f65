package realtime

import (
	"context"

	"go.uber.org/fx"

	"rate_monitor/internal/modules/config"
	health "rate_monitor/internal/modules/health/service"
	"rate_monitor/internal/modules/realtime/service"
	selection "rate_monitor/internal/modules/selection/service"
	session "rate_monitor/internal/modules/session/service"
	"rate_monitor/internal/notify"
)

func Module() fx.Option {
	return fx.Module("realtime",
		fx.Provide(
			func(cfg *config.Config, m *session.Manager, sel *selection.State, state *health.State, n notify.Notifier) *service.Coordinator {
				return service.NewCoordinator(cfg, service.NewWSDialer(cfg.API.HandshakeTimeout), m, sel, state, n)
			},
		),
		fx.Invoke(func(lc fx.Lifecycle, c *service.Coordinator) {
			lc.Append(fx.Hook{
				OnStart: func(context.Context) error {
					// ctx хука живёт только на время старта
					c.Start(context.Background())
					return nil
				},
				OnStop: func(context.Context) error {
					c.Stop()
					return nil
				},
			})
		}),
	)
}
