package markets

import (
	"context"

	"go.uber.org/fx"

	"rate_monitor/internal/models"
	"rate_monitor/internal/modules/config"
	"rate_monitor/internal/modules/markets/service"
	session "rate_monitor/internal/modules/session/service"
)

func Module() fx.Option {
	return fx.Module("markets",
		fx.Provide(
			func(cfg *config.Config, m *session.Manager) *service.Client {
				return service.NewClient(cfg, m)
			},
			service.NewCache,
		),
		fx.Invoke(func(lc fx.Lifecycle, c *service.Cache) {
			lc.Append(fx.Hook{
				OnStart: func(context.Context) error {
					c.Start(context.Background(), models.MarketKinds...)
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
