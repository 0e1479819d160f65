package session

import (
	"context"

	"go.uber.org/fx"

	"rate_monitor/internal/modules/config"
	"rate_monitor/internal/modules/session/service"
	"rate_monitor/internal/notify"
)

// Module поднимает менеджер сессии и логинится при старте, не блокируя запуск.
func Module() fx.Option {
	return fx.Module("session",
		fx.Provide(
			func(cfg *config.Config, n notify.Notifier) *service.Manager {
				return service.NewManager(cfg, n)
			},
		),
		fx.Invoke(func(lc fx.Lifecycle, m *service.Manager) {
			ctx, cancel := context.WithCancel(context.Background())
			lc.Append(fx.Hook{
				OnStart: func(context.Context) error {
					go func() { _ = m.Login(ctx) }() // ошибка уже залогирована
					return nil
				},
				OnStop: func(context.Context) error {
					cancel()
					return nil
				},
			})
		}),
	)
}
