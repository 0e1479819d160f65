package bootstrap

import (
	"context"

	"go.uber.org/fx"

	"rate_monitor/internal/modules/config"
	"rate_monitor/internal/notify"
	"rate_monitor/pkg/logger"
	"rate_monitor/pkg/tracing"
)

// Module настраивает логгер и трейсер по конфигу и сообщает оператору о старте и остановке.
// Ставить первым после config: хуки выполняются в порядке регистрации.
func Module() fx.Option {
	return fx.Module("bootstrap",
		fx.Invoke(func(lc fx.Lifecycle, cfg *config.Config) error {
			logger.SetServiceName(cfg.Tracing.ServiceName)
			if err := logger.Init(cfg.LogLevel); err != nil {
				return err
			}
			tracing.SetServiceName(cfg.Tracing.ServiceName)
			_, closeTracer, err := tracing.InitTracer(tracing.Config{
				Host: cfg.Tracing.Host,
				Port: cfg.Tracing.Port,
			})
			if err != nil {
				return err
			}
			lc.Append(fx.StopHook(func() {
				closeTracer()
				logger.Sync()
			}))
			return nil
		}),
		fx.Invoke(func(lc fx.Lifecycle, cfg *config.Config, n notify.Notifier) {
			lc.Append(fx.Hook{
				OnStart: func(ctx context.Context) error {
					logger.Info("[BOOT] started, api %s, provider %s", cfg.API.BaseURL, cfg.API.Provider)
					n.SendService(ctx, "🚀 rate monitor started (%s)", cfg.Widget.Profile)
					return nil
				},
				OnStop: func(ctx context.Context) error {
					n.SendService(ctx, "🛑 rate monitor stopping")
					return nil
				},
			})
		}),
	)
}
