package widget

import (
	"context"

	"go.uber.org/fx"

	"rate_monitor/internal/modules/config"
	markets "rate_monitor/internal/modules/markets/service"
	preferences "rate_monitor/internal/modules/preferences/service"
	realtime "rate_monitor/internal/modules/realtime/service"
	selection "rate_monitor/internal/modules/selection/service"
	"rate_monitor/internal/modules/widget/service"
	"rate_monitor/pkg/logger"
)

func Module() fx.Option {
	return fx.Module("widget",
		fx.Provide(
			func(cfg *config.Config, c *markets.Cache, sel *selection.State, rt *realtime.Coordinator, store preferences.Store) *service.Widget {
				return service.NewWidget(cfg, c, sel, rt, store)
			},
		),
		fx.Invoke(func(lc fx.Lifecycle, w *service.Widget) {
			lc.Append(fx.Hook{
				OnStart: func(ctx context.Context) error {
					// без сохранённых настроек стартуем на дефолтах
					if err := w.Restore(ctx); err != nil {
						logger.Warn("[WIDGET] %v", err)
					}
					return nil
				},
			})
		}),
	)
}
