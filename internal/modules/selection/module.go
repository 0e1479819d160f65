package selection

import (
	"go.uber.org/fx"

	"rate_monitor/internal/modules/selection/service"
)

func Module() fx.Option {
	return fx.Module("selection",
		fx.Provide(
			service.NewState,
		),
	)
}
