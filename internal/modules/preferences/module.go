package preferences

import (
	"go.uber.org/fx"

	"rate_monitor/internal/modules/preferences/service"
	"rate_monitor/internal/modules/preferences/service/pg"
	"rate_monitor/pkg/db"
)

func Module() fx.Option {
	return fx.Module("preferences",
		fx.Provide(
			func(tx *db.PgTxManager) service.Store {
				if tx == nil {
					return service.NewMemory()
				}
				return pg.NewPreferences(tx)
			},
		),
	)
}
