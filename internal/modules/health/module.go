package health

import (
	"go.uber.org/fx"

	"rate_monitor/internal/modules/health/service"
	session "rate_monitor/internal/modules/session/service"
)

// Module: ready = есть действующая сессия вендора. HTTP-ручки живут в api.
func Module() fx.Option {
	return fx.Module("health",
		fx.Provide(
			service.NewState,
		),
		fx.Invoke(func(lc fx.Lifecycle, state *service.State, m *session.Manager) {
			unsubscribe := m.Subscribe(state.SetReady)
			lc.Append(fx.StopHook(unsubscribe))
		}),
	)
}
