package telegram

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/fx"

	"rate_monitor/internal/modules/config"
	health "rate_monitor/internal/modules/health/service"
	realtime "rate_monitor/internal/modules/realtime/service"
	session "rate_monitor/internal/modules/session/service"
	"rate_monitor/internal/notify"
	"rate_monitor/pkg/logger"
)

// Module: без токена телеграма служебные сообщения идут в лог.
func Module() fx.Option {
	return fx.Module("telegram",
		fx.Provide(
			func(cfg *config.Config) (*notify.Telegram, error) {
				if cfg.Telegram.Token == "" {
					logger.Info("[TG] token not set, notifications go to log")
					return nil, nil
				}
				return notify.NewTelegram(cfg.Telegram.Token, cfg.Telegram.ChatID)
			},
			func(t *notify.Telegram) notify.Notifier {
				if t == nil {
					return notify.NewLog()
				}
				return t
			},
		),
		fx.Invoke(func(lc fx.Lifecycle, t *notify.Telegram, state *health.State, c *realtime.Coordinator, m *session.Manager) {
			if t == nil {
				return
			}
			registerCommands(t, state, c, m)

			ctx, cancel := context.WithCancel(context.Background())
			lc.Append(fx.Hook{
				OnStart: func(context.Context) error {
					t.Start(ctx)
					return nil
				},
				OnStop: func(context.Context) error {
					cancel()
					t.Stop()
					return nil
				},
			})
		}),
	)
}

func registerCommands(t *notify.Telegram, state *health.State, c *realtime.Coordinator, m *session.Manager) {
	t.Handle("status", func(context.Context, string) string {
		s := state.Snapshot()
		return fmt.Sprintf("ready=%v stream=%v conn=%s instrument=%q uptime=%ds",
			s.Ready, s.WSConnected, s.ConnectionID, s.ActiveInstrument, s.UptimeSec)
	})
	t.Handle("price", func(context.Context, string) string {
		d := c.Latest()
		if d == nil {
			return "⏳ нет свежей цены"
		}
		return fmt.Sprintf("%s: %v @ %s", state.ActiveInstrument(), d.Price, d.Timestamp.Format(time.RFC3339))
	})
	t.Handle("relogin", func(ctx context.Context, _ string) string {
		if err := m.Login(ctx); err != nil {
			return "❌ " + err.Error()
		}
		return "✅ logged in"
	})
}
