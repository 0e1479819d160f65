package main

import (
	"context"

	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"

	"rate_monitor/internal/modules/api"
	"rate_monitor/internal/modules/bootstrap"
	"rate_monitor/internal/modules/config"
	"rate_monitor/internal/modules/health"
	"rate_monitor/internal/modules/markets"
	"rate_monitor/internal/modules/postgres"
	"rate_monitor/internal/modules/preferences"
	"rate_monitor/internal/modules/realtime"
	"rate_monitor/internal/modules/selection"
	"rate_monitor/internal/modules/session"
	"rate_monitor/internal/modules/telegram"
	"rate_monitor/internal/modules/widget"
	"rate_monitor/pkg/logger"
)

func options() fx.Option {
	return fx.Options(
		fx.Provide(
			func() context.Context {
				return context.Background()
			},
		),
		fx.WithLogger(func() fxevent.Logger {
			return &fxevent.ZapLogger{Logger: logger.InfoLogger.With(zap.String("component", "fx"))}
		}),
		config.Module(),
		bootstrap.Module(),
		telegram.Module(),
		postgres.Module(),
		preferences.Module(),
		session.Module(),
		selection.Module(),
		health.Module(),
		markets.Module(),
		realtime.Module(),
		widget.Module(),
		api.Module(),
	)
}

func main() {
	// до чтения конфига: info; bootstrap переинициализирует с log_level
	if err := logger.Init(""); err != nil {
		panic(err)
	}

	app := fx.New(options())
	app.Run()
	if err := app.Err(); err != nil {
		logger.Fatal("start: %v", err)
	}
}
