package main

import (
	"context"
	"log"

	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"

	"signal_bot/internal/exchange"
	"signal_bot/internal/metrics"
	"signal_bot/internal/modules/config"
	"signal_bot/internal/modules/health"
	"signal_bot/internal/modules/postgres"
	telegram "signal_bot/internal/modules/telegram_bot"
	"signal_bot/internal/notify"
	"signal_bot/internal/runner"
	"signal_bot/pkg/logger"
	"signal_bot/pkg/tracing"
)

func main() {
	cfg, err := config.NewConfig()
	if err != nil {
		log.Fatal(err)
	}
	if err := logger.Init(cfg.Service.LogLevel, cfg.Service.Name); err != nil {
		log.Fatal(err)
	}
	defer logger.Sync()
	logger.Info("effective config:\n%s", cfg.Dump())

	if cfg.Tracing.Enabled {
		tracing.SetServiceName(cfg.Service.Name)
		_, closeTracer, err := tracing.InitTracer(tracing.Config{Host: cfg.Tracing.Host, Port: cfg.Tracing.Port})
		if err != nil {
			logger.Fatal("init tracer: %v", err)
		}
		defer closeTracer()
	}

	app := fx.New(
		fx.WithLogger(func() fxevent.Logger {
			return &fxevent.ZapLogger{Logger: logger.InfoLogger.WithOptions(zap.IncreaseLevel(zap.WarnLevel))}
		}),
		fx.Provide(
			func() context.Context {
				return context.Background()
			},
			metrics.New,
		),
		config.Module(cfg),
		postgres.Module(),
		exchange.Module(),
		notify.Module(),
		runner.Module(),
		health.Module(),
		telegram.Module(),
	)
	app.Run()
}
