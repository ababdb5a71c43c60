package runner

import (
	"context"
	"errors"

	"go.uber.org/fx"

	"signal_bot/internal/exchange"
	"signal_bot/internal/metrics"
	"signal_bot/internal/models"
	"signal_bot/internal/modules/config"
	"signal_bot/internal/notify"
	"signal_bot/pkg/logger"
)

func Module() fx.Option {
	return fx.Module("runner",
		fx.Provide(
			func(ctx context.Context, md *exchange.Binance, n notify.Notifier, cfg models.StrategyConfig, m *metrics.Metrics) *Runner {
				return New(ctx, md, n, cfg, m)
			},
		),
		fx.Invoke(func(lc fx.Lifecycle, r *Runner, cfg *config.Config) {
			lc.Append(fx.Hook{
				OnStart: func(_ context.Context) error {
					if !cfg.Service.Autostart {
						return nil
					}
					// первый цикл ходит в сеть: не держим старт приложения
					go func() {
						if err := r.Start(context.Background()); err != nil {
							logger.Error("[RUNNER] autostart: %v", err)
						}
					}()
					return nil
				},
				OnStop: func(ctx context.Context) error {
					if err := r.Stop(ctx); err != nil && !errors.Is(err, ErrNotActive) {
						return err
					}
					return nil
				},
			})
		}),
	)
}
