package postgres

import (
	"context"

	"go.uber.org/fx"

	"signal_bot/internal/modules/config"
	"signal_bot/pkg/db"
	"signal_bot/pkg/logger"
)

// NewTxManager поднимает пул только если журнал сигналов включён в notifier.backends.
// Иначе возвращает nil: журнал просто не собирается.
func NewTxManager(lc fx.Lifecycle, ctx context.Context, cfg *config.Config) (*db.PgTxManager, error) {
	if !hasBackend(cfg, "journal") || cfg.Notifier.Journal.DSN == "" {
		return nil, nil
	}

	m, err := db.Connect(ctx, db.PoolConfig{
		DSN: cfg.Notifier.Journal.DSN,
	})
	if err != nil {
		return nil, err
	}

	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			logger.Info("[PG] closing pool")
			m.Close()
			return nil
		},
	})
	return m, nil
}

func hasBackend(cfg *config.Config, name string) bool {
	for _, b := range cfg.BackendList() {
		if b == name {
			return true
		}
	}
	return false
}

// ProvideAppConfig регистрируем как fx-провайдер.
func Module() fx.Option {
	return fx.Module("postgres",
		fx.Provide(
			NewTxManager,
		),
	)
}
