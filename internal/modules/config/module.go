package config

import (
	"go.uber.org/fx"

	"signal_bot/internal/models"
)

// Module отдаёт уже загруженный конфиг: он нужен раньше fx (логгер, трейсер).
func Module(cfg *Config) fx.Option {
	return fx.Module("config",
		fx.Supply(cfg),
		fx.Provide(
			func(cfg *Config) models.StrategyConfig { return cfg.StrategyConfig() },
		),
	)
}
