// migrate: создаёт таблицу журнала сигналов (notifier.journal) заранее,
// чтобы бот не делал DDL на старте под ограниченной ролью.
package main

import (
	"context"
	"log"
	"time"

	"github.com/pkg/errors"

	"signal_bot/internal/modules/config"
	"signal_bot/internal/notify"
	"signal_bot/pkg/db"
	"signal_bot/pkg/logger"
)

func run(ctx context.Context, cfg *config.Config) error {
	if cfg.Notifier.Journal.DSN == "" {
		return errors.New("notifier.journal.dsn is empty")
	}

	tx, err := db.Connect(ctx, db.PoolConfig{DSN: cfg.Notifier.Journal.DSN})
	if err != nil {
		return errors.Wrap(err, "connect")
	}
	defer tx.Close()

	j := notify.NewJournal(tx, cfg.Notifier.Journal.Table)
	if err := j.EnsureSchema(ctx); err != nil {
		return errors.Wrapf(err, "ensure schema for table %q", cfg.Notifier.Journal.Table)
	}
	return nil
}

func main() {
	cfg, err := config.NewConfig()
	if err != nil {
		log.Fatal(err)
	}
	if err := logger.Init(cfg.Service.LogLevel, "signal_bot_migrate"); err != nil {
		log.Fatal(err)
	}
	defer logger.Sync()

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	if err := run(ctx, cfg); err != nil {
		logger.Fatal("migrate: %v", err)
	}
	logger.Info("journal table %q is ready", cfg.Notifier.Journal.Table)
}
