package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"signal_bot/internal/models"
	"signal_bot/pkg/db"
)

// Journal: append-only аудит сигналов в Postgres.
// Таблица никогда не читается ботом: состояние после рестарта не восстанавливается.
type Journal struct {
	tx    db.TxManager
	table string
}

func NewJournal(tx db.TxManager, table string) *Journal {
	if table == "" {
		table = "signals"
	}
	return &Journal{tx: tx, table: pgx.Identifier{table}.Sanitize()}
}

// EnsureSchema создаёт таблицу и индекс, если их нет.
func (j *Journal) EnsureSchema(ctx context.Context) error {
	return j.tx.RunMaster(ctx, func(ctxTx context.Context, tx pgx.Tx) error {
		if _, err := tx.Exec(ctxTx, fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	id          UUID PRIMARY KEY,
	symbol      TEXT NOT NULL,
	timeframe   TEXT NOT NULL,
	side        TEXT NOT NULL,
	entry_price DOUBLE PRECISION NOT NULL,
	stop_loss   DOUBLE PRECISION NOT NULL,
	take_profit DOUBLE PRECISION NOT NULL,
	fast_ma     DOUBLE PRECISION NOT NULL,
	slow_ma     DOUBLE PRECISION NOT NULL,
	signal_at   TIMESTAMPTZ NOT NULL,
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
)`, j.table)); err != nil {
			return fmt.Errorf("create table: %w", err)
		}
		if _, err := tx.Exec(ctxTx, fmt.Sprintf(
			`CREATE INDEX IF NOT EXISTS %s ON %s (symbol, signal_at)`,
			pgx.Identifier{indexName(j.table)}.Sanitize(), j.table,
		)); err != nil {
			return fmt.Errorf("create index: %w", err)
		}
		return nil
	})
}

func (j *Journal) Deliver(ctx context.Context, sig models.Signal, _ models.StrategyConfig) error {
	_, err := j.tx.Conn().Exec(ctx, fmt.Sprintf(`INSERT INTO %s
	(id, symbol, timeframe, side, entry_price, stop_loss, take_profit, fast_ma, slow_ma, signal_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	ON CONFLICT (id) DO NOTHING`, j.table),
		sig.ID, sig.Symbol, sig.Timeframe, string(sig.Side),
		sig.EntryPrice, sig.StopLoss, sig.TakeProfit, sig.FastMA, sig.SlowMA,
		time.UnixMilli(sig.Timestamp).UTC(),
	)
	if err != nil {
		return fmt.Errorf("journal insert: %w", err)
	}
	return nil
}

func indexName(sanitizedTable string) string {
	name := make([]rune, 0, len(sanitizedTable))
	for _, r := range sanitizedTable {
		if r != '"' {
			name = append(name, r)
		}
	}
	return string(name) + "_symbol_signal_at_idx"
}
