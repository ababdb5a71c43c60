package db

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"signal_bot/pkg/logger"
)

// PoolConfig: журналу сигналов хватает маленького пула.
type PoolConfig struct {
	DSN            string
	MaxConns       int32
	ConnectTimeout time.Duration
}

const (
	defaultMaxConns       = 4
	defaultConnectTimeout = 5 * time.Second
)

type PgTxManager struct {
	pool *pgxpool.Pool
}

func NewPgTxManager(pool *pgxpool.Pool) *PgTxManager {
	return &PgTxManager{pool: pool}
}

func (m *PgTxManager) Close() {
	m.pool.Close()
}

func poolConfig(conf PoolConfig) (*pgxpool.Config, error) {
	pc, err := pgxpool.ParseConfig(conf.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse dsn: %w", err)
	}
	pc.MaxConns = defaultMaxConns
	if conf.MaxConns > 0 {
		pc.MaxConns = conf.MaxConns
	}
	pc.ConnConfig.ConnectTimeout = defaultConnectTimeout
	if conf.ConnectTimeout > 0 {
		pc.ConnConfig.ConnectTimeout = conf.ConnectTimeout
	}
	return pc, nil
}

// Connect создаёт пул и сразу пингует базу.
func Connect(ctx context.Context, conf PoolConfig) (*PgTxManager, error) {
	pc, err := poolConfig(conf)
	if err != nil {
		return nil, err
	}
	pool, err := pgxpool.NewWithConfig(ctx, pc)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	logger.Info("[PG] pool ready, max conns %d", pc.MaxConns)
	return NewPgTxManager(pool), nil
}

// RunMaster: DDL схемы журнала идёт одной транзакцией.
func (m *PgTxManager) RunMaster(ctx context.Context, fn func(ctxTx context.Context, tx pgx.Tx) error) error {
	return m.inTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted}, fn)
}

// Conn: одиночные вставки журнала идут мимо транзакции.
func (m *PgTxManager) Conn() Transaction {
	return m.pool
}

func (m *PgTxManager) inTx(ctx context.Context, opts pgx.TxOptions, fn func(ctxTx context.Context, tx pgx.Tx) error) (err error) {
	tx, err := m.pool.BeginTx(ctx, opts)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			logger.Error("[PG] tx panic: %v", p)
			_ = tx.Rollback(ctx)
			panic(p)
		}
		if err != nil {
			_ = tx.Rollback(ctx)
			return
		}
		if cerr := tx.Commit(ctx); cerr != nil {
			err = fmt.Errorf("commit tx: %w", cerr)
		}
	}()

	if err = fn(ctx, tx); err != nil {
		return fmt.Errorf("tx fn: %w", err)
	}
	return nil
}
