package notify

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"signal_bot/pkg/db"
)

type recordedExec struct {
	sql  string
	args []any
}

type fakeConn struct {
	execs []recordedExec
	err   error
}

func (f *fakeConn) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	f.execs = append(f.execs, recordedExec{sql: sql, args: args})
	return pgconn.CommandTag{}, f.err
}

func (f *fakeConn) Query(context.Context, string, ...interface{}) (pgx.Rows, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeConn) QueryRow(context.Context, string, ...interface{}) pgx.Row {
	return nil
}

// fakeTx реализует только Exec, остальное паникует через nil-интерфейс.
type fakeTx struct {
	pgx.Tx
	conn *fakeConn
}

func (t fakeTx) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	return t.conn.Exec(ctx, sql, args...)
}

type fakeTxManager struct {
	conn *fakeConn
	runs int
}

func (m *fakeTxManager) RunMaster(ctx context.Context, fn func(ctxTx context.Context, tx pgx.Tx) error) error {
	m.runs++
	return fn(ctx, fakeTx{conn: m.conn})
}

func (m *fakeTxManager) Conn() db.Transaction { return m.conn }

func TestJournalEnsureSchema(t *testing.T) {
	m := &fakeTxManager{conn: &fakeConn{}}
	j := NewJournal(m, "trade signals")

	if err := j.EnsureSchema(context.Background()); err != nil {
		t.Fatalf("ensure schema: %v", err)
	}
	if m.runs != 1 {
		t.Fatalf("runs=%d want 1", m.runs)
	}
	if len(m.conn.execs) != 2 {
		t.Fatalf("execs=%d want 2", len(m.conn.execs))
	}
	if !strings.Contains(m.conn.execs[0].sql, `CREATE TABLE IF NOT EXISTS "trade signals"`) {
		t.Fatalf("table ddl: %s", m.conn.execs[0].sql)
	}
	if !strings.Contains(m.conn.execs[1].sql, `"trade signals_symbol_signal_at_idx"`) {
		t.Fatalf("index ddl: %s", m.conn.execs[1].sql)
	}
}

func TestJournalDeliver(t *testing.T) {
	sig, cfg := testSignal()
	m := &fakeTxManager{conn: &fakeConn{}}

	if err := NewJournal(m, "").Deliver(context.Background(), sig, cfg); err != nil {
		t.Fatalf("deliver: %v", err)
	}
	if len(m.conn.execs) != 1 {
		t.Fatalf("execs=%d want 1", len(m.conn.execs))
	}
	e := m.conn.execs[0]
	if !strings.HasPrefix(e.sql, `INSERT INTO "signals"`) {
		t.Fatalf("sql: %s", e.sql)
	}
	if len(e.args) != 10 {
		t.Fatalf("args=%d want 10", len(e.args))
	}
	if e.args[0] != sig.ID || e.args[3] != "BUY" {
		t.Fatalf("args: %v", e.args)
	}
	if ts, ok := e.args[9].(time.Time); !ok || ts.UnixMilli() != sig.Timestamp {
		t.Fatalf("signal_at: %v", e.args[9])
	}
}

func TestJournalDeliverError(t *testing.T) {
	sig, cfg := testSignal()
	m := &fakeTxManager{conn: &fakeConn{err: errors.New("conn refused")}}

	err := NewJournal(m, "signals").Deliver(context.Background(), sig, cfg)
	if err == nil || !strings.Contains(err.Error(), "conn refused") {
		t.Fatalf("expected wrapped error, got %v", err)
	}
}
