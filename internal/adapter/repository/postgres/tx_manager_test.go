package postgres

import (
	"context"
	"errors"
	"testing"

	"github.com/pashagolub/pgxmock/v4"
)

func newLedgerMockPool(t *testing.T) pgxmock.PgxPoolIface {
	t.Helper()
	pool, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock pool: %v", err)
	}
	t.Cleanup(pool.Close)
	return pool
}

func TestTxManager_CommitPath(t *testing.T) {
	pool := newLedgerMockPool(t)
	pool.ExpectBegin()
	pool.ExpectCommit()

	tx, err := newTxManagerWithPool(pool).Begin(context.Background())
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	if err := tx.Commit(context.Background()); err != nil {
		t.Fatalf("commit: %v", err)
	}

	if err := pool.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestTxManager_RollbackPath(t *testing.T) {
	pool := newLedgerMockPool(t)
	pool.ExpectBegin()
	pool.ExpectRollback()

	tx, err := newTxManagerWithPool(pool).Begin(context.Background())
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	if err := tx.Rollback(context.Background()); err != nil {
		t.Fatalf("rollback: %v", err)
	}

	if err := pool.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestTxManager_BeginFailureSurfaces(t *testing.T) {
	pool := newLedgerMockPool(t)
	beginErr := errors.New("pool exhausted")
	pool.ExpectBegin().WillReturnError(beginErr)

	if _, err := newTxManagerWithPool(pool).Begin(context.Background()); !errors.Is(err, beginErr) {
		t.Fatalf("begin error = %v, want the pool's error", err)
	}
}
