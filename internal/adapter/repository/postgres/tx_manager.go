package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/okiba/bookd/internal/usecase"
)

// txBeginner is the slice of the pool the manager needs; tests substitute
// a pgxmock pool here.
type txBeginner interface {
	Begin(context.Context) (pgx.Tx, error)
}

// TxManager hands out the database transactions that ledger writes run
// inside. Per-account serialization comes from FOR UPDATE row locks taken
// within these transactions, so the isolation level stays at the default.
type TxManager struct {
	pool txBeginner
}

func NewTxManager(pool *pgxpool.Pool) *TxManager {
	return newTxManagerWithPool(pool)
}

func newTxManagerWithPool(pool txBeginner) *TxManager {
	return &TxManager{pool: pool}
}

// Begin starts a transaction. The caller owns it: Commit on success,
// deferred Rollback otherwise.
func (m *TxManager) Begin(ctx context.Context) (usecase.Transaction, error) {
	tx, err := m.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}

	return &Tx{tx: tx}, nil
}

// Tx adapts a pgx transaction to the usecase.Transaction port.
type Tx struct {
	tx pgx.Tx
}

func (t *Tx) Commit(ctx context.Context) error {
	return t.tx.Commit(ctx)
}

func (t *Tx) Rollback(ctx context.Context) error {
	return t.tx.Rollback(ctx)
}

// PgxTx exposes the wrapped transaction to repositories in this package.
func (t *Tx) PgxTx() pgx.Tx {
	return t.tx
}
