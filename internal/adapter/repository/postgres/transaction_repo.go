package postgres

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/okiba/bookd/internal/domain"
	"github.com/okiba/bookd/internal/usecase"
)

const transactionColumns = `id, owner_id, org_id, account_id, type, amount, date, category,
	party_id, counterparty, notes, balance_after, account_version, state, source,
	created_at, updated_at`

// TransactionRepository implements usecase.TransactionRepository.
type TransactionRepository struct {
	pool *pgxpool.Pool
}

// NewTransactionRepository creates a new TransactionRepository.
func NewTransactionRepository(pool *pgxpool.Pool) *TransactionRepository {
	return &TransactionRepository{pool: pool}
}

// Create inserts a new ledger transaction inside the caller's transaction.
func (r *TransactionRepository) Create(ctx context.Context, tx usecase.Transaction, txn *domain.Transaction) error {
	query := `
		INSERT INTO transactions (` + transactionColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
	`

	_, err := tx.(*Tx).PgxTx().Exec(ctx, query,
		txn.ID,
		txn.OwnerID,
		txn.OrgID,
		txn.AccountID,
		txn.Type,
		decimalToNumeric(txn.Amount),
		txn.Date,
		txn.Category,
		txn.PartyID,
		txn.Counterparty,
		txn.Notes,
		decimalToNumeric(txn.BalanceAfter),
		txn.AccountVersion,
		txn.State,
		txn.Source,
		txn.CreatedAt,
		txn.UpdatedAt,
	)

	return err
}

// GetByID retrieves a transaction by ID within the caller's scope.
func (r *TransactionRepository) GetByID(ctx context.Context, scope domain.Scope, id string) (*domain.Transaction, error) {
	query := `
		SELECT ` + transactionColumns + `
		FROM transactions
		WHERE id = $1 AND owner_id = $2
	`

	return scanTransaction(r.pool.QueryRow(ctx, query, id, scope.OwnerID), id)
}

// Update rewrites the editable transaction fields.
func (r *TransactionRepository) Update(ctx context.Context, tx usecase.Transaction, txn *domain.Transaction) error {
	query := `
		UPDATE transactions
		SET date = $2, category = $3, party_id = $4, counterparty = $5,
		    notes = $6, updated_at = $7
		WHERE id = $1
	`

	tag, err := tx.(*Tx).PgxTx().Exec(ctx, query,
		txn.ID,
		txn.Date,
		txn.Category,
		txn.PartyID,
		txn.Counterparty,
		txn.Notes,
		txn.UpdatedAt,
	)
	if err != nil {
		return err
	}

	if tag.RowsAffected() == 0 {
		return notFound("transaction", txn.ID)
	}

	return nil
}

// SetState moves a transaction between lifecycle states. Voids go through
// here; rows are never deleted.
func (r *TransactionRepository) SetState(ctx context.Context, tx usecase.Transaction, id string, state domain.TxState, updatedAt time.Time) error {
	query := `
		UPDATE transactions
		SET state = $2, updated_at = $3
		WHERE id = $1
	`

	tag, err := tx.(*Tx).PgxTx().Exec(ctx, query, id, state, updatedAt)
	if err != nil {
		return err
	}

	if tag.RowsAffected() == 0 {
		return notFound("transaction", id)
	}

	return nil
}

// List lists transactions within scope, filtered and ordered by (date, id).
func (r *TransactionRepository) List(ctx context.Context, scope domain.Scope, filter usecase.TransactionFilter) ([]*domain.Transaction, error) {
	query := `
		SELECT ` + transactionColumns + `
		FROM transactions
		WHERE owner_id = $1
	`
	args := []any{scope.OwnerID}

	if filter.AccountID != "" {
		args = append(args, filter.AccountID)
		query += ` AND account_id = $` + strconv.Itoa(len(args))
	}

	if filter.Type != "" {
		args = append(args, filter.Type)
		query += ` AND type = $` + strconv.Itoa(len(args))
	}

	if filter.From != nil {
		args = append(args, *filter.From)
		query += ` AND date >= $` + strconv.Itoa(len(args))
	}

	if filter.To != nil {
		args = append(args, *filter.To)
		query += ` AND date < $` + strconv.Itoa(len(args))
	}

	if filter.MinAmount != nil {
		args = append(args, decimalToNumeric(*filter.MinAmount))
		query += ` AND amount >= $` + strconv.Itoa(len(args))
	}

	if filter.MaxAmount != nil {
		args = append(args, decimalToNumeric(*filter.MaxAmount))
		query += ` AND amount <= $` + strconv.Itoa(len(args))
	}

	if filter.Query != "" {
		args = append(args, "%"+filter.Query+"%")
		pos := strconv.Itoa(len(args))
		query += ` AND (counterparty ILIKE $` + pos + ` OR notes ILIKE $` + pos + ` OR category ILIKE $` + pos + `)`
	}

	query += ` ORDER BY date, id`

	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += ` LIMIT $` + strconv.Itoa(len(args))
	}

	if filter.Offset > 0 {
		args = append(args, filter.Offset)
		query += ` OFFSET $` + strconv.Itoa(len(args))
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var txns []*domain.Transaction
	for rows.Next() {
		txn, err := scanTransaction(rows, "")
		if err != nil {
			return nil, err
		}
		txns = append(txns, txn)
	}

	return txns, rows.Err()
}

// SumActiveBetween returns debit and credit totals of active transactions
// with from <= date < to. A zero bound means unbounded on that side.
func (r *TransactionRepository) SumActiveBetween(ctx context.Context, tx usecase.Transaction, accountID string, from, to time.Time) (decimal.Decimal, decimal.Decimal, error) {
	query := `
		SELECT COALESCE(SUM(amount) FILTER (WHERE type = 'debit'), 0),
		       COALESCE(SUM(amount) FILTER (WHERE type = 'credit'), 0)
		FROM transactions
		WHERE account_id = $1 AND state = 'active'
	`
	args := []any{accountID}

	if !from.IsZero() {
		args = append(args, from)
		query += ` AND date >= $` + strconv.Itoa(len(args))
	}

	if !to.IsZero() {
		args = append(args, to)
		query += ` AND date < $` + strconv.Itoa(len(args))
	}

	var q querier = r.pool
	if tx != nil {
		q = tx.(*Tx).PgxTx()
	}

	var debit, credit pgtype.Numeric
	if err := q.QueryRow(ctx, query, args...).Scan(&debit, &credit); err != nil {
		return decimal.Zero, decimal.Zero, err
	}

	return numericToDecimal(debit), numericToDecimal(credit), nil
}

// ExistsActiveMatch reports whether an active transaction with the same
// account, type, two-decimal amount and UTC calendar date already exists.
func (r *TransactionRepository) ExistsActiveMatch(ctx context.Context, accountID string, typ domain.EntryType, amount decimal.Decimal, date time.Time) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM transactions
			WHERE account_id = $1
			  AND type = $2
			  AND state = 'active'
			  AND round(amount, 2) = $3
			  AND (date AT TIME ZONE 'UTC')::date = $4
		)
	`

	var exists bool
	err := r.pool.QueryRow(ctx, query,
		accountID,
		typ,
		decimalToNumeric(amount.Round(2)),
		date.UTC().Format("2006-01-02"),
	).Scan(&exists)

	return exists, err
}

// LatestActiveDate returns the date of the newest active transaction, or nil
// when the account has none.
func (r *TransactionRepository) LatestActiveDate(ctx context.Context, accountID string) (*time.Time, error) {
	return r.boundaryDate(ctx, accountID, "MAX")
}

// EarliestActiveDate returns the date of the oldest active transaction, or
// nil when the account has none.
func (r *TransactionRepository) EarliestActiveDate(ctx context.Context, accountID string) (*time.Time, error) {
	return r.boundaryDate(ctx, accountID, "MIN")
}

func (r *TransactionRepository) boundaryDate(ctx context.Context, accountID, agg string) (*time.Time, error) {
	query := `
		SELECT ` + agg + `(date)
		FROM transactions
		WHERE account_id = $1 AND state = 'active'
	`

	var date pgtype.Timestamptz
	if err := r.pool.QueryRow(ctx, query, accountID).Scan(&date); err != nil {
		return nil, err
	}

	if !date.Valid {
		return nil, nil
	}

	t := date.Time

	return &t, nil
}

func scanTransaction(row pgx.Row, id string) (*domain.Transaction, error) {
	var (
		txn                  domain.Transaction
		amount, balanceAfter pgtype.Numeric
	)

	err := row.Scan(
		&txn.ID,
		&txn.OwnerID,
		&txn.OrgID,
		&txn.AccountID,
		&txn.Type,
		&amount,
		&txn.Date,
		&txn.Category,
		&txn.PartyID,
		&txn.Counterparty,
		&txn.Notes,
		&balanceAfter,
		&txn.AccountVersion,
		&txn.State,
		&txn.Source,
		&txn.CreatedAt,
		&txn.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, notFound("transaction", id)
	}
	if err != nil {
		return nil, err
	}

	txn.Amount = numericToDecimal(amount)
	txn.BalanceAfter = numericToDecimal(balanceAfter)

	return &txn, nil
}
