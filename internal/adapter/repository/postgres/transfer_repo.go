package postgres

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/okiba/bookd/internal/domain"
	"github.com/okiba/bookd/internal/usecase"
)

const transferColumns = `id, owner_id, org_id, from_account_id, to_account_id,
	debit_transaction_id, credit_transaction_id, amount, date, client_request_id,
	metadata, created_at`

// TransferRepository implements usecase.TransferRepository.
type TransferRepository struct {
	pool *pgxpool.Pool
}

// NewTransferRepository creates a new TransferRepository.
func NewTransferRepository(pool *pgxpool.Pool) *TransferRepository {
	return &TransferRepository{pool: pool}
}

// Create inserts a transfer inside the caller's transaction. A duplicate
// client request id surfaces as a ConflictError so the use case can re-fetch
// the winning transfer.
func (r *TransferRepository) Create(ctx context.Context, tx usecase.Transaction, transfer *domain.Transfer) error {
	var metadata []byte
	if transfer.Metadata != nil {
		var err error
		metadata, err = json.Marshal(transfer.Metadata)
		if err != nil {
			return err
		}
	}

	query := `
		INSERT INTO transfers (` + transferColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`

	_, err := tx.(*Tx).PgxTx().Exec(ctx, query,
		transfer.ID,
		transfer.OwnerID,
		transfer.OrgID,
		transfer.FromAccountID,
		transfer.ToAccountID,
		transfer.DebitTransactionID,
		transfer.CreditTransactionID,
		decimalToNumeric(transfer.Amount),
		transfer.Date,
		transfer.ClientRequestID,
		metadata,
		transfer.CreatedAt,
	)
	if isUniqueViolation(err) {
		return &domain.ConflictError{Message: "client request id already used"}
	}

	return err
}

// GetByID retrieves a transfer by ID within the caller's scope.
func (r *TransferRepository) GetByID(ctx context.Context, scope domain.Scope, id string) (*domain.Transfer, error) {
	query := `
		SELECT ` + transferColumns + `
		FROM transfers
		WHERE id = $1 AND owner_id = $2
	`

	transfer, err := scanTransfer(r.pool.QueryRow(ctx, query, id, scope.OwnerID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, notFound("transfer", id)
	}

	return transfer, err
}

// GetByClientRequestID returns nil, nil when no transfer carries the key.
func (r *TransferRepository) GetByClientRequestID(ctx context.Context, scope domain.Scope, clientRequestID string) (*domain.Transfer, error) {
	query := `
		SELECT ` + transferColumns + `
		FROM transfers
		WHERE owner_id = $1 AND client_request_id = $2
	`

	transfer, err := scanTransfer(r.pool.QueryRow(ctx, query, scope.OwnerID, clientRequestID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}

	return transfer, err
}

// ListByAccount lists transfers touching the account on either side, newest
// first.
func (r *TransferRepository) ListByAccount(ctx context.Context, scope domain.Scope, accountID string, limit, offset int) ([]*domain.Transfer, error) {
	query := `
		SELECT ` + transferColumns + `
		FROM transfers
		WHERE owner_id = $1 AND (from_account_id = $2 OR to_account_id = $2)
		ORDER BY date DESC, id DESC
		LIMIT $3 OFFSET $4
	`

	rows, err := r.pool.Query(ctx, query, scope.OwnerID, accountID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var transfers []*domain.Transfer
	for rows.Next() {
		transfer, err := scanTransfer(rows)
		if err != nil {
			return nil, err
		}
		transfers = append(transfers, transfer)
	}

	return transfers, rows.Err()
}

func scanTransfer(row pgx.Row) (*domain.Transfer, error) {
	var (
		transfer domain.Transfer
		amount   pgtype.Numeric
		metadata []byte
	)

	err := row.Scan(
		&transfer.ID,
		&transfer.OwnerID,
		&transfer.OrgID,
		&transfer.FromAccountID,
		&transfer.ToAccountID,
		&transfer.DebitTransactionID,
		&transfer.CreditTransactionID,
		&amount,
		&transfer.Date,
		&transfer.ClientRequestID,
		&metadata,
		&transfer.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	transfer.Amount = numericToDecimal(amount)
	if metadata != nil {
		_ = json.Unmarshal(metadata, &transfer.Metadata)
	}

	return &transfer, nil
}
