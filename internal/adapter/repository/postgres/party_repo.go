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

const partyColumns = `id, owner_id, org_id, name, kind, email, phone,
	opening_balance, current_balance, credit_limit, credit_days, active,
	created_at, updated_at`

// PartyRepository implements usecase.PartyRepository.
type PartyRepository struct {
	pool *pgxpool.Pool
}

// NewPartyRepository creates a new PartyRepository.
func NewPartyRepository(pool *pgxpool.Pool) *PartyRepository {
	return &PartyRepository{pool: pool}
}

// Create inserts a new party.
func (r *PartyRepository) Create(ctx context.Context, party *domain.Party) error {
	query := `
		INSERT INTO parties (` + partyColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`

	_, err := r.pool.Exec(ctx, query,
		party.ID,
		party.OwnerID,
		party.OrgID,
		party.Name,
		party.Kind,
		party.Email,
		party.Phone,
		decimalToNumeric(party.OpeningBalance),
		decimalToNumeric(party.CurrentBalance),
		decimalToNumeric(party.CreditLimit),
		party.CreditDays,
		party.Active,
		party.CreatedAt,
		party.UpdatedAt,
	)

	return err
}

// GetByID retrieves a party by ID within the caller's scope.
func (r *PartyRepository) GetByID(ctx context.Context, scope domain.Scope, id string) (*domain.Party, error) {
	query := `
		SELECT ` + partyColumns + `
		FROM parties
		WHERE id = $1 AND owner_id = $2
	`

	return scanParty(r.pool.QueryRow(ctx, query, id, scope.OwnerID), id)
}

// GetByIDForUpdate retrieves a party by ID with a FOR UPDATE lock.
func (r *PartyRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, scope domain.Scope, id string) (*domain.Party, error) {
	query := `
		SELECT ` + partyColumns + `
		FROM parties
		WHERE id = $1 AND owner_id = $2
		FOR UPDATE
	`

	return scanParty(tx.(*Tx).PgxTx().QueryRow(ctx, query, id, scope.OwnerID), id)
}

// Update rewrites the mutable party fields.
func (r *PartyRepository) Update(ctx context.Context, party *domain.Party) error {
	query := `
		UPDATE parties
		SET name = $2, email = $3, phone = $4, credit_limit = $5,
		    credit_days = $6, updated_at = $7
		WHERE id = $1 AND owner_id = $8
	`

	tag, err := r.pool.Exec(ctx, query,
		party.ID,
		party.Name,
		party.Email,
		party.Phone,
		decimalToNumeric(party.CreditLimit),
		party.CreditDays,
		party.UpdatedAt,
		party.OwnerID,
	)
	if err != nil {
		return err
	}

	if tag.RowsAffected() == 0 {
		return notFound("party", party.ID)
	}

	return nil
}

// UpdateBalance writes the party's running balance inside a transaction.
func (r *PartyRepository) UpdateBalance(ctx context.Context, tx usecase.Transaction, id string, current decimal.Decimal, updatedAt time.Time) error {
	query := `
		UPDATE parties
		SET current_balance = $2, updated_at = $3
		WHERE id = $1
	`

	tag, err := tx.(*Tx).PgxTx().Exec(ctx, query, id, decimalToNumeric(current), updatedAt)
	if err != nil {
		return err
	}

	if tag.RowsAffected() == 0 {
		return notFound("party", id)
	}

	return nil
}

// Deactivate soft-deletes a party. Its ledger history stays intact.
func (r *PartyRepository) Deactivate(ctx context.Context, scope domain.Scope, id string, updatedAt time.Time) error {
	query := `
		UPDATE parties
		SET active = false, updated_at = $3
		WHERE id = $1 AND owner_id = $2
	`

	tag, err := r.pool.Exec(ctx, query, id, scope.OwnerID, updatedAt)
	if err != nil {
		return err
	}

	if tag.RowsAffected() == 0 {
		return notFound("party", id)
	}

	return nil
}

// List lists parties within scope, optionally filtered by kind.
func (r *PartyRepository) List(ctx context.Context, scope domain.Scope, kind domain.PartyKind, limit, offset int) ([]*domain.Party, error) {
	query := `
		SELECT ` + partyColumns + `
		FROM parties
		WHERE owner_id = $1
	`
	args := []any{scope.OwnerID}

	if kind != "" {
		args = append(args, kind)
		query += ` AND kind = $` + strconv.Itoa(len(args))
	}

	query += ` ORDER BY name, id`

	args = append(args, limit)
	query += ` LIMIT $` + strconv.Itoa(len(args))
	args = append(args, offset)
	query += ` OFFSET $` + strconv.Itoa(len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var parties []*domain.Party
	for rows.Next() {
		party, err := scanParty(rows, "")
		if err != nil {
			return nil, err
		}
		parties = append(parties, party)
	}

	return parties, rows.Err()
}

func scanParty(row pgx.Row, id string) (*domain.Party, error) {
	var (
		party                   domain.Party
		opening, current, limit pgtype.Numeric
	)

	err := row.Scan(
		&party.ID,
		&party.OwnerID,
		&party.OrgID,
		&party.Name,
		&party.Kind,
		&party.Email,
		&party.Phone,
		&opening,
		&current,
		&limit,
		&party.CreditDays,
		&party.Active,
		&party.CreatedAt,
		&party.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, notFound("party", id)
	}
	if err != nil {
		return nil, err
	}

	party.OpeningBalance = numericToDecimal(opening)
	party.CurrentBalance = numericToDecimal(current)
	party.CreditLimit = numericToDecimal(limit)

	return &party, nil
}
