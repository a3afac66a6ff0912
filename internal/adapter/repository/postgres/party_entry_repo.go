package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/okiba/bookd/internal/domain"
	"github.com/okiba/bookd/internal/usecase"
)

// PartyEntryRepository implements usecase.PartyEntryRepository.
type PartyEntryRepository struct {
	pool *pgxpool.Pool
}

// NewPartyEntryRepository creates a new PartyEntryRepository.
func NewPartyEntryRepository(pool *pgxpool.Pool) *PartyEntryRepository {
	return &PartyEntryRepository{pool: pool}
}

// Create inserts a party ledger entry inside the caller's transaction.
func (r *PartyEntryRepository) Create(ctx context.Context, tx usecase.Transaction, entry *domain.PartyEntry) error {
	query := `
		INSERT INTO party_entries (
			id, owner_id, party_id, kind, ref_id, memo, debit, credit, date, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err := tx.(*Tx).PgxTx().Exec(ctx, query,
		entry.ID,
		entry.OwnerID,
		entry.PartyID,
		entry.Kind,
		entry.RefID,
		entry.Memo,
		decimalToNumeric(entry.Debit),
		decimalToNumeric(entry.Credit),
		entry.Date,
		entry.CreatedAt,
	)

	return err
}

// ListByParty returns entries ordered by (date, id) ascending.
func (r *PartyEntryRepository) ListByParty(ctx context.Context, partyID string, limit, offset int) ([]*domain.PartyEntry, error) {
	query := `
		SELECT id, owner_id, party_id, kind, ref_id, memo, debit, credit, date, created_at
		FROM party_entries
		WHERE party_id = $1
		ORDER BY date, id
		LIMIT $2 OFFSET $3
	`

	rows, err := r.pool.Query(ctx, query, partyID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []*domain.PartyEntry
	for rows.Next() {
		var (
			entry         domain.PartyEntry
			debit, credit pgtype.Numeric
		)

		err := rows.Scan(
			&entry.ID,
			&entry.OwnerID,
			&entry.PartyID,
			&entry.Kind,
			&entry.RefID,
			&entry.Memo,
			&debit,
			&credit,
			&entry.Date,
			&entry.CreatedAt,
		)
		if err != nil {
			return nil, err
		}

		entry.Debit = numericToDecimal(debit)
		entry.Credit = numericToDecimal(credit)
		entries = append(entries, &entry)
	}

	return entries, rows.Err()
}

// SumBefore returns the signed sum (debit - credit) of all entries strictly
// before the given offset in (date, id) order. Page openings chain off it.
func (r *PartyEntryRepository) SumBefore(ctx context.Context, partyID string, offset int) (decimal.Decimal, error) {
	query := `
		SELECT COALESCE(SUM(debit - credit), 0)
		FROM (
			SELECT debit, credit
			FROM party_entries
			WHERE party_id = $1
			ORDER BY date, id
			LIMIT $2
		) page
	`

	var sum pgtype.Numeric
	if err := r.pool.QueryRow(ctx, query, partyID, offset).Scan(&sum); err != nil {
		return decimal.Zero, err
	}

	return numericToDecimal(sum), nil
}

// Totals returns debit and credit sums and the entry count for one party.
func (r *PartyEntryRepository) Totals(ctx context.Context, partyID string) (decimal.Decimal, decimal.Decimal, int64, error) {
	query := `
		SELECT COALESCE(SUM(debit), 0), COALESCE(SUM(credit), 0), COUNT(*)
		FROM party_entries
		WHERE party_id = $1
	`

	var (
		debit, credit pgtype.Numeric
		count         int64
	)
	if err := r.pool.QueryRow(ctx, query, partyID).Scan(&debit, &credit, &count); err != nil {
		return decimal.Zero, decimal.Zero, 0, err
	}

	return numericToDecimal(debit), numericToDecimal(credit), count, nil
}
