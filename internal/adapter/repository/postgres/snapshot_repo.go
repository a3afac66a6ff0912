package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/okiba/bookd/internal/domain"
	"github.com/okiba/bookd/internal/usecase"
)

const snapshotColumns = `id, owner_id, account_id, granularity, period_start,
	debit_total, credit_total, closing_balance, stale, computed_at`

// SnapshotRepository implements usecase.SnapshotRepository.
type SnapshotRepository struct {
	pool *pgxpool.Pool
}

// NewSnapshotRepository creates a new SnapshotRepository.
func NewSnapshotRepository(pool *pgxpool.Pool) *SnapshotRepository {
	return &SnapshotRepository{pool: pool}
}

// Upsert writes the snapshot keyed by (owner, account, granularity,
// period_start), replacing any previous row for the period.
func (r *SnapshotRepository) Upsert(ctx context.Context, snapshot *domain.BalanceSnapshot) error {
	query := `
		INSERT INTO balance_snapshots (` + snapshotColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (owner_id, account_id, granularity, period_start)
		DO UPDATE SET
			debit_total = EXCLUDED.debit_total,
			credit_total = EXCLUDED.credit_total,
			closing_balance = EXCLUDED.closing_balance,
			stale = EXCLUDED.stale,
			computed_at = EXCLUDED.computed_at
	`

	_, err := r.pool.Exec(ctx, query,
		snapshot.ID,
		snapshot.OwnerID,
		snapshot.AccountID,
		snapshot.Granularity,
		snapshot.PeriodStart,
		decimalToNumeric(snapshot.DebitTotal),
		decimalToNumeric(snapshot.CreditTotal),
		decimalToNumeric(snapshot.ClosingBalance),
		snapshot.Stale,
		snapshot.ComputedAt,
	)

	return err
}

// Get retrieves one snapshot by its period key.
func (r *SnapshotRepository) Get(ctx context.Context, scope domain.Scope, accountID string, g domain.Granularity, periodStart time.Time) (*domain.BalanceSnapshot, error) {
	query := `
		SELECT ` + snapshotColumns + `
		FROM balance_snapshots
		WHERE owner_id = $1 AND account_id = $2 AND granularity = $3 AND period_start = $4
	`

	snapshot, err := scanSnapshot(r.pool.QueryRow(ctx, query, scope.OwnerID, accountID, g, periodStart))
	if errors.Is(err, pgx.ErrNoRows) {
		id := fmt.Sprintf("%s/%s/%s", accountID, g, periodStart.Format("2006-01-02"))
		return nil, notFound("snapshot", id)
	}

	return snapshot, err
}

// LatestBefore returns the most recent non-stale snapshot with
// period_start < before, or nil when none exists.
func (r *SnapshotRepository) LatestBefore(ctx context.Context, accountID string, g domain.Granularity, before time.Time) (*domain.BalanceSnapshot, error) {
	query := `
		SELECT ` + snapshotColumns + `
		FROM balance_snapshots
		WHERE account_id = $1 AND granularity = $2 AND period_start < $3 AND NOT stale
		ORDER BY period_start DESC
		LIMIT 1
	`

	snapshot, err := scanSnapshot(r.pool.QueryRow(ctx, query, accountID, g, before))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}

	return snapshot, err
}

// LatestPeriod returns the period start of the newest snapshot row for the
// account, stale or not, or nil when none exists.
func (r *SnapshotRepository) LatestPeriod(ctx context.Context, accountID string, g domain.Granularity) (*time.Time, error) {
	query := `
		SELECT MAX(period_start)
		FROM balance_snapshots
		WHERE account_id = $1 AND granularity = $2
	`

	var period pgtype.Timestamptz
	if err := r.pool.QueryRow(ctx, query, accountID, g).Scan(&period); err != nil {
		return nil, err
	}

	if !period.Valid {
		return nil, nil
	}

	t := period.Time

	return &t, nil
}

// MarkStaleFrom flags every snapshot covering or after the given time, so a
// backdated change invalidates its period and the whole chain behind it.
func (r *SnapshotRepository) MarkStaleFrom(ctx context.Context, tx usecase.Transaction, accountID string, g domain.Granularity, from time.Time) error {
	query := `
		UPDATE balance_snapshots
		SET stale = true
		WHERE account_id = $1 AND granularity = $2 AND period_start >= $3
	`

	_, err := tx.(*Tx).PgxTx().Exec(ctx, query, accountID, g, domain.PeriodStart(g, from))

	return err
}

// ListStale returns the earliest stale period per account and granularity,
// bounded by limit, for the roller to recompute forward from.
func (r *SnapshotRepository) ListStale(ctx context.Context, limit int) ([]*usecase.StaleRange, error) {
	query := `
		SELECT owner_id, account_id, granularity, MIN(period_start)
		FROM balance_snapshots
		WHERE stale
		GROUP BY owner_id, account_id, granularity
		ORDER BY MIN(period_start)
		LIMIT $1
	`

	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ranges []*usecase.StaleRange
	for rows.Next() {
		var sr usecase.StaleRange
		if err := rows.Scan(&sr.OwnerID, &sr.AccountID, &sr.Granularity, &sr.From); err != nil {
			return nil, err
		}
		ranges = append(ranges, &sr)
	}

	return ranges, rows.Err()
}

// List lists snapshots for an account, newest period first.
func (r *SnapshotRepository) List(ctx context.Context, scope domain.Scope, accountID string, g domain.Granularity, limit, offset int) ([]*domain.BalanceSnapshot, error) {
	query := `
		SELECT ` + snapshotColumns + `
		FROM balance_snapshots
		WHERE owner_id = $1 AND account_id = $2 AND granularity = $3
		ORDER BY period_start DESC
		LIMIT $4 OFFSET $5
	`

	rows, err := r.pool.Query(ctx, query, scope.OwnerID, accountID, g, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var snapshots []*domain.BalanceSnapshot
	for rows.Next() {
		snapshot, err := scanSnapshot(rows)
		if err != nil {
			return nil, err
		}
		snapshots = append(snapshots, snapshot)
	}

	return snapshots, rows.Err()
}

func scanSnapshot(row pgx.Row) (*domain.BalanceSnapshot, error) {
	var (
		snapshot               domain.BalanceSnapshot
		debit, credit, closing pgtype.Numeric
	)

	err := row.Scan(
		&snapshot.ID,
		&snapshot.OwnerID,
		&snapshot.AccountID,
		&snapshot.Granularity,
		&snapshot.PeriodStart,
		&debit,
		&credit,
		&closing,
		&snapshot.Stale,
		&snapshot.ComputedAt,
	)
	if err != nil {
		return nil, err
	}

	snapshot.DebitTotal = numericToDecimal(debit)
	snapshot.CreditTotal = numericToDecimal(credit)
	snapshot.ClosingBalance = numericToDecimal(closing)

	return &snapshot, nil
}
