package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/okiba/bookd/internal/domain"
	"github.com/okiba/bookd/internal/usecase"
)

const accountColumns = `id, owner_id, org_id, name, kind, balance, version, active, frozen, created_at, updated_at`

// AccountRepository implements usecase.AccountRepository.
type AccountRepository struct {
	pool *pgxpool.Pool
}

// NewAccountRepository creates a new AccountRepository.
func NewAccountRepository(pool *pgxpool.Pool) *AccountRepository {
	return &AccountRepository{pool: pool}
}

// Create inserts a new account.
func (r *AccountRepository) Create(ctx context.Context, account *domain.Account) error {
	return createAccount(ctx, r.pool, account)
}

// CreateTx inserts a new account inside an existing transaction.
func (r *AccountRepository) CreateTx(ctx context.Context, tx usecase.Transaction, account *domain.Account) error {
	return createAccount(ctx, tx.(*Tx).PgxTx(), account)
}

func createAccount(ctx context.Context, q querier, account *domain.Account) error {
	query := `
		INSERT INTO accounts (` + accountColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	_, err := q.Exec(ctx, query,
		account.ID,
		account.OwnerID,
		account.OrgID,
		account.Name,
		account.Kind,
		decimalToNumeric(account.Balance),
		account.Version,
		account.Active,
		account.Frozen,
		account.CreatedAt,
		account.UpdatedAt,
	)
	if isUniqueViolation(err) {
		return &domain.ConflictError{Message: "account " + account.Name + " already exists"}
	}

	return err
}

// GetByID retrieves an account by ID within the caller's scope.
func (r *AccountRepository) GetByID(ctx context.Context, scope domain.Scope, id string) (*domain.Account, error) {
	query := `
		SELECT ` + accountColumns + `
		FROM accounts
		WHERE id = $1 AND owner_id = $2
	`

	return scanAccount(r.pool.QueryRow(ctx, query, id, scope.OwnerID), id)
}

// GetByIDForUpdate retrieves an account by ID with a FOR UPDATE lock.
func (r *AccountRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, scope domain.Scope, id string) (*domain.Account, error) {
	query := `
		SELECT ` + accountColumns + `
		FROM accounts
		WHERE id = $1 AND owner_id = $2
		FOR UPDATE
	`

	return scanAccount(tx.(*Tx).PgxTx().QueryRow(ctx, query, id, scope.OwnerID), id)
}

// GetByIDsForUpdate retrieves multiple accounts with FOR UPDATE locks. The
// caller passes IDs pre-sorted so concurrent transfers lock in one order.
func (r *AccountRepository) GetByIDsForUpdate(ctx context.Context, tx usecase.Transaction, scope domain.Scope, ids []string) ([]*domain.Account, error) {
	query := `
		SELECT ` + accountColumns + `
		FROM accounts
		WHERE id = ANY($1) AND owner_id = $2
		ORDER BY id
		FOR UPDATE
	`

	rows, err := tx.(*Tx).PgxTx().Query(ctx, query, ids, scope.OwnerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	accounts, err := collectAccounts(rows)
	if err != nil {
		return nil, err
	}

	if len(accounts) != len(ids) {
		found := make(map[string]bool, len(accounts))
		for _, a := range accounts {
			found[a.ID] = true
		}
		for _, id := range ids {
			if !found[id] {
				return nil, notFound("account", id)
			}
		}
	}

	return accounts, nil
}

// GetByName retrieves an account by case-insensitive name, or nil when no
// account carries it.
func (r *AccountRepository) GetByName(ctx context.Context, scope domain.Scope, name string) (*domain.Account, error) {
	query := `
		SELECT ` + accountColumns + `
		FROM accounts
		WHERE owner_id = $1 AND lower(name) = lower($2)
		LIMIT 1
	`

	account, err := scanAccount(r.pool.QueryRow(ctx, query, scope.OwnerID, name), name)
	if domain.IsNotFound(err) {
		return nil, nil
	}

	return account, err
}

// Update rewrites the mutable account fields.
func (r *AccountRepository) Update(ctx context.Context, account *domain.Account) error {
	query := `
		UPDATE accounts
		SET name = $2, kind = $3, active = $4, updated_at = $5
		WHERE id = $1 AND owner_id = $6
	`

	tag, err := r.pool.Exec(ctx, query,
		account.ID,
		account.Name,
		account.Kind,
		account.Active,
		account.UpdatedAt,
		account.OwnerID,
	)
	if err != nil {
		return err
	}

	if tag.RowsAffected() == 0 {
		return notFound("account", account.ID)
	}

	return nil
}

// UpdateBalance writes the cached balance and bumps the version.
func (r *AccountRepository) UpdateBalance(ctx context.Context, tx usecase.Transaction, id string, balance decimal.Decimal, version int64, updatedAt time.Time) error {
	query := `
		UPDATE accounts
		SET balance = $2, version = $3, updated_at = $4
		WHERE id = $1
	`

	tag, err := tx.(*Tx).PgxTx().Exec(ctx, query, id, decimalToNumeric(balance), version, updatedAt)
	if err != nil {
		return err
	}

	if tag.RowsAffected() == 0 {
		return notFound("account", id)
	}

	return nil
}

// SetFrozen flips the reconciliation freeze flag.
func (r *AccountRepository) SetFrozen(ctx context.Context, id string, frozen bool, updatedAt time.Time) error {
	query := `
		UPDATE accounts
		SET frozen = $2, updated_at = $3
		WHERE id = $1
	`

	tag, err := r.pool.Exec(ctx, query, id, frozen, updatedAt)
	if err != nil {
		return err
	}

	if tag.RowsAffected() == 0 {
		return notFound("account", id)
	}

	return nil
}

// List lists accounts within scope with pagination, oldest first.
func (r *AccountRepository) List(ctx context.Context, scope domain.Scope, limit, offset int) ([]*domain.Account, error) {
	query := `
		SELECT ` + accountColumns + `
		FROM accounts
		WHERE owner_id = $1
		ORDER BY created_at, id
		LIMIT $2 OFFSET $3
	`

	rows, err := r.pool.Query(ctx, query, scope.OwnerID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectAccounts(rows)
}

// ListSummaries returns every account in scope with its activity rollup,
// computed from active transactions in one pass.
func (r *AccountRepository) ListSummaries(ctx context.Context, scope domain.Scope) ([]*usecase.AccountSummary, error) {
	query := `
		SELECT a.id, a.owner_id, a.org_id, a.name, a.kind, a.balance, a.version,
		       a.active, a.frozen, a.created_at, a.updated_at,
		       COALESCE(SUM(t.amount) FILTER (WHERE t.type = 'debit'), 0),
		       COALESCE(SUM(t.amount) FILTER (WHERE t.type = 'credit'), 0),
		       COUNT(t.id),
		       MAX(t.date)
		FROM accounts a
		LEFT JOIN transactions t ON t.account_id = a.id AND t.state = 'active'
		WHERE a.owner_id = $1
		GROUP BY a.id
		ORDER BY a.created_at, a.id
	`

	rows, err := r.pool.Query(ctx, query, scope.OwnerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var summaries []*usecase.AccountSummary
	for rows.Next() {
		var (
			account       domain.Account
			balance       pgtype.Numeric
			debit, credit pgtype.Numeric
			count         int64
			lastActivity  pgtype.Timestamptz
		)

		err := rows.Scan(
			&account.ID,
			&account.OwnerID,
			&account.OrgID,
			&account.Name,
			&account.Kind,
			&balance,
			&account.Version,
			&account.Active,
			&account.Frozen,
			&account.CreatedAt,
			&account.UpdatedAt,
			&debit,
			&credit,
			&count,
			&lastActivity,
		)
		if err != nil {
			return nil, err
		}

		account.Balance = numericToDecimal(balance)
		summary := &usecase.AccountSummary{
			Account:          &account,
			TotalDebit:       numericToDecimal(debit),
			TotalCredit:      numericToDecimal(credit),
			TransactionCount: count,
		}
		if lastActivity.Valid {
			t := lastActivity.Time
			summary.LastActivity = &t
		}

		summaries = append(summaries, summary)
	}

	return summaries, rows.Err()
}

func scanAccount(row pgx.Row, id string) (*domain.Account, error) {
	var (
		account domain.Account
		balance pgtype.Numeric
	)

	err := row.Scan(
		&account.ID,
		&account.OwnerID,
		&account.OrgID,
		&account.Name,
		&account.Kind,
		&balance,
		&account.Version,
		&account.Active,
		&account.Frozen,
		&account.CreatedAt,
		&account.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, notFound("account", id)
	}
	if err != nil {
		return nil, err
	}

	account.Balance = numericToDecimal(balance)

	return &account, nil
}

func collectAccounts(rows pgx.Rows) ([]*domain.Account, error) {
	var accounts []*domain.Account
	for rows.Next() {
		account, err := scanAccount(rows, "")
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, account)
	}

	return accounts, rows.Err()
}
