package usecase

import (
	"context"
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"

	"github.com/okiba/bookd/internal/domain"
)

// AccountUseCase handles account business logic.
type AccountUseCase struct {
	accountRepo AccountRepository
	cache       Cache
	idGen       IDGenerator
}

// NewAccountUseCase creates a new AccountUseCase.
func NewAccountUseCase(accountRepo AccountRepository, cache Cache, idGen IDGenerator) *AccountUseCase {
	return &AccountUseCase{
		accountRepo: accountRepo,
		cache:       cache,
		idGen:       idGen,
	}
}

// CreateAccountInput represents input for creating an account.
type CreateAccountInput struct {
	Name string
	Kind domain.AccountKind
}

// CreateAccount creates a new account with a zero balance. An opening
// balance, if any, is entered as an ordinary transaction so the fold
// invariant holds from the start.
func (uc *AccountUseCase) CreateAccount(ctx context.Context, scope domain.Scope, input CreateAccountInput) (*domain.Account, error) {
	if err := scope.Validate(); err != nil {
		return nil, err
	}

	if err := scope.Require(domain.CapLedgerWrite); err != nil {
		return nil, err
	}

	if err := domain.ValidateName(input.Name); err != nil {
		return nil, err
	}

	kind := input.Kind
	if kind == "" {
		kind = domain.AccountKindOther
	}
	if !domain.ValidAccountKind(kind) {
		return nil, &domain.ValidationError{Field: "kind", Message: "unknown account kind"}
	}

	now := time.Now().UTC()
	account := &domain.Account{
		ID:        uc.idGen.Generate(),
		OwnerID:   scope.OwnerID,
		OrgID:     scope.OrgID,
		Name:      input.Name,
		Kind:      kind,
		Balance:   decimal.Zero,
		Version:   0,
		Active:    true,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := uc.accountRepo.Create(ctx, account); err != nil {
		return nil, err
	}

	uc.invalidateSummaries(ctx, scope)

	return account, nil
}

// GetAccount retrieves an account by ID within the caller's scope.
func (uc *AccountUseCase) GetAccount(ctx context.Context, scope domain.Scope, id string) (*domain.Account, error) {
	if err := scope.Validate(); err != nil {
		return nil, err
	}

	return uc.accountRepo.GetByID(ctx, scope, id)
}

// UpdateAccountInput represents input for updating an account. Nil fields
// are left unchanged. Balance is deliberately absent: balances move only
// through transactions.
type UpdateAccountInput struct {
	Name   *string
	Kind   *domain.AccountKind
	Active *bool
}

// UpdateAccount updates account attributes. Deactivation stands in for
// deletion; accounts are never removed.
func (uc *AccountUseCase) UpdateAccount(ctx context.Context, scope domain.Scope, id string, input UpdateAccountInput) (*domain.Account, error) {
	if err := scope.Require(domain.CapLedgerWrite); err != nil {
		return nil, err
	}

	account, err := uc.accountRepo.GetByID(ctx, scope, id)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		if err := domain.ValidateName(*input.Name); err != nil {
			return nil, err
		}

		account.Name = *input.Name
	}

	if input.Kind != nil {
		if !domain.ValidAccountKind(*input.Kind) {
			return nil, &domain.ValidationError{Field: "kind", Message: "unknown account kind"}
		}

		account.Kind = *input.Kind
	}

	if input.Active != nil {
		account.Active = *input.Active
	}

	account.UpdatedAt = time.Now().UTC()

	if err := uc.accountRepo.Update(ctx, account); err != nil {
		return nil, err
	}

	uc.invalidateSummaries(ctx, scope)

	return account, nil
}

// ListAccounts lists accounts with pagination.
func (uc *AccountUseCase) ListAccounts(ctx context.Context, scope domain.Scope, limit, offset int) ([]*domain.Account, error) {
	if err := scope.Validate(); err != nil {
		return nil, err
	}

	return uc.accountRepo.List(ctx, scope, clampLimit(limit), offset)
}

const summaryCacheTTL = 30 * time.Second

// ListSummaries returns every account with its activity rollup. The result
// is cached briefly since the query aggregates the whole transaction table.
func (uc *AccountUseCase) ListSummaries(ctx context.Context, scope domain.Scope) ([]*AccountSummary, error) {
	if err := scope.Validate(); err != nil {
		return nil, err
	}

	key := summaryCacheKey(scope)
	if uc.cache != nil {
		if raw, err := uc.cache.Get(ctx, key); err == nil && raw != nil {
			var cached []*AccountSummary
			if json.Unmarshal(raw, &cached) == nil {
				return cached, nil
			}
		}
	}

	summaries, err := uc.accountRepo.ListSummaries(ctx, scope)
	if err != nil {
		return nil, err
	}

	if uc.cache != nil {
		if raw, err := json.Marshal(summaries); err == nil {
			_ = uc.cache.Set(ctx, key, raw, summaryCacheTTL)
		}
	}

	return summaries, nil
}

func (uc *AccountUseCase) invalidateSummaries(ctx context.Context, scope domain.Scope) {
	if uc.cache != nil {
		_ = uc.cache.Delete(ctx, summaryCacheKey(scope))
	}
}

func summaryCacheKey(scope domain.Scope) string {
	return "account-summaries:" + scope.OwnerID + ":" + scope.OrgID
}
