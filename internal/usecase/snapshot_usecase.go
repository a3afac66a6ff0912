package usecase

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/okiba/bookd/internal/domain"
	"github.com/okiba/bookd/internal/infrastructure/metrics"
)

// SnapshotUseCase is the roller: it aggregates active transactions into
// periodic balance snapshots and recomputes stale chains after backdated
// writes.
type SnapshotUseCase struct {
	snapshotRepo SnapshotRepository
	txnRepo      TransactionRepository
	retrier      Retrier
	idGen        IDGenerator
	logger       zerolog.Logger
	metrics      *metrics.Metrics
}

// NewSnapshotUseCase creates a new SnapshotUseCase.
func NewSnapshotUseCase(
	snapshotRepo SnapshotRepository,
	txnRepo TransactionRepository,
	retrier Retrier,
	idGen IDGenerator,
	logger zerolog.Logger,
	metrics *metrics.Metrics,
) *SnapshotUseCase {
	return &SnapshotUseCase{
		snapshotRepo: snapshotRepo,
		txnRepo:      txnRepo,
		retrier:      retrier,
		idGen:        idGen,
		logger:       logger,
		metrics:      metrics,
	}
}

// RecomputeAccount recomputes snapshots for one account and granularity,
// forward chronologically from the period containing `from` through the
// period of the latest active transaction. Each closing balance chains off
// the previous period's, so recomputation can never skip ahead. The whole
// operation is idempotent: recomputing the same range twice yields the same
// snapshots.
func (uc *SnapshotUseCase) RecomputeAccount(ctx context.Context, scope domain.Scope, accountID string, g domain.Granularity, from time.Time) error {
	if err := scope.Validate(); err != nil {
		return err
	}

	if !domain.ValidGranularity(g) {
		return &domain.ValidationError{Field: "granularity", Message: "must be day or month"}
	}

	period := domain.PeriodStart(g, from)

	latest, err := uc.txnRepo.LatestActiveDate(ctx, accountID)
	if err != nil {
		return err
	}

	end := period
	if latest != nil {
		if p := domain.PeriodStart(g, *latest); p.After(end) {
			end = p
		}
	}

	// A void can leave stale snapshots past the latest remaining
	// transaction; they still need fresh totals.
	latestSnap, err := uc.snapshotRepo.LatestPeriod(ctx, accountID, g)
	if err != nil {
		return err
	}
	if latestSnap != nil && latestSnap.After(end) {
		end = *latestSnap
	}

	opening, err := uc.openingFor(ctx, accountID, g, period)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	for !period.After(end) {
		next := domain.NextPeriod(g, period)

		debit, credit, err := uc.txnRepo.SumActiveBetween(ctx, nil, accountID, period, next)
		if err != nil {
			return err
		}

		closing := opening.Add(credit).Sub(debit)
		snapshot := &domain.BalanceSnapshot{
			ID:             uc.idGen.Generate(),
			OwnerID:        scope.OwnerID,
			AccountID:      accountID,
			Granularity:    g,
			PeriodStart:    period,
			DebitTotal:     debit,
			CreditTotal:    credit,
			ClosingBalance: closing,
			Stale:          false,
			ComputedAt:     now,
		}

		if err := uc.snapshotRepo.Upsert(ctx, snapshot); err != nil {
			return err
		}

		opening = closing
		period = next
	}

	return nil
}

// openingFor resolves the balance entering a period: the closing balance of
// the latest intact earlier snapshot, or the fold of all active
// transactions before the period when no snapshot exists yet.
func (uc *SnapshotUseCase) openingFor(ctx context.Context, accountID string, g domain.Granularity, period time.Time) (decimal.Decimal, error) {
	base, err := uc.snapshotRepo.LatestBefore(ctx, accountID, g, period)
	if err != nil {
		return decimal.Zero, err
	}

	if base != nil {
		// Cover any gap between the base snapshot and the target period.
		from := domain.NextPeriod(g, base.PeriodStart)
		debit, credit, err := uc.txnRepo.SumActiveBetween(ctx, nil, accountID, from, period)
		if err != nil {
			return decimal.Zero, err
		}

		return base.ClosingBalance.Add(credit).Sub(debit), nil
	}

	debit, credit, err := uc.txnRepo.SumActiveBetween(ctx, nil, accountID, time.Time{}, period)
	if err != nil {
		return decimal.Zero, err
	}

	return credit.Sub(debit), nil
}

// RecomputeStale finds accounts with invalidated snapshot chains and
// recomputes each forward from its earliest stale period. Returns the
// number of chains recomputed.
func (uc *SnapshotUseCase) RecomputeStale(ctx context.Context, limit int) (int, error) {
	start := time.Now()

	ranges, err := uc.snapshotRepo.ListStale(ctx, limit)
	if err != nil {
		return 0, err
	}

	if uc.metrics != nil {
		uc.metrics.SnapshotStale.Set(float64(len(ranges)))
	}

	for _, r := range ranges {
		scope := domain.Scope{OwnerID: r.OwnerID}
		if err := uc.RecomputeAccount(ctx, scope, r.AccountID, r.Granularity, r.From); err != nil {
			return 0, err
		}
	}

	if uc.metrics != nil && len(ranges) > 0 {
		uc.metrics.SnapshotRecomputes.Add(float64(len(ranges)))
		uc.metrics.SnapshotDuration.Observe(time.Since(start).Seconds())
	}

	return len(ranges), nil
}

// ListSnapshots lists snapshots for an account.
func (uc *SnapshotUseCase) ListSnapshots(ctx context.Context, scope domain.Scope, accountID string, g domain.Granularity, limit, offset int) ([]*domain.BalanceSnapshot, error) {
	if err := scope.Validate(); err != nil {
		return nil, err
	}

	if !domain.ValidGranularity(g) {
		return nil, &domain.ValidationError{Field: "granularity", Message: "must be day or month"}
	}

	return uc.snapshotRepo.List(ctx, scope, accountID, g, clampLimit(limit), offset)
}

// Run drives the roller as a background job until the context is
// cancelled. Each sweep is retried with backoff on transient errors;
// recomputation is idempotent per period so retries are always safe.
func (uc *SnapshotUseCase) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			err := uc.retrier.Retry(ctx, func() error {
				_, err := uc.RecomputeStale(ctx, 100)
				return err
			})
			if err != nil {
				uc.logger.Error().Err(err).Msg("snapshot sweep failed")
			}
		}
	}
}
