package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/okiba/bookd/internal/domain"
)

// BackupUseCase exports and restores one owner's books as a versioned
// JSON bundle.
type BackupUseCase struct {
	accountRepo  AccountRepository
	txnRepo      TransactionRepository
	transferRepo TransferRepository
	snapshotRepo SnapshotRepository
	categoryRepo CategoryRepository
	txManager    TransactionManager
	logger       zerolog.Logger
}

// NewBackupUseCase creates a new BackupUseCase.
func NewBackupUseCase(
	accountRepo AccountRepository,
	txnRepo TransactionRepository,
	transferRepo TransferRepository,
	snapshotRepo SnapshotRepository,
	categoryRepo CategoryRepository,
	txManager TransactionManager,
	logger zerolog.Logger,
) *BackupUseCase {
	return &BackupUseCase{
		accountRepo:  accountRepo,
		txnRepo:      txnRepo,
		transferRepo: transferRepo,
		snapshotRepo: snapshotRepo,
		categoryRepo: categoryRepo,
		txManager:    txManager,
		logger:       logger,
	}
}

// Export collects everything in scope into a bundle. Listings page through
// the repositories so a large book never loads in one query.
func (uc *BackupUseCase) Export(ctx context.Context, scope domain.Scope) (*domain.Backup, error) {
	if err := scope.Validate(); err != nil {
		return nil, err
	}

	if err := scope.Require(domain.CapBackup); err != nil {
		return nil, err
	}

	backup := &domain.Backup{
		Version:    domain.BackupVersion,
		ExportedAt: time.Now().UTC().Format(time.RFC3339),
	}

	for offset := 0; ; offset += backupPageSize {
		page, err := uc.accountRepo.List(ctx, scope, backupPageSize, offset)
		if err != nil {
			return nil, fmt.Errorf("export accounts: %w", err)
		}

		backup.Accounts = append(backup.Accounts, page...)
		if len(page) < backupPageSize {
			break
		}
	}

	for offset := 0; ; offset += backupPageSize {
		page, err := uc.categoryRepo.List(ctx, scope, backupPageSize, offset)
		if err != nil {
			return nil, fmt.Errorf("export categories: %w", err)
		}

		backup.Categories = append(backup.Categories, page...)
		if len(page) < backupPageSize {
			break
		}
	}

	for offset := 0; ; offset += backupPageSize {
		page, err := uc.txnRepo.List(ctx, scope, TransactionFilter{Limit: backupPageSize, Offset: offset})
		if err != nil {
			return nil, fmt.Errorf("export transactions: %w", err)
		}

		backup.Transactions = append(backup.Transactions, page...)
		if len(page) < backupPageSize {
			break
		}
	}

	// A transfer is reachable from both of its accounts, so dedupe by id.
	seenTransfers := make(map[string]bool)
	for _, account := range backup.Accounts {
		for offset := 0; ; offset += backupPageSize {
			page, err := uc.transferRepo.ListByAccount(ctx, scope, account.ID, backupPageSize, offset)
			if err != nil {
				return nil, fmt.Errorf("export transfers: %w", err)
			}

			for _, transfer := range page {
				if seenTransfers[transfer.ID] {
					continue
				}

				seenTransfers[transfer.ID] = true
				backup.Transfers = append(backup.Transfers, transfer)
			}

			if len(page) < backupPageSize {
				break
			}
		}
	}

	for _, account := range backup.Accounts {
		for _, g := range []domain.Granularity{domain.GranularityDay, domain.GranularityMonth} {
			for offset := 0; ; offset += backupPageSize {
				page, err := uc.snapshotRepo.List(ctx, scope, account.ID, g, backupPageSize, offset)
				if err != nil {
					return nil, fmt.Errorf("export snapshots: %w", err)
				}

				backup.Snapshots = append(backup.Snapshots, page...)
				if len(page) < backupPageSize {
					break
				}
			}
		}
	}

	backup.FillCounts()

	uc.logger.Info().
		Str("owner_id", scope.OwnerID).
		Int("accounts", len(backup.Accounts)).
		Int("transactions", len(backup.Transactions)).
		Msg("backup exported")

	return backup, nil
}

// Import restores a bundle. The whole bundle is validated before any write,
// and accounts, transactions and transfers apply inside one database
// transaction so a half-restored book never becomes visible. Snapshots are
// derived data: restore failures there are logged, not fatal, since the
// roller recomputes them.
func (uc *BackupUseCase) Import(ctx context.Context, scope domain.Scope, backup *domain.Backup) error {
	if err := scope.Validate(); err != nil {
		return err
	}

	if err := scope.Require(domain.CapBackup); err != nil {
		return err
	}

	if err := backup.Validate(); err != nil {
		return err
	}

	tx, err := uc.txManager.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, account := range backup.Accounts {
		account.OwnerID = scope.OwnerID
		account.OrgID = scope.OrgID
		if err := uc.accountRepo.CreateTx(ctx, tx, account); err != nil {
			return fmt.Errorf("restore account %s: %w", account.ID, err)
		}
	}

	for _, txn := range backup.Transactions {
		txn.OwnerID = scope.OwnerID
		txn.OrgID = scope.OrgID
		if err := uc.txnRepo.Create(ctx, tx, txn); err != nil {
			return fmt.Errorf("restore transaction %s: %w", txn.ID, err)
		}
	}

	for _, transfer := range backup.Transfers {
		transfer.OwnerID = scope.OwnerID
		transfer.OrgID = scope.OrgID
		if err := uc.transferRepo.Create(ctx, tx, transfer); err != nil {
			return fmt.Errorf("restore transfer %s: %w", transfer.ID, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	for _, category := range backup.Categories {
		category.OwnerID = scope.OwnerID
		category.OrgID = scope.OrgID
		if err := uc.categoryRepo.Create(ctx, category); err != nil {
			uc.logger.Warn().Err(err).Str("category_id", category.ID).Msg("restore category failed")
		}
	}

	for _, snapshot := range backup.Snapshots {
		snapshot.OwnerID = scope.OwnerID
		if err := uc.snapshotRepo.Upsert(ctx, snapshot); err != nil {
			uc.logger.Warn().Err(err).Str("account_id", snapshot.AccountID).Msg("restore snapshot failed")
		}
	}

	uc.logger.Info().
		Str("owner_id", scope.OwnerID).
		Int("accounts", len(backup.Accounts)).
		Int("transactions", len(backup.Transactions)).
		Msg("backup imported")

	return nil
}
