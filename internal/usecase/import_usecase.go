package usecase

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/okiba/bookd/internal/domain"
	"github.com/okiba/bookd/internal/importer"
	"github.com/okiba/bookd/internal/infrastructure/metrics"
)

// StatementParser parses an uploaded statement file.
type StatementParser interface {
	Parse(fileName string, data []byte) (*importer.Statement, error)
}

// TransactionCreator is the slice of the ledger core the import pipeline
// needs: every executed item becomes a transaction through the normal
// creation path, so all ledger invariants apply regardless of source.
type TransactionCreator interface {
	CreateTransaction(ctx context.Context, scope domain.Scope, input CreateTransactionInput) (*domain.Transaction, error)
}

// ImportUseCase drives the statement import pipeline:
// upload -> parse -> map -> review -> execute.
type ImportUseCase struct {
	importRepo  ImportRepository
	accountRepo AccountRepository
	txnRepo     TransactionRepository
	ledger      TransactionCreator
	parser      StatementParser
	idGen       IDGenerator
	logger      zerolog.Logger
	metrics     *metrics.Metrics

	// accountCreateMu serializes ledger-mode account auto-creation so two
	// concurrent mapping calls cannot create duplicate accounts for the
	// same column name.
	accountCreateMu sync.Mutex
}

// NewImportUseCase creates a new ImportUseCase.
func NewImportUseCase(
	importRepo ImportRepository,
	accountRepo AccountRepository,
	txnRepo TransactionRepository,
	ledger TransactionCreator,
	parser StatementParser,
	idGen IDGenerator,
	logger zerolog.Logger,
	metrics *metrics.Metrics,
) *ImportUseCase {
	return &ImportUseCase{
		importRepo:  importRepo,
		accountRepo: accountRepo,
		txnRepo:     txnRepo,
		ledger:      ledger,
		parser:      parser,
		idGen:       idGen,
		logger:      logger,
		metrics:     metrics,
	}
}

// UploadInput represents an uploaded statement file.
type UploadInput struct {
	FileName string
	Data     []byte
	// ModeHint selects the mapping strategy: "ledger" for multi-account
	// column sheets, anything else means standard.
	ModeHint string
}

// Upload parses the file and persists an ImportRecord with pending
// candidate items. An unreadable file still leaves a failed record behind
// as an audit trail, and the ParseError is returned alongside it.
func (uc *ImportUseCase) Upload(ctx context.Context, scope domain.Scope, input UploadInput) (*domain.ImportRecord, error) {
	if err := scope.Validate(); err != nil {
		return nil, err
	}

	if err := scope.Require(domain.CapImportWrite); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	record := &domain.ImportRecord{
		ID:        uc.idGen.Generate(),
		OwnerID:   scope.OwnerID,
		OrgID:     scope.OrgID,
		FileName:  input.FileName,
		Status:    domain.ImportUploaded,
		CreatedAt: now,
		UpdatedAt: now,
	}

	st, parseErr := uc.parser.Parse(input.FileName, input.Data)
	if parseErr != nil {
		record.Status = domain.ImportFailed
		if pe, ok := parseErr.(*domain.ParseError); ok {
			record.ParseWarnings = append(record.ParseWarnings, domain.ParseWarning{
				Code:       pe.Code,
				Message:    pe.Message,
				Suggestion: pe.Suggestion,
			})
		}

		if err := uc.importRepo.CreateRecord(ctx, record); err != nil {
			return nil, err
		}

		return record, parseErr
	}

	record.FileType = st.FileType
	record.DetectedColumns = st.Columns
	record.ParseWarnings = st.Warnings

	ledgerHint := strings.EqualFold(input.ModeHint, "ledger") && len(st.AccountColumns) > 0
	if ledgerHint {
		record.Mode = domain.LedgerMode{AccountColumns: map[string]string{}}
	} else {
		record.Mode = domain.StandardMode{}
	}

	items := uc.buildItems(record.ID, st, ledgerHint, now)
	if len(items) == 0 {
		record.Status = domain.ImportEmpty

		if err := uc.importRepo.CreateRecord(ctx, record); err != nil {
			return nil, err
		}

		return record, nil
	}

	if err := uc.importRepo.CreateRecord(ctx, record); err != nil {
		return nil, err
	}

	if err := uc.importRepo.CreateItems(ctx, items); err != nil {
		return nil, err
	}

	if uc.metrics != nil {
		uc.metrics.ImportsUploaded.Inc()
	}

	return record, nil
}

// buildItems turns parsed rows into pending candidate items. In ledger mode
// each populated account column of a row yields its own item.
func (uc *ImportUseCase) buildItems(importID string, st *importer.Statement, ledgerHint bool, now time.Time) []*domain.ImportItem {
	var items []*domain.ImportItem

	newItem := func(row importer.Row, column string, amount decimal.Decimal) *domain.ImportItem {
		typ := domain.EntryCredit
		if amount.IsNegative() {
			typ = domain.EntryDebit
		}

		return &domain.ImportItem{
			ID:          uc.idGen.Generate(),
			ImportID:    importID,
			RowIndex:    row.Index,
			Date:        row.Date,
			Description: row.Description,
			Amount:      amount.Abs(),
			Type:        typ,
			Column:      column,
			Status:      domain.ItemPending,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
	}

	for _, row := range st.Rows {
		if ledgerHint {
			for column, amount := range row.ColumnAmounts {
				if amount.IsZero() {
					continue
				}

				items = append(items, newItem(row, column, amount))
			}

			continue
		}

		if row.Amount.IsZero() {
			continue
		}

		items = append(items, newItem(row, "", row.Amount))
	}

	return items
}

// ImportDetail is an import record with its items, shaped for polling.
type ImportDetail struct {
	Record *domain.ImportRecord
	Items  []*domain.ImportItem
}

// GetDetail returns the record and all items.
func (uc *ImportUseCase) GetDetail(ctx context.Context, scope domain.Scope, id string) (*ImportDetail, error) {
	if err := scope.Validate(); err != nil {
		return nil, err
	}

	record, err := uc.importRepo.GetRecord(ctx, scope, id)
	if err != nil {
		return nil, err
	}

	items, err := uc.importRepo.ListItems(ctx, record.ID)
	if err != nil {
		return nil, err
	}

	return &ImportDetail{Record: record, Items: items}, nil
}

// ListHistory lists import records, newest first.
func (uc *ImportUseCase) ListHistory(ctx context.Context, scope domain.Scope, limit, offset int) ([]*domain.ImportRecord, error) {
	if err := scope.Validate(); err != nil {
		return nil, err
	}

	return uc.importRepo.ListRecords(ctx, scope, clampLimit(limit), offset)
}

// UpdateMappingInput configures how parsed rows map to accounts.
type UpdateMappingInput struct {
	// Mode is "standard" or "ledger".
	Mode string
	// AccountID targets every row in standard mode.
	AccountID string
	// AccountColumns maps column names to account ids in ledger mode.
	// Unmapped detected columns are auto-resolved by case-insensitive name
	// match, then by account creation.
	AccountColumns map[string]string
	// ColumnMapping optionally overrides detected field-to-column mapping.
	ColumnMapping map[string]string
}

// UpdateMapping sets the import mode and resolves every item to an account.
func (uc *ImportUseCase) UpdateMapping(ctx context.Context, scope domain.Scope, importID string, input UpdateMappingInput) (*domain.ImportRecord, error) {
	if err := scope.Require(domain.CapImportWrite); err != nil {
		return nil, err
	}

	record, err := uc.importRepo.GetRecord(ctx, scope, importID)
	if err != nil {
		return nil, err
	}

	if record.Status != domain.ImportUploaded && record.Status != domain.ImportMapped {
		return nil, &domain.ConflictError{Message: "import is not editable in status " + string(record.Status)}
	}

	items, err := uc.importRepo.ListItems(ctx, record.ID)
	if err != nil {
		return nil, err
	}

	switch strings.ToLower(input.Mode) {
	case "standard":
		if _, err := uc.accountRepo.GetByID(ctx, scope, input.AccountID); err != nil {
			return nil, err
		}

		record.Mode = domain.StandardMode{AccountID: input.AccountID}

		for _, item := range items {
			if item.Status != domain.ItemPending {
				continue
			}

			item.AccountID = input.AccountID
			item.UpdatedAt = time.Now().UTC()
			if err := uc.importRepo.UpdateItem(ctx, item); err != nil {
				return nil, err
			}
		}

	case "ledger":
		columns, err := uc.resolveLedgerColumns(ctx, scope, items, input.AccountColumns)
		if err != nil {
			return nil, err
		}

		record.Mode = domain.LedgerMode{AccountColumns: columns}

		for _, item := range items {
			if item.Status != domain.ItemPending {
				continue
			}

			item.AccountID = columns[item.Column]
			item.UpdatedAt = time.Now().UTC()
			if err := uc.importRepo.UpdateItem(ctx, item); err != nil {
				return nil, err
			}
		}

	default:
		return nil, &domain.ValidationError{Field: "mode", Message: "must be standard or ledger"}
	}

	if input.ColumnMapping != nil {
		record.ColumnMapping = input.ColumnMapping
	}

	record.Status = domain.ImportMapped
	record.UpdatedAt = time.Now().UTC()

	if err := uc.importRepo.UpdateRecord(ctx, record); err != nil {
		return nil, err
	}

	return record, nil
}

// resolveLedgerColumns maps every column seen on the items to an account:
// caller-provided mapping first, then case-insensitive name match, then
// account creation. Creation is serialized so concurrent mapping calls
// cannot make duplicates for the same column name.
func (uc *ImportUseCase) resolveLedgerColumns(ctx context.Context, scope domain.Scope, items []*domain.ImportItem, provided map[string]string) (map[string]string, error) {
	columns := make(map[string]string)
	for _, item := range items {
		if item.Column != "" {
			columns[item.Column] = ""
		}
	}

	for column, accountID := range provided {
		if _, err := uc.accountRepo.GetByID(ctx, scope, accountID); err != nil {
			return nil, err
		}

		columns[column] = accountID
	}

	uc.accountCreateMu.Lock()
	defer uc.accountCreateMu.Unlock()

	for column, accountID := range columns {
		if accountID != "" {
			continue
		}

		existing, err := uc.accountRepo.GetByName(ctx, scope, column)
		if err == nil {
			columns[column] = existing.ID
			continue
		}

		if !domain.IsNotFound(err) {
			return nil, err
		}

		now := time.Now().UTC()
		account := &domain.Account{
			ID:        uc.idGen.Generate(),
			OwnerID:   scope.OwnerID,
			OrgID:     scope.OrgID,
			Name:      column,
			Kind:      domain.AccountKindBank,
			Balance:   decimal.Zero,
			Active:    true,
			CreatedAt: now,
			UpdatedAt: now,
		}

		if err := uc.accountRepo.Create(ctx, account); err != nil {
			return nil, err
		}

		uc.logger.Info().Str("account", account.Name).Msg("auto-created account for import column")
		columns[column] = account.ID
	}

	return columns, nil
}

// ItemEdit is one per-item override applied during review.
type ItemEdit struct {
	ID          string
	AccountID   *string
	Category    *string
	PartyID     *string
	Type        *domain.EntryType
	Amount      *decimal.Decimal
	Date        *time.Time
	Description *string
	// Skip marks the item skipped; false restores it to pending.
	Skip *bool
}

// UpdateItems applies bulk per-item edits before execution.
func (uc *ImportUseCase) UpdateItems(ctx context.Context, scope domain.Scope, importID string, edits []ItemEdit) error {
	if err := scope.Require(domain.CapImportWrite); err != nil {
		return err
	}

	record, err := uc.importRepo.GetRecord(ctx, scope, importID)
	if err != nil {
		return err
	}

	if record.Status != domain.ImportUploaded && record.Status != domain.ImportMapped {
		return &domain.ConflictError{Message: "import is not editable in status " + string(record.Status)}
	}

	for _, edit := range edits {
		item, err := uc.importRepo.GetItem(ctx, record.ID, edit.ID)
		if err != nil {
			return err
		}

		if item.Status == domain.ItemImported || item.Status == domain.ItemFailed {
			return &domain.ConflictError{Message: "item " + item.ID + " is no longer editable"}
		}

		if edit.AccountID != nil {
			item.AccountID = *edit.AccountID
		}
		if edit.Category != nil {
			item.Category = *edit.Category
		}
		if edit.PartyID != nil {
			item.PartyID = *edit.PartyID
		}
		if edit.Type != nil {
			if !domain.ValidEntryType(*edit.Type) {
				return &domain.ValidationError{Field: "type", Message: "must be debit or credit"}
			}

			item.Type = *edit.Type
		}
		if edit.Amount != nil {
			if err := domain.ValidateAmount(*edit.Amount); err != nil {
				return err
			}

			item.Amount = *edit.Amount
		}
		if edit.Date != nil {
			item.Date = edit.Date.UTC()
		}
		if edit.Description != nil {
			item.Description = *edit.Description
		}
		if edit.Skip != nil {
			if *edit.Skip {
				item.Status = domain.ItemSkipped
			} else {
				item.Status = domain.ItemPending
			}
		}

		item.UpdatedAt = time.Now().UTC()
		if err := uc.importRepo.UpdateItem(ctx, item); err != nil {
			return err
		}
	}

	return nil
}

// ExecuteInput configures import execution.
type ExecuteInput struct {
	// DefaultAccountID targets items that have no account of their own.
	DefaultAccountID string
	// SkipDuplicates marks items matching an existing active transaction
	// (same account, type, amount and calendar date) as skipped.
	SkipDuplicates bool
}

// Execute creates real transactions for all pending items through the
// normal ledger path. Items targeting different accounts run concurrently;
// items on the same account stay in row order on one goroutine. One item's
// failure never aborts the batch: it is recorded on the item and execution
// continues.
func (uc *ImportUseCase) Execute(ctx context.Context, scope domain.Scope, importID string, input ExecuteInput) (*domain.ImportRecord, error) {
	start := time.Now()

	if err := scope.Validate(); err != nil {
		return nil, err
	}

	if err := scope.Require(domain.CapImportWrite); err != nil {
		return nil, err
	}

	record, err := uc.importRepo.GetRecord(ctx, scope, importID)
	if err != nil {
		return nil, err
	}

	switch record.Status {
	case domain.ImportUploaded, domain.ImportMapped:
	case domain.ImportImporting:
		// An interrupted run left the record mid-flight. Resuming is safe:
		// only items still pending are picked up below.
	default:
		return nil, &domain.ConflictError{Message: "import cannot be executed in status " + string(record.Status)}
	}

	record.Status = domain.ImportImporting
	record.UpdatedAt = time.Now().UTC()
	if err := uc.importRepo.UpdateRecord(ctx, record); err != nil {
		return nil, err
	}

	items, err := uc.importRepo.ListItems(ctx, record.ID)
	if err != nil {
		return nil, err
	}

	groups := make(map[string][]*domain.ImportItem)
	for _, item := range items {
		if item.Status != domain.ItemPending {
			continue
		}

		accountID := item.AccountID
		if accountID == "" {
			accountID = input.DefaultAccountID
		}

		groups[accountID] = append(groups[accountID], item)
	}

	var (
		mu      sync.Mutex
		wg      sync.WaitGroup
		results []*domain.ImportItem
	)

	for accountID, group := range groups {
		wg.Add(1)
		go func(accountID string, group []*domain.ImportItem) {
			defer wg.Done()

			for _, item := range group {
				uc.executeItem(ctx, scope, accountID, item, input.SkipDuplicates)

				mu.Lock()
				results = append(results, item)
				mu.Unlock()
			}
		}(accountID, group)
	}

	wg.Wait()

	for _, item := range results {
		if err := uc.importRepo.UpdateItem(ctx, item); err != nil {
			return nil, err
		}
	}

	// Counts and totals cover the whole record, not just this run:
	// items skipped during review and items settled by an earlier
	// interrupted run stay in the aggregates.
	totalDebit := decimal.Zero
	totalCredit := decimal.Zero
	imported, skipped, failed := 0, 0, 0
	for _, item := range items {
		switch item.Status {
		case domain.ItemImported:
			imported++
			if item.Type == domain.EntryDebit {
				totalDebit = totalDebit.Add(item.Amount)
			} else {
				totalCredit = totalCredit.Add(item.Amount)
			}
		case domain.ItemSkipped:
			skipped++
		case domain.ItemFailed:
			failed++
		}
	}

	record.ImportedCount = imported
	record.SkippedCount = skipped
	record.FailedCount = failed
	record.TotalDebit = totalDebit
	record.TotalCredit = totalCredit

	if imported == 0 && skipped == 0 && failed > 0 {
		record.Status = domain.ImportFailed
	} else {
		record.Status = domain.ImportCompleted
	}
	record.UpdatedAt = time.Now().UTC()

	if err := uc.importRepo.UpdateRecord(ctx, record); err != nil {
		return nil, err
	}

	if uc.metrics != nil {
		// Metrics count only this run's outcomes so a resumed execution
		// does not re-count items settled before the interruption.
		runCounts := map[domain.ItemStatus]int{}
		for _, item := range results {
			runCounts[item.Status]++
		}
		uc.metrics.ImportItems.WithLabelValues("imported").Add(float64(runCounts[domain.ItemImported]))
		uc.metrics.ImportItems.WithLabelValues("skipped").Add(float64(runCounts[domain.ItemSkipped]))
		uc.metrics.ImportItems.WithLabelValues("failed").Add(float64(runCounts[domain.ItemFailed]))
		uc.metrics.ImportDuration.Observe(time.Since(start).Seconds())
	}

	if failed > 0 {
		return record, &domain.PartialBatchFailure{Failed: failed, Total: imported + skipped + failed}
	}

	return record, nil
}

// executeItem runs one item and records the outcome on it. Retries are safe:
// a retried execution only picks up items still pending.
func (uc *ImportUseCase) executeItem(ctx context.Context, scope domain.Scope, accountID string, item *domain.ImportItem, skipDuplicates bool) {
	item.UpdatedAt = time.Now().UTC()

	if accountID == "" {
		item.Status = domain.ItemFailed
		item.Error = "no account resolved for item"
		return
	}

	if skipDuplicates {
		exists, err := uc.txnRepo.ExistsActiveMatch(ctx, accountID, item.Type, item.Amount, item.Date)
		if err != nil {
			item.Status = domain.ItemFailed
			item.Error = err.Error()
			return
		}

		if exists {
			item.Status = domain.ItemSkipped
			return
		}
	}

	txn, err := uc.ledger.CreateTransaction(ctx, scope, CreateTransactionInput{
		AccountID:    accountID,
		Type:         item.Type,
		Amount:       item.Amount,
		Date:         item.Date,
		Category:     item.Category,
		PartyID:      item.PartyID,
		Counterparty: item.Description,
		Source:       domain.SourceImport,
	})
	if err != nil {
		item.Status = domain.ItemFailed
		item.Error = err.Error()
		uc.logger.Warn().Err(err).Str("item_id", item.ID).Msg("import item failed")
		return
	}

	item.Status = domain.ItemImported
	item.TransactionID = txn.ID
	item.AccountID = accountID
	item.Error = ""
}

// Delete removes an import record and its items. The transactions it
// created stay in the ledger, so deleting a completed import requires an
// explicit force flag.
func (uc *ImportUseCase) Delete(ctx context.Context, scope domain.Scope, id string, force bool) error {
	if err := scope.Require(domain.CapImportWrite); err != nil {
		return err
	}

	record, err := uc.importRepo.GetRecord(ctx, scope, id)
	if err != nil {
		return err
	}

	if record.Status == domain.ImportCompleted && !force {
		return &domain.ConflictError{Message: "import is completed; deleting removes the audit trail but not its transactions (pass force to confirm)"}
	}

	return uc.importRepo.DeleteRecord(ctx, scope, id)
}
