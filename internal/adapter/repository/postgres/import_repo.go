package postgres

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/okiba/bookd/internal/domain"
)

const importRecordColumns = `id, owner_id, org_id, file_name, file_type, mode_kind,
	mode_config, detected_columns, column_mapping, parse_warnings, status,
	imported_count, skipped_count, failed_count, total_debit, total_credit,
	created_at, updated_at`

const importItemColumns = `id, import_id, row_index, date, description, amount,
	type, account_id, source_column, category, party_id, status, error,
	transaction_id, created_at, updated_at`

// importModeConfig is the jsonb shape the two mapping modes share on disk.
type importModeConfig struct {
	AccountID      string            `json:"account_id,omitempty"`
	AccountColumns map[string]string `json:"account_columns,omitempty"`
}

// ImportRepository implements usecase.ImportRepository.
type ImportRepository struct {
	pool *pgxpool.Pool
}

// NewImportRepository creates a new ImportRepository.
func NewImportRepository(pool *pgxpool.Pool) *ImportRepository {
	return &ImportRepository{pool: pool}
}

// CreateRecord inserts a new import record.
func (r *ImportRepository) CreateRecord(ctx context.Context, record *domain.ImportRecord) error {
	args, err := recordArgs(record)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO import_records (` + importRecordColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
	`

	_, err = r.pool.Exec(ctx, query, args...)

	return err
}

// GetRecord retrieves an import record by ID within the caller's scope.
func (r *ImportRepository) GetRecord(ctx context.Context, scope domain.Scope, id string) (*domain.ImportRecord, error) {
	query := `
		SELECT ` + importRecordColumns + `
		FROM import_records
		WHERE id = $1 AND owner_id = $2
	`

	record, err := scanImportRecord(r.pool.QueryRow(ctx, query, id, scope.OwnerID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, notFound("import", id)
	}

	return record, err
}

// UpdateRecord rewrites the mutable record fields.
func (r *ImportRepository) UpdateRecord(ctx context.Context, record *domain.ImportRecord) error {
	modeKind, modeConfig, err := marshalMode(record.Mode)
	if err != nil {
		return err
	}

	mapping, err := json.Marshal(record.ColumnMapping)
	if err != nil {
		return err
	}

	warnings, err := json.Marshal(record.ParseWarnings)
	if err != nil {
		return err
	}

	query := `
		UPDATE import_records
		SET mode_kind = $2, mode_config = $3, column_mapping = $4,
		    parse_warnings = $5, status = $6, imported_count = $7,
		    skipped_count = $8, failed_count = $9, total_debit = $10,
		    total_credit = $11, updated_at = $12
		WHERE id = $1
	`

	tag, err := r.pool.Exec(ctx, query,
		record.ID,
		modeKind,
		modeConfig,
		mapping,
		warnings,
		record.Status,
		record.ImportedCount,
		record.SkippedCount,
		record.FailedCount,
		decimalToNumeric(record.TotalDebit),
		decimalToNumeric(record.TotalCredit),
		record.UpdatedAt,
	)
	if err != nil {
		return err
	}

	if tag.RowsAffected() == 0 {
		return notFound("import", record.ID)
	}

	return nil
}

// DeleteRecord removes an import record. Its items cascade at the schema
// level.
func (r *ImportRepository) DeleteRecord(ctx context.Context, scope domain.Scope, id string) error {
	query := `DELETE FROM import_records WHERE id = $1 AND owner_id = $2`

	tag, err := r.pool.Exec(ctx, query, id, scope.OwnerID)
	if err != nil {
		return err
	}

	if tag.RowsAffected() == 0 {
		return notFound("import", id)
	}

	return nil
}

// ListRecords lists import records within scope, newest first.
func (r *ImportRepository) ListRecords(ctx context.Context, scope domain.Scope, limit, offset int) ([]*domain.ImportRecord, error) {
	query := `
		SELECT ` + importRecordColumns + `
		FROM import_records
		WHERE owner_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.pool.Query(ctx, query, scope.OwnerID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []*domain.ImportRecord
	for rows.Next() {
		record, err := scanImportRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}

	return records, rows.Err()
}

// CreateItems inserts candidate items in one batch.
func (r *ImportRepository) CreateItems(ctx context.Context, items []*domain.ImportItem) error {
	if len(items) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	query := `
		INSERT INTO import_items (` + importItemColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
	`

	for _, item := range items {
		batch.Queue(query,
			item.ID,
			item.ImportID,
			item.RowIndex,
			item.Date,
			item.Description,
			decimalToNumeric(item.Amount),
			item.Type,
			item.AccountID,
			item.Column,
			item.Category,
			item.PartyID,
			item.Status,
			item.Error,
			item.TransactionID,
			item.CreatedAt,
			item.UpdatedAt,
		)
	}

	return r.pool.SendBatch(ctx, batch).Close()
}

// GetItem retrieves one item of an import.
func (r *ImportRepository) GetItem(ctx context.Context, importID, itemID string) (*domain.ImportItem, error) {
	query := `
		SELECT ` + importItemColumns + `
		FROM import_items
		WHERE import_id = $1 AND id = $2
	`

	item, err := scanImportItem(r.pool.QueryRow(ctx, query, importID, itemID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, notFound("import item", itemID)
	}

	return item, err
}

// UpdateItem rewrites the editable item fields and its execution outcome.
func (r *ImportRepository) UpdateItem(ctx context.Context, item *domain.ImportItem) error {
	query := `
		UPDATE import_items
		SET date = $2, description = $3, amount = $4, type = $5, account_id = $6,
		    category = $7, party_id = $8, status = $9, error = $10,
		    transaction_id = $11, updated_at = $12
		WHERE id = $1
	`

	tag, err := r.pool.Exec(ctx, query,
		item.ID,
		item.Date,
		item.Description,
		decimalToNumeric(item.Amount),
		item.Type,
		item.AccountID,
		item.Category,
		item.PartyID,
		item.Status,
		item.Error,
		item.TransactionID,
		item.UpdatedAt,
	)
	if err != nil {
		return err
	}

	if tag.RowsAffected() == 0 {
		return notFound("import item", item.ID)
	}

	return nil
}

// ListItems returns every item of an import in row order.
func (r *ImportRepository) ListItems(ctx context.Context, importID string) ([]*domain.ImportItem, error) {
	query := `
		SELECT ` + importItemColumns + `
		FROM import_items
		WHERE import_id = $1
		ORDER BY row_index, id
	`

	rows, err := r.pool.Query(ctx, query, importID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*domain.ImportItem
	for rows.Next() {
		item, err := scanImportItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}

	return items, rows.Err()
}

func recordArgs(record *domain.ImportRecord) ([]any, error) {
	modeKind, modeConfig, err := marshalMode(record.Mode)
	if err != nil {
		return nil, err
	}

	detected, err := json.Marshal(record.DetectedColumns)
	if err != nil {
		return nil, err
	}

	mapping, err := json.Marshal(record.ColumnMapping)
	if err != nil {
		return nil, err
	}

	warnings, err := json.Marshal(record.ParseWarnings)
	if err != nil {
		return nil, err
	}

	return []any{
		record.ID,
		record.OwnerID,
		record.OrgID,
		record.FileName,
		record.FileType,
		modeKind,
		modeConfig,
		detected,
		mapping,
		warnings,
		record.Status,
		record.ImportedCount,
		record.SkippedCount,
		record.FailedCount,
		decimalToNumeric(record.TotalDebit),
		decimalToNumeric(record.TotalCredit),
		record.CreatedAt,
		record.UpdatedAt,
	}, nil
}

func marshalMode(mode domain.ImportMode) (string, []byte, error) {
	if mode == nil {
		return "", nil, nil
	}

	var config importModeConfig
	switch m := mode.(type) {
	case domain.StandardMode:
		config.AccountID = m.AccountID
	case domain.LedgerMode:
		config.AccountColumns = m.AccountColumns
	default:
		return "", nil, errors.New("unknown import mode " + mode.Kind())
	}

	data, err := json.Marshal(config)
	if err != nil {
		return "", nil, err
	}

	return mode.Kind(), data, nil
}

func unmarshalMode(kind string, data []byte) (domain.ImportMode, error) {
	if kind == "" {
		return nil, nil
	}

	var config importModeConfig
	if data != nil {
		if err := json.Unmarshal(data, &config); err != nil {
			return nil, err
		}
	}

	switch kind {
	case domain.StandardMode{}.Kind():
		return domain.StandardMode{AccountID: config.AccountID}, nil
	case domain.LedgerMode{}.Kind():
		return domain.LedgerMode{AccountColumns: config.AccountColumns}, nil
	}

	return nil, errors.New("unknown import mode " + kind)
}

func scanImportRecord(row pgx.Row) (*domain.ImportRecord, error) {
	var (
		record                      domain.ImportRecord
		modeKind                    string
		modeConfig                  []byte
		detected, mapping, warnings []byte
		totalDebit, totalCredit     pgtype.Numeric
	)

	err := row.Scan(
		&record.ID,
		&record.OwnerID,
		&record.OrgID,
		&record.FileName,
		&record.FileType,
		&modeKind,
		&modeConfig,
		&detected,
		&mapping,
		&warnings,
		&record.Status,
		&record.ImportedCount,
		&record.SkippedCount,
		&record.FailedCount,
		&totalDebit,
		&totalCredit,
		&record.CreatedAt,
		&record.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	record.Mode, err = unmarshalMode(modeKind, modeConfig)
	if err != nil {
		return nil, err
	}

	record.TotalDebit = numericToDecimal(totalDebit)
	record.TotalCredit = numericToDecimal(totalCredit)

	if detected != nil {
		_ = json.Unmarshal(detected, &record.DetectedColumns)
	}
	if mapping != nil {
		_ = json.Unmarshal(mapping, &record.ColumnMapping)
	}
	if warnings != nil {
		_ = json.Unmarshal(warnings, &record.ParseWarnings)
	}

	return &record, nil
}

func scanImportItem(row pgx.Row) (*domain.ImportItem, error) {
	var (
		item   domain.ImportItem
		amount pgtype.Numeric
	)

	err := row.Scan(
		&item.ID,
		&item.ImportID,
		&item.RowIndex,
		&item.Date,
		&item.Description,
		&amount,
		&item.Type,
		&item.AccountID,
		&item.Column,
		&item.Category,
		&item.PartyID,
		&item.Status,
		&item.Error,
		&item.TransactionID,
		&item.CreatedAt,
		&item.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	item.Amount = numericToDecimal(amount)

	return &item, nil
}
