package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/okiba/bookd/internal/domain"
	"github.com/okiba/bookd/internal/usecase"
)

const invoiceColumns = `id, owner_id, org_id, type, party_id, number, date, due_date,
	items, discount_mode, discount_value, subtotal, tax_total, discount_amount,
	grand_total, amount_paid, status, payments, created_at, updated_at`

// InvoiceRepository implements usecase.InvoiceRepository. Line items and the
// payment history live as jsonb on the invoice row; they are only ever read
// and written through the whole document.
type InvoiceRepository struct {
	pool *pgxpool.Pool
}

// NewInvoiceRepository creates a new InvoiceRepository.
func NewInvoiceRepository(pool *pgxpool.Pool) *InvoiceRepository {
	return &InvoiceRepository{pool: pool}
}

// Create inserts an invoice inside the caller's transaction.
func (r *InvoiceRepository) Create(ctx context.Context, tx usecase.Transaction, invoice *domain.Invoice) error {
	items, payments, err := marshalInvoiceDocs(invoice)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO invoices (` + invoiceColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20)
	`

	_, err = tx.(*Tx).PgxTx().Exec(ctx, query,
		invoice.ID,
		invoice.OwnerID,
		invoice.OrgID,
		invoice.Type,
		invoice.PartyID,
		invoice.Number,
		invoice.Date,
		invoice.DueDate,
		items,
		invoice.DiscountMode,
		decimalToNumeric(invoice.DiscountValue),
		decimalToNumeric(invoice.Subtotal),
		decimalToNumeric(invoice.TaxTotal),
		decimalToNumeric(invoice.DiscountAmount),
		decimalToNumeric(invoice.GrandTotal),
		decimalToNumeric(invoice.AmountPaid),
		invoice.Status,
		payments,
		invoice.CreatedAt,
		invoice.UpdatedAt,
	)
	if isUniqueViolation(err) {
		return &domain.ConflictError{Message: "invoice number " + invoice.Number + " already exists"}
	}

	return err
}

// GetByID retrieves an invoice by ID within the caller's scope.
func (r *InvoiceRepository) GetByID(ctx context.Context, scope domain.Scope, id string) (*domain.Invoice, error) {
	query := `
		SELECT ` + invoiceColumns + `
		FROM invoices
		WHERE id = $1 AND owner_id = $2
	`

	return scanInvoice(r.pool.QueryRow(ctx, query, id, scope.OwnerID), id)
}

// GetByIDForUpdate retrieves an invoice by ID with a FOR UPDATE lock, so
// concurrent payments against one invoice serialize.
func (r *InvoiceRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, scope domain.Scope, id string) (*domain.Invoice, error) {
	query := `
		SELECT ` + invoiceColumns + `
		FROM invoices
		WHERE id = $1 AND owner_id = $2
		FOR UPDATE
	`

	return scanInvoice(tx.(*Tx).PgxTx().QueryRow(ctx, query, id, scope.OwnerID), id)
}

// Update rewrites the whole invoice document.
func (r *InvoiceRepository) Update(ctx context.Context, tx usecase.Transaction, invoice *domain.Invoice) error {
	items, payments, err := marshalInvoiceDocs(invoice)
	if err != nil {
		return err
	}

	query := `
		UPDATE invoices
		SET date = $2, due_date = $3, items = $4, discount_mode = $5,
		    discount_value = $6, subtotal = $7, tax_total = $8,
		    discount_amount = $9, grand_total = $10, amount_paid = $11,
		    status = $12, payments = $13, updated_at = $14
		WHERE id = $1
	`

	tag, err := tx.(*Tx).PgxTx().Exec(ctx, query,
		invoice.ID,
		invoice.Date,
		invoice.DueDate,
		items,
		invoice.DiscountMode,
		decimalToNumeric(invoice.DiscountValue),
		decimalToNumeric(invoice.Subtotal),
		decimalToNumeric(invoice.TaxTotal),
		decimalToNumeric(invoice.DiscountAmount),
		decimalToNumeric(invoice.GrandTotal),
		decimalToNumeric(invoice.AmountPaid),
		invoice.Status,
		payments,
		invoice.UpdatedAt,
	)
	if err != nil {
		return err
	}

	if tag.RowsAffected() == 0 {
		return notFound("invoice", invoice.ID)
	}

	return nil
}

// Delete removes an invoice. Only drafts ever reach here.
func (r *InvoiceRepository) Delete(ctx context.Context, scope domain.Scope, id string) error {
	query := `DELETE FROM invoices WHERE id = $1 AND owner_id = $2`

	tag, err := r.pool.Exec(ctx, query, id, scope.OwnerID)
	if err != nil {
		return err
	}

	if tag.RowsAffected() == 0 {
		return notFound("invoice", id)
	}

	return nil
}

// List lists invoices within scope, newest first.
func (r *InvoiceRepository) List(ctx context.Context, scope domain.Scope, filter usecase.InvoiceFilter) ([]*domain.Invoice, error) {
	query := `
		SELECT ` + invoiceColumns + `
		FROM invoices
		WHERE owner_id = $1
	`
	args := []any{scope.OwnerID}

	if filter.Type != "" {
		args = append(args, filter.Type)
		query += ` AND type = $` + strconv.Itoa(len(args))
	}

	if filter.Status != "" {
		args = append(args, filter.Status)
		query += ` AND status = $` + strconv.Itoa(len(args))
	}

	if filter.PartyID != "" {
		args = append(args, filter.PartyID)
		query += ` AND party_id = $` + strconv.Itoa(len(args))
	}

	query += ` ORDER BY date DESC, id DESC`

	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += ` LIMIT $` + strconv.Itoa(len(args))
	}

	if filter.Offset > 0 {
		args = append(args, filter.Offset)
		query += ` OFFSET $` + strconv.Itoa(len(args))
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectInvoices(rows)
}

// ListDueForOverdue returns pending or partial invoices whose due date has
// passed, for the background sweep.
func (r *InvoiceRepository) ListDueForOverdue(ctx context.Context, asOf time.Time, limit int) ([]*domain.Invoice, error) {
	query := `
		SELECT ` + invoiceColumns + `
		FROM invoices
		WHERE status IN ('pending', 'partial') AND due_date < $1
		ORDER BY due_date
		LIMIT $2
	`

	rows, err := r.pool.Query(ctx, query, asOf, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectInvoices(rows)
}

func marshalInvoiceDocs(invoice *domain.Invoice) ([]byte, []byte, error) {
	items, err := json.Marshal(invoice.Items)
	if err != nil {
		return nil, nil, err
	}

	payments := []byte("[]")
	if invoice.Payments != nil {
		payments, err = json.Marshal(invoice.Payments)
		if err != nil {
			return nil, nil, err
		}
	}

	return items, payments, nil
}

func scanInvoice(row pgx.Row, id string) (*domain.Invoice, error) {
	var (
		invoice         domain.Invoice
		items, payments []byte

		discountValue, subtotal, taxTotal   pgtype.Numeric
		discountAmount, grandTotal, amtPaid pgtype.Numeric
	)

	err := row.Scan(
		&invoice.ID,
		&invoice.OwnerID,
		&invoice.OrgID,
		&invoice.Type,
		&invoice.PartyID,
		&invoice.Number,
		&invoice.Date,
		&invoice.DueDate,
		&items,
		&invoice.DiscountMode,
		&discountValue,
		&subtotal,
		&taxTotal,
		&discountAmount,
		&grandTotal,
		&amtPaid,
		&invoice.Status,
		&payments,
		&invoice.CreatedAt,
		&invoice.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, notFound("invoice", id)
	}
	if err != nil {
		return nil, err
	}

	invoice.DiscountValue = numericToDecimal(discountValue)
	invoice.Subtotal = numericToDecimal(subtotal)
	invoice.TaxTotal = numericToDecimal(taxTotal)
	invoice.DiscountAmount = numericToDecimal(discountAmount)
	invoice.GrandTotal = numericToDecimal(grandTotal)
	invoice.AmountPaid = numericToDecimal(amtPaid)

	if err := json.Unmarshal(items, &invoice.Items); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(payments, &invoice.Payments); err != nil {
		return nil, err
	}

	return &invoice, nil
}

func collectInvoices(rows pgx.Rows) ([]*domain.Invoice, error) {
	var invoices []*domain.Invoice
	for rows.Next() {
		invoice, err := scanInvoice(rows, "")
		if err != nil {
			return nil, err
		}
		invoices = append(invoices, invoice)
	}

	return invoices, rows.Err()
}
