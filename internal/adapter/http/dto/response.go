package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/okiba/bookd/internal/domain"
	"github.com/okiba/bookd/internal/usecase"
)

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// AccountResponse represents an account in responses.
type AccountResponse struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Kind      string          `json:"kind"`
	Balance   decimal.Decimal `json:"balance"`
	Version   int64           `json:"version"`
	Active    bool            `json:"active"`
	Frozen    bool            `json:"frozen"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// AccountFromDomain converts a domain account to a response.
func AccountFromDomain(a *domain.Account) AccountResponse {
	return AccountResponse{
		ID:        a.ID,
		Name:      a.Name,
		Kind:      string(a.Kind),
		Balance:   a.Balance,
		Version:   a.Version,
		Active:    a.Active,
		Frozen:    a.Frozen,
		CreatedAt: a.CreatedAt,
		UpdatedAt: a.UpdatedAt,
	}
}

// AccountsFromDomain converts a slice of domain accounts.
func AccountsFromDomain(accounts []*domain.Account) []AccountResponse {
	out := make([]AccountResponse, len(accounts))
	for i, a := range accounts {
		out[i] = AccountFromDomain(a)
	}
	return out
}

// AccountSummaryResponse represents an account with activity totals.
type AccountSummaryResponse struct {
	Account          AccountResponse `json:"account"`
	TotalDebit       decimal.Decimal `json:"total_debit"`
	TotalCredit      decimal.Decimal `json:"total_credit"`
	TransactionCount int64           `json:"transaction_count"`
	LastActivity     *time.Time      `json:"last_activity,omitempty"`
}

// AccountSummariesFromUseCase converts use case summaries.
func AccountSummariesFromUseCase(summaries []*usecase.AccountSummary) []AccountSummaryResponse {
	out := make([]AccountSummaryResponse, len(summaries))
	for i, s := range summaries {
		out[i] = AccountSummaryResponse{
			Account:          AccountFromDomain(s.Account),
			TotalDebit:       s.TotalDebit,
			TotalCredit:      s.TotalCredit,
			TransactionCount: s.TransactionCount,
			LastActivity:     s.LastActivity,
		}
	}
	return out
}

// TransactionResponse represents a ledger entry in responses.
type TransactionResponse struct {
	ID           string          `json:"id"`
	AccountID    string          `json:"account_id"`
	Type         string          `json:"type"`
	Amount       decimal.Decimal `json:"amount"`
	Date         time.Time       `json:"date"`
	Category     string          `json:"category,omitempty"`
	PartyID      string          `json:"party_id,omitempty"`
	Counterparty string          `json:"counterparty,omitempty"`
	Notes        string          `json:"notes,omitempty"`
	BalanceAfter decimal.Decimal `json:"balance_after"`
	State        string          `json:"state"`
	Source       string          `json:"source"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// TransactionFromDomain converts a domain transaction to a response.
func TransactionFromDomain(t *domain.Transaction) TransactionResponse {
	return TransactionResponse{
		ID:           t.ID,
		AccountID:    t.AccountID,
		Type:         string(t.Type),
		Amount:       t.Amount,
		Date:         t.Date,
		Category:     t.Category,
		PartyID:      t.PartyID,
		Counterparty: t.Counterparty,
		Notes:        t.Notes,
		BalanceAfter: t.BalanceAfter,
		State:        string(t.State),
		Source:       string(t.Source),
		CreatedAt:    t.CreatedAt,
		UpdatedAt:    t.UpdatedAt,
	}
}

// TransactionsFromDomain converts a slice of domain transactions.
func TransactionsFromDomain(txs []*domain.Transaction) []TransactionResponse {
	out := make([]TransactionResponse, len(txs))
	for i, t := range txs {
		out[i] = TransactionFromDomain(t)
	}
	return out
}

// TransferResponse represents a transfer in responses.
type TransferResponse struct {
	ID                  string          `json:"id"`
	FromAccountID       string          `json:"from_account_id"`
	ToAccountID         string          `json:"to_account_id"`
	DebitTransactionID  string          `json:"debit_transaction_id"`
	CreditTransactionID string          `json:"credit_transaction_id"`
	Amount              decimal.Decimal `json:"amount"`
	Date                time.Time       `json:"date"`
	ClientRequestID     string          `json:"client_request_id,omitempty"`
	Metadata            map[string]any  `json:"metadata,omitempty"`
	CreatedAt           time.Time       `json:"created_at"`
}

// TransferFromDomain converts a domain transfer to a response.
func TransferFromDomain(t *domain.Transfer) TransferResponse {
	return TransferResponse{
		ID:                  t.ID,
		FromAccountID:       t.FromAccountID,
		ToAccountID:         t.ToAccountID,
		DebitTransactionID:  t.DebitTransactionID,
		CreditTransactionID: t.CreditTransactionID,
		Amount:              t.Amount,
		Date:                t.Date,
		ClientRequestID:     t.ClientRequestID,
		Metadata:            t.Metadata,
		CreatedAt:           t.CreatedAt,
	}
}

// TransfersFromDomain converts a slice of domain transfers.
func TransfersFromDomain(transfers []*domain.Transfer) []TransferResponse {
	out := make([]TransferResponse, len(transfers))
	for i, t := range transfers {
		out[i] = TransferFromDomain(t)
	}
	return out
}

// SnapshotResponse represents a balance snapshot in responses.
type SnapshotResponse struct {
	ID             string          `json:"id"`
	AccountID      string          `json:"account_id"`
	Granularity    string          `json:"granularity"`
	PeriodStart    time.Time       `json:"period_start"`
	DebitTotal     decimal.Decimal `json:"debit_total"`
	CreditTotal    decimal.Decimal `json:"credit_total"`
	ClosingBalance decimal.Decimal `json:"closing_balance"`
	Stale          bool            `json:"stale"`
	ComputedAt     time.Time       `json:"computed_at"`
}

// SnapshotsFromDomain converts a slice of domain snapshots.
func SnapshotsFromDomain(snaps []*domain.BalanceSnapshot) []SnapshotResponse {
	out := make([]SnapshotResponse, len(snaps))
	for i, s := range snaps {
		out[i] = SnapshotResponse{
			ID:             s.ID,
			AccountID:      s.AccountID,
			Granularity:    string(s.Granularity),
			PeriodStart:    s.PeriodStart,
			DebitTotal:     s.DebitTotal,
			CreditTotal:    s.CreditTotal,
			ClosingBalance: s.ClosingBalance,
			Stale:          s.Stale,
			ComputedAt:     s.ComputedAt,
		}
	}
	return out
}

// PartyResponse represents a customer or supplier in responses.
type PartyResponse struct {
	ID             string          `json:"id"`
	Name           string          `json:"name"`
	Kind           string          `json:"kind"`
	Email          string          `json:"email,omitempty"`
	Phone          string          `json:"phone,omitempty"`
	OpeningBalance decimal.Decimal `json:"opening_balance"`
	CurrentBalance decimal.Decimal `json:"current_balance"`
	CreditLimit    decimal.Decimal `json:"credit_limit"`
	CreditDays     int             `json:"credit_days"`
	Active         bool            `json:"active"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// PartyFromDomain converts a domain party to a response.
func PartyFromDomain(p *domain.Party) PartyResponse {
	return PartyResponse{
		ID:             p.ID,
		Name:           p.Name,
		Kind:           string(p.Kind),
		Email:          p.Email,
		Phone:          p.Phone,
		OpeningBalance: p.OpeningBalance,
		CurrentBalance: p.CurrentBalance,
		CreditLimit:    p.CreditLimit,
		CreditDays:     p.CreditDays,
		Active:         p.Active,
		CreatedAt:      p.CreatedAt,
		UpdatedAt:      p.UpdatedAt,
	}
}

// PartiesFromDomain converts a slice of domain parties.
func PartiesFromDomain(parties []*domain.Party) []PartyResponse {
	out := make([]PartyResponse, len(parties))
	for i, p := range parties {
		out[i] = PartyFromDomain(p)
	}
	return out
}

// LedgerLineResponse represents one party ledger entry with its running
// balance.
type LedgerLineResponse struct {
	ID             string          `json:"id"`
	Kind           string          `json:"kind"`
	RefID          string          `json:"ref_id,omitempty"`
	Memo           string          `json:"memo,omitempty"`
	Debit          decimal.Decimal `json:"debit"`
	Credit         decimal.Decimal `json:"credit"`
	Date           time.Time       `json:"date"`
	RunningBalance decimal.Decimal `json:"running_balance"`
}

// PartyLedgerResponse represents one page of a party's ledger.
type PartyLedgerResponse struct {
	Party          PartyResponse        `json:"party"`
	Lines          []LedgerLineResponse `json:"lines"`
	OpeningBalance decimal.Decimal      `json:"opening_balance"`
	ClosingBalance decimal.Decimal      `json:"closing_balance"`
	TotalDebit     decimal.Decimal      `json:"total_debit"`
	TotalCredit    decimal.Decimal      `json:"total_credit"`
	TotalEntries   int64                `json:"total_entries"`
}

// PartyLedgerFromUseCase converts a use case ledger page.
func PartyLedgerFromUseCase(page *usecase.LedgerPage) PartyLedgerResponse {
	lines := make([]LedgerLineResponse, len(page.Lines))
	for i, l := range page.Lines {
		lines[i] = LedgerLineResponse{
			ID:             l.Entry.ID,
			Kind:           string(l.Entry.Kind),
			RefID:          l.Entry.RefID,
			Memo:           l.Entry.Memo,
			Debit:          l.Entry.Debit,
			Credit:         l.Entry.Credit,
			Date:           l.Entry.Date,
			RunningBalance: l.RunningBalance,
		}
	}
	return PartyLedgerResponse{
		Party:          PartyFromDomain(page.Party),
		Lines:          lines,
		OpeningBalance: page.OpeningBalance,
		ClosingBalance: page.ClosingBalance,
		TotalDebit:     page.TotalDebit,
		TotalCredit:    page.TotalCredit,
		TotalEntries:   page.TotalEntries,
	}
}

// InvoiceResponse represents an invoice in responses.
type InvoiceResponse struct {
	ID             string               `json:"id"`
	Type           string               `json:"type"`
	PartyID        string               `json:"party_id"`
	Number         string               `json:"number"`
	Date           time.Time            `json:"date"`
	DueDate        time.Time            `json:"due_date"`
	Items          []domain.InvoiceItem `json:"items"`
	DiscountMode   string               `json:"discount_mode,omitempty"`
	DiscountValue  decimal.Decimal      `json:"discount_value"`
	Subtotal       decimal.Decimal      `json:"subtotal"`
	TaxTotal       decimal.Decimal      `json:"tax_total"`
	DiscountAmount decimal.Decimal      `json:"discount_amount"`
	GrandTotal     decimal.Decimal      `json:"grand_total"`
	AmountPaid     decimal.Decimal      `json:"amount_paid"`
	Status         string               `json:"status"`
	Payments       []domain.Payment     `json:"payments"`
	CreatedAt      time.Time            `json:"created_at"`
	UpdatedAt      time.Time            `json:"updated_at"`
}

// InvoiceFromDomain converts a domain invoice to a response.
func InvoiceFromDomain(inv *domain.Invoice) InvoiceResponse {
	return InvoiceResponse{
		ID:             inv.ID,
		Type:           string(inv.Type),
		PartyID:        inv.PartyID,
		Number:         inv.Number,
		Date:           inv.Date,
		DueDate:        inv.DueDate,
		Items:          inv.Items,
		DiscountMode:   string(inv.DiscountMode),
		DiscountValue:  inv.DiscountValue,
		Subtotal:       inv.Subtotal,
		TaxTotal:       inv.TaxTotal,
		DiscountAmount: inv.DiscountAmount,
		GrandTotal:     inv.GrandTotal,
		AmountPaid:     inv.AmountPaid,
		Status:         string(inv.Status),
		Payments:       inv.Payments,
		CreatedAt:      inv.CreatedAt,
		UpdatedAt:      inv.UpdatedAt,
	}
}

// InvoicesFromDomain converts a slice of domain invoices.
func InvoicesFromDomain(invoices []*domain.Invoice) []InvoiceResponse {
	out := make([]InvoiceResponse, len(invoices))
	for i, inv := range invoices {
		out[i] = InvoiceFromDomain(inv)
	}
	return out
}

// CategoryResponse represents a category in responses.
type CategoryResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Kind      string    `json:"kind"`
	CreatedAt time.Time `json:"created_at"`
}

// CategoryFromDomain converts a domain category to a response.
func CategoryFromDomain(c *domain.Category) CategoryResponse {
	return CategoryResponse{
		ID:        c.ID,
		Name:      c.Name,
		Kind:      string(c.Kind),
		CreatedAt: c.CreatedAt,
	}
}

// CategoriesFromDomain converts a slice of domain categories.
func CategoriesFromDomain(categories []*domain.Category) []CategoryResponse {
	out := make([]CategoryResponse, len(categories))
	for i, c := range categories {
		out[i] = CategoryFromDomain(c)
	}
	return out
}

// ImportRecordResponse represents an import record in responses.
type ImportRecordResponse struct {
	ID              string                `json:"id"`
	FileName        string                `json:"file_name"`
	FileType        string                `json:"file_type"`
	Mode            string                `json:"mode,omitempty"`
	DetectedColumns []string              `json:"detected_columns,omitempty"`
	ColumnMapping   map[string]string     `json:"column_mapping,omitempty"`
	ParseWarnings   []domain.ParseWarning `json:"parse_warnings,omitempty"`
	Status          string                `json:"status"`
	ImportedCount   int                   `json:"imported_count"`
	SkippedCount    int                   `json:"skipped_count"`
	FailedCount     int                   `json:"failed_count"`
	TotalDebit      decimal.Decimal       `json:"total_debit"`
	TotalCredit     decimal.Decimal       `json:"total_credit"`
	CreatedAt       time.Time             `json:"created_at"`
	UpdatedAt       time.Time             `json:"updated_at"`
}

// ImportRecordFromDomain converts a domain import record to a response.
func ImportRecordFromDomain(r *domain.ImportRecord) ImportRecordResponse {
	resp := ImportRecordResponse{
		ID:              r.ID,
		FileName:        r.FileName,
		FileType:        r.FileType,
		DetectedColumns: r.DetectedColumns,
		ColumnMapping:   r.ColumnMapping,
		ParseWarnings:   r.ParseWarnings,
		Status:          string(r.Status),
		ImportedCount:   r.ImportedCount,
		SkippedCount:    r.SkippedCount,
		FailedCount:     r.FailedCount,
		TotalDebit:      r.TotalDebit,
		TotalCredit:     r.TotalCredit,
		CreatedAt:       r.CreatedAt,
		UpdatedAt:       r.UpdatedAt,
	}
	if r.Mode != nil {
		resp.Mode = r.Mode.Kind()
	}
	return resp
}

// ImportRecordsFromDomain converts a slice of domain import records.
func ImportRecordsFromDomain(records []*domain.ImportRecord) []ImportRecordResponse {
	out := make([]ImportRecordResponse, len(records))
	for i, r := range records {
		out[i] = ImportRecordFromDomain(r)
	}
	return out
}

// ImportItemResponse represents one candidate import row.
type ImportItemResponse struct {
	ID            string          `json:"id"`
	RowIndex      int             `json:"row_index"`
	Date          time.Time       `json:"date"`
	Description   string          `json:"description"`
	Amount        decimal.Decimal `json:"amount"`
	Type          string          `json:"type"`
	AccountID     string          `json:"account_id,omitempty"`
	Column        string          `json:"column,omitempty"`
	Category      string          `json:"category,omitempty"`
	PartyID       string          `json:"party_id,omitempty"`
	Status        string          `json:"status"`
	Error         string          `json:"error,omitempty"`
	TransactionID string          `json:"transaction_id,omitempty"`
}

// ImportDetailResponse represents an import record with its items.
type ImportDetailResponse struct {
	Record ImportRecordResponse `json:"record"`
	Items  []ImportItemResponse `json:"items"`
}

// ImportDetailFromUseCase converts a use case import detail.
func ImportDetailFromUseCase(d *usecase.ImportDetail) ImportDetailResponse {
	items := make([]ImportItemResponse, len(d.Items))
	for i, it := range d.Items {
		items[i] = ImportItemResponse{
			ID:            it.ID,
			RowIndex:      it.RowIndex,
			Date:          it.Date,
			Description:   it.Description,
			Amount:        it.Amount,
			Type:          string(it.Type),
			AccountID:     it.AccountID,
			Column:        it.Column,
			Category:      it.Category,
			PartyID:       it.PartyID,
			Status:        string(it.Status),
			Error:         it.Error,
			TransactionID: it.TransactionID,
		}
	}
	return ImportDetailResponse{
		Record: ImportRecordFromDomain(d.Record),
		Items:  items,
	}
}

// ReconciliationResultResponse represents one account's reconciliation
// outcome.
type ReconciliationResultResponse struct {
	AccountID       string          `json:"account_id"`
	StoredBalance   decimal.Decimal `json:"stored_balance"`
	ComputedBalance decimal.Decimal `json:"computed_balance"`
	Difference      decimal.Decimal `json:"difference"`
	Reconciled      bool            `json:"reconciled"`
	Corrected       bool            `json:"corrected"`
	Frozen          bool            `json:"frozen"`
	CheckedAt       time.Time       `json:"checked_at"`
}

// ReconciliationResultFromUseCase converts a use case result.
func ReconciliationResultFromUseCase(r *usecase.ReconciliationResult) ReconciliationResultResponse {
	return ReconciliationResultResponse{
		AccountID:       r.AccountID,
		StoredBalance:   r.StoredBalance,
		ComputedBalance: r.ComputedBalance,
		Difference:      r.Difference,
		Reconciled:      r.Reconciled,
		Corrected:       r.Corrected,
		Frozen:          r.Frozen,
		CheckedAt:       r.CheckedAt,
	}
}

// ReconciliationReportResponse represents a full reconciliation run.
type ReconciliationReportResponse struct {
	TotalAccounts      int                            `json:"total_accounts"`
	ReconciledAccounts int                            `json:"reconciled_accounts"`
	CorrectedAccounts  int                            `json:"corrected_accounts"`
	Discrepancies      []ReconciliationResultResponse `json:"discrepancies"`
	CheckedAt          time.Time                      `json:"checked_at"`
}

// ReconciliationReportFromUseCase converts a use case report.
func ReconciliationReportFromUseCase(r *usecase.ReconciliationReport) ReconciliationReportResponse {
	discrepancies := make([]ReconciliationResultResponse, len(r.Discrepancies))
	for i, d := range r.Discrepancies {
		discrepancies[i] = ReconciliationResultFromUseCase(d)
	}
	return ReconciliationReportResponse{
		TotalAccounts:      r.TotalAccounts,
		ReconciledAccounts: r.ReconciledAccounts,
		CorrectedAccounts:  r.CorrectedAccounts,
		Discrepancies:      discrepancies,
		CheckedAt:          r.CheckedAt,
	}
}

// ListAccountsResponse wraps a page of accounts.
type ListAccountsResponse struct {
	Accounts []AccountResponse `json:"accounts"`
	Total    int64             `json:"total"`
}

// ListAccountSummariesResponse wraps the account summary listing.
type ListAccountSummariesResponse struct {
	Summaries []AccountSummaryResponse `json:"summaries"`
	Total     int64                    `json:"total"`
}

// ListTransactionsResponse wraps a page of transactions.
type ListTransactionsResponse struct {
	Transactions []TransactionResponse `json:"transactions"`
	Total        int64                 `json:"total"`
}

// ListTransfersResponse wraps a page of transfers.
type ListTransfersResponse struct {
	Transfers []TransferResponse `json:"transfers"`
	Total     int64              `json:"total"`
}

// ListSnapshotsResponse wraps a page of balance snapshots.
type ListSnapshotsResponse struct {
	Snapshots []SnapshotResponse `json:"snapshots"`
	Total     int64              `json:"total"`
}

// ListPartiesResponse wraps a page of parties.
type ListPartiesResponse struct {
	Parties []PartyResponse `json:"parties"`
	Total   int64           `json:"total"`
}

// ListInvoicesResponse wraps a page of invoices.
type ListInvoicesResponse struct {
	Invoices []InvoiceResponse `json:"invoices"`
	Total    int64             `json:"total"`
}

// ListCategoriesResponse wraps the category listing.
type ListCategoriesResponse struct {
	Categories []CategoryResponse `json:"categories"`
	Total      int64              `json:"total"`
}

// ListImportsResponse wraps the import history listing.
type ListImportsResponse struct {
	Imports []ImportRecordResponse `json:"imports"`
	Total   int64                  `json:"total"`
}
