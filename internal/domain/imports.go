package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// ImportStatus is the lifecycle state of an import record.
type ImportStatus string

const (
	ImportUploaded  ImportStatus = "uploaded"
	ImportEmpty     ImportStatus = "empty"
	ImportMapped    ImportStatus = "mapped"
	ImportImporting ImportStatus = "importing"
	ImportCompleted ImportStatus = "completed"
	ImportFailed    ImportStatus = "failed"
)

// ItemStatus is the per-row state of a candidate import item.
type ItemStatus string

const (
	ItemPending  ItemStatus = "pending"
	ItemImported ItemStatus = "imported"
	ItemSkipped  ItemStatus = "skipped"
	ItemFailed   ItemStatus = "failed"
)

// ImportMode is the mapping strategy of an import. Exactly one concrete
// mode applies to a record; the two are mutually exclusive by construction.
type ImportMode interface {
	Kind() string
}

// StandardMode targets every row at one caller-chosen account.
type StandardMode struct {
	AccountID string
}

// Kind implements ImportMode.
func (StandardMode) Kind() string { return "standard" }

// LedgerMode maps each detected amount column to its own account, for
// multi-column bank or ledger sheets.
type LedgerMode struct {
	// AccountColumns maps a detected column name to an account id.
	AccountColumns map[string]string
}

// Kind implements ImportMode.
func (LedgerMode) Kind() string { return "ledger" }

// ParseWarning is a non-fatal problem found while parsing a statement file.
type ParseWarning struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	Suggestion string `json:"suggestion,omitempty"`
}

// ImportRecord is the audit trail of one statement upload: the parsed
// candidate items, the mapping, and the outcome counts. It is deleted only
// by explicit user action.
type ImportRecord struct {
	ID              string
	OwnerID         string
	OrgID           string
	FileName        string
	FileType        string
	Mode            ImportMode
	DetectedColumns []string
	ColumnMapping   map[string]string
	ParseWarnings   []ParseWarning
	Status          ImportStatus
	ImportedCount   int
	SkippedCount    int
	FailedCount     int
	TotalDebit      decimal.Decimal
	TotalCredit     decimal.Decimal
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// ImportItem is one candidate row awaiting review and execution. Column is
// set in ledger mode to the source column the amount came from.
type ImportItem struct {
	ID            string
	ImportID      string
	RowIndex      int
	Date          time.Time
	Description   string
	Amount        decimal.Decimal
	Type          EntryType
	AccountID     string
	Column        string
	Category      string
	PartyID       string
	Status        ItemStatus
	Error         string
	TransactionID string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}
