// Package importer parses bank statement files (CSV, XLSX, PDF) into
// candidate rows for the import pipeline. Parsing is best-effort: rows that
// cannot be read are reported as warnings, not hard failures; only a file
// that yields no usable structure at all produces a ParseError.
package importer

import (
	"path/filepath"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/okiba/bookd/internal/domain"
)

// Warning codes carried on domain.ParseWarning and domain.ParseError.
const (
	WarnPDFUnreadable    = "pdf_unreadable"
	WarnLegacyXLS        = "legacy_xls"
	WarnUnsupportedType  = "unsupported_file_type"
	WarnEmptyFile        = "empty_file"
	WarnBadRow           = "unparseable_row"
	WarnAmbiguousDate    = "ambiguous_date_format"
	WarnNoAmountColumn   = "no_amount_column"
	suggestReexportSheet = "re-export the statement as CSV or XLSX and upload again"
)

// Row is one parsed statement line. Amount is signed: deposits positive,
// withdrawals negative. ColumnAmounts holds per-column values for
// multi-account ledger sheets.
type Row struct {
	Index         int
	Date          time.Time
	Description   string
	Amount        decimal.Decimal
	ColumnAmounts map[string]decimal.Decimal
}

// Statement is the result of parsing one uploaded file.
type Statement struct {
	FileType       string
	Columns        []string
	AccountColumns []string
	Rows           []Row
	Warnings       []domain.ParseWarning
}

// Parser parses statement files by extension.
type Parser struct{}

// New creates a Parser.
func New() *Parser {
	return &Parser{}
}

// Parse dispatches on the file extension. It returns a domain.ParseError
// when the file cannot yield any rows, with a code and an actionable
// suggestion for the user.
func (p *Parser) Parse(fileName string, data []byte) (*Statement, error) {
	if len(data) == 0 {
		return nil, &domain.ParseError{
			Code:       WarnEmptyFile,
			Message:    "uploaded file is empty",
			Suggestion: "check the export and upload a non-empty file",
		}
	}

	ext := strings.ToLower(filepath.Ext(fileName))
	switch ext {
	case ".csv", ".txt":
		return p.parseCSV(data)
	case ".xlsx":
		return p.parseXLSX(data)
	case ".xls":
		return nil, &domain.ParseError{
			Code:       WarnLegacyXLS,
			Message:    "legacy .xls workbooks are not supported",
			Suggestion: suggestReexportSheet,
		}
	case ".pdf":
		return p.parsePDF(data)
	default:
		return nil, &domain.ParseError{
			Code:       WarnUnsupportedType,
			Message:    "unsupported file type " + ext,
			Suggestion: "upload a CSV, XLSX or PDF statement",
		}
	}
}
