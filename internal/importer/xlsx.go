package importer

import (
	"bytes"

	"github.com/xuri/excelize/v2"

	"github.com/okiba/bookd/internal/domain"
)

// parseXLSX reads the first sheet of an XLSX workbook.
func (p *Parser) parseXLSX(data []byte) (*Statement, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, &domain.ParseError{
			Code:       WarnBadRow,
			Message:    "cannot open workbook: " + err.Error(),
			Suggestion: suggestReexportSheet,
		}
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, &domain.ParseError{
			Code:       WarnEmptyFile,
			Message:    "workbook has no sheets",
			Suggestion: suggestReexportSheet,
		}
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, &domain.ParseError{
			Code:       WarnBadRow,
			Message:    "cannot read sheet " + sheets[0] + ": " + err.Error(),
			Suggestion: suggestReexportSheet,
		}
	}

	return buildStatement("xlsx", rows)
}
