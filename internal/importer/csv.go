package importer

import (
	"bytes"
	"encoding/csv"
	"errors"
	"io"

	"github.com/okiba/bookd/internal/domain"
)

// parseCSV reads a comma- or semicolon-delimited statement.
func (p *Parser) parseCSV(data []byte) (*Statement, error) {
	table, err := readCSV(data, ',')
	if err != nil || len(table) < 2 {
		// Some banks export semicolon-delimited "CSV".
		if alt, altErr := readCSV(data, ';'); altErr == nil && len(alt) > len(table) {
			table = alt
			err = nil
		}
	}

	if err != nil {
		return nil, &domain.ParseError{
			Code:       WarnBadRow,
			Message:    "file is not valid CSV: " + err.Error(),
			Suggestion: suggestReexportSheet,
		}
	}

	return buildStatement("csv", table)
}

func readCSV(data []byte, delim rune) ([][]string, error) {
	reader := csv.NewReader(bytes.NewReader(stripBOM(data)))
	reader.Comma = delim
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	var table [][]string
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}

		if err != nil {
			return nil, err
		}

		table = append(table, record)
	}

	return table, nil
}

func stripBOM(data []byte) []byte {
	return bytes.TrimPrefix(data, []byte{0xEF, 0xBB, 0xBF})
}
