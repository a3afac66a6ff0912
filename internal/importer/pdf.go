package importer

import (
	"bytes"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/okiba/bookd/internal/domain"
)

// parsePDF extracts text from a PDF statement and attempts to recover
// whitespace-separated rows. Scanned or image-only PDFs yield no text and
// fail with an actionable suggestion; table layout in text PDFs is
// best-effort.
func (p *Parser) parsePDF(data []byte) (*Statement, error) {
	unreadable := &domain.ParseError{
		Code:       WarnPDFUnreadable,
		Message:    "could not extract a transaction table from the PDF",
		Suggestion: suggestReexportSheet,
	}

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, unreadable
	}

	var text strings.Builder
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}

		content, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}

		text.WriteString(content)
		text.WriteString("\n")
	}

	table := tableFromText(text.String())
	if len(table) < 2 {
		return nil, unreadable
	}

	st, err := buildStatement("pdf", table)
	if err != nil {
		return nil, err
	}

	if len(st.Rows) == 0 {
		return nil, unreadable
	}

	return st, nil
}

// tableFromText splits extracted text into lines and lines into columns on
// runs of two or more spaces, the usual rendering of table cells.
func tableFromText(text string) [][]string {
	var table [][]string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		var cells []string
		for _, cell := range strings.Split(line, "  ") {
			cell = strings.TrimSpace(cell)
			if cell != "" {
				cells = append(cells, cell)
			}
		}

		if len(cells) >= 2 {
			table = append(table, cells)
		}
	}

	return table
}
