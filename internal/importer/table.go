package importer

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/okiba/bookd/internal/domain"
)

// column roles recognized in a statement header.
type columnRoles struct {
	date        int
	description int
	amount      int
	debit       int
	credit      int
	balance     int
	// accountCols are numeric columns that belong to no standard role;
	// in ledger-mode sheets each one represents its own account.
	accountCols []int
}

// buildStatement turns a raw table into a Statement: classify the header,
// detect the date format, then parse rows. Bad rows become warnings.
func buildStatement(fileType string, table [][]string) (*Statement, error) {
	table = dropEmptyRows(table)
	if len(table) == 0 {
		return &Statement{FileType: fileType}, nil
	}

	header := table[0]
	roles := classifyColumns(header, table[1:])

	st := &Statement{
		FileType: fileType,
		Columns:  trimAll(header),
	}

	for _, idx := range roles.accountCols {
		st.AccountColumns = append(st.AccountColumns, strings.TrimSpace(header[idx]))
	}

	if roles.amount < 0 && roles.debit < 0 && roles.credit < 0 && len(roles.accountCols) == 0 {
		st.Warnings = append(st.Warnings, domain.ParseWarning{
			Code:       WarnNoAmountColumn,
			Message:    "no amount, debit or credit column detected",
			Suggestion: "check the column headers or map columns manually",
		})

		return st, nil
	}

	layout := detectDateLayout(table[1:], roles.date)
	if layout == "" {
		st.Warnings = append(st.Warnings, domain.ParseWarning{
			Code:       WarnAmbiguousDate,
			Message:    "could not detect a consistent date format; trying common formats per row",
			Suggestion: "use ISO dates (YYYY-MM-DD) in the export if possible",
		})
	}

	for i, raw := range table[1:] {
		row, err := parseDataRow(i, raw, header, roles, layout)
		if err != nil {
			st.Warnings = append(st.Warnings, domain.ParseWarning{
				Code:    WarnBadRow,
				Message: fmt.Sprintf("row %d: %v", i+2, err),
			})

			continue
		}

		st.Rows = append(st.Rows, *row)
	}

	return st, nil
}

func parseDataRow(index int, raw, header []string, roles columnRoles, layout string) (*Row, error) {
	row := &Row{Index: index}

	if roles.date >= 0 && roles.date < len(raw) {
		date, err := parseDate(raw[roles.date], layout)
		if err != nil {
			return nil, err
		}

		row.Date = date
	}

	if roles.description >= 0 && roles.description < len(raw) {
		row.Description = strings.TrimSpace(raw[roles.description])
	}

	switch {
	case roles.amount >= 0 && roles.amount < len(raw) && strings.TrimSpace(raw[roles.amount]) != "":
		amount, err := parseAmount(raw[roles.amount])
		if err != nil {
			return nil, err
		}

		row.Amount = amount
	case roles.debit >= 0 || roles.credit >= 0:
		amount, err := amountFromSplitColumns(raw, roles)
		if err != nil {
			return nil, err
		}

		row.Amount = amount
	}

	if len(roles.accountCols) > 0 {
		row.ColumnAmounts = make(map[string]decimal.Decimal)
		for _, idx := range roles.accountCols {
			if idx >= len(raw) || strings.TrimSpace(raw[idx]) == "" {
				continue
			}

			amount, err := parseAmount(raw[idx])
			if err != nil {
				return nil, fmt.Errorf("column %q: %w", strings.TrimSpace(header[idx]), err)
			}

			row.ColumnAmounts[strings.TrimSpace(header[idx])] = amount
		}
	}

	return row, nil
}

// amountFromSplitColumns handles statements with separate debit and credit
// columns: the populated side wins, debits come out negative.
func amountFromSplitColumns(raw []string, roles columnRoles) (decimal.Decimal, error) {
	if roles.debit >= 0 && roles.debit < len(raw) && strings.TrimSpace(raw[roles.debit]) != "" {
		amount, err := parseAmount(raw[roles.debit])
		if err != nil {
			return decimal.Zero, err
		}

		return amount.Abs().Neg(), nil
	}

	if roles.credit >= 0 && roles.credit < len(raw) && strings.TrimSpace(raw[roles.credit]) != "" {
		amount, err := parseAmount(raw[roles.credit])
		if err != nil {
			return decimal.Zero, err
		}

		return amount.Abs(), nil
	}

	return decimal.Zero, fmt.Errorf("no debit or credit value")
}

func classifyColumns(header []string, body [][]string) columnRoles {
	roles := columnRoles{date: -1, description: -1, amount: -1, debit: -1, credit: -1, balance: -1}

	for i, name := range header {
		switch n := normalizeHeader(name); {
		case roles.date < 0 && containsAny(n, "date", "value dt", "txn dt", "posted"):
			roles.date = i
		case roles.description < 0 && containsAny(n, "description", "narration", "particulars", "details", "memo", "payee", "remarks"):
			roles.description = i
		case roles.debit < 0 && (containsAny(n, "debit", "withdrawal") || n == "dr" || n == "dr."):
			roles.debit = i
		case roles.credit < 0 && (containsAny(n, "credit", "deposit") || n == "cr" || n == "cr."):
			roles.credit = i
		case roles.balance < 0 && containsAny(n, "balance", "running"):
			roles.balance = i
		case roles.amount < 0 && containsAny(n, "amount", "value"):
			roles.amount = i
		}
	}

	// A date column without a recognizable header is still detectable from
	// the data.
	if roles.date < 0 {
		roles.date = sniffDateColumn(header, body)
	}

	// Remaining numeric columns are account candidates for ledger sheets.
	taken := map[int]bool{
		roles.date: true, roles.description: true, roles.amount: true,
		roles.debit: true, roles.credit: true, roles.balance: true,
	}
	for i := range header {
		if taken[i] {
			continue
		}

		if columnIsNumeric(body, i) {
			roles.accountCols = append(roles.accountCols, i)
		}
	}

	return roles
}

func sniffDateColumn(header []string, body [][]string) int {
	for i := range header {
		matches := 0
		seen := 0
		for _, row := range body {
			if i >= len(row) || strings.TrimSpace(row[i]) == "" {
				continue
			}

			seen++
			if _, err := parseDate(row[i], ""); err == nil {
				matches++
			}

			if seen >= 10 {
				break
			}
		}

		if seen > 0 && matches == seen {
			return i
		}
	}

	return -1
}

func columnIsNumeric(body [][]string, col int) bool {
	seen := 0
	for _, row := range body {
		if col >= len(row) || strings.TrimSpace(row[col]) == "" {
			continue
		}

		seen++
		if _, err := parseAmount(row[col]); err != nil {
			return false
		}

		if seen >= 10 {
			break
		}
	}

	return seen > 0
}

// dateLayouts are tried in order. Day-first layouts come before month-first
// since most bank exports outside the US are day-first; detectDateLayout
// only commits to a layout that parses every sampled value.
var dateLayouts = []string{
	"2006-01-02",
	"2006/01/02",
	"02/01/2006",
	"01/02/2006",
	"02-01-2006",
	"02.01.2006",
	"2 Jan 2006",
	"02 Jan 2006",
	"Jan 2, 2006",
	"2006-01-02T15:04:05Z07:00",
}

func detectDateLayout(body [][]string, dateCol int) string {
	if dateCol < 0 {
		return ""
	}

	var samples []string
	for _, row := range body {
		if dateCol < len(row) && strings.TrimSpace(row[dateCol]) != "" {
			samples = append(samples, strings.TrimSpace(row[dateCol]))
		}

		if len(samples) >= 20 {
			break
		}
	}

	for _, layout := range dateLayouts {
		ok := true
		for _, s := range samples {
			if _, err := time.Parse(layout, s); err != nil {
				ok = false
				break
			}
		}

		if ok && len(samples) > 0 {
			return layout
		}
	}

	return ""
}

func parseDate(value, layout string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, fmt.Errorf("empty date")
	}

	if layout != "" {
		t, err := time.Parse(layout, value)
		if err != nil {
			return time.Time{}, fmt.Errorf("bad date %q", value)
		}

		return t.UTC(), nil
	}

	for _, l := range dateLayouts {
		if t, err := time.Parse(l, value); err == nil {
			return t.UTC(), nil
		}
	}

	return time.Time{}, fmt.Errorf("bad date %q", value)
}

var amountCleaner = strings.NewReplacer(
	",", "", " ", "", "$", "", "€", "", "£", "", "₹", "", " ", "",
)

// parseAmount reads a monetary cell: currency symbols and thousands
// separators are stripped, parentheses and a trailing DR marker mean
// negative, a trailing CR marker means positive.
func parseAmount(value string) (decimal.Decimal, error) {
	v := strings.TrimSpace(value)

	negative := false
	if strings.HasPrefix(v, "(") && strings.HasSuffix(v, ")") {
		negative = true
		v = v[1 : len(v)-1]
	}

	upper := strings.ToUpper(v)
	switch {
	case strings.HasSuffix(upper, "DR"):
		negative = true
		v = strings.TrimSpace(v[:len(v)-2])
	case strings.HasSuffix(upper, "CR"):
		v = strings.TrimSpace(v[:len(v)-2])
	}

	v = amountCleaner.Replace(v)
	if v == "" {
		return decimal.Zero, fmt.Errorf("empty amount")
	}

	d, err := decimal.NewFromString(v)
	if err != nil {
		return decimal.Zero, fmt.Errorf("bad amount %q", value)
	}

	if negative {
		d = d.Abs().Neg()
	}

	return d, nil
}

func normalizeHeader(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}

	return false
}

func trimAll(vals []string) []string {
	out := make([]string, len(vals))
	for i, v := range vals {
		out[i] = strings.TrimSpace(v)
	}

	return out
}

func dropEmptyRows(table [][]string) [][]string {
	out := table[:0]
	for _, row := range table {
		empty := true
		for _, cell := range row {
			if strings.TrimSpace(cell) != "" {
				empty = false
				break
			}
		}

		if !empty {
			out = append(out, row)
		}
	}

	return out
}
