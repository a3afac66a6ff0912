package importer

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/okiba/bookd/internal/domain"
)

func TestParse_CSVWithAmountColumn(t *testing.T) {
	data := []byte("Date,Description,Amount\n" +
		"2024-01-05,Coffee beans,-12.50\n" +
		"2024-01-06,Invoice 42,\"1,200.00\"\n")

	p := New()
	st, err := p.Parse("statement.csv", data)
	require.NoError(t, err)
	require.Len(t, st.Rows, 2)

	assert.Equal(t, []string{"Date", "Description", "Amount"}, st.Columns)
	assert.Empty(t, st.AccountColumns)

	first := st.Rows[0]
	assert.Equal(t, time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC), first.Date)
	assert.Equal(t, "Coffee beans", first.Description)
	assert.True(t, first.Amount.Equal(decimal.RequireFromString("-12.50")))

	second := st.Rows[1]
	assert.True(t, second.Amount.Equal(decimal.RequireFromString("1200.00")))
}

func TestParse_CSVWithDebitCreditColumns(t *testing.T) {
	data := []byte("Date,Particulars,Debit,Credit,Balance\n" +
		"05/01/2024,Rent,500.00,,1500.00\n" +
		"06/01/2024,Sales,,750.00,2250.00\n")

	p := New()
	st, err := p.Parse("bank.csv", data)
	require.NoError(t, err)
	require.Len(t, st.Rows, 2)

	assert.True(t, st.Rows[0].Amount.Equal(decimal.RequireFromString("-500.00")), "debit should be negative")
	assert.True(t, st.Rows[1].Amount.Equal(decimal.RequireFromString("750.00")))
}

func TestParse_LedgerModeColumns(t *testing.T) {
	data := []byte("Date,Cash,Bank,Petty\n" +
		"2024-02-01,100,250.75,-10\n" +
		"2024-02-02,,80,\n")

	p := New()
	st, err := p.Parse("ledger.csv", data)
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{"Cash", "Bank", "Petty"}, st.AccountColumns)
	require.Len(t, st.Rows, 2)

	first := st.Rows[0]
	require.Len(t, first.ColumnAmounts, 3)
	assert.True(t, first.ColumnAmounts["Bank"].Equal(decimal.RequireFromString("250.75")))
	assert.True(t, first.ColumnAmounts["Petty"].Equal(decimal.NewFromInt(-10)))

	second := st.Rows[1]
	require.Len(t, second.ColumnAmounts, 1)
	assert.True(t, second.ColumnAmounts["Bank"].Equal(decimal.NewFromInt(80)))
}

func TestParse_BadRowsBecomeWarnings(t *testing.T) {
	data := []byte("Date,Description,Amount\n" +
		"2024-01-05,ok,10\n" +
		"not a date,broken,abc\n" +
		"2024-01-07,also ok,20\n")

	p := New()
	st, err := p.Parse("statement.csv", data)
	require.NoError(t, err)

	assert.Len(t, st.Rows, 2)
	require.NotEmpty(t, st.Warnings)
	assert.Equal(t, WarnBadRow, st.Warnings[len(st.Warnings)-1].Code)
}

func TestParse_EmptyFile(t *testing.T) {
	p := New()
	_, err := p.Parse("statement.csv", nil)

	var parseErr *domain.ParseError
	require.ErrorAs(t, err, &parseErr)
	assert.Equal(t, WarnEmptyFile, parseErr.Code)
}

func TestParse_LegacyXLSRejectedWithSuggestion(t *testing.T) {
	p := New()
	_, err := p.Parse("old.xls", []byte{0x01})

	var parseErr *domain.ParseError
	require.ErrorAs(t, err, &parseErr)
	assert.Equal(t, WarnLegacyXLS, parseErr.Code)
	assert.NotEmpty(t, parseErr.Suggestion)
}

func TestParse_UnsupportedExtension(t *testing.T) {
	p := New()
	_, err := p.Parse("notes.docx", []byte("hello"))

	var parseErr *domain.ParseError
	require.ErrorAs(t, err, &parseErr)
	assert.Equal(t, WarnUnsupportedType, parseErr.Code)
}

func TestParseAmount(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"1,234.56", "1234.56"},
		{"$99.00", "99.00"},
		{"(45.10)", "-45.10"},
		{"120.00 DR", "-120.00"},
		{"120.00 CR", "120.00"},
		{"-3", "-3"},
	}

	for _, tt := range tests {
		got, err := parseAmount(tt.in)
		require.NoError(t, err, tt.in)
		assert.True(t, got.Equal(decimal.RequireFromString(tt.want)), "parseAmount(%q) = %s, want %s", tt.in, got, tt.want)
	}

	_, err := parseAmount("n/a")
	assert.Error(t, err)
}

func TestDetectDateLayout_DayFirst(t *testing.T) {
	body := [][]string{
		{"13/01/2024", "x", "1"},
		{"14/01/2024", "y", "2"},
	}

	layout := detectDateLayout(body, 0)
	assert.Equal(t, "02/01/2006", layout)
}
