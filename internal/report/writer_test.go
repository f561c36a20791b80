package report

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/pgaborik/arexport/internal/records"
)

func TestWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.xlsx")

	items := []records.LineItem{
		{
			HeadOffice:     1234567,
			Currency:       "EUR",
			DocumentNumber: 140000001,
			DocumentType:   "RV",
			DocumentDate:   time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC),
			Amount:         -1234.56,
			Text:           "Payment D2000123",
			CaseID:         2000123,
		},
	}
	cases := []records.DisputeCase{
		{
			CaseID:    2000123,
			Debtor:    1234567,
			CreatedOn: time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC),
			Processor: "SMITH",
			Status:    "In Process",
		},
	}

	require.NoError(t, Write(path, items, cases))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	sheets := f.GetSheetList()
	assert.ElementsMatch(t, []string{SheetLineItems, SheetDisputes}, sheets)

	got, err := f.GetCellValue(SheetLineItems, "A1")
	require.NoError(t, err)
	assert.Equal(t, "Head Office", got)

	got, err = f.GetCellValue(SheetLineItems, "A2")
	require.NoError(t, err)
	assert.Equal(t, "1234567", got)

	got, err = f.GetCellValue(SheetLineItems, "F2")
	require.NoError(t, err)
	assert.Equal(t, "02.01.2026", got)

	got, err = f.GetCellValue(SheetLineItems, "O2")
	require.NoError(t, err)
	assert.Equal(t, "2000123", got)

	got, err = f.GetCellValue(SheetDisputes, "D2")
	require.NoError(t, err)
	assert.Equal(t, "SMITH", got)
}

func TestWriteEmptyTables(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.xlsx")

	require.NoError(t, Write(path, nil, nil))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	// Headers are present even without data rows.
	got, err := f.GetCellValue(SheetDisputes, "A1")
	require.NoError(t, err)
	assert.Equal(t, "Case ID", got)
}
