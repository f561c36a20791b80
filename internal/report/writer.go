// =============================================================================
// AR Export - XLSX Report Writer
// =============================================================================
//
// This module renders converted record tables into an XLSX workbook: one
// sheet for accounting line items, one for dispute cases. It consumes only
// typed records; all parsing happened upstream in the conversion stage.
//
// =============================================================================

package report

import (
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/pgaborik/arexport/internal/records"
)

// Sheet names of the generated workbook.
const (
	SheetLineItems = "Line Items"
	SheetDisputes  = "Dispute Cases"
)

// reportDateFormat is how date cells are rendered.
const reportDateFormat = "02.01.2006"

// amountNumberFormat is the built-in #,##0.00 number format.
const amountNumberFormat = 4

var lineItemHeader = []string{
	"Head Office", "Branch", "Currency", "Document Number", "Document Type",
	"Document Date", "Due Date", "Arrears", "Clearing Document", "Amount",
	"Account Assignment", "Tax", "Text", "Clearing Date", "Case ID",
}

var disputeHeader = []string{
	"Case ID", "Debtor", "Created On", "Processor", "Sales Status",
	"AC Status", "Notification", "Category Description", "Category",
	"Root Cause", "Note", "Fax Number", "Status", "Assignment",
}

// Write renders both record tables into one workbook at the given path.
// Empty tables still produce their sheet with the header row, so a report
// consumer always finds the same structure.
func Write(path string, items []records.LineItem, cases []records.DisputeCase) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := writeLineItems(f, items); err != nil {
		return err
	}
	if err := writeDisputes(f, cases); err != nil {
		return err
	}

	// Drop the default sheet excelize creates.
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return fmt.Errorf("failed to drop default sheet: %w", err)
	}

	if idx, err := f.GetSheetIndex(SheetLineItems); err == nil {
		f.SetActiveSheet(idx)
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to write report %s: %w", path, err)
	}
	return nil
}

func writeLineItems(f *excelize.File, items []records.LineItem) error {
	if _, err := f.NewSheet(SheetLineItems); err != nil {
		return fmt.Errorf("failed to create sheet: %w", err)
	}
	if err := writeHeader(f, SheetLineItems, lineItemHeader); err != nil {
		return err
	}

	for i, item := range items {
		row := []interface{}{
			item.HeadOffice,
			item.Branch,
			item.Currency,
			item.DocumentNumber,
			item.DocumentType,
			dateCell(item.DocumentDate),
			dateCell(item.DueDate),
			item.Arrears,
			numberCell(item.ClearingDocument),
			item.Amount,
			item.AccountAssignment,
			item.Tax,
			item.Text,
			dateCell(item.ClearingDate),
			numberCell(item.CaseID),
		}
		if err := writeRow(f, SheetLineItems, i+2, row); err != nil {
			return err
		}
	}

	// Amounts in column J get the #,##0.00 format.
	if len(items) > 0 {
		style, err := f.NewStyle(&excelize.Style{NumFmt: amountNumberFormat})
		if err != nil {
			return fmt.Errorf("failed to create amount style: %w", err)
		}
		last := fmt.Sprintf("J%d", len(items)+1)
		if err := f.SetCellStyle(SheetLineItems, "J2", last, style); err != nil {
			return fmt.Errorf("failed to style amount column: %w", err)
		}
	}

	return autoFilter(f, SheetLineItems, len(lineItemHeader), len(items))
}

func writeDisputes(f *excelize.File, cases []records.DisputeCase) error {
	if _, err := f.NewSheet(SheetDisputes); err != nil {
		return fmt.Errorf("failed to create sheet: %w", err)
	}
	if err := writeHeader(f, SheetDisputes, disputeHeader); err != nil {
		return err
	}

	for i, c := range cases {
		row := []interface{}{
			c.CaseID,
			c.Debtor,
			dateCell(c.CreatedOn),
			c.Processor,
			c.SalesStatus,
			c.ACStatus,
			c.Notification,
			c.CategoryDescription,
			c.Category,
			c.RootCause,
			c.Note,
			c.FaxNumber,
			c.Status,
			c.Assignment,
		}
		if err := writeRow(f, SheetDisputes, i+2, row); err != nil {
			return err
		}
	}

	return autoFilter(f, SheetDisputes, len(disputeHeader), len(cases))
}

func writeHeader(f *excelize.File, sheet string, header []string) error {
	cells := make([]interface{}, len(header))
	for i, h := range header {
		cells[i] = h
	}
	return writeRow(f, sheet, 1, cells)
}

func writeRow(f *excelize.File, sheet string, row int, values []interface{}) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return fmt.Errorf("failed to address row %d: %w", row, err)
	}
	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("failed to write row %d: %w", row, err)
	}
	return nil
}

func autoFilter(f *excelize.File, sheet string, columns, rows int) error {
	lastCell, err := excelize.CoordinatesToCellName(columns, rows+1)
	if err != nil {
		return fmt.Errorf("failed to address filter range: %w", err)
	}
	if err := f.AutoFilter(sheet, "A1:"+lastCell, nil); err != nil {
		return fmt.Errorf("failed to set auto filter: %w", err)
	}
	return nil
}

// dateCell renders a date field, leaving unset dates blank.
func dateCell(t time.Time) interface{} {
	if t.IsZero() {
		return ""
	}
	return t.Format(reportDateFormat)
}

// numberCell renders an optional numeric field, leaving zero blank.
func numberCell(v uint64) interface{} {
	if v == 0 {
		return ""
	}
	return v
}
