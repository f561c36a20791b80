// =============================================================================
// AR Export - Flat-Text Conversion
// =============================================================================
//
// Parsers for the delimited flat text the screen exports produce. The text
// mixes data rows with banners, separators, and totals; data rows are
// recognized by shape, stripped of their pipe frame and quote characters,
// and split into the fixed 14-column layout.
//
// =============================================================================

package records

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// recordColumns is the fixed width of both export layouts.
const recordColumns = 14

// exportDateFormat is the date format used inside exported data rows.
const exportDateFormat = "02.01.2006"

// Data-row shapes. Accounting rows open with a numeric head-office token
// and close with a pipe; dispute rows carry the numeric case identifier in
// the third column.
var (
	accountingLinePattern = regexp.MustCompile(`^\|\s*\d+.*\|$`)
	disputeLinePattern    = regexp.MustCompile(`^\|.*?\|.*?\|\d+.*$`)
)

// noTaxMarker is the placeholder the export writes for items without a tax
// code.
const noTaxMarker = "**"

// ParseLineItems converts a raw accounting export into typed line items.
// The case matcher extracts dispute case identifiers from the Text column;
// a nil matcher skips extraction. Banner, separator, and total lines are
// discarded.
func ParseLineItems(data string, caseMatcher *regexp.Regexp) ([]LineItem, error) {
	var items []LineItem

	for _, line := range strings.Split(data, "\n") {
		fields, ok := splitRow(line, accountingLinePattern)
		if !ok {
			continue
		}

		item, err := parseLineItem(fields)
		if err != nil {
			return nil, fmt.Errorf("line %q: %w", strings.TrimSpace(line), err)
		}

		if caseMatcher != nil {
			item.CaseID, _ = ExtractCaseID(caseMatcher, item.Text)
		}

		items = append(items, item)
	}

	return items, nil
}

// ParseDisputes converts a raw dispute export into typed case records.
func ParseDisputes(data string) ([]DisputeCase, error) {
	var cases []DisputeCase

	for _, line := range strings.Split(data, "\n") {
		fields, ok := splitRow(line, disputeLinePattern)
		if !ok {
			continue
		}

		c, err := parseDisputeCase(fields)
		if err != nil {
			return nil, fmt.Errorf("line %q: %w", strings.TrimSpace(line), err)
		}

		cases = append(cases, c)
	}

	return cases, nil
}

// splitRow strips the pipe frame and quote characters from a candidate
// data row and splits it into the fixed column layout. Rows of any other
// shape or width are rejected.
func splitRow(line string, pattern *regexp.Regexp) ([]string, bool) {
	line = strings.TrimRight(line, "\r")
	if !pattern.MatchString(line) {
		return nil, false
	}

	line = strings.Trim(line, "|")
	line = strings.ReplaceAll(line, `"`, "")

	parts := strings.Split(line, "|")
	if len(parts) != recordColumns {
		return nil, false
	}

	for i, p := range parts {
		parts[i] = strings.TrimSpace(p)
	}
	return parts, true
}

func parseLineItem(f []string) (LineItem, error) {
	var (
		item LineItem
		err  error
	)

	if item.HeadOffice, err = parseCount(f[0]); err != nil {
		return item, fmt.Errorf("head office: %w", err)
	}
	if item.Branch, err = parseCount(f[1]); err != nil {
		return item, fmt.Errorf("branch: %w", err)
	}
	item.Currency = f[2]
	if item.DocumentNumber, err = parseCount(f[3]); err != nil {
		return item, fmt.Errorf("document number: %w", err)
	}
	item.DocumentType = f[4]
	if item.DocumentDate, err = parseDate(f[5]); err != nil {
		return item, fmt.Errorf("document date: %w", err)
	}
	if item.DueDate, err = parseDate(f[6]); err != nil {
		return item, fmt.Errorf("due date: %w", err)
	}
	// Arrears follows the same numeric convention as amounts: a trailing
	// `-` marks negative days on items not yet due.
	days, err := ParseAmount(f[7])
	if err != nil {
		return item, fmt.Errorf("arrears: %w", err)
	}
	item.Arrears = int(days)
	if item.ClearingDocument, err = parseCount(f[8]); err != nil {
		return item, fmt.Errorf("clearing document: %w", err)
	}
	if item.Amount, err = ParseAmount(f[9]); err != nil {
		return item, fmt.Errorf("amount: %w", err)
	}
	item.AccountAssignment = f[10]
	item.Tax = f[11]
	if item.Tax == noTaxMarker {
		item.Tax = ""
	}
	item.Text = f[12]
	if item.ClearingDate, err = parseDate(f[13]); err != nil {
		return item, fmt.Errorf("clearing date: %w", err)
	}

	return item, nil
}

func parseDisputeCase(f []string) (DisputeCase, error) {
	var (
		c   DisputeCase
		err error
	)

	if c.CaseID, err = parseCount(f[0]); err != nil {
		return c, fmt.Errorf("case id: %w", err)
	}
	if c.Debtor, err = parseCount(f[1]); err != nil {
		return c, fmt.Errorf("debtor: %w", err)
	}
	if c.CreatedOn, err = parseDate(f[2]); err != nil {
		return c, fmt.Errorf("created on: %w", err)
	}
	c.Processor = f[3]
	c.SalesStatus = f[4]
	c.ACStatus = f[5]
	c.Notification = f[6]
	c.CategoryDescription = f[7]
	c.Category = f[8]
	c.RootCause = f[9]
	c.Note = f[10]
	c.FaxNumber = f[11]
	c.Status = f[12]
	c.Assignment = f[13]

	return c, nil
}

// ParseAmount parses a number in the export's European convention: `.` as
// thousands separator, `,` as decimal separator, and a trailing `-` for
// negative values ("1.234,56-" -> -1234.56). An empty field is zero.
func ParseAmount(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}

	if strings.HasSuffix(s, "-") {
		s = "-" + strings.TrimSuffix(s, "-")
	}
	s = strings.ReplaceAll(s, ".", "")
	s = strings.ReplaceAll(s, ",", ".")

	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid amount: %q", s)
	}
	return v, nil
}

// parseCount parses an unsigned numeric field. Empty fields are zero.
func parseCount(s string) (uint64, error) {
	if s == "" {
		return 0, nil
	}
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid number: %q", s)
	}
	return v, nil
}

// parseDate parses a DD.MM.YYYY field. Empty fields yield the zero time.
func parseDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(exportDateFormat, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date: %q", s)
	}
	return t, nil
}
