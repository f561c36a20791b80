// =============================================================================
// AR Export - Typed Record Model
// =============================================================================
//
// The conversion stage turns the raw delimited text produced by the screen
// exports into these typed records. Field order and meaning follow the
// fixed 14-column layout of the export layouts; anything the layouts leave
// blank stays at the zero value.
//
// =============================================================================

package records

import "time"

// LineItem is one accounting item row of a receivables export.
type LineItem struct {
	HeadOffice        uint64
	Branch            uint64
	Currency          string
	DocumentNumber    uint64
	DocumentType      string
	DocumentDate      time.Time
	DueDate           time.Time
	Arrears           int
	ClearingDocument  uint64
	Amount            float64
	AccountAssignment string
	Tax               string
	Text              string
	ClearingDate      time.Time

	// CaseID is the dispute case identifier extracted from Text, or zero
	// when the text carries no recognizable case marker.
	CaseID uint64
}

// DisputeCase is one case row of a dispute export.
type DisputeCase struct {
	CaseID              uint64
	Debtor              uint64
	CreatedOn           time.Time
	Processor           string
	SalesStatus         string
	ACStatus            string
	Notification        string
	CategoryDescription string
	Category            string
	RootCause           string
	Note                string
	FaxNumber           string
	Status              string
	Assignment          string
}
