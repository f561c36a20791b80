// =============================================================================
// AR Export - Accounting Line Item Engine
// =============================================================================
//
// The engine owns one session bound to the accounts-receivable item-listing
// transaction. It exposes two operations:
//
//   - ExportLineItems:          export accounting item data from customer
//                               accounts as raw text
//   - ChangeDocumentParameters: batch-edit the Text/Assignment fields of
//                               items matched by their current Text value
//
// Lifecycle: Uninitialized -> Started -> Closed. Start on a started engine
// restarts the transaction (never a leaked double-session); Close is always
// safe to call. All input validation happens before any screen interaction.
//
// =============================================================================

package receivables

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/pgaborik/arexport/internal/export"
	"github.com/pgaborik/arexport/internal/screen"
	"github.com/pgaborik/arexport/internal/scripting"
)

// transactionCode opens the item-listing screen.
const transactionCode = "FBL5N"

// Technical names of the selection-mask controls.
const (
	fieldAccountLow         = "DD_KUNNR-LOW"
	fieldWorklistAccountLow = "SO_WLKUN-LOW"
	fieldCompanyCode        = "DD_BUKRS-LOW"
	fieldWorklistCompany    = "SO_WLBUK-LOW"
	fieldWorklist           = "PA_WLKUN"
	fieldLayout             = "PA_VARI"
	fieldPostingDateLow     = "SO_BUDAT-LOW"
	fieldPostingDateHigh    = "SO_BUDAT-HIGH"
	fieldOpenAtKeyDate      = "PA_STIDA"
	fieldClearingDateLow    = "SO_AUGDT-LOW"
	fieldClearingDateHigh   = "SO_AUGDT-HIGH"
	fieldItemText           = "BSEG-SGTXT"
	fieldItemAssignment     = "BSEG-ZUONR"

	radioOpenItems    = "X_OPSEL"
	radioClearedItems = "X_CLSEL"
	radioAllItems     = "X_AISEL"

	buttonAccountSelection = "%_DD_KUNNR_%_APP_%-VALU_PUSH"
	buttonFilterValues     = "%_%%DYN001_%_APP_%-VALU_PUSH"
	buttonAddFilter        = "APP_WL_SING"
	buttonDefineFilter     = "600_BUTTON"
)

// Grid column technical names of the item table.
const (
	columnText           = "SGTXT"
	columnAssignment     = "ZUONR"
	columnDocumentNumber = "BELNR"
	columnFieldName      = "FIELDNAME"
)

// hostDateFormat is the date format the selection mask expects.
const hostDateFormat = "02.01.2006"

// Field length ceilings enforced before any value is sent to the screen.
const (
	maxTextLen       = 50
	maxAssignmentLen = 18
)

// =============================================================================
// ERRORS
// =============================================================================

// ErrUninitialized is returned when an operation is invoked before Start.
var ErrUninitialized = errors.New("engine not started: call Start first")

// ErrConnectionLost is returned when the status bar becomes unreadable
// right after loading, the only reliable signal that the host crashed or
// the connection dropped.
var ErrConnectionLost = errors.New("connection to the automation host lost")

// ErrNoItems is returned when filtering the loaded items on the searched
// Text values leaves no rows.
var ErrNoItems = errors.New("filtering on the searched text values returned no results")

// ItemLoadingError is returned when the host reports an unrecognized
// outcome after loading accounting items.
type ItemLoadingError struct {
	Message string
}

func (e *ItemLoadingError) Error() string {
	return fmt.Sprintf("could not load account data: %s", e.Message)
}

// =============================================================================
// REQUEST / RESULT TYPES
// =============================================================================

// ExportRequest describes one line-item export.
type ExportRequest struct {
	// File is the path of the transient .txt export artifact. It is
	// created, read, and removed within the call.
	File string

	// CompanyCode is empty or exactly four numeric characters.
	CompanyCode string

	// Selection identifies the accounts to export from.
	Selection Selection

	// Status selects open, cleared, or all items.
	Status Status

	// FromDay and ToDay bound the posting date range. Zero values leave
	// the respective bound open.
	FromDay time.Time
	ToDay   time.Time

	// Layout names the display layout applied before the export. Empty
	// keeps the host's default layout.
	Layout string
}

func (r ExportRequest) validate() error {
	if r.File == "" {
		return fmt.Errorf("export file path is empty")
	}
	if err := validateCompanyCode(r.CompanyCode); err != nil {
		return err
	}
	if err := r.Selection.validate(); err != nil {
		return err
	}
	if err := validateStatus(r.Status); err != nil {
		return err
	}
	return validateDateRange(r.FromDay, r.ToDay)
}

// ExportResult carries the raw exported text. Empty marks the valid
// business outcome that no item matched the selection criteria; it is not
// an error.
type ExportResult struct {
	Text  string
	Empty bool
}

// FieldUpdate describes the desired new Text and Assignment values for
// items whose current Text matches the mapping key. A nil field is left
// untouched.
type FieldUpdate struct {
	NewText       *string
	NewAssignment *string
}

// UpdateOutcome mirrors the requested update and adds the per-key
// processing message.
type UpdateOutcome struct {
	FieldUpdate
	Message string
}

// msgNotFound is the default outcome for keys never matched by a row.
const msgNotFound = "Document not found on the account."

// UpdateRequest describes one batch field update.
type UpdateRequest struct {
	// CompanyCode is empty or exactly four numeric characters.
	CompanyCode string

	// Selection identifies the accounts holding the items. Worklist
	// selection is not supported for updates.
	Selection Selection

	// Parameters maps an item's current Text value to its desired new
	// field values.
	Parameters map[string]FieldUpdate

	Status Status
	Layout string
}

func (r UpdateRequest) validate() error {
	if err := validateCompanyCode(r.CompanyCode); err != nil {
		return err
	}
	if r.Selection.kind == selectWorklist {
		return fmt.Errorf("worklist selection is not supported for document updates")
	}
	if err := r.Selection.validate(); err != nil {
		return err
	}
	if err := validateStatus(r.Status); err != nil {
		return err
	}
	if len(r.Parameters) == 0 {
		return fmt.Errorf("no update parameters provided")
	}
	for key, upd := range r.Parameters {
		if upd.NewText != nil && len(*upd.NewText) > maxTextLen {
			return fmt.Errorf("new text for %q exceeds the allowed maximum of %d chars", key, maxTextLen)
		}
		if upd.NewAssignment != nil && len(*upd.NewAssignment) > maxAssignmentLen {
			return fmt.Errorf("new assignment for %q exceeds the allowed maximum of %d chars", key, maxAssignmentLen)
		}
	}
	return nil
}

// =============================================================================
// ENGINE
// =============================================================================

type engineState int

const (
	stateUninitialized engineState = iota
	stateStarted
)

// Engine drives the item-listing transaction over one session.
type Engine struct {
	log   zerolog.Logger
	sess  scripting.Session
	drv   *screen.Driver
	state engineState
}

// New returns an engine in the Uninitialized state.
func New(log zerolog.Logger) *Engine {
	return &Engine{log: log.With().Str("component", "receivables").Logger()}
}

// Start binds the engine to the session and opens the item-listing
// transaction. A started engine is restarted: the previous transaction is
// closed first.
func (e *Engine) Start(sess scripting.Session) error {
	if sess == nil {
		return fmt.Errorf("session is nil")
	}

	if e.state == stateStarted {
		if err := e.Close(); err != nil {
			return fmt.Errorf("restart: %w", err)
		}
	}

	e.sess = sess
	e.drv = screen.New(sess, e.log)

	if err := sess.StartTransaction(transactionCode); err != nil {
		e.reset()
		return fmt.Errorf("start transaction %s: %w", transactionCode, err)
	}

	e.state = stateStarted
	e.log.Debug().Str("transaction", transactionCode).Msg("transaction started")
	return nil
}

// Close ends the transaction and clears the session binding. Any modal
// dialog left open is confirmed. Closing an engine that was never started
// is a no-op.
func (e *Engine) Close() error {
	if e.state != stateStarted {
		return nil
	}

	err := e.sess.EndTransaction()

	if e.drv.IsModalDialogActive() {
		if derr := e.drv.ResolveDialog(true); derr != nil && err == nil {
			err = derr
		}
	}

	e.reset()
	return err
}

func (e *Engine) reset() {
	e.sess = nil
	e.drv = nil
	e.state = stateUninitialized
}

// =============================================================================
// EXPORT
// =============================================================================

// ExportLineItems exports accounting item data for the requested selection
// as raw text. The empty-result outcome ("no items selected") is reported
// through ExportResult.Empty, not as an error.
func (e *Engine) ExportLineItems(req ExportRequest) (ExportResult, error) {
	var zero ExportResult

	if e.state != stateStarted {
		return zero, ErrUninitialized
	}
	if err := req.validate(); err != nil {
		return zero, err
	}

	if err := e.clearAccount(); err != nil {
		return zero, err
	}
	if err := e.applySelection(req.Selection); err != nil {
		return zero, err
	}
	if err := e.setCompanyCode(req.CompanyCode); err != nil {
		return zero, err
	}
	if err := e.setMainField(fieldLayout, req.Layout); err != nil {
		return zero, err
	}
	if err := e.selectStatus(req.Status); err != nil {
		return zero, err
	}
	if err := e.setPostingDates(req.Status, req.FromDay, req.ToDay); err != nil {
		return zero, err
	}

	loaded, err := e.loadItems()
	if err != nil {
		return zero, err
	}
	if !loaded {
		e.log.Info().Msg("no items found using the selection criteria")
		return ExportResult{Empty: true}, nil
	}

	// Open the layout management dialog with technical names enabled and
	// confirm the layout.
	for _, key := range []string{"CtrlF8", "CtrlShiftF6", "Enter"} {
		if err := e.drv.PressKey(key); err != nil {
			return zero, err
		}
	}

	text, err := export.AndRead(e.log, req.File, func() error {
		// F9 opens the local file export dialog.
		if err := e.drv.PressKey("F9"); err != nil {
			return err
		}
		return e.drv.ExportToFile(req.File, 0)
	})
	if err != nil {
		return zero, err
	}

	// Back to the main selection mask.
	if err := e.drv.PressKey("F3"); err != nil {
		return zero, err
	}

	return ExportResult{Text: text}, nil
}

// =============================================================================
// BATCH FIELD UPDATE
// =============================================================================

// ChangeDocumentParameters replaces the Text and Assignment fields of
// items whose current Text value appears as a key in the request
// parameters. Every key ends with a definitive outcome message; keys never
// matched against a row keep the "not found" default.
func (e *Engine) ChangeDocumentParameters(req UpdateRequest) (map[string]UpdateOutcome, error) {
	if e.state != stateStarted {
		return nil, ErrUninitialized
	}
	if err := req.validate(); err != nil {
		return nil, err
	}

	if err := e.toggleWorklist(false); err != nil {
		return nil, err
	}
	if err := e.setCompanyCode(req.CompanyCode); err != nil {
		return nil, err
	}
	if err := e.setMainField(fieldLayout, req.Layout); err != nil {
		return nil, err
	}
	if err := e.applySelection(req.Selection); err != nil {
		return nil, err
	}
	if err := e.selectStatus(req.Status); err != nil {
		return nil, err
	}

	results := make(map[string]UpdateOutcome, len(req.Parameters))
	for key, upd := range req.Parameters {
		results[key] = UpdateOutcome{FieldUpdate: upd, Message: msgNotFound}
	}

	loaded, err := e.loadItems()
	if err != nil {
		return nil, err
	}
	if !loaded {
		// Valid empty outcome: every key is definitively not found.
		return results, nil
	}

	keys := make([]string, 0, len(req.Parameters))
	for key := range req.Parameters {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	if err := e.filterByText(keys); err != nil {
		return nil, err
	}

	grid, err := e.sess.MainWindow().Grid(0)
	if err != nil {
		return nil, fmt.Errorf("item table: %w", err)
	}

	if grid.RowCount() == 0 {
		if err := e.drv.PressKey("F3"); err != nil {
			return nil, err
		}
		return nil, ErrNoItems
	}

	for idx := 0; idx < grid.RowCount(); idx++ {
		// Subtotal rows carry no document number and are not items.
		if grid.CellValue(idx, columnDocumentNumber) == "" {
			continue
		}

		oldText := grid.CellValue(idx, columnText)
		upd, ok := req.Parameters[oldText]
		if !ok {
			continue
		}

		outcome, err := e.updateItemRow(grid, idx, oldText, upd)
		if err != nil {
			return nil, err
		}
		results[oldText] = outcome
	}

	if err := e.drv.PressKey("F3"); err != nil {
		return nil, err
	}

	return results, nil
}

// updateItemRow edits one matched item row. Rows already carrying the
// desired values are reported as such and never edited.
func (e *Engine) updateItemRow(grid scripting.Grid, idx int, oldText string, upd FieldUpdate) (UpdateOutcome, error) {
	var zero UpdateOutcome

	if err := grid.SelectRow(idx); err != nil {
		return zero, fmt.Errorf("select item row %d: %w", idx, err)
	}
	if err := grid.SetCurrentRow(idx); err != nil {
		return zero, fmt.Errorf("set current item row %d: %w", idx, err)
	}

	oldAssign := grid.CellValue(idx, columnAssignment)

	textDiffers := upd.NewText != nil && *upd.NewText != oldText
	assignDiffers := upd.NewAssignment != nil && *upd.NewAssignment != oldAssign

	var parts []string
	if upd.NewText != nil && !textDiffers {
		parts = append(parts, "Text already contains the desired value.")
	}
	if upd.NewAssignment != nil && !assignDiffers {
		parts = append(parts, "Assignment already contains the desired value.")
	}

	if !textDiffers && !assignDiffers {
		return UpdateOutcome{FieldUpdate: upd, Message: strings.Join(parts, " ")}, nil
	}

	// Enter item edit mode.
	if err := e.drv.PressKey("ShiftF2"); err != nil {
		return zero, err
	}
	if err := e.drv.PressKey("ShiftF1"); err != nil {
		return zero, err
	}

	if textDiffers {
		if err := e.setMainField(fieldItemText, *upd.NewText); err != nil {
			return zero, err
		}
		parts = append(parts, "Text updated.")
	}
	if assignDiffers {
		// The assignment field is absent on some document types.
		if e.sess.MainWindow().HasField(fieldItemAssignment) {
			if err := e.setMainField(fieldItemAssignment, *upd.NewAssignment); err != nil {
				return zero, err
			}
			parts = append(parts, "Assignment updated.")
		}
	}

	if err := e.drv.PressKey("CtrlS"); err != nil {
		return zero, err
	}

	return UpdateOutcome{FieldUpdate: upd, Message: strings.Join(parts, " ")}, nil
}

// =============================================================================
// SELECTION MASK HELPERS
// =============================================================================

func (e *Engine) setMainField(name, value string) error {
	f, err := e.sess.MainWindow().Field(name)
	if err != nil {
		return fmt.Errorf("field %s: %w", name, err)
	}
	if err := f.SetText(value); err != nil {
		return fmt.Errorf("set field %s: %w", name, err)
	}
	return nil
}

// applySelection enters the selection variant into the mask, toggling
// worklist mode as needed.
func (e *Engine) applySelection(sel Selection) error {
	switch sel.kind {
	case selectAccount:
		return e.setAccount(strconv.Itoa(sel.account))

	case selectAccounts:
		if err := e.toggleWorklist(false); err != nil {
			return err
		}
		return e.setAccounts(sel.accounts)

	case selectWorklist:
		if err := e.toggleWorklist(true); err != nil {
			return err
		}
		return e.setMainField(fieldWorklist, sel.worklist)

	default:
		return fmt.Errorf("no selection criteria provided")
	}
}

// setAccount writes into whichever account field the current screen mode
// exposes.
func (e *Engine) setAccount(value string) error {
	name := fieldWorklistAccountLow
	if e.sess.MainWindow().HasField(fieldAccountLow) {
		name = fieldAccountLow
	}
	return e.setMainField(name, value)
}

func (e *Engine) clearAccount() error {
	return e.setAccount("")
}

// setAccounts fills the multi-selection dialog through the clipboard.
func (e *Engine) setAccounts(accounts []int) error {
	btn, err := e.sess.MainWindow().Button(buttonAccountSelection)
	if err != nil {
		return fmt.Errorf("account selection button: %w", err)
	}
	if err := btn.Press(); err != nil {
		return fmt.Errorf("open account selection: %w", err)
	}

	// Clear any previous values before pasting the new list.
	if err := e.drv.PressKey("ShiftF4"); err != nil {
		return err
	}

	lines := make([]string, len(accounts))
	for i, a := range accounts {
		lines[i] = strconv.Itoa(a)
	}
	if err := e.sess.CopyToClipboard(strings.Join(lines, "\r\n")); err != nil {
		return fmt.Errorf("copy accounts to clipboard: %w", err)
	}

	if err := e.drv.PressKey("ShiftF12"); err != nil {
		return err
	}
	if err := e.sess.CopyToClipboard(""); err != nil {
		return fmt.Errorf("clear clipboard: %w", err)
	}

	return e.drv.PressKey("F8")
}

// toggleWorklist switches the "use worklist" screen mode on or off. The
// mode is detected by the presence of the worklist field.
func (e *Engine) toggleWorklist(activate bool) error {
	used := e.sess.MainWindow().HasField(fieldWorklist)
	if activate == used {
		return nil
	}
	return e.drv.PressKey("CtrlF1")
}

// setCompanyCode writes into whichever company-code field the current
// screen mode exposes.
func (e *Engine) setCompanyCode(value string) error {
	w := e.sess.MainWindow()
	switch {
	case w.HasField(fieldCompanyCode):
		return e.setMainField(fieldCompanyCode, value)
	case w.HasField(fieldWorklistCompany):
		return e.setMainField(fieldWorklistCompany, value)
	default:
		return nil
	}
}

func (e *Engine) selectStatus(status Status) error {
	var name string
	switch status {
	case StatusOpen:
		name = radioOpenItems
	case StatusCleared:
		name = radioClearedItems
	case StatusAll:
		name = radioAllItems
	default:
		return fmt.Errorf("unrecognized item status: %q", status)
	}

	if err := e.sess.MainWindow().SelectRadio(name, 0); err != nil {
		return fmt.Errorf("select status %s: %w", status, err)
	}
	return nil
}

// setPostingDates enters the date range into the fields belonging to the
// chosen status mode.
func (e *Engine) setPostingDates(status Status, from, to time.Time) error {
	format := func(t time.Time) string {
		if t.IsZero() {
			return ""
		}
		return t.Format(hostDateFormat)
	}

	switch status {
	case StatusAll:
		if err := e.setMainField(fieldPostingDateLow, format(from)); err != nil {
			return err
		}
		return e.setMainField(fieldPostingDateHigh, format(to))

	case StatusOpen:
		return e.setMainField(fieldOpenAtKeyDate, format(from))

	case StatusCleared:
		if err := e.setMainField(fieldClearingDateLow, format(from)); err != nil {
			return err
		}
		return e.setMainField(fieldClearingDateHigh, format(to))
	}

	return nil
}

// loadItems confirms the selection mask and classifies the host's
// response. It returns false without error for the valid "no items"
// outcome.
func (e *Engine) loadItems() (bool, error) {
	if err := e.drv.PressKey("F8"); err != nil {
		return false, &ItemLoadingError{Message: err.Error()}
	}

	// A crash or dropped connection surfaces as an unreadable status bar
	// right after loading.
	msg, err := e.sess.StatusBarText()
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrConnectionLost, err)
	}

	if strings.Contains(msg, "No items selected") {
		return false, nil
	}
	if !strings.Contains(msg, "items displayed") {
		return false, &ItemLoadingError{Message: msg}
	}

	return true, nil
}

// filterByText applies a filter on the item table's Text field restricted
// to the given values, pasted through the clipboard.
func (e *Engine) filterByText(values []string) error {
	// Open the filter dialog with technical names enabled.
	if err := e.drv.PressKey("CtrlShiftF2"); err != nil {
		return err
	}
	if err := e.drv.PressKey("CtrlShiftF6"); err != nil {
		return err
	}

	dlg, err := e.sess.DialogWindow(1)
	if err != nil {
		return fmt.Errorf("filter dialog: %w", err)
	}

	filters, err := dlg.Grid(1)
	if err != nil {
		return fmt.Errorf("filter field list: %w", err)
	}

	for row := 0; row < filters.RowCount(); row++ {
		if filters.CellValue(row, columnFieldName) != columnText {
			continue
		}
		if err := filters.SelectRow(row); err != nil {
			return fmt.Errorf("select filter field: %w", err)
		}
		btn, err := dlg.Button(buttonAddFilter)
		if err != nil {
			return fmt.Errorf("add filter button: %w", err)
		}
		if err := btn.Press(); err != nil {
			return fmt.Errorf("add filter criterion: %w", err)
		}
		break
	}

	btn, err := dlg.Button(buttonDefineFilter)
	if err != nil {
		return fmt.Errorf("define filter button: %w", err)
	}
	if err := btn.Press(); err != nil {
		return fmt.Errorf("define filter values: %w", err)
	}

	valuesDlg, err := e.sess.DialogWindow(2)
	if err != nil {
		return fmt.Errorf("filter values dialog: %w", err)
	}
	valuesBtn, err := valuesDlg.Button(buttonFilterValues)
	if err != nil {
		return fmt.Errorf("filter values button: %w", err)
	}
	if err := valuesBtn.Press(); err != nil {
		return fmt.Errorf("open filter value list: %w", err)
	}

	if err := e.sess.CopyToClipboard(strings.Join(values, "\r\n")); err != nil {
		return fmt.Errorf("copy filter values to clipboard: %w", err)
	}
	if err := e.drv.PressKey("ShiftF12"); err != nil {
		return err
	}
	if err := e.sess.CopyToClipboard(""); err != nil {
		return fmt.Errorf("clear clipboard: %w", err)
	}
	if err := e.drv.PressKey("F8"); err != nil {
		return err
	}

	// Confirm the filter.
	return e.drv.PressKey("Enter")
}
