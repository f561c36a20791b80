// =============================================================================
// AR Export - Dispute Case Engine
// =============================================================================
//
// The engine owns one session bound to the dispute case-search transaction.
// The screen is reached through the client's navigation tree: the search
// pane hides behind a tree node that has to be located by walking the tree,
// expanding folder nodes on the way. Once open, the search mask and result
// list are plain grid controls.
//
// Operations:
//
//   - SearchDisputes:     run a case search for one case or a bulk list
//   - ExportDisputesData: export the current result list as raw text
//
// Lifecycle mirrors the receivables engine: Uninitialized -> Started ->
// Closed, restart on double Start, idempotent Close.
//
// =============================================================================

package disputes

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/pgaborik/arexport/internal/export"
	"github.com/pgaborik/arexport/internal/screen"
	"github.com/pgaborik/arexport/internal/scripting"
)

// transactionCode opens the dispute case management screen.
const transactionCode = "UDM_DISPUTE"

// navTreeID is the control path of the navigation tree on the entry screen.
const navTreeID = "shellcont/shell/shellcont[0]/shell/shellcont[1]/shell/shellcont[1]/shell"

// searchNodeKey is the tree node hiding the case search pane.
const searchNodeKey = "4"

// Control positions on the search pane.
const (
	searchMaskGrid  = 4
	resultGrid      = 6
	queryToolbar    = 5
	buttonQuery     = "DO_QUERY"
	columnValue     = "VALUE1"
	columnSelection = "SEL_ICON1"
	rowCaseID       = 0
	rowHitLimit     = 23
)

// Result-list toolbar context menus.
const (
	menuLayout     = "&MB_VARIANT"
	menuLayoutLoad = "&LOAD"
	menuExport     = "&MB_EXPORT"
	menuExportFile = "&PC"

	columnLayoutName = "VARIANT"
	columnLayoutText = "TEXT"
)

// caseDigits is the fixed width of a numeric case identifier.
const caseDigits = 7

// maxCases bounds one bulk search.
const maxCases = 5000

// =============================================================================
// ERRORS
// =============================================================================

// ErrUninitialized is returned when an operation is invoked before Start.
var ErrUninitialized = errors.New("engine not started: call Start first")

// ErrSearchPaneNotFound is returned when the navigation tree holds no
// search node.
var ErrSearchPaneNotFound = errors.New("case search pane not found in the navigation tree")

// CasesNotFoundError is returned when a bulk search finds fewer cases than
// requested.
type CasesNotFoundError struct {
	Missing int
}

func (e *CasesNotFoundError) Error() string {
	return fmt.Sprintf("%d of the searched cases were not found", e.Missing)
}

// LayoutNotFoundError is returned when the requested display layout is not
// offered by the layout selection dialog.
type LayoutNotFoundError struct {
	Layout string
}

func (e *LayoutNotFoundError) Error() string {
	return fmt.Sprintf("could not find the layout variant: %q", e.Layout)
}

// =============================================================================
// QUERY TYPES
// =============================================================================

type queryKind int

const (
	queryNone queryKind = iota
	querySingle
	queryList
)

// CaseQuery identifies the dispute cases to search for.
type CaseQuery struct {
	kind  queryKind
	one   string
	cases []string
}

// SingleCase searches for one case identifier.
func SingleCase(id string) CaseQuery {
	return CaseQuery{kind: querySingle, one: id}
}

// CaseList searches for an explicit list of case identifiers.
func CaseList(ids []string) CaseQuery {
	cp := make([]string, len(ids))
	copy(cp, ids)
	return CaseQuery{kind: queryList, cases: cp}
}

func (q CaseQuery) validate() error {
	switch q.kind {
	case querySingle:
		return validateCaseID(q.one)

	case queryList:
		if len(q.cases) == 0 {
			return fmt.Errorf("case list is empty")
		}
		if len(q.cases) > maxCases {
			return fmt.Errorf("case list holds %d entries, at most %d are allowed", len(q.cases), maxCases)
		}
		for _, id := range q.cases {
			if err := validateCaseID(id); err != nil {
				return err
			}
		}
		return nil

	default:
		return fmt.Errorf("no case identifiers provided")
	}
}

// validateCaseID accepts a numeric case identifier of exactly seven
// digits, or any non-empty alternate key (reference numbers are searchable
// too).
func validateCaseID(id string) error {
	if id == "" {
		return fmt.Errorf("case identifier is empty")
	}

	numeric := true
	for _, r := range id {
		if r < '0' || r > '9' {
			numeric = false
			break
		}
	}
	if numeric && len(id) != caseDigits {
		return fmt.Errorf("invalid case identifier: %q (expected %d digits)", id, caseDigits)
	}
	return nil
}

// SearchResult references the result list of a completed search. Empty
// marks the valid outcome that no case matched; it is not an error.
type SearchResult struct {
	Found int
	Empty bool

	grid scripting.Grid
}

// =============================================================================
// ENGINE
// =============================================================================

type engineState int

const (
	stateUninitialized engineState = iota
	stateStarted
)

// Engine drives the dispute case-search transaction over one session.
type Engine struct {
	log   zerolog.Logger
	sess  scripting.Session
	drv   *screen.Driver
	state engineState

	searchMask scripting.Grid
}

// New returns an engine in the Uninitialized state.
func New(log zerolog.Logger) *Engine {
	return &Engine{log: log.With().Str("component", "disputes").Logger()}
}

// Start binds the engine to the session, opens the case management
// transaction, and navigates to the search pane. A started engine is
// restarted.
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

	if err := e.openSearchPane(); err != nil {
		e.reset()
		return err
	}

	mask, err := sess.MainWindow().Grid(searchMaskGrid)
	if err != nil {
		e.reset()
		return fmt.Errorf("search mask: %w", err)
	}
	e.searchMask = mask

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
	e.searchMask = nil
	e.state = stateUninitialized
}

// openSearchPane walks the navigation tree depth-first until it hits the
// search node and opens the pane behind it. Folder nodes are collapsed and
// re-expanded so their children materialize in the tree control.
func (e *Engine) openSearchPane() error {
	tree, err := e.sess.MainWindow().Tree(navTreeID)
	if err != nil {
		return fmt.Errorf("navigation tree: %w", err)
	}

	stack := pushReversed(nil, tree.RootNodes())
	visited := make(map[string]bool, len(stack))

	for len(stack) > 0 {
		key := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if visited[key] {
			continue
		}
		visited[key] = true

		if strings.TrimSpace(key) == searchNodeKey {
			if err := tree.DoubleClickNode(key); err != nil {
				return fmt.Errorf("open search pane: %w", err)
			}
			return nil
		}

		if !tree.IsFolder(key) {
			continue
		}

		if err := tree.CollapseNode(key); err != nil {
			return fmt.Errorf("collapse node %q: %w", key, err)
		}
		if err := tree.ExpandNode(key); err != nil {
			return fmt.Errorf("expand node %q: %w", key, err)
		}
		stack = pushReversed(stack, tree.ChildNodes(key))
	}

	return ErrSearchPaneNotFound
}

// pushReversed appends nodes in reverse so the stack pops a node's first
// child before its siblings, matching the tree's on-screen order.
func pushReversed(stack, nodes []string) []string {
	for i := len(nodes) - 1; i >= 0; i-- {
		stack = append(stack, nodes[i])
	}
	return stack
}

// =============================================================================
// SEARCH
// =============================================================================

// SearchDisputes runs a case search for the given query. The zero-hit
// outcome is reported through SearchResult.Empty, not as an error. A bulk
// search that finds only part of its list returns CasesNotFoundError.
func (e *Engine) SearchDisputes(query CaseQuery) (SearchResult, error) {
	var zero SearchResult

	if e.state != stateStarted {
		return zero, ErrUninitialized
	}
	if err := query.validate(); err != nil {
		return zero, err
	}

	switch query.kind {
	case querySingle:
		// Single lookups keep the hit limit at the absolute ceiling.
		if err := e.searchMask.ModifyCell(rowHitLimit, columnValue, strconv.Itoa(maxCases)); err != nil {
			return zero, fmt.Errorf("set hit limit: %w", err)
		}
		if err := e.searchMask.ModifyCell(rowCaseID, columnValue, query.one); err != nil {
			return zero, fmt.Errorf("enter case identifier: %w", err)
		}

	case queryList:
		if err := e.enterCaseList(query.cases); err != nil {
			return zero, err
		}
	}

	found, err := e.executeQuery()
	if err != nil {
		return zero, err
	}

	if found == 0 {
		e.log.Info().Msg("no cases found using the search criteria")
		return SearchResult{Empty: true}, nil
	}

	grid, err := e.sess.MainWindow().Grid(resultGrid)
	if err != nil {
		return zero, fmt.Errorf("result list: %w", err)
	}

	if query.kind == queryList && found < len(query.cases) {
		return zero, &CasesNotFoundError{Missing: len(query.cases) - found}
	}

	return SearchResult{Found: found, grid: grid}, nil
}

// enterCaseList fills the case identifier multi-selection through the
// clipboard. The hit limit is raised to the list length so a full match is
// never cut off.
func (e *Engine) enterCaseList(cases []string) error {
	if err := e.searchMask.ModifyCell(rowHitLimit, columnValue, strconv.Itoa(len(cases))); err != nil {
		return fmt.Errorf("set hit limit: %w", err)
	}

	if err := e.searchMask.PressButton(rowCaseID, columnSelection); err != nil {
		return fmt.Errorf("open case multi-selection: %w", err)
	}

	// Clear any previous values before pasting the new list.
	if err := e.drv.PressKey("ShiftF4"); err != nil {
		return err
	}
	if err := e.sess.CopyToClipboard(strings.Join(cases, "\r\n")); err != nil {
		return fmt.Errorf("copy cases to clipboard: %w", err)
	}
	if err := e.drv.PressKey("ShiftF12"); err != nil {
		return err
	}
	if err := e.sess.CopyToClipboard(""); err != nil {
		return fmt.Errorf("clear clipboard: %w", err)
	}

	return e.drv.PressKey("F8")
}

// executeQuery presses the search button and reads the hit count from the
// status bar message ("512 cases found").
func (e *Engine) executeQuery() (int, error) {
	tb, err := e.sess.MainWindow().Toolbar(queryToolbar)
	if err != nil {
		return 0, fmt.Errorf("query toolbar: %w", err)
	}
	if err := tb.PressButton(buttonQuery); err != nil {
		return 0, fmt.Errorf("execute query: %w", err)
	}

	msg, err := e.sess.StatusBarText()
	if err != nil {
		return 0, fmt.Errorf("read query result count: %w", err)
	}

	fields := strings.Fields(msg)
	if len(fields) == 0 {
		return 0, fmt.Errorf("unrecognized query outcome: %q", msg)
	}

	// The count may carry thousands separators ("1.024 cases found").
	count, err := strconv.Atoi(strings.ReplaceAll(fields[0], ".", ""))
	if err != nil {
		return 0, fmt.Errorf("unrecognized query outcome: %q", msg)
	}

	return count, nil
}

// =============================================================================
// EXPORT
// =============================================================================

// ExportDisputesData exports the result list of a completed search as raw
// text. A non-empty layout is applied to the list before exporting.
func (e *Engine) ExportDisputesData(res SearchResult, file, layout string) (string, error) {
	if e.state != stateStarted {
		return "", ErrUninitialized
	}
	if res.Empty || res.grid == nil {
		return "", fmt.Errorf("search result holds no cases to export")
	}

	if layout != "" {
		if err := e.applyLayout(res.grid, layout); err != nil {
			return "", err
		}
	}

	return export.AndRead(e.log, file, func() error {
		if err := res.grid.PressToolbarContextButton(menuExport); err != nil {
			return fmt.Errorf("open export menu: %w", err)
		}
		if err := res.grid.SelectContextMenuItem(menuExportFile); err != nil {
			return fmt.Errorf("choose local file export: %w", err)
		}
		return e.drv.ExportToFile(file, 0)
	})
}

// applyLayout loads a named display layout through the result list's
// layout selection dialog.
func (e *Engine) applyLayout(grid scripting.Grid, layout string) error {
	if err := grid.PressToolbarContextButton(menuLayout); err != nil {
		return fmt.Errorf("open layout menu: %w", err)
	}
	if err := grid.SelectContextMenuItem(menuLayoutLoad); err != nil {
		return fmt.Errorf("open layout selection: %w", err)
	}

	dlg, err := e.sess.DialogWindow(1)
	if err != nil {
		return fmt.Errorf("layout selection dialog: %w", err)
	}
	variants, err := dlg.Grid(0)
	if err != nil {
		return fmt.Errorf("layout list: %w", err)
	}

	for row := 0; row < variants.RowCount(); row++ {
		if variants.CellValue(row, columnLayoutName) != layout {
			continue
		}
		if err := variants.SetCurrentCell(row, columnLayoutText); err != nil {
			return fmt.Errorf("select layout: %w", err)
		}
		if err := variants.ClickCurrentCell(); err != nil {
			return fmt.Errorf("apply layout: %w", err)
		}
		return nil
	}

	// Leave the dialog before failing.
	if err := e.drv.PressKey("F12"); err != nil {
		return err
	}
	return &LayoutNotFoundError{Layout: layout}
}
