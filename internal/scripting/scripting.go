// =============================================================================
// AR Export - Automation Host Scripting Interface
// =============================================================================
//
// This package defines the narrow surface of the ERP client's scripting
// engine that the screen drivers are allowed to touch. The real client
// exposes a COM-style object model; everything the drivers need from it is
// captured here as small interfaces so the engines can be exercised against
// a scripted fake (see scriptingtest).
//
// The session is a single shared mutable resource. Exactly one logical
// operation may be in flight against a session at any time, and every call
// blocks until the host responds.
//
// =============================================================================

package scripting

import (
	"errors"
	"fmt"
	"sync"
)

// Session represents one logical connection to the automation host.
// It is owned exclusively by whichever engine last bound it via Start.
type Session interface {
	// MainWindow returns the primary transaction window (wnd[0]).
	MainWindow() Window

	// ActiveWindow returns the window that currently has focus. When a
	// modal dialog is open, this is the dialog, not the main window.
	ActiveWindow() Window

	// DialogWindow returns the nth stacked dialog window (1 = wnd[1],
	// 2 = wnd[2]). An error is returned when no such dialog is open.
	DialogWindow(n int) (Window, error)

	// StatusBarText reads the status bar of the main window. A read
	// failure here is the only reliable signal that the host crashed or
	// the connection dropped after a long-running screen operation.
	StatusBarText() (string, error)

	// StartTransaction opens the transaction with the given code.
	StartTransaction(code string) error

	// EndTransaction closes the currently running transaction.
	EndTransaction() error

	// CopyToClipboard places text on the host-side clipboard. Bulk
	// selection controls are filled by pasting from the clipboard.
	CopyToClipboard(text string) error
}

// Window is a top-level window of the client: the main transaction window
// or a modal dialog.
type Window interface {
	// SendVKey sends one simulated virtual-key code to the window.
	SendVKey(code int) error

	// Title returns the window title text.
	Title() string

	// Modal reports whether this window is a modal dialog.
	Modal() bool

	// Field returns the text field with the given technical name.
	Field(name string) (Field, error)

	// HasField reports whether a field with the given technical name is
	// present on the current screen. Some fields appear and disappear as
	// screen modes are toggled.
	HasField(name string) bool

	// Button returns the push button with the given technical name.
	Button(name string) (Button, error)

	// SelectRadio selects the idx-th radio button sharing the given
	// technical name.
	SelectRadio(name string, idx int) error

	// ChildButtons returns every push button reachable among the
	// window's child controls, in traversal order. Used to locate the
	// Yes/No buttons of confirmation dialogs.
	ChildButtons() []Button

	// Grid returns the idx-th grid control hosted by the window. The
	// index mirrors the position of the grid shell in the window's
	// control hierarchy.
	Grid(idx int) (Grid, error)

	// Toolbar returns the idx-th toolbar control hosted by the window.
	Toolbar(idx int) (Toolbar, error)

	// Tree returns the navigation tree control with the given id path.
	Tree(id string) (Tree, error)
}

// Field is a single-line text input.
type Field interface {
	Text() string
	SetText(value string) error
}

// Button is a push button.
type Button interface {
	Caption() string
	Press() error
}

// Grid is a data grid control (item tables, search masks, result lists).
type Grid interface {
	// RowCount returns the number of rows currently in the grid.
	RowCount() int

	// CellValue reads the cell at the given row for the column with the
	// given technical name.
	CellValue(row int, column string) string

	// ModifyCell writes a value into an editable cell.
	ModifyCell(row int, column, value string) error

	// SelectRow marks the given row as the grid selection.
	SelectRow(row int) error

	// SetCurrentRow moves the grid cursor to the given row.
	SetCurrentRow(row int) error

	// SetCurrentCell moves the grid cursor to a specific cell.
	SetCurrentCell(row int, column string) error

	// ClickCurrentCell simulates a click on the cell under the cursor.
	ClickCurrentCell() error

	// PressButton presses the button embedded in the given cell.
	PressButton(row int, column string) error

	// PressToolbarContextButton opens the context menu of a grid
	// toolbar button.
	PressToolbarContextButton(id string) error

	// SelectContextMenuItem activates an entry of the open context menu.
	SelectContextMenuItem(id string) error
}

// Toolbar is a standalone toolbar control.
type Toolbar interface {
	PressButton(id string) error
}

// Tree is a hierarchical navigation tree. Nodes are addressed by their
// node key as reported by the host.
type Tree interface {
	// RootNodes returns the keys of the top-level nodes.
	RootNodes() []string

	// ChildNodes returns the keys of the direct children of a node.
	ChildNodes(key string) []string

	// IsFolder reports whether the node is a folder node.
	IsFolder(key string) bool

	ExpandNode(key string) error
	CollapseNode(key string) error

	// DoubleClickNode opens the pane behind the node.
	DoubleClickNode(key string) error
}

// =============================================================================
// CONNECTOR REGISTRY
// =============================================================================

// Connector creates sessions against a concrete automation backend. The
// platform-specific backend registers itself at startup; the engines never
// depend on it directly.
type Connector interface {
	Connect(system string) (Session, error)
}

// ErrNoConnector is returned by Connect when no backend has been
// registered, e.g. when running on a platform without the client installed.
var ErrNoConnector = errors.New("no automation backend registered")

var (
	connectorMu sync.RWMutex
	connector   Connector
)

// RegisterConnector installs the process-wide automation backend.
func RegisterConnector(c Connector) {
	connectorMu.Lock()
	defer connectorMu.Unlock()
	connector = c
}

// Connect opens a session against the named system using the registered
// backend.
func Connect(system string) (Session, error) {
	connectorMu.RLock()
	c := connector
	connectorMu.RUnlock()

	if c == nil {
		return nil, fmt.Errorf("connect to %q: %w", system, ErrNoConnector)
	}

	return c.Connect(system)
}
