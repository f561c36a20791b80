// =============================================================================
// AR Export - Scripted Fake Automation Host
// =============================================================================
//
// A deterministic in-memory implementation of the scripting interfaces.
// Tests preload windows, fields, grids, and trees, script host-side
// behavior through the OnKey / OnPress hooks, and afterwards inspect the
// recorded interactions (keys sent, values written, rows selected).
//
// =============================================================================

package scriptingtest

import (
	"fmt"

	"github.com/pgaborik/arexport/internal/scripting"
)

// Session is a fake scripting.Session.
type Session struct {
	Main        *Window
	DialogStack []*Window

	Status    string
	StatusErr error

	Started   []string
	Ended     int
	Clipboard []string
}

// NewSession returns a session with an empty, non-modal main window.
func NewSession() *Session {
	return &Session{Main: NewWindow("")}
}

func (s *Session) MainWindow() scripting.Window { return s.Main }

func (s *Session) ActiveWindow() scripting.Window {
	if n := len(s.DialogStack); n > 0 {
		return s.DialogStack[n-1]
	}
	return s.Main
}

func (s *Session) DialogWindow(n int) (scripting.Window, error) {
	if n < 1 || n > len(s.DialogStack) {
		return nil, fmt.Errorf("no dialog window wnd[%d] open", n)
	}
	return s.DialogStack[n-1], nil
}

func (s *Session) StatusBarText() (string, error) {
	if s.StatusErr != nil {
		return "", s.StatusErr
	}
	return s.Status, nil
}

func (s *Session) StartTransaction(code string) error {
	s.Started = append(s.Started, code)
	return nil
}

func (s *Session) EndTransaction() error {
	s.Ended++
	return nil
}

func (s *Session) CopyToClipboard(text string) error {
	s.Clipboard = append(s.Clipboard, text)
	return nil
}

// PushDialog opens a modal dialog on top of the window stack.
func (s *Session) PushDialog(w *Window) {
	w.ModalFlag = true
	s.DialogStack = append(s.DialogStack, w)
}

// PopDialog closes the topmost dialog, if any.
func (s *Session) PopDialog() {
	if n := len(s.DialogStack); n > 0 {
		s.DialogStack = s.DialogStack[:n-1]
	}
}

// Interactions reports how many screen interactions the session has seen:
// key presses on the main window, field writes, and clipboard copies.
// Validation tests assert this stays at zero.
func (s *Session) Interactions() int {
	n := len(s.Main.Keys) + len(s.Clipboard)
	for _, f := range s.Main.Fields {
		n += len(f.Writes)
	}
	n += len(s.Main.RadioPicks)
	return n
}

// =============================================================================
// WINDOW
// =============================================================================

// RadioPick records one radio button selection.
type RadioPick struct {
	Name string
	Idx  int
}

// Window is a fake scripting.Window.
type Window struct {
	TitleText string
	ModalFlag bool

	Fields     map[string]*Field
	Buttons    map[string]*Button
	DialogBtns []*Button
	Grids      map[int]*Grid
	Toolbars   map[int]*Toolbar
	Trees      map[string]*Tree

	Keys       []int
	RadioPicks []RadioPick

	// OnKey, when set, runs after each SendVKey and lets tests script
	// host-side reactions (closing dialogs, producing export files).
	OnKey func(code int)
}

// NewWindow returns an empty window with the given title.
func NewWindow(title string) *Window {
	return &Window{
		TitleText: title,
		Fields:    map[string]*Field{},
		Buttons:   map[string]*Button{},
		Grids:     map[int]*Grid{},
		Toolbars:  map[int]*Toolbar{},
		Trees:     map[string]*Tree{},
	}
}

func (w *Window) SendVKey(code int) error {
	w.Keys = append(w.Keys, code)
	if w.OnKey != nil {
		w.OnKey(code)
	}
	return nil
}

func (w *Window) Title() string { return w.TitleText }
func (w *Window) Modal() bool   { return w.ModalFlag }

func (w *Window) Field(name string) (scripting.Field, error) {
	f, ok := w.Fields[name]
	if !ok {
		return nil, fmt.Errorf("field %q not found", name)
	}
	return f, nil
}

func (w *Window) HasField(name string) bool {
	_, ok := w.Fields[name]
	return ok
}

func (w *Window) Button(name string) (scripting.Button, error) {
	b, ok := w.Buttons[name]
	if !ok {
		return nil, fmt.Errorf("button %q not found", name)
	}
	return b, nil
}

func (w *Window) SelectRadio(name string, idx int) error {
	w.RadioPicks = append(w.RadioPicks, RadioPick{Name: name, Idx: idx})
	return nil
}

func (w *Window) ChildButtons() []scripting.Button {
	out := make([]scripting.Button, len(w.DialogBtns))
	for i, b := range w.DialogBtns {
		out[i] = b
	}
	return out
}

func (w *Window) Grid(idx int) (scripting.Grid, error) {
	g, ok := w.Grids[idx]
	if !ok {
		return nil, fmt.Errorf("grid %d not found", idx)
	}
	return g, nil
}

func (w *Window) Toolbar(idx int) (scripting.Toolbar, error) {
	t, ok := w.Toolbars[idx]
	if !ok {
		return nil, fmt.Errorf("toolbar %d not found", idx)
	}
	return t, nil
}

func (w *Window) Tree(id string) (scripting.Tree, error) {
	t, ok := w.Trees[id]
	if !ok {
		return nil, fmt.Errorf("tree %q not found", id)
	}
	return t, nil
}

// AddField installs a field with an initial value and returns it.
func (w *Window) AddField(name, value string) *Field {
	f := &Field{Value: value}
	w.Fields[name] = f
	return f
}

// RemoveField drops a field from the window, simulating a screen-mode
// change that hides it.
func (w *Window) RemoveField(name string) {
	delete(w.Fields, name)
}

// AddButton installs a named push button and returns it.
func (w *Window) AddButton(name, caption string) *Button {
	b := &Button{CaptionText: caption}
	w.Buttons[name] = b
	return b
}

// =============================================================================
// CONTROLS
// =============================================================================

// Field is a fake scripting.Field that records every write.
type Field struct {
	Value  string
	Writes []string
}

func (f *Field) Text() string { return f.Value }

func (f *Field) SetText(value string) error {
	f.Value = value
	f.Writes = append(f.Writes, value)
	return nil
}

// Button is a fake scripting.Button.
type Button struct {
	CaptionText string
	Presses     int
	OnPress     func()
}

func (b *Button) Caption() string { return b.CaptionText }

func (b *Button) Press() error {
	b.Presses++
	if b.OnPress != nil {
		b.OnPress()
	}
	return nil
}

// CellRef identifies one grid cell.
type CellRef struct {
	Row    int
	Column string
}

// CellWrite records one ModifyCell call.
type CellWrite struct {
	Row    int
	Column string
	Value  string
}

// Grid is a fake scripting.Grid backed by a slice of row maps.
type Grid struct {
	Cells []map[string]string

	Writes        []CellWrite
	SelectedRows  []int
	CurrentRows   []int
	CurrentCells  []CellRef
	CellClicks    int
	ButtonPresses []CellRef
	CtxButtons    []string
	MenuItems     []string

	OnMenuItem func(id string)
	OnClick    func()
}

func (g *Grid) RowCount() int { return len(g.Cells) }

func (g *Grid) CellValue(row int, column string) string {
	if row < 0 || row >= len(g.Cells) {
		return ""
	}
	return g.Cells[row][column]
}

func (g *Grid) ModifyCell(row int, column, value string) error {
	g.Writes = append(g.Writes, CellWrite{Row: row, Column: column, Value: value})
	return nil
}

func (g *Grid) SelectRow(row int) error {
	g.SelectedRows = append(g.SelectedRows, row)
	return nil
}

func (g *Grid) SetCurrentRow(row int) error {
	g.CurrentRows = append(g.CurrentRows, row)
	return nil
}

func (g *Grid) SetCurrentCell(row int, column string) error {
	g.CurrentCells = append(g.CurrentCells, CellRef{Row: row, Column: column})
	return nil
}

func (g *Grid) ClickCurrentCell() error {
	g.CellClicks++
	if g.OnClick != nil {
		g.OnClick()
	}
	return nil
}

func (g *Grid) PressButton(row int, column string) error {
	g.ButtonPresses = append(g.ButtonPresses, CellRef{Row: row, Column: column})
	return nil
}

func (g *Grid) PressToolbarContextButton(id string) error {
	g.CtxButtons = append(g.CtxButtons, id)
	return nil
}

func (g *Grid) SelectContextMenuItem(id string) error {
	g.MenuItems = append(g.MenuItems, id)
	if g.OnMenuItem != nil {
		g.OnMenuItem(id)
	}
	return nil
}

// Toolbar is a fake scripting.Toolbar.
type Toolbar struct {
	Presses []string
	OnPress func(id string)
}

func (t *Toolbar) PressButton(id string) error {
	t.Presses = append(t.Presses, id)
	if t.OnPress != nil {
		t.OnPress(id)
	}
	return nil
}

// Tree is a fake scripting.Tree.
type Tree struct {
	Roots    map[int]string
	Children map[string][]string
	Folders  map[string]bool

	Expanded      []string
	Collapsed     []string
	DoubleClicked []string
}

// NewTree builds a tree from ordered root keys and a child map.
func NewTree(roots []string, children map[string][]string, folders map[string]bool) *Tree {
	rm := make(map[int]string, len(roots))
	for i, r := range roots {
		rm[i] = r
	}
	if children == nil {
		children = map[string][]string{}
	}
	if folders == nil {
		folders = map[string]bool{}
	}
	return &Tree{Roots: rm, Children: children, Folders: folders}
}

func (t *Tree) RootNodes() []string {
	out := make([]string, len(t.Roots))
	for i := range t.Roots {
		out[i] = t.Roots[i]
	}
	return out
}

func (t *Tree) ChildNodes(key string) []string { return t.Children[key] }
func (t *Tree) IsFolder(key string) bool       { return t.Folders[key] }

func (t *Tree) ExpandNode(key string) error {
	t.Expanded = append(t.Expanded, key)
	return nil
}

func (t *Tree) CollapseNode(key string) error {
	t.Collapsed = append(t.Collapsed, key)
	return nil
}

func (t *Tree) DoubleClickNode(key string) error {
	t.DoubleClicked = append(t.DoubleClicked, key)
	return nil
}
