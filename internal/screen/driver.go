// =============================================================================
// AR Export - Shared Screen Driver Primitives
// =============================================================================
//
// The screen driver wraps one automation-host session with the primitives
// shared by both domain engines:
//   - virtual-key press simulation
//   - modal-dialog detection and bounded-retry dismissal
//   - the generic export-to-file dialog sequence
//
// Dialog resolution is modeled as a small explicit state machine
// (awaiting -> resolved/failed) that is decoupled from the key-press
// side effects, so the policy can be tested against a fake host.
//
// =============================================================================

package screen

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"

	"github.com/pgaborik/arexport/internal/scripting"
)

// encodingUTF8 is the host-side code page identifier for UTF-8 export.
const encodingUTF8 = "4120"

// defaultDialogAttempts bounds the confirm/decline retry loop. The host may
// stack more than one informational popup per operation, but never this many.
const defaultDialogAttempts = 3

// recoverableDialogTitles is the closed set of modal dialog titles the
// driver is allowed to dismiss on its own. Anything else is a hard failure.
var recoverableDialogTitles = map[string]bool{
	"Information":                      true,
	"Status check error":               true,
	"Document lines: Display messages": true,
}

// =============================================================================
// ERRORS
// =============================================================================

// UnknownKeyError is returned when a key name has no virtual-key mapping.
type UnknownKeyError struct {
	Name string
}

func (e *UnknownKeyError) Error() string {
	return fmt.Sprintf("unknown virtual key: %q", e.Name)
}

// DialogUnresolvedError is returned when a modal dialog survives the
// bounded dismissal loop.
type DialogUnresolvedError struct {
	Title string
}

func (e *DialogUnresolvedError) Error() string {
	return fmt.Sprintf("could not close the dialog window: %q", e.Title)
}

// InvalidFileTypeError is returned when an export target does not carry
// the .txt extension the host's plain-text export requires.
type InvalidFileTypeError struct {
	Ext string
}

func (e *InvalidFileTypeError) Error() string {
	return fmt.Sprintf("invalid export file type: %q", e.Ext)
}

// ErrFolderNotFound is returned when the export target's parent folder
// does not exist.
var ErrFolderNotFound = errors.New("export folder not found")

// ErrDataExport is returned when the host reported success but the export
// file never appeared on disk.
var ErrDataExport = errors.New("data export failed")

// =============================================================================
// DRIVER
// =============================================================================

// Driver exposes the shared screen primitives over one session.
type Driver struct {
	sess scripting.Session
	log  zerolog.Logger
}

// New binds a driver to a session.
func New(sess scripting.Session, log zerolog.Logger) *Driver {
	return &Driver{sess: sess, log: log}
}

// PressKey sends one simulated virtual-key code to the main window.
func (d *Driver) PressKey(name string) error {
	code, ok := virtualKeys[name]
	if !ok {
		return &UnknownKeyError{Name: name}
	}
	if err := d.sess.MainWindow().SendVKey(code); err != nil {
		return fmt.Errorf("press %s: %w", name, err)
	}
	return nil
}

// IsModalDialogActive reports whether the foreground window is a modal
// dialog.
func (d *Driver) IsModalDialogActive() bool {
	return d.sess.ActiveWindow().Modal()
}

// =============================================================================
// DIALOG RESOLUTION
// =============================================================================

type dialogState int

const (
	dialogAwaiting dialogState = iota
	dialogResolved
	dialogFailed
)

type dialogAction int

const (
	dialogPress dialogAction = iota
	dialogFinish
	dialogFail
)

// dialogResolver decides, from window title and modality alone, whether to
// press the dismissal key again, give up, or proceed to the confirmation
// button. It holds no reference to the screen.
type dialogResolver struct {
	maxAttempts int
	attempts    int
	state       dialogState
}

func (r *dialogResolver) next(title string, modal bool) dialogAction {
	if r.state != dialogAwaiting {
		// Terminal states never produce further key presses.
		if r.state == dialogFailed {
			return dialogFail
		}
		return dialogFinish
	}

	if recoverableDialogTitles[title] && r.attempts < r.maxAttempts {
		r.attempts++
		return dialogPress
	}

	if modal {
		r.state = dialogFailed
		return dialogFail
	}

	r.state = dialogResolved
	return dialogFinish
}

// ResolveDialog dismisses the active popup dialog, confirming or declining
// it, with the default retry budget.
func (d *Driver) ResolveDialog(confirm bool) error {
	return d.ResolveDialogN(confirm, defaultDialogAttempts)
}

// ResolveDialogN dismisses the active popup dialog with an explicit retry
// budget. While the active window's title belongs to the known recoverable
// set and attempts remain, Enter (confirm) or F12 (decline) is pressed.
// A modal window surviving the loop is a DialogUnresolvedError. Afterwards
// the Yes/No button matching confirm is pressed if the dialog offers one.
func (d *Driver) ResolveDialogN(confirm bool, maxAttempts int) error {
	key := "F12"
	if confirm {
		key = "Enter"
	}

	r := dialogResolver{maxAttempts: maxAttempts}

	for {
		w := d.sess.ActiveWindow()

		switch r.next(w.Title(), w.Modal()) {
		case dialogPress:
			if err := d.PressKey(key); err != nil {
				return err
			}

		case dialogFail:
			return &DialogUnresolvedError{Title: w.Title()}

		case dialogFinish:
			return d.pressDialogButton(w, confirm)
		}
	}
}

// pressDialogButton activates the Yes or No button among the dialog's
// child controls. Dialogs without such a button need no further action.
func (d *Driver) pressDialogButton(w scripting.Window, confirm bool) error {
	caption := "No"
	if confirm {
		caption = "Yes"
	}

	for _, b := range w.ChildButtons() {
		if strings.TrimSpace(b.Caption()) != caption {
			continue
		}
		if err := b.Press(); err != nil {
			return fmt.Errorf("press %s button: %w", caption, err)
		}
		return nil
	}

	return nil
}

// =============================================================================
// EXPORT DIALOG SEQUENCE
// =============================================================================

// ExportToFile completes the pending export-to-file dialog: it selects the
// requested data format, enters folder, file name and UTF-8 encoding,
// confirms the overwrite, and verifies that the file appeared on disk.
//
// The caller must have opened the export dialog already (the opening
// gesture differs between screens). On a validation failure the pending
// dialog is cancelled before the error is returned.
func (d *Driver) ExportToFile(file string, formatIndex int) error {
	folder, name := filepath.Split(file)

	if !strings.HasSuffix(name, ".txt") {
		if err := d.PressKey("F3"); err != nil {
			return err
		}
		return &InvalidFileTypeError{Ext: filepath.Ext(name)}
	}

	if info, err := os.Stat(folder); err != nil || !info.IsDir() {
		if err := d.PressKey("F12"); err != nil {
			return err
		}
		return fmt.Errorf("%w: %q", ErrFolderNotFound, folder)
	}

	// Select the plain-text data format and confirm.
	dlg, err := d.sess.DialogWindow(1)
	if err != nil {
		return fmt.Errorf("export format dialog: %w", err)
	}
	if err := dlg.SelectRadio("SPOPLI-SELFLAG", formatIndex); err != nil {
		return fmt.Errorf("select export format: %w", err)
	}
	if err := d.PressKey("Enter"); err != nil {
		return err
	}

	// The file dialog replaces the format dialog at the same stack slot.
	dlg, err = d.sess.DialogWindow(1)
	if err != nil {
		return fmt.Errorf("export file dialog: %w", err)
	}
	if err := d.setDialogField(dlg, "DY_PATH", folder); err != nil {
		return err
	}
	if err := d.setDialogField(dlg, "DY_FILENAME", name); err != nil {
		return err
	}
	if err := d.setDialogField(dlg, "DY_FILE_ENCODING", encodingUTF8); err != nil {
		return err
	}

	// Replace an existing file.
	if err := d.PressKey("CtrlS"); err != nil {
		return err
	}

	if info, err := os.Stat(file); err != nil || info.IsDir() {
		if err := d.PressKey("F12"); err != nil {
			return err
		}
		return fmt.Errorf("%w: %q", ErrDataExport, file)
	}

	d.log.Debug().Str("file", file).Msg("export dialog completed")
	return nil
}

func (d *Driver) setDialogField(dlg scripting.Window, name, value string) error {
	f, err := dlg.Field(name)
	if err != nil {
		return fmt.Errorf("export dialog field %s: %w", name, err)
	}
	if err := f.SetText(value); err != nil {
		return fmt.Errorf("set export dialog field %s: %w", name, err)
	}
	return nil
}
