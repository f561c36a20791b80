package screen

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pgaborik/arexport/internal/scripting/scriptingtest"
)

func newDriver(sess *scriptingtest.Session) *Driver {
	return New(sess, zerolog.Nop())
}

func TestPressKey(t *testing.T) {
	sess := scriptingtest.NewSession()
	d := newDriver(sess)

	require.NoError(t, d.PressKey("F8"))
	assert.Equal(t, []int{8}, sess.Main.Keys)

	err := d.PressKey("AltF4")
	var unknown *UnknownKeyError
	require.ErrorAs(t, err, &unknown)
	assert.Equal(t, "AltF4", unknown.Name)
	assert.Len(t, sess.Main.Keys, 1, "an unmapped name must not send anything")
}

func TestIsModalDialogActive(t *testing.T) {
	sess := scriptingtest.NewSession()
	d := newDriver(sess)

	assert.False(t, d.IsModalDialogActive())

	sess.PushDialog(scriptingtest.NewWindow("Information"))
	assert.True(t, d.IsModalDialogActive())
}

func TestResolveDialogConfirmsRecoverablePopup(t *testing.T) {
	sess := scriptingtest.NewSession()
	sess.PushDialog(scriptingtest.NewWindow("Information"))
	sess.Main.OnKey = func(code int) { sess.PopDialog() }

	d := newDriver(sess)

	require.NoError(t, d.ResolveDialog(true))
	assert.Equal(t, []int{0}, sess.Main.Keys, "confirm presses Enter")
}

func TestResolveDialogDeclinesWithCancelKey(t *testing.T) {
	sess := scriptingtest.NewSession()
	sess.PushDialog(scriptingtest.NewWindow("Status check error"))
	sess.Main.OnKey = func(code int) { sess.PopDialog() }

	d := newDriver(sess)

	require.NoError(t, d.ResolveDialog(false))
	assert.Equal(t, []int{12}, sess.Main.Keys, "decline presses F12")
}

func TestResolveDialogGivesUpAfterMaxAttempts(t *testing.T) {
	sess := scriptingtest.NewSession()
	// The host stacked more popups than the retry budget covers.
	for i := 0; i < 4; i++ {
		sess.PushDialog(scriptingtest.NewWindow("Information"))
	}
	sess.Main.OnKey = func(code int) { sess.PopDialog() }

	d := newDriver(sess)

	err := d.ResolveDialogN(true, 3)
	var unresolved *DialogUnresolvedError
	require.ErrorAs(t, err, &unresolved)
	assert.Equal(t, "Information", unresolved.Title)
	assert.Len(t, sess.Main.Keys, 3, "exactly maxAttempts presses, never more")
}

func TestResolveDialogFailsOnUnknownModalTitle(t *testing.T) {
	sess := scriptingtest.NewSession()
	sess.PushDialog(scriptingtest.NewWindow("Runtime error"))

	d := newDriver(sess)

	err := d.ResolveDialog(true)
	var unresolved *DialogUnresolvedError
	require.ErrorAs(t, err, &unresolved)
	assert.Equal(t, "Runtime error", unresolved.Title)
	assert.Empty(t, sess.Main.Keys, "unknown dialogs are never dismissed blindly")
}

func TestResolveDialogPressesMatchingButton(t *testing.T) {
	sess := scriptingtest.NewSession()
	no := &scriptingtest.Button{CaptionText: " No "}
	yes := &scriptingtest.Button{CaptionText: " Yes "}
	sess.Main.DialogBtns = []*scriptingtest.Button{no, yes}

	d := newDriver(sess)

	require.NoError(t, d.ResolveDialog(true))
	assert.Equal(t, 1, yes.Presses)
	assert.Zero(t, no.Presses)

	require.NoError(t, d.ResolveDialog(false))
	assert.Equal(t, 1, no.Presses)
}

// =============================================================================
// EXPORT DIALOG
// =============================================================================

func newExportDialog() *scriptingtest.Window {
	dlg := scriptingtest.NewWindow("Export list")
	dlg.AddField("DY_PATH", "")
	dlg.AddField("DY_FILENAME", "")
	dlg.AddField("DY_FILE_ENCODING", "")
	return dlg
}

func TestExportToFile(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "export.txt")

	sess := scriptingtest.NewSession()
	dlg := newExportDialog()
	sess.PushDialog(dlg)
	sess.Main.OnKey = func(code int) {
		if code == 11 {
			require.NoError(t, os.WriteFile(file, []byte("|data|"), 0o644))
		}
	}

	d := newDriver(sess)

	require.NoError(t, d.ExportToFile(file, 1))

	assert.Contains(t, dlg.RadioPicks, scriptingtest.RadioPick{Name: "SPOPLI-SELFLAG", Idx: 1})
	assert.Equal(t, dir+string(filepath.Separator), dlg.Fields["DY_PATH"].Value)
	assert.Equal(t, "export.txt", dlg.Fields["DY_FILENAME"].Value)
	assert.Equal(t, "4120", dlg.Fields["DY_FILE_ENCODING"].Value)
}

func TestExportToFileRejectsNonTxtTarget(t *testing.T) {
	sess := scriptingtest.NewSession()
	sess.PushDialog(newExportDialog())

	d := newDriver(sess)

	err := d.ExportToFile(filepath.Join(t.TempDir(), "export.csv"), 0)
	var badType *InvalidFileTypeError
	require.ErrorAs(t, err, &badType)
	assert.Equal(t, ".csv", badType.Ext)
	assert.Equal(t, []int{3}, sess.Main.Keys, "the pending dialog is cancelled first")
}

func TestExportToFileRejectsMissingFolder(t *testing.T) {
	sess := scriptingtest.NewSession()
	sess.PushDialog(newExportDialog())

	d := newDriver(sess)

	err := d.ExportToFile(filepath.Join(t.TempDir(), "nope", "export.txt"), 0)
	assert.ErrorIs(t, err, ErrFolderNotFound)
	assert.Equal(t, []int{12}, sess.Main.Keys, "the pending dialog is cancelled first")
}

func TestExportToFileDetectsMissingResult(t *testing.T) {
	sess := scriptingtest.NewSession()
	sess.PushDialog(newExportDialog())
	// The host never produces the file.

	d := newDriver(sess)

	err := d.ExportToFile(filepath.Join(t.TempDir(), "export.txt"), 0)
	assert.ErrorIs(t, err, ErrDataExport)
}
