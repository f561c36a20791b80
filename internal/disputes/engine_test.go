package disputes

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pgaborik/arexport/internal/scripting/scriptingtest"
)

// newCaseSession returns a fake session carrying the entry screen of the
// case management transaction: the navigation tree (with the search node
// buried inside a folder), the search mask, the query toolbar, and the
// result grid.
func newCaseSession() (*scriptingtest.Session, *scriptingtest.Grid) {
	sess := scriptingtest.NewSession()

	sess.Main.Trees[navTreeID] = scriptingtest.NewTree(
		[]string{"1"},
		map[string][]string{"1": {"2", "3"}, "3": {"  4"}},
		map[string]bool{"1": true, "3": true},
	)

	mask := &scriptingtest.Grid{Cells: make([]map[string]string, 24)}
	sess.Main.Grids[searchMaskGrid] = mask
	sess.Main.Grids[resultGrid] = &scriptingtest.Grid{}
	sess.Main.Toolbars[queryToolbar] = &scriptingtest.Toolbar{}

	return sess, mask
}

func startedEngine(t *testing.T, sess *scriptingtest.Session) *Engine {
	t.Helper()
	e := New(zerolog.Nop())
	require.NoError(t, e.Start(sess))
	return e
}

func TestStartNavigatesToSearchPane(t *testing.T) {
	sess, _ := newCaseSession()

	e := startedEngine(t, sess)
	t.Cleanup(func() { _ = e.Close() })

	tree := sess.Main.Trees[navTreeID]
	assert.Equal(t, []string{"  4"}, tree.DoubleClicked)
	// Folder nodes are collapsed and re-expanded so children materialize.
	assert.Contains(t, tree.Expanded, "3")
	assert.Contains(t, tree.Collapsed, "3")
	assert.Equal(t, []string{"UDM_DISPUTE"}, sess.Started)
}

func TestStartVisitsFirstChildBeforeSiblings(t *testing.T) {
	sess, _ := newCaseSession()
	sess.Main.Trees[navTreeID] = scriptingtest.NewTree(
		[]string{"1"},
		map[string][]string{"1": {"2", "3"}, "2": {"5"}, "3": {"  4"}},
		map[string]bool{"1": true, "2": true, "3": true},
	)

	e := startedEngine(t, sess)
	t.Cleanup(func() { _ = e.Close() })

	tree := sess.Main.Trees[navTreeID]
	// Depth-first in on-screen order: folder "2" is entered before its
	// sibling "3", even though the search node lives under "3".
	assert.Equal(t, []string{"1", "2", "3"}, tree.Expanded)
	assert.Equal(t, []string{"  4"}, tree.DoubleClicked)
}

func TestStartFailsWhenSearchPaneMissing(t *testing.T) {
	sess, _ := newCaseSession()
	sess.Main.Trees[navTreeID] = scriptingtest.NewTree(
		[]string{"1"},
		// Cycle between the two folders: the visited set must break it.
		map[string][]string{"1": {"2"}, "2": {"1"}},
		map[string]bool{"1": true, "2": true},
	)

	e := New(zerolog.Nop())
	err := e.Start(sess)
	assert.ErrorIs(t, err, ErrSearchPaneNotFound)

	_, err = e.SearchDisputes(SingleCase("2000001"))
	assert.ErrorIs(t, err, ErrUninitialized)
}

func TestSearchDisputesValidatesBeforeTouchingScreen(t *testing.T) {
	tooMany := make([]string, maxCases+1)
	for i := range tooMany {
		tooMany[i] = fmt.Sprintf("%07d", i+2000000)
	}

	cases := []struct {
		name  string
		query CaseQuery
	}{
		{"empty identifier", SingleCase("")},
		{"numeric identifier of wrong length", SingleCase("123")},
		{"empty list", CaseList(nil)},
		{"list above the ceiling", CaseList(tooMany)},
		{"invalid identifier inside list", CaseList([]string{"2000001", "42"})},
		{"no criteria", CaseQuery{}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			sess, mask := newCaseSession()
			e := startedEngine(t, sess)

			_, err := e.SearchDisputes(tc.query)
			require.Error(t, err)
			assert.Empty(t, mask.Writes, "validation must fail before any screen interaction")
			assert.Empty(t, sess.Main.Toolbars[queryToolbar].Presses)
		})
	}
}

func TestSearchDisputesSingleCase(t *testing.T) {
	sess, mask := newCaseSession()
	sess.Main.Toolbars[queryToolbar].OnPress = func(id string) {
		sess.Status = "1 cases found"
	}

	e := startedEngine(t, sess)

	res, err := e.SearchDisputes(SingleCase("2000001"))
	require.NoError(t, err)

	assert.False(t, res.Empty)
	assert.Equal(t, 1, res.Found)

	require.Len(t, mask.Writes, 2)
	assert.Equal(t, scriptingtest.CellWrite{Row: rowHitLimit, Column: columnValue, Value: "5000"}, mask.Writes[0])
	assert.Equal(t, scriptingtest.CellWrite{Row: rowCaseID, Column: columnValue, Value: "2000001"}, mask.Writes[1])
}

func TestSearchDisputesAlternateKey(t *testing.T) {
	sess, _ := newCaseSession()
	sess.Main.Toolbars[queryToolbar].OnPress = func(id string) {
		sess.Status = "1 cases found"
	}

	e := startedEngine(t, sess)

	// Non-numeric reference keys skip the seven-digit rule.
	res, err := e.SearchDisputes(SingleCase("REF-2026-0042"))
	require.NoError(t, err)
	assert.Equal(t, 1, res.Found)
}

func TestSearchDisputesZeroHits(t *testing.T) {
	sess, _ := newCaseSession()
	sess.Main.Toolbars[queryToolbar].OnPress = func(id string) {
		sess.Status = "0 cases found"
	}

	e := startedEngine(t, sess)

	res, err := e.SearchDisputes(SingleCase("2000001"))
	require.NoError(t, err)
	assert.True(t, res.Empty)
	assert.Zero(t, res.Found)
}

func TestSearchDisputesBulk(t *testing.T) {
	t.Run("partial match is an error", func(t *testing.T) {
		sess, mask := newCaseSession()
		sess.Main.Toolbars[queryToolbar].OnPress = func(id string) {
			sess.Status = "2 cases found"
		}

		e := startedEngine(t, sess)

		_, err := e.SearchDisputes(CaseList([]string{"2000001", "2000002", "2000003"}))

		var notFound *CasesNotFoundError
		require.ErrorAs(t, err, &notFound)
		assert.Equal(t, 1, notFound.Missing)

		// Hit limit equals the requested count, list pasted via clipboard.
		assert.Contains(t, mask.Writes, scriptingtest.CellWrite{Row: rowHitLimit, Column: columnValue, Value: "3"})
		assert.Contains(t, mask.ButtonPresses, scriptingtest.CellRef{Row: rowCaseID, Column: columnSelection})
		require.Len(t, sess.Clipboard, 2)
		assert.Equal(t, "2000001\r\n2000002\r\n2000003", sess.Clipboard[0])
		assert.Equal(t, "", sess.Clipboard[1])
	})

	t.Run("single-entry list that exists", func(t *testing.T) {
		sess, _ := newCaseSession()
		sess.Main.Toolbars[queryToolbar].OnPress = func(id string) {
			sess.Status = "1 cases found"
		}

		e := startedEngine(t, sess)

		res, err := e.SearchDisputes(CaseList([]string{"2000001"}))
		require.NoError(t, err)
		assert.Equal(t, 1, res.Found)
		assert.False(t, res.Empty)
	})

	t.Run("thousands separator in hit count", func(t *testing.T) {
		sess, _ := newCaseSession()
		sess.Main.Toolbars[queryToolbar].OnPress = func(id string) {
			sess.Status = "1.024 cases found"
		}

		e := startedEngine(t, sess)

		res, err := e.SearchDisputes(SingleCase("2000001"))
		require.NoError(t, err)
		assert.Equal(t, 1024, res.Found)
	})
}

func TestExportDisputesData(t *testing.T) {
	const fixture = "| 2000001 | 1234567 | 02.01.2026 | ...\r\n"

	file := filepath.Join(t.TempDir(), "disputes.txt")

	sess, _ := newCaseSession()
	results := sess.Main.Grids[resultGrid]
	sess.Main.Toolbars[queryToolbar].OnPress = func(id string) {
		sess.Status = "1 cases found"
	}

	layoutDlg := scriptingtest.NewWindow("Choose layout")
	variants := &scriptingtest.Grid{Cells: []map[string]string{
		{columnLayoutName: "/STANDARD", columnLayoutText: "Standard view"},
		{columnLayoutName: "/EXPORT", columnLayoutText: "Export view"},
	}}
	variants.OnClick = func() { sess.PopDialog() }
	layoutDlg.Grids[0] = variants

	exportDlg := scriptingtest.NewWindow("Export list")
	exportDlg.AddField("DY_PATH", "")
	exportDlg.AddField("DY_FILENAME", "")
	exportDlg.AddField("DY_FILE_ENCODING", "")

	results.OnMenuItem = func(id string) {
		switch id {
		case menuLayoutLoad:
			sess.PushDialog(layoutDlg)
		case menuExportFile:
			sess.PushDialog(exportDlg)
		}
	}
	sess.Main.OnKey = func(code int) {
		if code == 11 {
			require.NoError(t, os.WriteFile(file, []byte(fixture), 0o644))
			sess.PopDialog()
		}
	}

	e := startedEngine(t, sess)

	res, err := e.SearchDisputes(SingleCase("2000001"))
	require.NoError(t, err)

	text, err := e.ExportDisputesData(res, file, "/EXPORT")
	require.NoError(t, err)
	assert.Equal(t, fixture, text)

	// Layout applied by clicking the matching variant row.
	assert.Equal(t, []string{menuLayout, menuExport}, results.CtxButtons)
	assert.Equal(t, []string{menuLayoutLoad, menuExportFile}, results.MenuItems)
	assert.Equal(t, []scriptingtest.CellRef{{Row: 1, Column: columnLayoutText}}, variants.CurrentCells)
	assert.Equal(t, 1, variants.CellClicks)

	// Transient export artifact deleted after reading.
	_, statErr := os.Stat(file)
	assert.True(t, os.IsNotExist(statErr))
}

func TestExportDisputesDataLayoutNotFound(t *testing.T) {
	sess, _ := newCaseSession()
	results := sess.Main.Grids[resultGrid]
	sess.Main.Toolbars[queryToolbar].OnPress = func(id string) {
		sess.Status = "1 cases found"
	}

	layoutDlg := scriptingtest.NewWindow("Choose layout")
	layoutDlg.Grids[0] = &scriptingtest.Grid{Cells: []map[string]string{
		{columnLayoutName: "/STANDARD", columnLayoutText: "Standard view"},
	}}
	results.OnMenuItem = func(id string) {
		if id == menuLayoutLoad {
			sess.PushDialog(layoutDlg)
		}
	}
	sess.Main.OnKey = func(code int) {
		if code == 12 {
			sess.PopDialog()
		}
	}

	e := startedEngine(t, sess)

	res, err := e.SearchDisputes(SingleCase("2000001"))
	require.NoError(t, err)

	_, err = e.ExportDisputesData(res, filepath.Join(t.TempDir(), "disputes.txt"), "/MISSING")

	var layoutErr *LayoutNotFoundError
	require.ErrorAs(t, err, &layoutErr)
	assert.Equal(t, "/MISSING", layoutErr.Layout)
	assert.Empty(t, sess.DialogStack, "layout dialog must be cancelled before failing")
}

func TestExportDisputesDataRejectsEmptyResult(t *testing.T) {
	sess, _ := newCaseSession()
	e := startedEngine(t, sess)

	_, err := e.ExportDisputesData(SearchResult{Empty: true}, "disputes.txt", "")
	assert.Error(t, err)
}

func TestCloseIsIdempotent(t *testing.T) {
	sess, _ := newCaseSession()
	e := New(zerolog.Nop())

	require.NoError(t, e.Close())

	require.NoError(t, e.Start(sess))
	require.NoError(t, e.Close())
	require.NoError(t, e.Close())

	assert.Equal(t, 1, sess.Ended)
}
