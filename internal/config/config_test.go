package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestLoadAppliesDefaults(t *testing.T) {
	dir := t.TempDir()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })

	path := filepath.Join(dir, "config.yaml")
	writeFile(t, path, "system: PRD\n")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "PRD", cfg.System)
	assert.Equal(t, "./tmp", cfg.TempDir)
	assert.Equal(t, "./data", cfg.DataDir)
	assert.Equal(t, "./reports", cfg.ReportDir)
	assert.Equal(t, "./rules", cfg.RulesDir)
	assert.Equal(t, "info", cfg.LogLevel)

	// Missing working directories are created on load.
	info, err := os.Stat(filepath.Join(dir, "tmp"))
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestLoadRejectsUnknownLogLevel(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	writeFile(t, path, "log_level: chatty\n")

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "log level")
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

const entityFixture = `entity_name: Example Retail GmbH
entity_code: ERG
classification: company_code
company_code: "0001"
accounts: [1234567, 7654321]
case_id_pattern: '2\d{6}'
receivables_layout: /EXPORT
disputes_layout: /DISPUTES
item_status: all
`

func TestLoadEntityRules(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "erg.yaml"), entityFixture)
	writeFile(t, filepath.Join(dir, "wl.yml"), `entity_name: Worklist Entity
entity_code: WLE
classification: worklist
worklist: REGION-EAST
`)
	// Non-YAML files are ignored.
	writeFile(t, filepath.Join(dir, "notes.txt"), "irrelevant")

	rules, err := LoadEntityRules(dir)
	require.NoError(t, err)
	require.Len(t, rules, 2)

	erg := rules["ERG"]
	require.NotNil(t, erg)
	assert.Equal(t, "Example Retail GmbH", erg.EntityName)
	assert.Equal(t, ClassifyByCompanyCode, erg.Classification)
	assert.Equal(t, "0001", erg.CompanyCode)
	assert.Equal(t, []int{1234567, 7654321}, erg.Accounts)
	assert.Equal(t, `2\d{6}`, erg.CaseIDPattern)
	assert.Equal(t, "all", erg.ItemStatus)

	wle := rules["WLE"]
	require.NotNil(t, wle)
	assert.Equal(t, ClassifyByWorklist, wle.Classification)
	assert.Equal(t, "REGION-EAST", wle.Worklist)
	assert.Equal(t, "open", wle.ItemStatus, "item status defaults to open")
}

func TestLoadEntityRulesValidation(t *testing.T) {
	cases := []struct {
		name    string
		content string
		wantErr string
	}{
		{
			name:    "unknown classification",
			content: "entity_code: X\nclassification: region\n",
			wantErr: "unknown classification",
		},
		{
			name:    "company code classification without code",
			content: "entity_code: X\nclassification: company_code\n",
			wantErr: "requires a company code",
		},
		{
			name:    "company code classification without accounts",
			content: "entity_code: X\nclassification: company_code\ncompany_code: \"0001\"\n",
			wantErr: "at least one account",
		},
		{
			name:    "worklist classification without name",
			content: "entity_code: X\nclassification: worklist\n",
			wantErr: "requires a worklist name",
		},
		{
			name:    "broken case-id pattern",
			content: "entity_code: X\nclassification: worklist\nworklist: W\ncase_id_pattern: '2(\\d'\n",
			wantErr: "case-id pattern",
		},
		{
			name:    "unknown item status",
			content: "entity_code: X\nclassification: worklist\nworklist: W\nitem_status: pending\n",
			wantErr: "item status",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			dir := t.TempDir()
			writeFile(t, filepath.Join(dir, "x.yaml"), tc.content)

			_, err := LoadEntityRules(dir)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.wantErr)
		})
	}
}
