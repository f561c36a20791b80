package export

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAndReadReturnsTextAndDeletesFile(t *testing.T) {
	file := filepath.Join(t.TempDir(), "export.txt")

	text, err := AndRead(zerolog.Nop(), file, func() error {
		return os.WriteFile(file, []byte("|  1234567 | data |"), 0o644)
	})
	require.NoError(t, err)
	assert.Equal(t, "|  1234567 | data |", text)

	_, statErr := os.Stat(file)
	assert.True(t, os.IsNotExist(statErr), "the export artifact is transient")
}

func TestAndReadPropagatesExportFailure(t *testing.T) {
	file := filepath.Join(t.TempDir(), "export.txt")
	boom := errors.New("host rejected the export")

	_, err := AndRead(zerolog.Nop(), file, func() error { return boom })
	assert.ErrorIs(t, err, boom)
}

func TestAndReadFailsWhenFileNeverAppears(t *testing.T) {
	file := filepath.Join(t.TempDir(), "export.txt")

	_, err := AndRead(zerolog.Nop(), file, func() error { return nil })
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read exported data")
}
