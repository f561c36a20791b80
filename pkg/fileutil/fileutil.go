// =============================================================================
// AR Export - File Utilities
// =============================================================================
//
// This module provides file housekeeping utilities for the exporter:
//   - Unique naming of transient export artifacts
//   - Best-effort cleanup of leftover temp files
//   - Directory management
//
// TEMP FILE STRATEGY:
//   - Every export writes to a UUID-named .txt file inside the temp
//     directory, so concurrent invocations cannot collide on names
//   - Files are deleted right after they are read back
//   - Leftovers (crashes, kill -9) are swept at the start and end of a run
//
// =============================================================================

package fileutil

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// =============================================================================
// TEMP FILE NAMING
// =============================================================================

// TempExportPath returns a unique path for one transient export artifact.
//
// PARAMETERS:
//   - dir: the temp directory.
//   - prefix: a short tag naming the export kind (e.g. "receivables").
//
// RETURNS:
//   - A .txt path of the form <dir>/<prefix>_<uuid>.txt.
func TempExportPath(dir, prefix string) string {
	return filepath.Join(dir, fmt.Sprintf("%s_%s.txt", prefix, uuid.New().String()))
}

// =============================================================================
// CLEANUP
// =============================================================================

// RemoveTempFiles deletes every .txt file directly inside the temp
// directory. Failures are logged and swallowed: leftover temp files never
// fail a run that already produced its results.
//
// PARAMETERS:
//   - log: the logger receiving per-file warnings.
//   - dir: the temp directory to sweep.
//
// RETURNS:
//   - The number of files removed.
func RemoveTempFiles(log zerolog.Logger, dir string) int {
	files, err := filepath.Glob(filepath.Join(dir, "*.txt"))
	if err != nil {
		log.Warn().Err(err).Str("dir", dir).Msg("could not scan temp directory")
		return 0
	}

	removed := 0
	for _, file := range files {
		if err := os.Remove(file); err != nil {
			log.Warn().Err(err).Str("file", file).Msg("could not remove temp file")
			continue
		}
		removed++
	}

	return removed
}

// =============================================================================
// DIRECTORY MANAGEMENT
// =============================================================================

// EnsureDirectories creates all given directories if they don't exist.
//
// RETURNS:
//   - An error if any directory cannot be created.
func EnsureDirectories(dirs ...string) error {
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return nil
}

// FileExists checks if a file exists.
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return !os.IsNotExist(err)
}
