// =============================================================================
// AR Export - Export File Bridge
// =============================================================================
//
// The bridge owns the lifecycle of one transient export artifact: run the
// screen-side export sequence, read the produced file back as UTF-8 text,
// and delete it. Both domain engines share this contract so temp-file
// handling lives in exactly one place.
//
// =============================================================================

package export

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
)

// AndRead invokes the given export sequence, reads the exported file as
// UTF-8 text, attempts to delete it, and returns the text.
//
// Deletion is best-effort: by the time it runs the call has already
// succeeded, so a failed delete (permissions, already gone) is logged as a
// warning and does not affect the returned result.
func AndRead(log zerolog.Logger, path string, exportFn func() error) (string, error) {
	if err := exportFn(); err != nil {
		return "", err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read exported data from %q: %w", path, err)
	}

	if err := os.Remove(path); err != nil {
		log.Warn().Err(err).Str("file", path).Msg("could not remove export file")
	}

	return string(data), nil
}
