// =============================================================================
// AR Export - Case Identifier Extraction
// =============================================================================

package records

import (
	"regexp"
	"strconv"
	"strings"
)

// CompileCaseIDPattern builds the matcher extracting dispute case
// identifiers from free-text fields. The marker is a "D" or "DP" token
// (not embedded in a word) with an optional -, _, or / separator, followed
// by the entity-specific identifier pattern, e.g. `2\d{6}`.
func CompileCaseIDPattern(entityPattern string) (*regexp.Regexp, error) {
	return regexp.Compile(`(?i)(\A|[^a-zA-Z])DP?\s*[-_/]?\s*(` + entityPattern + `)`)
}

// ExtractCaseID applies a matcher built by CompileCaseIDPattern to a text
// field. The second return value reports whether a case marker was found.
func ExtractCaseID(matcher *regexp.Regexp, text string) (uint64, bool) {
	m := matcher.FindStringSubmatch(text)
	if m == nil {
		return 0, false
	}

	id, err := strconv.ParseUint(strings.ReplaceAll(m[2], " ", ""), 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}
