package normalize

import (
	"regexp"
	"strings"
)

var nonAlnumRe = regexp.MustCompile(`[^a-zA-Z0-9]+`)

// SanitizeID converts an arbitrary vendor machine identifier into a safe tag
// key component: runs of non-alphanumeric characters collapse to a single
// underscore, the result is trimmed and lowercased, and an empty result
// falls back to "unknown".
func SanitizeID(raw string) string {
	s := nonAlnumRe.ReplaceAllString(raw, "_")
	s = strings.ToLower(strings.Trim(s, "_"))
	if s == "" {
		return "unknown"
	}
	return s
}
