package common

import "strings"

// UnknownStr is returned by String methods for values outside their enum range.
const UnknownStr = "unknown"

// IsBlank returns true if s is empty or contains only whitespace.
func IsBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}

// Quote wraps every element in single quotes, e.g. for report messages.
func Quote(values []string) []string {
	quoted := make([]string, len(values))
	for i, v := range values {
		quoted[i] = "'" + v + "'"
	}

	return quoted
}
