package strutil

import "strings"

// DefaultIfEmpty returns the default value when the input is empty or blank.
func DefaultIfEmpty(input string, defaultValue string) string {
	if strings.TrimSpace(input) == "" {
		return defaultValue
	}

	return input
}
