package maputil

import (
	"github.com/samber/lo"
	"strings"
)

// FromKeyValueStrings parses repeated "key=value" arguments into a map.
// Entries with no separator or an empty key are dropped.
func FromKeyValueStrings(input []string) map[string]string {
	pairs := lo.FilterMap(input, func(entry string, index int) (lo.Entry[string, string], bool) {
		key, value, found := strings.Cut(entry, "=")

		if !found || strings.TrimSpace(key) == "" {
			return lo.Entry[string, string]{}, false
		}

		return lo.Entry[string, string]{Key: strings.TrimSpace(key), Value: value}, true
	})

	return lo.FromEntries(pairs)
}
