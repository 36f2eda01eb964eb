// Package normalize canonicalizes user-supplied strings before they are
// stored or compared.
package normalize

import "strings"

// Email trims and lowercases an email address.
func Email(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Name trims surrounding whitespace and collapses inner runs of spaces.
// Case is preserved.
func Name(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// Role trims and lowercases a role name.
func Role(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// QueryParam trims a query-string value. Case is preserved.
func QueryParam(s string) string {
	return strings.TrimSpace(s)
}

// Filter trims a filter value and maps "all" (any case) to "".
func Filter(s string) string {
	s = strings.TrimSpace(s)
	if strings.EqualFold(s, "all") {
		return ""
	}
	return s
}
