// Package slug derives URL-safe profile handles from display names.
package slug

import (
	"regexp"
	"strings"
)

var collapsePattern = regexp.MustCompile(`-{2,}`)

// Derive lowercases a display name and rewrites it into a URL-safe handle.
// Non-ASCII and non-alphanumeric runs become single hyphens; leading and
// trailing hyphens are stripped.
func Derive(displayName string) string {
	displayName = strings.TrimSpace(displayName)

	var builder strings.Builder
	builder.Grow(len(displayName))
	for i := 0; i < len(displayName); i++ {
		ch := displayName[i]
		switch {
		case ch >= 'A' && ch <= 'Z':
			builder.WriteByte(ch - 'A' + 'a')
		case (ch >= 'a' && ch <= 'z') || (ch >= '0' && ch <= '9'):
			builder.WriteByte(ch)
		default:
			builder.WriteByte('-')
		}
	}

	derived := collapsePattern.ReplaceAllString(builder.String(), "-")
	return strings.Trim(derived, "-")
}

// WithSuffix appends a disambiguating suffix to an already-derived handle.
func WithSuffix(derived, suffix string) string {
	suffix = strings.Trim(strings.TrimSpace(suffix), "-")
	if suffix == "" {
		return derived
	}
	if derived == "" {
		return suffix
	}
	return derived + "-" + suffix
}
