package campaign

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var deaccent = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Slug folds a free-text value into a lowercase, underscore-separated token
// safe for directory and file names. Diacritics are stripped, anything
// outside [a-z0-9] collapses to a single underscore.
func Slug(s string) string {
	if folded, _, err := transform.String(deaccent, s); err == nil {
		s = folded
	}
	s = strings.ToLower(s)
	var sb strings.Builder
	lastUnderscore := true
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			sb.WriteRune(r)
			lastUnderscore = false
		default:
			if !lastUnderscore {
				sb.WriteByte('_')
				lastUnderscore = true
			}
		}
	}
	return strings.Trim(sb.String(), "_")
}

// TruncateSlug caps a slug at max bytes without splitting mid-word more than
// necessary.
func TruncateSlug(slug string, max int) string {
	if max <= 0 || len(slug) <= max {
		return slug
	}
	return strings.Trim(slug[:max], "_")
}
