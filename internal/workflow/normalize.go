package workflow

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var lowerCaser = cases.Lower(language.Und)

// NormalizeStatus lowercases a status string and replaces underscores with
// hyphens, so that "IN_PROGRESS" or "inProgress" submitted by a caller
// resolves to the canonical "in-progress" form the configuration uses.
func NormalizeStatus(status string) string {
	withHyphens := camelToHyphen(status)
	withHyphens = strings.ReplaceAll(withHyphens, "_", "-")
	return lowerCaser.String(withHyphens)
}

// camelToHyphen inserts a hyphen before every uppercase rune that follows
// a lowercase letter, so "inProgress" becomes "in-Progress" ahead of the
// case fold in NormalizeStatus. Runs against the original casing, since
// the boundary is only visible before lowercasing.
func camelToHyphen(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 4)
	var prevLower bool
	for _, r := range s {
		if prevLower && r >= 'A' && r <= 'Z' {
			b.WriteByte('-')
		}
		b.WriteRune(r)
		prevLower = r >= 'a' && r <= 'z'
	}
	return b.String()
}

// EqualFold reports whether two status strings are equal once normalized.
func EqualFold(a, b string) bool {
	return NormalizeStatus(a) == NormalizeStatus(b)
}
