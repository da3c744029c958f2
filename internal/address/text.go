package address

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// foldKey reduces s to a comparison key: diacritics stripped, uppercased,
// inner whitespace collapsed to single spaces.
func foldKey(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	stripped, _, err := transform.String(t, s)
	if err != nil {
		stripped = s
	}
	return strings.ToUpper(strings.Join(strings.Fields(stripped), " "))
}

// sameName reports whether two place names are equal ignoring case,
// diacritics and spacing.
func sameName(a, b string) bool {
	return foldKey(a) == foldKey(b)
}

// collapseSpaces trims s and collapses whitespace runs to a single space.
func collapseSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
