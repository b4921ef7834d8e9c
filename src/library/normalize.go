package library

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// foldTransformer strips combining marks so that "Beyoncé" and "Beyonce"
// normalize to the same string.
var foldTransformer = transform.Chain(
	norm.NFD,
	runes.Remove(runes.In(unicode.Mn)),
	norm.NFC,
)

// NormalizedName lower-cases s, removes diacritics and collapses all
// whitespace runs into single spaces. Identities without a stable host
// library ID are compared and cached in this form so that cosmetic
// differences in tags do not produce distinct cache entries.
func NormalizedName(s string) string {
	folded, _, err := transform.String(foldTransformer, s)
	if err != nil {
		folded = s
	}

	return strings.Join(strings.Fields(strings.ToLower(folded)), " ")
}
