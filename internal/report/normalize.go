package report

import (
	"strings"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// dashLike maps every dash or minus glyph seen in vendor reports to '-'.
func dashLike(r rune) rune {
	switch r {
	case '\u2010', // hyphen
		'\u2011', // non-breaking hyphen
		'\u2012', // figure dash
		'\u2013', // en dash
		'\u2014', // em dash
		'\u2015', // horizontal bar
		'\u2212', // minus sign
		'\ufe63', // small hyphen-minus
		'\uff0d': // fullwidth hyphen-minus
		return '-'
	}
	return r
}

// Normalize canonicalizes text before any pattern matching: composed
// Unicode form, dash variants folded to the ASCII hyphen-minus. Line
// structure is preserved.
func Normalize(text string) string {
	t := transform.Chain(norm.NFC, runes.Map(dashLike))
	out, _, err := transform.String(t, text)
	if err != nil {
		// invalid input bytes still get their dashes folded
		return strings.Map(dashLike, text)
	}
	return out
}
