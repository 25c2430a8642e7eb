package pdf

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var punctuation = strings.NewReplacer(
	"\u2013", "-", "\u2014", "-",
	"‘", "'", "’", "'",
	"“", `"`, "”", `"`,
	"…", "...", "\u00a0", " ",
)

var escaper = strings.NewReplacer(`\`, `\\`, `(`, `\(`, `)`, `\)`)

// Sanitize folds text to printable ASCII: diacritics are stripped, typographic punctuation
// is replaced and anything else outside the base Helvetica range is dropped.
func Sanitize(s string) string {
	s = punctuation.Replace(s)

	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	if folded, _, err := transform.String(t, s); err == nil {
		s = folded
	}

	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case r == '\t' || r == '\n' || r == '\r':
			b.WriteByte(' ')
		case r >= 0x20 && r < 0x7f:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// escape quotes PDF string delimiters for use inside a content stream.
func escape(s string) string {
	return escaper.Replace(s)
}
