package boundary

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// stripMarks removes diacritics so "São Paulo" slugs as "sao-paulo".
var stripMarks = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Slugify composes the given parts into a lowercase URL-safe token. Empty
// parts are dropped; runs of non-alphanumeric characters collapse to a
// single hyphen.
func Slugify(parts ...string) string {
	joined := strings.Join(nonEmpty(parts), "-")

	if ascii, _, err := transform.String(stripMarks, joined); err == nil {
		joined = ascii
	}

	var b strings.Builder
	b.Grow(len(joined))
	lastHyphen := true
	for _, r := range strings.ToLower(joined) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastHyphen = false
		default:
			if !lastHyphen {
				b.WriteByte('-')
				lastHyphen = true
			}
		}
	}
	return strings.TrimRight(b.String(), "-")
}

func nonEmpty(parts []string) []string {
	out := parts[:0:0]
	for _, p := range parts {
		if strings.TrimSpace(p) != "" {
			out = append(out, p)
		}
	}
	return out
}
