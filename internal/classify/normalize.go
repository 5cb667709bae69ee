package classify

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// diacriticStripper decomposes to NFD, drops combining marks, recomposes.
var diacriticStripper = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// NormalizeName lowercases the input, strips diacritical marks via Unicode
// decomposition and trims surrounding whitespace. "Bérubé " -> "berube".
func NormalizeName(name string) string {
	lowered := strings.ToLower(name)
	stripped, _, err := transform.String(diacriticStripper, lowered)
	if err != nil {
		// Transform only fails on malformed UTF-8; fall back to the
		// lowercased input so classification still sees something.
		stripped = lowered
	}
	return strings.TrimSpace(stripped)
}

// cleanWholeName strips every character outside [a-z-'\s] from an already
// normalized name, keeping word boundaries intact.
func cleanWholeName(normalized string) string {
	var b strings.Builder
	b.Grow(len(normalized))
	for _, r := range normalized {
		if isNameRune(r) || r == ' ' || r == '\t' {
			b.WriteRune(r)
		}
	}
	return strings.TrimSpace(b.String())
}

// cleanToken strips every character outside [a-z-'] from a single token.
func cleanToken(token string) string {
	var b strings.Builder
	b.Grow(len(token))
	for _, r := range token {
		if isNameRune(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func isNameRune(r rune) bool {
	return (r >= 'a' && r <= 'z') || r == '-' || r == '\''
}
