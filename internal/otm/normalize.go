package otm

import (
	"strings"
)

// punctReplacer folds the punctuation that commonly varies between address
// spellings into spaces before whitespace collapsing.
var punctReplacer = strings.NewReplacer(".", " ", ",", " ", "#", " ", "-", " ")

// NormalizeAddress lowercases the input, folds `.` `,` `#` `-` to spaces,
// collapses whitespace runs and trims. This is address-matching
// normalization only; name matching strips diacritics instead and the two
// must stay separate.
func NormalizeAddress(s string) string {
	folded := punctReplacer.Replace(strings.ToLower(s))
	return strings.Join(strings.Fields(folded), " ")
}

// joinKey joins normalized parts with "|", omitting empties.
func joinKey(parts ...string) string {
	kept := make([]string, 0, len(parts))
	for _, p := range parts {
		if n := NormalizeAddress(p); n != "" {
			kept = append(kept, n)
		}
	}
	return strings.Join(kept, "|")
}

// FullKey is the strict three-field match key.
func FullKey(address, city, zipcode string) string {
	return joinKey(address, city, zipcode)
}

// LooseKey drops the city, tolerating missing or misspelled city fields.
func LooseKey(address, zipcode string) string {
	return joinKey(address, zipcode)
}
