package triage

import (
	"strings"

	"gitlab.com/beaubassin/api/canvass-triage-processor/internal/model"
)

// addressKey builds the duplicate-detection key for a contact: address,
// city and zipcode lowercased with whitespace collapsed and trimmed.
// Contacts without any address data produce an empty key.
func addressKey(c model.Contact) string {
	combined := strings.ToLower(c.Address + " " + c.City + " " + c.Zipcode)
	return strings.Join(strings.Fields(combined), " ")
}

// MarkDuplicates walks the contacts in order and forces the status of every
// repeat of a nonempty address key to "Duplicate", overwriting whatever
// status the contact had. The first occurrence of each key is left
// untouched, as is any contact with an empty key. The input order and
// length are preserved and the pass is idempotent.
func MarkDuplicates(contacts []model.Contact) []model.Contact {
	out := make([]model.Contact, len(contacts))
	copy(out, contacts)

	seen := make(map[string]struct{}, len(out))
	for i := range out {
		key := addressKey(out[i])
		if key == "" {
			continue
		}
		if _, dup := seen[key]; dup {
			out[i].Status = model.StatusDuplicate
			continue
		}
		seen[key] = struct{}{}
	}
	return out
}
