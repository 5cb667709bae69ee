package triage

import (
	"strings"

	"gitlab.com/beaubassin/api/canvass-triage-processor/internal/model"
)

// Territory is the allow-list of zipcodes a canvasser operation covers.
type Territory struct {
	zipcodes map[string]struct{}
}

// NewTerritory builds a Territory from the configured zipcode list.
// Entries are trimmed; blanks are dropped.
func NewTerritory(zipcodes []string) *Territory {
	set := make(map[string]struct{}, len(zipcodes))
	for _, z := range zipcodes {
		z = strings.TrimSpace(z)
		if z == "" {
			continue
		}
		set[z] = struct{}{}
	}
	return &Territory{zipcodes: set}
}

// Contains reports whether the trimmed zipcode is in the territory.
func (t *Territory) Contains(zipcode string) bool {
	_, ok := t.zipcodes[strings.TrimSpace(zipcode)]
	return ok
}

// Size returns the number of zipcodes in the territory.
func (t *Territory) Size() int {
	return len(t.zipcodes)
}

// FlagContacts sets territoryStatus on each contact: true means the
// contact's zipcode falls outside the territory. Mutates in place.
func (t *Territory) FlagContacts(contacts []model.Contact) {
	for i := range contacts {
		contacts[i].TerritoryStatus = !t.Contains(contacts[i].Zipcode)
	}
}
