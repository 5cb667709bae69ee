package model

import (
	"strings"
)

// Contact statuses. Exactly one applies to a contact at a time.
const (
	StatusNotChecked        = "Not checked"
	StatusPotentiallyFrench = "Potentially French"
	StatusNotFrench         = "Not French"
	StatusDuplicate         = "Duplicate"
	StatusDetected          = "Detected"
)

// KnownStatuses lists every valid contact status value.
var KnownStatuses = []string{
	StatusNotChecked,
	StatusPotentiallyFrench,
	StatusNotFrench,
	StatusDuplicate,
	StatusDetected,
}

// IsKnownStatus reports whether s is one of the valid contact statuses.
func IsKnownStatus(s string) bool {
	for _, known := range KnownStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// Contact is one person/household entry inside a triage batch or a
// submission snapshot. Contacts are stored embedded as JSONB, never as
// their own table, so every field is part of the JSON shape.
type Contact struct {
	ID                string `json:"id"`
	FirstName         string `json:"firstName,omitempty"`
	LastName          string `json:"lastName,omitempty"`
	FullName          string `json:"fullName,omitempty"`
	Address           string `json:"address,omitempty"`
	City              string `json:"city,omitempty"`
	Zipcode           string `json:"zipcode,omitempty"`
	Phone             string `json:"phone,omitempty"`
	Status            string `json:"status"`
	Notes             string `json:"notes,omitempty"`
	NeedAddressUpdate bool   `json:"needAddressUpdate,omitempty"`
	NeedPhoneUpdate   bool   `json:"needPhoneUpdate,omitempty"`
	TerritoryStatus   bool   `json:"territoryStatus,omitempty"`
	FrenchNameMatched bool   `json:"frenchNameMatched,omitempty"`
}

// RecomputeFullName derives FullName from FirstName and LastName.
// FullName is never independently authoritative; call this after any
// name edit.
func (c *Contact) RecomputeFullName() {
	c.FullName = strings.TrimSpace(c.FirstName + " " + c.LastName)
}

// ClassificationName returns the name detection runs against: the last
// name when present, otherwise the derived full name. Detection is a
// surname check; feeding it first names produces spurious matches.
func (c *Contact) ClassificationName() string {
	if last := strings.TrimSpace(c.LastName); last != "" {
		return last
	}
	return c.FullName
}
