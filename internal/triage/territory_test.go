package triage

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"gitlab.com/beaubassin/api/canvass-triage-processor/internal/model"
)

func TestNewTerritoryTrimsAndDropsBlanks(t *testing.T) {
	territory := NewTerritory([]string{" 04736 ", "", "04101", "  "})

	assert.Equal(t, 2, territory.Size())
	assert.True(t, territory.Contains("04736"))
	assert.True(t, territory.Contains(" 04736"))
	assert.True(t, territory.Contains("04101"))
	assert.False(t, territory.Contains(""))
	assert.False(t, territory.Contains("75001"))
}

func TestFlagContacts(t *testing.T) {
	territory := NewTerritory([]string{"04736", "04737"})

	contacts := []model.Contact{
		{ID: "a", Zipcode: "04736"},
		{ID: "b", Zipcode: " 04737 "},
		{ID: "c", Zipcode: "75001"},
		{ID: "d", Zipcode: ""},
	}

	territory.FlagContacts(contacts)

	assert.False(t, contacts[0].TerritoryStatus, "inside territory stays unflagged")
	assert.False(t, contacts[1].TerritoryStatus, "zipcode trimmed before lookup")
	assert.True(t, contacts[2].TerritoryStatus, "outside territory is flagged")
	assert.True(t, contacts[3].TerritoryStatus, "missing zipcode counts as outside")
}

func TestFlagContactsEmptyTerritory(t *testing.T) {
	territory := NewTerritory(nil)

	contacts := []model.Contact{{ID: "a", Zipcode: "04736"}}
	territory.FlagContacts(contacts)

	assert.True(t, contacts[0].TerritoryStatus)
}
