package classify

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gitlab.com/beaubassin/api/canvass-triage-processor/internal/model"
)

func loadedDictionary(t *testing.T, names string) *Dictionary {
	t.Helper()
	dict := NewDictionary(staticSource(names))
	dict.Load(context.Background())
	require.Equal(t, DictReady, dict.State())
	return dict
}

type staticSource string

func (s staticSource) Fetch(_ context.Context) ([]byte, error) {
	return []byte(s), nil
}

func TestIsPotentiallyFrenchDictionary(t *testing.T) {
	dict := loadedDictionary(t, "tremblay\nbérubé\nst-pierre\n")
	c := NewClassifier(dict)

	testCases := []struct {
		name     string
		input    string
		expected bool
	}{
		{name: "exact dictionary hit", input: "Tremblay", expected: true},
		{name: "diacritics stripped before lookup", input: "Bérubé", expected: true},
		{name: "hit without diacritics against accented entry", input: "Berube", expected: true},
		{name: "token hit inside full name", input: "Marie Tremblay", expected: true},
		{name: "hyphenated entry", input: "St-Pierre", expected: true},
		{name: "dictionary hit without heuristic signal", input: "tremblay", expected: true},
		{name: "miss with no heuristic signal", input: "Smith", expected: false},
		{name: "empty name", input: "", expected: false},
		{name: "punctuation only", input: "...", expected: false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, c.IsPotentiallyFrench(tc.input))
		})
	}
}

func TestIsPotentiallyFrenchHeuristicsOnly(t *testing.T) {
	// Failed load leaves the dictionary in heuristic-only mode.
	dict := NewDictionary(nil)
	dict.Load(context.Background())
	require.Equal(t, DictFailed, dict.State())
	c := NewClassifier(dict)

	testCases := []struct {
		name     string
		input    string
		expected bool
	}{
		{name: "le prefix", input: "Lebrun", expected: true},
		{name: "la prefix", input: "Lavoie", expected: true},
		{name: "du prefix", input: "Dubois", expected: true},
		{name: "eau suffix", input: "Boudreau", expected: true},
		{name: "eux suffix", input: "Mathieux", expected: true},
		{name: "ier suffix", input: "Gagnier", expected: true},
		{name: "particle prefix on full string", input: "de la Fontaine", expected: true},
		{name: "plain english surname", input: "Smith", expected: false},
		{name: "johnson", input: "Johnson", expected: false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, c.IsPotentiallyFrench(tc.input))
		})
	}
}

func TestDictionaryPrecedesHeuristics(t *testing.T) {
	// "smith" carries no heuristic signal; only the dictionary can match it.
	dict := loadedDictionary(t, "smith\n")
	c := NewClassifier(dict)
	assert.True(t, c.IsPotentiallyFrench("Smith"))
}

func TestClassifyContacts(t *testing.T) {
	dict := loadedDictionary(t, "tremblay\n")
	c := NewClassifier(dict)

	contacts := []model.Contact{
		{ID: "a", FirstName: "Marie", LastName: "Tremblay", Status: model.StatusNotChecked},
		{ID: "b", LastName: "Smith", Status: model.StatusNotFrench},
		{ID: "c", LastName: "Lebrun", Status: model.StatusNotFrench},
		{ID: "d", Status: model.StatusNotChecked},
	}
	for i := range contacts {
		contacts[i].RecomputeFullName()
	}

	res := c.ClassifyContacts(context.Background(), contacts)

	assert.Equal(t, 3, res.Checked)
	assert.Equal(t, 2, res.Marked)

	assert.Equal(t, model.StatusDetected, contacts[0].Status)
	assert.True(t, contacts[0].FrenchNameMatched)

	// A miss never touches status.
	assert.Equal(t, model.StatusNotFrench, contacts[1].Status)
	assert.False(t, contacts[1].FrenchNameMatched)

	// A match overwrites even a manual verdict.
	assert.Equal(t, model.StatusDetected, contacts[2].Status)

	// Nameless contacts are skipped entirely.
	assert.Equal(t, model.StatusNotChecked, contacts[3].Status)
	assert.False(t, contacts[3].FrenchNameMatched)
}

func TestClassifyContactsChecksSurnameNotFirstName(t *testing.T) {
	dict := loadedDictionary(t, "tremblay\n")
	c := NewClassifier(dict)

	contacts := []model.Contact{
		// "xavier" would hit the "ier" suffix and "denis" the "de" prefix if
		// first names leaked into detection.
		{ID: "a", FirstName: "Xavier", LastName: "Smith", Status: model.StatusNotChecked},
		{ID: "b", FirstName: "Denis", LastName: "Johnson", Status: model.StatusNotChecked},
		// Without a last name detection falls back to the full name.
		{ID: "c", FullName: "Marie Tremblay", Status: model.StatusNotChecked},
	}
	for i := range contacts[:2] {
		contacts[i].RecomputeFullName()
	}

	res := c.ClassifyContacts(context.Background(), contacts)

	assert.Equal(t, 3, res.Checked)
	assert.Equal(t, 1, res.Marked)

	assert.Equal(t, model.StatusNotChecked, contacts[0].Status)
	assert.False(t, contacts[0].FrenchNameMatched)
	assert.Equal(t, model.StatusNotChecked, contacts[1].Status)
	assert.False(t, contacts[1].FrenchNameMatched)
	assert.Equal(t, model.StatusDetected, contacts[2].Status)
	assert.True(t, contacts[2].FrenchNameMatched)
}
