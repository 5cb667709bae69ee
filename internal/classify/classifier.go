package classify

import (
	"context"
	"strings"

	"gitlab.com/beaubassin/api/canvass-triage-processor/internal/model"
)

// Heuristic signals for French-looking surnames. Low precision by intent;
// the dictionary is always consulted first.
var (
	frenchPrefixes = []string{"le", "la", "du", "de"}
	frenchSuffixes = []string{"eau", "eux", "ier"}
)

// Classifier decides whether a name looks French, combining dictionary
// membership with prefix/suffix heuristics.
type Classifier struct {
	dict *Dictionary
}

// NewClassifier creates a Classifier over the given dictionary.
func NewClassifier(dict *Dictionary) *Classifier {
	return &Classifier{dict: dict}
}

// Dictionary exposes the underlying dictionary, mainly for state reporting.
func (c *Classifier) Dictionary() *Dictionary {
	return c.dict
}

// IsPotentiallyFrench reports whether the given name (surname or full name)
// looks French. Check order matters: the dictionary is authoritative and is
// consulted before any heuristic, first on the whole cleaned name, then per
// token. When the dictionary is not ready only the heuristics apply.
func (c *Classifier) IsPotentiallyFrench(name string) bool {
	normalized := NormalizeName(name)
	if normalized == "" {
		return false
	}

	whole := cleanWholeName(normalized)
	tokens := make([]string, 0, 4)
	for _, raw := range strings.Fields(whole) {
		if token := cleanToken(raw); token != "" {
			tokens = append(tokens, token)
		}
	}

	if c.dict != nil {
		if c.dict.Contains(whole) {
			return true
		}
		for _, token := range tokens {
			if c.dict.Contains(token) {
				return true
			}
		}
	}

	for _, token := range tokens {
		for _, prefix := range frenchPrefixes {
			if strings.HasPrefix(token, prefix) {
				return true
			}
		}
		for _, suffix := range frenchSuffixes {
			if strings.HasSuffix(token, suffix) {
				return true
			}
		}
	}

	// Particles split from the surname ("de la Fontaine") only show up as a
	// prefix of the full normalized string.
	for _, prefix := range frenchPrefixes {
		if strings.HasPrefix(normalized, prefix+" ") {
			return true
		}
	}

	return false
}

// Result summarizes one classification pass over a contact list.
type Result struct {
	Checked int
	Marked  int
}

// ClassifyContacts runs name detection over the list in place. A match
// forces status to "Detected" and sets the frenchNameMatched flag; a miss
// leaves status untouched. Contacts without any name are skipped.
func (c *Classifier) ClassifyContacts(ctx context.Context, contacts []model.Contact) Result {
	var res Result
	for i := range contacts {
		name := contacts[i].ClassificationName()
		if name == "" {
			continue
		}
		res.Checked++

		matched := c.IsPotentiallyFrench(name)
		contacts[i].FrenchNameMatched = matched
		if matched {
			contacts[i].Status = model.StatusDetected
			res.Marked++
		}

		select {
		case <-ctx.Done():
			return res
		default:
		}
	}
	return res
}
