package otm

import (
	"time"

	"gitlab.com/beaubassin/api/canvass-triage-processor/internal/model"
)

// Match tiers.
const (
	MatchExact = "exact"
	MatchLoose = "loose"
)

// Candidate is one flagged contact from a stored submission, carrying
// enough submission context for the reviewer to act on a match.
type Candidate struct {
	SubmissionID int64
	UserID       string
	SubmittedAt  time.Time
	Contact      model.Contact
}

// MatchResult records an exact or loose match between a candidate contact
// and a reference address row.
type MatchResult struct {
	SubmissionID int64     `json:"submissionId"`
	UserID       string    `json:"userId"`
	SubmittedAt  time.Time `json:"submittedAt"`
	ContactID    string    `json:"contactId"`
	FullName     string    `json:"fullName"`
	Address      string    `json:"address"`
	City         string    `json:"city"`
	Zipcode      string    `json:"zipcode"`
	Phone        string    `json:"phone"`
	MatchType    string    `json:"matchType"`
	OTMAddress   string    `json:"otmAddress"`
	OTMCity      string    `json:"otmCity"`
	OTMZipcode   string    `json:"otmZipcode"`
}

// Index holds first-occurrence lookup maps over a reference address list.
// When duplicate keys exist in the reference set, the earliest row wins.
type Index struct {
	exact map[string]ReferenceAddressRow
	loose map[string]ReferenceAddressRow
}

// BuildIndex indexes the reference rows by full and loose key.
func BuildIndex(rows []ReferenceAddressRow) *Index {
	idx := &Index{
		exact: make(map[string]ReferenceAddressRow, len(rows)),
		loose: make(map[string]ReferenceAddressRow, len(rows)),
	}
	for _, row := range rows {
		if fk := FullKey(row.Address, row.City, row.Zipcode); fk != "" {
			if _, seen := idx.exact[fk]; !seen {
				idx.exact[fk] = row
			}
		}
		if lk := LooseKey(row.Address, row.Zipcode); lk != "" {
			if _, seen := idx.loose[lk]; !seen {
				idx.loose[lk] = row
			}
		}
	}
	return idx
}

// Match resolves a single candidate against the index. The exact tier is
// tried first; a candidate matching neither tier is excluded.
func (idx *Index) Match(c Candidate) (MatchResult, bool) {
	contact := c.Contact

	var (
		row       ReferenceAddressRow
		matchType string
		found     bool
	)
	if fk := FullKey(contact.Address, contact.City, contact.Zipcode); fk != "" {
		row, found = idx.exact[fk]
		matchType = MatchExact
	}
	if !found {
		if lk := LooseKey(contact.Address, contact.Zipcode); lk != "" {
			row, found = idx.loose[lk]
			matchType = MatchLoose
		}
	}
	if !found {
		return MatchResult{}, false
	}

	return MatchResult{
		SubmissionID: c.SubmissionID,
		UserID:       c.UserID,
		SubmittedAt:  c.SubmittedAt,
		ContactID:    contact.ID,
		FullName:     contact.FullName,
		Address:      contact.Address,
		City:         contact.City,
		Zipcode:      contact.Zipcode,
		Phone:        contact.Phone,
		MatchType:    matchType,
		OTMAddress:   row.Address,
		OTMCity:      row.City,
		OTMZipcode:   row.Zipcode,
	}, true
}

// MatchAll matches every "Potentially French" candidate against the
// reference rows, in candidate order. Candidates with any other status are
// ignored.
func MatchAll(rows []ReferenceAddressRow, candidates []Candidate) []MatchResult {
	idx := BuildIndex(rows)
	results := make([]MatchResult, 0)
	for _, c := range candidates {
		if c.Contact.Status != model.StatusPotentiallyFrench {
			continue
		}
		if res, ok := idx.Match(c); ok {
			results = append(results, res)
		}
	}
	return results
}

// Report is the response of one cross-check run.
type Report struct {
	OTMRowCount     int           `json:"otmRowCount"`
	OTMRawRowCount  int           `json:"otmRawRowCount"`
	SubmissionCount int           `json:"submissionCount"`
	MatchCount      int           `json:"matchCount"`
	Matches         []MatchResult `json:"matches"`
}
