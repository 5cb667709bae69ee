package triage

import (
	"gitlab.com/beaubassin/api/canvass-triage-processor/internal/model"
)

// Stats are the persisted per-submission counters. They are a cache over
// the embedded contact snapshot: always recomputed wholesale, never patched
// incrementally. The persisted schema carries no "Detected" bucket, so
// Detected contacts count toward Count only.
type Stats struct {
	Count             int `json:"contact_count"`
	PotentiallyFrench int `json:"potentially_french"`
	NotFrench         int `json:"not_french"`
	Duplicate         int `json:"duplicate"`
	NotChecked        int `json:"not_checked"`
}

// Aggregate tallies contacts by status.
func Aggregate(contacts []model.Contact) Stats {
	stats := Stats{Count: len(contacts)}
	for i := range contacts {
		switch contacts[i].Status {
		case model.StatusPotentiallyFrench:
			stats.PotentiallyFrench++
		case model.StatusNotFrench:
			stats.NotFrench++
		case model.StatusDuplicate:
			stats.Duplicate++
		case model.StatusNotChecked:
			stats.NotChecked++
		}
	}
	return stats
}

// ApplyStats writes freshly computed counters onto a submission.
func ApplyStats(s *model.Submission, stats Stats) {
	s.ContactCount = stats.Count
	s.PotentiallyFrench = stats.PotentiallyFrench
	s.NotFrench = stats.NotFrench
	s.Duplicate = stats.Duplicate
	s.NotChecked = stats.NotChecked
}
