package triage

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"gitlab.com/beaubassin/api/canvass-triage-processor/internal/model"
)

func TestAggregate(t *testing.T) {
	contacts := []model.Contact{
		{ID: "a", Status: model.StatusPotentiallyFrench},
		{ID: "b", Status: model.StatusPotentiallyFrench},
		{ID: "c", Status: model.StatusNotFrench},
		{ID: "d", Status: model.StatusDuplicate},
		{ID: "e", Status: model.StatusNotChecked},
		{ID: "f", Status: model.StatusDetected},
	}

	stats := Aggregate(contacts)

	assert.Equal(t, 6, stats.Count)
	assert.Equal(t, 2, stats.PotentiallyFrench)
	assert.Equal(t, 1, stats.NotFrench)
	assert.Equal(t, 1, stats.Duplicate)
	assert.Equal(t, 1, stats.NotChecked, "Detected contacts count toward Count only")

	// The buckets only sum to the total when no contact is Detected.
	sum := stats.PotentiallyFrench + stats.NotFrench + stats.Duplicate + stats.NotChecked
	assert.Equal(t, stats.Count-1, sum)
}

func TestAggregateEmpty(t *testing.T) {
	stats := Aggregate(nil)
	assert.Equal(t, Stats{}, stats)
}

func TestApplyStats(t *testing.T) {
	sub := &model.Submission{ID: 7}

	ApplyStats(sub, Stats{Count: 4, PotentiallyFrench: 2, NotFrench: 1, Duplicate: 1})

	assert.Equal(t, 4, sub.ContactCount)
	assert.Equal(t, 2, sub.PotentiallyFrench)
	assert.Equal(t, 1, sub.NotFrench)
	assert.Equal(t, 1, sub.Duplicate)
	assert.Equal(t, 0, sub.NotChecked)
}
