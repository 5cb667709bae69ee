package model

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm/schema"
)

// Review states for a submission.
const (
	ReviewPending  = "pending"
	ReviewInReview = "in_review"
	ReviewReviewed = "reviewed"
)

// IsKnownReviewStatus reports whether s is a valid review status.
func IsKnownReviewStatus(s string) bool {
	return s == ReviewPending || s == ReviewInReview || s == ReviewReviewed
}

// Submission is one canvasser's completed territory review handed to a
// reviewer. Contacts are embedded as an ordered JSONB snapshot taken at
// submit time; the counters are a cache over that snapshot and must be
// recomputed wholesale whenever the snapshot changes.
type Submission struct {
	ID                 int64          `json:"id" gorm:"primaryKey;autoIncrement"`
	OrgID              string         `json:"org_id,omitempty" gorm:"column:org_id"`
	UserID             string         `json:"user_id" gorm:"index;type:text" validate:"required"`
	SubmittedAt        time.Time      `json:"submitted_at" gorm:"index"`
	ContactCount       int            `json:"contact_count" gorm:"column:contact_count"`
	PotentiallyFrench  int            `json:"potentially_french" gorm:"column:potentially_french"`
	NotFrench          int            `json:"not_french" gorm:"column:not_french"`
	Duplicate          int            `json:"duplicate" gorm:"column:duplicate"`
	NotChecked         int            `json:"not_checked" gorm:"column:not_checked"`
	GlobalNotes        string         `json:"global_notes,omitempty" gorm:"type:text"`
	TerritoryZipcode   string         `json:"territory_zipcode,omitempty" gorm:"type:text"`
	TerritoryPageRange string         `json:"territory_page_range,omitempty" gorm:"type:text"`
	Contacts           datatypes.JSON `json:"contacts" gorm:"type:jsonb;not null"`
	ReviewStatus       string         `json:"review_status" gorm:"type:text;default:pending"`
	Archived           bool           `json:"archived" gorm:"default:false"`
	CreatedAt          time.Time      `json:"created_at,omitempty" gorm:"autoCreateTime"`
	UpdatedAt          time.Time      `json:"updated_at,omitempty" gorm:"autoUpdateTime"`
	LastMetadata       datatypes.JSON `json:"last_metadata,omitempty" gorm:"type:jsonb;column:last_metadata"`
}

// TableName specifies the table name for the Submission model, respecting the Namer.
func (Submission) TableName(namer schema.Namer) string {
	return namer.TableName("submissions")
}

// DecodeContacts unmarshals the embedded contact snapshot.
func (s *Submission) DecodeContacts() ([]Contact, error) {
	if len(s.Contacts) == 0 {
		return nil, nil
	}
	var contacts []Contact
	if err := json.Unmarshal(s.Contacts, &contacts); err != nil {
		return nil, err
	}
	return contacts, nil
}

// SetContacts replaces the embedded contact snapshot. Counters are NOT
// updated here; callers recompute them from the new snapshot.
func (s *Submission) SetContacts(contacts []Contact) error {
	data, err := json.Marshal(contacts)
	if err != nil {
		return err
	}
	s.Contacts = datatypes.JSON(data)
	return nil
}
