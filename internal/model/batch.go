package model

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm/schema"
)

// Detection states for a triage batch. Classification runs async on a
// worker pool after the batch row is persisted.
const (
	DetectionPending = "pending"
	DetectionDone    = "done"
	DetectionFailed  = "failed"
)

// TriageBatch represents an imported contact batch after the synchronous
// triage pass (duplicate marking and territory flags). The contact list is
// stored as a JSONB snapshot; name classification updates it in place.
type TriageBatch struct {
	BatchID            string         `json:"batch_id" gorm:"primaryKey;type:text" validate:"required"`
	OrgID              string         `json:"org_id,omitempty" gorm:"column:org_id"`
	UserID             string         `json:"user_id" gorm:"index;type:text" validate:"required"`
	TerritoryZipcode   string         `json:"territory_zipcode,omitempty" gorm:"type:text"`
	TerritoryPageRange string         `json:"territory_page_range,omitempty" gorm:"type:text"`
	ContactCount       int            `json:"contact_count" gorm:"column:contact_count"`
	Contacts           datatypes.JSON `json:"contacts" gorm:"type:jsonb;not null"`
	DetectionStatus    string         `json:"detection_status" gorm:"type:text;default:pending"`
	CreatedAt          time.Time      `json:"created_at,omitempty" gorm:"autoCreateTime"`
	UpdatedAt          time.Time      `json:"updated_at,omitempty" gorm:"autoUpdateTime"`
	LastMetadata       datatypes.JSON `json:"last_metadata,omitempty" gorm:"type:jsonb;column:last_metadata"`
}

// TableName specifies the table name for the TriageBatch model, respecting the Namer.
func (TriageBatch) TableName(namer schema.Namer) string {
	return namer.TableName("triage_batches")
}

// DecodeContacts unmarshals the embedded contact snapshot.
func (b *TriageBatch) DecodeContacts() ([]Contact, error) {
	if len(b.Contacts) == 0 {
		return nil, nil
	}
	var contacts []Contact
	if err := json.Unmarshal(b.Contacts, &contacts); err != nil {
		return nil, err
	}
	return contacts, nil
}

// SetContacts replaces the embedded contact snapshot and keeps the
// contact count in step with it.
func (b *TriageBatch) SetContacts(contacts []Contact) error {
	data, err := json.Marshal(contacts)
	if err != nil {
		return err
	}
	b.Contacts = datatypes.JSON(data)
	b.ContactCount = len(contacts)
	return nil
}
