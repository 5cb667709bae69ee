package model

import (
	"time"

	"gorm.io/gorm/schema"
)

// DetectionRun records one async name-classification pass over a triage
// batch, for operator audit of the detection pipeline.
type DetectionRun struct {
	ID              int64     `json:"id" gorm:"primaryKey;autoIncrement"`
	BatchID         string    `json:"batch_id" gorm:"index;type:text" validate:"required"`
	OrgID           string    `json:"org_id,omitempty" gorm:"column:org_id"`
	ContactsChecked int       `json:"contacts_checked"`
	ContactsMarked  int       `json:"contacts_marked"`
	DictionaryState string    `json:"dictionary_state" gorm:"type:text"`
	DurationMs      int64     `json:"duration_ms"`
	CreatedAt       time.Time `json:"created_at" gorm:"autoCreateTime"`
}

// TableName specifies the table name for the DetectionRun model, respecting the Namer.
func (DetectionRun) TableName(namer schema.Namer) string {
	return namer.TableName("detection_runs")
}
