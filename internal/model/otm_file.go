package model

import (
	"time"

	"gorm.io/gorm/schema"
)

// OTMFileID is the fixed primary key of the single stored reference
// workbook. Uploading a new workbook replaces the previous one.
const OTMFileID int64 = 1

// OTMFile holds the externally maintained reference address workbook used
// by the address cross-check. A single row per org schema.
type OTMFile struct {
	ID         int64     `json:"id" gorm:"primaryKey"`
	Filename   string    `json:"filename" gorm:"type:text"`
	FileData   []byte    `json:"-" gorm:"type:bytea"`
	UploadedAt time.Time `json:"uploaded_at"`
}

// TableName specifies the table name for the OTMFile model, respecting the Namer.
func (OTMFile) TableName(namer schema.Namer) string {
	return namer.TableName("otm_files")
}
