package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// --- Contact wire shape --- //

// ContactPayload is one contact as published by the canvasser UI. Every
// field beyond the names is free text and may be empty.
type ContactPayload struct {
	ID        string `json:"id,omitempty" validate:"omitempty"`
	FirstName string `json:"first_name,omitempty" validate:"omitempty"`
	LastName  string `json:"last_name,omitempty" validate:"omitempty"`
	Address   string `json:"address,omitempty" validate:"omitempty"`
	City      string `json:"city,omitempty" validate:"omitempty"`
	Zipcode   string `json:"zipcode,omitempty" validate:"omitempty"`
	Phone     string `json:"phone,omitempty" validate:"omitempty"`
	Notes     string `json:"notes,omitempty" validate:"omitempty"`
	Status    string `json:"status,omitempty" validate:"omitempty"`
}

// ToContact converts the wire contact into the stored shape. Contacts
// arriving without an id are assigned one; an unknown or missing status
// falls back to the default. FullName is always derived server side.
func (p ContactPayload) ToContact() Contact {
	c := Contact{
		ID:        p.ID,
		FirstName: p.FirstName,
		LastName:  p.LastName,
		Address:   p.Address,
		City:      p.City,
		Zipcode:   p.Zipcode,
		Phone:     p.Phone,
		Notes:     p.Notes,
		Status:    p.Status,
	}
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if !IsKnownStatus(c.Status) {
		c.Status = StatusNotChecked
	}
	c.RecomputeFullName()
	return c
}

// --- Batch triage NATS payload --- //

// ContactBatchPayload is the payload for the batch triage event.
type ContactBatchPayload struct {
	BatchID            string           `json:"batch_id,omitempty" validate:"required"`
	OrgID              string           `json:"org_id,omitempty" validate:"required"`
	UserID             string           `json:"user_id,omitempty" validate:"required"`
	TerritoryZipcode   string           `json:"territory_zipcode,omitempty" validate:"omitempty"`
	TerritoryPageRange string           `json:"territory_page_range,omitempty" validate:"omitempty"`
	Contacts           []ContactPayload `json:"contacts" validate:"required,dive"`
}

// --- Submission NATS payload --- //

// SubmissionPayload is the payload for the submission create event. Any
// counters the client may have computed are ignored; the server recomputes
// them from the contact list.
type SubmissionPayload struct {
	OrgID              string           `json:"org_id,omitempty" validate:"required"`
	UserID             string           `json:"user_id,omitempty" validate:"required"`
	GlobalNotes        string           `json:"global_notes,omitempty" validate:"omitempty"`
	TerritoryZipcode   string           `json:"territory_zipcode,omitempty" validate:"omitempty"`
	TerritoryPageRange string           `json:"territory_page_range,omitempty" validate:"omitempty"`
	Contacts           []ContactPayload `json:"contacts" validate:"required,dive"`
}

// --- DLQ Payload --- //
// DLQPayload represents the structure of messages sent to the Dead Letter Queue.
type DLQPayload struct {
	SourceSubject   string          `json:"source_subject"`          // The original subject the message was published to
	Org             string          `json:"org"`                     // The org ID associated with the message
	OriginalPayload json.RawMessage `json:"original_payload"`        // The raw JSON payload of the original message
	Error           string          `json:"error"`                   // The full error message encountered during processing
	ErrorType       string          `json:"error_type"`              // Type of error ('fatal', 'retryable', 'unknown')
	RetryCount      uint64          `json:"retry_count"`             // How many times delivery was attempted (NumDelivered from NATS metadata)
	MaxRetry        int             `json:"max_retry"`               // The configured maximum delivery attempts for the consumer
	NextRetryAt     *time.Time      `json:"next_retry_at,omitempty"` // Timestamp for the next scheduled retry attempt (set by DLQ worker)
	Timestamp       time.Time       `json:"ts"`                      // Timestamp when the message was sent to the DLQ
}
