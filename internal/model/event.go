package model

import (
	"strings"
	"time"
)

// EventType represents different types of events
type EventType string

// Common event type constants (with versioning)
const (
	// V1BatchesTriage carries a freshly imported contact batch for the
	// synchronous triage pass plus async name classification.
	V1BatchesTriage EventType = "v1.batches.triage"
	// V1SubmissionsCreate carries a canvasser's completed territory review.
	V1SubmissionsCreate EventType = "v1.submissions.create"
)

// MapToBaseEventType attempts to map an input string (potentially carrying a
// trailing org identifier) back to a known base EventType constant.
// It returns the mapped EventType and true if successful, or an empty
// EventType ("") and false if no mapping is found.
func MapToBaseEventType(input string) (EventType, bool) {
	// The input may already be a base type without the org suffix.
	switch EventType(input) {
	case V1BatchesTriage, V1SubmissionsCreate:
		return EventType(input), true
	}

	// Otherwise strip the last component after the final dot and retry.
	lastDotIndex := strings.LastIndex(input, ".")
	if lastDotIndex <= 0 {
		return "", false
	}

	switch base := EventType(input[:lastDotIndex]); base {
	case V1BatchesTriage, V1SubmissionsCreate:
		return base, true
	default:
		return "", false
	}
}

// MessageMetadata carries JetStream delivery metadata alongside a consumed
// message for logging and provenance.
type MessageMetadata struct {
	ConsumerSequence uint64
	StreamSequence   uint64
	NumDelivered     uint64
	NumPending       uint64
	Timestamp        time.Time
	Stream           string
	Consumer         string
	Domain           string
	MessageID        string
	MessageSubject   string
	OrgID            string
}

// ToLastMetadata converts MessageMetadata to LastMetadata
func (e MessageMetadata) ToLastMetadata() *LastMetadata {
	return &LastMetadata{
		ConsumerSequence: int64(e.ConsumerSequence),
		StreamSequence:   int64(e.StreamSequence),
		Stream:           e.Stream,
		Consumer:         e.Consumer,
		Domain:           e.Domain,
		MessageID:        e.MessageID,
		MessageSubject:   e.MessageSubject,
		OrgID:            e.OrgID,
	}
}

// GetVersion extracts the version from an event type
// Returns the version string (e.g., "v1") or an empty string if no version specified
func (e EventType) GetVersion() string {
	parts := strings.SplitN(string(e), ".", 2)
	if len(parts) < 2 {
		return ""
	}

	if len(parts[0]) >= 2 && parts[0][0] == 'v' {
		return parts[0]
	}

	return ""
}

// GetBaseType returns the event type without the version prefix
// For example: "v1.batches.triage" -> "batches.triage"
func (e EventType) GetBaseType() EventType {
	version := e.GetVersion()
	if version == "" {
		return e
	}

	return EventType(strings.TrimPrefix(string(e), version+"."))
}

// WithVersion returns a new EventType with the specified version
// For example: "batches.triage" with version "v2" -> "v2.batches.triage"
func (e EventType) WithVersion(version string) EventType {
	baseType := e.GetBaseType()

	return EventType(version + "." + string(baseType))
}

// LastMetadata represents the delivery metadata of the last message that
// touched a stored row.
type LastMetadata struct {
	ConsumerSequence int64  `json:"consumer_sequence"`
	StreamSequence   int64  `json:"stream_sequence"`
	Stream           string `json:"stream"`
	Consumer         string `json:"consumer"`
	Domain           string `json:"domain"`
	MessageID        string `json:"message_id"`
	MessageSubject   string `json:"message_subject"`
	OrgID            string `json:"org_id"`
}
