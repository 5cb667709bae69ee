package usecase

import (
	"context"
	"fmt"

	"gitlab.com/beaubassin/api/canvass-triage-processor/internal/org"
	"gitlab.com/beaubassin/api/canvass-triage-processor/internal/storage"
	"gitlab.com/beaubassin/api/canvass-triage-processor/internal/triage"
)

// EventService implements batch intake, submission review and the admin
// operations built on top of them
type EventService struct {
	batchRepo          storage.BatchRepo
	submissionRepo     storage.SubmissionRepo
	otmFileRepo        storage.OTMFileRepo
	detectionRunRepo   storage.DetectionRunRepo
	exhaustedEventRepo storage.ExhaustedEventRepo
	territory          *triage.Territory
	detectionWorker    IDetectionWorker // Use the interface type
}

// NewEventService creates a new event service
func NewEventService(
	batchRepo storage.BatchRepo,
	submissionRepo storage.SubmissionRepo,
	otmFileRepo storage.OTMFileRepo,
	detectionRunRepo storage.DetectionRunRepo,
	exhaustedEventRepo storage.ExhaustedEventRepo,
	territory *triage.Territory,
	detectionWorker IDetectionWorker,
) *EventService {
	return &EventService{
		batchRepo:          batchRepo,
		submissionRepo:     submissionRepo,
		otmFileRepo:        otmFileRepo,
		detectionRunRepo:   detectionRunRepo,
		exhaustedEventRepo: exhaustedEventRepo,
		territory:          territory,
		detectionWorker:    detectionWorker, // Assign worker pool
	}
}

// validatePayloadOrg validates that the payload org field matches the org ID from context
func validatePayloadOrg(ctx context.Context, payloadOrg string) error {
	if payloadOrg == "" {
		return nil // Skip validation if org is not provided
	}

	orgID, err := org.FromContext(ctx)
	if err != nil {
		return fmt.Errorf("failed to get org ID: %w", err)
	}

	if payloadOrg != orgID {
		return fmt.Errorf("payload org (%s) does not match org ID (%s)", payloadOrg, orgID)
	}

	return nil
}
