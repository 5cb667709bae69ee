package usecase

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/datatypes"

	apperrors "gitlab.com/beaubassin/api/canvass-triage-processor/internal/apperrors"
	"gitlab.com/beaubassin/api/canvass-triage-processor/internal/model"
	"gitlab.com/beaubassin/api/canvass-triage-processor/internal/org"
	"gitlab.com/beaubassin/api/canvass-triage-processor/internal/triage"
	"gitlab.com/beaubassin/api/canvass-triage-processor/internal/validator"
	"gitlab.com/beaubassin/api/canvass-triage-processor/pkg/logger"
	"gitlab.com/beaubassin/api/canvass-triage-processor/pkg/utils"
)

// ProcessContactBatch handles the ingestion of a freshly imported contact
// batch: duplicate marking and territory flags run synchronously, name
// detection is handed off to the worker pool.
func (s *EventService) ProcessContactBatch(ctx context.Context, batch model.ContactBatchPayload, metadata *model.LastMetadata) error {
	log := logger.FromContext(ctx)
	start := utils.Now()

	// Validate input
	if err := validator.Validate(batch); err != nil {
		log.Error("Contact batch validation failed",
			zap.String("batch_id", batch.BatchID),
			zap.String("user_id", batch.UserID),
			zap.Error(err),
		)
		return apperrors.NewFatal(err, "contact batch validation failed")
	}

	// Extract org ID
	orgID, err := org.FromContext(ctx)
	if err != nil || orgID == "" {
		log.Error("Failed to get org ID from context",
			zap.Error(err),
		)
		return apperrors.NewFatal(err, "failed to get org ID from context")
	}

	// Validate that the payload org matches the org ID from context
	if err := validatePayloadOrg(ctx, batch.OrgID); err != nil {
		log.Error("Org validation failed for contact batch",
			zap.String("batch_id", batch.BatchID),
			zap.String("payload_org", batch.OrgID),
			zap.String("context_org", orgID),
			zap.Error(err),
		)
		// Org mismatch is fatal
		return apperrors.NewFatal(err, "org validation failed for contact batch")
	}

	// Convert metadata to datatypes.JSON for storage
	var metadataJSON datatypes.JSON
	if metadata != nil {
		metadataMap := map[string]interface{}{
			"consumer_sequence": metadata.ConsumerSequence,
			"stream_sequence":   metadata.StreamSequence,
			"stream":            metadata.Stream,
			"consumer":          metadata.Consumer,
			"domain":            metadata.Domain,
			"message_id":        metadata.MessageID,
			"message_subject":   metadata.MessageSubject,
			"processed_at":      utils.Now(),
		}
		metadataJSON = utils.MustMarshalJSON(metadataMap)
	}

	// Convert wire contacts to the stored shape
	contacts := make([]model.Contact, 0, len(batch.Contacts))
	for _, payload := range batch.Contacts {
		contacts = append(contacts, payload.ToContact())
	}

	// Synchronous triage pass: duplicates first, then territory flags
	contacts = triage.MarkDuplicates(contacts)
	s.territory.FlagContacts(contacts)

	dbBatch := model.TriageBatch{
		BatchID:            batch.BatchID,
		OrgID:              orgID,
		UserID:             batch.UserID,
		TerritoryZipcode:   batch.TerritoryZipcode,
		TerritoryPageRange: batch.TerritoryPageRange,
		DetectionStatus:    model.DetectionPending,
		LastMetadata:       metadataJSON,
	}
	if err := dbBatch.SetContacts(contacts); err != nil {
		log.Error("Failed to encode batch contacts", zap.String("batch_id", batch.BatchID), zap.Error(err))
		return apperrors.NewFatal(err, "failed to encode batch contacts")
	}

	if err := s.batchRepo.Save(ctx, dbBatch); err != nil {
		logFields := []zap.Field{
			zap.String("batch_id", batch.BatchID),
			zap.Int("count", len(contacts)),
			zap.Error(err),
		}
		if errors.Is(err, apperrors.ErrDatabase) || errors.Is(err, apperrors.ErrTimeout) || errors.Is(err, apperrors.ErrConflict) {
			log.Warn("Potentially retryable error saving triage batch", logFields...)
			return apperrors.NewRetryable(err, "retryable repository error processing contact batch")
		}
		log.Error("Fatal error saving triage batch", logFields...)
		return apperrors.NewFatal(err, "fatal repository error processing contact batch")
	}

	// Hand the persisted batch to the detection pool. A submit failure
	// leaves the batch pending; it does not fail the ingest.
	if s.detectionWorker != nil {
		// Create a new detached context for the background task
		taskCtx := context.Background()           // Use a fresh background context
		taskCtx = logger.WithLogger(taskCtx, log) // Carry logger forward

		taskData := DetectionTaskData{
			Ctx:     taskCtx, // Pass the detached context
			BatchID: batch.BatchID,
			OrgID:   orgID,
		}
		if submitErr := s.detectionWorker.SubmitTask(taskData); submitErr != nil {
			log.Warn("Failed to submit detection task, batch left pending",
				zap.String("batch_id", batch.BatchID),
				zap.Error(submitErr),
			)
		}
	}

	log.Info("Successfully processed contact batch",
		zap.String("batch_id", batch.BatchID),
		zap.Int("count", len(contacts)),
		zap.Duration("duration", time.Since(start)),
	)
	return nil
}
