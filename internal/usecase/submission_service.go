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

// ProcessSubmission persists a canvasser's completed territory review.
// Submissions are append only; the latest row per user wins. All counters
// are recomputed server side from the contact list.
func (s *EventService) ProcessSubmission(ctx context.Context, submission model.SubmissionPayload, metadata *model.LastMetadata) error {
	log := logger.FromContext(ctx)
	start := utils.Now()

	// Validate input
	if err := validator.Validate(submission); err != nil {
		log.Error("Submission validation failed",
			zap.String("user_id", submission.UserID),
			zap.Error(err),
		)
		return apperrors.NewFatal(err, "submission validation failed")
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
	if err := validatePayloadOrg(ctx, submission.OrgID); err != nil {
		log.Error("Org validation failed for submission",
			zap.String("user_id", submission.UserID),
			zap.String("payload_org", submission.OrgID),
			zap.String("context_org", orgID),
			zap.Error(err),
		)
		// Org mismatch is fatal
		return apperrors.NewFatal(err, "org validation failed for submission")
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

	// Convert wire contacts to the stored shape, preserving order
	contacts := make([]model.Contact, 0, len(submission.Contacts))
	for _, payload := range submission.Contacts {
		contacts = append(contacts, payload.ToContact())
	}

	dbSubmission := model.Submission{
		OrgID:              orgID,
		UserID:             submission.UserID,
		SubmittedAt:        utils.Now(),
		GlobalNotes:        submission.GlobalNotes,
		TerritoryZipcode:   submission.TerritoryZipcode,
		TerritoryPageRange: submission.TerritoryPageRange,
		ReviewStatus:       model.ReviewPending,
		LastMetadata:       metadataJSON,
	}
	if err := dbSubmission.SetContacts(contacts); err != nil {
		log.Error("Failed to encode submission contacts", zap.String("user_id", submission.UserID), zap.Error(err))
		return apperrors.NewFatal(err, "failed to encode submission contacts")
	}

	// Counters are a cache over the snapshot, recomputed wholesale
	triage.ApplyStats(&dbSubmission, triage.Aggregate(contacts))

	if err := s.submissionRepo.Insert(ctx, &dbSubmission); err != nil {
		logFields := []zap.Field{
			zap.String("user_id", submission.UserID),
			zap.Int("count", len(contacts)),
			zap.Error(err),
		}
		if errors.Is(err, apperrors.ErrDatabase) || errors.Is(err, apperrors.ErrTimeout) || errors.Is(err, apperrors.ErrConflict) {
			log.Warn("Potentially retryable error inserting submission", logFields...)
			return apperrors.NewRetryable(err, "retryable repository error processing submission")
		}
		log.Error("Fatal error inserting submission", logFields...)
		return apperrors.NewFatal(err, "fatal repository error processing submission")
	}

	log.Info("Successfully processed submission",
		zap.Int64("submission_id", dbSubmission.ID),
		zap.String("user_id", submission.UserID),
		zap.Int("count", len(contacts)),
		zap.Int("potentially_french", dbSubmission.PotentiallyFrench),
		zap.Duration("duration", time.Since(start)),
	)
	return nil
}
