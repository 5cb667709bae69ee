package handler

import (
	"context"
	"encoding/json"
	"fmt"

	"gitlab.com/beaubassin/api/canvass-triage-processor/internal/apperrors"
	"gitlab.com/beaubassin/api/canvass-triage-processor/internal/model"
	"gitlab.com/beaubassin/api/canvass-triage-processor/pkg/logger"
	"go.uber.org/zap"
)

// ReviewHandler processes canvasser submission events
type ReviewHandler struct {
	service ReviewService
}

// ReviewService defines the interface for submission processing
type ReviewService interface {
	ProcessSubmission(ctx context.Context, submission model.SubmissionPayload, metadata *model.LastMetadata) error
}

// NewReviewHandler creates a new submission event handler
func NewReviewHandler(service ReviewService) *ReviewHandler {
	return &ReviewHandler{
		service: service,
	}
}

// HandleEvent processes submission events
func (h *ReviewHandler) HandleEvent(ctx context.Context, eventType model.EventType, metadata *model.MessageMetadata, rawEvent []byte) error {
	log := logger.FromContext(ctx)
	log.Info("Processing review event", zap.String("type", string(eventType)))

	lastMetadata := metadata.ToLastMetadata()
	var err error

	switch eventType {
	case model.V1SubmissionsCreate:
		err = h.handleSubmission(ctx, lastMetadata, rawEvent)
	default:
		unsupportedErr := fmt.Errorf("unsupported review event type: %s", eventType)
		log.Error("Unsupported review event type", zap.String("eventType", string(eventType)))
		err = apperrors.NewFatal(unsupportedErr, "unsupported review event type")
	}

	// Return the error (already wrapped by handlers or service layer)
	return err
}

// handleSubmission processes a submission create event
func (h *ReviewHandler) handleSubmission(ctx context.Context, metadata *model.LastMetadata, rawEvent []byte) error {
	log := logger.FromContext(ctx)

	var submission model.SubmissionPayload
	if err := json.Unmarshal(rawEvent, &submission); err != nil {
		log.Error("Failed to unmarshal submission payload", zap.Error(err))
		// Wrap unmarshal error as Fatal
		return apperrors.NewFatal(err, "failed to unmarshal submission payload")
	}

	if len(submission.Contacts) == 0 {
		log.Warn("No contacts in submission payload", zap.String("user_id", submission.UserID))
		return nil
	}

	log.Info("Processing submission", zap.String("user_id", submission.UserID), zap.Int("count", len(submission.Contacts)))
	// Return error directly from service (already wrapped)
	return h.service.ProcessSubmission(ctx, submission, metadata)
}
