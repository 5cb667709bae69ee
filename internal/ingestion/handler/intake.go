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

// IntakeHandler processes contact batch import events
type IntakeHandler struct {
	service IntakeService
}

// IntakeService defines the interface for contact batch processing
type IntakeService interface {
	ProcessContactBatch(ctx context.Context, batch model.ContactBatchPayload, metadata *model.LastMetadata) error
}

// NewIntakeHandler creates a new contact batch event handler
func NewIntakeHandler(service IntakeService) *IntakeHandler {
	return &IntakeHandler{
		service: service,
	}
}

// HandleEvent processes batch triage events
func (h *IntakeHandler) HandleEvent(ctx context.Context, eventType model.EventType, metadata *model.MessageMetadata, rawEvent []byte) error {
	log := logger.FromContext(ctx)
	log.Info("Processing intake event", zap.String("type", string(eventType)))

	lastMetadata := metadata.ToLastMetadata()
	var err error

	switch eventType {
	case model.V1BatchesTriage:
		err = h.handleContactBatch(ctx, lastMetadata, rawEvent)
	default:
		unsupportedErr := fmt.Errorf("unsupported intake event type: %s", eventType)
		log.Error("Unsupported intake event type", zap.String("eventType", string(eventType)))
		err = apperrors.NewFatal(unsupportedErr, "unsupported intake event type")
	}

	// Return the error (already wrapped by handlers or service layer)
	return err
}

// handleContactBatch processes a batch triage event
func (h *IntakeHandler) handleContactBatch(ctx context.Context, metadata *model.LastMetadata, rawEvent []byte) error {
	log := logger.FromContext(ctx)

	var batch model.ContactBatchPayload
	if err := json.Unmarshal(rawEvent, &batch); err != nil {
		log.Error("Failed to unmarshal contact batch payload", zap.Error(err))
		// Wrap unmarshal error as Fatal
		return apperrors.NewFatal(err, "failed to unmarshal contact batch payload")
	}

	if len(batch.Contacts) == 0 {
		log.Warn("No contacts in batch triage payload", zap.String("batch_id", batch.BatchID))
		return nil
	}

	log.Info("Processing contact batch", zap.String("batch_id", batch.BatchID), zap.Int("count", len(batch.Contacts)))
	// Return error directly from service (already wrapped)
	return h.service.ProcessContactBatch(ctx, batch, metadata)
}
