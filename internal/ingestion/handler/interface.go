package handler

import (
	"context"

	"gitlab.com/beaubassin/api/canvass-triage-processor/internal/model"
)

// EventHandlerInterface defines the common interface for event handlers
type EventHandlerInterface interface {
	// HandleEvent processes an event
	HandleEvent(ctx context.Context, eventType model.EventType, metadata *model.MessageMetadata, rawEvent []byte) error
}

// IntakeHandlerInterface defines the interface for contact batch event handlers
type IntakeHandlerInterface interface {
	EventHandlerInterface
}

// ReviewHandlerInterface defines the interface for submission event handlers
type ReviewHandlerInterface interface {
	EventHandlerInterface
}

// Ensure the handlers implement the interfaces
var _ IntakeHandlerInterface = (*IntakeHandler)(nil)
var _ ReviewHandlerInterface = (*ReviewHandler)(nil)
