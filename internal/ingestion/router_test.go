package ingestion

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"gitlab.com/beaubassin/api/canvass-triage-processor/internal/model"
	"gitlab.com/beaubassin/api/canvass-triage-processor/internal/org"
	"gitlab.com/beaubassin/api/canvass-triage-processor/pkg/logger"
	"go.uber.org/zap/zaptest"
)

// MockHandler definition is now in jetstream_test.go

func TestRouter_Register(t *testing.T) {
	// Create a new router and mock handler
	router := NewRouter()
	mockHandler := new(MockHandler)

	// Create a handler function that forwards to the mock
	handler := func(ctx context.Context, eventType model.EventType, metadata *model.MessageMetadata, rawEvent []byte) error {
		return mockHandler.Handle(ctx, eventType, metadata, rawEvent)
	}

	// Register the handler
	eventType := model.EventType("test.event")
	router.Register(eventType, handler)

	// Verify the handler was registered by checking the map directly
	assert.NotNil(t, router.handlers[eventType], "Handler should be registered")
}

func TestRouter_RegisterDefault(t *testing.T) {
	// Create a new router and mock handler
	router := NewRouter()
	mockHandler := new(MockHandler)

	// Create a handler function that forwards to the mock
	handler := func(ctx context.Context, eventType model.EventType, metadata *model.MessageMetadata, rawEvent []byte) error {
		return mockHandler.Handle(ctx, eventType, metadata, rawEvent)
	}

	// Register the default handler
	router.RegisterDefault(handler)

	// Verify the default handler was registered
	assert.NotNil(t, router.defaultHandler, "Default handler should be registered")
}

func TestRouter_Route_ExactMatch(t *testing.T) {
	// Create a new router and mock handler
	router := NewRouter()
	mockHandler := new(MockHandler)

	// Create a handler function that forwards to the mock
	handler := func(ctx context.Context, eventType model.EventType, metadata *model.MessageMetadata, rawEvent []byte) error {
		return mockHandler.Handle(ctx, eventType, metadata, rawEvent)
	}

	// Register the handler for a specific event type using a constant
	eventType := model.V1BatchesTriage // Use a known constant
	router.Register(eventType, handler)

	// Create message metadata and raw event
	rawEvent := []byte(`{"key":"value"}`)
	metadata := &model.MessageMetadata{
		MessageSubject: string(eventType), // Use the constant string
		MessageID:      "msg-123",
		OrgID:          "org-1",
	}

	// Set up expectations for the mock handler
	mockHandler.On("Handle", mock.Anything, eventType, metadata, rawEvent).Return(nil)

	// Create test context with logger
	ctx := logger.WithLogger(context.Background(), zaptest.NewLogger(t))

	// Route the event
	err := router.Route(ctx, metadata, rawEvent)

	// Verify expectations
	assert.NoError(t, err)
	mockHandler.AssertExpectations(t)
}

func TestRouter_Route_DefaultHandler(t *testing.T) {
	// Create a new router and mock handlers
	router := NewRouter()
	mockDefaultHandler := new(MockHandler)

	// Create handler functions that forward to the mocks
	defaultHandler := func(ctx context.Context, eventType model.EventType, metadata *model.MessageMetadata, rawEvent []byte) error {
		return mockDefaultHandler.Handle(ctx, eventType, metadata, rawEvent)
	}

	// Register only the default handler
	router.RegisterDefault(defaultHandler)

	// Create message metadata and raw event for an UNREGISTERED event type
	// MapToBaseEventType needs to fail for this test to hit the default handler.
	// Use a subject that MapToBaseEventType won't recognize.
	unregisteredSubject := "invalid.subject.format"
	rawEvent := []byte(`{"key":"value"}`)
	metadata := &model.MessageMetadata{
		MessageSubject: unregisteredSubject,
		MessageID:      "msg-456",
		OrgID:          "org-2",
	}

	// Set up expectations for the default handler.
	// The eventType passed to the default handler will be derived by MapToBaseEventType,
	// which will be empty if the subject is invalid.
	mockDefaultHandler.On("Handle", mock.Anything, model.EventType(""), metadata, rawEvent).Return(nil)

	// Create test context with logger
	ctx := logger.WithLogger(context.Background(), zaptest.NewLogger(t))

	// Route the event
	err := router.Route(ctx, metadata, rawEvent)

	// Verify expectations
	assert.NoError(t, err)
	mockDefaultHandler.AssertExpectations(t)
}

func TestRouter_Route_NoHandler(t *testing.T) {
	// Create a new router without any handlers
	router := NewRouter()

	// Create message metadata and raw event for an UNREGISTERED type
	unregisteredSubject := "another.invalid.subject"
	rawEvent := []byte(`{"key":"value"}`)
	metadata := &model.MessageMetadata{
		MessageSubject: unregisteredSubject,
		MessageID:      "msg-789",
		OrgID:          "org-3",
	}

	// Create test context with logger
	ctx := logger.WithLogger(context.Background(), zaptest.NewLogger(t))

	// Route the event
	err := router.Route(ctx, metadata, rawEvent)

	// Verify no error is returned, and no handler was called (implicit check)
	assert.NoError(t, err)
}

func TestRouter_Route_HandleError(t *testing.T) {
	// Create a new router and mock handler
	router := NewRouter()
	mockHandler := new(MockHandler)

	// Create a handler function that forwards to the mock
	handler := func(ctx context.Context, eventType model.EventType, metadata *model.MessageMetadata, rawEvent []byte) error {
		return mockHandler.Handle(ctx, eventType, metadata, rawEvent)
	}

	// Register the handler for a specific event type using a constant
	eventType := model.V1SubmissionsCreate // Use a known constant
	router.Register(eventType, handler)

	// Create message metadata and raw event
	rawEvent := []byte(`{"key":"value"}`)
	metadata := &model.MessageMetadata{
		MessageSubject: string(eventType), // Use the constant string
		MessageID:      "msg-123",
		OrgID:          "org-1",
	}

	// Set up expectations for the mock handler to return an error
	expectedErr := errors.New("handler error")
	mockHandler.On("Handle", mock.Anything, eventType, metadata, rawEvent).Return(expectedErr)

	// Create test context with logger
	ctx := logger.WithLogger(context.Background(), zaptest.NewLogger(t))

	// Route the event
	err := router.Route(ctx, metadata, rawEvent)

	// Verify the error is propagated
	assert.Error(t, err)
	assert.Equal(t, expectedErr, err)
	mockHandler.AssertExpectations(t)
}

func TestRouter_Route_OrgContext(t *testing.T) {
	// Create a new router and mock handler
	router := NewRouter()
	mockHandler := new(MockHandler)

	// Create a handler function that checks for org ID in context
	handler := func(ctx context.Context, eventType model.EventType, metadata *model.MessageMetadata, rawEvent []byte) error {
		// Extract org ID from context
		orgID, err := org.FromContext(ctx)
		if err != nil {
			return err
		}

		// Verify org ID matches metadata
		if orgID != metadata.OrgID {
			return errors.New("org ID mismatch")
		}

		return mockHandler.Handle(ctx, eventType, metadata, rawEvent)
	}

	// Register the handler for a specific event type using a constant
	eventType := model.V1BatchesTriage // Use a known constant
	router.Register(eventType, handler)

	// Create message metadata and raw event
	rawEvent := []byte(`{"key":"value"}`)
	metadata := &model.MessageMetadata{
		MessageSubject: string(eventType), // Use the constant string
		MessageID:      "msg-123",
		OrgID:          "org-1",
	}

	// Set up expectations for the mock handler
	mockHandler.On("Handle", mock.Anything, eventType, metadata, rawEvent).Return(nil)

	// Create test context with logger
	ctx := logger.WithLogger(context.Background(), zaptest.NewLogger(t))

	// Route the event
	err := router.Route(ctx, metadata, rawEvent)

	// Verify the org ID was correctly set in context and the handler succeeded
	assert.NoError(t, err)
	mockHandler.AssertExpectations(t)
}

func TestRouter_Route_LoggerContext(t *testing.T) {
	// Create a new router and mock handler
	router := NewRouter()
	mockHandler := new(MockHandler)

	// Create a handler function that checks for logger in context
	handler := func(ctx context.Context, eventType model.EventType, metadata *model.MessageMetadata, rawEvent []byte) error {
		// Extract logger from context
		log := logger.FromContext(ctx)

		// Verify logger exists and has fields
		if log == nil {
			return errors.New("logger not found in context")
		}

		return mockHandler.Handle(ctx, eventType, metadata, rawEvent)
	}

	// Register the handler for a specific event type using a constant
	eventType := model.V1SubmissionsCreate // Use a known constant
	router.Register(eventType, handler)

	// Create message metadata and raw event
	rawEvent := []byte(`{"key":"value"}`)
	metadata := &model.MessageMetadata{
		MessageSubject: string(eventType), // Use the constant string
		MessageID:      "msg-123",
		OrgID:          "org-1",
	}

	// Set up expectations for the mock handler
	mockHandler.On("Handle", mock.Anything, eventType, metadata, rawEvent).Return(nil)

	// Create test context with logger
	baseLogger := zaptest.NewLogger(t)
	ctx := logger.WithLogger(context.Background(), baseLogger)

	// Route the event
	err := router.Route(ctx, metadata, rawEvent)

	// Verify the logger was correctly enhanced in context and the handler succeeded
	assert.NoError(t, err)
	mockHandler.AssertExpectations(t)
}

func TestRouter_Route_OrgSuffixStripped(t *testing.T) {
	// Create a new router and mock handler
	router := NewRouter()
	mockHandler := new(MockHandler)

	// Create a handler function that verifies the base event type was derived
	handler := func(ctx context.Context, eventType model.EventType, metadata *model.MessageMetadata, rawEvent []byte) error {
		if eventType != model.V1BatchesTriage {
			return errors.New("org suffix was not stripped from subject")
		}
		return mockHandler.Handle(ctx, eventType, metadata, rawEvent)
	}

	// Register the handler with the base type; the subject carries the org suffix
	router.Register(model.V1BatchesTriage, handler)

	// Create message metadata with an org-suffixed subject
	rawEvent := []byte(`{"key":"value"}`)
	metadata := &model.MessageMetadata{
		MessageSubject: string(model.V1BatchesTriage) + ".org-1",
		MessageID:      "msg-123",
		OrgID:          "org-1",
	}

	// Set up expectations for the mock handler, expecting the base constant type
	mockHandler.On("Handle", mock.Anything, model.V1BatchesTriage, metadata, rawEvent).Return(nil)

	// Create test context with logger
	ctx := logger.WithLogger(context.Background(), zaptest.NewLogger(t))

	// Route the event
	err := router.Route(ctx, metadata, rawEvent)

	// Verify the subject was mapped to the base type and the handler succeeded
	assert.NoError(t, err)
	mockHandler.AssertExpectations(t)
}
