package mock

import (
	"context"
	"testing"

	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/mock"
	"gitlab.com/beaubassin/api/canvass-triage-processor/internal/model"
	"go.uber.org/zap/zaptest"
)

// MockSubscription is a helper for creating a mock nats.Subscription
// This is needed because we can't directly create nats.Subscription instances
func MockSubscription() *nats.Subscription {
	// Return a nil pointer that will be type cast to *nats.Subscription
	// This is a common pattern for mocking interfaces with concrete types
	return nil
}

// WithTestContext returns a context with testing logger and org ID
func WithTestContext(t *testing.T, orgID string) context.Context {
	ctx := context.Background()

	// Use a simple approach for testing
	testLogger := zaptest.NewLogger(t)
	ctx = context.WithValue(ctx, contextKey("logger"), testLogger)

	if orgID != "" {
		// Note: in a real implementation you would use org.WithOrgID
		// We're keeping it simple here to avoid introducing dependencies
		ctx = context.WithValue(ctx, contextKey("org_id"), orgID)
	}
	return ctx
}

// SetupMessageMetadata creates a MessageMetadata instance for testing
func SetupMessageMetadata(messageID, subject, orgID string) *model.MessageMetadata {
	return &model.MessageMetadata{
		MessageID:        messageID,
		MessageSubject:   subject,
		OrgID:            orgID,
		StreamSequence:   1,
		ConsumerSequence: 1,
		Stream:           "test_stream",
		Consumer:         "test_consumer",
		NumDelivered:     1,
		NumPending:       0,
	}
}

// contextKey is a helper to create unique context keys
type contextKey string

// CustomAssert provides additional assertions for the mocks
type CustomAssert struct {
	T *testing.T
}

// AssertRouterRegistered checks that all expected routes were registered
func (a *CustomAssert) AssertRouterRegistered(mockRouter *RouterMock, expectedEvents []model.EventType) {
	for _, eventType := range expectedEvents {
		mockRouter.AssertCalled(a.T, "Register", eventType, mock.Anything)
	}
}

// NewAssert creates a new CustomAssert
func NewAssert(t *testing.T) *CustomAssert {
	return &CustomAssert{T: t}
}
