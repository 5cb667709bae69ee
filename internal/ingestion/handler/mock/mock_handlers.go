package mock

import (
	"context"

	"github.com/stretchr/testify/mock"
	"gitlab.com/beaubassin/api/canvass-triage-processor/internal/model"
)

// MockIntakeHandler is a mock for the IntakeHandlerInterface
type MockIntakeHandler struct {
	mock.Mock
}

// HandleEvent mocks the HandleEvent method
func (m *MockIntakeHandler) HandleEvent(ctx context.Context, eventType model.EventType, metadata *model.MessageMetadata, rawEvent []byte) error {
	args := m.Called(ctx, eventType, metadata, rawEvent)
	return args.Error(0)
}

// MockReviewHandler is a mock for the ReviewHandlerInterface
type MockReviewHandler struct {
	mock.Mock
}

// HandleEvent mocks the HandleEvent method
func (m *MockReviewHandler) HandleEvent(ctx context.Context, eventType model.EventType, metadata *model.MessageMetadata, rawEvent []byte) error {
	args := m.Called(ctx, eventType, metadata, rawEvent)
	return args.Error(0)
}
