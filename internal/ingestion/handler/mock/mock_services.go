package mock

import (
	"context"

	"github.com/stretchr/testify/mock"
	"gitlab.com/beaubassin/api/canvass-triage-processor/internal/model"
)

// MockIntakeService is a mock for the IntakeService interface
type MockIntakeService struct {
	mock.Mock
}

// ProcessContactBatch mocks the ProcessContactBatch method
func (m *MockIntakeService) ProcessContactBatch(ctx context.Context, batch model.ContactBatchPayload, metadata *model.LastMetadata) error {
	args := m.Called(ctx, batch, metadata)
	return args.Error(0)
}

// MockReviewService is a mock for the ReviewService interface
type MockReviewService struct {
	mock.Mock
}

// ProcessSubmission mocks the ProcessSubmission method
func (m *MockReviewService) ProcessSubmission(ctx context.Context, submission model.SubmissionPayload, metadata *model.LastMetadata) error {
	args := m.Called(ctx, submission, metadata)
	return args.Error(0)
}
