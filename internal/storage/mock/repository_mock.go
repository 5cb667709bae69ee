package mock

import (
	"context"

	"github.com/stretchr/testify/mock"

	"gitlab.com/beaubassin/api/canvass-triage-processor/internal/model"
	"gitlab.com/beaubassin/api/canvass-triage-processor/internal/triage"
)

// --- BatchRepo Mock ---

// BatchRepoMock mocks the BatchRepo interface
type BatchRepoMock struct {
	mock.Mock
}

// Save mocks the Save method
func (m *BatchRepoMock) Save(ctx context.Context, batch model.TriageBatch) error {
	args := m.Called(ctx, batch)
	return args.Error(0)
}

// FindByBatchID mocks the FindByBatchID method
func (m *BatchRepoMock) FindByBatchID(ctx context.Context, batchID string) (*model.TriageBatch, error) {
	args := m.Called(ctx, batchID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.TriageBatch), args.Error(1)
}

// UpdateDetection mocks the UpdateDetection method
func (m *BatchRepoMock) UpdateDetection(ctx context.Context, batchID string, contacts []model.Contact, status string) error {
	args := m.Called(ctx, batchID, contacts, status)
	return args.Error(0)
}

// Close mocks the Close method
func (m *BatchRepoMock) Close(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// --- SubmissionRepo Mock ---

// SubmissionRepoMock mocks the SubmissionRepo interface
type SubmissionRepoMock struct {
	mock.Mock
}

// Insert mocks the Insert method
func (m *SubmissionRepoMock) Insert(ctx context.Context, submission *model.Submission) error {
	args := m.Called(ctx, submission)
	return args.Error(0)
}

// FindByID mocks the FindByID method
func (m *SubmissionRepoMock) FindByID(ctx context.Context, id int64) (*model.Submission, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Submission), args.Error(1)
}

// FindLatestPerUser mocks the FindLatestPerUser method
func (m *SubmissionRepoMock) FindLatestPerUser(ctx context.Context) ([]model.Submission, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Submission), args.Error(1)
}

// FindLatestByUser mocks the FindLatestByUser method
func (m *SubmissionRepoMock) FindLatestByUser(ctx context.Context, userID string) (*model.Submission, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Submission), args.Error(1)
}

// FindUnarchived mocks the FindUnarchived method
func (m *SubmissionRepoMock) FindUnarchived(ctx context.Context) ([]model.Submission, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Submission), args.Error(1)
}

// UpdateReview mocks the UpdateReview method
func (m *SubmissionRepoMock) UpdateReview(ctx context.Context, id int64, reviewStatus string, archived *bool) error {
	args := m.Called(ctx, id, reviewStatus, archived)
	return args.Error(0)
}

// ReplaceContacts mocks the ReplaceContacts method
func (m *SubmissionRepoMock) ReplaceContacts(ctx context.Context, id int64, contacts []model.Contact, stats triage.Stats) error {
	args := m.Called(ctx, id, contacts, stats)
	return args.Error(0)
}

// Close mocks the Close method
func (m *SubmissionRepoMock) Close(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// --- OTMFileRepo Mock ---

// OTMFileRepoMock mocks the OTMFileRepo interface
type OTMFileRepoMock struct {
	mock.Mock
}

// Upsert mocks the Upsert method
func (m *OTMFileRepoMock) Upsert(ctx context.Context, file model.OTMFile) error {
	args := m.Called(ctx, file)
	return args.Error(0)
}

// Get mocks the Get method
func (m *OTMFileRepoMock) Get(ctx context.Context) (*model.OTMFile, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.OTMFile), args.Error(1)
}

// Close mocks the Close method
func (m *OTMFileRepoMock) Close(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// --- DetectionRunRepo Mock ---

// DetectionRunRepoMock mocks the DetectionRunRepo interface
type DetectionRunRepoMock struct {
	mock.Mock
}

// Save mocks the Save method
func (m *DetectionRunRepoMock) Save(ctx context.Context, run model.DetectionRun) error {
	args := m.Called(ctx, run)
	return args.Error(0)
}

// Close mocks the Close method
func (m *DetectionRunRepoMock) Close(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// --- ExhaustedEventRepo Mock ---

// ExhaustedEventRepoMock mocks the ExhaustedEventRepo interface
type ExhaustedEventRepoMock struct {
	mock.Mock
}

// Save mocks the Save method
func (m *ExhaustedEventRepoMock) Save(ctx context.Context, event model.ExhaustedEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

// Close mocks the Close method
func (m *ExhaustedEventRepoMock) Close(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}
