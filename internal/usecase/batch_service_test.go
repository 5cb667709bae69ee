package usecase

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	apperrors "gitlab.com/beaubassin/api/canvass-triage-processor/internal/apperrors"
	"gitlab.com/beaubassin/api/canvass-triage-processor/internal/model"
	"gitlab.com/beaubassin/api/canvass-triage-processor/internal/org"
	storagemock "gitlab.com/beaubassin/api/canvass-triage-processor/internal/storage/mock"
	"gitlab.com/beaubassin/api/canvass-triage-processor/internal/triage"
	"gitlab.com/beaubassin/api/canvass-triage-processor/pkg/logger"
)

func init() {
	// Initialize logger for tests
	logger.Log = zaptest.NewLogger(nil).Named("test")
}

// MockDetectionWorker mocks the detection worker pool for service tests.
type MockDetectionWorker struct {
	mock.Mock
}

func (m *MockDetectionWorker) SubmitTask(taskData DetectionTaskData) error {
	args := m.Called(taskData)
	return args.Error(0)
}

func (m *MockDetectionWorker) Stop() {
	m.Called()
}

// serviceMocks bundles every repository mock behind an EventService.
type serviceMocks struct {
	batchRepo          *storagemock.BatchRepoMock
	submissionRepo     *storagemock.SubmissionRepoMock
	otmFileRepo        *storagemock.OTMFileRepoMock
	detectionRunRepo   *storagemock.DetectionRunRepoMock
	exhaustedEventRepo *storagemock.ExhaustedEventRepoMock
	detectionWorker    *MockDetectionWorker
}

// setupServiceTest builds an EventService over fresh mocks. The territory
// covers the single zipcode 04736.
func setupServiceTest() (*EventService, *serviceMocks) {
	m := &serviceMocks{
		batchRepo:          new(storagemock.BatchRepoMock),
		submissionRepo:     new(storagemock.SubmissionRepoMock),
		otmFileRepo:        new(storagemock.OTMFileRepoMock),
		detectionRunRepo:   new(storagemock.DetectionRunRepoMock),
		exhaustedEventRepo: new(storagemock.ExhaustedEventRepoMock),
		detectionWorker:    new(MockDetectionWorker),
	}
	territory := triage.NewTerritory([]string{"04736"})
	service := NewEventService(
		m.batchRepo,
		m.submissionRepo,
		m.otmFileRepo,
		m.detectionRunRepo,
		m.exhaustedEventRepo,
		territory,
		m.detectionWorker,
	)
	return service, m
}

// orgContext returns a context carrying the org ID and a test logger.
func orgContext(t *testing.T, orgID string) context.Context {
	ctx := org.WithOrgID(context.Background(), orgID)
	return logger.WithLogger(ctx, zaptest.NewLogger(t))
}

func testBatchPayload(orgID string) model.ContactBatchPayload {
	return model.ContactBatchPayload{
		BatchID:          "batch-1",
		OrgID:            orgID,
		UserID:           "user-1",
		TerritoryZipcode: "04736",
		Contacts: []model.ContactPayload{
			{FirstName: "Marie", LastName: "Tremblay", Address: "12 Rue Principale", City: "Madawaska", Zipcode: "04736"},
			{FirstName: "John", LastName: "Smith", Address: "12 rue  principale", City: "Madawaska", Zipcode: "04736"},
			{FirstName: "Anne", LastName: "Cyr", Address: "7 Oak St", City: "Caribou", Zipcode: "04101"},
		},
	}
}

// --- ProcessContactBatch Tests --- //

func TestProcessContactBatch_Success(t *testing.T) {
	service, mocks := setupServiceTest()
	orgID := "org-1"
	ctx := orgContext(t, orgID)
	payload := testBatchPayload(orgID)

	metadata := &model.LastMetadata{
		ConsumerSequence: 10,
		StreamSequence:   20,
		OrgID:            orgID,
	}

	mocks.batchRepo.On("Save", mock.Anything, mock.AnythingOfType("model.TriageBatch")).Return(nil)
	mocks.detectionWorker.On("SubmitTask", mock.AnythingOfType("usecase.DetectionTaskData")).Return(nil)

	err := service.ProcessContactBatch(ctx, payload, metadata)

	assert.NoError(t, err)
	mocks.batchRepo.AssertExpectations(t)
	mocks.detectionWorker.AssertExpectations(t)

	// Verify the persisted batch
	calls := mocks.batchRepo.Calls
	require.GreaterOrEqual(t, len(calls), 1)
	dbBatch := calls[len(calls)-1].Arguments.Get(1).(model.TriageBatch)
	assert.Equal(t, "batch-1", dbBatch.BatchID)
	assert.Equal(t, orgID, dbBatch.OrgID)
	assert.Equal(t, "user-1", dbBatch.UserID)
	assert.Equal(t, model.DetectionPending, dbBatch.DetectionStatus)
	assert.Equal(t, 3, dbBatch.ContactCount)
	assert.NotNil(t, dbBatch.LastMetadata)

	contacts, decodeErr := dbBatch.DecodeContacts()
	require.NoError(t, decodeErr)
	require.Len(t, contacts, 3)

	// Every contact gets an id and a derived full name
	assert.NotEmpty(t, contacts[0].ID)
	assert.Equal(t, "Marie Tremblay", contacts[0].FullName)

	// Second contact repeats the first address modulo case and spacing
	assert.Equal(t, model.StatusNotChecked, contacts[0].Status)
	assert.Equal(t, model.StatusDuplicate, contacts[1].Status)
	assert.Equal(t, model.StatusNotChecked, contacts[2].Status)

	// Territory flag: true marks a zipcode outside the territory
	assert.False(t, contacts[0].TerritoryStatus)
	assert.False(t, contacts[1].TerritoryStatus)
	assert.True(t, contacts[2].TerritoryStatus)

	// Detection task carries the batch and org ids
	workerCalls := mocks.detectionWorker.Calls
	require.Len(t, workerCalls, 1)
	taskData := workerCalls[0].Arguments.Get(0).(DetectionTaskData)
	assert.Equal(t, "batch-1", taskData.BatchID)
	assert.Equal(t, orgID, taskData.OrgID)
	assert.NotNil(t, taskData.Ctx)
}

func TestProcessContactBatch_ValidationError(t *testing.T) {
	service, mocks := setupServiceTest()
	ctx := orgContext(t, "org-1")

	payload := testBatchPayload("org-1")
	payload.BatchID = "" // required field

	err := service.ProcessContactBatch(ctx, payload, nil)

	require.Error(t, err)
	assert.True(t, apperrors.IsFatal(err))
	assert.Contains(t, err.Error(), "validation failed")
	mocks.batchRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	mocks.detectionWorker.AssertNotCalled(t, "SubmitTask", mock.Anything)
}

func TestProcessContactBatch_MissingOrgContext(t *testing.T) {
	service, mocks := setupServiceTest()
	ctx := logger.WithLogger(context.Background(), zaptest.NewLogger(t))

	err := service.ProcessContactBatch(ctx, testBatchPayload("org-1"), nil)

	require.Error(t, err)
	assert.True(t, apperrors.IsFatal(err))
	mocks.batchRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestProcessContactBatch_OrgMismatch(t *testing.T) {
	service, mocks := setupServiceTest()
	ctx := orgContext(t, "org-1")

	err := service.ProcessContactBatch(ctx, testBatchPayload("org-2"), nil)

	require.Error(t, err)
	assert.True(t, apperrors.IsFatal(err))
	assert.Contains(t, err.Error(), "org validation failed")
	mocks.batchRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestProcessContactBatch_RetryableRepoError(t *testing.T) {
	service, mocks := setupServiceTest()
	orgID := "org-1"
	ctx := orgContext(t, orgID)

	dbErr := fmt.Errorf("%w: connection refused", apperrors.ErrDatabase)
	mocks.batchRepo.On("Save", mock.Anything, mock.AnythingOfType("model.TriageBatch")).Return(dbErr)

	err := service.ProcessContactBatch(ctx, testBatchPayload(orgID), nil)

	require.Error(t, err)
	assert.True(t, apperrors.IsRetryable(err))
	mocks.batchRepo.AssertExpectations(t)
	mocks.detectionWorker.AssertNotCalled(t, "SubmitTask", mock.Anything)
}

func TestProcessContactBatch_FatalRepoError(t *testing.T) {
	service, mocks := setupServiceTest()
	orgID := "org-1"
	ctx := orgContext(t, orgID)

	mocks.batchRepo.On("Save", mock.Anything, mock.AnythingOfType("model.TriageBatch")).Return(errors.New("constraint violation"))

	err := service.ProcessContactBatch(ctx, testBatchPayload(orgID), nil)

	require.Error(t, err)
	assert.True(t, apperrors.IsFatal(err))
	mocks.batchRepo.AssertExpectations(t)
	mocks.detectionWorker.AssertNotCalled(t, "SubmitTask", mock.Anything)
}

func TestProcessContactBatch_SubmitFailureDoesNotFailIngest(t *testing.T) {
	service, mocks := setupServiceTest()
	orgID := "org-1"
	ctx := orgContext(t, orgID)

	mocks.batchRepo.On("Save", mock.Anything, mock.AnythingOfType("model.TriageBatch")).Return(nil)
	mocks.detectionWorker.On("SubmitTask", mock.AnythingOfType("usecase.DetectionTaskData")).Return(errors.New("pool overload"))

	err := service.ProcessContactBatch(ctx, testBatchPayload(orgID), nil)

	// The batch is persisted pending; the submit failure is logged only
	assert.NoError(t, err)
	mocks.batchRepo.AssertExpectations(t)
	mocks.detectionWorker.AssertExpectations(t)
}

func TestProcessContactBatch_NilWorker(t *testing.T) {
	_, mocks := setupServiceTest()
	orgID := "org-1"
	ctx := orgContext(t, orgID)

	territory := triage.NewTerritory([]string{"04736"})
	service := NewEventService(
		mocks.batchRepo,
		mocks.submissionRepo,
		mocks.otmFileRepo,
		mocks.detectionRunRepo,
		mocks.exhaustedEventRepo,
		territory,
		nil,
	)

	mocks.batchRepo.On("Save", mock.Anything, mock.AnythingOfType("model.TriageBatch")).Return(nil)

	err := service.ProcessContactBatch(ctx, testBatchPayload(orgID), nil)

	assert.NoError(t, err)
	mocks.batchRepo.AssertExpectations(t)
}
