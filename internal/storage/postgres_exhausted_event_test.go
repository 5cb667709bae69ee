package storage

import (
	"context"
	"encoding/json"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap/zaptest"
	"gorm.io/datatypes"

	apperrors "gitlab.com/beaubassin/api/canvass-triage-processor/internal/apperrors"
	"gitlab.com/beaubassin/api/canvass-triage-processor/internal/model"
	"gitlab.com/beaubassin/api/canvass-triage-processor/internal/org"
	"gitlab.com/beaubassin/api/canvass-triage-processor/pkg/logger"
)

func TestSaveExhaustedEvent_Success(t *testing.T) {
	mockDB, mock, repo := setupMockDB(t)
	defer mockDB.Close()

	orgID := "org-exhausted-success"
	ctx := org.WithOrgID(context.Background(), orgID)
	ctx = logger.WithLogger(ctx, zaptest.NewLogger(t))

	dlqPayloadJSON, _ := json.Marshal(map[string]string{"error": "failed to process"})
	originalPayloadJSON, _ := json.Marshal(map[string]string{"data": "original data"})

	event := model.ExhaustedEvent{
		OrgID:           orgID,
		SourceSubject:   "v1.batches.triage.org-exhausted-success",
		LastError:       "some error",
		RetryCount:      5,
		EventTimestamp:  time.Now(),
		DLQPayload:      datatypes.JSON(dlqPayloadJSON),
		OriginalPayload: datatypes.JSON(originalPayloadJSON),
	}

	query := regexp.QuoteMeta(`INSERT INTO "exhausted_events" ("created_at","org_id","source_subject","last_error","retry_count","event_timestamp","dlq_payload","original_payload","resolved","resolved_at","notes") VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11) RETURNING "id"`)

	mock.ExpectBegin()
	mock.ExpectQuery(query).
		WithArgs(sqlmock.AnyArg(), event.OrgID, event.SourceSubject, event.LastError, event.RetryCount, event.EventTimestamp, string(event.DLQPayload), string(event.OriginalPayload), false, nil, "").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))
	mock.ExpectCommit()

	err := repo.SaveExhaustedEvent(ctx, event)

	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSaveExhaustedEvent_FillsOrgFromContext(t *testing.T) {
	mockDB, mock, repo := setupMockDB(t)
	defer mockDB.Close()

	orgID := "org-from-ctx"
	ctx := org.WithOrgID(context.Background(), orgID)
	ctx = logger.WithLogger(ctx, zaptest.NewLogger(t))

	dlqPayloadJSON, _ := json.Marshal(map[string]string{"error": "boom"})
	event := model.ExhaustedEvent{
		SourceSubject: "v1.submissions.create.org-from-ctx",
		DLQPayload:    datatypes.JSON(dlqPayloadJSON),
	}

	query := regexp.QuoteMeta(`INSERT INTO "exhausted_events"`)

	mock.ExpectBegin()
	mock.ExpectQuery(query).
		// original_payload is unset, so it becomes an inline NULL and drops
		// out of the bound arguments entirely.
		WithArgs(sqlmock.AnyArg(), orgID, event.SourceSubject, sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), string(event.DLQPayload), false, nil, "").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(2))
	mock.ExpectCommit()

	err := repo.SaveExhaustedEvent(ctx, event)

	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSaveExhaustedEvent_CreateError(t *testing.T) {
	mockDB, mock, repo := setupMockDB(t)
	defer mockDB.Close()

	orgID := "org-exhausted-create-err"
	ctx := org.WithOrgID(context.Background(), orgID)
	ctx = logger.WithLogger(ctx, zaptest.NewLogger(t))

	dlqPayloadJSON, _ := json.Marshal(map[string]string{"error": "failed to process"})
	originalPayloadJSON, _ := json.Marshal(map[string]string{"data": "original data"})
	event := model.ExhaustedEvent{OrgID: orgID, SourceSubject: "v1.batches.triage.org-exhausted-create-err", DLQPayload: dlqPayloadJSON, OriginalPayload: originalPayloadJSON}

	query := regexp.QuoteMeta(`INSERT INTO "exhausted_events"`) // Simplified query match
	expectedErr := errors.New("db connection lost")

	mock.ExpectBegin()
	mock.ExpectQuery(query).
		WithArgs(sqlmock.AnyArg(), event.OrgID, event.SourceSubject, sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), string(event.DLQPayload), string(event.OriginalPayload), false, nil, "").
		WillReturnError(expectedErr)
	mock.ExpectRollback() // Expect rollback on error

	err := repo.SaveExhaustedEvent(ctx, event)

	assert.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrDatabase), "Expected ErrDatabase")
	assert.Contains(t, err.Error(), expectedErr.Error())
	assert.NoError(t, mock.ExpectationsWereMet())
}
