package storage

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"gorm.io/datatypes"

	apperrors "gitlab.com/beaubassin/api/canvass-triage-processor/internal/apperrors"
	"gitlab.com/beaubassin/api/canvass-triage-processor/internal/model"
	"gitlab.com/beaubassin/api/canvass-triage-processor/internal/org"
	"gitlab.com/beaubassin/api/canvass-triage-processor/pkg/logger"
)

func testBatchCtx(t *testing.T, orgID string) context.Context {
	ctx := org.WithOrgID(context.Background(), orgID)
	return logger.WithLogger(ctx, zaptest.NewLogger(t))
}

func TestSaveBatch_Success(t *testing.T) {
	mockDB, mock, repo := setupMockDB(t)
	defer mockDB.Close()

	ctx := testBatchCtx(t, testOrgID)

	batch := model.TriageBatch{
		BatchID:          testBatchID,
		UserID:           testUserID,
		TerritoryZipcode: "04736",
		ContactCount:     2,
		Contacts:         datatypes.JSON(`[{"id":"c1"},{"id":"c2"}]`),
		DetectionStatus:  model.DetectionPending,
	}

	query := regexp.QuoteMeta(`INSERT INTO "triage_batches"`)

	mock.ExpectBegin()
	mock.ExpectExec(query).
		// The nil last_metadata JSON is rendered as an inline NULL, not a
		// bound placeholder, so only ten arguments reach the driver.
		WithArgs(batch.BatchID, testOrgID, batch.UserID, batch.TerritoryZipcode, "", batch.ContactCount, AnyJSON{}, batch.DetectionStatus, AnyTime{}, AnyTime{}).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := repo.SaveBatch(ctx, batch)

	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSaveBatch_NoOrgInContext(t *testing.T) {
	mockDB, _, repo := setupMockDB(t)
	defer mockDB.Close()

	ctx := logger.WithLogger(context.Background(), zaptest.NewLogger(t))

	err := repo.SaveBatch(ctx, model.TriageBatch{BatchID: testBatchID, UserID: testUserID})

	assert.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrUnauthorized), "Expected ErrUnauthorized")
}

func TestSaveBatch_OrgMismatch(t *testing.T) {
	mockDB, _, repo := setupMockDB(t)
	defer mockDB.Close()

	ctx := testBatchCtx(t, testOrgID)

	batch := model.TriageBatch{
		BatchID: testBatchID,
		OrgID:   "some-other-org",
		UserID:  testUserID,
	}

	err := repo.SaveBatch(ctx, batch)

	assert.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrBadRequest), "Expected ErrBadRequest")
}

func TestFindBatchByBatchID(t *testing.T) {
	t.Run("Found", func(t *testing.T) {
		mockDB, mock, repo := setupMockDB(t)
		defer mockDB.Close()

		ctx := testBatchCtx(t, testOrgID)

		query := regexp.QuoteMeta(`SELECT * FROM "triage_batches" WHERE batch_id = $1`)
		rows := sqlmock.NewRows([]string{"batch_id", "org_id", "user_id", "contact_count", "contacts", "detection_status"}).
			AddRow(testBatchID, testOrgID, testUserID, 1, []byte(`[{"id":"c1"}]`), model.DetectionDone)
		mock.ExpectQuery(query).WithArgs(testBatchID, 1).WillReturnRows(rows)

		batch, err := repo.FindBatchByBatchID(ctx, testBatchID)

		require.NoError(t, err)
		assert.Equal(t, testBatchID, batch.BatchID)
		assert.Equal(t, model.DetectionDone, batch.DetectionStatus)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Not Found", func(t *testing.T) {
		mockDB, mock, repo := setupMockDB(t)
		defer mockDB.Close()

		ctx := testBatchCtx(t, testOrgID)

		query := regexp.QuoteMeta(`SELECT * FROM "triage_batches" WHERE batch_id = $1`)
		mock.ExpectQuery(query).WithArgs("missing-batch", 1).
			WillReturnRows(sqlmock.NewRows([]string{"batch_id"}))

		batch, err := repo.FindBatchByBatchID(ctx, "missing-batch")

		assert.Nil(t, batch)
		assert.Error(t, err)
		assert.True(t, errors.Is(err, apperrors.ErrNotFound), "Expected ErrNotFound")
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestUpdateBatchDetection_Success(t *testing.T) {
	mockDB, mock, repo := setupMockDB(t)
	defer mockDB.Close()

	ctx := testBatchCtx(t, testOrgID)

	contacts := []model.Contact{
		{ID: "c1", LastName: "Lavoie", Status: model.StatusDetected, FrenchNameMatched: true},
		{ID: "c2", LastName: "Smith", Status: model.StatusNotChecked},
	}

	selectQuery := regexp.QuoteMeta(`SELECT * FROM "triage_batches" WHERE batch_id = $1`)
	rows := sqlmock.NewRows([]string{"batch_id", "org_id", "user_id", "contact_count", "contacts", "detection_status"}).
		AddRow(testBatchID, testOrgID, testUserID, 2, []byte(`[]`), model.DetectionPending)

	mock.ExpectBegin()
	mock.ExpectQuery(selectQuery).WithArgs(testBatchID, 1).WillReturnRows(rows)
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE "triage_batches" SET`)).
		WithArgs(2, AnyJSON{}, model.DetectionDone, AnyTime{}, testBatchID).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := repo.UpdateBatchDetection(ctx, testBatchID, contacts, model.DetectionDone)

	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateBatchDetection_BatchMissing(t *testing.T) {
	mockDB, mock, repo := setupMockDB(t)
	defer mockDB.Close()

	ctx := testBatchCtx(t, testOrgID)

	selectQuery := regexp.QuoteMeta(`SELECT * FROM "triage_batches" WHERE batch_id = $1`)

	mock.ExpectBegin()
	mock.ExpectQuery(selectQuery).WithArgs("missing-batch", 1).
		WillReturnRows(sqlmock.NewRows([]string{"batch_id"}))
	mock.ExpectRollback()

	err := repo.UpdateBatchDetection(ctx, "missing-batch", nil, model.DetectionDone)

	assert.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrNotFound), "Expected ErrNotFound")
	assert.NoError(t, mock.ExpectationsWereMet())
}
