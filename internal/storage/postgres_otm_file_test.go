package storage

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	apperrors "gitlab.com/beaubassin/api/canvass-triage-processor/internal/apperrors"
	"gitlab.com/beaubassin/api/canvass-triage-processor/internal/model"
	"gitlab.com/beaubassin/api/canvass-triage-processor/internal/org"
	"gitlab.com/beaubassin/api/canvass-triage-processor/pkg/logger"
)

func testOTMCtx(t *testing.T, orgID string) context.Context {
	ctx := org.WithOrgID(context.Background(), orgID)
	return logger.WithLogger(ctx, zaptest.NewLogger(t))
}

func TestUpsertOTMFile_Success(t *testing.T) {
	mockDB, mock, repo := setupMockDB(t)
	defer mockDB.Close()

	ctx := testOTMCtx(t, testOrgID)

	file := model.OTMFile{
		Filename:   "otm-2026-q3.xlsx",
		FileData:   []byte{0x50, 0x4b, 0x03, 0x04},
		UploadedAt: time.Now(),
	}

	query := regexp.QuoteMeta(`INSERT INTO "otm_files"`)

	mock.ExpectBegin()
	mock.ExpectQuery(query).
		// gorm orders the explicitly assigned primary key after the other
		// columns in the generated insert.
		WithArgs(file.Filename, file.FileData, AnyTime{}, model.OTMFileID).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(model.OTMFileID))
	mock.ExpectCommit()

	err := repo.UpsertOTMFile(ctx, file)

	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpsertOTMFile_EmptyData(t *testing.T) {
	mockDB, _, repo := setupMockDB(t)
	defer mockDB.Close()

	ctx := testOTMCtx(t, testOrgID)

	err := repo.UpsertOTMFile(ctx, model.OTMFile{Filename: "empty.xlsx"})

	assert.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrBadRequest), "Expected ErrBadRequest")
}

func TestGetOTMFile(t *testing.T) {
	t.Run("Found", func(t *testing.T) {
		mockDB, mock, repo := setupMockDB(t)
		defer mockDB.Close()

		ctx := testOTMCtx(t, testOrgID)

		query := regexp.QuoteMeta(`SELECT * FROM "otm_files" WHERE id = $1`)
		rows := sqlmock.NewRows([]string{"id", "filename", "file_data", "uploaded_at"}).
			AddRow(model.OTMFileID, "otm-2026-q3.xlsx", []byte{0x50, 0x4b}, time.Now())
		mock.ExpectQuery(query).WithArgs(model.OTMFileID, 1).WillReturnRows(rows)

		file, err := repo.GetOTMFile(ctx)

		require.NoError(t, err)
		assert.Equal(t, "otm-2026-q3.xlsx", file.Filename)
		assert.NotEmpty(t, file.FileData)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Not Uploaded", func(t *testing.T) {
		mockDB, mock, repo := setupMockDB(t)
		defer mockDB.Close()

		ctx := testOTMCtx(t, testOrgID)

		query := regexp.QuoteMeta(`SELECT * FROM "otm_files" WHERE id = $1`)
		mock.ExpectQuery(query).WithArgs(model.OTMFileID, 1).
			WillReturnRows(sqlmock.NewRows([]string{"id"}))

		file, err := repo.GetOTMFile(ctx)

		assert.Nil(t, file)
		assert.True(t, errors.Is(err, apperrors.ErrNotFound), "Expected ErrNotFound")
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
