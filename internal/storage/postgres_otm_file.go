package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"gitlab.com/beaubassin/api/canvass-triage-processor/internal/apperrors"
	"gitlab.com/beaubassin/api/canvass-triage-processor/internal/model"
	"gitlab.com/beaubassin/api/canvass-triage-processor/internal/observer"
	"gitlab.com/beaubassin/api/canvass-triage-processor/internal/org"
	"gitlab.com/beaubassin/api/canvass-triage-processor/pkg/logger"
	"gitlab.com/beaubassin/api/canvass-triage-processor/pkg/utils"
)

// --- Reference workbook repository methods ---

// UpsertOTMFile stores the reference workbook, replacing any previous one.
// There is exactly one workbook per org schema.
func (r *PostgresRepo) UpsertOTMFile(ctx context.Context, file model.OTMFile) error {
	orgID, err := org.FromContext(ctx)
	if err != nil {
		return fmt.Errorf("%w: failed to get org ID from context: %w", apperrors.ErrUnauthorized, err)
	}
	if len(file.FileData) == 0 {
		return fmt.Errorf("%w: empty workbook upload", apperrors.ErrBadRequest)
	}
	file.ID = model.OTMFileID
	if file.UploadedAt.IsZero() {
		file.UploadedAt = utils.Now()
	}

	operation := func() error {
		result := r.db.WithContext(ctx).Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"filename", "file_data", "uploaded_at"}),
		}).Create(&file)
		if result.Error != nil {
			return checkConstraintViolation(result.Error)
		}
		return nil
	}

	commitPolicy := newRetryPolicy(ctx, commitRetryMaxElapsedTime)
	startTime := utils.Now()
	commitErr := retryableOperation(ctx, commitPolicy, "UpsertOTMFile Commit", operation)
	observer.ObserveDbOperationDuration("save", "otm_file", orgID, time.Since(startTime), commitErr)

	if commitErr != nil {
		logger.FromContext(ctx).Error("Failed to store reference workbook after retries",
			zap.String("filename", file.Filename),
			zap.Error(commitErr))
		return commitErr
	}
	return nil
}

// GetOTMFile loads the stored reference workbook.
func (r *PostgresRepo) GetOTMFile(ctx context.Context) (*model.OTMFile, error) {
	orgID, err := org.FromContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to get org ID from context: %w", apperrors.ErrUnauthorized, err)
	}

	var file model.OTMFile
	operation := func() error {
		return r.db.WithContext(ctx).Where("id = ?", model.OTMFileID).First(&file).Error
	}

	readPolicy := newRetryPolicy(ctx, readRetryMaxElapsedTime)
	startTime := utils.Now()
	findErr := retryableOperation(ctx, readPolicy, "GetOTMFile", operation)
	observer.ObserveDbOperationDuration("find", "otm_file", orgID, time.Since(startTime), findErr)

	if findErr != nil {
		if errors.Is(findErr, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: no reference workbook uploaded: %w", apperrors.ErrNotFound, findErr)
		}
		return nil, fmt.Errorf("%w: failed to load reference workbook: %w", apperrors.ErrDatabase, findErr)
	}
	return &file, nil
}
