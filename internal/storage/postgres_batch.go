package storage

import (
	"context"
	"encoding/json"
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

// --- Triage batch repository methods ---

// SaveBatch upserts a triage batch keyed by batch_id. Redelivered events
// overwrite the previous row, keeping the operation idempotent per batch.
func (r *PostgresRepo) SaveBatch(ctx context.Context, batch model.TriageBatch) error {
	orgID, err := org.FromContext(ctx)
	if err != nil {
		return fmt.Errorf("%w: failed to get org ID from context: %w", apperrors.ErrUnauthorized, err)
	}
	if batch.OrgID != "" && batch.OrgID != orgID {
		return fmt.Errorf("%w: batch OrgID %s does not match org ID %s", apperrors.ErrBadRequest, batch.OrgID, orgID)
	}
	batch.OrgID = orgID

	operation := func() error {
		result := r.db.WithContext(ctx).Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "batch_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"user_id", "territory_zipcode", "territory_page_range",
				"contact_count", "contacts", "detection_status",
				"updated_at", "last_metadata",
			}),
		}).Create(&batch)
		if result.Error != nil {
			return checkConstraintViolation(result.Error)
		}
		return nil
	}

	commitPolicy := newRetryPolicy(ctx, commitRetryMaxElapsedTime)
	startTime := utils.Now()
	commitErr := retryableOperation(ctx, commitPolicy, "SaveBatch Commit", operation)
	observer.ObserveDbOperationDuration("save", "triage_batch", orgID, time.Since(startTime), commitErr)

	if commitErr != nil {
		logger.FromContext(ctx).Error("Failed to save triage batch after retries",
			zap.String("batch_id", batch.BatchID),
			zap.Error(commitErr))
		return commitErr
	}
	return nil
}

// FindBatchByBatchID loads one triage batch.
func (r *PostgresRepo) FindBatchByBatchID(ctx context.Context, batchID string) (*model.TriageBatch, error) {
	orgID, err := org.FromContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to get org ID from context: %w", apperrors.ErrUnauthorized, err)
	}

	var batch model.TriageBatch
	operation := func() error {
		result := r.db.WithContext(ctx).Where("batch_id = ?", batchID).First(&batch)
		return result.Error
	}

	readPolicy := newRetryPolicy(ctx, readRetryMaxElapsedTime)
	startTime := utils.Now()
	findErr := retryableOperation(ctx, readPolicy, "FindBatchByBatchID", operation)
	observer.ObserveDbOperationDuration("find", "triage_batch", orgID, time.Since(startTime), findErr)

	if findErr != nil {
		if errors.Is(findErr, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: triage batch %s: %w", apperrors.ErrNotFound, batchID, findErr)
		}
		return nil, fmt.Errorf("%w: failed to find triage batch: %w", apperrors.ErrDatabase, findErr)
	}
	return &batch, nil
}

// UpdateBatchDetection replaces a batch's contact snapshot and detection
// state after an async classification pass. The row is locked so the
// read-modify-write done by the detection worker stays serialized per batch.
func (r *PostgresRepo) UpdateBatchDetection(ctx context.Context, batchID string, contacts []model.Contact, status string) error {
	orgID, err := org.FromContext(ctx)
	if err != nil {
		return fmt.Errorf("%w: failed to get org ID from context: %w", apperrors.ErrUnauthorized, err)
	}

	snapshot, err := json.Marshal(contacts)
	if err != nil {
		return fmt.Errorf("%w: failed to marshal contact snapshot: %w", apperrors.ErrBadRequest, err)
	}

	operation := func() error {
		tx := r.db.WithContext(ctx).Begin()
		if tx.Error != nil {
			return fmt.Errorf("%w: failed to begin transaction: %w", apperrors.ErrDatabase, tx.Error)
		}
		var txErr error
		defer func() {
			if rec := recover(); rec != nil {
				tx.Rollback()
				panic(rec)
			} else if txErr != nil {
				if rbErr := tx.Rollback().Error; rbErr != nil {
					logger.FromContext(ctx).Error("Failed to rollback transaction after error", zap.Error(rbErr), zap.NamedError("originalTxError", txErr))
				}
			}
		}()

		var batch model.TriageBatch
		result := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("batch_id = ?", batchID).
			First(&batch)
		if result.Error != nil {
			if errors.Is(result.Error, gorm.ErrRecordNotFound) {
				txErr = fmt.Errorf("%w: triage batch %s: %w", apperrors.ErrNotFound, batchID, result.Error)
			} else {
				txErr = fmt.Errorf("%w: failed to lock triage batch row: %w", apperrors.ErrDatabase, result.Error)
			}
			return txErr
		}

		updates := map[string]interface{}{
			"contacts":         snapshot,
			"contact_count":    len(contacts),
			"detection_status": status,
			"updated_at":       utils.Now(),
		}
		if updateErr := tx.Model(&batch).Updates(updates).Error; updateErr != nil {
			txErr = checkConstraintViolation(updateErr)
			return txErr
		}

		if commitErr := tx.Commit().Error; commitErr != nil {
			txErr = fmt.Errorf("%w: failed to commit detection update: %w", apperrors.ErrDatabase, commitErr)
			return txErr
		}
		return nil
	}

	commitPolicy := newRetryPolicy(ctx, commitRetryMaxElapsedTime)
	startTime := utils.Now()
	commitErr := retryableOperation(ctx, commitPolicy, "UpdateBatchDetection Commit", operation)
	observer.ObserveDbOperationDuration("update", "triage_batch", orgID, time.Since(startTime), commitErr)

	if commitErr != nil {
		logger.FromContext(ctx).Error("Failed to update batch detection after retries",
			zap.String("batch_id", batchID),
			zap.String("detection_status", status),
			zap.Error(commitErr))
		return commitErr
	}
	return nil
}
