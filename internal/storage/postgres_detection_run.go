package storage

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"gitlab.com/beaubassin/api/canvass-triage-processor/internal/apperrors"
	"gitlab.com/beaubassin/api/canvass-triage-processor/internal/model"
	"gitlab.com/beaubassin/api/canvass-triage-processor/internal/observer"
	"gitlab.com/beaubassin/api/canvass-triage-processor/internal/org"
	"gitlab.com/beaubassin/api/canvass-triage-processor/pkg/logger"
	"gitlab.com/beaubassin/api/canvass-triage-processor/pkg/utils"
)

// SaveDetectionRun appends an audit record for one classification pass.
func (r *PostgresRepo) SaveDetectionRun(ctx context.Context, run model.DetectionRun) error {
	orgID, err := org.FromContext(ctx)
	if err != nil {
		return fmt.Errorf("%w: failed to get org ID from context: %w", apperrors.ErrUnauthorized, err)
	}
	run.OrgID = orgID

	operation := func() error {
		if createErr := r.db.WithContext(ctx).Create(&run).Error; createErr != nil {
			return checkConstraintViolation(createErr)
		}
		return nil
	}

	commitPolicy := newRetryPolicy(ctx, commitRetryMaxElapsedTime)
	startTime := utils.Now()
	commitErr := retryableOperation(ctx, commitPolicy, "SaveDetectionRun Commit", operation)
	observer.ObserveDbOperationDuration("save", "detection_run", orgID, time.Since(startTime), commitErr)

	if commitErr != nil {
		logger.FromContext(ctx).Error("Failed to save detection run after retries",
			zap.String("batch_id", run.BatchID),
			zap.Error(commitErr))
		return commitErr
	}
	return nil
}
