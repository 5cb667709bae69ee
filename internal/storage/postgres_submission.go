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
	"gitlab.com/beaubassin/api/canvass-triage-processor/internal/triage"
	"gitlab.com/beaubassin/api/canvass-triage-processor/pkg/logger"
	"gitlab.com/beaubassin/api/canvass-triage-processor/pkg/utils"
)

// --- Submission repository methods ---

// InsertSubmission appends a new submission row. Submissions are append-only;
// every send from a canvasser creates a fresh row and history queries pick
// the latest per user.
func (r *PostgresRepo) InsertSubmission(ctx context.Context, submission *model.Submission) error {
	orgID, err := org.FromContext(ctx)
	if err != nil {
		return fmt.Errorf("%w: failed to get org ID from context: %w", apperrors.ErrUnauthorized, err)
	}
	submission.OrgID = orgID

	operation := func() error {
		if createErr := r.db.WithContext(ctx).Create(submission).Error; createErr != nil {
			return checkConstraintViolation(createErr)
		}
		return nil
	}

	commitPolicy := newRetryPolicy(ctx, commitRetryMaxElapsedTime)
	startTime := utils.Now()
	commitErr := retryableOperation(ctx, commitPolicy, "InsertSubmission Commit", operation)
	observer.ObserveDbOperationDuration("save", "submission", orgID, time.Since(startTime), commitErr)

	if commitErr != nil {
		logger.FromContext(ctx).Error("Failed to insert submission after retries",
			zap.String("user_id", submission.UserID),
			zap.Error(commitErr))
		return commitErr
	}
	return nil
}

// FindSubmissionByID loads one submission.
func (r *PostgresRepo) FindSubmissionByID(ctx context.Context, id int64) (*model.Submission, error) {
	orgID, err := org.FromContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to get org ID from context: %w", apperrors.ErrUnauthorized, err)
	}

	var submission model.Submission
	operation := func() error {
		return r.db.WithContext(ctx).Where("id = ?", id).First(&submission).Error
	}

	readPolicy := newRetryPolicy(ctx, readRetryMaxElapsedTime)
	startTime := utils.Now()
	findErr := retryableOperation(ctx, readPolicy, "FindSubmissionByID", operation)
	observer.ObserveDbOperationDuration("find", "submission", orgID, time.Since(startTime), findErr)

	if findErr != nil {
		if errors.Is(findErr, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: submission %d: %w", apperrors.ErrNotFound, id, findErr)
		}
		return nil, fmt.Errorf("%w: failed to find submission: %w", apperrors.ErrDatabase, findErr)
	}
	return &submission, nil
}

// FindLatestSubmissionPerUser returns each user's most recent submission,
// newest first. Rows are append-only so the max id per user is the latest.
func (r *PostgresRepo) FindLatestSubmissionPerUser(ctx context.Context) ([]model.Submission, error) {
	orgID, err := org.FromContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to get org ID from context: %w", apperrors.ErrUnauthorized, err)
	}

	var submissions []model.Submission
	operation := func() error {
		latest := r.db.WithContext(ctx).Model(&model.Submission{}).
			Select("MAX(id)").
			Group("user_id")
		return r.db.WithContext(ctx).
			Where("id IN (?)", latest).
			Order("submitted_at DESC").
			Find(&submissions).Error
	}

	readPolicy := newRetryPolicy(ctx, readRetryMaxElapsedTime)
	startTime := utils.Now()
	findErr := retryableOperation(ctx, readPolicy, "FindLatestSubmissionPerUser", operation)
	observer.ObserveDbOperationDuration("find", "submission", orgID, time.Since(startTime), findErr)

	if findErr != nil {
		return nil, fmt.Errorf("%w: failed to list latest submissions: %w", apperrors.ErrDatabase, findErr)
	}
	return submissions, nil
}

// FindLatestSubmissionByUser returns the given user's most recent submission.
func (r *PostgresRepo) FindLatestSubmissionByUser(ctx context.Context, userID string) (*model.Submission, error) {
	orgID, err := org.FromContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to get org ID from context: %w", apperrors.ErrUnauthorized, err)
	}

	var submission model.Submission
	operation := func() error {
		return r.db.WithContext(ctx).
			Where("user_id = ?", userID).
			Order("id DESC").
			First(&submission).Error
	}

	readPolicy := newRetryPolicy(ctx, readRetryMaxElapsedTime)
	startTime := utils.Now()
	findErr := retryableOperation(ctx, readPolicy, "FindLatestSubmissionByUser", operation)
	observer.ObserveDbOperationDuration("find", "submission", orgID, time.Since(startTime), findErr)

	if findErr != nil {
		if errors.Is(findErr, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: no submission for user %s: %w", apperrors.ErrNotFound, userID, findErr)
		}
		return nil, fmt.Errorf("%w: failed to find submission for user: %w", apperrors.ErrDatabase, findErr)
	}
	return &submission, nil
}

// FindUnarchivedSubmissions returns all submissions not yet archived,
// oldest first. This feeds the bulk out-of-territory match pass.
func (r *PostgresRepo) FindUnarchivedSubmissions(ctx context.Context) ([]model.Submission, error) {
	orgID, err := org.FromContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to get org ID from context: %w", apperrors.ErrUnauthorized, err)
	}

	var submissions []model.Submission
	operation := func() error {
		return r.db.WithContext(ctx).
			Where("archived = ?", false).
			Order("id ASC").
			Find(&submissions).Error
	}

	readPolicy := newRetryPolicy(ctx, readRetryMaxElapsedTime)
	startTime := utils.Now()
	findErr := retryableOperation(ctx, readPolicy, "FindUnarchivedSubmissions", operation)
	observer.ObserveDbOperationDuration("find", "submission", orgID, time.Since(startTime), findErr)

	if findErr != nil {
		return nil, fmt.Errorf("%w: failed to list unarchived submissions: %w", apperrors.ErrDatabase, findErr)
	}
	return submissions, nil
}

// UpdateSubmissionReview sets the review status and optionally the archived
// flag of a submission.
func (r *PostgresRepo) UpdateSubmissionReview(ctx context.Context, id int64, reviewStatus string, archived *bool) error {
	orgID, err := org.FromContext(ctx)
	if err != nil {
		return fmt.Errorf("%w: failed to get org ID from context: %w", apperrors.ErrUnauthorized, err)
	}
	if !model.IsKnownReviewStatus(reviewStatus) {
		return fmt.Errorf("%w: unknown review status %q", apperrors.ErrBadRequest, reviewStatus)
	}

	operation := func() error {
		updates := map[string]interface{}{
			"review_status": reviewStatus,
			"updated_at":    utils.Now(),
		}
		if archived != nil {
			updates["archived"] = *archived
		}
		result := r.db.WithContext(ctx).Model(&model.Submission{}).
			Where("id = ?", id).
			Updates(updates)
		if result.Error != nil {
			return checkConstraintViolation(result.Error)
		}
		if result.RowsAffected == 0 {
			return fmt.Errorf("%w: submission %d", apperrors.ErrNotFound, id)
		}
		return nil
	}

	commitPolicy := newRetryPolicy(ctx, commitRetryMaxElapsedTime)
	startTime := utils.Now()
	commitErr := retryableOperation(ctx, commitPolicy, "UpdateSubmissionReview Commit", operation)
	observer.ObserveDbOperationDuration("update", "submission", orgID, time.Since(startTime), commitErr)

	if commitErr != nil {
		logger.FromContext(ctx).Error("Failed to update submission review after retries",
			zap.Int64("submission_id", id),
			zap.String("review_status", reviewStatus),
			zap.Error(commitErr))
		return commitErr
	}
	return nil
}

// ReplaceSubmissionContacts overwrites a submission's contact snapshot and
// its cached counters in one transaction. The row is locked because
// reviewer edits (delete contact, restatus contact) race each other.
func (r *PostgresRepo) ReplaceSubmissionContacts(ctx context.Context, id int64, contacts []model.Contact, stats triage.Stats) error {
	orgID, err := org.FromContext(ctx)
	if err != nil {
		return fmt.Errorf("%w: failed to get org ID from context: %w", apperrors.ErrUnauthorized, err)
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

		var submission model.Submission
		result := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ?", id).
			First(&submission)
		if result.Error != nil {
			if errors.Is(result.Error, gorm.ErrRecordNotFound) {
				txErr = fmt.Errorf("%w: submission %d: %w", apperrors.ErrNotFound, id, result.Error)
			} else {
				txErr = fmt.Errorf("%w: failed to lock submission row: %w", apperrors.ErrDatabase, result.Error)
			}
			return txErr
		}

		if setErr := submission.SetContacts(contacts); setErr != nil {
			txErr = fmt.Errorf("%w: failed to marshal contact snapshot: %w", apperrors.ErrBadRequest, setErr)
			return txErr
		}

		updates := map[string]interface{}{
			"contacts":           submission.Contacts,
			"contact_count":      stats.Count,
			"potentially_french": stats.PotentiallyFrench,
			"not_french":         stats.NotFrench,
			"duplicate":          stats.Duplicate,
			"not_checked":        stats.NotChecked,
			"updated_at":         utils.Now(),
		}
		if updateErr := tx.Model(&submission).Updates(updates).Error; updateErr != nil {
			txErr = checkConstraintViolation(updateErr)
			return txErr
		}

		if commitErr := tx.Commit().Error; commitErr != nil {
			txErr = fmt.Errorf("%w: failed to commit contact replacement: %w", apperrors.ErrDatabase, commitErr)
			return txErr
		}
		return nil
	}

	commitPolicy := newRetryPolicy(ctx, commitRetryMaxElapsedTime)
	startTime := utils.Now()
	commitErr := retryableOperation(ctx, commitPolicy, "ReplaceSubmissionContacts Commit", operation)
	observer.ObserveDbOperationDuration("update", "submission", orgID, time.Since(startTime), commitErr)

	if commitErr != nil {
		logger.FromContext(ctx).Error("Failed to replace submission contacts after retries",
			zap.Int64("submission_id", id),
			zap.Error(commitErr))
		return commitErr
	}
	return nil
}
