package usecase

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	apperrors "gitlab.com/beaubassin/api/canvass-triage-processor/internal/apperrors"
	"gitlab.com/beaubassin/api/canvass-triage-processor/internal/model"
	"gitlab.com/beaubassin/api/canvass-triage-processor/internal/triage"
	"gitlab.com/beaubassin/api/canvass-triage-processor/pkg/logger"
)

// SubmissionSummary is the list shape returned to reviewers: the counters
// without the embedded contact snapshot.
type SubmissionSummary struct {
	ID                 int64  `json:"id"`
	UserID             string `json:"user_id"`
	SubmittedAt        string `json:"submitted_at"`
	ContactCount       int    `json:"contact_count"`
	PotentiallyFrench  int    `json:"potentially_french"`
	NotFrench          int    `json:"not_french"`
	Duplicate          int    `json:"duplicate"`
	NotChecked         int    `json:"not_checked"`
	TerritoryZipcode   string `json:"territory_zipcode,omitempty"`
	TerritoryPageRange string `json:"territory_page_range,omitempty"`
	ReviewStatus       string `json:"review_status"`
	Archived           bool   `json:"archived"`
}

func summarize(s model.Submission) SubmissionSummary {
	return SubmissionSummary{
		ID:                 s.ID,
		UserID:             s.UserID,
		SubmittedAt:        s.SubmittedAt.UTC().Format(time.RFC3339),
		ContactCount:       s.ContactCount,
		PotentiallyFrench:  s.PotentiallyFrench,
		NotFrench:          s.NotFrench,
		Duplicate:          s.Duplicate,
		NotChecked:         s.NotChecked,
		TerritoryZipcode:   s.TerritoryZipcode,
		TerritoryPageRange: s.TerritoryPageRange,
		ReviewStatus:       s.ReviewStatus,
		Archived:           s.Archived,
	}
}

// ListLatestSubmissions returns the latest submission per canvasser as
// summaries, newest first.
func (s *EventService) ListLatestSubmissions(ctx context.Context) ([]SubmissionSummary, error) {
	submissions, err := s.submissionRepo.FindLatestPerUser(ctx)
	if err != nil {
		return nil, err
	}
	summaries := make([]SubmissionSummary, 0, len(submissions))
	for _, sub := range submissions {
		summaries = append(summaries, summarize(sub))
	}
	return summaries, nil
}

// GetLatestSubmissionForUser returns a canvasser's latest submission with
// the full contact snapshot.
func (s *EventService) GetLatestSubmissionForUser(ctx context.Context, userID string) (*model.Submission, error) {
	if userID == "" {
		return nil, fmt.Errorf("%w: user ID is required", apperrors.ErrBadRequest)
	}
	return s.submissionRepo.FindLatestByUser(ctx, userID)
}

// UpdateSubmissionReview sets a submission's review status and optionally
// its archived flag.
func (s *EventService) UpdateSubmissionReview(ctx context.Context, id int64, reviewStatus string, archived *bool) error {
	log := logger.FromContext(ctx)
	if err := s.submissionRepo.UpdateReview(ctx, id, reviewStatus, archived); err != nil {
		return err
	}
	log.Info("Updated submission review state",
		zap.Int64("submission_id", id),
		zap.String("review_status", reviewStatus),
	)
	return nil
}

// RemoveSubmissionContact deletes one contact from a submission's embedded
// snapshot and recomputes the counters from what remains.
func (s *EventService) RemoveSubmissionContact(ctx context.Context, submissionID int64, contactID string) error {
	return s.mutateSubmissionContacts(ctx, submissionID, contactID, "remove", func(contacts []model.Contact, idx int) []model.Contact {
		return append(contacts[:idx], contacts[idx+1:]...)
	})
}

// ResetSubmissionContactStatus resets one contact's status to the default
// and recomputes the counters.
func (s *EventService) ResetSubmissionContactStatus(ctx context.Context, submissionID int64, contactID string) error {
	return s.mutateSubmissionContacts(ctx, submissionID, contactID, "reset_status", func(contacts []model.Contact, idx int) []model.Contact {
		contacts[idx].Status = model.StatusNotChecked
		return contacts
	})
}

// mutateSubmissionContacts applies one edit to a submission's contact
// snapshot and persists snapshot plus freshly recomputed counters together.
func (s *EventService) mutateSubmissionContacts(ctx context.Context, submissionID int64, contactID, op string, mutate func([]model.Contact, int) []model.Contact) error {
	log := logger.FromContext(ctx)

	if contactID == "" {
		return fmt.Errorf("%w: contact ID is required", apperrors.ErrBadRequest)
	}

	submission, err := s.submissionRepo.FindByID(ctx, submissionID)
	if err != nil {
		return err
	}

	contacts, err := submission.DecodeContacts()
	if err != nil {
		log.Error("Failed to decode submission contacts",
			zap.Int64("submission_id", submissionID),
			zap.Error(err),
		)
		return fmt.Errorf("%w: failed to decode submission contacts: %w", apperrors.ErrDatabase, err)
	}

	idx := -1
	for i := range contacts {
		if contacts[i].ID == contactID {
			idx = i
			break
		}
	}
	if idx == -1 {
		return fmt.Errorf("%w: contact %s not found in submission %d", apperrors.ErrNotFound, contactID, submissionID)
	}

	contacts = mutate(contacts, idx)
	stats := triage.Aggregate(contacts)

	if err := s.submissionRepo.ReplaceContacts(ctx, submissionID, contacts, stats); err != nil {
		return err
	}

	log.Info("Mutated submission contact snapshot",
		zap.Int64("submission_id", submissionID),
		zap.String("contact_id", contactID),
		zap.String("op", op),
		zap.Int("contact_count", stats.Count),
	)
	return nil
}
