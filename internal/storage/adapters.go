package storage

import (
	"context"

	"gitlab.com/beaubassin/api/canvass-triage-processor/internal/model"
	"gitlab.com/beaubassin/api/canvass-triage-processor/internal/triage"
)

// BatchRepoAdapter adapts the PostgresRepo to the BatchRepo interface
type BatchRepoAdapter struct {
	postgres *PostgresRepo
}

// NewBatchRepoAdapter creates a new triage batch repository adapter
func NewBatchRepoAdapter(postgres *PostgresRepo) BatchRepo {
	return &BatchRepoAdapter{postgres: postgres}
}

// Save upserts a triage batch
func (a *BatchRepoAdapter) Save(ctx context.Context, batch model.TriageBatch) error {
	return a.postgres.SaveBatch(ctx, batch)
}

// FindByBatchID finds a triage batch by its batch ID
func (a *BatchRepoAdapter) FindByBatchID(ctx context.Context, batchID string) (*model.TriageBatch, error) {
	return a.postgres.FindBatchByBatchID(ctx, batchID)
}

// UpdateDetection stores the classified contact snapshot and detection status
func (a *BatchRepoAdapter) UpdateDetection(ctx context.Context, batchID string, contacts []model.Contact, status string) error {
	return a.postgres.UpdateBatchDetection(ctx, batchID, contacts, status)
}

func (a *BatchRepoAdapter) Close(ctx context.Context) error {
	return a.postgres.Close(ctx)
}

// SubmissionRepoAdapter adapts the PostgresRepo to the SubmissionRepo interface
type SubmissionRepoAdapter struct {
	postgres *PostgresRepo
}

// NewSubmissionRepoAdapter creates a new submission repository adapter
func NewSubmissionRepoAdapter(postgres *PostgresRepo) SubmissionRepo {
	return &SubmissionRepoAdapter{postgres: postgres}
}

// Insert appends a new submission
func (a *SubmissionRepoAdapter) Insert(ctx context.Context, submission *model.Submission) error {
	return a.postgres.InsertSubmission(ctx, submission)
}

// FindByID finds a submission by ID
func (a *SubmissionRepoAdapter) FindByID(ctx context.Context, id int64) (*model.Submission, error) {
	return a.postgres.FindSubmissionByID(ctx, id)
}

// FindLatestPerUser returns each user's most recent submission
func (a *SubmissionRepoAdapter) FindLatestPerUser(ctx context.Context) ([]model.Submission, error) {
	return a.postgres.FindLatestSubmissionPerUser(ctx)
}

// FindLatestByUser returns a user's most recent submission
func (a *SubmissionRepoAdapter) FindLatestByUser(ctx context.Context, userID string) (*model.Submission, error) {
	return a.postgres.FindLatestSubmissionByUser(ctx, userID)
}

// FindUnarchived returns all submissions not yet archived
func (a *SubmissionRepoAdapter) FindUnarchived(ctx context.Context) ([]model.Submission, error) {
	return a.postgres.FindUnarchivedSubmissions(ctx)
}

// UpdateReview sets the review status and optionally the archived flag
func (a *SubmissionRepoAdapter) UpdateReview(ctx context.Context, id int64, reviewStatus string, archived *bool) error {
	return a.postgres.UpdateSubmissionReview(ctx, id, reviewStatus, archived)
}

// ReplaceContacts overwrites the contact snapshot and cached counters
func (a *SubmissionRepoAdapter) ReplaceContacts(ctx context.Context, id int64, contacts []model.Contact, stats triage.Stats) error {
	return a.postgres.ReplaceSubmissionContacts(ctx, id, contacts, stats)
}

func (a *SubmissionRepoAdapter) Close(ctx context.Context) error {
	return a.postgres.Close(ctx)
}

// OTMFileRepoAdapter adapts the PostgresRepo to the OTMFileRepo interface
type OTMFileRepoAdapter struct {
	postgres *PostgresRepo
}

// NewOTMFileRepoAdapter creates a new reference workbook repository adapter
func NewOTMFileRepoAdapter(postgres *PostgresRepo) OTMFileRepo {
	return &OTMFileRepoAdapter{postgres: postgres}
}

// Upsert stores the reference workbook, replacing any previous one
func (a *OTMFileRepoAdapter) Upsert(ctx context.Context, file model.OTMFile) error {
	return a.postgres.UpsertOTMFile(ctx, file)
}

// Get loads the stored reference workbook
func (a *OTMFileRepoAdapter) Get(ctx context.Context) (*model.OTMFile, error) {
	return a.postgres.GetOTMFile(ctx)
}

func (a *OTMFileRepoAdapter) Close(ctx context.Context) error {
	return a.postgres.Close(ctx)
}

// DetectionRunRepoAdapter adapts the PostgresRepo to the DetectionRunRepo interface
type DetectionRunRepoAdapter struct {
	postgres *PostgresRepo
}

// NewDetectionRunRepoAdapter creates a new detection run repository adapter
func NewDetectionRunRepoAdapter(postgres *PostgresRepo) DetectionRunRepo {
	return &DetectionRunRepoAdapter{postgres: postgres}
}

// Save appends a detection run audit record
func (a *DetectionRunRepoAdapter) Save(ctx context.Context, run model.DetectionRun) error {
	return a.postgres.SaveDetectionRun(ctx, run)
}

func (a *DetectionRunRepoAdapter) Close(ctx context.Context) error {
	return a.postgres.Close(ctx)
}

// ExhaustedEventRepoAdapter adapts the PostgresRepo to the ExhaustedEventRepo interface
type ExhaustedEventRepoAdapter struct {
	postgres *PostgresRepo
}

// NewExhaustedEventRepoAdapter creates a new exhausted event repository adapter
func NewExhaustedEventRepoAdapter(postgres *PostgresRepo) ExhaustedEventRepo {
	return &ExhaustedEventRepoAdapter{postgres: postgres}
}

// Save saves an exhausted event
func (a *ExhaustedEventRepoAdapter) Save(ctx context.Context, event model.ExhaustedEvent) error {
	return a.postgres.SaveExhaustedEvent(ctx, event)
}

// Close closes the repository
func (a *ExhaustedEventRepoAdapter) Close(ctx context.Context) error {
	return a.postgres.Close(ctx)
}

// Ensure adapters implement the interfaces
var _ BatchRepo = (*BatchRepoAdapter)(nil)
var _ SubmissionRepo = (*SubmissionRepoAdapter)(nil)
var _ OTMFileRepo = (*OTMFileRepoAdapter)(nil)
var _ DetectionRunRepo = (*DetectionRunRepoAdapter)(nil)
var _ ExhaustedEventRepo = (*ExhaustedEventRepoAdapter)(nil)
