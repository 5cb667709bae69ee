package storage

import (
	"context"

	"gitlab.com/beaubassin/api/canvass-triage-processor/internal/model"
	"gitlab.com/beaubassin/api/canvass-triage-processor/internal/triage"
)

// BatchRepo defines triage batch storage operations
type BatchRepo interface {
	Save(ctx context.Context, batch model.TriageBatch) error
	FindByBatchID(ctx context.Context, batchID string) (*model.TriageBatch, error)
	UpdateDetection(ctx context.Context, batchID string, contacts []model.Contact, status string) error
	Close(ctx context.Context) error
}

// SubmissionRepo defines submission storage operations
type SubmissionRepo interface {
	Insert(ctx context.Context, submission *model.Submission) error
	FindByID(ctx context.Context, id int64) (*model.Submission, error)
	FindLatestPerUser(ctx context.Context) ([]model.Submission, error)
	FindLatestByUser(ctx context.Context, userID string) (*model.Submission, error)
	FindUnarchived(ctx context.Context) ([]model.Submission, error)
	UpdateReview(ctx context.Context, id int64, reviewStatus string, archived *bool) error
	ReplaceContacts(ctx context.Context, id int64, contacts []model.Contact, stats triage.Stats) error
	Close(ctx context.Context) error
}

// OTMFileRepo defines reference workbook storage operations
type OTMFileRepo interface {
	Upsert(ctx context.Context, file model.OTMFile) error
	Get(ctx context.Context) (*model.OTMFile, error)
	Close(ctx context.Context) error
}

// DetectionRunRepo defines detection audit storage operations
type DetectionRunRepo interface {
	Save(ctx context.Context, run model.DetectionRun) error
	Close(ctx context.Context) error
}

// ExhaustedEventRepo defines exhausted event storage operations
type ExhaustedEventRepo interface {
	Save(ctx context.Context, event model.ExhaustedEvent) error
	Close(ctx context.Context) error
}
