package usecase

import (
	"context"
	"time"

	"go.uber.org/zap"

	apperrors "gitlab.com/beaubassin/api/canvass-triage-processor/internal/apperrors"
	"gitlab.com/beaubassin/api/canvass-triage-processor/internal/model"
	"gitlab.com/beaubassin/api/canvass-triage-processor/internal/otm"
	"gitlab.com/beaubassin/api/canvass-triage-processor/pkg/logger"
	"gitlab.com/beaubassin/api/canvass-triage-processor/pkg/utils"
)

// OTMFileInfo is the stored workbook metadata returned to admins. The file
// bytes themselves are never echoed back.
type OTMFileInfo struct {
	Filename   string    `json:"filename"`
	SizeBytes  int       `json:"sizeBytes"`
	UploadedAt time.Time `json:"uploadedAt"`
}

// StoreOTMWorkbook validates and stores the reference address workbook.
// The workbook is parsed up front so a malformed upload is rejected instead
// of poisoning later cross-checks.
func (s *EventService) StoreOTMWorkbook(ctx context.Context, filename string, data []byte) (int, error) {
	log := logger.FromContext(ctx)

	if len(data) == 0 {
		return 0, apperrors.NewFatal(apperrors.ErrBadRequest, "empty workbook upload")
	}

	rows, rawCount, err := otm.ReadWorkbook(data)
	if err != nil {
		log.Warn("Rejected reference workbook upload",
			zap.String("filename", filename),
			zap.Error(err),
		)
		return 0, err
	}

	file := model.OTMFile{
		ID:         model.OTMFileID,
		Filename:   filename,
		FileData:   data,
		UploadedAt: utils.Now(),
	}
	if err := s.otmFileRepo.Upsert(ctx, file); err != nil {
		return 0, err
	}

	log.Info("Stored reference workbook",
		zap.String("filename", filename),
		zap.Int("size_bytes", len(data)),
		zap.Int("address_rows", len(rows)),
		zap.Int("raw_rows", rawCount),
	)
	return len(rows), nil
}

// GetOTMWorkbookInfo returns metadata of the stored reference workbook.
func (s *EventService) GetOTMWorkbookInfo(ctx context.Context) (*OTMFileInfo, error) {
	file, err := s.otmFileRepo.Get(ctx)
	if err != nil {
		return nil, err
	}
	return &OTMFileInfo{
		Filename:   file.Filename,
		SizeBytes:  len(file.FileData),
		UploadedAt: file.UploadedAt,
	}, nil
}

// RunOTMCrossCheck matches flagged contacts from unarchived submissions
// against the reference workbook. A non-nil workbook argument is used
// directly; otherwise the stored workbook is loaded.
func (s *EventService) RunOTMCrossCheck(ctx context.Context, workbook []byte) (*otm.Report, error) {
	log := logger.FromContext(ctx)
	start := utils.Now()

	if workbook == nil {
		file, err := s.otmFileRepo.Get(ctx)
		if err != nil {
			return nil, err
		}
		workbook = file.FileData
	}

	rows, rawCount, err := otm.ReadWorkbook(workbook)
	if err != nil {
		return nil, err
	}

	submissions, err := s.submissionRepo.FindUnarchived(ctx)
	if err != nil {
		return nil, err
	}

	candidates := make([]otm.Candidate, 0)
	for _, submission := range submissions {
		contacts, decodeErr := submission.DecodeContacts()
		if decodeErr != nil {
			log.Warn("Skipping submission with undecodable contacts",
				zap.Int64("submission_id", submission.ID),
				zap.Error(decodeErr),
			)
			continue
		}
		for _, contact := range contacts {
			candidates = append(candidates, otm.Candidate{
				SubmissionID: submission.ID,
				UserID:       submission.UserID,
				SubmittedAt:  submission.SubmittedAt,
				Contact:      contact,
			})
		}
	}

	matches := otm.MatchAll(rows, candidates)
	report := &otm.Report{
		OTMRowCount:     len(rows),
		OTMRawRowCount:  rawCount,
		SubmissionCount: len(submissions),
		MatchCount:      len(matches),
		Matches:         matches,
	}

	log.Info("Reference workbook cross-check finished",
		zap.Int("otm_rows", len(rows)),
		zap.Int("submissions", len(submissions)),
		zap.Int("candidates", len(candidates)),
		zap.Int("matches", len(matches)),
		zap.Duration("duration", time.Since(start)),
	)
	return report, nil
}
