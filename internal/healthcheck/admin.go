package healthcheck

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"io"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	apperrors "gitlab.com/beaubassin/api/canvass-triage-processor/internal/apperrors"
	"gitlab.com/beaubassin/api/canvass-triage-processor/internal/model"
	"gitlab.com/beaubassin/api/canvass-triage-processor/internal/otm"
	"gitlab.com/beaubassin/api/canvass-triage-processor/internal/usecase"
	"gitlab.com/beaubassin/api/canvass-triage-processor/pkg/utils"
)

// AdminTokenHeader carries the shared admin token on every admin request.
const AdminTokenHeader = "X-Admin-Token"

// maxWorkbookUploadBytes bounds reference workbook uploads.
const maxWorkbookUploadBytes = 20 << 20

// AdminService is the slice of the event service the admin surface needs.
type AdminService interface {
	ListLatestSubmissions(ctx context.Context) ([]usecase.SubmissionSummary, error)
	GetLatestSubmissionForUser(ctx context.Context, userID string) (*model.Submission, error)
	UpdateSubmissionReview(ctx context.Context, id int64, reviewStatus string, archived *bool) error
	RemoveSubmissionContact(ctx context.Context, submissionID int64, contactID string) error
	ResetSubmissionContactStatus(ctx context.Context, submissionID int64, contactID string) error
	StoreOTMWorkbook(ctx context.Context, filename string, data []byte) (int, error)
	GetOTMWorkbookInfo(ctx context.Context) (*usecase.OTMFileInfo, error)
	RunOTMCrossCheck(ctx context.Context, workbook []byte) (*otm.Report, error)
}

// AdminHandler serves the reviewer-facing admin endpoints on the shared
// health server mux. Every endpoint requires the shared admin token.
type AdminHandler struct {
	service AdminService
	token   string
	logger  *zap.Logger
}

// NewAdminHandler creates the admin surface. An empty token disables the
// surface; every request is rejected until one is configured.
func NewAdminHandler(service AdminService, token string, logger *zap.Logger) *AdminHandler {
	return &AdminHandler{
		service: service,
		token:   token,
		logger:  logger.Named("admin"),
	}
}

// Register mounts the admin routes on the given mux.
func (h *AdminHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("/admin/submissions", h.requireToken(h.handleSubmissions))
	mux.HandleFunc("/admin/submissions/review", h.requireToken(h.handleSubmissionReview))
	mux.HandleFunc("/admin/contact", h.requireToken(h.handleContact))
	mux.HandleFunc("/admin/otm-file", h.requireToken(h.handleOTMFile))
	mux.HandleFunc("/admin/otm-check", h.requireToken(h.handleOTMCheck))
}

// errorResponse is the JSON error body for the admin surface.
type errorResponse struct {
	Error string `json:"error"`
}

func (h *AdminHandler) requireToken(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if h.token == "" {
			utils.WriteJSONResponse(w, http.StatusServiceUnavailable, errorResponse{Error: "admin surface is not configured"})
			return
		}
		provided := r.Header.Get(AdminTokenHeader)
		if subtle.ConstantTimeCompare([]byte(provided), []byte(h.token)) != 1 {
			h.logger.Warn("Rejected admin request with bad token",
				zap.String("path", r.URL.Path),
				zap.String("remote_addr", r.RemoteAddr),
			)
			utils.WriteJSONResponse(w, http.StatusUnauthorized, errorResponse{Error: "invalid admin token"})
			return
		}
		next(w, r)
	}
}

// writeError maps service errors onto HTTP statuses.
func (h *AdminHandler) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case apperrors.IsBadRequestError(err):
		status = http.StatusBadRequest
	case apperrors.IsNotFoundError(err):
		status = http.StatusNotFound
	case apperrors.IsConflictError(err):
		status = http.StatusConflict
	case apperrors.IsUnauthorizedError(err):
		status = http.StatusUnauthorized
	}
	if status == http.StatusInternalServerError {
		h.logger.Error("Admin request failed", zap.Error(err))
	}
	utils.WriteJSONResponse(w, status, errorResponse{Error: err.Error()})
}

// handleSubmissions serves GET /admin/submissions. Without a userId query
// parameter it lists the latest submission per user as summaries; with one
// it returns that user's full latest submission.
func (h *AdminHandler) handleSubmissions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		utils.WriteJSONResponse(w, http.StatusMethodNotAllowed, errorResponse{Error: "method not allowed"})
		return
	}

	if userID := r.URL.Query().Get("userId"); userID != "" {
		submission, err := h.service.GetLatestSubmissionForUser(r.Context(), userID)
		if err != nil {
			h.writeError(w, err)
			return
		}
		utils.WriteJSONResponse(w, http.StatusOK, submission)
		return
	}

	summaries, err := h.service.ListLatestSubmissions(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	utils.WriteJSONResponse(w, http.StatusOK, summaries)
}

// reviewRequest is the body of PATCH /admin/submissions/review.
type reviewRequest struct {
	SubmissionID int64  `json:"submission_id"`
	ReviewStatus string `json:"review_status"`
	Archived     *bool  `json:"archived,omitempty"`
}

func (h *AdminHandler) handleSubmissionReview(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPatch {
		w.Header().Set("Allow", http.MethodPatch)
		utils.WriteJSONResponse(w, http.StatusMethodNotAllowed, errorResponse{Error: "method not allowed"})
		return
	}

	var req reviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteJSONResponse(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}
	if req.SubmissionID <= 0 {
		utils.WriteJSONResponse(w, http.StatusBadRequest, errorResponse{Error: "submission_id is required"})
		return
	}
	if !model.IsKnownReviewStatus(req.ReviewStatus) {
		utils.WriteJSONResponse(w, http.StatusBadRequest, errorResponse{Error: "unknown review status"})
		return
	}

	if err := h.service.UpdateSubmissionReview(r.Context(), req.SubmissionID, req.ReviewStatus, req.Archived); err != nil {
		h.writeError(w, err)
		return
	}
	utils.WriteJSONResponse(w, http.StatusOK, map[string]interface{}{
		"submission_id": req.SubmissionID,
		"review_status": req.ReviewStatus,
	})
}

// handleContact serves DELETE and PATCH /admin/contact. DELETE removes the
// contact from the submission snapshot; PATCH resets its status to the
// default. Both recompute the submission counters.
func (h *AdminHandler) handleContact(w http.ResponseWriter, r *http.Request) {
	submissionID, err := strconv.ParseInt(r.URL.Query().Get("submissionId"), 10, 64)
	if err != nil || submissionID <= 0 {
		utils.WriteJSONResponse(w, http.StatusBadRequest, errorResponse{Error: "submissionId is required"})
		return
	}
	contactID := r.URL.Query().Get("contactId")
	if contactID == "" {
		utils.WriteJSONResponse(w, http.StatusBadRequest, errorResponse{Error: "contactId is required"})
		return
	}

	switch r.Method {
	case http.MethodDelete:
		err = h.service.RemoveSubmissionContact(r.Context(), submissionID, contactID)
	case http.MethodPatch:
		err = h.service.ResetSubmissionContactStatus(r.Context(), submissionID, contactID)
	default:
		w.Header().Set("Allow", "DELETE, PATCH")
		utils.WriteJSONResponse(w, http.StatusMethodNotAllowed, errorResponse{Error: "method not allowed"})
		return
	}
	if err != nil {
		h.writeError(w, err)
		return
	}
	utils.WriteJSONResponse(w, http.StatusOK, map[string]interface{}{
		"submission_id": submissionID,
		"contact_id":    contactID,
	})
}

// handleOTMFile serves GET (stored workbook metadata) and POST (replace the
// stored workbook) on /admin/otm-file.
func (h *AdminHandler) handleOTMFile(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		info, err := h.service.GetOTMWorkbookInfo(r.Context())
		if err != nil {
			h.writeError(w, err)
			return
		}
		utils.WriteJSONResponse(w, http.StatusOK, info)
	case http.MethodPost:
		filename, data, err := h.readWorkbookUpload(r)
		if err != nil {
			utils.WriteJSONResponse(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
			return
		}
		rowCount, err := h.service.StoreOTMWorkbook(r.Context(), filename, data)
		if err != nil {
			h.writeError(w, err)
			return
		}
		utils.WriteJSONResponse(w, http.StatusOK, map[string]interface{}{
			"filename":  filename,
			"sizeBytes": len(data),
			"rowCount":  rowCount,
		})
	default:
		w.Header().Set("Allow", "GET, POST")
		utils.WriteJSONResponse(w, http.StatusMethodNotAllowed, errorResponse{Error: "method not allowed"})
	}
}

// handleOTMCheck serves POST /admin/otm-check. A request with a workbook
// body checks against that upload; an empty body checks against the stored
// workbook.
func (h *AdminHandler) handleOTMCheck(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		utils.WriteJSONResponse(w, http.StatusMethodNotAllowed, errorResponse{Error: "method not allowed"})
		return
	}

	var workbook []byte
	if r.ContentLength != 0 {
		_, data, err := h.readWorkbookUpload(r)
		if err != nil {
			utils.WriteJSONResponse(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
			return
		}
		workbook = data
	}

	report, err := h.service.RunOTMCrossCheck(r.Context(), workbook)
	if err != nil {
		h.writeError(w, err)
		return
	}
	utils.WriteJSONResponse(w, http.StatusOK, report)
}

// readWorkbookUpload extracts the workbook bytes from a request: the "file"
// part of a multipart form, or the raw body with the filename taken from
// the filename query parameter.
func (h *AdminHandler) readWorkbookUpload(r *http.Request) (string, []byte, error) {
	r.Body = http.MaxBytesReader(nil, r.Body, maxWorkbookUploadBytes)

	if err := r.ParseMultipartForm(maxWorkbookUploadBytes); err == nil {
		file, header, formErr := r.FormFile("file")
		if formErr != nil {
			return "", nil, formErr
		}
		defer file.Close()
		data, readErr := io.ReadAll(file)
		if readErr != nil {
			return "", nil, readErr
		}
		return header.Filename, data, nil
	}

	data, err := io.ReadAll(r.Body)
	if err != nil {
		return "", nil, err
	}
	filename := r.URL.Query().Get("filename")
	if filename == "" {
		filename = "otm.xlsx"
	}
	return filename, data, nil
}
