package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/panjf2000/ants/v2"
	"go.uber.org/zap"

	apperrors "gitlab.com/beaubassin/api/canvass-triage-processor/internal/apperrors"
	"gitlab.com/beaubassin/api/canvass-triage-processor/internal/classify"
	"gitlab.com/beaubassin/api/canvass-triage-processor/internal/config"
	"gitlab.com/beaubassin/api/canvass-triage-processor/internal/model"
	"gitlab.com/beaubassin/api/canvass-triage-processor/internal/observer"
	"gitlab.com/beaubassin/api/canvass-triage-processor/internal/org"
	"gitlab.com/beaubassin/api/canvass-triage-processor/internal/storage"
	"gitlab.com/beaubassin/api/canvass-triage-processor/pkg/logger"
)

// DetectionTaskData holds the necessary data for a name-detection task.
type DetectionTaskData struct {
	Ctx     context.Context // Context derived for the task, NOT the original request context
	BatchID string
	OrgID   string
}

// IDetectionWorker defines the interface for the detection worker pool.
type IDetectionWorker interface {
	SubmitTask(taskData DetectionTaskData) error
	Stop()
}

// DetectionWorker manages the worker pool that runs name classification
// over persisted triage batches.
type DetectionWorker struct {
	pool             *ants.PoolWithFunc
	batchRepo        storage.BatchRepo
	detectionRunRepo storage.DetectionRunRepo
	classifier       *classify.Classifier
	cfg              config.DetectionWorkerPoolConfig
	baseLogger       *zap.Logger
}

// Ensure DetectionWorker implements IDetectionWorker
var _ IDetectionWorker = (*DetectionWorker)(nil)

// NewDetectionWorker creates and initializes a new detection worker pool.
func NewDetectionWorker(
	cfg config.DetectionWorkerPoolConfig,
	batchRepo storage.BatchRepo,
	detectionRunRepo storage.DetectionRunRepo,
	classifier *classify.Classifier,
	baseLogger *zap.Logger,
) (*DetectionWorker, error) {
	worker := &DetectionWorker{
		batchRepo:        batchRepo,
		detectionRunRepo: detectionRunRepo,
		classifier:       classifier,
		cfg:              cfg,
		baseLogger:       baseLogger.Named("detection_worker"), // Create a named logger
	}

	pool, err := ants.NewPoolWithFunc(cfg.PoolSize, func(i interface{}) {
		taskData, ok := i.(DetectionTaskData)
		if !ok {
			worker.baseLogger.Error("Invalid task data type received", zap.Any("data", i))
			return
		}
		worker.processDetectionTask(taskData)
	},
		ants.WithExpiryDuration(cfg.ExpiryTime),
		ants.WithNonblocking(false), // Make it blocking if queue is full, controlled by MaxBlock
		ants.WithMaxBlockingTasks(cfg.QueueSize),
		ants.WithPanicHandler(func(err interface{}) {
			worker.baseLogger.Error("Panic recovered in detection worker", zap.Any("panic_error", err), zap.Stack("stack"))
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create detection worker pool: %w", err)
	}
	worker.pool = pool
	worker.baseLogger.Info("Detection worker pool initialized",
		zap.Int("pool_size", cfg.PoolSize),
		zap.Int("queue_size", cfg.QueueSize),
		zap.Duration("expiry_time", cfg.ExpiryTime),
		zap.Duration("max_block_time", cfg.MaxBlock),
	)
	return worker, nil
}

// SubmitTask submits a new detection task to the worker pool.
func (w *DetectionWorker) SubmitTask(taskData DetectionTaskData) error {
	start := time.Now()
	observer.IncDetectionTasksSubmitted(taskData.OrgID)
	observer.SetDetectionQueueLength(w.pool.Waiting()) // Approximate queue length

	err := w.pool.Invoke(taskData) // Pass task data directly

	duration := time.Since(start)

	if err != nil {
		w.baseLogger.Warn("Failed to submit detection task to pool",
			zap.String("batch_id", taskData.BatchID),
			zap.String("org_id", taskData.OrgID),
			zap.Duration("submit_duration", duration),
			zap.Error(err),
		)
		observer.IncDetectionTasksProcessed(taskData.OrgID, "submit_error")
		if errors.Is(err, ants.ErrPoolOverload) {
			return fmt.Errorf("detection pool overload: %w", err)
		}
		return fmt.Errorf("failed to invoke detection task: %w", err)
	}

	w.baseLogger.Debug("Successfully submitted detection task",
		zap.String("batch_id", taskData.BatchID),
		zap.String("org_id", taskData.OrgID),
		zap.Duration("submit_duration", duration),
	)
	return nil
}

// processDetectionTask contains the actual logic executed by a worker goroutine.
func (w *DetectionWorker) processDetectionTask(taskData DetectionTaskData) {
	// Use the logger derived from the task context if available, otherwise use base logger
	log := logger.FromContextOr(taskData.Ctx, w.baseLogger).With(
		zap.String("task_batch_id", taskData.BatchID),
		zap.String("task_org_id", taskData.OrgID),
	)

	start := time.Now()
	status := "success" // Default status for metrics

	log.Debug("Processing detection task")

	// Add org ID to the task's context for repository operations
	taskCtx := org.WithOrgID(taskData.Ctx, taskData.OrgID)

	// Wait for the shared dictionary load to settle. Load is memoized, so
	// this blocks only while the startup fetch is still in flight; batches
	// arriving during that window must not be classified heuristic-only.
	w.classifier.Dictionary().Load(logger.WithLogger(taskCtx, log))

	// 1. Load the persisted batch snapshot
	batch, err := w.batchRepo.FindByBatchID(taskCtx, taskData.BatchID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			log.Warn("Skipping detection task: batch not found", zap.Error(err))
			status = "skipped_batch_missing"
		} else {
			log.Error("Failed to load batch for detection", zap.Error(err))
			status = "failure_fetch"
		}
		observer.IncDetectionTasksProcessed(taskData.OrgID, status)
		return
	}

	// 2. Decode the contact snapshot
	contacts, err := batch.DecodeContacts()
	if err != nil {
		// The snapshot is undecodable; replace it with an empty list so the
		// failed state is visible instead of leaving the batch pending forever.
		log.Error("Failed to decode batch contacts, marking detection failed", zap.Error(err))
		if markErr := w.batchRepo.UpdateDetection(taskCtx, taskData.BatchID, []model.Contact{}, model.DetectionFailed); markErr != nil {
			log.Error("Failed to mark detection as failed", zap.Error(markErr))
		}
		observer.IncDetectionTasksProcessed(taskData.OrgID, "failure_decode")
		return
	}

	// 3. Run classification in place over the snapshot
	result := w.classifier.ClassifyContacts(taskCtx, contacts)
	observer.AddDetectionContactsChecked(taskData.OrgID, result.Checked)
	observer.AddDetectionContactsMarked(taskData.OrgID, result.Marked)

	// 4. Persist the updated snapshot
	if err := w.batchRepo.UpdateDetection(taskCtx, taskData.BatchID, contacts, model.DetectionDone); err != nil {
		log.Error("Failed to persist detection result", zap.Error(err))
		status = "failure_update"
		if markErr := w.batchRepo.UpdateDetection(taskCtx, taskData.BatchID, contacts, model.DetectionFailed); markErr != nil {
			log.Error("Failed to mark detection as failed", zap.Error(markErr))
		}
	}

	duration := time.Since(start)

	// 5. Record the audit row. Best effort: a failed audit write does not
	// change the batch outcome.
	run := model.DetectionRun{
		BatchID:         taskData.BatchID,
		OrgID:           taskData.OrgID,
		ContactsChecked: result.Checked,
		ContactsMarked:  result.Marked,
		DictionaryState: w.classifier.Dictionary().State(),
		DurationMs:      duration.Milliseconds(),
	}
	if err := w.detectionRunRepo.Save(taskCtx, run); err != nil {
		log.Warn("Failed to record detection run", zap.Error(err))
	}

	observer.IncDetectionTasksProcessed(taskData.OrgID, status)
	observer.ObserveDetectionProcessingDuration(taskData.OrgID, duration)

	log.Info("Detection task finished",
		zap.String("status", status),
		zap.Int("contacts_checked", result.Checked),
		zap.Int("contacts_marked", result.Marked),
		zap.Duration("duration", duration),
	)
}

// Stop gracefully shuts down the worker pool.
func (w *DetectionWorker) Stop() {
	w.baseLogger.Info("Stopping detection worker pool...")
	w.pool.Release()
	w.baseLogger.Info("Detection worker pool stopped")
}
