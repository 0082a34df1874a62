// Package pipeline turns an uploaded payslip into a persisted extraction result through a
// cascade of strategies: text layer, OCR, vision model, then manual entry.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/payslips-tracker/constants"
	"github.com/joseph-ayodele/payslips-tracker/internal/common"
	"github.com/joseph-ayodele/payslips-tracker/internal/entity"
	"github.com/joseph-ayodele/payslips-tracker/internal/llm"
	"github.com/joseph-ayodele/payslips-tracker/internal/lock"
	"github.com/joseph-ayodele/payslips-tracker/internal/ocr"
	"github.com/joseph-ayodele/payslips-tracker/internal/pdftext"
	"github.com/joseph-ayodele/payslips-tracker/internal/validate"
)

type DocumentStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*entity.Document, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status constants.DocumentStatus) error
	MarkProcessed(ctx context.Context, id uuid.UUID, periodStart, periodEnd *string) error
}

type ResultStore interface {
	Insert(ctx context.Context, res *entity.ExtractionResult) (uuid.UUID, error)
}

type Fetcher interface {
	Fetch(ctx context.Context, storagePath string) ([]byte, error)
}

type TextExtractor interface {
	Extract(ctx context.Context, data []byte) pdftext.Result
}

type Recognizer interface {
	Recognize(ctx context.Context, img []byte) (ocr.Recognition, error)
}

// Deps are the collaborators of an Orchestrator. Vision and Locker are optional.
type Deps struct {
	Documents DocumentStore
	Results   ResultStore
	Fetcher   Fetcher
	Text      TextExtractor
	OCR       Recognizer
	Mapper    llm.SchemaMapper
	Vision    llm.VisionExtractor
	Locker    lock.Locker
}

type Config struct {
	// Tolerance is the allowed net pay mismatch as a fraction of gross pay.
	Tolerance float64
}

// Orchestrator runs the extraction state machine for one document at a time per call.
// It holds no per-run state, so one instance serves concurrent runs.
type Orchestrator struct {
	deps   Deps
	cfg    Config
	logger *slog.Logger
}

func NewOrchestrator(deps Deps, cfg Config, logger *slog.Logger) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Tolerance <= 0 {
		cfg.Tolerance = validate.DefaultTolerance
	}
	if deps.Locker == nil {
		deps.Locker = lock.NewMemory()
	}
	return &Orchestrator{deps: deps, cfg: cfg, logger: logger}
}

// Extract runs the pipeline for documentID on behalf of userID and waits for a terminal state.
// A document that does not exist or belongs to someone else yields common.ErrNotFound and is
// left untouched. Fatal failures mark the document failed and return the cause.
func (o *Orchestrator) Extract(ctx context.Context, documentID uuid.UUID, userID string) (Outcome, error) {
	a := &Attempt{Started: time.Now()}
	log := o.logger.With("document_id", documentID, "user_id", userID)

	release, err := o.deps.Locker.Acquire(ctx, documentID.String())
	if err != nil {
		log.Warn("pipeline.lock.rejected", "error", err)
		return failedOutcome(a.Elapsed()), err
	}
	defer release()

	doc, err := o.deps.Documents.GetByID(ctx, documentID)
	if err != nil {
		log.Error("pipeline.document.lookup_failed", "error", err, "elapsed_ms", a.Elapsed().Milliseconds())
		return failedOutcome(a.Elapsed()), err
	}
	if doc.UserID != userID {
		log.Warn("pipeline.document.owner_mismatch")
		return failedOutcome(a.Elapsed()), common.ErrNotFound
	}
	a.Document = doc

	if err := o.deps.Documents.UpdateStatus(ctx, doc.ID, constants.DocumentStatusProcessing); err != nil {
		log.Error("pipeline.status.update_failed", "status", constants.DocumentStatusProcessing, "error", err)
		return failedOutcome(a.Elapsed()), err
	}
	log.Info("pipeline.start", "file_name", doc.FileName)

	state := StateFetching
	for !state.Terminal() {
		o.run(ctx, state, a, log)
		next := Next(state, a)
		log.Debug("pipeline.transition", "from", state, "to", next, "elapsed_ms", a.Elapsed().Milliseconds())
		state = next
	}

	if state == StateFailed {
		o.markFailed(a, log)
		return failedOutcome(a.Elapsed()), a.Err
	}

	out := outcomeOf(a)
	log.Info("pipeline.done",
		"result_id", out.ResultID,
		"method", out.Method,
		"requires_manual_entry", out.RequiresManualEntry,
		"warnings", warningCount(out.Validation),
		"elapsed_ms", out.ProcessingTimeMs,
	)
	return out, nil
}

// run performs the I/O for state and records its outcome on a.
func (o *Orchestrator) run(ctx context.Context, state State, a *Attempt, log *slog.Logger) {
	switch state {
	case StateFetching:
		o.fetch(ctx, a, log)
	case StateClassified:
		a.Format = constants.ClassifyFile(a.Document.FileName, a.Document.StoragePath)
	case StateTextExtraction:
		o.extractText(ctx, a)
	case StateImageOCR:
		o.recognize(ctx, a, log)
	case StateSchemaMapping:
		o.mapText(ctx, a, log)
	case StateVisionFallback:
		o.vision(ctx, a, log)
	case StateManualFallback:
		a.Method = constants.MethodManual
		a.Fields = llm.PayslipFields{}
		a.Validation = nil
		log.Warn("pipeline.manual_fallback", "reason", a.FallbackReason, "elapsed_ms", a.Elapsed().Milliseconds())
	case StateValidated:
		res := validate.Validate(a.Fields, o.cfg.Tolerance)
		a.Validation = &res
	case StatePersisting:
		o.persist(ctx, a, log)
	default:
		a.Err = fmt.Errorf("pipeline: no stage for state %q", state)
	}
}

// markFailed records the failed status with a fresh context so a cancelled run is still recorded.
func (o *Orchestrator) markFailed(a *Attempt, log *slog.Logger) {
	log.Error("pipeline.failed", "error", a.Err, "code", common.CodeOf(a.Err), "elapsed_ms", a.Elapsed().Milliseconds())
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := o.deps.Documents.UpdateStatus(ctx, a.Document.ID, constants.DocumentStatusFailed); err != nil {
		log.Error("pipeline.status.update_failed", "status", constants.DocumentStatusFailed, "error", err)
	}
}

func warningCount(v *validate.Result) int {
	if v == nil {
		return 0
	}
	return len(v.Warnings)
}

var (
	// ErrNoMapper is returned when a run needs the text model but none is configured.
	ErrNoMapper = errors.New("pipeline: no schema mapper configured")

	errVisionDisabled = errors.New("vision extraction is not configured")
)
