package pipeline

import (
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/payslips-tracker/constants"
	"github.com/joseph-ayodele/payslips-tracker/internal/entity"
	"github.com/joseph-ayodele/payslips-tracker/internal/llm"
	"github.com/joseph-ayodele/payslips-tracker/internal/validate"
)

// State is one step of an extraction run.
type State string

const (
	StateFetching       State = "fetching"
	StateClassified     State = "classified"
	StateTextExtraction State = "text_extraction"
	StateImageOCR       State = "image_ocr"
	StateSchemaMapping  State = "schema_mapping"
	StateVisionFallback State = "vision_fallback"
	StateManualFallback State = "manual_fallback"
	StateValidated      State = "validated"
	StatePersisting     State = "persisting"
	StateProcessed      State = "processed" // terminal
	StateFailed         State = "failed"    // terminal
)

func (s State) Terminal() bool { return s == StateProcessed || s == StateFailed }

// Attempt is the working state of one run. It is owned by a single Extract call.
type Attempt struct {
	Document *entity.Document
	Data     []byte
	Format   constants.Format
	Text     string
	Pages    int
	Scanned  bool

	Method         constants.Method
	Fields         llm.PayslipFields
	Validation     *validate.Result
	OCRConfidence  float32
	FallbackReason string
	ResultID       uuid.UUID

	Started time.Time
	// Err is fatal and ends the run in StateFailed.
	Err error
	// VisionErr is soft and routes the run to manual entry.
	VisionErr error
}

func (a *Attempt) Elapsed() time.Duration { return time.Since(a.Started) }

// Next decides the state that follows s once the stage for s has recorded its outcome on a.
// It performs no I/O.
func Next(s State, a *Attempt) State {
	if a.Err != nil {
		return StateFailed
	}
	switch s {
	case StateFetching:
		return StateClassified
	case StateClassified:
		if a.Format == constants.IMAGE {
			return StateImageOCR
		}
		return StateTextExtraction
	case StateTextExtraction:
		// scanned PDFs skip OCR entirely
		if a.Scanned {
			return StateVisionFallback
		}
		return StateSchemaMapping
	case StateImageOCR:
		return StateSchemaMapping
	case StateSchemaMapping:
		return StateValidated
	case StateVisionFallback:
		if a.VisionErr != nil {
			return StateManualFallback
		}
		return StateValidated
	case StateManualFallback, StateValidated:
		return StatePersisting
	case StatePersisting:
		return StateProcessed
	default:
		return StateFailed
	}
}
