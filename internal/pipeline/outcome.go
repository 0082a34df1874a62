package pipeline

import (
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/payslips-tracker/constants"
	"github.com/joseph-ayodele/payslips-tracker/internal/validate"
)

// User-facing messages. Internal error detail never reaches the caller.
const (
	MessageFailed = "Processing failed, please try again."
	MessageManual = "Please enter payslip values manually."
)

// Outcome is returned by Orchestrator.Extract.
type Outcome struct {
	Success             bool             `json:"success"`
	ResultID            uuid.UUID        `json:"result_id"`
	ProcessingTime      time.Duration    `json:"-"`
	ProcessingTimeMs    int64            `json:"processing_time_ms"`
	Method              constants.Method `json:"method,omitempty"`
	Validation          *validate.Result `json:"validation,omitempty"`
	RequiresManualEntry bool             `json:"requires_manual_entry"`
	Message             string           `json:"message,omitempty"`
}

func failedOutcome(elapsed time.Duration) Outcome {
	return Outcome{
		ProcessingTime:   elapsed,
		ProcessingTimeMs: elapsed.Milliseconds(),
		Message:          MessageFailed,
	}
}

func outcomeOf(a *Attempt) Outcome {
	elapsed := a.Elapsed()
	out := Outcome{
		Success:             true,
		ResultID:            a.ResultID,
		ProcessingTime:      elapsed,
		ProcessingTimeMs:    elapsed.Milliseconds(),
		Method:              a.Method,
		Validation:          a.Validation,
		RequiresManualEntry: a.Method == constants.MethodManual,
	}
	if out.RequiresManualEntry {
		out.Message = MessageManual
	}
	return out
}
