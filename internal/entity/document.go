package entity

import (
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/payslips-tracker/constants"
)

// Document is an uploaded payslip file for data transfer between layers.
type Document struct {
	ID             uuid.UUID                `json:"id"`
	UserID         string                   `json:"user_id"`
	StoragePath    string                   `json:"storage_path"`
	FileName       string                   `json:"file_name"`
	Status         constants.DocumentStatus `json:"status"`
	PayPeriodStart *string                  `json:"pay_period_start,omitempty"` // YYYY-MM-DD
	PayPeriodEnd   *string                  `json:"pay_period_end,omitempty"`   // YYYY-MM-DD
	CreatedAt      time.Time                `json:"created_at"`
	UpdatedAt      time.Time                `json:"updated_at"`
}
